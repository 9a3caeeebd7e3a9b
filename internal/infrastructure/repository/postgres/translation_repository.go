package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/kirillkom/context-reader/internal/core/domain"
)

type TranslationRepository struct {
	db *sql.DB
}

func NewTranslationRepository(db *sql.DB) *TranslationRepository {
	return &TranslationRepository{db: db}
}

func (r *TranslationRepository) SaveTranslation(ctx context.Context, t *domain.Translation) error {
	synonyms, err := json.Marshal(t.Result.Synonyms)
	if err != nil {
		return fmt.Errorf("marshal synonyms: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
INSERT INTO translations (
	id, document_id, selected, context, context_found, target_language, model, provider,
	translation, definition, explanation, synonyms, cached, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
`,
		t.ID, t.DocumentID, t.Selected, t.Context, t.ContextFound, t.TargetLanguage, t.Model, string(t.Provider),
		t.Result.Translation, t.Result.Definition, t.Result.Explanation, synonyms, t.Cached, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert translation: %w", err)
	}
	return nil
}

// ListTranslations returns the newest entries first.
func (r *TranslationRepository) ListTranslations(ctx context.Context, documentID string, limit int) ([]domain.Translation, error) {
	if limit <= 0 {
		return []domain.Translation{}, nil
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, document_id, selected, context, context_found, target_language, model, provider,
	translation, definition, explanation, synonyms, cached, created_at
FROM translations
WHERE document_id = $1
ORDER BY created_at DESC
LIMIT $2
`, documentID, limit)
	if err != nil {
		return nil, fmt.Errorf("list translations: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Translation, 0, limit)
	for rows.Next() {
		var t domain.Translation
		var provider string
		var synonyms []byte
		if err := rows.Scan(
			&t.ID,
			&t.DocumentID,
			&t.Selected,
			&t.Context,
			&t.ContextFound,
			&t.TargetLanguage,
			&t.Model,
			&provider,
			&t.Result.Translation,
			&t.Result.Definition,
			&t.Result.Explanation,
			&synonyms,
			&t.Cached,
			&t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan translation: %w", err)
		}
		if err := json.Unmarshal(synonyms, &t.Result.Synonyms); err != nil {
			return nil, fmt.Errorf("unmarshal synonyms: %w", err)
		}
		t.Provider = domain.ProviderName(provider)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate translations: %w", err)
	}
	return out, nil
}
