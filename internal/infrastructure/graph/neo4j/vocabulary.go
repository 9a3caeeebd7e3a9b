// Package neo4j keeps a per-document vocabulary graph of looked-up terms.
//
//	(:Document {id})-[:LOOKED_UP {count, last_seen}]->(:Term {text})
//	(:Term)-[:TRANSLATES_TO {language}]->(:Gloss {text, language})
package neo4j

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/kirillkom/context-reader/internal/core/domain"
)

const (
	recordLookupQuery = `
MERGE (d:Document {id: $document_id})
MERGE (t:Term {text: $term})
MERGE (d)-[l:LOOKED_UP]->(t)
  ON CREATE SET l.count = 1, l.last_seen = $seen_at
  ON MATCH SET l.count = l.count + 1, l.last_seen = $seen_at
MERGE (g:Gloss {text: $translation, language: $language})
MERGE (t)-[:TRANSLATES_TO {language: $language}]->(g)`

	listVocabularyQuery = `
MATCH (d:Document {id: $document_id})-[l:LOOKED_UP]->(t:Term)
OPTIONAL MATCH (t)-[:TRANSLATES_TO]->(g:Gloss)
WITH t, l, collect(g)[0] AS g
RETURN t.text AS term, coalesce(g.language, '') AS language, coalesce(g.text, '') AS translation,
       l.count AS lookups, l.last_seen AS last_seen
ORDER BY l.last_seen DESC
LIMIT $limit`
)

type queryRunner func(ctx context.Context, query string, params map[string]any, read bool) (*neo4j.EagerResult, error)

type VocabularyGraph struct {
	driver neo4j.DriverWithContext
	run    queryRunner
}

func New(ctx context.Context, uri, user, password, database string) (*VocabularyGraph, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verify neo4j connectivity: %w", err)
	}

	g := &VocabularyGraph{driver: driver}
	g.run = func(ctx context.Context, query string, params map[string]any, read bool) (*neo4j.EagerResult, error) {
		opts := []neo4j.ExecuteQueryConfigurationOption{}
		if database != "" {
			opts = append(opts, neo4j.ExecuteQueryWithDatabase(database))
		}
		if read {
			opts = append(opts, neo4j.ExecuteQueryWithReadersRouting())
		}
		return neo4j.ExecuteQuery(ctx, driver, query, params, neo4j.EagerResultTransformer, opts...)
	}
	return g, nil
}

func (g *VocabularyGraph) RecordLookup(ctx context.Context, t domain.Translation) error {
	term := strings.TrimSpace(t.Selected)
	if term == "" || t.DocumentID == "" {
		return nil
	}
	seenAt := t.CreatedAt
	if seenAt.IsZero() {
		seenAt = time.Now().UTC()
	}
	_, err := g.run(ctx, recordLookupQuery, map[string]any{
		"document_id": t.DocumentID,
		"term":        term,
		"translation": t.Result.Translation,
		"language":    t.TargetLanguage,
		"seen_at":     seenAt.UnixMilli(),
	}, false)
	if err != nil {
		return fmt.Errorf("record vocabulary lookup: %w", err)
	}
	return nil
}

func (g *VocabularyGraph) ListVocabulary(ctx context.Context, documentID string, limit int) ([]domain.VocabularyTerm, error) {
	result, err := g.run(ctx, listVocabularyQuery, map[string]any{
		"document_id": documentID,
		"limit":       int64(limit),
	}, true)
	if err != nil {
		return nil, fmt.Errorf("list vocabulary: %w", err)
	}

	terms := make([]domain.VocabularyTerm, 0, len(result.Records))
	for _, record := range result.Records {
		term, err := termFromRecord(record)
		if err != nil {
			return nil, err
		}
		terms = append(terms, term)
	}
	return terms, nil
}

func (g *VocabularyGraph) Close(ctx context.Context) error {
	if g.driver == nil {
		return nil
	}
	return g.driver.Close(ctx)
}

func termFromRecord(record *neo4j.Record) (domain.VocabularyTerm, error) {
	text, _, err := neo4j.GetRecordValue[string](record, "term")
	if err != nil {
		return domain.VocabularyTerm{}, fmt.Errorf("read term: %w", err)
	}
	language, _, err := neo4j.GetRecordValue[string](record, "language")
	if err != nil {
		return domain.VocabularyTerm{}, fmt.Errorf("read language: %w", err)
	}
	translation, _, err := neo4j.GetRecordValue[string](record, "translation")
	if err != nil {
		return domain.VocabularyTerm{}, fmt.Errorf("read translation: %w", err)
	}
	lookups, _, err := neo4j.GetRecordValue[int64](record, "lookups")
	if err != nil {
		return domain.VocabularyTerm{}, fmt.Errorf("read lookups: %w", err)
	}
	lastSeen, _, err := neo4j.GetRecordValue[int64](record, "last_seen")
	if err != nil {
		return domain.VocabularyTerm{}, fmt.Errorf("read last_seen: %w", err)
	}
	return domain.VocabularyTerm{
		Term:        text,
		Language:    language,
		Translation: translation,
		Lookups:     int(lookups),
		LastSeen:    time.UnixMilli(lastSeen).UTC(),
	}, nil
}
