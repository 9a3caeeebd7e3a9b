package xlsx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractText renders each sheet as a heading line followed by one line per row.
func (e *Extractor) ExtractText(ctx context.Context, raw []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	var sheets []string
	for _, sheet := range f.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}

		var content strings.Builder
		for _, row := range rows {
			cells := make([]string, 0, len(row))
			for _, cell := range row {
				if cell = strings.TrimSpace(cell); cell != "" {
					cells = append(cells, cell)
				}
			}
			if len(cells) == 0 {
				continue
			}
			content.WriteString(strings.Join(cells, " "))
			content.WriteByte('\n')
		}
		if content.Len() == 0 {
			continue
		}
		sheets = append(sheets, sheet+"\n"+strings.TrimRight(content.String(), "\n"))
	}

	if len(sheets) == 0 {
		return "", errors.New("no data found in xlsx")
	}
	return strings.Join(sheets, "\n\n"), nil
}
