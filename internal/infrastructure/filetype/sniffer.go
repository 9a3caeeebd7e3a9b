// Package filetype detects upload content types from magic bytes.
package filetype

import (
	"log/slog"

	"github.com/gabriel-vasile/mimetype"
)

type Sniffer struct{}

func NewSniffer() *Sniffer {
	return &Sniffer{}
}

// Sniff returns the detected MIME type of head, including parameters such as charset.
func (s *Sniffer) Sniff(head []byte) string {
	if len(head) == 0 {
		return ""
	}
	mtype := mimetype.Detect(head)
	slog.Debug("content_sniffed", "mime", mtype.String(), "ext", mtype.Extension())
	return mtype.String()
}
