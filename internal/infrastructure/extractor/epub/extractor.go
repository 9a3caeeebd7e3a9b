package epub

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const containerPath = "META-INF/container.xml"

const blockSelector = "p, div, section, article, h1, h2, h3, h4, h5, h6, li, blockquote, pre, tr, br, hr"

type container struct {
	Rootfiles []struct {
		FullPath string `xml:"full-path,attr"`
	} `xml:"rootfiles>rootfile"`
}

type packageDocument struct {
	Manifest []struct {
		ID        string `xml:"id,attr"`
		Href      string `xml:"href,attr"`
		MediaType string `xml:"media-type,attr"`
	} `xml:"manifest>item"`
	Spine []struct {
		IDRef  string `xml:"idref,attr"`
		Linear string `xml:"linear,attr"`
	} `xml:"spine>itemref"`
}

type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractText returns the text of the spine documents in reading order.
func (e *Extractor) ExtractText(ctx context.Context, raw []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("open epub archive: %w", err)
	}
	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}

	opfPath, err := rootfilePath(files)
	if err != nil {
		return "", err
	}
	var pkg packageDocument
	if err := decodeXML(files, opfPath, &pkg); err != nil {
		return "", fmt.Errorf("read package document: %w", err)
	}

	hrefs := make(map[string]string, len(pkg.Manifest))
	for _, item := range pkg.Manifest {
		hrefs[item.ID] = item.Href
	}

	base := path.Dir(opfPath)
	chapters := make([]string, 0, len(pkg.Spine))
	for _, ref := range pkg.Spine {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if ref.Linear == "no" {
			continue
		}
		href, ok := hrefs[ref.IDRef]
		if !ok {
			continue
		}
		name := resolveHref(base, href)
		f, ok := files[name]
		if !ok {
			continue
		}
		text, err := chapterText(f)
		if err != nil {
			return "", fmt.Errorf("read chapter %s: %w", name, err)
		}
		if text != "" {
			chapters = append(chapters, text)
		}
	}
	if len(chapters) == 0 {
		return "", errors.New("epub has no readable spine documents")
	}
	return strings.Join(chapters, "\n\n"), nil
}

func rootfilePath(files map[string]*zip.File) (string, error) {
	var c container
	if err := decodeXML(files, containerPath, &c); err != nil {
		return "", fmt.Errorf("read container: %w", err)
	}
	for _, rf := range c.Rootfiles {
		if rf.FullPath != "" {
			return rf.FullPath, nil
		}
	}
	return "", errors.New("epub container has no rootfile")
}

func decodeXML(files map[string]*zip.File, name string, v any) error {
	f, ok := files[name]
	if !ok {
		return fmt.Errorf("%s not found", name)
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	return xml.NewDecoder(rc).Decode(v)
}

func resolveHref(base, href string) string {
	if unescaped, err := url.PathUnescape(href); err == nil {
		href = unescaped
	}
	if i := strings.IndexByte(href, '#'); i >= 0 {
		href = href[:i]
	}
	if base == "." || base == "" {
		return path.Clean(href)
	}
	return path.Join(base, href)
}

func chapterText(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(rc, 64<<20))
	if err != nil {
		return "", err
	}
	doc.Find("script, style, head").Remove()
	doc.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	lines := strings.Split(doc.Find("body").Text(), "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n"), nil
}
