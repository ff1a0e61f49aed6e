// Package document reads the hyperlinks and language of an HTML document
// and writes replacement links back into it.
package document

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// linkSelector matches the elements whose href is a hyperlink target.
const linkSelector = "a[href], area[href]"

// Document is a parsed HTML document.
type Document struct {
	// Language is the lower-cased two-letter code from <html lang>, or "".
	Language string
	// Hrefs are the link targets in document order, duplicates kept.
	Hrefs []string

	doc *goquery.Document
}

// Extract parses HTML from r.
func Extract(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	d := &Document{doc: doc}
	root := doc.Find("html").First()
	lang, ok := root.Attr("lang")
	if !ok {
		lang, _ = root.Attr("xml:lang")
	}
	d.Language = languageCode(lang)

	doc.Find(linkSelector).Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href != "" {
			d.Hrefs = append(d.Hrefs, href)
		}
	})
	return d, nil
}

// Load parses the HTML file at path.
func Load(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Extract(f)
}

// Rewrite replaces every link target found in replacements and returns the
// number of links changed.
func (d *Document) Rewrite(replacements map[string]string) int {
	changed := 0
	d.doc.Find(linkSelector).Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if to, ok := replacements[href]; ok && to != href {
			s.SetAttr("href", to)
			changed++
		}
	})
	return changed
}

// Render writes the document as HTML.
func (d *Document) Render(w io.Writer) error {
	if err := html.Render(w, d.doc.Get(0)); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}

// Save writes the document to path.
func (d *Document) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	if err := d.Render(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func languageCode(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if len(lang) < 2 {
		return ""
	}
	code := lang[:2]
	for i := 0; i < len(code); i++ {
		if code[i] < 'a' || code[i] > 'z' {
			return ""
		}
	}
	return code
}
