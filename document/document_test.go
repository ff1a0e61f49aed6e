package document

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const page = `<!DOCTYPE html>
<html lang="fr-FR">
<head><title>Test</title><link href="style.css" rel="stylesheet"></head>
<body>
<p><a href="http://en.example.org/wiki/Lorem_ipsum">lorem</a></p>
<a href=" https://example.com/ ">padded</a>
<a href="mailto:someone@example.com">mail</a>
<a name="anchor">no href</a>
<a href="">empty</a>
<map><area href="https://example.com/area" alt="area"></map>
<a href="http://en.example.org/wiki/Lorem_ipsum">again</a>
</body>
</html>`

func TestExtract(t *testing.T) {
	doc, err := Extract(strings.NewReader(page))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if doc.Language != "fr" {
		t.Errorf("Language = %q, want %q", doc.Language, "fr")
	}

	want := []string{
		"http://en.example.org/wiki/Lorem_ipsum",
		"https://example.com/",
		"mailto:someone@example.com",
		"https://example.com/area",
		"http://en.example.org/wiki/Lorem_ipsum",
	}
	if len(doc.Hrefs) != len(want) {
		t.Fatalf("Hrefs = %v, want %v", doc.Hrefs, want)
	}
	for i := range want {
		if doc.Hrefs[i] != want[i] {
			t.Errorf("Hrefs[%d] = %q, want %q", i, doc.Hrefs[i], want[i])
		}
	}
}

func TestExtract_Language(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{name: "two letters", html: `<html lang="de"><body></body></html>`, want: "de"},
		{name: "region subtag", html: `<html lang="EN-gb"><body></body></html>`, want: "en"},
		{name: "xml lang", html: `<html xml:lang="it"><body></body></html>`, want: "it"},
		{name: "missing", html: `<html><body></body></html>`, want: ""},
		{name: "too short", html: `<html lang="x"><body></body></html>`, want: ""},
		{name: "not letters", html: `<html lang="1a"><body></body></html>`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Extract(strings.NewReader(tt.html))
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}
			if doc.Language != tt.want {
				t.Errorf("Language = %q, want %q", doc.Language, tt.want)
			}
		})
	}
}

func TestRewrite(t *testing.T) {
	doc, err := Extract(strings.NewReader(page))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	changed := doc.Rewrite(map[string]string{
		"http://en.example.org/wiki/Lorem_ipsum": "https://fr.example.org/wiki/Lorem_ipsum",
		"https://example.com/":                   "https://www.example.com/",
		"https://example.com/area":               "https://example.com/area",
	})
	if changed != 3 {
		t.Errorf("Rewrite() changed %d links, want 3", changed)
	}

	var buf bytes.Buffer
	if err := doc.Render(&buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "en.example.org") {
		t.Errorf("rendered document still links en.example.org:\n%s", out)
	}
	if strings.Count(out, `href="https://fr.example.org/wiki/Lorem_ipsum"`) != 2 {
		t.Errorf("expected both article links rewritten:\n%s", out)
	}
	if !strings.Contains(out, `href="mailto:someone@example.com"`) {
		t.Errorf("unrelated link changed:\n%s", out)
	}
	if !strings.Contains(out, `<link href="style.css"`) {
		t.Errorf("non-link element changed:\n%s", out)
	}
}

func TestLoadSave(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.html")
	if err := os.WriteFile(in, []byte(page), 0o600); err != nil {
		t.Fatal(err)
	}

	doc, err := Load(in)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	doc.Rewrite(map[string]string{"mailto:someone@example.com": "mailto:other@example.com"})

	out := filepath.Join(dir, "out.html")
	if err := doc.Save(out); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	reloaded, err := Load(out)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if reloaded.Hrefs[2] != "mailto:other@example.com" {
		t.Errorf("Hrefs[2] = %q, want rewritten mailto", reloaded.Hrefs[2])
	}
	if reloaded.Language != "fr" {
		t.Errorf("Language = %q after round trip", reloaded.Language)
	}

	if _, err := Load(filepath.Join(dir, "missing.html")); err == nil {
		t.Error("Load() of missing file returned no error")
	}
}
