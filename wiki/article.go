// Package wiki recognizes encyclopedia article URLs and resolves them to the
// equivalent article in another language through the site's langlinks API.
package wiki

import (
	"net/url"
	"strings"
)

// DefaultSite is the encyclopedia domain articles are matched against.
const DefaultSite = "wikipedia.org"

const articlePrefix = "/wiki/"

// Article is an article reference parsed from a URL of the form
// scheme://<lang>.<site>/wiki/<title>[#<fragment>].
type Article struct {
	Scheme   string
	Lang     string
	Site     string
	Title    string // decoded, underscores kept as in the URL
	Fragment string // decoded, without '#'
}

// ParseArticle returns the article rawURL points at, or false when rawURL is
// not an article URL of site.
func ParseArticle(rawURL, site string) (Article, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Opaque != "" || u.User != nil || u.RawQuery != "" {
		return Article{}, false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Article{}, false
	}

	host := strings.ToLower(u.Host)
	lang, ok := strings.CutSuffix(host, "."+strings.ToLower(site))
	if !ok || lang == "www" || !isLanguageCode(lang) {
		return Article{}, false
	}

	title, ok := strings.CutPrefix(u.Path, articlePrefix)
	if !ok || title == "" {
		return Article{}, false
	}

	return Article{
		Scheme:   u.Scheme,
		Lang:     lang,
		Site:     site,
		Title:    title,
		Fragment: u.Fragment,
	}, true
}

// URL returns the article URL in lang for title. Spaces in title become
// underscores, the way the site links its own articles.
func URL(scheme, lang, site, title string) string {
	return scheme + "://" + lang + "." + site + articlePrefix + escapeTitle(strings.ReplaceAll(title, " ", "_"))
}

// escapeTitle percent-encodes title for a URL path, leaving the sub-delims
// the site itself leaves readable, such as parentheses and apostrophes.
func escapeTitle(title string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	for i := 0; i < len(title); i++ {
		c := title[i]
		if 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9' ||
			strings.IndexByte("-._~!$&'()*+,;=:@/", c) >= 0 {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&15])
	}
	return b.String()
}

// isLanguageCode accepts wiki subdomains such as "en", "simple" or
// "zh-min-nan"; anything containing a dot is a deeper subdomain.
func isLanguageCode(s string) bool {
	if s == "" || s[0] == '-' {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !('a' <= c && c <= 'z' || c == '-') {
			return false
		}
	}
	return true
}
