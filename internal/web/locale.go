package web

import (
	"net/http"
	"strings"

	"golang.org/x/text/language"
)

// Locales resolves the locale of a request.
//
// Precedence: path segment, then the locale cookie, then the first
// Accept-Language entry whose base language is supported, then the default.
type Locales struct {
	supported []string
	def       string
	cookie    string
}

func NewLocales(supported []string, def, cookie string) *Locales {
	return &Locales{
		supported: append([]string(nil), supported...),
		def:       def,
		cookie:    cookie,
	}
}

func (l *Locales) Default() string { return l.def }

// Supported reports whether s is one of the configured locales.
func (l *Locales) Supported(s string) bool {
	for _, loc := range l.supported {
		if loc == s {
			return true
		}
	}
	return false
}

// FromPath splits "/{locale}/rest" into the locale and "/rest". ok is false
// when the first segment is not a supported locale.
func (l *Locales) FromPath(path string) (locale, rest string, ok bool) {
	trimmed := strings.TrimPrefix(path, "/")
	first, after, _ := strings.Cut(trimmed, "/")
	if !l.Supported(first) {
		return "", path, false
	}
	return first, "/" + after, true
}

// Resolve picks a locale for a request whose path has no locale prefix.
func (l *Locales) Resolve(r *http.Request) string {
	if c, err := r.Cookie(l.cookie); err == nil && l.Supported(c.Value) {
		return c.Value
	}
	if loc, ok := l.fromAcceptLanguage(r.Header.Get("Accept-Language")); ok {
		return loc
	}
	return l.def
}

func (l *Locales) fromAcceptLanguage(header string) (string, bool) {
	if header == "" {
		return "", false
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil {
		return "", false
	}
	for _, tag := range tags {
		// und and similar tags only yield a guessed base.
		base, conf := tag.Base()
		if conf != language.Exact {
			continue
		}
		if l.Supported(base.String()) {
			return base.String(), true
		}
	}
	return "", false
}
