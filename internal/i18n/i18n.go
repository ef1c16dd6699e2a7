// Package i18n provides localization for result texts and API messages.
// Question and option texts are bilingual in the catalog itself; this
// package covers everything composed at runtime: recommendations,
// priorities, dimension labels and the result summary.
package i18n

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

// SupportedLanguages lists the languages we ship locale files for.
var SupportedLanguages = []string{"ro", "en"}

// Translator wraps a go-i18n bundle with the embedded locale files loaded.
type Translator struct {
	bundle      *goi18n.Bundle
	defaultLang string
}

// New creates a Translator with all embedded locales registered.
// defaultLang is used when a request carries no usable language.
func New(defaultLang string) (*Translator, error) {
	bundle := goi18n.NewBundle(language.Romanian)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := fs.ReadDir(localeFS, "locales")
	if err != nil {
		return nil, fmt.Errorf("reading locales: %w", err)
	}
	for _, e := range entries {
		if _, err := bundle.LoadMessageFileFS(localeFS, "locales/"+e.Name()); err != nil {
			return nil, fmt.Errorf("loading locale %s: %w", e.Name(), err)
		}
	}

	if defaultLang == "" {
		defaultLang = "ro"
	}
	return &Translator{bundle: bundle, defaultLang: defaultLang}, nil
}

// Localizer returns a localizer preferring the given languages, falling
// back to the translator's default.
func (t *Translator) Localizer(langs ...string) *goi18n.Localizer {
	langs = append(langs, t.defaultLang)
	return goi18n.NewLocalizer(t.bundle, langs...)
}

// T localizes a message by ID with optional template data. A missing
// message falls back to the ID itself so a gap in a locale file never
// breaks a response.
func T(loc *goi18n.Localizer, id string, data map[string]any) string {
	msg, err := loc.Localize(&goi18n.LocalizeConfig{
		MessageID:    id,
		TemplateData: data,
	})
	if err != nil {
		slog.Debug("missing translation", "id", id, "error", err)
		return id
	}
	return msg
}

type ctxKey struct{}

// WithLocalizer stores a localizer in the context.
func WithLocalizer(ctx context.Context, loc *goi18n.Localizer) context.Context {
	return context.WithValue(ctx, ctxKey{}, loc)
}

// FromContext retrieves the localizer stored by Middleware. If none is
// present a default-language localizer from t is returned.
func (t *Translator) FromContext(ctx context.Context) *goi18n.Localizer {
	if loc, ok := ctx.Value(ctxKey{}).(*goi18n.Localizer); ok {
		return loc
	}
	return t.Localizer()
}

// Middleware resolves the request language (lang query parameter, then
// Accept-Language) and stores a matching localizer in the request context.
func (t *Translator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var langs []string
		if q := r.URL.Query().Get("lang"); q != "" {
			langs = append(langs, q)
		}
		if h := r.Header.Get("Accept-Language"); h != "" {
			langs = append(langs, h)
		}
		loc := t.Localizer(langs...)
		next.ServeHTTP(w, r.WithContext(WithLocalizer(r.Context(), loc)))
	})
}
