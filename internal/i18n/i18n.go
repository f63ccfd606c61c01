// Package i18n localizes API messages. English is the fallback for every id.
package i18n

import (
	"embed"
	"sync"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localeFS embed.FS

// ContextKey is where the request-scoped localizer is stored on a gin context.
const ContextKey = "localizer"

var (
	bundleOnce sync.Once
	bundle     *goi18n.Bundle
)

// Bundle returns the shared message bundle, loading the embedded locale files on first use.
func Bundle() *goi18n.Bundle {
	bundleOnce.Do(func() {
		b := goi18n.NewBundle(language.English)
		b.RegisterUnmarshalFunc("yaml", yaml.Unmarshal)
		for _, file := range []string{"locales/en.yaml", "locales/bn.yaml"} {
			if _, err := b.LoadMessageFileFS(localeFS, file); err != nil {
				panic(err)
			}
		}
		bundle = b
	})
	return bundle
}

// NewLocalizer picks the best match for langs, which may be tags or raw Accept-Language values.
func NewLocalizer(langs ...string) *goi18n.Localizer {
	return goi18n.NewLocalizer(Bundle(), langs...)
}

// Translate renders id, falling back to the id itself when no translation exists.
func Translate(loc *goi18n.Localizer, id string) string {
	if loc == nil {
		loc = NewLocalizer()
	}
	msg, err := loc.Localize(&goi18n.LocalizeConfig{MessageID: id})
	if err != nil || msg == "" {
		return id
	}
	return msg
}

// Languages lists the tags that have a locale file.
func Languages() []language.Tag {
	return Bundle().LanguageTags()
}
