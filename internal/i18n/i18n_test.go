package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestTranslateEnglishDefault(t *testing.T) {
	assert.Equal(t, "Invalid email or password", Translate(NewLocalizer(), "invalid_credentials"))
	assert.Equal(t, "Route not found", Translate(nil, "route_not_found"))
}

func TestTranslateBengaliFromAcceptLanguage(t *testing.T) {
	loc := NewLocalizer("bn-BD,bn;q=0.9,en;q=0.5")
	assert.Equal(t, "অনুরোধটি পাওয়া যায়নি", Translate(loc, "request_not_found"))
}

func TestTranslateFallsBackToID(t *testing.T) {
	assert.Equal(t, "no_such_message", Translate(NewLocalizer("bn"), "no_such_message"))
}

func TestLanguages(t *testing.T) {
	tags := Languages()
	assert.Contains(t, tags, language.English)
	assert.Contains(t, tags, language.Bengali)
}
