package middleware

import (
	"github.com/gin-gonic/gin"

	"grameen_connect/internal/i18n"
)

// Locale attaches a localizer chosen from ?lang= or the Accept-Language header.
func Locale() gin.HandlerFunc {
	return func(c *gin.Context) {
		langs := []string{}
		if lang := c.Query("lang"); lang != "" {
			langs = append(langs, lang)
		}
		if accept := c.GetHeader("Accept-Language"); accept != "" {
			langs = append(langs, accept)
		}
		c.Set(i18n.ContextKey, i18n.NewLocalizer(langs...))
		c.Next()
	}
}
