package httpx

import (
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/sirupsen/logrus"

	"grameen_connect/internal/apperr"
	"grameen_connect/internal/i18n"
)

// Localizer returns the localizer attached by the locale middleware, or an English one.
func Localizer(c *gin.Context) *goi18n.Localizer {
	if v, ok := c.Get(i18n.ContextKey); ok {
		if loc, ok := v.(*goi18n.Localizer); ok {
			return loc
		}
	}
	return i18n.NewLocalizer(c.GetHeader("Accept-Language"))
}

// T localizes a message id for the current request.
func T(c *gin.Context, id string) string {
	return i18n.Translate(Localizer(c), id)
}

// Error aborts the request with the status and localized message for err.
func Error(c *gin.Context, err error) {
	appErr := apperr.From(err)
	status := appErr.Status()

	if appErr.Kind == apperr.KindInternal {
		logrus.WithError(appErr.Err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).Error("request failed")
		if hub := sentrygin.GetHubFromContext(c); hub != nil {
			hub.CaptureException(appErr.Err)
		}
	}

	body := gin.H{"error": T(c, appErr.MessageID)}
	if len(appErr.Details) > 0 {
		body["details"] = appErr.Details
	}
	c.AbortWithStatusJSON(status, body)
}
