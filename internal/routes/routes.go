package routes

import (
	"io"
	"net/http"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"grameen_connect/internal/apperr"
	"grameen_connect/internal/auth"
	"grameen_connect/internal/config"
	"grameen_connect/internal/controllers"
	"grameen_connect/internal/httpx"
	"grameen_connect/internal/logger"
	"grameen_connect/internal/metrics"
	"grameen_connect/internal/middleware"
	"grameen_connect/internal/realtime"
	"grameen_connect/internal/services"
	"grameen_connect/internal/uploads"
)

// Dependencies are the long-lived objects the router is built from.
type Dependencies struct {
	Config    config.Config
	DB        *gorm.DB
	Tokens    *auth.TokenManager
	Hub       *realtime.Hub
	AccessLog io.Writer
	Sentry    bool
}

type handlers struct {
	auth         *controllers.AuthController
	requests     *controllers.RequestController
	messages     *controllers.MessageController
	users        *controllers.UserController
	testimonials *controllers.TestimonialController
}

func SetupRouter(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = deps.Config.MaxUploadBytes

	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logrus.WithField("panic", recovered).Error("recovered from panic")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": httpx.T(c, apperr.MsgInternal)})
	}))
	if deps.Sentry {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	if deps.AccessLog != nil {
		r.Use(logger.AccessLog(deps.AccessLog))
	}
	r.Use(
		middleware.CORS(deps.Config.FrontendURL),
		metrics.Middleware(),
		middleware.Locale(),
		middleware.NewRateLimiter(deps.Config.RateLimitRPS, deps.Config.RateLimitBurst).Middleware(),
	)

	store := uploads.NewStore(deps.Config.UploadDir, deps.Config.MaxUploadBytes)
	var events services.EventPublisher
	if deps.Hub != nil {
		events = deps.Hub
	}
	h := handlers{
		auth:         controllers.NewAuthController(services.NewAuthService(deps.DB, deps.Tokens)),
		requests:     controllers.NewRequestController(services.NewRequestService(deps.DB, store, services.PolicyFor(deps.Config.StrictTransitions), events)),
		messages:     controllers.NewMessageController(services.NewMessageService(deps.DB)),
		users:        controllers.NewUserController(services.NewUserService(deps.DB, store)),
		testimonials: controllers.NewTestimonialController(services.NewTestimonialService(deps.DB)),
	}

	api := r.Group("/api")
	api.GET("/health", controllers.Health(deps.DB))

	AuthRoutes(api, h, deps.Tokens)
	RequestRoutes(api, h, deps)
	MessageRoutes(api, h, deps.Tokens)
	UserRoutes(api, h, deps)
	TestimonialRoutes(api, h)

	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.Static("/uploads", deps.Config.UploadDir)

	r.NoRoute(func(c *gin.Context) {
		httpx.Error(c, apperr.NotFound(apperr.MsgRouteNotFound))
	})
	return r
}

// limitBody caps upload request bodies a little above the per-file ceiling.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+1<<20)
		}
		c.Next()
	}
}
