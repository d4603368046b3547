package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"codehut/internal/handler"
	appmw "codehut/internal/middleware"
	"codehut/internal/model"
	"codehut/internal/service"
	"codehut/internal/token"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"
)

const cleanupInterval = 5 * time.Minute

type Services struct {
	Auth     service.AuthService
	Snippet  service.SnippetService
	User     service.UserService
	Purchase service.PurchaseService
	Access   service.AccessService
	Payment  service.PaymentService
	Search   service.SearchService
	Stats    service.StatsService
}

type Options struct {
	PingMessage    string
	RateLimitRPS   float64
	RateLimitBurst int
}

type Server struct {
	echo            *echo.Echo
	auth            *appmw.Auth
	limiter         *appmw.RateLimiter
	demo            bool
	pingMessage     string
	authHandler     *handler.AuthHandler
	snippetHandler  *handler.SnippetHandler
	userHandler     *handler.UserHandler
	purchaseHandler *handler.PurchaseHandler
	paymentHandler  *handler.PaymentHandler
	searchHandler   *handler.SearchHandler
}

func NewServer(tokens *token.Manager, services *Services, opts Options) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = &requestValidator{validate: validator.New()}
	e.HTTPErrorHandler = errorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger())
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit("1M"))

	s := &Server{
		echo:            e,
		auth:            appmw.NewAuth(tokens),
		limiter:         appmw.NewRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst),
		demo:            services.Payment.DemoMode(),
		pingMessage:     opts.PingMessage,
		authHandler:     handler.NewAuthHandler(services.Auth),
		snippetHandler:  handler.NewSnippetHandler(services.Snippet),
		userHandler:     handler.NewUserHandler(services.User),
		purchaseHandler: handler.NewPurchaseHandler(services.Purchase, services.Access),
		paymentHandler:  handler.NewPaymentHandler(services.Payment),
		searchHandler:   handler.NewSearchHandler(services.Search, services.Stats),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	api.GET("/ping", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"message": s.pingMessage})
	})

	requireAuth := s.auth.RequireAuth()
	optionalAuth := s.auth.OptionalAuth()
	paymentAuth := s.auth.PaymentAuth(s.demo)

	// -------- auth --------
	auth := api.Group("/auth")
	auth.POST("/signup", s.authHandler.Signup, s.limiter.Middleware())
	auth.POST("/login", s.authHandler.Login, s.limiter.Middleware())
	auth.POST("/refresh", s.authHandler.Refresh, s.limiter.Middleware())
	auth.POST("/logout", s.authHandler.Logout)
	auth.GET("/me", s.authHandler.Me, requireAuth)
	auth.GET("/sessions", s.authHandler.Sessions, requireAuth, appmw.RequireRoles(model.RoleAdmin))

	// -------- snippets --------
	snippets := api.Group("/snippets")
	snippets.GET("", s.snippetHandler.List)
	snippets.POST("", s.snippetHandler.Create, requireAuth)
	snippets.GET("/:id", s.snippetHandler.Get, optionalAuth)
	snippets.PUT("/:id", s.snippetHandler.Update, requireAuth)
	snippets.DELETE("/:id", s.snippetHandler.Delete, requireAuth)

	// -------- users --------
	users := api.Group("/users")
	users.GET("", s.userHandler.List)
	users.GET("/:id", s.userHandler.Get)
	users.GET("/:id/snippets", s.userHandler.Snippets)
	users.PUT("/:id", s.userHandler.Update, requireAuth)
	users.PATCH("/:id/status", s.userHandler.UpdateStatus, requireAuth, appmw.RequireRoles(model.RoleAdmin))

	// -------- purchases --------
	purchases := api.Group("/purchases")
	purchases.GET("", s.purchaseHandler.List, requireAuth)
	purchases.POST("", s.purchaseHandler.Purchase, requireAuth)
	purchases.GET("/check/:snippetId", s.purchaseHandler.Check, optionalAuth)

	// -------- payments --------
	payments := api.Group("/payments")
	payments.POST("/create-order", s.paymentHandler.CreateOrder, paymentAuth)
	payments.POST("/verify-payment", s.paymentHandler.VerifyPayment, paymentAuth)
	payments.POST("/cancel", s.paymentHandler.CancelOrder, requireAuth)
	payments.GET("/download/:snippetId", s.paymentHandler.Download, requireAuth)
	payments.GET("/orders", s.paymentHandler.Orders, requireAuth)

	// -------- razorpay webhooks --------
	payments.POST("/webhook", s.paymentHandler.Webhook)

	// -------- search & stats --------
	api.GET("/search", s.searchHandler.Search)
	api.GET("/search/suggestions", s.searchHandler.Suggestions)
	api.GET("/stats", s.searchHandler.Stats)
	api.GET("/stats/languages", s.searchHandler.Languages)
	api.GET("/stats/seller", s.searchHandler.SellerStats, requireAuth)
}

// StartCleanup runs background housekeeping for the rate limiter until ctx is done.
func (s *Server) StartCleanup(ctx context.Context) {
	s.limiter.StartCleanup(ctx, cleanupInterval)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

type requestValidator struct {
	validate *validator.Validate
}

func (v *requestValidator) Validate(i interface{}) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	msgs := make([]string, len(fieldErrs))
	for i, fe := range fieldErrs {
		if fe.Param() != "" {
			msgs[i] = fmt.Sprintf("%s failed on %s=%s", fe.Field(), fe.Tag(), fe.Param())
		} else {
			msgs[i] = fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag())
		}
	}
	return echo.NewHTTPError(http.StatusBadRequest, strings.Join(msgs, "; "))
}

func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := "Internal server error"

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if he.Message != nil {
			message = fmt.Sprint(he.Message)
		}
		if code == http.StatusInternalServerError && he.Internal != nil {
			log.WithError(he.Internal).Error("Unhandled error")
		}
	} else {
		log.WithError(err).WithField("uri", c.Request().RequestURI).Error("Unhandled error")
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, map[string]interface{}{
			"error":      http.StatusText(code),
			"message":    message,
			"statusCode": code,
		})
	}
	if err != nil {
		log.WithError(err).Error("Failed to write error response")
	}
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			entry := log.WithFields(log.Fields{
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"request_id": v.RequestID,
				"remote_ip":  v.RemoteIP,
			})
			if v.Status >= http.StatusInternalServerError {
				entry.Error("request")
			} else {
				entry.Info("request")
			}
			return nil
		},
	})
}
