package http

import (
	"context"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/spec-kit/sweet-shop/internal/config"
	"github.com/spec-kit/sweet-shop/internal/ids"
	"github.com/spec-kit/sweet-shop/internal/observability"
	apperrors "github.com/spec-kit/sweet-shop/pkg/util/errorutil"
)

// MiddlewareConfig bundles the settings for global middleware.
type MiddlewareConfig struct {
	Logger    *zap.Logger
	Metrics   *observability.Metrics
	Timeout   time.Duration
	RateLimit config.RateLimitConfig
	CORS      config.CORSConfig
}

// RegisterMiddlewares attaches global middlewares. Order matters: the request
// logger sees the status written by the error handler.
func RegisterMiddlewares(app *fiber.App, cfg MiddlewareConfig) {
	app.Use(requestid.New(requestid.Config{Generator: ids.New}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: joinOrigins(cfg.CORS.AllowOrigins),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))
	app.Use(observability.RequestLogger(cfg.Logger, cfg.Metrics))
	app.Use(errorHandlingMiddleware(cfg.Logger, cfg.Metrics))
	if cfg.RateLimit.RPS > 0 {
		app.Use(rateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	}
	if cfg.Timeout > 0 {
		app.Use(requestTimeoutMiddleware(cfg.Timeout))
	}
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				domainErr := apperrors.ToDomainError(err)
				metrics.RecordError(c.Route().Path, c.Method(), domainErr.Code)
				response := fiber.Map{
					"detail": domainErr.Message,
					"code":   domainErr.Code,
				}
				if len(domainErr.Details) > 0 {
					response["errors"] = domainErr.Details
				}
				if domainErr.HTTPStatus >= fiber.StatusInternalServerError {
					logger.Error("request failed",
						zap.String("method", c.Method()),
						zap.String("path", c.Path()),
						zap.Error(domainErr))
				}
				err = c.Status(domainErr.HTTPStatus).JSON(response)
			}
		}()
		return c.Next()
	}
}

const limiterIdleTTL = 5 * time.Minute

type clientLimiter struct {
	lim  *rate.Limiter
	seen time.Time
}

// rateLimitMiddleware applies a token bucket per client IP. Idle buckets are
// swept inline at most once per minute.
func rateLimitMiddleware(rps float64, burst int) fiber.Handler {
	if burst <= 0 {
		burst = 1
	}
	var (
		mu        sync.Mutex
		buckets   = make(map[string]*clientLimiter)
		lastSweep = time.Now()
	)

	return func(c *fiber.Ctx) error {
		now := time.Now()
		ip := c.IP()

		mu.Lock()
		if now.Sub(lastSweep) > time.Minute {
			for key, b := range buckets {
				if now.Sub(b.seen) > limiterIdleTTL {
					delete(buckets, key)
				}
			}
			lastSweep = now
		}
		b, ok := buckets[ip]
		if !ok {
			b = &clientLimiter{lim: rate.NewLimiter(rate.Limit(rps), burst)}
			buckets[ip] = b
		}
		b.seen = now
		allowed := b.lim.AllowN(now, 1)
		mu.Unlock()

		if !allowed {
			return apperrors.NewRateLimited("Too many requests")
		}
		return c.Next()
	}
}

func joinOrigins(origins []string) string {
	if len(origins) == 0 {
		return "*"
	}
	return strings.Join(origins, ",")
}
