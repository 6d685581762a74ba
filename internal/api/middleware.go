package api

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"guitar-service/internal/model"
	"guitar-service/internal/service"
)

const identityKey = "identity"

var (
	httpRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of http request",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status_code"},
	)
)

type TokenResolver interface {
	ResolveToken(ctx context.Context, token string) (model.Identity, error)
}

// AuthMiddleware resolves the bearer token and stores the caller identity in
// c.Locals for the handlers behind it.
func AuthMiddleware(resolver TokenResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Authentication required"})
		}

		identity, err := resolver.ResolveToken(c.UserContext(), parts[1])
		if err != nil {
			if errors.Is(err, service.ErrUnauthenticated) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
			}
			slog.ErrorContext(c.UserContext(), "token resolution failed", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
		}

		c.Locals(identityKey, identity)
		c.SetUserContext(WithCaller(c.UserContext(), identity))

		return c.Next()
	}
}

func GetIdentity(c *fiber.Ctx) (model.Identity, error) {
	identity, ok := c.Locals(identityKey).(model.Identity)
	if !ok {
		return model.Identity{}, service.ErrUnauthenticated
	}
	return identity, nil
}

// OwnerScopedMiddleware admits the request only when the user id in the named
// route parameter is the caller's own.
func OwnerScopedMiddleware(param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, err := GetIdentity(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Authentication required"})
		}

		requestedID, err := strconv.ParseInt(c.Params(param), 10, 64)
		if err != nil || service.AuthorizeOwnerScoped(requestedID, identity) != nil {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Unauthorized"})
		}

		return c.Next()
	}
}

// TimeoutMiddleware bounds the user context handed to the store.
func TimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()

		c.SetUserContext(ctx)

		return c.Next()
	}
}

func PrometheusMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		duration := time.Since(start).Seconds()
		statusCode := c.Response().StatusCode()

		if err != nil {
			var e *fiber.Error

			if errors.As(err, &e) {
				statusCode = e.Code
			} else {
				statusCode = fiber.StatusInternalServerError
			}
		}

		method := c.Method()
		path := c.Route().Path
		statusStr := strconv.Itoa(statusCode)

		httpRequestTotal.WithLabelValues(method, path, statusStr).Inc()
		httpRequestDuration.WithLabelValues(method, path, statusStr).Observe(duration)

		return err
	}
}
