package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control on GET responses that did not set
// their own. Station data is live, so API answers must not be reused.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		if c.Method() != fiber.MethodGet {
			return err
		}
		if existing := c.GetRespHeader(fiber.HeaderCacheControl); existing != "" {
			return err
		}

		path := c.Path()
		var value string
		switch {
		case strings.HasPrefix(path, "/docs"):
			value = "public, max-age=3600"
		case path == "/metrics", path == "/v1/health", path == "/v1/ready":
			value = "no-cache"
		case strings.HasPrefix(path, "/v1/"):
			value = "no-store"
		}

		if value != "" {
			c.Set(fiber.HeaderCacheControl, value)
		}
		return err
	}
}
