package httpapi

import (
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/covid-data-aggregation/internal/cache"
	"github.com/i474232898/covid-data-aggregation/internal/metrics"
)

// memoize serves GET responses from memo when present and stores fresh
// 200 responses. skip excludes routes that must always run.
func memoize(memo cache.Memoizer, skip func(*fiber.Ctx) bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodGet || (skip != nil && skip(c)) {
			return c.Next()
		}

		query, err := url.ParseQuery(string(c.Request().URI().QueryString()))
		if err != nil {
			return c.Next()
		}
		key := cache.Key(c.Method(), c.Path(), query)

		if body, ok := memo.Get(key); ok {
			metrics.CacheRequests.WithLabelValues("hit").Inc()
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			c.Set("X-Cache", "HIT")
			return c.Send(body)
		}
		metrics.CacheRequests.WithLabelValues("miss").Inc()

		if err := c.Next(); err != nil {
			return err
		}

		if c.Response().StatusCode() == fiber.StatusOK {
			memo.Set(key, c.Response().Body())
		}
		c.Set("X-Cache", "MISS")
		return nil
	}
}
