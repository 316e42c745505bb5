package httpapi

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/i474232898/covid-data-aggregation/internal/cache"
	"github.com/i474232898/covid-data-aggregation/internal/covid"
)

const dateLayout = "2006-01-02"

var validate = validator.New()

// Options holds query defaults and bounds.
type Options struct {
	DefaultDays     int
	DefaultTopLimit int
	MaxTopLimit     int
}

func (o Options) withDefaults() Options {
	if o.DefaultDays <= 0 {
		o.DefaultDays = 30
	}
	if o.MaxTopLimit <= 0 {
		o.MaxTopLimit = 200
	}
	if o.DefaultTopLimit <= 0 {
		o.DefaultTopLimit = 10
	}
	return o
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *covid.Service, memo cache.Memoizer, opts Options) {
	opts = opts.withDefaults()
	if memo == nil {
		memo = cache.Nop{}
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "covid-data-aggregation",
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	v1 := app.Group("/api/v1")

	v1.Use(memoize(memo, func(c *fiber.Ctx) bool {
		return strings.HasPrefix(c.Path(), "/api/v1/cache")
	}))

	v1.Get("/global", func(c *fiber.Ctx) error {
		stats, err := service.GlobalStats(c.UserContext())
		if err != nil {
			return queryError(err, "compute global statistics")
		}
		return c.JSON(stats)
	})

	v1.Get("/cases", func(c *fiber.Ctx) error {
		latest, err := service.Latest(c.UserContext())
		if err != nil {
			return queryError(err, "list latest records")
		}
		return c.JSON(latest)
	})

	v1.Get("/countries", func(c *fiber.Ctx) error {
		countries, err := service.Countries(c.UserContext())
		if err != nil {
			return queryError(err, "list countries")
		}
		return c.JSON(fiber.Map{"countries": countries})
	})

	v1.Get("/countries/:country", func(c *fiber.Ctx) error {
		var req timelineQuery
		if err := req.bind(c, opts); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		timeline, err := service.Timeline(c.UserContext(), req.Country, req.Days)
		if err != nil {
			return queryError(err, "build country timeline")
		}
		return c.JSON(timeline)
	})

	v1.Get("/top-countries", func(c *fiber.Ctx) error {
		var req topQuery
		if err := req.bind(c, opts); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		ranked, err := service.Top(c.UserContext(), req.Limit, req.Metric)
		if err != nil {
			return queryError(err, "rank countries")
		}
		return c.JSON(ranked)
	})

	v1.Get("/compare", func(c *fiber.Ctx) error {
		var req compareQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		cmp, err := service.Compare(c.UserContext(), req.Countries, req.Metric)
		if err != nil {
			return queryError(err, "compare countries")
		}
		return c.JSON(cmp)
	})

	v1.Get("/dates/available", func(c *fiber.Ctx) error {
		dates, err := service.Dates(c.UserContext())
		if err != nil {
			return queryError(err, "list available dates")
		}
		return c.JSON(fiber.Map{
			"dates": dates,
			"count": len(dates),
		})
	})

	v1.Get("/data/filtered", func(c *fiber.Ctx) error {
		var req periodQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		records, err := service.Between(c.UserContext(), req.from, req.to)
		if err != nil {
			return queryError(err, "filter records")
		}
		return c.JSON(fiber.Map{
			"data":  records,
			"count": len(records),
			"period": fiber.Map{
				"start_date": nullable(req.StartDate),
				"end_date":   nullable(req.EndDate),
			},
		})
	})

	v1.Get("/cache/stats", func(c *fiber.Ctx) error {
		return c.JSON(memo.Stats())
	})

	v1.Delete("/cache", func(c *fiber.Ctx) error {
		memo.Purge()
		return c.JSON(fiber.Map{"status": "cleared"})
	})
}

// timelineQuery holds parameters for the country timeline endpoint.
type timelineQuery struct {
	Country string `validate:"required"`
	Days    int    `validate:"gte=1,lte=3650"`
}

func (q *timelineQuery) bind(c *fiber.Ctx, opts Options) error {
	country, err := url.PathUnescape(c.Params("country"))
	if err != nil {
		return fmt.Errorf("invalid country: %w", err)
	}
	q.Country = strings.TrimSpace(country)

	if q.Days, err = queryInt(c, "days", opts.DefaultDays); err != nil {
		return err
	}
	return validate.Struct(q)
}

// topQuery holds parameters for the ranking endpoint.
type topQuery struct {
	Limit  int    `validate:"gte=1"`
	Metric string `validate:"required"`
}

func (q *topQuery) bind(c *fiber.Ctx, opts Options) error {
	var err error
	if q.Limit, err = queryInt(c, "limit", opts.DefaultTopLimit); err != nil {
		return err
	}
	q.Metric = c.Query("metric", string(covid.MetricTotalCases))

	if err := validate.Struct(q); err != nil {
		return err
	}
	if q.Limit > opts.MaxTopLimit {
		return fmt.Errorf("limit must be at most %d", opts.MaxTopLimit)
	}
	return nil
}

// compareQuery holds parameters for the comparison endpoint.
type compareQuery struct {
	Countries []string `validate:"required,min=1,max=20,dive,required"`
	Metric    string   `validate:"required"`
}

func (q *compareQuery) bind(c *fiber.Ctx) error {
	raw := c.Query("countries")
	if raw == "" {
		return errors.New("countries query parameter is required")
	}
	for _, name := range strings.Split(raw, ",") {
		q.Countries = append(q.Countries, strings.TrimSpace(name))
	}
	q.Metric = c.Query("metric", string(covid.MetricTotalCases))

	return validate.Struct(q)
}

// periodQuery holds the optional inclusive date window of the filter
// endpoint.
type periodQuery struct {
	StartDate string `validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `validate:"omitempty,datetime=2006-01-02"`

	from, to time.Time
}

func (q *periodQuery) bind(c *fiber.Ctx) error {
	q.StartDate = c.Query("start_date")
	q.EndDate = c.Query("end_date")
	if err := validate.Struct(q); err != nil {
		return err
	}

	if q.StartDate != "" {
		q.from, _ = time.Parse(dateLayout, q.StartDate)
	}
	if q.EndDate != "" {
		end, _ := time.Parse(dateLayout, q.EndDate)
		// Include every timestamp on the end day.
		q.to = end.Add(24*time.Hour - time.Nanosecond)
	}
	if !q.from.IsZero() && !q.to.IsZero() && q.to.Before(q.from) {
		return errors.New("end_date must not be before start_date")
	}
	return nil
}

func queryInt(c *fiber.Ctx, key string, def int) (int, error) {
	v := c.Query(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return n, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
