package httpapi

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/i474232898/house-display/internal/timetable"
)

var validate = validator.New()

// Searcher is the part of timetable.Agent the routes depend on.
type Searcher interface {
	Search(ctx context.Context, route timetable.RouteConfig) ([]timetable.TrainTime, error)
	ResolveResourceURI(ctx context.Context, route timetable.RouteConfig) (string, error)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, agent Searcher, route timetable.RouteConfig) {
	app.Get("/", func(c *fiber.Ctx) error {
		records, err := agent.Search(c.UserContext(), route)
		if err != nil {
			return searchError(err)
		}

		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
		return c.SendString(timetable.Format(records))
	})

	v1 := app.Group("/api/v1")

	v1.Get("/trains", func(c *fiber.Ctx) error {
		var q trainsQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		records, err := agent.Search(c.UserContext(), route)
		if err != nil {
			return searchError(err)
		}
		if q.Limit > 0 && len(records) > q.Limit {
			records = records[:q.Limit]
		}

		return c.JSON(fiber.Map{
			"route":  route,
			"trains": records,
		})
	})

	v1.Get("/resource", func(c *fiber.Ctx) error {
		uri, err := agent.ResolveResourceURI(c.UserContext(), route)
		if err != nil {
			return searchError(err)
		}
		return c.Redirect(uri, fiber.StatusFound)
	})
}

// trainsQuery holds query parameters for the trains endpoint.
type trainsQuery struct {
	Limit int `validate:"omitempty,gte=1,lte=50"`
}

func (q *trainsQuery) bind(c *fiber.Ctx) error {
	q.Limit = c.QueryInt("limit", 0)
	if c.Query("limit") != "" && q.Limit == 0 {
		return errors.New("limit must be a positive integer")
	}
	return validate.Struct(q)
}

// searchError maps timetable failures onto HTTP status codes.
func searchError(err error) error {
	log.Error().Err(err).Msg("train search failed")

	switch {
	case errors.Is(err, timetable.ErrCredentialMissing):
		return fiber.NewError(fiber.StatusServiceUnavailable, "search api credential unavailable")
	case errors.Is(err, timetable.ErrFetchFailure):
		return fiber.NewError(fiber.StatusBadGateway, "failed to reach transit search")
	case errors.Is(err, timetable.ErrMalformedResponse):
		return fiber.NewError(fiber.StatusBadGateway, "unexpected response from transit search")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fiber.NewError(fiber.StatusGatewayTimeout, "transit search timed out")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "failed to search train times")
	}
}
