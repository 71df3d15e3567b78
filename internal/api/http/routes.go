package httpapi

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/dayeon-k/weather-lookup/internal/storage"
	"github.com/dayeon-k/weather-lookup/internal/weather"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service, store *storage.Store) {
	v1 := app.Group("/api/v1")

	v1.Get("/weather", func(c *fiber.Ctx) error {
		req, err := parseWeatherQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		units, err := weather.ParseUnitSystem(req.Units)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		data, err := service.Lookup(c.Context(), req.Location, units, req.Days)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(data)
	})

	v1.Get("/favorites", func(c *fiber.Ctx) error {
		favs, err := store.Favorites()
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(fiber.Map{"favorites": favs})
	})

	v1.Post("/favorites", func(c *fiber.Ctx) error {
		var body favoriteBody
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		// Reject queries that could never be looked up.
		if _, err := weather.Normalize(body.Query); err != nil {
			return toHTTPError(err)
		}

		fav, err := store.AddFavorite(body.Name, body.Query)
		if err != nil {
			return toHTTPError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(fav)
	})

	v1.Delete("/favorites/:id", func(c *fiber.Ctx) error {
		if err := store.RemoveFavorite(c.Params("id")); err != nil {
			return toHTTPError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	v1.Get("/history", func(c *fiber.Ctx) error {
		limit := c.QueryInt("limit", 20)
		history, err := store.History(limit)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(fiber.Map{"history": history})
	})

	v1.Delete("/history", func(c *fiber.Ctx) error {
		if err := store.ClearHistory(); err != nil {
			return toHTTPError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	v1.Get("/records", func(c *fiber.Ctx) error {
		records, err := store.Records()
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(fiber.Map{"records": records})
	})

	v1.Post("/records", func(c *fiber.Ctx) error {
		var body recordBody
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		units, err := weather.ParseUnitSystem(body.Units)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		data, err := service.Lookup(c.Context(), body.Location, units, weather.MaxForecastDays)
		if err != nil {
			return toHTTPError(err)
		}

		rec, err := store.SaveRecord(body.Location, body.Note, data)
		if err != nil {
			return toHTTPError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(rec)
	})

	v1.Delete("/records/:id", func(c *fiber.Ctx) error {
		if err := store.DeleteRecord(c.Params("id")); err != nil {
			return toHTTPError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

// weatherQuery holds query parameters for the lookup endpoint.
type weatherQuery struct {
	Location string `validate:"required"`
	Units    string `validate:"omitempty,oneof=metric imperial standard"`
	Days     int    `validate:"min=1,max=5"`
}

func parseWeatherQuery(c *fiber.Ctx) (weatherQuery, error) {
	q := weatherQuery{
		Location: c.Query("location"),
		Units:    c.Query("units"),
		Days:     c.QueryInt("days", weather.MaxForecastDays),
	}
	if err := validate.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}

// favoriteBody is the POST /favorites payload.
type favoriteBody struct {
	Name  string `json:"name" validate:"required"`
	Query string `json:"query" validate:"required"`
}

// recordBody is the POST /records payload.
type recordBody struct {
	Location string `json:"location" validate:"required"`
	Units    string `json:"units" validate:"omitempty,oneof=metric imperial standard"`
	Note     string `json:"note"`
}

// toHTTPError maps domain errors onto HTTP status codes. Validation
// failures are the caller's fault; upstream trouble is a bad gateway.
func toHTTPError(err error) error {
	switch {
	case errors.Is(err, weather.ErrInvalidLocation), errors.Is(err, weather.ErrInvalidCoordinate):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, weather.ErrUpstreamUnavailable), errors.Is(err, weather.ErrInvalidResponse):
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, "not found")
	}
	return fiber.NewError(fiber.StatusInternalServerError, "internal error")
}
