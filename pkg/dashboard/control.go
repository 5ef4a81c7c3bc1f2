package dashboard

import (
	"github.com/gofiber/fiber/v2"
	"github.com/travigo/truck-tracker/pkg/dashboard/connection"
	"github.com/travigo/truck-tracker/pkg/fleet"
	"github.com/travigo/truck-tracker/pkg/http_server"
)

// Controller receives the user interactions, normally a *viewsync.Coordinator
type Controller interface {
	CurrentFilters() fleet.FilterState
	SetFilters(filters fleet.FilterState)
	SetViewport(viewport fleet.ViewportState)
}

type StateSource interface {
	State() connection.State
}

type viewportRequest struct {
	BBox *[4]float64 `json:"bbox"`
	Zoom int         `json:"zoom"`
}

func NewControlApp(controller Controller, view *View, state StateSource) *fiber.App {
	webApp := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	webApp.Use(http_server.NewLogger())

	webApp.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	ControlRouter(webApp.Group("/dashboard"), controller, view, state)

	return webApp
}

func ControlRouter(router fiber.Router, controller Controller, view *View, state StateSource) {
	router.Get("/view", func(c *fiber.Ctx) error {
		snapshot := view.Snapshot()
		snapshot.Connection = state.State().String()

		filters := controller.CurrentFilters()
		snapshot.Filters = &filters

		return c.JSON(snapshot)
	})

	router.Put("/filters", func(c *fiber.Ctx) error {
		// absent keys keep their current value
		filters := controller.CurrentFilters()
		if err := c.BodyParser(&filters); err != nil {
			return badRequest(c, "Filters must be a JSON object")
		}

		for _, date := range []string{filters.DateFrom, filters.DateTo} {
			if err := validate.Var(date, "omitempty,datetime=2006-01-02"); err != nil {
				return badRequest(c, "Dates must be formatted as YYYY-MM-DD")
			}
		}
		if filters.Statuses == nil {
			filters.Statuses = fleet.StatusSet{}
		}

		controller.SetFilters(filters)

		c.Status(fiber.StatusAccepted)
		return c.JSON(filters)
	})

	router.Put("/viewport", func(c *fiber.Ctx) error {
		var viewport fleet.ViewportState

		if boundsQuery := c.Query("bounds"); boundsQuery != "" {
			bounds, err := fleet.ParseBounds(boundsQuery)
			if err != nil {
				return badRequest(c, err.Error())
			}

			viewport = fleet.ViewportState{Bounds: bounds, Zoom: c.QueryInt("zoom", 0)}
		} else {
			var request viewportRequest
			if err := c.BodyParser(&request); err != nil || request.BBox == nil {
				return badRequest(c, "A viewport must be provided as a bounds query or a bbox body")
			}
			if request.BBox[1] > request.BBox[3] {
				return badRequest(c, "Bounds south must not be greater than north")
			}

			viewport = fleet.ViewportState{Bounds: fleet.BoundFromBBox(*request.BBox), Zoom: request.Zoom}
		}

		controller.SetViewport(viewport)

		c.Status(fiber.StatusAccepted)
		return c.JSON(fiber.Map{
			"bbox": fleet.BBoxFromBound(viewport.Bounds),
			"zoom": viewport.Zoom,
		})
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	c.Status(fiber.StatusBadRequest)
	return c.JSON(fiber.Map{
		"error": message,
	})
}
