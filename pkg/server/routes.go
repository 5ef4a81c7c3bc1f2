package server

import (
	"github.com/gofiber/fiber/v2"
	"github.com/liip/sheriff"
	"github.com/rs/zerolog/log"
	"github.com/travigo/truck-tracker/pkg/fleet"
	"github.com/travigo/truck-tracker/pkg/tracking"
)

func TrucksRouter(router fiber.Router, service *tracking.Service) {
	router.Get("/", func(c *fiber.Ctx) error {
		return listTrucks(c, service)
	})
	router.Get("/:car", func(c *fiber.Ctx) error {
		return getTruckHistory(c, service)
	})
}

func VehiclesRouter(router fiber.Router, service *tracking.Service) {
	router.Get("/", func(c *fiber.Ctx) error {
		return listVehicles(c, service)
	})
}

func listTrucks(c *fiber.Ctx, service *tracking.Service) error {
	filters := fleet.ServerFilters{
		Car:      c.Query("car"),
		DateFrom: c.Query("date_from"),
		DateTo:   c.Query("date_to"),
	}

	snapshot, err := service.Snapshot(c.UserContext(), filters)
	if err != nil {
		log.Error().Err(err).Msg("Error getting truck locations")

		c.SendStatus(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"detail": "Database error: " + err.Error(),
		})
	}

	snapshot.Counts = nil

	return c.JSON(snapshot)
}

func listVehicles(c *fiber.Ctx, service *tracking.Service) error {
	vehicles, err := service.Vehicles(c.UserContext())
	if err != nil {
		log.Error().Err(err).Msg("Error fetching vehicles")

		c.SendStatus(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"detail": "Database error: " + err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"vehicles": vehicles,
	})
}

func getTruckHistory(c *fiber.Ctx, service *tracking.Service) error {
	car := c.Params("car")

	history, err := service.History(c.UserContext(), car, c.Query("date_from"), c.Query("date_to"))
	if err != nil {
		log.Error().Err(err).Str("car", car).Msg("Error fetching truck history")

		c.SendStatus(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"detail": "Database error: " + err.Error(),
		})
	}

	groups := []string{"basic"}
	if c.QueryBool("detailed", true) {
		groups = append(groups, "detailed")
	}

	historyReduced, err := sheriff.Marshal(&sheriff.Options{
		Groups: groups,
	}, history)
	if err != nil {
		c.SendStatus(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"error": "Sherrif could not reduce history",
		})
	}

	return c.JSON(fiber.Map{
		"history": historyReduced,
	})
}
