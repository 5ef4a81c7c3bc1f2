package server

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog/log"
	"github.com/travigo/truck-tracker/pkg/fleet"
	"github.com/travigo/truck-tracker/pkg/http_server"
	"github.com/travigo/truck-tracker/pkg/tracking"
)

func NewApp(service *tracking.Service) *fiber.App {
	webApp := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	webApp.Use(http_server.NewLogger())
	webApp.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	webApp.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "Truck Tracker API is running"})
	})
	webApp.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	group := webApp.Group("/api")
	TrucksRouter(group.Group("/trucks"), service)
	VehiclesRouter(group.Group("/vehicles"), service)

	webApp.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	webApp.Get("/ws", websocket.New(func(conn *websocket.Conn) {
		handlePushConnection(conn, service)
	}))

	return webApp
}

func handlePushConnection(conn *websocket.Conn, service *tracking.Service) {
	filters := fleet.ServerFilters{
		Car:      conn.Query("car_filter"),
		DateFrom: conn.Query("date_from"),
		DateTo:   conn.Query("date_to"),
	}

	log.Info().Str("car", filters.Car).Msg("Push connection opened")

	session := NewPushSession(conn, service, service.Config.PushInterval, filters)
	session.OnPush = indexPushEvent

	err := session.Run(context.Background())
	log.Info().Err(err).Msg("Push connection closed")

	conn.Close()
}

func SetupServer(listen string, service *tracking.Service) error {
	webApp := NewApp(service)

	log.Info().Str("listen", listen).Msg("Starting tracking server")

	return webApp.Listen(listen)
}
