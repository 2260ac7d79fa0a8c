package routes

import (
	"time"

	"github.com/centralrock/route-tracker/internal/config"
	"github.com/centralrock/route-tracker/internal/handlers"
	"github.com/centralrock/route-tracker/internal/metrics"
	"github.com/centralrock/route-tracker/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

func Setup(app *fiber.App, cfg *config.Config) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "healthy",
			"timestamp": time.Now().Unix(),
		})
	})
	app.Get("/metrics", metrics.Handler())

	// Live feed per area
	app.Use("/ws", handlers.WebSocketUpgrade())
	app.Get("/ws/areas/:id", websocket.New(handlers.HandleAreaFeed))

	app.Use(middleware.Authenticate(handlers.Members(), cfg.JWTSecret))

	app.Get("/", handlers.Home)

	app.Get("/login", handlers.LoginPage)
	app.Post("/login", handlers.Login)
	app.Post("/logout", handlers.Logout)
	app.Get("/register", handlers.RegisterPage)
	app.Post("/register", handlers.Register)

	app.Get("/areas", handlers.ListAreas)
	app.Get("/areas/:id", handlers.GetArea)

	app.Get("/routes", handlers.ListRoutes)
	app.Get("/routes/:id", handlers.GetRoute)
	app.Post("/routes/:id",
		middleware.RequireLogin("You must be logged in to log completions."),
		handlers.LogCompletion)

	app.Get("/members",
		middleware.AdminOnly("You must be an administrator to view the member directory."),
		handlers.ListMembers)

	profile := app.Group("/profile", middleware.RequireLogin("Please log in to view your profile."))
	profile.Get("/", handlers.Profile)
	profile.Get("/edit", handlers.EditProfilePage)
	profile.Post("/edit", handlers.EditProfile)
	profile.Post("/device-token", handlers.RegisterDeviceToken)

	adminOnly := middleware.AdminOnly(middleware.DeniedMessage)
	app.Get("/admin-dashboard", adminOnly, handlers.AdminDashboard)

	admin := app.Group("/admin", adminOnly)
	admin.Get("/add-route", handlers.AddRoutePage)
	admin.Post("/add-route", handlers.AddRoute)
	admin.Get("/routes/:id/edit", handlers.EditRoutePage)
	admin.Post("/routes/:id/edit", handlers.EditRoute)
	admin.Get("/manage-routes", handlers.ManageRoutes)
	admin.Post("/route/:id/toggle-status", handlers.SetRouteStatus)
	admin.Post("/routes/bulk", handlers.BulkRoutes)
	admin.Get("/completions", handlers.AdminCompletions)

	admin.Get("/members", handlers.ManageMembers)
	admin.Get("/members/:id/delete", handlers.DeleteMemberPage)
	admin.Post("/members/:id/delete", handlers.DeleteMember)

	admin.Post("/areas", handlers.CreateArea)
	admin.Post("/areas/:id/delete", handlers.DeleteArea)
}
