package v1

import (
	"todo-collab/internal/api/v1/handlers"
	"todo-collab/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	// Accounts
	accounts := api.Group("/accounts")
	accounts.Post("/register", handlers.Register)
	accounts.Post("/login", handlers.Login)
	accounts.Post("/logout", middleware.UseToken, handlers.Logout)
	accounts.Get("/whoami", handlers.WhoAmI)
	accounts.Get("/profile", middleware.UseToken, handlers.GetProfile)
	accounts.Put("/profile", middleware.UseToken, handlers.UpdateProfile)
	accounts.Post("/change_password", middleware.UseToken, handlers.ChangePassword)
	accounts.Post("/forgot", handlers.ForgotPassword)
	accounts.Post("/reset", handlers.ResetPassword)
	accounts.Get("/users", middleware.UseToken, handlers.ListUsers)

	// Personal tasks
	taskRoutes := api.Group("/tasks", middleware.UseToken)
	taskRoutes.Get("/", handlers.ListTasks)
	taskRoutes.Post("/", handlers.CreateTask)
	taskRoutes.Put("/:id", handlers.UpdateTask)
	taskRoutes.Delete("/:id", handlers.DeleteTask)

	// Collaborative lists
	collabRoutes := api.Group("/collab", middleware.UseToken)
	collabRoutes.Get("/lists", handlers.GetCollabLists)
	collabRoutes.Post("/lists", handlers.CreateCollabList)
	collabRoutes.Put("/lists/:id", handlers.RenameCollabList)
	collabRoutes.Delete("/lists/:id", handlers.DeleteCollabList)
	collabRoutes.Get("/lists/:id/members", handlers.GetCollabMembers)
	collabRoutes.Post("/lists/:id/members", handlers.AddCollabMember)
	collabRoutes.Delete("/lists/:id/members/:username", handlers.RemoveCollabMember)
	collabRoutes.Get("/lists/:id/tasks", handlers.ListCollabTasks)
	collabRoutes.Post("/lists/:id/tasks", handlers.CreateCollabTask)
	collabRoutes.Put("/tasks/:task_id", handlers.UpdateCollabTask)
	collabRoutes.Delete("/lists/:id/tasks/:task_id", handlers.DeleteCollabTask)
}
