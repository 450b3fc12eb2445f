package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/hierarchy-api/internal/application/usecase"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	LifecycleUC *usecase.UserLifecycleUseCase
	JWTSecret   string
	JWTIssuer   string
}

// Router registra las rutas de la API. Consultas: cualquier rol autenticado; mutaciones: admin.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret, deps.JWTIssuer))
	admin := RequireRole(RoleAdmin)

	hierarchyHandler := NewHierarchyHandler(deps.LifecycleUC)
	api.Get("/hierarchy/roles", hierarchyHandler.Roles)

	users := api.Group("/users")
	userHandler := NewUserHandler(deps.LifecycleUC)
	// Rutas fijas antes de /:id
	users.Get("/candidates", hierarchyHandler.Candidates)
	users.Get("/reassign-targets", userHandler.ReassignTargets)
	users.Get("/", userHandler.List)
	users.Get("/:id", userHandler.GetByID)
	users.Post("/", admin, userHandler.Create)
	users.Put("/:id", admin, userHandler.Update)
	users.Patch("/:id/active", admin, userHandler.SetActive)
	users.Delete("/:id", admin, userHandler.Delete)
}
