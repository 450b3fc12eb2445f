package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/hierarchy-api/internal/application/usecase"
)

// HierarchyHandler expone la cadena de roles y los candidatos a superior.
type HierarchyHandler struct {
	uc *usecase.UserLifecycleUseCase
}

// NewHierarchyHandler construye el handler.
func NewHierarchyHandler(uc *usecase.UserLifecycleUseCase) *HierarchyHandler {
	return &HierarchyHandler{uc: uc}
}

// Roles godoc
// @Summary      Cadena de roles
// @Description  Rol, código de campo, rol superior y nombre del campo "assigned<Código>" en orden ascendente.
// @Tags         hierarchy
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.RoleChainEntry
// @Router       /api/hierarchy/roles [get]
func (h *HierarchyHandler) Roles(c *fiber.Ctx) error {
	return c.JSON(h.uc.RoleChain())
}

// Candidates godoc
// @Summary      Candidatos a superior
// @Description  Usuarios activos del rol superior inmediato. Vacío para el rol terminal.
// @Tags         hierarchy
// @Security     Bearer
// @Produce      json
// @Param        role  query  string  true  "Rol (nombre visible o código)"
// @Success      200   {object}  dto.CandidatesResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/users/candidates [get]
func (h *HierarchyHandler) Candidates(c *fiber.Ctx) error {
	out, err := h.uc.Candidates(c.Query("role"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
