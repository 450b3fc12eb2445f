package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/hierarchy-api/internal/application/dto"
	"github.com/jhoicas/hierarchy-api/internal/application/usecase"
)

// UserHandler maneja el ciclo de vida de usuarios del directorio (protegido).
type UserHandler struct {
	uc *usecase.UserLifecycleUseCase
}

// NewUserHandler construye el handler.
func NewUserHandler(uc *usecase.UserLifecycleUseCase) *UserHandler {
	return &UserHandler{uc: uc}
}

// List godoc
// @Summary      Listar usuarios del directorio
// @Description  Filas con índice, datos de contacto, rol, superior vigente ("-" si no hay) y flags.
// @Tags         users
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Límite"  default(50)
// @Param        offset  query  int  false  "Offset"  default(0)
// @Success      200     {object}  dto.UserListResponse
// @Router       /api/users [get]
func (h *UserHandler) List(c *fiber.Ctx) error {
	page := dto.PageRequest{
		Limit:  c.QueryInt("limit", 50),
		Offset: c.QueryInt("offset", 0),
	}
	return c.JSON(h.uc.List(page))
}

// GetByID godoc
// @Summary      Obtener usuario por ID
// @Tags         users
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del usuario"
// @Success      200  {object}  dto.UserResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/users/{id} [get]
func (h *UserHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ReassignTargets godoc
// @Summary      Destinos posibles de la reasignación
// @Description  Todos los usuarios activos, de cualquier rol, excepto el indicado en exclude.
// @Tags         users
// @Security     Bearer
// @Produce      json
// @Param        exclude  query  string  false  "ID del usuario a eliminar"
// @Success      200      {array}  dto.CandidateResponse
// @Router       /api/users/reassign-targets [get]
func (h *UserHandler) ReassignTargets(c *fiber.Ctx) error {
	return c.JSON(h.uc.ReassignTargets(c.Query("exclude")))
}

// Create godoc
// @Summary      Crear usuario
// @Tags         users
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateUserRequest  true  "Datos del usuario"
// @Success      201   {object}  dto.UserResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      502   {object}  dto.ErrorResponse
// @Router       /api/users [post]
func (h *UserHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateUserRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.Create(c.UserContext(), in)
	observeMutation("create", err)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Update godoc
// @Summary      Editar usuario
// @Description  El rol no cambia. Password vacío conserva la credencial; superior_id "" limpia el superior.
// @Tags         users
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID del usuario"
// @Param        body  body  dto.UpdateUserRequest  true  "Datos a actualizar"
// @Success      200   {object}  dto.UserResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      502   {object}  dto.ErrorResponse
// @Router       /api/users/{id} [put]
func (h *UserHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateUserRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.Update(c.UserContext(), c.Params("id"), in)
	observeMutation("update", err)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// SetActive godoc
// @Summary      Activar o desactivar usuario
// @Tags         users
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                true  "ID del usuario"
// @Param        body  body  dto.SetActiveRequest  true  "Nuevo estado"
// @Success      200   {object}  dto.UserResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/users/{id}/active [patch]
func (h *UserHandler) SetActive(c *fiber.Ctx) error {
	var in dto.SetActiveRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.Active == nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "active es requerido", Field: "active"})
	}
	out, err := h.uc.SetActive(c.UserContext(), c.Params("id"), *in.Active)
	observeMutation("set_active", err)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar usuario reasignando su cartera
// @Description  Requiere reassign_to_id: un usuario activo distinto. Leads, bookings y tareas se transfieren en la misma operación.
// @Tags         users
// @Security     Bearer
// @Accept       json
// @Param        id    path  string                 true  "ID del usuario"
// @Param        body  body  dto.DeleteUserRequest  true  "Destino de la reasignación"
// @Success      204
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      502   {object}  dto.ErrorResponse
// @Router       /api/users/{id} [delete]
func (h *UserHandler) Delete(c *fiber.Ctx) error {
	var in dto.DeleteUserRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
		}
	}
	err := h.uc.Delete(c.UserContext(), c.Params("id"), in)
	observeMutation("delete", err)
	if err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
