package dto

import "time"

// CreateUserRequest entrada para crear un usuario (password en texto, se hashea en el use case).
// Role acepta el nombre visible o el código de campo (ej. "TL").
type CreateUserRequest struct {
	Name                 string  `json:"name"`
	Email                string  `json:"email"`
	Phone                string  `json:"phone"`
	Password             string  `json:"password"`
	Role                 string  `json:"role"`
	SuperiorID           *string `json:"superior_id,omitempty"`
	BookingModuleEnabled bool    `json:"booking_module_enabled"`
}

// UpdateUserRequest entrada para editar un usuario. El rol no se modifica;
// Password vacío conserva la credencial actual.
type UpdateUserRequest struct {
	Name                 string  `json:"name"`
	Email                string  `json:"email"`
	Phone                string  `json:"phone"`
	Password             string  `json:"password,omitempty"`
	SuperiorID           *string `json:"superior_id,omitempty"`
	BookingModuleEnabled bool    `json:"booking_module_enabled"`
}

// SetActiveRequest entrada para activar/desactivar un usuario.
type SetActiveRequest struct {
	Active *bool `json:"active"`
}

// DeleteUserRequest entrada para eliminar un usuario reasignando su cartera.
type DeleteUserRequest struct {
	ReassignToID string `json:"reassign_to_id"`
	// RequestID opcional; si viene vacío el use case genera uno.
	RequestID string `json:"request_id,omitempty"`
}

// UserResponse salida de un usuario (sin password).
type UserResponse struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	Email                string    `json:"email"`
	Phone                string    `json:"phone"`
	Role                 string    `json:"role"`
	IsActive             bool      `json:"is_active"`
	BookingModuleEnabled bool      `json:"booking_module_enabled"`
	SuperiorID           *string   `json:"superior_id,omitempty"`
	SuperiorName         string    `json:"superior_name"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// UserRow fila de la tabla de gestión de departamentos.
type UserRow struct {
	Index                int    `json:"index"`
	ID                   string `json:"id"`
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Phone                string `json:"phone"`
	Role                 string `json:"role"`
	Superior             string `json:"superior"` // nombre del superior vigente o "-"
	IsActive             bool   `json:"is_active"`
	BookingModuleEnabled bool   `json:"booking_module_enabled"`
}

// UserListResponse listado de filas.
type UserListResponse struct {
	Items []UserRow    `json:"items"`
	Page  PageResponse `json:"page"`
}

// RoleChainEntry fila de la tabla rol → superior → campo de asignación.
type RoleChainEntry struct {
	Role          string `json:"role"`
	FieldCode     string `json:"field_code"`
	SuperiorRole  string `json:"superior_role,omitempty"`
	AssignedField string `json:"assigned_field,omitempty"`
	Terminal      bool   `json:"terminal"`
}

// CandidateResponse candidato a superior o destino de reasignación.
type CandidateResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// CandidatesResponse candidatos a superior para un rol.
type CandidatesResponse struct {
	Role          string              `json:"role"`
	SuperiorRole  string              `json:"superior_role,omitempty"`
	AssignedField string              `json:"assigned_field,omitempty"`
	Items         []CandidateResponse `json:"items"`
}
