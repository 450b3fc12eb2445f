package entity

import "time"

// User representa una entrada del directorio (empleado con rol dentro de la cadena jerárquica).
type User struct {
	ID                   string
	Name                 string
	Email                string
	Phone                string // 10 dígitos normalizados
	PasswordHash         string // bcrypt; solo escritura, nunca se devuelve en respuestas
	Role                 Role   // nombre visible del rol (valor almacenado)
	IsActive             bool
	BookingModuleEnabled bool
	// SuperiorID apunta al superior inmediato (rol = superior del rol propio).
	// nil si no hay asignación. Puede quedar obsoleto si el superior se desactiva o elimina.
	SuperiorID *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// HasSuperior informa si el usuario tiene un puntero de superior poblado.
func (u User) HasSuperior() bool {
	return u.SuperiorID != nil && *u.SuperiorID != ""
}

// DeletionRequest solicitud transitoria de eliminación con reasignación; nunca se persiste como tal.
type DeletionRequest struct {
	TargetID     string
	ReassignToID string
	// RequestID identifica el intento; el adaptador PostgreSQL lo usa para que
	// un reintento no transfiera dos veces la cartera.
	RequestID string
}
