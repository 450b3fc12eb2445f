package repository

import (
	"context"

	"github.com/jhoicas/hierarchy-api/internal/domain/entity"
)

// UserDirectory define el puerto hacia el colaborador de datos del directorio (DIP).
// Las implementaciones reportan fallos como *domain.RemoteError.
type UserDirectory interface {
	// List devuelve todos los usuarios, activos e inactivos.
	List(ctx context.Context) ([]entity.User, error)
	Create(ctx context.Context, user *entity.User) error
	// Update escribe datos de contacto, flags y superior. No toca rol ni estado activo.
	Update(ctx context.Context, user *entity.User) error
	// SetActive cambia solo el estado activo.
	SetActive(ctx context.Context, id string, active bool) error
	// Delete elimina TargetID y transfiere su cartera (leads, bookings, tareas) a ReassignToID
	// en una única operación. Si falla, el usuario queda intacto.
	Delete(ctx context.Context, req entity.DeletionRequest) error
}
