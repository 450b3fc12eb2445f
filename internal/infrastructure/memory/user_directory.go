// Package memory implementa el directorio en memoria (backend de desarrollo y doble de pruebas).
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/jhoicas/hierarchy-api/internal/domain"
	"github.com/jhoicas/hierarchy-api/internal/domain/entity"
	"github.com/jhoicas/hierarchy-api/internal/domain/repository"
)

var _ repository.UserDirectory = (*UserDirectory)(nil)

// UserDirectory directorio en memoria con cartera (leads, bookings, tareas) por usuario.
// Aplica en el servidor las mismas reglas que el adaptador PostgreSQL: email único y
// baja solo con destino activo distinto del usuario eliminado.
type UserDirectory struct {
	mu        sync.Mutex
	users     []entity.User
	work      map[string][]string
	processed map[string]string // request_id → target_id ya eliminado
}

// NewUserDirectory construye el directorio con usuarios iniciales (se copian).
func NewUserDirectory(seed ...entity.User) *UserDirectory {
	d := &UserDirectory{
		work:      make(map[string][]string),
		processed: make(map[string]string),
	}
	for _, u := range seed {
		d.users = append(d.users, cloneUser(u))
	}
	return d
}

// List devuelve todos los usuarios en orden de alta. Nunca expone el hash de password.
func (d *UserDirectory) List(ctx context.Context) ([]entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, &domain.RemoteError{Op: "list users", Err: err}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]entity.User, 0, len(d.users))
	for _, u := range d.users {
		c := cloneUser(u)
		c.PasswordHash = ""
		out = append(out, c)
	}
	return out, nil
}

// Create agrega un usuario; rechaza IDs o emails repetidos.
func (d *UserDirectory) Create(ctx context.Context, user *entity.User) error {
	if err := ctx.Err(); err != nil {
		return &domain.RemoteError{Op: "create user", Err: err}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, u := range d.users {
		if u.ID == user.ID {
			return &domain.RemoteError{Op: "create user", Message: "el usuario ya existe"}
		}
		if strings.EqualFold(u.Email, user.Email) {
			return &domain.RemoteError{Op: "create user", Message: "el email ya está registrado"}
		}
	}
	d.users = append(d.users, cloneUser(*user))
	return nil
}

// Update reemplaza el registro; PasswordHash vacío conserva el anterior. Rol y estado activo no cambian.
func (d *UserDirectory) Update(ctx context.Context, user *entity.User) error {
	if err := ctx.Err(); err != nil {
		return &domain.RemoteError{Op: "update user", Err: err}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	i := d.indexOf(user.ID)
	if i < 0 {
		return &domain.RemoteError{Op: "update user", Message: "usuario no encontrado", Err: domain.ErrUserNotFound}
	}
	for j, u := range d.users {
		if j != i && strings.EqualFold(u.Email, user.Email) {
			return &domain.RemoteError{Op: "update user", Message: "el email ya está registrado"}
		}
	}
	next := cloneUser(*user)
	next.Role = d.users[i].Role
	next.IsActive = d.users[i].IsActive
	next.CreatedAt = d.users[i].CreatedAt
	if next.PasswordHash == "" {
		next.PasswordHash = d.users[i].PasswordHash
	}
	d.users[i] = next
	return nil
}

// SetActive cambia solo IsActive.
func (d *UserDirectory) SetActive(ctx context.Context, id string, active bool) error {
	if err := ctx.Err(); err != nil {
		return &domain.RemoteError{Op: "set user active", Err: err}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	i := d.indexOf(id)
	if i < 0 {
		return &domain.RemoteError{Op: "set user active", Message: "usuario no encontrado", Err: domain.ErrUserNotFound}
	}
	d.users[i].IsActive = active
	return nil
}

// Delete elimina y transfiere la cartera en un solo paso bajo el mismo lock.
// Un RequestID ya procesado para el mismo usuario se responde como éxito sin repetir la transferencia.
func (d *UserDirectory) Delete(ctx context.Context, req entity.DeletionRequest) error {
	if err := ctx.Err(); err != nil {
		return &domain.RemoteError{Op: "delete user", Err: err}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if req.RequestID != "" {
		if target, ok := d.processed[req.RequestID]; ok && target == req.TargetID {
			return nil
		}
	}
	ti := d.indexOf(req.TargetID)
	if ti < 0 {
		return &domain.RemoteError{Op: "delete user", Message: "usuario no encontrado", Err: domain.ErrUserNotFound}
	}
	ri := d.indexOf(req.ReassignToID)
	if ri < 0 || ri == ti || !d.users[ri].IsActive {
		return &domain.RemoteError{Op: "delete user", Message: "el destino de la reasignación no es un usuario activo", Err: domain.ErrPreconditionFailed}
	}
	d.work[req.ReassignToID] = append(d.work[req.ReassignToID], d.work[req.TargetID]...)
	delete(d.work, req.TargetID)
	d.users = append(d.users[:ti], d.users[ti+1:]...)
	if req.RequestID != "" {
		d.processed[req.RequestID] = req.TargetID
	}
	return nil
}

// AssignWork asigna elementos de cartera (ids de leads, bookings o tareas) a un usuario.
func (d *UserDirectory) AssignWork(userID string, items ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.work[userID] = append(d.work[userID], items...)
}

// WorkOf cartera actual del usuario.
func (d *UserDirectory) WorkOf(userID string) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.work[userID]))
	copy(out, d.work[userID])
	return out
}

// Get devuelve el registro almacenado (incluido el hash) o false.
func (d *UserDirectory) Get(id string) (entity.User, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	i := d.indexOf(id)
	if i < 0 {
		return entity.User{}, false
	}
	return cloneUser(d.users[i]), true
}

func (d *UserDirectory) indexOf(id string) int {
	for i, u := range d.users {
		if u.ID == id {
			return i
		}
	}
	return -1
}

func cloneUser(u entity.User) entity.User {
	if u.SuperiorID != nil {
		s := *u.SuperiorID
		u.SuperiorID = &s
	}
	return u
}
