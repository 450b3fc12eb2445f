package hierarchy

import "github.com/jhoicas/hierarchy-api/internal/domain/entity"

// Snapshot vista materializada y de solo lectura del directorio.
// Se reconstruye completa en cada recarga; nunca se modifica en sitio.
type Snapshot struct {
	users     []entity.User
	byID      map[string]int
	byRole    map[entity.Role][]entity.User
	employees []entity.User
}

// BuildSnapshot particiona los usuarios por rol, restringido a activos, preservando el orden de entrada.
func BuildSnapshot(users []entity.User) *Snapshot {
	s := &Snapshot{
		users:  make([]entity.User, len(users)),
		byID:   make(map[string]int, len(users)),
		byRole: make(map[entity.Role][]entity.User),
	}
	copy(s.users, users)
	for i, u := range s.users {
		s.byID[u.ID] = i
		if !u.IsActive {
			continue
		}
		s.byRole[u.Role] = append(s.byRole[u.Role], u)
		s.employees = append(s.employees, u)
	}
	return s
}

// EmptySnapshot snapshot sin usuarios (antes de la primera carga).
func EmptySnapshot() *Snapshot {
	return BuildSnapshot(nil)
}

// Users devuelve todos los usuarios (activos e inactivos) en el orden del directorio.
func (s *Snapshot) Users() []entity.User {
	return cloneUsers(s.users)
}

// Len cantidad total de usuarios.
func (s *Snapshot) Len() int { return len(s.users) }

// ActiveByRole usuarios activos con el rol indicado. Nunca nil.
func (s *Snapshot) ActiveByRole(role entity.Role) []entity.User {
	return cloneUsers(s.byRole[role])
}

// Employees todos los usuarios activos, de cualquier rol (selector de reasignación).
func (s *Snapshot) Employees() []entity.User {
	return cloneUsers(s.employees)
}

// Lookup busca un usuario por ID (activo o no).
func (s *Snapshot) Lookup(id string) (entity.User, bool) {
	i, ok := s.byID[id]
	if !ok {
		return entity.User{}, false
	}
	return s.users[i], true
}

// IsActive informa si id existe y está activo.
func (s *Snapshot) IsActive(id string) bool {
	u, ok := s.Lookup(id)
	return ok && u.IsActive
}

func cloneUsers(in []entity.User) []entity.User {
	out := make([]entity.User, len(in))
	copy(out, in)
	return out
}
