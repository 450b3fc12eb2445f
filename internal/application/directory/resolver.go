package directory

import (
	"github.com/jhoicas/hierarchy-api/internal/domain/entity"
	"github.com/jhoicas/hierarchy-api/internal/domain/hierarchy"
)

// SnapshotSource fuente del snapshot vigente (Store en producción).
type SnapshotSource interface {
	Snapshot() *hierarchy.Snapshot
}

// Resolver deriva, para un rol, el campo de asignación y los candidatos a superior.
type Resolver struct {
	chain  *hierarchy.Chain
	source SnapshotSource
}

// NewResolver construye el resolver sobre la cadena y el store.
func NewResolver(chain *hierarchy.Chain, source SnapshotSource) *Resolver {
	return &Resolver{chain: chain, source: source}
}

// Chain cadena jerárquica en uso.
func (r *Resolver) Chain() *hierarchy.Chain { return r.chain }

// CandidatesFor usuarios activos que ocupan el rol superior inmediato de role.
// Vacío (no nil) si role es terminal o si el rol superior no tiene miembros activos.
func (r *Resolver) CandidatesFor(role entity.Role) ([]entity.User, error) {
	sup, ok, err := r.chain.SuperiorOf(role)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []entity.User{}, nil
	}
	return r.source.Snapshot().ActiveByRole(sup.Name), nil
}

// FieldNameFor nombre del campo donde se guarda el superior de role ("assigned" + código del superior).
// ok=false para el rol terminal.
func (r *Resolver) FieldNameFor(role entity.Role) (string, bool, error) {
	return r.chain.AssignedField(role)
}

// IsEligible informa si superiorID es hoy un candidato válido para role.
func (r *Resolver) IsEligible(role entity.Role, superiorID string) bool {
	if superiorID == "" {
		return false
	}
	sup, ok, err := r.chain.SuperiorOf(role)
	if err != nil || !ok {
		return false
	}
	u, found := r.source.Snapshot().Lookup(superiorID)
	return found && u.IsActive && u.Role == sup.Name
}

// CurrentSuperior resuelve el puntero de superior de u contra el snapshot.
// Un puntero a un usuario eliminado, inactivo o con otro rol se trata como "sin superior".
func (r *Resolver) CurrentSuperior(u entity.User) (entity.User, bool) {
	if !u.HasSuperior() {
		return entity.User{}, false
	}
	sup, ok, err := r.chain.SuperiorOf(u.Role)
	if err != nil || !ok {
		return entity.User{}, false
	}
	s, found := r.source.Snapshot().Lookup(*u.SuperiorID)
	if !found || !s.IsActive || s.Role != sup.Name {
		return entity.User{}, false
	}
	return s, true
}
