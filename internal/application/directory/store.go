// Package directory mantiene la proyección en memoria del directorio y resuelve superiores.
package directory

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/hierarchy-api/internal/domain/entity"
	"github.com/jhoicas/hierarchy-api/internal/domain/hierarchy"
	"github.com/jhoicas/hierarchy-api/internal/domain/repository"
	"github.com/jhoicas/hierarchy-api/pkg/logger"
)

// Store proyección del directorio reconstruida desde el colaborador de datos.
// Cada recarga arma un Snapshot nuevo y lo publica de una vez; los lectores nunca ven uno a medias.
type Store struct {
	repo repository.UserDirectory
	log  *logger.Logger

	mu       sync.RWMutex
	snap     *hierarchy.Snapshot
	loadedAt time.Time
}

// NewStore construye el store; hasta el primer Load el snapshot está vacío.
func NewStore(repo repository.UserDirectory, log *logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	return &Store{
		repo: repo,
		log:  log.Component("directory"),
		snap: hierarchy.EmptySnapshot(),
	}
}

// Load trae todos los usuarios y reemplaza el snapshot.
// Si el colaborador falla, el snapshot anterior se conserva.
func (s *Store) Load(ctx context.Context) (*hierarchy.Snapshot, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("carga del directorio")
		return nil, err
	}
	snap := hierarchy.BuildSnapshot(users)

	s.mu.Lock()
	s.snap = snap
	s.loadedAt = time.Now()
	s.mu.Unlock()

	s.log.Debug().Int("users", snap.Len()).Int("active", len(snap.Employees())).Msg("directorio cargado")
	return snap, nil
}

// Refresh vuelve a ejecutar Load; se llama después de cada mutación exitosa.
func (s *Store) Refresh(ctx context.Context) error {
	_, err := s.Load(ctx)
	return err
}

// Snapshot devuelve el snapshot vigente (nunca nil).
func (s *Store) Snapshot() *hierarchy.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// LoadedAt momento de la última carga exitosa (cero si nunca cargó).
func (s *Store) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

// Employees usuarios activos de cualquier rol.
func (s *Store) Employees() []entity.User {
	return s.Snapshot().Employees()
}

// ActiveByRole usuarios activos con el rol indicado.
func (s *Store) ActiveByRole(role entity.Role) []entity.User {
	return s.Snapshot().ActiveByRole(role)
}
