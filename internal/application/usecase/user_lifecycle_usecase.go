package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/hierarchy-api/internal/application/directory"
	"github.com/jhoicas/hierarchy-api/internal/application/dto"
	"github.com/jhoicas/hierarchy-api/internal/domain"
	"github.com/jhoicas/hierarchy-api/internal/domain/entity"
	"github.com/jhoicas/hierarchy-api/internal/domain/repository"
	"github.com/jhoicas/hierarchy-api/pkg/logger"
	"golang.org/x/crypto/bcrypt"
)

// NoSuperior texto mostrado cuando un usuario no tiene superior vigente.
const NoSuperior = "-"

// UserLifecycleUseCase orquesta alta, edición, activación y baja con reasignación.
// Es el único componente que invoca mutaciones sobre el directorio; después de cada
// mutación exitosa recarga el Store antes de aceptar la siguiente. Las verificaciones
// contra el snapshot se hacen con el mismo lock tomado.
type UserLifecycleUseCase struct {
	repo     repository.UserDirectory
	store    *directory.Store
	resolver *directory.Resolver
	log      *logger.Logger

	mu         sync.Mutex
	now        func() time.Time
	bcryptCost int
}

// Option ajusta el use case (tests, tuning).
type Option func(*UserLifecycleUseCase)

// WithClock reemplaza el reloj.
func WithClock(now func() time.Time) Option {
	return func(uc *UserLifecycleUseCase) { uc.now = now }
}

// WithBcryptCost fija el costo de bcrypt.
func WithBcryptCost(cost int) Option {
	return func(uc *UserLifecycleUseCase) { uc.bcryptCost = cost }
}

// NewUserLifecycleUseCase construye el caso de uso.
func NewUserLifecycleUseCase(
	repo repository.UserDirectory,
	store *directory.Store,
	resolver *directory.Resolver,
	log *logger.Logger,
	opts ...Option,
) *UserLifecycleUseCase {
	if log == nil {
		log = logger.Nop()
	}
	uc := &UserLifecycleUseCase{
		repo:       repo,
		store:      store,
		resolver:   resolver,
		log:        log.Component("lifecycle"),
		now:        time.Now,
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, o := range opts {
		o(uc)
	}
	return uc
}

// Create valida, persiste y recarga el directorio.
func (uc *UserLifecycleUseCase) Create(ctx context.Context, in dto.CreateUserRequest) (*dto.UserResponse, error) {
	input := createInput{
		Name:     strings.TrimSpace(in.Name),
		Email:    strings.TrimSpace(in.Email),
		Phone:    NormalizePhone(in.Phone),
		Password: in.Password,
		Role:     strings.TrimSpace(in.Role),
	}
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	role, ok := uc.resolver.Chain().Parse(input.Role)
	if !ok {
		return nil, domain.NewValidationError("role", fmt.Sprintf("rol desconocido %q", input.Role))
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()
	superiorID, err := uc.checkSuperior(role, in.SuperiorID, nil)
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), uc.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := uc.now()
	user := &entity.User{
		ID:                   uuid.New().String(),
		Name:                 input.Name,
		Email:                input.Email,
		Phone:                input.Phone,
		PasswordHash:         string(hash),
		Role:                 role,
		IsActive:             true,
		BookingModuleEnabled: in.BookingModuleEnabled,
		SuperiorID:           superiorID,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := uc.repo.Create(ctx, user); err != nil {
		uc.log.Warn().Err(err).Str("op", "create").Str("email", user.Email).Msg("alta rechazada")
		return nil, err
	}
	uc.log.Info().Str("op", "create").Str("user_id", user.ID).Str("role", string(role)).Msg("usuario creado")
	uc.refresh(ctx)
	return uc.toUserResponse(*user), nil
}

// Update edita datos y superior; rol y estado activo no cambian. Password vacío conserva la credencial.
// El registro vigente se lee con el lock tomado, después de la última recarga.
func (uc *UserLifecycleUseCase) Update(ctx context.Context, id string, in dto.UpdateUserRequest) (*dto.UserResponse, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	current, ok := uc.store.Snapshot().Lookup(id)
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	input := updateInput{
		Name:     strings.TrimSpace(in.Name),
		Email:    strings.TrimSpace(in.Email),
		Phone:    NormalizePhone(in.Phone),
		Password: in.Password,
	}
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	superiorID, err := uc.checkSuperior(current.Role, in.SuperiorID, current.SuperiorID)
	if err != nil {
		return nil, err
	}

	updated := current
	updated.Name = input.Name
	updated.Email = input.Email
	updated.Phone = input.Phone
	updated.BookingModuleEnabled = in.BookingModuleEnabled
	updated.SuperiorID = superiorID
	updated.PasswordHash = "" // vacío = sin cambio para los adaptadores
	if input.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), uc.bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		updated.PasswordHash = string(hash)
	}
	updated.UpdatedAt = uc.now()

	if err := uc.repo.Update(ctx, &updated); err != nil {
		uc.log.Warn().Err(err).Str("op", "update").Str("user_id", id).Msg("edición rechazada")
		return nil, err
	}
	uc.log.Info().Str("op", "update").Str("user_id", id).Msg("usuario actualizado")
	uc.refresh(ctx)
	return uc.toUserResponse(updated), nil
}

// SetActive cambia solo IsActive. No toca los punteros de superior de los subordinados:
// quedan obsoletos y se leen como "sin superior".
func (uc *UserLifecycleUseCase) SetActive(ctx context.Context, id string, active bool) (*dto.UserResponse, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	current, ok := uc.store.Snapshot().Lookup(id)
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	updated := current
	updated.IsActive = active
	updated.UpdatedAt = uc.now()

	if err := uc.repo.SetActive(ctx, id, active); err != nil {
		uc.log.Warn().Err(err).Str("op", "set_active").Str("user_id", id).Msg("cambio de estado rechazado")
		return nil, err
	}
	uc.log.Info().Str("op", "set_active").Str("user_id", id).Bool("active", active).Msg("estado actualizado")
	uc.refresh(ctx)
	return uc.toUserResponse(updated), nil
}

// Delete elimina targetID transfiriendo su cartera a in.ReassignToID.
// Rechaza con domain.ErrPreconditionFailed, sin llamar al colaborador, si el destino
// está vacío, es el mismo usuario, no existe o está inactivo.
func (uc *UserLifecycleUseCase) Delete(ctx context.Context, targetID string, in dto.DeleteUserRequest) error {
	req := entity.DeletionRequest{
		TargetID:     strings.TrimSpace(targetID),
		ReassignToID: strings.TrimSpace(in.ReassignToID),
		RequestID:    strings.TrimSpace(in.RequestID),
	}
	if req.RequestID == "" {
		req.RequestID = uuid.New().String()
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()
	if err := uc.checkDeletion(req); err != nil {
		return err
	}
	if err := uc.repo.Delete(ctx, req); err != nil {
		uc.log.Warn().Err(err).Str("op", "delete").Str("user_id", req.TargetID).
			Str("reassign_to", req.ReassignToID).Str("request_id", req.RequestID).Msg("baja rechazada")
		return err
	}
	uc.log.Info().Str("op", "delete").Str("user_id", req.TargetID).
		Str("reassign_to", req.ReassignToID).Str("request_id", req.RequestID).Msg("usuario eliminado y cartera reasignada")
	uc.refresh(ctx)
	return nil
}

// CheckDeletion valida la precondición de baja contra el snapshot vigente.
func (uc *UserLifecycleUseCase) CheckDeletion(targetID, reassignToID string) error {
	return uc.checkDeletion(entity.DeletionRequest{TargetID: targetID, ReassignToID: reassignToID})
}

func (uc *UserLifecycleUseCase) checkDeletion(req entity.DeletionRequest) error {
	snap := uc.store.Snapshot()
	if _, ok := snap.Lookup(req.TargetID); !ok {
		return domain.ErrUserNotFound
	}
	if req.ReassignToID == "" {
		return fmt.Errorf("%w: debe elegir a quién reasignar la cartera", domain.ErrPreconditionFailed)
	}
	if req.ReassignToID == req.TargetID {
		return fmt.Errorf("%w: no se puede reasignar la cartera al mismo usuario", domain.ErrPreconditionFailed)
	}
	if !snap.IsActive(req.ReassignToID) {
		return fmt.Errorf("%w: el destino de la reasignación no existe o está inactivo", domain.ErrPreconditionFailed)
	}
	return nil
}

// checkSuperior decide el superior a escribir para role.
// Rol terminal: nunca se escribe. nil: se conserva previous. "": se limpia.
// Un valor nuevo debe ser hoy candidato válido; repetir el valor vigente no se revalida.
func (uc *UserLifecycleUseCase) checkSuperior(role entity.Role, requested, previous *string) (*string, error) {
	_, hasSuperior, err := uc.resolver.FieldNameFor(role)
	if err != nil {
		return nil, err
	}
	if !hasSuperior {
		return nil, nil
	}
	if requested == nil {
		return previous, nil
	}
	id := strings.TrimSpace(*requested)
	if id == "" {
		return nil, nil
	}
	if previous != nil && *previous == id {
		return previous, nil
	}
	if !uc.resolver.IsEligible(role, id) {
		sup, _, _ := uc.resolver.Chain().SuperiorOf(role)
		return nil, domain.NewValidationError("superior_id",
			fmt.Sprintf("el superior elegido no es un %s activo", sup.Name))
	}
	return &id, nil
}

func (uc *UserLifecycleUseCase) refresh(ctx context.Context) {
	if err := uc.store.Refresh(ctx); err != nil {
		// La mutación ya quedó confirmada; el próximo Refresh corregirá la vista.
		uc.log.Error().Err(err).Msg("recarga del directorio después de la mutación")
	}
}

// Get obtiene un usuario del snapshot vigente.
func (uc *UserLifecycleUseCase) Get(id string) (*dto.UserResponse, error) {
	u, ok := uc.store.Snapshot().Lookup(id)
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return uc.toUserResponse(u), nil
}

// List filas de la tabla (índice, datos, rol, superior vigente o "-", flags).
func (uc *UserLifecycleUseCase) List(page dto.PageRequest) *dto.UserListResponse {
	page.DefaultPage()
	users := uc.store.Snapshot().Users()
	total := len(users)
	start := min(page.Offset, total)
	end := min(start+page.Limit, total)

	items := make([]dto.UserRow, 0, end-start)
	for i, u := range users[start:end] {
		superior := NoSuperior
		if s, ok := uc.resolver.CurrentSuperior(u); ok {
			superior = s.Name
		}
		items = append(items, dto.UserRow{
			Index:                start + i + 1,
			ID:                   u.ID,
			Name:                 u.Name,
			Email:                u.Email,
			Phone:                u.Phone,
			Role:                 string(u.Role),
			Superior:             superior,
			IsActive:             u.IsActive,
			BookingModuleEnabled: u.BookingModuleEnabled,
		})
	}
	return &dto.UserListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total},
	}
}

// RoleChain tabla rol → superior → campo de asignación, en orden de la cadena.
func (uc *UserLifecycleUseCase) RoleChain() []dto.RoleChainEntry {
	roles := uc.resolver.Chain().Roles()
	out := make([]dto.RoleChainEntry, 0, len(roles))
	for _, d := range roles {
		entry := dto.RoleChainEntry{
			Role:      string(d.Name),
			FieldCode: string(d.Code),
			Terminal:  d.IsTerminal(),
		}
		if field, ok, err := uc.resolver.FieldNameFor(d.Name); err == nil && ok {
			entry.SuperiorRole = string(d.Superior)
			entry.AssignedField = field
		}
		out = append(out, entry)
	}
	return out
}

// Candidates candidatos a superior para el rol (nombre visible o código).
func (uc *UserLifecycleUseCase) Candidates(rawRole string) (*dto.CandidatesResponse, error) {
	role, ok := uc.resolver.Chain().Parse(rawRole)
	if !ok {
		return nil, domain.NewValidationError("role", fmt.Sprintf("rol desconocido %q", rawRole))
	}
	users, err := uc.resolver.CandidatesFor(role)
	if err != nil {
		return nil, err
	}
	out := &dto.CandidatesResponse{Role: string(role), Items: toCandidates(users)}
	if field, ok, err := uc.resolver.FieldNameFor(role); err == nil && ok {
		sup, _, _ := uc.resolver.Chain().SuperiorOf(role)
		out.SuperiorRole = string(sup.Name)
		out.AssignedField = field
	}
	return out, nil
}

// ReassignTargets empleados activos, excepto excludeID (destinos posibles de la reasignación).
func (uc *UserLifecycleUseCase) ReassignTargets(excludeID string) []dto.CandidateResponse {
	employees := uc.store.Employees()
	filtered := employees[:0]
	for _, u := range employees {
		if u.ID != excludeID {
			filtered = append(filtered, u)
		}
	}
	return toCandidates(filtered)
}

func toCandidates(users []entity.User) []dto.CandidateResponse {
	out := make([]dto.CandidateResponse, 0, len(users))
	for _, u := range users {
		out = append(out, dto.CandidateResponse{ID: u.ID, Name: u.Name, Email: u.Email, Role: string(u.Role)})
	}
	return out
}

func (uc *UserLifecycleUseCase) toUserResponse(u entity.User) *dto.UserResponse {
	out := &dto.UserResponse{
		ID:                   u.ID,
		Name:                 u.Name,
		Email:                u.Email,
		Phone:                u.Phone,
		Role:                 string(u.Role),
		IsActive:             u.IsActive,
		BookingModuleEnabled: u.BookingModuleEnabled,
		SuperiorID:           u.SuperiorID,
		SuperiorName:         NoSuperior,
		CreatedAt:            u.CreatedAt,
		UpdatedAt:            u.UpdatedAt,
	}
	if s, ok := uc.resolver.CurrentSuperior(u); ok {
		out.SuperiorName = s.Name
	}
	return out
}

// IsNotFound informa si err corresponde a un usuario inexistente.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrUserNotFound) || errors.Is(err, domain.ErrNotFound)
}
