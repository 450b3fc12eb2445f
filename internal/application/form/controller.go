// Package form coordina la pantalla de gestión de departamentos: edición de borradores
// y la confirmación de baja en dos fases.
package form

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jhoicas/hierarchy-api/internal/application/dto"
	"github.com/jhoicas/hierarchy-api/internal/domain"
)

// State estado de la pantalla.
type State int

const (
	Listing State = iota
	Editing
	ConfirmingDelete
	ChoosingReassignTarget
)

func (s State) String() string {
	switch s {
	case Listing:
		return "listing"
	case Editing:
		return "editing"
	case ConfirmingDelete:
		return "confirming_delete"
	case ChoosingReassignTarget:
		return "choosing_reassign_target"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

var (
	ErrInvalidTransition = errors.New("transición inválida para el estado actual")
	ErrBusy              = errors.New("hay una operación en curso")
)

// Lifecycle operaciones del caso de uso que consume la pantalla.
type Lifecycle interface {
	Get(id string) (*dto.UserResponse, error)
	Candidates(rawRole string) (*dto.CandidatesResponse, error)
	ReassignTargets(excludeID string) []dto.CandidateResponse
	Create(ctx context.Context, in dto.CreateUserRequest) (*dto.UserResponse, error)
	Update(ctx context.Context, id string, in dto.UpdateUserRequest) (*dto.UserResponse, error)
	Delete(ctx context.Context, targetID string, in dto.DeleteUserRequest) error
	CheckDeletion(targetID, reassignToID string) error
}

// Draft borrador del formulario. ID vacío = alta.
type Draft struct {
	ID                   string
	Name                 string
	Email                string
	Phone                string
	Password             string
	Role                 string
	SuperiorID           string
	BookingModuleEnabled bool
}

// Feedback último error visible: campo (si es de validación) y mensaje.
type Feedback struct {
	Field   string
	Message string
}

// Controller máquina de estados de la pantalla. Seguro para uso concurrente;
// mientras una mutación está en curso el resto de las acciones devuelve ErrBusy.
type Controller struct {
	svc Lifecycle

	mu         sync.Mutex
	state      State
	busy       bool
	draft      Draft
	candidates *dto.CandidatesResponse
	target     string
	targets    []dto.CandidateResponse
	reassignTo string
	requestID  string
	feedback   *Feedback
}

// NewController crea el controlador en Listing.
func NewController(svc Lifecycle) *Controller {
	return &Controller{svc: svc, state: Listing}
}

// State estado actual.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Busy informa si hay una mutación en curso.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// Draft copia del borrador en edición.
func (c *Controller) Draft() Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// Candidates candidatos a superior para el rol del borrador (nil si aún no hay rol).
func (c *Controller) Candidates() *dto.CandidatesResponse {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.candidates
}

// Feedback último error visible, nil si la última acción terminó bien.
func (c *Controller) Feedback() *Feedback {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.feedback
}

// DeleteTarget usuario cuya baja se está confirmando.
func (c *Controller) DeleteTarget() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

// ReassignTargets destinos posibles de la reasignación (todos los activos menos el eliminado).
func (c *Controller) ReassignTargets() []dto.CandidateResponse {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]dto.CandidateResponse, len(c.targets))
	copy(out, c.targets)
	return out
}

// StartCreate Listing → Editing con un borrador en blanco.
func (c *Controller) StartCreate() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.expect(Listing); err != nil {
		return err
	}
	c.reset()
	c.state = Editing
	return nil
}

// StartEdit Listing → Editing con el usuario existente. El rol queda fijo.
func (c *Controller) StartEdit(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.expect(Listing); err != nil {
		return err
	}
	u, err := c.svc.Get(id)
	if err != nil {
		return err
	}
	cands, err := c.svc.Candidates(u.Role)
	if err != nil {
		return err
	}
	c.reset()
	c.draft = Draft{
		ID:                   u.ID,
		Name:                 u.Name,
		Email:                u.Email,
		Phone:                u.Phone,
		Role:                 u.Role,
		BookingModuleEnabled: u.BookingModuleEnabled,
	}
	if u.SuperiorID != nil {
		c.draft.SuperiorID = *u.SuperiorID
	}
	c.candidates = cands
	c.state = Editing
	return nil
}

// SetFields actualiza los datos del borrador (no el rol ni el superior).
func (c *Controller) SetFields(name, email, phone, password string, bookingModule bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.expect(Editing); err != nil {
		return err
	}
	c.draft.Name = name
	c.draft.Email = email
	c.draft.Phone = phone
	c.draft.Password = password
	c.draft.BookingModuleEnabled = bookingModule
	return nil
}

// SelectRole solo en alta: fija el rol, descarta el superior elegido y recalcula candidatos.
func (c *Controller) SelectRole(role string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.expect(Editing); err != nil {
		return err
	}
	if c.draft.ID != "" {
		return fmt.Errorf("%w: el rol no se puede cambiar al editar", ErrInvalidTransition)
	}
	cands, err := c.svc.Candidates(role)
	if err != nil {
		c.setFeedback(err)
		return err
	}
	c.draft.Role = cands.Role
	c.draft.SuperiorID = ""
	c.candidates = cands
	c.feedback = nil
	return nil
}

// ChooseSuperior elige un superior de la lista de candidatos; "" deja el borrador sin superior.
func (c *Controller) ChooseSuperior(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.expect(Editing); err != nil {
		return err
	}
	if id == "" {
		c.draft.SuperiorID = ""
		return nil
	}
	if c.candidates == nil || !containsID(c.candidates.Items, id) {
		err := domain.NewValidationError("superior_id", "el superior elegido no está entre los candidatos")
		c.setFeedback(err)
		return err
	}
	c.draft.SuperiorID = id
	c.feedback = nil
	return nil
}

// Save Editing → Listing si el caso de uso acepta el borrador. Ante un error se queda en
// Editing y expone el mensaje del primer campo inválido.
func (c *Controller) Save(ctx context.Context) error {
	c.mu.Lock()
	if err := c.expect(Editing); err != nil {
		c.mu.Unlock()
		return err
	}
	d := c.draft
	c.busy = true
	c.mu.Unlock()

	superior := d.SuperiorID
	var err error
	if d.ID == "" {
		_, err = c.svc.Create(ctx, dto.CreateUserRequest{
			Name:                 d.Name,
			Email:                d.Email,
			Phone:                d.Phone,
			Password:             d.Password,
			Role:                 d.Role,
			SuperiorID:           &superior,
			BookingModuleEnabled: d.BookingModuleEnabled,
		})
	} else {
		_, err = c.svc.Update(ctx, d.ID, dto.UpdateUserRequest{
			Name:                 d.Name,
			Email:                d.Email,
			Phone:                d.Phone,
			Password:             d.Password,
			SuperiorID:           &superior,
			BookingModuleEnabled: d.BookingModuleEnabled,
		})
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	if err != nil {
		c.setFeedback(err)
		return err
	}
	c.reset()
	c.state = Listing
	return nil
}

// RequestDelete Listing → ConfirmingDelete. Sin efectos aún.
func (c *Controller) RequestDelete(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.expect(Listing); err != nil {
		return err
	}
	if _, err := c.svc.Get(id); err != nil {
		return err
	}
	c.reset()
	c.target = id
	c.state = ConfirmingDelete
	return nil
}

// Continue ConfirmingDelete → ChoosingReassignTarget con los empleados activos, sin el eliminado.
func (c *Controller) Continue() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.expect(ConfirmingDelete); err != nil {
		return err
	}
	c.targets = c.svc.ReassignTargets(c.target)
	c.reassignTo = ""
	c.requestID = uuid.New().String()
	c.state = ChoosingReassignTarget
	return nil
}

// ChooseReassignTarget elige el destino de la cartera entre los presentados.
func (c *Controller) ChooseReassignTarget(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.expect(ChoosingReassignTarget); err != nil {
		return err
	}
	if id != "" && !containsID(c.targets, id) {
		return fmt.Errorf("%w: el destino elegido no está disponible", domain.ErrPreconditionFailed)
	}
	c.reassignTo = id
	return nil
}

// CanConfirm habilita la confirmación: hay destino elegido, sigue siendo válido
// contra el directorio vigente y nada en curso.
func (c *Controller) CanConfirm() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != ChoosingReassignTarget || c.busy || c.reassignTo == "" {
		return false
	}
	return c.svc.CheckDeletion(c.target, c.reassignTo) == nil
}

// Confirm ChoosingReassignTarget → Listing tras la baja. La precondición la vuelve a
// verificar el caso de uso; reintentos de la misma confirmación reutilizan el request id.
func (c *Controller) Confirm(ctx context.Context) error {
	c.mu.Lock()
	if err := c.expect(ChoosingReassignTarget); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.reassignTo == "" {
		err := fmt.Errorf("%w: debe elegir a quién reasignar la cartera", domain.ErrPreconditionFailed)
		c.setFeedback(err)
		c.mu.Unlock()
		return err
	}
	target, req := c.target, dto.DeleteUserRequest{ReassignToID: c.reassignTo, RequestID: c.requestID}
	c.busy = true
	c.mu.Unlock()

	err := c.svc.Delete(ctx, target, req)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	if err != nil {
		c.setFeedback(err)
		return err
	}
	c.reset()
	c.state = Listing
	return nil
}

// Cancel vuelve a Listing descartando borrador o baja. No se permite con una mutación en curso.
func (c *Controller) Cancel() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return ErrBusy
	}
	c.reset()
	c.state = Listing
	return nil
}

func (c *Controller) expect(s State) error {
	if c.busy {
		return ErrBusy
	}
	if c.state != s {
		return fmt.Errorf("%w: %s (se esperaba %s)", ErrInvalidTransition, c.state, s)
	}
	return nil
}

func (c *Controller) reset() {
	c.draft = Draft{}
	c.candidates = nil
	c.target = ""
	c.targets = nil
	c.reassignTo = ""
	c.requestID = ""
	c.feedback = nil
}

func (c *Controller) setFeedback(err error) {
	var ve *domain.ValidationError
	var re *domain.RemoteError
	switch {
	case errors.As(err, &ve):
		c.feedback = &Feedback{Field: ve.Field, Message: ve.Message}
	case errors.As(err, &re):
		c.feedback = &Feedback{Message: re.UserMessage()}
	default:
		c.feedback = &Feedback{Message: err.Error()}
	}
}

func containsID(items []dto.CandidateResponse, id string) bool {
	for _, it := range items {
		if it.ID == id {
			return true
		}
	}
	return false
}
