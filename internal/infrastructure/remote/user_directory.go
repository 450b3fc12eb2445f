// Package remote implementa el directorio sobre la API REST de administración existente.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jhoicas/hierarchy-api/internal/domain"
	"github.com/jhoicas/hierarchy-api/internal/domain/entity"
	"github.com/jhoicas/hierarchy-api/internal/domain/hierarchy"
	"github.com/jhoicas/hierarchy-api/internal/domain/repository"
)

// Verificar en tiempo de compilación que UserDirectory implementa el puerto.
var _ repository.UserDirectory = (*UserDirectory)(nil)

const maxBodyBytes = 4 << 20

// UserDirectory adaptador HTTP. Usa net/http de la librería estándar.
// Todas las respuestas llegan en un sobre {data, error, message}.
type UserDirectory struct {
	baseURL    string
	token      string
	chain      *hierarchy.Chain
	httpClient *http.Client
}

// NewUserDirectory construye el adaptador. timeout acota cada llamada.
func NewUserDirectory(baseURL, token string, timeout time.Duration, chain *hierarchy.Chain) *UserDirectory {
	return &UserDirectory{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		chain:      chain,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// envelope sobre de respuesta del colaborador: (data, error, message).
type envelope struct {
	Data    json.RawMessage `json:"data"`
	Error   bool            `json:"error"`
	Message string          `json:"message"`
}

// wireUser campos fijos del usuario en el formato remoto. El superior viaja en
// un campo de nombre dinámico "assigned<FieldCode>" y se trata aparte.
type wireUser struct {
	ID            string     `json:"id,omitempty"`
	MongoID       string     `json:"_id,omitempty"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Phone         string     `json:"phone"`
	Role          string     `json:"role"`
	IsActive      bool       `json:"isActive"`
	BookingModule bool       `json:"bookingModule"`
	CreatedAt     *time.Time `json:"createdAt,omitempty"`
	UpdatedAt     *time.Time `json:"updatedAt,omitempty"`
}

// List GET /users.
func (d *UserDirectory) List(ctx context.Context) ([]entity.User, error) {
	data, err := d.do(ctx, "list users", http.MethodGet, "/users", nil)
	if err != nil {
		return nil, err
	}
	var raws []json.RawMessage
	if len(data) > 0 && string(data) != "null" {
		if err := json.Unmarshal(data, &raws); err != nil {
			return nil, &domain.RemoteError{Op: "list users", Message: "respuesta inválida", Err: err}
		}
	}
	users := make([]entity.User, 0, len(raws))
	for _, raw := range raws {
		u, err := d.decodeUser(raw)
		if err != nil {
			return nil, &domain.RemoteError{Op: "list users", Message: "usuario inválido en la respuesta", Err: err}
		}
		users = append(users, u)
	}
	return users, nil
}

// Create POST /users.
func (d *UserDirectory) Create(ctx context.Context, user *entity.User) error {
	_, err := d.do(ctx, "create user", http.MethodPost, "/users", d.encodeUser(user, true))
	return err
}

// Update PUT /users/{id}, sin rol ni estado activo.
func (d *UserDirectory) Update(ctx context.Context, user *entity.User) error {
	_, err := d.do(ctx, "update user", http.MethodPut, "/users/"+url.PathEscape(user.ID), d.encodeUser(user, false))
	return err
}

// SetActive PUT /users/{id} con solo {isActive}.
func (d *UserDirectory) SetActive(ctx context.Context, id string, active bool) error {
	_, err := d.do(ctx, "set user active", http.MethodPut, "/users/"+url.PathEscape(id), map[string]bool{"isActive": active})
	return err
}

// Delete DELETE /users/{id} con {reassignTo}; el servidor transfiere la cartera en la misma operación.
func (d *UserDirectory) Delete(ctx context.Context, req entity.DeletionRequest) error {
	body := map[string]string{"reassignTo": req.ReassignToID}
	if req.RequestID != "" {
		body["requestId"] = req.RequestID
	}
	_, err := d.do(ctx, "delete user", http.MethodDelete, "/users/"+url.PathEscape(req.TargetID), body)
	return err
}

func (d *UserDirectory) do(ctx context.Context, op, method, path string, body any) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, &domain.RemoteError{Op: op, Err: fmt.Errorf("serializar request: %w", err)}
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, d.baseURL+path, reader)
	if err != nil {
		return nil, &domain.RemoteError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if d.token != "" {
		req.Header.Set("Authorization", "Bearer "+d.token)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, &domain.RemoteError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &domain.RemoteError{Op: op, Err: fmt.Errorf("leer respuesta: %w", err)}
	}
	var env envelope
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil && resp.StatusCode < 300 {
			return nil, &domain.RemoteError{Op: op, Message: "respuesta inválida", Err: err}
		}
	}
	if resp.StatusCode >= 300 || env.Error {
		rerr := &domain.RemoteError{Op: op, Message: env.Message, Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
		if resp.StatusCode == http.StatusNotFound {
			rerr.Err = domain.ErrUserNotFound
		}
		return nil, rerr
	}
	return env.Data, nil
}

func (d *UserDirectory) decodeUser(raw json.RawMessage) (entity.User, error) {
	var w wireUser
	if err := json.Unmarshal(raw, &w); err != nil {
		return entity.User{}, err
	}
	id := w.ID
	if id == "" {
		id = w.MongoID
	}
	if id == "" {
		return entity.User{}, errors.New("usuario sin id")
	}
	u := entity.User{
		ID:                   id,
		Name:                 w.Name,
		Email:                w.Email,
		Phone:                w.Phone,
		Role:                 entity.Role(w.Role),
		IsActive:             w.IsActive,
		BookingModuleEnabled: w.BookingModule,
	}
	if role, ok := d.chain.Parse(w.Role); ok {
		u.Role = role
	}
	if w.CreatedAt != nil {
		u.CreatedAt = *w.CreatedAt
	}
	if w.UpdatedAt != nil {
		u.UpdatedAt = *w.UpdatedAt
	}

	// Un rol desconocido o terminal no tiene campo de superior: queda sin asignación.
	field, ok, err := d.chain.AssignedField(u.Role)
	if err != nil || !ok {
		return u, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return entity.User{}, err
	}
	if v, found := fields[field]; found {
		u.SuperiorID = decodeRef(v)
	}
	return u, nil
}

// decodeRef acepta un id en texto o un objeto poblado {_id|id, ...}.
func decodeRef(v json.RawMessage) *string {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		if s == "" {
			return nil
		}
		return &s
	}
	var obj struct {
		ID      string `json:"id"`
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(v, &obj); err == nil {
		id := obj.ID
		if id == "" {
			id = obj.MongoID
		}
		if id != "" {
			return &id
		}
	}
	return nil
}

// encodeUser arma el payload con el campo "assigned<FieldCode>" del superior del rol.
// Rol y estado activo solo viajan en el alta.
func (d *UserDirectory) encodeUser(u *entity.User, create bool) map[string]any {
	m := map[string]any{
		"name":          u.Name,
		"email":         u.Email,
		"phone":         u.Phone,
		"bookingModule": u.BookingModuleEnabled,
	}
	if create {
		m["id"] = u.ID
		m["role"] = string(u.Role)
		m["isActive"] = u.IsActive
	}
	if u.PasswordHash != "" {
		m["passwordHash"] = u.PasswordHash
	}
	if field, ok, err := d.chain.AssignedField(u.Role); err == nil && ok {
		if u.HasSuperior() {
			m[field] = *u.SuperiorID
		} else {
			m[field] = nil
		}
	}
	return m
}
