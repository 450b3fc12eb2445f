package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/hierarchy-api/internal/application/directory"
	"github.com/jhoicas/hierarchy-api/internal/application/dto"
	"github.com/jhoicas/hierarchy-api/internal/application/usecase"
	"github.com/jhoicas/hierarchy-api/internal/domain"
	"github.com/jhoicas/hierarchy-api/internal/domain/entity"
	"github.com/jhoicas/hierarchy-api/internal/domain/hierarchy"
	"github.com/jhoicas/hierarchy-api/internal/domain/repository"
	"github.com/jhoicas/hierarchy-api/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/hierarchy-api/internal/interfaces/http"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

// rejectingRepo simula un colaborador que rechaza las altas con un mensaje propio.
type rejectingRepo struct{ *memory.UserDirectory }

func (rejectingRepo) Create(context.Context, *entity.User) error {
	return &domain.RemoteError{Op: "create user", Message: "cuota de usuarios excedida"}
}

func seedDirectory() *memory.UserDirectory {
	sup := "x"
	return memory.NewUserDirectory(
		entity.User{ID: "x", Name: "X", Email: "x@corp.test", Phone: "9000000001", Role: entity.RoleSrBDE, IsActive: true},
		entity.User{ID: "y", Name: "Y", Email: "y@corp.test", Phone: "9000000002", Role: entity.RoleSrBDE, IsActive: true},
		entity.User{ID: "a", Name: "A", Email: "a@corp.test", Phone: "9000000003", Role: entity.RoleBDE, IsActive: true, SuperiorID: &sup},
	)
}

func buildAPI(t *testing.T, repo repository.UserDirectory) *fiber.App {
	t.Helper()
	store := directory.NewStore(repo, nil)
	_, err := store.Load(context.Background())
	require.NoError(t, err)
	uc := usecase.NewUserLifecycleUseCase(repo, store, directory.NewResolver(hierarchy.DefaultChain(), store), nil,
		usecase.WithBcryptCost(bcrypt.MinCost))

	app := fiber.New()
	app.Use(apphttp.MetricsMiddleware())
	app.Get("/metrics", apphttp.MetricsHandler())
	apphttp.Router(app, apphttp.RouterDeps{LifecycleUC: uc, JWTSecret: testJWTSecret, JWTIssuer: testIssuer})
	return app
}

func call(t *testing.T, app *fiber.App, method, path, role string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if role != "" {
		req.Header.Set("Authorization", tokenForRole(t, role))
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, raw
}

func decodeError(t *testing.T, raw []byte) dto.ErrorResponse {
	t.Helper()
	var out dto.ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &out), "cuerpo: %s", raw)
	return out
}

func validBody() map[string]any {
	return map[string]any{
		"name":     "Nuevo",
		"email":    "nuevo@corp.test",
		"phone":    "98765 43210",
		"password": "secreto",
		"role":     "BDE",
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Consultas
// ──────────────────────────────────────────────────────────────────────────────

func TestAPI_SinToken_401(t *testing.T) {
	app := buildAPI(t, seedDirectory())
	resp, _ := call(t, app, http.MethodGet, "/api/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_Roles(t *testing.T) {
	app := buildAPI(t, seedDirectory())
	resp, raw := call(t, app, http.MethodGet, "/api/hierarchy/roles", "viewer", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var chain []dto.RoleChainEntry
	require.NoError(t, json.Unmarshal(raw, &chain))
	require.Len(t, chain, len(hierarchy.DefaultRoles))
	assert.Equal(t, "Employee", chain[0].Role)
	assert.Equal(t, "assignedBDE", chain[0].AssignedField)
}

func TestAPI_ListarFilas(t *testing.T) {
	app := buildAPI(t, seedDirectory())
	resp, raw := call(t, app, http.MethodGet, "/api/users?limit=10", "viewer", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out dto.UserListResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	require.Len(t, out.Items, 3)
	assert.Equal(t, 10, out.Page.Limit)
	assert.Equal(t, "-", out.Items[0].Superior)
	assert.Equal(t, "X", out.Items[2].Superior)
}

func TestAPI_Candidatos(t *testing.T) {
	app := buildAPI(t, seedDirectory())
	resp, raw := call(t, app, http.MethodGet, "/api/users/candidates?role=BDE", "viewer", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out dto.CandidatesResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "Sr.BDE", out.SuperiorRole)
	assert.Equal(t, "assignedSBDE", out.AssignedField)
	assert.Len(t, out.Items, 2)
}

func TestAPI_CandidatosRolDesconocido_400(t *testing.T) {
	app := buildAPI(t, seedDirectory())
	resp, raw := call(t, app, http.MethodGet, "/api/users/candidates?role=CEO", "viewer", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	e := decodeError(t, raw)
	assert.Equal(t, "VALIDATION", e.Code)
	assert.Equal(t, "role", e.Field)
}

func TestAPI_ReassignTargets(t *testing.T) {
	app := buildAPI(t, seedDirectory())
	resp, raw := call(t, app, http.MethodGet, "/api/users/reassign-targets?exclude=x", "viewer", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out []dto.CandidateResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	require.Len(t, out, 2)
	for _, c := range out {
		assert.NotEqual(t, "x", c.ID)
	}
}

func TestAPI_GetInexistente_404(t *testing.T) {
	app := buildAPI(t, seedDirectory())
	resp, raw := call(t, app, http.MethodGet, "/api/users/nadie", "viewer", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", decodeError(t, raw).Code)
}

// ──────────────────────────────────────────────────────────────────────────────
// Mutaciones
// ──────────────────────────────────────────────────────────────────────────────

func TestAPI_Crear_SoloAdmin(t *testing.T) {
	app := buildAPI(t, seedDirectory())
	resp, _ := call(t, app, http.MethodPost, "/api/users", "viewer", validBody())
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAPI_Crear_201(t *testing.T) {
	app := buildAPI(t, seedDirectory())
	body := validBody()
	body["superior_id"] = "y"
	resp, raw := call(t, app, http.MethodPost, "/api/users", "admin", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode, "cuerpo: %s", raw)

	var out dto.UserResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "9876543210", out.Phone)
	assert.Equal(t, "Y", out.SuperiorName)
	assert.NotContains(t, string(raw), "password", "la respuesta nunca incluye credenciales")
}

func TestAPI_Crear_Validacion_400ConCampo(t *testing.T) {
	app := buildAPI(t, seedDirectory())
	body := validBody()
	body["phone"] = "123"
	resp, raw := call(t, app, http.MethodPost, "/api/users", "admin", body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	e := decodeError(t, raw)
	assert.Equal(t, "VALIDATION", e.Code)
	assert.Equal(t, "phone", e.Field)
}

func TestAPI_Crear_RechazoRemoto_502ConMensaje(t *testing.T) {
	app := buildAPI(t, rejectingRepo{seedDirectory()})
	resp, raw := call(t, app, http.MethodPost, "/api/users", "admin", validBody())
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	e := decodeError(t, raw)
	assert.Equal(t, "REMOTE", e.Code)
	assert.Equal(t, "cuota de usuarios excedida", e.Message)
}

func TestAPI_SetActive(t *testing.T) {
	app := buildAPI(t, seedDirectory())

	resp, _ := call(t, app, http.MethodPatch, "/api/users/x/active", "admin", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "active es requerido")

	resp, raw := call(t, app, http.MethodPatch, "/api/users/x/active", "admin", map[string]any{"active": false})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out dto.UserResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.False(t, out.IsActive)

	_, raw = call(t, app, http.MethodGet, "/api/users/candidates?role=BDE", "viewer", nil)
	var cands dto.CandidatesResponse
	require.NoError(t, json.Unmarshal(raw, &cands))
	require.Len(t, cands.Items, 1)
	assert.Equal(t, "y", cands.Items[0].ID)
}

func TestAPI_Update(t *testing.T) {
	app := buildAPI(t, seedDirectory())
	resp, raw := call(t, app, http.MethodPut, "/api/users/a", "admin", map[string]any{
		"name": "A2", "email": "a@corp.test", "phone": "9000000003", "superior_id": "y",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, "cuerpo: %s", raw)
	var out dto.UserResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "A2", out.Name)
	assert.Equal(t, "Y", out.SuperiorName)
	assert.Equal(t, "BDE", out.Role)
}

func TestAPI_Update_NoReactivaTrasDesactivar(t *testing.T) {
	app := buildAPI(t, seedDirectory())
	resp, _ := call(t, app, http.MethodPatch, "/api/users/x/active", "admin", map[string]any{"active": false})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, raw := call(t, app, http.MethodPut, "/api/users/x", "admin", map[string]any{
		"name": "X2", "email": "x@corp.test", "phone": "9000000001",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, "cuerpo: %s", raw)

	_, raw = call(t, app, http.MethodGet, "/api/users/x", "viewer", nil)
	var out dto.UserResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "X2", out.Name)
	assert.False(t, out.IsActive)
}

func TestAPI_Update_RolAlmacenadoFueraDeLaCadena_500Configuracion(t *testing.T) {
	repo := memory.NewUserDirectory(
		entity.User{ID: "c", Name: "C", Email: "c@corp.test", Phone: "9000000009", Role: entity.Role("CEO"), IsActive: true},
	)
	app := buildAPI(t, repo)

	resp, raw := call(t, app, http.MethodPut, "/api/users/c", "admin", map[string]any{
		"name": "C2", "email": "c@corp.test", "phone": "9000000009",
	})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "CONFIGURATION", decodeError(t, raw).Code)

	_, raw = call(t, app, http.MethodGet, "/metrics", "", nil)
	assert.Contains(t, string(raw), `hierarchy_lifecycle_mutations_total{op="update",result="CONFIGURATION"}`)
}

func TestAPI_Delete_SinDestino_409(t *testing.T) {
	app := buildAPI(t, seedDirectory())
	resp, raw := call(t, app, http.MethodDelete, "/api/users/x", "admin", map[string]any{})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "PRECONDITION_FAILED", decodeError(t, raw).Code)

	resp, _ = call(t, app, http.MethodGet, "/api/users/x", "viewer", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode, "el usuario sigue en el directorio")
}

func TestAPI_Delete_ConDestino_204(t *testing.T) {
	repo := seedDirectory()
	repo.AssignWork("x", "lead-1")
	app := buildAPI(t, repo)

	resp, _ := call(t, app, http.MethodDelete, "/api/users/x", "admin", map[string]any{"reassign_to_id": "y"})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = call(t, app, http.MethodGet, "/api/users/x", "viewer", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, []string{"lead-1"}, repo.WorkOf("y"))

	resp, raw := call(t, app, http.MethodGet, "/api/users/a", "viewer", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var a dto.UserResponse
	require.NoError(t, json.Unmarshal(raw, &a))
	assert.Equal(t, "-", a.SuperiorName, "puntero obsoleto se muestra como sin superior")
}

// ──────────────────────────────────────────────────────────────────────────────
// Métricas
// ──────────────────────────────────────────────────────────────────────────────

func TestAPI_Metrics(t *testing.T) {
	app := buildAPI(t, seedDirectory())
	call(t, app, http.MethodGet, "/api/hierarchy/roles", "viewer", nil)
	call(t, app, http.MethodDelete, "/api/users/x", "admin", map[string]any{})

	resp, raw := call(t, app, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "hierarchy_api_requests_total")
	assert.Contains(t, string(raw), `hierarchy_lifecycle_mutations_total{op="delete",result="PRECONDITION_FAILED"}`)
}
