package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/hierarchy-api/internal/domain"
	"github.com/jhoicas/hierarchy-api/internal/domain/entity"
	"github.com/jhoicas/hierarchy-api/internal/infrastructure/memory"
)

func seeded() *memory.UserDirectory {
	return memory.NewUserDirectory(
		entity.User{ID: "x", Email: "x@corp.test", Role: entity.RoleSrBDE, IsActive: true, PasswordHash: "hx"},
		entity.User{ID: "y", Email: "y@corp.test", Role: entity.RoleSrBDE, IsActive: true},
		entity.User{ID: "z", Email: "z@corp.test", Role: entity.RoleSrBDE, IsActive: false},
	)
}

func TestList_NoExponeHash(t *testing.T) {
	d := seeded()
	users, err := d.List(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 3)
	for _, u := range users {
		assert.Empty(t, u.PasswordHash)
	}
}

func TestCreate_EmailDuplicadoSinDistinguirMayusculas(t *testing.T) {
	d := seeded()
	err := d.Create(context.Background(), &entity.User{ID: "n", Email: "X@CORP.test"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrRemote))
}

func TestUpdate_ConservaRolHashYEstado(t *testing.T) {
	d := seeded()
	err := d.Update(context.Background(), &entity.User{ID: "x", Email: "x@corp.test", Role: entity.RoleVP, IsActive: false})
	require.NoError(t, err)

	x, ok := d.Get("x")
	require.True(t, ok)
	assert.Equal(t, entity.RoleSrBDE, x.Role, "el rol no se reescribe")
	assert.Equal(t, "hx", x.PasswordHash, "hash vacío conserva el anterior")
	assert.True(t, x.IsActive, "Update no escribe el estado activo")
}

func TestSetActive_SoloCambiaEstado(t *testing.T) {
	d := seeded()
	sup := "y"
	require.NoError(t, d.Update(context.Background(), &entity.User{ID: "x", Name: "X", Email: "x@corp.test", SuperiorID: &sup}))

	require.NoError(t, d.SetActive(context.Background(), "x", false))
	x, _ := d.Get("x")
	assert.False(t, x.IsActive)
	assert.Equal(t, "X", x.Name)
	assert.Equal(t, entity.RoleSrBDE, x.Role)
	require.NotNil(t, x.SuperiorID)
	assert.Equal(t, "y", *x.SuperiorID)

	err := d.SetActive(context.Background(), "nadie", false)
	assert.True(t, errors.Is(err, domain.ErrUserNotFound))
	assert.True(t, errors.Is(err, domain.ErrRemote))
}

func TestUpdate_Inexistente(t *testing.T) {
	err := seeded().Update(context.Background(), &entity.User{ID: "nadie"})
	assert.True(t, errors.Is(err, domain.ErrUserNotFound))
	assert.True(t, errors.Is(err, domain.ErrRemote))
}

func TestDelete_TransfiereCartera(t *testing.T) {
	d := seeded()
	d.AssignWork("x", "lead-1", "task-2")
	d.AssignWork("y", "lead-0")

	err := d.Delete(context.Background(), entity.DeletionRequest{TargetID: "x", ReassignToID: "y", RequestID: "r1"})
	require.NoError(t, err)

	_, ok := d.Get("x")
	assert.False(t, ok)
	assert.Equal(t, []string{"lead-0", "lead-1", "task-2"}, d.WorkOf("y"))
	assert.Empty(t, d.WorkOf("x"))

	// Reintento con el mismo request id: éxito sin repetir la transferencia.
	require.NoError(t, d.Delete(context.Background(), entity.DeletionRequest{TargetID: "x", ReassignToID: "y", RequestID: "r1"}))
	assert.Len(t, d.WorkOf("y"), 3)
}

func TestDelete_ReverificaElDestino(t *testing.T) {
	cases := map[string]string{
		"inactivo":      "z",
		"mismo usuario": "x",
		"inexistente":   "nadie",
	}
	for name, to := range cases {
		t.Run(name, func(t *testing.T) {
			d := seeded()
			d.AssignWork("x", "lead-1")
			err := d.Delete(context.Background(), entity.DeletionRequest{TargetID: "x", ReassignToID: to})
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrPreconditionFailed))
			var re *domain.RemoteError
			require.True(t, errors.As(err, &re))

			_, ok := d.Get("x")
			assert.True(t, ok, "sin borrado parcial")
			assert.Equal(t, []string{"lead-1"}, d.WorkOf("x"))
		})
	}
}

func TestContextoCancelado(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := seeded().List(ctx)
	assert.True(t, errors.Is(err, domain.ErrRemote))
	assert.True(t, errors.Is(err, context.Canceled))
}
