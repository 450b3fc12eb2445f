package hierarchy_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/hierarchy-api/internal/domain"
	"github.com/jhoicas/hierarchy-api/internal/domain/entity"
	"github.com/jhoicas/hierarchy-api/internal/domain/hierarchy"
)

// ──────────────────────────────────────────────────────────────────────────────
// Cadena por defecto
// ──────────────────────────────────────────────────────────────────────────────

func TestDefaultChain_SuperioresYCodigos(t *testing.T) {
	c := hierarchy.DefaultChain()

	cases := []struct {
		role     entity.Role
		superior entity.Role
		field    string
	}{
		{entity.RoleEmployee, entity.RoleBDE, "assignedBDE"},
		{entity.RoleBDE, entity.RoleSrBDE, "assignedSBDE"},
		{entity.RoleSrBDE, entity.RoleTeamLeader, "assignedTL"},
		{entity.RoleTeamLeader, entity.RoleManager, "assignedMGR"},
		{entity.RoleManager, entity.RoleSrManager, "assignedSMGR"},
		{entity.RoleSrManager, entity.RoleAGM, "assignedAGM"},
		{entity.RoleAGM, entity.RoleGM, "assignedGM"},
		{entity.RoleGM, entity.RoleVP, "assignedVP"},
		{entity.RoleVP, entity.RoleVertical, "assignedVERTICAL"},
	}
	for _, tc := range cases {
		t.Run(string(tc.role), func(t *testing.T) {
			sup, ok, err := c.SuperiorOf(tc.role)
			require.NoError(t, err)
			require.True(t, ok, "un rol no terminal debe tener superior")
			assert.Equal(t, tc.superior, sup.Name)

			field, ok, err := c.AssignedField(tc.role)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, tc.field, field)
		})
	}
}

func TestDefaultChain_VerticalEsTerminal(t *testing.T) {
	c := hierarchy.DefaultChain()

	terminal, err := c.IsTerminal(entity.RoleVertical)
	require.NoError(t, err)
	assert.True(t, terminal)

	_, ok, err := c.SuperiorOf(entity.RoleVertical)
	require.NoError(t, err)
	assert.False(t, ok, "el rol terminal no tiene superior")

	field, ok, err := c.AssignedField(entity.RoleVertical)
	require.NoError(t, err)
	assert.False(t, ok, "el rol terminal no tiene campo de asignación")
	assert.Empty(t, field)
}

func TestChain_RolDesconocido_EsErrorDeConfiguracion(t *testing.T) {
	c := hierarchy.DefaultChain()

	_, _, err := c.SuperiorOf("Intern")
	require.Error(t, err)
	assert.True(t, hierarchy.IsUnknownRole(err))
	assert.True(t, errors.Is(err, domain.ErrConfiguration))

	_, err = c.FieldCodeOf("Intern")
	assert.True(t, hierarchy.IsUnknownRole(err))
}

func TestChain_Parse_AceptaNombreOCodigo(t *testing.T) {
	c := hierarchy.DefaultChain()

	cases := map[string]entity.Role{
		"Team Leader": entity.RoleTeamLeader,
		"TL":          entity.RoleTeamLeader,
		"tl":          entity.RoleTeamLeader,
		"sr.bde":      entity.RoleSrBDE,
		"SBDE":        entity.RoleSrBDE,
		" Vertical ":  entity.RoleVertical,
	}
	for in, want := range cases {
		got, ok := c.Parse(in)
		require.True(t, ok, "debe reconocer %q", in)
		assert.Equal(t, want, got, "entrada %q", in)
	}

	_, ok := c.Parse("")
	assert.False(t, ok)
	_, ok = c.Parse("CEO")
	assert.False(t, ok)
}

func TestChain_RolesEnOrden(t *testing.T) {
	roles := hierarchy.DefaultChain().Roles()
	require.Len(t, roles, len(hierarchy.DefaultRoles))
	assert.Equal(t, entity.RoleEmployee, roles[0].Name)
	assert.Equal(t, entity.RoleVertical, roles[len(roles)-1].Name)

	roles[0].Name = "mutado"
	assert.Equal(t, entity.RoleEmployee, hierarchy.DefaultChain().Roles()[0].Name,
		"Roles debe devolver una copia")
}

// ──────────────────────────────────────────────────────────────────────────────
// Validación de tablas
// ──────────────────────────────────────────────────────────────────────────────

func TestNewChain_TablasInvalidas(t *testing.T) {
	cases := map[string][]entity.RoleDefinition{
		"vacía": nil,
		"código vacío": {
			{Name: "A", Code: "", Superior: "B"},
			{Name: "B", Code: "B"},
		},
		"nombre duplicado": {
			{Name: "A", Code: "A1", Superior: "B"},
			{Name: "A", Code: "A2", Superior: "B"},
			{Name: "B", Code: "B"},
		},
		"código duplicado": {
			{Name: "A", Code: "X", Superior: "B"},
			{Name: "B", Code: "X"},
		},
		"superior inexistente": {
			{Name: "A", Code: "A", Superior: "Z"},
			{Name: "B", Code: "B"},
		},
		"dos terminales": {
			{Name: "A", Code: "A"},
			{Name: "B", Code: "B"},
		},
		"ciclo": {
			{Name: "A", Code: "A", Superior: "B"},
			{Name: "B", Code: "B", Superior: "A"},
			{Name: "C", Code: "C"},
		},
	}
	for name, defs := range cases {
		t.Run(name, func(t *testing.T) {
			c, err := hierarchy.NewChain(defs)
			require.Error(t, err)
			assert.Nil(t, c)
			assert.True(t, errors.Is(err, domain.ErrConfiguration), "debe envolver ErrConfiguration: %v", err)
		})
	}
}

func TestMustChain_PanicConTablaInvalida(t *testing.T) {
	assert.Panics(t, func() { hierarchy.MustChain(nil) })
}

func TestParseRoleChain(t *testing.T) {
	defs, err := hierarchy.ParseRoleChain("Agent=AG, Supervisor=SUP ,Director=DIR")
	require.NoError(t, err)
	require.Len(t, defs, 3)
	assert.Equal(t, entity.RoleDefinition{Name: "Agent", Code: "AG", Superior: "Supervisor"}, defs[0])
	assert.Equal(t, entity.RoleDefinition{Name: "Supervisor", Code: "SUP", Superior: "Director"}, defs[1])
	assert.True(t, defs[2].IsTerminal())

	c, err := hierarchy.NewChain(defs)
	require.NoError(t, err)
	field, ok, err := c.AssignedField("Agent")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "assignedSUP", field)
}

func TestParseRoleChain_EntradaSinCodigo(t *testing.T) {
	_, err := hierarchy.ParseRoleChain("Agent=AG,Supervisor")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
}
