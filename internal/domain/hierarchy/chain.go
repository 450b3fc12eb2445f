// Package hierarchy contiene la cadena jerárquica de roles y la proyección del directorio.
// No depende de infraestructura: solo de entity y de los errores de dominio.
package hierarchy

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jhoicas/hierarchy-api/internal/domain"
	"github.com/jhoicas/hierarchy-api/internal/domain/entity"
)

// AssignedFieldPrefix prefijo del campo dinámico "assigned<FieldCode>" del formato remoto.
const AssignedFieldPrefix = "assigned"

// ErrUnknownRole se devuelve al consultar un rol fuera de la tabla. Envuelve domain.ErrConfiguration.
var ErrUnknownRole = fmt.Errorf("%w: rol desconocido", domain.ErrConfiguration)

// DefaultRoles cadena por defecto, de abajo hacia arriba.
// "Team Leader" se almacena con su nombre visible aunque su código sea TL.
var DefaultRoles = []entity.RoleDefinition{
	{Name: entity.RoleEmployee, Code: "EMP", Superior: entity.RoleBDE},
	{Name: entity.RoleBDE, Code: "BDE", Superior: entity.RoleSrBDE},
	{Name: entity.RoleSrBDE, Code: "SBDE", Superior: entity.RoleTeamLeader},
	{Name: entity.RoleTeamLeader, Code: "TL", Superior: entity.RoleManager},
	{Name: entity.RoleManager, Code: "MGR", Superior: entity.RoleSrManager},
	{Name: entity.RoleSrManager, Code: "SMGR", Superior: entity.RoleAGM},
	{Name: entity.RoleAGM, Code: "AGM", Superior: entity.RoleGM},
	{Name: entity.RoleGM, Code: "GM", Superior: entity.RoleVP},
	{Name: entity.RoleVP, Code: "VP", Superior: entity.RoleVertical},
	{Name: entity.RoleVertical, Code: "VERTICAL"},
}

// Chain tabla inmutable rol → superior inmediato y rol → código de campo.
// Una sola tabla con ambos datos por fila: los conjuntos de claves no pueden divergir.
type Chain struct {
	defs   []entity.RoleDefinition
	byName map[entity.Role]int
	byCode map[entity.FieldCode]int
}

// NewChain valida la tabla y construye la cadena.
// Errores (todos envuelven domain.ErrConfiguration): nombre o código vacío o repetido,
// superior inexistente, cantidad de roles terminales distinta de uno, ciclos.
func NewChain(defs []entity.RoleDefinition) (*Chain, error) {
	if len(defs) == 0 {
		return nil, fmt.Errorf("%w: cadena de roles vacía", domain.ErrConfiguration)
	}
	c := &Chain{
		defs:   make([]entity.RoleDefinition, len(defs)),
		byName: make(map[entity.Role]int, len(defs)),
		byCode: make(map[entity.FieldCode]int, len(defs)),
	}
	copy(c.defs, defs)

	var terminals []entity.Role
	for i, d := range c.defs {
		if strings.TrimSpace(string(d.Name)) == "" {
			return nil, fmt.Errorf("%w: rol sin nombre en la posición %d", domain.ErrConfiguration, i)
		}
		if strings.TrimSpace(string(d.Code)) == "" {
			return nil, fmt.Errorf("%w: rol %q sin código de campo", domain.ErrConfiguration, d.Name)
		}
		if _, dup := c.byName[d.Name]; dup {
			return nil, fmt.Errorf("%w: rol %q duplicado", domain.ErrConfiguration, d.Name)
		}
		if _, dup := c.byCode[d.Code]; dup {
			return nil, fmt.Errorf("%w: código %q duplicado", domain.ErrConfiguration, d.Code)
		}
		c.byName[d.Name] = i
		c.byCode[d.Code] = i
		if d.IsTerminal() {
			terminals = append(terminals, d.Name)
		}
	}
	if len(terminals) != 1 {
		return nil, fmt.Errorf("%w: se esperaba un único rol terminal, hay %d %v", domain.ErrConfiguration, len(terminals), terminals)
	}
	for _, d := range c.defs {
		if d.IsTerminal() {
			continue
		}
		if _, ok := c.byName[d.Superior]; !ok {
			return nil, fmt.Errorf("%w: el superior %q de %q no está en la tabla", domain.ErrConfiguration, d.Superior, d.Name)
		}
	}
	// Con un único terminal y superiores existentes, cada rol debe llegar a la cima en < len pasos.
	for _, d := range c.defs {
		cur := d
		for steps := 0; !cur.IsTerminal(); steps++ {
			if steps >= len(c.defs) {
				return nil, fmt.Errorf("%w: ciclo en la cadena desde %q", domain.ErrConfiguration, d.Name)
			}
			cur = c.defs[c.byName[cur.Superior]]
		}
	}
	return c, nil
}

// MustChain entra en pánico si la tabla es inválida. Solo para arranque y tablas fijas.
func MustChain(defs []entity.RoleDefinition) *Chain {
	c, err := NewChain(defs)
	if err != nil {
		panic(err)
	}
	return c
}

// DefaultChain cadena por defecto de la organización de ventas.
func DefaultChain() *Chain {
	return MustChain(DefaultRoles)
}

// ParseRoleChain convierte "Nombre=Código,Nombre=Código,..." (de abajo hacia arriba) en definiciones:
// cada rol reporta al siguiente y el último es terminal.
func ParseRoleChain(raw string) ([]entity.RoleDefinition, error) {
	parts := strings.Split(raw, ",")
	defs := make([]entity.RoleDefinition, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		name, code, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("%w: entrada %q sin código (formato Nombre=Código)", domain.ErrConfiguration, p)
		}
		defs = append(defs, entity.RoleDefinition{
			Name: entity.Role(strings.TrimSpace(name)),
			Code: entity.FieldCode(strings.TrimSpace(code)),
		})
	}
	for i := 0; i+1 < len(defs); i++ {
		defs[i].Superior = defs[i+1].Name
	}
	return defs, nil
}

// Roles devuelve las definiciones en orden (de abajo hacia arriba).
func (c *Chain) Roles() []entity.RoleDefinition {
	out := make([]entity.RoleDefinition, len(c.defs))
	copy(out, c.defs)
	return out
}

// Definition devuelve la definición de un rol.
func (c *Chain) Definition(role entity.Role) (entity.RoleDefinition, error) {
	i, ok := c.byName[role]
	if !ok {
		return entity.RoleDefinition{}, fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	return c.defs[i], nil
}

// SuperiorOf devuelve el rol superior inmediato; ok=false si role es terminal.
func (c *Chain) SuperiorOf(role entity.Role) (superior entity.RoleDefinition, ok bool, err error) {
	d, err := c.Definition(role)
	if err != nil {
		return entity.RoleDefinition{}, false, err
	}
	if d.IsTerminal() {
		return entity.RoleDefinition{}, false, nil
	}
	return c.defs[c.byName[d.Superior]], true, nil
}

// FieldCodeOf devuelve el código de campo del rol.
func (c *Chain) FieldCodeOf(role entity.Role) (entity.FieldCode, error) {
	d, err := c.Definition(role)
	if err != nil {
		return "", err
	}
	return d.Code, nil
}

// IsTerminal informa si el rol está en la cima de la cadena.
func (c *Chain) IsTerminal(role entity.Role) (bool, error) {
	d, err := c.Definition(role)
	if err != nil {
		return false, err
	}
	return d.IsTerminal(), nil
}

// AssignedField nombre del campo donde se guarda el superior de role:
// "assigned" + código del rol superior. ok=false para el rol terminal.
func (c *Chain) AssignedField(role entity.Role) (string, bool, error) {
	sup, ok, err := c.SuperiorOf(role)
	if err != nil || !ok {
		return "", false, err
	}
	return AssignedFieldPrefix + string(sup.Code), true, nil
}

// Parse acepta el nombre visible o el código de campo (sin distinguir mayúsculas)
// y devuelve el nombre visible que se almacena. ok=false si no coincide con ningún rol.
func (c *Chain) Parse(s string) (entity.Role, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if i, ok := c.byName[entity.Role(s)]; ok {
		return c.defs[i].Name, true
	}
	if i, ok := c.byCode[entity.FieldCode(s)]; ok {
		return c.defs[i].Name, true
	}
	for _, d := range c.defs {
		if strings.EqualFold(string(d.Name), s) || strings.EqualFold(string(d.Code), s) {
			return d.Name, true
		}
	}
	return "", false
}

// IsUnknownRole informa si err proviene de consultar un rol fuera de la tabla.
func IsUnknownRole(err error) bool {
	return errors.Is(err, ErrUnknownRole)
}
