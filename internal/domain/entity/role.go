package entity

// Role nombre visible de un rol; es también el valor almacenado en User.Role.
type Role string

// FieldCode código corto y estable de un rol; da nombre al campo "assigned<FieldCode>".
type FieldCode string

// RoleDefinition nodo de la cadena jerárquica.
// Superior vacío = rol terminal (cima de la cadena).
type RoleDefinition struct {
	Name     Role
	Code     FieldCode
	Superior Role
}

// IsTerminal informa si el rol no reporta a nadie.
func (d RoleDefinition) IsTerminal() bool { return d.Superior == "" }

// Roles de la cadena por defecto (de abajo hacia arriba).
const (
	RoleEmployee   Role = "Employee"
	RoleBDE        Role = "BDE"
	RoleSrBDE      Role = "Sr.BDE"
	RoleTeamLeader Role = "Team Leader"
	RoleManager    Role = "Manager"
	RoleSrManager  Role = "Sr.Manager"
	RoleAGM        Role = "AGM"
	RoleGM         Role = "GM"
	RoleVP         Role = "VP"
	RoleVertical   Role = "Vertical"
)
