package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/hierarchy-api/internal/domain"
	"github.com/jhoicas/hierarchy-api/internal/domain/entity"
	"github.com/jhoicas/hierarchy-api/internal/domain/repository"
)

var _ repository.UserDirectory = (*UserRepo)(nil)

// ownedTable tabla de cartera y columna que apunta al dueño.
type ownedTable struct {
	name   string
	column string
}

// Cartera que se transfiere en la baja, en este orden.
var ownedTables = []ownedTable{
	{name: "leads", column: "owner_id"},
	{name: "bookings", column: "owner_id"},
	{name: "tasks", column: "assignee_id"},
}

// UserRepo implementación del puerto UserDirectory sobre PostgreSQL.
type UserRepo struct {
	q  Querier
	tx *TxRunner
}

// NewUserRepository construye el adaptador de persistencia para el directorio.
func NewUserRepository(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{q: pool, tx: NewTxRunner(pool)}
}

// List devuelve todos los usuarios en orden de alta (sin hash de password).
func (r *UserRepo) List(ctx context.Context) ([]entity.User, error) {
	query := `
		SELECT id, name, email, phone, role, is_active, booking_module_enabled, superior_id, created_at, updated_at
		FROM users ORDER BY created_at, id`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, remoteErr("list users", err)
	}
	defer rows.Close()
	var list []entity.User
	for rows.Next() {
		var u entity.User
		var role string
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &role, &u.IsActive,
			&u.BookingModuleEnabled, &u.SuperiorID, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, remoteErr("scan user", err)
		}
		u.Role = entity.Role(role)
		list = append(list, u)
	}
	if err := rows.Err(); err != nil {
		return nil, remoteErr("list users", err)
	}
	return list, nil
}

// Create persiste un nuevo usuario.
func (r *UserRepo) Create(ctx context.Context, user *entity.User) error {
	query := `
		INSERT INTO users (id, name, email, phone, password_hash, role, is_active, booking_module_enabled, superior_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		user.ID, user.Name, user.Email, user.Phone, user.PasswordHash, string(user.Role),
		user.IsActive, user.BookingModuleEnabled, user.SuperiorID, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.RemoteError{Op: "create user", Message: "el email ya está registrado", Err: err}
		}
		return remoteErr("insert user", err)
	}
	return nil
}

// Update actualiza datos y superior. Rol y estado activo nunca se reescriben;
// password_hash solo cambia si PasswordHash no está vacío.
func (r *UserRepo) Update(ctx context.Context, user *entity.User) error {
	query := `
		UPDATE users SET
			name = $2, email = $3, phone = $4,
			password_hash = COALESCE(NULLIF($5, ''), password_hash),
			booking_module_enabled = $6, superior_id = $7, updated_at = $8
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		user.ID, user.Name, user.Email, user.Phone, user.PasswordHash,
		user.BookingModuleEnabled, user.SuperiorID, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.RemoteError{Op: "update user", Message: "el email ya está registrado", Err: err}
		}
		return remoteErr("update user", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.RemoteError{Op: "update user", Message: "usuario no encontrado", Err: domain.ErrUserNotFound}
	}
	return nil
}

// SetActive cambia solo is_active.
func (r *UserRepo) SetActive(ctx context.Context, id string, active bool) error {
	tag, err := r.q.Exec(ctx, `UPDATE users SET is_active = $2, updated_at = now() WHERE id = $1`, id, active)
	if err != nil {
		return remoteErr("set user active", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.RemoteError{Op: "set user active", Message: "usuario no encontrado", Err: domain.ErrUserNotFound}
	}
	return nil
}

// Delete transfiere la cartera y elimina el usuario en una sola transacción.
// La precondición (destino activo y distinto) se vuelve a verificar con ambas filas bloqueadas,
// así dos operadores concurrentes no pueden reasignar hacia un usuario recién desactivado.
func (r *UserRepo) Delete(ctx context.Context, req entity.DeletionRequest) error {
	err := r.tx.Run(ctx, func(tx pgx.Tx) error {
		if req.RequestID != "" {
			var doneTarget string
			err := tx.QueryRow(ctx, `SELECT target_id FROM user_deletions WHERE request_id = $1`, req.RequestID).Scan(&doneTarget)
			switch {
			case err == nil && doneTarget == req.TargetID:
				return nil
			case err == nil:
				return &domain.RemoteError{Op: "delete user", Message: "request_id ya usado para otro usuario"}
			case !errors.Is(err, pgx.ErrNoRows):
				return remoteErr("check deletion request", err)
			}
		}

		rows, err := tx.Query(ctx,
			`SELECT id, is_active FROM users WHERE id = ANY($1) ORDER BY id FOR UPDATE`,
			[]string{req.TargetID, req.ReassignToID})
		if err != nil {
			return remoteErr("lock users", err)
		}
		active := make(map[string]bool, 2)
		for rows.Next() {
			var id string
			var isActive bool
			if err := rows.Scan(&id, &isActive); err != nil {
				rows.Close()
				return remoteErr("lock users", err)
			}
			active[id] = isActive
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return remoteErr("lock users", err)
		}
		if _, ok := active[req.TargetID]; !ok {
			return &domain.RemoteError{Op: "delete user", Message: "usuario no encontrado", Err: domain.ErrUserNotFound}
		}
		if req.ReassignToID == req.TargetID || !active[req.ReassignToID] {
			return &domain.RemoteError{Op: "delete user", Message: "el destino de la reasignación no es un usuario activo", Err: domain.ErrPreconditionFailed}
		}

		moved := make([]int64, len(ownedTables))
		for i, t := range ownedTables {
			tag, err := tx.Exec(ctx,
				fmt.Sprintf(`UPDATE %s SET %s = $2 WHERE %s = $1`, t.name, t.column, t.column),
				req.TargetID, req.ReassignToID)
			if err != nil {
				return remoteErr("reassign "+t.name, err)
			}
			moved[i] = tag.RowsAffected()
		}

		if _, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, req.TargetID); err != nil {
			return remoteErr("delete user", err)
		}
		if req.RequestID != "" {
			_, err := tx.Exec(ctx, `
				INSERT INTO user_deletions (request_id, target_id, reassign_to_id, leads_moved, bookings_moved, tasks_moved)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				req.RequestID, req.TargetID, req.ReassignToID, moved[0], moved[1], moved[2])
			if err != nil {
				return remoteErr("record deletion", err)
			}
		}
		return nil
	})
	var re *domain.RemoteError
	if err != nil && !errors.As(err, &re) {
		return remoteErr("delete user", err)
	}
	return err
}

func remoteErr(op string, err error) error {
	return &domain.RemoteError{Op: op, Err: err}
}
