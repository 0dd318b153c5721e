package rbac

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const roleColumns = `id, name, display_name, description, permissions, color, priority, is_system_role, created_at, updated_at`

// Repository provides PostgreSQL backed persistence for roles.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns all roles.
func (r *Repository) List(ctx context.Context) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+roleColumns+` FROM user_roles ORDER BY priority DESC, name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// GetByName fetches a role by its unique name.
func (r *Repository) GetByName(ctx context.Context, name string) (Role, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM user_roles WHERE name = $1`, name)
	role, err := scanRole(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, ErrNotFound
		}
		return Role{}, err
	}
	return role, nil
}

// Create inserts a new role.
func (r *Repository) Create(ctx context.Context, role Role) (Role, error) {
	if role.ID == "" {
		role.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	row := r.pool.QueryRow(ctx,
		`INSERT INTO user_roles (id, name, display_name, description, permissions, color, priority, is_system_role, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		 RETURNING `+roleColumns,
		role.ID, role.Name, role.DisplayName, role.Description, permissionStrings(role.Permissions), role.Color, role.Priority, role.IsSystemRole, now)
	created, err := scanRole(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Role{}, ErrAlreadyExists
		}
		return Role{}, err
	}
	return created, nil
}

// Update replaces the mutable fields of a role, keyed by name.
func (r *Repository) Update(ctx context.Context, role Role) (Role, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE user_roles
		 SET display_name = $2, description = $3, permissions = $4, color = $5, priority = $6, updated_at = NOW()
		 WHERE name = $1
		 RETURNING `+roleColumns,
		role.Name, role.DisplayName, role.Description, permissionStrings(role.Permissions), role.Color, role.Priority)
	updated, err := scanRole(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, ErrNotFound
		}
		return Role{}, err
	}
	return updated, nil
}

// Delete removes a role by name. Returns ErrNotFound if nothing was deleted.
func (r *Repository) Delete(ctx context.Context, name string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM user_roles WHERE name = $1`, name)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanRole(row pgx.Row) (Role, error) {
	var role Role
	var perms []string
	if err := row.Scan(&role.ID, &role.Name, &role.DisplayName, &role.Description, &perms, &role.Color, &role.Priority, &role.IsSystemRole, &role.CreatedAt, &role.UpdatedAt); err != nil {
		return Role{}, err
	}
	role.Permissions = make([]PermissionID, len(perms))
	for i, p := range perms {
		role.Permissions[i] = PermissionID(p)
	}
	return role, nil
}

func permissionStrings(perms []PermissionID) []string {
	out := make([]string, len(perms))
	for i, p := range perms {
		out[i] = string(p)
	}
	return out
}

var _ RoleStore = (*Repository)(nil)
