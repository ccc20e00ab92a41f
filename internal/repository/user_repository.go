package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/persistence"
)

// UserRepository defines persistence access for identity records.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmailHash(ctx context.Context, emailHash string) (*domain.User, error)
	ExistsByEmailHash(ctx context.Context, emailHash string) (bool, error)
	Update(ctx context.Context, id string, changes domain.UserChanges) error
	UpdatePasswordHash(ctx context.Context, id, passwordHash string) error
	Delete(ctx context.Context, id string) error
}

type userRepository struct {
	db persistence.DBTX
}

// NewUserRepository returns a Postgres-backed implementation. Calls made
// inside TxManager.WithTx run on the ambient transaction.
func NewUserRepository(db persistence.DBTX) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, email_hash, email, firstname, lastname, age, password_hash, role, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (id, email_hash, email, firstname, lastname, age, password_hash, role)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING created_at, updated_at`

	err := persistence.Conn(ctx, r.db).QueryRow(ctx, query,
		user.ID,
		user.EmailHash,
		user.Email,
		user.Firstname,
		user.Lastname,
		user.Age,
		user.PasswordHash,
		user.Role,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrEmailTaken
	}
	return err
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return scanUser(persistence.Conn(ctx, r.db).QueryRow(ctx, query, id))
}

func (r *userRepository) GetByEmailHash(ctx context.Context, emailHash string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email_hash=$1`
	return scanUser(persistence.Conn(ctx, r.db).QueryRow(ctx, query, emailHash))
}

func (r *userRepository) ExistsByEmailHash(ctx context.Context, emailHash string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM users WHERE email_hash=$1)`

	var exists bool
	if err := persistence.Conn(ctx, r.db).QueryRow(ctx, query, emailHash).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// Update rewrites only the columns set in changes.
func (r *userRepository) Update(ctx context.Context, id string, changes domain.UserChanges) error {
	if changes.Empty() {
		return errors.New("update without changes")
	}

	sets := make([]string, 0, 8)
	args := make([]any, 0, 8)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s=$%d", column, len(args)))
	}

	if changes.Email != nil {
		add("email", *changes.Email)
	}
	if changes.EmailHash != nil {
		add("email_hash", *changes.EmailHash)
	}
	if changes.Role != nil {
		add("role", *changes.Role)
	}
	if changes.Firstname != nil {
		add("firstname", *changes.Firstname)
	}
	if changes.Lastname != nil {
		add("lastname", *changes.Lastname)
	}
	if changes.Age != nil {
		add("age", *changes.Age)
	}
	if changes.PasswordHash != nil {
		add("password_hash", *changes.PasswordHash)
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE users SET %s, updated_at=NOW() WHERE id=$%d`, strings.Join(sets, ", "), len(args))

	cmd, err := persistence.Conn(ctx, r.db).Exec(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *userRepository) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	const query = `UPDATE users SET password_hash=$1, updated_at=NOW() WHERE id=$2`

	cmd, err := persistence.Conn(ctx, r.db).Exec(ctx, query, passwordHash, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Delete removes the user; tickets go with it through the foreign key.
func (r *userRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM users WHERE id=$1`

	cmd, err := persistence.Conn(ctx, r.db).Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.EmailHash,
		&user.Email,
		&user.Firstname,
		&user.Lastname,
		&user.Age,
		&user.PasswordHash,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}
