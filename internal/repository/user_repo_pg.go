package repository

import (
	"context"

	"github.com/andhikadk/smi-test/internal/domain"
)

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	// FindApproverByLevel returns the directory approver for level or ErrNotFound.
	FindApproverByLevel(ctx context.Context, level int) (*domain.User, error)
}

type PGUserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) UserRepository {
	return &PGUserRepository{db: db}
}

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.ApprovalLevel); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *PGUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT id, name, email, role, approval_level FROM users WHERE id=$1`, id))
}

func (r *PGUserRepository) FindApproverByLevel(ctx context.Context, level int) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT id, name, email, role, approval_level FROM users
		WHERE role=$1 AND approval_level=$2 ORDER BY id LIMIT 1`, domain.RoleApprover, level))
}

var _ UserRepository = (*PGUserRepository)(nil)
