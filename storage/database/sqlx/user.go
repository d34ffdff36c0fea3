package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/likelion-sch/recruit/core/user"
)

const userColumns = `id, email, name, student_id, department, phone, role, email_verified, education_track,
	is_active, is_staff, password_hash, date_joined, last_login`

var userWritable = []string{
	"email", "name", "student_id", "department", "phone", "role", "email_verified", "education_track",
	"is_active", "is_staff", "password_hash", "date_joined", "last_login",
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := `INSERT INTO "users" (` + strings.Join(userWritable, ", ") + `)
		VALUES (:` + strings.Join(userWritable, ", :") + `) RETURNING id`
	stmt, err := repo.db.PrepareNamedContext(ctx, q)
	if err != nil {
		return user.User{}, errors.Wrap(err, "preparing user insert")
	}
	defer func() { _ = stmt.Close() }()

	if err = stmt.GetContext(ctx, &usr.ID, usr); err != nil {
		if pqCode(err) == uniqueViolation {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.ID != 0 {
		args = append(args, filter.ID)
		conds = append(conds, "id = ?")
	}
	if filter.Email != "" {
		args = append(args, filter.Email)
		conds = append(conds, "email = ?")
	}
	if len(conds) == 0 {
		return user.User{}, user.ErrNotFound
	}

	q := repo.db.Rebind(`SELECT ` + userColumns + ` FROM "users" WHERE ` + strings.Join(conds, " AND "))
	var usr user.User
	if err := repo.db.GetContext(ctx, &usr, q, args...); err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "selecting user")
	}
	return usr, nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := `UPDATE "users" SET ` + setClause(userWritable) + ` WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, usr)
	if err != nil {
		if pqCode(err) == uniqueViolation {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

type verificationRepository struct {
	db *sqlx.DB
}

var _ user.VerificationRepository = (*verificationRepository)(nil)

func NewVerificationRepository(db *sqlx.DB) user.VerificationRepository {
	return &verificationRepository{db: db}
}

func (repo *verificationRepository) CreateVerification(ctx context.Context, v user.EmailVerification) (user.EmailVerification, error) {
	q := `INSERT INTO email_verifications (id, email, code_hash, expires_at, created_at, verified_at)
		VALUES (:id, :email, :code_hash, :expires_at, :created_at, :verified_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, v); err != nil {
		return user.EmailVerification{}, errors.Wrap(err, "inserting verification")
	}
	return v, nil
}

func (repo *verificationRepository) GetLatestVerification(ctx context.Context, email string) (user.EmailVerification, error) {
	q := `SELECT id, email, code_hash, expires_at, created_at, verified_at FROM email_verifications
		WHERE email = $1 ORDER BY created_at DESC LIMIT 1`
	var v user.EmailVerification
	if err := repo.db.GetContext(ctx, &v, q, email); err != nil {
		if err == sql.ErrNoRows {
			return user.EmailVerification{}, user.ErrNoVerification
		}
		return user.EmailVerification{}, errors.Wrap(err, "selecting verification")
	}
	return v, nil
}

func (repo *verificationRepository) UpdateVerification(ctx context.Context, v user.EmailVerification) (user.EmailVerification, error) {
	q := `UPDATE email_verifications SET code_hash = :code_hash, expires_at = :expires_at, verified_at = :verified_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, v)
	if err != nil {
		return user.EmailVerification{}, errors.Wrap(err, "updating verification")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.EmailVerification{}, user.ErrNoVerification
	}
	return v, nil
}
