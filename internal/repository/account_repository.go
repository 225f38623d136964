package repository

import (
	"context"

	"tierimage/internal/models"
)

type AccountRepository struct {
	q querier
}

const accountColumns = `id, email, password_hash, name, plan, is_staff, is_active, created_at, updated_at`

func (r *AccountRepository) Create(ctx context.Context, account models.Account) error {
	const query = `
		INSERT INTO accounts (
			id, email, password_hash, name, plan, is_staff, is_active, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, NOW(), NOW()
		)
	`

	_, err := r.q.Exec(ctx, query,
		account.ID,
		account.Email,
		account.PasswordHash,
		account.Name,
		account.Plan,
		account.IsStaff,
		account.IsActive,
	)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (models.Account, error) {
	row := r.q.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	account, err := scanAccount(row)
	return account, notFound(err)
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (models.Account, error) {
	row := r.q.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
	account, err := scanAccount(row)
	return account, notFound(err)
}

func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]models.Account, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

func (r *AccountRepository) Update(ctx context.Context, account models.Account) error {
	const query = `
		UPDATE accounts
		SET email = $2,
		    password_hash = $3,
		    name = $4,
		    plan = $5,
		    is_staff = $6,
		    is_active = $7,
		    updated_at = NOW()
		WHERE id = $1
	`
	cmd, err := r.q.Exec(ctx, query,
		account.ID,
		account.Email,
		account.PasswordHash,
		account.Name,
		account.Plan,
		account.IsStaff,
		account.IsActive,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (models.Account, error) {
	var account models.Account
	err := row.Scan(
		&account.ID,
		&account.Email,
		&account.PasswordHash,
		&account.Name,
		&account.Plan,
		&account.IsStaff,
		&account.IsActive,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	return account, err
}
