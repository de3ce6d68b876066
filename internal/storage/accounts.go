package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ashita-ai/manabi/internal/model"
)

// CreateAccount inserts an API account. Names are unique.
func (db *DB) CreateAccount(ctx context.Context, a model.Account) (model.Account, error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now

	_, err := db.pool.Exec(ctx,
		`INSERT INTO accounts (id, name, role, api_key_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.Name, string(a.Role), a.APIKeyHash, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.Account{}, fmt.Errorf("storage: account %q: %w", a.Name, ErrConflict)
		}
		return model.Account{}, fmt.Errorf("storage: create account: %w", err)
	}
	return a, nil
}

// GetAccountByName returns the account with the given name.
func (db *DB) GetAccountByName(ctx context.Context, name string) (model.Account, error) {
	var a model.Account
	err := db.pool.QueryRow(ctx,
		`SELECT id, name, role, api_key_hash, created_at, updated_at FROM accounts WHERE name = $1`, name,
	).Scan(&a.ID, &a.Name, &a.Role, &a.APIKeyHash, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Account{}, fmt.Errorf("storage: account %q: %w", name, ErrNotFound)
		}
		return model.Account{}, fmt.Errorf("storage: get account: %w", err)
	}
	return a, nil
}

// ListAccounts returns all accounts, oldest first.
func (db *DB) ListAccounts(ctx context.Context) ([]model.Account, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, name, role, api_key_hash, created_at, updated_at FROM accounts ORDER BY created_at ASC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("storage: list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []model.Account
	for rows.Next() {
		var a model.Account
		if err := rows.Scan(&a.ID, &a.Name, &a.Role, &a.APIKeyHash, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("storage: scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// CountAccounts returns the number of accounts.
func (db *DB) CountAccounts(ctx context.Context) (int, error) {
	var n int
	if err := db.pool.QueryRow(ctx, `SELECT count(*) FROM accounts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("storage: count accounts: %w", err)
	}
	return n, nil
}
