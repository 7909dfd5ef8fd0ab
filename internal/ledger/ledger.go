// Package ledger manages token accounts and dataset cost accumulation.
//
// Balances are mutated only inside short transactions passed in explicitly.
// Records are plain values; nothing mutates in place.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

var (
	// ErrAccountNotFound is returned when no account matches the lookup.
	ErrAccountNotFound = errors.New("account not found")

	// ErrDatasetNotFound is returned when the owner has no such dataset.
	ErrDatasetNotFound = errors.New("dataset not found")

	// ErrDatasetExists is returned when creating or renaming a dataset to a
	// name the owner already uses.
	ErrDatasetExists = errors.New("dataset already exists")

	// ErrInsufficientBalance is returned by a guarded debit that would take
	// the balance negative. The balance is left untouched.
	ErrInsufficientBalance = errors.New("insufficient token balance")
)

// DefaultStartingBalance is the token grant for a newly created account.
const DefaultStartingBalance = 10.0

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// Account is a user's token account.
type Account struct {
	ID        string    `db:"user_id"`
	Username  string    `db:"username"`
	Email     string    `db:"email"`
	Role      string    `db:"role"`
	Balance   float64   `db:"balance"`
	CreatedAt time.Time `db:"created_at"`
}

// IsAdmin reports whether the account may perform admin operations.
func (a *Account) IsAdmin() bool { return a.Role == RoleAdmin }

// Dataset is a named collection of uploaded media. AccumulatedCost is the
// inference price of everything uploaded so far; it is the amount debited
// when a job against this dataset is admitted.
type Dataset struct {
	ID              string    `db:"dataset_id"`
	OwnerID         string    `db:"owner_id"`
	Name            string    `db:"name"`
	AccumulatedCost float64   `db:"accumulated_cost"`
	CreatedAt       time.Time `db:"created_at"`
}

// Store performs account and dataset operations against PostgreSQL.
type Store struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a ledger store on an established connection pool.
func NewStore(db *sqlx.DB, logger *slog.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// WithinTx runs fn inside a transaction, committing when fn returns nil and
// rolling back otherwise. The commit/rollback decision always follows the
// returned error, never control flow escaping the closure.
func (s *Store) WithinTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("Transaction rollback failed",
				slog.String("error", rbErr.Error()),
			)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// AccountByUsername loads an account by username.
func (s *Store) AccountByUsername(ctx context.Context, username string) (*Account, error) {
	var acc Account
	err := s.db.GetContext(ctx, &acc, `
		SELECT user_id, username, email, role, balance, created_at
		FROM accounts
		WHERE username = $1
	`, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("get account by username: %w", err)
	}
	return &acc, nil
}

// AccountByID loads an account by its id.
func (s *Store) AccountByID(ctx context.Context, userID string) (*Account, error) {
	var acc Account
	err := s.db.GetContext(ctx, &acc, `
		SELECT user_id, username, email, role, balance, created_at
		FROM accounts
		WHERE user_id = $1
	`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("get account by id: %w", err)
	}
	return &acc, nil
}

// AccountForUpdateTx loads an account with a row lock so the balance read
// stays valid for the rest of the transaction.
func (s *Store) AccountForUpdateTx(ctx context.Context, tx *sqlx.Tx, userID string) (*Account, error) {
	var acc Account
	err := tx.GetContext(ctx, &acc, `
		SELECT user_id, username, email, role, balance, created_at
		FROM accounts
		WHERE user_id = $1
		FOR UPDATE
	`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("lock account: %w", err)
	}
	return &acc, nil
}

// DebitTx subtracts amount from the account balance. The guard keeps the
// balance non-negative as a post-condition of every successful debit.
func (s *Store) DebitTx(ctx context.Context, tx *sqlx.Tx, userID string, amount float64) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE accounts
		SET balance = balance - $1
		WHERE user_id = $2
		  AND balance >= $1
	`, amount, userID)
	if err != nil {
		return fmt.Errorf("debit account: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("debit account: rows affected: %w", err)
	}
	if rows == 0 {
		return ErrInsufficientBalance
	}
	return nil
}

// CreditTx adds amount to the account balance.
func (s *Store) CreditTx(ctx context.Context, tx *sqlx.Tx, userID string, amount float64) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE accounts
		SET balance = balance + $1
		WHERE user_id = $2
	`, amount, userID)
	if err != nil {
		return fmt.Errorf("credit account: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("credit account: rows affected: %w", err)
	}
	if rows == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// DatasetByName loads an owner's dataset by name.
func (s *Store) DatasetByName(ctx context.Context, ownerID, name string) (*Dataset, error) {
	return datasetByName(ctx, s.db, ownerID, name)
}

// DatasetByNameTx is DatasetByName inside an open transaction.
func (s *Store) DatasetByNameTx(ctx context.Context, tx *sqlx.Tx, ownerID, name string) (*Dataset, error) {
	return datasetByName(ctx, tx, ownerID, name)
}

func datasetByName(ctx context.Context, q sqlx.QueryerContext, ownerID, name string) (*Dataset, error) {
	var ds Dataset
	err := sqlx.GetContext(ctx, q, &ds, `
		SELECT dataset_id, owner_id, name, accumulated_cost, created_at
		FROM datasets
		WHERE owner_id = $1 AND name = $2
	`, ownerID, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDatasetNotFound
		}
		return nil, fmt.Errorf("get dataset: %w", err)
	}
	return &ds, nil
}

// ListDatasets returns all datasets owned by the user, newest first.
func (s *Store) ListDatasets(ctx context.Context, ownerID string) ([]Dataset, error) {
	var out []Dataset
	err := s.db.SelectContext(ctx, &out, `
		SELECT dataset_id, owner_id, name, accumulated_cost, created_at
		FROM datasets
		WHERE owner_id = $1
		ORDER BY created_at DESC, dataset_id DESC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	return out, nil
}

// CreateDataset inserts a dataset. The (owner_id, name) unique constraint
// turns a duplicate into ErrDatasetExists.
func (s *Store) CreateDataset(ctx context.Context, ds *Dataset) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO datasets (dataset_id, owner_id, name, accumulated_cost, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, ds.ID, ds.OwnerID, ds.Name, ds.AccumulatedCost, ds.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDatasetExists
		}
		return fmt.Errorf("create dataset: %w", err)
	}
	return nil
}

// RenameDataset changes the dataset name for the owner.
func (s *Store) RenameDataset(ctx context.Context, ownerID, name, newName string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE datasets
		SET name = $3
		WHERE owner_id = $1 AND name = $2
	`, ownerID, name, newName)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDatasetExists
		}
		return fmt.Errorf("rename dataset: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rename dataset: rows affected: %w", err)
	}
	if rows == 0 {
		return ErrDatasetNotFound
	}
	return nil
}

// DeleteDataset removes the owner's dataset.
func (s *Store) DeleteDataset(ctx context.Context, ownerID, name string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM datasets
		WHERE owner_id = $1 AND name = $2
	`, ownerID, name)
	if err != nil {
		return fmt.Errorf("delete dataset: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete dataset: rows affected: %w", err)
	}
	if rows == 0 {
		return ErrDatasetNotFound
	}
	return nil
}

// AddDatasetCostTx accrues inference cost onto the dataset.
func (s *Store) AddDatasetCostTx(ctx context.Context, tx *sqlx.Tx, datasetID string, delta float64) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE datasets
		SET accumulated_cost = accumulated_cost + $1
		WHERE dataset_id = $2
	`, delta, datasetID)
	if err != nil {
		return fmt.Errorf("accrue dataset cost: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("accrue dataset cost: rows affected: %w", err)
	}
	if rows == 0 {
		return ErrDatasetNotFound
	}
	return nil
}
