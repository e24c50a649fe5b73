package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"tally/internal/core"
	applog "tally/internal/log"
	"tally/internal/store"
)

// timestampLayout sorts lexically when times are in UTC.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

const expenseColumns = `id, amount, category, description, date, photo_url, created_at, updated_at`

type SQLiteRepository struct {
	db     *sql.DB
	logger *applog.Logger
	now    func() time.Time
	newID  func() string
}

var _ store.ExpenseStore = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string, logger *applog.Logger) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &SQLiteRepository{
		db:     db,
		logger: logger.WithComponent(applog.ComponentStorage),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	r.logger.Debug("SQLite store ready", "path", dbPath, "schema_version", version)
	return r, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Create(ctx context.Context, userID string, in core.NewExpense) (core.Expense, error) {
	if err := in.Validate(); err != nil {
		return core.Expense{}, err
	}
	now := r.now().UTC()
	e := core.Expense{
		ID:          r.newID(),
		Amount:      in.Amount,
		Category:    in.Category,
		Description: in.Description,
		Date:        in.Date,
		PhotoURL:    in.PhotoURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses (id, user_id, amount, category, description, date, day, photo_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, userID, e.Amount, string(e.Category), e.Description, e.Date, e.Day(), e.PhotoURL,
		e.CreatedAt.Format(timestampLayout), e.UpdatedAt.Format(timestampLayout))
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}

	r.logger.DebugContext(ctx, "Expense saved to SQLite",
		applog.NewFields().WithUser(userID).WithExpense(e.ID, e.Amount, string(e.Category)).ToSlice()...)
	return e, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, userID, id string) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE user_id = ? AND id = ?`, userID, id)
	return scanExpense(row)
}

func (r *SQLiteRepository) Update(ctx context.Context, userID, id string, patch core.ExpensePatch) (core.Expense, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Expense{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := scanExpense(tx.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE user_id = ? AND id = ?`, userID, id))
	if err != nil {
		return core.Expense{}, err
	}

	updated := patch.Apply(current)
	if err := updated.ValidateWrite(); err != nil {
		return core.Expense{}, err
	}
	updated.UpdatedAt = r.now().UTC()

	_, err = tx.ExecContext(ctx, `
		UPDATE expenses
		SET amount = ?, category = ?, description = ?, date = ?, day = ?, photo_url = ?, updated_at = ?
		WHERE user_id = ? AND id = ?`,
		updated.Amount, string(updated.Category), updated.Description, updated.Date, updated.Day(),
		updated.PhotoURL, updated.UpdatedAt.Format(timestampLayout), userID, id)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return core.Expense{}, fmt.Errorf("commit transaction: %w", err)
	}
	return updated, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, userID, id string) (core.Expense, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Expense{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	removed, err := scanExpense(tx.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE user_id = ? AND id = ?`, userID, id))
	if err != nil {
		return core.Expense{}, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM expenses WHERE user_id = ? AND id = ?`, userID, id); err != nil {
		return core.Expense{}, fmt.Errorf("delete expense: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return core.Expense{}, fmt.Errorf("commit transaction: %w", err)
	}
	return removed, nil
}

func (r *SQLiteRepository) List(ctx context.Context, userID string) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+expenseColumns+` FROM expenses
		WHERE user_id = ?
		ORDER BY day DESC, created_at DESC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	out := []core.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (core.Expense, error) {
	var (
		e                    core.Expense
		category             string
		createdAt, updatedAt string
	)
	err := row.Scan(&e.ID, &e.Amount, &category, &e.Description, &e.Date, &e.PhotoURL, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, store.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("scan expense: %w", err)
	}
	e.Category = core.Category(category)
	if e.CreatedAt, err = time.Parse(timestampLayout, createdAt); err != nil {
		return core.Expense{}, fmt.Errorf("parse created_at: %w", err)
	}
	if e.UpdatedAt, err = time.Parse(timestampLayout, updatedAt); err != nil {
		return core.Expense{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return e, nil
}
