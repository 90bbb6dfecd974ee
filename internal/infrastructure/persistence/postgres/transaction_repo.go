package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mariners-hub/mariners-gameday-hub/internal/domain/transaction"
)

// ══════════════════════════════════════════════════════════════════════════════
// TRANSACTION REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// TransactionRepository implements transaction.Repository for PostgreSQL.
type TransactionRepository struct {
	conn *Connection
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(conn *Connection) *TransactionRepository {
	return &TransactionRepository{conn: conn}
}

const transactionColumns = `
	id, person_id, person_name, from_team_id, from_team_name, to_team_id, to_team_name,
	transaction_date, effective_date, resolution_date, type_code, type_desc,
	description, notified, created_at
`

// Upsert inserts the transaction or updates it in place by id. The notified
// flag is excluded from the update set so re-fetching a window of recent
// days never re-queues an already-delivered move.
func (r *TransactionRepository) Upsert(ctx context.Context, t *transaction.Transaction) error {
	query := `
		INSERT INTO transactions (
			id, person_id, person_name, from_team_id, from_team_name, to_team_id, to_team_name,
			transaction_date, effective_date, resolution_date, type_code, type_desc,
			description, notified, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			person_id = EXCLUDED.person_id,
			person_name = EXCLUDED.person_name,
			from_team_id = EXCLUDED.from_team_id,
			from_team_name = EXCLUDED.from_team_name,
			to_team_id = EXCLUDED.to_team_id,
			to_team_name = EXCLUDED.to_team_name,
			transaction_date = EXCLUDED.transaction_date,
			effective_date = EXCLUDED.effective_date,
			resolution_date = EXCLUDED.resolution_date,
			type_code = EXCLUDED.type_code,
			type_desc = EXCLUDED.type_desc,
			description = EXCLUDED.description
	`

	_, err := r.conn.Exec(ctx, query,
		t.ID,
		t.PersonID,
		t.PersonName,
		t.FromTeamID,
		t.FromTeamName,
		t.ToTeamID,
		t.ToTeamName,
		t.Date,
		t.EffectiveDate,
		t.ResolutionDate,
		t.TypeCode,
		t.TypeDesc,
		t.Description,
		t.Notified,
		t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert transaction %d: %w", t.ID, err)
	}

	return nil
}

// GetByID returns the transaction with the given id.
func (r *TransactionRepository) GetByID(ctx context.Context, id int64) (*transaction.Transaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM transactions WHERE id = $1`, transactionColumns)

	row := r.conn.QueryRow(ctx, query, id)
	return r.scanTransaction(row)
}

// GetUnnotified returns transactions not yet delivered, oldest first.
func (r *TransactionRepository) GetUnnotified(ctx context.Context, limit int) ([]*transaction.Transaction, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM transactions
		WHERE notified = FALSE
		ORDER BY transaction_date
		LIMIT $1
	`, transactionColumns)

	rows, err := r.conn.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query unnotified transactions: %w", err)
	}
	defer rows.Close()

	return r.scanTransactions(rows)
}

// GetRecent returns transactions dated on or after the given time, newest
// first.
func (r *TransactionRepository) GetRecent(ctx context.Context, since time.Time, limit int) ([]*transaction.Transaction, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM transactions
		WHERE transaction_date >= $1
		ORDER BY transaction_date DESC
		LIMIT $2
	`, transactionColumns)

	rows, err := r.conn.Query(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent transactions: %w", err)
	}
	defer rows.Close()

	return r.scanTransactions(rows)
}

// MarkNotified flips the notified flag for the given ids.
func (r *TransactionRepository) MarkNotified(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	query := `UPDATE transactions SET notified = TRUE WHERE id = ANY($1)`

	_, err := r.conn.Exec(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("failed to mark transactions notified: %w", err)
	}

	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Scanning
// ─────────────────────────────────────────────────────────────────────────────

func (r *TransactionRepository) scanTransaction(row pgx.Row) (*transaction.Transaction, error) {
	var t transaction.Transaction

	err := row.Scan(
		&t.ID,
		&t.PersonID,
		&t.PersonName,
		&t.FromTeamID,
		&t.FromTeamName,
		&t.ToTeamID,
		&t.ToTeamName,
		&t.Date,
		&t.EffectiveDate,
		&t.ResolutionDate,
		&t.TypeCode,
		&t.TypeDesc,
		&t.Description,
		&t.Notified,
		&t.CreatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, transaction.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}

	return &t, nil
}

func (r *TransactionRepository) scanTransactions(rows pgx.Rows) ([]*transaction.Transaction, error) {
	var txns []*transaction.Transaction

	for rows.Next() {
		t, err := r.scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}

	return txns, rows.Err()
}
