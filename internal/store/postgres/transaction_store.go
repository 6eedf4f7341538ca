package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mkravets/binderbot/internal/domain"
)

// TransactionStore implements domain.TransactionArchive using PostgreSQL.
type TransactionStore struct {
	pool *pgxpool.Pool
}

// NewTransactionStore creates a TransactionStore backed by the given pool.
func NewTransactionStore(pool *pgxpool.Pool) *TransactionStore {
	return &TransactionStore{pool: pool}
}

const upsertTxQuery = `
	INSERT INTO transactions (
		id, listing_id, buyer_id, seller_id,
		amount, currency, status, created_at, archived_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
	ON CONFLICT (id) DO UPDATE SET
		status      = EXCLUDED.status,
		archived_at = NOW()`

// UpsertTransactions mirrors a batch of transactions into the archive.
func (s *TransactionStore) UpsertTransactions(ctx context.Context, txs []domain.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, t := range txs {
		batch.Queue(upsertTxQuery,
			t.ID, t.ListingID, t.BuyerID, t.SellerID,
			t.Amount, t.Currency, t.Status, t.CreatedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range txs {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: upsert transaction batch item %d: %w", i, err)
		}
	}
	return nil
}

// ListTransactions returns archived transactions, newest first.
func (s *TransactionStore) ListTransactions(ctx context.Context, opts domain.ListOpts) ([]domain.Transaction, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	const query = `
		SELECT id, listing_id, buyer_id, seller_id,
		       amount, currency, status, created_at
		FROM transactions
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := s.pool.Query(ctx, query, limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("postgres: list transactions: %w", err)
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		if err := rows.Scan(
			&t.ID, &t.ListingID, &t.BuyerID, &t.SellerID,
			&t.Amount, &t.Currency, &t.Status, &t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan transaction: %w", err)
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list transactions rows: %w", err)
	}
	return txs, nil
}

var _ domain.TransactionArchive = (*TransactionStore)(nil)
