package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mkravets/binderbot/internal/domain"
)

// OfferStore implements domain.OfferArchive using PostgreSQL.
type OfferStore struct {
	pool *pgxpool.Pool
}

// NewOfferStore creates an OfferStore backed by the given connection pool.
func NewOfferStore(pool *pgxpool.Pool) *OfferStore {
	return &OfferStore{pool: pool}
}

const upsertOfferQuery = `
	INSERT INTO trade_offers (
		id, buyer_id, seller_id, listing_id,
		card_id, card_name, card_set, card_image_url,
		offered_price, listing_price, currency, status,
		initial_message, response_message, created_at, updated_at, archived_at
	) VALUES (
		$1, $2, $3, $4,
		$5, $6, $7, $8,
		$9, $10, $11, $12,
		$13, $14, $15, $16, NOW()
	)
	ON CONFLICT (id) DO UPDATE SET
		offered_price    = EXCLUDED.offered_price,
		listing_price    = EXCLUDED.listing_price,
		currency         = EXCLUDED.currency,
		status           = EXCLUDED.status,
		initial_message  = EXCLUDED.initial_message,
		response_message = EXCLUDED.response_message,
		updated_at       = EXCLUDED.updated_at,
		archived_at      = NOW()`

// UpsertOffers mirrors a batch of offers into the archive. The marketplace
// backend stays authoritative; re-archiving an offer overwrites the mutable
// columns with the latest server state.
func (s *OfferStore) UpsertOffers(ctx context.Context, offers []domain.TradeOffer) error {
	if len(offers) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, o := range offers {
		batch.Queue(upsertOfferQuery,
			o.ID, o.BuyerID, o.SellerID, o.ListingID,
			o.Card.ID, o.Card.Name, o.Card.SetName, o.Card.ImageURL,
			o.OfferedPrice, o.ListingPrice, o.Currency, string(o.Status),
			o.InitialMessage, o.ResponseMessage, o.CreatedAt, o.UpdatedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range offers {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: upsert offer batch item %d: %w", i, err)
		}
	}
	return nil
}

const selectOfferColumns = `
	id, buyer_id, seller_id, listing_id,
	card_id, card_name, card_set, card_image_url,
	offered_price, listing_price, currency, status,
	initial_message, response_message, created_at, updated_at`

func scanOffer(row pgx.Row) (domain.TradeOffer, error) {
	var o domain.TradeOffer
	var status string
	err := row.Scan(
		&o.ID, &o.BuyerID, &o.SellerID, &o.ListingID,
		&o.Card.ID, &o.Card.Name, &o.Card.SetName, &o.Card.ImageURL,
		&o.OfferedPrice, &o.ListingPrice, &o.Currency, &status,
		&o.InitialMessage, &o.ResponseMessage, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return domain.TradeOffer{}, err
	}
	o.Status = domain.OfferStatus(status)
	return o, nil
}

// ListOffers returns archived offers, most recently updated first.
func (s *OfferStore) ListOffers(ctx context.Context, opts domain.ListOpts) ([]domain.TradeOffer, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	query := fmt.Sprintf(`
		SELECT %s FROM trade_offers
		ORDER BY updated_at DESC
		LIMIT $1 OFFSET $2`, selectOfferColumns)

	rows, err := s.pool.Query(ctx, query, limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("postgres: list offers: %w", err)
	}
	defer rows.Close()

	var offers []domain.TradeOffer
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan offer: %w", err)
		}
		offers = append(offers, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list offers rows: %w", err)
	}
	return offers, nil
}

// GetOffer returns one archived offer by ID.
func (s *OfferStore) GetOffer(ctx context.Context, id string) (domain.TradeOffer, error) {
	query := fmt.Sprintf("SELECT %s FROM trade_offers WHERE id = $1", selectOfferColumns)

	o, err := scanOffer(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.TradeOffer{}, fmt.Errorf("postgres: get offer %s: %w", id, domain.ErrNotFound)
		}
		return domain.TradeOffer{}, fmt.Errorf("postgres: get offer %s: %w", id, err)
	}
	return o, nil
}

var _ domain.OfferArchive = (*OfferStore)(nil)
