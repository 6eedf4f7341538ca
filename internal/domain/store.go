package domain

import "context"

// ListOpts carries standard pagination parameters.
type ListOpts struct {
	Limit  int
	Offset int
}

// OfferArchive persists trade offers locally for bookkeeping and dashboard
// reads. The marketplace backend stays authoritative; the archive is a mirror.
type OfferArchive interface {
	UpsertOffers(ctx context.Context, offers []TradeOffer) error
	ListOffers(ctx context.Context, opts ListOpts) ([]TradeOffer, error)
	GetOffer(ctx context.Context, id string) (TradeOffer, error)
}

// TransactionArchive persists completed transactions locally.
type TransactionArchive interface {
	UpsertTransactions(ctx context.Context, txs []Transaction) error
	ListTransactions(ctx context.Context, opts ListOpts) ([]Transaction, error)
}

// ForwardDedup remembers which notification IDs have already been forwarded
// to operator channels, so each is delivered at most once.
type ForwardDedup interface {
	// FirstSeen marks id as seen and reports whether this was the first time.
	FirstSeen(ctx context.Context, id string) (bool, error)
}
