package interfaces

import (
	"context"

	"bookmaker/domain/entities"
)

// QuoteCache caches the active quote board per match. A miss returns
// (nil, nil); cache failures are treated as misses by callers, never as
// operation failures.
type QuoteCache interface {
	GetActiveByMatch(ctx context.Context, matchID int64) ([]*entities.MarketQuote, error)
	SetActiveByMatch(ctx context.Context, matchID int64, quotes []*entities.MarketQuote) error
	InvalidateMatch(ctx context.Context, matchID int64) error
}
