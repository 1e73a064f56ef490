package repository

import (
	"context"
	"testing"

	"bookmaker/domain/entities"
	"bookmaker/repository/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteRepository_Deactivate_SupersedesPerLine(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewQuoteRepository(testDB.DB)
	ctx := context.Background()

	baseline := decimal.RequireFromString("2.5")
	alternate := decimal.RequireFromString("3.5")

	overAt := func(line decimal.Decimal) *entities.MarketQuote {
		quote := testutil.CreateTestQuote(77, entities.MarketOverUnder, "over", "1.67")
		quote.Line = &line
		return quote
	}

	first := overAt(baseline)
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, overAt(alternate)))

	// Repricing the 2.5 board retires only the 2.5 quote
	require.NoError(t, repo.Deactivate(ctx, 77, entities.MarketOverUnder, "over", &baseline))
	require.NoError(t, repo.Create(ctx, overAt(baseline)))

	active, err := repo.GetActiveByMatch(ctx, 77)
	require.NoError(t, err)
	require.Len(t, active, 2)

	lines := make(map[string]int)
	for _, quote := range active {
		require.NotNil(t, quote.Line)
		lines[quote.Line.String()]++
		assert.NotEqual(t, first.ID, quote.ID, "superseded quote must not stay active")
	}
	assert.Equal(t, map[string]int{"2.5": 1, "3.5": 1}, lines)
}

func TestQuoteRepository_Deactivate_NilLineKeysOnNull(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewQuoteRepository(testDB.DB)
	ctx := context.Background()

	lined := testutil.CreateTestQuote(78, entities.MarketOverUnder, "over", "1.67")
	line := decimal.RequireFromString("2.5")
	lined.Line = &line
	require.NoError(t, repo.Create(ctx, lined))

	unlined := testutil.CreateTestQuote(78, entities.MarketOverUnder, "over", "1.70")
	require.NoError(t, repo.Create(ctx, unlined))

	// NULL matches only NULL, never a real line
	require.NoError(t, repo.Deactivate(ctx, 78, entities.MarketOverUnder, "over", nil))

	active, err := repo.GetActiveByMatch(ctx, 78)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, lined.ID, active[0].ID)
}
