package database

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight/finance-pipeline/internal/models"
)

func TestSymbolsRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)

	day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	t.Run("UpsertSymbol preserves favorited on metadata update", func(t *testing.T) {
		testDB.TruncateAll(t)

		require.NoError(t, testDB.UpsertSymbol(&models.Symbol{Symbol: "AAPL", Name: "Apple Inc."}))

		favorited, err := testDB.ToggleFavorite("AAPL")
		require.NoError(t, err)
		require.True(t, favorited)

		// Metadata refresh must not clear the flag.
		require.NoError(t, testDB.UpsertSymbol(&models.Symbol{Symbol: "AAPL", Name: "Apple Inc.", Sector: "Technology"}))

		s, err := testDB.GetSymbol("AAPL")
		require.NoError(t, err)
		assert.True(t, s.Favorited)
		assert.Equal(t, "Technology", s.Sector)
	})

	t.Run("ToggleFavorite flips and reports new state", func(t *testing.T) {
		testDB.TruncateAll(t)
		require.NoError(t, testDB.UpsertSymbol(&models.Symbol{Symbol: "MSFT"}))

		favorited, err := testDB.ToggleFavorite("MSFT")
		require.NoError(t, err)
		assert.True(t, favorited)

		favorited, err = testDB.ToggleFavorite("MSFT")
		require.NoError(t, err)
		assert.False(t, favorited)
	})

	t.Run("ToggleFavorite unknown symbol is ErrNotFound", func(t *testing.T) {
		testDB.TruncateAll(t)

		_, err := testDB.ToggleFavorite("NOPE")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("FavoritedSymbols returns only favorites", func(t *testing.T) {
		testDB.TruncateAll(t)

		for _, sym := range []string{"AAPL", "MSFT", "GOOG"} {
			require.NoError(t, testDB.UpsertSymbol(&models.Symbol{Symbol: sym}))
		}
		_, err := testDB.ToggleFavorite("AAPL")
		require.NoError(t, err)
		_, err = testDB.ToggleFavorite("GOOG")
		require.NoError(t, err)

		favorites, err := testDB.FavoritedSymbols()
		require.NoError(t, err)
		assert.Equal(t, []string{"AAPL", "GOOG"}, favorites)
	})

	t.Run("GetSymbolQuotes derives change against previous bar", func(t *testing.T) {
		testDB.TruncateAll(t)
		require.NoError(t, testDB.UpsertSymbol(&models.Symbol{Symbol: "AAPL"}))

		require.NoError(t, testDB.UpsertPriceBar(testBar("AAPL", day, 100.00)))
		require.NoError(t, testDB.UpsertPriceBar(testBar("AAPL", day.AddDate(0, 0, 1), 110.00)))

		quotes, err := testDB.GetSymbolQuotes()
		require.NoError(t, err)
		require.Len(t, quotes, 1)

		q := quotes[0]
		assert.True(t, q.Price.Equal(decimal.NewFromInt(110)))
		assert.True(t, q.ChangePercent.Equal(decimal.NewFromInt(10)), "expected +10%%, got %s", q.ChangePercent)
		assert.Equal(t, "up", q.ChangeDirection)
	})

	t.Run("GetSymbolQuotes single bar is unchanged", func(t *testing.T) {
		testDB.TruncateAll(t)
		require.NoError(t, testDB.UpsertSymbol(&models.Symbol{Symbol: "AAPL"}))
		require.NoError(t, testDB.UpsertPriceBar(testBar("AAPL", day, 100.00)))

		quotes, err := testDB.GetSymbolQuotes()
		require.NoError(t, err)
		require.Len(t, quotes, 1)
		assert.Equal(t, "unchanged", quotes[0].ChangeDirection)
		assert.True(t, quotes[0].ChangePercent.IsZero())
	})

	t.Run("GetSymbolQuotes excludes symbols without price data", func(t *testing.T) {
		testDB.TruncateAll(t)
		require.NoError(t, testDB.UpsertSymbol(&models.Symbol{Symbol: "AAPL"}))
		require.NoError(t, testDB.UpsertSymbol(&models.Symbol{Symbol: "COLD"}))
		require.NoError(t, testDB.UpsertPriceBar(testBar("AAPL", day, 100.00)))

		quotes, err := testDB.GetSymbolQuotes()
		require.NoError(t, err)
		require.Len(t, quotes, 1)
		assert.Equal(t, "AAPL", quotes[0].Symbol)
	})
}
