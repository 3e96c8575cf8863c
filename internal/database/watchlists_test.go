package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight/finance-pipeline/internal/models"
)

func TestWatchlistsRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)

	t.Run("CreateWatchlist with symbols round-trips", func(t *testing.T) {
		testDB.TruncateAll(t)

		w := &models.Watchlist{
			Name:        "tech",
			Description: "large cap tech",
			Symbols:     []string{"MSFT", "AAPL"},
		}
		require.NoError(t, testDB.CreateWatchlist(w))
		assert.NotZero(t, w.ID)

		got, err := testDB.GetWatchlist("tech")
		require.NoError(t, err)
		assert.Equal(t, "large cap tech", got.Description)
		assert.Equal(t, []string{"AAPL", "MSFT"}, got.Symbols, "membership is returned sorted")
	})

	t.Run("Duplicate name is ErrConstraintViolation", func(t *testing.T) {
		testDB.TruncateAll(t)

		require.NoError(t, testDB.CreateWatchlist(&models.Watchlist{Name: "tech"}))

		err := testDB.CreateWatchlist(&models.Watchlist{Name: "tech"})
		assert.ErrorIs(t, err, ErrConstraintViolation)
	})

	t.Run("Duplicate member symbols collapse", func(t *testing.T) {
		testDB.TruncateAll(t)

		w := &models.Watchlist{Name: "tech", Symbols: []string{"AAPL", "AAPL"}}
		require.NoError(t, testDB.CreateWatchlist(w))

		got, err := testDB.GetWatchlist("tech")
		require.NoError(t, err)
		assert.Equal(t, []string{"AAPL"}, got.Symbols)
	})

	t.Run("DeleteWatchlist cascades membership only", func(t *testing.T) {
		testDB.TruncateAll(t)

		require.NoError(t, testDB.UpsertSymbol(&models.Symbol{Symbol: "AAPL"}))
		day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
		require.NoError(t, testDB.UpsertPriceBar(testBar("AAPL", day, 185.00)))

		require.NoError(t, testDB.CreateWatchlist(&models.Watchlist{Name: "tech", Symbols: []string{"AAPL"}}))
		require.NoError(t, testDB.DeleteWatchlist("tech"))

		var members int
		require.NoError(t, testDB.GetRawConn().QueryRow(`SELECT COUNT(*) FROM watchlist_symbols`).Scan(&members))
		assert.Zero(t, members, "membership rows cascade with the watchlist")

		// The symbol and its prices survive.
		_, err := testDB.GetSymbol("AAPL")
		assert.NoError(t, err)
		history, err := testDB.GetPriceHistory("AAPL")
		require.NoError(t, err)
		assert.Len(t, history, 1)
	})

	t.Run("DeleteWatchlist unknown name is ErrNotFound", func(t *testing.T) {
		testDB.TruncateAll(t)

		assert.ErrorIs(t, testDB.DeleteWatchlist("nope"), ErrNotFound)
	})

	t.Run("ListWatchlists sorted by name", func(t *testing.T) {
		testDB.TruncateAll(t)

		require.NoError(t, testDB.CreateWatchlist(&models.Watchlist{Name: "value"}))
		require.NoError(t, testDB.CreateWatchlist(&models.Watchlist{Name: "growth"}))

		lists, err := testDB.ListWatchlists()
		require.NoError(t, err)
		require.Len(t, lists, 2)
		assert.Equal(t, "growth", lists[0].Name)
		assert.Equal(t, "value", lists[1].Name)
	})
}
