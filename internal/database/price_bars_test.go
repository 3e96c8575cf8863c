package database

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight/finance-pipeline/internal/models"
)

func testBar(symbol string, date time.Time, close float64) *models.PriceBar {
	c := decimal.NewFromFloat(close)
	return &models.PriceBar{
		Symbol: symbol,
		Date:   date,
		Open:   c,
		High:   c.Add(decimal.NewFromInt(1)),
		Low:    c.Sub(decimal.NewFromInt(1)),
		Close:  c,
		Volume: 1000,
		Source: models.SourceYahoo,
	}
}

func TestPriceBarsRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)

	day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	createSymbol := func(t *testing.T, symbol string) {
		require.NoError(t, testDB.UpsertSymbol(&models.Symbol{Symbol: symbol}))
	}

	t.Run("UpsertPriceBar is idempotent", func(t *testing.T) {
		testDB.TruncateAll(t)
		createSymbol(t, "AAPL")

		bar := testBar("AAPL", day, 185.00)
		require.NoError(t, testDB.UpsertPriceBar(bar))
		require.NoError(t, testDB.UpsertPriceBar(bar))

		history, err := testDB.GetPriceHistory("AAPL")
		require.NoError(t, err)
		assert.Len(t, history, 1, "re-writing the same bar must not duplicate it")
	})

	t.Run("Upsert replaces with last write for same date", func(t *testing.T) {
		testDB.TruncateAll(t)
		createSymbol(t, "AAPL")

		require.NoError(t, testDB.UpsertPriceBar(testBar("AAPL", day, 185.00)))

		corrected := testBar("AAPL", day, 186.50)
		corrected.Source = models.SourceAlphaVantage
		require.NoError(t, testDB.UpsertPriceBar(corrected))

		latest, err := testDB.GetLatestPriceBar("AAPL")
		require.NoError(t, err)
		assert.True(t, latest.Close.Equal(decimal.RequireFromString("186.50")),
			"expected corrected close, got %s", latest.Close)
		assert.Equal(t, models.SourceAlphaVantage, latest.Source)
	})

	t.Run("UpsertPriceBars batch commits atomically", func(t *testing.T) {
		testDB.TruncateAll(t)
		createSymbol(t, "AAPL")

		bars := []*models.PriceBar{
			testBar("AAPL", day, 185.00),
			testBar("AAPL", day.AddDate(0, 0, 1), 186.00),
			testBar("AAPL", day.AddDate(0, 0, 2), 187.00),
		}
		require.NoError(t, testDB.UpsertPriceBars(bars))

		history, err := testDB.GetPriceHistory("AAPL")
		require.NoError(t, err)
		assert.Len(t, history, 3)
	})

	t.Run("GetPriceHistory is ascending by date", func(t *testing.T) {
		testDB.TruncateAll(t)
		createSymbol(t, "AAPL")

		// Insert newest first.
		require.NoError(t, testDB.UpsertPriceBar(testBar("AAPL", day.AddDate(0, 0, 2), 187.00)))
		require.NoError(t, testDB.UpsertPriceBar(testBar("AAPL", day, 185.00)))
		require.NoError(t, testDB.UpsertPriceBar(testBar("AAPL", day.AddDate(0, 0, 1), 186.00)))

		history, err := testDB.GetPriceHistory("AAPL")
		require.NoError(t, err)
		require.Len(t, history, 3)
		assert.True(t, history[0].Date.Before(history[1].Date))
		assert.True(t, history[1].Date.Before(history[2].Date))
	})

	t.Run("LatestClose returns most recent close", func(t *testing.T) {
		testDB.TruncateAll(t)
		createSymbol(t, "AAPL")

		require.NoError(t, testDB.UpsertPriceBar(testBar("AAPL", day, 185.00)))
		require.NoError(t, testDB.UpsertPriceBar(testBar("AAPL", day.AddDate(0, 0, 1), 190.25)))

		close, err := testDB.LatestClose("AAPL")
		require.NoError(t, err)
		assert.True(t, close.Equal(decimal.RequireFromString("190.25")))
	})

	t.Run("LatestClose for unknown symbol is ErrNotFound", func(t *testing.T) {
		testDB.TruncateAll(t)

		_, err := testDB.LatestClose("NOPE")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("GetPriceRange bounds are inclusive", func(t *testing.T) {
		testDB.TruncateAll(t)
		createSymbol(t, "AAPL")

		for i := 0; i < 5; i++ {
			require.NoError(t, testDB.UpsertPriceBar(testBar("AAPL", day.AddDate(0, 0, i), 185.00+float64(i))))
		}

		bars, err := testDB.GetPriceRange("AAPL", day.AddDate(0, 0, 1), day.AddDate(0, 0, 3))
		require.NoError(t, err)
		assert.Len(t, bars, 3)
	})

	t.Run("AdjustedClose round-trips through NULL", func(t *testing.T) {
		testDB.TruncateAll(t)
		createSymbol(t, "AAPL")

		plain := testBar("AAPL", day, 185.00)
		require.NoError(t, testDB.UpsertPriceBar(plain))

		withAdj := testBar("AAPL", day.AddDate(0, 0, 1), 186.00)
		withAdj.AdjustedClose = decimal.RequireFromString("185.75")
		require.NoError(t, testDB.UpsertPriceBar(withAdj))

		history, err := testDB.GetPriceHistory("AAPL")
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.True(t, history[1].AdjustedClose.Equal(decimal.RequireFromString("185.75")))
	})
}
