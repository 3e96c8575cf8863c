package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight/finance-pipeline/internal/database"
	"github.com/finsight/finance-pipeline/internal/models"
	"github.com/finsight/finance-pipeline/internal/pipeline"
)

// stubStore overrides only the store methods a test exercises; the
// embedded interface panics on anything unexpected.
type stubStore struct {
	pipeline.Store
	quotes    []models.SymbolQuote
	favorited map[string]bool
	alerts    []*models.Alert
}

func (s *stubStore) GetSymbolQuotes() ([]models.SymbolQuote, error) {
	return s.quotes, nil
}

func (s *stubStore) ToggleFavorite(symbol string) (bool, error) {
	cur, known := s.favorited[symbol]
	if !known {
		return false, database.ErrNotFound
	}
	s.favorited[symbol] = !cur
	return !cur, nil
}

func (s *stubStore) CreateAlert(a *models.Alert) error {
	a.ID = int64(len(s.alerts) + 1)
	s.alerts = append(s.alerts, a)
	return nil
}

func (s *stubStore) GetAlerts(onlyActive bool) ([]*models.Alert, error) {
	return s.alerts, nil
}

func newTestRouter(store pipeline.Store) http.Handler {
	log := logrus.New()
	log.SetLevel(logrus.FatalLevel)
	service := pipeline.New(store, nil, nil, nil, pipeline.Options{}, log)
	return SetupRoutes(NewHandler(service, nil, log))
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(&stubStore{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestGetSymbols(t *testing.T) {
	store := &stubStore{quotes: []models.SymbolQuote{
		{Symbol: "AAPL", Price: decimal.RequireFromString("186.50"), ChangeDirection: "up"},
	}}
	router := newTestRouter(store)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/symbols", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var quotes []models.SymbolQuote
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &quotes))
	require.Len(t, quotes, 1)
	assert.Equal(t, "AAPL", quotes[0].Symbol)
	assert.Equal(t, "up", quotes[0].ChangeDirection)
}

func TestToggleFavorite(t *testing.T) {
	store := &stubStore{favorited: map[string]bool{"AAPL": false}}
	router := newTestRouter(store)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/symbols/AAPL/favorite", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var result pipeline.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Success)
	assert.Contains(t, result.Message, "added to favorites")
}

func TestToggleFavoriteUnknownSymbolFailsSoft(t *testing.T) {
	router := newTestRouter(&stubStore{favorited: map[string]bool{}})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/symbols/NOPE/favorite", nil))

	require.Equal(t, http.StatusOK, rec.Code, "mutation failures travel in the result body")

	var result pipeline.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.False(t, result.Success)
}

func TestCreateAlert(t *testing.T) {
	store := &stubStore{}
	router := newTestRouter(store)

	body := strings.NewReader(`{"symbol": "aapl", "target_price": "190", "condition": "above"}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/alerts", body))

	require.Equal(t, http.StatusOK, rec.Code)

	var result pipeline.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Success, result.Message)

	require.Len(t, store.alerts, 1)
	assert.Equal(t, "AAPL", store.alerts[0].Symbol)
}

func TestCreateAlertBadBody(t *testing.T) {
	router := newTestRouter(&stubStore{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/alerts", strings.NewReader("not json")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteAlertInvalidID(t *testing.T) {
	router := newTestRouter(&stubStore{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/alerts/abc", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
