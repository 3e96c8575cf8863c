package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/finsight/finance-pipeline/internal/models"
	"github.com/finsight/finance-pipeline/internal/pipeline"
	"github.com/finsight/finance-pipeline/internal/scheduler"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	service   *pipeline.Service
	scheduler *scheduler.Scheduler
	log       *logrus.Entry
}

// NewHandler creates a new Handler. sched may be nil when the periodic
// refresh is disabled.
func NewHandler(service *pipeline.Service, sched *scheduler.Scheduler, log *logrus.Logger) *Handler {
	return &Handler{
		service:   service,
		scheduler: sched,
		log:       log.WithField("component", "api"),
	}
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{"status": "healthy"}
	if h.scheduler != nil {
		lastChecked, symbols := h.scheduler.Status()
		if !lastChecked.IsZero() {
			body["last_refresh"] = lastChecked
			body["last_refresh_symbols"] = symbols
		}
	}
	respondJSON(w, http.StatusOK, body)
}

// GetSymbols handles GET /symbols
func (h *Handler) GetSymbols(w http.ResponseWriter, r *http.Request) {
	quotes, err := h.service.GetSymbols()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, quotes)
}

// ToggleFavorite handles POST /symbols/{symbol}/favorite
func (h *Handler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	respondResult(w, h.service.ToggleFavorite(mux.Vars(r)["symbol"]))
}

// GetPriceHistory handles GET /symbols/{symbol}/history
func (h *Handler) GetPriceHistory(w http.ResponseWriter, r *http.Request) {
	bars, err := h.service.GetPriceHistory(mux.Vars(r)["symbol"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, bars)
}

// GetLatestIndicators handles GET /symbols/{symbol}/indicators
func (h *Handler) GetLatestIndicators(w http.ResponseWriter, r *http.Request) {
	indicators, err := h.service.GetLatestIndicators(mux.Vars(r)["symbol"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, indicators)
}

// GetIndicatorHistory handles GET /symbols/{symbol}/indicators/{name}
func (h *Handler) GetIndicatorHistory(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	history, err := h.service.GetIndicatorHistory(vars["symbol"], vars["name"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, history)
}

// FetchPrices handles POST /prices/fetch
func (h *Handler) FetchPrices(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Symbols []string `json:"symbols"`
		Full    bool     `json:"full"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	respondResult(w, h.service.FetchPrices(r.Context(), req.Symbols, req.Full))
}

// GetMacroIndicators handles GET /macro
func (h *Handler) GetMacroIndicators(w http.ResponseWriter, r *http.Request) {
	indicators, err := h.service.GetMacroIndicators()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, indicators)
}

// FetchMacro handles POST /macro/fetch
func (h *Handler) FetchMacro(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Indicators []string `json:"indicators"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	respondResult(w, h.service.FetchMacro(r.Context(), req.Indicators))
}

// GetMacroSeries handles GET /macro/{indicator}
func (h *Handler) GetMacroSeries(w http.ResponseWriter, r *http.Request) {
	series, err := h.service.GetMacroSeries(mux.Vars(r)["indicator"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, series)
}

// GetAlerts handles GET /alerts?active=true
func (h *Handler) GetAlerts(w http.ResponseWriter, r *http.Request) {
	onlyActive := r.URL.Query().Get("active") == "true"
	alerts, err := h.service.GetAlerts(onlyActive)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, alerts)
}

// CreateAlert handles POST /alerts
func (h *Handler) CreateAlert(w http.ResponseWriter, r *http.Request) {
	var alert models.Alert
	if err := json.NewDecoder(r.Body).Decode(&alert); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	respondResult(w, h.service.CreateAlert(&alert))
}

// DeleteAlert handles DELETE /alerts/{id}
func (h *Handler) DeleteAlert(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "invalid alert id", http.StatusBadRequest)
		return
	}
	respondResult(w, h.service.DeleteAlert(id))
}

// CreatePosition handles POST /positions
func (h *Handler) CreatePosition(w http.ResponseWriter, r *http.Request) {
	var position models.Position
	if err := json.NewDecoder(r.Body).Decode(&position); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	respondResult(w, h.service.CreatePosition(&position))
}

// DeletePosition handles DELETE /positions/{id}
func (h *Handler) DeletePosition(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "invalid position id", http.StatusBadRequest)
		return
	}
	respondResult(w, h.service.DeletePosition(id))
}

// GetPortfolio handles GET /portfolio
func (h *Handler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.GetPortfolio(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// ListWatchlists handles GET /watchlists
func (h *Handler) ListWatchlists(w http.ResponseWriter, r *http.Request) {
	watchlists, err := h.service.ListWatchlists()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, watchlists)
}

// CreateWatchlist handles POST /watchlists
func (h *Handler) CreateWatchlist(w http.ResponseWriter, r *http.Request) {
	var watchlist models.Watchlist
	if err := json.NewDecoder(r.Body).Decode(&watchlist); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	respondResult(w, h.service.CreateWatchlist(&watchlist))
}

// GetWatchlist handles GET /watchlists/{name}
func (h *Handler) GetWatchlist(w http.ResponseWriter, r *http.Request) {
	watchlist, err := h.service.GetWatchlist(mux.Vars(r)["name"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, watchlist)
}

// DeleteWatchlist handles DELETE /watchlists/{name}
func (h *Handler) DeleteWatchlist(w http.ResponseWriter, r *http.Request) {
	respondResult(w, h.service.DeleteWatchlist(mux.Vars(r)["name"]))
}

// respondResult writes a mutation outcome. The status is 200 either way;
// clients branch on the success flag, mirroring the command surface.
func respondResult(w http.ResponseWriter, result pipeline.Result) {
	respondJSON(w, http.StatusOK, result)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
