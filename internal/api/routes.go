package api

import (
	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler) *mux.Router {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()

	// Symbols and prices
	api.HandleFunc("/symbols", handler.GetSymbols).Methods("GET")
	api.HandleFunc("/symbols/{symbol}/favorite", handler.ToggleFavorite).Methods("POST")
	api.HandleFunc("/symbols/{symbol}/history", handler.GetPriceHistory).Methods("GET")
	api.HandleFunc("/symbols/{symbol}/indicators", handler.GetLatestIndicators).Methods("GET")
	api.HandleFunc("/symbols/{symbol}/indicators/{name}", handler.GetIndicatorHistory).Methods("GET")
	api.HandleFunc("/prices/fetch", handler.FetchPrices).Methods("POST")

	// Macro series
	api.HandleFunc("/macro", handler.GetMacroIndicators).Methods("GET")
	api.HandleFunc("/macro/fetch", handler.FetchMacro).Methods("POST")
	api.HandleFunc("/macro/{indicator}", handler.GetMacroSeries).Methods("GET")

	// Alerts
	api.HandleFunc("/alerts", handler.GetAlerts).Methods("GET")
	api.HandleFunc("/alerts", handler.CreateAlert).Methods("POST")
	api.HandleFunc("/alerts/{id}", handler.DeleteAlert).Methods("DELETE")

	// Positions and portfolio
	api.HandleFunc("/positions", handler.CreatePosition).Methods("POST")
	api.HandleFunc("/positions/{id}", handler.DeletePosition).Methods("DELETE")
	api.HandleFunc("/portfolio", handler.GetPortfolio).Methods("GET")

	// Watchlists
	api.HandleFunc("/watchlists", handler.ListWatchlists).Methods("GET")
	api.HandleFunc("/watchlists", handler.CreateWatchlist).Methods("POST")
	api.HandleFunc("/watchlists/{name}", handler.GetWatchlist).Methods("GET")
	api.HandleFunc("/watchlists/{name}", handler.DeleteWatchlist).Methods("DELETE")

	return r
}
