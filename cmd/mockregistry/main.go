// Command mockregistry serves the tax-ID registry and postal-code endpoints
// for local development. A handful of magic inputs select failure modes so
// the profile engine's error paths can be driven by hand.
package main

import (
	"crypto/sha256"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"vitrine/internal/platform/logger"
	request "vitrine/pkg/platform/middleware/request"
	strutil "vitrine/pkg/platform/strings"
)

const (
	defaultPort      = "8081"
	defaultAPIKey    = "tax-registry-secret-key"
	defaultLatencyMs = 150
)

// Magic tax IDs (digits only).
const (
	taxIDInvalid = "00000000000"
	taxIDLimited = "11111111111"
	taxIDOutage  = "99999999999"
)

// Magic postal codes.
const (
	postalNotFound = "00000000"
	postalOutage   = "99999999"
)

type verifyRequest struct {
	TaxID     string `json:"tax_id"`
	FullName  string `json:"full_name"`
	BirthDate string `json:"birth_date"`
}

type verifyResponse struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

type addressResponse struct {
	PostalCode   string `json:"postal_code"`
	Street       string `json:"street"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type server struct {
	apiKey  string
	latency time.Duration
	log     *slog.Logger
}

func main() {
	log := logger.New(getEnv("LOG_LEVEL", "info"))
	s := &server{
		apiKey:  getEnv("API_KEY", defaultAPIKey),
		latency: time.Duration(getEnvInt(log, "LATENCY_MS", defaultLatencyMs)) * time.Millisecond,
		log:     log,
	}

	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Logger(log))
	r.Get("/health", s.handleHealth)
	r.Post("/v1/tax-id/verify", s.handleVerify)
	r.Get("/v1/postal-codes/{code}", s.handlePostalCode)

	addr := ":" + getEnv("PORT", defaultPort)
	log.Info("mock registry starting", "addr", addr, "latency", s.latency)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}
	if err := srv.ListenAndServe(); err != nil {
		log.Error("mock registry stopped", "error", err)
		os.Exit(1)
	}
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "mock-registry"})
}

func (s *server) handleVerify(w http.ResponseWriter, r *http.Request) {
	time.Sleep(s.latency)

	if r.Header.Get("X-API-Key") != s.apiKey {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized", Message: "invalid API key"})
		return
	}

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid request body"})
		return
	}
	taxID := strutil.DigitsOnly(req.TaxID)
	if len(taxID) != 11 || strings.TrimSpace(req.FullName) == "" || req.BirthDate == "" {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "validation", Message: "tax_id, full_name and birth_date are required"})
		return
	}

	switch taxID {
	case taxIDLimited:
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "limit_reached", Message: "attempt limit reached, try again later"})
		return
	case taxIDOutage:
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "unavailable", Message: "registry maintenance"})
		return
	case taxIDInvalid:
		writeJSON(w, http.StatusOK, verifyResponse{Valid: false, Message: "tax ID does not match the holder"})
		return
	}

	// Deterministic verdict: names hashing to an even first byte match.
	sum := sha256.Sum256([]byte(taxID + "|" + strings.ToLower(strings.TrimSpace(req.FullName)) + "|" + req.BirthDate))
	resp := verifyResponse{Valid: sum[0]%2 == 0}
	if !resp.Valid {
		resp.Message = "holder data does not match registry"
	}
	s.log.InfoContext(r.Context(), "tax id verified",
		"valid", resp.Valid,
		"request_id", request.GetRequestID(r.Context()),
	)
	writeJSON(w, http.StatusOK, resp)
}

var (
	streets       = []string{"Rua das Flores", "Avenida Paulista", "Rua Augusta", "Rua XV de Novembro", "Avenida Brasil"}
	neighborhoods = []string{"Centro", "Jardins", "Bela Vista", "Consolação", "Vila Mariana"}
	cities        = []struct{ name, state string }{
		{"São Paulo", "SP"}, {"Rio de Janeiro", "RJ"}, {"Curitiba", "PR"}, {"Belo Horizonte", "MG"}, {"Porto Alegre", "RS"},
	}
)

func (s *server) handlePostalCode(w http.ResponseWriter, r *http.Request) {
	time.Sleep(s.latency)

	code := strutil.DigitsOnly(chi.URLParam(r, "code"))
	if len(code) != 8 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "postal code must have 8 digits"})
		return
	}
	switch code {
	case postalNotFound:
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not_found", Message: "postal code not found"})
		return
	case postalOutage:
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "unavailable", Message: "postal service unavailable"})
		return
	}

	sum := sha256.Sum256([]byte(code))
	city := cities[int(sum[2])%len(cities)]
	writeJSON(w, http.StatusOK, addressResponse{
		PostalCode:   code,
		Street:       streets[int(sum[0])%len(streets)],
		Neighborhood: neighborhoods[int(sum[1])%len(neighborhoods)],
		City:         city.name,
		State:        city.state,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(log *slog.Logger, key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Warn("invalid integer value, using default", "key", key, "default", defaultValue)
		return defaultValue
	}
	return n
}
