// Package server exposes the guest-facing payment endpoints and the
// back-office currency settings endpoints as JSON over HTTP.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"hotel-payment-service/internal/cache"
	"hotel-payment-service/internal/currency"
	"hotel-payment-service/internal/db"
	"hotel-payment-service/internal/gateway"
	"hotel-payment-service/internal/model"
	"hotel-payment-service/internal/payment"
)

const gatewayNotConfiguredMsg = "payment gateway is not configured"

// Handler holds the dependencies for all HTTP handlers. Payments is nil when
// the gateway credentials are unset; the payment endpoints then answer with a
// configuration error instead of crashing.
type Handler struct {
	payments  *payment.Service
	converter *currency.Converter
	settings  *db.SettingsRepository
	cache     *cache.SettingsCache
	logger    *slog.Logger
}

func NewHandler(payments *payment.Service, converter *currency.Converter, settings *db.SettingsRepository, settingsCache *cache.SettingsCache, logger *slog.Logger) *Handler {
	return &Handler{
		payments:  payments,
		converter: converter,
		settings:  settings,
		cache:     settingsCache,
		logger:    logger,
	}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/payments/token", h.createToken)
	mux.HandleFunc("POST /api/payments/verify", h.verifyToken)
	mux.HandleFunc("GET /api/settings/currency", h.getCurrencySettings)
	mux.HandleFunc("PUT /api/settings/currency", h.putCurrencySettings)
	mux.HandleFunc("GET /api/currency/convert", h.convert)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (h *Handler) createToken(w http.ResponseWriter, r *http.Request) {
	if h.payments == nil {
		writeJSON(w, http.StatusInternalServerError, model.TokenResponse{Success: false, Error: gatewayNotConfiguredMsg})
		return
	}

	var req model.TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, model.TokenResponse{Success: false, Error: "invalid JSON body"})
		return
	}

	result, err := h.payments.CreateToken(r.Context(), req)
	if err != nil {
		var validation *payment.ValidationError
		if errors.As(err, &validation) {
			writeJSON(w, http.StatusBadRequest, model.TokenResponse{Success: false, Error: validation.Reason})
			return
		}

		// Gateway-level failures carry their classification in the message;
		// the envelope stays the same so the checkout flow reads one shape.
		writeJSON(w, gatewayFailureStatus(err), model.TokenResponse{Success: false, Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, model.TokenResponse{
		Success:    true,
		TransToken: result.TransToken,
		TransRef:   result.TransRef,
		PaymentURL: result.PaymentURL,
	})
}

// gatewayFailureStatus maps the gateway error taxonomy to HTTP statuses.
// Business rejections and blocks are 200 with success=false, infrastructure
// failures are 502.
func gatewayFailureStatus(err error) int {
	var rejected *gateway.RejectedError
	var blocked *gateway.BlockedError
	if errors.As(err, &rejected) || errors.As(err, &blocked) {
		return http.StatusOK
	}
	return http.StatusBadGateway
}

func (h *Handler) verifyToken(w http.ResponseWriter, r *http.Request) {
	if h.payments == nil {
		writeError(w, http.StatusInternalServerError, gatewayNotConfiguredMsg)
		return
	}

	var req model.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Token == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}

	result, err := h.payments.VerifyToken(r.Context(), req.Token)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) getCurrencySettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.loadSettings(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load currency settings")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (h *Handler) putCurrencySettings(w http.ResponseWriter, r *http.Request) {
	var req model.CurrencySettings
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.BaseCurrency == "" {
		req.BaseCurrency = currency.DefaultBase
	}
	for code, rate := range req.ExchangeRates {
		if rate < 0 {
			writeError(w, http.StatusBadRequest, "negative rate for "+code)
			return
		}
	}
	if req.ExchangeRates == nil {
		req.ExchangeRates = map[string]float64{}
	}

	entity := &db.CurrencySettingsEntity{
		BaseCurrency:  req.BaseCurrency,
		ExchangeRates: req.ExchangeRates,
	}
	if err := h.settings.Upsert(r.Context(), entity); err != nil {
		h.logger.ErrorContext(r.Context(), "Error saving currency settings", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save currency settings")
		return
	}

	h.cache.Invalidate(r.Context())

	writeJSON(w, http.StatusOK, req)
}

func (h *Handler) convert(w http.ResponseWriter, r *http.Request) {
	amountParam := r.URL.Query().Get("amount")
	target := r.URL.Query().Get("currency")
	if amountParam == "" || target == "" {
		writeError(w, http.StatusBadRequest, "amount and currency are required")
		return
	}

	amount, err := strconv.ParseFloat(amountParam, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount")
		return
	}

	settings, err := h.loadSettings(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load currency settings")
		return
	}

	rates := currency.RateSet{Base: settings.BaseCurrency, Rates: settings.ExchangeRates}

	value, convErr := h.converter.Convert(amount, target, rates)
	formatted, _ := h.converter.Format(amount, target, rates)
	if convErr != nil {
		// Conversion degraded to a defined fallback; worth a warning but
		// never an error to the caller.
		h.logger.WarnContext(r.Context(), "Currency conversion incomplete", "error", convErr)
	}

	writeJSON(w, http.StatusOK, model.ConvertResponse{
		Amount:    value,
		Currency:  target,
		Formatted: formatted,
	})
}

// loadSettings reads the settings document through the cache; a missing row
// yields the defaults (no conversion configured yet).
func (h *Handler) loadSettings(r *http.Request) (*model.CurrencySettings, error) {
	entity, err := h.cache.Get(r.Context())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &model.CurrencySettings{
				BaseCurrency:  currency.DefaultBase,
				ExchangeRates: map[string]float64{},
			}, nil
		}
		h.logger.ErrorContext(r.Context(), "Error loading currency settings", "error", err)
		return nil, err
	}

	return &model.CurrencySettings{
		BaseCurrency:  entity.BaseCurrency,
		ExchangeRates: entity.ExchangeRates,
	}, nil
}
