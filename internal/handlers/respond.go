package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/sixnames/next-marketplace-sub004/internal/platform/httpx"
	"github.com/sixnames/next-marketplace-sub004/internal/platform/requestctx"
	"github.com/sixnames/next-marketplace-sub004/internal/services"
)

const maxBodySize = 256 * 1024

var errBodyTooLarge = errors.New("request body too large")

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func decodeBody(r *http.Request, target any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		return err
	}
	if len(body) > maxBodySize {
		return errBodyTooLarge
	}
	return json.Unmarshal(body, target)
}

// writeServiceError maps service sentinels onto HTTP error envelopes.
// Unclassified errors surface as 500 and are logged with the request logger.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrSummaryNotFound),
		errors.Is(err, services.ErrCatalogProductNotFound),
		errors.Is(err, services.ErrModerationTaskNotFound),
		errors.Is(err, services.ErrModerationProductNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("not_found", "resource not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCatalogBarcodeCollision):
		httpx.WriteError(ctx, w, httpx.NewError("barcode_collision", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrSummaryInvalidInput),
		errors.Is(err, services.ErrCatalogInvalidInput),
		errors.Is(err, services.ErrBarcodeInvalidInput),
		errors.Is(err, services.ErrModerationInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	default:
		requestctx.Logger(ctx).Error("request failed", zap.Error(err))
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "internal server error", http.StatusInternalServerError))
	}
}
