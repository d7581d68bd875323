package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"bookie/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondCoreError(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{service.ErrInvalidOptions, http.StatusBadRequest, "invalid_options"},
		{service.ErrInvalidAmount, http.StatusBadRequest, "invalid_amount"},
		{service.ErrInvalidOption, http.StatusBadRequest, "invalid_option"},
		{service.ErrInsufficientFunds, http.StatusConflict, "insufficient_funds"},
		{service.ErrMarketNotFound, http.StatusNotFound, "market_not_found"},
		{service.ErrMarketClosed, http.StatusConflict, "market_closed"},
		{service.ErrAlreadySettled, http.StatusConflict, "already_settled"},
		{service.ErrUnauthorized, http.StatusForbidden, "unauthorized"},
		{errors.New("connection refused"), http.StatusServiceUnavailable, "store_unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.wantCode, func(t *testing.T) {
			rec := httptest.NewRecorder()
			// Services return their sentinels wrapped
			respondCoreError(rec, fmt.Errorf("operation failed: %w", tt.err))

			assert.Equal(t, tt.wantStatus, rec.Code)

			var resp Response
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.False(t, resp.Success)
			assert.Equal(t, tt.wantCode, resp.Error)
		})
	}
}

func TestRespondOK(t *testing.T) {
	rec := httptest.NewRecorder()
	respondOK(rec, map[string]any{"balance": 1000})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.Empty(t, resp.Error)
}
