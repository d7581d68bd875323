package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"bookie/config"
	"bookie/models"
	"bookie/service"

	"github.com/go-chi/chi/v5"
)

// Handler translates HTTP requests into core operation calls. The core only
// ever sees an opaque user handle, validated parameters and an isAdmin flag;
// all rendering concerns stay here.
type Handler struct {
	cfg        *config.Config
	ledger     service.LedgerService
	markets    service.MarketService
	settlement service.SettlementService
	stats      service.StatsService
	admin      service.AdminService
}

// NewHandler creates a new HTTP handler bound to the core services
func NewHandler(cfg *config.Config, ledger service.LedgerService, markets service.MarketService, settlement service.SettlementService, stats service.StatsService, admin service.AdminService) *Handler {
	return &Handler{
		cfg:        cfg,
		ledger:     ledger,
		markets:    markets,
		settlement: settlement,
		stats:      stats,
		admin:      admin,
	}
}

// caller extracts the authenticated user handle set by the fronting proxy
func (h *Handler) caller(r *http.Request) (string, bool) {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		return "", false
	}
	return userID, h.cfg.IsAdmin(userID)
}

func marketID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "marketID"), 10, 64)
}

// GetBalance handles GET /users/{userID}/balance
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	balance, err := h.ledger.GetBalance(r.Context(), userID)
	if err != nil {
		respondCoreError(w, err)
		return
	}
	respondOK(w, map[string]any{"user_id": userID, "balance": balance})
}

// ListBalances handles GET /balances
func (h *Handler) ListBalances(w http.ResponseWriter, r *http.Request) {
	entries, err := h.ledger.ListBalances(r.Context())
	if err != nil {
		respondCoreError(w, err)
		return
	}
	respondOK(w, renderBalances(entries))
}

type createMarketRequest struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Choice   string   `json:"choice"`
	Amount   int64    `json:"amount"`
}

// CreateMarket handles POST /markets
func (h *Handler) CreateMarket(w http.ResponseWriter, r *http.Request) {
	creator, _ := h.caller(r)
	if creator == "" {
		respondError(w, http.StatusUnauthorized, "missing_caller")
		return
	}

	var req createMarketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request_body")
		return
	}

	detail, err := h.markets.CreateMarket(r.Context(), creator, req.Question, req.Options, req.Choice, req.Amount)
	if err != nil {
		respondCoreError(w, err)
		return
	}
	respondOK(w, map[string]any{"market_id": detail.Market.ID})
}

type placeStakeRequest struct {
	Option string `json:"option"`
	Amount int64  `json:"amount"`
}

// PlaceStake handles POST /markets/{marketID}/stakes
func (h *Handler) PlaceStake(w http.ResponseWriter, r *http.Request) {
	userID, _ := h.caller(r)
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "missing_caller")
		return
	}

	id, err := marketID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_market_id")
		return
	}

	var req placeStakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request_body")
		return
	}

	stake, err := h.markets.PlaceStake(r.Context(), id, userID, req.Option, req.Amount)
	if err != nil {
		respondCoreError(w, err)
		return
	}
	respondOK(w, map[string]any{"stake_id": stake.ID})
}

// GetMarket handles GET /markets/{marketID}
func (h *Handler) GetMarket(w http.ResponseWriter, r *http.Request) {
	id, err := marketID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_market_id")
		return
	}

	detail, err := h.markets.GetMarket(r.Context(), id)
	if err != nil {
		respondCoreError(w, err)
		return
	}
	if detail == nil {
		respondError(w, http.StatusNotFound, "market_not_found")
		return
	}
	respondOK(w, renderMarketDetail(detail))
}

// ListOpenMarkets handles GET /markets
func (h *Handler) ListOpenMarkets(w http.ResponseWriter, r *http.Request) {
	details, err := h.markets.ListOpenMarkets(r.Context())
	if err != nil {
		respondCoreError(w, err)
		return
	}

	rendered := make([]any, len(details))
	for i, d := range details {
		rendered[i] = renderMarketDetail(d)
	}
	respondOK(w, rendered)
}

// ListUserStakes handles GET /users/{userID}/stakes
func (h *Handler) ListUserStakes(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	userStakes, err := h.markets.ListUserOpenStakes(r.Context(), userID)
	if err != nil {
		respondCoreError(w, err)
		return
	}
	respondOK(w, renderUserStakes(userStakes))
}

type resolveRequest struct {
	Outcome string `json:"outcome"`
}

// ResolveMarket handles POST /markets/{marketID}/resolve
func (h *Handler) ResolveMarket(w http.ResponseWriter, r *http.Request) {
	userID, isAdmin := h.caller(r)
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "missing_caller")
		return
	}

	id, err := marketID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_market_id")
		return
	}

	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request_body")
		return
	}

	result, err := h.settlement.ResolveMarket(r.Context(), id, req.Outcome, isAdmin)
	if err != nil {
		respondCoreError(w, err)
		return
	}
	respondOK(w, renderResolution(result))
}

// VoidMarket handles POST /markets/{marketID}/void
func (h *Handler) VoidMarket(w http.ResponseWriter, r *http.Request) {
	userID, isAdmin := h.caller(r)
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "missing_caller")
		return
	}

	id, err := marketID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_market_id")
		return
	}

	result, err := h.settlement.VoidMarket(r.Context(), id, isAdmin)
	if err != nil {
		respondCoreError(w, err)
		return
	}
	respondOK(w, renderVoid(result))
}

type changeBalanceRequest struct {
	UserID string `json:"user_id"`
	Action string `json:"action"`
	Amount int64  `json:"amount"`
}

// ChangeBalance handles POST /admin/balance with actions add, remove and set
func (h *Handler) ChangeBalance(w http.ResponseWriter, r *http.Request) {
	userID, isAdmin := h.caller(r)
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "missing_caller")
		return
	}

	var req changeBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request_body")
		return
	}
	if req.UserID == "" {
		respondError(w, http.StatusBadRequest, "missing_user_id")
		return
	}

	var adjustment *models.BalanceAdjustment
	var err error
	switch req.Action {
	case "add":
		adjustment, err = h.ledger.AdjustBalance(r.Context(), req.UserID, req.Amount, isAdmin)
	case "remove":
		adjustment, err = h.ledger.AdjustBalance(r.Context(), req.UserID, -req.Amount, isAdmin)
	case "set":
		adjustment, err = h.ledger.SetBalance(r.Context(), req.UserID, req.Amount, isAdmin)
	default:
		respondError(w, http.StatusBadRequest, "invalid_action")
		return
	}
	if err != nil {
		respondCoreError(w, err)
		return
	}

	respondOK(w, map[string]any{
		"user_id":     adjustment.UserID,
		"old_balance": adjustment.OldBalance,
		"new_balance": adjustment.NewBalance,
	})
}

// ResetAll handles POST /admin/reset
func (h *Handler) ResetAll(w http.ResponseWriter, r *http.Request) {
	userID, isAdmin := h.caller(r)
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "missing_caller")
		return
	}

	if err := h.admin.ResetAll(r.Context(), isAdmin); err != nil {
		respondCoreError(w, err)
		return
	}
	respondOK(w, nil)
}

// GetStats handles GET /stats
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.GetSystemStats(r.Context())
	if err != nil {
		respondCoreError(w, err)
		return
	}
	respondOK(w, map[string]any{
		"users":            stats.Users,
		"open_markets":     stats.OpenMarkets,
		"resolved_markets": stats.ResolvedMarkets,
		"voided_markets":   stats.VoidedMarkets,
		"stakes":           stats.Stakes,
		"total_staked":     stats.TotalStaked,
	})
}
