package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"telegram-vpn-subscription/internal/domain"
	"telegram-vpn-subscription/internal/domain/model"
	"telegram-vpn-subscription/internal/infra/logging"
	"telegram-vpn-subscription/internal/usecase"
)

type redeemRequest struct {
	Code string `json:"code"`
}

type redeemResponse struct {
	OK              bool   `json:"ok"`
	DiscountPercent int    `json:"discount_percent"`
	Reason          string `json:"reason"`
}

type percentResponse struct {
	Percent int `json:"percent"`
}

type tariffItem struct {
	Months          int             `json:"months"`
	Devices         int             `json:"devices"`
	DiscountPercent int             `json:"discount_percent"`
	Price           decimal.Decimal `json:"price"`
}

type promoCreateRequest struct {
	Code            string     `json:"code"`
	DiscountPercent int        `json:"discount_percent"`
	ExpiresAt       *time.Time `json:"expires_at"`
	MaxUses         *int       `json:"max_uses"`
}

type promoActiveRequest struct {
	Active *bool `json:"active"`
}

type promoResponse struct {
	Code            string     `json:"code"`
	DiscountPercent int        `json:"discount_percent"`
	Active          bool       `json:"active"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	MaxUses         *int       `json:"max_uses,omitempty"`
	UsedCount       int        `json:"used_count"`
	RemainingUses   *int       `json:"remaining_uses,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func toPromoResponse(p *model.PromoCode) promoResponse {
	return promoResponse{
		Code:            p.Code,
		DiscountPercent: p.DiscountPercent,
		Active:          p.Active,
		ExpiresAt:       p.ExpiresAt,
		MaxUses:         p.MaxUses,
		UsedCount:       p.UsedCount,
		RemainingUses:   remainingUses(p),
		CreatedAt:       p.CreatedAt,
	}
}

// remainingUses is nil for unlimited codes.
func remainingUses(p *model.PromoCode) *int {
	n := p.RemainingUses()
	if n < 0 {
		return nil
	}
	return &n
}

func (s *Server) handleRedeem(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	var req redeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !s.allow(r, userID) {
		writeError(w, http.StatusTooManyRequests, "too many attempts")
		return
	}

	ctx := logging.WithUserID(r.Context(), userID)
	res, err := s.promoUC.Redeem(ctx, userID, req.Code)
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		// The redemption may or may not have been applied; the caller should re-check.
		writeError(w, http.StatusServiceUnavailable, "redemption outcome unknown")
		return
	}
	writeJSON(w, http.StatusOK, redeemResponse{
		OK:              res.OK,
		DiscountPercent: res.DiscountPercent,
		Reason:          string(res.Reason),
	})
}

func (s *Server) handlePromoPercent(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	pct, err := s.discountUC.CurrentPromoPercent(r.Context(), userID)
	if err != nil {
		l := logging.With(r.Context(), s.log)
		l.Error().Err(err).Int64("user_id", userID).Msg("resolve promo percent")
		writeError(w, http.StatusServiceUnavailable, "failed to resolve promo")
		return
	}
	writeJSON(w, http.StatusOK, percentResponse{Percent: pct})
}

func (s *Server) handleEffective(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	months, err := strconv.Atoi(q.Get("months"))
	if err != nil || months <= 0 {
		writeError(w, http.StatusBadRequest, "months must be a positive integer")
		return
	}
	promo := 0
	if v := q.Get("promo"); v != "" {
		promo, err = strconv.Atoi(v)
		if err != nil || promo < 0 || promo > 100 {
			writeError(w, http.StatusBadRequest, "promo must be within 0..100")
			return
		}
	}
	writeJSON(w, http.StatusOK, percentResponse{Percent: s.discountUC.EffectiveDiscount(months, promo)})
}

func (s *Server) handleTariffs(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	filter := usecase.TariffFilter{OneDevice: true, TwoDevices: true}
	if q.Has("one_device") || q.Has("two_devices") {
		var err1, err2 error
		filter.OneDevice, err1 = parseFlag(q.Get("one_device"))
		filter.TwoDevices, err2 = parseFlag(q.Get("two_devices"))
		if err1 != nil || err2 != nil {
			writeError(w, http.StatusBadRequest, "device flags must be booleans")
			return
		}
	}

	opts, err := s.tariffUC.Quote(r.Context(), userID, filter)
	if err != nil {
		l := logging.With(r.Context(), s.log)
		l.Error().Err(err).Int64("user_id", userID).Msg("quote tariffs")
		writeError(w, http.StatusServiceUnavailable, "failed to quote tariffs")
		return
	}
	items := make([]tariffItem, 0, len(opts))
	for _, o := range opts {
		items = append(items, tariffItem{
			Months:          o.Months,
			Devices:         o.Devices,
			DiscountPercent: o.DiscountPercent,
			Price:           o.Price,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleAdminCreate(w http.ResponseWriter, r *http.Request) {
	var req promoCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p, err := s.adminUC.Create(r.Context(), usecase.PromoCodeInput{
		Code:            req.Code,
		DiscountPercent: req.DiscountPercent,
		ExpiresAt:       req.ExpiresAt,
		MaxUses:         req.MaxUses,
	})
	if err != nil {
		s.writeAdminError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPromoResponse(p))
}

func (s *Server) handleAdminList(w http.ResponseWriter, r *http.Request) {
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if offset < 0 {
		offset = 0
	}
	list, err := s.adminUC.List(r.Context(), offset, limit)
	if err != nil {
		s.writeAdminError(w, r, err)
		return
	}
	data := make([]promoResponse, 0, len(list))
	for _, p := range list {
		data = append(data, toPromoResponse(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": data, "offset": offset})
}

func (s *Server) handleAdminGet(w http.ResponseWriter, r *http.Request) {
	p, err := s.adminUC.Get(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		s.writeAdminError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPromoResponse(p))
}

func (s *Server) handleAdminSetActive(w http.ResponseWriter, r *http.Request) {
	var req promoActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Active == nil {
		writeError(w, http.StatusBadRequest, "active flag is required")
		return
	}
	p, err := s.adminUC.SetActive(r.Context(), chi.URLParam(r, "code"), *req.Active)
	if err != nil {
		s.writeAdminError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPromoResponse(p))
}

func (s *Server) writeAdminError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "promo code not found")
	case errors.Is(err, domain.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "promo code already exists")
	default:
		l := logging.With(r.Context(), s.log)
		l.Error().Err(err).Msg("admin promo request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func userIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return 0, false
	}
	return id, true
}

func parseFlag(v string) (bool, error) {
	if v == "" {
		return false, nil
	}
	return strconv.ParseBool(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
