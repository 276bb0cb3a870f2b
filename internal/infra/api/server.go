package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"telegram-vpn-subscription/internal/infra/logging"
	"telegram-vpn-subscription/internal/infra/metrics"
	"telegram-vpn-subscription/internal/usecase"
)

// Limiter throttles redemption attempts per key.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// KeyFunc names the limiter bucket of a user.
type KeyFunc func(userID int64) string

// Server exposes the discount core over HTTP.
type Server struct {
	promoUC    usecase.PromoUseCase
	discountUC usecase.DiscountUseCase
	tariffUC   usecase.TariffUseCase
	adminUC    usecase.PromoAdminUseCase

	limiter  Limiter
	limitKey KeyFunc
	auth     *AuthManager
	timeout  time.Duration
	log      *zerolog.Logger
}

type Options struct {
	// Limiter is optional. Limiter errors let the request through.
	Limiter  Limiter
	LimitKey KeyFunc
	Auth     *AuthManager
	Timeout  time.Duration
}

func NewServer(
	promoUC usecase.PromoUseCase,
	discountUC usecase.DiscountUseCase,
	tariffUC usecase.TariffUseCase,
	adminUC usecase.PromoAdminUseCase,
	opts Options,
	logger *zerolog.Logger,
) *Server {
	if logger == nil {
		logger = logging.Nop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Auth == nil {
		opts.Auth = NewAuthManager("", time.Minute)
	}
	return &Server{
		promoUC:    promoUC,
		discountUC: discountUC,
		tariffUC:   tariffUC,
		adminUC:    adminUC,
		limiter:    opts.Limiter,
		limitKey:   opts.LimitKey,
		auth:       opts.Auth,
		timeout:    opts.Timeout,
		log:        logger,
	}
}

// Router builds the full route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID(), RequestLog(s.log), Recover(s.log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(Timeout(s.timeout))

		r.Post("/users/{userID}/promocode", s.handleRedeem)
		r.Get("/users/{userID}/promo-percent", s.handlePromoPercent)
		r.Get("/users/{userID}/tariffs", s.handleTariffs)
		r.Get("/discounts/effective", s.handleEffective)

		r.Route("/admin/promocodes", func(r chi.Router) {
			r.Use(s.auth.RequireAdmin)
			r.Post("/", s.handleAdminCreate)
			r.Get("/", s.handleAdminList)
			r.Get("/{code}", s.handleAdminGet)
			r.Put("/{code}/active", s.handleAdminSetActive)
		})
	})
	return r
}

// allow consults the limiter and fails open.
func (s *Server) allow(r *http.Request, userID int64) bool {
	if s.limiter == nil || s.limitKey == nil {
		return true
	}
	ok, err := s.limiter.Allow(r.Context(), s.limitKey(userID))
	if err != nil {
		l := logging.With(r.Context(), s.log)
		l.Warn().Err(err).Msg("rate limiter unavailable")
		return true
	}
	return ok
}
