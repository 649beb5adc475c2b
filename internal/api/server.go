package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/digkill/PresetStore/internal/service"
)

const maxBodyBytes = 1 << 20

// SupportResponder answers customer support questions. It must not fail.
type SupportResponder interface {
	Reply(ctx context.Context, text string) string
}

type Services struct {
	Identity  *service.IdentityService
	TopUps    *service.TopUpService
	Catalog   *service.CatalogService
	Stock     *service.StockService
	Purchases *service.PurchaseService
	Reports   *service.ReportService
	Support   SupportResponder
}

// Server exposes the storefront and the admin console over JSON.
type Server struct {
	addr     string
	log      *slog.Logger
	identity *service.IdentityService
	topUps   *service.TopUpService
	catalog  *service.CatalogService
	stock    *service.StockService
	purchase *service.PurchaseService
	reports  *service.ReportService
	support  SupportResponder
	router   *chi.Mux
}

func NewServer(addr string, log *slog.Logger, svc Services) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestSize(maxBodyBytes))

	s := &Server{
		addr:     addr,
		log:      log,
		identity: svc.Identity,
		topUps:   svc.TopUps,
		catalog:  svc.Catalog,
		stock:    svc.Stock,
		purchase: svc.Purchases,
		reports:  svc.Reports,
		support:  svc.Support,
		router:   r,
	}

	r.Get("/healthz", s.handleHealth)
	r.Get("/plans", s.handleListPlans)
	r.Get("/announcement", s.handleAnnouncement)
	r.Get("/stock", s.handleStockCount)
	r.Get("/topup-options", s.handleTopUpOptions)
	r.Post("/auth/register", s.handleRegister)
	r.Post("/auth/login", s.handleLogin)
	r.Post("/support/chat", s.handleSupportChat)

	r.Group(func(authed chi.Router) {
		authed.Use(s.sessionMiddleware)
		authed.Post("/auth/logout", s.handleLogout)
		authed.Get("/me", s.handleMe)
		authed.Delete("/me/last-purchase", s.handleDismissPurchase)
		authed.Post("/topups", s.handleRequestTopUp)
		authed.Post("/purchases", s.handlePurchase)

		authed.Route("/admin", func(admin chi.Router) {
			admin.Use(s.adminMiddleware)
			admin.Get("/topups", s.handlePendingTopUps)
			admin.Post("/topups/{id}/approve", s.handleApproveTopUp)
			admin.Post("/topups/{id}/reject", s.handleRejectTopUp)
			admin.Put("/plans/{id}", s.handleUpdatePlan)
			admin.Put("/announcement", s.handleUpdateAnnouncement)
			admin.Get("/stock", s.handleListStock)
			admin.Post("/stock/reset", s.handleResetStock)
			admin.Get("/ledger", s.handleLedger)
			admin.Post("/ledger/export", s.handleExportLedger)
		})
	})
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Error("http shutdown error", "err", err)
		}
	}()

	s.log.Info("storefront listening", "addr", s.addr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http listen: %w", err)
	}
	return nil
}
