package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/digkill/PresetStore/internal/models"
	"github.com/digkill/PresetStore/internal/service"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

type profileResponse struct {
	User         *models.User        `json:"user"`
	LastPurchase *models.Transaction `json:"last_purchase,omitempty"`
}

type topUpRequest struct {
	Amount int64                `json:"amount"`
	Method models.PaymentMethod `json:"method"`
}

type topUpOptionsResponse struct {
	Amounts []int64                `json:"amounts"`
	Methods []models.PaymentMethod `json:"methods"`
}

type purchaseRequest struct {
	PlanID      string             `json:"plan_id"`
	AccountType models.AccountType `json:"account_type"`
}

type pendingResponse struct {
	Count    int                  `json:"count"`
	Requests []models.Transaction `json:"requests"`
}

type resetRequest struct {
	Confirm bool `json:"confirm"`
}

type chatRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := s.catalog.ListPlans(r.Context())
	if err != nil {
		s.internalError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, plans)
}

func (s *Server) handleAnnouncement(w http.ResponseWriter, r *http.Request) {
	announcement, err := s.catalog.Announcement(r.Context())
	if err != nil {
		s.internalError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, announcement)
}

func (s *Server) handleStockCount(w http.ResponseWriter, r *http.Request) {
	count, err := s.stock.Count(r.Context())
	if err != nil {
		s.internalError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

func (s *Server) handleTopUpOptions(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, topUpOptionsResponse{Amounts: s.topUps.Amounts(), Methods: models.PaymentMethods})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		s.badRequest(w, "invalid json")
		return
	}
	session, err := s.identity.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, newSessionResponse(session))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		s.badRequest(w, "invalid json")
		return
	}
	session, err := s.identity.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newSessionResponse(session))
}

func (s *Server) handleSupportChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		s.badRequest(w, "invalid json")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		s.badRequest(w, "message required")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"reply": s.support.Reply(r.Context(), req.Message)})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.identity.Logout(sessionFrom(r).Token)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	user, err := s.identity.Profile(r.Context(), session)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, profileResponse{User: user, LastPurchase: session.LastPurchase})
}

func (s *Server) handleDismissPurchase(w http.ResponseWriter, r *http.Request) {
	s.purchase.DismissLastPurchase(sessionFrom(r))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRequestTopUp(w http.ResponseWriter, r *http.Request) {
	var req topUpRequest
	if err := decodeJSON(r, &req); err != nil {
		s.badRequest(w, "invalid json")
		return
	}
	req.Method = models.PaymentMethod(strings.ToUpper(strings.TrimSpace(string(req.Method))))
	trx, err := s.topUps.Request(r.Context(), sessionFrom(r), req.Amount, req.Method)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, trx)
}

func (s *Server) handlePurchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := decodeJSON(r, &req); err != nil {
		s.badRequest(w, "invalid json")
		return
	}
	req.AccountType = models.AccountType(strings.ToUpper(strings.TrimSpace(string(req.AccountType))))
	trx, err := s.purchase.Purchase(r.Context(), sessionFrom(r), req.PlanID, req.AccountType)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, trx)
}

func (s *Server) handlePendingTopUps(w http.ResponseWriter, r *http.Request) {
	pending, err := s.topUps.Pending(r.Context())
	if err != nil {
		s.internalError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, pendingResponse{Count: len(pending), Requests: pending})
}

func (s *Server) handleApproveTopUp(w http.ResponseWriter, r *http.Request) {
	res, err := s.topUps.Approve(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleRejectTopUp(w http.ResponseWriter, r *http.Request) {
	res, err := s.topUps.Reject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleUpdatePlan(w http.ResponseWriter, r *http.Request) {
	var plan models.Plan
	if err := decodeJSON(r, &plan); err != nil {
		s.badRequest(w, "invalid json")
		return
	}
	plan.ID = chi.URLParam(r, "id")
	if err := s.catalog.UpdatePlan(r.Context(), plan); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleUpdateAnnouncement(w http.ResponseWriter, r *http.Request) {
	var announcement models.Announcement
	if err := decodeJSON(r, &announcement); err != nil {
		s.badRequest(w, "invalid json")
		return
	}
	if err := s.catalog.UpdateAnnouncement(r.Context(), announcement); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, announcement)
}

func (s *Server) handleListStock(w http.ResponseWriter, r *http.Request) {
	items, err := s.stock.List(r.Context())
	if err != nil {
		s.internalError(w, err)
		return
	}
	if items == nil {
		items = []models.StockItem{}
	}
	s.writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleResetStock(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := decodeJSON(r, &req); err != nil {
		s.badRequest(w, "invalid json")
		return
	}
	items, err := s.stock.Reset(r.Context(), req.Confirm)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int{"count": len(items)})
}

func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	ledger, err := s.purchase.DeveloperLedger(r.Context())
	if err != nil {
		s.internalError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ledger)
}

func (s *Server) handleExportLedger(w http.ResponseWriter, r *http.Request) {
	url, err := s.reports.ExportLedger(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func newSessionResponse(session *service.Session) sessionResponse {
	return sessionResponse{Token: session.Token, ExpiresAt: session.ExpiresAt, User: session.User}
}
