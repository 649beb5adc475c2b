package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/digkill/PresetStore/internal/models"
	"github.com/digkill/PresetStore/internal/service"
)

type sessionKey struct{}

func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			s.writeError(w, service.ErrAuthRequired)
			return
		}
		session, err := s.identity.Session(token)
		if err != nil {
			s.writeError(w, service.ErrAuthRequired)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, session)))
	})
}

func (s *Server) adminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !sessionFrom(r).IsAdmin() {
			s.writeError(w, service.ErrAdminOnly)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func sessionFrom(r *http.Request) *service.Session {
	session, _ := r.Context().Value(sessionKey{}).(*service.Session)
	return session
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

type errorResponse struct {
	Error     string `json:"error"`
	Price     int64  `json:"price,omitempty"`
	Balance   int64  `json:"balance,omitempty"`
	Shortfall int64  `json:"shortfall,omitempty"`
}

// writeError maps service errors to HTTP statuses. Anything unrecognised is logged and
// hidden behind a generic message.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var shortfall *service.InsufficientBalanceError
	if errors.As(err, &shortfall) {
		s.writeJSON(w, http.StatusPaymentRequired, errorResponse{
			Error:     "insufficient balance",
			Price:     shortfall.Price,
			Balance:   shortfall.Balance,
			Shortfall: shortfall.Shortfall,
		})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrDuplicateUsername),
		errors.Is(err, service.ErrReservedIdentity),
		errors.Is(err, service.ErrWeakPassword),
		errors.Is(err, service.ErrInvalidUsername),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidMethod),
		errors.Is(err, service.ErrInvalidAccountType),
		errors.Is(err, service.ErrInvalidPlan),
		errors.Is(err, service.ErrConfirmationRequired),
		errors.Is(err, models.ErrNoPrice),
		errors.Is(err, models.ErrOfferUnavailable):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrWrongPassword),
		errors.Is(err, service.ErrAdminAuthDenied),
		errors.Is(err, service.ErrAuthRequired),
		errors.Is(err, service.ErrSessionNotFound):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrAdminOnly),
		errors.Is(err, service.ErrAdminPurchase),
		errors.Is(err, service.ErrAdminNotSpendable):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrPlanNotFound),
		errors.Is(err, service.ErrTopUpNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrOutOfStock),
		errors.Is(err, service.ErrTopUpResolved):
		status = http.StatusConflict
	case errors.Is(err, service.ErrExportDisabled):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		s.internalError(w, err)
		return
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) badRequest(w http.ResponseWriter, msg string) {
	s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	s.log.Error("http handler error", "err", err)
	s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
