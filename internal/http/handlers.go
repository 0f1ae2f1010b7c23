package http

import (
	"net/http"
	"time"

	"github.com/Josehuhu/financeiro/internal/auth"
	"github.com/Josehuhu/financeiro/internal/core"
	"github.com/Josehuhu/financeiro/internal/ledger"
)

// handleHealth performs a basic liveness check.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).String(),
	})
}

// handleReady verifies the storage dependency before reporting ready.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.svc.ListTransactions(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "storage not reachable", nil)
		return
	}
	writeData(w, http.StatusOK, map[string]any{
		"status":    "ready",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txns, err := s.svc.ListTransactions(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, txns)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var draft core.TransactionDraft
	if err := decodeBody(w, r, &draft); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	txn, insts, err := s.svc.CreateTransaction(r.Context(), auth.FromRequest(r), draft)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	s.invalidateCaches()
	writeData(w, http.StatusCreated, map[string]any{
		"transaction":  txn,
		"installments": insts,
	})
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var draft core.TransactionDraft
	if err := decodeBody(w, r, &draft); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	txn, insts, err := s.svc.UpdateTransaction(r.Context(), auth.FromRequest(r), r.PathValue("id"), draft)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	s.invalidateCaches()
	writeData(w, http.StatusOK, map[string]any{
		"transaction":  txn,
		"installments": insts,
	})
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.svc.DeleteTransaction(r.Context(), auth.FromRequest(r), id); err != nil {
		writeServiceError(w, r, err)
		return
	}

	s.invalidateCaches()
	writeData(w, http.StatusOK, map[string]string{"id": id})
}

func (s *Server) handleListInstallments(w http.ResponseWriter, r *http.Request) {
	const cacheKey = "installments"
	if insts, ok := s.installmentsCache.Get(cacheKey); ok {
		writeData(w, http.StatusOK, insts)
		return
	}

	insts, err := s.svc.ListInstallments(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	s.installmentsCache.Set(cacheKey, insts)
	writeData(w, http.StatusOK, insts)
}

// payRequest is the optional body of the pay endpoint. An absent or zero
// paidDate means "paid today".
type payRequest struct {
	PaidDate core.Date `json:"paidDate,omitempty"`
}

func (s *Server) handlePayInstallment(w http.ResponseWriter, r *http.Request) {
	var req payRequest
	if r.ContentLength > 0 {
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body", nil)
			return
		}
	}

	paid, next, err := s.svc.PayInstallment(r.Context(), auth.FromRequest(r), r.PathValue("id"), req.PaidDate)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	s.invalidateCaches()
	writeData(w, http.StatusOK, map[string]any{
		"paid": paid,
		"next": next,
	})
}

func (s *Server) handleUpdateInstallment(w http.ResponseWriter, r *http.Request) {
	var patch ledger.InstallmentPatch
	if err := decodeBody(w, r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	inst, err := s.svc.UpdateInstallment(r.Context(), auth.FromRequest(r), r.PathValue("id"), patch)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	s.invalidateCaches()
	writeData(w, http.StatusOK, inst)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	const cacheKey = "summary"
	if summary, ok := s.summaryCache.Get(cacheKey); ok {
		writeData(w, http.StatusOK, summary)
		return
	}

	summary, err := s.svc.Summary(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	s.summaryCache.Set(cacheKey, summary)
	writeData(w, http.StatusOK, summary)
}
