package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"freelanceflow/internal/core"
	"freelanceflow/internal/services"
)

type transactionRequest struct {
	Type   core.TransactionType `json:"type"`
	Amount flexNumber           `json:"amount"`
	Source string               `json:"source"`
	Date   string               `json:"date"`
	Tags   []string             `json:"tags"`
	Notes  string               `json:"notes"`
}

func (req transactionRequest) input() (services.TransactionInput, error) {
	amount, err := core.ParseAmount(string(req.Amount))
	if err != nil {
		return services.TransactionInput{}, err
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return services.TransactionInput{}, err
	}
	return services.TransactionInput{
		Type:   req.Type,
		Amount: amount,
		Source: sanitizeInput(req.Source),
		Date:   date,
		Tags:   req.Tags,
		Notes:  sanitizeInput(req.Notes),
	}, nil
}

func (s *Server) decodeTransaction(w http.ResponseWriter, r *http.Request) (services.TransactionInput, bool) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return services.TransactionInput{}, false
	}
	in, err := req.input()
	if err != nil {
		writeError(w, r, err)
		return services.TransactionInput{}, false
	}
	if in.Date.IsZero() {
		in.Date = s.deps.Workspace.Now()
	}
	return in, true
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.deps.Workspace.ListTransactions(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	in, ok := s.decodeTransaction(w, r)
	if !ok {
		return
	}
	tx, err := s.deps.Workspace.AddTransaction(r.Context(), userID(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	in, ok := s.decodeTransaction(w, r)
	if !ok {
		return
	}
	tx, err := s.deps.Workspace.UpdateTransaction(r.Context(), userID(r), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Workspace.DeleteTransaction(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type potRequest struct {
	Name       string     `json:"name"`
	Percentage flexNumber `json:"percentage"`
}

func (s *Server) handleListPots(w http.ResponseWriter, r *http.Request) {
	pots, err := s.deps.Workspace.ListPots(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pots)
}

func (s *Server) handleAddPot(w http.ResponseWriter, r *http.Request) {
	var req potRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	pct, err := core.ParsePercentage(string(req.Percentage))
	if err != nil {
		writeError(w, r, err)
		return
	}
	pot, err := s.deps.Workspace.AddPot(r.Context(), userID(r), sanitizeInput(req.Name), pct)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, pot)
}

func (s *Server) handleDeletePot(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Workspace.DeletePot(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
