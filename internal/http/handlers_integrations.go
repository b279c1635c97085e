package http

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"

	"freelanceflow/internal/core"
	"freelanceflow/internal/export"
	"freelanceflow/internal/log"
	"freelanceflow/internal/payment"
	"freelanceflow/internal/storage"
)

const maxChatMessage = 4000

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	msg := sanitizeInput(req.Message)
	if msg == "" || len(msg) > maxChatMessage {
		UnprocessableEntityError("message must be between 1 and " + strconv.Itoa(maxChatMessage) + " characters").Write(w)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), collaboratorWait)
	defer cancel()
	reply, err := s.deps.Workspace.Chat(ctx, userID(r), msg)
	if err != nil {
		writeCollaboratorError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Reply: reply})
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), collaboratorWait)
	defer cancel()
	a, err := s.deps.Workspace.Analyze(ctx, userID(r))
	if err != nil {
		writeCollaboratorError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

type checkoutRequest struct {
	Tier core.PlanTier `json:"plan"`
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	if s.deps.Billing == nil {
		writeError(w, r, payment.ErrDisabled)
		return
	}
	var req checkoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	co, err := s.deps.Billing.StartCheckout(r.Context(), userID(r), core.PlanTier(strings.ToLower(string(req.Tier))))
	if err != nil {
		writeCollaboratorError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, co)
}

// handleWebhook is unauthenticated; the provider signature authenticates it.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if s.deps.Billing == nil {
		writeError(w, r, payment.ErrDisabled)
		return
	}
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		BadRequestError("unreadable body").Write(w)
		return
	}
	if err := s.deps.Billing.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

func (s *Server) reportOptions(r *http.Request, title string) export.ReportOptions {
	opts := export.ReportOptions{
		Title:     title,
		Owner:     identityFrom(r.Context()).Name,
		Generated: s.deps.Workspace.Now(),
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("pageSize")); err == nil && v > 0 {
		opts.PageSize = v
	}
	return opts
}

func writeReport(w http.ResponseWriter, filename string, buf *bytes.Buffer) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleExportTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.deps.Workspace.ListTransactions(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteTransactions(&buf, txs, s.reportOptions(r, "Transactions")); err != nil {
		writeError(w, r, err)
		return
	}
	writeReport(w, "transactions.txt", &buf)
}

func (s *Server) handleExportPlan(w http.ResponseWriter, r *http.Request) {
	d, err := s.deps.Workspace.Get(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := export.WritePlan(&buf, d.FinancialPlan, s.reportOptions(r, "Financial plan")); err != nil {
		writeError(w, r, err)
		return
	}
	writeReport(w, "plan.txt", &buf)
}

type sheetsResponse struct {
	Range string `json:"range"`
	Rows  int    `json:"rows"`
}

func (s *Server) handleExportSheets(w http.ResponseWriter, r *http.Request) {
	if s.deps.Sheets == nil {
		writeError(w, r, export.ErrSheetsDisabled)
		return
	}
	txs, err := s.deps.Workspace.ListTransactions(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), collaboratorWait)
	defer cancel()
	ref, err := s.deps.Sheets.ExportTransactions(ctx, userID(r), txs)
	if err != nil {
		writeCollaboratorError(w, r, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Sheets export done", log.FieldOperation, log.OpExport, "rows", len(txs))
	writeJSON(w, http.StatusOK, sheetsResponse{Range: ref, Rows: len(txs)})
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	if s.deps.Activity == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	limit := activityLimit
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 500 {
		limit = v
	}
	items, err := s.deps.Activity.ListActivity(r.Context(), userID(r), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []storage.Activity{}
	}
	writeJSON(w, http.StatusOK, items)
}
