package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"freelanceflow/internal/core"
	"freelanceflow/internal/services"
)

type planRequest struct {
	Income      flexNumber `json:"incomeGoal"`
	Expense     flexNumber `json:"expenseGoal"`
	Savings     flexNumber `json:"savingsGoal"`
	Investment  flexNumber `json:"investmentGoal"`
	Leisure     flexNumber `json:"leisureGoal"`
	BudgetLimit flexNumber `json:"budgetLimit"`
}

// goalValue parses an optional goal; a missing goal is zero.
func goalValue(f flexNumber) (decimal.Decimal, error) {
	return core.ParseGoal(string(f))
}

func (req planRequest) goals() (core.PlanGoals, error) {
	var g core.PlanGoals
	for _, f := range []struct {
		dst *decimal.Decimal
		src flexNumber
	}{
		{&g.Income, req.Income},
		{&g.Expense, req.Expense},
		{&g.Savings, req.Savings},
		{&g.Investment, req.Investment},
		{&g.Leisure, req.Leisure},
		{&g.BudgetLimit, req.BudgetLimit},
	} {
		v, err := goalValue(f.src)
		if err != nil {
			return core.PlanGoals{}, err
		}
		*f.dst = v
	}
	return g, nil
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := s.deps.Workspace.Plan(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleCalculatePlan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	goals, err := req.goals()
	if err != nil {
		writeError(w, r, err)
		return
	}
	plan, err := s.deps.Workspace.CalculatePlan(r.Context(), userID(r), goals)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, plan)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	d, err := s.deps.Workspace.Get(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d.Profile)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var u services.ProfileUpdate
	if err := decodeJSON(w, r, &u); err != nil {
		writeError(w, r, err)
		return
	}
	if u.Name != nil {
		name := sanitizeInput(*u.Name)
		u.Name = &name
	}
	p, err := s.deps.Workspace.UpdateProfile(r.Context(), userID(r), u)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	at, err := dayParam(r, s.deps.Workspace.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	dash, err := s.deps.Workspace.Dashboard(r.Context(), userID(r), at)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

func (s *Server) handleLevel(w http.ResponseWriter, r *http.Request) {
	info, err := s.deps.Workspace.Level(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}
