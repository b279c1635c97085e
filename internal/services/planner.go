package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"freelanceflow/internal/core"
	"freelanceflow/internal/events"
	"freelanceflow/internal/log"
)

// CalculatePlan runs the planner on goals and stores the result in place of
// the previous plan. Tiers limited to a single plan cannot recalculate.
func (w *Workspace) CalculatePlan(ctx context.Context, userID string, goals core.PlanGoals) (core.FinancialPlan, error) {
	if err := goals.Validate(); err != nil {
		return core.FinancialPlan{}, err
	}
	var plan core.FinancialPlan
	_, err := w.mutate(ctx, userID, func(d *core.UserData) ([]pending, error) {
		if d.FinancialPlan != nil && w.rules.Tier(d.Tier).SinglePlan {
			return nil, ErrPlanLocked
		}
		now := w.now()
		month := core.Summarize(d.Transactions, now)
		plan = core.CalculatePlan(goals, month.Income, now)
		plan.ID = uuid.NewString()
		d.FinancialPlan = &plan
		return []pending{{events.PlanCalculated, events.PlanPayload{
			PlanID:       plan.ID,
			WeeklyTarget: plan.WeeklySavingsTarget,
			IsRealistic:  plan.IsRealistic,
		}}}, nil
	})
	if err != nil {
		return core.FinancialPlan{}, err
	}
	w.logger.InfoContext(ctx, "Financial plan calculated", log.FieldUserID, userID, "realistic", plan.IsRealistic)
	return plan, nil
}

// Plan returns the current plan, or ErrNotFound when none was calculated.
func (w *Workspace) Plan(ctx context.Context, userID string) (core.FinancialPlan, error) {
	d, err := w.Get(ctx, userID)
	if err != nil {
		return core.FinancialPlan{}, err
	}
	if d.FinancialPlan == nil {
		return core.FinancialPlan{}, ErrNotFound
	}
	return *d.FinancialPlan, nil
}

// ProfileUpdate carries the profile fields to change; nil fields are kept.
type ProfileUpdate struct {
	Name        *string          `json:"name"`
	Age         *int             `json:"age"`
	MonthlyGoal *decimal.Decimal `json:"monthlyGoal"`
	Photo       *string          `json:"photo"`
	Badges      []string         `json:"badges"`
}

func (w *Workspace) UpdateProfile(ctx context.Context, userID string, u ProfileUpdate) (core.Profile, error) {
	d, err := w.mutate(ctx, userID, func(d *core.UserData) ([]pending, error) {
		p := d.Profile
		if u.Name != nil {
			p.Name = strings.TrimSpace(*u.Name)
		}
		if u.Age != nil {
			age := *u.Age
			p.Age = &age
		}
		if u.MonthlyGoal != nil {
			goal := *u.MonthlyGoal
			p.MonthlyGoal = &goal
		}
		if u.Photo != nil {
			p.Photo = *u.Photo
		}
		if u.Badges != nil {
			p.Badges = normalizeTags(u.Badges)
		}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		d.Profile = p
		return nil, nil
	})
	if err != nil {
		return core.Profile{}, err
	}
	return d.Profile, nil
}

// Dashboard is the read model behind the main screen.
type Dashboard struct {
	Date           time.Time            `json:"date"`
	Summary        core.MonthlySummary  `json:"summary"`
	Balance        decimal.Decimal      `json:"balance"`
	Level          core.LevelInfo       `json:"level"`
	IncomeSeries   []core.MonthTotal    `json:"incomeSeries"`
	Progress       *core.BudgetProgress `json:"progress,omitempty"`
	TasksDoneToday int                  `json:"tasksDoneToday"`
	PendingTasks   int                  `json:"pendingTasks"`
	Recent         []core.Transaction   `json:"recentTransactions"`
	Pots           []core.Pot           `json:"pots"`
	Tier           core.PlanTier        `json:"plan"`
	Profile        core.Profile         `json:"profile"`
}

const (
	dashboardRecent = 5
	dashboardMonths = 6
)

// Dashboard computes the dashboard as seen at the given instant.
func (w *Workspace) Dashboard(ctx context.Context, userID string, at time.Time) (Dashboard, error) {
	d, err := w.Get(ctx, userID)
	if err != nil {
		return Dashboard{}, err
	}
	summary := core.Summarize(d.Transactions, at)
	recent := core.RecentTransactions(d.Transactions)
	if len(recent) > dashboardRecent {
		recent = recent[:dashboardRecent]
	}

	out := Dashboard{
		Date:           at,
		Summary:        summary,
		Balance:        core.Balance(d),
		Level:          w.rules.Levels.Info(d.XP),
		IncomeSeries:   core.IncomeSeries(d.Transactions, at, dashboardMonths),
		TasksDoneToday: core.TasksClosedToday(d.Tasks, at),
		PendingTasks:   len(core.FilterTasks(d.Tasks, core.TaskFilter{Status: core.StatusPending})),
		Recent:         recent,
		Pots:           d.Pots,
		Tier:           d.Tier,
		Profile:        d.Profile,
	}
	if d.FinancialPlan != nil {
		p := core.Progress(*d.FinancialPlan, summary)
		out.Progress = &p
	}
	return out, nil
}

// Level returns the user's level information.
func (w *Workspace) Level(ctx context.Context, userID string) (core.LevelInfo, error) {
	d, err := w.Get(ctx, userID)
	if err != nil {
		return core.LevelInfo{}, err
	}
	return w.rules.Levels.Info(d.XP), nil
}
