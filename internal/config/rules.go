package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"

	"freelanceflow/internal/core"
)

type (
	// Rules are the product rules that can be tuned without a rebuild.
	Rules struct {
		XP         core.XPRules
		Levels     core.LevelTable
		Allocation core.AllocationPolicy
		Tiers      map[core.PlanTier]TierRules
	}

	// TierRules describe what a plan tier allows. MaxPots 0 means unlimited.
	TierRules struct {
		Label      string
		MaxPots    int
		SinglePlan bool
		Price      decimal.Decimal
	}
)

// rulesFile mirrors the on-disk TOML layout.
type rulesFile struct {
	XP struct {
		IncomeDivisor int `toml:"income_divisor"`
		TaskDoneBonus int `toml:"task_done_bonus"`
	} `toml:"xp"`
	Levels struct {
		Thresholds []int    `toml:"thresholds"`
		Names      []string `toml:"names"`
	} `toml:"levels"`
	Pots struct {
		MinPercentage float64 `toml:"min_percentage"`
		MaxPercentage float64 `toml:"max_percentage"`
		TotalCap      float64 `toml:"total_cap"`
	} `toml:"pots"`
	Tiers map[string]struct {
		Label      string `toml:"label"`
		MaxPots    int    `toml:"max_pots"`
		SinglePlan bool   `toml:"single_plan"`
		Price      string `toml:"price"`
	} `toml:"tiers"`
}

func DefaultRules() Rules {
	return Rules{
		XP:         core.DefaultXPRules(),
		Levels:     core.DefaultLevelTable(),
		Allocation: core.DefaultAllocationPolicy(),
		Tiers: map[core.PlanTier]TierRules{
			core.TierFree:     {Label: "Free", MaxPots: 2, SinglePlan: true, Price: decimal.Zero},
			core.TierPro:      {Label: "Pro", Price: decimal.RequireFromString("9.99")},
			core.TierUltimate: {Label: "Ultimate", Price: decimal.RequireFromString("19.99")},
		},
	}
}

// LoadRules reads a TOML rules file. Sections missing from the file keep
// their default values; an empty path returns the defaults.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}

	var f rulesFile
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return Rules{}, fmt.Errorf("decode rules file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Rules{}, fmt.Errorf("unknown keys in rules file: %s", strings.Join(keys, ", "))
	}

	if md.IsDefined("xp", "income_divisor") {
		rules.XP.IncomeDivisor = decimal.NewFromInt(int64(f.XP.IncomeDivisor))
	}
	if md.IsDefined("xp", "task_done_bonus") {
		rules.XP.TaskDoneBonus = f.XP.TaskDoneBonus
	}
	if md.IsDefined("levels", "thresholds") {
		rules.Levels.Thresholds = f.Levels.Thresholds
	}
	if md.IsDefined("levels", "names") {
		rules.Levels.Names = f.Levels.Names
	}
	if md.IsDefined("pots", "min_percentage") {
		rules.Allocation.MinPercentage = decimal.NewFromFloat(f.Pots.MinPercentage)
	}
	if md.IsDefined("pots", "max_percentage") {
		rules.Allocation.MaxPercentage = decimal.NewFromFloat(f.Pots.MaxPercentage)
	}
	if md.IsDefined("pots", "total_cap") {
		rules.Allocation.TotalCap = decimal.NewFromFloat(f.Pots.TotalCap)
	}
	for name, t := range f.Tiers {
		tier := core.PlanTier(name)
		if !tier.Valid() {
			return Rules{}, fmt.Errorf("unknown tier %q in rules file", name)
		}
		tr := rules.Tiers[tier]
		if md.IsDefined("tiers", name, "label") {
			tr.Label = t.Label
		}
		if md.IsDefined("tiers", name, "max_pots") {
			tr.MaxPots = t.MaxPots
		}
		if md.IsDefined("tiers", name, "single_plan") {
			tr.SinglePlan = t.SinglePlan
		}
		if md.IsDefined("tiers", name, "price") {
			price, err := decimal.NewFromString(t.Price)
			if err != nil {
				return Rules{}, fmt.Errorf("tier %s price: %w", name, err)
			}
			tr.Price = price
		}
		rules.Tiers[tier] = tr
	}

	if err := rules.Validate(); err != nil {
		return Rules{}, err
	}
	return rules, nil
}

// Validate checks the rules for internal consistency.
func (r Rules) Validate() error {
	var errs []error
	if !r.XP.IncomeDivisor.IsPositive() {
		errs = append(errs, errors.New("xp income_divisor must be positive"))
	}
	if r.XP.TaskDoneBonus < 0 {
		errs = append(errs, errors.New("xp task_done_bonus cannot be negative"))
	}
	if err := r.Levels.Validate(); err != nil {
		errs = append(errs, err)
	}
	if r.Allocation.MinPercentage.IsNegative() || r.Allocation.MaxPercentage.LessThan(r.Allocation.MinPercentage) {
		errs = append(errs, errors.New("pot percentage bounds are inconsistent"))
	}
	if r.Allocation.TotalCap.IsNegative() {
		errs = append(errs, errors.New("pot total_cap cannot be negative"))
	}
	for _, tier := range []core.PlanTier{core.TierFree, core.TierPro, core.TierUltimate} {
		tr, ok := r.Tiers[tier]
		if !ok {
			errs = append(errs, fmt.Errorf("missing rules for tier %s", tier))
			continue
		}
		if tr.MaxPots < 0 {
			errs = append(errs, fmt.Errorf("tier %s max_pots cannot be negative", tier))
		}
		if tr.Price.IsNegative() {
			errs = append(errs, fmt.Errorf("tier %s price cannot be negative", tier))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid rules: %w", errors.Join(errs...))
	}
	return nil
}

// Tier returns the rules of a tier, falling back to the free tier.
func (r Rules) Tier(t core.PlanTier) TierRules {
	if tr, ok := r.Tiers[t]; ok {
		return tr
	}
	return r.Tiers[core.TierFree]
}
