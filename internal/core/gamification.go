package core

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

type (
	// XPRules sets how experience is earned.
	XPRules struct {
		IncomeDivisor decimal.Decimal
		TaskDoneBonus int
	}

	// LevelTable is a monotonic step function from XP to level. Thresholds[i]
	// is the XP needed to reach level i+1; the first threshold is always 0.
	LevelTable struct {
		Thresholds []int
		Names      []string
	}

	LevelInfo struct {
		Level    int     `json:"level"`
		Name     string  `json:"name"`
		XP       int     `json:"xp"`
		Progress float64 `json:"progress"`
		XPToNext int     `json:"xpToNext"`
	}
)

func DefaultXPRules() XPRules {
	return XPRules{
		IncomeDivisor: decimal.NewFromInt(20),
		TaskDoneBonus: 10,
	}
}

func DefaultLevelTable() LevelTable {
	return LevelTable{
		Thresholds: []int{0, 200, 400, 600, 800},
		Names:      []string{"Beginner", "Intermediate", "Confirmed", "Expert", "Master"},
	}
}

// ForIncome returns the XP granted for an income of the given amount,
// rounded to the nearest integer.
func (r XPRules) ForIncome(amount decimal.Decimal) int {
	if !r.IncomeDivisor.IsPositive() || !amount.IsPositive() {
		return 0
	}
	return int(amount.Div(r.IncomeDivisor).Round(0).IntPart())
}

func (t LevelTable) Validate() error {
	if len(t.Thresholds) == 0 {
		return errors.New("level table is empty")
	}
	if len(t.Thresholds) != len(t.Names) {
		return fmt.Errorf("level table has %d thresholds but %d names", len(t.Thresholds), len(t.Names))
	}
	if t.Thresholds[0] != 0 {
		return errors.New("first level threshold must be 0")
	}
	for i := 1; i < len(t.Thresholds); i++ {
		if t.Thresholds[i] <= t.Thresholds[i-1] {
			return fmt.Errorf("level thresholds must be strictly increasing (index %d)", i)
		}
	}
	return nil
}

// Level returns the 1-based level reached with xp.
func (t LevelTable) Level(xp int) int {
	level := 1
	for i := 1; i < len(t.Thresholds); i++ {
		if xp >= t.Thresholds[i] {
			level = i + 1
		}
	}
	return level
}

// Info describes the position of xp in the table. Past the last threshold the
// progress bar keeps cycling with the width of the last band.
func (t LevelTable) Info(xp int) LevelInfo {
	if xp < 0 {
		xp = 0
	}
	level := t.Level(xp)
	info := LevelInfo{Level: level, XP: xp}
	if level-1 < len(t.Names) {
		info.Name = t.Names[level-1]
	}

	n := len(t.Thresholds)
	if n < 2 {
		return info
	}
	var base, step int
	if level < n {
		base = t.Thresholds[level-1]
		step = t.Thresholds[level] - base
	} else {
		step = t.Thresholds[n-1] - t.Thresholds[n-2]
		base = t.Thresholds[n-1] + ((xp-t.Thresholds[n-1])/step)*step
	}
	into := xp - base
	info.Progress = float64(into*100) / float64(step)
	info.XPToNext = step - into
	return info
}
