package services

import (
	"fmt"
	"sort"
)

// LevelCurve is an ascending list of XP thresholds; Thresholds[0] must be 0.
// Level n is reached at Thresholds[n-1]; the last entry is the max level.
type LevelCurve struct {
	Name       string
	Thresholds []int64
}

// StandardCurve has 21 levels.
var StandardCurve = LevelCurve{
	Name: "standard",
	Thresholds: []int64{
		0, 100, 250, 450, 700, 1000, 1400, 1900, 2500, 3200,
		4000, 5000, 6200, 7600, 9200, 11000, 13000, 15500, 18500, 22000,
		26000,
	},
}

// ClassicCurve is the older, shorter 17-level table.
var ClassicCurve = LevelCurve{
	Name: "classic",
	Thresholds: []int64{
		0, 50, 150, 300, 500, 750, 1050, 1400, 1800, 2250,
		2750, 3300, 3900, 4550, 5250, 6000, 6800,
	},
}

func CurveByName(name string) (LevelCurve, error) {
	switch name {
	case "", StandardCurve.Name:
		return StandardCurve, nil
	case ClassicCurve.Name:
		return ClassicCurve, nil
	}
	return LevelCurve{}, fmt.Errorf("unknown level curve %q", name)
}

func (c LevelCurve) MaxLevel() int {
	return len(c.Thresholds)
}

// LevelForXP returns the number of thresholds met, so 0 XP is level 1 and
// anything at or above the last threshold is the max level.
func (c LevelCurve) LevelForXP(xp int64) int {
	if xp < 0 {
		xp = 0
	}
	level := sort.Search(len(c.Thresholds), func(i int) bool {
		return c.Thresholds[i] > xp
	})
	if level < 1 {
		return 1
	}
	return level
}

type LevelProgress struct {
	Level         int    `json:"level"`
	RankName      string `json:"rank_name"`
	XP            int64  `json:"xp"`
	LevelFloorXP  int64  `json:"level_floor_xp"`
	NextLevelXP   *int64 `json:"next_level_xp,omitempty"`
	XPToNextLevel int64  `json:"xp_to_next_level"`
	IsMaxLevel    bool   `json:"is_max_level"`
}

func (c LevelCurve) Progress(xp int64) LevelProgress {
	level := c.LevelForXP(xp)
	p := LevelProgress{
		Level:        level,
		RankName:     RankName(level),
		XP:           xp,
		LevelFloorXP: c.Thresholds[level-1],
	}
	if level >= c.MaxLevel() {
		p.IsMaxLevel = true
		return p
	}
	next := c.Thresholds[level]
	p.NextLevelXP = &next
	p.XPToNextLevel = next - xp
	return p
}

// RankName groups levels into display tiers.
func RankName(level int) string {
	switch {
	case level >= 21:
		return "Legend"
	case level >= 17:
		return "Diamond"
	case level >= 13:
		return "Platinum"
	case level >= 9:
		return "Gold"
	case level >= 6:
		return "Silver"
	case level >= 3:
		return "Bronze"
	default:
		return "Rookie"
	}
}
