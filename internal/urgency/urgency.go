// Package urgency classifies how close a countdown is to running out.
//
// Classification is a pure function of the remaining and initial seconds of
// a timer. It yields an ordinal Level together with the display colour and
// facial expression that belong to that level. Colour and expression are
// looked up from the level, so they always agree with it.
package urgency

import (
	"fmt"
	"math"
	"math/bits"
	"strings"
)

// Level is an ordinal urgency classification. Higher values are more urgent.
type Level int

const (
	Low Level = iota
	Medium
	High
	Critical
)

var levelNames = [...]string{
	Low:      "low",
	Medium:   "medium",
	High:     "high",
	Critical: "critical",
}

// Levels returns every level from least to most urgent.
func Levels() []Level {
	return []Level{Low, Medium, High, Critical}
}

func (l Level) String() string {
	if l < Low || l > Critical {
		return fmt.Sprintf("level(%d)", int(l))
	}
	return levelNames[l]
}

// MarshalText encodes the level as its lowercase name.
func (l Level) MarshalText() ([]byte, error) {
	if l < Low || l > Critical {
		return nil, fmt.Errorf("invalid urgency level %d", int(l))
	}
	return []byte(levelNames[l]), nil
}

// UnmarshalText decodes a level name produced by MarshalText.
func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ParseLevel converts a level name, case-insensitively, into a Level.
func ParseLevel(name string) (Level, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for level, levelName := range levelNames {
		if levelName == normalized {
			return Level(level), nil
		}
	}
	return Low, fmt.Errorf("unknown urgency level %q", name)
}

// Expression is the facial expression label shown for a level.
type Expression string

const (
	Calm      Expression = "calm"
	Concerned Expression = "concerned"
	Stressed  Expression = "stressed"
	Alarm     Expression = "alarm"
)

// Expression returns the single expression paired with the level.
func (l Level) Expression() Expression {
	switch l {
	case Low:
		return Calm
	case Medium:
		return Concerned
	case High:
		return Stressed
	default:
		return Alarm
	}
}

// Colour returns the display colour for the level.
func (l Level) Colour() Colour {
	switch l {
	case Low:
		return Green
	case Medium:
		return Yellow
	case High:
		return Orange
	default:
		return Red
	}
}

// threshold maps the lowest remaining percentage (exclusive) at which a
// level still applies. Entries are ordered from least to most urgent and the
// final entry catches everything down to zero.
type threshold struct {
	abovePercent int64
	level        Level
}

var thresholds = []threshold{
	{abovePercent: 50, level: Low},
	{abovePercent: 25, level: Medium},
	{abovePercent: 10, level: High},
	{abovePercent: -1, level: Critical},
}

// State is the display view derived from a timer's remaining time.
type State struct {
	Level               Level      `json:"level"`
	Colour              Colour     `json:"colour"`
	Hex                 string     `json:"hex"`
	Expression          Expression `json:"expression"`
	RemainingPercentage float64    `json:"remainingPercentage"`
	Intensity           float64    `json:"intensity"`
	Gradient            Colour     `json:"gradient"`
}

// Classify maps remaining and initial seconds onto an urgency State.
//
// remaining is clamped to [0, initial]. A non-positive initial duration is
// treated as fully elapsed and returns the Critical classification.
func Classify(remaining, initial int) State {
	if initial <= 0 {
		return stateFor(Critical, 0)
	}
	if remaining < 0 {
		remaining = 0
	}
	if remaining > initial {
		remaining = initial
	}

	level := LevelFor(remaining, initial)
	ratio := float64(remaining) / float64(initial)
	return stateFor(level, ratio)
}

// LevelFor returns only the level for a remaining/initial pair. Boundaries
// are compared in integer arithmetic so that exact ratios such as 0.5 and
// 0.25 always land on the documented side.
func LevelFor(remaining, initial int) Level {
	if initial <= 0 {
		return Critical
	}
	r := uint64(clamp(remaining, 0, initial))
	total := uint64(initial)
	for _, t := range thresholds {
		if t.abovePercent < 0 || above(r, total, uint64(t.abovePercent)) {
			return t.level
		}
	}
	return Critical
}

// above reports whether r*100 > total*pct using full 128-bit products, so
// durations near math.MaxInt64 classify the same as small ones.
func above(r, total, pct uint64) bool {
	lhsHi, lhsLo := bits.Mul64(r, 100)
	rhsHi, rhsLo := bits.Mul64(total, pct)
	if lhsHi != rhsHi {
		return lhsHi > rhsHi
	}
	return lhsLo > rhsLo
}

func stateFor(level Level, ratio float64) State {
	colour := level.Colour()
	intensity := 1 - ratio
	return State{
		Level:               level,
		Colour:              colour,
		Hex:                 colour.Hex(),
		Expression:          level.Expression(),
		RemainingPercentage: math.Max(0, math.Min(100, ratio*100)),
		Intensity:           intensity,
		Gradient:            Gradient(intensity),
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
