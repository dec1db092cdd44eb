// Package vibe defines the ten-axis vibe vector representation shared by the
// whole engine, along with quiz encoding and the Preference variant used at
// the profile-lookup boundary.
package vibe

// Dimensions is the fixed length of every vibe vector.
const Dimensions = 10

// Axis identifies one of the ten vibe axes. The negative pole is the first
// name, the positive pole the second.
type Axis int

const (
	AxisArthouse Axis = iota // mainstream <-> arthouse
	AxisTone                 // light/fun <-> dark/serious
	AxisPace                 // fast-paced <-> slow-burn
	AxisFocus                // plot-driven <-> character-driven
	AxisTexture              // action/spectacle <-> dialogue/subtext
	AxisEra                  // older/classic <-> recent
	AxisRealism              // grounded <-> fantastical
	AxisOutlook              // optimistic <-> bleak
	AxisRuntime              // short runtime <-> epic runtime
	AxisNovelty              // comfort/familiar <-> challenging/novel
)

// axisPoles maps each axis to its negative and positive pole names.
var axisPoles = [Dimensions][2]string{
	AxisArthouse: {"Mainstream", "Arthouse"},
	AxisTone:     {"Light/fun", "Dark/serious"},
	AxisPace:     {"Fast-paced", "Slow-burn"},
	AxisFocus:    {"Plot-driven", "Character-driven"},
	AxisTexture:  {"Action/spectacle", "Dialogue/subtext"},
	AxisEra:      {"Older/classic", "Recent"},
	AxisRealism:  {"Grounded/realistic", "Fantastical"},
	AxisOutlook:  {"Optimistic", "Bleak"},
	AxisRuntime:  {"Short runtime", "Epic runtime"},
	AxisNovelty:  {"Comfort/familiar", "Challenging/novel"},
}

// Valid reports whether the axis is one of the ten defined axes.
func (a Axis) Valid() bool { return a >= 0 && a < Dimensions }

// NegativePole returns the name of the axis's negative pole.
func (a Axis) NegativePole() string {
	if !a.Valid() {
		return ""
	}
	return axisPoles[a][0]
}

// PositivePole returns the name of the axis's positive pole.
func (a Axis) PositivePole() string {
	if !a.Valid() {
		return ""
	}
	return axisPoles[a][1]
}

// Preference is the result of a preference-vector lookup: either a present
// vector or an explicit "no quiz answered yet" absence. Absence is distinct
// from a zero vector so callers can short-circuit with a not-enough-data
// outcome instead of silently scoring against all zeros.
type Preference struct {
	Vector  Vector
	Present bool
}

// SomePreference wraps a vector as a present preference.
func SomePreference(v Vector) Preference {
	return Preference{Vector: v, Present: true}
}

// NoPreference is the absent case.
func NoPreference() Preference {
	return Preference{}
}

// Ptr returns the vector pointer, or nil when the preference is absent.
// Scoring functions treat nil as neutral.
func (p Preference) Ptr() *Vector {
	if !p.Present {
		return nil
	}
	v := p.Vector
	return &v
}
