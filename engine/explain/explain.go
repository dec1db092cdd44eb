// Package explain derives human-readable vibe pills and short "why this"
// justifications from vibe vectors.
package explain

import (
	"fmt"
	"math"
	"sort"

	"github.com/CineSyncApp/cinesync-engine/engine/vibe"
)

const (
	// DefaultThreshold is the neutral band half-width: axis values at or
	// inside it produce no pill, so weakly-expressed preferences stay quiet.
	DefaultThreshold = 0.35

	// DefaultMaxPills caps the pill listing.
	DefaultMaxPills = 4
)

// AxisLabel names the two poles of one axis for display.
type AxisLabel struct {
	Axis     vibe.Axis
	Positive string
	Negative string
}

// DefaultAxisLabels is the standard pill vocabulary, one entry per axis in
// axis order.
var DefaultAxisLabels = []AxisLabel{
	{vibe.AxisArthouse, "Arthouse lean", "Crowd-pleaser"},
	{vibe.AxisTone, "Dark & moody", "Light & feel-good"},
	{vibe.AxisPace, "Slow-burn", "Fast & punchy"},
	{vibe.AxisFocus, "Character-first", "Plot-first"},
	{vibe.AxisTexture, "Dialogue & subtext", "Big spectacle"},
	{vibe.AxisEra, "Fresh releases", "Classic era"},
	{vibe.AxisRealism, "Fantastical", "Grounded"},
	{vibe.AxisOutlook, "Bleak streak", "Sunny outlook"},
	{vibe.AxisRuntime, "Epic runtimes", "Short & sweet"},
	{vibe.AxisNovelty, "Challenging picks", "Comfort watches"},
}

// Pills returns the pill labels for a vector: for each configured axis, the
// positive label when the value is strictly above threshold, the negative
// label when strictly below -threshold, neither otherwise. The listing keeps
// axis-declaration order (no sorting by magnitude) and is truncated to
// maxPills entries.
func Pills(v vibe.Vector, labels []AxisLabel, maxPills int, threshold float64) []string {
	if maxPills <= 0 {
		return nil
	}
	var pills []string
	for _, l := range labels {
		if !l.Axis.Valid() {
			continue
		}
		switch val := v[l.Axis]; {
		case val > threshold:
			pills = append(pills, l.Positive)
		case val < -threshold:
			pills = append(pills, l.Negative)
		}
		if len(pills) == maxPills {
			break
		}
	}
	return pills
}

// DefaultPills is Pills with the standard vocabulary, cap, and threshold.
func DefaultPills(v vibe.Vector) []string {
	return Pills(v, DefaultAxisLabels, DefaultMaxPills, DefaultThreshold)
}

// Explain renders a one-sentence "why this" for a user/item pair. Per
// configured axis the agreement is user[axis]*item[axis]; a positive product
// means both vectors lean the same way on that axis. The one or two axes with
// the strongest positive agreement name the sentence, each phrased with the
// pole both sides share (the sign of the agreement product decides whether a
// pole is shared at all; the shared direction picks which pole). When no axis
// has positive agreement there is nothing honest to say and Explain returns
// the empty string rather than fabricating a reason.
func Explain(user, item *vibe.Vector, labels []AxisLabel) string {
	if user == nil || item == nil {
		return ""
	}

	type agreed struct {
		label    string
		strength float64
	}
	var tops []agreed
	for _, l := range labels {
		if !l.Axis.Valid() {
			continue
		}
		agreement := user[l.Axis] * item[l.Axis]
		if agreement <= 0 {
			continue
		}
		label := l.Negative
		if user[l.Axis] > 0 {
			label = l.Positive
		}
		tops = append(tops, agreed{label: label, strength: math.Abs(agreement)})
	}
	if len(tops) == 0 {
		return ""
	}

	sort.SliceStable(tops, func(i, j int) bool {
		return tops[i].strength > tops[j].strength
	})

	if len(tops) == 1 {
		return fmt.Sprintf("Strong match on %s.", tops[0].label)
	}
	return fmt.Sprintf("Strong match on %s and %s.", tops[0].label, tops[1].label)
}
