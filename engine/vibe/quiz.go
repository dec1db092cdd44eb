package vibe

// Answer is one forced-choice quiz answer. Choice A maps to the axis's
// negative pole, choice B to the positive pole.
type Answer int8

const (
	Unanswered Answer = iota
	ChoiceA
	ChoiceB
)

// FromQuiz encodes one answer per axis into a preference vector:
// choice A -> -1, choice B -> +1, unanswered -> 0.
func FromQuiz(answers [Dimensions]Answer) Vector {
	var v Vector
	for i, a := range answers {
		switch a {
		case ChoiceA:
			v[i] = -1
		case ChoiceB:
			v[i] = 1
		}
	}
	return v
}
