// Package review implements spaced-repetition scheduling of vocabulary
// cards using a variant of the SM-2 algorithm.
package review

import "time"

// Grade is the learner's self-assessment of one card.
type Grade string

const (
	GradeAgain Grade = "again"
	GradeHard  Grade = "hard"
	GradeGood  Grade = "good"
	GradeEasy  Grade = "easy"
)

const (
	minEase      = 1.3
	defaultEase  = 2.5
	againRelearn = 10 * time.Minute
)

// ValidGrade reports whether g is one of the four grades.
func ValidGrade(g Grade) bool {
	switch g {
	case GradeAgain, GradeHard, GradeGood, GradeEasy:
		return true
	}
	return false
}

// sm2State is the scheduling state carried by each card.
type sm2State struct {
	Ease         float64
	IntervalDays float64
	Repetitions  int
}

// next computes the new scheduling state plus the delay until the card
// is due again. A failed card goes back into relearning within the same
// session; passed cards grow their interval multiplicatively.
func (s sm2State) next(g Grade) (sm2State, time.Duration) {
	out := s
	switch g {
	case GradeAgain:
		out.Repetitions = 0
		out.IntervalDays = 0
		out.Ease = clampEase(s.Ease - 0.20)
		return out, againRelearn

	case GradeHard:
		out.Repetitions = s.Repetitions + 1
		out.Ease = clampEase(s.Ease - 0.15)
		if s.IntervalDays < 1 {
			out.IntervalDays = 1
		} else {
			out.IntervalDays = s.IntervalDays * 1.2
		}

	case GradeGood:
		out.Repetitions = s.Repetitions + 1
		switch s.Repetitions {
		case 0:
			out.IntervalDays = 1
		case 1:
			out.IntervalDays = 6
		default:
			out.IntervalDays = s.IntervalDays * s.Ease
		}

	case GradeEasy:
		out.Repetitions = s.Repetitions + 1
		out.Ease = clampEase(s.Ease + 0.15)
		if s.IntervalDays < 1 {
			out.IntervalDays = 4
		} else {
			out.IntervalDays = s.IntervalDays * out.Ease * 1.3
		}
	}

	return out, time.Duration(out.IntervalDays * float64(24*time.Hour))
}

func clampEase(e float64) float64 {
	if e < minEase {
		return minEase
	}
	return e
}
