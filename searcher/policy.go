package searcher

import "math"

// ucb scores a child from its mean reward and an exploration bonus that shrinks with visits.
type ucb struct {
	exploration float64
	tuned       bool
	lnTotal     float64 // ln of the visits summed over all siblings
}

func newUCB(exploration float64, tuned bool, total int) ucb {
	lnTotal := 0.0
	if total > 1 {
		lnTotal = math.Log(float64(total))
	}
	return ucb{exploration: exploration, tuned: tuned, lnTotal: lnTotal}
}

func (u ucb) evaluate(score float64, visits int) float64 {
	if visits == 0 { // Prevent division by zero
		panic("cannot compute UCB: 0 visits")
	}

	n := float64(visits)
	x := score / n
	if !u.tuned {
		// UCB1 = X + 2c*sqrt(ln(T)/n)
		return x + 2*u.exploration*math.Sqrt(u.lnTotal/n)
	}
	// Rewards lie in [0,1], so the variance bound is X - X^2 + sqrt(2ln(T)/n)
	v := math.Max(0, x-x*x+math.Sqrt(2*u.lnTotal/n))
	return x + u.exploration*math.Sqrt(u.lnTotal/n*math.Min(0.25, v))
}

type childStats struct {
	score  float64
	visits int
}

// pick chooses the child to descend into. A child another goroutine registered but has not
// backed up yet has no visits and is taken as is. Ties go to the first child.
func (s *search[B]) pick(children []*node[B], atRoot bool) *node[B] {
	stats := make([]childStats, len(children))
	total := 0
	for i, child := range children {
		score, visits := child.stats()
		if visits == 0 {
			return child
		}
		stats[i] = childStats{score: score, visits: visits}
		total += visits
	}

	if atRoot && s.warmup {
		minIndex := 0
		for i := range stats {
			if stats[i].visits < stats[minIndex].visits {
				minIndex = i
			}
		}
		return children[minIndex]
	}

	policy := newUCB(s.exploration, s.tuned, total)
	maxIndex := 0
	maxScore := math.Inf(-1)
	for i := range stats {
		if score := policy.evaluate(stats[i].score, stats[i].visits); score > maxScore {
			maxScore = score
			maxIndex = i
		}
	}
	return children[maxIndex]
}
