package engine

// OrderVisits arranges visits greedily from a fixed start: repeatedly hop
// to the cheapest unvisited location by estimated travel cost. Equal-cost
// candidates fall back to catalog order so runs are deterministic. The end
// anchor, when non-empty, is appended unless already last. Start and end
// are excluded from the tour body.
func (e *Engine) OrderVisits(start string, visits []string, end string) []string {
	remaining := make([]string, 0, len(visits))
	for _, v := range visits {
		if v != start && v != end {
			remaining = append(remaining, v)
		}
	}
	var ordered []string
	current := start
	for len(remaining) > 0 {
		best := 0
		bestCost := e.est.Cost(current, remaining[0])
		for i := 1; i < len(remaining); i++ {
			c := e.est.Cost(current, remaining[i])
			if c < bestCost || (c == bestCost && e.cat.Ordinal(remaining[i]) < e.cat.Ordinal(remaining[best])) {
				best, bestCost = i, c
			}
		}
		ordered = append(ordered, remaining[best])
		current = remaining[best]
		remaining = append(remaining[:best], remaining[best+1:]...)
	}
	if end != "" && (len(ordered) == 0 || ordered[len(ordered)-1] != end) {
		ordered = append(ordered, end)
	}
	return ordered
}

// Improve2Opt refines an ordered visit list with a bounded 2-opt pass.
// Tours are measured from the fixed start anchor; the order is replaced
// whenever a segment reversal shortens the tour beyond a small epsilon.
func (e *Engine) Improve2Opt(start string, order []string, iterations int) []string {
	if iterations <= 0 {
		iterations = 1
	}
	n := len(order)
	if n < 3 {
		return order
	}
	best := append([]string(nil), order...)
	bestCost := e.tourCost(start, best)
	for it := 0; it < iterations; it++ {
		improved := false
		for i := 0; i < n-1; i++ {
			for k := i + 1; k < n; k++ {
				cand := twoOptSwap(best, i, k)
				if c := e.tourCost(start, cand); c+1e-9 < bestCost {
					best, bestCost = cand, c
					improved = true
				}
			}
		}
		if !improved {
			break
		}
	}
	return best
}

// twoOptSwap reverses order[i..k] into a fresh slice.
func twoOptSwap(order []string, i, k int) []string {
	out := make([]string, len(order))
	copy(out, order[:i])
	pos := i
	for j := k; j >= i; j-- {
		out[pos] = order[j]
		pos++
	}
	copy(out[pos:], order[k+1:])
	return out
}

func (e *Engine) tourCost(start string, order []string) float64 {
	total := 0.0
	current := start
	for _, v := range order {
		total += e.est.Cost(current, v)
		current = v
	}
	return total
}
