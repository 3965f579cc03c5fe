package fuzzy

import "strings"

// partialScanBudget bounds the rune comparisons partialRatio spends scoring
// candidate slices one by one.
const partialScanBudget = 1 << 24

// partialRatio scores the shorter string against its best equal-length slice
// of the longer one. Every slice is tried when that fits the scan budget.
// Otherwise the scan covers the slices starting within one pattern length of
// the semi-global alignment, and when even that is too wide only the slices
// anchored at the alignment's two ends are scored.
func partialRatio(a, b string) int {
	if a == "" || b == "" {
		return 0
	}
	if len(a) > len(b) {
		a, b = b, a
	}
	if strings.Contains(b, a) {
		return 100
	}

	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	m, n := len(short), len(long)
	if m == n {
		return ratioRunes(short, long)
	}

	lo, hi := 0, n-m
	if !withinBudget(hi-lo+1, m) {
		start, end := align(short, long)
		lo, hi = max(start-m, 0), min(end, n-m)
		if !withinBudget(hi-lo+1, m) {
			return max(sliceRatio(short, long, start), sliceRatio(short, long, end-m))
		}
	}

	best := 0
	for s := lo; s <= hi && best < 100; s++ {
		best = max(best, ratioRunes(short, long[s:s+m]))
	}
	return best
}

func withinBudget(slices, m int) bool {
	return slices*m*m <= partialScanBudget
}

// sliceRatio scores pattern against the slice of its length starting at s,
// clamped into text.
func sliceRatio(pattern, text []rune, s int) int {
	m := len(pattern)
	s = min(max(s, 0), len(text)-m)
	return ratioRunes(pattern, text[s:s+m])
}

// align finds the slice of text with the lowest indel distance to pattern
// when text may be entered and left anywhere. It returns the slice bounds in
// runes; ties keep the earliest end.
func align(pattern, text []rune) (int, int) {
	m := len(pattern)
	cost := make([]int, m+1)
	from := make([]int, m+1)
	next := make([]int, m+1)
	nextFrom := make([]int, m+1)
	for i := range cost {
		cost[i] = i
	}

	bestCost, bestStart, bestEnd := cost[m], 0, 0
	for j := 1; j <= len(text); j++ {
		next[0], nextFrom[0] = 0, j
		tc := text[j-1]
		for i := 1; i <= m; i++ {
			sub := 2
			if pattern[i-1] == tc {
				sub = 0
			}
			c, f := cost[i-1]+sub, from[i-1]
			if v := cost[i] + 1; v < c {
				c, f = v, from[i]
			}
			if v := next[i-1] + 1; v < c {
				c, f = v, nextFrom[i-1]
			}
			next[i], nextFrom[i] = c, f
		}
		cost, next = next, cost
		from, nextFrom = nextFrom, from

		if cost[m] < bestCost {
			bestCost, bestStart, bestEnd = cost[m], from[m], j
		}
	}
	return bestStart, bestEnd
}
