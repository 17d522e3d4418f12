package autotag

import "math"

// AssignItems finds the one-to-one assignment of items to tracks that
// minimizes the summed track distance. It returns the mapping, the items left
// without a track and the tracks left without an item, both in input order.
func AssignItems(items []*Item, tracks []*TrackInfo) (*Mapping, []*Item, []*TrackInfo) {
	mapping := NewMapping()

	if len(items) > 0 && len(tracks) > 0 {
		// The solver needs at least as many columns as rows.
		transpose := len(items) > len(tracks)
		rows, cols := len(items), len(tracks)
		if transpose {
			rows, cols = cols, rows
		}

		cost := make([][]float64, rows)
		for r := range cost {
			cost[r] = make([]float64, cols)
			for c := range cost[r] {
				i, t := r, c
				if transpose {
					i, t = c, r
				}
				cost[r][c] = TrackDistance(items[i], tracks[t], true).Value()
			}
		}

		for r, c := range hungarian(cost) {
			if c < 0 {
				continue
			}
			i, t := r, c
			if transpose {
				i, t = c, r
			}
			mapping.pairs[items[i]] = tracks[t]
		}
	}

	var extraItems []*Item
	for _, item := range items {
		if _, ok := mapping.pairs[item]; !ok {
			extraItems = append(extraItems, item)
		}
	}

	used := make(map[*TrackInfo]bool, len(mapping.pairs))
	for _, track := range mapping.pairs {
		used[track] = true
	}
	var extraTracks []*TrackInfo
	for _, track := range tracks {
		if !used[track] {
			extraTracks = append(extraTracks, track)
		}
	}

	return mapping, extraItems, extraTracks
}

// hungarian solves the rectangular assignment problem for a cost matrix with
// no more rows than columns. It returns the column assigned to each row.
func hungarian(cost [][]float64) []int {
	n := len(cost)
	if n == 0 {
		return nil
	}
	m := len(cost[0])

	// Potentials and matching are 1-based; index 0 is a sentinel.
	u := make([]float64, n+1)
	v := make([]float64, m+1)
	p := make([]int, m+1) // p[j]: row matched to column j
	way := make([]int, m+1)

	for i := 1; i <= n; i++ {
		p[0] = i
		j0 := 0
		minv := make([]float64, m+1)
		for j := range minv {
			minv[j] = math.Inf(1)
		}
		used := make([]bool, m+1)

		for {
			used[j0] = true
			i0 := p[j0]
			delta := math.Inf(1)
			j1 := 0
			for j := 1; j <= m; j++ {
				if used[j] {
					continue
				}
				cur := cost[i0-1][j-1] - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}
			for j := 0; j <= m; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}
			j0 = j1
			if p[j0] == 0 {
				break
			}
		}

		for j0 != 0 {
			j1 := way[j0]
			p[j0] = p[j1]
			j0 = j1
		}
	}

	assign := make([]int, n)
	for i := range assign {
		assign[i] = -1
	}
	for j := 1; j <= m; j++ {
		if p[j] != 0 {
			assign[p[j]-1] = j - 1
		}
	}
	return assign
}
