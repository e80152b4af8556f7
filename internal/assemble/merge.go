package assemble

import (
	"fmt"

	"github.com/paulmach/orb"
)

// MergeLines joins an unordered set of line segments into the minimal set
// of continuous strands. Segments are treated as edges of an undirected
// multigraph keyed by their terminal coordinates; endpoint equality is
// exact floating-point equality, no snapping tolerance.
//
// Walk order is deterministic: strands start at the first unused segment in
// input order, and at a branch point the first unused incident segment in
// input order wins. Strands are returned in discovery order.
func MergeLines(lines []orb.LineString) ([]orb.LineString, error) {
	for i, line := range lines {
		if len(line) < 2 {
			return nil, fmt.Errorf("segment %d has %d points, need at least 2", i, len(line))
		}
	}
	if len(lines) == 0 {
		return nil, nil
	}

	// Adjacency index: endpoint coordinate -> incident segment indices in
	// input order. A closed segment (equal endpoints) is indexed once.
	incident := make(map[orb.Point][]int)
	for i, line := range lines {
		start, end := line[0], line[len(line)-1]
		incident[start] = append(incident[start], i)
		if end != start {
			incident[end] = append(incident[end], i)
		}
	}

	used := make([]bool, len(lines))

	// nextUnused returns the first unused segment incident to p, oriented so
	// that its point sequence starts at p.
	nextUnused := func(p orb.Point) (orb.LineString, bool) {
		for _, i := range incident[p] {
			if used[i] {
				continue
			}
			used[i] = true
			seg := lines[i]
			if seg[0] == p {
				return seg, true
			}
			return reversed(seg), true
		}
		return nil, false
	}

	var strands []orb.LineString
	for i, line := range lines {
		if used[i] {
			continue
		}
		used[i] = true

		strand := make(orb.LineString, len(line))
		copy(strand, line)

		// Extend at the tail until no unused segment shares the endpoint
		for {
			seg, ok := nextUnused(strand[len(strand)-1])
			if !ok {
				break
			}
			strand = append(strand, seg[1:]...)
		}

		// Then extend at the head, prepending reversed continuations
		for {
			seg, ok := nextUnused(strand[0])
			if !ok {
				break
			}
			strand = append(reversed(seg)[:len(seg)-1], strand...)
		}

		if len(strand) < 2 {
			return nil, fmt.Errorf("walk produced a degenerate strand of %d points", len(strand))
		}
		strands = append(strands, strand)
	}

	return strands, nil
}

func reversed(line orb.LineString) orb.LineString {
	out := make(orb.LineString, len(line))
	for i, p := range line {
		out[len(line)-1-i] = p
	}
	return out
}
