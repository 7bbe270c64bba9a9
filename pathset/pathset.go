// Package pathset loads a minimal JSON path-fixture format and applies a
// simple nearest-neighbor reordering heuristic over polyline start/end
// points. It stands in for upstream vector ingestion for this repository's
// tests and CLI.
package pathset

import (
	"encoding/json"
	"io"
	"math"

	"github.com/pkg/errors"

	"go.inkdrive.dev/plotterd/planner"
)

// doc is the on-disk JSON shape: {"paths": [[[x,y], ...], ...]}.
type doc struct {
	Paths [][][2]float64 `json:"paths"`
}

// Load reads a path-fixture document from r and returns it as polylines,
// in the order they appear in the file (no reordering applied).
func Load(r io.Reader) ([]planner.Polyline, error) {
	var d doc
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, errors.Wrap(err, "path fixture malformed")
	}
	paths := make([]planner.Polyline, 0, len(d.Paths))
	for i, raw := range d.Paths {
		if len(raw) < 2 {
			return nil, errors.Errorf("path %d has fewer than 2 points", i)
		}
		poly := make(planner.Polyline, len(raw))
		for j, pt := range raw {
			poly[j] = planner.Point{X: pt[0], Y: pt[1]}
		}
		paths = append(paths, poly)
	}
	return paths, nil
}

// OrderNearestNeighbor reorders paths (and flips individual polylines
// where useful) so that each path starts as close as possible to the end
// of the previously emitted path, greedily, starting from the origin.
// This is the one global reordering heuristic spec.md's Non-goals name as
// in-scope ("beyond a simple nearest-neighbor heuristic").
func OrderNearestNeighbor(paths []planner.Polyline) []planner.Polyline {
	remaining := make([]planner.Polyline, len(paths))
	copy(remaining, paths)
	ordered := make([]planner.Polyline, 0, len(paths))
	cursor := planner.Origin

	for len(remaining) > 0 {
		bestIdx := -1
		bestFlip := false
		bestDist := math.Inf(1)
		for i, p := range remaining {
			if len(p) == 0 {
				continue
			}
			if d := dist(cursor, p[0]); d < bestDist {
				bestDist, bestIdx, bestFlip = d, i, false
			}
			if d := dist(cursor, p[len(p)-1]); d < bestDist {
				bestDist, bestIdx, bestFlip = d, i, true
			}
		}
		if bestIdx == -1 {
			break
		}
		chosen := remaining[bestIdx]
		if bestFlip {
			chosen = reverse(chosen)
		}
		ordered = append(ordered, chosen)
		cursor = chosen[len(chosen)-1]
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}
	return ordered
}

func dist(a, b planner.Point) float64 {
	dx, dy := a.X-b.X, a.Y-b.Y
	return math.Hypot(dx, dy)
}

func reverse(p planner.Polyline) planner.Polyline {
	out := make(planner.Polyline, len(p))
	for i, pt := range p {
		out[len(p)-1-i] = pt
	}
	return out
}
