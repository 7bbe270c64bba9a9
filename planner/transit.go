package planner

// Origin is the home position every job starts and ends at.
var Origin = Point{X: 0, Y: 0}

// InsertTransits implements the Transit Inserter (SPEC_FULL.md §4.1):
// given an ordered list of drawing polylines, it returns 2n+1 alternating
// pen-up/pen-down segments: a pen-up transit from the origin to the first
// polyline, each drawing polyline itself (pen-down), a pen-up transit
// between consecutive polylines, and a final pen-up transit back to the
// origin.
func InsertTransits(paths []Polyline) []Segment {
	segments := make([]Segment, 0, 2*len(paths)+1)
	cursor := Origin
	for _, path := range paths {
		if len(path) == 0 {
			continue
		}
		segments = append(segments, Segment{
			Points: []Point{cursor, path[0]},
			PenUp:  true,
		})
		segments = append(segments, Segment{
			Points: append([]Point(nil), path...),
			PenUp:  false,
		})
		cursor = path[len(path)-1]
	}
	segments = append(segments, Segment{
		Points: []Point{cursor, Origin},
		PenUp:  true,
	})
	return segments
}
