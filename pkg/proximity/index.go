package proximity

import (
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"

	"github.com/slim-bean/adsb-intercept/pkg/track"
)

// point is what goes into the spatial index: a track's current position on
// the sphere plus the track itself.
type point struct {
	xyz   [3]float64
	coord [2]float64
	track *track.Track
}

func (p point) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	return p.xyz[d] - c.(point).xyz[d]
}

func (p point) Dims() int { return 3 }

// Distance is the squared straight-line distance, as kdtree expects.
func (p point) Distance(c kdtree.Comparable) float64 {
	q := c.(point)
	return sqr(p.xyz[0]-q.xyz[0]) + sqr(p.xyz[1]-q.xyz[1]) + sqr(p.xyz[2]-q.xyz[2])
}

type points []point

func (p points) Index(i int) kdtree.Comparable         { return p[i] }
func (p points) Len() int                              { return len(p) }
func (p points) Pivot(d kdtree.Dim) int                { return plane{points: p, dim: d}.Pivot() }
func (p points) Slice(start, end int) kdtree.Interface { return p[start:end] }

type plane struct {
	points points
	dim    kdtree.Dim
}

func (p plane) Len() int           { return len(p.points) }
func (p plane) Less(i, j int) bool { return p.points[i].xyz[p.dim] < p.points[j].xyz[p.dim] }
func (p plane) Swap(i, j int)      { p.points[i], p.points[j] = p.points[j], p.points[i] }
func (p plane) Pivot() int         { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p plane) Slice(start, end int) kdtree.SortSlicer {
	return plane{points: p.points[start:end], dim: p.dim}
}

// Index is a per-tick spatial index over target positions. It is built from
// scratch each tick and holds no state across ticks.
type Index struct {
	tree *kdtree.Tree
	n    int
}

// Neighbor is an indexed track within range of a query.
type Neighbor struct {
	Track        *track.Track
	SeparationFt float64
}

// BuildIndex indexes the current position of every track.
func BuildIndex(tracks []*track.Track) *Index {
	pts := make(points, 0, len(tracks))
	for _, t := range tracks {
		c := t.Current().Coord
		pts = append(pts, point{xyz: toCartesian(c), coord: c, track: t})
	}
	idx := &Index{n: len(pts)}
	if len(pts) > 0 {
		idx.tree = kdtree.New(pts, false)
	}
	return idx
}

func (idx *Index) Len() int { return idx.n }

// Within returns every indexed track whose great-circle distance from coord
// is at most maxFt, nearest first. Ties are broken by hex.
func (idx *Index) Within(coord [2]float64, maxFt float64) []Neighbor {
	if idx.tree == nil || maxFt < 0 {
		return nil
	}
	q := point{xyz: toCartesian(coord), coord: coord}
	// A little slack on the chord so rounding never drops a point the
	// haversine check below would accept.
	keep := kdtree.NewDistKeeper(sqr(chordFt(maxFt)) * (1 + 1e-9))
	idx.tree.NearestSet(keep, q)

	var out []Neighbor
	for _, c := range keep.Heap {
		if c.Comparable == nil {
			continue
		}
		p := c.Comparable.(point)
		d := DistanceFt(coord, p.coord)
		if d > maxFt {
			continue
		}
		out = append(out, Neighbor{Track: p.track, SeparationFt: d})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SeparationFt != out[j].SeparationFt {
			return out[i].SeparationFt < out[j].SeparationFt
		}
		return out[i].Track.Hex < out[j].Track.Hex
	})
	return out
}
