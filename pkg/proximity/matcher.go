package proximity

import (
	"flag"
	"sort"
	"time"

	"github.com/slim-bean/adsb-intercept/pkg/track"
)

type Config struct {
	MaxLateralFt float64 `yaml:"max_lateral_ft"`
	// 0 disables the vertical check.
	MaxVerticalFt  int  `yaml:"max_vertical_ft"`
	SignedVertical bool `yaml:"signed_vertical"`
}

func (c *Config) RegisterFlags(f *flag.FlagSet) {
	f.Float64Var(&c.MaxLateralFt, "proximity.max-lateral-ft", FeetPerNM, "Maximum great-circle separation in feet between an interceptor and a target")
	f.IntVar(&c.MaxVerticalFt, "proximity.max-vertical-ft", 0, "Maximum altitude difference in feet between an interceptor and a target, 0 for no limit")
	f.BoolVar(&c.SignedVertical, "proximity.signed-vertical", false, "Report vertical separation as interceptor minus target altitude instead of the absolute difference")
}

// Interception is one detected close approach between an interceptor and a
// target. The tracks are copies taken at detection time.
type Interception struct {
	Interceptor          track.Track `json:"interceptor"`
	Target               track.Track `json:"target"`
	Time                 time.Time   `json:"time"`
	LateralSeparationFt  float64     `json:"lateral_separation_ft"`
	VerticalSeparationFt int         `json:"vertical_separation_ft"`
}

type Matcher struct {
	cfg Config
}

func NewMatcher(cfg Config) *Matcher {
	return &Matcher{cfg: cfg}
}

// Match pairs every interceptor with every target in range and returns one
// Interception per pair. Interceptors are visited in hex order, targets
// nearest first.
func (m *Matcher) Match(now time.Time, interceptors, targets []*track.Track) []Interception {
	if len(interceptors) == 0 || len(targets) == 0 {
		return nil
	}
	idx := BuildIndex(targets)

	ordered := make([]*track.Track, len(interceptors))
	copy(ordered, interceptors)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Hex < ordered[j].Hex })

	var out []Interception
	for _, ic := range ordered {
		for _, n := range idx.Within(ic.Current().Coord, m.cfg.MaxLateralFt) {
			vert := m.vertical(ic.CurAlt, n.Track.CurAlt)
			if m.cfg.MaxVerticalFt > 0 && abs(vert) > m.cfg.MaxVerticalFt {
				continue
			}
			out = append(out, Interception{
				Interceptor:          ic.Clone(),
				Target:               n.Track.Clone(),
				Time:                 now,
				LateralSeparationFt:  n.SeparationFt,
				VerticalSeparationFt: vert,
			})
		}
	}
	return out
}

func (m *Matcher) vertical(interceptorAlt, targetAlt int) int {
	d := interceptorAlt - targetAlt
	if m.cfg.SignedVertical {
		return d
	}
	return abs(d)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
