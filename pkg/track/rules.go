package track

import (
	"flag"
	"time"
)

const (
	// InterceptorMinSpeedKts is the speed threshold to be considered an interceptor.
	InterceptorMinSpeedKts = 350.0

	TargetMinSpeedKts = 80.0
	TargetMaxSpeedKts = 250.0

	// InterceptorTimeout is how long an interceptor keeps its status after
	// the last time it was seen above InterceptorMinSpeedKts.
	InterceptorTimeout = 3 * time.Minute

	HistoryCapacity    = 40
	FastCountThreshold = 10
	GroundAltitudeFt   = 500
)

// Rules holds the classification thresholds.
type Rules struct {
	InterceptorMinSpeedKts float64       `yaml:"interceptor_min_speed_kts"`
	TargetMinSpeedKts      float64       `yaml:"target_min_speed_kts"`
	TargetMaxSpeedKts      float64       `yaml:"target_max_speed_kts"`
	InterceptorTimeout     time.Duration `yaml:"interceptor_timeout"`
	FastCountThreshold     uint          `yaml:"fast_count_threshold"`
	HistoryCapacity        int           `yaml:"history_capacity"`
	GroundAltitudeFt       int           `yaml:"ground_altitude_ft"`
}

func DefaultRules() Rules {
	return Rules{
		InterceptorMinSpeedKts: InterceptorMinSpeedKts,
		TargetMinSpeedKts:      TargetMinSpeedKts,
		TargetMaxSpeedKts:      TargetMaxSpeedKts,
		InterceptorTimeout:     InterceptorTimeout,
		FastCountThreshold:     FastCountThreshold,
		HistoryCapacity:        HistoryCapacity,
		GroundAltitudeFt:       GroundAltitudeFt,
	}
}

func (r *Rules) RegisterFlags(f *flag.FlagSet) {
	d := DefaultRules()
	f.Float64Var(&r.InterceptorMinSpeedKts, "rules.interceptor-min-speed", d.InterceptorMinSpeedKts, "Ground speed in knots above which an observation counts as fast")
	f.Float64Var(&r.TargetMinSpeedKts, "rules.target-min-speed", d.TargetMinSpeedKts, "Exclusive lower bound of the target speed band in knots")
	f.Float64Var(&r.TargetMaxSpeedKts, "rules.target-max-speed", d.TargetMaxSpeedKts, "Exclusive upper bound of the target speed band in knots")
	f.DurationVar(&r.InterceptorTimeout, "rules.interceptor-timeout", d.InterceptorTimeout, "How long a fast mover keeps interceptor status after its last fast observation")
	f.UintVar(&r.FastCountThreshold, "rules.fast-count-threshold", d.FastCountThreshold, "Number of fast observations that must be exceeded before a track can be an interceptor")
	f.IntVar(&r.HistoryCapacity, "rules.history-capacity", d.HistoryCapacity, "Number of positions kept per track")
	f.IntVar(&r.GroundAltitudeFt, "rules.ground-altitude", d.GroundAltitudeFt, "Geometric altitude in feet below which an aircraft is treated as on the ground")
}
