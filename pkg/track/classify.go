package track

import (
	"time"

	"github.com/slim-bean/adsb-intercept/pkg/model"
)

type Class int

const (
	Other Class = iota
	Interceptor
	Target
)

func (c Class) String() string {
	switch c {
	case Interceptor:
		return "interceptor"
	case Target:
		return "target"
	default:
		return "other"
	}
}

// OnGround checks whether an aircraft seems to be on the ground, or very
// close to it.
func (r Rules) OnGround(ac *model.Aircraft) bool {
	if ac.BarometricAltitude != nil && ac.BarometricAltitude.Ground {
		return true
	}
	return ac.GeometricAltitude != nil && *ac.GeometricAltitude < r.GroundAltitudeFt
}

// IsFastMover latches once a track has more than FastCountThreshold fast
// observations and holds for InterceptorTimeout after the most recent one.
func (r Rules) IsFastMover(t *Track, now time.Time) bool {
	if t.TimeSeenFast == nil {
		return false
	}
	return now.Sub(*t.TimeSeenFast) < r.InterceptorTimeout &&
		t.FastCount > r.FastCountThreshold &&
		!t.OnGround
}

func (r Rules) IsPotentialTarget(t *Track) bool {
	return t.CurSpeed > r.TargetMinSpeedKts &&
		t.CurSpeed < r.TargetMaxSpeedKts &&
		!t.OnGround
}

func (r Rules) Classify(t *Track, now time.Time) Class {
	switch {
	case r.IsFastMover(t, now):
		return Interceptor
	case r.IsPotentialTarget(t):
		return Target
	default:
		return Other
	}
}
