package track

import (
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/slim-bean/adsb-intercept/pkg/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Track is the accumulated state of one aircraft.
type Track struct {
	Hex      string
	MaxSpeed float64
	CurSpeed float64
	CurAlt   int
	OnGround bool
	// The last time the aircraft was seen moving faster than the
	// interceptor speed, nil if never.
	TimeSeenFast *time.Time
	// The number of updates where the aircraft was moving faster than the
	// interceptor speed.
	FastCount uint
	Seen      time.Time

	history history
}

// New creates a track from the first snapshot of an aircraft.
func New(now time.Time, ac *model.Aircraft, rules Rules) (*Track, error) {
	lon, lat, ok := ac.Position()
	if !ok {
		return nil, missing(ac.Hex, "position")
	}
	if ac.GroundSpeed == nil {
		return nil, missing(ac.Hex, "ground speed")
	}
	if ac.GeometricAltitude == nil {
		return nil, missing(ac.Hex, "geometric altitude")
	}
	seenPos, ok := ac.SeenPosDuration()
	if !ok {
		return nil, missing(ac.Hex, "seen_pos")
	}

	posTime := now.Add(-seenPos)
	spd := *ac.GroundSpeed
	t := &Track{
		Hex:      ac.Hex,
		MaxSpeed: spd,
		CurSpeed: spd,
		CurAlt:   *ac.GeometricAltitude,
		OnGround: rules.OnGround(ac),
		Seen:     now.Add(-ac.SeenDuration()),
		history:  newHistory(rules.HistoryCapacity),
	}
	t.history.push(Position{Time: posTime, Coord: [2]float64{lon, lat}})
	if spd > rules.InterceptorMinSpeedKts {
		t.TimeSeenFast = &posTime
		t.FastCount = 1
	}
	return t, nil
}

// Update folds a later snapshot of the same aircraft into the track. A
// snapshot without a position still refreshes speed, altitude and ground
// status; the history is left alone and a *MissingDataError is returned.
func (t *Track) Update(now time.Time, ac *model.Aircraft, rules Rules) error {
	if ac.GroundSpeed != nil {
		spd := *ac.GroundSpeed
		t.CurSpeed = spd
		if spd > t.MaxSpeed {
			t.MaxSpeed = spd
		}
		if spd > rules.InterceptorMinSpeedKts {
			seenFast := now
			t.TimeSeenFast = &seenFast
			t.FastCount++
		}
	}
	switch {
	case ac.GeometricAltitude != nil:
		t.CurAlt = *ac.GeometricAltitude
	case ac.BarometricAltitude != nil:
		t.CurAlt = ac.BarometricAltitude.Number()
	default:
		t.CurAlt = 0
	}
	t.OnGround = rules.OnGround(ac)
	t.Seen = now

	lon, lat, ok := ac.Position()
	if !ok {
		return missing(ac.Hex, "position")
	}
	t.history.push(Position{Time: now, Coord: [2]float64{lon, lat}})
	return nil
}

// Current returns the newest position.
func (t *Track) Current() Position {
	return t.history.at(t.history.len() - 1)
}

// Oldest returns the oldest retained position.
func (t *Track) Oldest() Position {
	return t.history.at(0)
}

// History returns a copy of the retained positions, oldest first.
func (t *Track) History() []Position {
	return t.history.slice()
}

func (t *Track) HistoryLen() int {
	return t.history.len()
}

// Clone returns a deep copy that shares nothing with t.
func (t *Track) Clone() Track {
	c := *t
	if t.TimeSeenFast != nil {
		tsf := *t.TimeSeenFast
		c.TimeSeenFast = &tsf
	}
	c.history = t.history.clone()
	return c
}

type trackJSON struct {
	Hex          string     `json:"hex"`
	Coords       []Position `json:"coords"`
	MaxSpeed     float64    `json:"max_speed"`
	CurSpeed     float64    `json:"cur_speed"`
	CurAlt       int        `json:"cur_alt"`
	OnGround     bool       `json:"is_on_ground"`
	TimeSeenFast *time.Time `json:"time_seen_fast,omitempty"`
	FastCount    uint       `json:"fast_count"`
	Seen         time.Time  `json:"seen"`
}

func (t Track) MarshalJSON() ([]byte, error) {
	return json.Marshal(trackJSON{
		Hex:          t.Hex,
		Coords:       t.history.slice(),
		MaxSpeed:     t.MaxSpeed,
		CurSpeed:     t.CurSpeed,
		CurAlt:       t.CurAlt,
		OnGround:     t.OnGround,
		TimeSeenFast: t.TimeSeenFast,
		FastCount:    t.FastCount,
		Seen:         t.Seen,
	})
}

// UnmarshalJSON restores a track written by MarshalJSON. The history keeps at
// least HistoryCapacity slots.
func (t *Track) UnmarshalJSON(b []byte) error {
	var tj trackJSON
	if err := json.Unmarshal(b, &tj); err != nil {
		return err
	}
	capacity := HistoryCapacity
	if len(tj.Coords) > capacity {
		capacity = len(tj.Coords)
	}
	*t = Track{
		Hex:          tj.Hex,
		MaxSpeed:     tj.MaxSpeed,
		CurSpeed:     tj.CurSpeed,
		CurAlt:       tj.CurAlt,
		OnGround:     tj.OnGround,
		TimeSeenFast: tj.TimeSeenFast,
		FastCount:    tj.FastCount,
		Seen:         tj.Seen,
		history:      newHistory(capacity),
	}
	for _, p := range tj.Coords {
		t.history.push(p)
	}
	return nil
}
