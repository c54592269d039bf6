package model

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"time"
)

type Details struct {
	Registration *string `json:"registration,omitempty"`
	TypeCode     *string `json:"type_code,omitempty"`
	Military     *bool   `json:"military,omitempty"`
	Interesting  *bool   `json:"interesting,omitempty"`
	PIA          *bool   `json:"pia,omitempty"`
	LADD         *bool   `json:"ladd,omitempty"`
	Description  *string `json:"description,omitempty"`
	Manufactured *string `json:"manufactured,omitempty"`
	Owner        *string `json:"owner,omitempty"`
}

// IsMilitary is safe to call on nil details.
func (d *Details) IsMilitary() bool {
	return d != nil && d.Military != nil && *d.Military
}

// Report is one batch of aircraft snapshots. readsb writes the aircraft list
// under "aircraft" with "now" in seconds, the ADS-B Exchange v2 API uses "ac"
// with "now" in milliseconds.
type Report struct {
	Now      float64    `json:"now"`
	Messages uint64     `json:"messages,omitempty"`
	Aircraft []Aircraft `json:"aircraft,omitempty"`
	AC       []Aircraft `json:"ac,omitempty"`
}

// Time returns the observation time of the batch.
func (r *Report) Time() time.Time {
	if r.Now > 1e11 {
		return time.UnixMilli(int64(r.Now)).UTC()
	}
	sec, frac := math.Modf(r.Now)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC()
}

type Aircraft struct {
	Hex               string   `json:"hex"`
	Squawk            *string  `json:"squawk,omitempty"`
	Lat               *float64 `json:"lat,omitempty"`
	Lon               *float64 `json:"lon,omitempty"`
	Flight            *string  `json:"flight,omitempty"`
	GroundSpeed       *float64 `json:"gs,omitempty"`
	Track             *float64 `json:"track,omitempty"`
	Category          *string  `json:"category,omitempty"`
	GeometricAltitude *int     `json:"alt_geom,omitempty"`

	// Either a number of feet or the string "ground".
	BarometricAltitude *AltitudeOrGround `json:"alt_baro,omitempty"`

	// Seconds since the position was last updated.
	SeenPos *float64 `json:"seen_pos,omitempty"`
	// Seconds since any message was received.
	Seen float64 `json:"seen"`

	Registration *string `json:"r,omitempty"`
	TypeCode     *string `json:"t,omitempty"`
	DBFlags      int     `json:"dbFlags,omitempty"`
}

// Position returns lon, lat and whether both are present.
func (a *Aircraft) Position() (lon, lat float64, ok bool) {
	if a.Lon == nil || a.Lat == nil {
		return 0, 0, false
	}
	return *a.Lon, *a.Lat, true
}

// SeenPosDuration converts seen_pos to a duration.
func (a *Aircraft) SeenPosDuration() (time.Duration, bool) {
	if a.SeenPos == nil {
		return 0, false
	}
	return seconds(*a.SeenPos), true
}

func (a *Aircraft) SeenDuration() time.Duration {
	return seconds(a.Seen)
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// AltitudeOrGround is the barometric altitude as reported: a number of feet,
// or an explicit on-ground marker.
type AltitudeOrGround struct {
	Ground bool
	Feet   int
}

var groundLiteral = []byte(`"ground"`)

func (a *AltitudeOrGround) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, groundLiteral) {
		*a = AltitudeOrGround{Ground: true}
		return nil
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("alt_baro: expected number or \"ground\", got %s", b)
	}
	*a = AltitudeOrGround{Feet: int(math.Round(f))}
	return nil
}

func (a AltitudeOrGround) MarshalJSON() ([]byte, error) {
	if a.Ground {
		return groundLiteral, nil
	}
	return []byte(strconv.Itoa(a.Feet)), nil
}

// Number turns the altitude into feet, where ground is 0.
func (a AltitudeOrGround) Number() int {
	if a.Ground {
		return 0
	}
	return a.Feet
}
