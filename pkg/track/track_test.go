package track

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slim-bean/adsb-intercept/pkg/model"
)

var t0 = time.Date(2022, 2, 24, 4, 0, 0, 0, time.UTC)

func fp(v float64) *float64 { return &v }
func ip(v int) *int         { return &v }

func snapshot(hex string, lon, lat, gs float64, alt int) *model.Aircraft {
	return &model.Aircraft{
		Hex:               hex,
		Lon:               fp(lon),
		Lat:               fp(lat),
		GroundSpeed:       fp(gs),
		GeometricAltitude: ip(alt),
		SeenPos:           fp(2),
		Seen:              1,
	}
}

func TestNew(t *testing.T) {
	rules := DefaultRules()

	tr, err := New(t0, snapshot("ae1234", -77.0, 38.9, 420, 25000), rules)
	require.NoError(t, err)

	assert.Equal(t, "ae1234", tr.Hex)
	assert.Equal(t, 420.0, tr.MaxSpeed)
	assert.Equal(t, 420.0, tr.CurSpeed)
	assert.Equal(t, 25000, tr.CurAlt)
	assert.False(t, tr.OnGround)
	assert.Equal(t, t0.Add(-time.Second), tr.Seen)
	require.Equal(t, 1, tr.HistoryLen())
	assert.Equal(t, Position{Time: t0.Add(-2 * time.Second), Coord: [2]float64{-77.0, 38.9}}, tr.Current())
	require.NotNil(t, tr.TimeSeenFast)
	assert.Equal(t, t0.Add(-2*time.Second), *tr.TimeSeenFast)
	assert.Equal(t, uint(1), tr.FastCount)

	slow, err := New(t0, snapshot("a00001", -77.0, 38.9, 120, 3000), rules)
	require.NoError(t, err)
	assert.Nil(t, slow.TimeSeenFast)
	assert.Zero(t, slow.FastCount)
}

func TestNewMissingData(t *testing.T) {
	rules := DefaultRules()
	tests := []struct {
		name  string
		strip func(a *model.Aircraft)
		field string
	}{
		{"no lon", func(a *model.Aircraft) { a.Lon = nil }, "position"},
		{"no lat", func(a *model.Aircraft) { a.Lat = nil }, "position"},
		{"no ground speed", func(a *model.Aircraft) { a.GroundSpeed = nil }, "ground speed"},
		{"no geometric altitude", func(a *model.Aircraft) { a.GeometricAltitude = nil }, "geometric altitude"},
		{"no seen_pos", func(a *model.Aircraft) { a.SeenPos = nil }, "seen_pos"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ac := snapshot("abc123", 1, 2, 200, 5000)
			tt.strip(ac)
			tr, err := New(t0, ac, rules)
			require.Error(t, err)
			assert.Nil(t, tr)
			assert.True(t, errors.Is(err, ErrMissingData))

			var mde *MissingDataError
			require.True(t, errors.As(err, &mde))
			assert.Equal(t, "abc123", mde.Hex)
			assert.Equal(t, tt.field, mde.Field)
			assert.Contains(t, err.Error(), "abc123")
		})
	}
}

func TestHistoryEvictsOldestFirst(t *testing.T) {
	rules := DefaultRules()
	tr, err := New(t0, snapshot("abc123", 0, 0, 200, 5000), rules)
	require.NoError(t, err)

	const updates = 100
	for i := 1; i <= updates; i++ {
		require.NoError(t, tr.Update(t0.Add(time.Duration(i)*time.Second), snapshot("abc123", float64(i), 0, 200, 5000), rules))
		assert.LessOrEqual(t, tr.HistoryLen(), HistoryCapacity)
	}

	hist := tr.History()
	require.Len(t, hist, HistoryCapacity)
	first := updates - HistoryCapacity + 1
	for i, p := range hist {
		assert.Equal(t, float64(first+i), p.Lon())
		assert.Equal(t, t0.Add(time.Duration(first+i)*time.Second), p.Time)
	}
	assert.Equal(t, float64(first), tr.Oldest().Lon())
	assert.Equal(t, float64(updates), tr.Current().Lon())
}

func TestHistoryCapacityFromRules(t *testing.T) {
	rules := DefaultRules()
	rules.HistoryCapacity = 3
	tr, err := New(t0, snapshot("abc123", 0, 0, 200, 5000), rules)
	require.NoError(t, err)
	for i := 1; i <= 5; i++ {
		require.NoError(t, tr.Update(t0, snapshot("abc123", float64(i), 0, 200, 5000), rules))
	}
	var lons []float64
	for _, p := range tr.History() {
		lons = append(lons, p.Lon())
	}
	assert.Equal(t, []float64{3, 4, 5}, lons)
}

func TestUpdateSpeedAccumulators(t *testing.T) {
	rules := DefaultRules()
	tr, err := New(t0, snapshot("abc123", 0, 0, 300, 20000), rules)
	require.NoError(t, err)

	speeds := []float64{360, 100, 351, 350, 500, 200, 349.9, 350.1}
	lastMax := tr.MaxSpeed
	for i, spd := range speeds {
		now := t0.Add(time.Duration(i+1) * time.Second)
		before := tr.FastCount
		require.NoError(t, tr.Update(now, snapshot("abc123", 0, 0, spd, 20000), rules))

		assert.GreaterOrEqual(t, tr.MaxSpeed, lastMax)
		assert.GreaterOrEqual(t, tr.MaxSpeed, tr.CurSpeed)
		lastMax = tr.MaxSpeed
		assert.Equal(t, spd, tr.CurSpeed)
		if spd > InterceptorMinSpeedKts {
			assert.Equal(t, before+1, tr.FastCount)
			require.NotNil(t, tr.TimeSeenFast)
			assert.Equal(t, now, *tr.TimeSeenFast)
		} else {
			assert.Equal(t, before, tr.FastCount)
		}
	}
	assert.Equal(t, 500.0, tr.MaxSpeed)
	assert.Equal(t, uint(4), tr.FastCount)
}

func TestUpdateWithoutSpeedKeepsSpeed(t *testing.T) {
	rules := DefaultRules()
	tr, err := New(t0, snapshot("abc123", 0, 0, 400, 20000), rules)
	require.NoError(t, err)

	ac := snapshot("abc123", 1, 1, 0, 20000)
	ac.GroundSpeed = nil
	require.NoError(t, tr.Update(t0.Add(time.Second), ac, rules))
	assert.Equal(t, 400.0, tr.CurSpeed)
	assert.Equal(t, uint(1), tr.FastCount)
	assert.Equal(t, t0.Add(time.Second), tr.Seen)
}

func TestUpdateAltitudeFallback(t *testing.T) {
	rules := DefaultRules()
	tr, err := New(t0, snapshot("abc123", 0, 0, 200, 8000), rules)
	require.NoError(t, err)

	ac := snapshot("abc123", 0, 0, 200, 0)
	ac.GeometricAltitude = nil
	ac.BarometricAltitude = &model.AltitudeOrGround{Feet: 7500}
	require.NoError(t, tr.Update(t0, ac, rules))
	assert.Equal(t, 7500, tr.CurAlt)
	assert.False(t, tr.OnGround)

	ac.BarometricAltitude = &model.AltitudeOrGround{Ground: true}
	require.NoError(t, tr.Update(t0, ac, rules))
	assert.Equal(t, 0, tr.CurAlt)
	assert.True(t, tr.OnGround)

	ac.BarometricAltitude = nil
	require.NoError(t, tr.Update(t0, ac, rules))
	assert.Equal(t, 0, tr.CurAlt)
	assert.False(t, tr.OnGround)
}

func TestUpdateMissingPosition(t *testing.T) {
	rules := DefaultRules()
	tr, err := New(t0, snapshot("abc123", 5, 6, 200, 8000), rules)
	require.NoError(t, err)

	ac := snapshot("abc123", 0, 0, 230, 9000)
	ac.Lat = nil
	err = tr.Update(t0.Add(time.Minute), ac, rules)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingData))

	assert.Equal(t, 1, tr.HistoryLen())
	assert.Equal(t, [2]float64{5, 6}, tr.Current().Coord)
	assert.Equal(t, 230.0, tr.CurSpeed)
	assert.Equal(t, 9000, tr.CurAlt)
	assert.Equal(t, t0.Add(time.Minute), tr.Seen)
}

func TestCloneIsIndependent(t *testing.T) {
	rules := DefaultRules()
	tr, err := New(t0, snapshot("abc123", 0, 0, 400, 20000), rules)
	require.NoError(t, err)

	c := tr.Clone()
	require.NoError(t, tr.Update(t0.Add(time.Second), snapshot("abc123", 9, 9, 450, 21000), rules))

	assert.Equal(t, 1, c.HistoryLen())
	assert.Equal(t, [2]float64{0, 0}, c.Current().Coord)
	assert.Equal(t, t0.Add(-2*time.Second), *c.TimeSeenFast)
	assert.Equal(t, 400.0, c.CurSpeed)
}

func TestJSONRoundTrip(t *testing.T) {
	rules := DefaultRules()
	tr, err := New(t0, snapshot("ae1234", -77.0, 38.9, 420, 25000), rules)
	require.NoError(t, err)
	require.NoError(t, tr.Update(t0.Add(time.Second), snapshot("ae1234", -77.1, 38.8, 430, 25100), rules))

	bts, err := json.Marshal(tr)
	require.NoError(t, err)
	assert.Contains(t, string(bts), `"hex":"ae1234"`)
	assert.Contains(t, string(bts), `"fast_count":2`)

	var back Track
	require.NoError(t, json.Unmarshal(bts, &back))
	assert.Equal(t, tr.Hex, back.Hex)
	assert.Equal(t, tr.FastCount, back.FastCount)
	assert.Equal(t, tr.CurAlt, back.CurAlt)
	assert.True(t, tr.TimeSeenFast.Equal(*back.TimeSeenFast))
	require.Equal(t, 2, back.HistoryLen())
	assert.Equal(t, tr.Current().Coord, back.Current().Coord)
	assert.True(t, tr.Oldest().Time.Equal(back.Oldest().Time))
}
