package track

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/slim-bean/adsb-intercept/pkg/model"
)

func TestOnGround(t *testing.T) {
	rules := DefaultRules()
	tests := []struct {
		name string
		geom *int
		baro *model.AltitudeOrGround
		want bool
	}{
		{"baro ground beats high geometric", ip(30000), &model.AltitudeOrGround{Ground: true}, true},
		{"baro ground without geometric", nil, &model.AltitudeOrGround{Ground: true}, true},
		{"geometric 499", ip(499), nil, true},
		{"geometric 500", ip(500), nil, false},
		{"geometric 501", ip(501), nil, false},
		{"baro number low, no geometric", nil, &model.AltitudeOrGround{Feet: 100}, false},
		{"nothing", nil, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ac := &model.Aircraft{Hex: "abc123", GeometricAltitude: tt.geom, BarometricAltitude: tt.baro}
			assert.Equal(t, tt.want, rules.OnGround(ac))
		})
	}
}

func TestIsFastMover(t *testing.T) {
	rules := DefaultRules()
	now := t0.Add(time.Hour)

	fast := func(ago time.Duration, count uint, onGround bool) *Track {
		seen := now.Add(-ago)
		return &Track{Hex: "abc123", TimeSeenFast: &seen, FastCount: count, OnGround: onGround}
	}

	assert.True(t, rules.IsFastMover(fast(2*time.Minute+59*time.Second, 11, false), now))
	assert.False(t, rules.IsFastMover(fast(3*time.Minute+1*time.Second, 11, false), now))
	assert.False(t, rules.IsFastMover(fast(3*time.Minute, 11, false), now))
	assert.False(t, rules.IsFastMover(fast(time.Second, 10, false), now))
	assert.False(t, rules.IsFastMover(fast(time.Second, 11, true), now))
	assert.False(t, rules.IsFastMover(&Track{Hex: "abc123", FastCount: 50}, now))

	assert.Equal(t, Interceptor, rules.Classify(fast(time.Minute, 11, false), now))
}

func TestIsPotentialTarget(t *testing.T) {
	rules := DefaultRules()
	tests := []struct {
		speed    float64
		onGround bool
		want     bool
	}{
		{80, false, false},
		{80.01, false, true},
		{150, false, true},
		{249.99, false, true},
		{250, false, false},
		{150, true, false},
		{400, false, false},
	}
	for _, tt := range tests {
		tr := &Track{CurSpeed: tt.speed, OnGround: tt.onGround}
		assert.Equal(t, tt.want, rules.IsPotentialTarget(tr), "speed %v on ground %v", tt.speed, tt.onGround)
	}
}

func TestClassify(t *testing.T) {
	rules := DefaultRules()
	assert.Equal(t, Target, rules.Classify(&Track{CurSpeed: 120}, t0))
	assert.Equal(t, Other, rules.Classify(&Track{CurSpeed: 300}, t0))
	assert.Equal(t, Other, rules.Classify(&Track{CurSpeed: 120, OnGround: true}, t0))
	assert.Equal(t, "interceptor", Interceptor.String())
	assert.Equal(t, "target", Target.String())
	assert.Equal(t, "other", Other.String())
}

func TestFastMoverLatchesThroughSlowUpdates(t *testing.T) {
	rules := DefaultRules()
	tr, err := New(t0, snapshot("ae0001", 0, 0, 500, 30000), rules)
	assert.NoError(t, err)

	now := t0
	for i := 0; i < 10; i++ {
		now = now.Add(5 * time.Second)
		assert.NoError(t, tr.Update(now, snapshot("ae0001", 0, 0, 480, 30000), rules))
	}
	assert.Equal(t, uint(11), tr.FastCount)
	assert.True(t, rules.IsFastMover(tr, now))

	lastFast := now
	now = now.Add(time.Minute)
	assert.NoError(t, tr.Update(now, snapshot("ae0001", 0, 0, 300, 30000), rules))
	assert.True(t, rules.IsFastMover(tr, now))

	now = lastFast.Add(3 * time.Minute)
	assert.NoError(t, tr.Update(now, snapshot("ae0001", 0, 0, 300, 30000), rules))
	assert.False(t, rules.IsFastMover(tr, now))
}
