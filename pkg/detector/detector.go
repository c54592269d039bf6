package detector

import (
	"errors"
	"flag"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/google/uuid"

	"github.com/slim-bean/adsb-intercept/pkg/model"
	"github.com/slim-bean/adsb-intercept/pkg/proximity"
	"github.com/slim-bean/adsb-intercept/pkg/track"
)

type Config struct {
	EpisodeGap      time.Duration `yaml:"episode_gap"`
	NewEpisodesOnly bool          `yaml:"new_episodes_only"`
	StaleAfter      time.Duration `yaml:"stale_after"`
}

func (c *Config) RegisterFlags(f *flag.FlagSet) {
	f.DurationVar(&c.EpisodeGap, "detector.episode-gap", 5*time.Minute, "Interceptions of the same pair closer together than this belong to one episode")
	f.BoolVar(&c.NewEpisodesOnly, "detector.new-episodes-only", false, "Only send the first interception of each episode to the sinks")
	f.DurationVar(&c.StaleAfter, "detector.stale-after", time.Minute, "Tracks not seen for longer than this are left out of classification until they report again, 0 to disable")
}

// Event is an interception enriched for output.
type Event struct {
	proximity.Interception

	RunID      string `json:"run_id"`
	EpisodeID  string `json:"episode_id"`
	NewEpisode bool   `json:"new_episode"`
	Source     string `json:"source"`

	InterceptorDetails *model.Details `json:"interceptor_details,omitempty"`
	TargetDetails      *model.Details `json:"target_details,omitempty"`
	InterceptorCountry string         `json:"interceptor_country,omitempty"`
	TargetCountry      string         `json:"target_country,omitempty"`
}

type Sink interface {
	Write(ev *Event) error
	Close() error
}

type DetailLookup interface {
	Lookup(hex string) *model.Details
}

type CountryLookup interface {
	Lookup(hex string) string
}

type Stats struct {
	Batches       int
	Snapshots     int
	Tracks        int
	// Track-ticks skipped because the track had stopped reporting.
	Stale         int
	Rejected      map[string]int
	NoPosition    int
	Interceptions int
	Episodes      int
	SinkErrors    int
}

type Option func(*Detector)

func WithDetails(l DetailLookup) Option {
	return func(d *Detector) { d.details = l }
}

func WithCountries(l CountryLookup) Option {
	return func(d *Detector) { d.countries = l }
}

func WithSinks(s ...Sink) Option {
	return func(d *Detector) { d.sinks = append(d.sinks, s...) }
}

// Detector owns the track table. It is not safe for concurrent use, every
// batch must be fed through ProcessReport from a single goroutine in order.
type Detector struct {
	logger  log.Logger
	cfg     Config
	rules   track.Rules
	matcher *proximity.Matcher

	tracks map[string]*track.Track
	// Registration/type/flags as broadcast in the snapshots themselves,
	// used when no database entry exists.
	reported map[string]*model.Details

	details   DetailLookup
	countries CountryLookup
	sinks     []Sink

	episodes map[pair]*episode
	runID    string
	stats    Stats
}

func New(logger log.Logger, cfg Config, rules track.Rules, pcfg proximity.Config, opts ...Option) *Detector {
	d := &Detector{
		logger:   log.With(logger, "component", "detector"),
		cfg:      cfg,
		rules:    rules,
		matcher:  proximity.NewMatcher(pcfg),
		tracks:   map[string]*track.Track{},
		reported: map[string]*model.Details{},
		episodes: map[pair]*episode{},
		runID:    uuid.NewString(),
		stats:    Stats{Rejected: map[string]int{}},
	}
	for _, o := range opts {
		o(d)
	}
	level.Info(d.logger).Log("msg", "detector initialized", "run_id", d.runID, "sinks", len(d.sinks))
	return d
}

// ProcessReport runs one tick: every snapshot in r creates or updates its
// track, then tracks are classified and interceptors matched against
// targets. The resulting events are sent to the sinks and returned.
func (d *Detector) ProcessReport(source string, r *model.Report) []Event {
	now := r.Time()
	d.stats.Batches++

	for i := range r.Aircraft {
		d.fold(source, now, &r.Aircraft[i])
	}

	var interceptors, targets []*track.Track
	for _, t := range d.tracks {
		if d.stale(t, now) {
			d.stats.Stale++
			continue
		}
		switch d.rules.Classify(t, now) {
		case track.Interceptor:
			interceptors = append(interceptors, t)
		case track.Target:
			targets = append(targets, t)
		}
	}

	ics := d.matcher.Match(now, interceptors, targets)
	if len(ics) == 0 {
		return nil
	}
	events := make([]Event, 0, len(ics))
	for _, ic := range ics {
		ev := d.enrich(source, ic)
		d.assignEpisode(&ev)
		events = append(events, ev)
	}
	d.stats.Interceptions += len(events)
	d.emit(events)
	return events
}

// stale reports whether t stopped reporting more than StaleAfter before now.
// Stale tracks are kept and become live again with their next snapshot.
func (d *Detector) stale(t *track.Track, now time.Time) bool {
	return d.cfg.StaleAfter > 0 && now.Sub(t.Seen) > d.cfg.StaleAfter
}

func (d *Detector) fold(source string, now time.Time, ac *model.Aircraft) {
	d.stats.Snapshots++
	d.remember(ac)

	if t, ok := d.tracks[ac.Hex]; ok {
		if err := t.Update(now, ac, d.rules); err != nil {
			d.stats.NoPosition++
			level.Warn(d.logger).Log("msg", "track updated without a position", "source", source, "err", err)
		}
		return
	}

	t, err := track.New(now, ac, d.rules)
	if err != nil {
		var mde *track.MissingDataError
		if errors.As(err, &mde) {
			d.stats.Rejected[mde.Field]++
		}
		level.Debug(d.logger).Log("msg", "skipping aircraft", "source", source, "err", err)
		return
	}
	d.tracks[ac.Hex] = t
	d.stats.Tracks++
}

func (d *Detector) remember(ac *model.Aircraft) {
	if ac.Registration == nil && ac.TypeCode == nil && ac.DBFlags == 0 {
		return
	}
	det := &model.Details{Registration: ac.Registration, TypeCode: ac.TypeCode}
	if ac.DBFlags != 0 {
		set := func(mask int) *bool {
			v := ac.DBFlags&mask != 0
			return &v
		}
		det.Military, det.Interesting, det.PIA, det.LADD = set(1), set(2), set(4), set(8)
	}
	d.reported[ac.Hex] = det
}

func (d *Detector) lookupDetails(hex string) *model.Details {
	if d.details != nil {
		if det := d.details.Lookup(hex); det != nil {
			return det
		}
	}
	return d.reported[hex]
}

func (d *Detector) lookupCountry(hex string) string {
	if d.countries == nil {
		return ""
	}
	return d.countries.Lookup(hex)
}

func (d *Detector) enrich(source string, ic proximity.Interception) Event {
	return Event{
		Interception:       ic,
		RunID:              d.runID,
		Source:             source,
		InterceptorDetails: d.lookupDetails(ic.Interceptor.Hex),
		TargetDetails:      d.lookupDetails(ic.Target.Hex),
		InterceptorCountry: d.lookupCountry(ic.Interceptor.Hex),
		TargetCountry:      d.lookupCountry(ic.Target.Hex),
	}
}

func (d *Detector) emit(events []Event) {
	for i := range events {
		ev := &events[i]
		if d.cfg.NewEpisodesOnly && !ev.NewEpisode {
			continue
		}
		level.Info(d.logger).Log(
			"msg", "interception",
			"time", ev.Time.Format(time.RFC3339),
			"interceptor", ev.Interceptor.Hex,
			"target", ev.Target.Hex,
			"military", ev.InterceptorDetails.IsMilitary(),
			"lateral_ft", int(ev.LateralSeparationFt),
			"vertical_ft", ev.VerticalSeparationFt,
			"episode", ev.EpisodeID,
			"new_episode", ev.NewEpisode,
		)
		for _, s := range d.sinks {
			if err := s.Write(ev); err != nil {
				d.stats.SinkErrors++
				level.Error(d.logger).Log("msg", "failed to write interception", "err", err)
			}
		}
	}
}

// Track returns the current track for hex.
func (d *Detector) Track(hex string) (*track.Track, bool) {
	t, ok := d.tracks[hex]
	return t, ok
}

func (d *Detector) RunID() string { return d.runID }

func (d *Detector) Stats() Stats {
	s := d.stats
	s.Rejected = make(map[string]int, len(d.stats.Rejected))
	for k, v := range d.stats.Rejected {
		s.Rejected[k] = v
	}
	return s
}

// Close closes every sink and returns their errors joined.
func (d *Detector) Close() error {
	var errs []error
	for _, s := range d.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
