package detector

import (
	"time"

	"github.com/google/uuid"
)

type pair struct {
	interceptor, target string
}

type episode struct {
	id   string
	last time.Time
}

// assignEpisode groups interceptions of the same pair into episodes.
// Interceptions less than EpisodeGap apart share one, a gap of EpisodeGap or
// more starts a new one.
func (d *Detector) assignEpisode(ev *Event) {
	k := pair{interceptor: ev.Interceptor.Hex, target: ev.Target.Hex}
	ep, ok := d.episodes[k]
	if !ok || ev.Time.Sub(ep.last) >= d.cfg.EpisodeGap {
		ep = &episode{id: uuid.NewString()}
		d.episodes[k] = ep
		ev.NewEpisode = true
		d.stats.Episodes++
	}
	ep.last = ev.Time
	ev.EpisodeID = ep.id
}
