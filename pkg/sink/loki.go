package sink

import (
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/grafana/loki/pkg/promtail/client"
	"github.com/grafana/loki/pkg/util/flagext"
	"github.com/prometheus/common/model"

	"github.com/slim-bean/adsb-intercept/pkg/detector"
)

const lokiJob = "adsb-intercept"

// Loki pushes every interception as one log line, the event JSON, stamped
// with the interception time.
type Loki struct {
	logger log.Logger
	client client.Client
}

func NewLoki(logger log.Logger, cfgs []client.Config) (*Loki, error) {
	logger = log.With(logger, "component", "loki-sink")
	c, err := client.NewMulti(logger, flagext.LabelSet{}, cfgs...)
	if err != nil {
		level.Error(logger).Log("msg", "failed to create new Loki client(s)", "err", err)
		return nil, err
	}
	level.Info(logger).Log("msg", "loki sink initialized", "clients", len(cfgs))
	return &Loki{logger: logger, client: c}, nil
}

func (l *Loki) Write(ev *detector.Event) error {
	bts, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return l.client.Handle(eventLabels(ev), ev.Time, string(bts))
}

func eventLabels(ev *detector.Event) model.LabelSet {
	return model.LabelSet{
		model.LabelName("job"):         model.LabelValue(lokiJob),
		model.LabelName("interceptor"): model.LabelValue(ev.Interceptor.Hex),
		model.LabelName("target"):      model.LabelValue(ev.Target.Hex),
	}
}

// Close flushes pending batches and stops the clients.
func (l *Loki) Close() error {
	level.Info(l.logger).Log("msg", "loki sink closing clients")
	l.client.Stop()
	return nil
}
