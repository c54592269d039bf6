package sink

import (
	"flag"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/grafana/loki/pkg/promtail/client"
	jsoniter "github.com/json-iterator/go"

	"github.com/slim-bean/adsb-intercept/pkg/detector"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Config struct {
	BoltPath    string `yaml:"bolt_path"`
	ParquetPath string `yaml:"parquet_path"`
	CSVPath     string `yaml:"csv_path"`
}

func (c *Config) RegisterFlags(f *flag.FlagSet) {
	f.StringVar(&c.BoltPath, "sink.bolt.path", "", "bbolt file interceptions are stored in, disabled when empty")
	f.StringVar(&c.ParquetPath, "sink.parquet.path", "", "Parquet file written with all interceptions on exit, disabled when empty")
	f.StringVar(&c.CSVPath, "sink.csv.path", "", "CSV file written with all interceptions on exit, disabled when empty")
}

// Build opens every configured sink. Loki is enabled when at least one client
// config is given. On error the sinks opened so far are closed.
func Build(logger log.Logger, cfg Config, clients []client.Config) ([]detector.Sink, error) {
	var sinks []detector.Sink
	fail := func(err error) ([]detector.Sink, error) {
		for _, s := range sinks {
			s.Close()
		}
		return nil, err
	}

	if len(clients) > 0 {
		l, err := NewLoki(logger, clients)
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, l)
	}
	if cfg.BoltPath != "" {
		b, err := OpenBolt(cfg.BoltPath)
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, b)
	}
	if cfg.ParquetPath != "" {
		sinks = append(sinks, NewParquet(cfg.ParquetPath))
	}
	if cfg.CSVPath != "" {
		sinks = append(sinks, NewCSV(cfg.CSVPath))
	}
	level.Info(logger).Log("msg", "sinks configured", "count", len(sinks))
	return sinks, nil
}
