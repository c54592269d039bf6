package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/cortexproject/cortex/pkg/util/flagext"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	lokiconfig "github.com/grafana/loki/pkg/cfg"
	"github.com/prometheus/common/version"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/slim-bean/adsb-intercept/pkg/adsbx"
	"github.com/slim-bean/adsb-intercept/pkg/aircraft"
	"github.com/slim-bean/adsb-intercept/pkg/cfg"
	"github.com/slim-bean/adsb-intercept/pkg/country"
	"github.com/slim-bean/adsb-intercept/pkg/detector"
	"github.com/slim-bean/adsb-intercept/pkg/model"
	"github.com/slim-bean/adsb-intercept/pkg/sink"
)

type Config struct {
	cfg.Config   `yaml:",inline"`
	printVersion bool
	configFile   string
	logLevel     string
	logFile      string
}

func (c *Config) RegisterFlags(f *flag.FlagSet) {
	f.BoolVar(&c.printVersion, "version", false, "Print this builds version information")
	f.StringVar(&c.configFile, "config.file", "", "yaml file to load")
	f.StringVar(&c.logLevel, "log.level", "info", "Only log messages with the given severity or above. Valid levels: [debug, info, warn, error]")
	f.StringVar(&c.logFile, "log.file", "", "Write logs to this file with rotation instead of stderr")
	c.Config.RegisterFlags(f)
}

// Clone takes advantage of pass-by-value semantics to return a distinct *Config.
// This is primarily used to parse a different flag set without mutating the receiver.
func (c *Config) Clone() flagext.Registerer {
	return func(c Config) *Config {
		return &c
	}(*c)
}

func main() {

	var config Config

	if err := lokiconfig.Parse(&config); err != nil {
		fmt.Fprintf(os.Stderr, "failed parsing config: %v\n", err)
		os.Exit(1)
	}
	if config.printVersion {
		fmt.Println(version.Print("adsb-intercept"))
		os.Exit(0)
	}

	sources := flag.Args()
	if len(sources) == 0 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <source>...\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	logger, err := newLogger(config.logLevel, config.logFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logging: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go sig(logger, cancel)

	err = run(ctx, logger, &config.Config, sources)
	cancel()
	if err != nil {
		level.Error(logger).Log("msg", "run failed", "err", err)
		os.Exit(1)
	}
	level.Info(logger).Log("msg", "shutdown complete")
	os.Exit(0)
}

func newLogger(lvl, file string) (log.Logger, error) {
	var w io.Writer = os.Stderr
	if file != "" {
		w = &lumberjack.Logger{
			Filename:   file,
			MaxSize:    64, // MB
			MaxBackups: 3,
			Compress:   true,
		}
	}

	var opt level.Option
	switch lvl {
	case "debug":
		opt = level.AllowDebug()
	case "info":
		opt = level.AllowInfo()
	case "warn":
		opt = level.AllowWarn()
	case "error":
		opt = level.AllowError()
	default:
		return nil, fmt.Errorf("unrecognized log level %q", lvl)
	}

	var logger log.Logger
	logger = log.NewLogfmtLogger(log.NewSyncWriter(w))
	logger = level.NewFilter(logger, opt)
	logger = log.With(logger, "ts", log.DefaultTimestamp, "caller", log.DefaultCaller)
	return logger, nil
}

func run(ctx context.Context, logger log.Logger, c *cfg.Config, sources []string) error {
	var opts []detector.Option

	if c.AircraftDB.File != "" {
		m, err := aircraft.NewAircraftManager(logger, c.AircraftDB)
		if err != nil {
			return fmt.Errorf("failed to init the aircraft database: %w", err)
		}
		opts = append(opts, detector.WithDetails(m))
	}
	if c.CountryRanges.RangesFile != "" {
		tbl, err := country.Load(c.CountryRanges.RangesFile)
		if err != nil {
			return fmt.Errorf("failed to load country ranges: %w", err)
		}
		level.Info(logger).Log("msg", "country ranges loaded", "file", c.CountryRanges.RangesFile, "ranges", tbl.Len())
		opts = append(opts, detector.WithCountries(tbl))
	}

	sinks, err := sink.Build(logger, c.Sinks, c.LokiClients())
	if err != nil {
		return fmt.Errorf("failed to init the sinks: %w", err)
	}
	opts = append(opts, detector.WithSinks(sinks...))

	d := detector.New(logger, c.Detector, c.Rules, c.Proximity, opts...)
	loader := adsbx.NewLoader(logger, c.Ingest)

	start := time.Now()
	ls, err := loader.ForEach(ctx, sources, func(source string, r *model.Report) error {
		d.ProcessReport(source, r)
		return nil
	})

	s := d.Stats()
	level.Info(logger).Log(
		"msg", "run finished",
		"run_id", d.RunID(),
		"duration", time.Since(start),
		"sources", len(sources),
		"delivered", ls.Delivered,
		"skipped", ls.Skipped,
		"snapshots", s.Snapshots,
		"tracks", s.Tracks,
		"no_position", s.NoPosition,
		"stale", s.Stale,
		"interceptions", s.Interceptions,
		"episodes", s.Episodes,
		"sink_errors", s.SinkErrors,
	)
	for field, n := range s.Rejected {
		level.Info(logger).Log("msg", "snapshots rejected", "missing", field, "count", n)
	}

	if cerr := d.Close(); cerr != nil {
		level.Error(logger).Log("msg", "failed to close sinks", "err", cerr)
		if err == nil {
			err = cerr
		}
	}
	return err
}

func sig(logger log.Logger, cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)
	defer signal.Stop(sigs)
	buf := make([]byte, 1<<20)
	for {
		select {
		case sig := <-sigs:
			switch sig {
			case syscall.SIGINT, syscall.SIGTERM:
				level.Info(logger).Log("msg", "=== received SIGINT/SIGTERM ===")
				cancel()
				return
			case syscall.SIGQUIT:
				stacklen := runtime.Stack(buf, true)
				level.Info(logger).Log("msg", fmt.Sprintf("=== received SIGQUIT ===\n*** goroutine dump...\n%s\n*** end", buf[:stacklen]))
			}
		}
	}
}
