package cfg

import (
	"flag"

	"github.com/grafana/loki/pkg/promtail/client"

	"github.com/slim-bean/adsb-intercept/pkg/adsbx"
	"github.com/slim-bean/adsb-intercept/pkg/aircraft"
	"github.com/slim-bean/adsb-intercept/pkg/country"
	"github.com/slim-bean/adsb-intercept/pkg/detector"
	"github.com/slim-bean/adsb-intercept/pkg/proximity"
	"github.com/slim-bean/adsb-intercept/pkg/sink"
	"github.com/slim-bean/adsb-intercept/pkg/track"
)

type Config struct {
	ClientConfig  client.Config    `yaml:"client,omitempty"`
	ClientConfigs []client.Config  `yaml:"clients,omitempty"`
	Ingest        adsbx.Config     `yaml:"ingest,omitempty"`
	Rules         track.Rules      `yaml:"rules,omitempty"`
	Proximity     proximity.Config `yaml:"proximity,omitempty"`
	Detector      detector.Config  `yaml:"detector,omitempty"`
	AircraftDB    aircraft.Config  `yaml:"aircraft_db,omitempty"`
	CountryRanges country.Config   `yaml:"country,omitempty"`
	Sinks         sink.Config      `yaml:"sinks,omitempty"`
}

// RegisterFlags registers the flags of every component. The client.* flags
// configure a single Loki client; more can be listed under clients in yaml.
func (c *Config) RegisterFlags(f *flag.FlagSet) {
	c.ClientConfig.RegisterFlags(f)
	c.Ingest.RegisterFlags(f)
	c.Rules.RegisterFlags(f)
	c.Proximity.RegisterFlags(f)
	c.Detector.RegisterFlags(f)
	c.AircraftDB.RegisterFlags(f)
	c.CountryRanges.RegisterFlags(f)
	c.Sinks.RegisterFlags(f)
}

// LokiClients returns the configured Loki clients, the flag configured one
// first when it has a URL.
func (c *Config) LokiClients() []client.Config {
	var out []client.Config
	if c.ClientConfig.URL.URL != nil {
		out = append(out, c.ClientConfig)
	}
	return append(out, c.ClientConfigs...)
}
