package adsbx

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dsnet/compress/bzip2"
	"github.com/go-kit/kit/log"
	jsoniter "github.com/json-iterator/go"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/slim-bean/adsb-intercept/pkg/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Config struct {
	Workers       int  `yaml:"workers"`
	SkipErrors    bool `yaml:"skip_errors"`
	ProgressEvery int  `yaml:"progress_every"`

	S3Region          string `yaml:"s3_region"`
	S3Endpoint        string `yaml:"s3_endpoint"`
	S3PathStyle       bool   `yaml:"s3_path_style"`
	S3AccessKeyID     string `yaml:"s3_access_key_id"`
	S3SecretAccessKey string `yaml:"s3_secret_access_key"`
}

func (c *Config) RegisterFlags(f *flag.FlagSet) {
	f.IntVar(&c.Workers, "ingest.workers", runtime.NumCPU(), "Number of batches decoded in parallel")
	f.BoolVar(&c.SkipErrors, "ingest.skip-errors", false, "Log and skip batches that fail to decode instead of aborting the run")
	f.IntVar(&c.ProgressEvery, "ingest.progress-every", 100, "Log progress every N batches, 0 to disable")
	f.StringVar(&c.S3Region, "ingest.s3.region", "us-east-1", "Region for s3:// sources")
	f.StringVar(&c.S3Endpoint, "ingest.s3.endpoint", "", "Custom endpoint for s3:// sources")
	f.BoolVar(&c.S3PathStyle, "ingest.s3.path-style", false, "Use path style addressing for s3:// sources")
	f.StringVar(&c.S3AccessKeyID, "ingest.s3.access-key-id", "", "Static access key for s3:// sources, the default credential chain is used when empty")
	f.StringVar(&c.S3SecretAccessKey, "ingest.s3.secret-access-key", "", "Static secret key for s3:// sources")
}

// Loader reads batches of aircraft snapshots from local files or S3.
type Loader struct {
	cfg    Config
	logger log.Logger
	// load is Load, replaced in tests.
	load func(ctx context.Context, source string) (*model.Report, error)

	s3Once   sync.Once
	s3Client *s3.Client
	s3Err    error
}

func NewLoader(logger log.Logger, cfg Config) *Loader {
	l := &Loader{
		cfg:    cfg,
		logger: log.With(logger, "component", "loader"),
	}
	l.load = l.Load
	return l
}

// Load reads one batch. Sources ending in .bz2, .gz or .zst are
// decompressed. Any failure is returned as a *DecodeError.
func (l *Loader) Load(ctx context.Context, source string) (*model.Report, error) {
	rc, err := l.open(ctx, source)
	if err != nil {
		return nil, &DecodeError{Source: source, Err: err}
	}
	defer rc.Close()

	r, done, err := decompress(source, rc)
	if err != nil {
		return nil, &DecodeError{Source: source, Err: err}
	}
	defer done()

	rpt, err := Decode(r)
	if err != nil {
		return nil, &DecodeError{Source: source, Err: err}
	}
	return rpt, nil
}

func (l *Loader) open(ctx context.Context, source string) (io.ReadCloser, error) {
	if bucket, key, ok := parseS3URI(source); ok {
		return l.openS3(ctx, bucket, key)
	}
	return os.Open(source)
}

func decompress(source string, r io.Reader) (io.Reader, func(), error) {
	switch {
	case strings.HasSuffix(source, ".bz2"):
		// pbzip2 output is several concatenated streams, the reader
		// continues into each one.
		zr, err := bzip2.NewReader(r, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("opening bzip2 stream: %w", err)
		}
		return zr, func() { zr.Close() }, nil
	case strings.HasSuffix(source, ".gz"):
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("opening gzip stream: %w", err)
		}
		return zr, func() { zr.Close() }, nil
	case strings.HasSuffix(source, ".zst"):
		zr, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, nil, fmt.Errorf("opening zstd stream: %w", err)
		}
		return zr, zr.Close, nil
	}
	return r, func() {}, nil
}

// Decode parses one aircraft.json style batch. The ADS-B Exchange "ac" list
// is folded into Aircraft and flight ids are trimmed.
func Decode(r io.Reader) (*model.Report, error) {
	report := &model.Report{}
	if err := json.NewDecoder(r).Decode(report); err != nil {
		return nil, fmt.Errorf("parsing report: %w", err)
	}
	if len(report.AC) > 0 {
		report.Aircraft = append(report.Aircraft, report.AC...)
		report.AC = nil
	}

	/*
	 * Clean up the flight ID by removing leading and trailing spaces
	 */
	for i, a := range report.Aircraft {
		report.Aircraft[i].Hex = strings.ToLower(strings.TrimSpace(a.Hex))
		if a.Flight != nil {
			trimmed := strings.TrimSpace(*a.Flight)
			report.Aircraft[i].Flight = &trimmed
		}
	}

	return report, nil
}
