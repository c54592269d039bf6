package aircraft

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/klauspost/compress/gzip"

	"github.com/slim-bean/adsb-intercept/pkg/model"
)

var (
	trueVar = true
)

type Config struct {
	File     string `yaml:"file"`
	URL      string `yaml:"url"`
	Download bool   `yaml:"download"`
}

func (c *Config) RegisterFlags(f *flag.FlagSet) {
	f.StringVar(&c.File, "aircraft-db.file", "", "tar1090-db aircraft.csv.gz used to enrich interceptions, disabled when empty")
	f.StringVar(&c.URL, "aircraft-db.url", "https://github.com/wiedehopf/tar1090-db/raw/csv/aircraft.csv.gz", "Where to get aircraft information")
	f.BoolVar(&c.Download, "aircraft-db.download", false, "Download the aircraft database when the file is missing or more than a day old")
}

// Manager holds aircraft details keyed by lower case hex.
type Manager struct {
	logger  log.Logger
	config  Config
	details map[string]*model.Details
}

func NewAircraftManager(logger log.Logger, config Config) (*Manager, error) {
	m := &Manager{
		logger: log.With(logger, "component", "aircraft-db"),
		config: config,
	}

	if config.Download {
		if err := m.checkAndUpdateFile(); err != nil {
			level.Warn(m.logger).Log("msg", "could not refresh aircraft database, using the file on disk", "err", err)
		}
	}
	if err := m.load(); err != nil {
		return nil, err
	}
	level.Info(m.logger).Log("msg", "aircraft database loaded", "file", config.File, "mapLength", len(m.details))
	return m, nil
}

// Lookup is safe to call on a nil Manager.
func (m *Manager) Lookup(hex string) *model.Details {
	if m == nil {
		return nil
	}
	return m.details[strings.ToLower(hex)]
}

func (m *Manager) Len() int {
	if m == nil {
		return 0
	}
	return len(m.details)
}

func (m *Manager) checkAndUpdateFile() error {
	fi, err := os.Stat(m.config.File)
	if err == nil {
		if time.Since(fi.ModTime()) < 24*time.Hour {
			return nil
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat %s: %w", m.config.File, err)
	}

	// File does not exist or it's more than 24 hours old.
	level.Info(m.logger).Log("msg", "downloading aircraft database", "url", m.config.URL)

	resp, err := http.Get(m.config.URL)
	if err != nil {
		return fmt.Errorf("download %s: %w", m.config.URL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: %s", m.config.URL, resp.Status)
	}

	tmp := m.config.File + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp)
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp, m.config.File); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(m.config.File), err)
	}

	level.Info(m.logger).Log("msg", "new aircraft database downloaded and replaced existing file")
	return nil
}

func (m *Manager) load() error {
	file, err := os.Open(m.config.File)
	if err != nil {
		return fmt.Errorf("open aircraft database: %w", err)
	}
	defer file.Close()

	var r io.Reader = file
	if strings.HasSuffix(m.config.File, ".gz") {
		zr, err := gzip.NewReader(file)
		if err != nil {
			return fmt.Errorf("open gzip reader on %s: %w", m.config.File, err)
		}
		defer zr.Close()
		r = zr
	}
	m.details = buildDetails(r)
	return nil
}

// buildDetails parses the tar1090-db csv: hex;registration;type;flags;
// description;year;owner. Semicolons escaped with a backslash are part of
// the field.
func buildDetails(reader io.Reader) map[string]*model.Details {
	lastPos := 0
	part := 0
	hex := ""
	details := model.Details{}
	nMap := map[string]*model.Details{}
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		line := scanner.Text()
		for p, r := range line {
			if r != ';' {
				continue
			}
			if p > 0 && line[p-1] == '\\' {
				continue
			}
			if p-lastPos > 1 {
				var substr string
				if lastPos == 0 {
					substr = line[lastPos:p]
				} else {
					substr = line[lastPos+1 : p]
				}
				switch part {
				case 0:
					hex = substr
				case 1:
					details.Registration = &substr
				case 2:
					details.TypeCode = &substr
				case 3:
					applyFlags(&details, substr)
				case 4:
					details.Description = &substr
				case 5:
					details.Manufactured = &substr
				case 6:
					details.Owner = &substr
				}
			}
			part++
			lastPos = p
		}
		lastPos = 0
		part = 0
		copyDetails := details
		nMap[strings.TrimSpace(strings.ToLower(hex))] = &copyDetails
		details = model.Details{}
	}
	return nMap
}

// applyFlags decodes the flags column, one character per flag: military,
// interesting, PIA, LADD.
func applyFlags(d *model.Details, flags string) {
	targets := []**bool{&d.Military, &d.Interesting, &d.PIA, &d.LADD}
	for i, dst := range targets {
		if i < len(flags) && flags[i] == '1' {
			*dst = &trueVar
		}
	}
}
