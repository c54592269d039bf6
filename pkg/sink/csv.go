package sink

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"

	"github.com/slim-bean/adsb-intercept/pkg/detector"
)

// CSV collects interceptions and writes them with a header row on Close.
type CSV struct {
	path string
	rows []*record
}

func NewCSV(path string) *CSV {
	return &CSV{path: path}
}

func (c *CSV) Write(ev *detector.Event) error {
	rec := newRecord(ev)
	c.rows = append(c.rows, &rec)
	return nil
}

func (c *CSV) Close() error {
	f, err := os.Create(c.path)
	if err != nil {
		return err
	}
	if err := gocsv.MarshalFile(&c.rows, f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", c.path, err)
	}
	return f.Close()
}
