package country

import (
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"strconv"
	"strings"

	"github.com/dimchansky/utfbom"
	"github.com/gocarina/gocsv"
)

// Range is one block of ICAO 24-bit addresses allocated to a country.
type Range struct {
	Start   string `csv:"start"`
	End     string `csv:"end"`
	Country string `csv:"country"`

	lo, hi uint32
}

type Config struct {
	RangesFile string `yaml:"ranges_file"`
}

func (c *Config) RegisterFlags(f *flag.FlagSet) {
	f.StringVar(&c.RangesFile, "country.ranges-file", "", "CSV of ICAO address allocations (start,end,country) used to tag interceptions with a country, disabled when empty")
}

// Table maps ICAO addresses to the country they are allocated to. Earlier
// rows take priority over later ones.
type Table struct {
	ranges []Range
}

func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open country ranges: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

func Parse(r io.Reader) (*Table, error) {
	bts, err := ioutil.ReadAll(utfbom.SkipOnly(r))
	if err != nil {
		return nil, fmt.Errorf("read country ranges: %w", err)
	}

	ranges := []Range{}
	if err := gocsv.UnmarshalBytes(bts, &ranges); err != nil {
		return nil, fmt.Errorf("parse country ranges: %w", err)
	}
	for i := range ranges {
		rg := &ranges[i]
		rg.Country = strings.TrimSpace(rg.Country)
		if rg.lo, err = parseAddr(rg.Start); err != nil {
			return nil, fmt.Errorf("row %d start: %w", i+1, err)
		}
		if rg.hi, err = parseAddr(rg.End); err != nil {
			return nil, fmt.Errorf("row %d end: %w", i+1, err)
		}
		if rg.lo > rg.hi {
			return nil, fmt.Errorf("row %d: start %s after end %s", i+1, rg.Start, rg.End)
		}
	}
	return &Table{ranges: ranges}, nil
}

func parseAddr(s string) (uint32, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "0x")
	v, err := strconv.ParseUint(s, 16, 24)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

// Lookup returns the country for hex, or "" when the address is not in any
// range or is not an ICAO address (e.g. "~" prefixed TIS-B ids). Safe to
// call on a nil Table.
func (t *Table) Lookup(hex string) string {
	if t == nil {
		return ""
	}
	addr, err := parseAddr(hex)
	if err != nil {
		return ""
	}
	for _, rg := range t.ranges {
		if addr >= rg.lo && addr <= rg.hi {
			return rg.Country
		}
	}
	return ""
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.ranges)
}
