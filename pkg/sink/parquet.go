package sink

import (
	"bytes"
	"fmt"
	"os"

	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/slim-bean/adsb-intercept/pkg/detector"
)

type memFile struct {
	buffer *bytes.Buffer
}

func newMemFile() *memFile {
	return &memFile{buffer: &bytes.Buffer{}}
}

func (m *memFile) Create(string) (source.ParquetFile, error) { return m, nil }
func (m *memFile) Open(string) (source.ParquetFile, error)   { return m, nil }
func (m *memFile) Seek(int64, int) (int64, error)            { return int64(m.buffer.Len()), nil }
func (m *memFile) Read([]byte) (int, error)                  { return 0, fmt.Errorf("read not supported") }
func (m *memFile) Write(b []byte) (int, error)               { return m.buffer.Write(b) }
func (m *memFile) Close() error                              { return nil }
func (m *memFile) Bytes() []byte                             { return m.buffer.Bytes() }

// Parquet collects interceptions and writes them as one snappy compressed
// parquet file on Close.
type Parquet struct {
	path    string
	records []record
}

func NewParquet(path string) *Parquet {
	return &Parquet{path: path}
}

func (p *Parquet) Write(ev *detector.Event) error {
	p.records = append(p.records, newRecord(ev))
	return nil
}

func (p *Parquet) encode() ([]byte, error) {
	mem := newMemFile()
	pw, err := writer.NewParquetWriter(mem, new(record), 1)
	if err != nil {
		return nil, fmt.Errorf("new parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, rec := range p.records {
		if err := pw.Write(rec); err != nil {
			pw.WriteStop()
			return nil, fmt.Errorf("write parquet record: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("finalize parquet: %w", err)
	}
	return mem.Bytes(), nil
}

func (p *Parquet) Close() error {
	data, err := p.encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(p.path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", p.path, err)
	}
	return nil
}
