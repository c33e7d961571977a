package formats

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/JonMunkholm/poi-importer/internal/core"
)

// delimitedReader yields one mapping per CSV row, keyed by the header row.
// Only the current row is held in memory.
type delimitedReader struct {
	r      *csv.Reader
	header []string
	record int
	err    error
}

// ParseDelimited reads CSV with a header row. Blank lines are skipped; a row
// shorter than the header simply lacks the trailing keys.
func ParseDelimited(r io.Reader) core.RowReader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true
	return &delimitedReader{r: cr}
}

func (d *delimitedReader) Next() (core.RawRecord, error) {
	if d.err != nil {
		return nil, d.err
	}

	if d.header == nil {
		header, err := d.r.Read()
		if err != nil {
			return nil, d.fail(0, err)
		}
		d.header = make([]string, len(header))
		for i, name := range header {
			d.header[i] = strings.TrimSpace(name)
		}
	}

	rec, err := d.r.Read()
	if err != nil {
		return nil, d.fail(d.record+1, err)
	}
	d.record++

	row := make(core.RawRecord, len(d.header))
	for i, name := range d.header {
		if i < len(rec) {
			row[name] = rec[i]
		}
	}
	return row, nil
}

// fail terminates the sequence. Record 0 is the header row.
func (d *delimitedReader) fail(record int, err error) error {
	if errors.Is(err, io.EOF) {
		d.err = io.EOF
	} else {
		d.err = &core.ParseError{Record: record, Err: err}
	}
	return d.err
}
