package formats

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"github.com/JonMunkholm/poi-importer/internal/core"
	"golang.org/x/net/html/charset"
)

// RecordElement is the markup tag that delimits one record.
const RecordElement = "DATA_RECORD"

var errNoRoot = errors.New("no root element")

// markupReader walks the XML token stream and yields one mapping per
// RecordElement. Each element is dropped as soon as it has been yielded.
type markupReader struct {
	dec    *xml.Decoder
	record int
	root   bool // an element has been seen
	err    error
}

// ParseMarkup reads XML and yields the direct children of every RecordElement
// as tag -> trimmed text. Children with empty text are left out. Declared
// non-UTF-8 encodings are decoded through x/net/html/charset.
func ParseMarkup(r io.Reader) core.RowReader {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel
	return &markupReader{dec: dec}
}

func (m *markupReader) Next() (core.RawRecord, error) {
	if m.err != nil {
		return nil, m.err
	}

	for {
		tok, err := m.dec.Token()
		if errors.Is(err, io.EOF) {
			if !m.root {
				return nil, m.fail(0, errNoRoot)
			}
			m.err = io.EOF
			return nil, m.err
		}
		if err != nil {
			return nil, m.fail(m.record+1, err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		m.root = true
		if start.Name.Local != RecordElement {
			continue
		}

		m.record++
		row, err := m.readRecord()
		if err != nil {
			return nil, m.fail(m.record, err)
		}
		return row, nil
	}
}

// childText collects the character data directly inside one child element.
type childText struct {
	Text string `xml:",chardata"`
}

// readRecord consumes tokens up to the record's closing tag.
func (m *markupReader) readRecord() (core.RawRecord, error) {
	row := make(core.RawRecord)
	for {
		tok, err := m.dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			var child childText
			if err := m.dec.DecodeElement(&child, &t); err != nil {
				return nil, err
			}
			if text := strings.TrimSpace(child.Text); text != "" {
				row[t.Name.Local] = text
			}
		case xml.EndElement:
			return row, nil
		}
	}
}

func (m *markupReader) fail(record int, err error) error {
	m.err = &core.ParseError{Record: record, Err: err}
	return m.err
}
