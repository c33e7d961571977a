package formats

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/JonMunkholm/poi-importer/internal/core"
)

// documentReader decodes a JSON document incrementally. A root object is one
// record; a root array yields each element in turn. Only the current element
// is held in memory.
type documentReader struct {
	br      *bufio.Reader
	dec     *json.Decoder
	started bool
	array   bool
	done    bool
	record  int
	err     error
}

// ParseDocument reads a JSON object or an array of objects. Numbers are kept
// as json.Number so identifiers retain their textual form.
func ParseDocument(r io.Reader) core.RowReader {
	br := bufio.NewReader(r)
	dec := json.NewDecoder(br)
	dec.UseNumber()
	return &documentReader{br: br, dec: dec}
}

func (d *documentReader) Next() (core.RawRecord, error) {
	if d.err != nil {
		return nil, d.err
	}

	if !d.started {
		d.started = true
		if err := d.openRoot(); err != nil {
			return nil, d.fail(err)
		}
	}

	if !d.array {
		if d.done {
			return nil, d.finish()
		}
		d.done = true
		d.record++
		return d.decodeObject()
	}

	if !d.dec.More() {
		if _, err := d.dec.Token(); err != nil {
			return nil, d.fail(err)
		}
		return nil, d.finish()
	}
	d.record++
	return d.decodeObject()
}

// openRoot peeks at the first significant byte to tell an object root from an
// array root without consuming the object.
func (d *documentReader) openRoot() error {
	for {
		b, err := d.br.ReadByte()
		if errors.Is(err, io.EOF) {
			return errors.New("empty document")
		}
		if err != nil {
			return err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		if err := d.br.UnreadByte(); err != nil {
			return err
		}

		switch b {
		case '[':
			d.array = true
			_, err := d.dec.Token()
			return err
		case '{':
			return nil
		default:
			return fmt.Errorf("document root must be an object or an array, found %q", b)
		}
	}
}

func (d *documentReader) decodeObject() (core.RawRecord, error) {
	var v any
	if err := d.dec.Decode(&v); err != nil {
		return nil, d.fail(err)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, d.fail(fmt.Errorf("element is %s, not an object", jsonKind(v)))
	}
	return core.RawRecord(obj), nil
}

// finish ends the sequence with io.EOF when nothing but whitespace follows
// the root value.
func (d *documentReader) finish() error {
	_, err := d.dec.Token()
	if errors.Is(err, io.EOF) {
		d.err = io.EOF
		return d.err
	}
	if err == nil {
		err = errors.New("unexpected data after document root")
	}
	return d.fail(err)
}

func (d *documentReader) fail(err error) error {
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	d.err = &core.ParseError{Record: d.record, Err: err}
	return d.err
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "an array"
	case string:
		return "a string"
	case json.Number:
		return "a number"
	case bool:
		return "a boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}
