/*******************************************************************************
 * Copyright (c) 2025 Genome Research Ltd.
 *
 * Author: Sendu Bala <sb10@sanger.ac.uk>
 *
 * Permission is hereby granted, free of charge, to any person obtaining
 * a copy of this software and associated documentation files (the
 * "Software"), to deal in the Software without restriction, including
 * without limitation the rights to use, copy, modify, merge, publish,
 * distribute, sublicense, and/or sell copies of the Software, and to
 * permit persons to whom the Software is furnished to do so, subject to
 * the following conditions:
 *
 * The above copyright notice and this permission notice shall be included
 * in all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
 * EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF
 * MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.
 * IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY
 * CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER IN AN ACTION OF CONTRACT,
 * TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN CONNECTION WITH THE
 * SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
 ******************************************************************************/

package params

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

type Error string

func (e Error) Error() string { return string(e) }

const (
	ErrParamsMissing    = Error("Parameters file does not exist")
	ErrParamsUnreadable = Error("Parameters file is not readable, please check file permissions")
	ErrRowFormat        = Error("incorrectly formatted (must have exactly 2 columns)")
	ErrUnrecognized     = Error("Unrecognized parameter")
	ErrDuplicate        = Error("Cannot specify the same parameter twice")
	ErrNotBool          = Error("must be set to 'true' or 'false'")
	ErrCast             = Error("could not be cast to the required type")

	commentPrefix = "#"
	rowColumns  = 2
)

// Params holds the parameter values supplied by the user. Parameters that
// weren't supplied are unset.
type Params struct {
	values map[string]Value
}

// New returns a Params with no parameters set.
func New() *Params {
	return &Params{values: make(map[string]Value)}
}

// ParseFile parses the parameters CSV at the given path. An empty path gives
// an empty Params.
func ParseFile(path string) (*Params, error) {
	if path == "" {
		return New(), nil
	}

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrParamsMissing, path)
	}

	if err := unix.Access(path, unix.R_OK); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrParamsUnreadable, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrParamsUnreadable, path)
	}

	defer f.Close()

	return Parse(f)
}

// Parse reads a 2 column CSV of parameter name and value. Lines starting with
// # are ignored; every other line is a row, so a blank line is a row with no
// columns. Names are case-insensitive and surrounding whitespace is ignored.
// Each row must name a known parameter that hasn't been seen before, with a
// value that can be converted to the parameter's Kind. Bool values must be true
// or false.
func Parse(r io.Reader) (*Params, error) {
	scanner := bufio.NewScanner(r)
	p := New()
	row := 0

	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if strings.HasPrefix(line, commentPrefix) {
			continue
		}

		row++

		record, err := parseRow(line)
		if err != nil {
			return nil, fmt.Errorf("Row %d is %w: %w", row, ErrRowFormat, err) //nolint:stylecheck,revive
		}

		if len(record) != rowColumns {
			return nil, fmt.Errorf("Row %d is %w", row, ErrRowFormat) //nolint:stylecheck,revive
		}

		if err = p.set(strings.ToLower(strings.TrimSpace(record[0])), strings.TrimSpace(record[1])); err != nil {
			return nil, err
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParamsUnreadable, err)
	}

	return p, nil
}

// parseRow parses a single line as a CSV record. An empty line has no fields.
func parseRow(line string) ([]string, error) {
	reader := csv.NewReader(strings.NewReader(line))
	reader.FieldsPerRecord = -1

	record, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}

	return record, err
}

// set parses raw according to the Kind of the named parameter and stores it.
func (p *Params) set(name, raw string) error {
	kind, ok := KindOf(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnrecognized, name)
	}

	if _, seen := p.values[name]; seen {
		return fmt.Errorf("%w: %s", ErrDuplicate, name)
	}

	v, err := kind.parse(raw)

	switch {
	case errors.Is(err, ErrNotBool):
		return fmt.Errorf("Parameter %s %w, not %s.", name, ErrNotBool, raw) //nolint:stylecheck,revive
	case err != nil:
		return fmt.Errorf("Parameter %s %w: %s", name, ErrCast, kind) //nolint:stylecheck,revive
	}

	p.values[name] = v

	return nil
}

// Get returns the Value of the named parameter. The Value has Set false if the
// user didn't supply it.
func (p *Params) Get(name string) Value {
	if v, ok := p.values[name]; ok {
		return v
	}

	kind, _ := KindOf(name)

	return Value{Kind: kind}
}

// IsSet returns true if the user supplied the named parameter.
func (p *Params) IsSet(name string) bool {
	return p.Get(name).Set
}

// Int returns the value of the named int parameter, or def if it is unset.
func (p *Params) Int(name string, def int) int {
	if v := p.Get(name); v.Set {
		return v.Int
	}

	return def
}

// Float returns the value of the named float parameter, or def if it is unset.
func (p *Params) Float(name string, def float64) float64 {
	if v := p.Get(name); v.Set {
		return v.Float
	}

	return def
}

// Bool returns the value of the named bool parameter, or def if it is unset.
func (p *Params) Bool(name string, def bool) bool {
	if v := p.Get(name); v.Set {
		return v.Bool
	}

	return def
}

// Str returns the value of the named string parameter, or def if it is unset.
func (p *Params) Str(name, def string) string {
	if v := p.Get(name); v.Set {
		return v.Str
	}

	return def
}

// MarshalJSON gives an object with every known parameter, where unset ones are
// null.
func (p *Params) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(kinds))

	for _, name := range Names() {
		v := p.Get(name)
		if !v.Set {
			out[name] = nil

			continue
		}

		switch v.Kind {
		case KindInt:
			out[name] = v.Int
		case KindFloat:
			out[name] = v.Float
		case KindBool:
			out[name] = v.Bool
		case KindString:
			out[name] = v.Str
		}
	}

	return json.Marshal(out)
}
