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

package types

import (
	"encoding/json"

	"github.com/wtsi-hgi/scrna-preflight/chemistry"
)

const (
	ReadTypeR1 = "R1"
	ReadTypeR2 = "R2"
	ReadTypeI1 = "I1"
	ReadTypeI2 = "I2"

	jsonNull = "null"
)

// ReadTypes returns the logical FASTQ read types every chunk has an entry for,
// in their canonical order.
func ReadTypes() []string {
	return []string{ReadTypeR1, ReadTypeR2, ReadTypeI1, ReadTypeI2}
}

// ReadTypeDescription returns a human readable name for the given read type.
func ReadTypeDescription(readType string) string {
	switch readType {
	case ReadTypeR1:
		return "Read 1"
	case ReadTypeR2:
		return "Read 2"
	case ReadTypeI1:
		return "Index read 1"
	case ReadTypeI2:
		return "Index read 2"
	default:
		return readType
	}
}

// FastqPath is the path to a FASTQ file. The empty FastqPath is a placeholder
// for a read type that has no file, and is encoded in JSON as null.
type FastqPath string

// MarshalJSON implements json.Marshaler.
func (p FastqPath) MarshalJSON() ([]byte, error) {
	if p == "" {
		return []byte(jsonNull), nil
	}

	return json.Marshal(string(p))
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *FastqPath) UnmarshalJSON(data []byte) error {
	if string(data) == jsonNull {
		*p = ""

		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	*p = FastqPath(s)

	return nil
}

// Chunk is one unit of downstream alignment and counting work: the FASTQs of
// one lane (or one chunk of a lane) of one library.
type Chunk struct {
	GemGroup         int                  `json:"gem_group"`
	LibraryType      LibraryType          `json:"library_type"`
	LibraryID        string               `json:"library_id"`
	ReadsInterleaved bool                 `json:"reads_interleaved"`
	ReadChunks       map[string]FastqPath `json:"read_chunks"`
	Chemistry        *chemistry.Def       `json:"chemistry"`
	SubsampleRate    float64              `json:"subsample_rate,omitempty"`
	TargetSetName    string               `json:"target_set_name,omitempty"`
	ReadGroup        string               `json:"read_group"`
}

// Paths returns the non-placeholder FASTQ paths of this chunk, in ReadTypes()
// order.
func (c *Chunk) Paths() []string {
	paths := make([]string, 0, len(c.ReadChunks))

	for _, rt := range ReadTypes() {
		if p := c.ReadChunks[rt]; p != "" {
			paths = append(paths, string(p))
		}
	}

	return paths
}

// FlowcellLane identifies a lane of a sequencing flowcell.
type FlowcellLane struct {
	Flowcell string `json:"flowcell"`
	Lane     string `json:"lane"`
}
