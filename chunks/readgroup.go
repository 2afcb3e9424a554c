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

package chunks

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/biogo/hts/sam"
	"github.com/wtsi-hgi/scrna-preflight/types"
)

const (
	ErrBadReadGroup = Error("read group must have sample:library:gem_group:flowcell:lane fields")

	readGroupSep       = ":"
	readGroupTrailing  = 4
	readGroupPlatform  = "ILLUMINA"
	readGroupLineFmt   = "@RG\tID:%s\tSM:%s\tLB:%s.%d\tPU:%s\tPL:%s\n"
	readGroupHeaderCap = 128
)

// ReadGroup holds the fields packed in to a chunk's read group string.
type ReadGroup struct {
	SampleID  string
	LibraryID string
	GemGroup  int
	Flowcell  string
	Lane      string
}

// String packs the fields in to the colon separated form understood by the
// aligner.
func (rg ReadGroup) String() string {
	return strings.Join([]string{
		rg.SampleID, rg.LibraryID, strconv.Itoa(rg.GemGroup), rg.Flowcell, rg.Lane,
	}, readGroupSep)
}

// UnpackReadGroup is the inverse of ReadGroup.String(). Sample ids may
// themselves contain colons.
func UnpackReadGroup(s string) (ReadGroup, error) {
	fields := strings.Split(s, readGroupSep)
	if len(fields) <= readGroupTrailing {
		return ReadGroup{}, fmt.Errorf("%w: %q", ErrBadReadGroup, s)
	}

	n := len(fields) - readGroupTrailing

	gemGroup, err := strconv.Atoi(fields[n+1])
	if err != nil {
		return ReadGroup{}, fmt.Errorf("%w: %q", ErrBadReadGroup, s)
	}

	return ReadGroup{
		SampleID:  strings.Join(fields[:n], readGroupSep),
		LibraryID: fields[n],
		GemGroup:  gemGroup,
		Flowcell:  fields[n+2],
		Lane:      fields[n+3],
	}, nil
}

// ReadGroupHeader returns SAM header text with an @RG line for each distinct
// read group of the given chunks, in the order they are first seen. The
// library (LB) is the library id and gem group, and the platform unit (PU) is
// the whole read group string.
func ReadGroupHeader(chunks []*types.Chunk) ([]byte, error) {
	var b strings.Builder

	b.Grow(readGroupHeaderCap * len(chunks))

	seen := make(map[string]bool)

	for _, c := range chunks {
		if seen[c.ReadGroup] {
			continue
		}

		seen[c.ReadGroup] = true

		rg, err := UnpackReadGroup(c.ReadGroup)
		if err != nil {
			return nil, err
		}

		fmt.Fprintf(&b, readGroupLineFmt, c.ReadGroup, rg.SampleID, rg.LibraryID, rg.GemGroup,
			c.ReadGroup, readGroupPlatform)
	}

	text := []byte(b.String())

	if _, err := sam.NewHeader(text, nil); err != nil {
		return nil, err
	}

	return text, nil
}

// FlowcellLanes returns the distinct flowcell lanes the given chunks' reads
// came from, sorted.
func FlowcellLanes(chunks []*types.Chunk) ([]types.FlowcellLane, error) {
	seen := make(map[types.FlowcellLane]bool)

	var fls []types.FlowcellLane

	for _, c := range chunks {
		rg, err := UnpackReadGroup(c.ReadGroup)
		if err != nil {
			return nil, err
		}

		fl := types.FlowcellLane{Flowcell: rg.Flowcell, Lane: rg.Lane}
		if seen[fl] {
			continue
		}

		seen[fl] = true

		fls = append(fls, fl)
	}

	sort.Slice(fls, func(i, j int) bool {
		if fls[i].Flowcell != fls[j].Flowcell {
			return fls[i].Flowcell < fls[j].Flowcell
		}

		return fls[i].Lane < fls[j].Lane
	})

	return fls, nil
}
