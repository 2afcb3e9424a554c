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

package sheets

import (
	"fmt"
	"strings"

	"github.com/wtsi-hgi/scrna-preflight/types"
)

const (
	colSampleID      = "sample_id"
	colFastqPath     = "fastq_path"
	colFastqMode     = "fastq_mode"
	colSampleNames   = "sample_names"
	colSampleIndices = "sample_indices"
	colLanes         = "lanes"
	colGemGroup      = "gem_group"
	colLibraryType   = "library_type"
	colSubsampleRate = "subsample_rate"
	colTargetSet     = "target_set"
	colChemistry     = "chemistry"
	colLibraryID     = "library_id"

	// sheet rows are numbered from 1 and the first is the header.
	firstDataRow = 2
)

var requiredColumns = []string{colSampleID, colFastqPath} //nolint:gochecknoglobals

var optionalColumns = []string{ //nolint:gochecknoglobals
	colFastqMode, colSampleNames, colSampleIndices, colLanes, colGemGroup,
	colLibraryType, colSubsampleRate, colTargetSet, colChemistry, colLibraryID,
}

// SampleDefs reads the given sheet of the given document and converts its rows
// to sample defs. See Sheet.SampleDefs().
func (s *Sheets) SampleDefs(docID, sheetName string) ([]*types.SampleDef, error) {
	sheet, err := s.Read(docID, sheetName)
	if err != nil {
		return nil, err
	}

	return sheet.SampleDefs()
}

// SampleDefs converts each row of this sheet to a validated sample def, in
// row order. The sheet must have sample_id and fastq_path columns, and can
// also have fastq_mode, sample_names, sample_indices, lanes, gem_group,
// library_type, subsample_rate, target_set, chemistry and library_id columns.
// The sample_names, sample_indices and lanes cells are comma separated lists.
//
// Rows with an empty sample_id are ignored.
func (s *Sheet) SampleDefs() ([]*types.SampleDef, error) {
	cols, err := s.Columns(requiredColumns...)
	if err != nil {
		return nil, err
	}

	var defs []*types.SampleDef

	for i, row := range cols {
		if strings.TrimSpace(row[0]) == "" {
			continue
		}

		sd, err := s.rowToSampleDef(i, row[0], row[1])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+firstDataRow, err)
		}

		defs = append(defs, sd)
	}

	return defs, nil
}

func (s *Sheet) rowToSampleDef(i int, sampleID, fastqPath string) (*types.SampleDef, error) {
	opt := s.optionalCells(i)
	c := &converter{}

	def := types.SampleDef{
		SampleID: strings.TrimSpace(sampleID),
		Locator: types.FastqLocator{
			Path:          strings.TrimSpace(fastqPath),
			Mode:          c.ToFastqMode(opt[colFastqMode]),
			SampleNames:   c.ToList(opt[colSampleNames]),
			SampleIndices: c.ToList(opt[colSampleIndices]),
			Lanes:         c.ToIntList(opt[colLanes]),
		},
		GemGroup:      c.ToInt(opt[colGemGroup]),
		LibraryType:   c.ToLibraryType(opt[colLibraryType]),
		SubsampleRate: c.ToFloat(opt[colSubsampleRate]),
		TargetSetName: opt[colTargetSet],
		Chemistry:     opt[colChemistry],
		LibraryID:     opt[colLibraryID],
	}

	if c.Err != nil {
		return nil, c.Err
	}

	return types.NewSampleDef(def)
}

// optionalCells returns the trimmed values of the optional columns of the
// given data row, keyed on column name. Absent columns and cells are empty.
func (s *Sheet) optionalCells(i int) map[string]string {
	cells := make(map[string]string, len(optionalColumns))
	row := s.Rows[i]

	for _, name := range optionalColumns {
		if idx := s.columnIndex(name); idx >= 0 && idx < len(row) {
			cells[name] = strings.TrimSpace(row[idx])
		}
	}

	return cells
}
