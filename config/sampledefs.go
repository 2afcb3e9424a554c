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

package config

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/wtsi-hgi/scrna-preflight/types"
)

const (
	ErrNoSampleDefs = Error("no sample_defs found")

	sampleDefsKey = "sample_defs"
	koanfDelim    = "."
)

// sampleDefEntry is how a sample def is written in a sample defs file.
type sampleDefEntry struct {
	SampleID      string              `koanf:"sample_id"`
	ReadPath      string              `koanf:"read_path"`
	FastqMode     string              `koanf:"fastq_mode"`
	SampleNames   []string            `koanf:"sample_names"`
	SampleIndices []string            `koanf:"sample_indices"`
	Lanes         []int               `koanf:"lanes"`
	Files         map[string][]string `koanf:"files"`
	GemGroup      int                 `koanf:"gem_group"`
	LibraryType   string              `koanf:"library_type"`
	LibraryID     string              `koanf:"library_id"`
	SubsampleRate float64             `koanf:"subsample_rate"`
	TargetSetName string              `koanf:"target_set_name"`
	Chemistry     string              `koanf:"chemistry"`
}

func (e sampleDefEntry) toSampleDef(defaultSampleID string) (*types.SampleDef, error) {
	sampleID := e.SampleID
	if sampleID == "" {
		sampleID = defaultSampleID
	}

	return types.NewSampleDef(types.SampleDef{
		SampleID: sampleID,
		Locator: types.FastqLocator{
			Path:          e.ReadPath,
			Mode:          types.FastqMode(e.FastqMode),
			SampleNames:   e.SampleNames,
			SampleIndices: e.SampleIndices,
			Lanes:         e.Lanes,
			Files:         e.Files,
		},
		GemGroup:      e.GemGroup,
		LibraryType:   types.LibraryType(e.LibraryType),
		LibraryID:     e.LibraryID,
		SubsampleRate: e.SubsampleRate,
		TargetSetName: e.TargetSetName,
		Chemistry:     e.Chemistry,
	})
}

// LoadSampleDefs reads the sample_defs list from the given YAML or JSON file,
// in file order. Entries without a sample_id get defaultSampleID. Each entry is
// validated with types.NewSampleDef().
func LoadSampleDefs(path, defaultSampleID string) ([]*types.SampleDef, error) {
	k := koanf.New(koanfDelim)

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("loading sample defs %s: %w", path, err)
	}

	var entries []sampleDefEntry

	if err := k.Unmarshal(sampleDefsKey, &entries); err != nil {
		return nil, fmt.Errorf("parsing sample defs %s: %w", path, err)
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSampleDefs, path)
	}

	defs := make([]*types.SampleDef, len(entries))

	for i, e := range entries {
		sd, err := e.toSampleDef(defaultSampleID)
		if err != nil {
			return nil, fmt.Errorf("sample def %d in %s: %w", i+1, path, err)
		}

		defs[i] = sd
	}

	return defs, nil
}
