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
	"fmt"
	"maps"
	"slices"
)

const (
	ErrMissingSampleID    = Error("sample def has no sample id")
	ErrMissingLocator     = Error("sample def has no FASTQ path or files")
	ErrMissingSampleNames = Error("sample def in ILMN_BCL2FASTQ mode has no sample names")
	ErrInvalidFastqMode   = Error("invalid fastq mode")
	ErrInvalidGemGroup    = Error("gem_group must be a positive integer")
	ErrInvalidSubsample   = Error("subsample_rate must be greater than 0 and at most 1")
	ErrInvalidLane        = Error("lanes must be positive integers")
	ErrEmptyFastqPath     = Error("explicit FASTQ file paths must not be empty")

	// AnySampleIndex matches every sample index in BCL_PROCESSOR mode.
	AnySampleIndex = "any"
)

type FastqMode string

const (
	FastqModeBCL2Fastq    FastqMode = "ILMN_BCL2FASTQ"
	FastqModeBCLProcessor FastqMode = "BCL_PROCESSOR"
)

// StringToFastqMode converts a string to a FastqMode. The empty string is
// treated as FastqModeBCL2Fastq.
func StringToFastqMode(s string) (FastqMode, error) {
	switch FastqMode(s) {
	case "", FastqModeBCL2Fastq:
		return FastqModeBCL2Fastq, nil
	case FastqModeBCLProcessor:
		return FastqModeBCLProcessor, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidFastqMode, s)
	}
}

// FastqLocator says where the FASTQ files for a sample def can be found. Either
// Path is a directory of demultiplexed FASTQs named according to Mode, or Files
// lists the FASTQs explicitly, keyed on filename read type tag (R1, R2, I1, I2,
// RA).
type FastqLocator struct {
	Path          string              `json:"read_path,omitempty"`
	Mode          FastqMode           `json:"fastq_mode,omitempty"`
	SampleNames   []string            `json:"sample_names,omitempty"`
	SampleIndices []string            `json:"sample_indices,omitempty"`
	Lanes         []int               `json:"lanes,omitempty"`
	Files         map[string][]string `json:"files,omitempty"`
}

// Explicit returns true if this locator lists its files rather than globbing
// for them.
func (l FastqLocator) Explicit() bool {
	return len(l.Files) > 0
}

// WantsLane returns true if the given lane is one this locator is restricted
// to, or if it has no lane restriction.
func (l FastqLocator) WantsLane(lane int) bool {
	return len(l.Lanes) == 0 || slices.Contains(l.Lanes, lane)
}

func (l FastqLocator) clone() FastqLocator {
	c := l
	c.SampleNames = slices.Clone(l.SampleNames)
	c.SampleIndices = slices.Clone(l.SampleIndices)
	c.Lanes = slices.Clone(l.Lanes)

	if l.Files != nil {
		c.Files = make(map[string][]string, len(l.Files))
		for tag, files := range l.Files {
			c.Files[tag] = slices.Clone(files)
		}
	}

	return c
}

func (l FastqLocator) validate() error {
	if !l.Explicit() && l.Path == "" {
		return ErrMissingLocator
	}

	if l.Explicit() {
		return l.validateFiles()
	}

	if _, err := StringToFastqMode(string(l.Mode)); err != nil {
		return err
	}

	if l.Mode != FastqModeBCLProcessor && len(l.SampleNames) == 0 {
		return ErrMissingSampleNames
	}

	for _, lane := range l.Lanes {
		if lane < 1 {
			return fmt.Errorf("%w: %d", ErrInvalidLane, lane)
		}
	}

	return nil
}

func (l FastqLocator) validateFiles() error {
	tags := slices.Sorted(maps.Keys(l.Files))

	for _, tag := range tags {
		if slices.Contains(l.Files[tag], "") {
			return fmt.Errorf("%w (read type %s)", ErrEmptyFastqPath, tag)
		}
	}

	return nil
}

// SampleDef describes one input library: where its FASTQs are and how they
// should be treated.
//
// GemGroup 0 means unset, as does a SubsampleRate of 0. An empty LibraryType
// will be replaced with a default during chunk planning, and an empty LibraryID
// will be assigned. Chemistry, if set, overrides the run's chemistry for this
// def.
type SampleDef struct {
	SampleID      string
	Locator       FastqLocator
	GemGroup      int
	LibraryType   LibraryType
	LibraryID     string
	SubsampleRate float64
	TargetSetName string
	Chemistry     string
}

// NewSampleDef validates the given def and returns a copy of it. Mode is
// normalised, so an empty Mode becomes FastqModeBCL2Fastq.
func NewSampleDef(def SampleDef) (*SampleDef, error) {
	if def.SampleID == "" {
		return nil, ErrMissingSampleID
	}

	if err := def.Locator.validate(); err != nil {
		return nil, fmt.Errorf("sample %s: %w", def.SampleID, err)
	}

	if def.GemGroup < 0 {
		return nil, fmt.Errorf("sample %s: %w, not %d", def.SampleID, ErrInvalidGemGroup, def.GemGroup)
	}

	if def.SubsampleRate < 0 || def.SubsampleRate > 1 {
		return nil, fmt.Errorf("sample %s: %w, not %g", def.SampleID, ErrInvalidSubsample, def.SubsampleRate)
	}

	if def.LibraryType != "" {
		if _, err := StringToLibraryType(string(def.LibraryType)); err != nil {
			return nil, fmt.Errorf("sample %s: %w", def.SampleID, err)
		}
	}

	sd := def
	sd.Locator = def.Locator.clone()

	if !sd.Locator.Explicit() {
		sd.Locator.Mode, _ = StringToFastqMode(string(sd.Locator.Mode)) //nolint:errcheck
	}

	if sd.Locator.Mode == FastqModeBCLProcessor && len(sd.Locator.SampleIndices) == 0 {
		sd.Locator.SampleIndices = []string{AnySampleIndex}
	}

	return &sd, nil
}

// LibraryTypeOr returns our LibraryType, or the given default if ours is unset.
func (sd *SampleDef) LibraryTypeOr(def LibraryType) LibraryType {
	if sd.LibraryType == "" {
		return def
	}

	return sd.LibraryType
}

// ChemistryOr returns our Chemistry name, or the given run-level name if ours
// is unset.
func (sd *SampleDef) ChemistryOr(name string) string {
	if sd.Chemistry == "" {
		return name
	}

	return sd.Chemistry
}
