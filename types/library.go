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
	"sort"
	"strconv"
)

type Error string

func (e Error) Error() string { return string(e) }

const (
	ErrInvalidLibraryType   = Error("invalid library type")
	ErrInconsistentGemGroup = Error("Inconsistent gem_group tags. Please specify all gem_group tags as null, " +
		"or all gem_group tags with an integer")
	ErrGemGroupStart     = Error("gem_group numbering must start at 1")
	ErrGemGroupGap       = Error("gem_groups must be numbered contiguously")
	ErrLibraryIDConflict = Error("library_id used by more than one library")

	// DefaultLibraryType is used for sample defs that don't specify one.
	DefaultLibraryType = LibraryTypeGeneExpression

	firstAssignedLibrary = 0
	unsetGemGroup        = 0
	firstGemGroup        = 1
	libraryKeySep        = "\x00"
)

type LibraryType string

const (
	LibraryTypeGeneExpression LibraryType = "Gene Expression"
	LibraryTypeAntibody       LibraryType = "Antibody Capture"
	LibraryTypeCRISPR         LibraryType = "CRISPR Guide Capture"
	LibraryTypeCustom         LibraryType = "Custom"
	LibraryTypeFeatureTest    LibraryType = "FEATURETEST"
)

// StringToLibraryType converts a string to a LibraryType.
func StringToLibraryType(s string) (LibraryType, error) {
	switch LibraryType(s) {
	case LibraryTypeGeneExpression:
		return LibraryTypeGeneExpression, nil
	case LibraryTypeAntibody:
		return LibraryTypeAntibody, nil
	case LibraryTypeCRISPR:
		return LibraryTypeCRISPR, nil
	case LibraryTypeCustom:
		return LibraryTypeCustom, nil
	case LibraryTypeFeatureTest:
		return LibraryTypeFeatureTest, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidLibraryType, s)
	}
}

// LibraryInfo summarises one library seen across a set of chunks.
type LibraryInfo struct {
	GemGroup      int         `json:"gem_group"`
	LibraryID     string      `json:"library_id"`
	LibraryType   LibraryType `json:"library_type"`
	TargetSetName string      `json:"target_set_name"`
}

func (li LibraryInfo) less(other LibraryInfo) bool {
	if li.GemGroup != other.GemGroup {
		return li.GemGroup < other.GemGroup
	}

	if li.LibraryID != other.LibraryID {
		return li.LibraryID < other.LibraryID
	}

	if li.LibraryType != other.LibraryType {
		return li.LibraryType < other.LibraryType
	}

	return li.TargetSetName < other.TargetSetName
}

// LibraryInfos returns the distinct (gem group, library id, library type,
// target set) tuples found in the given chunks, sorted by those fields in that
// order.
func LibraryInfos(chunks []*Chunk) []LibraryInfo {
	seen := make(map[LibraryInfo]bool)
	infos := make([]LibraryInfo, 0)

	for _, c := range chunks {
		li := LibraryInfo{
			GemGroup:      c.GemGroup,
			LibraryID:     c.LibraryID,
			LibraryType:   c.LibraryType,
			TargetSetName: c.TargetSetName,
		}

		if seen[li] {
			continue
		}

		seen[li] = true

		infos = append(infos, li)
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].less(infos[j])
	})

	return infos
}

// ResolveGemGroups returns the gem group of each def. Either all defs leave
// their GemGroup unset, in which case they all get gem group 1, or they all set
// it, in which case the sorted gem groups must start at 1 and have no gaps.
func ResolveGemGroups(defs []*SampleDef) ([]int, error) {
	groups := make([]int, len(defs))
	unset := 0

	for i, sd := range defs {
		groups[i] = sd.GemGroup

		if sd.GemGroup == unsetGemGroup {
			unset++
		}
	}

	if unset == len(defs) {
		for i := range groups {
			groups[i] = firstGemGroup
		}

		return groups, nil
	}

	if unset != 0 {
		return nil, ErrInconsistentGemGroup
	}

	return groups, checkGemGroupNumbering(groups)
}

func checkGemGroupNumbering(groups []int) error {
	sorted := make([]int, len(groups))
	copy(sorted, groups)
	sort.Ints(sorted)

	if sorted[0] != firstGemGroup {
		return ErrGemGroupStart
	}

	prev := firstGemGroup

	for _, g := range sorted {
		if g-prev > 1 {
			return fmt.Errorf("%w. missing groups: %v", ErrGemGroupGap, missingRange(prev, g))
		}

		prev = g
	}

	return nil
}

func missingRange(from, to int) []int {
	missing := make([]int, 0, to-from-1)

	for g := from + 1; g < to; g++ {
		missing = append(missing, g)
	}

	return missing
}

// AssignLibraryIDs returns a library id for each def. Defs that share a sample
// id, library type and gem group share a library id. An explicit LibraryID on a
// def is kept; otherwise ids are consecutive integers, starting from 0 and
// skipping any explicit ids, given out in the order libraries are first seen.
//
// gemGroups should come from ResolveGemGroups(defs). Defs without a library
// type are treated as having defaultType.
func AssignLibraryIDs(defs []*SampleDef, gemGroups []int, defaultType LibraryType) ([]string, error) {
	keyToID := make(map[string]string)
	idToKey := make(map[string]string)

	for i, sd := range defs {
		if sd.LibraryID == "" {
			continue
		}

		key := libraryKey(sd, gemGroups[i], defaultType)

		if err := claimLibraryID(keyToID, idToKey, key, sd.LibraryID); err != nil {
			return nil, err
		}
	}

	ids := make([]string, len(defs))
	next := firstAssignedLibrary

	for i, sd := range defs {
		key := libraryKey(sd, gemGroups[i], defaultType)

		if id, ok := keyToID[key]; ok {
			ids[i] = id

			continue
		}

		id := strconv.Itoa(next)
		for idToKey[id] != "" {
			next++
			id = strconv.Itoa(next)
		}

		keyToID[key] = id
		idToKey[id] = key
		ids[i] = id
		next++
	}

	return ids, nil
}

func libraryKey(sd *SampleDef, gemGroup int, defaultType LibraryType) string {
	return sd.SampleID + libraryKeySep + string(sd.LibraryTypeOr(defaultType)) +
		libraryKeySep + strconv.Itoa(gemGroup)
}

func claimLibraryID(keyToID, idToKey map[string]string, key, id string) error {
	if existing, ok := idToKey[id]; ok && existing != key {
		return fmt.Errorf("%w: %s", ErrLibraryIDConflict, id)
	}

	if existing, ok := keyToID[key]; ok && existing != id {
		return fmt.Errorf("%w: %s and %s", ErrLibraryIDConflict, existing, id)
	}

	keyToID[key] = id
	idToKey[id] = key

	return nil
}
