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

package fastq

import (
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"sort"
	"strconv"

	"github.com/pkg/errors"
	"github.com/wtsi-hgi/scrna-preflight/types"
)

const (
	explicitGroupName = "files"
	anyGlob           = "*"
	noLane            = -1
)

// Group is a set of FASTQs that belong together: those for one sample name (in
// bcl2fastq output), one sample index (in BCL processor output), or an explicit
// list of files.
type Group struct {
	Name        string
	Interleaved bool

	loc      types.FastqLocator
	explicit map[string][]string
}

// Groups expands the given locator in to its groups. The files of each group
// are only looked for when you call Fastqs().
func Groups(loc types.FastqLocator) []*Group {
	if loc.Explicit() {
		return []*Group{{
			Name:        explicitGroupName,
			Interleaved: loc.Mode == types.FastqModeBCLProcessor,
			loc:         loc,
			explicit:    loc.Files,
		}}
	}

	if loc.Mode == types.FastqModeBCLProcessor {
		groups := make([]*Group, 0, len(loc.SampleIndices))

		for _, si := range loc.SampleIndices {
			groups = append(groups, &Group{Name: si, Interleaved: true, loc: loc})
		}

		return groups
	}

	groups := make([]*Group, 0, len(loc.SampleNames))

	for _, name := range loc.SampleNames {
		groups = append(groups, &Group{Name: name, loc: loc})
	}

	return groups
}

// Fastqs returns the sorted paths of this group's FASTQs that have the given
// filename read type tag (eg. R1 or RA), restricted to the locator's lanes.
// Sorting puts the files of different read types for the same lane and chunk
// at the same index.
func (g *Group) Fastqs(tag string) ([]string, error) {
	if g.explicit != nil {
		return slices.Clone(g.explicit[tag]), nil
	}

	patterns, matcher := g.patterns(tag)

	seen := make(map[string]bool)

	var paths []string

	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, errors.Wrapf(err, "globbing %s", pattern)
		}

		for _, path := range matches {
			if seen[path] {
				continue
			}

			seen[path] = true

			if lane, ok := matchLane(matcher, filepath.Base(path)); ok && g.wantsLane(lane) {
				paths = append(paths, path)
			}
		}
	}

	sort.Strings(paths)

	return paths, nil
}

func (g *Group) patterns(tag string) ([]string, *regexp.Regexp) {
	if g.loc.Mode == types.FastqModeBCLProcessor {
		si := g.Name
		siRe := regexp.QuoteMeta(si)

		if si == types.AnySampleIndex {
			si = anyGlob
			siRe = `[^_]+`
		}

		base := fmt.Sprintf("read-%s_si-%s_lane-[0-9][0-9][0-9]-chunk-*.fastq*", tag, si)
		re := regexp.MustCompile(fmt.Sprintf(`^read-%s_si-%s_lane-(\d{3})-chunk-\d+\.fastq(\.gz)?$`,
			regexp.QuoteMeta(tag), siRe))

		return []string{filepath.Join(g.loc.Path, base)}, re
	}

	base := fmt.Sprintf("%s_S*_%s_[0-9][0-9][0-9].fastq*", g.Name, tag)
	re := regexp.MustCompile(fmt.Sprintf(`^%s_S\d+(?:_L(\d{3}))?_%s_\d{3}\.fastq(\.gz)?$`,
		regexp.QuoteMeta(g.Name), regexp.QuoteMeta(tag)))

	return []string{
		filepath.Join(g.loc.Path, base),
		filepath.Join(g.loc.Path, g.Name, base),
	}, re
}

// matchLane returns false if basename doesn't match, otherwise the lane it
// names, or noLane.
func matchLane(re *regexp.Regexp, basename string) (int, bool) {
	m := re.FindStringSubmatch(basename)
	if m == nil {
		return 0, false
	}

	if m[1] == "" {
		return noLane, true
	}

	lane, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}

	return lane, true
}

func (g *Group) wantsLane(lane int) bool {
	if lane == noLane {
		return len(g.loc.Lanes) == 0
	}

	return g.loc.WantsLane(lane)
}
