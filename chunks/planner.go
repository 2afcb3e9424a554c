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

// Package chunks turns sample definitions in to the per-lane chunks of FASTQ
// input that downstream alignment and counting work on, checking along the way
// that the inputs are complete, consistent and correctly labelled.
package chunks

import (
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"

	"github.com/inconshreveable/log15"
	"github.com/wtsi-hgi/scrna-preflight/chemistry"
	"github.com/wtsi-hgi/scrna-preflight/fastq"
	"github.com/wtsi-hgi/scrna-preflight/types"
)

type Error string

func (e Error) Error() string { return string(e) }

const (
	ErrReadTypes        = Error("Not all read types were specified")
	ErrUnequalFastqs    = Error("FASTQ files differ in number")
	ErrNoFastqs         = Error("No input FASTQs were found with the requested lanes and sample indices")
	ErrMixedChemistries = Error("Combined analysis of libraries generated with different chemistries is not supported")
	ErrEmptyChunk       = Error("chunk has no FASTQ files")
)

// Options influence how Build() plans chunks.
type Options struct {
	// ChemistryName is the chemistry of the run. It may be chemistry.CustomName
	// if CustomChemistry is supplied. SampleDefs with their own Chemistry
	// override it.
	ChemistryName   string
	CustomChemistry *chemistry.Def

	// DefaultLibraryType is used for SampleDefs without a LibraryType;
	// types.DefaultLibraryType if unset.
	DefaultLibraryType types.LibraryType

	// Logger receives diagnostic messages; they are discarded if unset.
	Logger log15.Logger
}

// Plan is the result of planning chunks.
type Plan struct {
	Chunks           []*types.Chunk      `json:"chunks"`
	Chemistry        *chemistry.Def      `json:"chemistry_def"`
	BarcodeWhitelist string              `json:"barcode_whitelist"`
	LibraryInfo      []types.LibraryInfo `json:"library_info"`
}

type planner struct {
	opts        Options
	log         log15.Logger
	chemistries map[string]*chemistry.Def
}

// Build plans the chunks for the given sample defs, which are not altered.
//
// Each def's FASTQs are found and grouped; a group that has no FASTQs is
// skipped, but it is an error for a def, or the run as a whole, to end up with
// no chunks. Every FASTQ in the plan is checked for readability and for its
// gzip status agreeing with its name, and all chunks must have the same
// chemistry.
func Build(defs []*types.SampleDef, opts Options) (*Plan, error) {
	p := newPlanner(opts)

	gemGroups, err := types.ResolveGemGroups(defs)
	if err != nil {
		return nil, err
	}

	libraryIDs, err := types.AssignLibraryIDs(defs, gemGroups, p.opts.DefaultLibraryType)
	if err != nil {
		return nil, err
	}

	var all []*types.Chunk

	for i, sd := range defs {
		chunks, err := p.sampleChunks(sd, gemGroups[i], libraryIDs[i])
		if err != nil {
			return nil, err
		}

		if len(chunks) == 0 {
			return nil, fmt.Errorf("%w (sample %s)", ErrNoFastqs, sd.SampleID)
		}

		all = append(all, chunks...)
	}

	if len(all) == 0 {
		return nil, ErrNoFastqs
	}

	if err := checkChunkFastqs(all); err != nil {
		return nil, err
	}

	if err := checkChunkChemistries(all); err != nil {
		return nil, err
	}

	chem := all[0].Chemistry
	p.log.Info("planned chunks", "chunks", len(all), "chemistry", chem.Name,
		"barcode_whitelist", chem.BarcodeWhitelist)

	return &Plan{
		Chunks:           all,
		Chemistry:        chem,
		BarcodeWhitelist: chem.BarcodeWhitelist,
		LibraryInfo:      types.LibraryInfos(all),
	}, nil
}

func newPlanner(opts Options) *planner {
	if opts.DefaultLibraryType == "" {
		opts.DefaultLibraryType = types.DefaultLibraryType
	}

	logger := opts.Logger
	if logger == nil {
		logger = log15.New()
		logger.SetHandler(log15.DiscardHandler())
	}

	return &planner{
		opts:        opts,
		log:         logger,
		chemistries: make(map[string]*chemistry.Def),
	}
}

// resolveChemistry resolves each chemistry name once, so all chunks of the
// same chemistry share a Def.
func (p *planner) resolveChemistry(name string) (*chemistry.Def, error) {
	if d, ok := p.chemistries[name]; ok {
		return d, nil
	}

	d, err := chemistry.Resolve(name, p.opts.CustomChemistry)
	if err != nil {
		return nil, err
	}

	p.chemistries[name] = d

	return d, nil
}

// sampleChunks builds the chunks for all the FASTQ groups of one sample def.
func (p *planner) sampleChunks(sd *types.SampleDef, gemGroup int, libraryID string) ([]*types.Chunk, error) {
	chem, err := p.resolveChemistry(sd.ChemistryOr(p.opts.ChemistryName))
	if err != nil {
		return nil, err
	}

	tmpl := types.Chunk{
		GemGroup:      gemGroup,
		LibraryType:   sd.LibraryTypeOr(p.opts.DefaultLibraryType),
		LibraryID:     libraryID,
		Chemistry:     chem,
		SubsampleRate: sd.SubsampleRate,
		TargetSetName: sd.TargetSetName,
	}

	tags := chem.FilenameTags(sd.Locator.Mode == types.FastqModeBCLProcessor)

	var chunks []*types.Chunk

	for _, group := range fastq.Groups(sd.Locator) {
		lists, err := p.groupFastqs(sd, group, tags)
		if err != nil {
			return nil, err
		}

		if lists.length() == 0 {
			p.log.Info("no FASTQs found for group", "sample", sd.SampleID, "group", group.Name)

			continue
		}

		tmpl.ReadsInterleaved = group.Interleaved

		groupChunks, err := constructChunks(sd.SampleID, tmpl, lists)
		if err != nil {
			return nil, err
		}

		chunks = append(chunks, groupChunks...)
	}

	return chunks, nil
}

// fastqLists holds FASTQ paths for each logical read type, with "" as a
// placeholder.
type fastqLists map[string][]types.FastqPath

func (fl fastqLists) length() int {
	longest := 0

	for _, list := range fl {
		longest = max(longest, len(list))
	}

	return longest
}

// fillInMissingReads gives read types with no files a list of placeholders as
// long as the longest list.
func (fl fastqLists) fillInMissingReads() {
	longest := fl.length()

	for rt, list := range fl {
		if len(list) == 0 {
			fl[rt] = make([]types.FastqPath, longest)
		}
	}
}

func (fl fastqLists) readTypes() []string {
	rts := make([]string, 0, len(fl))
	for rt := range fl {
		rts = append(rts, rt)
	}

	sort.Strings(rts)

	return rts
}

// groupFastqs finds the FASTQs of each read type for one group and validates
// them.
func (p *planner) groupFastqs(sd *types.SampleDef, group *fastq.Group, tags map[string]string) (fastqLists, error) {
	lists := make(fastqLists)

	for _, rt := range types.ReadTypes() {
		tag, ok := tags[rt]
		if !ok {
			continue
		}

		paths, err := group.Fastqs(tag)
		if err != nil {
			return nil, err
		}

		list := make([]types.FastqPath, len(paths))
		for i, path := range paths {
			list[i] = types.FastqPath(path)
		}

		lists[rt] = list
	}

	lists.fillInMissingReads()

	return lists, p.validateFastqLists(sd, group, lists)
}

func (p *planner) validateFastqLists(sd *types.SampleDef, group *fastq.Group, lists fastqLists) error {
	expected := slices.Sorted(slices.Values(types.ReadTypes()))
	found := lists.readTypes()

	if !slices.Equal(found, expected) {
		p.log.Info("read types specified: " + strings.Join(found, ","))
		p.log.Info("read types expected: " + strings.Join(expected, ","))

		return fmt.Errorf("%w (sample %s, group %s): expected %s, found %s", ErrReadTypes,
			sd.SampleID, group.Name, strings.Join(expected, ","), strings.Join(found, ","))
	}

	longest := lists.length()
	counts := make([]string, 0, len(lists))
	unequal := false

	for _, rt := range types.ReadTypes() {
		n := len(lists[rt])
		if n != longest {
			unequal = true
		}

		counts = append(counts, fmt.Sprintf("%s has a total of %d files", types.ReadTypeDescription(rt), n))
	}

	if unequal {
		return fmt.Errorf("%w (sample %s, group %s): %s", ErrUnequalFastqs,
			sd.SampleID, group.Name, strings.Join(counts, "; "))
	}

	p.log.Debug("found FASTQs", "sample", sd.SampleID, "group", group.Name, "chunks", longest)

	return nil
}

// constructChunks makes a chunk for each index of the equal length lists,
// based on tmpl. The read group comes from the run data of the first FASTQ of
// each chunk.
func constructChunks(sampleID string, tmpl types.Chunk, lists fastqLists) ([]*types.Chunk, error) {
	n := lists.length()
	chunks := make([]*types.Chunk, 0, n)

	for i := range n {
		chunk := tmpl
		chunk.ReadChunks = make(map[string]types.FastqPath, len(lists))

		for _, rt := range types.ReadTypes() {
			chunk.ReadChunks[rt] = lists[rt][i]
		}

		paths := chunk.Paths()
		if len(paths) == 0 {
			return nil, fmt.Errorf("%w: sample %s, chunk %d", ErrEmptyChunk, sampleID, i)
		}

		flowcell, lane, err := fastq.RunData(paths[0])
		if err != nil {
			return nil, err
		}

		chunk.ReadGroup = ReadGroup{
			SampleID:  sampleID,
			LibraryID: tmpl.LibraryID,
			GemGroup:  tmpl.GemGroup,
			Flowcell:  flowcell,
			Lane:      lane,
		}.String()

		chunks = append(chunks, &chunk)
	}

	return chunks, nil
}

// checkChunkFastqs checks every distinct FASTQ of the chunks.
func checkChunkFastqs(chunks []*types.Chunk) error {
	checked := make(map[string]bool)

	for _, c := range chunks {
		for _, path := range c.Paths() {
			if checked[path] {
				continue
			}

			checked[path] = true

			if err := fastq.Check(path); err != nil {
				return err
			}
		}
	}

	return nil
}

// checkChunkChemistries ensures all chunks have the same chemistry.
func checkChunkChemistries(chunks []*types.Chunk) error {
	names := make(map[string]string)

	for _, c := range chunks {
		desc := c.Chemistry.Description
		if desc == "" {
			desc = chemistry.Description(c.Chemistry.Name)
		}

		names[c.Chemistry.Name] = desc
	}

	if len(names) < 2 { //nolint:mnd
		return nil
	}

	descs := make([]string, 0, len(names))
	for _, name := range slices.Sorted(maps.Keys(names)) {
		descs = append(descs, fmt.Sprintf("%s (%s)", names[name], name))
	}

	return fmt.Errorf("Found multiple chemistries: %s. %w.", strings.Join(descs, ", "), ErrMixedChemistries) //nolint:stylecheck,revive
}
