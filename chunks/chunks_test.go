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
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/biogo/hts/sam"
	"github.com/inconshreveable/log15"
	"github.com/klauspost/compress/gzip"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/wtsi-hgi/scrna-preflight/chemistry"
	"github.com/wtsi-hgi/scrna-preflight/fastq"
	"github.com/wtsi-hgi/scrna-preflight/types"
)

const (
	testFlowcell = "HXXXXXDSX"
	dirPerm      = 0700
)

func writeFastq(t *testing.T, path, flowcell string, lane int) {
	t.Helper()

	So(os.MkdirAll(filepath.Dir(path), dirPerm), ShouldBeNil)

	f, err := os.Create(path)
	So(err, ShouldBeNil)

	gz := gzip.NewWriter(f)
	_, err = fmt.Fprintf(gz, "@A00123:8:%s:%d:1101:1000:2000 1:N:0:ACGT\nACGT\n+\nFFFF\n", flowcell, lane)
	So(err, ShouldBeNil)
	So(gz.Close(), ShouldBeNil)
	So(f.Close(), ShouldBeNil)
}

// writeBCL2FastqLanes writes gzipped FASTQs for the given sample and read
// types for lanes 1..lanes in dir.
func writeBCL2FastqLanes(t *testing.T, dir, sample string, lanes int, readTypes ...string) {
	t.Helper()

	for lane := 1; lane <= lanes; lane++ {
		for _, rt := range readTypes {
			name := fmt.Sprintf("%s_S1_L%03d_%s_001.fastq.gz", sample, lane, rt)
			writeFastq(t, filepath.Join(dir, name), testFlowcell, lane)
		}
	}
}

func newDef(t *testing.T, def types.SampleDef) *types.SampleDef {
	t.Helper()

	sd, err := types.NewSampleDef(def)
	So(err, ShouldBeNil)

	return sd
}

func TestBuild(t *testing.T) {
	Convey("Given a sample with 2 lanes of R1 and R2 but no index reads", t, func() {
		dir := t.TempDir()
		writeBCL2FastqLanes(t, dir, "s1", 2, "R1", "R2")

		def := newDef(t, types.SampleDef{
			SampleID: "sample1",
			Locator: types.FastqLocator{
				Path:        dir,
				SampleNames: []string{"s1"},
			},
			GemGroup:    1,
			LibraryType: types.LibraryTypeGeneExpression,
		})

		opts := Options{ChemistryName: chemistry.NameSC3Pv3}

		Convey("Build makes a chunk per lane with placeholders for I1 and I2", func() {
			plan, err := Build([]*types.SampleDef{def}, opts)
			So(err, ShouldBeNil)
			So(plan.Chunks, ShouldHaveLength, 2)

			for i, c := range plan.Chunks {
				lane := i + 1

				So(c.GemGroup, ShouldEqual, 1)
				So(c.LibraryID, ShouldEqual, plan.Chunks[0].LibraryID)
				So(c.LibraryType, ShouldEqual, types.LibraryTypeGeneExpression)
				So(c.ReadsInterleaved, ShouldBeFalse)
				So(c.ReadChunks, ShouldHaveLength, 4)
				So(c.ReadChunks[types.ReadTypeI1], ShouldEqual, types.FastqPath(""))
				So(c.ReadChunks[types.ReadTypeI2], ShouldEqual, types.FastqPath(""))
				So(string(c.ReadChunks[types.ReadTypeR1]), ShouldEqual,
					filepath.Join(dir, fmt.Sprintf("s1_S1_L%03d_R1_001.fastq.gz", lane)))
				So(string(c.ReadChunks[types.ReadTypeR2]), ShouldEqual,
					filepath.Join(dir, fmt.Sprintf("s1_S1_L%03d_R2_001.fastq.gz", lane)))
				So(c.ReadGroup, ShouldEqual, fmt.Sprintf("sample1:0:1:%s:%d", testFlowcell, lane))
				So(c.Chemistry.Name, ShouldEqual, chemistry.NameSC3Pv3)
			}

			So(plan.Chemistry.Name, ShouldEqual, chemistry.NameSC3Pv3)
			So(plan.BarcodeWhitelist, ShouldEqual, "3M-february-2018")
			So(plan.LibraryInfo, ShouldResemble, []types.LibraryInfo{{
				GemGroup:    1,
				LibraryID:   "0",
				LibraryType: types.LibraryTypeGeneExpression,
			}})

			b, err := json.Marshal(plan.Chunks[0])
			So(err, ShouldBeNil)
			So(string(b), ShouldContainSubstring, `"I1":null`)
		})

		Convey("Planning is idempotent", func() {
			plan1, err := Build([]*types.SampleDef{def}, opts)
			So(err, ShouldBeNil)

			plan2, err := Build([]*types.SampleDef{def}, opts)
			So(err, ShouldBeNil)

			b1, err := json.Marshal(plan1)
			So(err, ShouldBeNil)

			b2, err := json.Marshal(plan2)
			So(err, ShouldBeNil)
			So(string(b1), ShouldEqual, string(b2))
		})

		Convey("Build logs diagnostics to a supplied logger", func() {
			var records []*log15.Record

			logger := log15.New()
			logger.SetHandler(log15.FuncHandler(func(r *log15.Record) error {
				records = append(records, r)

				return nil
			}))

			opts.Logger = logger

			_, err := Build([]*types.SampleDef{def}, opts)
			So(err, ShouldBeNil)
			So(records, ShouldNotBeEmpty)
			So(records[len(records)-1].Msg, ShouldEqual, "planned chunks")
		})

		Convey("Build fails without a chemistry", func() {
			_, err := Build([]*types.SampleDef{def}, Options{})
			So(err, ShouldEqual, chemistry.ErrUndetermined)

			_, err = Build([]*types.SampleDef{def}, Options{ChemistryName: chemistry.CustomName})
			So(err, ShouldEqual, chemistry.ErrCustomMissing)

			_, err = Build([]*types.SampleDef{def}, Options{ChemistryName: "SC9Pv9"})
			So(errors.Is(err, chemistry.ErrUnknown), ShouldBeTrue)
		})

		Convey("Build fails if the chemistry doesn't map all read types", func() {
			custom, err := chemistry.Lookup(chemistry.NameSC3Pv3)
			So(err, ShouldBeNil)

			custom.Name = "mine"
			delete(custom.ReadTypeToBCL2FastqFilename, types.ReadTypeI2)

			_, err = Build([]*types.SampleDef{def}, Options{
				ChemistryName:   chemistry.CustomName,
				CustomChemistry: custom,
			})
			So(errors.Is(err, ErrReadTypes), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "expected I1,I2,R1,R2, found I1,R1,R2")
		})

		Convey("Build fails if read types have different numbers of files", func() {
			writeFastq(t, filepath.Join(dir, "s1_S1_L003_R1_001.fastq.gz"), testFlowcell, 3)

			_, err := Build([]*types.SampleDef{def}, opts)
			So(errors.Is(err, ErrUnequalFastqs), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "Read 1 has a total of 3 files")
			So(err.Error(), ShouldContainSubstring, "Read 2 has a total of 2 files")
			So(err.Error(), ShouldContainSubstring, "sample1")
		})

		Convey("Groups without FASTQs are skipped, but samples without any fail", func() {
			withEmpty := newDef(t, types.SampleDef{
				SampleID: "sample1",
				Locator: types.FastqLocator{
					Path:        dir,
					SampleNames: []string{"s1", "nothing"},
				},
			})

			plan, err := Build([]*types.SampleDef{withEmpty}, opts)
			So(err, ShouldBeNil)
			So(plan.Chunks, ShouldHaveLength, 2)

			empty := newDef(t, types.SampleDef{
				SampleID: "sample2",
				Locator: types.FastqLocator{
					Path:        dir,
					SampleNames: []string{"nothing"},
				},
			})

			_, err = Build([]*types.SampleDef{withEmpty, empty}, opts)
			So(errors.Is(err, ErrNoFastqs), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "sample2")

			_, err = Build(nil, opts)
			So(err, ShouldEqual, ErrNoFastqs)
		})

		Convey("Build fails on a mislabelled gzipped FASTQ", func() {
			mislabelled := filepath.Join(dir, "explicit", "r1.fastq")
			writeFastq(t, mislabelled, testFlowcell, 1)
			r2 := filepath.Join(dir, "explicit", "r2.fastq.gz")
			writeFastq(t, r2, testFlowcell, 1)

			explicit := newDef(t, types.SampleDef{
				SampleID: "sample1",
				Locator: types.FastqLocator{
					Files: map[string][]string{"R1": {mislabelled}, "R2": {r2}},
				},
			})

			_, err := Build([]*types.SampleDef{explicit}, opts)
			So(errors.Is(err, fastq.ErrGzipNoSuffix), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, mislabelled)
		})

		Convey("Build fails on an unreadable FASTQ", func() {
			r1 := filepath.Join(dir, "s1_S1_L001_R1_001.fastq.gz")
			missing := filepath.Join(dir, "missing.fastq.gz")

			explicit := newDef(t, types.SampleDef{
				SampleID: "sample1",
				Locator: types.FastqLocator{
					Files: map[string][]string{"R1": {r1}, "R2": {missing}},
				},
			})

			_, err := Build([]*types.SampleDef{explicit}, opts)
			So(errors.Is(err, fastq.ErrUnreadable), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, missing)
		})

		Convey("Sample defs with different chemistries are rejected", func() {
			dir2 := t.TempDir()
			writeBCL2FastqLanes(t, dir2, "s2", 1, "R1", "R2")

			v3 := newDef(t, types.SampleDef{
				SampleID:  "sample1",
				Locator:   types.FastqLocator{Path: dir, SampleNames: []string{"s1"}},
				GemGroup:  1,
				Chemistry: chemistry.NameSC3Pv3,
			})
			v2 := newDef(t, types.SampleDef{
				SampleID:  "sample2",
				Locator:   types.FastqLocator{Path: dir2, SampleNames: []string{"s2"}},
				GemGroup:  2,
				Chemistry: chemistry.NameSC3Pv2,
			})

			_, err := Build([]*types.SampleDef{v3, v2}, Options{})
			So(errors.Is(err, ErrMixedChemistries), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "Found multiple chemistries")
			So(err.Error(), ShouldContainSubstring, "Single Cell 3' v3 (SC3Pv3)")
			So(err.Error(), ShouldContainSubstring, "Single Cell 3' v2 (SC3Pv2)")
		})

		Convey("Libraries get distinct, ordered ids", func() {
			ab := newDef(t, types.SampleDef{
				SampleID:      "sample1",
				Locator:       types.FastqLocator{Path: dir, SampleNames: []string{"s1"}},
				GemGroup:      1,
				LibraryType:   types.LibraryTypeAntibody,
				SubsampleRate: 0.5,
				TargetSetName: "panel",
			})

			plan, err := Build([]*types.SampleDef{def, ab}, opts)
			So(err, ShouldBeNil)
			So(plan.Chunks, ShouldHaveLength, 4)
			So(plan.Chunks[0].LibraryID, ShouldEqual, "0")
			So(plan.Chunks[2].LibraryID, ShouldEqual, "1")
			So(plan.Chunks[2].SubsampleRate, ShouldEqual, 0.5)
			So(plan.Chunks[2].ReadGroup, ShouldStartWith, "sample1:1:1:")
			So(plan.LibraryInfo, ShouldResemble, []types.LibraryInfo{
				{GemGroup: 1, LibraryID: "0", LibraryType: types.LibraryTypeGeneExpression},
				{GemGroup: 1, LibraryID: "1", LibraryType: types.LibraryTypeAntibody, TargetSetName: "panel"},
			})
		})

		Convey("Defs with inconsistent gem groups are rejected", func() {
			unset := newDef(t, types.SampleDef{
				SampleID: "sample2",
				Locator:  types.FastqLocator{Path: dir, SampleNames: []string{"s1"}},
			})

			_, err := Build([]*types.SampleDef{def, unset}, opts)
			So(err, ShouldEqual, types.ErrInconsistentGemGroup)
		})
	})

	Convey("Given interleaved BCL processor output", t, func() {
		dir := t.TempDir()

		for lane := 1; lane <= 2; lane++ {
			for _, tag := range []string{"RA", "I1"} {
				name := fmt.Sprintf("read-%s_si-ACGTACGT_lane-%03d-chunk-001.fastq.gz", tag, lane)
				writeFastq(t, filepath.Join(dir, name), testFlowcell, lane)
			}
		}

		def := newDef(t, types.SampleDef{
			SampleID: "sample1",
			Locator: types.FastqLocator{
				Path: dir,
				Mode: types.FastqModeBCLProcessor,
			},
		})

		Convey("R1 and R2 both refer to the interleaved file", func() {
			plan, err := Build([]*types.SampleDef{def}, Options{ChemistryName: chemistry.NameSC3Pv2})
			So(err, ShouldBeNil)
			So(plan.Chunks, ShouldHaveLength, 2)

			c := plan.Chunks[1]
			So(c.ReadsInterleaved, ShouldBeTrue)
			So(c.GemGroup, ShouldEqual, 1)
			So(c.ReadChunks[types.ReadTypeR1], ShouldEqual, c.ReadChunks[types.ReadTypeR2])
			So(string(c.ReadChunks[types.ReadTypeI1]), ShouldEndWith, "read-I1_si-ACGTACGT_lane-002-chunk-001.fastq.gz")
			So(c.ReadChunks[types.ReadTypeI2], ShouldEqual, types.FastqPath(""))
			So(c.ReadGroup, ShouldEqual, "sample1:0:1:"+testFlowcell+":2")
			So(plan.BarcodeWhitelist, ShouldEqual, "737K-august-2016")
		})
	})
}

func TestConstructChunks(t *testing.T) {
	Convey("A chunk made only of placeholders is an error, not a crash", t, func() {
		lists := fastqLists{"R1": {""}, "R2": {""}, "I1": nil, "I2": nil}
		lists.fillInMissingReads()

		_, err := constructChunks("s1", types.Chunk{LibraryID: "0", GemGroup: 1}, lists)
		So(errors.Is(err, ErrEmptyChunk), ShouldBeTrue)
		So(err.Error(), ShouldEqual, "chunk has no FASTQ files: sample s1, chunk 0")
	})
}

func TestReadGroups(t *testing.T) {
	Convey("Read groups pack and unpack", t, func() {
		rg := ReadGroup{SampleID: "my:sample", LibraryID: "0", GemGroup: 2, Flowcell: "FC1", Lane: "3"}
		So(rg.String(), ShouldEqual, "my:sample:0:2:FC1:3")

		back, err := UnpackReadGroup(rg.String())
		So(err, ShouldBeNil)
		So(back, ShouldResemble, rg)

		_, err = UnpackReadGroup("a:b:c")
		So(errors.Is(err, ErrBadReadGroup), ShouldBeTrue)

		_, err = UnpackReadGroup("s:0:one:FC1:3")
		So(errors.Is(err, ErrBadReadGroup), ShouldBeTrue)
	})

	Convey("Given chunks, you can render their read groups as a SAM header", t, func() {
		chunks := []*types.Chunk{
			{ReadGroup: "sample1:0:1:FC1:1"},
			{ReadGroup: "sample1:0:1:FC1:2"},
			{ReadGroup: "sample1:0:1:FC1:1"},
			{ReadGroup: "sample1:1:2:FC2:1"},
		}

		text, err := ReadGroupHeader(chunks)
		So(err, ShouldBeNil)

		header, err := sam.NewHeader(text, nil)
		So(err, ShouldBeNil)

		rgs := header.RGs()
		So(rgs, ShouldHaveLength, 3)
		So(rgs[0].Name(), ShouldEqual, "sample1:0:1:FC1:1")
		So(rgs[0].Library(), ShouldEqual, "0.1")
		So(rgs[2].Library(), ShouldEqual, "1.2")

		Convey("and list the flowcell lanes they came from", func() {
			fls, err := FlowcellLanes(chunks)
			So(err, ShouldBeNil)
			So(fls, ShouldResemble, []types.FlowcellLane{
				{Flowcell: "FC1", Lane: "1"},
				{Flowcell: "FC1", Lane: "2"},
				{Flowcell: "FC2", Lane: "1"},
			})
		})

		Convey("but not if a read group is malformed", func() {
			_, err := ReadGroupHeader([]*types.Chunk{{ReadGroup: "bad"}})
			So(err, ShouldNotBeNil)

			_, err = FlowcellLanes([]*types.Chunk{{ReadGroup: "bad"}})
			So(err, ShouldNotBeNil)
		})
	})
}
