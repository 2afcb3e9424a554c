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

package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/wtsi-hgi/scrna-preflight/chemistry"
	"github.com/wtsi-hgi/scrna-preflight/config"
	"github.com/wtsi-hgi/scrna-preflight/types"
)

const customChemistryYAML = `barcode_read_type: R1
barcode_read_length: 16
umi_read_type: R1
umi_read_offset: 16
umi_read_length: 12
rna_read_type: R2
si_read_type: I1
strandedness: "+"
endedness: three_prime
barcode_whitelist: my-whitelist
read_type_to_bcl2fastq_filename:
  R1: R1
  R2: R2
  I1: I1
  I2: I2
`

func TestChunkOptions(t *testing.T) {
	Convey("Given chunks flags and a config", t, func() {
		chunksChemistry, chunksCustomChemistry, chunksLibraryType = "", "", ""

		Reset(func() {
			chunksChemistry, chunksCustomChemistry, chunksLibraryType = "", "", ""
		})

		c := &config.Config{Chemistry: chemistry.NameSC3Pv3}

		Convey("Flags override the config's defaults", func() {
			chunksChemistry = chemistry.NameSC3Pv2
			chunksLibraryType = string(types.LibraryTypeAntibody)

			opts, err := chunkOptions(c)
			So(err, ShouldBeNil)
			So(opts.ChemistryName, ShouldEqual, chemistry.NameSC3Pv2)
			So(opts.DefaultLibraryType, ShouldEqual, types.LibraryTypeAntibody)
			So(opts.CustomChemistry, ShouldBeNil)
		})

		Convey("With a custom chemistry file", func() {
			chunksCustomChemistry = filepath.Join(t.TempDir(), "chem.yaml")
			So(os.WriteFile(chunksCustomChemistry, []byte(customChemistryYAML), filePerm), ShouldBeNil)

			Convey("the custom chemistry is used if no other is named", func() {
				opts, err := chunkOptions(&config.Config{})
				So(err, ShouldBeNil)
				So(opts.ChemistryName, ShouldEqual, chemistry.CustomName)
				So(opts.CustomChemistry, ShouldNotBeNil)
				So(opts.CustomChemistry.BarcodeWhitelist, ShouldEqual, "my-whitelist")

				chunksChemistry = chemistry.CustomName

				opts, err = chunkOptions(c)
				So(err, ShouldBeNil)
				So(opts.ChemistryName, ShouldEqual, chemistry.CustomName)
				So(opts.CustomChemistry, ShouldNotBeNil)
			})

			Convey("it is an error to also name a built in chemistry", func() {
				_, err := chunkOptions(c)
				So(errors.Is(err, ErrUnusedCustom), ShouldBeTrue)
				So(err.Error(), ShouldEqual,
					"--custom-chemistry can only be used with the custom chemistry, not SC3Pv3")

				chunksChemistry = chemistry.NameSC3Pv2

				_, err = chunkOptions(&config.Config{})
				So(errors.Is(err, ErrUnusedCustom), ShouldBeTrue)
			})
		})
	})
}
