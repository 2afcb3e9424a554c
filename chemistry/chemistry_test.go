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

package chemistry

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestChemistry(t *testing.T) {
	Convey("Every built-in chemistry can be resolved", t, func() {
		names := Names()
		So(names, ShouldContain, NameSC3Pv2)
		So(names, ShouldContain, NameSC3Pv3)
		So(names, ShouldContain, NameSC5PPE)
		So(names, ShouldNotContain, CustomName)

		for _, name := range names {
			d, err := Resolve(name, nil)
			So(err, ShouldBeNil)
			So(d.Name, ShouldEqual, name)
			So(d.Description, ShouldNotBeBlank)
			So(d.Validate(), ShouldBeNil)

			Convey("and its whitelist round-trips for "+name, func() {
				wl, err := Whitelist(name)
				So(err, ShouldBeNil)
				So(wl, ShouldEqual, d.BarcodeWhitelist)

				again, err := Resolve(name, nil)
				So(err, ShouldBeNil)
				So(again.BarcodeWhitelist, ShouldEqual, wl)
			})
		}

		wl, err := Whitelist(NameSC3Pv3)
		So(err, ShouldBeNil)
		So(wl, ShouldEqual, "3M-february-2018")

		wl, err = Whitelist(NameSC3Pv2)
		So(err, ShouldBeNil)
		So(wl, ShouldEqual, "737K-august-2016")
	})

	Convey("Defs handed out are copies", t, func() {
		d, err := Lookup(NameSC3Pv3)
		So(err, ShouldBeNil)

		d.BarcodeWhitelist = "altered"
		d.ReadTypeToBCL2FastqFilename["R1"] = "altered"

		again, err := Lookup(NameSC3Pv3)
		So(err, ShouldBeNil)
		So(again.BarcodeWhitelist, ShouldEqual, "3M-february-2018")
		So(again.ReadTypeToBCL2FastqFilename["R1"], ShouldEqual, "R1")

		tags := again.FilenameTags(true)
		tags["R2"] = "altered"
		So(again.FilenameTags(true)["R2"], ShouldEqual, "RA")
		So(again.FilenameTags(false)["R2"], ShouldEqual, "R2")
	})

	Convey("Resolve fails for missing, unknown and incomplete chemistries", t, func() {
		_, err := Resolve("", nil)
		So(err, ShouldEqual, ErrUndetermined)

		_, err = Resolve("SC9Pv9", nil)
		So(errors.Is(err, ErrUnknown), ShouldBeTrue)
		So(err.Error(), ShouldContainSubstring, "SC9Pv9")
		So(err.Error(), ShouldContainSubstring, NameSC3Pv3)

		_, err = Resolve(CustomName, nil)
		So(err, ShouldEqual, ErrCustomMissing)

		_, err = Resolve(CustomName, &Def{Name: "mine", BarcodeReadType: "R1"})
		So(errors.Is(err, ErrCustomIncomplete), ShouldBeTrue)
		So(err.Error(), ShouldContainSubstring, "umi_read_type")
		So(err.Error(), ShouldContainSubstring, "barcode_whitelist")

		So(Description("SC9Pv9"), ShouldEqual, "SC9Pv9")
		So(Description(NameSC3Pv2), ShouldEqual, "Single Cell 3' v2")
	})

	Convey("A complete custom chemistry resolves to a copy of itself", t, func() {
		custom, err := Lookup(NameSC3Pv3)
		So(err, ShouldBeNil)

		custom.Name = "mine"

		d, err := Resolve(CustomName, custom)
		So(err, ShouldBeNil)
		So(d, ShouldResemble, custom)
		So(d, ShouldNotPointTo, custom)
	})

	Convey("You can load a custom chemistry from a file", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "chem.yaml")

		err := os.WriteFile(path, []byte(`barcode_read_type: R1
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
`), 0600)
		So(err, ShouldBeNil)

		d, err := LoadCustom(path)
		So(err, ShouldBeNil)
		So(d.Name, ShouldEqual, CustomName)
		So(d.UMIReadLength, ShouldEqual, 12)
		So(d.BarcodeWhitelist, ShouldEqual, "my-whitelist")
		So(d.FilenameTags(false)["I2"], ShouldEqual, "I2")
		So(d.FilenameTags(true), ShouldBeEmpty)

		jsonPath := filepath.Join(dir, "chem.json")
		err = os.WriteFile(jsonPath, []byte(`{"name": "json-chem", "barcode_read_type": "R1"}`), 0600)
		So(err, ShouldBeNil)

		_, err = LoadCustom(jsonPath)
		So(errors.Is(err, ErrCustomIncomplete), ShouldBeTrue)

		_, err = LoadCustom(filepath.Join(dir, "missing.yaml"))
		So(err, ShouldNotBeNil)
	})
}
