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

package params

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestParse(t *testing.T) {
	Convey("Given a well formed parameters CSV", t, func() {
		csv := "# overrides\n" +
			"Max_Clusters, 5\n" +
			"tsne_theta,0.25\n" +
			"cbc_realign_panorama,TRUE\n" +
			"umap_metric, euclidean \n"

		p, err := Parse(strings.NewReader(csv))
		So(err, ShouldBeNil)

		Convey("Names are case-insensitive and values are typed", func() {
			So(p.IsSet(MaxClusters), ShouldBeTrue)
			So(p.Int(MaxClusters, 10), ShouldEqual, 5)
			So(p.Float(TSNETheta, 0.5), ShouldEqual, 0.25)
			So(p.Bool(CBCRealignPanorama, false), ShouldBeTrue)
			So(p.Str(UMAPMetric, "correlation"), ShouldEqual, "euclidean")
		})

		Convey("Unset parameters give the default", func() {
			So(p.IsSet(RandomSeed), ShouldBeFalse)
			So(p.Int(RandomSeed, 0), ShouldEqual, 0)
			So(p.Get(NeighborA).Kind, ShouldEqual, KindFloat)
		})

		Convey("They marshal to JSON with nulls for unset parameters", func() {
			b, errm := json.Marshal(p)
			So(errm, ShouldBeNil)

			var m map[string]any
			So(json.Unmarshal(b, &m), ShouldBeNil)
			So(len(m), ShouldEqual, len(Names()))
			So(m[MaxClusters], ShouldEqual, 5)
			So(m[UMAPMetric], ShouldEqual, "euclidean")
			So(m[RandomSeed], ShouldBeNil)
		})
	})

	Convey("Badly formed rows are rejected", t, func() {
		_, err := Parse(strings.NewReader("max_clusters\n"))
		So(errors.Is(err, ErrRowFormat), ShouldBeTrue)
		So(err.Error(), ShouldEqual, "Row 1 is incorrectly formatted (must have exactly 2 columns)")

		_, err = Parse(strings.NewReader("random_seed,1\nmax_clusters,5,6\n"))
		So(errors.Is(err, ErrRowFormat), ShouldBeTrue)
		So(err.Error(), ShouldStartWith, "Row 2 ")
	})

	Convey("A blank line is a row with no columns", t, func() {
		_, err := Parse(strings.NewReader("max_clusters,5\n\nrandom_seed,1\n"))
		So(errors.Is(err, ErrRowFormat), ShouldBeTrue)
		So(err.Error(), ShouldEqual, "Row 2 is incorrectly formatted (must have exactly 2 columns)")

		Convey("Comment lines are not counted as rows", func() {
			_, err = Parse(strings.NewReader("# a\nmax_clusters,5\n# b\n\n"))
			So(err.Error(), ShouldStartWith, "Row 2 ")
		})

		Convey("Windows line endings are fine", func() {
			p, errp := Parse(strings.NewReader("max_clusters,5\r\nrandom_seed,1\r\n"))
			So(errp, ShouldBeNil)
			So(p.Int(RandomSeed, 0), ShouldEqual, 1)
		})
	})

	Convey("Unknown and repeated parameters are rejected", t, func() {
		_, err := Parse(strings.NewReader("bogus,1\n"))
		So(errors.Is(err, ErrUnrecognized), ShouldBeTrue)
		So(err.Error(), ShouldEqual, "Unrecognized parameter: bogus")

		_, err = Parse(strings.NewReader("max_clusters,5\nMAX_CLUSTERS,6\n"))
		So(errors.Is(err, ErrDuplicate), ShouldBeTrue)
		So(err.Error(), ShouldEqual, "Cannot specify the same parameter twice: max_clusters")
	})

	Convey("Values that don't fit the parameter's kind are rejected", t, func() {
		_, err := Parse(strings.NewReader("max_clusters,five\n"))
		So(errors.Is(err, ErrCast), ShouldBeTrue)
		So(err.Error(), ShouldEqual, "Parameter max_clusters could not be cast to the required type: int")

		_, err = Parse(strings.NewReader("tsne_theta,half\n"))
		So(errors.Is(err, ErrCast), ShouldBeTrue)
		So(err.Error(), ShouldEndWith, "float")

		_, err = Parse(strings.NewReader("cbc_realign_panorama,yes\n"))
		So(errors.Is(err, ErrNotBool), ShouldBeTrue)
		So(err.Error(), ShouldEqual,
			"Parameter cbc_realign_panorama must be set to 'true' or 'false', not yes.")
	})
}

func TestParseFile(t *testing.T) {
	Convey("An empty path gives no parameters", t, func() {
		p, err := ParseFile("")
		So(err, ShouldBeNil)

		for _, name := range Names() {
			So(p.IsSet(name), ShouldBeFalse)
		}
	})

	Convey("A missing file is reported", t, func() {
		path := filepath.Join(t.TempDir(), "missing.csv")

		_, err := ParseFile(path)
		So(errors.Is(err, ErrParamsMissing), ShouldBeTrue)
		So(err.Error(), ShouldEqual, "Parameters file does not exist: "+path)
	})

	Convey("A file on disk is parsed", t, func() {
		path := filepath.Join(t.TempDir(), "params.csv")
		So(os.WriteFile(path, []byte("num_principal_comps,20\n"), 0600), ShouldBeNil)

		p, err := ParseFile(path)
		So(err, ShouldBeNil)
		So(p.Int(NumPrincipalComps, 10), ShouldEqual, 20)
	})
}
