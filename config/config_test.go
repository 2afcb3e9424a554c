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
	"errors"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/wtsi-hgi/scrna-preflight/types"
)

const filePerm = 0644

func clearEnvs(t *testing.T) {
	t.Helper()

	for _, env := range []string{EnvVarCreds, EnvVarSheet, EnvVarUser, EnvVarPass,
		EnvVarHost, EnvVarPort, EnvVarDBName, EnvVarChemistry, EnvVarLibraryType} {
		t.Setenv(env, "")
		os.Unsetenv(env)
	}
}

func TestConfig(t *testing.T) {
	Convey("Given a full set of env vars, you can make a config", t, func() {
		clearEnvs(t)

		testPath := "/path"
		testSheetID := "sheetid"
		testUser := "user"
		testPass := "pass"
		testHost := "host"
		testPort := "1234"
		testDBName := "db"

		os.Setenv(EnvVarCreds, testPath)
		os.Setenv(EnvVarSheet, testSheetID)
		os.Setenv(EnvVarUser, testUser)
		os.Setenv(EnvVarPass, testPass)
		os.Setenv(EnvVarHost, testHost)
		os.Setenv(EnvVarPort, testPort)
		os.Setenv(EnvVarDBName, testDBName)
		os.Setenv(EnvVarChemistry, "SC3Pv3")

		config, err := FromEnv()
		So(err, ShouldBeNil)
		So(config, ShouldNotBeNil)
		So(config.CredentialsPath, ShouldEqual, testPath)
		So(config.SheetID, ShouldEqual, testSheetID)
		So(config.User, ShouldEqual, testUser)
		So(config.Password, ShouldEqual, testPass)
		So(config.Host, ShouldEqual, testHost)
		So(config.Port, ShouldEqual, testPort)
		So(config.DBName, ShouldEqual, testDBName)
		So(config.Chemistry, ShouldEqual, "SC3Pv3")
		So(config.LibraryType, ShouldBeEmpty)
		So(config.HasSheets(), ShouldBeTrue)
		So(config.HasMLWH(), ShouldBeTrue)

		Convey("MySQL() gives a tcp connection config", func() {
			mc := config.MySQL()
			So(mc.User, ShouldEqual, testUser)
			So(mc.Passwd, ShouldEqual, testPass)
			So(mc.Net, ShouldEqual, "tcp")
			So(mc.Addr, ShouldEqual, "host:1234")
			So(mc.DBName, ShouldEqual, testDBName)
		})

		Convey("Without a full set of sql env vars, FromEnv fails", func() {
			os.Setenv(EnvVarUser, "")
			config, err := FromEnv()
			So(err, ShouldEqual, ErrMissingEnvs)
			So(config, ShouldBeNil)

			os.Setenv(EnvVarUser, "user")
			os.Setenv(EnvVarCreds, "")
			config, err = FromEnv()
			So(err, ShouldEqual, ErrMissingEnvs)
			So(config, ShouldBeNil)
		})

		Convey("Without any of a group, FromEnv succeeds", func() {
			for _, env := range []string{EnvVarCreds, EnvVarSheet, EnvVarUser, EnvVarPass,
				EnvVarHost, EnvVarPort, EnvVarDBName} {
				os.Unsetenv(env)
			}

			config, err := FromEnv()
			So(err, ShouldBeNil)
			So(config.HasSheets(), ShouldBeFalse)
			So(config.HasMLWH(), ShouldBeFalse)
			So(config.Chemistry, ShouldEqual, "SC3Pv3")
		})

		Convey("You can load values from an .env file", func() {
			os.Unsetenv(EnvVarUser)
			os.Unsetenv(EnvVarDBName)

			dir := t.TempDir()

			config, err := FromEnv(dir)
			So(err, ShouldEqual, ErrMissingEnvs)
			So(config, ShouldBeNil)

			err = os.WriteFile(filepath.Join(dir, ".env"),
				[]byte(EnvVarUser+"=fileuser\n"+EnvVarDBName+"=filedb"), filePerm)
			So(err, ShouldBeNil)

			config, err = FromEnv(dir)
			So(err, ShouldBeNil)
			So(config.User, ShouldEqual, "fileuser")
			So(config.CredentialsPath, ShouldEqual, testPath)
			So(config.DBName, ShouldEqual, "filedb")
		})
	})
}

func TestLoadSampleDefs(t *testing.T) {
	Convey("Given a sample defs YAML file", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "defs.yaml")

		yml := `sample_defs:
  - read_path: /fastqs
    sample_names: [s1]
    lanes: [1, 2]
    library_type: Gene Expression
    gem_group: 1
  - sample_id: other
    read_path: /bcl
    fastq_mode: BCL_PROCESSOR
    library_type: Antibody Capture
    gem_group: 2
    subsample_rate: 0.5
    chemistry: SC3Pv2
`
		So(os.WriteFile(path, []byte(yml), filePerm), ShouldBeNil)

		Convey("LoadSampleDefs returns validated defs in file order", func() {
			defs, err := LoadSampleDefs(path, "run1")
			So(err, ShouldBeNil)
			So(defs, ShouldHaveLength, 2)

			So(defs[0].SampleID, ShouldEqual, "run1")
			So(defs[0].Locator.Path, ShouldEqual, "/fastqs")
			So(defs[0].Locator.Mode, ShouldEqual, types.FastqModeBCL2Fastq)
			So(defs[0].Locator.SampleNames, ShouldResemble, []string{"s1"})
			So(defs[0].Locator.Lanes, ShouldResemble, []int{1, 2})
			So(defs[0].GemGroup, ShouldEqual, 1)
			So(defs[0].LibraryType, ShouldEqual, types.LibraryTypeGeneExpression)

			So(defs[1].SampleID, ShouldEqual, "other")
			So(defs[1].Locator.Mode, ShouldEqual, types.FastqModeBCLProcessor)
			So(defs[1].Locator.SampleIndices, ShouldResemble, []string{types.AnySampleIndex})
			So(defs[1].SubsampleRate, ShouldEqual, 0.5)
			So(defs[1].Chemistry, ShouldEqual, "SC3Pv2")
		})

		Convey("Invalid defs are rejected", func() {
			So(os.WriteFile(path, []byte("sample_defs:\n  - read_path: /fastqs\n"), filePerm), ShouldBeNil)

			_, err := LoadSampleDefs(path, "run1")
			So(errors.Is(err, types.ErrMissingSampleNames), ShouldBeTrue)
		})

		Convey("A file without sample defs is rejected", func() {
			So(os.WriteFile(path, []byte("other: 1\n"), filePerm), ShouldBeNil)

			_, err := LoadSampleDefs(path, "run1")
			So(errors.Is(err, ErrNoSampleDefs), ShouldBeTrue)
		})

		Convey("A missing file is an error", func() {
			_, err := LoadSampleDefs(filepath.Join(dir, "missing.yaml"), "run1")
			So(err, ShouldNotBeNil)
		})
	})
}
