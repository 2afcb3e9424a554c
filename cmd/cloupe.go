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
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/wtsi-hgi/scrna-preflight/chunks"
	"github.com/wtsi-hgi/scrna-preflight/cloupe"
)

const gemGroupsFile = "gem_groups.json"

// options for this cmd.
var (
	cloupeExe              string
	cloupeSampleID         string
	cloupePipestanceType   string
	cloupeMatrix           string
	cloupeAnalysis         string
	cloupeOutputDir        string
	cloupeDescription      string
	cloupeMetrics          string
	cloupeAggregation      string
	cloupeGemGroups        string
	cloupeChunks           string
	cloupeNoSecondary      bool
	cloupeBarcodeWhitelist string
	cloupeSpatial          cloupe.Spatial
)

// cloupeCmd represents the cloupe command.
var cloupeCmd = &cobra.Command{
	Use:   "cloupe",
	Short: "Make a .cloupe file from a matrix and its analysis.",
	Long: `Make a .cloupe file from a matrix and its analysis.

Runs crconverter (--crconverter, found in your PATH by default) on an HDF5
feature-barcode matrix (--matrix) and the directory containing its secondary
analysis.h5 (--analysis), putting the result in --output-dir as
<sample id>.cloupe.

crconverter needs to know the gem groups in the matrix. Either supply a JSON
file of them directly with --gemgroups, or supply the JSON output of the
'chunks' command with --chunks, and one will be made in --output-dir from its
library info.

Generation is skipped (which isn't an error) if you say --no-secondary, if
there is no analysis directory or matrix, or if this is a spatial pipeline
without a supported image (--tissue-positions and --barcode-whitelist).

If a .cloupe of the same size is already in --output-dir, it is kept, so it is
safe to run this again.
`,
	Run: func(_ *cobra.Command, _ []string) {
		reason := cloupe.SkipReason(cloupe.SkipOptions{
			NoSecondaryAnalysis: cloupeNoSecondary,
			AnalysisDir:         cloupeAnalysis,
			MatrixPath:          cloupeMatrix,
			TissuePositions:     cloupeSpatial.TissuePositions,
			BarcodeWhitelist:    cloupeBarcodeWhitelist,
			PipestanceType:      cloupePipestanceType,
		})
		if reason != "" {
			info("%s", reason)

			return
		}

		path, err := makeCloupe()
		if err != nil {
			die("%s", err)
		}

		cliPrint("%s\n", path)
	},
}

func init() {
	RootCmd.AddCommand(cloupeCmd)

	flags := cloupeCmd.Flags()
	flags.StringVar(&cloupeExe, "crconverter", cloupe.DefaultExe, "crconverter executable")
	flags.StringVar(&cloupeSampleID, "sample-id", "", "sample ID, used to name the output")
	flags.StringVar(&cloupePipestanceType, "pipestance-type", "", "pipestance type, eg. SC_RNA_COUNTER_CS")
	flags.StringVarP(&cloupeMatrix, "matrix", "m", "", "HDF5 filtered feature-barcode matrix")
	flags.StringVarP(&cloupeAnalysis, "analysis", "a", "", "secondary analysis directory")
	flags.StringVarP(&cloupeOutputDir, "output-dir", "o", ".", "directory to write the .cloupe to")
	flags.StringVar(&cloupeDescription, "description", "", "sample description")
	flags.StringVar(&cloupeMetrics, "metrics", "", "metrics summary JSON")
	flags.StringVar(&cloupeAggregation, "aggregation", "", "aggregation CSV")
	flags.StringVar(&cloupeGemGroups, "gemgroups", "", "gem group index JSON")
	flags.StringVar(&cloupeChunks, "chunks", "", "JSON output of the chunks command, to make the gem group index from")
	flags.BoolVar(&cloupeNoSecondary, "no-secondary", false, "skip .cloupe generation")
	flags.StringVar(&cloupeBarcodeWhitelist, "barcode-whitelist", "", "barcode whitelist of a spatial pipeline")
	flags.StringVar(&cloupeSpatial.ImagePath, "image", "", "spatial image")
	flags.StringVar(&cloupeSpatial.TissuePositions, "tissue-positions", "", "spatial tissue positions list")
	flags.StringVar(&cloupeSpatial.DZIInfo, "dzi-info", "", "spatial DZI info")
	flags.StringVar(&cloupeSpatial.DZITilesPath, "dzi-tiles", "", "spatial DZI tiles directory")
	flags.StringVar(&cloupeSpatial.FiducialPositions, "fiducial-positions", "", "spatial fiducial positions list")
	flags.StringVar(&cloupeSpatial.ScaleFactors, "scale-factors", "", "spatial scale factors JSON")

	markFlagRequired(cloupeCmd, "sample-id")
}

func makeCloupe() (string, error) {
	if err := createDirIfNotExist(cloupeOutputDir); err != nil {
		return "", err
	}

	gemGroups, err := gemGroupIndexPath()
	if err != nil {
		return "", err
	}

	conv := cloupe.New(cloupeOutputDir)
	conv.Exe = cloupeExe
	conv.Logger = appLogger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return conv.Export(ctx, cloupeMatrix, cloupeAnalysis, cloupe.Metadata{
		SampleID:       cloupeSampleID,
		PipestanceType: cloupePipestanceType,
		Description:    cloupeDescription,
		GemGroupIndex:  gemGroups,
		MetricsJSON:    cloupeMetrics,
		AggregationCSV: cloupeAggregation,
		Spatial:        cloupeSpatial,
	})
}

// gemGroupIndexPath returns --gemgroups if set, otherwise writes an index made
// from the --chunks plan and returns its path.
func gemGroupIndexPath() (string, error) {
	if cloupeGemGroups != "" || cloupeChunks == "" {
		return cloupeGemGroups, nil
	}

	b, err := os.ReadFile(cloupeChunks)
	if err != nil {
		return "", errors.Wrapf(err, "reading chunks plan %s", cloupeChunks)
	}

	var plan chunks.Plan

	if err = json.Unmarshal(b, &plan); err != nil {
		return "", errors.Wrapf(err, "parsing chunks plan %s", cloupeChunks)
	}

	return cloupe.NewGemGroupIndex(plan.LibraryInfo).Write(filepath.Join(cloupeOutputDir, gemGroupsFile))
}
