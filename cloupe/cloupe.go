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

// Package cloupe converts a matrix and its secondary analysis into a .cloupe
// file for the Loupe browser by running crconverter.
package cloupe

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/inconshreveable/log15"
)

type Error string

func (e Error) Error() string { return string(e) }

const (
	ErrNoGemGroups = Error("HDF5 matrix to be used for cloupe does not have GEM group information.")
	ErrConversion  = Error("Could not generate .cloupe file")
	ErrExistsDiff  = Error("cloupe file already exists with a different size")

	DefaultExe  = "crconverter"
	Suffix      = ".cloupe"
	AnalysisH5  = "analysis.h5"
	spatialType = "SPATIAL"
	dirPerm     = 0755
	filePerm    = 0644
)

// Exporter makes a .cloupe file from a matrix and the directory containing its
// secondary analysis, returning the path to the file.
type Exporter interface {
	Export(ctx context.Context, matrixPath, analysisDir string, meta Metadata) (string, error)
}

// Spatial holds the image related inputs of a spatial pipeline. They are all
// passed to crconverter if TissuePositions is set.
type Spatial struct {
	ImagePath         string
	TissuePositions   string
	DZIInfo           string
	DZITilesPath      string
	FiducialPositions string
	ScaleFactors      string
}

// Metadata describes the sample being converted.
type Metadata struct {
	// Required
	SampleID       string
	PipestanceType string
	Description    string
	GemGroupIndex  string

	// Optional
	MetricsJSON    string
	AggregationCSV string
	Spatial        Spatial
}

// Crconverter is an Exporter that runs the crconverter executable.
type Crconverter struct {
	// Exe is the crconverter executable, DefaultExe by default.
	Exe string

	// WorkDir is where crconverter writes its output before it is moved to
	// OutputDir. The current directory is used if unset.
	WorkDir string

	// OutputDir is where the final .cloupe file will be.
	OutputDir string

	Logger log15.Logger
}

// New returns a Crconverter with the default executable that will write its
// final .cloupe files to the given directory. Its logs are discarded.
func New(outputDir string) *Crconverter {
	logger := log15.New()
	logger.SetHandler(log15.DiscardHandler())

	return &Crconverter{
		Exe:       DefaultExe,
		OutputDir: outputDir,
		Logger:    logger,
	}
}

// Args returns the arguments to crconverter that would convert the given
// matrix and analysis to a .cloupe at outputPath. meta.GemGroupIndex is
// required.
func (c *Crconverter) Args(matrixPath, analysisDir, outputPath string, meta Metadata) ([]string, error) {
	args := []string{
		meta.SampleID,
		meta.PipestanceType,
		"--matrix", matrixPath,
		"--analysis", filepath.Join(analysisDir, AnalysisH5),
		"--output", outputPath,
		"--description", meta.Description,
	}

	if meta.MetricsJSON != "" {
		args = append(args, "--metrics", meta.MetricsJSON)
	}

	if meta.AggregationCSV != "" {
		args = append(args, "--aggregation", meta.AggregationCSV)
	}

	if s := meta.Spatial; s.TissuePositions != "" {
		args = append(args,
			"--spatial-image-path", s.ImagePath,
			"--spatial-tissue-path", s.TissuePositions,
			"--spatial-dzi-path", s.DZIInfo,
			"--spatial-tiles-path", s.DZITilesPath,
			"--spatial-fiducials-path", s.FiducialPositions,
			"--spatial-scalefactors-path", s.ScaleFactors,
		)
	}

	if meta.GemGroupIndex == "" {
		return nil, ErrNoGemGroups
	}

	return append(args, "--gemgroups", meta.GemGroupIndex), nil
}

// Export runs crconverter and moves the resulting file to
// OutputDir/<sample id>.cloupe, returning that path. If a file of the same
// size is already there, it is left alone; if it has a different size, an
// error is returned.
func (c *Crconverter) Export(ctx context.Context, matrixPath, analysisDir string, meta Metadata) (string, error) {
	workPath := filepath.Join(c.WorkDir, meta.SampleID+Suffix)

	args, err := c.Args(matrixPath, analysisDir, workPath, meta)
	if err != nil {
		return "", err
	}

	exe := c.Exe
	if exe == "" {
		exe = DefaultExe
	}

	c.log().Info("running crconverter", "cmd", exe+" "+strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, exe, args...)

	var out bytes.Buffer

	cmd.Stdout = &out
	cmd.Stderr = &out

	if err = cmd.Run(); err != nil {
		return "", fmt.Errorf("%w: %w\n%s", ErrConversion, err, out.String())
	}

	c.log().Info("crconverter output", "output", out.String())

	finalPath := filepath.Join(c.OutputDir, meta.SampleID+Suffix)

	if err = moveFile(workPath, finalPath); err != nil {
		return "", err
	}

	return finalPath, nil
}

func (c *Crconverter) log() log15.Logger {
	if c.Logger == nil {
		c.Logger = log15.New()
		c.Logger.SetHandler(log15.DiscardHandler())
	}

	return c.Logger
}

// SkipOptions are the things that determine if a .cloupe should be made.
type SkipOptions struct {
	NoSecondaryAnalysis bool
	AnalysisDir         string
	MatrixPath          string
	TissuePositions     string
	BarcodeWhitelist    string
	PipestanceType      string
}

// SkipReason returns why no .cloupe should be made, or an empty string if one
// should.
func SkipReason(opts SkipOptions) string {
	switch {
	case opts.NoSecondaryAnalysis:
		return "Skipping .cloupe generation by instruction (--no-secondary-analysis)"
	case opts.AnalysisDir == "":
		return "Skipping .cloupe generation due to missing analysis folder"
	case !fileExists(opts.MatrixPath):
		return "Skipping .cloupe generation due to missing or zero-length feature-barcode matrix"
	case opts.TissuePositions != "" && !spatialWhitelists[opts.BarcodeWhitelist]:
		return "Skipping .cloupe generation due to unsupported barcode whitelist"
	case opts.TissuePositions == "" && strings.Contains(opts.PipestanceType, spatialType):
		return "Skipping .cloupe generation due to spatial pipeline with no image"
	}

	return ""
}

var spatialWhitelists = map[string]bool{ //nolint:gochecknoglobals
	"odin-5K-v2": true,
	"visium-v1":  true,
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}

	_, err := os.Stat(path)

	return err == nil
}
