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

// Package matrix reads the dimensions and feature types of a 10x feature
// barcode matrix directory in Matrix Market format.
package matrix

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/wtsi-hgi/scrna-preflight/fastq"
)

type Error string

func (e Error) Error() string { return string(e) }

const (
	ErrNotExist      = Error("Filtered matrix does not exist")
	ErrNoSizeLine    = Error("matrix has no size line")
	ErrBadSizeLine   = Error("matrix size line is malformed")
	ErrNoFeatures    = Error("matrix has no features file")
	ErrFeatureColumn = Error("features file row has too few columns")

	MatrixFile         = "matrix.mtx"
	FeaturesFile       = "features.tsv"
	LegacyGenesFile    = "genes.tsv"
	GzipSuffix         = ".gz"
	GeneExpressionType = "Gene Expression"
	AntibodyType       = "Antibody Capture"

	mtxComment        = "%"
	sizeLineFields    = 3
	featureTypeColumn = 2
)

// Info describes a matrix: the number of features (genes) and barcodes, the
// number of non-zero entries, and the distinct feature types in the order
// first seen.
type Info struct {
	Genes        int      `json:"genes"`
	Barcodes     int      `json:"barcodes"`
	NonZero      int      `json:"nonzero_entries"`
	FeatureTypes []string `json:"feature_types"`
}

// HasFeatureType returns true if any feature is of the given type.
func (i Info) HasFeatureType(t string) bool {
	for _, ft := range i.FeatureTypes {
		if ft == t {
			return true
		}
	}

	return false
}

// IsAntibodyOnly returns true if the matrix has antibody capture features but
// no gene expression ones.
func (i Info) IsAntibodyOnly() bool {
	return !i.HasFeatureType(GeneExpressionType) && i.HasFeatureType(AntibodyType)
}

// Load reads the Info of the matrix in the given directory. The directory must
// contain matrix.mtx and features.tsv, optionally gzipped. A legacy genes.tsv
// can be used instead of features.tsv, in which case all features are
// considered to be gene expression.
func Load(dir string) (Info, error) {
	if _, err := os.Stat(dir); err != nil {
		return Info{}, fmt.Errorf("%w: %s", ErrNotExist, dir)
	}

	mtxPath, err := findFile(dir, MatrixFile)
	if err != nil {
		return Info{}, fmt.Errorf("%w: %s", ErrNotExist, filepath.Join(dir, MatrixFile))
	}

	info, err := readSizeLine(mtxPath)
	if err != nil {
		return Info{}, err
	}

	info.FeatureTypes, err = readFeatureTypes(dir)

	return info, err
}

// findFile returns the path to name or name.gz in dir, preferring the gzipped
// one.
func findFile(dir, name string) (string, error) {
	var firstErr error

	for _, candidate := range []string{name + GzipSuffix, name} {
		path := filepath.Join(dir, candidate)

		_, err := os.Stat(path)
		if err == nil {
			return path, nil
		}

		if firstErr == nil {
			firstErr = err
		}
	}

	return "", firstErr
}

func readSizeLine(path string) (Info, error) {
	var (
		info  Info
		found bool
	)

	err := scanFile(path, func(line string) (bool, error) {
		if line == "" || strings.HasPrefix(line, mtxComment) {
			return true, nil
		}

		fields := strings.Fields(line)
		if len(fields) != sizeLineFields {
			return false, fmt.Errorf("%w: %s: %q", ErrBadSizeLine, path, line)
		}

		nums := make([]int, sizeLineFields)

		for i, field := range fields {
			n, err := strconv.Atoi(field)
			if err != nil {
				return false, fmt.Errorf("%w: %s: %q", ErrBadSizeLine, path, line)
			}

			nums[i] = n
		}

		info = Info{Genes: nums[0], Barcodes: nums[1], NonZero: nums[2]}
		found = true

		return false, nil
	})
	if err != nil {
		return Info{}, err
	}

	if !found {
		return Info{}, fmt.Errorf("%w: %s", ErrNoSizeLine, path)
	}

	return info, nil
}

func readFeatureTypes(dir string) ([]string, error) {
	path, err := findFile(dir, FeaturesFile)
	if err != nil {
		if _, errl := findFile(dir, LegacyGenesFile); errl == nil {
			return []string{GeneExpressionType}, nil
		}

		return nil, fmt.Errorf("%w: %s", ErrNoFeatures, dir)
	}

	seen := make(map[string]bool)

	var types []string

	err = scanFile(path, func(line string) (bool, error) {
		if line == "" {
			return true, nil
		}

		cols := strings.Split(line, "\t")
		if len(cols) <= featureTypeColumn {
			return false, fmt.Errorf("%w: %s: %q", ErrFeatureColumn, path, line)
		}

		if ft := cols[featureTypeColumn]; !seen[ft] {
			seen[ft] = true
			types = append(types, ft)
		}

		return true, nil
	})

	return types, err
}

// scanFile calls cb with each line of the possibly gzipped file until cb
// returns false or an error.
func scanFile(path string, cb func(line string) (bool, error)) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "opening matrix file %s", path)
	}

	defer f.Close()

	r, closer, err := fastq.DecompressingReader(f)
	if err != nil {
		return errors.Wrapf(err, "reading matrix file %s", path)
	}

	defer closer()

	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		more, errc := cb(strings.TrimSpace(scanner.Text()))
		if errc != nil {
			return errc
		}

		if !more {
			return nil
		}
	}

	return errors.Wrapf(scanner.Err(), "reading matrix file %s", path)
}
