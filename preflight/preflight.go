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

// Package preflight decides whether secondary analysis of a matrix can go
// ahead, resolving every analysis parameter to the user's value or a default
// and checking that they are consistent with each other and with the matrix.
package preflight

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/inconshreveable/log15"
	"github.com/wtsi-hgi/scrna-preflight/matrix"
	"github.com/wtsi-hgi/scrna-preflight/params"
	"golang.org/x/sys/unix"
)

type Error string

func (e Error) Error() string { return string(e) }

const (
	ErrBarcodesAndForceCells = Error("Cannot specify both --barcodes and --force-cells in the same run.")
	ErrTooManyCells          = Error("Desired cell count is greater than the number of barcodes in the matrix")
	ErrMatrixUnreadable      = Error("Filtered matrix file is not readable, please check file permissions")
	ErrBarcodeChain          = Error("Parameters must satisfy total_bcs >= analysis_bcs >= pca_bcs >= max_clusters >= 2")
	ErrGeneChain             = Error("Parameters must satisfy total_genes >= analysis_genes >= pca_genes >= pca_comps >= tsne_pcs >= 2") //nolint:lll
	ErrUMAPPCs               = Error("Parameters must satisfy pca_comps >= umap_pcs >= 2")
	ErrMomSwitchIter         = Error("Parameters must satisfy tsne_max_iter >= tsne_mom_switch_iter >= 1")
	ErrStopLyingIter         = Error("Parameters must satisfy tsne_max_iter >= tsne_stop_lying_iter >= 1")
	ErrTSNETheta             = Error("Parameter tsne_theta must lie between 0 and 1")
	ErrTSNEMaxDims           = Error("Parameter tsne_max_dims must be 2 or 3")
	ErrTSNEPerplexity        = Error("Parameter tsne_perplexity must lie between 1 and 500")
	ErrUMAPMinDist           = Error("Parameter umap_min_dist must lie between 0 and 1")
	ErrUMAPMaxDims           = Error("Parameter umap_max_dims must be 2 or 3")
	ErrUMAPNNeighbors        = Error("Parameter umap_n_neighbors must be greater than or equal 1")
	ErrUMAPMetric            = Error("Parameter umap_metric must be selected from the following")
	ErrMaxClusters           = Error("Parameter max_clusters cannot be greater than 50")
	ErrGraphclustNeighbors   = Error("Parameter graphclust_neighbors cannot be less than zero")
	ErrNeighborA             = Error("Parameter neighbor_a must be finite")
	ErrNeighborB             = Error("Parameter neighbor_b must be finite and cannot be less than zero")
	ErrCBCKnn                = Error("Parameter cbc_knn must lie between 5 and 20")
	ErrCBCAlpha              = Error("Parameter cbc_alpha must lie between 0 and 0.5")
	ErrCBCSigma              = Error("Parameter cbc_sigma must lie between 10 and 500")

	barcodeEntry      = "barcodes"
	genesEntry        = "genes"
	excludeGenesEntry = "exclude_genes"
	barcodeColumn     = "Barcode"
	geneColumn        = "Gene"
)

// Options are the inputs to Check besides the parameters and the matrix.
type Options struct {
	// Skip is set when an upstream stage has already decided there should be
	// no secondary analysis.
	Skip bool

	// ForceCells, if greater than 0, replaces the number of barcodes in the
	// matrix.
	ForceCells int

	// BarcodesCSV, GenesCSV and ExcludeGenesCSV are optional paths to CSVs
	// with a header line and one entry per line.
	BarcodesCSV     string
	GenesCSV        string
	ExcludeGenesCSV string

	// MatrixPath, if set, must be readable.
	MatrixPath string

	// Logger receives the reasons for skipping; they are discarded if unset.
	Logger log15.Logger
}

// Analysis is the outcome of Check. If Skip is true, no secondary analysis
// should be done and only SkipReason and IsAntibodyOnly are meaningful.
type Analysis struct {
	Skip                bool    `json:"skip"`
	SkipReason          string  `json:"skip_reason,omitempty"`
	IsAntibodyOnly      bool    `json:"is_antibody_only"`
	TotalBcs            int     `json:"total_bcs,omitempty"`
	TotalGenes          int     `json:"total_genes,omitempty"`
	AnalysisBcs         int     `json:"analysis_bcs,omitempty"`
	AnalysisGenes       int     `json:"analysis_genes,omitempty"`
	RandomSeed          int     `json:"random_seed"`
	PCABcs              int     `json:"pca_bcs,omitempty"`
	PCAGenes            int     `json:"pca_genes,omitempty"`
	PCAComps            int     `json:"pca_comps,omitempty"`
	MaxClusters         int     `json:"max_clusters,omitempty"`
	GraphclustNeighbors int     `json:"graphclust_neighbors"`
	NeighborA           float64 `json:"neighbor_a"`
	NeighborB           float64 `json:"neighbor_b"`
	TSNEInputPCs        int     `json:"tsne_input_pcs,omitempty"`
	TSNEMaxIter         int     `json:"tsne_max_iter,omitempty"`
	TSNEMomSwitchIter   int     `json:"tsne_mom_switch_iter,omitempty"`
	TSNEStopLyingIter   int     `json:"tsne_stop_lying_iter,omitempty"`
	TSNETheta           float64 `json:"tsne_theta"`
	TSNEMaxDims         int     `json:"tsne_max_dims,omitempty"`
	TSNEPerplexity      int     `json:"tsne_perplexity,omitempty"`
	UMAPInputPCs        int     `json:"umap_input_pcs,omitempty"`
	UMAPMinDist         float64 `json:"umap_min_dist"`
	UMAPMaxDims         int     `json:"umap_max_dims,omitempty"`
	UMAPNNeighbors      int     `json:"umap_n_neighbors,omitempty"`
	UMAPMetric          string  `json:"umap_metric,omitempty"`
	CBCKnn              int     `json:"cbc_knn,omitempty"`
	CBCAlpha            float64 `json:"cbc_alpha"`
	CBCSigma            float64 `json:"cbc_sigma"`
	CBCRealignPanorama  bool    `json:"cbc_realign_panorama"`
}

// Check resolves the given parameters against the matrix and validates them.
// It returns an Analysis with Skip set if the matrix is empty or too small to
// analyse with default settings, or if opts.Skip was set. Otherwise the first
// violated constraint is returned as an error.
func Check(p *params.Params, m matrix.Info, opts Options) (*Analysis, error) {
	if p == nil {
		p = params.New()
	}

	logger := opts.Logger
	if logger == nil {
		logger = log15.New()
		logger.SetHandler(log15.DiscardHandler())
	}

	a := &Analysis{TotalBcs: m.Barcodes, TotalGenes: m.Genes}

	if reason := skipReason(p, m, opts); reason != "" {
		logger.Info(reason)

		return &Analysis{Skip: true, SkipReason: reason, IsAntibodyOnly: m.IsAntibodyOnly()}, nil
	}

	a.IsAntibodyOnly = m.IsAntibodyOnly()

	if err := applyForceCells(a, opts); err != nil {
		return nil, err
	}

	if err := resolve(a, p, opts); err != nil {
		return nil, err
	}

	if err := validate(a); err != nil {
		return nil, err
	}

	if opts.MatrixPath != "" {
		if err := unix.Access(opts.MatrixPath, unix.R_OK); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrMatrixUnreadable, opts.MatrixPath)
		}
	}

	return a, nil
}

func skipReason(p *params.Params, m matrix.Info, opts Options) string {
	switch {
	case opts.Skip:
		return "secondary analysis disabled"
	case m.NonZero == 0:
		return "Gene-barcode matrix is empty - skipping analysis."
	case !p.IsSet(params.MaxClusters) && m.Barcodes < MinBarcodes:
		return fmt.Sprintf("Gene-barcode matrix is tiny (num_cells = %d) - skipping analysis.", m.Barcodes)
	case !p.IsSet(params.NumPrincipalComps) && m.Genes < MinGenes:
		return fmt.Sprintf("Gene-barcode matrix is tiny (num_genes = %d) - skipping analysis.", m.Genes)
	}

	return ""
}

func applyForceCells(a *Analysis, opts Options) error {
	if opts.ForceCells <= 0 {
		return nil
	}

	if opts.BarcodesCSV != "" {
		return ErrBarcodesAndForceCells
	}

	if opts.ForceCells > a.TotalBcs {
		return fmt.Errorf("%w: desired %d > %d barcodes. "+
			"Try passing in the raw (unfiltered) gene-barcode matrix instead.",
			ErrTooManyCells, opts.ForceCells, a.TotalBcs)
	}

	a.TotalBcs = opts.ForceCells

	return nil
}

// resolve fills in a with the user's parameter values, falling back on counts
// from the CSVs, the matrix, other parameters or fixed defaults.
func resolve(a *Analysis, p *params.Params, opts Options) error {
	var err error

	a.AnalysisBcs = p.Int(params.NumAnalysisBcs, a.TotalBcs)

	if opts.BarcodesCSV != "" {
		if a.AnalysisBcs, err = countCSVEntries(opts.BarcodesCSV, barcodeEntry, barcodeColumn); err != nil {
			return err
		}
	}

	a.AnalysisGenes = a.TotalGenes

	if opts.GenesCSV != "" {
		if a.AnalysisGenes, err = countCSVEntries(opts.GenesCSV, genesEntry, geneColumn); err != nil {
			return err
		}
	}

	if opts.ExcludeGenesCSV != "" {
		if _, err = countCSVEntries(opts.ExcludeGenesCSV, excludeGenesEntry, geneColumn); err != nil {
			return err
		}
	}

	a.RandomSeed = intParam(p, params.RandomSeed)
	a.PCABcs = p.Int(params.NumPCABcs, a.AnalysisBcs)
	a.PCAGenes = p.Int(params.NumPCAGenes, a.AnalysisGenes)
	a.PCAComps = intParam(p, params.NumPrincipalComps)
	a.MaxClusters = intParam(p, params.MaxClusters)
	a.GraphclustNeighbors = intParam(p, params.GraphclustNeighbors)
	a.NeighborA = floatParam(p, params.NeighborA)
	a.NeighborB = floatParam(p, params.NeighborB)
	a.TSNEInputPCs = p.Int(params.TSNEInputPCs, a.PCAComps)
	a.TSNEMaxIter = intParam(p, params.TSNEMaxIter)
	a.TSNEMomSwitchIter = intParam(p, params.TSNEMomSwitchIter)
	a.TSNEStopLyingIter = intParam(p, params.TSNEStopLyingIter)
	a.TSNETheta = floatParam(p, params.TSNETheta)
	a.TSNEMaxDims = intParam(p, params.TSNEMaxDims)
	a.TSNEPerplexity = intParam(p, params.TSNEPerplexity)
	a.UMAPInputPCs = p.Int(params.UMAPInputPCs, a.PCAComps)
	a.UMAPMinDist = floatParam(p, params.UMAPMinDist)
	a.UMAPMaxDims = intParam(p, params.UMAPMaxDims)
	a.UMAPNNeighbors = intParam(p, params.UMAPNNeighbors)
	a.UMAPMetric = p.Str(params.UMAPMetric, defaults[params.UMAPMetric].Str)
	a.CBCKnn = intParam(p, params.CBCKnn)
	a.CBCAlpha = floatParam(p, params.CBCAlpha)
	a.CBCSigma = floatParam(p, params.CBCSigma)
	a.CBCRealignPanorama = p.Bool(params.CBCRealignPanorama, defaults[params.CBCRealignPanorama].Bool)

	return nil
}

func intParam(p *params.Params, name string) int {
	return p.Int(name, defaults[name].Int)
}

func floatParam(p *params.Params, name string) float64 {
	return p.Float(name, defaults[name].Float)
}

// validate checks the constraints on a resolved Analysis in a fixed order,
// returning the first violation.
func validate(a *Analysis) error {
	for _, check := range constraints {
		if err := check(a); err != nil {
			return err
		}
	}

	return nil
}

var constraints = []func(a *Analysis) error{ //nolint:gochecknoglobals
	checkBarcodeChain,
	checkGeneChain,
	checkUMAPPCs,
	checkTSNEIterations,
	checkRanges,
	checkUMAPMetric,
	checkClustering,
	checkCBC,
}

func nonIncreasing(vals ...int) bool {
	for i := 1; i < len(vals); i++ {
		if vals[i] > vals[i-1] {
			return false
		}
	}

	return true
}

func checkBarcodeChain(a *Analysis) error {
	if nonIncreasing(a.TotalBcs, a.AnalysisBcs, a.PCABcs, a.MaxClusters, 2) { //nolint:mnd
		return nil
	}

	return fmt.Errorf("%w (got total_bcs=%d, analysis_bcs=%d, pca_bcs=%d, max_clusters=%d). Possible causes: "+
		"the matrix has too few barcodes for analysis; bad parameter values; "+
		"a barcode CSV file that's inconsistent with your matrix or analysis parameters",
		ErrBarcodeChain, a.TotalBcs, a.AnalysisBcs, a.PCABcs, a.MaxClusters)
}

func checkGeneChain(a *Analysis) error {
	if nonIncreasing(a.TotalGenes, a.AnalysisGenes, a.PCAGenes, a.PCAComps, a.TSNEInputPCs, 2) { //nolint:mnd
		return nil
	}

	return fmt.Errorf("%w (got total_genes=%d, analysis_genes=%d, pca_genes=%d, pca_comps=%d, tsne_pcs=%d). "+
		"Possible causes: the matrix has too few genes for analysis (is your reference correct?); "+
		"bad parameter values; a genes CSV file that's inconsistent with your matrix or analysis parameters",
		ErrGeneChain, a.TotalGenes, a.AnalysisGenes, a.PCAGenes, a.PCAComps, a.TSNEInputPCs)
}

func checkUMAPPCs(a *Analysis) error {
	if nonIncreasing(a.PCAComps, a.UMAPInputPCs, 2) { //nolint:mnd
		return nil
	}

	return fmt.Errorf("%w (got pca_comps=%d, umap_pcs=%d)", ErrUMAPPCs, a.PCAComps, a.UMAPInputPCs)
}

func checkTSNEIterations(a *Analysis) error {
	if !nonIncreasing(a.TSNEMaxIter, a.TSNEMomSwitchIter, 1) {
		return fmt.Errorf("%w (got tsne_max_iter=%d, tsne_mom_switch_iter=%d)",
			ErrMomSwitchIter, a.TSNEMaxIter, a.TSNEMomSwitchIter)
	}

	if !nonIncreasing(a.TSNEMaxIter, a.TSNEStopLyingIter, 1) {
		return fmt.Errorf("%w (got tsne_max_iter=%d, tsne_stop_lying_iter=%d)",
			ErrStopLyingIter, a.TSNEMaxIter, a.TSNEStopLyingIter)
	}

	return nil
}

func checkRanges(a *Analysis) error {
	switch {
	case !between(a.TSNETheta, 0, 1):
		return fmt.Errorf("%w (got %g)", ErrTSNETheta, a.TSNETheta)
	case !slices.Contains(validDims, a.TSNEMaxDims):
		return fmt.Errorf("%w (got %d)", ErrTSNEMaxDims, a.TSNEMaxDims)
	case a.TSNEPerplexity < minTSNEPerplexity || a.TSNEPerplexity > maxTSNEPerplexity:
		return fmt.Errorf("%w (got %d)", ErrTSNEPerplexity, a.TSNEPerplexity)
	case !between(a.UMAPMinDist, 0, 1):
		return fmt.Errorf("%w (got %g)", ErrUMAPMinDist, a.UMAPMinDist)
	case !slices.Contains(validDims, a.UMAPMaxDims):
		return fmt.Errorf("%w (got %d)", ErrUMAPMaxDims, a.UMAPMaxDims)
	case a.UMAPNNeighbors < 1:
		return fmt.Errorf("%w (got %d)", ErrUMAPNNeighbors, a.UMAPNNeighbors)
	}

	return nil
}

func checkUMAPMetric(a *Analysis) error {
	if slices.Contains(umapMetrics, a.UMAPMetric) {
		return nil
	}

	return fmt.Errorf("%w: %s (got %s)", ErrUMAPMetric, strings.Join(umapMetrics, ", "), a.UMAPMetric)
}

func checkClustering(a *Analysis) error {
	switch {
	case a.MaxClusters > maxMaxClusters:
		return fmt.Errorf("%w (got %d)", ErrMaxClusters, a.MaxClusters)
	case a.GraphclustNeighbors < 0:
		return fmt.Errorf("%w (got %d)", ErrGraphclustNeighbors, a.GraphclustNeighbors)
	case !isFinite(a.NeighborA):
		return fmt.Errorf("%w (got %g)", ErrNeighborA, a.NeighborA)
	case !isFinite(a.NeighborB) || a.NeighborB < 0:
		return fmt.Errorf("%w (got %g)", ErrNeighborB, a.NeighborB)
	}

	return nil
}

func checkCBC(a *Analysis) error {
	switch {
	case a.CBCKnn < minCBCKnn || a.CBCKnn > maxCBCKnn:
		return fmt.Errorf("%w (got %d)", ErrCBCKnn, a.CBCKnn)
	case !between(a.CBCAlpha, 0, maxCBCAlpha):
		return fmt.Errorf("%w (got %g)", ErrCBCAlpha, a.CBCAlpha)
	case !between(a.CBCSigma, minCBCSigma, maxCBCSigma):
		return fmt.Errorf("%w (got %g)", ErrCBCSigma, a.CBCSigma)
	}

	return nil
}

// between is false for NaN.
func between(v, lower, upper float64) bool {
	return v >= lower && v <= upper
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
