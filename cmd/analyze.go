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
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/wtsi-hgi/scrna-preflight/matrix"
	"github.com/wtsi-hgi/scrna-preflight/params"
	"github.com/wtsi-hgi/scrna-preflight/preflight"
)

const ErrNoMatrix = Error("--matrix is required unless --skip is set")

// options for this cmd.
var (
	analyzeMatrix       string
	analyzeParams       string
	analyzeForceCells   int
	analyzeBarcodes     string
	analyzeGenes        string
	analyzeExcludeGenes string
	analyzeSkip         bool
	analyzeOutput       string
)

// analysisResult is what the analyze command outputs.
type analysisResult struct {
	Params   *params.Params      `json:"params"`
	Matrix   matrix.Info         `json:"matrix"`
	Analysis *preflight.Analysis `json:"analysis"`
}

// analyzeCmd represents the analyze command.
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Resolve and check secondary analysis parameters.",
	Long: `Resolve and check secondary analysis parameters.

Given a filtered feature-barcode matrix directory (--matrix, containing
matrix.mtx and features.tsv, optionally gzipped) and optionally a 2 column CSV
of parameter overrides (--params), every secondary analysis parameter is
resolved to your value or its default and then checked against the others and
the size of the matrix.

Lines in the --params CSV starting with # are ignored. Each other line has a
parameter name and value, eg.:

# my overrides
max_clusters,5
umap_metric,cosine

If the matrix is empty or too small for the default number of clusters or
principal components, analysis is skipped, which isn't an error. Any invalid
parameter is an error that explains the problem.

--barcodes, --genes and --exclude-genes are CSVs with a header line whose first
column is Barcode, Gene and Gene respectively, and at least one entry.

The parameters, matrix details and resolved analysis settings (or the reason
for skipping) are written as JSON to --out (default STDOUT).
`,
	Run: func(_ *cobra.Command, _ []string) {
		result, err := analyze()
		if err != nil {
			die("%s", err)
		}

		if err = writeJSON(analyzeOutput, result); err != nil {
			die("%s", err)
		}

		if result.Analysis.Skip {
			warn("secondary analysis will be skipped: %s", result.Analysis.SkipReason)

			return
		}

		showAnalysis(result.Analysis)
	},
}

func init() {
	RootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVarP(&analyzeMatrix, "matrix", "m", "", "filtered feature-barcode matrix directory")
	analyzeCmd.Flags().StringVarP(&analyzeParams, "params", "p", "", "CSV of parameter overrides")
	analyzeCmd.Flags().IntVar(&analyzeForceCells, "force-cells", 0,
		"use this many barcodes instead of the number in the matrix")
	analyzeCmd.Flags().StringVar(&analyzeBarcodes, "barcodes", "", "CSV of barcodes to analyse")
	analyzeCmd.Flags().StringVar(&analyzeGenes, "genes", "", "CSV of genes to analyse")
	analyzeCmd.Flags().StringVar(&analyzeExcludeGenes, "exclude-genes", "", "CSV of genes to exclude")
	analyzeCmd.Flags().BoolVar(&analyzeSkip, "skip", false, "skip secondary analysis")
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "out", "o", stdout, "path to write the JSON result to")
}

func analyze() (*analysisResult, error) {
	p, err := params.ParseFile(analyzeParams)
	if err != nil {
		return nil, err
	}

	result := &analysisResult{Params: p}

	if !analyzeSkip {
		if analyzeMatrix == "" {
			return nil, ErrNoMatrix
		}

		if result.Matrix, err = matrix.Load(analyzeMatrix); err != nil {
			return nil, err
		}

		info("matrix has %d features, %d barcodes and %d non-zero entries",
			result.Matrix.Genes, result.Matrix.Barcodes, result.Matrix.NonZero)
	}

	result.Analysis, err = preflight.Check(p, result.Matrix, preflight.Options{
		Skip:            analyzeSkip,
		ForceCells:      analyzeForceCells,
		BarcodesCSV:     analyzeBarcodes,
		GenesCSV:        analyzeGenes,
		ExcludeGenesCSV: analyzeExcludeGenes,
		MatrixPath:      analyzeMatrix,
		Logger:          appLogger,
	})

	return result, err
}

func showAnalysis(a *preflight.Analysis) {
	t := newTable("setting", "barcodes", "genes")
	t.AppendRows([]table.Row{
		{"total", a.TotalBcs, a.TotalGenes},
		{"analysis", a.AnalysisBcs, a.AnalysisGenes},
		{"pca", a.PCABcs, a.PCAGenes},
	})
	t.AppendFooter(table.Row{"pca comps", a.PCAComps, ""})
	t.Render()

	t = newTable("method", "input pcs", "max dims", "other")
	t.AppendRows([]table.Row{
		{"t-SNE", a.TSNEInputPCs, a.TSNEMaxDims, a.TSNEPerplexity},
		{"UMAP", a.UMAPInputPCs, a.UMAPMaxDims, a.UMAPMetric},
		{"graph clustering", "", "", a.MaxClusters},
	})
	t.Render()

	if a.IsAntibodyOnly {
		info("matrix only has antibody capture features")
	}
}
