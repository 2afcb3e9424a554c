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

package preflight

import (
	"maps"
	"slices"

	"github.com/wtsi-hgi/scrna-preflight/params"
)

const (
	// MinBarcodes and MinGenes are the smallest matrix dimensions analysed
	// when max_clusters and num_principal_comps are left at their defaults.
	MinBarcodes = 10
	MinGenes    = 10

	maxMaxClusters    = 50
	minTSNEPerplexity = 1
	maxTSNEPerplexity = 500
	minCBCKnn         = 5
	maxCBCKnn         = 20
	maxCBCAlpha       = 0.5
	minCBCSigma       = 10
	maxCBCSigma       = 500
)

// defaults holds the value used for each parameter the user doesn't set that
// has a fixed default. Parameters defaulting to matrix dimensions or other
// parameters are absent.
var defaults = map[string]params.Value{ //nolint:gochecknoglobals
	params.RandomSeed:          intValue(0),
	params.NumPrincipalComps:   intValue(10),
	params.MaxClusters:         intValue(10),
	params.GraphclustNeighbors: intValue(0),
	params.NeighborA:           floatValue(-230.0),
	params.NeighborB:           floatValue(120.0),
	params.TSNEMaxIter:         intValue(1000),
	params.TSNEMomSwitchIter:   intValue(250),
	params.TSNEStopLyingIter:   intValue(250),
	params.TSNETheta:           floatValue(0.5),
	params.TSNEMaxDims:         intValue(2),
	params.TSNEPerplexity:      intValue(30),
	params.UMAPMinDist:         floatValue(0.3),
	params.UMAPMaxDims:         intValue(2),
	params.UMAPNNeighbors:      intValue(30),
	params.UMAPMetric:          {Kind: params.KindString, Set: true, Str: "correlation"},
	params.CBCKnn:              intValue(10),
	params.CBCAlpha:            floatValue(0.1),
	params.CBCSigma:            floatValue(150),
	params.CBCRealignPanorama:  {Kind: params.KindBool, Set: true},
}

var umapMetrics = []string{ //nolint:gochecknoglobals
	"euclidean", "manhattan", "chebyshev", "minkowski", "canberra", "braycurtis",
	"mahalanobis", "wminkowski", "seuclidean", "cosine", "correlation", "haversine",
	"hamming", "jaccard", "dice", "russelrao", "kulsinski", "rogerstanimoto",
	"sokalmichener", "sokalsneath", "yule",
}

var validDims = []int{2, 3} //nolint:gochecknoglobals

func intValue(i int) params.Value {
	return params.Value{Kind: params.KindInt, Set: true, Int: i}
}

func floatValue(f float64) params.Value {
	return params.Value{Kind: params.KindFloat, Set: true, Float: f}
}

// Defaults returns a copy of the fixed parameter defaults, keyed on parameter
// name.
func Defaults() map[string]params.Value {
	return maps.Clone(defaults)
}

// UMAPMetrics returns the allowed values of umap_metric.
func UMAPMetrics() []string {
	return slices.Clone(umapMetrics)
}
