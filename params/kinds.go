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

// Package params parses the user's table of secondary analysis parameter
// overrides.
package params

import (
	"sort"
	"strconv"
	"strings"
)

// Kind is the type of a parameter's value.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindBool
	KindString
)

// String returns the name of the Kind as used in error messages.
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindString:
		return "str"
	default:
		return "unknown"
	}
}

// Value is a parsed parameter value. Only the field matching Kind is
// meaningful. Set is false for parameters that were not given.
type Value struct {
	Kind  Kind
	Set   bool
	Int   int
	Float float64
	Bool  bool
	Str   string
}

// parse converts raw to a Value of this Kind.
func (k Kind) parse(raw string) (Value, error) {
	switch k {
	case KindInt:
		return parseInt(raw)
	case KindFloat:
		return parseFloat(raw)
	case KindBool:
		return parseBool(raw)
	default:
		return Value{Kind: KindString, Set: true, Str: raw}, nil
	}
}

func parseInt(raw string) (Value, error) {
	i, err := strconv.Atoi(raw)
	if err != nil {
		return Value{}, err
	}

	return Value{Kind: KindInt, Set: true, Int: i}, nil
}

func parseFloat(raw string) (Value, error) {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return Value{}, err
	}

	return Value{Kind: KindFloat, Set: true, Float: f}, nil
}

func parseBool(raw string) (Value, error) {
	switch strings.ToLower(raw) {
	case "true":
		return Value{Kind: KindBool, Set: true, Bool: true}, nil
	case "false":
		return Value{Kind: KindBool, Set: true}, nil
	default:
		return Value{}, ErrNotBool
	}
}

const (
	NumAnalysisBcs      = "num_analysis_bcs"
	RandomSeed          = "random_seed"
	NumPCABcs           = "num_pca_bcs"
	NumPCAGenes         = "num_pca_genes"
	NumPrincipalComps   = "num_principal_comps"
	CBCKnn              = "cbc_knn"
	CBCAlpha            = "cbc_alpha"
	CBCSigma            = "cbc_sigma"
	CBCRealignPanorama  = "cbc_realign_panorama"
	MaxClusters         = "max_clusters"
	GraphclustNeighbors = "graphclust_neighbors"
	NeighborA           = "neighbor_a"
	NeighborB           = "neighbor_b"
	TSNEPerplexity      = "tsne_perplexity"
	TSNEInputPCs        = "tsne_input_pcs"
	TSNEMaxDims         = "tsne_max_dims"
	TSNEMaxIter         = "tsne_max_iter"
	TSNEStopLyingIter   = "tsne_stop_lying_iter"
	TSNEMomSwitchIter   = "tsne_mom_switch_iter"
	TSNETheta           = "tsne_theta"
	UMAPNNeighbors      = "umap_n_neighbors"
	UMAPInputPCs        = "umap_input_pcs"
	UMAPMaxDims         = "umap_max_dims"
	UMAPMinDist         = "umap_min_dist"
	UMAPMetric          = "umap_metric"
)

// kinds is the fixed table of known parameters. It is never altered.
var kinds = map[string]Kind{ //nolint:gochecknoglobals
	NumAnalysisBcs:      KindInt,
	RandomSeed:          KindInt,
	NumPCABcs:           KindInt,
	NumPCAGenes:         KindInt,
	NumPrincipalComps:   KindInt,
	CBCKnn:              KindInt,
	CBCAlpha:            KindFloat,
	CBCSigma:            KindFloat,
	CBCRealignPanorama:  KindBool,
	MaxClusters:         KindInt,
	GraphclustNeighbors: KindInt,
	NeighborA:           KindFloat,
	NeighborB:           KindFloat,
	TSNEPerplexity:      KindInt,
	TSNEInputPCs:        KindInt,
	TSNEMaxDims:         KindInt,
	TSNEMaxIter:         KindInt,
	TSNEStopLyingIter:   KindInt,
	TSNEMomSwitchIter:   KindInt,
	TSNETheta:           KindFloat,
	UMAPNNeighbors:      KindInt,
	UMAPInputPCs:        KindInt,
	UMAPMaxDims:         KindInt,
	UMAPMinDist:         KindFloat,
	UMAPMetric:          KindString,
}

// KindOf returns the Kind of the named parameter, and false if it isn't a
// known parameter.
func KindOf(name string) (Kind, bool) {
	k, ok := kinds[name]

	return k, ok
}

// Names returns the names of all known parameters, sorted.
func Names() []string {
	names := make([]string, 0, len(kinds))
	for name := range kinds {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
