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

// Package chemistry holds the definitions of the 10x library chemistries: how
// the logical read roles map to FASTQ files, and which barcode whitelist
// applies.
package chemistry

import (
	"fmt"
	"maps"
	"sort"
	"strings"
)

type Error string

func (e Error) Error() string { return string(e) }

const (
	ErrUndetermined = Error("The chemistry was unable to be automatically determined. This can happen if " +
		"not enough reads originate from the given reference. Please verify your choice of reference or " +
		"explicitly specify the chemistry via the --chemistry argument.")
	ErrUnknown          = Error("unknown chemistry")
	ErrCustomMissing    = Error("custom chemistry requested but no chemistry definition supplied")
	ErrCustomIncomplete = Error("custom chemistry definition is incomplete")

	// CustomName is the chemistry name that says a Def will be supplied by the
	// user instead of being looked up.
	CustomName = "custom"

	NameSC3Pv1  = "SC3Pv1"
	NameSC3Pv2  = "SC3Pv2"
	NameSC3Pv3  = "SC3Pv3"
	NameSC5PPE  = "SC5P-PE"
	NameSC5PR1  = "SC5P-R1"
	NameSC5PR2  = "SC5P-R2"
	NameSCVDJ   = "SCVDJ"
	NameSCFB    = "SC-FB"
	whitelistV1 = "737K-april-2014_rc"
	whitelistV2 = "737K-august-2016"
	whitelistV3 = "3M-february-2018"
)

// Def is a chemistry definition. Defs handed out by this package are copies,
// so altering one has no effect on the registry. An RNAReadLength of 0 means
// the rest of the read.
type Def struct {
	Name              string `json:"name" koanf:"name"`
	Description       string `json:"description" koanf:"description"`
	BarcodeReadType   string `json:"barcode_read_type" koanf:"barcode_read_type"`
	BarcodeReadOffset int    `json:"barcode_read_offset" koanf:"barcode_read_offset"`
	BarcodeReadLength int    `json:"barcode_read_length" koanf:"barcode_read_length"`
	UMIReadType       string `json:"umi_read_type" koanf:"umi_read_type"`
	UMIReadOffset     int    `json:"umi_read_offset" koanf:"umi_read_offset"`
	UMIReadLength     int    `json:"umi_read_length" koanf:"umi_read_length"`
	RNAReadType       string `json:"rna_read_type" koanf:"rna_read_type"`
	RNAReadOffset     int    `json:"rna_read_offset" koanf:"rna_read_offset"`
	RNAReadLength     int    `json:"rna_read_length" koanf:"rna_read_length"`
	RNARead2Type      string `json:"rna_read2_type" koanf:"rna_read2_type"`
	SIReadType        string `json:"si_read_type" koanf:"si_read_type"`
	Strandedness      string `json:"strandedness" koanf:"strandedness"`
	Endedness         string `json:"endedness" koanf:"endedness"`
	BarcodeWhitelist  string `json:"barcode_whitelist" koanf:"barcode_whitelist"`

	// ReadTypeToBCLProcessorFilename and ReadTypeToBCL2FastqFilename map the
	// logical read types R1, R2, I1 and I2 to the read type tag found in
	// FASTQ filenames for the 2 supported FASTQ naming schemes.
	ReadTypeToBCLProcessorFilename map[string]string `json:"read_type_to_bcl_processor_filename" koanf:"read_type_to_bcl_processor_filename"` //nolint:lll
	ReadTypeToBCL2FastqFilename    map[string]string `json:"read_type_to_bcl2fastq_filename" koanf:"read_type_to_bcl2fastq_filename"`
}

// Clone returns a deep copy of this Def.
func (d *Def) Clone() *Def {
	c := *d
	c.ReadTypeToBCLProcessorFilename = maps.Clone(d.ReadTypeToBCLProcessorFilename)
	c.ReadTypeToBCL2FastqFilename = maps.Clone(d.ReadTypeToBCL2FastqFilename)

	return &c
}

// FilenameTags returns the map of logical read type to filename read type tag
// appropriate for FASTQs produced by the BCL processor (if bclProcessor is
// true), or by bcl2fastq.
func (d *Def) FilenameTags(bclProcessor bool) map[string]string {
	if bclProcessor {
		return maps.Clone(d.ReadTypeToBCLProcessorFilename)
	}

	return maps.Clone(d.ReadTypeToBCL2FastqFilename)
}

// Validate checks that this Def has everything needed to use it as a custom
// chemistry.
func (d *Def) Validate() error {
	var missing []string

	for field, val := range map[string]string{
		"name":              d.Name,
		"barcode_read_type": d.BarcodeReadType,
		"umi_read_type":     d.UMIReadType,
		"rna_read_type":     d.RNAReadType,
		"barcode_whitelist": d.BarcodeWhitelist,
	} {
		if val == "" {
			missing = append(missing, field)
		}
	}

	if len(d.ReadTypeToBCLProcessorFilename) == 0 && len(d.ReadTypeToBCL2FastqFilename) == 0 {
		missing = append(missing, "read_type_to_bcl2fastq_filename")
	}

	if len(missing) > 0 {
		sort.Strings(missing)

		return fmt.Errorf("%w: missing %s", ErrCustomIncomplete, strings.Join(missing, ", "))
	}

	return nil
}

// Names returns the names of all the built-in chemistries, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Lookup returns the built-in chemistry with the given name.
func Lookup(name string) (*Def, error) {
	d, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s (known chemistries are %s)",
			ErrUnknown, name, strings.Join(Names(), ", "))
	}

	return d.Clone(), nil
}

// Resolve returns the Def that applies to the given chemistry name. An empty
// name is an error, and so is an unknown name. If name is CustomName, custom
// must be a complete Def, and a copy of it is returned.
func Resolve(name string, custom *Def) (*Def, error) {
	switch name {
	case "":
		return nil, ErrUndetermined
	case CustomName:
		if custom == nil {
			return nil, ErrCustomMissing
		}

		if err := custom.Validate(); err != nil {
			return nil, err
		}

		return custom.Clone(), nil
	default:
		return Lookup(name)
	}
}

// Whitelist returns the barcode whitelist name of the built-in chemistry with
// the given name.
func Whitelist(name string) (string, error) {
	d, err := Lookup(name)
	if err != nil {
		return "", err
	}

	return d.BarcodeWhitelist, nil
}

// Description returns a human readable description of the named chemistry. For
// unknown names, the name itself is returned.
func Description(name string) string {
	d, ok := registry[name]
	if !ok {
		return name
	}

	return d.Description
}
