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

package chemistry

// registry is built once and never altered; everything outside this file
// reads it via Lookup(), which hands out clones.
var registry = buildRegistry() //nolint:gochecknoglobals

func interleavedTags() map[string]string {
	return map[string]string{"R1": "RA", "R2": "RA", "I1": "I1", "I2": "I2"}
}

func bcl2fastqTags() map[string]string {
	return map[string]string{"R1": "R1", "R2": "R2", "I1": "I1", "I2": "I2"}
}

func threePrime(name, desc, whitelist string, umiLength int) *Def {
	return &Def{
		Name:                           name,
		Description:                    desc,
		BarcodeReadType:                "R1",
		BarcodeReadLength:              16,
		UMIReadType:                    "R1",
		UMIReadOffset:                  16,
		UMIReadLength:                  umiLength,
		RNAReadType:                    "R2",
		SIReadType:                     "I1",
		Strandedness:                   "+",
		Endedness:                      "three_prime",
		BarcodeWhitelist:               whitelist,
		ReadTypeToBCLProcessorFilename: interleavedTags(),
		ReadTypeToBCL2FastqFilename:    bcl2fastqTags(),
	}
}

func fivePrime(name, desc string, rnaReadType string, rnaOffset int, rna2, strand string) *Def {
	return &Def{
		Name:                           name,
		Description:                    desc,
		BarcodeReadType:                "R1",
		BarcodeReadLength:              16,
		UMIReadType:                    "R1",
		UMIReadOffset:                  16,
		UMIReadLength:                  10,
		RNAReadType:                    rnaReadType,
		RNAReadOffset:                  rnaOffset,
		RNARead2Type:                   rna2,
		SIReadType:                     "I1",
		Strandedness:                   strand,
		Endedness:                      "five_prime",
		BarcodeWhitelist:               whitelistV2,
		ReadTypeToBCLProcessorFilename: interleavedTags(),
		ReadTypeToBCL2FastqFilename:    bcl2fastqTags(),
	}
}

func buildRegistry() map[string]*Def {
	v1 := &Def{
		Name:                           NameSC3Pv1,
		Description:                    "Single Cell 3' v1",
		BarcodeReadType:                "I1",
		BarcodeReadLength:              14,
		UMIReadType:                    "R2",
		UMIReadLength:                  10,
		RNAReadType:                    "R1",
		SIReadType:                     "I2",
		Strandedness:                   "+",
		Endedness:                      "three_prime",
		BarcodeWhitelist:               whitelistV1,
		ReadTypeToBCLProcessorFilename: interleavedTags(),
		ReadTypeToBCL2FastqFilename:    bcl2fastqTags(),
	}

	fb := threePrime(NameSCFB, "Single Cell Antibody-only 3' v2 or 5'", whitelistV2, 10)
	fb.Strandedness = ""

	defs := []*Def{
		v1,
		threePrime(NameSC3Pv2, "Single Cell 3' v2", whitelistV2, 10),
		threePrime(NameSC3Pv3, "Single Cell 3' v3", whitelistV3, 12),
		fivePrime(NameSC5PPE, "Single Cell 5' PE", "R1", 26, "R2", "+"),
		fivePrime(NameSC5PR1, "Single Cell 5' R1-only", "R1", 26, "", "+"),
		fivePrime(NameSC5PR2, "Single Cell 5' R2-only", "R2", 0, "", "-"),
		fivePrime(NameSCVDJ, "Single Cell V(D)J", "R1", 41, "R2", "+"),
		fb,
	}

	reg := make(map[string]*Def, len(defs))
	for _, d := range defs {
		reg[d.Name] = d
	}

	return reg
}
