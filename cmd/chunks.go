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
	"fmt"
	"os"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/wtsi-hgi/scrna-preflight/chemistry"
	"github.com/wtsi-hgi/scrna-preflight/chunks"
	"github.com/wtsi-hgi/scrna-preflight/config"
	"github.com/wtsi-hgi/scrna-preflight/mlwh"
	"github.com/wtsi-hgi/scrna-preflight/sheets"
	"github.com/wtsi-hgi/scrna-preflight/types"
)

const (
	ErrNoSampleSource = Error("one of --samples or --sheet is required")
	ErrNoSheetConfig  = Error("--sheet requires " + config.EnvVarCreds + " and " + config.EnvVarSheet)
	ErrNoMLWHConfig   = Error("--verify-lanes requires the SCRNA_PREFLIGHT_SQL_* environment variables")
	ErrUnusedCustom   = Error("--custom-chemistry can only be used with the custom chemistry")
)

// options for this cmd.
var (
	chunksSamplesFile     string
	chunksSheetName       string
	chunksChemistry       string
	chunksCustomChemistry string
	chunksLibraryType     string
	chunksSampleID        string
	chunksOutput          string
	chunksReadGroups      string
	chunksVerifyLanes     bool
)

// chunksCmd represents the chunks command.
var chunksCmd = &cobra.Command{
	Use:   "chunks",
	Short: "Plan the FASTQ chunks of a run.",
	Long: `Plan the FASTQ chunks of a run.

Sample defs are read from a YAML or JSON file given with --samples, which has a
sample_defs list, eg.:

sample_defs:
  - read_path: /path/to/fastqs
    sample_names: [mysample]
    lanes: [1, 2]
    gem_group: 1
    library_type: Gene Expression

Alternatively, they can be read from the named sheet of the Google sheet
configured with SCRNA_PREFLIGHT_CREDENTIALS_FILE and
SCRNA_PREFLIGHT_SPREADSHEET_ID, using --sheet. The sheet needs sample_id and
fastq_path columns, and can also have fastq_mode, sample_names, sample_indices,
lanes, gem_group, library_type, subsample_rate, target_set, chemistry and
library_id columns.

The FASTQs of every sample def are found, grouped in to chunks of R1, R2, I1
and I2 files, and checked. The resulting chunks, chemistry, barcode whitelist
and library info are written as JSON to the --out file (default STDOUT), and a
summary table is shown on STDERR.

The chemistry (--chemistry, default SCRNA_PREFLIGHT_CHEMISTRY) must be one of
the built in ones, or "custom" with a --custom-chemistry YAML or JSON file.

With --read-groups, a SAM header with an @RG line for every chunk is also
written to the given file. With --verify-lanes, the flowcell lanes of the
chunks are looked up in the MLWH (configured with SCRNA_PREFLIGHT_SQL_*), and
any unknown ones are warned about.
`,
	Run: func(_ *cobra.Command, _ []string) {
		c, err := config.FromEnv()
		if err != nil {
			die("%s", err)
		}

		plan, err := planChunks(c)
		if err != nil {
			die("%s", err)
		}

		if err = writeJSON(chunksOutput, plan); err != nil {
			die("%s", err)
		}

		showChunks(plan)

		if chunksReadGroups != "" {
			if err = writeReadGroups(plan); err != nil {
				die("%s", err)
			}
		}

		if chunksVerifyLanes {
			if err = verifyLanes(c, plan); err != nil {
				die("%s", err)
			}
		}
	},
}

func init() {
	RootCmd.AddCommand(chunksCmd)

	chunksCmd.Flags().StringVarP(&chunksSamplesFile, "samples", "s", "",
		"YAML or JSON file with a sample_defs list")
	chunksCmd.Flags().StringVar(&chunksSheetName, "sheet", "",
		"name of the sheet in the configured Google sheet to read sample defs from")
	chunksCmd.Flags().StringVarP(&chunksChemistry, "chemistry", "c", "",
		"chemistry name (default $"+config.EnvVarChemistry+")")
	chunksCmd.Flags().StringVar(&chunksCustomChemistry, "custom-chemistry", "",
		"YAML or JSON file defining a custom chemistry")
	chunksCmd.Flags().StringVarP(&chunksLibraryType, "library-type", "l", "",
		"library type of sample defs that don't specify one (default $"+config.EnvVarLibraryType+
			", or "+string(types.DefaultLibraryType)+")")
	chunksCmd.Flags().StringVar(&chunksSampleID, "sample-id", "",
		"sample id of sample defs in --samples that don't specify one")
	chunksCmd.Flags().StringVarP(&chunksOutput, "out", "o", stdout, "path to write the chunks JSON to")
	chunksCmd.Flags().StringVar(&chunksReadGroups, "read-groups", "", "path to write a SAM read group header to")
	chunksCmd.Flags().BoolVar(&chunksVerifyLanes, "verify-lanes", false,
		"check the flowcell lanes of the chunks are known to the MLWH")
}

func planChunks(c *config.Config) (*chunks.Plan, error) {
	defs, err := loadSampleDefs(c)
	if err != nil {
		return nil, err
	}

	opts, err := chunkOptions(c)
	if err != nil {
		return nil, err
	}

	info("planning chunks for %d sample defs", len(defs))

	return chunks.Build(defs, opts)
}

func loadSampleDefs(c *config.Config) ([]*types.SampleDef, error) {
	switch {
	case chunksSamplesFile != "":
		return config.LoadSampleDefs(chunksSamplesFile, chunksSampleID)
	case chunksSheetName != "":
		return sheetSampleDefs(c)
	default:
		return nil, ErrNoSampleSource
	}
}

func sheetSampleDefs(c *config.Config) ([]*types.SampleDef, error) {
	if !c.HasSheets() {
		return nil, ErrNoSheetConfig
	}

	sc, err := sheets.ServiceCredentialsFromConfig(c)
	if err != nil {
		return nil, err
	}

	s, err := sheets.New(sc)
	if err != nil {
		return nil, err
	}

	return s.SampleDefs(c.SheetID, chunksSheetName)
}

func chunkOptions(c *config.Config) (chunks.Options, error) {
	opts := chunks.Options{
		ChemistryName: firstNonEmpty(chunksChemistry, c.Chemistry),
		Logger:        appLogger,
	}

	if lt := firstNonEmpty(chunksLibraryType, c.LibraryType); lt != "" {
		libType, err := types.StringToLibraryType(lt)
		if err != nil {
			return opts, err
		}

		opts.DefaultLibraryType = libType
	}

	if chunksCustomChemistry == "" {
		return opts, nil
	}

	switch opts.ChemistryName {
	case "":
		opts.ChemistryName = chemistry.CustomName
	case chemistry.CustomName:
	default:
		return opts, fmt.Errorf("%w, not %s", ErrUnusedCustom, opts.ChemistryName)
	}

	custom, err := chemistry.LoadCustom(chunksCustomChemistry)
	if err != nil {
		return opts, err
	}

	opts.CustomChemistry = custom

	return opts, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}

	return ""
}

func showChunks(plan *chunks.Plan) {
	t := newTable("gem group", "library", "type", "read group", "R1", "R2", "I1", "I2")

	for _, c := range plan.Chunks {
		row := table.Row{c.GemGroup, c.LibraryID, c.LibraryType, c.ReadGroup}

		for _, rt := range types.ReadTypes() {
			row = append(row, filepath.Base(string(c.ReadChunks[rt])))
		}

		t.AppendRow(row)
	}

	t.AppendFooter(table.Row{"", "", "", plan.Chemistry.Name, plan.BarcodeWhitelist})
	t.Render()
}

func writeReadGroups(plan *chunks.Plan) error {
	header, err := chunks.ReadGroupHeader(plan.Chunks)
	if err != nil {
		return err
	}

	if err = createDirIfNotExist(filepath.Dir(chunksReadGroups)); err != nil {
		return err
	}

	return os.WriteFile(chunksReadGroups, header, filePerm)
}

func verifyLanes(c *config.Config, plan *chunks.Plan) error {
	if !c.HasMLWH() {
		return ErrNoMLWHConfig
	}

	lanes, err := chunks.FlowcellLanes(plan.Chunks)
	if err != nil {
		return err
	}

	db, err := mlwh.New(c.MySQL())
	if err != nil {
		return err
	}

	defer db.Close()

	unknown, err := db.UnknownLanes(context.Background(), lanes)
	if err != nil {
		return err
	}

	for _, fl := range unknown {
		warn("flowcell %s lane %s is not known to the MLWH", fl.Flowcell, fl.Lane)
	}

	info("%d of %d flowcell lanes verified in the MLWH", len(lanes)-len(unknown), len(lanes))

	return nil
}
