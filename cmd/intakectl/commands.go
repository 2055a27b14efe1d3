package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kirillkom/equipment-intake/internal/core/domain"
	"github.com/kirillkom/equipment-intake/internal/core/ports"
	"github.com/kirillkom/equipment-intake/internal/core/usecase"
	"github.com/kirillkom/equipment-intake/internal/infrastructure/spreadsheet/excel"
)

// catalogOpener connects to the configured catalog; the returned func releases it.
type catalogOpener func(ctx context.Context) (ports.CatalogStore, func(), error)

func newRootCmd(openCatalog catalogOpener) *cobra.Command {
	root := &cobra.Command{
		Use:           "intakectl",
		Short:         "Equipment intake tooling",
		Long:          "Resolve equipment labels, classify pressure vessels and load the reference catalog.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newSlotsCmd(), newClassifyCmd(), newImportCatalogCmd(openCatalog))
	return root
}

func newSlotsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "slots <label>...",
		Short: "Resolve photo labels to equipment slots",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			batch := usecase.ParseSlots(args)
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "LABEL\tCODE\tTYPE\tPARENT")
			for _, res := range batch.Results {
				if res.Slot == nil {
					fmt.Fprintf(w, "%s\t-\t-\t%s\n", res.Label, res.Error)
					continue
				}
				parent := res.Slot.ParentCode()
				if parent == "" {
					parent = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", res.Label, res.Slot.Code(), res.Slot.Type, parent)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if batch.Invalid > 0 {
				return fmt.Errorf("%d of %d labels are malformed", batch.Invalid, len(args))
			}
			return nil
		},
	}
}

func newClassifyCmd() *cobra.Command {
	var (
		volume   float64
		pressure float64
		manual   string
	)
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify a vessel for the filing and PED category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var v, p *float64
			if cmd.Flags().Changed("volume") {
				v = &volume
			}
			if cmd.Flags().Changed("pressure") {
				p = &pressure
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "filing: %s\n", usecase.ClassifyFiling(v, p))
			ped := usecase.ClassifyPED(p, v)
			if ped == domain.PEDUnknown {
				fmt.Fprintln(out, "ped: unknown")
			} else {
				fmt.Fprintf(out, "ped: %s\n", ped)
			}
			if manual != "" {
				fmt.Fprintf(out, "ped consistent: %t\n", usecase.PEDConsistent(manual, p, v))
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&volume, "volume", 0, "vessel volume in litres")
	cmd.Flags().Float64Var(&pressure, "pressure", 0, "maximum allowable pressure in bar")
	cmd.Flags().StringVar(&manual, "ped", "", "PED category read from the nameplate, checked against the computed one")
	return cmd
}

func newImportCatalogCmd(openCatalog catalogOpener) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "import-catalog <file.xlsx>",
		Short: "Load the model list workbook into the reference catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open workbook: %w", err)
			}
			defer f.Close()

			var report *excel.ImportReport
			if dryRun {
				var entries []domain.CatalogEntry
				entries, report, err = excel.ParseCatalog(f)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "dry run, %d entries parsed\n", len(entries))
			} else {
				catalog, release, err := openCatalog(cmd.Context())
				if err != nil {
					return fmt.Errorf("open catalog: %w", err)
				}
				defer release()
				report, err = excel.NewCatalogImporter(catalog).Import(cmd.Context(), f)
				if err != nil {
					return err
				}
			}
			return printReport(cmd, report)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse the workbook without writing to the catalog")
	return cmd
}

func printReport(cmd *cobra.Command, report *excel.ImportReport) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "rows: %d imported: %d failed: %d skipped: %d\n",
		report.Rows, report.Imported, report.Failed, len(report.Skipped))

	types := make([]string, 0, len(report.ByType))
	for t := range report.ByType {
		types = append(types, string(t))
	}
	sort.Strings(types)
	for _, t := range types {
		fmt.Fprintf(out, "  %s: %d\n", t, report.ByType[domain.EquipmentType(t)])
	}
	if len(report.Skipped) == 0 {
		return nil
	}
	enc := json.NewEncoder(cmd.ErrOrStderr())
	enc.SetIndent("", "  ")
	return enc.Encode(report.Skipped)
}
