package main

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/curation-cli/internal/model"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the latest golden entries to an XLSX workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		entries, err := st.ExportEntries(ctx)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			zap.L().Info("export: no entries to write")
			return nil
		}

		reg, err := loadRegistry(ctx, cfg)
		if err != nil {
			return err
		}

		f := xlsx.NewFile()
		sheet, err := f.AddSheet("entries")
		if err != nil {
			return eris.Wrap(err, "export: add sheet")
		}

		header := sheet.AddRow()
		header.AddCell().SetString("item_id")
		header.AddCell().SetString("version")
		for _, spec := range reg.Fields {
			header.AddCell().SetString(spec.Key)
		}

		for _, entry := range entries {
			row := sheet.AddRow()
			row.AddCell().SetString(entry.ItemID)
			row.AddCell().SetInt(entry.Version)
			for _, spec := range reg.Fields {
				row.AddCell().SetString(entryCell(entry, spec))
			}
		}

		if err := f.Save(exportOut); err != nil {
			return eris.Wrapf(err, "export: save %s", exportOut)
		}
		zap.L().Info("export complete",
			zap.String("path", exportOut),
			zap.Int("entries", len(entries)),
		)
		return nil
	},
}

// entryCell formats one field of a golden entry for the spreadsheet:
// scalars verbatim, checked lists semicolon-joined, the ranked hierarchy
// joined in order.
func entryCell(entry model.GoldenEntry, spec model.FieldSpec) string {
	switch spec.Kind {
	case model.KindScalar:
		return entry.Fields[spec.Key].Value
	case model.KindList:
		return strings.Join(entry.Lists[spec.Key], "; ")
	case model.KindRanked:
		return strings.Join(entry.Saliency.Labels, " > ")
	}
	return ""
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "entries.xlsx", "output workbook path")
	rootCmd.AddCommand(exportCmd)
}
