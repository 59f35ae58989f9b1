package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/curation-cli/internal/fetcher"
)

var importCmd = &cobra.Command{
	Use:   "import <manifest-ref>",
	Short: "Load an annotation drop (local path, http(s), or ftp URL)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		im := fetcher.NewImporter(st, fetcher.ImportOptions{
			MaxConcurrentItems: cfg.Import.MaxConcurrentItems,
			Timeout:            cfg.Import.FTPTimeout,
		})
		n, err := im.Run(ctx, args[0])
		if err != nil {
			return err
		}

		zap.L().Info("import complete", zap.Int("items", n))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
