package main

import (
	"net/http"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/curation-cli/internal/model"
	"github.com/sells-group/curation-cli/internal/store"
	"github.com/sells-group/curation-cli/pkg/annotator"
)

var annotateAssetDir string

var annotateCmd = &cobra.Command{
	Use:   "annotate",
	Short: "Backfill analyses for items with too few sources",
	Long:  "Runs the vision annotator on every item that has fewer than the configured minimum number of source analyses and stores the result as an additional source.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if cfg.Annotator.Key == "" {
			return eris.New("annotate: annotator key not configured")
		}

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		client := annotator.NewClient(cfg.Annotator.Key, cfg.Annotator.Model)

		var annotated int
		offset := 0
		for {
			batch, err := st.ListItems(ctx, store.ItemFilter{Offset: offset, Limit: 50})
			if err != nil {
				return err
			}
			if len(batch.Items) == 0 {
				break
			}
			offset += len(batch.Items)

			for _, iws := range batch.Items {
				if len(iws.Sources) >= cfg.Annotator.MinSource {
					continue
				}
				if err := annotateItem(cmd, st, client, iws); err != nil {
					zap.L().Warn("annotate: item failed",
						zap.String("item_id", iws.Item.ID),
						zap.Error(err),
					)
					continue
				}
				annotated++
			}
		}

		zap.L().Info("annotate complete", zap.Int("items", annotated))
		return nil
	},
}

func annotateItem(cmd *cobra.Command, st store.Store, client annotator.Client, iws store.ItemWithSources) error {
	data, mediaType, err := readAsset(iws.Item)
	if err != nil {
		return err
	}

	result, err := client.Annotate(cmd.Context(), annotator.Request{
		MediaType: mediaType,
		Data:      data,
	})
	if err != nil {
		return err
	}

	analysis := model.SourceAnalysis{
		ID:              uuid.New().String(),
		ItemID:          iws.Item.ID,
		Producer:        "claude-backfill",
		ProducerVersion: result.Model,
		Content:         result.Content,
	}
	return st.PutAnalyses(cmd.Context(), []model.SourceAnalysis{analysis})
}

// readAsset loads the item's media from the asset directory.
func readAsset(item model.Item) ([]byte, string, error) {
	ref := item.AssetRef
	if ref == "" {
		ref = item.OriginalFilename
	}
	path := ref
	if annotateAssetDir != "" && !strings.HasPrefix(ref, "/") {
		path = annotateAssetDir + "/" + ref
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", eris.Wrapf(err, "annotate: read asset %s", path)
	}
	return data, http.DetectContentType(data), nil
}

func init() {
	annotateCmd.Flags().StringVar(&annotateAssetDir, "assets", "", "directory holding the media files")
	rootCmd.AddCommand(annotateCmd)
}
