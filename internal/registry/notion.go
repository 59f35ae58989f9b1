package registry

import (
	"context"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/curation-cli/internal/model"
	"github.com/sells-group/curation-cli/pkg/notion"
)

// LoadFromNotion queries the field registry database for all active field
// definitions and returns an indexed registry.
func LoadFromNotion(ctx context.Context, client notion.Client, dbID string) (*model.FieldRegistry, error) {
	filter := &notionapi.DatabaseQueryRequest{
		Filter: notionapi.PropertyFilter{
			Property: "Status",
			Status: &notionapi.StatusFilterCondition{
				Equals: "Active",
			},
		},
	}

	pages, err := notion.QueryAll(ctx, client, dbID, filter)
	if err != nil {
		return nil, eris.Wrap(err, "registry: load from notion")
	}

	var fields []model.FieldSpec
	for _, p := range pages {
		f, err := parseFieldPage(p)
		if err != nil {
			zap.L().Warn("registry: skipping malformed field page",
				zap.String("page_id", string(p.ID)),
				zap.Error(err),
			)
			continue
		}
		fields = append(fields, f)
	}
	if len(fields) == 0 {
		return nil, eris.New("registry: no active fields in notion database")
	}

	return model.NewFieldRegistry(fields), nil
}

func parseFieldPage(p notionapi.Page) (model.FieldSpec, error) {
	var key, label, kind, section string

	if prop, ok := p.Properties["Key"]; ok {
		if tp, ok := prop.(*notionapi.TitleProperty); ok {
			key = notion.PlainText(tp.Title)
		}
	}
	if prop, ok := p.Properties["Label"]; ok {
		if rtp, ok := prop.(*notionapi.RichTextProperty); ok {
			label = notion.PlainText(rtp.RichText)
		}
	}
	if prop, ok := p.Properties["Kind"]; ok {
		if sp, ok := prop.(*notionapi.SelectProperty); ok {
			kind = sp.Select.Name
		}
	}
	if prop, ok := p.Properties["Section"]; ok {
		if sp, ok := prop.(*notionapi.SelectProperty); ok {
			section = sp.Select.Name
		}
	}

	return toFieldSpec(key, label, kind, section)
}
