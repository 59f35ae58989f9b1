package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/curation-cli/internal/model"
)

type stubNotion struct {
	resp *notionapi.DatabaseQueryResponse
	err  error
}

func (s *stubNotion) QueryDatabase(ctx context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	return s.resp, s.err
}

func fieldPage(id, key, kind, section string) notionapi.Page {
	return notionapi.Page{
		ID: notionapi.ObjectID(id),
		Properties: notionapi.Properties{
			"Key": &notionapi.TitleProperty{
				Title: []notionapi.RichText{{PlainText: key}},
			},
			"Label": &notionapi.RichTextProperty{
				RichText: []notionapi.RichText{{PlainText: key}},
			},
			"Kind": &notionapi.SelectProperty{
				Select: notionapi.Option{Name: kind},
			},
			"Section": &notionapi.SelectProperty{
				Select: notionapi.Option{Name: section},
			},
		},
	}
}

func TestLoadFromNotion(t *testing.T) {
	stub := &stubNotion{
		resp: &notionapi.DatabaseQueryResponse{
			Results: []notionapi.Page{
				fieldPage("p1", "headline", "scalar", "content"),
				fieldPage("p2", "themes", "list", "content"),
			},
		},
	}

	reg, err := LoadFromNotion(context.Background(), stub, "db")
	require.NoError(t, err)

	spec := reg.ByKey("headline")
	require.NotNil(t, spec)
	assert.Equal(t, model.KindScalar, spec.Kind)

	spec = reg.ByKey("themes")
	require.NotNil(t, spec)
	assert.Equal(t, model.KindList, spec.Kind)
}

func TestLoadFromNotionSkipsMalformed(t *testing.T) {
	stub := &stubNotion{
		resp: &notionapi.DatabaseQueryResponse{
			Results: []notionapi.Page{
				fieldPage("p1", "", "scalar", "content"),
				fieldPage("p2", "emotions", "list", "mood"),
			},
		},
	}

	reg, err := LoadFromNotion(context.Background(), stub, "db")
	require.NoError(t, err)
	assert.NotNil(t, reg.ByKey("emotions"))
	assert.Len(t, reg.Section("mood"), 1)
}

func TestLoadFromNotionAllMalformed(t *testing.T) {
	stub := &stubNotion{
		resp: &notionapi.DatabaseQueryResponse{
			Results: []notionapi.Page{fieldPage("p1", "", "scalar", "content")},
		},
	}

	_, err := LoadFromNotion(context.Background(), stub, "db")
	assert.Error(t, err)
}

func TestLoadFromNotionQueryError(t *testing.T) {
	stub := &stubNotion{err: errors.New("boom")}

	_, err := LoadFromNotion(context.Background(), stub, "db")
	assert.Error(t, err)
}
