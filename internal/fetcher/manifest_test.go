package fetcher

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func TestParseManifestJSON(t *testing.T) {
	raw := `{
		"items": [
			{
				"item_id": "item-1",
				"asset_ref": "media/one.jpg",
				"original_filename": "one.jpg",
				"analyses": [
					{"producer": "vision-a", "producer_version": "1.2", "ref": "item-1.a.json"},
					{"producer": "vision-b", "ref": "item-1.b.json"}
				]
			}
		]
	}`

	m, err := ParseManifestJSON(strings.NewReader(raw))
	require.NoError(t, err)
	require.Len(t, m.Items, 1)
	assert.Equal(t, "item-1", m.Items[0].ItemID)
	require.Len(t, m.Items[0].Analyses, 2)
	assert.Equal(t, "vision-a", m.Items[0].Analyses[0].Producer)
}

func TestParseManifestJSONEmpty(t *testing.T) {
	_, err := ParseManifestJSON(strings.NewReader(`{"items": []}`))
	assert.Error(t, err)
}

func manifestWorkbook(t *testing.T, rows [][]string) *bytes.Buffer {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("drop")
	require.NoError(t, err)
	for _, cells := range rows {
		row := sheet.AddRow()
		for _, c := range cells {
			row.AddCell().SetString(c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return &buf
}

func TestParseManifestXLSX(t *testing.T) {
	buf := manifestWorkbook(t, [][]string{
		{"item_id", "asset_ref", "original_filename", "producer", "producer_version", "analysis_ref"},
		{"item-1", "media/one.jpg", "one.jpg", "vision-a", "1.0", "item-1.a.json"},
		{"item-1", "media/one.jpg", "one.jpg", "vision-b", "2.0", "item-1.b.json"},
		{"item-2", "media/two.jpg", "two.jpg", "vision-a", "1.0", "item-2.a.json"},
	})

	m, err := ParseManifestXLSX(buf)
	require.NoError(t, err)
	require.Len(t, m.Items, 2)
	assert.Len(t, m.Items[0].Analyses, 2)
	assert.Equal(t, "item-2", m.Items[1].ItemID)
	assert.Equal(t, "vision-b", m.Items[0].Analyses[1].Producer)
}

func TestParseManifestXLSXNoRows(t *testing.T) {
	buf := manifestWorkbook(t, [][]string{
		{"item_id", "asset_ref", "original_filename", "producer", "producer_version", "analysis_ref"},
	})
	_, err := ParseManifestXLSX(buf)
	assert.Error(t, err)
}

func TestParseManifestPicksFormatByExtension(t *testing.T) {
	buf := manifestWorkbook(t, [][]string{
		{"item_id", "asset_ref", "original_filename", "producer", "producer_version", "analysis_ref"},
		{"item-1", "a", "a.jpg", "p", "1", "r.json"},
	})
	m, err := ParseManifest("drops/manifest.xlsx", buf)
	require.NoError(t, err)
	assert.Len(t, m.Items, 1)

	m, err = ParseManifest("drops/manifest.json", strings.NewReader(`{"items":[{"item_id":"x"}]}`))
	require.NoError(t, err)
	assert.Equal(t, "x", m.Items[0].ItemID)
}

func TestParseAnalysis(t *testing.T) {
	raw := `{
		"producer": "payload-producer",
		"producer_version": "0.9",
		"content": {"headline": "Sunset over the bay", "objects": ["sky", "water"]},
		"media": {"hashtags": ["#sunset"]}
	}`

	a, err := ParseAnalysis(strings.NewReader(raw), "item-1", AnalysisRef{
		Producer:        "vision-a",
		ProducerVersion: "1.2",
		Ref:             "item-1.a.json",
	})
	require.NoError(t, err)
	assert.Equal(t, "item-1", a.ItemID)
	assert.Equal(t, "vision-a", a.Producer)
	assert.Equal(t, "1.2", a.ProducerVersion)
	assert.Equal(t, "Sunset over the bay", a.Content.Headline)
	assert.Equal(t, []string{"#sunset"}, a.Media.Hashtags)
}

func TestParseAnalysisMissingProducer(t *testing.T) {
	_, err := ParseAnalysis(strings.NewReader(`{}`), "item-1", AnalysisRef{Ref: "x.json"})
	assert.Error(t, err)
}

func TestResolveRef(t *testing.T) {
	assert.Equal(t, "http://host/a/b.json", resolveRef("http://host/a/manifest.json", "b.json"))
	assert.Equal(t, "ftp://host/drops/x.json", resolveRef("ftp://host/drops/manifest.xlsx", "x.json"))
	assert.Equal(t, "/data/drop/x.json", resolveRef("/data/drop/manifest.json", "x.json"))
	assert.Equal(t, "http://other/x.json", resolveRef("/data/manifest.json", "http://other/x.json"))
	assert.Equal(t, "/abs/x.json", resolveRef("/data/manifest.json", "/abs/x.json"))
}
