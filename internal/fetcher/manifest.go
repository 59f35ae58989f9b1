package fetcher

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/curation-cli/internal/model"
)

// Manifest describes one annotation drop: the items it carries and the
// per-producer analysis files for each.
type Manifest struct {
	Items []ManifestItem `json:"items"`
}

// ManifestItem is one media item in a drop.
type ManifestItem struct {
	ItemID           string        `json:"item_id"`
	AssetRef         string        `json:"asset_ref"`
	OriginalFilename string        `json:"original_filename"`
	Analyses         []AnalysisRef `json:"analyses"`
}

// AnalysisRef points to one producer's analysis file for an item.
type AnalysisRef struct {
	Producer        string `json:"producer"`
	ProducerVersion string `json:"producer_version"`
	Ref             string `json:"ref"`
}

// ParseManifest picks a format by the ref's extension: .xlsx uses the
// spreadsheet layout, everything else is JSON.
func ParseManifest(ref string, r io.Reader) (*Manifest, error) {
	if strings.HasSuffix(strings.ToLower(ref), ".xlsx") {
		return ParseManifestXLSX(r)
	}
	return ParseManifestJSON(r)
}

// ParseManifestJSON decodes a JSON manifest.
func ParseManifestJSON(r io.Reader) (*Manifest, error) {
	var m Manifest
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, eris.Wrap(err, "fetcher: decode manifest json")
	}
	if len(m.Items) == 0 {
		return nil, eris.New("fetcher: manifest has no items")
	}
	return &m, nil
}

// ParseManifestXLSX decodes a spreadsheet manifest. The first sheet
// carries one row per analysis file with columns item_id, asset_ref,
// original_filename, producer, producer_version, analysis_ref; the
// header row is skipped and consecutive rows for the same item are
// grouped.
func ParseManifestXLSX(r io.Reader) (*Manifest, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: read manifest")
	}
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: open manifest xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("fetcher: manifest xlsx has no sheets")
	}

	m := &Manifest{}
	byID := map[string]int{}
	for i, row := range f.Sheets[0].Rows {
		if i == 0 {
			continue
		}
		cells := rowToStrings(row)
		if len(cells) < 6 || cells[0] == "" {
			continue
		}

		idx, ok := byID[cells[0]]
		if !ok {
			m.Items = append(m.Items, ManifestItem{
				ItemID:           cells[0],
				AssetRef:         cells[1],
				OriginalFilename: cells[2],
			})
			idx = len(m.Items) - 1
			byID[cells[0]] = idx
		}
		if cells[5] != "" {
			m.Items[idx].Analyses = append(m.Items[idx].Analyses, AnalysisRef{
				Producer:        cells[3],
				ProducerVersion: cells[4],
				Ref:             cells[5],
			})
		}
	}
	if len(m.Items) == 0 {
		return nil, eris.New("fetcher: manifest xlsx has no item rows")
	}
	return m, nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for i, cell := range row.Cells {
		cells[i] = cell.String()
	}
	return cells
}

type analysisPayload struct {
	Producer        string                `json:"producer"`
	ProducerVersion string                `json:"producer_version"`
	Content         model.AnalysisContent `json:"content"`
	Media           model.MediaMetadata   `json:"media"`
}

// ParseAnalysis decodes one producer's analysis file into a
// SourceAnalysis for the given item. Producer metadata from the
// manifest wins over the payload's own.
func ParseAnalysis(r io.Reader, itemID string, ref AnalysisRef) (model.SourceAnalysis, error) {
	var p analysisPayload
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return model.SourceAnalysis{}, eris.Wrapf(err, "fetcher: decode analysis %s", ref.Ref)
	}

	a := model.SourceAnalysis{
		ItemID:          itemID,
		Producer:        p.Producer,
		ProducerVersion: p.ProducerVersion,
		Content:         p.Content,
		Media:           p.Media,
	}
	if ref.Producer != "" {
		a.Producer = ref.Producer
	}
	if ref.ProducerVersion != "" {
		a.ProducerVersion = ref.ProducerVersion
	}
	if a.Producer == "" {
		return model.SourceAnalysis{}, eris.Errorf("fetcher: analysis %s missing producer", ref.Ref)
	}
	return a, nil
}
