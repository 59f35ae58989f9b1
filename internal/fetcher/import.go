package fetcher

import (
	"context"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/curation-cli/internal/model"
	"github.com/sells-group/curation-cli/internal/store"
)

// ImportOptions tunes drop ingestion.
type ImportOptions struct {
	// MaxConcurrentItems bounds parallel item loads. Default: 5.
	MaxConcurrentItems int
	// Timeout applies to each network fetch.
	Timeout time.Duration
}

// Importer loads annotation drops into the store.
type Importer struct {
	store store.Store
	opts  ImportOptions
}

// NewImporter creates an Importer.
func NewImporter(st store.Store, opts ImportOptions) *Importer {
	if opts.MaxConcurrentItems <= 0 {
		opts.MaxConcurrentItems = 5
	}
	return &Importer{store: st, opts: opts}
}

// Run fetches the manifest at ref, then loads every item and its
// analysis files with bounded concurrency. Analysis refs are resolved
// relative to the manifest location.
func (im *Importer) Run(ctx context.Context, manifestRef string) (int, error) {
	f, err := ForRef(manifestRef, Options{Timeout: im.opts.Timeout})
	if err != nil {
		return 0, err
	}

	rc, err := f.Download(ctx, manifestRef)
	if err != nil {
		return 0, eris.Wrapf(err, "import: fetch manifest %s", manifestRef)
	}
	manifest, err := ParseManifest(manifestRef, rc)
	rc.Close()
	if err != nil {
		return 0, err
	}

	zap.L().Info("import: manifest loaded",
		zap.String("ref", manifestRef),
		zap.Int("items", len(manifest.Items)),
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(im.opts.MaxConcurrentItems)
	for _, mi := range manifest.Items {
		mi := mi
		g.Go(func() error {
			return im.importItem(ctx, manifestRef, mi)
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(manifest.Items), nil
}

func (im *Importer) importItem(ctx context.Context, manifestRef string, mi ManifestItem) error {
	if mi.ItemID == "" {
		return eris.New("import: manifest item missing item_id")
	}

	item := model.Item{
		ID:               mi.ItemID,
		AssetRef:         mi.AssetRef,
		OriginalFilename: mi.OriginalFilename,
	}
	if err := im.store.PutItem(ctx, item); err != nil {
		return err
	}

	var analyses []model.SourceAnalysis
	for _, ref := range mi.Analyses {
		resolved := resolveRef(manifestRef, ref.Ref)
		f, err := ForRef(resolved, Options{Timeout: im.opts.Timeout})
		if err != nil {
			return err
		}
		rc, err := f.Download(ctx, resolved)
		if err != nil {
			return eris.Wrapf(err, "import: fetch analysis %s", resolved)
		}
		a, err := ParseAnalysis(rc, mi.ItemID, ref)
		rc.Close()
		if err != nil {
			return err
		}
		analyses = append(analyses, a)
	}

	if len(analyses) == 0 {
		zap.L().Warn("import: item has no analyses", zap.String("item_id", mi.ItemID))
		return nil
	}
	if err := im.store.PutAnalyses(ctx, analyses); err != nil {
		return err
	}

	zap.L().Debug("import: item loaded",
		zap.String("item_id", mi.ItemID),
		zap.Int("analyses", len(analyses)),
	)
	return nil
}

// resolveRef resolves an analysis ref against the manifest location when
// the ref is relative.
func resolveRef(manifestRef, ref string) string {
	if strings.Contains(ref, "://") || path.IsAbs(ref) {
		return ref
	}
	if u, err := url.Parse(manifestRef); err == nil && u.Scheme != "" {
		u.Path = path.Join(path.Dir(u.Path), ref)
		return u.String()
	}
	return path.Join(path.Dir(manifestRef), ref)
}
