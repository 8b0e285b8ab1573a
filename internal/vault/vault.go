package vault

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"soundvault/internal/assets"
	"soundvault/internal/config"
	"soundvault/internal/kv"
	"soundvault/internal/models"
	"soundvault/internal/overrides"
	"soundvault/internal/playback"
)

// Vault owns the asset store, the playback cache and the override resolver
// for one database. Open it once per process.
type Vault struct {
	backend kv.Backend
	closer  io.Closer
	logger  *slog.Logger

	store     *assets.Store
	cache     *playback.Cache
	catalog   *overrides.Catalog
	resolver  *overrides.Resolver
	overrides *overrides.Repository

	migration    assets.MigrationReport
	migrationErr error
}

// Open opens the SQLite database named by cfg and starts a vault over it.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Vault, error) {
	db, err := kv.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	v, err := New(ctx, db, cfg, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	v.closer = db
	return v, nil
}

// New starts a vault over an already opened backend. The asset migration runs
// here; its failure is logged and the vault keeps serving.
func New(ctx context.Context, backend kv.Backend, cfg *config.Config, logger *slog.Logger) (*Vault, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		defaults := config.Default()
		cfg = &defaults
	}

	catalog, err := overrides.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}

	store := assets.NewStore(backend, logger)
	cache := playback.NewCache(playback.CapacityForMaxFileSize(cfg.Assets.MaxFileSizeMB), store, logger)
	v := &Vault{
		backend:   backend,
		logger:    logger.With("component", "vault"),
		store:     store,
		cache:     cache,
		catalog:   catalog,
		resolver:  overrides.NewResolver(cache, catalog),
		overrides: overrides.NewRepository(backend),
	}
	store.SetMaxFileBytes(cfg.MaxFileBytes())

	v.migration, v.migrationErr = store.Migrate(ctx)
	if v.migrationErr != nil {
		v.logger.Error("asset migration failed; continuing with current data", "err", v.migrationErr)
	}

	if cfg.Overrides.ResetSeasonalOnStartup {
		if n, err := v.ResetSeasonal(ctx); err != nil {
			v.logger.Warn("seasonal reset failed", "err", err)
		} else if n > 0 {
			v.logger.Info("reset seasonal overrides", "count", n)
		}
	}

	return v, nil
}

// Close releases the backend when the vault opened it.
func (v *Vault) Close() error {
	if v == nil || v.closer == nil {
		return nil
	}
	return v.closer.Close()
}

// Store returns the asset store.
func (v *Vault) Store() *assets.Store { return v.store }

// Cache returns the playback cache.
func (v *Vault) Cache() *playback.Cache { return v.cache }

// Resolver returns the override resolver bound to the vault's cache.
func (v *Vault) Resolver() *overrides.Resolver { return v.resolver }

// Catalog returns the loaded sound catalog.
func (v *Vault) Catalog() *overrides.Catalog { return v.catalog }

// Migration returns the outcome of the startup migration.
func (v *Vault) Migration() (assets.MigrationReport, error) {
	return v.migration, v.migrationErr
}

// ApplyConfig updates the size ceiling and cache capacity from cfg.
func (v *Vault) ApplyConfig(cfg *config.Config) {
	v.store.SetMaxFileBytes(cfg.MaxFileBytes())
	v.cache.SetCapacity(playback.CapacityForMaxFileSize(cfg.Assets.MaxFileSizeMB))
	v.logger.Debug("applied config", "max_file_size_mb", cfg.Assets.MaxFileSizeMB)
}

// Upload filters files by extension and stores the accepted ones as one batch.
// Results line up with the input positions.
func (v *Vault) Upload(ctx context.Context, files []assets.BatchFile) ([]assets.BatchResult, error) {
	results := make([]assets.BatchResult, len(files))
	accepted := make([]assets.BatchFile, 0, len(files))
	positions := make([]int, 0, len(files))
	for i, file := range files {
		if err := assets.ValidateUploadName(file.Name); err != nil {
			results[i] = assets.BatchResult{Name: file.Name, Err: err}
			continue
		}
		accepted = append(accepted, file)
		positions = append(positions, i)
	}

	saved, err := v.store.SaveBatch(ctx, accepted)
	if err != nil {
		return nil, err
	}
	for j, result := range saved {
		results[positions[j]] = result
	}
	return results, nil
}

// Delete removes an asset and drops it from the playback cache. Overrides that
// still reference it fall back to the default sound.
func (v *Vault) Delete(ctx context.Context, id string) error {
	if err := v.store.Delete(ctx, id); err != nil {
		return err
	}
	v.cache.Remove(id)
	return nil
}

// Clear removes every asset and empties the playback cache.
func (v *Vault) Clear(ctx context.Context) error {
	if err := v.store.Clear(ctx); err != nil {
		return err
	}
	v.cache.Clear()
	return nil
}

// Overrides returns the stored override set.
func (v *Vault) Overrides(ctx context.Context) (map[string]models.SoundOverride, error) {
	return v.overrides.Load(ctx)
}

// SetOverride validates and stores the override for eventID.
func (v *Vault) SetOverride(ctx context.Context, eventID string, o models.SoundOverride) error {
	return v.overrides.Put(ctx, eventID, o)
}

// ResetSeasonal moves seasonal overrides back to the default sound.
func (v *Vault) ResetSeasonal(ctx context.Context) (int, error) {
	set, err := v.overrides.Load(ctx)
	if err != nil {
		return 0, err
	}
	n := overrides.ResetSeasonal(set)
	if n == 0 {
		return 0, nil
	}
	if err := v.overrides.Save(ctx, set); err != nil {
		return 0, err
	}
	return n, nil
}

// Resolution is the playback decision for one event.
type Resolution struct {
	EventID  string          `json:"event_id"`
	State    overrides.State `json:"state"`
	URI      string          `json:"uri,omitempty"`
	Override bool            `json:"override"`
	Volume   int             `json:"volume"`
}

// Resolve warms the cache for the event's custom sound if needed and returns
// the playback decision. Missing overrides and assets resolve to the default.
func (v *Vault) Resolve(ctx context.Context, eventID string) (Resolution, error) {
	set, err := v.overrides.Load(ctx)
	if err != nil {
		return Resolution{}, err
	}
	o, ok := set[eventID]
	if !ok {
		return Resolution{EventID: eventID, State: overrides.State{Kind: overrides.StateDefault}, Volume: models.DefaultVolume}, nil
	}

	state := overrides.StateOf(o)
	if state.Kind == overrides.StateCustom {
		if _, _, err := v.cache.EnsureCached(ctx, state.Ref); err != nil {
			v.logger.Warn("custom sound unavailable", "event_id", eventID, "id", state.Ref, "err", err)
		}
	}

	uri, hit := v.resolver.Resolve(eventID, o)
	return Resolution{
		EventID:  eventID,
		State:    state,
		URI:      uri,
		Override: hit,
		Volume:   overrides.EffectiveVolume(o),
	}, nil
}

// PreloadReport summarizes a Preload run.
type PreloadReport struct {
	Requested int            `json:"requested"`
	Loaded    int            `json:"loaded"`
	Missing   []string       `json:"missing,omitempty"`
	Failed    int            `json:"failed"`
	Cache     playback.Stats `json:"cache"`
}

// Preload loads the payloads of all enabled custom overrides into the cache.
func (v *Vault) Preload(ctx context.Context) (PreloadReport, error) {
	set, err := v.overrides.Load(ctx)
	if err != nil {
		return PreloadReport{}, err
	}

	var report PreloadReport
	seen := map[string]struct{}{}
	for _, o := range set {
		state := overrides.StateOf(o)
		if state.Kind != overrides.StateCustom || state.Ref == "" {
			continue
		}
		if _, dup := seen[state.Ref]; dup {
			continue
		}
		seen[state.Ref] = struct{}{}
		report.Requested++

		_, found, err := v.cache.EnsureCached(ctx, state.Ref)
		switch {
		case err != nil:
			report.Failed++
			v.logger.Warn("preload failed", "id", state.Ref, "err", err)
		case !found:
			report.Missing = append(report.Missing, state.Ref)
		default:
			report.Loaded++
		}
	}
	sort.Strings(report.Missing)
	report.Cache = v.cache.Stats()
	return report, nil
}

// ImportReport summarizes an override import.
type ImportReport struct {
	Imported      int      `json:"imported"`
	MissingAssets []string `json:"missing_assets,omitempty"`
}

// ImportOverrides merges an export document into the stored overrides. Audio
// is never part of the document; custom sounds whose asset is not stored are
// listed in the report.
func (v *Vault) ImportOverrides(ctx context.Context, r io.Reader) (ImportReport, error) {
	imported, err := overrides.ReadImport(r)
	if err != nil {
		return ImportReport{}, err
	}
	set, err := v.overrides.Load(ctx)
	if err != nil {
		return ImportReport{}, err
	}
	metas, err := v.store.ListMetadata(ctx)
	if err != nil {
		return ImportReport{}, err
	}

	report := ImportReport{Imported: len(imported)}
	missing := map[string]struct{}{}
	for eventID, o := range imported {
		set[eventID] = o
		if o.SelectedSound != models.SoundCustom {
			continue
		}
		if _, ok := metas[o.SelectedFileID]; !ok {
			missing[o.SelectedFileID] = struct{}{}
		}
	}
	if err := v.overrides.Save(ctx, set); err != nil {
		return ImportReport{}, err
	}
	for id := range missing {
		report.MissingAssets = append(report.MissingAssets, id)
	}
	sort.Strings(report.MissingAssets)
	return report, nil
}

// ExportOverrides writes the stored overrides as an export document.
func (v *Vault) ExportOverrides(ctx context.Context, w io.Writer) error {
	set, err := v.overrides.Load(ctx)
	if err != nil {
		return err
	}
	if err := overrides.WriteExport(w, overrides.Export(set)); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}
