package app

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"kitchen-inventory/internal/config"
	"kitchen-inventory/internal/costing"
	"kitchen-inventory/internal/datasheet"
	"kitchen-inventory/internal/inventory"
	"kitchen-inventory/internal/logger"
	"kitchen-inventory/internal/matcher"
	"kitchen-inventory/internal/metrics"
	"kitchen-inventory/internal/storage"
)

// snapshotsToKeep is how many exports ExportSnapshot leaves on disk.
const snapshotsToKeep = 10

// DatasheetExtractor extracts datasheets from a batch of sources.
type DatasheetExtractor interface {
	ExtractAll(ctx context.Context, sources []string, limit int) ([]datasheet.BatchResult, error)
}

// App holds the application's dependencies.
type App struct {
	cfg          *config.Config
	repo         *inventory.Repository
	snapshots    *storage.SnapshotStore
	metricsStore *metrics.Store
	extractor    DatasheetExtractor
}

// NewApp creates and initializes a new App instance. extractor may be nil
// when no language model is configured; ImportDatasheets then fails.
func NewApp(
	cfg *config.Config,
	repo *inventory.Repository,
	snapshots *storage.SnapshotStore,
	metricsStore *metrics.Store,
	extractor DatasheetExtractor,
) *App {
	return &App{
		cfg:          cfg,
		repo:         repo,
		snapshots:    snapshots,
		metricsStore: metricsStore,
		extractor:    extractor,
	}
}

// ListItems returns every item ordered by name.
func (a *App) ListItems(ctx context.Context) ([]inventory.Item, error) {
	return a.repo.List(ctx)
}

// GetItem returns one item.
func (a *App) GetItem(ctx context.Context, id string) (inventory.Item, error) {
	return a.repo.Get(ctx, id)
}

// SaveItem validates and stores an item.
func (a *App) SaveItem(ctx context.Context, it inventory.Item) (inventory.Item, error) {
	saved, err := a.repo.Save(ctx, it)
	if err != nil {
		return inventory.Item{}, err
	}
	logger.L().Info("item saved", zap.String("id", saved.ID), zap.String("name", saved.Name))
	return saved, nil
}

// Evaluate computes the cost, nutrition and allergen report for an item.
// When draft is non-nil its components replace the stored ones, so unsaved
// edits can be previewed against the current inventory.
func (a *App) Evaluate(ctx context.Context, id string, draft *[]inventory.Component) (costing.Report, error) {
	catalog, err := a.repo.Catalog(ctx)
	if err != nil {
		return costing.Report{}, err
	}
	root, ok := catalog.Lookup(id)
	if !ok {
		return costing.Report{}, fmt.Errorf("%w: %s", inventory.ErrNotFound, id)
	}
	if draft != nil {
		root = root.WithComponents(*draft)
	}
	return costing.Evaluate(root, catalog), nil
}

// DeleteItem removes an item, leaving ghost components in the recipes that
// used it. It returns the number of affected recipes.
func (a *App) DeleteItem(ctx context.Context, id string) (int, error) {
	n, err := a.repo.Delete(ctx, id)
	if err != nil {
		return 0, err
	}
	logger.L().Info("item deleted", zap.String("id", id), zap.Int("recipes_with_ghosts", n))
	return n, nil
}

// Ghosts lists every component whose item was deleted.
func (a *App) Ghosts(ctx context.Context) ([]inventory.GhostRef, error) {
	catalog, err := a.repo.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.Ghosts(), nil
}

// ReplaceGhost links ghost components named deletedName to replacementID,
// in parentID only or in every recipe when parentID is empty.
func (a *App) ReplaceGhost(ctx context.Context, deletedName, replacementID, parentID string) (int, error) {
	n, err := a.repo.ReplaceGhost(ctx, deletedName, replacementID, parentID)
	if err != nil {
		return 0, err
	}
	logger.L().Info("ghost components replaced",
		zap.String("deleted_name", deletedName),
		zap.String("replacement_id", replacementID),
		zap.Int("relinked", n))
	return n, nil
}

// MatchResult is the inventory item a free-text name resolves to.
type MatchResult struct {
	Item  inventory.Item `json:"item"`
	Score float64        `json:"score"`
	Exact bool           `json:"exact"`
}

// Match resolves name against the inventory the same way datasheet
// components are linked. ok is false when nothing is similar enough.
func (a *App) Match(ctx context.Context, name string) (MatchResult, bool, error) {
	if strings.TrimSpace(name) == "" {
		return MatchResult{}, false, fmt.Errorf("name must not be empty")
	}
	items, err := a.repo.List(ctx)
	if err != nil {
		return MatchResult{}, false, err
	}

	if it, ok := matcher.FindExactProduced(name, items); ok {
		return MatchResult{Item: it, Score: matcher.Similarity(name, it.Name), Exact: true}, true, nil
	}
	it, ok := matcher.FindBestMatch(name, items)
	if !ok {
		return MatchResult{}, false, nil
	}
	return MatchResult{Item: it, Score: matcher.Similarity(name, it.Name)}, true, nil
}

// ExportSnapshot writes the whole inventory to a new snapshot file and
// prunes old ones. It returns the file name.
func (a *App) ExportSnapshot(ctx context.Context) (string, error) {
	items, err := a.repo.List(ctx)
	if err != nil {
		return "", err
	}
	name, err := a.snapshots.Save(storage.Snapshot{Items: items})
	if err != nil {
		return "", fmt.Errorf("failed to export snapshot: %w", err)
	}
	if removed, err := a.snapshots.RemoveStaleVersions(snapshotsToKeep); err != nil {
		logger.L().Warn("failed to remove stale snapshots", zap.Error(err))
	} else if removed > 0 {
		logger.L().Debug("removed stale snapshots", zap.Int("count", removed))
	}
	logger.L().Info("snapshot exported", zap.String("file", name), zap.Int("items", len(items)))
	return name, nil
}

// DailyUsage reports extractor token usage for the last days.
func (a *App) DailyUsage(ctx context.Context, days int) ([]metrics.DailyUsage, error) {
	return a.metricsStore.GetDailyUsage(ctx, days)
}

// CleanupMetrics deletes usage records older than days.
func (a *App) CleanupMetrics(ctx context.Context, days int) (int64, error) {
	n, err := a.metricsStore.Cleanup(ctx, days)
	if err != nil {
		return 0, err
	}
	logger.L().Info("metrics cleaned up", zap.Int64("deleted", n), zap.Int("older_than_days", days))
	return n, nil
}

// Health reports process and storage health.
func (a *App) Health() metrics.SysHealth {
	return metrics.GetSysHealth(a.cfg.DatabasePath, a.cfg.SnapshotPath)
}
