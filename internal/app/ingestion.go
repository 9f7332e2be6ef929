package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"kitchen-inventory/internal/datasheet"
	"kitchen-inventory/internal/inventory"
	"kitchen-inventory/internal/logger"
	"kitchen-inventory/internal/storage"
)

// ErrNoExtractor is returned by ImportDatasheets when no model is configured.
var ErrNoExtractor = errors.New("datasheet extraction is not configured")

// ImportSummary counts the outcome of a snapshot import.
type ImportSummary struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

// ImportSnapshot saves every item of snap, keeping ids so component
// references survive. Invalid items are logged and skipped.
func (a *App) ImportSnapshot(ctx context.Context, snap storage.Snapshot) (ImportSummary, error) {
	existing, err := a.repo.Catalog(ctx)
	if err != nil {
		return ImportSummary{}, err
	}

	var sum ImportSummary
	for _, it := range snap.Items {
		_, known := existing.Lookup(it.ID)
		if _, err := a.repo.Save(ctx, it); err != nil {
			if ctx.Err() != nil {
				return sum, ctx.Err()
			}
			logger.L().Warn("skipping item during import", zap.String("id", it.ID), zap.String("name", it.Name), zap.Error(err))
			sum.Skipped++
			continue
		}
		if known && it.ID != "" {
			sum.Updated++
		} else {
			sum.Created++
		}
	}
	logger.L().Info("snapshot imported",
		zap.Int("created", sum.Created), zap.Int("updated", sum.Updated), zap.Int("skipped", sum.Skipped))
	return sum, nil
}

// DatasheetImport is the outcome for one datasheet source.
type DatasheetImport struct {
	Source    string                         `json:"source"`
	Item      *inventory.Item                `json:"item,omitempty"`
	Linked    []datasheet.LinkedComponent    `json:"linked,omitempty"`
	Unmatched []datasheet.SuggestedComponent `json:"unmatched,omitempty"`
	Error     string                         `json:"error,omitempty"`
}

// ImportDatasheets extracts each source and stores the result as a new
// item. Suggested components are linked to existing items by name. A
// failing source is reported in its result and does not stop the others.
func (a *App) ImportDatasheets(ctx context.Context, sources []string) ([]DatasheetImport, error) {
	if a.extractor == nil {
		return nil, ErrNoExtractor
	}

	results, err := a.extractor.ExtractAll(ctx, sources, a.cfg.ExtractConcurrency)
	if err != nil {
		return nil, fmt.Errorf("failed to extract datasheets: %w", err)
	}

	candidates, err := a.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]DatasheetImport, 0, len(results))
	for _, r := range results {
		if err := a.metricsStore.RecordMeta(ctx, r.Meta); err != nil {
			logger.L().Warn("failed to record metrics", zap.String("agent", r.Meta.AgentName), zap.Error(err))
		}

		imp := DatasheetImport{Source: r.Source}
		if r.Err != nil {
			logger.L().Warn("datasheet extraction failed", zap.String("source", r.Source), zap.Error(r.Err))
			imp.Error = r.Err.Error()
			out = append(out, imp)
			continue
		}

		draft := r.Datasheet.ToItem()
		if len(r.Datasheet.Components) > 0 {
			applied := datasheet.ApplySuggestedComponents(draft, r.Datasheet.Components, candidates)
			draft = applied.Item
			imp.Linked = applied.Linked
			imp.Unmatched = applied.Unmatched
		}

		saved, err := a.repo.Save(ctx, draft)
		if err != nil {
			imp.Error = err.Error()
			out = append(out, imp)
			continue
		}
		candidates = append(candidates, saved)
		imp.Item = &saved
		logger.L().Info("datasheet imported",
			zap.String("source", r.Source),
			zap.String("id", saved.ID),
			zap.String("name", saved.Name),
			zap.Int("unmatched_components", len(imp.Unmatched)))
		out = append(out, imp)
	}
	return out, nil
}
