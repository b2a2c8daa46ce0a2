package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"GridPulse/internal/domain/models"
)

// MemoryFeatureStore serves the feature table from memory, grouped by region
// and kept in date order.
type MemoryFeatureStore struct {
	mu       sync.RWMutex
	byRegion map[models.Region][]models.DailyFeatureRecord
}

func NewMemoryFeatureStore(recs []models.DailyFeatureRecord) *MemoryFeatureStore {
	s := &MemoryFeatureStore{}
	s.Replace(recs)
	return s
}

// LoadMemoryFeatureStore reads a feature CSV into a new store.
func LoadMemoryFeatureStore(path string) (*MemoryFeatureStore, error) {
	f, err := ReadFrame(path)
	if err != nil {
		return nil, err
	}
	recs, err := DecodeFeatures(f, path)
	if err != nil {
		return nil, err
	}
	return NewMemoryFeatureStore(recs), nil
}

// Replace swaps the served table.
func (s *MemoryFeatureStore) Replace(recs []models.DailyFeatureRecord) {
	byRegion := make(map[models.Region][]models.DailyFeatureRecord)
	for _, r := range recs {
		byRegion[r.Region] = append(byRegion[r.Region], r)
	}
	for _, rows := range byRegion {
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
	}

	s.mu.Lock()
	s.byRegion = byRegion
	s.mu.Unlock()
}

func (s *MemoryFeatureStore) Features(_ context.Context, region models.Region, from, to time.Time, limit int) ([]models.DailyFeatureRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.DailyFeatureRecord, 0)
	for _, r := range s.byRegion[region] {
		if !from.IsZero() && r.Date.Before(from) {
			continue
		}
		if !to.IsZero() && r.Date.After(to) {
			break
		}
		out = append(out, r)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Anomalies returns flagged days, most recent first.
func (s *MemoryFeatureStore) Anomalies(_ context.Context, region models.Region, limit int) ([]models.DailyFeatureRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.DailyFeatureRecord, 0)
	for reg, rows := range s.byRegion {
		if region != "" && reg != region {
			continue
		}
		for _, r := range rows {
			if r.AnomalyFlag {
				out = append(out, r)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].Region < out[j].Region
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryFeatureStore) Regions(_ context.Context) []models.Region {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Region, 0, len(s.byRegion))
	for r := range s.byRegion {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
