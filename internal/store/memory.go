package store

import (
	"context"
	"sort"
	"sync"

	"cloud.google.com/go/civil"

	"github.com/claudiormpaes/BondTrack/pkg/models"
	"github.com/claudiormpaes/BondTrack/pkg/table"
)

// Memory implements Store with mutex-guarded maps. It backs tests and the
// offline demo mode (empty database URL).
type Memory struct {
	mu       sync.RWMutex
	curves   map[civil.Date][]models.CurvePoint
	trades   map[civil.Date]*table.Table
	quotes   map[civil.Date]*table.Table
	registry *table.Table
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		curves: make(map[civil.Date][]models.CurvePoint),
		trades: make(map[civil.Date]*table.Table),
		quotes: make(map[civil.Date]*table.Table),
	}
}

func (m *Memory) CurvePoints(_ context.Context, date civil.Date) ([]models.CurvePoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	pts := m.curves[date]
	out := make([]models.CurvePoint, len(pts))
	copy(out, pts)
	sort.Slice(out, func(i, j int) bool { return out[i].DayCount < out[j].DayCount })
	return out, nil
}

func (m *Memory) LatestCurveDate(_ context.Context) (civil.Date, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest civil.Date
	found := false
	for d := range m.curves {
		if !found || d.After(latest) {
			latest = d
			found = true
		}
	}
	return latest, found, nil
}

func (m *Memory) UpsertCurvePoints(_ context.Context, points []models.CurvePoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range points {
		existing := m.curves[p.ReferenceDate]
		replaced := false
		for i, e := range existing {
			if e.DayCount == p.DayCount {
				existing[i] = p
				replaced = true
				break
			}
		}
		if !replaced {
			existing = append(existing, p)
		}
		m.curves[p.ReferenceDate] = existing
	}
	return nil
}

func (m *Memory) Trades(_ context.Context, date civil.Date) (*table.Table, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.trades[date]; ok {
		return t.Clone(), nil
	}
	return table.New(), nil
}

func (m *Memory) Quotes(_ context.Context, date civil.Date) (*table.Table, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.quotes[date]; ok {
		return t.Clone(), nil
	}
	return table.New(), nil
}

func (m *Memory) Registry(_ context.Context) (*table.Table, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.registry != nil {
		return m.registry.Clone(), nil
	}
	return table.New(), nil
}

func (m *Memory) Dates(_ context.Context) ([]civil.Date, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[civil.Date]bool)
	for d := range m.trades {
		seen[d] = true
	}
	for d := range m.quotes {
		seen[d] = true
	}
	out := make([]civil.Date, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[j].Before(out[i]) })
	return out, nil
}

func (m *Memory) UpsertTrades(_ context.Context, date civil.Date, t *table.Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trades[date] = t.Clone()
	return nil
}

func (m *Memory) UpsertQuotes(_ context.Context, date civil.Date, t *table.Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quotes[date] = t.Clone()
	return nil
}

func (m *Memory) ReplaceRegistry(_ context.Context, t *table.Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registry = t.Clone()
	return nil
}
