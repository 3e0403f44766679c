// Package memory: хранилище сделок и позиций в памяти процесса.
package memory

import (
	"context"
	"sync"

	"grid_bot/internal/models"
)

type Store struct {
	mu        sync.RWMutex
	trades    map[string]models.Trades
	positions map[string]models.Positions
}

func New() *Store {
	return &Store{
		trades:    make(map[string]models.Trades),
		positions: make(map[string]models.Positions),
	}
}

func (s *Store) SaveFill(_ context.Context, instID string, trades []models.Trade, positions models.Positions) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.trades[instID] = append(s.trades[instID], trades...)
	s.positions[instID] = positions.Clone()
	return nil
}

func (s *Store) LoadPositions(_ context.Context, instID string) (models.Positions, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ps, ok := s.positions[instID]
	if !ok {
		return nil, false, nil
	}
	return ps.Clone(), true, nil
}

// ListTrades отдаёт последние limit сделок в хронологическом порядке; limit <= 0: все.
func (s *Store) ListTrades(_ context.Context, instID string, limit int) (models.Trades, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.trades[instID]
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	out := make(models.Trades, len(all))
	copy(out, all)
	return out, nil
}
