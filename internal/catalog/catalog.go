package catalog

import (
	"context"
	"errors"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/DoyleJ11/wordbattle-backend/internal/engine"
)

var ErrNoEligibleLevel = errors.New("no eligible level")

// Catalog hands out the level a new battle is played on.
type Catalog interface {
	PickLevel(ctx context.Context) (engine.Level, error)
}

// Memory is a process-local catalog. It favours the least played levels and
// breaks ties at random.
type Memory struct {
	mu     sync.Mutex
	levels []engine.Level
	plays  map[string]int
}

func NewMemory(levels ...engine.Level) *Memory {
	m := &Memory{plays: make(map[string]int)}
	for _, l := range levels {
		if len(l.Words) == 0 || len(l.Letters) == 0 {
			continue
		}
		m.levels = append(m.levels, clone(l))
	}
	return m
}

func (m *Memory) PickLevel(ctx context.Context) (engine.Level, error) {
	if err := ctx.Err(); err != nil {
		return engine.Level{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.levels) == 0 {
		return engine.Level{}, ErrNoEligibleLevel
	}

	least := -1
	var candidates []int
	for i, l := range m.levels {
		n := m.plays[l.ID]
		switch {
		case least == -1 || n < least:
			least = n
			candidates = []int{i}
		case n == least:
			candidates = append(candidates, i)
		}
	}

	picked := m.levels[candidates[rand.IntN(len(candidates))]]
	m.plays[picked.ID]++
	return clone(picked), nil
}

func (m *Memory) Plays(levelID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.plays[levelID]
}

func clone(l engine.Level) engine.Level {
	return engine.Level{ID: l.ID, Letters: slices.Clone(l.Letters), Words: slices.Clone(l.Words)}
}
