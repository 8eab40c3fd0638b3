package services

import (
	"context"
	"sync"

	"github.com/vncsmyrnk/voteportal/internal/core/domain"
	"github.com/vncsmyrnk/voteportal/internal/core/ports"
)

// sequenceGenerator hands out voter uids from a counter persisted next to the
// roster. The counter never moves backwards, so uids are not reused after
// deletions or re-imports.
type sequenceGenerator struct {
	records *Records
	mu      sync.Mutex
}

func NewUIDGenerator(records *Records) ports.UIDGenerator {
	return &sequenceGenerator{records: records}
}

func (g *sequenceGenerator) Next(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	store := g.records.Store()
	seq := Get(ctx, store, domain.KeyVoterSeq, 0)
	for _, v := range g.records.Voters(ctx) {
		if n, ok := domain.UIDOrdinal(v.UID); ok && n > seq {
			seq = n
		}
	}
	seq++
	Set(ctx, store, domain.KeyVoterSeq, seq)

	return domain.FormatUID(seq), nil
}
