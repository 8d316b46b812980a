package appointment

import (
	"context"
	"sync"
	"time"

	domain "github.com/BruksfildServices01/studio-agenda/internal/domain/appointment"
	"github.com/BruksfildServices01/studio-agenda/internal/domain/ledger"
	"github.com/BruksfildServices01/studio-agenda/internal/models"
)

const DefaultSnapshotMaxAge = 30 * time.Second

// Ledgers mantém um livro de consumo (e seu snapshot de estoque) por
// estabelecimento.
type Ledgers struct {
	remote domain.Remote
	maxAge time.Duration

	mu         sync.Mutex
	byBusiness map[uint]*ledger.Ledger
}

func NewLedgers(remote domain.Remote, maxAge time.Duration) *Ledgers {
	if maxAge <= 0 {
		maxAge = DefaultSnapshotMaxAge
	}
	return &Ledgers{
		remote:     remote,
		maxAge:     maxAge,
		byBusiness: make(map[uint]*ledger.Ledger),
	}
}

// For devolve o livro do estabelecimento com um snapshot de no máximo
// maxAge.
func (l *Ledgers) For(ctx context.Context, businessID uint) (*ledger.Ledger, error) {
	l.mu.Lock()
	lg, ok := l.byBusiness[businessID]
	if !ok {
		lg = ledger.New(l.remote, l.remote)
		l.byBusiness[businessID] = lg
	}
	l.mu.Unlock()

	snap := lg.Snapshot()
	if snap.Empty() || time.Since(snap.FetchedAt()) > l.maxAge {
		if err := lg.Refresh(ctx); err != nil {
			return nil, err
		}
	}
	return lg, nil
}

// LowStock lista os materiais no ou abaixo do estoque mínimo.
type LowStock struct {
	ledgers *Ledgers
}

func NewLowStock(ledgers *Ledgers) *LowStock {
	return &LowStock{ledgers: ledgers}
}

func (uc *LowStock) Execute(ctx context.Context) ([]models.Material, error) {
	businessID, _, err := scope(ctx)
	if err != nil {
		return nil, err
	}

	lg, err := uc.ledgers.For(ctx, businessID)
	if err != nil {
		return nil, err
	}
	return lg.Snapshot().BelowMinimum(), nil
}
