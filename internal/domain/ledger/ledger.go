// Package ledger records the materials used by an appointment at completion
// time and prices them.
package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/BruksfildServices01/studio-agenda/internal/apperr"
	"github.com/BruksfildServices01/studio-agenda/internal/models"
)

type Item struct {
	MaterialID uint            `json:"material_id" validate:"required"`
	Quantity   decimal.Decimal `json:"quantity"`
}

// Recorder is the remote side that decrements stock and stores the records.
type Recorder interface {
	RecordConsumption(ctx context.Context, appointmentID uint, items []Item) ([]models.ConsumptionRecord, error)
}

type MaterialSource interface {
	ListMaterials(ctx context.Context) ([]models.Material, error)
}

// ======================================================
// SNAPSHOT
// ======================================================

// Snapshot is the last-fetched view of stock. The remote service stays the
// source of truth.
type Snapshot struct {
	mu        sync.RWMutex
	materials map[uint]models.Material
	fetchedAt time.Time
}

func NewSnapshot(materials []models.Material, at time.Time) *Snapshot {
	s := &Snapshot{}
	s.Replace(materials, at)
	return s
}

func (s *Snapshot) Replace(materials []models.Material, at time.Time) {
	m := make(map[uint]models.Material, len(materials))
	for _, mat := range materials {
		m[mat.ID] = mat
	}

	s.mu.Lock()
	s.materials = m
	s.fetchedAt = at
	s.mu.Unlock()
}

func (s *Snapshot) Get(id uint) (models.Material, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.materials[id]
	return m, ok
}

func (s *Snapshot) FetchedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fetchedAt
}

func (s *Snapshot) Empty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fetchedAt.IsZero()
}

// BelowMinimum lists materials at or under their minimum stock, by name.
func (s *Snapshot) BelowMinimum() []models.Material {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Material
	for _, m := range s.materials {
		if m.Stock.LessThanOrEqual(m.MinStock) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *Snapshot) consume(records []models.ConsumptionRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		if m, ok := s.materials[r.MaterialID]; ok {
			m.Stock = m.Stock.Sub(r.Quantity)
			s.materials[r.MaterialID] = m
		}
	}
}

// ======================================================
// LEDGER
// ======================================================

type Ledger struct {
	recorder Recorder
	source   MaterialSource
	snapshot *Snapshot
	now      func() time.Time
}

func New(recorder Recorder, source MaterialSource) *Ledger {
	return &Ledger{
		recorder: recorder,
		source:   source,
		snapshot: &Snapshot{materials: map[uint]models.Material{}},
		now:      time.Now,
	}
}

func (l *Ledger) Snapshot() *Snapshot { return l.snapshot }

// Refresh refetches the stock snapshot.
func (l *Ledger) Refresh(ctx context.Context) error {
	materials, err := l.source.ListMaterials(ctx)
	if err != nil {
		return err
	}
	l.snapshot.Replace(materials, l.now())
	return nil
}

// Prepare validates a batch against the snapshot and prices it, without any
// remote call. Lines for the same material are summed. One bad line rejects
// the whole batch.
func (l *Ledger) Prepare(appointmentID uint, items []Item) ([]models.ConsumptionRecord, error) {
	if len(items) == 0 {
		return nil, apperr.Validation("materials_required", "Informe ao menos um material.")
	}

	order := make([]uint, 0, len(items))
	totals := make(map[uint]decimal.Decimal, len(items))
	for _, it := range items {
		if !it.Quantity.IsPositive() {
			return nil, apperr.Validation(
				"invalid_quantity",
				fmt.Sprintf("Quantidade inválida para o material %d.", it.MaterialID),
			)
		}
		if _, seen := totals[it.MaterialID]; !seen {
			order = append(order, it.MaterialID)
		}
		totals[it.MaterialID] = totals[it.MaterialID].Add(it.Quantity)
	}

	records := make([]models.ConsumptionRecord, 0, len(order))
	for _, id := range order {
		qty := totals[id]

		mat, ok := l.snapshot.Get(id)
		if !ok {
			return nil, apperr.Validation(
				"material_not_found",
				fmt.Sprintf("Material %d não encontrado.", id),
			)
		}
		if qty.GreaterThan(mat.Stock) {
			return nil, &apperr.InsufficientStockError{
				MaterialID: mat.ID,
				Material:   mat.Name,
				Available:  mat.Stock,
				Requested:  qty,
			}
		}

		records = append(records, models.ConsumptionRecord{
			AppointmentID: appointmentID,
			MaterialID:    mat.ID,
			MaterialName:  mat.Name,
			Quantity:      qty,
			UnitCost:      mat.UnitCost,
			Total:         LineTotal(qty, mat.UnitCost),
		})
	}

	return records, nil
}

// Record validates locally and then asks the remote service to store the
// batch. Nothing is sent when local validation fails.
func (l *Ledger) Record(ctx context.Context, appointmentID uint, items []Item) ([]models.ConsumptionRecord, error) {
	if l.snapshot.Empty() {
		if err := l.Refresh(ctx); err != nil {
			return nil, err
		}
	}

	prepared, err := l.Prepare(appointmentID, items)
	if err != nil {
		return nil, err
	}

	merged := make([]Item, 0, len(prepared))
	for _, r := range prepared {
		merged = append(merged, Item{MaterialID: r.MaterialID, Quantity: r.Quantity})
	}

	records, err := l.recorder.RecordConsumption(ctx, appointmentID, merged)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		records = prepared
	}

	l.snapshot.consume(records)
	return records, nil
}

// ======================================================
// COST
// ======================================================

func LineTotal(quantity, unitCost decimal.Decimal) decimal.Decimal {
	return quantity.Mul(unitCost).Round(2)
}

func TotalCost(records []models.ConsumptionRecord) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.Total)
	}
	return total.Round(2)
}
