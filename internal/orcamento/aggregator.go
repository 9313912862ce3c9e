package orcamento

import "math"

// Aggregator holds the working set of line items of the budget being composed.
// Items keep insertion order; ids are unique.
type Aggregator struct {
	items    []LineItem
	selected map[string]struct{}
}

// NewAggregator seeds a new budget with the explicitly selected procedures only. Procedures
// that are merely available, including pending "a_realizar" ones, are not included.
func NewAggregator(procedures []Procedure, selectedIDs []string) *Aggregator {
	a := &Aggregator{selected: make(map[string]struct{})}
	want := make(map[string]struct{}, len(selectedIDs))
	for _, id := range selectedIDs {
		want[id] = struct{}{}
	}
	for _, p := range procedures {
		if _, ok := want[p.ID]; ok {
			a.Add(p)
		}
	}
	return a
}

// AggregatorFromSnapshot rebuilds the items of a persisted budget. Each snapshot item is joined
// to the live procedure by id for display metadata; items whose procedure no longer exists are dropped.
// Price and commission overlays come from the snapshot.
func AggregatorFromSnapshot(snapshot []LineItem, live []Procedure) *Aggregator {
	a := &Aggregator{selected: make(map[string]struct{})}
	byID := make(map[string]Procedure, len(live))
	for _, p := range live {
		byID[p.ID] = p
	}
	for _, it := range snapshot {
		p, ok := byID[it.ID]
		if !ok {
			continue
		}
		if _, dup := a.selected[it.ID]; dup {
			continue
		}
		merged := it
		merged.Dentes = p.Dentes
		merged.SelectionTypes = p.SelectionTypes
		merged.Estado = p.Estado
		if merged.Procedimento == "" {
			merged.Procedimento = p.Procedimento
		}
		merged.ValorCentavosEditado = copyPrice(it.ValorCentavosEditado)
		a.items = append(a.items, merged)
		a.selected[it.ID] = struct{}{}
	}
	return a
}

// Add appends a line item for the candidate, defaulting the overlays to its base price and
// commission. Returns false when the id is already present.
func (a *Aggregator) Add(p Procedure) bool {
	if _, ok := a.selected[p.ID]; ok {
		return false
	}
	price := p.ValorCentavos
	if price < 0 {
		price = 0
	}
	a.items = append(a.items, LineItem{
		Procedure:              p,
		ValorCentavosEditado:   &price,
		ComissaoPercentEditado: clampPercent(p.ComissaoPercent),
	})
	a.selected[p.ID] = struct{}{}
	return true
}

func (a *Aggregator) Remove(id string) bool {
	if _, ok := a.selected[id]; !ok {
		return false
	}
	delete(a.selected, id)
	for i := range a.items {
		if a.items[i].ID == id {
			a.items = append(a.items[:i], a.items[i+1:]...)
			break
		}
	}
	return true
}

// SetPriceOverride sets the item price; negative input is stored as 0 and amounts above
// MaxCentavos are rejected.
func (a *Aggregator) SetPriceOverride(id string, centavos int64) error {
	it := a.find(id)
	if it == nil {
		return ErrItemNotFound
	}
	if centavos > MaxCentavos {
		return ErrInvalidAmount
	}
	if centavos < 0 {
		centavos = 0
	}
	it.ValorCentavosEditado = &centavos
	return nil
}

func (a *Aggregator) SetCommissionOverride(id string, percent float64) error {
	it := a.find(id)
	if it == nil {
		return ErrItemNotFound
	}
	it.ComissaoPercentEditado = clampPercent(percent)
	return nil
}

func (a *Aggregator) Selected(id string) bool {
	_, ok := a.selected[id]
	return ok
}

func (a *Aggregator) Len() int { return len(a.items) }

// Items returns a deep copy; callers can't reach the aggregator state through it.
func (a *Aggregator) Items() []LineItem {
	out := make([]LineItem, len(a.items))
	for i, it := range a.items {
		it.ValorCentavosEditado = copyPrice(it.ValorCentavosEditado)
		out[i] = it
	}
	return out
}

func (a *Aggregator) find(id string) *LineItem {
	for i := range a.items {
		if a.items[i].ID == id {
			return &a.items[i]
		}
	}
	return nil
}

func copyPrice(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func clampPercent(p float64) float64 {
	if math.IsNaN(p) || p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
