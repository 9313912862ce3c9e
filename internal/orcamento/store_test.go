package orcamento

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

type memStore struct {
	docs    map[string][]byte
	seq     int
	fail    error
	creates int
	updates int
	deletes int
}

func newMemStore() *memStore {
	return &memStore{docs: make(map[string][]byte)}
}

func (s *memStore) CreateBudget(_ context.Context, b *Budget) (string, error) {
	if s.fail != nil {
		return "", s.fail
	}
	s.seq++
	s.creates++
	id := fmt.Sprintf("orc-%d", s.seq)
	cp := *b
	cp.ID = id
	raw, _ := json.Marshal(cp)
	s.docs[id] = raw
	return id, nil
}

func (s *memStore) UpdateBudget(_ context.Context, id string, b *Budget) error {
	if s.fail != nil {
		return s.fail
	}
	if _, ok := s.docs[id]; !ok {
		return errors.New("not found")
	}
	s.updates++
	b.KeepSignatureState(s.get(id))
	raw, _ := json.Marshal(b)
	s.docs[id] = raw
	return nil
}

func (s *memStore) DeleteBudget(_ context.Context, id string) error {
	if s.fail != nil {
		return s.fail
	}
	s.deletes++
	delete(s.docs, id)
	return nil
}

func (s *memStore) get(id string) *Budget {
	raw, ok := s.docs[id]
	if !ok {
		return nil
	}
	var b Budget
	_ = json.Unmarshal(raw, &b)
	return &b
}

func procs(prices ...int64) []Procedure {
	out := make([]Procedure, len(prices))
	for i, p := range prices {
		out[i] = Procedure{
			ID:            fmt.Sprintf("p%d", i+1),
			Procedimento:  fmt.Sprintf("Procedimento %d", i+1),
			ValorCentavos: p,
			Dentes:        []Tooth{{Numero: 11 + i}},
			Estado:        EstadoARealizar,
		}
	}
	return out
}

func ids(ps []Procedure) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}
