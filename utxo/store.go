package utxo

import "sync"

// Store persists tracker state. Each call is applied atomically.
type Store interface {
	// Load returns every stored record and outgoing transaction.
	Load() ([]*Record, []*Outgoing, error)
	// Commit writes records and, when non-nil, an outgoing transaction.
	Commit(records []*Record, out *Outgoing) error
	// Release writes records and removes the outgoing transaction txid.
	Release(records []*Record, txid string) error
	Close() error
}

// MemStore is an in-memory Store.
type MemStore struct {
	mu       sync.Mutex
	records  map[string]*Record
	outgoing map[string]*Outgoing
}

var _ Store = (*MemStore)(nil)

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		records:  make(map[string]*Record),
		outgoing: make(map[string]*Outgoing),
	}
}

func (s *MemStore) Load() ([]*Record, []*Outgoing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs := make([]*Record, 0, len(s.records))
	for _, r := range s.records {
		recs = append(recs, r.clone())
	}
	outs := make([]*Outgoing, 0, len(s.outgoing))
	for _, o := range s.outgoing {
		outs = append(outs, o.clone())
	}
	return recs, outs, nil
}

func (s *MemStore) Commit(records []*Record, out *Outgoing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		s.records[r.UTXO.Outpoint()] = r.clone()
	}
	if out != nil {
		s.outgoing[out.TxID] = out.clone()
	}
	return nil
}

func (s *MemStore) Release(records []*Record, txid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		s.records[r.UTXO.Outpoint()] = r.clone()
	}
	delete(s.outgoing, txid)
	return nil
}

func (s *MemStore) Close() error { return nil }
