// Package utxo tracks the wallet's unspent outputs through the pending
// transaction lifecycle. A committed transaction moves its inputs from
// available to outgoing so they are never selected twice.
package utxo

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bitfsorg/pendingtx-go/pending"
	"github.com/bitfsorg/pendingtx-go/tx"
)

// Tracker holds the wallet's outputs and implements pending.UTXONotifier.
type Tracker struct {
	mu       sync.Mutex
	records  map[string]*Record   // keyed by outpoint
	outgoing map[string]*Outgoing // keyed by txid

	store Store
	log   *zap.Logger
}

var _ pending.UTXONotifier = (*Tracker)(nil)

// NewTracker loads state from store. A nil store keeps state in memory only;
// a nil log discards output.
func NewTracker(store Store, log *zap.Logger) (*Tracker, error) {
	if log == nil {
		log = zap.NewNop()
	}
	t := &Tracker{
		records:  make(map[string]*Record),
		outgoing: make(map[string]*Outgoing),
		store:    store,
		log:      log,
	}
	if store == nil {
		return t, nil
	}

	recs, outs, err := store.Load()
	if err != nil {
		return nil, err
	}
	for _, r := range recs {
		t.records[r.UTXO.Outpoint()] = r
	}
	for _, o := range outs {
		t.outgoing[o.TxID] = o
	}
	log.Debug("utxo tracker loaded", zap.Int("records", len(recs)), zap.Int("outgoing", len(outs)))
	return t, nil
}

// Add tracks u as available. Re-adding an available output replaces it;
// re-adding an outgoing one fails with ErrAlreadySpent.
func (t *Tracker) Add(u *tx.UTXO) error {
	if u == nil {
		return fmt.Errorf("%w: utxo", ErrNilParam)
	}
	if _, err := u.Hash(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	key := u.Outpoint()
	if r, ok := t.records[key]; ok && r.State == StateOutgoing {
		return fmt.Errorf("%w: %s by %s", ErrAlreadySpent, key, r.SpentBy)
	}
	rec := &Record{UTXO: u.Clone(), State: StateAvailable}
	if err := t.persist([]*Record{rec}, nil); err != nil {
		return err
	}
	t.records[key] = rec
	return nil
}

// Available returns the spendable outputs ordered by outpoint.
func (t *Tracker) Available() []*tx.UTXO {
	t.mu.Lock()
	defer t.mu.Unlock()

	keys := make([]string, 0, len(t.records))
	for k, r := range t.records {
		if r.State == StateAvailable {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	out := make([]*tx.UTXO, len(keys))
	for i, k := range keys {
		out[i] = t.records[k].UTXO.Clone()
	}
	return out
}

// Balance sums the amounts of available outputs.
func (t *Tracker) Balance() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	var total uint64
	for _, r := range t.records {
		if r.State == StateAvailable {
			total += r.UTXO.Amount
		}
	}
	return total
}

// Get returns the record for outpoint ("txid:vout").
func (t *Tracker) Get(outpoint string) (*Record, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	r, ok := t.records[outpoint]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownUTXO, outpoint)
	}
	return r.clone(), nil
}

// Outgoing returns the outgoing transaction txid.
func (t *Tracker) Outgoing(txid string) (*Outgoing, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	o, ok := t.outgoing[txid]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrOutgoingNotFound, txid)
	}
	return o.clone(), nil
}

// HandleOutgoingTransaction marks every input of p as outgoing. All inputs
// must be tracked and available; otherwise nothing changes.
func (t *Tracker) HandleOutgoingTransaction(ctx context.Context, p *pending.Transaction) error {
	if p == nil {
		return fmt.Errorf("%w: transaction", ErrNilParam)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	txid := p.ID()
	entries := p.UTXOEntries()

	t.mu.Lock()
	defer t.mu.Unlock()

	updated := make([]*Record, 0, len(entries))
	inputs := make([]string, 0, len(entries))
	for _, u := range entries {
		key := u.Outpoint()
		r, ok := t.records[key]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownUTXO, key)
		}
		if r.State != StateAvailable {
			return fmt.Errorf("%w: %s by %s", ErrAlreadySpent, key, r.SpentBy)
		}
		next := r.clone()
		next.State = StateOutgoing
		next.SpentBy = txid
		updated = append(updated, next)
		inputs = append(inputs, key)
	}

	payment, hasPayment := p.PaymentValue()
	out := &Outgoing{
		TxID:         txid,
		Inputs:       inputs,
		Fees:         p.Fees(),
		PaymentValue: payment,
		HasPayment:   hasPayment,
		ChangeValue:  p.ChangeValue(),
		IsFinal:      p.IsFinal(),
		CommittedAt:  time.Now().UTC(),
	}
	if err := t.persist(updated, out); err != nil {
		return err
	}
	for _, r := range updated {
		t.records[r.UTXO.Outpoint()] = r
	}
	t.outgoing[txid] = out

	t.log.Info("outputs marked outgoing",
		zap.String("txid", txid),
		zap.Int("inputs", len(inputs)),
		zap.Uint64("fees", out.Fees),
	)
	return nil
}

// Release returns the inputs of the outgoing transaction txid to available,
// for a broadcast that never reached the network. The pending transaction
// itself stays committed; the caller generates a new one.
func (t *Tracker) Release(txid string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	o, ok := t.outgoing[txid]
	if !ok {
		return fmt.Errorf("%w: %s", ErrOutgoingNotFound, txid)
	}

	var updated []*Record
	for _, key := range o.Inputs {
		r, ok := t.records[key]
		if !ok || r.SpentBy != txid {
			continue
		}
		next := r.clone()
		next.State = StateAvailable
		next.SpentBy = ""
		updated = append(updated, next)
	}

	if t.store != nil {
		if err := t.store.Release(updated, txid); err != nil {
			return fmt.Errorf("utxo: release %s: %w", txid, err)
		}
	}
	for _, r := range updated {
		t.records[r.UTXO.Outpoint()] = r
	}
	delete(t.outgoing, txid)

	t.log.Info("outgoing transaction released", zap.String("txid", txid), zap.Int("inputs", len(updated)))
	return nil
}

// persist writes through to the store. Callers hold t.mu.
func (t *Tracker) persist(records []*Record, out *Outgoing) error {
	if t.store == nil {
		return nil
	}
	if err := t.store.Commit(records, out); err != nil {
		return fmt.Errorf("utxo: persist: %w", err)
	}
	return nil
}
