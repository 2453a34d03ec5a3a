package pending

import (
	"context"
	"errors"
	"testing"

	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/pendingtx-go/tx"
)

// newPlan builds n batch elements followed by one final transaction.
func newPlan(t *testing.T, n int, gen func(f *fixture) Generator) []*Transaction {
	t.Helper()
	var plan []*Transaction
	for i := 0; i <= n; i++ {
		f := newFixture(t)
		p, err := New(gen(f), f.body, f.utxos, f.addresses, exampleEconomics(), i == n)
		require.NoError(t, err)
		plan = append(plan, p)
	}
	return plan
}

func TestSignAll(t *testing.T) {
	plan := newPlan(t, 2, func(f *fixture) Generator { return NewGenerator(keySigner(f.keys), nil) })

	require.NoError(t, SignAll(context.Background(), plan))
	for _, p := range plan {
		assert.True(t, p.Payload().IsFullySigned())
	}
	assert.True(t, plan[0].IsBatch())
	assert.True(t, plan[2].IsFinal())
}

func TestSignAll_FirstError(t *testing.T) {
	signErr := errors.New("signer offline")
	plan := newPlan(t, 1, func(f *fixture) Generator {
		return NewGenerator(&mockSigner{
			TrySignFn: func(context.Context, *tx.SignableTx, []*script.Address) (*tx.SignableTx, error) {
				return nil, signErr
			},
		}, nil)
	})

	assert.ErrorIs(t, SignAll(context.Background(), plan), signErr)
}

func TestSubmitAll_Order(t *testing.T) {
	plan := newPlan(t, 2, func(*fixture) Generator { return NewGenerator(nil, nil) })
	transport := &mockTransport{
		SubmitFn: func(_ context.Context, wire *tx.WireTx, _ bool) (string, error) { return wire.TxID, nil },
	}

	ids, err := SubmitAll(context.Background(), transport, plan)
	require.NoError(t, err)
	require.Len(t, ids, 3)
	for i, p := range plan {
		assert.Equal(t, p.ID(), ids[i])
		assert.Equal(t, p.ID(), transport.received[i].TxID)
		assert.True(t, p.IsCommitted())
	}
}

func TestSubmitAll_StopsAtFailure(t *testing.T) {
	plan := newPlan(t, 2, func(*fixture) Generator { return NewGenerator(nil, nil) })
	rejected := errors.New("network: broadcast rejected")
	calls := 0
	transport := &mockTransport{
		SubmitFn: func(_ context.Context, wire *tx.WireTx, _ bool) (string, error) {
			calls++
			if calls == 2 {
				return "", rejected
			}
			return wire.TxID, nil
		},
	}

	ids, err := SubmitAll(context.Background(), transport, plan)
	assert.ErrorIs(t, err, rejected)
	assert.Equal(t, []string{plan[0].ID()}, ids)
	assert.True(t, plan[1].IsCommitted())
	assert.False(t, plan[2].IsCommitted())
	assert.Equal(t, 2, transport.count())
}

func TestSubmitAll_Cancelled(t *testing.T) {
	plan := newPlan(t, 0, func(*fixture) Generator { return NewGenerator(nil, nil) })
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ids, err := SubmitAll(ctx, fixedTransport("abc"), plan)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, ids)
	assert.False(t, plan[0].IsCommitted())
}
