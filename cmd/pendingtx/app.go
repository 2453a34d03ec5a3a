package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/bitfsorg/pendingtx-go/config"
	"github.com/bitfsorg/pendingtx-go/network"
	"github.com/bitfsorg/pendingtx-go/pending"
	"github.com/bitfsorg/pendingtx-go/utxo"
	"github.com/bitfsorg/pendingtx-go/wallet"
)

// app is the state shared by subcommands once the root command has run its
// setup.
type app struct {
	cfg      config.Config
	log      *zap.Logger
	registry *prometheus.Registry
	metrics  *pending.Metrics
	out      io.Writer
}

func (a *app) walletNetwork() (*wallet.NetworkConfig, error) {
	return wallet.GetNetwork(a.cfg.Network)
}

// openTracker opens the bbolt-backed tracker in the data directory. The
// returned func closes the store.
func (a *app) openTracker() (*utxo.Tracker, func(), error) {
	store, err := utxo.OpenBoltStore(a.cfg.DataPath("utxo.db"))
	if err != nil {
		return nil, nil, err
	}
	tracker, err := utxo.NewTracker(store, a.log.Named("utxo"))
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return tracker, func() { _ = store.Close() }, nil
}

func (a *app) rpcClient() (*network.RPCClient, error) {
	rpc, err := a.cfg.ResolveRPC()
	if err != nil {
		return nil, err
	}
	return network.NewRPCClient(*rpc), nil
}

// loadWallet decrypts the seed file with the password from EnvSeedPassword.
// An empty path means <datadir>/seed.enc.
func (a *app) loadWallet(seedFile string) (*wallet.Wallet, error) {
	if seedFile == "" {
		seedFile = a.cfg.DataPath("seed.enc")
	}
	net, err := a.walletNetwork()
	if err != nil {
		return nil, err
	}
	seed, err := wallet.ReadSeedFile(seedFile, os.Getenv(EnvSeedPassword))
	if err != nil {
		return nil, err
	}
	return wallet.NewWallet(seed, net)
}

func (a *app) pendingOptions() []pending.Option {
	opts := []pending.Option{
		pending.WithLogger(a.log.Named("pending")),
		pending.WithMetrics(a.metrics),
	}
	if a.cfg.AllowHighFees {
		opts = append(opts, pending.WithAllowHighFees())
	}
	return opts
}

// submit broadcasts p. Inputs of a transaction the node refused are handed
// back to the tracker; p itself stays committed.
func (a *app) submit(ctx context.Context, p *pending.Transaction, transport pending.Transport, tracker *utxo.Tracker) (string, error) {
	if signed := p.Payload(); !signed.IsFullySigned() {
		return "", fmt.Errorf("%w: %d of %d inputs signed", errNotFullySigned, signed.SignedInputs(), len(signed.Entries()))
	}

	id, err := p.Submit(ctx, transport)
	if err != nil {
		if errors.Is(err, network.ErrBroadcastRejected) {
			if rerr := tracker.Release(p.ID()); rerr != nil {
				a.log.Warn("release rejected transaction inputs", zap.String("txid", p.ID()), zap.Error(rerr))
			}
		}
		return "", err
	}
	return id, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

var errNotFullySigned = errors.New("transaction is not fully signed")
