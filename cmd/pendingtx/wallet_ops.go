package main

import (
	"errors"
	"fmt"

	"github.com/bsv-blockchain/go-sdk/chainhash"
	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bitfsorg/pendingtx-go/paymail"
	"github.com/bitfsorg/pendingtx-go/pending"
	"github.com/bitfsorg/pendingtx-go/tx"
	"github.com/bitfsorg/pendingtx-go/utxo"
	"github.com/bitfsorg/pendingtx-go/wallet"
)

var errNoSpendableOutputs = errors.New("no spendable outputs (run sync first)")

type syncResult struct {
	Addresses int    `json:"addresses"`
	Outputs   int    `json:"outputs"`
	Balance   uint64 `json:"balance"`
}

func newSyncCmd(a *app) *cobra.Command {
	var wf walletFlags
	c := &cobra.Command{
		Use:   "sync",
		Short: "Load the wallet's unspent outputs from the node into the tracker",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			ctx := c.Context()
			kr, _, err := wf.keyring(a)
			if err != nil {
				return err
			}
			client, err := a.rpcClient()
			if err != nil {
				return err
			}
			tracker, closeStore, err := a.openTracker()
			if err != nil {
				return err
			}
			defer closeStore()

			res := syncResult{Addresses: kr.Len()}
			for _, addr := range kr.Addresses() {
				unspent, err := client.ListUnspent(ctx, addr)
				if err != nil {
					return err
				}
				for _, u := range unspent {
					tu, err := u.ToTxUTXO()
					if err != nil {
						return err
					}
					if err := tracker.Add(tu); err != nil {
						if errors.Is(err, utxo.ErrAlreadySpent) {
							continue
						}
						return err
					}
					res.Outputs++
				}
			}
			res.Balance = tracker.Balance()
			a.log.Info("wallet synced", zap.Int("outputs", res.Outputs), zap.Uint64("balance", res.Balance))
			return writeJSON(a.out, res)
		},
	}
	wf.register(c.Flags())
	return c
}

type balanceOutput struct {
	Outpoint string `json:"outpoint"`
	Amount   uint64 `json:"amount"`
	Address  string `json:"address,omitempty"`
}

type balanceResult struct {
	Balance uint64          `json:"balance"`
	Outputs []balanceOutput `json:"outputs"`
}

func newBalanceCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show the spendable outputs held by the tracker",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			tracker, closeStore, err := a.openTracker()
			if err != nil {
				return err
			}
			defer closeStore()

			res := balanceResult{Outputs: []balanceOutput{}}
			for _, u := range tracker.Available() {
				res.Balance += u.Amount
				res.Outputs = append(res.Outputs, balanceOutput{Outpoint: u.Outpoint(), Amount: u.Amount, Address: u.Address})
			}
			return writeJSON(a.out, res)
		},
	}
}

type submitResult struct {
	TxID      string  `json:"txid"`
	NetworkID string  `json:"network_txid"`
	Fees      uint64  `json:"fees"`
	Payment   *uint64 `json:"payment,omitempty"`
	Change    uint64  `json:"change"`
}

func newSubmitResult(p *pending.Transaction, networkID string) submitResult {
	res := submitResult{
		TxID:      p.ID(),
		NetworkID: networkID,
		Fees:      p.Fees(),
		Change:    p.ChangeValue(),
	}
	if v, ok := p.PaymentValue(); ok {
		res.Payment = &v
	}
	return res
}

func newSendCmd(a *app) *cobra.Command {
	var (
		wf      walletFlags
		to      string
		amount  uint64
		feeRate uint64
		dryRun  bool
		dnssec  string
	)
	c := &cobra.Command{
		Use:   "send",
		Short: "Pay an address or paymail handle from tracked outputs, or consolidate them all without --to",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			ctx := c.Context()
			kr, hd, err := wf.keyring(a)
			if err != nil {
				return err
			}
			mainnet := hd.Network().IsMainnet()

			tracker, closeStore, err := a.openTracker()
			if err != nil {
				return err
			}
			defer closeStore()

			available := tracker.Available()
			if len(available) == 0 {
				return errNoSpendableOutputs
			}

			changeKey, err := hd.DeriveKey(wf.account, wallet.InternalChain, 0)
			if err != nil {
				return err
			}
			changeAddr, err := script.NewAddressFromPublicKey(changeKey.PublicKey, mainnet)
			if err != nil {
				return err
			}

			b := tx.NewPaymentBuilder()
			b.SetChange(changeAddr)
			b.SetFeeRate(feeRate)
			inputs := available
			switch {
			case paymail.IsAddress(to):
				var resolver paymail.Resolver
				if dnssec != "" {
					resolver = paymail.NewDNSSECResolver(dnssec)
				}
				lock, err := paymail.NewClient(nil, resolver).ResolveOutput(ctx, to, amount)
				if err != nil {
					return err
				}
				a.log.Debug("paymail resolved", zap.String("handle", to), zap.Int("script_len", len(lock)))
				b.SetPaymentScript(lock, amount)
				inputs = selectInputs(available, amount, feeRate)
			case to != "":
				payTo, err := script.NewAddressFromString(to)
				if err != nil {
					return fmt.Errorf("invalid --to address: %w", err)
				}
				b.SetPayment(payTo, amount)
				inputs = selectInputs(available, amount, feeRate)
			}
			for _, u := range inputs {
				b.AddInput(u)
			}
			plan, err := b.Build()
			if err != nil {
				return err
			}

			addrs, err := inputAddresses(plan.Inputs, mainnet)
			if err != nil {
				return err
			}
			gen := pending.NewGenerator(wallet.NewSigner(kr), tracker)
			p, err := pending.New(gen, plan.Body, plan.Inputs, addrs, economicsFromPlan(plan), true, a.pendingOptions()...)
			if err != nil {
				return err
			}
			if err := p.Sign(ctx); err != nil {
				return err
			}
			p.Log()

			if dryRun {
				return writeJSON(a.out, p.WireTransaction())
			}

			client, err := a.rpcClient()
			if err != nil {
				return err
			}
			id, err := a.submit(ctx, p, client, tracker)
			if err != nil {
				return err
			}
			trackChange(a, tracker, p, plan.ChangeVout, changeAddr.AddressString)
			return writeJSON(a.out, newSubmitResult(p, id))
		},
	}
	wf.register(c.Flags())
	flags := c.Flags()
	flags.StringVar(&to, "to", "", "payee address or paymail handle")
	flags.Uint64Var(&amount, "amount", 0, "payment in satoshis")
	flags.Uint64Var(&feeRate, "fee-rate", tx.DefaultFeeRate, "fee rate in sat/KB")
	flags.BoolVar(&dryRun, "dry-run", false, "sign and print the transaction without submitting it")
	flags.StringVar(&dnssec, "dnssec", "", "resolve paymail SRV records through this DNSSEC-validating resolver (host:port)")
	return c
}

// trackChange adds the change output of a submitted transaction to the
// tracker so it can fund the next one before it confirms.
func trackChange(a *app, tracker *utxo.Tracker, p *pending.Transaction, vout int, address string) {
	if vout < 0 {
		return
	}
	wire := p.Payload().Transaction()
	if vout >= len(wire.Outputs) {
		return
	}
	h, err := chainhash.NewHashFromHex(p.ID())
	if err != nil {
		a.log.Warn("track change", zap.Error(err))
		return
	}
	out := wire.Outputs[vout]
	change := &tx.UTXO{
		TxID:         h.CloneBytes(),
		Vout:         uint32(vout),
		Amount:       out.Satoshis,
		ScriptPubKey: append([]byte(nil), *out.LockingScript...),
		Address:      address,
	}
	if err := tracker.Add(change); err != nil {
		a.log.Warn("track change", zap.String("outpoint", change.Outpoint()), zap.Error(err))
	}
}

type statusResult struct {
	TxID          string         `json:"txid"`
	Confirmed     bool           `json:"confirmed"`
	Confirmations int64          `json:"confirmations"`
	BlockHash     string         `json:"block_hash,omitempty"`
	BlockHeight   uint64         `json:"block_height,omitempty"`
	TipHeight     uint64         `json:"tip_height"`
	Outgoing      *utxo.Outgoing `json:"outgoing,omitempty"`
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status TXID",
		Short: "Show the node's view of a transaction and the tracker's record of it",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			txid := args[0]

			client, err := a.rpcClient()
			if err != nil {
				return err
			}
			st, err := client.GetTxStatus(ctx, txid)
			if err != nil {
				return err
			}
			tip, err := client.GetBestBlockHeight(ctx)
			if err != nil {
				return err
			}

			res := statusResult{
				TxID:          txid,
				Confirmed:     st.Confirmed,
				Confirmations: st.Confirmations,
				BlockHash:     st.BlockHash,
				BlockHeight:   st.BlockHeight,
				TipHeight:     tip,
			}

			tracker, closeStore, err := a.openTracker()
			if err != nil {
				return err
			}
			defer closeStore()
			if out, err := tracker.Outgoing(txid); err == nil {
				res.Outgoing = out
			}
			return writeJSON(a.out, res)
		},
	}
}

func newReleaseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "release TXID",
		Short: "Return the inputs of a transaction that never reached the network",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			tracker, closeStore, err := a.openTracker()
			if err != nil {
				return err
			}
			defer closeStore()
			if err := tracker.Release(args[0]); err != nil {
				return err
			}
			fmt.Fprintln(a.out, args[0])
			return nil
		},
	}
}
