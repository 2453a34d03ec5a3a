package main

import (
	"errors"
	"fmt"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bitfsorg/pendingtx-go/pending"
	"github.com/bitfsorg/pendingtx-go/tx"
	"github.com/bitfsorg/pendingtx-go/wallet"
)

// rawTxFlags describe a transaction built elsewhere.
type rawTxFlags struct {
	txHex      string
	inputsFile string
	changeVout int
	batch      bool
}

func (f *rawTxFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.txHex, "tx", "", "unsigned transaction hex")
	fs.StringVar(&f.inputsFile, "inputs", "", "JSON file describing the outputs spent, in input order")
	fs.IntVar(&f.changeVout, "change-vout", -1, "index of the change output, -1 for none")
	fs.BoolVar(&f.batch, "batch", false, "mark the transaction as a non-final element of a batch")
}

// build turns the flags into a pending transaction bound to gen.
func (f *rawTxFlags) build(a *app, gen pending.Generator) (*pending.Transaction, error) {
	if f.txHex == "" || f.inputsFile == "" {
		return nil, errors.New("--tx and --inputs are required")
	}
	body, err := parseBody(f.txHex)
	if err != nil {
		return nil, err
	}
	inputs, err := readInputs(f.inputsFile)
	if err != nil {
		return nil, err
	}
	econ, err := economicsFor(body, inputs, f.changeVout)
	if err != nil {
		return nil, err
	}
	net, err := a.walletNetwork()
	if err != nil {
		return nil, err
	}
	addrs, err := inputAddresses(inputs, net.IsMainnet())
	if err != nil {
		return nil, err
	}
	return pending.New(gen, body, inputs, addrs, econ, !f.batch, a.pendingOptions()...)
}

type inspectResult struct {
	Wire        *tx.WireTx `json:"wire"`
	InputValue  uint64     `json:"input_value"`
	OutputValue uint64     `json:"output_value"`
	Fees        uint64     `json:"fees"`
	Payment     *uint64    `json:"payment,omitempty"`
	Change      uint64     `json:"change"`
	Final       bool       `json:"final"`
	Addresses   []string   `json:"addresses"`
}

func newInspectCmd(a *app) *cobra.Command {
	var f rawTxFlags
	c := &cobra.Command{
		Use:   "inspect",
		Short: "Show the economics and wire form of a transaction without submitting it",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			p, err := f.build(a, pending.NewGenerator(nil, nil))
			if err != nil {
				return err
			}
			p.Log()

			res := inspectResult{
				Wire:        p.WireTransaction(),
				InputValue:  p.InputAggregateValue(),
				OutputValue: p.OutputAggregateValue(),
				Fees:        p.Fees(),
				Change:      p.ChangeValue(),
				Final:       p.IsFinal(),
			}
			if v, ok := p.PaymentValue(); ok {
				res.Payment = &v
			}
			for _, addr := range p.Addresses() {
				res.Addresses = append(res.Addresses, addr.AddressString)
			}
			return writeJSON(a.out, res)
		},
	}
	f.register(c.Flags())
	return c
}

func newSubmitCmd(a *app) *cobra.Command {
	var (
		f    rawTxFlags
		wf   walletFlags
		wifs []string
	)
	c := &cobra.Command{
		Use:   "submit",
		Short: "Sign and submit a transaction built elsewhere",
		Long: "Signs with the --wif keys when given, otherwise with the wallet seed, then\n" +
			"commits the spent outputs in the tracker and broadcasts through the node.",
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			ctx := c.Context()

			var signer pending.Signer
			if len(wifs) == 0 {
				kr, _, err := wf.keyring(a)
				if err != nil {
					return err
				}
				signer = wallet.NewSigner(kr)
			}

			tracker, closeStore, err := a.openTracker()
			if err != nil {
				return err
			}
			defer closeStore()

			p, err := f.build(a, pending.NewGenerator(signer, tracker))
			if err != nil {
				return err
			}
			for _, u := range p.UTXOEntries() {
				if err := tracker.Add(u); err != nil {
					return err
				}
			}

			if len(wifs) > 0 {
				keys, err := rawKeysFromWIF(wifs)
				if err != nil {
					return err
				}
				if err := p.SignWithKeys(ctx, keys); err != nil {
					return err
				}
			} else if err := p.Sign(ctx); err != nil {
				return err
			}

			client, err := a.rpcClient()
			if err != nil {
				return err
			}
			id, err := a.submit(ctx, p, client, tracker)
			if err != nil {
				return err
			}
			trackChange(a, tracker, p, f.changeVout, "")
			return writeJSON(a.out, newSubmitResult(p, id))
		},
	}
	f.register(c.Flags())
	wf.register(c.Flags())
	c.Flags().StringSliceVar(&wifs, "wif", nil, "WIF private key to sign with (repeatable)")
	return c
}

func rawKeysFromWIF(wifs []string) ([][]byte, error) {
	keys := make([][]byte, len(wifs))
	for i, w := range wifs {
		priv, err := ec.PrivateKeyFromWif(w)
		if err != nil {
			return nil, fmt.Errorf("%w: --wif #%d: %w", wallet.ErrInvalidWIF, i+1, err)
		}
		keys[i] = priv.Serialize()
	}
	return keys, nil
}
