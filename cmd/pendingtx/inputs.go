package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/bsv-blockchain/go-sdk/transaction"

	"github.com/bitfsorg/pendingtx-go/network"
	"github.com/bitfsorg/pendingtx-go/pending"
	"github.com/bitfsorg/pendingtx-go/tx"
)

var (
	errOutputsExceedInputs = errors.New("outputs exceed inputs")
	errValueOverflow       = errors.New("value overflows uint64")
)

// readInputs loads the outputs spent by a transaction from a JSON array in
// the node's listunspent shape, with amounts in satoshis.
func readInputs(path string) ([]*tx.UTXO, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read inputs: %w", err)
	}
	var raw []*network.UTXO
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse inputs %s: %w", path, err)
	}
	inputs := make([]*tx.UTXO, len(raw))
	for i, r := range raw {
		if r == nil {
			return nil, fmt.Errorf("parse inputs %s: entry %d is null", path, i)
		}
		if inputs[i], err = r.ToTxUTXO(); err != nil {
			return nil, err
		}
	}
	return inputs, nil
}

func parseBody(rawHex string) (*transaction.Transaction, error) {
	body, err := transaction.NewTransactionFromHex(strings.TrimSpace(rawHex))
	if err != nil {
		return nil, fmt.Errorf("parse transaction: %w", err)
	}
	return body, nil
}

// inputAddresses returns the spending address of each input.
func inputAddresses(inputs []*tx.UTXO, mainnet bool) ([]*script.Address, error) {
	addrs := make([]*script.Address, len(inputs))
	for i, u := range inputs {
		addr, err := tx.AddressFromScript(u.ScriptPubKey, mainnet)
		if err != nil {
			return nil, fmt.Errorf("input %s: %w", u.Outpoint(), err)
		}
		addrs[i] = addr
	}
	return addrs, nil
}

// economicsFor derives the economics of an externally built transaction.
// changeVout < 0 means no change output. Every output other than change
// counts as payment; a transaction whose only output is change is a
// consolidation.
func economicsFor(body *transaction.Transaction, inputs []*tx.UTXO, changeVout int) (pending.Economics, error) {
	var in, out uint64
	for i, u := range inputs {
		if u.Amount > math.MaxUint64-in {
			return pending.Economics{}, fmt.Errorf("%w: input %d", errValueOverflow, i)
		}
		in += u.Amount
	}
	for i, o := range body.Outputs {
		if o.Satoshis > math.MaxUint64-out {
			return pending.Economics{}, fmt.Errorf("%w: output %d", errValueOverflow, i)
		}
		out += o.Satoshis
	}
	if out > in {
		return pending.Economics{}, fmt.Errorf("%w: %d > %d", errOutputsExceedInputs, out, in)
	}

	econ := pending.Economics{
		AggregateInputValue:  in,
		AggregateOutputValue: out,
		Fees:                 in - out,
	}
	payees := len(body.Outputs)
	if changeVout >= 0 {
		if changeVout >= len(body.Outputs) {
			return pending.Economics{}, fmt.Errorf("change output %d out of range (%d outputs)", changeVout, len(body.Outputs))
		}
		econ.ChangeValue = body.Outputs[changeVout].Satoshis
		payees--
	}
	if payees > 0 {
		payment := out - econ.ChangeValue
		econ.PaymentValue = &payment
	}
	return econ, nil
}

func economicsFromPlan(plan *tx.Plan) pending.Economics {
	return pending.Economics{
		PaymentValue:         plan.Payment,
		ChangeValue:          plan.ChangeValue,
		AggregateInputValue:  plan.InputValue,
		AggregateOutputValue: plan.OutputValue,
		Fees:                 plan.Fee,
	}
}

// selectInputs takes available outputs in order until they cover amount
// plus the fee of a two-output transaction. It returns everything when
// the outputs fall short, leaving the builder to report the shortfall.
func selectInputs(available []*tx.UTXO, amount, feeRate uint64) []*tx.UTXO {
	var (
		selected []*tx.UTXO
		sum      uint64
	)
	for _, u := range available {
		selected = append(selected, u)
		sum += u.Amount
		if sum >= amount+tx.EstimateFee(tx.EstimateTxSize(len(selected), 2), feeRate) {
			break
		}
	}
	return selected
}
