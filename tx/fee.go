package tx

const (
	// DustLimit is the minimum P2PKH output value in satoshis.
	DustLimit = uint64(546)

	// DefaultFeeRate is the default fee rate in sat/KB.
	DefaultFeeRate = uint64(100)
)

// EstimateFee returns ceil(txSizeBytes * feeRate / 1000). A zero rate means
// DefaultFeeRate.
func EstimateFee(txSizeBytes int, feeRate uint64) uint64 {
	if feeRate == 0 {
		feeRate = DefaultFeeRate
	}
	fee := uint64(txSizeBytes) * feeRate
	return (fee + 999) / 1000
}

// EstimateTxSize estimates the signed size of a P2PKH-only transaction.
func EstimateTxSize(numInputs, numOutputs int) int {
	// version(4) + locktime(4) + input/output count varints(1+1)
	base := 10
	// prevhash(32) + index(4) + script len(1) + sig+pubkey(~107) + sequence(4)
	inputs := numInputs * 148
	// value(8) + script len(1) + P2PKH script(25)
	outputs := numOutputs * 34
	return base + inputs + outputs
}
