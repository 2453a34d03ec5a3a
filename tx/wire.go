package tx

// WireTx is the broadcast-ready projection of a transaction. It is read-only
// and detached from the payload it was built from.
type WireTx struct {
	TxID    string `json:"txid"`
	Hex     string `json:"hex"`
	Size    int    `json:"size"`
	Inputs  int    `json:"inputs"`
	Outputs int    `json:"outputs"`
	Fee     uint64 `json:"fee"`
	Signed  bool   `json:"signed"`
}

// Wire builds the wire projection of s.
func (s *SignableTx) Wire() *WireTx {
	raw := s.tx.Bytes()
	w := &WireTx{
		TxID:    s.ID(),
		Hex:     s.tx.Hex(),
		Size:    len(raw),
		Inputs:  len(s.tx.Inputs),
		Outputs: len(s.tx.Outputs),
		Signed:  s.IsFullySigned(),
	}
	if in, out := s.InputValue(), s.OutputValue(); in >= out {
		w.Fee = in - out
	}
	return w
}
