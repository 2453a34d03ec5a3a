// Command pendingtx builds, signs and submits BSV transactions from a local
// wallet, tracking the outputs they spend.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
