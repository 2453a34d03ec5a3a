package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bitfsorg/pendingtx-go/wallet"
)

// walletFlags select the seed file and the slice of the account scanned
// for addresses.
type walletFlags struct {
	seedFile string
	account  uint32
	gap      uint32
}

func (w *walletFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&w.seedFile, "seed-file", "", "encrypted seed file (default <datadir>/seed.enc)")
	fs.Uint32Var(&w.account, "account", 0, "BIP44 account")
	fs.Uint32Var(&w.gap, "gap", 20, "addresses derived per chain")
}

// keyring derives gap receive and gap change addresses.
func (w *walletFlags) keyring(a *app) (*wallet.Keyring, *wallet.Wallet, error) {
	hd, err := a.loadWallet(w.seedFile)
	if err != nil {
		return nil, nil, err
	}
	kr, err := hd.DeriveKeyring(w.account, w.gap, w.gap)
	if err != nil {
		return nil, nil, err
	}
	return kr, hd, nil
}

func newSeedCmd(a *app) *cobra.Command {
	var (
		out      string
		words    int
		mnemonic string
		force    bool
	)
	c := &cobra.Command{
		Use:   "seed",
		Short: "Create an encrypted wallet seed",
		Long: "Generates a BIP39 mnemonic, or imports one with --mnemonic, and stores the seed\n" +
			"encrypted with the password in " + EnvSeedPassword + ".",
		Args: cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			password := os.Getenv(EnvSeedPassword)
			if password == "" {
				return fmt.Errorf("set %s to the seed password", EnvSeedPassword)
			}
			if out == "" {
				out = a.cfg.DataPath("seed.enc")
			}
			if _, err := os.Stat(out); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", out)
			}

			generated := mnemonic == ""
			if generated {
				entropy := wallet.Mnemonic12Words
				if words == 24 {
					entropy = wallet.Mnemonic24Words
				} else if words != 12 {
					return errors.New("--words must be 12 or 24")
				}
				var err error
				if mnemonic, err = wallet.GenerateMnemonic(entropy); err != nil {
					return err
				}
			}

			seed, err := wallet.SeedFromMnemonic(mnemonic, "")
			if err != nil {
				return err
			}
			if err := wallet.WriteSeedFile(out, seed, password); err != nil {
				return err
			}
			a.log.Info("seed written")

			if generated {
				fmt.Fprintln(a.out, mnemonic)
			}
			return nil
		},
	}
	flags := c.Flags()
	flags.StringVar(&out, "out", "", "seed file (default <datadir>/seed.enc)")
	flags.IntVar(&words, "words", 12, "mnemonic length, 12 or 24")
	flags.StringVar(&mnemonic, "mnemonic", "", "import this mnemonic instead of generating one")
	flags.BoolVar(&force, "force", false, "overwrite an existing seed file")
	return c
}

type addressEntry struct {
	Path    string `json:"path"`
	Address string `json:"address"`
}

func newAddressesCmd(a *app) *cobra.Command {
	var (
		wf     walletFlags
		change bool
	)
	c := &cobra.Command{
		Use:   "addresses",
		Short: "List the wallet's receive or change addresses",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			hd, err := a.loadWallet(wf.seedFile)
			if err != nil {
				return err
			}
			chain := uint32(wallet.ExternalChain)
			if change {
				chain = wallet.InternalChain
			}

			entries := make([]addressEntry, 0, wf.gap)
			for i := uint32(0); i < wf.gap; i++ {
				kp, err := hd.DeriveKey(wf.account, chain, i)
				if err != nil {
					return err
				}
				addr, err := script.NewAddressFromPublicKey(kp.PublicKey, hd.Network().IsMainnet())
				if err != nil {
					return err
				}
				entries = append(entries, addressEntry{Path: kp.Path, Address: addr.AddressString})
			}
			return writeJSON(a.out, entries)
		},
	}
	wf.register(c.Flags())
	c.Flags().BoolVar(&change, "change", false, "list change addresses instead of receive addresses")
	return c
}
