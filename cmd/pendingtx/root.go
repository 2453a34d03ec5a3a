package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bitfsorg/pendingtx-go/config"
	"github.com/bitfsorg/pendingtx-go/logging"
	"github.com/bitfsorg/pendingtx-go/pending"
)

// EnvSeedPassword holds the password that decrypts the seed file.
const EnvSeedPassword = "PENDINGTX_SEED_PASSWORD"

type rootFlags struct {
	configFile  string
	dataDir     string
	network     string
	logLevel    string
	rpcURL      string
	rpcUser     string
	rpcPassword string
	metricsFile string
}

func newRootCmd() *cobra.Command {
	a := &app{}
	f := &rootFlags{}

	c := &cobra.Command{
		Use:          "pendingtx",
		Short:        "Build, sign and submit wallet transactions",
		SilenceUsage: true,
		PersistentPreRunE: func(c *cobra.Command, _ []string) error {
			return a.setup(c, f)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.teardown(f.metricsFile)
		},
	}

	flags := c.PersistentFlags()
	flags.StringVar(&f.configFile, "config", "", "configuration file (default <datadir>/config.toml)")
	flags.StringVar(&f.dataDir, "datadir", "", "data directory (default ~/.pendingtx)")
	flags.StringVar(&f.network, "network", "", "mainnet, testnet or regtest")
	flags.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error")
	flags.StringVar(&f.rpcURL, "rpc-url", "", "node JSON-RPC endpoint")
	flags.StringVar(&f.rpcUser, "rpc-user", "", "node JSON-RPC user")
	flags.StringVar(&f.rpcPassword, "rpc-password", "", "node JSON-RPC password")
	flags.StringVar(&f.metricsFile, "metrics-file", "", "write metrics in Prometheus text format to this file on exit")

	c.AddCommand(
		newInitCmd(a),
		newSeedCmd(a),
		newAddressesCmd(a),
		newSyncCmd(a),
		newBalanceCmd(a),
		newSendCmd(a),
		newInspectCmd(a),
		newSubmitCmd(a),
		newStatusCmd(a),
		newReleaseCmd(a),
	)
	return c
}

// setup loads configuration, applies flag overrides and builds the logger
// and metrics shared by every subcommand.
func (a *app) setup(c *cobra.Command, f *rootFlags) error {
	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}

	flags := c.Flags()
	if flags.Changed("network") {
		cfg.Network = f.network
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if flags.Changed("rpc-url") {
		cfg.RPC.URL = f.rpcURL
	}
	if flags.Changed("rpc-user") {
		cfg.RPC.User = f.rpcUser
	}
	if flags.Changed("rpc-password") {
		cfg.RPC.Password = f.rpcPassword
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return err
	}

	log, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	metrics, err := pending.NewMetrics(cfg.MetricsNamespace, registry)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.log = log.With(zap.String("network", cfg.Network))
	a.registry = registry
	a.metrics = metrics
	a.out = c.OutOrStdout()
	return nil
}

// loadConfig reads the explicit --config file, or the data directory's
// config.toml when present, falling back to defaults and environment.
func loadConfig(f *rootFlags) (config.Config, error) {
	if f.configFile != "" {
		cfg, err := config.LoadConfig(f.configFile)
		if err != nil {
			return config.Config{}, err
		}
		if f.dataDir != "" {
			cfg.DataDir = f.dataDir
		}
		return cfg, nil
	}

	dataDir := f.dataDir
	if dataDir == "" {
		dataDir = config.DefaultDataDir()
	}
	cfg, err := config.LoadConfig(config.ConfigPath(dataDir))
	if errors.Is(err, config.ErrConfigNotFound) {
		cfg, err = config.LoadConfig("")
	}
	if err != nil {
		return config.Config{}, err
	}
	if f.dataDir != "" {
		cfg.DataDir = f.dataDir
	}
	return cfg, nil
}

func (a *app) teardown(metricsFile string) error {
	if a.log != nil {
		_ = a.log.Sync()
	}
	if metricsFile == "" || a.registry == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(metricsFile, a.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

func newInitCmd(a *app) *cobra.Command {
	var force bool
	c := &cobra.Command{
		Use:   "init",
		Short: "Write the effective configuration to <datadir>/config.toml",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			path := config.ConfigPath(a.cfg.DataDir)
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.SaveConfig(path, a.cfg); err != nil {
				return err
			}
			fmt.Fprintln(a.out, path)
			return nil
		},
	}
	c.Flags().BoolVar(&force, "force", false, "overwrite an existing configuration file")
	return c
}
