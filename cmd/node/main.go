// Command node runs a tolledger node.
package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/tolelom/tolledger/config"
	"github.com/tolelom/tolledger/dispatch"
	"github.com/tolelom/tolledger/events"
	"github.com/tolelom/tolledger/ledger"
	"github.com/tolelom/tolledger/logger"
	"github.com/tolelom/tolledger/lookup"
	"github.com/tolelom/tolledger/rpc"
	"github.com/tolelom/tolledger/storage"
	"github.com/tolelom/tolledger/wallet"
)

// passwordEnv holds the keystore password. Flags would show up in ps.
const passwordEnv = "TOLLEDGER_PASSWORD"

// bootLog logs until the config has been read and the node logger exists.
var bootLog = zerolog.Nop()

func main() {
	if lg, err := logger.New("tolledger", "info", true); err == nil {
		bootLog = lg
	}
	app := &cli.App{
		Name:  "tolledger",
		Usage: "bounded-supply token ledger node",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "config.json",
				Usage:   "path to config file (.json, .yaml or .yml)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "apply genesis if needed and serve RPC",
				Action: runNode,
			},
			{
				Name:   "genkey",
				Usage:  "generate an account key and save it to a keystore",
				Action: genKey,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Value: "account.key", Usage: "keystore path"},
				},
			},
			{
				Name:   "check-genesis",
				Usage:  "validate the config and genesis list without starting",
				Action: checkGenesis,
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		bootLog.Fatal().Err(err).Msg("tolledger")
	}
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			bootLog.Warn().Str("path", path).Msg("config file not found, using defaults")
			cfg = config.DefaultConfig()
		} else {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func genKey(c *cli.Context) error {
	password := os.Getenv(passwordEnv)
	if password == "" {
		bootLog.Warn().Str("env", passwordEnv).Msg("password not set, keystore will use an empty password")
	}
	w, err := wallet.Generate("")
	if err != nil {
		return err
	}
	out := c.String("out")
	if err := wallet.SaveKey(out, password, w.PrivKey()); err != nil {
		return err
	}
	fmt.Printf("Generated key. Account: %s\n", w.Account())
	fmt.Printf("Saved to: %s\n", out)
	return nil
}

func checkGenesis(c *cli.Context) error {
	cfg, err := loadConfig(c.String("config"))
	if err != nil {
		return err
	}
	total, err := config.ValidateGenesis(cfg.Genesis, cfg.MaxTokenSupply)
	if err != nil {
		return fmt.Errorf("genesis: %w", err)
	}
	fmt.Printf("Genesis OK: %d accounts, total %s of max %s\n", len(cfg.Genesis.Balances), total, cfg.MaxTokenSupply)
	return nil
}

func runNode(c *cli.Context) error {
	cfg, err := loadConfig(c.String("config"))
	if err != nil {
		return err
	}
	lg, err := logger.New(cfg.NodeID, cfg.LogLevel, cfg.PrettyLogs)
	if err != nil {
		return err
	}

	// ---- open DB ----
	db, err := storage.Open(storage.Backend(cfg.Backend), cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()
	state := storage.NewStateDB(db)

	// ---- genesis (fatal on any error) ----
	wrote, err := config.BuildGenesis(cfg.Genesis, cfg.MaxTokenSupply, state)
	if err != nil {
		lg.Fatal().Err(err).Msg("genesis")
	}
	if wrote {
		lg.Info().Int("accounts", len(cfg.Genesis.Balances)).Str("state_root", state.ComputeRoot()).Msg("genesis committed")
	}

	// ---- ledger + dispatch ----
	var resolver ledger.AccountLookup = lookup.Identity{}
	if len(cfg.Aliases) > 0 {
		tbl, err := lookup.NewTable(cfg.Aliases)
		if err != nil {
			return fmt.Errorf("aliases: %w", err)
		}
		resolver = tbl
	}
	l := ledger.New(cfg.MaxTokenSupply, resolver,
		ledger.WithSeedPolicy(cfg.Seed()),
		ledger.WithLogger(lg))
	reg := dispatch.NewRegistry()
	l.Register(reg)

	emitter := events.NewEmitter(lg)
	emitter.SubscribeAll(func(ev events.Event) {
		lg.Debug().Str("event", string(ev.Type)).Str("call_id", ev.CallID).Interface("data", ev.Data).Msg("event")
	})

	disp := dispatch.New(state, reg, emitter, dispatch.Options{
		ChainID:      cfg.ChainID,
		RootAccounts: cfg.Roots(),
	}, lg)

	// ---- RPC ----
	rpcAddr := fmt.Sprintf(":%d", cfg.RPCPort)
	rpcServer := rpc.NewServer(rpcAddr, rpc.NewHandler(disp, l.MaxTokenSupply()), cfg.RPCAuthToken, lg)
	if err := rpcServer.Start(); err != nil {
		return fmt.Errorf("rpc start: %w", err)
	}
	defer rpcServer.Stop()
	if cfg.RPCAuthToken != "" {
		lg.Info().Msg("RPC Bearer token authentication enabled")
	}
	logStartup(lg, cfg)

	// ---- graceful shutdown ----
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	lg.Info().Msg("shutting down")
	// Deferred calls run in LIFO: rpcServer.Stop → db.Close
	return nil
}

func logStartup(lg zerolog.Logger, cfg *config.Config) {
	lg.Info().
		Str("chain_id", cfg.ChainID).
		Str("backend", cfg.Backend).
		Str("max_supply", cfg.MaxTokenSupply.String()).
		Str("seed_policy", cfg.SeedPolicy).
		Int("root_accounts", len(cfg.RootAccounts)).
		Msg("node started")
}
