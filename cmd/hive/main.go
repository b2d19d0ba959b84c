package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/hivebot/config"
	"github.com/alejandrodnm/hivebot/internal/adapters/blackboard"
	"github.com/alejandrodnm/hivebot/internal/adapters/notify"
	"github.com/alejandrodnm/hivebot/internal/adapters/onchain"
	"github.com/alejandrodnm/hivebot/internal/adapters/polymarket"
	"github.com/alejandrodnm/hivebot/internal/adapters/storage"
	"github.com/alejandrodnm/hivebot/internal/application/dualside"
	"github.com/alejandrodnm/hivebot/internal/application/guardian"
	"github.com/alejandrodnm/hivebot/internal/application/hive"
	"github.com/alejandrodnm/hivebot/internal/application/safety"
	"github.com/alejandrodnm/hivebot/internal/application/scout"
	"github.com/alejandrodnm/hivebot/internal/domain"
	"github.com/alejandrodnm/hivebot/internal/ports"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one full cycle and exit")
	status := flag.Bool("status", false, "print the blackboard status and exit")
	halt := flag.String("halt", "", "halt trading with the given reason and exit")
	resume := flag.Bool("resume", false, "resume trading after a manual halt and exit")
	concurrent := flag.Bool("concurrent", false, "run every agent on its own ticker")
	dryRun := flag.Bool("dry-run", false, "no wallet reads, no history writes")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print full tables (default: compact 1-line)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	board := blackboard.NewStore(cfg.Storage.BlackboardPath)

	// La puerta pre-orden se materializa aquí: los agentes de ejecución
	// externos la reciben por inyección y el status la reporta.
	gate := safety.NewGate(safety.Limits{
		MaxSingleOrderUSD:   cfg.Safety.MaxSingleOrderUSD,
		MaxTotalExposurePct: cfg.Safety.MaxTotalExposurePct,
		DailyLossLimitUSD:   cfg.Safety.DailyLossLimitUSD,
		BalanceBufferPct:    cfg.Safety.BalanceBufferPct,
		KillSwitchFile:      cfg.Safety.KillSwitchFile,
	})
	notifier := notify.NewConsole(*table, gate)

	// Comandos de una sola operación sobre el blackboard.
	if *status {
		var viewErr error
		board.View(func(b *domain.Blackboard) {
			viewErr = notifier.Status(ctx, b)
		})
		if viewErr != nil {
			slog.Error("status failed", "err", viewErr)
			os.Exit(1)
		}
		return
	}

	client := polymarket.NewClient(cfg.API.GammaBase)

	wallet := newWallet(cfg, *dryRun)
	if closer, ok := wallet.(*onchain.WalletReader); ok {
		defer closer.Close()
	}

	var history ports.HistoryStore
	if !*dryRun {
		store, err := storage.NewSQLiteHistory(cfg.Storage.HistoryDSN)
		if err != nil {
			slog.Error("failed to open history store", "err", err, "dsn", cfg.Storage.HistoryDSN)
			os.Exit(1)
		}
		defer store.Close()
		history = store
	}

	g := guardian.New(guardian.Limits{
		MinGasBalance:    cfg.Risk.MinGasBalance,
		MaxLossPercent:   cfg.Risk.MaxLossPercent,
		MaxTotalExposure: cfg.Risk.MaxTotalExposure,
	}, board, wallet, client, history)

	if *halt != "" {
		if err := g.EmergencyHalt(*halt); err != nil {
			slog.Error("halt failed", "err", err)
			os.Exit(1)
		}
		slog.Warn("trading halted", "reason", *halt)
		return
	}
	if *resume {
		if err := g.ResumeTrading(); err != nil {
			slog.Error("resume failed", "err", err)
			os.Exit(1)
		}
		slog.Info("trading resumed")
		return
	}

	agents := []hive.AgentSpec{
		{Agent: scout.New(client, board, history, cfg.Hive.ScoutFetchLimit)},
		{Agent: dualside.New(client, board, history, cfg.Hive.DualSideFetchLimit)},
	}
	if cfg.Hive.CryptoScanner {
		agents = append(agents, hive.AgentSpec{
			Agent: dualside.NewCrypto(client, board, history, cfg.Hive.DualSideFetchLimit),
		})
	}
	for i := range agents {
		agents[i].Interval = hive.DefaultInterval(agents[i].Agent.Name())
	}

	hiveCfg := hive.Config{
		CycleInterval:  cfg.CycleInterval(),
		ErrorBackoff:   cfg.ErrorBackoff(),
		MaxBackoff:     cfg.MaxBackoff(),
		StatusInterval: cfg.StatusInterval(),
	}
	orch := hive.New(hiveCfg, board, g, agents, notifier)

	slog.Info("hivebot starting",
		"config", *configPath,
		"interval", hiveCfg.CycleInterval,
		"concurrent", *concurrent,
		"dry_run", *dryRun,
		"once", *once,
		"agents", len(agents)+1,
	)

	switch {
	case *once:
		err = orch.RunCycle(ctx)
	case *concurrent:
		err = orch.RunConcurrent(ctx)
	default:
		err = orch.Run(ctx)
	}
	if err != nil {
		slog.Error("hive exited with error", "err", err)
		os.Exit(1)
	}

	slog.Info("hivebot stopped cleanly")
}

// newWallet devuelve el lector on-chain real, o uno nulo si no hay wallet
// configurada o estamos en dry-run. El guardian trata balances a cero como
// WARNING, nunca como fatal.
func newWallet(cfg *config.Config, dryRun bool) ports.WalletProvider {
	if dryRun || cfg.Wallet.Address == "" {
		slog.Warn("wallet reads disabled, balances will report zero",
			"dry_run", dryRun, "address_set", cfg.Wallet.Address != "")
		return nullWallet{}
	}
	reader, err := onchain.NewWalletReader(cfg.Wallet.RPCURL, cfg.Wallet.Address)
	if err != nil {
		slog.Warn("wallet reader unavailable, balances will report zero", "err", err)
		return nullWallet{}
	}
	return reader
}

type nullWallet struct{}

func (nullWallet) Balances(context.Context) domain.WalletBalances {
	return domain.WalletBalances{}
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
