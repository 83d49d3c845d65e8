package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/antigravity/trader/broker/sim"
	"github.com/antigravity/trader/config"
	"github.com/antigravity/trader/engine"
	"github.com/antigravity/trader/journal"
	"github.com/antigravity/trader/logging"
	"github.com/antigravity/trader/market"
	"github.com/antigravity/trader/notify"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the trading loop over a bar feed",
	Long: `Run the full trading loop: indicator refresh, signal classification,
entry guards, portfolio management and journaling.

The loop talks to the terminal through the broker interface; this build
ships the deterministic in-memory terminal, fed from a bar CSV. By
default the feed is replayed as fast as the loop can consume it;
--realtime paces it with the configured poll interval instead.

Example:
  antigravity run -f config.yaml --bars data/gold_m5.csv`,
	RunE: runRun,
}

var (
	runConfigPath string
	runBarsPath   string
	runSymbol     string
	runBalance    float64
	runRealtime   bool
	runVerbose    bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "f", "", "path to config file (YAML or JSON); defaults apply when omitted")
	runCmd.Flags().StringVarP(&runBarsPath, "bars", "b", "", "path to bar CSV feeding the terminal (required)")
	runCmd.Flags().StringVarP(&runSymbol, "symbol", "s", "XAUUSD", "symbol the bar feed belongs to")
	runCmd.Flags().Float64Var(&runBalance, "balance", 100_000, "starting account balance")
	runCmd.Flags().BoolVar(&runRealtime, "realtime", false, "pace the feed with the poll interval instead of replaying")
	runCmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "debug-level logging")

	runCmd.MarkFlagRequired("bars")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(runConfigPath)
	if err != nil {
		return err
	}
	if _, ok := cfg.Symbols[runSymbol]; !ok {
		return fmt.Errorf("symbol %s not present in config", runSymbol)
	}

	level := slog.LevelInfo
	if runVerbose {
		level = slog.LevelDebug
	}
	log := logging.Setup(cfg.LogFile, level)

	bars, err := market.LoadBarsCSV(runBarsPath)
	if err != nil {
		return fmt.Errorf("load bars: %w", err)
	}
	if len(bars) == 0 {
		return fmt.Errorf("no bars in %s", runBarsPath)
	}

	b := sim.New(runBalance)
	b.LoadBars(runSymbol, bars)

	store := journal.NewStore(cfg.HistoryFile)
	var jrnl *journal.SQLite
	if cfg.JournalDB != "" {
		jrnl, err = journal.OpenSQLite(cfg.JournalDB)
		if err != nil {
			return fmt.Errorf("open journal db: %w", err)
		}
		defer jrnl.Close()
	}

	eng := engine.New(cfg, b, store, jrnl, notify.NewDiscord(cfg.WebhookURL), log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if runRealtime {
		// Wall-clock pacing; the engine keeps its real time source.
		interval := cfg.PollInterval()
		return eng.RunReplay(ctx, func() bool {
			select {
			case <-ctx.Done():
				return false
			case <-time.After(interval):
			}
			return b.Advance(runSymbol)
		})
	}

	cursor := 0
	eng.SetClock(func() time.Time { return bars[cursor].Time })
	return eng.RunReplay(ctx, func() bool {
		if !b.Advance(runSymbol) {
			return false
		}
		cursor++
		return true
	})
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
