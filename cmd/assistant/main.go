package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	ossignal "os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/surgelove/vibe-trader/internal/config"
	"github.com/surgelove/vibe-trader/internal/engine"
	"github.com/surgelove/vibe-trader/internal/exchange"
	"github.com/surgelove/vibe-trader/internal/execution"
	"github.com/surgelove/vibe-trader/internal/journal"
	"github.com/surgelove/vibe-trader/internal/metrics"
	"github.com/surgelove/vibe-trader/internal/publish"
	"github.com/surgelove/vibe-trader/internal/report"
	"github.com/surgelove/vibe-trader/internal/strategy"
	"github.com/surgelove/vibe-trader/internal/util"
)

// recentSignals bounds the in-memory signal list printed with the final report.
const recentSignals = 10

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration")
	demo := flag.Bool("demo", false, "use the quick demo strategy set and a 3s synthetic interval")
	flag.Parse()

	boot := util.NewLogger("info")
	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		boot.Fatal().Err(err).Str("path", *configPath).Msg("load config")
	}
	config.ApplyEnv(cfg)
	if *demo {
		applyDemo(cfg)
	}
	if err := cfg.Validate(); err != nil {
		boot.Fatal().Err(err).Msg("invalid config")
	}

	log := util.LoggerFor(cfg.App.LogFormat, cfg.App.LogLevel).With().Str("app", cfg.App.Name).Logger()
	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("assistant stopped with error")
	}
}

func applyDemo(cfg *config.Config) {
	cfg.Source.IntervalMs = 3000
	cfg.Strategies = []config.Strategy{
		{Mode: "ma", Params: config.StrategyParams{ShortWindow: 5, LongWindow: 15}},
		{Mode: "rsi", Params: config.StrategyParams{Period: 12, Oversold: config.Level(35), Overbought: config.Level(65)}},
		{Mode: "momentum", Params: config.StrategyParams{Lookback: 8, Threshold: config.Level(0.015)}},
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.App.MetricsAddr != "" {
		srv := metrics.Serve(cfg.App.MetricsAddr)
		defer srv.Close()
		log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")
	}

	src, err := exchange.NewSource(cfg.Source, log)
	if err != nil {
		return err
	}

	eng := engine.New(cfg.Engine.MaxHistory, log)
	recent := journal.NewLedger(recentSignals)
	hooks := []engine.ExecutionHook{
		execution.NewExecutor(log).Execute,
		journal.Hook(eng.RunID, recent),
	}

	if cfg.Journal.Path != "" {
		rec, err := journal.NewJSONLRecorder(cfg.Journal.Path)
		if err != nil {
			return err
		}
		defer rec.Close()
		hooks = append(hooks, journal.Hook(eng.RunID, rec))
		log.Info().Str("path", cfg.Journal.Path).Msg("journaling signals")
	}

	if cfg.Kafka.Enabled {
		pub, err := publish.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			return err
		}
		defer pub.Close()
		hooks = append(hooks, pub.Hook(eng.RunID))
	}
	eng.SetHook(engine.Chain(hooks...))

	for _, sc := range cfg.Strategies {
		s, err := strategy.Build(sc.Mode, strategy.Params(sc.Params))
		if err != nil {
			return fmt.Errorf("strategy %q: %w", sc.Mode, err)
		}
		eng.AddStrategy(s)
	}
	eng.SetSource(src)

	if cfg.Report.Schedule != "" {
		rep, err := report.NewReporter(cfg.Report.Schedule, eng.Stats, log)
		if err != nil {
			return err
		}
		rep.Start()
		defer rep.Stop()
	}

	err = eng.Start(ctx)
	fmt.Print("\n" + report.Format(eng.Stats(), recent.Snapshot()...))
	return err
}
