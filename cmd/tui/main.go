package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/surgelove/vibe-trader/internal/config"
	"github.com/surgelove/vibe-trader/internal/exchange"
)

const configPath = "config.yaml"

func main() {
	reader := bufio.NewReader(os.Stdin)

	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	for {
		fmt.Println("\n=== Vibe Trader ===")
		fmt.Println("1) Show configuration summary")
		fmt.Println("2) Select data source")
		fmt.Println("3) Edit history size")
		fmt.Println("4) Save config")
		fmt.Println("5) Launch assistant")
		fmt.Println("6) Reload config from disk")
		fmt.Println("0) Exit")
		fmt.Print("Select option: ")

		input, _ := reader.ReadString('\n')
		switch strings.TrimSpace(input) {
		case "1":
			printSummary(cfg)
		case "2":
			selectSource(reader, cfg)
		case "3":
			cfg.Engine.MaxHistory = promptInt(reader, "Max history", cfg.Engine.MaxHistory)
		case "4":
			if err := cfg.Validate(); err != nil {
				fmt.Fprintf(os.Stderr, "not saved: %v\n", err)
			} else if err := config.Save(configPath, cfg); err != nil {
				fmt.Fprintf(os.Stderr, "save failed: %v\n", err)
			} else {
				fmt.Println("config saved")
			}
		case "5":
			launchAssistant(reader)
		case "6":
			reloaded, err := config.LoadOrDefault(configPath)
			if err != nil {
				fmt.Fprintf(os.Stderr, "reload failed: %v\n", err)
			} else {
				cfg = reloaded
				fmt.Println("config reloaded")
			}
		case "0":
			return
		default:
			fmt.Println("unknown option")
		}
	}
}

func printSummary(cfg *config.Config) {
	fmt.Println("\n--- Configuration Summary ---")
	fmt.Printf("Source: %s\n", cfg.Source.Kind)
	switch cfg.Source.Kind {
	case config.SourceSynthetic:
		fmt.Printf("  symbol %s, base price $%.2f, every %dms\n", cfg.Source.Symbol, cfg.Source.BasePrice, cfg.Source.IntervalMs)
	case config.SourceReplay:
		fmt.Printf("  file %s, every %dms\n", cfg.Source.Path, cfg.Source.IntervalMs)
	case config.SourceSocket:
		fmt.Printf("  uri %s, reconnect after %dms\n", cfg.Source.URI, cfg.Source.ReconnectIntervalMs)
	}
	fmt.Printf("Max history: %d\n", cfg.Engine.MaxHistory)
	fmt.Printf("Strategies: %d\n", len(cfg.Strategies))
	for i, s := range cfg.Strategies {
		fmt.Printf("  %d. %s %s\n", i+1, s.Mode, s.Params)
	}
	if cfg.Journal.Path != "" {
		fmt.Printf("Journal: %s\n", cfg.Journal.Path)
	}
	if cfg.Kafka.Enabled {
		fmt.Printf("Kafka: %s -> %s\n", strings.Join(cfg.Kafka.Brokers, ","), cfg.Kafka.Topic)
	}
}

func selectSource(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n--- Select Data Source ---")
	fmt.Println("1) Synthetic (simulated)")
	fmt.Println("2) Replay file (JSON lines)")
	fmt.Println("3) WebSocket")
	fmt.Print("Choice: ")
	line, _ := reader.ReadString('\n')
	switch strings.TrimSpace(line) {
	case "1":
		cfg.Source.Kind = config.SourceSynthetic
		cfg.Source.Symbol = promptString(reader, "Symbol", cfg.Source.Symbol)
		cfg.Source.BasePrice = promptFloat(reader, "Base price", cfg.Source.BasePrice)
		cfg.Source.IntervalMs = promptInt(reader, "Interval (ms)", cfg.Source.IntervalMs)
	case "2":
		cfg.Source.Kind = config.SourceReplay
		cfg.Source.Path = promptString(reader, "File path", orDefault(cfg.Source.Path, "sample_data.json"))
		cfg.Source.IntervalMs = promptInt(reader, "Interval (ms)", cfg.Source.IntervalMs)
		ensureSample(cfg.Source.Path)
	case "3":
		cfg.Source.Kind = config.SourceSocket
		cfg.Source.URI = promptString(reader, "WebSocket URI", cfg.Source.URI)
	default:
		fmt.Println("unknown source, keeping", cfg.Source.Kind)
	}
}

func ensureSample(path string) {
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		return
	}
	fmt.Printf("Creating sample data file: %s\n", path)
	n, err := exchange.WriteSampleFile(path, exchange.SampleSpec{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "sample failed: %v\n", err)
		return
	}
	fmt.Printf("Created %d sample data points in %s\n", n, path)
}

func launchAssistant(reader *bufio.Reader) {
	fmt.Println("Launching assistant (Ctrl+C to stop)...")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := exec.CommandContext(ctx, "go", "run", "./cmd/assistant", "-config", configPath)
	cmd.Cancel = func() error { return cmd.Process.Signal(os.Interrupt) }
	cmd.WaitDelay = 2 * time.Second
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start assistant: %v\n", err)
		return
	}

	go func() {
		_ = cmd.Wait()
		cancel()
	}()

	fmt.Print("\nPress ENTER to stop the assistant and return to menu...")
	_, _ = reader.ReadString('\n')
	cancel()
	time.Sleep(500 * time.Millisecond)
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func promptString(reader *bufio.Reader, label, current string) string {
	fmt.Printf("%s [%s]: ", label, current)
	line, _ := reader.ReadString('\n')
	if line = strings.TrimSpace(line); line == "" {
		return current
	}
	return line
}

func promptInt(reader *bufio.Reader, label string, current int) int {
	fmt.Printf("%s [%d]: ", label, current)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return current
	}
	val, err := strconv.Atoi(line)
	if err != nil || val <= 0 {
		fmt.Printf("invalid number, keeping %d\n", current)
		return current
	}
	return val
}

func promptFloat(reader *bufio.Reader, label string, current float64) float64 {
	fmt.Printf("%s [%.2f]: ", label, current)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return current
	}
	val, err := strconv.ParseFloat(line, 64)
	if err != nil {
		fmt.Printf("invalid number, keeping %.2f\n", current)
		return current
	}
	return val
}
