package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/quartzlab/tradedesk/broker"
	"github.com/quartzlab/tradedesk/broker/alpaca"
	"github.com/quartzlab/tradedesk/broker/paper"
	"github.com/quartzlab/tradedesk/config"
	"github.com/quartzlab/tradedesk/gateway"
	"github.com/quartzlab/tradedesk/ledger"
	"github.com/quartzlab/tradedesk/trading"
)

// buildDesk wires config -> broker client -> gateway -> ledger -> desk.
// The returned closer releases the paper broker's database when one is open.
func buildDesk() (*trading.Desk, io.Closer, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	log := newLogger(cfg.LogLevel)

	registry, err := cfg.Registry()
	if err != nil {
		return nil, nil, err
	}
	profile, err := registry.Lookup(cfg.Broker)
	if err != nil {
		return nil, nil, err
	}

	baseURL := cfg.Alpaca.BaseURL
	if baseURL == "" {
		baseURL = alpaca.PaperURL
		if cfg.Env == config.EnvLive {
			baseURL = alpaca.LiveURL
		}
	}
	rest := alpaca.NewClient(baseURL, cfg.Alpaca.APIKey, cfg.Alpaca.APISecret)

	var (
		client broker.Client = rest
		closer io.Closer
	)
	if cfg.Env == config.EnvPaper {
		pb, err := paper.New(cfg.OrderDB, rest)
		if err != nil {
			return nil, nil, err
		}
		client = pb
		closer = pb
	}

	gw := gateway.New(gateway.Config{
		BrokerID:     profile.Name,
		PollInterval: profile.PollInterval,
		OrderTimeout: profile.OrderTimeout,
		TimeInForce:  profile.TimeInForce,
	}, client, log)

	clock, err := cfg.Clock()
	if err != nil {
		return nil, nil, err
	}
	engine := ledger.NewEngine(client, clock, log)
	desk := trading.NewDesk(gw, engine, clock, cfg.Env == config.EnvPaper, log)
	return desk, closer, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	log := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(log)
	return log
}

// printResponse writes the response message and any table payload to stdout.
func printResponse(resp trading.Response) {
	fmt.Println(resp.Message)

	if len(resp.Table) > 0 {
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for _, row := range resp.Table {
			fmt.Fprintln(w, strings.Join(row, "\t"))
		}
		_ = w.Flush()
	}
	for _, s := range resp.Chart {
		fmt.Printf("%s\trealized=%.2f\tunrealized=%.2f\ttotal=%.2f\n",
			s.Time.Format("2006-01-02 15:04"), s.Realized, s.Unrealized, s.Total)
	}
}
