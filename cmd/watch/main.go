package main

import (
	"bufio"
	"context"
	"os"
	"os/signal"
	"syscall"

	"finhistory/internal/client"
	"finhistory/internal/config"
	"finhistory/internal/logging"
	"finhistory/internal/models"
	"finhistory/internal/poller"
	"finhistory/internal/services/history"

	"go.uber.org/zap"
)

// Follows a user's history from the terminal. The user comes from the first
// argument or WATCH_USER_ID; pressing Enter forces a revalidation the same way
// a window regaining focus would.
func main() {
	config.LoadEnv()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logging.Must(cfg.Production)
	defer func() { _ = log.Sync() }()

	raw := config.GetEnv("WATCH_USER_ID", "")
	if len(os.Args) > 1 {
		raw = os.Args[1]
	}

	var userID *int64
	if id, err := history.ParseUserID(raw); err == nil {
		userID = &id
	} else {
		log.Warn("No valid user id given, nothing will be fetched", zap.String("input", raw))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := client.NewPoller(
		client.New(cfg.Client.BaseURL, cfg.Client.Timeout),
		poller.NewCache[models.HistorySnapshot](),
		poller.Options{Interval: cfg.Client.RefreshInterval, Logger: log.Named("poller")},
	)
	defer p.Close()

	h := client.UseHistory(p, userID, func(s client.State) { report(log, s) })
	defer h.Close()

	focus := make(chan struct{})
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			select {
			case focus <- struct{}{}:
			case <-ctx.Done():
				return
			}
		}
	}()
	go p.ListenFocus(ctx, focus)

	report(log, h.State())
	log.Info("Watching history",
		zap.String("base_url", cfg.Client.BaseURL),
		zap.String("key", h.Key()),
		zap.Duration("interval", cfg.Client.RefreshInterval))

	<-ctx.Done()
}

func report(log *zap.Logger, s client.State) {
	if s.IsError {
		log.Error("History unavailable", zap.Error(s.Err))
		return
	}
	log.Info("History",
		zap.Bool("loading", s.IsLoading),
		zap.Int("deposits", len(s.Data.DepositHistory)),
		zap.Int("withdrawals", len(s.Data.WithdrawalHistory)),
		zap.Int("investments", len(s.Data.InvestmentHistory)))
}
