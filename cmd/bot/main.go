package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gannbot/internal/clock"
	"gannbot/internal/config"
	"gannbot/internal/exchange"
	"gannbot/internal/exchange/upstox"
	"gannbot/internal/logger"
	"gannbot/internal/manager"
	"gannbot/internal/models"
	"gannbot/internal/strategy"
)

func main() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(logger.Config{
		Level:      cfg.Runtime.Log.Level,
		Format:     cfg.Runtime.Log.Format,
		Output:     cfg.Runtime.Log.File,
		MaxSize:    cfg.Runtime.Log.MaxSize,
		MaxBackups: cfg.Runtime.Log.MaxBackups,
		MaxAge:     cfg.Runtime.Log.MaxAge,
		Compress:   cfg.Runtime.Log.Compress,
	})

	log.Info("Бот запущен.")

	client := upstox.New(cfg.Exchange.BaseUrl, cfg.Exchange.WSUrl, cfg.Exchange.Token, cfg.Bot.Exchange, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	callInst, err := resolveWithRetry(ctx, client, cfg.Bot.CallSymbol, log)
	if err != nil {
		log.WithError(err).Fatal("Не удалось найти колл-инструмент.")
	}
	putInst, err := resolveWithRetry(ctx, client, cfg.Bot.PutSymbol, log)
	if err != nil {
		log.WithError(err).Fatal("Не удалось найти пут-инструмент.")
	}

	legCfg := strategy.LegConfig{
		TickSize:        cfg.Bot.TickSize,
		MaxCycles:       cfg.Bot.MaxCycles,
		SlippagePercent: cfg.Bot.SlippagePercent,
	}
	pair := strategy.NewPair(
		strategy.NewLeg(callInst, client, log, legCfg),
		strategy.NewLeg(putInst, client, log, legCfg),
		log,
	)
	runner := strategy.NewRunner(pair, log, time.Duration(cfg.Bot.PollIntervalMs)*time.Millisecond)

	mgr := manager.New(client, clock.System(), log, manager.Config{
		Open:          cfg.Session.Open,
		Cutoff:        cfg.Session.Cutoff,
		StaleAfter:    time.Duration(cfg.Session.StaleAfterSec) * time.Second,
		MaxReconnects: cfg.Session.MaxReconnects,
	})
	mgr.AddStrategy(runner)

	go func() {
		if err := mgr.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Fatal("Сессия завершилась с ошибкой.")
		}
	}()

	<-sigCh

	cancel()
	mgr.Stop(context.Background())

	log.Info("Бот остановлен.")
}

func resolveWithRetry(ctx context.Context, catalog exchange.InstrumentCatalog, symbol string, log *logger.Logger) (models.Instrument, error) {
	var lastErr error
	backoff := 1 * time.Second
	for i := 0; i < 5; i++ {
		inst, err := catalog.Resolve(ctx, symbol)
		if err == nil {
			return inst, nil
		}
		lastErr = err
		log.WithError(err).WithField("symbol", symbol).Warn("Ошибка, повторяем запрос.")
		select {
		case <-ctx.Done():
			return models.Instrument{}, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return models.Instrument{}, lastErr
}
