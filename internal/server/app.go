package server

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ShaySapozhnikov/Lift-off-ctf-sub000/internal/anomaly"
	"github.com/ShaySapozhnikov/Lift-off-ctf-sub000/internal/config"
	"github.com/ShaySapozhnikov/Lift-off-ctf-sub000/internal/encounter"
	"github.com/ShaySapozhnikov/Lift-off-ctf-sub000/internal/logger"
	"github.com/ShaySapozhnikov/Lift-off-ctf-sub000/internal/metrics"
	"github.com/ShaySapozhnikov/Lift-off-ctf-sub000/internal/reward"
)

// cleanupInterval is how often idle sessions are swept.
const cleanupInterval = 60 * time.Second

type AppConfig struct {
	Service         *config.Config
	TuningOverrides TuningOverrides
}

func DefaultAppConfig() AppConfig {
	return AppConfig{
		Service: &config.Config{
			Addr:           ":8080",
			LogLevel:       "info",
			LogEncoding:    "json",
			TuningPath:     "configs/anomaly.json",
			RewardTimeout:  5 * time.Second,
			IssuerMinScore: 3,
			ReceiptTTL:     24 * time.Hour,
			SessionIdle:    30 * time.Minute,
			Metrics:        true,
		},
	}
}

func resolveTuning(cfg AppConfig, log *zap.Logger) (anomaly.Tuning, Pacing) {
	tuning, pacing, err := loadAnomalyConfig(cfg.Service.TuningPath, anomaly.DefaultTuning(), DefaultPacing())
	if err != nil {
		log.Warn("anomaly config unreadable, using defaults", zap.Error(err))
		tuning, pacing = anomaly.DefaultTuning(), DefaultPacing()
	}
	pacing.Session.RewardTimeout = cfg.Service.RewardTimeout
	return cfg.TuningOverrides.apply(tuning), pacing
}

func newLedger(ctx context.Context, svc *config.Config, log *zap.Logger) (reward.Ledger, error) {
	if svc.RedisAddr == "" {
		log.Info("reward ledger kept in memory")
		return reward.NewMemoryLedger(), nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     svc.RedisAddr,
		Password: svc.RedisPassword,
		DB:       svc.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", svc.RedisAddr, err)
	}
	log.Info("reward ledger backed by redis", zap.String("addr", svc.RedisAddr))
	return reward.NewRedisLedger(client), nil
}

func issuerSecret(svc *config.Config, log *zap.Logger) ([]byte, error) {
	if svc.IssuerSecret != "" {
		return []byte(svc.IssuerSecret), nil
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generate issuer secret: %w", err)
	}
	log.Warn("LIFTOFF_ISSUER_SECRET not set; receipts will not survive a restart")
	return secret, nil
}

// StartApp wires the service together and serves until ctx is cancelled.
func StartApp(ctx context.Context, cfg AppConfig) error {
	svc := cfg.Service
	if svc == nil {
		svc = DefaultAppConfig().Service
		cfg.Service = svc
	}

	log, err := logger.New(logger.Config{Level: svc.LogLevel, Encoding: svc.LogEncoding})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	content, err := anomaly.Load(anomaly.DefaultContent())
	if err != nil {
		return fmt.Errorf("load encounter content: %w", err)
	}
	tuning, pacing := resolveTuning(cfg, log)
	engine := anomaly.NewEngine(content, tuning)

	ledger, err := newLedger(ctx, svc, log)
	if err != nil {
		return err
	}
	secret, err := issuerSecret(svc, log)
	if err != nil {
		return err
	}
	challenge := reward.Challenge{
		Path:     anomaly.RewardPath,
		Flag:     svc.IssuerFlag,
		MinScore: svc.IssuerMinScore,
	}
	issuer, err := reward.NewIssuer(reward.IssuerConfig{
		Secret:     secret,
		TTL:        svc.ReceiptTTL,
		Challenges: []reward.Challenge{challenge},
	}, ledger, log)
	if err != nil {
		return fmt.Errorf("init issuer: %w", err)
	}

	var rewards encounter.RewardIssuer = issuer
	if svc.RewardURL != "" {
		rewards = reward.NewClient(svc.RewardURL, svc.RewardTimeout, log)
		log.Info("rewards fetched remotely", zap.String("url", svc.RewardURL))
	}

	opts := []encounter.Option{
		encounter.WithIssuer(rewards),
		encounter.WithLogger(log),
	}
	var population Population
	var metricsHandler http.Handler
	if svc.Metrics {
		m := metrics.New()
		opts = append(opts, encounter.WithObserver(m))
		population = m
		metricsHandler = m.Handler()
	}
	hub := NewHub(engine, pacing, population, opts...)

	go func() {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := hub.CleanupIdle(svc.SessionIdle); n > 0 {
					log.Info("idle sessions removed", zap.Int("count", n))
				}
			}
		}
	}()

	router := NewRouter(Routes{
		Hub:     hub,
		Issuer:  issuer,
		Secret:  secret,
		Metrics: metricsHandler,
		Logger:  log,
	})
	srv := &http.Server{
		Addr:              svc.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting web server",
			zap.String("addr", svc.Addr),
			zap.Int("final_threshold", tuning.FinalThreshold),
			zap.Int("max_turns", tuning.MaxTurns))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	hub.CloseAll()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
