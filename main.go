package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ShaySapozhnikov/Lift-off-ctf-sub000/internal/config"
	"github.com/ShaySapozhnikov/Lift-off-ctf-sub000/internal/server"
)

func main() {
	envFile := flag.String("env", ".env", "optional dotenv file loaded before the environment")
	addr := flag.String("addr", "", "address to listen on (e.g., 127.0.0.1:8080); overrides LIFTOFF_ADDR")
	tuningPath := flag.String("anomaly-config", "", "path to encounter tuning JSON; overrides LIFTOFF_TUNING_PATH")
	finalThreshold := flag.Int("final-threshold", -1, "override points needed to reach the final choice")
	fastTurns := flag.Int("fast-turns", -1, "override turn limit for the fast route to the final choice")
	fastPoints := flag.Int("fast-points", -1, "override points needed for the fast route")
	maxTurns := flag.Int("max-turns", -1, "override turns after which the final choice is forced")
	fallbackLimit := flag.Int("fallback-limit", -1, "override how many fallback choices are offered")
	flag.Parse()

	svc, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		svc.Addr = *addr
	}
	if *tuningPath != "" {
		svc.TuningPath = *tuningPath
	}

	cfg := server.DefaultAppConfig()
	cfg.Service = svc

	var overrides server.TuningOverrides
	if *finalThreshold >= 0 {
		val := *finalThreshold
		overrides.FinalThreshold = &val
	}
	if *fastTurns >= 0 {
		val := *fastTurns
		overrides.FastTurns = &val
	}
	if *fastPoints >= 0 {
		val := *fastPoints
		overrides.FastPoints = &val
	}
	if *maxTurns >= 0 {
		val := *maxTurns
		overrides.MaxTurns = &val
	}
	if *fallbackLimit >= 0 {
		val := *fallbackLimit
		overrides.FallbackLimit = &val
	}
	cfg.TuningOverrides = overrides

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.StartApp(ctx, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}
