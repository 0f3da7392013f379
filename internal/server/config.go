package server

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ShaySapozhnikov/Lift-off-ctf-sub000/internal/anomaly"
	"github.com/ShaySapozhnikov/Lift-off-ctf-sub000/internal/cues"
	"github.com/ShaySapozhnikov/Lift-off-ctf-sub000/internal/encounter"
)

type tuningConfig struct {
	FinalThreshold *int `json:"finalThreshold"`
	FastTurns      *int `json:"fastTurns"`
	FastPoints     *int `json:"fastPoints"`
	MaxTurns       *int `json:"maxTurns"`
	FallbackLimit  *int `json:"fallbackLimit"`
}

type pacingConfig struct {
	CharIntervalMs *int `json:"charIntervalMs"`
	PauseDelayMs   *int `json:"pauseDelayMs"`
	LineGapMs      *int `json:"lineGapMs"`
	BlipEvery      *int `json:"blipEvery"`
}

type anomalyConfig struct {
	Tuning *tuningConfig `json:"tuning"`
	Pacing *pacingConfig `json:"pacing"`
}

// TuningOverrides represents optional command-line overrides for the scoring thresholds.
type TuningOverrides struct {
	FinalThreshold *int
	FastTurns      *int
	FastPoints     *int
	MaxTurns       *int
	FallbackLimit  *int
}

// Pacing is the reveal timing shared by every session.
type Pacing struct {
	Session   encounter.Config
	BlipEvery int
}

// DefaultPacing returns the terminal pacing.
func DefaultPacing() Pacing {
	return Pacing{Session: encounter.DefaultConfig(), BlipEvery: cues.DefaultBlipEvery}
}

func (o TuningOverrides) apply(base anomaly.Tuning) anomaly.Tuning {
	return anomaly.SanitizeTuning(mergeTuning(base, &tuningConfig{
		FinalThreshold: o.FinalThreshold,
		FastTurns:      o.FastTurns,
		FastPoints:     o.FastPoints,
		MaxTurns:       o.MaxTurns,
		FallbackLimit:  o.FallbackLimit,
	}))
}

func mergeTuning(base anomaly.Tuning, cfg *tuningConfig) anomaly.Tuning {
	if cfg == nil {
		return base
	}
	if cfg.FinalThreshold != nil {
		base.FinalThreshold = *cfg.FinalThreshold
	}
	if cfg.FastTurns != nil {
		base.FastTurns = *cfg.FastTurns
	}
	if cfg.FastPoints != nil {
		base.FastPoints = *cfg.FastPoints
	}
	if cfg.MaxTurns != nil {
		base.MaxTurns = *cfg.MaxTurns
	}
	if cfg.FallbackLimit != nil {
		base.FallbackLimit = *cfg.FallbackLimit
	}
	return anomaly.SanitizeTuning(base)
}

func mergePacing(base Pacing, cfg *pacingConfig) Pacing {
	if cfg == nil {
		return base
	}
	ms := func(v int) time.Duration { return time.Duration(v) * time.Millisecond }
	if cfg.CharIntervalMs != nil && *cfg.CharIntervalMs > 0 {
		base.Session.Typewriter.CharInterval = ms(*cfg.CharIntervalMs)
	}
	if cfg.PauseDelayMs != nil && *cfg.PauseDelayMs > 0 {
		base.Session.Typewriter.PauseDelay = ms(*cfg.PauseDelayMs)
	}
	if cfg.LineGapMs != nil && *cfg.LineGapMs >= 0 {
		base.Session.LineGap = ms(*cfg.LineGapMs)
	}
	if cfg.BlipEvery != nil && *cfg.BlipEvery > 0 {
		base.BlipEvery = *cfg.BlipEvery
	}
	return base
}

// loadAnomalyConfig merges the tuning file over the given defaults. A missing
// file is not an error.
func loadAnomalyConfig(path string, tuning anomaly.Tuning, pacing Pacing) (anomaly.Tuning, Pacing, error) {
	tuning = anomaly.SanitizeTuning(tuning)
	if path == "" {
		return tuning, pacing, nil
	}
	cleanPath := filepath.Clean(path)
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		if os.IsNotExist(err) {
			return tuning, pacing, nil
		}
		return tuning, pacing, fmt.Errorf("read anomaly config %q: %w", cleanPath, err)
	}
	var cfg anomalyConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return tuning, pacing, fmt.Errorf("parse anomaly config %q: %w", cleanPath, err)
	}
	return mergeTuning(tuning, cfg.Tuning), mergePacing(pacing, cfg.Pacing), nil
}
