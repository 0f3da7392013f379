package reward

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ShaySapozhnikov/Lift-off-ctf-sub000/internal/anomaly"
)

// Challenge is a flag guarded by a minimum score.
type Challenge struct {
	Path     string // Identifying path sent by the encounter
	Flag     string
	MinScore int
}

// IssuerConfig configures an Issuer.
type IssuerConfig struct {
	Secret     []byte
	TTL        time.Duration // Receipt lifetime; zero means no expiry
	Challenges []Challenge
}

// Issuer hands out signed receipts carrying a challenge's flag. It serves the
// remote protocol and can also be called in process.
type Issuer struct {
	secret     []byte
	ttl        time.Duration
	challenges map[string]Challenge
	ledger     Ledger
	logger     *zap.Logger
	now        func() time.Time
}

// NewIssuer creates an issuer. A nil ledger counts in memory.
func NewIssuer(cfg IssuerConfig, ledger Ledger, logger *zap.Logger) (*Issuer, error) {
	if len(cfg.Secret) == 0 {
		return nil, ErrNoSecret
	}
	if ledger == nil {
		ledger = NewMemoryLedger()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	challenges := make(map[string]Challenge, len(cfg.Challenges))
	for _, c := range cfg.Challenges {
		challenges[c.Path] = c
	}
	return &Issuer{
		secret:     cfg.Secret,
		ttl:        cfg.TTL,
		challenges: challenges,
		ledger:     ledger,
		logger:     logger.Named("RewardIssuer"),
		now:        time.Now,
	}, nil
}

// Issue signs a receipt when the outcome is not a defeat and the score meets
// the challenge minimum. Ineligible requests get an empty response.
func (i *Issuer) Issue(ctx context.Context, req Request) (Response, error) {
	log := i.logger.With(
		zap.String("path", req.IdentifyingPath),
		zap.String("user", req.User),
		zap.String("outcome", string(req.Outcome)),
		zap.Int("score", req.Score))

	challenge, ok := i.challenges[req.IdentifyingPath]
	if !ok {
		log.Warn("Reward requested for unknown challenge")
		return Response{}, fmt.Errorf("%w: %s", ErrUnknownChallenge, req.IdentifyingPath)
	}
	if req.Outcome == anomaly.OutcomeDefeat || req.Score < challenge.MinScore {
		log.Info("Reward withheld")
		return Response{}, nil
	}

	token, err := sign(i.secret, Claims{
		Flag:      challenge.Flag,
		Challenge: challenge.Path,
		Outcome:   req.Outcome,
		Score:     req.Score,
	}, req.User, i.now(), i.ttl)
	if err != nil {
		log.Error("Failed to sign reward receipt", zap.Error(err))
		return Response{}, fmt.Errorf("failed to sign receipt: %w", err)
	}

	if n, err := i.ledger.Record(ctx, challenge.Path, req.Outcome); err != nil {
		log.Warn("Failed to record reward", zap.Error(err))
	} else {
		log.Info("Reward issued", zap.Int64("issued_total", n))
	}
	return Response{RewardToken: token}, nil
}

// ServeHTTP implements the remote issuer protocol.
func (i *Issuer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := i.Issue(r.Context(), req)
	switch {
	case errors.Is(err, ErrUnknownChallenge):
		writeJSONError(w, http.StatusNotFound, "unknown challenge")
		return
	case err != nil:
		writeJSONError(w, http.StatusInternalServerError, "could not issue reward")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
