package server

import (
	_ "embed"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/ShaySapozhnikov/Lift-off-ctf-sub000/internal/reward"
)

/* ------------------------------ Embeds ------------------------------ */

//go:embed web/index.html
var htmlIndex []byte

/* ------------------------------- HTTP ------------------------------- */

// Routes holds what the router serves. Issuer and Metrics may be nil.
type Routes struct {
	Hub     *Hub
	Issuer  http.Handler
	Secret  []byte // Receipt key for /api/receipts/verify; empty disables it
	Metrics http.Handler
	Logger  *zap.Logger
}

// NewRouter builds the HTTP surface: the terminal page, the websocket, the
// session API and the flag service.
func NewRouter(rt Routes) http.Handler {
	if rt.Logger == nil {
		rt.Logger = zap.NewNop()
	}
	log := rt.Logger.Named("http")
	r := mux.NewRouter()

	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(htmlIndex)
	}).Methods(http.MethodGet)
	r.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWS(rt.Hub, log, w, r)
	})
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": rt.Hub.Count()})
	}).Methods(http.MethodGet)
	if rt.Metrics != nil {
		r.Handle("/metrics", rt.Metrics).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api").Subrouter()
	if rt.Issuer != nil {
		api.Handle("/flags", rt.Issuer)
	}
	if len(rt.Secret) > 0 {
		api.HandleFunc("/receipts/verify", verifyReceipt(rt.Secret)).Methods(http.MethodPost)
	}

	sessions := &sessionHandler{hub: rt.Hub}
	api.HandleFunc("/sessions", sessions.Create).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}", sessions.Get).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}", sessions.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/sessions/{id}/choice", sessions.Choice).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/skip", sessions.Skip).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/restart", sessions.Restart).Methods(http.MethodPost)

	return r
}

// sessionHandler drives sessions over plain HTTP for hosts without a socket.
type sessionHandler struct {
	hub *Hub
}

// Create handles POST /api/sessions
func (h *sessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	p := h.hub.GetPlayer("")
	p.Session.Start()
	writeJSON(w, http.StatusCreated, viewToState(p.Session.View()))
}

// Get handles GET /api/sessions/{id}
func (h *sessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := h.player(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, viewToState(p.Session.View()))
}

// Delete handles DELETE /api/sessions/{id}
func (h *sessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.hub.Remove(mux.Vars(r)["id"]) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Choice handles POST /api/sessions/{id}/choice
func (h *sessionHandler) Choice(w http.ResponseWriter, r *http.Request) {
	p, ok := h.player(w, r)
	if !ok {
		return
	}
	var req choicePayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !p.Session.SubmitChoice(req.ID) {
		writeError(w, http.StatusConflict, "choice not available")
		return
	}
	writeJSON(w, http.StatusOK, viewToState(p.Session.View()))
}

// Skip handles POST /api/sessions/{id}/skip
func (h *sessionHandler) Skip(w http.ResponseWriter, r *http.Request) {
	p, ok := h.player(w, r)
	if !ok {
		return
	}
	p.Session.Skip()
	writeJSON(w, http.StatusOK, viewToState(p.Session.View()))
}

// Restart handles POST /api/sessions/{id}/restart
func (h *sessionHandler) Restart(w http.ResponseWriter, r *http.Request) {
	p, ok := h.player(w, r)
	if !ok {
		return
	}
	p.Session.Restart()
	writeJSON(w, http.StatusOK, viewToState(p.Session.View()))
}

func (h *sessionHandler) player(w http.ResponseWriter, r *http.Request) (*Player, bool) {
	p, ok := h.hub.Lookup(mux.Vars(r)["id"])
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
	}
	return p, ok
}

type verifyRequest struct {
	Token string `json:"token"`
}

type verifyResponse struct {
	Valid     bool   `json:"valid"`
	Flag      string `json:"flag,omitempty"`
	Challenge string `json:"challenge,omitempty"`
	Outcome   string `json:"outcome,omitempty"`
	Score     int    `json:"score,omitempty"`
	User      string `json:"user,omitempty"`
}

func verifyReceipt(secret []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req verifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		claims, err := reward.Verify(secret, req.Token)
		if err != nil {
			writeJSON(w, http.StatusOK, verifyResponse{Valid: false})
			return
		}
		writeJSON(w, http.StatusOK, verifyResponse{
			Valid:     true,
			Flag:      claims.Flag,
			Challenge: claims.Challenge,
			Outcome:   string(claims.Outcome),
			Score:     claims.Score,
			User:      claims.Subject,
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
