package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// UpdateRateHz is how often a connection checks for a changed view. It is
// fast enough to carry the typewriter at its default pacing.
const UpdateRateHz = 30

// sendInterval is the period of the per-connection send ticker.
const sendInterval = time.Second / UpdateRateHz

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type choicePayload struct {
	ID int `json:"id"`
}

type liveConn struct {
	conn     *websocket.Conn
	sendTick *time.Ticker
}

func serveWS(h *Hub, log *zap.Logger, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("upgrade failed", zap.Error(err))
		return
	}
	lc := &liveConn{
		conn:     conn,
		sendTick: time.NewTicker(sendInterval),
	}

	// A known session ID resumes that playthrough.
	player := h.GetPlayer(r.URL.Query().Get("session"))
	player.Session.Start()
	player.attach()
	defer player.detach()
	log = log.With(zap.String("session", player.ID))
	log.Info("terminal connected")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		defer cancel()
		for {
			msgType, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if msgType != websocket.TextMessage {
				continue
			}
			var inbound inboundMessage
			if err := json.Unmarshal(data, &inbound); err != nil {
				log.Debug("invalid JSON message", zap.Error(err))
				continue
			}
			handleInbound(player, inbound, log)
		}
	}()

	go func() {
		defer cancel()
		var sent uint64
		first := true
		for {
			select {
			case <-ctx.Done():
				return
			case <-lc.sendTick.C:
				for _, c := range player.cues.drain() {
					if err := conn.WriteJSON(cueToMsg(c)); err != nil {
						log.Debug("send cue failed", zap.Error(err))
						return
					}
				}
				version := player.Session.Version()
				if !first && version == sent {
					continue
				}
				if err := conn.WriteJSON(viewToState(player.Session.View())); err != nil {
					log.Debug("send state failed", zap.Error(err))
					return
				}
				sent, first = version, false
			}
		}
	}()

	<-ctx.Done()
	lc.sendTick.Stop()
	conn.Close()
	log.Info("terminal disconnected")
}

func handleInbound(p *Player, msg inboundMessage, log *zap.Logger) {
	switch msg.Type {
	case "choice":
		var payload choicePayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			log.Debug("invalid choice payload", zap.Error(err))
			return
		}
		if !p.Session.SubmitChoice(payload.ID) {
			log.Debug("choice ignored", zap.Int("id", payload.ID))
		}
	case "skip":
		p.Session.Skip()
	case "restart":
		p.Session.Restart()
	default:
		log.Debug("unknown message type", zap.String("type", msg.Type))
	}
}
