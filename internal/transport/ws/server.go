package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"tradepost.gg/internal/protocol"
	"tradepost.gg/internal/sim/tuning"
	"tradepost.gg/internal/sim/world"
)

type Server struct {
	world *world.World
	tune  tuning.Tuning
	log   *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(w *world.World, tune tuning.Tuning, logger *log.Logger) *Server {
	if tune.ClientQueueDefault <= 0 {
		tune.ClientQueueDefault = 8
	}
	if tune.ClientQueueMax < tune.ClientQueueDefault {
		tune.ClientQueueMax = tune.ClientQueueDefault
	}
	return &Server{
		world: w,
		tune:  tune,
		log:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		actorID, out := s.handshake(conn)
		if actorID == "" {
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil {
				continue
			}
			if base.Type != protocol.TypeAct {
				continue
			}
			var act protocol.ActMsg
			if err := json.Unmarshal(msg, &act); err != nil {
				continue
			}
			if act.ProtocolVersion != protocol.Version {
				continue
			}
			s.world.InboxCh() <- world.ActionEnvelope{ActorID: actorID, Act: act}
		}

		// Cleanup.
		s.world.LeaveCh() <- actorID
	}
}

func (s *Server) handshake(conn *websocket.Conn) (actorID string, out chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return "", nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return "", nil
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return "", nil
	}
	if hello.ActorName == "" {
		hello.ActorName = "actor"
	}

	maxQ := hello.MaxQueue
	if maxQ <= 0 {
		maxQ = s.tune.ClientQueueDefault
	}
	if maxQ > s.tune.ClientQueueMax {
		maxQ = s.tune.ClientQueueMax
	}
	out = make(chan []byte, maxQ)

	respCh := make(chan world.JoinResponse, 1)
	s.world.JoinCh() <- world.JoinRequest{
		Name: hello.ActorName,
		Out:  out,
		Resp: respCh,
	}
	resp := <-respCh

	if err := writeJSON(conn, resp.Welcome); err != nil {
		return "", nil
	}
	return resp.Welcome.ActorID, out
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
