package ws

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"fourline/internal/registry"
)

type Server struct {
	registry *registry.Registry
	upgrader websocket.Upgrader
}

func NewServer(reg *registry.Registry, allowedOrigin string) *Server {
	return &Server{
		registry: reg,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				if allowedOrigin == "" {
					return true
				}
				return r.Header.Get("Origin") == allowedOrigin
			},
		},
	}
}

func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	client := newClient(conn)
	connectionsTotal.Add(1)
	log.Debug().Str("conn_id", client.id).Str("remote", conn.RemoteAddr().String()).Msg("ws_connected")

	go writeLoop(client)
	s.readLoop(client)
}

func writeLoop(c *Client) {
	for msg := range c.send {
		_ = c.conn.WriteMessage(websocket.TextMessage, msg)
	}
}

func (s *Server) readLoop(c *Client) {
	defer func() {
		s.registry.Disconnect(c)
		safeClose(c.send)
		_ = c.conn.Close()
		log.Debug().Str("conn_id", c.id).Msg("ws_disconnected")
	}()

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		s.dispatch(c, msg)
	}
}

func (s *Server) dispatch(c *Client, msg []byte) {
	var base struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(msg, &base); err != nil {
		log.Debug().Str("conn_id", c.id).Msg("bad json frame")
		return
	}

	switch base.Type {
	case "createGame":
		var m CreateGameMessage
		if json.Unmarshal(msg, &m) != nil {
			return
		}
		if _, err := s.registry.CreateRoom(c, m.PlayerName); err != nil {
			s.sendError(c, err)
		}

	case "joinGame":
		var m JoinGameMessage
		if json.Unmarshal(msg, &m) != nil {
			return
		}
		if err := s.registry.Join(c, m.RoomID, m.PlayerName); err != nil {
			s.sendError(c, err)
		}

	case "makeMove":
		var m MakeMoveMessage
		if json.Unmarshal(msg, &m) != nil {
			return
		}
		if err := s.registry.RelayMove(c, m.RoomID, m.Col); err != nil {
			s.sendError(c, err)
		}

	case "sendReaction":
		var m SendReactionMessage
		if json.Unmarshal(msg, &m) != nil {
			return
		}
		if err := s.registry.RelayReaction(c, m.RoomID, m.Reaction); err != nil {
			s.sendError(c, err)
		}

	case "gameEnded":
		var m GameEndedMessage
		if json.Unmarshal(msg, &m) != nil {
			return
		}
		winner := 0
		if m.Winner != nil {
			winner = *m.Winner
		}
		if err := s.registry.RecordGameEnd(c, m.RoomID, winner); err != nil {
			s.sendError(c, err)
		}

	case "requestRematch":
		var m RequestRematchMessage
		if json.Unmarshal(msg, &m) != nil {
			return
		}
		if err := s.registry.RequestRematch(c, m.RoomID); err != nil {
			s.sendError(c, err)
		}

	case "respondToRematch":
		var m RespondToRematchMessage
		if json.Unmarshal(msg, &m) != nil {
			return
		}
		if err := s.registry.RespondToRematch(c, m.RoomID, m.Accepted); err != nil {
			s.sendError(c, err)
		}

	case "attemptReconnect":
		var m AttemptReconnectMessage
		if json.Unmarshal(msg, &m) != nil {
			return
		}
		if err := s.registry.Reconnect(c, m.RoomID, m.PlayerName); err != nil {
			c.Send(registry.ReconnectionFailedEvent{Type: "reconnectionFailed", Message: err.Error()})
		}

	default:
		log.Debug().Str("conn_id", c.id).Str("msg_type", base.Type).Msg("unknown frame type")
	}
}

// sendError reports a failed request to its originator only; errors are
// never broadcast.
func (s *Server) sendError(c *Client, err error) {
	c.Send(registry.ErrorEvent{Type: "error", Message: humanMessage(err), Kind: errorKind(err)})
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, registry.ErrRoomNotFound):
		return "RoomNotFound"
	case errors.Is(err, registry.ErrRoomFull):
		return "RoomFull"
	case errors.Is(err, registry.ErrUnexpectedRoomState):
		return "UnexpectedRoomState"
	default:
		return "other"
	}
}

func humanMessage(err error) string {
	switch {
	case errors.Is(err, registry.ErrRoomNotFound):
		return "Room does not exist."
	case errors.Is(err, registry.ErrRoomFull):
		return "Room is full."
	case errors.Is(err, registry.ErrUnexpectedRoomState):
		return "Room is not accepting players right now."
	default:
		return "Something went wrong."
	}
}
