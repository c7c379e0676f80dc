package registry

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	defaultGracePeriod   = 30 * time.Second
	defaultTeardownDelay = 2 * time.Second
	defaultIdleTimeout   = 10 * time.Minute
	defaultName          = "Player"
)

type Config struct {
	GracePeriod   time.Duration
	TeardownDelay time.Duration
	IdleTimeout   time.Duration
}

func (c Config) withDefaults() Config {
	if c.GracePeriod <= 0 {
		c.GracePeriod = defaultGracePeriod
	}
	if c.TeardownDelay <= 0 {
		c.TeardownDelay = defaultTeardownDelay
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = defaultIdleTimeout
	}
	return c
}

// Registry is the sole owner of all room state. Every operation, including
// grace-timer callbacks and the janitor sweep, runs under one lock: each
// inbound event is handled to completion before the next touches a room, so
// per-room delivery stays FIFO and the disconnect/reconnect race collapses to
// lock order.
type Registry struct {
	cfg Config

	mu     sync.Mutex
	rooms  map[string]*Room
	byConn map[string]string // connection id -> room id
}

func New(cfg Config) *Registry {
	return &Registry{
		cfg:    cfg.withDefaults(),
		rooms:  map[string]*Room{},
		byConn: map[string]string{},
	}
}

// CreateRoom opens a room with the caller in slot 1 and replies with the
// fresh room code.
func (r *Registry) CreateRoom(conn Conn, playerName string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var code string
	for {
		c, err := newRoomCode()
		if err != nil {
			return "", err
		}
		if _, taken := r.rooms[c]; !taken {
			code = c
			break
		}
		log.Warn().Str("room_id", c).Msg("room code collision, regenerating")
	}

	now := time.Now()
	room := &Room{
		ID:           code,
		Status:       StatusWaiting,
		NextStarter:  1,
		Scores:       map[int]int{1: 0, 2: 0},
		CreatedAt:    now,
		LastActivity: now,
		rematchAcks:  map[int]bool{},
	}
	room.Slots[0] = &Participant{Conn: conn, Slot: 1, Name: displayName(playerName)}
	r.rooms[code] = room
	r.byConn[conn.ID()] = code

	conn.Send(GameCreatedEvent{Type: "gameCreated", RoomID: code})
	roomsCreatedTotal.Add(1)
	log.Info().Str("room_id", code).Str("player", room.Slots[0].Name).Msg("room_created")
	return code, nil
}

// Join fills slot 2 and starts the game. The gameStarted broadcast is the
// single synchronization point for both clients: whatever nextStarter the
// room holds becomes the authoritative turn owner on both sides.
func (r *Registry) Join(conn Conn, roomID, playerName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return ErrRoomNotFound
	}
	if room.Slots[1] != nil {
		return ErrRoomFull
	}
	if room.Status != StatusWaiting {
		return ErrUnexpectedRoomState
	}

	room.Slots[1] = &Participant{Conn: conn, Slot: 2, Name: displayName(playerName)}
	room.Status = StatusActive
	r.byConn[conn.ID()] = roomID
	r.touch(room)

	room.broadcast(GameStartedEvent{
		Type:        "gameStarted",
		RoomID:      room.ID,
		Players:     room.roster(),
		NextStarter: room.NextStarter,
		Scores:      room.Scores,
	})
	log.Info().Str("room_id", roomID).Str("player", room.Slots[1].Name).Msg("game_started")
	return nil
}

// RelayMove forwards a column index to the sender's opponent. The registry
// never inspects the column against board state; legality lives in the two
// mirrored clients.
func (r *Registry) RelayMove(conn Conn, roomID string, col int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, slot, err := r.member(conn, roomID)
	if err != nil {
		return err
	}
	r.touch(room)
	if opp := room.opponent(slot); opp != nil && opp.Conn != nil {
		opp.Conn.Send(MoveMadeEvent{Type: "moveMade", Col: col})
	}
	movesRelayedTotal.Add(1)
	return nil
}

// RelayReaction forwards an opaque reaction token to the opponent. The
// sender's client renders its own copy locally, so nothing echoes back.
func (r *Registry) RelayReaction(conn Conn, roomID, reaction string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, slot, err := r.member(conn, roomID)
	if err != nil {
		return err
	}
	r.touch(room)
	sender := room.participant(slot)
	if opp := room.opponent(slot); opp != nil && opp.Conn != nil {
		opp.Conn.Send(ReactionReceivedEvent{
			Type:         "reactionReceived",
			Reaction:     reaction,
			PlayerName:   sender.Name,
			PlayerNumber: sender.Slot,
		})
	}
	reactionsRelayedTotal.Add(1)
	return nil
}

// RecordGameEnd notes the result of the current game. Both clients report
// the same end independently, so only the first call while a game is in
// progress has effect; winnerSlot 0 means a draw, which leaves nextStarter
// untouched.
func (r *Registry) RecordGameEnd(conn Conn, roomID string, winnerSlot int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, _, err := r.member(conn, roomID)
	if err != nil {
		return err
	}
	if !room.gameInProgress() {
		return nil
	}
	r.cancelGraceTimer(room)
	room.Status = StatusEnded
	if winnerSlot == 1 || winnerSlot == 2 {
		room.Scores[winnerSlot]++
		room.NextStarter = winnerSlot
	}
	room.rematchAcks = map[int]bool{}
	r.touch(room)
	log.Info().Str("room_id", roomID).Int("winner", winnerSlot).Msg("game_ended")
	return nil
}

// RequestRematch registers the caller's agreement to play again and tells
// the opponent a rematch is wanted.
func (r *Registry) RequestRematch(conn Conn, roomID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.acknowledgeRematch(conn, roomID, true)
}

// RespondToRematch is the second entry point of the same acknowledgement
// primitive: accepting counts exactly like requesting, declining resets the
// whole negotiation.
func (r *Registry) RespondToRematch(conn Conn, roomID string, accepted bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if accepted {
		return r.acknowledgeRematch(conn, roomID, false)
	}

	room, slot, err := r.member(conn, roomID)
	if err != nil {
		return err
	}
	if room.Status != StatusEnded {
		return ErrUnexpectedRoomState
	}
	room.rematchAcks = map[int]bool{}
	r.touch(room)
	if opp := room.opponent(slot); opp != nil && opp.Conn != nil {
		opp.Conn.Send(RematchDeclinedEvent{Type: "rematchDeclined"})
	}
	log.Info().Str("room_id", roomID).Msg("rematch_declined")
	return nil
}

func (r *Registry) acknowledgeRematch(conn Conn, roomID string, notifyOpponent bool) error {
	room, slot, err := r.member(conn, roomID)
	if err != nil {
		return err
	}
	if room.Status != StatusEnded {
		return ErrUnexpectedRoomState
	}
	first := !room.rematchAcks[slot]
	room.rematchAcks[slot] = true
	r.touch(room)

	if len(room.rematchAcks) == 2 {
		room.rematchAcks = map[int]bool{}
		room.Status = StatusActive
		room.broadcast(RematchAcceptedEvent{
			Type:        "rematchAccepted",
			Players:     room.roster(),
			NextStarter: room.NextStarter,
			Scores:      room.Scores,
		})
		log.Info().Str("room_id", roomID).Int("next_starter", room.NextStarter).Msg("rematch_started")
		return nil
	}
	if first && notifyOpponent {
		sender := room.participant(slot)
		if opp := room.opponent(slot); opp != nil && opp.Conn != nil {
			opp.Conn.Send(RematchRequestedEvent{Type: "rematchRequested", PlayerName: sender.Name})
		}
	}
	return nil
}

// Disconnect handles a dropped connection. Lobby-only rooms die immediately;
// a room with a live game enters the grace period instead, giving mobile
// clients a window to resume.
func (r *Registry) Disconnect(conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	roomID, ok := r.byConn[conn.ID()]
	if !ok {
		return
	}
	delete(r.byConn, conn.ID())
	room, ok := r.rooms[roomID]
	if !ok {
		return
	}
	slot := room.slotOf(conn.ID())
	if slot == 0 {
		// A replaced connection whose teardown raced the reconnect.
		return
	}

	if !room.gameInProgress() {
		r.destroyRoom(room, "no active game")
		return
	}

	p := room.participant(slot)
	p.Conn = nil
	p.Disconnected = true
	p.DisconnectedAt = time.Now()

	opp := room.opponent(slot)
	if opp == nil || opp.Disconnected {
		r.destroyRoom(room, "both players gone")
		return
	}

	room.Status = StatusGrace
	room.graceSlot = slot
	opp.Conn.Send(OpponentDisconnectedEvent{
		Type:          "opponentDisconnected",
		PlayerName:    p.Name,
		GracePeriodMS: r.cfg.GracePeriod.Milliseconds(),
	})
	r.armGraceTimer(room)
	log.Info().Str("room_id", room.ID).Str("player", p.Name).
		Dur("grace", r.cfg.GracePeriod).Msg("grace_period_started")
}

// Reconnect rebinds a fresh connection to a disconnected slot, matched by
// display name.
func (r *Registry) Reconnect(conn Conn, roomID, playerName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return fmt.Errorf("%w: room no longer exists", ErrReconnectionFailed)
	}
	if room.Status != StatusGrace {
		return fmt.Errorf("%w: game is not waiting for a reconnection", ErrReconnectionFailed)
	}
	var p *Participant
	for _, cand := range room.Slots {
		if cand != nil && cand.Disconnected && cand.Name == playerName {
			p = cand
			break
		}
	}
	if p == nil {
		return fmt.Errorf("%w: no disconnected player named %q in this room", ErrReconnectionFailed, playerName)
	}

	r.cancelGraceTimer(room)
	p.Conn = conn
	p.Disconnected = false
	p.DisconnectedAt = time.Time{}
	room.Status = StatusActive
	room.graceSlot = 0
	r.byConn[conn.ID()] = roomID
	r.touch(room)

	room.broadcast(PlayerReconnectedEvent{
		Type:        "playerReconnected",
		PlayerName:  p.Name,
		Players:     room.roster(),
		NextStarter: room.NextStarter,
		Scores:      room.Scores,
	})
	conn.Send(GameResumedEvent{
		Type:        "gameResumed",
		Players:     room.roster(),
		NextStarter: room.NextStarter,
		Scores:      room.Scores,
	})
	reconnectsTotal.Add(1)
	log.Info().Str("room_id", roomID).Str("player", p.Name).Msg("player_reconnected")
	return nil
}

// armGraceTimer replaces any previous timer. The callback validates its
// generation under the lock, so a cancelled timer that already fired can
// never tear the room down.
func (r *Registry) armGraceTimer(room *Room) {
	r.cancelGraceTimer(room)
	room.graceGen++
	gen := room.graceGen
	roomID := room.ID
	room.graceTimer = time.AfterFunc(r.cfg.GracePeriod, func() {
		r.onGraceExpired(roomID, gen)
	})
}

func (r *Registry) cancelGraceTimer(room *Room) {
	room.graceGen++
	if room.graceTimer != nil {
		room.graceTimer.Stop()
		room.graceTimer = nil
	}
}

func (r *Registry) onGraceExpired(roomID string, gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok || room.graceGen != gen || room.Status != StatusGrace {
		return
	}
	room.graceTimer = nil

	room.Status = StatusClosed
	room.teardownAt = time.Now().Add(r.cfg.TeardownDelay)
	winnerSlot := 0
	if winner := room.opponent(room.graceSlot); winner != nil {
		winnerSlot = winner.Slot
		if winner.Conn != nil {
			winner.Conn.Send(OpponentDisconnectedFinalEvent{
				Type:       "opponentDisconnectedFinal",
				Winner:     winner.Slot,
				WinnerName: winner.Name,
			})
		}
	}
	graceExpiredTotal.Add(1)
	log.Info().Str("room_id", roomID).Int("winner", winnerSlot).Msg("grace_period_expired")
}

// member resolves a (conn, roomID) pair to the room and the caller's slot.
func (r *Registry) member(conn Conn, roomID string) (*Room, int, error) {
	room, ok := r.rooms[roomID]
	if !ok {
		return nil, 0, ErrRoomNotFound
	}
	slot := room.slotOf(conn.ID())
	if slot == 0 {
		return nil, 0, ErrRoomNotFound
	}
	return room, slot, nil
}

// destroyRoom removes the room and every connection mapping pointing at it.
// Callers hold r.mu.
func (r *Registry) destroyRoom(room *Room, reason string) {
	r.cancelGraceTimer(room)
	for _, p := range room.Slots {
		if p != nil && p.Conn != nil {
			delete(r.byConn, p.Conn.ID())
		}
	}
	delete(r.rooms, room.ID)
	roomsDestroyedTotal.Add(1)
	log.Info().Str("room_id", room.ID).Str("reason", reason).Msg("room_closed")
}

func (r *Registry) touch(room *Room) {
	room.LastActivity = time.Now()
}

func displayName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return defaultName
	}
	return name
}
