package registry

import "time"

// Conn is the delivery half of one participant's bidirectional channel. The
// registry never reads from it; inbound intents arrive as method calls from
// the transport layer.
type Conn interface {
	ID() string
	Send(v any)
}

type RoomStatus string

const (
	// StatusWaiting: slot 1 filled, waiting for an opponent.
	StatusWaiting RoomStatus = "waiting"
	// StatusActive: both slots filled, game in progress.
	StatusActive RoomStatus = "active"
	// StatusGrace: game in progress, one slot disconnected, grace timer armed.
	StatusGrace RoomStatus = "grace"
	// StatusEnded: game over, room held open for rematch negotiation.
	StatusEnded RoomStatus = "ended"
	// StatusClosed: grace period expired, awaiting janitor teardown.
	StatusClosed RoomStatus = "closed"
)

type Participant struct {
	Conn           Conn // nil while disconnected
	Slot           int  // 1 or 2, fixed for the room's lifetime
	Name           string
	Disconnected   bool
	DisconnectedAt time.Time
}

type Room struct {
	ID           string
	Status       RoomStatus
	Slots        [2]*Participant // index 0 holds slot 1
	NextStarter  int
	Scores       map[int]int
	CreatedAt    time.Time
	LastActivity time.Time

	rematchAcks map[int]bool

	// Exactly one grace timer may be live per room. graceGen invalidates a
	// fired callback that lost the race against cancellation: the callback
	// only acts if its generation still matches under the registry lock.
	graceTimer *time.Timer
	graceGen   uint64
	graceSlot  int

	teardownAt time.Time
}

func (r *Room) gameInProgress() bool {
	return r.Status == StatusActive || r.Status == StatusGrace
}

func (r *Room) participant(slot int) *Participant {
	if slot < 1 || slot > 2 {
		return nil
	}
	return r.Slots[slot-1]
}

// opponent returns the occupant of the other slot, which may be nil in a
// waiting room.
func (r *Room) opponent(slot int) *Participant {
	return r.Slots[2-slot]
}

func (r *Room) slotOf(connID string) int {
	for _, p := range r.Slots {
		if p != nil && p.Conn != nil && p.Conn.ID() == connID {
			return p.Slot
		}
	}
	return 0
}

func (r *Room) roster() []PlayerInfo {
	players := make([]PlayerInfo, 0, 2)
	for _, p := range r.Slots {
		if p != nil {
			players = append(players, PlayerInfo{Name: p.Name, Number: p.Slot})
		}
	}
	return players
}

func (r *Room) broadcast(v any) {
	for _, p := range r.Slots {
		if p != nil && p.Conn != nil {
			p.Conn.Send(v)
		}
	}
}
