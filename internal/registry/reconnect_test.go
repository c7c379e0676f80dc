package registry

import (
	"errors"
	"testing"
	"time"
)

// Short windows keep the timer tests fast while leaving room for scheduler
// jitter.
func fastConfig() Config {
	return Config{
		GracePeriod:   40 * time.Millisecond,
		TeardownDelay: 20 * time.Millisecond,
		IdleTimeout:   time.Minute,
	}
}

func TestDisconnectDuringGameStartsGrace(t *testing.T) {
	r := New(Config{GracePeriod: time.Minute})
	roomID, p1, p2 := newActiveRoom(t, r)

	r.Disconnect(p2)

	if st, _ := r.roomStatus(roomID); st != StatusGrace {
		t.Fatalf("status = %v, want grace", st)
	}
	ev, ok := p1.last(isOpponentDisconnected)
	if !ok {
		t.Fatal("remaining player got no opponentDisconnected event")
	}
	got := ev.(OpponentDisconnectedEvent)
	if got.PlayerName != "Bob" {
		t.Fatalf("opponentDisconnected.playerName = %q, want Bob", got.PlayerName)
	}
	if got.GracePeriodMS != time.Minute.Milliseconds() {
		t.Fatalf("gracePeriodMs = %d, want %d", got.GracePeriodMS, time.Minute.Milliseconds())
	}
}

func TestReconnectBeforeExpiryCancelsTimer(t *testing.T) {
	r := New(fastConfig())
	roomID, p1, p2 := newActiveRoom(t, r)

	r.Disconnect(p2)
	p2b := newFakeConn("conn-2b")
	if err := r.Reconnect(p2b, roomID, "Bob"); err != nil {
		t.Fatalf("Reconnect: %v", err)
	}

	if st, _ := r.roomStatus(roomID); st != StatusActive {
		t.Fatalf("status = %v, want active", st)
	}
	if n := p1.countOf(func(v any) bool { _, ok := v.(PlayerReconnectedEvent); return ok }); n != 1 {
		t.Fatalf("p1 got %d playerReconnected events, want 1", n)
	}
	resumed, ok := p2b.last(func(v any) bool { _, ok := v.(GameResumedEvent); return ok })
	if !ok {
		t.Fatal("reconnecting player got no gameResumed reply")
	}
	if got := resumed.(GameResumedEvent); got.NextStarter != 1 || len(got.Players) != 2 {
		t.Fatalf("gameResumed = %+v", got)
	}

	// Let the original grace deadline pass well behind us: the cancelled
	// timer must never fire.
	time.Sleep(120 * time.Millisecond)
	if n := p1.countOf(isDisconnectFinal); n != 0 {
		t.Fatalf("p1 got %d opponentDisconnectedFinal events after reconnect, want 0", n)
	}
	if st, ok := r.roomStatus(roomID); !ok || st != StatusActive {
		t.Fatalf("room after expiry window: status=%v present=%v, want active", st, ok)
	}
}

func TestGraceExpiryDeclaresWinnerOnce(t *testing.T) {
	r := New(fastConfig())
	roomID, p1, p2 := newActiveRoom(t, r)

	r.Disconnect(p2)
	waitUntil(t, time.Second, func() bool {
		return p1.countOf(isDisconnectFinal) > 0
	})

	ev, _ := p1.last(isDisconnectFinal)
	final := ev.(OpponentDisconnectedFinalEvent)
	if final.Winner != 1 || final.WinnerName != "Alice" {
		t.Fatalf("final = %+v, want winner slot 1 Alice", final)
	}
	if n := p1.countOf(isDisconnectFinal); n != 1 {
		t.Fatalf("p1 got %d opponentDisconnectedFinal events, want exactly 1", n)
	}
	if st, _ := r.roomStatus(roomID); st != StatusClosed {
		t.Fatalf("status = %v, want closed", st)
	}

	// The settling delay passes and the sweep finishes the teardown.
	r.sweep(time.Now().Add(time.Second))
	if _, ok := r.roomStatus(roomID); ok {
		t.Fatal("room still present after teardown sweep")
	}
}

func TestReconnectWrongNameFails(t *testing.T) {
	r := New(Config{GracePeriod: time.Minute})
	roomID, _, p2 := newActiveRoom(t, r)

	r.Disconnect(p2)
	err := r.Reconnect(newFakeConn("conn-x"), roomID, "Robert")
	if !errors.Is(err, ErrReconnectionFailed) {
		t.Fatalf("error = %v, want ErrReconnectionFailed", err)
	}
	if st, _ := r.roomStatus(roomID); st != StatusGrace {
		t.Fatalf("status = %v, want grace untouched by failed reconnect", st)
	}
}

func TestReconnectAfterExpiryFails(t *testing.T) {
	r := New(fastConfig())
	roomID, p1, p2 := newActiveRoom(t, r)

	r.Disconnect(p2)
	waitUntil(t, time.Second, func() bool {
		return p1.countOf(isDisconnectFinal) > 0
	})

	err := r.Reconnect(newFakeConn("conn-2b"), roomID, "Bob")
	if !errors.Is(err, ErrReconnectionFailed) {
		t.Fatalf("error = %v, want ErrReconnectionFailed", err)
	}
}

func TestReconnectIntoUnknownRoomFails(t *testing.T) {
	r := New(Config{})
	err := r.Reconnect(newFakeConn("c1"), "GONE99", "Bob")
	if !errors.Is(err, ErrReconnectionFailed) {
		t.Fatalf("error = %v, want ErrReconnectionFailed", err)
	}
}

func TestLobbyDisconnectDestroysRoom(t *testing.T) {
	r := New(Config{})
	c := newFakeConn("c1")
	roomID, _ := r.CreateRoom(c, "Alice")

	r.Disconnect(c)
	if _, ok := r.roomStatus(roomID); ok {
		t.Fatal("waiting room survived its creator's disconnect")
	}
}

func TestBothDisconnectedDestroysRoom(t *testing.T) {
	r := New(Config{GracePeriod: time.Minute})
	roomID, p1, p2 := newActiveRoom(t, r)

	r.Disconnect(p2)
	r.Disconnect(p1)

	if _, ok := r.roomStatus(roomID); ok {
		t.Fatal("room survived both players disconnecting")
	}
	if n := p1.countOf(isDisconnectFinal) + p2.countOf(isDisconnectFinal); n != 0 {
		t.Fatalf("%d opponentDisconnectedFinal events emitted for an empty room, want 0", n)
	}
}

func TestDisconnectAfterGameEndDestroysRoom(t *testing.T) {
	r := New(Config{GracePeriod: time.Minute})
	roomID, p1, p2 := newActiveRoom(t, r)

	if err := r.RecordGameEnd(p1, roomID, 1); err != nil {
		t.Fatalf("RecordGameEnd: %v", err)
	}
	r.Disconnect(p2)
	if _, ok := r.roomStatus(roomID); ok {
		t.Fatal("ended room survived a disconnect; no game to protect")
	}
}

func TestStaleDisconnectFromReplacedConnIgnored(t *testing.T) {
	r := New(Config{GracePeriod: time.Minute})
	roomID, _, p2 := newActiveRoom(t, r)

	r.Disconnect(p2)
	p2b := newFakeConn("conn-2b")
	if err := r.Reconnect(p2b, roomID, "Bob"); err != nil {
		t.Fatalf("Reconnect: %v", err)
	}

	// A zombie teardown for the already-replaced connection arrives late.
	r.Disconnect(p2)
	if st, ok := r.roomStatus(roomID); !ok || st != StatusActive {
		t.Fatalf("status=%v present=%v, want active room untouched", st, ok)
	}
}
