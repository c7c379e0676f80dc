package registry

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// StartJanitor runs the periodic sweep until ctx is cancelled. The sweep
// finishes closed rooms whose teardown settling delay has passed and reclaims
// abandoned lobbies, so the room table cannot grow without bound.
func (r *Registry) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if n := r.sweep(now); n > 0 {
					log.Debug().Int("rooms", n).Msg("janitor_sweep")
				}
			}
		}
	}()
}

func (r *Registry) sweep(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	var doomed []*Room
	for _, room := range r.rooms {
		switch {
		case room.Status == StatusClosed && !room.teardownAt.IsZero() && now.After(room.teardownAt):
			doomed = append(doomed, room)
		case !room.gameInProgress() && room.Status != StatusClosed && now.Sub(room.LastActivity) > r.cfg.IdleTimeout:
			doomed = append(doomed, room)
		}
	}
	for _, room := range doomed {
		r.destroyRoom(room, "swept")
		roomsSweptTotal.Add(1)
	}
	return len(doomed)
}
