package registry

import "expvar"

var (
	roomsCreatedTotal     = expvar.NewInt("rooms_created_total")
	roomsDestroyedTotal   = expvar.NewInt("rooms_destroyed_total")
	movesRelayedTotal     = expvar.NewInt("moves_relayed_total")
	reactionsRelayedTotal = expvar.NewInt("reactions_relayed_total")
	graceExpiredTotal     = expvar.NewInt("grace_expired_total")
	reconnectsTotal       = expvar.NewInt("reconnects_total")
	roomsSweptTotal       = expvar.NewInt("rooms_swept_total")
)
