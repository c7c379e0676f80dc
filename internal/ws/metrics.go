package ws

import "expvar"

var (
	connectionsTotal   = expvar.NewInt("ws_connections_total")
	droppedFramesTotal = expvar.NewInt("ws_dropped_frames_total")
)
