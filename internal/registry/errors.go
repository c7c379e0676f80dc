package registry

import "errors"

var (
	ErrRoomNotFound        = errors.New("room_not_found")
	ErrRoomFull            = errors.New("room_full")
	ErrUnexpectedRoomState = errors.New("unexpected_room_state")
	ErrReconnectionFailed  = errors.New("reconnection failed")
)
