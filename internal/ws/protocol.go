package ws

// Inbound intents. Every client frame is a JSON object with a "type"
// discriminator; unknown types are dropped.

type CreateGameMessage struct {
	Type       string `json:"type"`
	PlayerName string `json:"playerName"`
}

type JoinGameMessage struct {
	Type       string `json:"type"`
	RoomID     string `json:"roomId"`
	PlayerName string `json:"playerName"`
}

type MakeMoveMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
	Col    int    `json:"col"`
}

type SendReactionMessage struct {
	Type     string `json:"type"`
	RoomID   string `json:"roomId"`
	Reaction string `json:"reaction"`
}

type GameEndedMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
	Winner *int   `json:"winner"` // null on a draw
}

type RequestRematchMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
}

type RespondToRematchMessage struct {
	Type     string `json:"type"`
	RoomID   string `json:"roomId"`
	Accepted bool   `json:"accepted"`
}

type AttemptReconnectMessage struct {
	Type       string `json:"type"`
	RoomID     string `json:"roomId"`
	PlayerName string `json:"playerName"`
}
