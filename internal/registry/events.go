package registry

// Outbound events, marshalled as-is onto each participant's channel. Field
// names are the wire contract the browser client reads; changing them breaks
// every deployed client.

type PlayerInfo struct {
	Name   string `json:"name"`
	Number int    `json:"playerNumber"`
}

type GameCreatedEvent struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
}

type GameStartedEvent struct {
	Type        string       `json:"type"`
	RoomID      string       `json:"roomId"`
	Players     []PlayerInfo `json:"players"`
	NextStarter int          `json:"nextStarter"`
	Scores      map[int]int  `json:"scores"`
}

type MoveMadeEvent struct {
	Type string `json:"type"`
	Col  int    `json:"col"`
}

type ReactionReceivedEvent struct {
	Type         string `json:"type"`
	Reaction     string `json:"reaction"`
	PlayerName   string `json:"playerName"`
	PlayerNumber int    `json:"playerNumber"`
}

type RematchRequestedEvent struct {
	Type       string `json:"type"`
	PlayerName string `json:"playerName"`
}

type RematchAcceptedEvent struct {
	Type        string       `json:"type"`
	Players     []PlayerInfo `json:"players"`
	NextStarter int          `json:"nextStarter"`
	Scores      map[int]int  `json:"scores"`
}

type RematchDeclinedEvent struct {
	Type string `json:"type"`
}

type OpponentDisconnectedEvent struct {
	Type          string `json:"type"`
	PlayerName    string `json:"playerName"`
	GracePeriodMS int64  `json:"gracePeriodMs"`
}

type OpponentDisconnectedFinalEvent struct {
	Type       string `json:"type"`
	Winner     int    `json:"winner"`
	WinnerName string `json:"winnerName"`
}

type PlayerReconnectedEvent struct {
	Type        string       `json:"type"`
	PlayerName  string       `json:"playerName"`
	Players     []PlayerInfo `json:"players"`
	NextStarter int          `json:"nextStarter"`
	Scores      map[int]int  `json:"scores"`
}

type GameResumedEvent struct {
	Type        string       `json:"type"`
	Players     []PlayerInfo `json:"players"`
	NextStarter int          `json:"nextStarter"`
	Scores      map[int]int  `json:"scores"`
}

type ReconnectionFailedEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Kind    string `json:"kind"`
}
