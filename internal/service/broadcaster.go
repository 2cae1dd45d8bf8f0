package service

// Broadcaster is implemented by the WebSocket hub (interface lives here to
// avoid an import cycle). The game engine itself never broadcasts; handlers
// take the event a service call returns and push it through this.
type Broadcaster interface {
	Broadcast(roomID int64, event interface{})
	DisconnectUser(roomID int64, playerName string)
}
