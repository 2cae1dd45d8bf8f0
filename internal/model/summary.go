package model

import "time"

// SessionSummary is the archived report of a finished estimation session.
// Rooms themselves are ephemeral; this is the only thing that outlives them.
type SessionSummary struct {
	RoomID       int64        `json:"roomId" bson:"roomId"`
	AdminName    string       `json:"adminName" bson:"adminName"`
	History      []ItemResult `json:"history" bson:"history"`
	TotalAverage float64      `json:"totalAverage" bson:"totalAverage"`
	TotalTasks   int          `json:"totalTasks" bson:"totalTasks"`
	CompletedAt  time.Time    `json:"completedAt" bson:"completedAt"`
}
