package domain

import "time"

// Participant is a member of the chat room.
type Participant struct {
	Name       string `json:"name"`
	LastStatus int64  `json:"lastStatus"` // epoch milliseconds of the last heartbeat
}

// RegisterRequest is the body of POST /participants.
type RegisterRequest struct {
	Name string `json:"name" binding:"required"`
}

// StaleAt reports whether p has been silent for longer than window at now.
func (p *Participant) StaleAt(now time.Time, window time.Duration) bool {
	return now.UnixMilli()-p.LastStatus > window.Milliseconds()
}

// StaleCutoff returns the lastStatus value below which a participant is stale.
func StaleCutoff(now time.Time, window time.Duration) int64 {
	return now.UnixMilli() - window.Milliseconds()
}
