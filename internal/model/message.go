package model

import "time"

// ScheduledMessage is one row of the persisted schedule. A batch shares
// a BatchID and its ScheduledAt values never decrease in creation order.
type ScheduledMessage struct {
	ID              int64      `json:"id"`
	BatchID         string     `json:"batchId"`
	Destination     string     `json:"destination"`
	Text            string     `json:"text"`
	ScheduledAt     time.Time  `json:"scheduledAt"`
	CreatedAt       time.Time  `json:"createdAt"`
	Sent            bool       `json:"sent"`
	SentAt          *time.Time `json:"sentAt,omitempty"`
	RemoteMessageID *string    `json:"remoteMessageId,omitempty"`
}

// Target is an addressable contact or group reported by the gateway
// directory.
type Target struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	IsGroup     bool   `json:"isGroup"`
}

// Favorite is a destination the user pinned for quick scheduling.
type Favorite struct {
	Destination string    `json:"destination"`
	DisplayName string    `json:"displayName"`
	CreatedAt   time.Time `json:"createdAt"`
}
