package models

import "time"

// EventType is a change kind a feed channel can listen to.
type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

// AllEvents is the mask used for task lists.
var AllEvents = []EventType{EventInsert, EventUpdate, EventDelete}

// Channel describes one change-feed subscription.
type Channel struct {
	Table  string
	Filter Filter
	Events []EventType
}

// ChangeEvent is a committed change pushed by the server.
type ChangeEvent struct {
	Type        EventType
	Table       string
	TaskID      string
	UserID      string
	CommittedAt time.Time
}

// FeedStatus is a lifecycle status of a subscription.
type FeedStatus string

const (
	FeedSubscribed   FeedStatus = "SUBSCRIBED"
	FeedChannelError FeedStatus = "CHANNEL_ERROR"
	FeedTimedOut     FeedStatus = "TIMED_OUT"
	FeedClosed       FeedStatus = "CLOSED"
)
