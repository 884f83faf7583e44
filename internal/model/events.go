package model

import "time"

// ErrorEvent is sent over SSE when a stream operation fails.
type ErrorEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HeartbeatEvent keeps idle SSE connections alive through proxies.
type HeartbeatEvent struct {
	Timestamp time.Time `json:"timestamp"`
}
