package http

import (
	"net/http"
	"time"
)

// TimingInfo breaks a request down into its network phases
type TimingInfo struct {
	StartTime           time.Time
	DNSLookupTime       time.Duration
	TCPConnectTime      time.Duration
	TLSHandshakeTime    time.Duration
	TimeToFirstByte     time.Duration
	ContentTransferTime time.Duration
	TotalTime           time.Duration
}

// Response is a fully read HTTP response. The body is drained and only its
// length is kept.
type Response struct {
	StatusCode    int
	Status        string
	Headers       http.Header
	BytesReceived int64
	Timing        TimingInfo
}
