package report

import (
	"go.uber.org/atomic"
)

type GatewayErrors struct {
	HubQueueFull    atomic.Uint64 `json:"hub_queue_full"`
	ClientQueueFull atomic.Uint64 `json:"client_queue_full"`
	MirrorQueueFull atomic.Uint64 `json:"mirror_queue_full"`
	ClientWrite     atomic.Uint64 `json:"client_write"`
	RateLimited     atomic.Uint64 `json:"rate_limited"`
	InvalidFrame    atomic.Uint64 `json:"invalid_frame"`
	RequestFailed   atomic.Uint64 `json:"request_failed"`
}

type GatewayState struct {
	ClientsConnected atomic.Int64  `json:"clients_connected"`
	EventsReceived   atomic.Uint64 `json:"events_received"`
	EventsBroadcast  atomic.Uint64 `json:"events_broadcast"`
	EventsDelivered  atomic.Uint64 `json:"events_delivered"`
	RequestsHandled  atomic.Uint64 `json:"requests_handled"`
}

type GatewayReport struct {
	State  GatewayState  `json:"state"`
	Errors GatewayErrors `json:"errors"`
}
