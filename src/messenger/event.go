package messenger

import (
	"encoding/json"

	"github.com/blockwork-protocol/marketplace/src/utils/model"
)

const (
	// Client -> server
	EventSubscribe   = "subscribe"
	EventUnsubscribe = "unsubscribe"
	EventSendMessage = "sendMessage"

	// Server -> client
	EventReceiveMessage = "receiveMessage"
	EventError          = "error"
)

// Frame exchanged with websocket clients
type Event struct {
	Event string          `json:"event"`
	JobId string          `json:"jobId,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func NewMessageEvent(message *model.Message) (*Event, error) {
	data, err := json.Marshal(message)
	if err != nil {
		return nil, err
	}
	return &Event{
		Event: EventReceiveMessage,
		JobId: message.JobId,
		Data:  data,
	}, nil
}

func newErrorEvent(jobId, message string) *Event {
	data, _ := json.Marshal(map[string]string{"message": message})
	return &Event{
		Event: EventError,
		JobId: jobId,
		Data:  data,
	}
}

// Format used when mirroring events to Redis
func (self *Event) MarshalBinary() ([]byte, error) {
	return json.Marshal(self)
}
