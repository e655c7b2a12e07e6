package messenger

import (
	"sync"

	"github.com/blockwork-protocol/marketplace/src/utils/config"
	"github.com/blockwork-protocol/marketplace/src/utils/model"
	"github.com/blockwork-protocol/marketplace/src/utils/monitoring"
	"github.com/blockwork-protocol/marketplace/src/utils/task"
)

// Fans events out to connected clients. Delivery is best effort:
// events are dropped when queues are full and never replayed.
type Hub struct {
	*task.Task

	monitor monitoring.Monitor

	// Who receives events, see config.GatewayScopeAll
	scope string

	input chan *Event

	// Copy of every broadcast event, nil if not mirrored
	output chan *Event

	mtx     sync.RWMutex
	clients map[*Client]struct{}
}

func NewHub(config *config.Config) (self *Hub) {
	self = new(Hub)
	self.scope = config.Gateway.Scope
	self.input = make(chan *Event, config.Gateway.QueueSize)
	self.clients = make(map[*Client]struct{})

	self.Task = task.NewTask(config, "hub").
		WithSubtaskFunc(self.run).
		WithOnStop(self.disconnectAll).
		WithOnAfterStop(func() {
			if self.output != nil {
				close(self.output)
			}
		})

	return
}

func (self *Hub) WithMonitor(v monitoring.Monitor) *Hub {
	self.monitor = v
	return self
}

// Every broadcast event is also sent to the returned channel. It gets closed after the hub stops.
func (self *Hub) WithOutput(size int) *Hub {
	self.output = make(chan *Event, size)
	return self
}

func (self *Hub) Output() chan *Event {
	return self.output
}

// Queues the event for delivery. Never blocks, returns false if the event got dropped.
func (self *Hub) Broadcast(event *Event) bool {
	if self.Ctx.Err() != nil {
		return false
	}

	select {
	case self.input <- event:
		return true
	default:
		self.monitor.GetReport().Gateway.Errors.HubQueueFull.Inc()
		self.Log.WithField("job_id", event.JobId).Warn("Hub queue full, event dropped")
		return false
	}
}

func (self *Hub) BroadcastMessage(message *model.Message) {
	event, err := NewMessageEvent(message)
	if err != nil {
		self.Log.WithError(err).Error("Failed to encode message")
		return
	}
	self.Broadcast(event)
}

func (self *Hub) register(client *Client) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	self.clients[client] = struct{}{}
	self.monitor.GetReport().Gateway.State.ClientsConnected.Inc()
}

func (self *Hub) unregister(client *Client) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	if _, ok := self.clients[client]; !ok {
		return
	}
	delete(self.clients, client)
	self.monitor.GetReport().Gateway.State.ClientsConnected.Dec()
}

func (self *Hub) NumClients() int {
	self.mtx.RLock()
	defer self.mtx.RUnlock()
	return len(self.clients)
}

func (self *Hub) disconnectAll() {
	self.mtx.RLock()
	defer self.mtx.RUnlock()
	for client := range self.clients {
		client.cancel()
	}
}

func (self *Hub) run() error {
	for {
		select {
		case <-self.StopChannel:
			return nil
		case event := <-self.input:
			self.deliver(event)
		}
	}
}

func (self *Hub) deliver(event *Event) {
	self.monitor.GetReport().Gateway.State.EventsBroadcast.Inc()

	self.mtx.RLock()
	for client := range self.clients {
		if self.scope == config.GatewayScopeAll || client.IsSubscribed(event.JobId) {
			client.enqueue(event)
		}
	}
	self.mtx.RUnlock()

	if self.output == nil {
		return
	}
	select {
	case self.output <- event:
	default:
		self.monitor.GetReport().Gateway.Errors.MirrorQueueFull.Inc()
	}
}
