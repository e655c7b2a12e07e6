package messenger

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/teivah/onecontext"
	"golang.org/x/time/rate"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// Single websocket connection
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	log  *logrus.Entry

	send    chan *Event
	limiter *rate.Limiter
	cancel  context.CancelFunc

	mtx    sync.RWMutex
	topics map[string]struct{}
}

// Handles the connection until the peer disconnects or the hub stops.
// Client gets subscribed to the given jobs right away.
func (self *Hub) Serve(ctx context.Context, conn *websocket.Conn, jobIds ...string) error {
	ctx, cancel := onecontext.Merge(ctx, self.Ctx)
	defer cancel()

	gateway := self.Config.Gateway
	client := &Client{
		hub:     self,
		conn:    conn,
		log:     self.Log.WithField("remote", "ws"),
		send:    make(chan *Event, gateway.ClientQueueSize),
		limiter: rate.NewLimiter(rate.Limit(gateway.MaxMessagesPerSecond), gateway.MaxMessagesBurst),
		cancel:  cancel,
		topics:  make(map[string]struct{}),
	}
	for _, jobId := range jobIds {
		if jobId != "" {
			client.subscribe(jobId)
		}
	}

	conn.SetReadLimit(gateway.MaxFrameSize)

	self.register(client)
	defer self.unregister(client)

	go client.writeLoop(ctx)

	return client.readLoop(ctx)
}

func (self *Client) IsSubscribed(jobId string) bool {
	self.mtx.RLock()
	defer self.mtx.RUnlock()
	_, ok := self.topics[jobId]
	return ok
}

func (self *Client) subscribe(jobId string) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	self.topics[jobId] = struct{}{}
}

func (self *Client) unsubscribe(jobId string) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	delete(self.topics, jobId)
}

// Slow clients lose events instead of stalling the hub
func (self *Client) enqueue(event *Event) {
	select {
	case self.send <- event:
	default:
		self.hub.monitor.GetReport().Gateway.Errors.ClientQueueFull.Inc()
	}
}

func (self *Client) readLoop(ctx context.Context) error {
	for {
		var event Event
		err := wsjson.Read(ctx, self.conn, &event)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return nil
			}
			return err
		}

		self.hub.monitor.GetReport().Gateway.State.EventsReceived.Inc()

		if !self.limiter.Allow() {
			self.hub.monitor.GetReport().Gateway.Errors.RateLimited.Inc()
			self.enqueue(newErrorEvent(event.JobId, "rate limit exceeded"))
			continue
		}

		self.handle(&event)
	}
}

func (self *Client) handle(event *Event) {
	if event.JobId == "" {
		self.reject(event, "jobId is required")
		return
	}

	switch event.Event {
	case EventSubscribe:
		self.subscribe(event.JobId)
	case EventUnsubscribe:
		self.unsubscribe(event.JobId)
	case EventSendMessage:
		// Persistence goes through the REST API
		self.hub.Broadcast(&Event{
			Event: EventReceiveMessage,
			JobId: event.JobId,
			Data:  event.Data,
		})
	default:
		self.reject(event, "unknown event")
	}
}

func (self *Client) reject(event *Event, reason string) {
	self.hub.monitor.GetReport().Gateway.Errors.InvalidFrame.Inc()
	self.log.WithField("event", event.Event).Debug("Invalid frame: ", reason)
	self.enqueue(newErrorEvent(event.JobId, reason))
}

func (self *Client) writeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-self.send:
			writeCtx, cancel := context.WithTimeout(ctx, self.hub.Config.Gateway.WriteTimeout)
			err := wsjson.Write(writeCtx, self.conn, event)
			cancel()
			if err != nil {
				self.hub.monitor.GetReport().Gateway.Errors.ClientWrite.Inc()
				self.log.WithError(err).Debug("Failed to write, disconnecting")
				self.cancel()
				return
			}
			self.hub.monitor.GetReport().Gateway.State.EventsDelivered.Inc()
		}
	}
}
