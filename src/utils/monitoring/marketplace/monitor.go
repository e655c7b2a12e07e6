package monitor_marketplace

import (
	"math"
	"net/http"
	"time"

	"github.com/blockwork-protocol/marketplace/src/utils/monitoring/report"
	"github.com/blockwork-protocol/marketplace/src/utils/task"

	"github.com/gammazero/deque"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Stores and computes monitor counters
type Monitor struct {
	*task.Task

	Report report.Report

	historySize int

	collector *Collector

	// Messages persisted, sampled every minute
	MessagesPersisted *deque.Deque[uint64]
}

func NewMonitor() (self *Monitor) {
	self = new(Monitor)

	self.Report = report.Report{
		Run:            &report.RunReport{},
		Jobs:           &report.JobsReport{},
		Conversations:  &report.ConversationsReport{},
		Profiles:       &report.ProfilesReport{},
		Gateway:        &report.GatewayReport{},
		Reconciler:     &report.ReconcilerReport{},
		RedisPublisher: &report.RedisPublisherReport{},
	}

	// Initialization
	self.Report.Run.State.StartTimestamp.Store(time.Now().Unix())

	self.collector = NewCollector().WithMonitor(self)

	self.Task = task.NewTask(nil, "monitor").
		WithPeriodicSubtaskFunc(time.Minute, self.monitorMessages)

	return self.WithMaxHistorySize(30)
}

func (self *Monitor) WithMaxHistorySize(maxHistorySize int) *Monitor {
	self.historySize = maxHistorySize
	self.MessagesPersisted = deque.New[uint64](self.historySize)
	return self
}

func (self *Monitor) GetReport() *report.Report {
	return &self.Report
}

func (self *Monitor) GetPrometheusCollector() (collector prometheus.Collector) {
	return self.collector
}

func round(f float64) float64 {
	return math.Round(f*100) / 100
}

// Measure how many messages are persisted per minute
func (self *Monitor) monitorMessages() (err error) {
	loaded := self.Report.Conversations.State.MessagesPersisted.Load()

	self.MessagesPersisted.PushBack(loaded)
	if self.MessagesPersisted.Len() > self.historySize {
		self.MessagesPersisted.PopFront()
	}
	if self.MessagesPersisted.Len() < 2 {
		return
	}

	value := float64(self.MessagesPersisted.Back()-self.MessagesPersisted.Front()) / float64(self.MessagesPersisted.Len()-1)
	self.Report.Conversations.State.AverageMessagesPerMinute.Store(round(value))
	return
}

// Server is healthy as long as the hub keeps up with broadcasts
func (self *Monitor) IsOK() bool {
	broadcast := self.Report.Gateway.State.EventsBroadcast.Load()
	dropped := self.Report.Gateway.Errors.HubQueueFull.Load()
	if broadcast+dropped < 100 {
		return true
	}
	return float64(dropped)/float64(broadcast+dropped) < 0.5
}

func (self *Monitor) OnGetState(c *gin.Context) {
	self.Report.Run.State.UpForSeconds.Store(uint64(time.Now().Unix() - self.Report.Run.State.StartTimestamp.Load()))
	c.JSON(http.StatusOK, &self.Report)
}

func (self *Monitor) OnGetHealth(c *gin.Context) {
	if self.IsOK() {
		c.Status(http.StatusOK)
	} else {
		c.Status(http.StatusServiceUnavailable)
	}
}
