package marketplace

import (
	"github.com/blockwork-protocol/marketplace/src/gateway"
	"github.com/blockwork-protocol/marketplace/src/messenger"
	"github.com/blockwork-protocol/marketplace/src/settlement"
	"github.com/blockwork-protocol/marketplace/src/utils/config"
	"github.com/blockwork-protocol/marketplace/src/utils/monitoring"
	monitor_marketplace "github.com/blockwork-protocol/marketplace/src/utils/monitoring/marketplace"
	"github.com/blockwork-protocol/marketplace/src/utils/publisher"
	"github.com/blockwork-protocol/marketplace/src/utils/task"
)

type Controller struct {
	*task.Task
}

func NewController(config *config.Config) (self *Controller, err error) {
	self = new(Controller)
	self.Task = task.NewTask(config, "marketplace")

	// Monitoring
	monitor := monitor_marketplace.NewMonitor()
	monitoringServer := monitoring.NewServer(config).
		WithMonitor(monitor)

	// Postgres or memory
	stores, err := newStores(self.Ctx, config)
	if err != nil {
		return
	}

	escrow, err := newEscrow(config)
	if err != nil {
		return
	}

	// Real-time events
	hub := messenger.NewHub(config).
		WithMonitor(monitor)

	// Events mirrored to other processes
	var redisPublisher *publisher.RedisPublisher[*messenger.Event]
	if config.Redis.Enabled {
		hub = hub.WithOutput(config.Redis.MaxQueueSize)
		redisPublisher = publisher.NewRedisPublisher[*messenger.Event](config, config.Redis, "redis-publisher").
			WithInputChannel(hub.Output()).
			WithMonitor(monitor)
	}

	services := newServices(config, stores, monitor, escrow, hub)

	server := gateway.NewServer(config).
		WithMonitor(monitor).
		WithJobs(services.jobs).
		WithConversations(services.conversations).
		WithProfiles(services.profiles).
		WithHub(hub)

	// Setup everything, will start upon calling Controller.Start()
	self.Task.
		WithSubtask(monitor.Task).
		WithSubtask(monitoringServer.Task).
		WithSubtask(hub.Task).
		WithSubtask(server.Task)

	if redisPublisher != nil {
		self.Task.WithSubtask(redisPublisher.Task)
	}

	if config.Reconciler.Enabled {
		if escrow == nil {
			self.Log.Warn("Reconciler enabled without escrow, skipping")
			return
		}

		reconciler := settlement.NewReconciler(config).
			WithMonitor(monitor).
			WithEscrow(escrow).
			WithJobs(newMirror(config, stores, services, monitor))
		self.Task.WithSubtask(reconciler.Task)
	}

	return
}
