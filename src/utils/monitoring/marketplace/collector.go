package monitor_marketplace

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Collector struct {
	monitor *Monitor

	// Run
	UpForSeconds *prometheus.Desc

	// Jobs
	JobsCreated           *prometheus.Desc
	ApplicationsSubmitted *prometheus.Desc
	ApplicationsApproved  *prometheus.Desc
	ApplicationsDeclined  *prometheus.Desc
	Reassignments         *prometheus.Desc
	JobsCompleted         *prometheus.Desc
	JobsRefunded          *prometheus.Desc
	JobsConflictRetries   *prometheus.Desc
	JobsDbError           *prometheus.Desc
	JobsSettlementError   *prometheus.Desc

	// Conversations
	ConversationsCreated     *prometheus.Desc
	MessagesPersisted        *prometheus.Desc
	AverageMessagesPerMinute *prometheus.Desc
	ConversationsDbError     *prometheus.Desc

	// Profiles
	ProfilesCreated    *prometheus.Desc
	ProfilesUpdated    *prometheus.Desc
	ProfileCacheHits   *prometheus.Desc
	ProfileCacheMisses *prometheus.Desc

	// Gateway
	ClientsConnected *prometheus.Desc
	EventsBroadcast  *prometheus.Desc
	EventsDelivered  *prometheus.Desc
	HubQueueFull     *prometheus.Desc
	ClientQueueFull  *prometheus.Desc
	RateLimited      *prometheus.Desc
	RequestsHandled  *prometheus.Desc
	RequestsFailed   *prometheus.Desc

	// Reconciler
	ReconcilerPasses      *prometheus.Desc
	ReconcilerJobsChecked *prometheus.Desc
	ReconcilerMirrored    *prometheus.Desc
	ReconcilerEscrowError *prometheus.Desc

	// Redis publisher
	RedisMessagesPublished *prometheus.Desc
	RedisPublishError      *prometheus.Desc
}

func NewCollector() *Collector {
	labels := prometheus.Labels{
		"app": "marketplace",
	}

	return &Collector{
		UpForSeconds: prometheus.NewDesc("up_for_seconds", "", nil, labels),

		JobsCreated:           prometheus.NewDesc("jobs_created", "", nil, labels),
		ApplicationsSubmitted: prometheus.NewDesc("applications_submitted", "", nil, labels),
		ApplicationsApproved:  prometheus.NewDesc("applications_approved", "", nil, labels),
		ApplicationsDeclined:  prometheus.NewDesc("applications_declined", "", nil, labels),
		Reassignments:         prometheus.NewDesc("reassignments", "", nil, labels),
		JobsCompleted:         prometheus.NewDesc("jobs_completed", "", nil, labels),
		JobsRefunded:          prometheus.NewDesc("jobs_refunded", "", nil, labels),
		JobsConflictRetries:   prometheus.NewDesc("jobs_conflict_retries", "", nil, labels),
		JobsDbError:           prometheus.NewDesc("jobs_db_error", "", nil, labels),
		JobsSettlementError:   prometheus.NewDesc("jobs_settlement_error", "", nil, labels),

		ConversationsCreated:     prometheus.NewDesc("conversations_created", "", nil, labels),
		MessagesPersisted:        prometheus.NewDesc("messages_persisted", "", nil, labels),
		AverageMessagesPerMinute: prometheus.NewDesc("average_messages_per_minute", "", nil, labels),
		ConversationsDbError:     prometheus.NewDesc("conversations_db_error", "", nil, labels),

		ProfilesCreated:    prometheus.NewDesc("profiles_created", "", nil, labels),
		ProfilesUpdated:    prometheus.NewDesc("profiles_updated", "", nil, labels),
		ProfileCacheHits:   prometheus.NewDesc("profile_cache_hits", "", nil, labels),
		ProfileCacheMisses: prometheus.NewDesc("profile_cache_misses", "", nil, labels),

		ClientsConnected: prometheus.NewDesc("gateway_clients_connected", "", nil, labels),
		EventsBroadcast:  prometheus.NewDesc("gateway_events_broadcast", "", nil, labels),
		EventsDelivered:  prometheus.NewDesc("gateway_events_delivered", "", nil, labels),
		HubQueueFull:     prometheus.NewDesc("gateway_hub_queue_full", "", nil, labels),
		ClientQueueFull:  prometheus.NewDesc("gateway_client_queue_full", "", nil, labels),
		RateLimited:      prometheus.NewDesc("gateway_rate_limited", "", nil, labels),
		RequestsHandled:  prometheus.NewDesc("gateway_requests_handled", "", nil, labels),
		RequestsFailed:   prometheus.NewDesc("gateway_requests_failed", "", nil, labels),

		ReconcilerPasses:      prometheus.NewDesc("reconciler_passes", "", nil, labels),
		ReconcilerJobsChecked: prometheus.NewDesc("reconciler_jobs_checked", "", nil, labels),
		ReconcilerMirrored:    prometheus.NewDesc("reconciler_mirrored", "", []string{"action"}, labels),
		ReconcilerEscrowError: prometheus.NewDesc("reconciler_escrow_error", "", nil, labels),

		RedisMessagesPublished: prometheus.NewDesc("redis_messages_published", "", nil, labels),
		RedisPublishError:      prometheus.NewDesc("redis_publish_error", "", nil, labels),
	}
}

func (self *Collector) WithMonitor(m *Monitor) *Collector {
	self.monitor = m
	return self
}

func (self *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- self.UpForSeconds

	ch <- self.JobsCreated
	ch <- self.ApplicationsSubmitted
	ch <- self.ApplicationsApproved
	ch <- self.ApplicationsDeclined
	ch <- self.Reassignments
	ch <- self.JobsCompleted
	ch <- self.JobsRefunded
	ch <- self.JobsConflictRetries
	ch <- self.JobsDbError
	ch <- self.JobsSettlementError

	ch <- self.ConversationsCreated
	ch <- self.MessagesPersisted
	ch <- self.AverageMessagesPerMinute
	ch <- self.ConversationsDbError

	ch <- self.ProfilesCreated
	ch <- self.ProfilesUpdated
	ch <- self.ProfileCacheHits
	ch <- self.ProfileCacheMisses

	ch <- self.ClientsConnected
	ch <- self.EventsBroadcast
	ch <- self.EventsDelivered
	ch <- self.HubQueueFull
	ch <- self.ClientQueueFull
	ch <- self.RateLimited
	ch <- self.RequestsHandled
	ch <- self.RequestsFailed

	ch <- self.ReconcilerPasses
	ch <- self.ReconcilerJobsChecked
	ch <- self.ReconcilerMirrored
	ch <- self.ReconcilerEscrowError

	ch <- self.RedisMessagesPublished
	ch <- self.RedisPublishError
}

func counter(desc *prometheus.Desc, value uint64, labels ...string) prometheus.Metric {
	return prometheus.MustNewConstMetric(desc, prometheus.CounterValue, float64(value), labels...)
}

// Collect implements required collect function for all promehteus collectors
func (self *Collector) Collect(ch chan<- prometheus.Metric) {
	r := &self.monitor.Report

	ch <- prometheus.MustNewConstMetric(self.UpForSeconds, prometheus.GaugeValue, float64(r.Run.State.UpForSeconds.Load()))

	ch <- counter(self.JobsCreated, r.Jobs.State.JobsCreated.Load())
	ch <- counter(self.ApplicationsSubmitted, r.Jobs.State.ApplicationsSubmitted.Load())
	ch <- counter(self.ApplicationsApproved, r.Jobs.State.ApplicationsApproved.Load())
	ch <- counter(self.ApplicationsDeclined, r.Jobs.State.ApplicationsDeclined.Load())
	ch <- counter(self.Reassignments, r.Jobs.State.Reassignments.Load())
	ch <- counter(self.JobsCompleted, r.Jobs.State.JobsCompleted.Load())
	ch <- counter(self.JobsRefunded, r.Jobs.State.JobsRefunded.Load())
	ch <- counter(self.JobsConflictRetries, r.Jobs.State.ConflictRetries.Load())
	ch <- counter(self.JobsDbError, r.Jobs.Errors.DbError.Load())
	ch <- counter(self.JobsSettlementError, r.Jobs.Errors.SettlementError.Load())

	ch <- counter(self.ConversationsCreated, r.Conversations.State.ConversationsCreated.Load())
	ch <- counter(self.MessagesPersisted, r.Conversations.State.MessagesPersisted.Load())
	ch <- prometheus.MustNewConstMetric(self.AverageMessagesPerMinute, prometheus.GaugeValue, r.Conversations.State.AverageMessagesPerMinute.Load())
	ch <- counter(self.ConversationsDbError, r.Conversations.Errors.DbError.Load())

	ch <- counter(self.ProfilesCreated, r.Profiles.State.ProfilesCreated.Load())
	ch <- counter(self.ProfilesUpdated, r.Profiles.State.ProfilesUpdated.Load())
	ch <- counter(self.ProfileCacheHits, r.Profiles.State.CacheHits.Load())
	ch <- counter(self.ProfileCacheMisses, r.Profiles.State.CacheMisses.Load())

	ch <- prometheus.MustNewConstMetric(self.ClientsConnected, prometheus.GaugeValue, float64(r.Gateway.State.ClientsConnected.Load()))
	ch <- counter(self.EventsBroadcast, r.Gateway.State.EventsBroadcast.Load())
	ch <- counter(self.EventsDelivered, r.Gateway.State.EventsDelivered.Load())
	ch <- counter(self.HubQueueFull, r.Gateway.Errors.HubQueueFull.Load())
	ch <- counter(self.ClientQueueFull, r.Gateway.Errors.ClientQueueFull.Load())
	ch <- counter(self.RateLimited, r.Gateway.Errors.RateLimited.Load())
	ch <- counter(self.RequestsHandled, r.Gateway.State.RequestsHandled.Load())
	ch <- counter(self.RequestsFailed, r.Gateway.Errors.RequestFailed.Load())

	ch <- counter(self.ReconcilerPasses, r.Reconciler.State.Passes.Load())
	ch <- counter(self.ReconcilerJobsChecked, r.Reconciler.State.JobsChecked.Load())
	ch <- counter(self.ReconcilerMirrored, r.Reconciler.State.CompletionsMirrored.Load(), "complete")
	ch <- counter(self.ReconcilerMirrored, r.Reconciler.State.RefundsMirrored.Load(), "refund")
	ch <- counter(self.ReconcilerMirrored, r.Reconciler.State.ReassignmentsMirrored.Load(), "reassign")
	ch <- counter(self.ReconcilerEscrowError, r.Reconciler.Errors.EscrowRead.Load())

	ch <- counter(self.RedisMessagesPublished, r.RedisPublisher.State.MessagesPublished.Load())
	ch <- counter(self.RedisPublishError, r.RedisPublisher.Errors.Publish.Load())
}
