package report

type Report struct {
	Run            *RunReport            `json:"run,omitempty"`
	Jobs           *JobsReport           `json:"jobs,omitempty"`
	Conversations  *ConversationsReport  `json:"conversations,omitempty"`
	Profiles       *ProfilesReport       `json:"profiles,omitempty"`
	Gateway        *GatewayReport        `json:"gateway,omitempty"`
	Reconciler     *ReconcilerReport     `json:"reconciler,omitempty"`
	RedisPublisher *RedisPublisherReport `json:"redis_publisher,omitempty"`
}
