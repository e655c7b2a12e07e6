package config

import (
	"time"

	"github.com/spf13/viper"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"

	// Approving an application leaves other pending applications untouched
	ApprovalPolicyKeep = "keep"

	// Approving an application declines all other pending applications
	ApprovalPolicyDeclineOthers = "decline-others"
)

// Jobs, applications, conversations and profiles
type Marketplace struct {
	// Where documents are kept, "postgres" or "memory"
	Storage string

	// What happens to sibling applications when one gets approved
	ApprovalPolicy string

	// Page size used when the request doesn't specify one
	DefaultPageSize int

	// Upper limit of the page size
	MaxPageSize int

	// How long resolved profiles are cached
	ProfileCacheTTL time.Duration

	// Used when message sender has no profile
	DefaultDisplayName string
	DefaultAvatar      string

	// Fetched messages show the sender's current name and avatar instead of the snapshot taken at send time
	ResolveSenderOnRead bool

	// Sending a message requires the sender to have a profile
	RequireSenderProfile bool

	// Retrying writes that lost an optimistic concurrency race
	ConflictInitialInterval time.Duration
	ConflictMaxInterval     time.Duration
	ConflictMaxElapsedTime  time.Duration
}

func setMarketplaceDefaults() {
	viper.SetDefault("Marketplace.Storage", StoragePostgres)
	viper.SetDefault("Marketplace.ApprovalPolicy", ApprovalPolicyKeep)
	viper.SetDefault("Marketplace.DefaultPageSize", "10")
	viper.SetDefault("Marketplace.MaxPageSize", "100")
	viper.SetDefault("Marketplace.ProfileCacheTTL", "1m")
	viper.SetDefault("Marketplace.DefaultDisplayName", "Unknown User")
	viper.SetDefault("Marketplace.DefaultAvatar", "defaultAvatar.png")
	viper.SetDefault("Marketplace.ResolveSenderOnRead", "true")
	viper.SetDefault("Marketplace.RequireSenderProfile", "true")
	viper.SetDefault("Marketplace.ConflictInitialInterval", "5ms")
	viper.SetDefault("Marketplace.ConflictMaxInterval", "200ms")
	viper.SetDefault("Marketplace.ConflictMaxElapsedTime", "5s")
}

func (self *Marketplace) IsInMemory() bool {
	return self.Storage == StorageMemory
}
