package marketplace

import (
	"context"

	"github.com/blockwork-protocol/marketplace/src/conversations"
	"github.com/blockwork-protocol/marketplace/src/jobs"
	"github.com/blockwork-protocol/marketplace/src/profiles"
	"github.com/blockwork-protocol/marketplace/src/settlement"
	"github.com/blockwork-protocol/marketplace/src/utils/config"
	"github.com/blockwork-protocol/marketplace/src/utils/eth"
	"github.com/blockwork-protocol/marketplace/src/utils/logger"
	"github.com/blockwork-protocol/marketplace/src/utils/model"
	"github.com/blockwork-protocol/marketplace/src/utils/monitoring"
)

type stores struct {
	jobs          jobs.Store
	conversations conversations.Store
	profiles      profiles.Store
}

func newStores(ctx context.Context, config *config.Config) (out *stores, err error) {
	if config.Marketplace.IsInMemory() {
		logger.NewSublogger("marketplace").Warn("Using in-memory storage, data is lost on restart")
		return &stores{
			jobs:          jobs.NewMemoryStore(),
			conversations: conversations.NewMemoryStore(),
			profiles:      profiles.NewMemoryStore(),
		}, nil
	}

	db, err := model.NewConnection(ctx, config, "marketplace")
	if err != nil {
		return
	}

	return &stores{
		jobs:          jobs.NewDBStore(db),
		conversations: conversations.NewDBStore(db),
		profiles:      profiles.NewDBStore(db),
	}, nil
}

// Escrow binding, nil when settlement isn't enabled
func newEscrow(config *config.Config) (*eth.Escrow, error) {
	if !config.Escrow.Enabled {
		return nil, nil
	}
	return eth.NewEscrowFromConfig(logger.NewSublogger("escrow"), &config.Escrow)
}

type services struct {
	jobs          *jobs.Service
	conversations *conversations.Service
	profiles      *profiles.Service
}

func newServices(config *config.Config, stores *stores, monitor monitoring.Monitor, escrow *eth.Escrow, broadcaster conversations.Broadcaster) *services {
	profilesService := profiles.NewService(config).
		WithStore(stores.profiles).
		WithMonitor(monitor)

	conversationsService := conversations.NewService(config).
		WithStore(stores.conversations).
		WithProfiles(profilesService).
		WithMonitor(monitor)
	if broadcaster != nil {
		conversationsService = conversationsService.WithBroadcaster(broadcaster)
	}

	var confirmer jobs.Confirmer = settlement.NopConfirmer{}
	if escrow != nil {
		confirmer = settlement.NewEscrowConfirmer(config).WithEscrow(escrow)
	}

	jobsService := jobs.NewService(config).
		WithStore(stores.jobs).
		WithConversations(conversationsService).
		WithConfirmer(confirmer).
		WithMonitor(monitor)

	return &services{
		jobs:          jobsService,
		conversations: conversationsService,
		profiles:      profilesService,
	}
}

// Job service that mirrors escrow state without confirming it again
func newMirror(config *config.Config, stores *stores, services *services, monitor monitoring.Monitor) *jobs.Service {
	return jobs.NewService(config).
		WithStore(stores.jobs).
		WithConversations(services.conversations).
		WithMonitor(monitor)
}
