package marketplace

import (
	"context"
	"errors"

	"github.com/blockwork-protocol/marketplace/src/settlement"
	"github.com/blockwork-protocol/marketplace/src/utils/config"
	monitor_marketplace "github.com/blockwork-protocol/marketplace/src/utils/monitoring/marketplace"
)

var ErrEscrowDisabled = errors.New("escrow is disabled")

// Single reconciliation pass, used outside of the server
func Reconcile(ctx context.Context, config *config.Config) (err error) {
	if !config.Escrow.Enabled {
		return ErrEscrowDisabled
	}

	escrow, err := newEscrow(config)
	if err != nil {
		return
	}

	stores, err := newStores(ctx, config)
	if err != nil {
		return
	}

	monitor := monitor_marketplace.NewMonitor()
	services := newServices(config, stores, monitor, nil, nil)

	reconciler := settlement.NewReconciler(config).
		WithMonitor(monitor).
		WithEscrow(escrow).
		WithJobs(newMirror(config, stores, services, monitor))
	defer reconciler.Workers.StopWait()

	err = reconciler.RunOnce(ctx)
	if err != nil {
		return
	}

	report := monitor.GetReport().Reconciler
	reconciler.Log.
		WithField("checked", report.State.JobsChecked.Load()).
		WithField("completions", report.State.CompletionsMirrored.Load()).
		WithField("refunds", report.State.RefundsMirrored.Load()).
		WithField("reassignments", report.State.ReassignmentsMirrored.Load()).
		Info("Reconciliation finished")
	return
}
