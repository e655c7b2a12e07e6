package settlement

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/blockwork-protocol/marketplace/src/utils/config"
	"github.com/blockwork-protocol/marketplace/src/utils/eth"
	"github.com/blockwork-protocol/marketplace/src/utils/model"
	"github.com/blockwork-protocol/marketplace/src/utils/monitoring"
	"github.com/blockwork-protocol/marketplace/src/utils/task"

	"github.com/robfig/cron"
	"github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
)

var ErrStopped = errors.New("reconciler stopped")

// Local job operations the reconciler mirrors escrow state with
type JobMirror interface {
	ListUnsettled(ctx context.Context, afterId string, limit int) ([]*model.Job, error)
	Reassign(ctx context.Context, jobId, wallet string) (*model.Job, error)
	Complete(ctx context.Context, externalId string) (*model.Job, error)
	Refund(ctx context.Context, externalId string) (*model.Job, error)
}

// Periodically compares unsettled jobs with the escrow contract and mirrors what the local store missed
type Reconciler struct {
	*task.Task

	monitor monitoring.Monitor
	escrow  EscrowReader
	jobs    JobMirror
	limiter ratelimit.Limiter

	// Prevents overlapping passes
	isRunning atomic.Bool
}

func NewReconciler(config *config.Config) (self *Reconciler) {
	self = new(Reconciler)
	if config.Reconciler.RequestsPerSecond > 0 {
		self.limiter = ratelimit.New(config.Reconciler.RequestsPerSecond)
	} else {
		self.limiter = ratelimit.NewUnlimited()
	}

	self.Task = task.NewTask(config, "reconciler").
		WithSubtaskFunc(self.run).
		WithWorkerPool(config.Reconciler.NumWorkers, config.Reconciler.WorkerQueueSize)

	return
}

func (self *Reconciler) WithMonitor(v monitoring.Monitor) *Reconciler {
	self.monitor = v
	return self
}

func (self *Reconciler) WithEscrow(v EscrowReader) *Reconciler {
	self.escrow = v
	return self
}

func (self *Reconciler) WithJobs(v JobMirror) *Reconciler {
	self.jobs = v
	return self
}

func (self *Reconciler) run() error {
	scheduler := cron.New()
	err := scheduler.AddFunc(self.Config.Reconciler.Schedule, func() {
		err := self.RunOnce(self.Ctx)
		if err != nil && !errors.Is(err, ErrStopped) {
			self.Log.WithError(err).Error("Reconciliation pass failed")
		}
	})
	if err != nil {
		return err
	}

	scheduler.Start()
	<-self.StopChannel
	scheduler.Stop()
	return nil
}

// Single pass over all unsettled jobs
func (self *Reconciler) RunOnce(ctx context.Context) error {
	if !self.isRunning.CompareAndSwap(false, true) {
		self.Log.Warn("Previous pass still running, skipping")
		return nil
	}
	defer self.isRunning.Store(false)

	self.Log.Info("Reconciliation pass started")
	defer self.Log.Info("Reconciliation pass finished")

	afterId := ""
	for {
		batch, err := self.jobs.ListUnsettled(ctx, afterId, self.Config.Reconciler.BatchSize)
		if err != nil {
			self.monitor.GetReport().Reconciler.Errors.DbError.Inc()
			return err
		}
		if len(batch) == 0 {
			break
		}

		var wg sync.WaitGroup
		for _, job := range batch {
			job := job
			wg.Add(1)
			ok := self.SubmitToWorker(func() {
				defer wg.Done()
				self.reconcile(ctx, job)
			})
			if !ok {
				wg.Done()
				wg.Wait()
				return ErrStopped
			}
		}
		wg.Wait()

		if ctx.Err() != nil {
			return ctx.Err()
		}
		afterId = batch[len(batch)-1].Id
	}

	self.monitor.GetReport().Reconciler.State.Passes.Inc()
	self.monitor.GetReport().Reconciler.State.LastPassTimestamp.Store(time.Now().Unix())
	return nil
}

func (self *Reconciler) reconcile(ctx context.Context, job *model.Job) {
	log := self.Log.WithField("id", job.Id).WithField("external_id", job.SmartContractJobId)

	id, err := model.ParseExternalJobId(job.SmartContractJobId)
	if err != nil {
		self.monitor.GetReport().Reconciler.Errors.Mirror.Inc()
		log.WithError(err).Error("Job has invalid external id")
		return
	}

	self.limiter.Take()

	onchain, err := readJob(ctx, log, &self.Config.Escrow, self.escrow, id)
	if err != nil {
		self.monitor.GetReport().Reconciler.Errors.EscrowRead.Inc()
		log.WithError(err).Error("Failed to read escrow job")
		return
	}
	self.monitor.GetReport().Reconciler.State.JobsChecked.Inc()
	log = log.WithField("amount_eth", eth.WeiToEther(onchain.Amount))

	if onchain.IsRefunded {
		_, err = self.jobs.Refund(ctx, job.SmartContractJobId)
		if self.check(log, err, "refund") {
			self.monitor.GetReport().Reconciler.State.RefundsMirrored.Inc()
		}
		return
	}

	// Completion is recorded on the freelancer that's approved locally
	if onchain.HasFreelancer() && !strings.EqualFold(job.ApprovedApplicantWallet, onchain.Freelancer.Hex()) {
		_, err = self.jobs.Reassign(ctx, job.Id, onchain.Freelancer.Hex())
		if !self.check(log, err, "reassignment") {
			return
		}
		self.monitor.GetReport().Reconciler.State.ReassignmentsMirrored.Inc()
	}

	if onchain.IsCompleted {
		_, err = self.jobs.Complete(ctx, job.SmartContractJobId)
		if self.check(log, err, "completion") {
			self.monitor.GetReport().Reconciler.State.CompletionsMirrored.Inc()
		}
	}
}

// Reports whether the change got mirrored
func (self *Reconciler) check(log *logrus.Entry, err error, what string) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, model.ErrAlreadyFinalized) || errors.Is(err, model.ErrAlreadyComplete) {
		// Changed locally in the meantime
		return false
	}
	self.monitor.GetReport().Reconciler.Errors.Mirror.Inc()
	log.WithError(err).Errorf("Failed to mirror %s", what)
	return false
}
