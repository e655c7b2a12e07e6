package jobs

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/blockwork-protocol/marketplace/src/utils/config"
	"github.com/blockwork-protocol/marketplace/src/utils/logger"
	"github.com/blockwork-protocol/marketplace/src/utils/model"
	"github.com/blockwork-protocol/marketplace/src/utils/monitoring"
	"github.com/blockwork-protocol/marketplace/src/utils/task"
	"github.com/blockwork-protocol/marketplace/src/utils/tool"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
)

// Job store and application state machine
type Service struct {
	config *config.Config
	log    *logrus.Entry

	store         Store
	conversations ConversationEnsurer
	confirmer     Confirmer
	monitor       monitoring.Monitor
	clock         tool.Clock
	ids           tool.IDGenerator
}

// Fields of a job posting
type NewJob struct {
	Title              string
	Description        string
	Budget             float64
	Skills             []string
	JobType            model.JobType
	ExperienceLevel    model.ExperienceLevel
	Responsibilities   []string
	Requirements       []string
	Logo               string
	Banner             string
	ClientLocation     string
	PaymentVerified    bool
	PosterWallet       string
	SmartContractJobId string
}

type NewApplication struct {
	JobId           string
	ApplicantId     string
	ApplicantName   string
	CoverLetter     string
	ApplicantWallet string
}

type Page struct {
	Total int64        `json:"total"`
	Jobs  []*model.Job `json:"jobs"`
}

func NewService(config *config.Config) (self *Service) {
	self = new(Service)
	self.config = config
	self.log = logger.NewSublogger("jobs")
	self.clock = tool.RealClock{}
	self.ids = tool.XidGenerator{}
	return
}

func (self *Service) WithStore(v Store) *Service {
	self.store = v
	return self
}

func (self *Service) WithConversations(v ConversationEnsurer) *Service {
	self.conversations = v
	return self
}

// Without a confirmer settlement actions are trusted as reported by the caller
func (self *Service) WithConfirmer(v Confirmer) *Service {
	self.confirmer = v
	return self
}

func (self *Service) WithMonitor(v monitoring.Monitor) *Service {
	self.monitor = v
	return self
}

func (self *Service) WithClock(v tool.Clock) *Service {
	self.clock = v
	return self
}

func (self *Service) WithIDGenerator(v tool.IDGenerator) *Service {
	self.ids = v
	return self
}

func nonEmpty(in []string) (out []string) {
	out = make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return
}

func (self *Service) Create(ctx context.Context, in *NewJob) (job *model.Job, err error) {
	responsibilities := nonEmpty(in.Responsibilities)
	requirements := nonEmpty(in.Requirements)

	err = model.NewValidator("Missing required fields").
		Required(in.Title, "title").
		Required(in.Description, "description").
		Check(in.Budget > 0, "budget").
		Check(in.JobType.IsValid(), "jobType").
		Check(in.ExperienceLevel.IsValid(), "experienceLevel").
		Check(len(responsibilities) > 0, "responsibilities").
		Check(len(requirements) > 0, "requirements").
		Required(in.PosterWallet, "walletAddress").
		Required(in.SmartContractJobId, "smartContractJobId").
		Err()
	if err != nil {
		return
	}

	externalId, err := model.ParseExternalJobId(in.SmartContractJobId)
	if err != nil {
		return
	}

	if self.confirmer != nil {
		err = self.confirmer.ConfirmPosted(ctx, externalId)
		if err != nil {
			self.monitor.GetReport().Jobs.Errors.SettlementError.Inc()
			return nil, asSettlementError(err)
		}
	}

	now := self.clock.Now()
	job = &model.Job{
		Id:                 self.ids.New(),
		Title:              strings.TrimSpace(in.Title),
		Description:        in.Description,
		Budget:             in.Budget,
		Skills:             nonEmpty(in.Skills),
		JobType:            in.JobType,
		ExperienceLevel:    in.ExperienceLevel,
		Responsibilities:   responsibilities,
		Requirements:       requirements,
		Logo:               in.Logo,
		Banner:             in.Banner,
		ClientLocation:     in.ClientLocation,
		PaymentVerified:    in.PaymentVerified,
		PosterWallet:       strings.TrimSpace(in.PosterWallet),
		SmartContractJobId: externalId.String(),
		Status:             model.JobStatusOngoing,
		Applications:       model.JSONList[model.Application]{},
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	err = self.store.Create(ctx, job)
	if err != nil {
		self.countError(err)
		return nil, err
	}

	self.monitor.GetReport().Jobs.State.JobsCreated.Inc()
	self.log.WithField("id", job.Id).WithField("external_id", job.SmartContractJobId).Info("Job created")
	return
}

func (self *Service) Get(ctx context.Context, id string) (*model.Job, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: job id is required", model.ErrInvalidArgument)
	}
	job, err := self.store.Get(ctx, id)
	self.countError(err)
	return job, err
}

// Pages are numbered from 1. Non positive values fall back to defaults.
func (self *Service) List(ctx context.Context, page, pageSize int) (out *Page, err error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = self.config.Marketplace.DefaultPageSize
	}
	if pageSize > self.config.Marketplace.MaxPageSize {
		pageSize = self.config.Marketplace.MaxPageSize
	}

	offset := math.MaxInt
	if page-1 <= math.MaxInt/pageSize {
		offset = (page - 1) * pageSize
	}

	jobs, total, err := self.store.List(ctx, offset, pageSize)
	if err != nil {
		self.countError(err)
		return
	}

	return &Page{Total: total, Jobs: jobs}, nil
}

func (self *Service) ListByPoster(ctx context.Context, wallet string) ([]*model.Job, error) {
	if strings.TrimSpace(wallet) == "" {
		return nil, fmt.Errorf("%w: wallet address is required", model.ErrInvalidArgument)
	}
	jobs, err := self.store.ListByPoster(ctx, wallet)
	self.countError(err)
	return jobs, err
}

// Jobs the wallet applied to, regardless of the application's status
func (self *Service) ListByApplicant(ctx context.Context, wallet string) ([]*model.Job, error) {
	if strings.TrimSpace(wallet) == "" {
		return nil, fmt.Errorf("%w: wallet address is required", model.ErrInvalidArgument)
	}
	jobs, err := self.store.ListByApplicant(ctx, wallet)
	self.countError(err)
	return jobs, err
}

// Jobs whose settlement may still change, in id order
func (self *Service) ListUnsettled(ctx context.Context, afterId string, limit int) ([]*model.Job, error) {
	jobs, err := self.store.ListUnsettled(ctx, afterId, limit)
	self.countError(err)
	return jobs, err
}

func (self *Service) Apply(ctx context.Context, in *NewApplication) (job *model.Job, err error) {
	err = model.NewValidator("Missing required fields").
		Required(in.JobId, "jobId").
		Required(in.ApplicantId, "userId").
		Required(in.ApplicantName, "userName").
		Required(in.CoverLetter, "coverLetter").
		Required(in.ApplicantWallet, "walletAddress").
		Err()
	if err != nil {
		return
	}

	application := model.Application{
		ApplicantId:     in.ApplicantId,
		ApplicantName:   in.ApplicantName,
		CoverLetter:     in.CoverLetter,
		ApplicantWallet: strings.TrimSpace(in.ApplicantWallet),
	}

	job, err = self.mutate(ctx, self.byId(in.JobId), func(job *model.Job) (bool, error) {
		return true, submit(job, application, self.clock.Now())
	})
	if err != nil {
		return
	}

	self.monitor.GetReport().Jobs.State.ApplicationsSubmitted.Inc()
	self.log.WithField("id", job.Id).WithField("applicant", in.ApplicantId).Debug("Application submitted")
	return
}

// Approves a pending application and opens the conversation between the poster and the applicant.
// Approving the already approved application again only ensures the conversation exists.
func (self *Service) Approve(ctx context.Context, jobId, applicantId string) (job *model.Job, conversation *model.Conversation, err error) {
	err = model.NewValidator("Missing required fields").
		Required(jobId, "jobId").
		Required(applicantId, "userId").
		Err()
	if err != nil {
		return
	}

	var approved bool
	job, err = self.mutate(ctx, self.byId(jobId), func(job *model.Job) (changed bool, err error) {
		changed, err = approve(job, applicantId, self.config.Marketplace.ApprovalPolicy, self.clock.Now())
		approved = changed
		return
	})
	if err != nil {
		return
	}
	if approved {
		self.monitor.GetReport().Jobs.State.ApplicationsApproved.Inc()
	}

	application := job.Applications[job.FindApplicationById(applicantId)]
	conversation, err = self.ensureConversation(ctx, job, application.ApplicantWallet)
	return
}

func (self *Service) Decline(ctx context.Context, jobId, applicantId string) (job *model.Job, err error) {
	err = model.NewValidator("Missing required fields").
		Required(jobId, "jobId").
		Required(applicantId, "userId").
		Err()
	if err != nil {
		return
	}

	job, err = self.mutate(ctx, self.byId(jobId), func(job *model.Job) (bool, error) {
		return decline(job, applicantId, self.clock.Now())
	})
	if err != nil {
		return
	}

	self.monitor.GetReport().Jobs.State.ApplicationsDeclined.Inc()
	return
}

// Moves the approval to the application submitted from the wallet, revoking the current one.
// The escrow contract has to already point to the new freelancer.
func (self *Service) Reassign(ctx context.Context, jobId, wallet string) (job *model.Job, err error) {
	err = model.NewValidator("Missing required fields").
		Required(jobId, "jobId").
		Required(wallet, "newApplicantWallet").
		Err()
	if err != nil {
		return
	}

	job, err = self.settle(ctx, self.byId(jobId),
		func(job *model.Job) (bool, error) {
			return reassign(job, wallet, self.clock.Now())
		},
		func(externalId *big.Int) error {
			return self.confirmer.ConfirmAssigned(ctx, externalId, wallet)
		})
	if err != nil {
		return
	}
	self.monitor.GetReport().Jobs.State.Reassignments.Inc()
	self.log.WithField("id", job.Id).WithField("wallet", wallet).Info("Applicant reassigned")

	_, err = self.ensureConversation(ctx, job, job.ApprovedApplicantWallet)
	return
}

// Marks the job identified by the escrow id as complete, after the payment got released
func (self *Service) Complete(ctx context.Context, externalId string) (job *model.Job, err error) {
	id, err := model.ParseExternalJobId(externalId)
	if err != nil {
		return
	}

	job, err = self.settle(ctx, self.byExternalId(id.String()),
		func(job *model.Job) (bool, error) {
			return complete(job, self.clock.Now())
		},
		func(externalId *big.Int) error {
			return self.confirmer.ConfirmCompleted(ctx, externalId)
		})
	if err != nil {
		return
	}

	self.monitor.GetReport().Jobs.State.JobsCompleted.Inc()
	self.log.WithField("id", job.Id).WithField("external_id", job.SmartContractJobId).Info("Job completed")
	return
}

// Marks the job identified by the escrow id as refunded, after the funds got returned to the client
func (self *Service) Refund(ctx context.Context, externalId string) (job *model.Job, err error) {
	id, err := model.ParseExternalJobId(externalId)
	if err != nil {
		return
	}

	job, err = self.settle(ctx, self.byExternalId(id.String()),
		func(job *model.Job) (bool, error) {
			return refund(job, self.clock.Now())
		},
		func(externalId *big.Int) error {
			return self.confirmer.ConfirmRefunded(ctx, externalId)
		})
	if err != nil {
		return
	}

	self.monitor.GetReport().Jobs.State.JobsRefunded.Inc()
	self.log.WithField("id", job.Id).WithField("external_id", job.SmartContractJobId).Info("Job refunded")
	return
}

func (self *Service) ensureConversation(ctx context.Context, job *model.Job, applicantWallet string) (*model.Conversation, error) {
	conversation, err := self.conversations.Ensure(ctx, job.Id, job.PosterWallet, applicantWallet)
	if err != nil {
		self.monitor.GetReport().Jobs.Errors.ConversationError.Inc()
		self.log.WithError(err).WithField("id", job.Id).Error("Job updated, but conversation wasn't created")
		return nil, fmt.Errorf("job %s updated, but conversation wasn't created: %w", job.Id, err)
	}
	return conversation, nil
}

type loader func(ctx context.Context) (*model.Job, error)

func (self *Service) byId(id string) loader {
	return func(ctx context.Context) (*model.Job, error) {
		return self.store.Get(ctx, id)
	}
}

func (self *Service) byExternalId(id string) loader {
	return func(ctx context.Context) (*model.Job, error) {
		return self.store.GetByExternalId(ctx, id)
	}
}

// Validates the transition locally, confirms it with the escrow contract and applies it
func (self *Service) settle(ctx context.Context, load loader, apply func(job *model.Job) (bool, error), confirm func(externalId *big.Int) error) (job *model.Job, err error) {
	if self.confirmer != nil {
		current, err := load(ctx)
		if err != nil {
			self.countError(err)
			return nil, err
		}

		// Fail early without calling the contract
		_, err = apply(current.Clone())
		if err != nil {
			return nil, err
		}

		externalId, err := model.ParseExternalJobId(current.SmartContractJobId)
		if err != nil {
			return nil, err
		}

		err = confirm(externalId)
		if err != nil {
			self.monitor.GetReport().Jobs.Errors.SettlementError.Inc()
			self.log.WithError(err).WithField("id", current.Id).Warn("Settlement not confirmed")
			return nil, asSettlementError(err)
		}
	}

	return self.mutate(ctx, load, apply)
}

// Reads the job, applies the change and writes it back if nobody modified it in the meantime. Retries on conflicts.
func (self *Service) mutate(ctx context.Context, load loader, apply func(job *model.Job) (bool, error)) (job *model.Job, err error) {
	err = task.NewRetry().
		WithContext(ctx).
		WithInitialInterval(self.config.Marketplace.ConflictInitialInterval).
		WithMaxInterval(self.config.Marketplace.ConflictMaxInterval).
		WithMaxElapsedTime(self.config.Marketplace.ConflictMaxElapsedTime).
		WithOnError(func(err error, isDurationAcceptable bool) error {
			if !errors.Is(err, model.ErrConflict) {
				return backoff.Permanent(err)
			}
			self.monitor.GetReport().Jobs.State.ConflictRetries.Inc()
			return err
		}).
		Run(func() error {
			current, err := load(ctx)
			if err != nil {
				return err
			}

			version := current.Version
			changed, err := apply(current)
			if err != nil {
				return err
			}

			if changed {
				current.UpdatedAt = self.clock.Now()
				err = self.store.Update(ctx, current, version)
				if err != nil {
					return err
				}
			}

			job = current
			return nil
		})
	if err != nil {
		self.countError(err)
		return nil, err
	}
	return
}

func asSettlementError(err error) error {
	if errors.Is(err, model.ErrSettlement) {
		return err
	}
	return fmt.Errorf("%w: %v", model.ErrSettlement, err)
}

// Counts errors that aren't caused by the request
func (self *Service) countError(err error) {
	if err == nil || isDomainError(err) {
		return
	}
	self.monitor.GetReport().Jobs.Errors.DbError.Inc()
	self.log.WithError(err).Error("Job store failure")
}

func isDomainError(err error) bool {
	for _, target := range []error{
		model.ErrValidation,
		model.ErrInvalidArgument,
		model.ErrNotFound,
		model.ErrDuplicateApplication,
		model.ErrNoApprovedApplicant,
		model.ErrAlreadyApproved,
		model.ErrAlreadyComplete,
		model.ErrAlreadyFinalized,
		model.ErrInvalidTransition,
		model.ErrSettlement,
		model.ErrConflict,
		context.Canceled,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
