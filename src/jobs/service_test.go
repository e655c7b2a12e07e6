package jobs

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/blockwork-protocol/marketplace/src/utils/config"
	"github.com/blockwork-protocol/marketplace/src/utils/model"
	monitor_marketplace "github.com/blockwork-protocol/marketplace/src/utils/monitoring/marketplace"
	"github.com/blockwork-protocol/marketplace/src/utils/tool"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type fakeConversations struct {
	mtx   sync.Mutex
	calls [][]string
	err   error
}

func (self *fakeConversations) Ensure(ctx context.Context, jobId string, participants ...string) (*model.Conversation, error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	if self.err != nil {
		return nil, self.err
	}
	self.calls = append(self.calls, append([]string{jobId}, participants...))
	return &model.Conversation{JobId: jobId, Participants: participants}, nil
}

type fakeConfirmer struct {
	calls []string
	err   error
}

func (self *fakeConfirmer) record(call string) error {
	self.calls = append(self.calls, call)
	if self.err != nil {
		return fmt.Errorf("%w: %v", model.ErrSettlement, self.err)
	}
	return nil
}

func (self *fakeConfirmer) ConfirmPosted(ctx context.Context, id *big.Int) error {
	return self.record("posted " + id.String())
}

func (self *fakeConfirmer) ConfirmAssigned(ctx context.Context, id *big.Int, wallet string) error {
	return self.record("assigned " + id.String() + " " + wallet)
}

func (self *fakeConfirmer) ConfirmCompleted(ctx context.Context, id *big.Int) error {
	return self.record("completed " + id.String())
}

func (self *fakeConfirmer) ConfirmRefunded(ctx context.Context, id *big.Int) error {
	return self.record("refunded " + id.String())
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}

type ServiceTestSuite struct {
	suite.Suite
	config        *config.Config
	ctx           context.Context
	store         *MemoryStore
	conversations *fakeConversations
	monitor       *monitor_marketplace.Monitor
	clock         *tool.StubClock
	service       *Service
}

func (s *ServiceTestSuite) SetupSuite() {
	s.config = config.Default()
	s.ctx = context.Background()
}

func (s *ServiceTestSuite) SetupTest() {
	s.store = NewMemoryStore()
	s.conversations = new(fakeConversations)
	s.monitor = monitor_marketplace.NewMonitor()
	s.clock = tool.NewStubClock(epoch)
	s.service = NewService(s.config).
		WithStore(s.store).
		WithConversations(s.conversations).
		WithMonitor(s.monitor).
		WithClock(s.clock).
		WithIDGenerator(tool.NewSequentialIDGenerator("job"))
}

func (s *ServiceTestSuite) newJob(externalId string) *NewJob {
	return &NewJob{
		Title:              "Smart contract audit",
		Description:        "Review the escrow contract",
		Budget:             500,
		Skills:             []string{"solidity", "go"},
		JobType:            model.JobTypeFixedPrice,
		ExperienceLevel:    model.ExperienceLevelExpert,
		Responsibilities:   []string{"Audit"},
		Requirements:       []string{"Experience"},
		PosterWallet:       "0xPOSTER",
		SmartContractJobId: externalId,
	}
}

func (s *ServiceTestSuite) create(externalId string) *model.Job {
	job, err := s.service.Create(s.ctx, s.newJob(externalId))
	require.Nil(s.T(), err)
	return job
}

func (s *ServiceTestSuite) apply(job *model.Job, applicantId, wallet string) {
	_, err := s.service.Apply(s.ctx, &NewApplication{
		JobId:           job.Id,
		ApplicantId:     applicantId,
		ApplicantName:   "Name " + applicantId,
		CoverLetter:     "Hire me",
		ApplicantWallet: wallet,
	})
	require.Nil(s.T(), err)
}

func (s *ServiceTestSuite) TestCreate() {
	job := s.create("0042")
	require.Equal(s.T(), "job-1", job.Id)
	require.Equal(s.T(), "42", job.SmartContractJobId)
	require.Equal(s.T(), model.JobStatusOngoing, job.Status)
	require.False(s.T(), job.IsComplete)
	require.Empty(s.T(), job.Applications)
	require.Equal(s.T(), epoch, job.CreatedAt)
	require.Equal(s.T(), uint64(1), s.monitor.GetReport().Jobs.State.JobsCreated.Load())

	stored, err := s.service.Get(s.ctx, job.Id)
	require.Nil(s.T(), err)
	require.Equal(s.T(), job.Title, stored.Title)
}

func (s *ServiceTestSuite) TestCreateListsMissingFields() {
	_, err := s.service.Create(s.ctx, &NewJob{
		Title:            "Title",
		Budget:           -1,
		JobType:          "Weekly",
		ExperienceLevel:  model.ExperienceLevelEntry,
		Responsibilities: []string{" "},
		Requirements:     []string{"x"},
	})
	require.ErrorIs(s.T(), err, model.ErrValidation)

	var validation *model.ValidationError
	require.True(s.T(), errors.As(err, &validation))
	require.Equal(s.T(), []string{"description", "budget", "jobType", "responsibilities", "walletAddress", "smartContractJobId"}, validation.Fields)
}

func (s *ServiceTestSuite) TestCreateRejectsInvalidExternalId() {
	for _, id := range []string{"0", "-3", "abc"} {
		_, err := s.service.Create(s.ctx, s.newJob(id))
		require.ErrorIs(s.T(), err, model.ErrInvalidExternalId, id)
		require.ErrorIs(s.T(), err, model.ErrSettlement, id)
	}
}

func (s *ServiceTestSuite) TestCreateRejectsDuplicateExternalId() {
	s.create("7")
	_, err := s.service.Create(s.ctx, s.newJob("7"))
	require.ErrorIs(s.T(), err, model.ErrConflict)
	require.Zero(s.T(), s.monitor.GetReport().Jobs.Errors.DbError.Load())
}

func (s *ServiceTestSuite) TestList() {
	for i := 1; i <= 12; i++ {
		s.create(fmt.Sprint(i))
	}

	page, err := s.service.List(s.ctx, 0, 0)
	require.Nil(s.T(), err)
	require.Equal(s.T(), int64(12), page.Total)
	require.Len(s.T(), page.Jobs, 10)

	page, err = s.service.List(s.ctx, 2, 5)
	require.Nil(s.T(), err)
	require.Len(s.T(), page.Jobs, 5)
	require.Equal(s.T(), "6", page.Jobs[0].SmartContractJobId)

	page, err = s.service.List(s.ctx, 4, 5)
	require.Nil(s.T(), err)
	require.Empty(s.T(), page.Jobs)
}

func (s *ServiceTestSuite) TestListPageOverflow() {
	s.create("1")
	s.create("2")

	for _, page := range []int{math.MaxInt, math.MaxInt / 2, math.MaxInt/5 + 2} {
		var (
			out *Page
			err error
		)
		require.NotPanics(s.T(), func() { out, err = s.service.List(s.ctx, page, 5) }, page)
		require.Nil(s.T(), err, page)
		require.Equal(s.T(), int64(2), out.Total, page)
		require.Empty(s.T(), out.Jobs, page)
	}
}

func (s *ServiceTestSuite) TestListByWallet() {
	a := s.create("1")
	b := s.create("2")
	s.apply(a, "u1", "0xAAA")
	s.apply(b, "u1", "0xAAA")
	_, err := s.service.Decline(s.ctx, b.Id, "u1")
	require.Nil(s.T(), err)

	jobs, err := s.service.ListByApplicant(s.ctx, "0xaaa")
	require.Nil(s.T(), err)
	require.Len(s.T(), jobs, 2)

	jobs, err = s.service.ListByPoster(s.ctx, "0xposter")
	require.Nil(s.T(), err)
	require.Len(s.T(), jobs, 2)

	_, err = s.service.ListByPoster(s.ctx, " ")
	require.ErrorIs(s.T(), err, model.ErrInvalidArgument)
}

func (s *ServiceTestSuite) TestApplyTwice() {
	job := s.create("1")
	s.apply(job, "u1", "0xAAA")
	_, err := s.service.Decline(s.ctx, job.Id, "u1")
	require.Nil(s.T(), err)

	_, err = s.service.Apply(s.ctx, &NewApplication{
		JobId:           job.Id,
		ApplicantId:     "u1",
		ApplicantName:   "Name",
		CoverLetter:     "Again",
		ApplicantWallet: "0xAAA",
	})
	require.ErrorIs(s.T(), err, model.ErrDuplicateApplication)
}

func (s *ServiceTestSuite) TestApplyToMissingJob() {
	_, err := s.service.Apply(s.ctx, &NewApplication{
		JobId:           "missing",
		ApplicantId:     "u1",
		ApplicantName:   "Name",
		CoverLetter:     "Hello",
		ApplicantWallet: "0xAAA",
	})
	require.ErrorIs(s.T(), err, model.ErrNotFound)
	require.Zero(s.T(), s.monitor.GetReport().Jobs.Errors.DbError.Load())
}

func (s *ServiceTestSuite) TestApproveLeavesOthersPending() {
	job := s.create("1")
	s.apply(job, "a1", "0xAAA")
	s.apply(job, "a2", "0xBBB")

	job, conversation, err := s.service.Approve(s.ctx, job.Id, "a1")
	require.Nil(s.T(), err)
	require.Equal(s.T(), model.ApplicationStatusApproved, job.Applications[0].Status)
	require.Equal(s.T(), model.ApplicationStatusPending, job.Applications[1].Status)
	require.Equal(s.T(), job.Id, conversation.JobId)
	require.Equal(s.T(), [][]string{{job.Id, "0xPOSTER", "0xAAA"}}, s.conversations.calls)

	// Repeated approval only ensures the conversation again
	_, _, err = s.service.Approve(s.ctx, job.Id, "a1")
	require.Nil(s.T(), err)
	require.Len(s.T(), s.conversations.calls, 2)

	_, _, err = s.service.Approve(s.ctx, job.Id, "a2")
	require.ErrorIs(s.T(), err, model.ErrAlreadyApproved)

	require.Equal(s.T(), uint64(1), s.monitor.GetReport().Jobs.State.ApplicationsApproved.Load())
}

func (s *ServiceTestSuite) TestApproveReportsConversationFailure() {
	job := s.create("1")
	s.apply(job, "a1", "0xAAA")
	s.conversations.err = errors.New("db down")

	_, _, err := s.service.Approve(s.ctx, job.Id, "a1")
	require.NotNil(s.T(), err)
	require.Equal(s.T(), uint64(1), s.monitor.GetReport().Jobs.Errors.ConversationError.Load())

	// Approval itself is persisted
	stored, err := s.service.Get(s.ctx, job.Id)
	require.Nil(s.T(), err)
	require.Equal(s.T(), "0xAAA", stored.ApprovedApplicantWallet)
}

func (s *ServiceTestSuite) TestConcurrentApprovalsHaveOneWinner() {
	job := s.create("1")
	const n = 16
	for i := 0; i < n; i++ {
		s.apply(job, fmt.Sprintf("a%d", i), fmt.Sprintf("0x%d", i))
	}

	var (
		wg        sync.WaitGroup
		mtx       sync.Mutex
		succeeded int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, err := s.service.Approve(s.ctx, job.Id, fmt.Sprintf("a%d", i))
			if err == nil {
				mtx.Lock()
				succeeded++
				mtx.Unlock()
				return
			}
			s.Assert().ErrorIs(err, model.ErrAlreadyApproved)
		}(i)
	}
	wg.Wait()

	require.Equal(s.T(), 1, succeeded)

	stored, err := s.service.Get(s.ctx, job.Id)
	require.Nil(s.T(), err)
	approved := 0
	for _, a := range stored.Applications {
		if a.Status == model.ApplicationStatusApproved {
			approved++
			require.Equal(s.T(), a.ApplicantWallet, stored.ApprovedApplicantWallet)
		}
	}
	require.Equal(s.T(), 1, approved)
}

func (s *ServiceTestSuite) TestCompleteTwice() {
	job := s.create("9")
	s.apply(job, "a1", "0xAAA")
	_, _, err := s.service.Approve(s.ctx, job.Id, "a1")
	require.Nil(s.T(), err)

	job, err = s.service.Complete(s.ctx, "9")
	require.Nil(s.T(), err)
	require.True(s.T(), job.IsComplete)

	_, err = s.service.Complete(s.ctx, "9")
	require.ErrorIs(s.T(), err, model.ErrAlreadyComplete)
}

func (s *ServiceTestSuite) TestCompleteWithoutApproval() {
	s.create("9")
	_, err := s.service.Complete(s.ctx, "9")
	require.ErrorIs(s.T(), err, model.ErrNoApprovedApplicant)

	_, err = s.service.Complete(s.ctx, "10")
	require.ErrorIs(s.T(), err, model.ErrNotFound)
}

func (s *ServiceTestSuite) TestRefundTwice() {
	job := s.create("3")
	s.apply(job, "a1", "0xAAA")
	_, _, err := s.service.Approve(s.ctx, job.Id, "a1")
	require.Nil(s.T(), err)

	job, err = s.service.Refund(s.ctx, "3")
	require.Nil(s.T(), err)
	require.Equal(s.T(), model.JobStatusRefunded, job.Status)
	require.Equal(s.T(), model.ApplicationStatusRevoked, job.Applications[0].Status)

	_, err = s.service.Refund(s.ctx, "3")
	require.ErrorIs(s.T(), err, model.ErrAlreadyFinalized)
}

func (s *ServiceTestSuite) TestScenario() {
	job := s.create("77")
	s.apply(job, "a1", "0xAAA")
	s.apply(job, "a2", "0xBBB")

	job, conversation, err := s.service.Approve(s.ctx, job.Id, "a1")
	require.Nil(s.T(), err)
	require.Equal(s.T(), model.ApplicationStatusApproved, job.Applications[0].Status)
	require.Equal(s.T(), "0xAAA", job.ApprovedApplicantWallet)
	require.ElementsMatch(s.T(), []string{"0xPOSTER", "0xAAA"}, conversation.Participants)

	job, err = s.service.Reassign(s.ctx, job.Id, "0xBBB")
	require.Nil(s.T(), err)
	require.Equal(s.T(), model.ApplicationStatusRevoked, job.Applications[0].Status)
	require.Equal(s.T(), model.ApplicationStatusApproved, job.Applications[1].Status)
	require.Equal(s.T(), "0xBBB", job.ApprovedApplicantWallet)

	job, err = s.service.Complete(s.ctx, job.SmartContractJobId)
	require.Nil(s.T(), err)
	require.Equal(s.T(), model.ApplicationStatusComplete, job.Applications[1].Status)
	require.True(s.T(), job.IsComplete)

	_, err = s.service.Refund(s.ctx, job.SmartContractJobId)
	require.ErrorIs(s.T(), err, model.ErrAlreadyFinalized)
}

func (s *ServiceTestSuite) TestSettlementIsConfirmedFirst() {
	confirmer := new(fakeConfirmer)
	s.service.WithConfirmer(confirmer)

	job := s.create("5")
	s.apply(job, "a1", "0xAAA")
	_, err := s.service.Reassign(s.ctx, job.Id, "0xAAA")
	require.Nil(s.T(), err)
	require.Equal(s.T(), []string{"posted 5", "assigned 5 0xAAA"}, confirmer.calls)

	// Invalid transitions don't reach the contract
	_, err = s.service.Refund(s.ctx, "5")
	require.Nil(s.T(), err)
	_, err = s.service.Complete(s.ctx, "5")
	require.ErrorIs(s.T(), err, model.ErrAlreadyFinalized)
	require.Equal(s.T(), []string{"posted 5", "assigned 5 0xAAA", "refunded 5"}, confirmer.calls)
}

func (s *ServiceTestSuite) TestFailedSettlementLeavesJobUntouched() {
	job := s.create("5")
	s.apply(job, "a1", "0xAAA")
	_, _, err := s.service.Approve(s.ctx, job.Id, "a1")
	require.Nil(s.T(), err)

	s.service.WithConfirmer(&fakeConfirmer{err: errors.New("rpc timeout")})
	s.clock.Advance(time.Minute)

	_, err = s.service.Complete(s.ctx, "5")
	require.ErrorIs(s.T(), err, model.ErrSettlement)
	require.Equal(s.T(), uint64(1), s.monitor.GetReport().Jobs.Errors.SettlementError.Load())

	stored, err := s.service.Get(s.ctx, job.Id)
	require.Nil(s.T(), err)
	require.False(s.T(), stored.IsComplete)
	require.Equal(s.T(), epoch, stored.UpdatedAt)
}

type conflictingStore struct {
	*MemoryStore
}

func (self *conflictingStore) Update(ctx context.Context, job *model.Job, expectedVersion int64) error {
	return fmt.Errorf("%w: job %s changed", model.ErrConflict, job.Id)
}

func (s *ServiceTestSuite) TestExhaustedConflictsAreNotStoreFailures() {
	conf := *s.config
	conf.Marketplace.ConflictMaxElapsedTime = 50 * time.Millisecond
	store := &conflictingStore{MemoryStore: s.store}
	s.service = NewService(&conf).
		WithStore(store).
		WithConversations(s.conversations).
		WithMonitor(s.monitor).
		WithClock(s.clock).
		WithIDGenerator(tool.NewSequentialIDGenerator("job"))

	job := s.create("1")
	_, err := s.service.Apply(s.ctx, &NewApplication{
		JobId:           job.Id,
		ApplicantId:     "a1",
		ApplicantName:   "Name",
		CoverLetter:     "Hire me",
		ApplicantWallet: "0xAAA",
	})
	require.ErrorIs(s.T(), err, model.ErrConflict)

	report := s.monitor.GetReport().Jobs
	require.NotZero(s.T(), report.State.ConflictRetries.Load())
	require.Zero(s.T(), report.Errors.DbError.Load())
	require.Zero(s.T(), report.State.ApplicationsSubmitted.Load())
}
