package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/blockwork-protocol/marketplace/src/conversations"
	"github.com/blockwork-protocol/marketplace/src/gateway/request"
	"github.com/blockwork-protocol/marketplace/src/jobs"
	"github.com/blockwork-protocol/marketplace/src/messenger"
	"github.com/blockwork-protocol/marketplace/src/profiles"
	"github.com/blockwork-protocol/marketplace/src/utils/config"
	"github.com/blockwork-protocol/marketplace/src/utils/logger"
	"github.com/blockwork-protocol/marketplace/src/utils/model"
	monitor_marketplace "github.com/blockwork-protocol/marketplace/src/utils/monitoring/marketplace"
	"github.com/blockwork-protocol/marketplace/src/utils/tool"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

func TestServerTestSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

type ServerTestSuite struct {
	suite.Suite
	config  *config.Config
	monitor *monitor_marketplace.Monitor
	hub     *messenger.Hub
	server  *Server
}

func (s *ServerTestSuite) SetupTest() {
	s.config = config.Default()
	s.config.Gateway.BroadcastPersisted = true
	s.monitor = monitor_marketplace.NewMonitor()

	clock := tool.NewStubClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))

	s.hub = messenger.NewHub(s.config).WithMonitor(s.monitor)
	require.Nil(s.T(), s.hub.Start())

	profilesService := profiles.NewService(s.config).
		WithStore(profiles.NewMemoryStore()).
		WithMonitor(s.monitor).
		WithClock(clock).
		WithIDGenerator(tool.NewSequentialIDGenerator("user"))

	conversationsService := conversations.NewService(s.config).
		WithStore(conversations.NewMemoryStore()).
		WithProfiles(profilesService).
		WithBroadcaster(s.hub).
		WithMonitor(s.monitor).
		WithClock(clock)

	jobsService := jobs.NewService(s.config).
		WithStore(jobs.NewMemoryStore()).
		WithConversations(conversationsService).
		WithMonitor(s.monitor).
		WithClock(clock).
		WithIDGenerator(tool.NewSequentialIDGenerator("job"))

	s.server = NewServer(s.config).
		WithMonitor(s.monitor).
		WithJobs(jobsService).
		WithConversations(conversationsService).
		WithProfiles(profilesService).
		WithHub(s.hub)
}

func (s *ServerTestSuite) TearDownTest() {
	s.hub.StopWait()
}

func (s *ServerTestSuite) do(method, path string, body any, out any) int {
	var buf bytes.Buffer
	if body != nil {
		require.Nil(s.T(), json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.server.httpServer.Handler.ServeHTTP(w, req)

	if out != nil {
		require.Nil(s.T(), json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
	}
	return w.Code
}

func (s *ServerTestSuite) createJob(externalId string) *model.Job {
	job := new(model.Job)
	code := s.do(http.MethodPost, "/api/jobs", &request.CreateJob{
		Title:              "Landing page",
		Description:        "Build a landing page",
		Budget:             300,
		Tags:               []string{"react"},
		WalletAddress:      "0xPOSTER",
		JobType:            string(model.JobTypeFixedPrice),
		ExperienceLevel:    string(model.ExperienceLevelEntry),
		Responsibilities:   []string{"Design", "Code"},
		Requirements:       []string{"Portfolio"},
		SmartContractJobId: externalId,
	}, job)
	require.Equal(s.T(), http.StatusCreated, code)
	return job
}

func (s *ServerTestSuite) apply(jobId, userId, wallet string) {
	code := s.do(http.MethodPost, "/api/jobs/apply", &request.Apply{
		JobId:         jobId,
		UserId:        userId,
		UserName:      userId,
		CoverLetter:   "Hire me",
		WalletAddress: wallet,
	}, nil)
	require.Equal(s.T(), http.StatusOK, code)
}

func (s *ServerTestSuite) TestCreateJobMissingFields() {
	var out logger.ErrorResponse
	code := s.do(http.MethodPost, "/api/jobs", &request.CreateJob{Title: "Only title"}, &out)
	require.Equal(s.T(), http.StatusBadRequest, code)
	require.Contains(s.T(), out.Fields, "description")
	require.Contains(s.T(), out.Fields, "smartContractJobId")
	require.NotContains(s.T(), out.Fields, "title")
}

func (s *ServerTestSuite) TestMalformedBody() {
	req := httptest.NewRequest(http.MethodPost, "/api/jobs", strings.NewReader("{"))
	w := httptest.NewRecorder()
	s.server.httpServer.Handler.ServeHTTP(w, req)
	require.Equal(s.T(), http.StatusBadRequest, w.Code)
}

func (s *ServerTestSuite) TestGetJob() {
	job := s.createJob("1")

	var out model.Job
	require.Equal(s.T(), http.StatusOK, s.do(http.MethodGet, "/api/jobs/"+job.Id, nil, &out))
	require.Equal(s.T(), job.Id, out.Id)
	require.Equal(s.T(), []string{"react"}, []string(out.Skills))

	require.Equal(s.T(), http.StatusNotFound, s.do(http.MethodGet, "/api/jobs/missing", nil, nil))
}

func (s *ServerTestSuite) TestListJobs() {
	for i := 1; i <= 3; i++ {
		s.createJob(fmt.Sprint(i))
	}

	var page jobs.Page
	require.Equal(s.T(), http.StatusOK, s.do(http.MethodGet, "/api/jobs?page=2&limit=2", nil, &page))
	require.Equal(s.T(), int64(3), page.Total)
	require.Len(s.T(), page.Jobs, 1)

	var posted []*model.Job
	require.Equal(s.T(), http.StatusOK, s.do(http.MethodGet, "/api/jobs/my-posts/0xPOSTER", nil, &posted))
	require.Len(s.T(), posted, 3)

	var applied []*model.Job
	require.Equal(s.T(), http.StatusOK, s.do(http.MethodGet, "/api/jobs/applied/0xNOBODY", nil, &applied))
	require.NotNil(s.T(), applied)
	require.Empty(s.T(), applied)
}

func (s *ServerTestSuite) TestApplicationLifecycle() {
	job := s.createJob("42")
	s.apply(job.Id, "alice", "0xALICE")
	s.apply(job.Id, "bob", "0xBOB")

	require.Equal(s.T(), http.StatusConflict, s.do(http.MethodPost, "/api/jobs/apply", &request.Apply{
		JobId:         job.Id,
		UserId:        "alice",
		UserName:      "alice",
		CoverLetter:   "Again",
		WalletAddress: "0xALICE",
	}, nil))

	var approved struct {
		Job          *model.Job          `json:"job"`
		Conversation *model.Conversation `json:"conversation"`
	}
	code := s.do(http.MethodPut, "/api/jobs/approve/"+job.Id, &request.Applicant{UserId: "alice"}, &approved)
	require.Equal(s.T(), http.StatusOK, code)
	require.Equal(s.T(), "0xALICE", approved.Job.ApprovedApplicantWallet)
	require.ElementsMatch(s.T(), []string{"0xPOSTER", "0xALICE"}, []string(approved.Conversation.Participants))

	require.Equal(s.T(), http.StatusConflict,
		s.do(http.MethodPut, "/api/jobs/approve/"+job.Id, &request.Applicant{UserId: "bob"}, nil))

	code = s.do(http.MethodPut, "/api/jobs/reassign/"+job.Id, &request.Reassign{NewApplicantWallet: "0xbob"}, nil)
	require.Equal(s.T(), http.StatusOK, code)

	require.Equal(s.T(), http.StatusOK, s.do(http.MethodPut, "/api/jobs/complete/42", nil, nil))
	require.Equal(s.T(), http.StatusConflict, s.do(http.MethodPut, "/api/jobs/complete/42", nil, nil))
	require.Equal(s.T(), http.StatusConflict, s.do(http.MethodPut, "/api/jobs/refund/42", nil, nil))
	require.Equal(s.T(), http.StatusNotFound, s.do(http.MethodPut, "/api/jobs/refund/43", nil, nil))
	require.Equal(s.T(), http.StatusBadRequest, s.do(http.MethodPut, "/api/jobs/refund/abc", nil, nil))

	var out model.Job
	require.Equal(s.T(), http.StatusOK, s.do(http.MethodGet, "/api/jobs/"+job.Id, nil, &out))
	require.True(s.T(), out.IsComplete)
	require.Equal(s.T(), "0xBOB", out.ApprovedApplicantWallet)
}

func (s *ServerTestSuite) TestDecline() {
	job := s.createJob("7")
	s.apply(job.Id, "alice", "0xALICE")

	var out struct {
		Job *model.Job `json:"job"`
	}
	code := s.do(http.MethodPut, "/api/jobs/decline/"+job.Id, &request.Applicant{UserId: "alice"}, &out)
	require.Equal(s.T(), http.StatusOK, code)
	require.Equal(s.T(), model.ApplicationStatusDeclined, out.Job.Applications[0].Status)

	require.Equal(s.T(), http.StatusNotFound,
		s.do(http.MethodPut, "/api/jobs/decline/"+job.Id, &request.Applicant{UserId: "carol"}, nil))
}

func (s *ServerTestSuite) TestMessages() {
	require.Equal(s.T(), http.StatusOK,
		s.do(http.MethodPost, "/api/usersJobs/create-or-get-user", &request.Wallet{WalletAddress: "0xALICE"}, nil))
	require.Equal(s.T(), http.StatusOK,
		s.do(http.MethodPost, "/api/usersJobs/update-name", &request.UpdateName{WalletAddress: "0xALICE", UserName: "Alice"}, nil))

	var message model.Message
	code := s.do(http.MethodPost, "/api/messages", &request.SendMessage{
		JobId:        "job-1",
		SenderWallet: "0xALICE",
		Content:      "hello",
	}, &message)
	require.Equal(s.T(), http.StatusCreated, code)
	require.Equal(s.T(), "Alice", message.Username)
	require.Equal(s.T(), int64(1), message.Seq)

	require.Equal(s.T(), http.StatusBadRequest, s.do(http.MethodPost, "/api/messages", &request.SendMessage{
		JobId:        "job-1",
		SenderWallet: "0xALICE",
	}, nil))
	require.Equal(s.T(), http.StatusNotFound, s.do(http.MethodPost, "/api/messages", &request.SendMessage{
		JobId:        "job-1",
		SenderWallet: "0xSTRANGER",
		Content:      "hi",
	}, nil))

	var messages []model.Message
	require.Equal(s.T(), http.StatusOK, s.do(http.MethodGet, "/api/messages/job/job-1", nil, &messages))
	require.Len(s.T(), messages, 1)
	require.Equal(s.T(), "hello", messages[0].Content)

	var summaries []*model.ConversationSummary
	require.Equal(s.T(), http.StatusOK, s.do(http.MethodGet, "/api/messages/conversations", nil, &summaries))
	require.Len(s.T(), summaries, 1)
	require.Equal(s.T(), "hello", summaries[0].LastMessageContent)
}

func (s *ServerTestSuite) TestUsers() {
	require.Equal(s.T(), http.StatusNotFound, s.do(http.MethodGet, "/api/usersJobs/0xCAROL", nil, nil))

	var user model.User
	require.Equal(s.T(), http.StatusOK,
		s.do(http.MethodPost, "/api/usersJobs/create-or-get-user", &request.Wallet{WalletAddress: "0xCAROL"}, &user))
	require.Equal(s.T(), "0xCAROL", user.WalletAddress)

	rate := 55.5
	require.Equal(s.T(), http.StatusOK,
		s.do(http.MethodPost, "/api/usersJobs/update-rate", &request.UpdateRate{WalletAddress: "0xcarol", HourlyRate: &rate}, nil))
	require.Equal(s.T(), http.StatusOK,
		s.do(http.MethodPost, "/api/usersJobs/update-skills", &request.UpdateSkills{WalletAddress: "0xCAROL", Skills: []string{"go", "sql"}}, nil))
	require.Equal(s.T(), http.StatusOK,
		s.do(http.MethodPost, "/api/usersJobs/update-language", &request.UpdateLanguage{WalletAddress: "0xCAROL", Language: "English", Proficiency: "Native"}, nil))

	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	require.Equal(s.T(), http.StatusOK, s.do(http.MethodPost, "/api/usersJobs/update-work-history", &request.UpdateWorkHistory{
		WalletAddress: "0xCAROL",
		JobTitle:      "Engineer",
		Company:       "Acme",
		StartDate:     &start,
	}, &user))
	require.Len(s.T(), user.WorkHistory, 1)

	require.Equal(s.T(), http.StatusOK, s.do(http.MethodPost, "/api/usersJobs/delete-work-history", &request.DeleteWorkHistory{
		WalletAddress: "0xCAROL",
		WorkHistoryId: user.WorkHistory[0].Id,
	}, &user))
	require.Empty(s.T(), user.WorkHistory)

	require.Equal(s.T(), http.StatusBadRequest, s.do(http.MethodPost, "/api/usersJobs/update-portfolio", &request.UpdatePortfolio{
		WalletAddress: "0xCAROL",
		Title:         "Site",
	}, nil))

	require.Equal(s.T(), http.StatusOK,
		s.do(http.MethodPost, "/api/usersJobs/upload-avatar", &request.UploadAvatar{WalletAddress: "0xCAROL", AvatarData: "avatars/carol.png"}, nil))

	require.Equal(s.T(), http.StatusOK, s.do(http.MethodGet, "/api/usersJobs/0xCAROL", nil, &user))
	require.Equal(s.T(), 55.5, *user.HourlyRate)
	require.Equal(s.T(), []string{"go", "sql"}, []string(user.Skills))
	require.Equal(s.T(), "avatars/carol.png", user.Avatar)
	require.Len(s.T(), user.Languages, 1)
}

func (s *ServerTestSuite) TestRequestsAreCounted() {
	s.do(http.MethodGet, "/api/jobs", nil, nil)
	s.do(http.MethodGet, "/api/jobs/missing", nil, nil)
	require.Equal(s.T(), uint64(2), s.monitor.GetReport().Gateway.State.RequestsHandled.Load())
	require.Equal(s.T(), uint64(0), s.monitor.GetReport().Gateway.Errors.RequestFailed.Load())
}

func (s *ServerTestSuite) TestSocketReceivesPersistedMessages() {
	server := httptest.NewServer(s.server.httpServer.Handler)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/socket?jobId=job-9"
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.Nil(s.T(), err)
	defer conn.Close(websocket.StatusNormalClosure, "")
	require.Eventually(s.T(), func() bool { return s.hub.NumClients() == 1 }, time.Second, time.Millisecond)

	s.do(http.MethodPost, "/api/usersJobs/create-or-get-user", &request.Wallet{WalletAddress: "0xALICE"}, nil)
	require.Equal(s.T(), http.StatusCreated, s.do(http.MethodPost, "/api/messages", &request.SendMessage{
		JobId:        "job-9",
		SenderWallet: "0xALICE",
		Content:      "ping",
	}, nil))

	var event messenger.Event
	require.Nil(s.T(), wsjson.Read(ctx, conn, &event))
	require.Equal(s.T(), messenger.EventReceiveMessage, event.Event)
	require.Equal(s.T(), "job-9", event.JobId)

	var message model.Message
	require.Nil(s.T(), json.Unmarshal(event.Data, &message))
	require.Equal(s.T(), "ping", message.Content)
}

func TestStatusOf(t *testing.T) {
	for _, tc := range []struct {
		err    error
		status int
	}{
		{model.NewValidationError("missing", "title"), http.StatusBadRequest},
		{model.ErrInvalidArgument, http.StatusBadRequest},
		{model.ErrInvalidExternalId, http.StatusBadRequest},
		{fmt.Errorf("job: %w", model.ErrNotFound), http.StatusNotFound},
		{model.ErrDuplicateApplication, http.StatusConflict},
		{model.ErrAlreadyApproved, http.StatusConflict},
		{model.ErrAlreadyComplete, http.StatusConflict},
		{model.ErrAlreadyFinalized, http.StatusConflict},
		{model.ErrInvalidTransition, http.StatusConflict},
		{model.ErrNoApprovedApplicant, http.StatusConflict},
		{model.ErrConflict, http.StatusConflict},
		{fmt.Errorf("%w: rpc down", model.ErrSettlement), http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	} {
		require.Equal(t, tc.status, statusOf(tc.err), tc.err.Error())
	}
}
