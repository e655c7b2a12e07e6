package gateway

import (
	"context"
	"net/http"

	"github.com/blockwork-protocol/marketplace/src/conversations"
	"github.com/blockwork-protocol/marketplace/src/jobs"
	"github.com/blockwork-protocol/marketplace/src/messenger"
	"github.com/blockwork-protocol/marketplace/src/profiles"
	"github.com/blockwork-protocol/marketplace/src/utils/config"
	"github.com/blockwork-protocol/marketplace/src/utils/monitoring"
	"github.com/blockwork-protocol/marketplace/src/utils/task"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/teivah/onecontext"
)

// Public REST API and the websocket endpoint
type Server struct {
	*task.Task

	httpServer *http.Server
	Router     *gin.Engine

	monitor       monitoring.Monitor
	jobs          *jobs.Service
	conversations *conversations.Service
	profiles      *profiles.Service
	hub           *messenger.Hub
}

func NewServer(config *config.Config) (self *Server) {
	self = new(Server)

	self.Task = task.NewTask(config, "rest-server").
		WithSubtaskFunc(self.run).
		WithOnStop(self.stop)

	if !config.IsDevelopment {
		gin.SetMode(gin.ReleaseMode)
	}

	self.Router = gin.New()
	self.Router.Use(gin.Recovery(), self.onRequest())

	api := self.Router.Group("api")
	{
		// Long lived, no request timeout
		api.GET("socket", self.onSocket())
	}

	rest := api.Group("", self.withLimits())

	jobsGroup := rest.Group("jobs")
	{
		jobsGroup.GET("", self.onListJobs())
		jobsGroup.GET("my-posts/:walletAddress", self.onListPosted())
		jobsGroup.GET("applied/:walletAddress", self.onListApplied())
		jobsGroup.POST("", self.onCreateJob())
		jobsGroup.POST("apply", self.onApply())
		jobsGroup.PUT("approve/:id", self.onApprove())
		jobsGroup.PUT("decline/:id", self.onDecline())
		jobsGroup.PUT("reassign/:id", self.onReassign())
		jobsGroup.PUT("complete/:externalId", self.onComplete())
		jobsGroup.PUT("refund/:externalId", self.onRefund())
		jobsGroup.GET(":id", self.onGetJob())
	}

	messages := rest.Group("messages")
	{
		messages.GET("job/:jobId", self.onGetMessages())
		messages.GET("conversations", self.onGetConversations())
		messages.POST("", self.onSendMessage())
	}

	users := rest.Group("usersJobs")
	{
		users.POST("create-or-get-user", self.onCreateOrGetUser())
		users.POST("update-name", self.onUpdateName())
		users.POST("update-rate", self.onUpdateRate())
		users.POST("update-job", self.onUpdateJob())
		users.POST("update-job-description", self.onUpdateJobDescription())
		users.POST("update-bio", self.onUpdateBio())
		users.POST("update-skills", self.onUpdateSkills())
		users.POST("update-language", self.onUpdateLanguage())
		users.POST("update-education", self.onUpdateEducation())
		users.POST("update-work-history", self.onUpdateWorkHistory())
		users.POST("delete-work-history", self.onDeleteWorkHistory())
		users.POST("update-portfolio", self.onUpdatePortfolio())
		users.POST("delete-portfolio", self.onDeletePortfolio())
		users.POST("upload-avatar", self.onUploadAvatar())
		users.GET(":walletAddress", self.onGetUser())
	}

	self.httpServer = &http.Server{
		Addr: config.Server.ListenAddress,
		Handler: cors.New(cors.Options{
			AllowedOrigins: config.Server.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"*"},
		}).Handler(self.Router),
	}

	return
}

func (self *Server) WithMonitor(monitor monitoring.Monitor) *Server {
	self.monitor = monitor
	return self
}

func (self *Server) WithJobs(v *jobs.Service) *Server {
	self.jobs = v
	return self
}

func (self *Server) WithConversations(v *conversations.Service) *Server {
	self.conversations = v
	return self
}

func (self *Server) WithProfiles(v *profiles.Service) *Server {
	self.profiles = v
	return self
}

func (self *Server) WithHub(v *messenger.Hub) *Server {
	self.hub = v
	return self
}

// Counts handled and failed requests
func (self *Server) onRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if self.monitor == nil {
			return
		}
		self.monitor.GetReport().Gateway.State.RequestsHandled.Inc()
		if c.Writer.Status() >= http.StatusInternalServerError {
			self.monitor.GetReport().Gateway.Errors.RequestFailed.Inc()
		}
	}
}

// Request body size and timeout. Requests in flight get cancelled when the server stops.
func (self *Server) withLimits() gin.HandlerFunc {
	return func(c *gin.Context) {
		if self.Config.Server.MaxBodySize > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, self.Config.Server.MaxBodySize)
		}

		ctx, cancel := onecontext.Merge(c.Request.Context(), self.Ctx)
		defer cancel()

		if self.Config.Server.RequestTimeout > 0 {
			var cancelTimeout context.CancelFunc
			ctx, cancelTimeout = context.WithTimeout(ctx, self.Config.Server.RequestTimeout)
			defer cancelTimeout()
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (self *Server) run() (err error) {
	self.Log.WithField("address", self.httpServer.Addr).Info("Starting REST server")
	err = self.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		self.Log.WithError(err).Error("Failed to start REST server")
		return
	}
	return nil
}

func (self *Server) stop() {
	ctx, cancel := context.WithTimeout(context.Background(), self.Config.StopTimeout)
	defer cancel()

	err := self.httpServer.Shutdown(ctx)
	if err != nil {
		self.Log.WithError(err).Error("Failed to gracefully shutdown REST server")
		return
	}
}
