package gateway

import (
	"net/http"

	"github.com/blockwork-protocol/marketplace/src/gateway/request"
	"github.com/blockwork-protocol/marketplace/src/gateway/response"
	"github.com/blockwork-protocol/marketplace/src/jobs"
	. "github.com/blockwork-protocol/marketplace/src/utils/logger"
	"github.com/blockwork-protocol/marketplace/src/utils/model"

	"github.com/gin-gonic/gin"
)

func (self *Server) onListJobs() gin.HandlerFunc {
	return func(c *gin.Context) {
		var in request.ListJobs
		err := c.ShouldBindQuery(&in)
		if err != nil {
			LOGE(c, err, http.StatusBadRequest).Debug("Failed to parse query")
			return
		}

		page, err := self.jobs.List(c.Request.Context(), in.Page, in.Limit)
		if err != nil {
			LOGE(c, err, statusOf(err)).Error("Failed to list jobs")
			return
		}
		page.Jobs = response.Jobs(page.Jobs)

		c.JSON(http.StatusOK, page)
	}
}

func (self *Server) onListPosted() gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := self.jobs.ListByPoster(c.Request.Context(), c.Param("walletAddress"))
		if err != nil {
			LOGE(c, err, statusOf(err)).Error("Failed to list posted jobs")
			return
		}
		c.JSON(http.StatusOK, response.Jobs(out))
	}
}

func (self *Server) onListApplied() gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := self.jobs.ListByApplicant(c.Request.Context(), c.Param("walletAddress"))
		if err != nil {
			LOGE(c, err, statusOf(err)).Error("Failed to list applied jobs")
			return
		}
		c.JSON(http.StatusOK, response.Jobs(out))
	}
}

func (self *Server) onCreateJob() gin.HandlerFunc {
	return func(c *gin.Context) {
		var in request.CreateJob
		err := c.ShouldBindJSON(&in)
		if err != nil {
			LOGE(c, err, http.StatusBadRequest).Debug("Failed to parse request")
			return
		}

		job, err := self.jobs.Create(c.Request.Context(), &jobs.NewJob{
			Title:              in.Title,
			Description:        in.Description,
			Budget:             in.Budget,
			Skills:             in.Tags,
			JobType:            model.JobType(in.JobType),
			ExperienceLevel:    model.ExperienceLevel(in.ExperienceLevel),
			Responsibilities:   in.Responsibilities,
			Requirements:       in.Requirements,
			Logo:               in.Logo,
			Banner:             in.Banner,
			ClientLocation:     in.ClientLocation,
			PaymentVerified:    in.PaymentVerified,
			PosterWallet:       in.WalletAddress,
			SmartContractJobId: in.SmartContractJobId,
		})
		if err != nil {
			LOGE(c, err, statusOf(err)).Info("Failed to create job")
			return
		}

		LOG(c).WithField("id", job.Id).Debug("Job created")
		c.JSON(http.StatusCreated, job)
	}
}

func (self *Server) onGetJob() gin.HandlerFunc {
	return func(c *gin.Context) {
		job, err := self.jobs.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			LOGE(c, err, statusOf(err)).Debug("Failed to get job")
			return
		}
		c.JSON(http.StatusOK, job)
	}
}

func (self *Server) onApply() gin.HandlerFunc {
	return func(c *gin.Context) {
		var in request.Apply
		err := c.ShouldBindJSON(&in)
		if err != nil {
			LOGE(c, err, http.StatusBadRequest).Debug("Failed to parse request")
			return
		}

		job, err := self.jobs.Apply(c.Request.Context(), &jobs.NewApplication{
			JobId:           in.JobId,
			ApplicantId:     in.UserId,
			ApplicantName:   in.UserName,
			CoverLetter:     in.CoverLetter,
			ApplicantWallet: in.WalletAddress,
		})
		if err != nil {
			LOGE(c, err, statusOf(err)).Info("Failed to apply")
			return
		}

		c.JSON(http.StatusOK, response.Job{
			Message: "Application submitted successfully.",
			Job:     job,
		})
	}
}

func (self *Server) onApprove() gin.HandlerFunc {
	return func(c *gin.Context) {
		var in request.Applicant
		err := c.ShouldBindJSON(&in)
		if err != nil {
			LOGE(c, err, http.StatusBadRequest).Debug("Failed to parse request")
			return
		}

		job, conversation, err := self.jobs.Approve(c.Request.Context(), c.Param("id"), in.UserId)
		if err != nil {
			LOGE(c, err, statusOf(err)).Info("Failed to approve application")
			return
		}

		c.JSON(http.StatusOK, response.Approve{
			Message:      "Application approved and conversation created",
			Job:          job,
			Conversation: conversation,
		})
	}
}

func (self *Server) onDecline() gin.HandlerFunc {
	return func(c *gin.Context) {
		var in request.Applicant
		err := c.ShouldBindJSON(&in)
		if err != nil {
			LOGE(c, err, http.StatusBadRequest).Debug("Failed to parse request")
			return
		}

		job, err := self.jobs.Decline(c.Request.Context(), c.Param("id"), in.UserId)
		if err != nil {
			LOGE(c, err, statusOf(err)).Info("Failed to decline application")
			return
		}

		c.JSON(http.StatusOK, response.Job{Message: "Application declined", Job: job})
	}
}

func (self *Server) onReassign() gin.HandlerFunc {
	return func(c *gin.Context) {
		var in request.Reassign
		err := c.ShouldBindJSON(&in)
		if err != nil {
			LOGE(c, err, http.StatusBadRequest).Debug("Failed to parse request")
			return
		}

		job, err := self.jobs.Reassign(c.Request.Context(), c.Param("id"), in.NewApplicantWallet)
		if err != nil {
			LOGE(c, err, statusOf(err)).Info("Failed to reassign job")
			return
		}

		c.JSON(http.StatusOK, response.Job{Message: "Applicant reassigned successfully", Job: job})
	}
}

func (self *Server) onComplete() gin.HandlerFunc {
	return func(c *gin.Context) {
		job, err := self.jobs.Complete(c.Request.Context(), c.Param("externalId"))
		if err != nil {
			LOGE(c, err, statusOf(err)).Info("Failed to complete job")
			return
		}

		c.JSON(http.StatusOK, response.Job{
			Message: "Application marked as complete and job marked as completed.",
			Job:     job,
		})
	}
}

func (self *Server) onRefund() gin.HandlerFunc {
	return func(c *gin.Context) {
		job, err := self.jobs.Refund(c.Request.Context(), c.Param("externalId"))
		if err != nil {
			LOGE(c, err, statusOf(err)).Info("Failed to refund job")
			return
		}

		c.JSON(http.StatusOK, response.Job{Message: "Job refunded", Job: job})
	}
}
