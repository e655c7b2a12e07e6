package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/blockwork-protocol/marketplace/src/gateway/request"
	. "github.com/blockwork-protocol/marketplace/src/utils/logger"
	"github.com/blockwork-protocol/marketplace/src/utils/model"

	"github.com/gin-gonic/gin"
)

// Parses the body into In and responds with the user returned by update
func onUpdateUser[In any](update func(ctx context.Context, in *In) (*model.User, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		in := new(In)
		err := c.ShouldBindJSON(in)
		if err != nil {
			LOGE(c, err, http.StatusBadRequest).Debug("Failed to parse request")
			return
		}

		user, err := update(c.Request.Context(), in)
		if err != nil {
			LOGE(c, err, statusOf(err)).Info("Failed to update user")
			return
		}

		c.JSON(http.StatusOK, user)
	}
}

func (self *Server) onCreateOrGetUser() gin.HandlerFunc {
	return onUpdateUser(func(ctx context.Context, in *request.Wallet) (*model.User, error) {
		return self.profiles.CreateOrGet(ctx, in.WalletAddress)
	})
}

func (self *Server) onGetUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := self.profiles.Get(c.Request.Context(), c.Param("walletAddress"))
		if err != nil {
			LOGE(c, err, statusOf(err)).Debug("Failed to get user")
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

func (self *Server) onUpdateName() gin.HandlerFunc {
	return onUpdateUser(func(ctx context.Context, in *request.UpdateName) (*model.User, error) {
		return self.profiles.UpdateName(ctx, in.WalletAddress, in.UserName)
	})
}

func (self *Server) onUpdateRate() gin.HandlerFunc {
	return onUpdateUser(func(ctx context.Context, in *request.UpdateRate) (*model.User, error) {
		return self.profiles.UpdateRate(ctx, in.WalletAddress, in.HourlyRate)
	})
}

func (self *Server) onUpdateJob() gin.HandlerFunc {
	return onUpdateUser(func(ctx context.Context, in *request.UpdateJob) (*model.User, error) {
		return self.profiles.UpdateJob(ctx, in.WalletAddress, in.JobTitle, in.JobDescription)
	})
}

func (self *Server) onUpdateJobDescription() gin.HandlerFunc {
	return onUpdateUser(func(ctx context.Context, in *request.UpdateJob) (*model.User, error) {
		return self.profiles.UpdateJobDescription(ctx, in.WalletAddress, in.JobDescription)
	})
}

func (self *Server) onUpdateBio() gin.HandlerFunc {
	return onUpdateUser(func(ctx context.Context, in *request.UpdateBio) (*model.User, error) {
		return self.profiles.UpdateBio(ctx, in.WalletAddress, in.Bio)
	})
}

func (self *Server) onUpdateSkills() gin.HandlerFunc {
	return onUpdateUser(func(ctx context.Context, in *request.UpdateSkills) (*model.User, error) {
		return self.profiles.UpdateSkills(ctx, in.WalletAddress, in.Skills)
	})
}

func (self *Server) onUpdateLanguage() gin.HandlerFunc {
	return onUpdateUser(func(ctx context.Context, in *request.UpdateLanguage) (*model.User, error) {
		return self.profiles.UpdateLanguage(ctx, in.WalletAddress, model.Language{
			Language:    in.Language,
			Proficiency: in.Proficiency,
		})
	})
}

func (self *Server) onUpdateEducation() gin.HandlerFunc {
	return onUpdateUser(func(ctx context.Context, in *request.UpdateEducation) (*model.User, error) {
		return self.profiles.UpdateEducation(ctx, in.WalletAddress, model.Education{
			School: in.School,
			Degree: in.Degree,
		})
	})
}

func (self *Server) onUpdateWorkHistory() gin.HandlerFunc {
	return onUpdateUser(func(ctx context.Context, in *request.UpdateWorkHistory) (*model.User, error) {
		entry := model.WorkHistoryEntry{
			JobTitle:    in.JobTitle,
			Company:     in.Company,
			EndDate:     in.EndDate,
			Description: in.Description,
		}
		if in.StartDate != nil {
			entry.StartDate = in.StartDate.UTC().Truncate(time.Millisecond)
		}
		return self.profiles.UpsertWorkHistory(ctx, in.WalletAddress, entry)
	})
}

func (self *Server) onDeleteWorkHistory() gin.HandlerFunc {
	return onUpdateUser(func(ctx context.Context, in *request.DeleteWorkHistory) (*model.User, error) {
		return self.profiles.DeleteWorkHistory(ctx, in.WalletAddress, in.WorkHistoryId)
	})
}

func (self *Server) onUpdatePortfolio() gin.HandlerFunc {
	return onUpdateUser(func(ctx context.Context, in *request.UpdatePortfolio) (*model.User, error) {
		return self.profiles.AddPortfolio(ctx, in.WalletAddress, model.PortfolioEntry{
			Title:       in.Title,
			Role:        in.Role,
			Description: in.Description,
			Skills:      in.Skills,
			Content:     in.Content,
		})
	})
}

func (self *Server) onDeletePortfolio() gin.HandlerFunc {
	return onUpdateUser(func(ctx context.Context, in *request.DeletePortfolio) (*model.User, error) {
		return self.profiles.DeletePortfolio(ctx, in.WalletAddress, in.PortfolioId)
	})
}

func (self *Server) onUploadAvatar() gin.HandlerFunc {
	return onUpdateUser(func(ctx context.Context, in *request.UploadAvatar) (*model.User, error) {
		return self.profiles.UpdateAvatar(ctx, in.WalletAddress, in.AvatarData)
	})
}
