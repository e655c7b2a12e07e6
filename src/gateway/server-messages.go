package gateway

import (
	"net/http"

	"github.com/blockwork-protocol/marketplace/src/conversations"
	"github.com/blockwork-protocol/marketplace/src/gateway/request"
	. "github.com/blockwork-protocol/marketplace/src/utils/logger"
	"github.com/blockwork-protocol/marketplace/src/utils/model"

	"github.com/gin-gonic/gin"
)

func (self *Server) onGetMessages() gin.HandlerFunc {
	return func(c *gin.Context) {
		messages, err := self.conversations.Messages(c.Request.Context(), c.Param("jobId"))
		if err != nil {
			LOGE(c, err, statusOf(err)).Debug("Failed to get messages")
			return
		}
		if messages == nil {
			messages = []model.Message{}
		}
		c.JSON(http.StatusOK, messages)
	}
}

func (self *Server) onGetConversations() gin.HandlerFunc {
	return func(c *gin.Context) {
		summaries, err := self.conversations.Summaries(c.Request.Context())
		if err != nil {
			LOGE(c, err, statusOf(err)).Error("Failed to get conversations")
			return
		}
		if summaries == nil {
			summaries = []*model.ConversationSummary{}
		}
		c.JSON(http.StatusOK, summaries)
	}
}

func (self *Server) onSendMessage() gin.HandlerFunc {
	return func(c *gin.Context) {
		var in request.SendMessage
		err := c.ShouldBindJSON(&in)
		if err != nil {
			LOGE(c, err, http.StatusBadRequest).Debug("Failed to parse request")
			return
		}

		message, err := self.conversations.Send(c.Request.Context(), &conversations.NewMessage{
			JobId:        in.JobId,
			SenderWallet: in.SenderWallet,
			Content:      in.Content,
			Attachment:   in.Attachment,
		})
		if err != nil {
			LOGE(c, err, statusOf(err)).Info("Failed to send message")
			return
		}

		c.JSON(http.StatusCreated, message)
	}
}
