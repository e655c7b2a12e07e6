package gateway

import (
	. "github.com/blockwork-protocol/marketplace/src/utils/logger"

	"github.com/gin-gonic/gin"
	"nhooyr.io/websocket"
)

func (self *Server) onSocket() gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
			OriginPatterns: self.Config.Gateway.OriginPatterns,
		})
		if err != nil {
			// Accept already wrote the response
			LOG(c).WithError(err).Debug("Websocket handshake failed")
			return
		}

		defer conn.Close(websocket.StatusNormalClosure, "")

		err = self.hub.Serve(c.Request.Context(), conn, c.QueryArray("jobId")...)
		if err != nil {
			LOG(c).WithError(err).Debug("Websocket closed")
		}
	}
}
