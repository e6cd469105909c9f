package imageHandler

import (
	"strings"
	"time"

	"ImageTagger/internal/middleware"
	contextPkg "ImageTagger/pkg/context"
	"ImageTagger/pkg/log"
	"ImageTagger/pkg/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"golang.org/x/net/context"
)

const maxReadTimeout = 60 * time.Second

// handleWebSocket tags one image per text frame. Each frame carries an image
// URL and is answered with the extraction result, or {} when tagging fails.
func (h *ImageHandler) handleWebSocket(c *websocket.Conn) {
	requestID, _ := c.Locals(middleware.RequestIDKey).(string)
	logger := h.log.WithField("request_id", requestID)

	logger.Info("Image tagging WebSocket client connected")
	defer logger.Info("Image tagging WebSocket client disconnected")

	c.SetPingHandler(func(data string) error {
		if err := c.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(5*time.Second)); err != nil {
			logger.Errorf("Error sending pong: %v", err)
		}
		return nil
	})

	for {
		if err := c.SetReadDeadline(time.Now().Add(maxReadTimeout)); err != nil {
			logger.Errorf("Error setting read deadline: %v", err)
			break
		}

		messageType, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Errorf("Image tagging WebSocket error: %v", err)
			}
			break
		}

		if messageType != websocket.TextMessage {
			logger.Warnf("Received unexpected message type: %d", messageType)
			continue
		}

		reply := h.tagFrame(requestID, strings.TrimSpace(string(message)))

		if err := c.SetWriteDeadline(time.Now().Add(10 * time.Second)); err != nil {
			logger.Errorf("Error setting write deadline: %v", err)
			break
		}
		if err := c.WriteJSON(reply); err != nil {
			logger.Errorf("Error writing JSON response: %v", err)
			break
		}
	}
}

func (h *ImageHandler) tagFrame(requestID, imageURL string) interface{} {
	ctx, cancel := context.WithTimeout(contextPkg.WithRequestID(context.Background(), requestID), tagTimeout)
	defer cancel()

	if imageURL == "" {
		metrics.RecordExtraction(metrics.StatusMissingInput)
		return fiber.Map{}
	}

	result, err := h.imageService.TagImage(ctx, imageURL)
	if err != nil {
		log.WithRequestID(ctx).WithField("error", err.Error()).Warn("WebSocket frame could not be tagged")
		return fiber.Map{}
	}

	return result
}
