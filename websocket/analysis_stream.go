package websocket

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"credcheck/logger"
	"credcheck/models"
	"credcheck/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	// In production, adjust the CheckOrigin function to allow only trusted origins.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const (
	MessageStage  = "stage"
	MessageResult = "result"
	MessageError  = "error"

	requestReadTimeout = 30 * time.Second
	writeTimeout       = 10 * time.Second

	defaultMaxUploadBytes = 10 << 20
)

// StreamAnalyzer runs the pipeline and reports each stage as it completes.
type StreamAnalyzer interface {
	AnalyzeWithObserver(ctx context.Context, in models.AnalysisInput, observe services.StageObserver) models.AnalysisResult
}

// StreamRequest is the single message a client sends after connecting.
type StreamRequest struct {
	Text               string `json:"text"`
	ImageURL           string `json:"image_url"`
	ImageBase64        string `json:"image_base64"`
	ImageSourceContext string `json:"image_source_context"`
}

type StreamMessage struct {
	Type    string                 `json:"type"`
	Stage   services.Stage         `json:"stage,omitempty"`
	Detail  any                    `json:"detail,omitempty"`
	Result  *models.AnalysisResult `json:"result,omitempty"`
	Summary string                 `json:"summary,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

// AnalysisStreamHandler upgrades to a WebSocket, reads one StreamRequest,
// streams a stage message per pipeline step and finishes with the result.
func AnalysisStreamHandler(analyzer StreamAnalyzer, maxUploadBytes int64, log *zap.Logger) gin.HandlerFunc {
	log = logger.OrNop(log)
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	readLimit := streamReadLimit(maxUploadBytes)

	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Warn("WebSocket upgrade failed", zap.Error(err))
			return
		}
		defer conn.Close()

		conn.SetReadLimit(readLimit)
		conn.SetReadDeadline(time.Now().Add(requestReadTimeout))

		send := func(msg StreamMessage) error {
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			return conn.WriteJSON(msg)
		}

		var req StreamRequest
		if err := conn.ReadJSON(&req); err != nil {
			log.Debug("Invalid stream request", zap.Error(err))
			send(StreamMessage{Type: MessageError, Error: "Invalid analysis request."})
			return
		}

		in, msg := streamInput(req, maxUploadBytes)
		if msg != "" {
			send(StreamMessage{Type: MessageError, Error: msg})
			return
		}

		ctx := context.WithoutCancel(c.Request.Context())
		result := analyzer.AnalyzeWithObserver(ctx, in, func(stage services.Stage, detail any) {
			if err := send(StreamMessage{Type: MessageStage, Stage: stage, Detail: detail}); err != nil {
				log.Debug("Dropped stage update", zap.String("stage", string(stage)), zap.Error(err))
			}
		})

		if err := send(StreamMessage{
			Type:    MessageResult,
			Result:  &result,
			Summary: services.ExplainSignals(result.LinguisticAnalysis, result.ImageAnalysis),
		}); err != nil {
			log.Warn("Failed to send analysis result", zap.Error(err))
			return
		}
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "analysis complete"),
			time.Now().Add(time.Second))
	}
}

// streamReadLimit is the largest request frame accepted for an upload cap.
// base64 inflates by 4/3; leave room for the other fields.
func streamReadLimit(maxUploadBytes int64) int64 {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return maxUploadBytes*4/3 + 64<<10
}

// streamInput validates req and returns the pipeline input, or a
// user-facing error message.
func streamInput(req StreamRequest, maxUploadBytes int64) (models.AnalysisInput, string) {
	var image []byte
	if req.ImageBase64 != "" {
		encoded := req.ImageBase64
		// Accept data URLs as produced by FileReader.readAsDataURL.
		if i := strings.Index(encoded, ","); strings.HasPrefix(encoded, "data:") && i >= 0 {
			encoded = encoded[i+1:]
		}
		data, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return models.AnalysisInput{}, "image_base64 is not valid base64."
		}
		if maxUploadBytes > 0 && int64(len(data)) > maxUploadBytes {
			return models.AnalysisInput{}, fmt.Sprintf("Image file exceeds the %d byte limit.", maxUploadBytes)
		}
		if len(data) > 0 && !services.IsImage(data) {
			return models.AnalysisInput{}, "Uploaded file is not a supported image."
		}
		image = data
	}

	in := models.AnalysisInput{
		Text:       req.Text,
		ImageBytes: image,
		ImageURL:   strings.TrimSpace(req.ImageURL),
		Provenance: models.ParseProvenance(req.ImageSourceContext),
	}
	if in.Empty() {
		return models.AnalysisInput{}, "Please provide text, an image URL, or upload an image file."
	}
	return in, ""
}
