package controllers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"credcheck/logger"
	"credcheck/models"
	"credcheck/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	errNoContent      = "Please provide text, an image URL, or upload an image file."
	errNotAnImage     = "Uploaded file is not a supported image."
	multipartOverhead = 1 << 20
)

// Analyzer runs the credibility pipeline for one request.
type Analyzer interface {
	Analyze(ctx context.Context, in models.AnalysisInput) models.AnalysisResult
}

type AnalyzeRequest struct {
	Text               string `json:"text" form:"text"`
	ImageURL           string `json:"image_url" form:"image_url"`
	ImageSourceContext string `json:"image_source_context" form:"image_source_context"`
}

type AnalysisController struct {
	analyzer       Analyzer
	maxUploadBytes int64
	logger         *zap.Logger
}

func NewAnalysisController(analyzer Analyzer, maxUploadBytes int64, log *zap.Logger) *AnalysisController {
	return &AnalysisController{
		analyzer:       analyzer,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.OrNop(log),
	}
}

// Analyze accepts multipart/form-data (with an optional image_file) or a
// JSON body and returns the merged analysis result.
func (ac *AnalysisController) Analyze(c *gin.Context) {
	var (
		req   AnalyzeRequest
		image []byte
	)

	if c.ContentType() == gin.MIMEJSON {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}
	} else {
		if ac.maxUploadBytes > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, ac.maxUploadBytes+multipartOverhead)
		}
		if err := c.ShouldBind(&req); err != nil {
			ac.rejectForm(c, err)
			return
		}
		data, status, err := ac.readUpload(c)
		if err != nil {
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		image = data
	}

	req.ImageURL = strings.TrimSpace(req.ImageURL)
	if req.Text == "" && req.ImageURL == "" && len(image) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": errNoContent})
		return
	}

	in := models.AnalysisInput{
		Text:       req.Text,
		ImageBytes: image,
		ImageURL:   req.ImageURL,
		Provenance: models.ParseProvenance(req.ImageSourceContext),
	}
	ac.logger.Info("Analyzing content",
		zap.Bool("has_text", in.Text != ""),
		zap.Bool("has_image_url", in.ImageURL != ""),
		zap.Int("image_bytes", len(in.ImageBytes)),
		zap.String("provenance", string(in.Provenance)),
	)

	// Analysis runs to completion even if the client goes away.
	ctx := context.WithoutCancel(c.Request.Context())
	c.JSON(http.StatusOK, ac.analyzer.Analyze(ctx, in))
}

func (ac *AnalysisController) rejectForm(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": ac.tooLargeMessage()})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid form data: " + err.Error()})
}

func (ac *AnalysisController) tooLargeMessage() string {
	return fmt.Sprintf("Image file exceeds the %d byte limit.", ac.maxUploadBytes)
}

// readUpload returns the image_file bytes, nil when no file (or an empty
// one) was sent.
func (ac *AnalysisController) readUpload(c *gin.Context) ([]byte, int, error) {
	file, header, err := c.Request.FormFile("image_file")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, 0, nil
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, http.StatusRequestEntityTooLarge, errors.New(ac.tooLargeMessage())
		}
		return nil, http.StatusBadRequest, fmt.Errorf("Invalid image upload: %v", err)
	}
	defer file.Close()

	if ac.maxUploadBytes > 0 && header.Size > ac.maxUploadBytes {
		return nil, http.StatusRequestEntityTooLarge, errors.New(ac.tooLargeMessage())
	}

	reader := io.Reader(file)
	if ac.maxUploadBytes > 0 {
		reader = io.LimitReader(file, ac.maxUploadBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("Invalid image upload: %v", err)
	}
	if ac.maxUploadBytes > 0 && int64(len(data)) > ac.maxUploadBytes {
		return nil, http.StatusRequestEntityTooLarge, errors.New(ac.tooLargeMessage())
	}
	if len(data) == 0 {
		return nil, 0, nil
	}
	if !services.IsImage(data) {
		return nil, http.StatusUnsupportedMediaType, errors.New(errNotAnImage)
	}
	return data, 0, nil
}
