package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"

	"go-tryon/internal/config"
	apperrors "go-tryon/internal/errors"
	"go-tryon/internal/logger"
	"go-tryon/internal/observer"
	"go-tryon/internal/service"
	"go-tryon/pkg/models"
)

// Version is reported by /health
const Version = "1.0.0"

type ErrorResponse = models.ErrorResponse

// Services are the use cases exposed over HTTP. Metrics may be nil.
type Services struct {
	SizeEstimation service.SizeEstimationService
	TryOn          service.TryOnService
	Sessions       service.CaptureSessionService
	Metrics        *observer.MetricsObserver
}

type captureURI struct {
	ID   string `uri:"id" binding:"required"`
	View string `uri:"view" binding:"required,capture_view"`
}

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func NewHandler(svc Services, cfg *config.Config) http.Handler {
	registerValidators()

	r := gin.New()
	r.Use(
		gin.Recovery(),
		requestID(),
		requestLogger(),
		rateLimiter(newClientLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)),
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	r.GET("/health", healthCheck)
	r.GET("/metrics", metrics(svc.Metrics))

	api := r.Group("/api")
	api.POST("/size-estimation/estimate", estimateSize(svc.SizeEstimation, cfg))
	api.POST("/tryon/render", renderTryOn(svc.TryOn, cfg))

	sessions := api.Group("/capture/sessions")
	sessions.POST("", createSession(svc.Sessions, cfg))
	sessions.GET("/:id", getSession(svc.Sessions, cfg))
	sessions.DELETE("/:id", deleteSession(svc.Sessions, cfg))
	sessions.POST("/:id/captures/:view", uploadCapture(svc.Sessions, cfg))
	sessions.POST("/:id/estimate", estimateSession(svc.Sessions, cfg))
	sessions.POST("/:id/reset", resetSession(svc.Sessions, cfg))

	return r
}

// requestContext detaches the request ID from the gin context, which is
// recycled once the handler returns.
func requestContext(c *gin.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx := logger.ContextWithRequestID(c.Request.Context(), c.GetString(logger.RequestIDKey))
	return context.WithTimeout(ctx, timeout)
}

// estimateSize answers with {error, detail} rather than the common error
// shape, since clients show the engine's message as-is.
func estimateSize(svc service.SizeEstimationService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c, cfg.RequestTimeout)
		defer cancel()

		var req models.SizeEstimationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			logger.WithContext(ctx).WithError(err).Warn("Invalid size estimation request")
			c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: bindingMessage(err)})
			return
		}

		result, err := svc.Estimate(ctx, req)
		if err != nil {
			code := determineStatusCode(err)
			resp := ErrorResponse{Error: "size estimation failed"}
			if appErr, ok := apperrors.As(err); ok && code < http.StatusInternalServerError {
				resp = ErrorResponse{Error: appErr.Message, Detail: appErr.Details}
			}
			logger.WithContext(ctx).WithError(err).WithField("status_code", code).Warn("Size estimation rejected")
			c.AbortWithStatusJSON(code, resp)
			return
		}

		logger.WithContext(ctx).WithFields(logrus.Fields{
			"size":       result.Recommended.Primary,
			"garment":    result.Recommended.GarmentType,
			"confidence": result.Recommended.Confidence,
		}).Info("Size estimation completed")
		c.JSON(http.StatusOK, result)
	}
}

func renderTryOn(svc service.TryOnService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c, cfg.AnalysisTimeout)
		defer cancel()

		data, err := formImage(c)
		if err != nil {
			respondError(c, determineStatusCode(err), "invalid image upload", err)
			return
		}

		req := service.RenderRequest{
			Image:     data,
			GarmentID: c.PostForm("garmentId"),
			Mirror:    formBool(c.PostForm("mirror")),
		}
		if raw := strings.TrimSpace(c.PostForm("garment")); raw != "" {
			var g models.GarmentDescriptor
			if err := json.UnmarshalFromString(raw, &g); err != nil {
				respondError(c, http.StatusBadRequest, "invalid garment descriptor",
					apperrors.NewValidationError("garment must be a JSON garment descriptor", err))
				return
			}
			req.Garment = &g
		}
		if raw := c.PostForm("sizeScale"); raw != "" {
			scale, err := strconv.ParseFloat(raw, 64)
			if err != nil || scale <= 0 {
				respondError(c, http.StatusBadRequest, "invalid size scale",
					apperrors.NewValidationError("sizeScale must be a positive number", err))
				return
			}
			req.SizeScale = scale
		}

		result, err := svc.Render(ctx, req)
		if err != nil {
			respondError(c, determineStatusCode(err), "render failed", err)
			return
		}

		c.Header("X-Fit-Ratio", strconv.FormatFloat(result.Layout.FitRatio, 'f', 3, 64))
		c.Header("X-Garment-Type", string(result.Layout.Type))
		c.Data(http.StatusOK, "image/png", result.PNG)
	}
}

func createSession(svc service.CaptureSessionService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c, cfg.RequestTimeout)
		defer cancel()

		session, err := svc.CreateSession(ctx)
		if err != nil {
			respondError(c, determineStatusCode(err), "failed to create capture session", err)
			return
		}
		c.JSON(http.StatusCreated, service.SessionView(session))
	}
}

func getSession(svc service.CaptureSessionService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c, cfg.RequestTimeout)
		defer cancel()

		session, err := svc.GetSession(ctx, c.Param("id"))
		if err != nil {
			respondError(c, determineStatusCode(err), "failed to load capture session", err)
			return
		}
		c.JSON(http.StatusOK, service.SessionView(session))
	}
}

func deleteSession(svc service.CaptureSessionService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c, cfg.RequestTimeout)
		defer cancel()

		if err := svc.DeleteSession(ctx, c.Param("id")); err != nil {
			respondError(c, determineStatusCode(err), "failed to delete capture session", err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// uploadCapture accepts a multipart still, or with ?source=live snapshots
// the in-process camera loop.
func uploadCapture(svc service.CaptureSessionService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c, cfg.AnalysisTimeout)
		defer cancel()

		var uri captureURI
		if err := c.ShouldBindUri(&uri); err != nil {
			respondError(c, http.StatusBadRequest, "invalid capture request",
				apperrors.NewValidationError(bindingMessage(err), err))
			return
		}
		view := models.CaptureView(uri.View)

		if strings.EqualFold(c.Query("source"), string(models.SourceLive)) {
			s, err := svc.CaptureLive(ctx, uri.ID, view)
			if err != nil {
				respondError(c, determineStatusCode(err), "capture failed", err)
				return
			}
			c.JSON(http.StatusOK, service.SessionView(s))
			return
		}

		data, err := formImage(c)
		if err != nil {
			respondError(c, determineStatusCode(err), "invalid image upload", err)
			return
		}
		s, err := svc.UploadCapture(ctx, uri.ID, view, data)
		if err != nil {
			respondError(c, determineStatusCode(err), "capture failed", err)
			return
		}
		c.JSON(http.StatusOK, service.SessionView(s))
	}
}

func estimateSession(svc service.CaptureSessionService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c, cfg.RequestTimeout)
		defer cancel()

		var req models.SessionEstimateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid estimate request",
				apperrors.NewValidationError(bindingMessage(err), err))
			return
		}

		session, err := svc.Estimate(ctx, c.Param("id"), req)
		if err != nil {
			respondError(c, determineStatusCode(err), "size estimation failed", err)
			return
		}
		c.JSON(http.StatusOK, service.SessionView(session))
	}
}

func resetSession(svc service.CaptureSessionService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c, cfg.RequestTimeout)
		defer cancel()

		session, err := svc.ResetSession(ctx, c.Param("id"))
		if err != nil {
			respondError(c, determineStatusCode(err), "failed to reset capture session", err)
			return
		}
		c.JSON(http.StatusOK, service.SessionView(session))
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": Version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func metrics(m *observer.MetricsObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.JSON(http.StatusOK, gin.H{})
			return
		}
		c.JSON(http.StatusOK, m.GetMetrics())
	}
}

// formImage reads the multipart "image" field.
func formImage(c *gin.Context) ([]byte, error) {
	fh, err := c.FormFile("image")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, err
		}
		return nil, apperrors.NewValidationError("multipart field \"image\" is required", err)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, apperrors.NewDecodeError("uploaded image could not be read", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, apperrors.NewDecodeError("uploaded image could not be read", err)
	}
	return data, nil
}

func formBool(v string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	return err == nil && b
}
