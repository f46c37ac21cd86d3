package pose

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"

	apperrors "go-tryon/internal/errors"
	"go-tryon/internal/logger"
	"go-tryon/pkg/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	modeVideo = "video"
	modeImage = "image"
)

type detectRequest struct {
	Mode                   string  `json:"mode"`
	TimestampMs            int64   `json:"timestampMs,omitempty"`
	NumPoses               int     `json:"numPoses"`
	MinDetectionConfidence float64 `json:"minDetectionConfidence"`
	Frame                  string  `json:"frame"`
}

type detectResponse struct {
	Poses []models.LandmarkSet `json:"poses"`
	Error string               `json:"error,omitempty"`
}

// RemoteDetector talks to a pose detection service over a websocket. Requests
// are serialized on a single connection which is redialed after a failure.
type RemoteDetector struct {
	url          string
	cfg          Config
	dialer       *websocket.Dialer
	mu           sync.Mutex
	conn         *websocket.Conn
	writeTimeout time.Duration
}

// NewRemoteDetector creates a detector client. The connection is opened lazily.
func NewRemoteDetector(url string, cfg Config) *RemoteDetector {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	return &RemoteDetector{
		url:          url,
		cfg:          cfg,
		dialer:       &dialer,
		writeTimeout: 5 * time.Second,
	}
}

func (d *RemoteDetector) DetectVideo(ctx context.Context, frame image.Image, timestamp time.Duration) ([]models.LandmarkSet, error) {
	return d.detect(ctx, modeVideo, frame, timestamp)
}

func (d *RemoteDetector) DetectImage(ctx context.Context, img image.Image) ([]models.LandmarkSet, error) {
	return d.detect(ctx, modeImage, img, 0)
}

func (d *RemoteDetector) detect(ctx context.Context, mode string, img image.Image, timestamp time.Duration) ([]models.LandmarkSet, error) {
	if img == nil {
		return nil, apperrors.NewInputUnavailableError("no frame to analyze", nil)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return nil, apperrors.NewProcessingError("failed to encode frame", err)
	}
	payload, err := json.Marshal(detectRequest{
		Mode:                   mode,
		TimestampMs:            timestamp.Milliseconds(),
		NumPoses:               d.cfg.NumPoses,
		MinDetectionConfidence: d.cfg.MinDetectionConfidence,
		Frame:                  base64.StdEncoding.EncodeToString(buf.Bytes()),
	})
	if err != nil {
		return nil, apperrors.NewInternalError("failed to encode detector request", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	conn, err := d.connect(ctx)
	if err != nil {
		return nil, apperrors.NewInputUnavailableError("pose detector unreachable", err)
	}

	deadline := time.Now().Add(d.cfg.Timeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}

	conn.SetWriteDeadline(time.Now().Add(d.writeTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		d.drop()
		return nil, apperrors.NewInputUnavailableError("pose detector connection lost", err)
	}

	conn.SetReadDeadline(deadline)
	// Cancellation cuts the read short instead of waiting out the deadline.
	stop := context.AfterFunc(ctx, func() { conn.SetReadDeadline(time.Now()) })
	_, message, err := conn.ReadMessage()
	stop()
	if err != nil {
		d.drop()
		if ctx.Err() != nil {
			return nil, apperrors.NewTimeoutError("pose detection cancelled", ctx.Err())
		}
		return nil, apperrors.NewInputUnavailableError("pose detector connection lost", err)
	}
	if ctx.Err() != nil {
		d.drop()
		return nil, apperrors.NewTimeoutError("pose detection cancelled", ctx.Err())
	}
	conn.SetReadDeadline(time.Time{})
	conn.SetWriteDeadline(time.Time{})

	var resp detectResponse
	if err := json.Unmarshal(message, &resp); err != nil {
		return nil, apperrors.NewProcessingError("invalid detector response", err)
	}
	if resp.Error != "" {
		return nil, apperrors.NewInputUnavailableError("detector reported an error", fmt.Errorf("%s", resp.Error))
	}

	logger.WithFields(logrus.Fields{
		"mode":  mode,
		"poses": len(resp.Poses),
	}).Debug("Pose detection completed")

	return resp.Poses, nil
}

// connect must be called with d.mu held.
func (d *RemoteDetector) connect(ctx context.Context) (*websocket.Conn, error) {
	if d.conn != nil {
		return d.conn, nil
	}
	if d.url == "" {
		return nil, fmt.Errorf("detector URL not configured")
	}

	logger.WithField("url", d.url).Info("Connecting to pose detector")
	conn, _, err := d.dialer.DialContext(ctx, d.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", d.url, err)
	}
	conn.SetPingHandler(func(appData string) error {
		if err := conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(d.writeTimeout)); err != nil {
			logger.WithError(err).Warn("Error sending pong to pose detector")
		}
		return nil
	})
	d.conn = conn
	return conn, nil
}

// drop must be called with d.mu held.
func (d *RemoteDetector) drop() {
	if d.conn != nil {
		d.conn.Close()
		d.conn = nil
	}
}

// Close closes the connection, if any.
func (d *RemoteDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.conn == nil {
		return nil
	}
	err := d.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(d.writeTimeout))
	d.conn.Close()
	d.conn = nil
	return err
}
