// Package webhook serves the signed publish intake along with health and metrics endpoints.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"TrendingPress/internal/domain"
	"TrendingPress/internal/metrics"
	"TrendingPress/internal/ports"
	"TrendingPress/internal/publish"
)

const (
	TimestampHeader = "X-Timestamp"
	SignatureHeader = "X-Signature"

	maxBodyBytes = 1 << 20
)

// Handler accepts signed publish requests and enqueues them as queued outcomes.
type Handler struct {
	secret   []byte
	maxSkew  time.Duration
	outcomes  ports.PublishRepository
	platforms *publish.Registry
	logger    *slog.Logger
	now       func() time.Time
}

// NewHandler builds the intake handler. An empty secret makes every request fail with 500.
func NewHandler(secret string, maxSkew time.Duration, outcomes ports.PublishRepository, logger *slog.Logger) *Handler {
	if maxSkew <= 0 {
		maxSkew = 300 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		secret:   []byte(secret),
		maxSkew:  maxSkew,
		outcomes: outcomes,
		logger:   logger.With("component", "webhook"),
		now:      time.Now,
	}
}

// WithPlatforms restricts intake to platforms with a configured publisher.
func (h *Handler) WithPlatforms(platforms *publish.Registry) *Handler {
	h.platforms = platforms
	return h
}

type publishRequest struct {
	Article struct {
		ID string `json:"id"`
	} `json:"article"`
	Platform string `json:"platform"`
}

// Publish verifies timestamp and signature before any side effect.
func (h *Handler) Publish(c echo.Context) error {
	if len(h.secret) == 0 {
		return h.reject(c, http.StatusInternalServerError, "webhook secret not configured")
	}

	ts, _ := strconv.ParseInt(strings.TrimSpace(c.Request().Header.Get(TimestampHeader)), 10, 64)
	skew := h.now().Sub(time.Unix(ts, 0))
	if skew < 0 {
		skew = -skew
	}
	if skew > h.maxSkew {
		return h.reject(c, http.StatusUnauthorized, "timestamp skew")
	}

	raw, err := io.ReadAll(io.LimitReader(c.Request().Body, maxBodyBytes))
	if err != nil {
		return h.reject(c, http.StatusBadRequest, "unreadable request body")
	}
	if len(raw) == 0 {
		return h.reject(c, http.StatusBadRequest, "empty request body")
	}

	if !h.verify(ts, raw, c.Request().Header.Get(SignatureHeader)) {
		return h.reject(c, http.StatusUnauthorized, "bad signature")
	}

	var req publishRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return h.reject(c, http.StatusBadRequest, "invalid JSON")
	}
	if strings.TrimSpace(req.Article.ID) == "" {
		return h.reject(c, http.StatusBadRequest, "missing article.id")
	}
	if req.Platform == "" {
		return h.reject(c, http.StatusBadRequest, "missing platform")
	}
	platform, ok := domain.ParsePlatform(req.Platform)
	if !ok {
		return h.reject(c, http.StatusBadRequest, "unknown platform")
	}
	if h.platforms != nil {
		if _, err := h.platforms.Resolve(platform); err != nil {
			return h.reject(c, http.StatusBadRequest, "platform not configured")
		}
	}

	outcome := domain.PublishOutcome{
		ID:        uuid.NewString(),
		ArticleID: req.Article.ID,
		Platform:  platform,
		Status:    domain.PublishQueued,
		CreatedAt: h.now().UTC(),
	}
	if err := h.outcomes.RecordOutcome(c.Request().Context(), outcome); err != nil {
		h.logger.Error("enqueue publish failed", "article", req.Article.ID, "platform", platform, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]any{"ok": false, "error": err.Error()})
	}

	metrics.RecordPublish(string(platform), string(domain.PublishQueued))
	h.logger.Info("publish queued", "article", req.Article.ID, "platform", platform)
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

// Health reports liveness.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) verify(ts int64, body []byte, signature string) bool {
	provided, err := hex.DecodeString(strings.ToLower(strings.TrimSpace(signature)))
	if err != nil {
		return false
	}
	return hmac.Equal(mac(h.secret, ts, body), provided)
}

func (h *Handler) reject(c echo.Context, status int, reason string) error {
	h.logger.Warn("webhook rejected", "status", status, "reason", reason, "remote", c.RealIP())
	return c.JSON(status, map[string]string{"error": reason})
}

// sign returns the hex HMAC-SHA256 of "<ts>.<body>" that callers put in X-Signature.
func sign(secret string, ts int64, body []byte) string {
	return hex.EncodeToString(mac([]byte(secret), ts, body))
}

func mac(secret []byte, ts int64, body []byte) []byte {
	m := hmac.New(sha256.New, secret)
	m.Write([]byte(strconv.FormatInt(ts, 10)))
	m.Write([]byte("."))
	m.Write(body)
	return m.Sum(nil)
}
