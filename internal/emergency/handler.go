// Package emergency is the HTTP surface for responder-facing output: the
// synthesized view, the rendered QR code, and the printable text card.
package emergency

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medvault/medvault/internal/encoder"
	"github.com/medvault/medvault/internal/export"
	"github.com/medvault/medvault/internal/profile"
	"github.com/medvault/medvault/internal/record"
)

// ArtifactSource serves the cached rendered code. The encoder cache
// satisfies it.
type ArtifactSource interface {
	Get(ctx context.Context) ([]byte, error)
}

type Handler struct {
	svc   *profile.Service
	cache ArtifactSource
}

func NewHandler(svc *profile.Service, cache ArtifactSource) *Handler {
	return &Handler{svc: svc, cache: cache}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/emergency/view", h.GetView)
	api.GET("/emergency/qr", h.GetQR)
	api.GET("/emergency/qr/base64", h.GetQRBase64)
	api.GET("/emergency/text", h.GetText)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, profile.ErrProfileNotReady):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, encoder.ErrPayloadTooLarge):
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, encoder.ErrRenderTimeout):
		return echo.NewHTTPError(http.StatusGatewayTimeout, err.Error())
	case errors.Is(err, record.ErrStorage):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

// GetView returns the synthesized emergency view as JSON.
func (h *Handler) GetView(c echo.Context) error {
	view, err := h.svc.View(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, view)
}

// GetQR serves the rendered code, from cache when fresh.
func (h *Handler) GetQR(c echo.Context) error {
	png, err := h.cache.Get(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.Blob(http.StatusOK, "image/png", png)
}

// GetQRBase64 serves the rendered code base64-encoded for inline embedding.
// Both image routes read through the cache so a burst of readers shares one
// render.
func (h *Handler) GetQRBase64(c echo.Context) error {
	png, err := h.cache.Get(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"content_type": "image/png",
		"data":         base64.StdEncoding.EncodeToString(png),
	})
}

// GetText serves the printable plain-text card.
func (h *Handler) GetText(c echo.Context) error {
	view, err := h.svc.View(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.String(http.StatusOK, export.RenderText(view))
}
