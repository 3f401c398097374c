package documents

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medvault/medvault/internal/platform/extract"
	"github.com/medvault/medvault/internal/record"
)

// maxUploadBytes caps a single document upload.
const maxUploadBytes = 10 << 20

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/documents", h.Ingest)
	api.GET("/documents", h.List)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, record.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, record.ErrStorage):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
}

func parseDocumentType(s string) (extract.DocumentType, error) {
	switch extract.DocumentType(s) {
	case extract.DocPrescription, extract.DocLabReport, extract.DocOther:
		return extract.DocumentType(s), nil
	case "":
		return extract.DocOther, nil
	}
	return "", errors.New("invalid document_type")
}

// Ingest accepts a multipart upload with a "file" part and an optional
// "document_type" form value.
func (h *Handler) Ingest(c echo.Context) error {
	docType, err := parseDocumentType(c.FormValue("document_type"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing file part")
	}
	if fh.Size > maxUploadBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "document exceeds upload limit")
	}

	f, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	doc, err := h.svc.Ingest(c.Request().Context(), fh.Filename, content, docType)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, doc)
}

func (h *Handler) List(c echo.Context) error {
	docs, err := h.svc.List(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, docs)
}
