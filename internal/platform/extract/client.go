// Package extract wraps the external OCR/vision text-extraction service.
// The service is consumed as a black box: document bytes plus a type hint go
// in, structured fields come out. Failures surface to the caller unretried;
// retry policy belongs upstream.
package extract

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// DocumentType hints the extraction service about the document layout.
type DocumentType string

const (
	DocPrescription DocumentType = "prescription"
	DocLabReport    DocumentType = "lab_report"
	DocOther        DocumentType = "other"
)

// Field is a single structured field extracted from a document.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Unit  string `json:"unit,omitempty"`
}

// Result is the response of the extraction service.
type Result struct {
	Text   string  `json:"text"`
	Fields []Field `json:"fields"`
}

type extractRequest struct {
	DocumentType string `json:"document_type"`
	ContentB64   string `json:"content_base64"`
}

type extractResponse struct {
	Status string  `json:"status"`
	Error  string  `json:"error,omitempty"`
	Text   string  `json:"text"`
	Fields []Field `json:"fields"`
}

// Client calls the extraction service over HTTP.
type Client struct {
	httpClient *resty.Client
	logger     zerolog.Logger
}

// NewClient creates an extraction client for the given base URL. The timeout
// is generous because vision-model extraction of dense documents is slow.
func NewClient(baseURL, apiKey string, timeout time.Duration, logger zerolog.Logger) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}

	return &Client{httpClient: client, logger: logger}
}

// Extract sends the document to the extraction service and decodes the
// structured result. A non-2xx status or a service-side error status is
// returned as an error.
func (c *Client) Extract(ctx context.Context, content []byte, docType DocumentType) (*Result, error) {
	req := extractRequest{
		DocumentType: string(docType),
		ContentB64:   base64.StdEncoding.EncodeToString(content),
	}

	var out extractResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post("/v1/extract")
	if err != nil {
		return nil, fmt.Errorf("extract request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("extract service returned %s: %s", resp.Status(), resp.String())
	}
	if out.Status != "" && out.Status != "ok" {
		return nil, fmt.Errorf("extract service error: %s", out.Error)
	}

	c.logger.Debug().
		Str("document_type", string(docType)).
		Int("fields", len(out.Fields)).
		Msg("document extracted")

	return &Result{Text: out.Text, Fields: out.Fields}, nil
}
