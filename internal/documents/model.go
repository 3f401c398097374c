// Package documents ingests scanned medical documents: raw bytes go to the
// extraction service, recognized fields write through to the patient record.
package documents

import (
	"time"

	"github.com/google/uuid"

	"github.com/medvault/medvault/internal/platform/extract"
)

// Document is one ingested scan with its extraction output.
type Document struct {
	ID           uuid.UUID            `json:"id"`
	DocumentType extract.DocumentType `json:"document_type"`
	Filename     string               `json:"filename"`
	SizeBytes    int                  `json:"size_bytes"`
	Text         string               `json:"text"`
	Fields       []extract.Field      `json:"fields"`
	Applied      int                  `json:"applied_records"`
	CapturedAt   time.Time            `json:"captured_at"`
}
