package documents

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medvault/medvault/internal/platform/extract"
	"github.com/medvault/medvault/internal/record"
)

// storePG persists ingested documents. Raw document bytes are not stored,
// only the extraction output; the original stays with the capture device.
type storePG struct {
	pool *pgxpool.Pool
}

func NewStorePG(pool *pgxpool.Pool) Store {
	return &storePG{pool: pool}
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", record.ErrStorage, op, err)
}

func (s *storePG) SaveDocument(ctx context.Context, d *Document) error {
	fields, err := json.Marshal(d.Fields)
	if err != nil {
		return fmt.Errorf("encode fields: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO document (id, document_type, filename, size_bytes, extracted_text, fields, applied_records, captured_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		d.ID, string(d.DocumentType), d.Filename, d.SizeBytes, d.Text, fields, d.Applied, d.CapturedAt)
	if err != nil {
		return storageErr("save document", err)
	}
	return nil
}

func (s *storePG) ListDocuments(ctx context.Context) ([]Document, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, document_type, filename, size_bytes, extracted_text, fields, applied_records, captured_at
		FROM document
		ORDER BY captured_at DESC`)
	if err != nil {
		return nil, storageErr("list documents", err)
	}
	defer rows.Close()

	out := []Document{}
	for rows.Next() {
		var d Document
		var docType string
		var fields []byte
		if err := rows.Scan(&d.ID, &docType, &d.Filename, &d.SizeBytes, &d.Text, &fields, &d.Applied, &d.CapturedAt); err != nil {
			return nil, storageErr("scan document", err)
		}
		d.DocumentType = extract.DocumentType(docType)
		if len(fields) > 0 {
			if err := json.Unmarshal(fields, &d.Fields); err != nil {
				return nil, fmt.Errorf("decode fields: %w", err)
			}
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list documents", err)
	}
	return out, nil
}
