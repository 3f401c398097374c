package documents

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medvault/medvault/internal/platform/extract"
	"github.com/medvault/medvault/internal/record"
)

// Extractor is the extraction-service boundary; extract.Client satisfies it.
type Extractor interface {
	Extract(ctx context.Context, content []byte, docType extract.DocumentType) (*extract.Result, error)
}

// Recorder is the slice of the record service ingestion writes through.
// Going through the service, not the store, keeps validation and cache
// invalidation on the ingestion path.
type Recorder interface {
	AddMedication(ctx context.Context, m *record.Medication) error
	AddVital(ctx context.Context, v *record.VitalMetric) error
}

// Store persists ingested documents.
type Store interface {
	SaveDocument(ctx context.Context, d *Document) error
	ListDocuments(ctx context.Context) ([]Document, error)
}

// Service runs the ingestion pipeline: extract, persist, apply.
type Service struct {
	extractor Extractor
	recorder  Recorder
	store     Store
	logger    zerolog.Logger
}

func NewService(extractor Extractor, recorder Recorder, store Store, logger zerolog.Logger) *Service {
	return &Service{extractor: extractor, recorder: recorder, store: store, logger: logger}
}

// Ingest extracts the document and writes recognized fields through to the
// record. Extraction failure aborts; per-field write failures abort too so
// the caller sees a partial apply rather than silent loss.
func (s *Service) Ingest(ctx context.Context, filename string, content []byte, docType extract.DocumentType) (*Document, error) {
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: document is empty", record.ErrValidation)
	}

	res, err := s.extractor.Extract(ctx, content, docType)
	if err != nil {
		return nil, fmt.Errorf("extract document: %w", err)
	}

	doc := &Document{
		ID:           uuid.New(),
		DocumentType: docType,
		Filename:     filename,
		SizeBytes:    len(content),
		Text:         res.Text,
		Fields:       res.Fields,
		CapturedAt:   time.Now().UTC(),
	}

	applied, err := s.apply(ctx, docType, res.Fields)
	if err != nil {
		return nil, err
	}
	doc.Applied = applied

	if err := s.store.SaveDocument(ctx, doc); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("document_type", string(docType)).
		Int("fields", len(res.Fields)).
		Int("applied", applied).
		Msg("document ingested")
	return doc, nil
}

func (s *Service) apply(ctx context.Context, docType extract.DocumentType, fields []extract.Field) (int, error) {
	switch docType {
	case extract.DocPrescription:
		return s.applyPrescription(ctx, fields)
	case extract.DocLabReport:
		return s.applyLabReport(ctx, fields)
	default:
		// Other document types are kept for reference only.
		return 0, nil
	}
}

// applyPrescription maps the field set onto one medication row. A scan
// without a recognizable medication name is stored but applies nothing.
func (s *Service) applyPrescription(ctx context.Context, fields []extract.Field) (int, error) {
	byName := map[string]string{}
	for _, f := range fields {
		byName[f.Name] = f.Value
	}
	if byName["medication_name"] == "" {
		return 0, nil
	}

	m := &record.Medication{
		Name:              byName["medication_name"],
		Dosage:            byName["dosage"],
		Frequency:         byName["frequency"],
		PrescribingDoctor: byName["prescribing_doctor"],
		Active:            true,
	}
	// Extraction may only find the name; fill the rest so a partial scan
	// still lands in the record instead of failing validation.
	if m.Dosage == "" {
		m.Dosage = "Unknown"
	}
	if m.Frequency == "" {
		m.Frequency = "Unknown"
	}
	if m.PrescribingDoctor == "" {
		m.PrescribingDoctor = "Unknown"
	}
	if err := s.recorder.AddMedication(ctx, m); err != nil {
		return 0, err
	}
	return 1, nil
}

// applyLabReport writes each measured field as a vital reading.
func (s *Service) applyLabReport(ctx context.Context, fields []extract.Field) (int, error) {
	applied := 0
	for _, f := range fields {
		if f.Name == "" || f.Value == "" {
			continue
		}
		v := &record.VitalMetric{
			MetricType: f.Name,
			Value:      f.Value,
			Unit:       f.Unit,
			Source:     "lab_test",
		}
		if v.Unit == "" {
			v.Unit = "n/a"
		}
		if err := s.recorder.AddVital(ctx, v); err != nil {
			return applied, err
		}
		applied++
	}
	return applied, nil
}

// List returns stored documents, newest first.
func (s *Service) List(ctx context.Context) ([]Document, error) {
	return s.store.ListDocuments(ctx)
}
