package documents

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/medvault/medvault/internal/platform/extract"
	"github.com/medvault/medvault/internal/record"
)

type mockExtractor struct {
	result *extract.Result
	err    error

	gotType extract.DocumentType
}

func (m *mockExtractor) Extract(ctx context.Context, content []byte, docType extract.DocumentType) (*extract.Result, error) {
	m.gotType = docType
	return m.result, m.err
}

type mockRecorder struct {
	meds   []record.Medication
	vitals []record.VitalMetric
	err    error
}

func (m *mockRecorder) AddMedication(ctx context.Context, med *record.Medication) error {
	if m.err != nil {
		return m.err
	}
	m.meds = append(m.meds, *med)
	return nil
}

func (m *mockRecorder) AddVital(ctx context.Context, v *record.VitalMetric) error {
	if m.err != nil {
		return m.err
	}
	m.vitals = append(m.vitals, *v)
	return nil
}

type mockDocStore struct {
	docs []Document
	err  error
}

func (m *mockDocStore) SaveDocument(ctx context.Context, d *Document) error {
	if m.err != nil {
		return m.err
	}
	m.docs = append(m.docs, *d)
	return nil
}

func (m *mockDocStore) ListDocuments(ctx context.Context) ([]Document, error) {
	return m.docs, m.err
}

func TestIngestPrescription(t *testing.T) {
	extractor := &mockExtractor{result: &extract.Result{
		Text: "Rx: Metformin 500mg twice daily",
		Fields: []extract.Field{
			{Name: "medication_name", Value: "Metformin"},
			{Name: "dosage", Value: "500mg"},
			{Name: "frequency", Value: "twice daily"},
			{Name: "prescribing_doctor", Value: "Dr. Smith"},
		},
	}}
	recorder := &mockRecorder{}
	store := &mockDocStore{}
	svc := NewService(extractor, recorder, store, zerolog.Nop())

	doc, err := svc.Ingest(context.Background(), "rx.jpg", []byte("scan"), extract.DocPrescription)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if len(recorder.meds) != 1 {
		t.Fatalf("want 1 medication, got %d", len(recorder.meds))
	}
	m := recorder.meds[0]
	if m.Name != "Metformin" || m.Dosage != "500mg" || m.PrescribingDoctor != "Dr. Smith" {
		t.Fatalf("unexpected medication: %+v", m)
	}
	if !m.Active {
		t.Fatal("ingested medications start active")
	}
	if doc.Applied != 1 {
		t.Fatalf("Applied = %d", doc.Applied)
	}
	if len(store.docs) != 1 || store.docs[0].Text == "" {
		t.Fatal("document with extracted text must be persisted")
	}
}

func TestIngestPrescriptionPartialScan(t *testing.T) {
	extractor := &mockExtractor{result: &extract.Result{
		Text:   "Rx: Metformin",
		Fields: []extract.Field{{Name: "medication_name", Value: "Metformin"}},
	}}
	recorder := &mockRecorder{}
	store := &mockDocStore{}
	svc := NewService(extractor, recorder, store, zerolog.Nop())

	doc, err := svc.Ingest(context.Background(), "rx.jpg", []byte("scan"), extract.DocPrescription)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if len(recorder.meds) != 1 || doc.Applied != 1 {
		t.Fatalf("want 1 medication applied, got %d/%d", len(recorder.meds), doc.Applied)
	}
	m := recorder.meds[0]
	if m.Dosage != "Unknown" || m.Frequency != "Unknown" || m.PrescribingDoctor != "Unknown" {
		t.Fatalf("missing fields must default to Unknown: %+v", m)
	}
	if len(store.docs) != 1 {
		t.Fatal("partial scans still persist the document")
	}
}

func TestIngestPrescriptionNoMedicationName(t *testing.T) {
	extractor := &mockExtractor{result: &extract.Result{
		Text:   "illegible",
		Fields: []extract.Field{{Name: "dosage", Value: "500mg"}},
	}}
	recorder := &mockRecorder{}
	svc := NewService(extractor, recorder, &mockDocStore{}, zerolog.Nop())

	doc, err := svc.Ingest(context.Background(), "rx.jpg", []byte("scan"), extract.DocPrescription)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if len(recorder.meds) != 0 || doc.Applied != 0 {
		t.Fatal("unrecognized prescriptions apply nothing")
	}
}

func TestIngestLabReport(t *testing.T) {
	extractor := &mockExtractor{result: &extract.Result{
		Fields: []extract.Field{
			{Name: "glucose", Value: "105", Unit: "mg/dL"},
			{Name: "hba1c", Value: "5.9", Unit: "%"},
			{Name: "", Value: "noise"},
		},
	}}
	recorder := &mockRecorder{}
	svc := NewService(extractor, recorder, &mockDocStore{}, zerolog.Nop())

	doc, err := svc.Ingest(context.Background(), "labs.pdf", []byte("scan"), extract.DocLabReport)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if len(recorder.vitals) != 2 || doc.Applied != 2 {
		t.Fatalf("want 2 vitals applied, got %d/%d", len(recorder.vitals), doc.Applied)
	}
	for _, v := range recorder.vitals {
		if v.Source != "lab_test" {
			t.Fatalf("vital source = %q, want lab_test", v.Source)
		}
	}
}

func TestIngestOtherTypeStoresOnly(t *testing.T) {
	extractor := &mockExtractor{result: &extract.Result{Text: "discharge summary"}}
	recorder := &mockRecorder{}
	store := &mockDocStore{}
	svc := NewService(extractor, recorder, store, zerolog.Nop())

	doc, err := svc.Ingest(context.Background(), "note.pdf", []byte("scan"), extract.DocOther)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if doc.Applied != 0 || len(store.docs) != 1 {
		t.Fatal("other documents are stored without record writes")
	}
}

func TestIngestEmptyDocument(t *testing.T) {
	svc := NewService(&mockExtractor{}, &mockRecorder{}, &mockDocStore{}, zerolog.Nop())
	_, err := svc.Ingest(context.Background(), "empty.jpg", nil, extract.DocOther)
	if !errors.Is(err, record.ErrValidation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}
}

func TestIngestExtractionFailure(t *testing.T) {
	boom := errors.New("service down")
	store := &mockDocStore{}
	svc := NewService(&mockExtractor{err: boom}, &mockRecorder{}, store, zerolog.Nop())

	if _, err := svc.Ingest(context.Background(), "rx.jpg", []byte("scan"), extract.DocPrescription); !errors.Is(err, boom) {
		t.Fatalf("want extraction error, got %v", err)
	}
	if len(store.docs) != 0 {
		t.Fatal("failed extraction must not persist a document")
	}
}

func TestIngestRecorderFailureSurfaces(t *testing.T) {
	extractor := &mockExtractor{result: &extract.Result{
		Fields: []extract.Field{{Name: "glucose", Value: "105", Unit: "mg/dL"}},
	}}
	svc := NewService(extractor, &mockRecorder{err: record.ErrStorage}, &mockDocStore{}, zerolog.Nop())

	_, err := svc.Ingest(context.Background(), "labs.pdf", []byte("scan"), extract.DocLabReport)
	if !errors.Is(err, record.ErrStorage) {
		t.Fatalf("want ErrStorage, got %v", err)
	}
}
