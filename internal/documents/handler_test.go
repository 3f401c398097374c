package documents

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medvault/medvault/internal/platform/extract"
)

func multipartBody(t *testing.T, filename, docType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if docType != "" {
		if err := w.WriteField("document_type", docType); err != nil {
			t.Fatal(err)
		}
	}
	fw, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, w.FormDataContentType()
}

func newDocServer(extractor Extractor, recorder Recorder, store Store) *echo.Echo {
	e := echo.New()
	h := NewHandler(NewService(extractor, recorder, store, zerolog.Nop()))
	h.RegisterRoutes(e.Group("/api/v1"))
	return e
}

func TestIngestEndpoint(t *testing.T) {
	extractor := &mockExtractor{result: &extract.Result{
		Text:   "glucose 105 mg/dL",
		Fields: []extract.Field{{Name: "glucose", Value: "105", Unit: "mg/dL"}},
	}}
	recorder := &mockRecorder{}
	e := newDocServer(extractor, recorder, &mockDocStore{})

	body, ct := multipartBody(t, "labs.pdf", "lab_report", []byte("scan"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", body)
	req.Header.Set(echo.HeaderContentType, ct)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if extractor.gotType != extract.DocLabReport {
		t.Fatalf("document type = %q", extractor.gotType)
	}
	if len(recorder.vitals) != 1 {
		t.Fatalf("want 1 vital write, got %d", len(recorder.vitals))
	}

	var doc Document
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Filename != "labs.pdf" || doc.Applied != 1 {
		t.Fatalf("unexpected document: %+v", doc)
	}
}

func TestIngestEndpointMissingFile(t *testing.T) {
	e := newDocServer(&mockExtractor{}, &mockRecorder{}, &mockDocStore{})

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("document_type", "other")
	_ = w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestIngestEndpointInvalidType(t *testing.T) {
	e := newDocServer(&mockExtractor{}, &mockRecorder{}, &mockDocStore{})

	body, ct := multipartBody(t, "x.pdf", "diary", []byte("scan"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", body)
	req.Header.Set(echo.HeaderContentType, ct)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestListEndpoint(t *testing.T) {
	store := &mockDocStore{docs: []Document{{Filename: "labs.pdf"}}}
	e := newDocServer(&mockExtractor{}, &mockRecorder{}, store)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var docs []Document
	if err := json.Unmarshal(rec.Body.Bytes(), &docs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("want 1 document, got %d", len(docs))
	}
}
