package record

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.PUT("/identity", h.UpsertIdentity)
	api.GET("/identity", h.GetIdentity)
	api.POST("/allergies", h.AddAllergy)
	api.POST("/medications", h.AddMedication)
	api.POST("/conditions", h.AddCondition)
	api.POST("/surgeries", h.AddSurgery)
	api.POST("/vitals", h.AddVital)
	api.PUT("/emergency-contact", h.SetEmergencyContact)
	api.GET("/snapshot", h.GetSnapshot)
}

// httpError maps domain errors onto HTTP status codes.
func httpError(err error) error {
	switch {
	case errors.Is(err, ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrStorage):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

// parseDate accepts bare dates and full RFC 3339 timestamps.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

type identityRequest struct {
	Name               string   `json:"name"`
	DateOfBirth        string   `json:"date_of_birth"`
	BloodType          string   `json:"blood_type"`
	Gender             string   `json:"gender"`
	WeightKg           *float64 `json:"weight_kg"`
	HeightCm           *float64 `json:"height_cm"`
	PrimaryDoctor      *string  `json:"primary_doctor"`
	PrimaryDoctorPhone *string  `json:"primary_doctor_phone"`
	MedicalDevices     []string `json:"medical_devices"`
	AdvanceDirectives  *string  `json:"advance_directives"`
}

func (h *Handler) UpsertIdentity(c echo.Context) error {
	var req identityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	dob, err := parseDate(req.DateOfBirth)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid date_of_birth")
	}
	bt, err := ParseBloodType(req.BloodType)
	if err != nil {
		return httpError(err)
	}

	id := &PatientIdentity{
		Name:               req.Name,
		DateOfBirth:        dob,
		BloodType:          bt,
		Gender:             req.Gender,
		WeightKg:           req.WeightKg,
		HeightCm:           req.HeightCm,
		PrimaryDoctor:      req.PrimaryDoctor,
		PrimaryDoctorPhone: req.PrimaryDoctorPhone,
		MedicalDevices:     req.MedicalDevices,
		AdvanceDirectives:  req.AdvanceDirectives,
	}
	if err := h.svc.UpsertIdentity(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, id)
}

func (h *Handler) GetIdentity(c echo.Context) error {
	id, err := h.svc.store.GetIdentity(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, id)
}

type allergyRequest struct {
	Substance string `json:"substance"`
	Reaction  string `json:"reaction"`
	Severity  string `json:"severity"`
}

func (h *Handler) AddAllergy(c echo.Context) error {
	var req allergyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	sev, err := ParseSeverity(req.Severity)
	if err != nil {
		return httpError(err)
	}
	a := &Allergy{Substance: req.Substance, Reaction: req.Reaction, Severity: sev}
	if err := h.svc.AddAllergy(c.Request().Context(), a); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, a)
}

type medicationRequest struct {
	Name              string  `json:"name"`
	Dosage            string  `json:"dosage"`
	Frequency         string  `json:"frequency"`
	PrescribingDoctor string  `json:"prescribing_doctor"`
	StartDate         string  `json:"start_date"`
	Critical          bool    `json:"is_critical"`
	Active            *bool   `json:"is_active"`
	Notes             *string `json:"notes"`
}

func (h *Handler) AddMedication(c echo.Context) error {
	var req medicationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	m := &Medication{
		Name:              req.Name,
		Dosage:            req.Dosage,
		Frequency:         req.Frequency,
		PrescribingDoctor: req.PrescribingDoctor,
		Critical:          req.Critical,
		Active:            true,
		Notes:             req.Notes,
	}
	if req.Active != nil {
		m.Active = *req.Active
	}
	if req.StartDate != "" {
		d, err := parseDate(req.StartDate)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid start_date")
		}
		m.StartDate = d
	}
	if err := h.svc.AddMedication(c.Request().Context(), m); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, m)
}

type conditionRequest struct {
	Name           string  `json:"name"`
	DiagnosedDate  string  `json:"diagnosed_date"`
	Severity       string  `json:"severity"`
	Status         string  `json:"status"`
	TreatingDoctor *string `json:"treating_doctor"`
}

func (h *Handler) AddCondition(c echo.Context) error {
	var req conditionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	sev, err := ParseSeverity(req.Severity)
	if err != nil {
		return httpError(err)
	}
	status, err := ParseConditionStatus(req.Status)
	if err != nil {
		return httpError(err)
	}
	diagnosed, err := parseDate(req.DiagnosedDate)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid diagnosed_date")
	}

	cond := &MedicalCondition{
		Name:           req.Name,
		DiagnosedDate:  diagnosed,
		Severity:       sev,
		Status:         status,
		TreatingDoctor: req.TreatingDoctor,
	}
	if err := h.svc.AddCondition(c.Request().Context(), cond); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, cond)
}

type surgeryRequest struct {
	Procedure       string  `json:"procedure"`
	Date            string  `json:"date"`
	Hospital        string  `json:"hospital"`
	Complications   *string `json:"complications"`
	ImplantsDevices *string `json:"implants_devices"`
}

func (h *Handler) AddSurgery(c echo.Context) error {
	var req surgeryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	date, err := parseDate(req.Date)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid date")
	}
	sg := &Surgery{
		Procedure:       req.Procedure,
		Date:            date,
		Hospital:        req.Hospital,
		Complications:   req.Complications,
		ImplantsDevices: req.ImplantsDevices,
	}
	if err := h.svc.AddSurgery(c.Request().Context(), sg); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, sg)
}

type vitalRequest struct {
	MetricType string `json:"metric_type"`
	Value      string `json:"value"`
	Unit       string `json:"unit"`
	Source     string `json:"source"`
	Abnormal   bool   `json:"is_abnormal"`
	RecordedAt string `json:"recorded_at"`
}

func (h *Handler) AddVital(c echo.Context) error {
	var req vitalRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	v := &VitalMetric{
		MetricType: req.MetricType,
		Value:      req.Value,
		Unit:       req.Unit,
		Source:     req.Source,
		Abnormal:   req.Abnormal,
	}
	if req.RecordedAt != "" {
		at, err := parseDate(req.RecordedAt)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid recorded_at")
		}
		v.RecordedAt = at
	}
	if err := h.svc.AddVital(c.Request().Context(), v); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, v)
}

type contactRequest struct {
	Name           string  `json:"name"`
	Relationship   string  `json:"relationship"`
	Phone          string  `json:"phone"`
	AlternatePhone *string `json:"alternate_phone"`
}

func (h *Handler) SetEmergencyContact(c echo.Context) error {
	var req contactRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	contact := &EmergencyContact{
		Name:           req.Name,
		Relationship:   req.Relationship,
		Phone:          req.Phone,
		AlternatePhone: req.AlternatePhone,
	}
	if err := h.svc.SetEmergencyContact(c.Request().Context(), contact); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, contact)
}

func (h *Handler) GetSnapshot(c echo.Context) error {
	snap, err := h.svc.Snapshot(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, snap)
}
