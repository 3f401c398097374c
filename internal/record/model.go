package record

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// BloodType is a closed ABO/Rh enumeration. Unknown is a legal value so an
// incomplete record can still carry a profile.
type BloodType string

const (
	BloodAPos    BloodType = "A+"
	BloodANeg    BloodType = "A-"
	BloodBPos    BloodType = "B+"
	BloodBNeg    BloodType = "B-"
	BloodABPos   BloodType = "AB+"
	BloodABNeg   BloodType = "AB-"
	BloodOPos    BloodType = "O+"
	BloodONeg    BloodType = "O-"
	BloodUnknown BloodType = "Unknown"
)

// ParseBloodType validates a blood type at the input boundary.
func ParseBloodType(s string) (BloodType, error) {
	switch BloodType(s) {
	case BloodAPos, BloodANeg, BloodBPos, BloodBNeg,
		BloodABPos, BloodABNeg, BloodOPos, BloodONeg, BloodUnknown:
		return BloodType(s), nil
	}
	return "", fmt.Errorf("%w: invalid blood type %q", ErrValidation, s)
}

// Severity ranks how dangerous an allergy or condition is.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityModerate Severity = "moderate"
	SeverityLow      Severity = "low"
)

// ParseSeverity validates a severity level at the input boundary.
func ParseSeverity(s string) (Severity, error) {
	switch Severity(s) {
	case SeverityCritical, SeverityHigh, SeverityModerate, SeverityLow:
		return Severity(s), nil
	}
	return "", fmt.Errorf("%w: invalid severity %q", ErrValidation, s)
}

// Emergency reports whether the severity warrants inclusion in the
// responder-facing profile.
func (s Severity) Emergency() bool {
	return s == SeverityCritical || s == SeverityHigh
}

// ConditionStatus is the lifecycle state of a medical condition.
type ConditionStatus string

const (
	ConditionActive   ConditionStatus = "active"
	ConditionManaged  ConditionStatus = "managed"
	ConditionResolved ConditionStatus = "resolved"
)

// ParseConditionStatus validates a condition status at the input boundary.
func ParseConditionStatus(s string) (ConditionStatus, error) {
	switch ConditionStatus(s) {
	case ConditionActive, ConditionManaged, ConditionResolved:
		return ConditionStatus(s), nil
	}
	return "", fmt.Errorf("%w: invalid condition status %q", ErrValidation, s)
}

// PatientIdentity is the singleton identity row. Mutated by full replace.
type PatientIdentity struct {
	Name              string     `db:"name" json:"name"`
	DateOfBirth       time.Time  `db:"date_of_birth" json:"date_of_birth"`
	BloodType         BloodType  `db:"blood_type" json:"blood_type"`
	Gender            string     `db:"gender" json:"gender"`
	WeightKg          *float64   `db:"weight_kg" json:"weight_kg,omitempty"`
	HeightCm          *float64   `db:"height_cm" json:"height_cm,omitempty"`
	PrimaryDoctor     *string    `db:"primary_doctor" json:"primary_doctor,omitempty"`
	PrimaryDoctorPhone *string   `db:"primary_doctor_phone" json:"primary_doctor_phone,omitempty"`
	MedicalDevices    []string   `db:"medical_devices" json:"medical_devices,omitempty"`
	AdvanceDirectives *string    `db:"advance_directives" json:"advance_directives,omitempty"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// Allergy maps to the allergy table. The substance is the upsert key.
type Allergy struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	Substance  string     `db:"substance" json:"substance"`
	Reaction   string     `db:"reaction" json:"reaction"`
	Severity   Severity   `db:"severity" json:"severity"`
	VerifiedAt *time.Time `db:"verified_at" json:"verified_at,omitempty"`
	Position   int        `db:"position" json:"-"`
}

// Medication maps to the medication table. Rows are append-only; the caller
// controls the active flag, there is no automatic deactivation of earlier
// rows with the same name.
type Medication struct {
	ID                uuid.UUID `db:"id" json:"id"`
	Name              string    `db:"name" json:"name"`
	Dosage            string    `db:"dosage" json:"dosage"`
	Frequency         string    `db:"frequency" json:"frequency"`
	PrescribingDoctor string    `db:"prescribing_doctor" json:"prescribing_doctor"`
	StartDate         time.Time `db:"start_date" json:"start_date"`
	Critical          bool      `db:"is_critical" json:"is_critical"`
	Active            bool      `db:"is_active" json:"is_active"`
	Notes             *string   `db:"notes" json:"notes,omitempty"`
}

// MedicalCondition maps to the medical_condition table.
type MedicalCondition struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	Name           string          `db:"name" json:"name"`
	DiagnosedDate  time.Time       `db:"diagnosed_date" json:"diagnosed_date"`
	Severity       Severity        `db:"severity" json:"severity"`
	Status         ConditionStatus `db:"status" json:"status"`
	TreatingDoctor *string         `db:"treating_doctor" json:"treating_doctor,omitempty"`
}

// Surgery maps to the surgery table.
type Surgery struct {
	ID              uuid.UUID `db:"id" json:"id"`
	Procedure       string    `db:"procedure" json:"procedure"`
	Date            time.Time `db:"date" json:"date"`
	Hospital        string    `db:"hospital" json:"hospital"`
	Complications   *string   `db:"complications" json:"complications,omitempty"`
	ImplantsDevices *string   `db:"implants_devices" json:"implants_devices,omitempty"`
}

// EmergencyContact is the singleton primary contact, replaced on update.
type EmergencyContact struct {
	Name           string  `db:"name" json:"name"`
	Relationship   string  `db:"relationship" json:"relationship"`
	Phone          string  `db:"phone" json:"phone"`
	AlternatePhone *string `db:"alternate_phone" json:"alternate_phone,omitempty"`
}

// VitalMetric is one reading in the append-only vitals log. Value is a string
// so composite formats like "120/80" survive verbatim.
type VitalMetric struct {
	ID         uuid.UUID `db:"id" json:"id"`
	MetricType string    `db:"metric_type" json:"metric_type"`
	Value      string    `db:"value" json:"value"`
	Unit       string    `db:"unit" json:"unit"`
	RecordedAt time.Time `db:"recorded_at" json:"recorded_at"`
	Source     string    `db:"source" json:"source"`
	Abnormal   bool      `db:"is_abnormal" json:"is_abnormal"`
}

// Snapshot is a consistent view of every entity the profile synthesizer
// needs, captured inside a single transaction. Identity and Contact are nil
// when the corresponding singleton row has not been set.
type Snapshot struct {
	Identity    *PatientIdentity
	Allergies   []Allergy
	Medications []Medication
	Conditions  []MedicalCondition
	Surgeries   []Surgery
	Contact     *EmergencyContact
	Vitals      []VitalMetric
	TakenAt     time.Time
}
