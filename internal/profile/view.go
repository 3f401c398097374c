// Package profile builds the responder-facing emergency view from a record
// snapshot. Synthesis is a pure function: same snapshot and clock in, same
// view out, byte for byte.
package profile

import "encoding/json"

// Date layouts used in the encoded payload. The compact forms keep the
// optical-code payload small.
const (
	dateLayout    = "2006-01-02"
	updatedLayout = "2006-01-02 15:04"
)

// ViewPatient is the identity block of the emergency view.
type ViewPatient struct {
	Name      string   `json:"name"`
	Age       int      `json:"age"`
	DOB       string   `json:"dob"`
	BloodType string   `json:"blood_type"`
	Gender    string   `json:"gender"`
	WeightKg  *float64 `json:"weight_kg,omitempty"`
	HeightCm  *float64 `json:"height_cm,omitempty"`
}

// ViewAllergy is a high-severity allergy entry.
type ViewAllergy struct {
	Substance string `json:"substance"`
	Reaction  string `json:"reaction"`
	Severity  string `json:"severity"`
}

// ViewMedication is an active medication entry.
type ViewMedication struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage"`
	Frequency string `json:"frequency"`
	Critical  bool   `json:"critical"`
}

// ViewCondition is an active condition entry.
type ViewCondition struct {
	Condition string `json:"condition"`
	Status    string `json:"status"`
	Severity  string `json:"severity"`
}

// ViewContact is the primary emergency contact block.
type ViewContact struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Relationship string `json:"relationship"`
}

// ViewDoctor is the primary doctor block.
type ViewDoctor struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// ViewVital is one recent or abnormal reading.
type ViewVital struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Unit     string `json:"unit"`
	Date     string `json:"date"`
	Abnormal bool   `json:"abnormal"`
}

// ViewSurgery is a recent procedure entry.
type ViewSurgery struct {
	Procedure string  `json:"procedure"`
	Date      string  `json:"date"`
	Implants  *string `json:"implants,omitempty"`
}

// EmergencyView is the reduced, prioritized projection of the patient record.
// Field order here IS the canonical JSON key order: encoding/json emits
// struct fields in declaration order, which makes CanonicalJSON reproducible
// without any post-processing.
type EmergencyView struct {
	Patient            ViewPatient      `json:"patient"`
	CriticalAllergies  []ViewAllergy    `json:"critical_allergies"`
	CurrentMedications []ViewMedication `json:"current_medications"`
	Conditions         []ViewCondition  `json:"conditions"`
	Devices            []string         `json:"devices"`
	EmergencyContact   ViewContact      `json:"emergency_contact"`
	Doctor             ViewDoctor       `json:"doctor"`
	RecentVitals       []ViewVital      `json:"recent_vitals"`
	MajorSurgeries     []ViewSurgery    `json:"major_surgeries"`
	Directives         *string          `json:"directives,omitempty"`
	Updated            string           `json:"updated"`
}

// CanonicalJSON serializes the view compactly with stable key order and no
// insignificant whitespace.
func (v *EmergencyView) CanonicalJSON() ([]byte, error) {
	return json.Marshal(v)
}
