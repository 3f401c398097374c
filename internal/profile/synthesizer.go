package profile

import (
	"errors"
	"sort"
	"time"

	"github.com/medvault/medvault/internal/record"
)

// ErrProfileNotReady is returned when no patient identity has been set.
// An emergency profile without an identity is meaningless, so this is the
// one condition that aborts synthesis entirely.
var ErrProfileNotReady = errors.New("profile not ready: patient identity not set")

// Placeholders for optional entities that are absent. Missing optional data
// degrades gracefully; it never fails synthesis.
const (
	placeholderNotSet  = "Not Set"
	placeholderUnknown = "Unknown"
)

const (
	maxRecentVitals   = 10
	maxMajorSurgeries = 5
	recentVitalWindow = 72 * time.Hour
)

// Synthesize builds the emergency view from a snapshot. It is deterministic:
// the same snapshot and the same now always produce an identical view.
func Synthesize(snap *record.Snapshot, now time.Time) (*EmergencyView, error) {
	if snap.Identity == nil {
		return nil, ErrProfileNotReady
	}
	id := snap.Identity

	view := &EmergencyView{
		Patient: ViewPatient{
			Name:      id.Name,
			Age:       ageAt(id.DateOfBirth, now),
			DOB:       id.DateOfBirth.Format(dateLayout),
			BloodType: string(id.BloodType),
			Gender:    id.Gender,
			WeightKg:  id.WeightKg,
			HeightCm:  id.HeightCm,
		},
		CriticalAllergies:  filterAllergies(snap.Allergies),
		CurrentMedications: filterMedications(snap.Medications),
		Conditions:         filterConditions(snap.Conditions),
		Devices:            devicesOrEmpty(id.MedicalDevices),
		EmergencyContact:   contactOrPlaceholder(snap.Contact),
		Doctor:             doctorOrPlaceholder(id),
		RecentVitals:       filterVitals(snap.Vitals, now),
		MajorSurgeries:     recentSurgeries(snap.Surgeries),
		Directives:         id.AdvanceDirectives,
		Updated:            snap.TakenAt.UTC().Format(updatedLayout),
	}
	return view, nil
}

// ageAt computes whole years between dob and now, subtracting one when the
// birthday has not yet occurred this year.
func ageAt(dob, now time.Time) int {
	age := now.Year() - dob.Year()
	anniversary := time.Date(now.Year(), dob.Month(), dob.Day(), 0, 0, 0, 0, now.Location())
	if now.Before(anniversary) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}

// filterAllergies keeps critical and high severity entries in stored order.
func filterAllergies(allergies []record.Allergy) []ViewAllergy {
	out := []ViewAllergy{}
	for _, a := range allergies {
		if !a.Severity.Emergency() {
			continue
		}
		out = append(out, ViewAllergy{
			Substance: a.Substance,
			Reaction:  a.Reaction,
			Severity:  string(a.Severity),
		})
	}
	return out
}

// filterMedications keeps active rows, critical flag verbatim.
func filterMedications(meds []record.Medication) []ViewMedication {
	out := []ViewMedication{}
	for _, m := range meds {
		if !m.Active {
			continue
		}
		out = append(out, ViewMedication{
			Name:      m.Name,
			Dosage:    m.Dosage,
			Frequency: m.Frequency,
			Critical:  m.Critical,
		})
	}
	return out
}

func filterConditions(conds []record.MedicalCondition) []ViewCondition {
	out := []ViewCondition{}
	for _, c := range conds {
		if c.Status != record.ConditionActive {
			continue
		}
		out = append(out, ViewCondition{
			Condition: c.Name,
			Status:    string(c.Status),
			Severity:  string(c.Severity),
		})
	}
	return out
}

// filterVitals takes the ten most recent readings, then keeps only those
// that are abnormal or recorded within the recency window. Output is
// most-recent-first.
func filterVitals(vitals []record.VitalMetric, now time.Time) []ViewVital {
	sorted := make([]record.VitalMetric, len(vitals))
	copy(sorted, vitals)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].RecordedAt.After(sorted[j].RecordedAt)
	})
	if len(sorted) > maxRecentVitals {
		sorted = sorted[:maxRecentVitals]
	}

	cutoff := now.Add(-recentVitalWindow)
	out := []ViewVital{}
	for _, v := range sorted {
		if !v.Abnormal && !v.RecordedAt.After(cutoff) {
			continue
		}
		out = append(out, ViewVital{
			Type:     v.MetricType,
			Value:    v.Value,
			Unit:     v.Unit,
			Date:     v.RecordedAt.UTC().Format(dateLayout),
			Abnormal: v.Abnormal,
		})
	}
	return out
}

// recentSurgeries keeps the five most recent procedures, most recent first.
func recentSurgeries(surgeries []record.Surgery) []ViewSurgery {
	sorted := make([]record.Surgery, len(surgeries))
	copy(sorted, surgeries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.After(sorted[j].Date)
	})
	if len(sorted) > maxMajorSurgeries {
		sorted = sorted[:maxMajorSurgeries]
	}

	out := []ViewSurgery{}
	for _, s := range sorted {
		out = append(out, ViewSurgery{
			Procedure: s.Procedure,
			Date:      s.Date.Format(dateLayout),
			Implants:  s.ImplantsDevices,
		})
	}
	return out
}

// devicesOrEmpty keeps the encoded payload stable: an absent device list
// serializes as [] rather than null.
func devicesOrEmpty(devices []string) []string {
	if devices == nil {
		return []string{}
	}
	return devices
}

func contactOrPlaceholder(c *record.EmergencyContact) ViewContact {
	if c == nil {
		return ViewContact{
			Name:         placeholderNotSet,
			Phone:        placeholderNotSet,
			Relationship: placeholderUnknown,
		}
	}
	return ViewContact{
		Name:         c.Name,
		Phone:        c.Phone,
		Relationship: c.Relationship,
	}
}

func doctorOrPlaceholder(id *record.PatientIdentity) ViewDoctor {
	d := ViewDoctor{Name: placeholderNotSet, Phone: placeholderNotSet}
	if id.PrimaryDoctor != nil && *id.PrimaryDoctor != "" {
		d.Name = *id.PrimaryDoctor
	}
	if id.PrimaryDoctorPhone != nil && *id.PrimaryDoctorPhone != "" {
		d.Phone = *id.PrimaryDoctorPhone
	}
	return d
}
