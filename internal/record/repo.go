package record

import "context"

// Store is the persistence contract for the patient record. Mutations do not
// signal cache invalidation themselves; that is the Service's job so that
// every write path, regardless of backing store, produces the store-changed
// signal exactly once.
type Store interface {
	UpsertIdentity(ctx context.Context, id *PatientIdentity) error
	GetIdentity(ctx context.Context) (*PatientIdentity, error)

	AddAllergy(ctx context.Context, a *Allergy) error
	ListAllergies(ctx context.Context) ([]Allergy, error)

	AddMedication(ctx context.Context, m *Medication) error
	ListMedications(ctx context.Context) ([]Medication, error)

	AddCondition(ctx context.Context, c *MedicalCondition) error
	ListConditions(ctx context.Context) ([]MedicalCondition, error)

	AddSurgery(ctx context.Context, s *Surgery) error
	ListSurgeries(ctx context.Context) ([]Surgery, error)

	SetEmergencyContact(ctx context.Context, c *EmergencyContact) error
	GetEmergencyContact(ctx context.Context) (*EmergencyContact, error)

	AddVital(ctx context.Context, v *VitalMetric) error
	ListVitals(ctx context.Context, limit int) ([]VitalMetric, error)

	// Snapshot captures all entities inside one consistent transaction.
	// The returned snapshot is immutable once taken.
	Snapshot(ctx context.Context) (*Snapshot, error)
}
