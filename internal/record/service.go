package record

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Invalidator receives the store-changed signal after every successful
// mutation. The encoder's artifact cache registers here.
type Invalidator interface {
	Invalidate()
}

// InvalidatorFunc is a function adapter for Invalidator.
type InvalidatorFunc func()

func (f InvalidatorFunc) Invalidate() { f() }

// Service validates mutations, delegates to the Store, and notifies
// invalidation hooks synchronously so no read after a write can observe a
// stale derived artifact.
type Service struct {
	store  Store
	hooks  []Invalidator
	logger zerolog.Logger
}

func NewService(store Store, logger zerolog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// OnChange registers a hook to be notified after every successful mutation.
func (s *Service) OnChange(inv Invalidator) {
	s.hooks = append(s.hooks, inv)
}

func (s *Service) notifyChanged() {
	for _, h := range s.hooks {
		h.Invalidate()
	}
}

// UpsertIdentity replaces the singleton patient identity.
func (s *Service) UpsertIdentity(ctx context.Context, id *PatientIdentity) error {
	if id.Name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if id.DateOfBirth.IsZero() {
		return fmt.Errorf("%w: date_of_birth is required", ErrValidation)
	}
	if id.DateOfBirth.After(time.Now()) {
		return fmt.Errorf("%w: date_of_birth is in the future", ErrValidation)
	}
	if id.Gender == "" {
		return fmt.Errorf("%w: gender is required", ErrValidation)
	}
	if _, err := ParseBloodType(string(id.BloodType)); err != nil {
		return err
	}

	if err := s.store.UpsertIdentity(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Msg("patient identity updated")
	s.notifyChanged()
	return nil
}

// AddAllergy records an allergy, replacing any existing entry for the same
// substance.
func (s *Service) AddAllergy(ctx context.Context, a *Allergy) error {
	if a.Substance == "" {
		return fmt.Errorf("%w: substance is required", ErrValidation)
	}
	if a.Reaction == "" {
		return fmt.Errorf("%w: reaction is required", ErrValidation)
	}
	if _, err := ParseSeverity(string(a.Severity)); err != nil {
		return err
	}
	if a.VerifiedAt == nil {
		now := time.Now().UTC()
		a.VerifiedAt = &now
	}

	if err := s.store.AddAllergy(ctx, a); err != nil {
		return err
	}
	s.logger.Info().Str("substance", a.Substance).Str("severity", string(a.Severity)).Msg("allergy recorded")
	s.notifyChanged()
	return nil
}

// AddMedication appends a medication row. The caller controls the active
// flag; earlier rows with the same name are never deactivated automatically.
func (s *Service) AddMedication(ctx context.Context, m *Medication) error {
	if m.Name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if m.Dosage == "" {
		return fmt.Errorf("%w: dosage is required", ErrValidation)
	}
	if m.Frequency == "" {
		return fmt.Errorf("%w: frequency is required", ErrValidation)
	}
	if m.PrescribingDoctor == "" {
		return fmt.Errorf("%w: prescribing_doctor is required", ErrValidation)
	}
	if m.StartDate.IsZero() {
		m.StartDate = time.Now().UTC()
	}

	if err := s.store.AddMedication(ctx, m); err != nil {
		return err
	}
	s.logger.Info().Str("name", m.Name).Bool("critical", m.Critical).Msg("medication recorded")
	s.notifyChanged()
	return nil
}

// AddCondition records a diagnosed medical condition.
func (s *Service) AddCondition(ctx context.Context, c *MedicalCondition) error {
	if c.Name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if c.DiagnosedDate.IsZero() {
		return fmt.Errorf("%w: diagnosed_date is required", ErrValidation)
	}
	if _, err := ParseSeverity(string(c.Severity)); err != nil {
		return err
	}
	if _, err := ParseConditionStatus(string(c.Status)); err != nil {
		return err
	}

	if err := s.store.AddCondition(ctx, c); err != nil {
		return err
	}
	s.logger.Info().Str("condition", c.Name).Str("status", string(c.Status)).Msg("condition recorded")
	s.notifyChanged()
	return nil
}

// AddSurgery records a past procedure.
func (s *Service) AddSurgery(ctx context.Context, sg *Surgery) error {
	if sg.Procedure == "" {
		return fmt.Errorf("%w: procedure is required", ErrValidation)
	}
	if sg.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrValidation)
	}
	if sg.Hospital == "" {
		return fmt.Errorf("%w: hospital is required", ErrValidation)
	}

	if err := s.store.AddSurgery(ctx, sg); err != nil {
		return err
	}
	s.logger.Info().Str("procedure", sg.Procedure).Msg("surgery recorded")
	s.notifyChanged()
	return nil
}

// SetEmergencyContact replaces the singleton primary contact.
func (s *Service) SetEmergencyContact(ctx context.Context, c *EmergencyContact) error {
	if c.Name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if c.Relationship == "" {
		return fmt.Errorf("%w: relationship is required", ErrValidation)
	}
	if c.Phone == "" {
		return fmt.Errorf("%w: phone is required", ErrValidation)
	}

	if err := s.store.SetEmergencyContact(ctx, c); err != nil {
		return err
	}
	s.logger.Info().Msg("emergency contact updated")
	s.notifyChanged()
	return nil
}

// AddVital appends one reading to the vitals log.
func (s *Service) AddVital(ctx context.Context, v *VitalMetric) error {
	if v.MetricType == "" {
		return fmt.Errorf("%w: metric_type is required", ErrValidation)
	}
	if v.Value == "" {
		return fmt.Errorf("%w: value is required", ErrValidation)
	}
	if v.Unit == "" {
		return fmt.Errorf("%w: unit is required", ErrValidation)
	}
	if v.Source == "" {
		v.Source = "manual"
	}

	if err := s.store.AddVital(ctx, v); err != nil {
		return err
	}
	s.logger.Debug().Str("type", v.MetricType).Bool("abnormal", v.Abnormal).Msg("vital recorded")
	s.notifyChanged()
	return nil
}

// Snapshot returns a consistent view of the whole record.
func (s *Service) Snapshot(ctx context.Context) (*Snapshot, error) {
	return s.store.Snapshot(ctx)
}
