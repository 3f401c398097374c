package record

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medvault/medvault/internal/platform/phi"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// storePG is the Postgres-backed Store. Identity and contact PHI fields are
// encrypted at rest when an encryptor is configured.
type storePG struct {
	pool      *pgxpool.Pool
	encryptor phi.FieldEncryptor
}

// NewStorePG creates a Postgres store. encryptor may be nil, in which case
// fields are stored in plaintext (development mode).
func NewStorePG(pool *pgxpool.Pool, encryptor phi.FieldEncryptor) Store {
	return &storePG{pool: pool, encryptor: encryptor}
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStorage, op, err)
}

// encryptField encrypts a nullable field, passing nil through unchanged.
// Empty strings are preserved as-is so absence stays distinguishable.
func (s *storePG) encryptField(v *string) (*string, error) {
	if v == nil || s.encryptor == nil || *v == "" {
		return v, nil
	}
	ct, err := s.encryptor.Encrypt(*v)
	if err != nil {
		return nil, err
	}
	return &ct, nil
}

func (s *storePG) decryptField(v *string) (*string, error) {
	if v == nil || s.encryptor == nil || *v == "" {
		return v, nil
	}
	pt, err := s.encryptor.Decrypt(*v)
	if err != nil {
		return nil, err
	}
	return &pt, nil
}

func (s *storePG) encryptString(v string) (string, error) {
	out, err := s.encryptField(&v)
	if err != nil {
		return "", err
	}
	return *out, nil
}

func (s *storePG) decryptString(v string) (string, error) {
	out, err := s.decryptField(&v)
	if err != nil {
		return "", err
	}
	return *out, nil
}

// -- Identity (singleton row id=1) --

func (s *storePG) UpsertIdentity(ctx context.Context, id *PatientIdentity) error {
	return s.upsertIdentity(ctx, s.pool, id)
}

func (s *storePG) upsertIdentity(ctx context.Context, q queryable, id *PatientIdentity) error {
	name, err := s.encryptString(id.Name)
	if err != nil {
		return fmt.Errorf("encrypt name: %w", err)
	}
	directives, err := s.encryptField(id.AdvanceDirectives)
	if err != nil {
		return fmt.Errorf("encrypt directives: %w", err)
	}

	_, err = q.Exec(ctx, `
		INSERT INTO patient_identity (id, name, date_of_birth, blood_type, gender,
			weight_kg, height_cm, primary_doctor, primary_doctor_phone,
			medical_devices, advance_directives, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			date_of_birth = EXCLUDED.date_of_birth,
			blood_type = EXCLUDED.blood_type,
			gender = EXCLUDED.gender,
			weight_kg = EXCLUDED.weight_kg,
			height_cm = EXCLUDED.height_cm,
			primary_doctor = EXCLUDED.primary_doctor,
			primary_doctor_phone = EXCLUDED.primary_doctor_phone,
			medical_devices = EXCLUDED.medical_devices,
			advance_directives = EXCLUDED.advance_directives,
			updated_at = NOW()`,
		name, id.DateOfBirth, id.BloodType, id.Gender,
		id.WeightKg, id.HeightCm, id.PrimaryDoctor, id.PrimaryDoctorPhone,
		id.MedicalDevices, directives)
	if err != nil {
		return storageErr("upsert identity", err)
	}
	return nil
}

func (s *storePG) GetIdentity(ctx context.Context) (*PatientIdentity, error) {
	return s.getIdentity(ctx, s.pool)
}

func (s *storePG) getIdentity(ctx context.Context, q queryable) (*PatientIdentity, error) {
	row := q.QueryRow(ctx, `
		SELECT name, date_of_birth, blood_type, gender, weight_kg, height_cm,
			primary_doctor, primary_doctor_phone, medical_devices,
			advance_directives, updated_at
		FROM patient_identity WHERE id = 1`)

	var id PatientIdentity
	err := row.Scan(&id.Name, &id.DateOfBirth, &id.BloodType, &id.Gender,
		&id.WeightKg, &id.HeightCm, &id.PrimaryDoctor, &id.PrimaryDoctorPhone,
		&id.MedicalDevices, &id.AdvanceDirectives, &id.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr("get identity", err)
	}

	if id.Name, err = s.decryptString(id.Name); err != nil {
		return nil, fmt.Errorf("decrypt name: %w", err)
	}
	if id.AdvanceDirectives, err = s.decryptField(id.AdvanceDirectives); err != nil {
		return nil, fmt.Errorf("decrypt directives: %w", err)
	}
	return &id, nil
}

// -- Allergies (upsert keyed by substance) --

func (s *storePG) AddAllergy(ctx context.Context, a *Allergy) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO allergy (id, substance, reaction, severity, verified_at, position)
		VALUES ($1, $2, $3, $4, $5, COALESCE((SELECT MAX(position) FROM allergy), 0) + 1)
		ON CONFLICT (substance) DO UPDATE SET
			reaction = EXCLUDED.reaction,
			severity = EXCLUDED.severity,
			verified_at = EXCLUDED.verified_at`,
		a.ID, a.Substance, a.Reaction, a.Severity, a.VerifiedAt)
	if err != nil {
		return storageErr("add allergy", err)
	}
	return nil
}

func (s *storePG) ListAllergies(ctx context.Context) ([]Allergy, error) {
	return s.listAllergies(ctx, s.pool)
}

func (s *storePG) listAllergies(ctx context.Context, q queryable) ([]Allergy, error) {
	rows, err := q.Query(ctx, `
		SELECT id, substance, reaction, severity, verified_at, position
		FROM allergy ORDER BY position ASC`)
	if err != nil {
		return nil, storageErr("list allergies", err)
	}
	defer rows.Close()

	var items []Allergy
	for rows.Next() {
		var a Allergy
		if err := rows.Scan(&a.ID, &a.Substance, &a.Reaction, &a.Severity, &a.VerifiedAt, &a.Position); err != nil {
			return nil, storageErr("scan allergy", err)
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate allergies", err)
	}
	return items, nil
}

// -- Medications (append-only) --

func (s *storePG) AddMedication(ctx context.Context, m *Medication) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO medication (id, name, dosage, frequency, prescribing_doctor,
			start_date, is_critical, is_active, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		m.ID, m.Name, m.Dosage, m.Frequency, m.PrescribingDoctor,
		m.StartDate, m.Critical, m.Active, m.Notes)
	if err != nil {
		return storageErr("add medication", err)
	}
	return nil
}

func (s *storePG) ListMedications(ctx context.Context) ([]Medication, error) {
	return s.listMedications(ctx, s.pool)
}

func (s *storePG) listMedications(ctx context.Context, q queryable) ([]Medication, error) {
	rows, err := q.Query(ctx, `
		SELECT id, name, dosage, frequency, prescribing_doctor, start_date,
			is_critical, is_active, notes
		FROM medication ORDER BY start_date ASC, name ASC`)
	if err != nil {
		return nil, storageErr("list medications", err)
	}
	defer rows.Close()

	var items []Medication
	for rows.Next() {
		var m Medication
		if err := rows.Scan(&m.ID, &m.Name, &m.Dosage, &m.Frequency, &m.PrescribingDoctor,
			&m.StartDate, &m.Critical, &m.Active, &m.Notes); err != nil {
			return nil, storageErr("scan medication", err)
		}
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate medications", err)
	}
	return items, nil
}

// -- Conditions --

func (s *storePG) AddCondition(ctx context.Context, c *MedicalCondition) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO medical_condition (id, name, diagnosed_date, severity, status, treating_doctor)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.Name, c.DiagnosedDate, c.Severity, c.Status, c.TreatingDoctor)
	if err != nil {
		return storageErr("add condition", err)
	}
	return nil
}

func (s *storePG) ListConditions(ctx context.Context) ([]MedicalCondition, error) {
	return s.listConditions(ctx, s.pool)
}

func (s *storePG) listConditions(ctx context.Context, q queryable) ([]MedicalCondition, error) {
	rows, err := q.Query(ctx, `
		SELECT id, name, diagnosed_date, severity, status, treating_doctor
		FROM medical_condition ORDER BY diagnosed_date ASC`)
	if err != nil {
		return nil, storageErr("list conditions", err)
	}
	defer rows.Close()

	var items []MedicalCondition
	for rows.Next() {
		var c MedicalCondition
		if err := rows.Scan(&c.ID, &c.Name, &c.DiagnosedDate, &c.Severity, &c.Status, &c.TreatingDoctor); err != nil {
			return nil, storageErr("scan condition", err)
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate conditions", err)
	}
	return items, nil
}

// -- Surgeries --

func (s *storePG) AddSurgery(ctx context.Context, sg *Surgery) error {
	if sg.ID == uuid.Nil {
		sg.ID = uuid.New()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO surgery (id, procedure, date, hospital, complications, implants_devices)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		sg.ID, sg.Procedure, sg.Date, sg.Hospital, sg.Complications, sg.ImplantsDevices)
	if err != nil {
		return storageErr("add surgery", err)
	}
	return nil
}

func (s *storePG) ListSurgeries(ctx context.Context) ([]Surgery, error) {
	return s.listSurgeries(ctx, s.pool)
}

func (s *storePG) listSurgeries(ctx context.Context, q queryable) ([]Surgery, error) {
	rows, err := q.Query(ctx, `
		SELECT id, procedure, date, hospital, complications, implants_devices
		FROM surgery ORDER BY date ASC`)
	if err != nil {
		return nil, storageErr("list surgeries", err)
	}
	defer rows.Close()

	var items []Surgery
	for rows.Next() {
		var sg Surgery
		if err := rows.Scan(&sg.ID, &sg.Procedure, &sg.Date, &sg.Hospital, &sg.Complications, &sg.ImplantsDevices); err != nil {
			return nil, storageErr("scan surgery", err)
		}
		items = append(items, sg)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate surgeries", err)
	}
	return items, nil
}

// -- Emergency contact (singleton row id=1) --

func (s *storePG) SetEmergencyContact(ctx context.Context, c *EmergencyContact) error {
	name, err := s.encryptString(c.Name)
	if err != nil {
		return fmt.Errorf("encrypt contact name: %w", err)
	}
	phoneEnc, err := s.encryptString(c.Phone)
	if err != nil {
		return fmt.Errorf("encrypt contact phone: %w", err)
	}
	alt, err := s.encryptField(c.AlternatePhone)
	if err != nil {
		return fmt.Errorf("encrypt alternate phone: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO emergency_contact (id, name, relationship, phone, alternate_phone)
		VALUES (1, $1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			relationship = EXCLUDED.relationship,
			phone = EXCLUDED.phone,
			alternate_phone = EXCLUDED.alternate_phone`,
		name, c.Relationship, phoneEnc, alt)
	if err != nil {
		return storageErr("set emergency contact", err)
	}
	return nil
}

func (s *storePG) GetEmergencyContact(ctx context.Context) (*EmergencyContact, error) {
	return s.getEmergencyContact(ctx, s.pool)
}

func (s *storePG) getEmergencyContact(ctx context.Context, q queryable) (*EmergencyContact, error) {
	row := q.QueryRow(ctx, `
		SELECT name, relationship, phone, alternate_phone
		FROM emergency_contact WHERE id = 1`)

	var c EmergencyContact
	err := row.Scan(&c.Name, &c.Relationship, &c.Phone, &c.AlternatePhone)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr("get emergency contact", err)
	}

	if c.Name, err = s.decryptString(c.Name); err != nil {
		return nil, fmt.Errorf("decrypt contact name: %w", err)
	}
	if c.Phone, err = s.decryptString(c.Phone); err != nil {
		return nil, fmt.Errorf("decrypt contact phone: %w", err)
	}
	if c.AlternatePhone, err = s.decryptField(c.AlternatePhone); err != nil {
		return nil, fmt.Errorf("decrypt alternate phone: %w", err)
	}
	return &c, nil
}

// -- Vitals (append-only log) --

func (s *storePG) AddVital(ctx context.Context, v *VitalMetric) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	if v.RecordedAt.IsZero() {
		v.RecordedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO vital_metric (id, metric_type, value, unit, recorded_at, source, is_abnormal)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		v.ID, v.MetricType, v.Value, v.Unit, v.RecordedAt, v.Source, v.Abnormal)
	if err != nil {
		return storageErr("add vital", err)
	}
	return nil
}

func (s *storePG) ListVitals(ctx context.Context, limit int) ([]VitalMetric, error) {
	return s.listVitals(ctx, s.pool, limit)
}

func (s *storePG) listVitals(ctx context.Context, q queryable, limit int) ([]VitalMetric, error) {
	rows, err := q.Query(ctx, `
		SELECT id, metric_type, value, unit, recorded_at, source, is_abnormal
		FROM vital_metric ORDER BY recorded_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, storageErr("list vitals", err)
	}
	defer rows.Close()

	var items []VitalMetric
	for rows.Next() {
		var v VitalMetric
		if err := rows.Scan(&v.ID, &v.MetricType, &v.Value, &v.Unit, &v.RecordedAt, &v.Source, &v.Abnormal); err != nil {
			return nil, storageErr("scan vital", err)
		}
		items = append(items, v)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate vitals", err)
	}
	return items, nil
}

// snapshotVitalLimit bounds how many recent readings a snapshot carries.
// The synthesizer only ever considers the ten most recent; a small buffer
// keeps the query cheap without starving future filters.
const snapshotVitalLimit = 50

// Snapshot reads every entity inside one REPEATABLE READ transaction so the
// synthesizer sees a single point-in-time state, never a torn read.
func (s *storePG) Snapshot(ctx context.Context) (*Snapshot, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return nil, storageErr("begin snapshot", err)
	}
	defer tx.Rollback(ctx)

	snap := &Snapshot{TakenAt: time.Now().UTC()}

	snap.Identity, err = s.getIdentity(ctx, tx)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if snap.Allergies, err = s.listAllergies(ctx, tx); err != nil {
		return nil, err
	}
	if snap.Medications, err = s.listMedications(ctx, tx); err != nil {
		return nil, err
	}
	if snap.Conditions, err = s.listConditions(ctx, tx); err != nil {
		return nil, err
	}
	if snap.Surgeries, err = s.listSurgeries(ctx, tx); err != nil {
		return nil, err
	}
	snap.Contact, err = s.getEmergencyContact(ctx, tx)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if snap.Vitals, err = s.listVitals(ctx, tx, snapshotVitalLimit); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storageErr("commit snapshot", err)
	}
	return snap, nil
}
