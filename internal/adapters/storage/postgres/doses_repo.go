package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"vet-discharge-portal/internal/domain/doses"
)

type DosesRepo struct {
	db *sql.DB
}

func NewDosesRepo(db *sql.DB) *DosesRepo {
	return &DosesRepo{db: db}
}

const doseColumns = `
	id, discharge_id,
	medication_name, scheduled_time, given_at, status,
	dosage, frequency, instructions, logged_at,
	symptom_appetite, symptom_energy, symptom_panting,
	symptom_notes, symptom_recorded`

func (r *DosesRepo) Create(ctx context.Context, rec doses.DoseRecord) error {
	var (
		appetite, energy sql.NullInt16
		panting          sql.NullBool
		notes            sql.NullString
		recorded         sql.NullTime
	)
	if s := rec.Symptoms; s != nil {
		appetite = sql.NullInt16{Int16: int16(s.Appetite), Valid: true}
		energy = sql.NullInt16{Int16: int16(s.Energy), Valid: true}
		panting = sql.NullBool{Bool: s.IsPanting, Valid: true}
		notes = sql.NullString{String: s.Notes, Valid: true}
		recorded = sql.NullTime{Time: s.RecordedAt, Valid: true}
	}

	var givenAt sql.NullTime
	if rec.GivenAt != nil {
		givenAt = sql.NullTime{Time: *rec.GivenAt, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO dose_records (`+doseColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`,
		rec.ID,
		rec.DischargeID,
		rec.MedicationName,
		rec.ScheduledTime,
		givenAt,
		string(rec.Status),
		rec.Dosage,
		rec.Frequency,
		rec.Instructions,
		rec.LoggedAt,
		appetite,
		energy,
		panting,
		notes,
		recorded,
	)
	return err
}

func (r *DosesRepo) GetByID(ctx context.Context, id string) (doses.DoseRecord, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return doses.DoseRecord{}, doses.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+doseColumns+` FROM dose_records WHERE id = $1`, id)
	rec, err := scanDose(row)
	if errors.Is(err, sql.ErrNoRows) {
		return doses.DoseRecord{}, doses.ErrNotFound
	}
	return rec, err
}

func (r *DosesRepo) ListByDischarge(ctx context.Context, dischargeID string, filter doses.ListFilter) ([]doses.DoseRecord, error) {
	dischargeID = strings.TrimSpace(dischargeID)
	if dischargeID == "" {
		return nil, nil
	}

	sb := strings.Builder{}
	sb.WriteString(`SELECT ` + doseColumns + ` FROM dose_records WHERE discharge_id = $1`)

	args := []any{dischargeID}
	argN := 2

	if filter.From != nil {
		sb.WriteString(fmt.Sprintf(" AND scheduled_time >= $%d", argN))
		args = append(args, *filter.From)
		argN++
	}
	if filter.To != nil {
		sb.WriteString(fmt.Sprintf(" AND scheduled_time <= $%d", argN))
		args = append(args, *filter.To)
		argN++
	}

	sb.WriteString(" ORDER BY scheduled_time DESC, id ASC")
	sb.WriteString(fmt.Sprintf(" LIMIT $%d", argN))
	args = append(args, filter.EffectiveLimit())

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]doses.DoseRecord, 0)
	for rows.Next() {
		rec, err := scanDose(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanDose(s rowScanner) (doses.DoseRecord, error) {
	var (
		rec              doses.DoseRecord
		status           string
		givenAt          sql.NullTime
		appetite, energy sql.NullInt16
		panting          sql.NullBool
		notes            sql.NullString
		recorded         sql.NullTime
	)
	if err := s.Scan(
		&rec.ID,
		&rec.DischargeID,
		&rec.MedicationName,
		&rec.ScheduledTime,
		&givenAt,
		&status,
		&rec.Dosage,
		&rec.Frequency,
		&rec.Instructions,
		&rec.LoggedAt,
		&appetite,
		&energy,
		&panting,
		&notes,
		&recorded,
	); err != nil {
		return doses.DoseRecord{}, err
	}

	rec.Status = doses.Status(status)
	if givenAt.Valid {
		t := givenAt.Time
		rec.GivenAt = &t
	}
	// El snapshot existe si se guardó su timestamp.
	if recorded.Valid {
		rec.Symptoms = &doses.SymptomSnapshot{
			Appetite:   int(appetite.Int16),
			Energy:     int(energy.Int16),
			IsPanting:  panting.Bool,
			Notes:      notes.String,
			RecordedAt: recorded.Time,
		}
	}
	return rec, nil
}
