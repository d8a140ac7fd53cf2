package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"vet-discharge-portal/internal/domain/discharges"
)

type DischargesRepo struct {
	db *sql.DB
}

func NewDischargesRepo(db *sql.DB) *DischargesRepo {
	return &DischargesRepo{db: db}
}

// Las medicaciones viajan como JSONB: se leen siempre junto al alta
// y su forma (simple o con etapas) varía por fila.
type medicationRow struct {
	Name         string     `json:"name"`
	Instructions string     `json:"instructions,omitempty"`
	IsTapered    bool       `json:"is_tapered"`
	Dosage       string     `json:"dosage,omitempty"`
	Frequency    float64    `json:"frequency,omitempty"`
	Times        []string   `json:"times,omitempty"`
	StartDate    *time.Time `json:"start_date,omitempty"`
	EndDate      *time.Time `json:"end_date,omitempty"`
	TotalDoses   int        `json:"total_doses,omitempty"`
	TaperStages  []stageRow `json:"taper_stages,omitempty"`
}

type stageRow struct {
	Dosage    string    `json:"dosage"`
	Frequency float64   `json:"frequency"`
	Times     []string  `json:"times,omitempty"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

const dischargeColumns = `
	id, pet_id,
	pet_name, pet_species, pet_weight_kg,
	medications, notes,
	vet_id, clinic_id, created_at`

func (r *DischargesRepo) Create(ctx context.Context, d discharges.Discharge) error {
	meds, err := json.Marshal(toMedicationRows(d.Medications))
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO discharges (`+dischargeColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		d.ID,
		d.PetID,
		d.Pet.Name,
		d.Pet.Species,
		d.Pet.WeightKg,
		string(meds),
		d.Notes,
		d.VetID,
		d.ClinicID,
		d.CreatedAt,
	)
	return err
}

func (r *DischargesRepo) GetByID(ctx context.Context, id string) (discharges.Discharge, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return discharges.Discharge{}, discharges.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+dischargeColumns+` FROM discharges WHERE id = $1`, id)
	d, err := scanDischarge(row)
	if errors.Is(err, sql.ErrNoRows) {
		return discharges.Discharge{}, discharges.ErrNotFound
	}
	return d, err
}

func (r *DischargesRepo) ListByPet(ctx context.Context, petID string) ([]discharges.Discharge, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+dischargeColumns+`
		FROM discharges
		WHERE pet_id = $1
		ORDER BY created_at DESC, id ASC
	`, petID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]discharges.Discharge, 0)
	for rows.Next() {
		d, err := scanDischarge(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func scanDischarge(s rowScanner) (discharges.Discharge, error) {
	var d discharges.Discharge
	var meds []byte
	if err := s.Scan(
		&d.ID,
		&d.PetID,
		&d.Pet.Name,
		&d.Pet.Species,
		&d.Pet.WeightKg,
		&meds,
		&d.Notes,
		&d.VetID,
		&d.ClinicID,
		&d.CreatedAt,
	); err != nil {
		return discharges.Discharge{}, err
	}

	var rows []medicationRow
	if err := json.Unmarshal(meds, &rows); err != nil {
		return discharges.Discharge{}, err
	}
	d.Medications = fromMedicationRows(rows)
	return d, nil
}

func toMedicationRows(meds []discharges.Medication) []medicationRow {
	out := make([]medicationRow, 0, len(meds))
	for _, m := range meds {
		row := medicationRow{
			Name:         m.Name,
			Instructions: m.Instructions,
			IsTapered:    m.IsTapered,
			Dosage:       m.Dosage,
			Frequency:    m.Frequency,
			Times:        m.Times,
			StartDate:    m.StartDate,
			EndDate:      m.EndDate,
			TotalDoses:   m.TotalDoses,
		}
		for _, st := range m.TaperStages {
			row.TaperStages = append(row.TaperStages, stageRow(st))
		}
		out = append(out, row)
	}
	return out
}

func fromMedicationRows(rows []medicationRow) []discharges.Medication {
	out := make([]discharges.Medication, 0, len(rows))
	for _, row := range rows {
		m := discharges.Medication{
			Name:         row.Name,
			Instructions: row.Instructions,
			IsTapered:    row.IsTapered,
			Dosage:       row.Dosage,
			Frequency:    row.Frequency,
			Times:        row.Times,
			StartDate:    row.StartDate,
			EndDate:      row.EndDate,
			TotalDoses:   row.TotalDoses,
		}
		for _, st := range row.TaperStages {
			m.TaperStages = append(m.TaperStages, discharges.TaperStage(st))
		}
		out = append(out, m)
	}
	return out
}
