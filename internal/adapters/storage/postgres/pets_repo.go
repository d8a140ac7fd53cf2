package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"vet-discharge-portal/internal/domain/pets"
)

type PetsRepo struct {
	db *sql.DB
}

func NewPetsRepo(db *sql.DB) *PetsRepo {
	return &PetsRepo{db: db}
}

const petColumns = `
	id, clinic_id,
	name, species, breed, sex,
	birth_date, weight_kg, microchip,
	client_name, client_email, client_phone,
	notes, created_at, updated_at`

func (r *PetsRepo) Create(ctx context.Context, p pets.Pet) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pets (`+petColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`,
		p.ID,
		p.ClinicID,
		p.Name,
		string(p.Species),
		p.Breed,
		string(p.Sex),
		toNullDate(p.BirthDate),
		p.WeightKg,
		p.Microchip,
		p.Client.Name,
		p.Client.Email,
		p.Client.Phone,
		p.Notes,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return err
}

func (r *PetsRepo) Update(ctx context.Context, p pets.Pet) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE pets
		SET
			name = $2,
			species = $3,
			breed = $4,
			sex = $5,
			birth_date = $6,
			weight_kg = $7,
			microchip = $8,
			client_name = $9,
			client_email = $10,
			client_phone = $11,
			notes = $12,
			updated_at = $13
		WHERE id = $1
	`,
		p.ID,
		p.Name,
		string(p.Species),
		p.Breed,
		string(p.Sex),
		toNullDate(p.BirthDate),
		p.WeightKg,
		p.Microchip,
		p.Client.Name,
		p.Client.Email,
		p.Client.Phone,
		p.Notes,
		p.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return pets.ErrNotFound
	}
	return nil
}

func (r *PetsRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return pets.Pet{}, pets.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+petColumns+` FROM pets WHERE id = $1`, id)
	p, err := scanPet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return pets.Pet{}, pets.ErrNotFound
	}
	return p, err
}

func (r *PetsRepo) ListByClinic(ctx context.Context, clinicID string) ([]pets.Pet, error) {
	clinicID = strings.TrimSpace(clinicID)
	if clinicID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+petColumns+`
		FROM pets
		WHERE clinic_id = $1
		ORDER BY created_at ASC
	`, clinicID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]pets.Pet, 0)
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}

	return out, rows.Err()
}

// rowScanner cubre *sql.Row y *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPet(s rowScanner) (pets.Pet, error) {
	var p pets.Pet
	var species, sex string
	var bd sql.NullTime
	if err := s.Scan(
		&p.ID,
		&p.ClinicID,
		&p.Name,
		&species,
		&p.Breed,
		&sex,
		&bd,
		&p.WeightKg,
		&p.Microchip,
		&p.Client.Name,
		&p.Client.Email,
		&p.Client.Phone,
		&p.Notes,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return pets.Pet{}, err
	}

	p.Species = pets.Species(species)
	p.Sex = pets.Sex(sex)
	if bd.Valid {
		// ojo: birth_date es date, pgx lo mapea a time.Time midnight UTC
		t := bd.Time
		p.BirthDate = &t
	}
	return p, nil
}

// birth_date es DATE, lo pasamos como NullTime para simplificar
func toNullDate(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{Valid: false}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
