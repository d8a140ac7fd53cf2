package discharges

import "time"

// PetDescriptor es la foto de la mascota al momento del alta.
type PetDescriptor struct {
	Name     string
	Species  string
	WeightKg float64
}

// TaperStage es una fase de un esquema de reducción de dosis.
type TaperStage struct {
	Dosage    string
	Frequency float64
	Times     []string // "HH:MM"
	StartDate time.Time
	EndDate   time.Time
}

// Medication es un fármaco indicado en el alta.
// IsTapered decide qué campos aplican: los simples o TaperStages, nunca ambos.
type Medication struct {
	Name         string
	Instructions string

	IsTapered bool

	// Esquema simple
	Dosage     string
	Frequency  float64 // dosis/día; 0.5 = día por medio
	Times      []string
	StartDate  *time.Time
	EndDate    *time.Time
	TotalDoses int

	// Esquema con reducción
	TaperStages []TaperStage
}

// Discharge es un episodio de alta (una visita) de una mascota.
type Discharge struct {
	ID    string
	PetID string

	Pet         PetDescriptor
	Medications []Medication
	Notes       string

	VetID    string
	ClinicID string

	CreatedAt time.Time
}

// Medication busca por nombre (case-insensitive).
func (d Discharge) Medication(name string) (Medication, bool) {
	for _, m := range d.Medications {
		if equalFoldTrim(m.Name, name) {
			return m, true
		}
	}
	return Medication{}, false
}
