package doses

import "time"

// SymptomSnapshot es el reporte del dueño adjunto a un registro de dosis.
type SymptomSnapshot struct {
	Appetite   int // 1-5
	Energy     int // 1-5
	IsPanting  bool
	Notes      string
	RecordedAt time.Time
}

// DoseRecord es una administración programada, logueada desde la app móvil.
// Inmutable una vez creada.
type DoseRecord struct {
	ID          string
	DischargeID string

	MedicationName string
	ScheduledTime  time.Time
	GivenAt        *time.Time // presente sii Status == given
	Status         Status

	Dosage       string
	Frequency    float64 // dosis/día; 0.5 = día por medio
	Instructions string

	LoggedAt time.Time

	Symptoms *SymptomSnapshot
}

// Delay devuelve cuánto después de lo programado se dio la dosis (0 si no se dio).
func (r DoseRecord) Delay() time.Duration {
	if r.Status != StatusGiven || r.GivenAt == nil {
		return 0
	}
	return r.GivenAt.Sub(r.ScheduledTime)
}
