package discharges

import (
	"strings"
	"time"
)

// DefaultActiveDays es la ventana asumida cuando la medicación no tiene fecha de fin.
const DefaultActiveDays = 30

// MedicationActive decide si la medicación está vigente en ref.
// Es una heurística: no existe un estado "completado" persistido.
//
// Reglas, en orden:
//  1. Con fecha de fin explícita: start <= ref <= end.
//  2. Con reducción: ref cae en el rango de alguna etapa.
//  3. Con total de dosis: ref - start <= 30 días.
//  4. Sin nada de lo anterior: ref - start <= 30 días.
//
// ref y CreatedAt se llevan al día calendario en loc; start cae en CreatedAt del alta si falta.
func MedicationActive(med Medication, d Discharge, ref time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.UTC
	}
	day := dayOf(ref, loc)

	start := dayOf(d.CreatedAt, loc)
	if med.StartDate != nil {
		start = calendarDay(*med.StartDate)
	}

	if med.EndDate != nil {
		end := calendarDay(*med.EndDate)
		return !day.Before(start) && !day.After(end)
	}

	if med.IsTapered {
		for _, st := range med.TaperStages {
			s := calendarDay(st.StartDate)
			e := calendarDay(st.EndDate)
			if !day.Before(s) && !day.After(e) {
				return true
			}
		}
		return false
	}

	// Reglas 3 y 4 comparten la misma ventana; TotalDoses no alcanza para
	// estimar el fin sin conocer omisiones, así que no se usa para acortarla.
	return daysBetween(start, day) <= DefaultActiveDays
}

// EpisodeActive: el alta está activa si alguna medicación lo está.
func EpisodeActive(d Discharge, ref time.Time, loc *time.Location) bool {
	for _, m := range d.Medications {
		if MedicationActive(m, d, ref, loc) {
			return true
		}
	}
	return false
}

// MedicationActiveByName resuelve la medicación por nombre dentro del alta.
// Un nombre desconocido se considera inactivo.
func MedicationActiveByName(d Discharge, name string, ref time.Time, loc *time.Location) bool {
	m, ok := d.Medication(name)
	if !ok {
		return false
	}
	return MedicationActive(m, d, ref, loc)
}

// dayOf lleva un instante al día calendario de la clínica (medianoche UTC de ese día).
func dayOf(t time.Time, loc *time.Location) time.Time {
	return calendarDay(t.In(loc))
}

// calendarDay toma la fecha tal cual está; las fechas del alta son días, no instantes.
func calendarDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// daysBetween cuenta días calendario; negativo si b es anterior a a.
func daysBetween(a, b time.Time) int {
	return int(calendarDay(b).Sub(calendarDay(a)).Hours() / 24)
}

func equalFoldTrim(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
