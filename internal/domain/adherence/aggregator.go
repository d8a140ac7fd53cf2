package adherence

import (
	"math"
	"sort"
	"strings"
	"time"

	"vet-discharge-portal/internal/domain/discharges"
	"vet-discharge-portal/internal/domain/doses"
)

const (
	// LateThreshold: una dosis dada más de 2h después de lo programado cuenta como tardía.
	LateThreshold = 2 * time.Hour

	// ActiveWindowDays acota la métrica "solo activas".
	ActiveWindowDays = 30
)

// Counts agrega totales de un conjunto de dosis.
type Counts struct {
	Total  int
	Given  int
	OnTime int
	Late   int
	Missed int // missed + skipped
	Rate   int // round(100 * given / total); 0 si total == 0
}

type MedicationMetrics struct {
	Name string
	Counts
}

// DayMetrics agrupa por día calendario programado (no por día en que se dio).
type DayMetrics struct {
	Date string // YYYY-MM-DD
	Counts
}

type Metrics struct {
	Overall      Counts
	ByMedication []MedicationMetrics
	Timeline     []DayMetrics
}

// HasData indica si hubo al menos una dosis programada en la ventana.
func (m Metrics) HasData() bool {
	return m.Overall.Total > 0
}

// Episode es un alta con los registros leídos para ella.
type Episode struct {
	Discharge discharges.Discharge
	Records   []doses.DoseRecord
}

type EpisodeMetrics struct {
	DischargeID string
	CreatedAt   time.Time
	Active      bool
	Metrics     Metrics
}

// PetMetrics es la vista multi-episodio de una mascota.
type PetMetrics struct {
	Overall    Metrics
	ActiveOnly Metrics
	Episodes   []EpisodeMetrics
	LastGiven  *doses.DoseRecord
}

// Aggregator calcula métricas sobre colecciones en memoria. No hace I/O.
type Aggregator struct {
	loc *time.Location
}

func NewAggregator(loc *time.Location) Aggregator {
	if loc == nil {
		loc = time.UTC
	}
	return Aggregator{loc: loc}
}

// Compute filtra a [now - dayRange, now] y calcula totales, desglose por
// medicación y línea de tiempo diaria (ascendente).
func (a Aggregator) Compute(records []doses.DoseRecord, now time.Time, dayRange int) Metrics {
	from := now.AddDate(0, 0, -dayRange)

	inWindow := make([]doses.DoseRecord, 0, len(records))
	for _, r := range records {
		if r.ScheduledTime.Before(from) || r.ScheduledTime.After(now) {
			continue
		}
		inWindow = append(inWindow, r)
	}

	return Metrics{
		Overall:      count(inWindow),
		ByMedication: a.byMedication(inWindow),
		Timeline:     a.timeline(inWindow),
	}
}

// ComputePet agrega varios episodios de la misma mascota. Además del total,
// calcula la métrica restringida a medicaciones vigentes en los últimos 30 días,
// el desglose por episodio y la última dosis dada.
func (a Aggregator) ComputePet(episodes []Episode, now time.Time, dayRange int) PetMetrics {
	all := make([]doses.DoseRecord, 0)
	activeOnly := make([]doses.DoseRecord, 0)
	out := PetMetrics{Episodes: make([]EpisodeMetrics, 0, len(episodes))}

	for _, ep := range episodes {
		d := ep.Discharge
		all = append(all, ep.Records...)

		for _, r := range ep.Records {
			if discharges.MedicationActiveByName(d, r.MedicationName, now, a.loc) {
				activeOnly = append(activeOnly, r)
			}
			if r.Status == doses.StatusGiven && r.GivenAt != nil {
				if out.LastGiven == nil || r.GivenAt.After(*out.LastGiven.GivenAt) {
					rec := r
					out.LastGiven = &rec
				}
			}
		}

		out.Episodes = append(out.Episodes, EpisodeMetrics{
			DischargeID: d.ID,
			CreatedAt:   d.CreatedAt,
			Active:      discharges.EpisodeActive(d, now, a.loc),
			Metrics:     a.Compute(ep.Records, now, dayRange),
		})
	}

	// Más reciente primero, como la lista de altas.
	sort.SliceStable(out.Episodes, func(i, j int) bool {
		return out.Episodes[i].CreatedAt.After(out.Episodes[j].CreatedAt)
	})

	out.Overall = a.Compute(all, now, dayRange)
	out.ActiveOnly = a.Compute(activeOnly, now, ActiveWindowDays)
	return out
}

func (a Aggregator) byMedication(records []doses.DoseRecord) []MedicationMetrics {
	groups := map[string][]doses.DoseRecord{}
	names := map[string]string{}
	for _, r := range records {
		key := strings.ToLower(strings.TrimSpace(r.MedicationName))
		if _, ok := names[key]; !ok {
			names[key] = strings.TrimSpace(r.MedicationName)
		}
		groups[key] = append(groups[key], r)
	}

	out := make([]MedicationMetrics, 0, len(groups))
	for key, recs := range groups {
		out = append(out, MedicationMetrics{Name: names[key], Counts: count(recs)})
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

func (a Aggregator) timeline(records []doses.DoseRecord) []DayMetrics {
	groups := map[string][]doses.DoseRecord{}
	for _, r := range records {
		day := r.ScheduledTime.In(a.loc).Format(time.DateOnly)
		groups[day] = append(groups[day], r)
	}

	out := make([]DayMetrics, 0, len(groups))
	for day, recs := range groups {
		out = append(out, DayMetrics{Date: day, Counts: count(recs)})
	}
	// YYYY-MM-DD ordena lexicográficamente igual que cronológicamente.
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func count(records []doses.DoseRecord) Counts {
	var c Counts
	c.Total = len(records)
	for _, r := range records {
		switch r.Status {
		case doses.StatusGiven:
			c.Given++
			if r.Delay() > LateThreshold {
				c.Late++
			}
		case doses.StatusMissed, doses.StatusSkipped:
			c.Missed++
		}
	}
	c.OnTime = c.Given - c.Late
	c.Rate = rate(c.Given, c.Total)
	return c
}

func rate(given, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(given) / float64(total)))
}
