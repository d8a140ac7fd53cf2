package symptoms

import (
	"fmt"
	"math"
	"sort"
	"time"

	"vet-discharge-portal/internal/domain/doses"
)

const (
	RecentEntries = 14

	// Ventanas en cantidad de entradas (una entrada = un día con reporte).
	RollingWindow     = 7
	MinRollingEntries = 3
	TrendWindow       = 7

	LowScore        = 2
	DropDelta       = 2.0
	SevereDropDelta = 3.0
	TrendDelta      = 0.5

	// FrequentPantingDays: días con jadeo, de los últimos 7, para marcar "frecuente".
	FrequentPantingDays = 4
)

type FlagType string

const (
	FlagAppetiteLow       FlagType = "appetite_low"
	FlagAppetiteDrop      FlagType = "appetite_drop"
	FlagEnergyLow         FlagType = "energy_low"
	FlagEnergyDrop        FlagType = "energy_drop"
	FlagPantingPersistent FlagType = "panting_persistent"
)

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

func (s Severity) rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}

type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)

// Entry es el reporte diario de síntomas (uno por día calendario).
// Un score 0 significa "no reportado" y no dispara reglas.
type Entry struct {
	Date        string // YYYY-MM-DD
	Appetite    int
	Energy      int
	IsPanting   bool
	Notes       string
	RecordedAt  time.Time
	DischargeID string
}

type Flag struct {
	Type          FlagType
	Date          string
	Description   string
	Severity      Severity
	Value         float64
	PreviousValue *float64 // solo en *_drop: promedio de referencia
	DischargeID   string
}

type ScoreTrend struct {
	Trend           Trend
	CurrentAverage  float64
	PreviousAverage float64
}

type Trends struct {
	Appetite        ScoreTrend
	Energy          ScoreTrend
	PantingDays     int
	PantingFrequent bool
}

type Analysis struct {
	Flags  []Flag
	Recent []Entry
	Trends Trends
}

// EpisodeEntries son las entradas diarias de un alta.
type EpisodeEntries struct {
	DischargeID string
	Entries     []Entry
}

// DailyEntries reduce los snapshots de síntomas a una entrada por día calendario
// (el más reciente por RecordedAt gana), más reciente primero.
// Los registros sin snapshot no generan entrada.
func DailyEntries(records []doses.DoseRecord, loc *time.Location) []Entry {
	if loc == nil {
		loc = time.UTC
	}
	byDay := map[string]Entry{}
	for _, r := range records {
		s := r.Symptoms
		if s == nil {
			continue
		}
		day := s.RecordedAt.In(loc).Format(time.DateOnly)
		if cur, ok := byDay[day]; ok && !s.RecordedAt.After(cur.RecordedAt) {
			continue
		}
		byDay[day] = Entry{
			Date:        day,
			Appetite:    s.Appetite,
			Energy:      s.Energy,
			IsPanting:   s.IsPanting,
			Notes:       s.Notes,
			RecordedAt:  s.RecordedAt,
			DischargeID: r.DischargeID,
		}
	}

	out := make([]Entry, 0, len(byDay))
	for _, e := range byDay {
		out = append(out, e)
	}
	sortEntries(out)
	return out
}

// Analyze evalúa reglas de alerta y tendencias sobre entradas de un episodio.
// No modifica entries; es determinística (mismas entradas => mismas alertas).
func Analyze(entries []Entry) Analysis {
	es := make([]Entry, len(entries))
	copy(es, entries)
	sortEntries(es)

	return Analysis{
		Flags:  flagsFor(es),
		Recent: recent(es),
		Trends: trendsFor(es),
	}
}

// AnalyzeEpisodes corre Analyze por episodio (alertas etiquetadas con su alta),
// y fusiona entradas y alertas en una sola vista cronológica. Las tendencias
// se recalculan sobre la secuencia fusionada.
func AnalyzeEpisodes(episodes []EpisodeEntries) Analysis {
	var flags []Flag
	byDay := map[string]Entry{}

	for _, ep := range episodes {
		tagged := make([]Entry, len(ep.Entries))
		for i, e := range ep.Entries {
			e.DischargeID = ep.DischargeID
			tagged[i] = e

			// Un día con reportes en dos altas: gana el más reciente.
			if cur, ok := byDay[e.Date]; !ok || e.RecordedAt.After(cur.RecordedAt) {
				byDay[e.Date] = e
			}
		}
		flags = append(flags, Analyze(tagged).Flags...)
	}

	merged := make([]Entry, 0, len(byDay))
	for _, e := range byDay {
		merged = append(merged, e)
	}
	sortEntries(merged)

	return Analysis{
		Flags:  dedupeFlags(flags),
		Recent: recent(merged),
		Trends: trendsFor(merged),
	}
}

func flagsFor(es []Entry) []Flag {
	out := make([]Flag, 0)
	for i, today := range es {
		var yesterday *Entry
		if i+1 < len(es) && es[i+1].Date == previousDay(today.Date) {
			yesterday = &es[i+1]
		}

		end := i + 1 + RollingWindow
		if end > len(es) {
			end = len(es)
		}
		window := es[i+1 : end]

		out = appendLow(out, FlagAppetiteLow, "Appetite", today, yesterday, func(e Entry) int { return e.Appetite })
		out = appendDrop(out, FlagAppetiteDrop, "Appetite", today, window, func(e Entry) int { return e.Appetite })
		out = appendLow(out, FlagEnergyLow, "Energy", today, yesterday, func(e Entry) int { return e.Energy })
		out = appendDrop(out, FlagEnergyDrop, "Energy", today, window, func(e Entry) int { return e.Energy })

		if yesterday != nil && today.IsPanting && yesterday.IsPanting {
			out = append(out, Flag{
				Type:        FlagPantingPersistent,
				Date:        today.Date,
				Description: "Panting reported on 2 consecutive days",
				Severity:    SeverityMedium,
				Value:       1,
				DischargeID: today.DischargeID,
			})
		}
	}
	return dedupeFlags(out)
}

func appendLow(out []Flag, typ FlagType, label string, today Entry, yesterday *Entry, score func(Entry) int) []Flag {
	if yesterday == nil {
		return out
	}
	t, y := score(today), score(*yesterday)
	if t == 0 || y == 0 || t > LowScore || y > LowScore {
		return out
	}
	sev := SeverityMedium
	if t == 1 {
		sev = SeverityHigh
	}
	return append(out, Flag{
		Type:        typ,
		Date:        today.Date,
		Description: fmt.Sprintf("%s low on 2 consecutive days (score %d)", label, t),
		Severity:    sev,
		Value:       float64(t),
		DischargeID: today.DischargeID,
	})
}

func appendDrop(out []Flag, typ FlagType, label string, today Entry, window []Entry, score func(Entry) int) []Flag {
	t := score(today)
	if t == 0 {
		return out
	}
	avg, n := mean(window, score)
	if n < MinRollingEntries {
		return out
	}
	drop := avg - float64(t)
	if drop < DropDelta {
		return out
	}
	sev := SeverityMedium
	if drop >= SevereDropDelta {
		sev = SeverityHigh
	}
	prev := round1(avg)
	return append(out, Flag{
		Type:          typ,
		Date:          today.Date,
		Description:   fmt.Sprintf("%s dropped to %d from a 7-day average of %.1f", label, t, prev),
		Severity:      sev,
		Value:         float64(t),
		PreviousValue: &prev,
		DischargeID:   today.DischargeID,
	})
}

// trendsFor compara la ventana más reciente contra la inmediatamente anterior,
// sin solaparse. Con menos de 14 entradas ambas ventanas se achican a n/2.
func trendsFor(es []Entry) Trends {
	w := TrendWindow
	if half := len(es) / 2; half < w {
		w = half
	}

	var tr Trends
	tr.Appetite = scoreTrend(es, w, func(e Entry) int { return e.Appetite })
	tr.Energy = scoreTrend(es, w, func(e Entry) int { return e.Energy })

	last := es
	if len(last) > TrendWindow {
		last = last[:TrendWindow]
	}
	for _, e := range last {
		if e.IsPanting {
			tr.PantingDays++
		}
	}
	tr.PantingFrequent = tr.PantingDays >= FrequentPantingDays
	return tr
}

func scoreTrend(es []Entry, w int, score func(Entry) int) ScoreTrend {
	if w == 0 {
		return ScoreTrend{Trend: TrendStable}
	}
	cur, nc := mean(es[:w], score)
	prev, np := mean(es[w:2*w], score)
	st := ScoreTrend{Trend: TrendStable, CurrentAverage: round1(cur), PreviousAverage: round1(prev)}
	if nc == 0 || np == 0 {
		return st
	}
	switch d := cur - prev; {
	case d > TrendDelta:
		st.Trend = TrendImproving
	case d < -TrendDelta:
		st.Trend = TrendDeclining
	}
	return st
}

// mean ignora scores 0 (no reportados) y devuelve cuántos promedió.
func mean(es []Entry, score func(Entry) int) (float64, int) {
	sum, n := 0, 0
	for _, e := range es {
		if v := score(e); v > 0 {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, 0
	}
	return float64(sum) / float64(n), n
}

// dedupeFlags deja una alerta por (tipo, fecha), la de mayor severidad,
// y ordena por fecha desc, luego tipo y alta.
func dedupeFlags(flags []Flag) []Flag {
	sorted := make([]Flag, len(flags))
	copy(sorted, flags)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Date != b.Date {
			return a.Date > b.Date
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		if a.Severity.rank() != b.Severity.rank() {
			return a.Severity.rank() > b.Severity.rank()
		}
		return a.DischargeID < b.DischargeID
	})

	out := make([]Flag, 0, len(sorted))
	for _, f := range sorted {
		if n := len(out); n > 0 && out[n-1].Date == f.Date && out[n-1].Type == f.Type {
			continue
		}
		out = append(out, f)
	}
	return out
}

func recent(es []Entry) []Entry {
	n := len(es)
	if n > RecentEntries {
		n = RecentEntries
	}
	out := make([]Entry, n)
	copy(out, es[:n])
	return out
}

func sortEntries(es []Entry) {
	sort.SliceStable(es, func(i, j int) bool {
		if es[i].Date != es[j].Date {
			return es[i].Date > es[j].Date
		}
		return es[i].RecordedAt.After(es[j].RecordedAt)
	})
}

func previousDay(date string) string {
	t, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, -1).Format(time.DateOnly)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
