package symptoms

import (
	"reflect"
	"testing"
	"time"

	"vet-discharge-portal/internal/domain/doses"
)

var base = time.Date(2026, 3, 20, 9, 0, 0, 0, time.UTC)

// series arma entradas diarias desde base hacia atrás: scores[0] es hoy.
func series(appetite []int, energy int) []Entry {
	out := make([]Entry, len(appetite))
	for i, a := range appetite {
		t := base.AddDate(0, 0, -i)
		out[i] = Entry{Date: t.Format(time.DateOnly), Appetite: a, Energy: energy, RecordedAt: t}
	}
	return out
}

func flagsOf(a Analysis, typ FlagType) []Flag {
	var out []Flag
	for _, f := range a.Flags {
		if f.Type == typ {
			out = append(out, f)
		}
	}
	return out
}

func TestAnalyze_AppetiteLowConsecutive(t *testing.T) {
	a := Analyze(series([]int{1, 2}, 4))

	got := flagsOf(a, FlagAppetiteLow)
	if len(got) != 1 {
		t.Fatalf("expected 1 appetite_low flag, got %+v", a.Flags)
	}
	if got[0].Date != "2026-03-20" || got[0].Severity != SeverityHigh || got[0].Value != 1 {
		t.Fatalf("unexpected flag: %+v", got[0])
	}
}

func TestAnalyze_AppetiteLowMediumAtTwo(t *testing.T) {
	a := Analyze(series([]int{2, 2}, 4))

	got := flagsOf(a, FlagAppetiteLow)
	if len(got) != 1 || got[0].Severity != SeverityMedium {
		t.Fatalf("expected medium appetite_low, got %+v", a.Flags)
	}
}

func TestAnalyze_IsolatedLowDayNoFlag(t *testing.T) {
	a := Analyze(series([]int{1, 4}, 4))
	if len(flagsOf(a, FlagAppetiteLow)) != 0 {
		t.Fatalf("single low day should not flag, got %+v", a.Flags)
	}
}

func TestAnalyze_GapBreaksConsecutiveRule(t *testing.T) {
	es := []Entry{
		{Date: "2026-03-20", Appetite: 1, Energy: 1, IsPanting: true, RecordedAt: base},
		{Date: "2026-03-18", Appetite: 1, Energy: 1, IsPanting: true, RecordedAt: base.AddDate(0, 0, -2)},
	}
	a := Analyze(es)
	if len(a.Flags) != 0 {
		t.Fatalf("non-consecutive days should not flag, got %+v", a.Flags)
	}
}

func TestAnalyze_ZeroScoreIsNotReported(t *testing.T) {
	a := Analyze(series([]int{0, 1}, 4))
	if len(flagsOf(a, FlagAppetiteLow)) != 0 {
		t.Fatalf("unreported score should not flag, got %+v", a.Flags)
	}
}

func TestAnalyze_DropRules(t *testing.T) {
	tests := []struct {
		name     string
		appetite []int
		want     Severity // "" = sin alerta
		prev     float64
	}{
		{"severe drop", []int{2, 5, 5, 5, 5, 5, 5, 5}, SeverityHigh, 5},
		{"moderate drop", []int{3, 5, 5, 5, 5, 5, 5, 5}, SeverityMedium, 5},
		{"small drop", []int{4, 5, 5, 5, 5, 5, 5, 5}, "", 0},
		{"too few entries", []int{1, 5, 5}, "", 0},
		{"minimum entries", []int{2, 4, 4, 4}, SeverityMedium, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Analyze(series(tt.appetite, 4))

			var today []Flag
			for _, f := range flagsOf(a, FlagAppetiteDrop) {
				if f.Date == "2026-03-20" {
					today = append(today, f)
				}
			}
			if tt.want == "" {
				if len(today) != 0 {
					t.Fatalf("expected no drop flag, got %+v", today)
				}
				return
			}
			if len(today) != 1 || today[0].Severity != tt.want {
				t.Fatalf("expected %s drop flag, got %+v", tt.want, today)
			}
			if today[0].PreviousValue == nil || *today[0].PreviousValue != tt.prev {
				t.Fatalf("expected previous value %.1f, got %+v", tt.prev, today[0].PreviousValue)
			}
		})
	}
}

func TestAnalyze_EnergyRulesIndependent(t *testing.T) {
	es := series([]int{4, 4}, 4)
	es[0].Energy, es[1].Energy = 2, 1

	a := Analyze(es)
	if len(flagsOf(a, FlagEnergyLow)) != 1 || len(flagsOf(a, FlagAppetiteLow)) != 0 {
		t.Fatalf("expected only energy_low, got %+v", a.Flags)
	}
}

func TestAnalyze_PantingPersistent(t *testing.T) {
	es := series([]int{4, 4, 4}, 4)
	es[0].IsPanting, es[1].IsPanting = true, true

	got := flagsOf(Analyze(es), FlagPantingPersistent)
	if len(got) != 1 || got[0].Date != "2026-03-20" || got[0].Severity != SeverityMedium {
		t.Fatalf("expected one panting flag on 03-20, got %+v", got)
	}
}

func TestAnalyze_TrendImproving(t *testing.T) {
	a := Analyze(series([]int{5, 5, 5, 2, 2, 2}, 3))

	if a.Trends.Appetite.Trend != TrendImproving {
		t.Fatalf("expected improving, got %+v", a.Trends.Appetite)
	}
	if a.Trends.Appetite.CurrentAverage != 5 || a.Trends.Appetite.PreviousAverage != 2 {
		t.Fatalf("unexpected averages: %+v", a.Trends.Appetite)
	}
	if a.Trends.Energy.Trend != TrendStable {
		t.Fatalf("flat energy should be stable, got %+v", a.Trends.Energy)
	}
}

func TestAnalyze_TrendDeclining(t *testing.T) {
	a := Analyze(series([]int{2, 2, 2, 4, 4, 4}, 3))
	if a.Trends.Appetite.Trend != TrendDeclining {
		t.Fatalf("expected declining, got %+v", a.Trends.Appetite)
	}
}

func TestAnalyze_SingleEntryStable(t *testing.T) {
	a := Analyze(series([]int{1}, 1))
	if a.Trends.Appetite.Trend != TrendStable || len(a.Flags) != 0 {
		t.Fatalf("single entry should be stable without flags, got %+v", a)
	}
}

func TestAnalyze_PantingFrequency(t *testing.T) {
	es := series([]int{4, 4, 4, 4, 4, 4, 4, 4}, 4)
	// Alternados para no disparar la regla de días consecutivos.
	for _, i := range []int{0, 2, 4, 6} {
		es[i].IsPanting = true
	}

	tr := Analyze(es).Trends
	if tr.PantingDays != 4 || !tr.PantingFrequent {
		t.Fatalf("expected 4 frequent panting days, got %+v", tr)
	}

	es[6].IsPanting = false
	tr = Analyze(es).Trends
	if tr.PantingDays != 3 || tr.PantingFrequent {
		t.Fatalf("3 days should not be frequent, got %+v", tr)
	}
}

func TestAnalyze_RecentCappedAndDeterministic(t *testing.T) {
	scores := make([]int, 20)
	for i := range scores {
		scores[i] = 1 + i%5
	}
	es := series(scores, 3)

	// Desordenadas a propósito.
	shuffled := append([]Entry{}, es[10:]...)
	shuffled = append(shuffled, es[:10]...)

	a1 := Analyze(es)
	a2 := Analyze(shuffled)

	if len(a1.Recent) != RecentEntries || a1.Recent[0].Date != "2026-03-20" {
		t.Fatalf("unexpected recent entries: %d first=%s", len(a1.Recent), a1.Recent[0].Date)
	}
	if !reflect.DeepEqual(a1, a2) {
		t.Fatalf("analysis should not depend on input order")
	}
	if es[0].Date != "2026-03-20" || shuffled[0].Date != es[10].Date {
		t.Fatalf("Analyze must not reorder its input")
	}
}

func TestDailyEntries_LatestPerDayWins(t *testing.T) {
	day := time.Date(2026, 3, 19, 0, 0, 0, 0, time.UTC)
	snap := func(h, appetite int) *doses.SymptomSnapshot {
		return &doses.SymptomSnapshot{Appetite: appetite, Energy: 3, RecordedAt: day.Add(time.Duration(h) * time.Hour)}
	}
	recs := []doses.DoseRecord{
		{ID: "a", DischargeID: "d1", Symptoms: snap(20, 4)},
		{ID: "b", DischargeID: "d1", Symptoms: snap(8, 1)},
		{ID: "c", DischargeID: "d1", Symptoms: snap(32, 2)},
		{ID: "d", DischargeID: "d1"},
	}

	got := DailyEntries(recs, time.UTC)
	if len(got) != 2 {
		t.Fatalf("expected 2 days, got %+v", got)
	}
	if got[0].Date != "2026-03-20" || got[0].Appetite != 2 {
		t.Fatalf("unexpected most recent day: %+v", got[0])
	}
	if got[1].Date != "2026-03-19" || got[1].Appetite != 4 {
		t.Fatalf("latest snapshot of 03-19 should win: %+v", got[1])
	}
}

func TestDailyEntries_ClinicTimezone(t *testing.T) {
	loc := time.FixedZone("UTC-3", -3*3600)
	recs := []doses.DoseRecord{{
		ID:       "a",
		Symptoms: &doses.SymptomSnapshot{Appetite: 3, RecordedAt: time.Date(2026, 3, 20, 1, 0, 0, 0, time.UTC)},
	}}

	got := DailyEntries(recs, loc)
	if len(got) != 1 || got[0].Date != "2026-03-19" {
		t.Fatalf("expected clinic-local date, got %+v", got)
	}
}

func TestAnalyzeEpisodes_MergesAndTags(t *testing.T) {
	ep1 := series([]int{1, 2}, 4)        // 03-20, 03-19
	ep2 := series([]int{4, 4, 4}, 4)[1:] // 03-19, 03-18

	// El 03-19 de ep2 es más viejo; gana ep1.
	ep2[0].RecordedAt = ep2[0].RecordedAt.Add(-time.Hour)

	a := AnalyzeEpisodes([]EpisodeEntries{
		{DischargeID: "d1", Entries: ep1},
		{DischargeID: "d2", Entries: ep2},
	})

	low := flagsOf(a, FlagAppetiteLow)
	if len(low) != 1 || low[0].DischargeID != "d1" {
		t.Fatalf("expected appetite_low tagged d1, got %+v", a.Flags)
	}
	if len(a.Recent) != 3 {
		t.Fatalf("expected 3 merged days, got %+v", a.Recent)
	}
	if a.Recent[1].Date != "2026-03-19" || a.Recent[1].DischargeID != "d1" {
		t.Fatalf("latest report of 03-19 should come from d1: %+v", a.Recent[1])
	}
	if a.Recent[2].DischargeID != "d2" {
		t.Fatalf("03-18 should come from d2: %+v", a.Recent[2])
	}
}

func TestAnalyzeEpisodes_DedupesSameDayFlags(t *testing.T) {
	// Ambas altas reportan apetito bajo el mismo par de días.
	a := AnalyzeEpisodes([]EpisodeEntries{
		{DischargeID: "d2", Entries: series([]int{2, 2}, 4)},
		{DischargeID: "d1", Entries: series([]int{1, 2}, 4)},
	})

	low := flagsOf(a, FlagAppetiteLow)
	if len(low) != 1 {
		t.Fatalf("expected a single deduped flag, got %+v", low)
	}
	if low[0].Severity != SeverityHigh || low[0].DischargeID != "d1" {
		t.Fatalf("highest severity should win, got %+v", low[0])
	}
}

func TestAnalyzeEpisodes_Empty(t *testing.T) {
	a := AnalyzeEpisodes(nil)
	if len(a.Flags) != 0 || len(a.Recent) != 0 || a.Trends.Appetite.Trend != TrendStable {
		t.Fatalf("expected empty analysis, got %+v", a)
	}
}
