package core

import (
	"sort"

	"github.com/huangsam/mri/schema"
)

// Compare computes the delta between a snapshot's aggregate and the one of the
// snapshot immediately before it. Without a previous aggregate every field is zero.
// Hotspot movement is derived from counts only: one file leaving the critical set
// while another enters it shows up as no change.
func Compare(current schema.AggregateMetrics, previous *schema.AggregateMetrics) schema.Comparison {
	if previous == nil {
		return schema.Comparison{}
	}
	return schema.Comparison{
		RiskDelta:        round1(current.AvgRisk - previous.AvgRisk),
		HotspotsAdded:    max(0, current.HotspotCount-previous.HotspotCount),
		HotspotsResolved: max(0, previous.HotspotCount-current.HotspotCount),
		HealthScoreDelta: round1(current.HealthScore - previous.HealthScore),
	}
}

// compareSnapshots is Compare over whole snapshots.
func compareSnapshots(current, previous *schema.AnalysisSnapshot) schema.Comparison {
	if previous == nil {
		return schema.Comparison{}
	}
	return Compare(current.AggregateMetrics, &previous.AggregateMetrics)
}

// DetectEvents reports the files that crossed the critical boundary since the
// previous snapshot. Only files present in the current build are considered.
// A first snapshot has no baseline and yields no events.
func DetectEvents(current []schema.ScoredFile, previous *schema.AnalysisSnapshot) []schema.Event {
	if previous == nil {
		return nil
	}

	// The stored file list of a snapshot always holds every critical file.
	before := make(map[string]schema.ScoredFile, len(previous.Files))
	for _, f := range previous.Files {
		before[f.Path] = f
	}

	var events []schema.Event
	for _, f := range current {
		prev, seen := before[f.Path]
		wasCritical := seen && prev.Category == schema.CriticalCategory
		isCritical := f.Category == schema.CriticalCategory

		switch {
		case isCritical && !wasCritical:
			// Healthy files are not stored, so an unseen file has no known risk.
			var prevRisk *int
			if seen {
				prevRisk = &prev.Risk
			}
			events = append(events, schema.Event{
				Kind:         schema.CriticalEnteredEvent,
				Path:         f.Path,
				Risk:         f.Risk,
				PreviousRisk: prevRisk,
			})
		case wasCritical && !isCritical:
			events = append(events, schema.Event{
				Kind:         schema.CriticalResolvedEvent,
				Path:         f.Path,
				Risk:         f.Risk,
				PreviousRisk: &prev.Risk,
			})
		}
	}

	sort.Slice(events, func(i, j int) bool {
		if events[i].Kind != events[j].Kind {
			return events[i].Kind < events[j].Kind
		}
		return events[i].Path < events[j].Path
	})
	return events
}
