package analyzer

import (
	"fmt"
	"time"

	"carecircle-insight/internal/models"
)

// AnalyzeMedication 服药规则
// history 是不含触发记录的服药历史；当日汇总在 历史+新记录 的并集上统计
// now 用于"预定时刻是否已过"和 18 时汇总判断
func AnalyzeMedication(history []models.HealthRecord, latest models.HealthRecord, now time.Time) []models.Insight {
	var insights []models.Insight

	if latest.Medication == nil {
		return insights
	}

	today := latest.RecordedAt
	med := latest.Medication

	// ---- 漏服检测：未服用、有预定时刻、预定时刻已过且在记录当天 ----
	if !med.IsTaken && med.ScheduledTime != nil {
		scheduled := *med.ScheduledTime
		if scheduled.Before(now) && sameDay(today, scheduled) {
			insights = append(insights, models.Insight{
				Kind: models.InsightMedicationMissed,
				Message: fmt.Sprintf(
					"【注意】%s の %s の服薬が確認されていません。",
					scheduled.Format("15:04"), med.MedicationName),
				Severity:          models.SeverityHigh,
				TriggerValue:      med.MedicationName,
				BaselineValue:     scheduled.Format("15:04"),
				RelatedRecordID:   latest.RecordID,
				RelatedRecordKind: models.KindMedication,
			})
		}
	}

	// ---- 当日漏服汇总：18 时后仍有预定已过且未服用的记录 ----
	records := make([]models.HealthRecord, 0, len(history)+1)
	records = append(records, history...)
	records = append(records, latest)

	missedMedicationsCount := 0
	for _, r := range records {
		if r.Medication == nil || r.Medication.ScheduledTime == nil {
			continue
		}
		if !sameDay(today, *r.Medication.ScheduledTime) {
			continue
		}
		if !r.Medication.IsTaken && r.Medication.ScheduledTime.Before(now) {
			missedMedicationsCount++
		}
	}

	summaryCutoff := time.Date(today.Year(), today.Month(), today.Day(),
		medicationSummaryHour, 0, 0, 0, today.Location())

	if missedMedicationsCount > 0 && !now.Before(summaryCutoff) {
		insights = append(insights, models.Insight{
			Kind: models.InsightMedicationMissedSummary,
			Message: fmt.Sprintf(
				"【要確認】本日、%d件の服薬が確認されていません。服薬状況をご確認ください。",
				missedMedicationsCount),
			Severity:          models.SeverityHigh,
			TriggerValue:      missedMedicationsCount,
			RelatedRecordID:   latest.RecordID,
			RelatedRecordKind: models.KindMedication,
		})
	}

	return insights
}
