package analyzer

import (
	"fmt"
	"sort"
	"time"

	"carecircle-insight/internal/models"
)

// AnalyzeExcretion 排泄规则
// history 是不含触发记录的排泄历史；同日/跨日统计都在 历史+新记录 的并集上进行
// now 只用于 17 时/21 时这类时刻判断，记录本身的时间一律用 recorded_at
func AnalyzeExcretion(history []models.HealthRecord, latest models.HealthRecord, now time.Time) []models.Insight {
	var insights []models.Insight

	if latest.Excretion == nil {
		return insights
	}

	today := latest.RecordedAt

	records := make([]models.HealthRecord, 0, len(history)+1)
	records = append(records, history...)
	records = append(records, latest)

	// ---- 便秘风险 ----
	var stoolRecords []models.HealthRecord
	for _, r := range records {
		if r.Excretion != nil && r.Excretion.HasStool() && r.Excretion.StoolShape != nil {
			stoolRecords = append(stoolRecords, r)
		}
	}
	sort.SliceStable(stoolRecords, func(i, j int) bool {
		return stoolRecords[i].RecordedAt.Before(stoolRecords[j].RecordedAt)
	})

	if len(stoolRecords) > 0 {
		lastStool := stoolRecords[len(stoolRecords)-1]

		// 今天的最新便记录为硬便
		if sameDay(today, lastStool.RecordedAt) && *lastStool.Excretion.StoolShape == models.StoolShapeHard {
			insights = append(insights, models.Insight{
				Kind:              models.InsightConstipationRisk,
				Message:           "【注意】便が硬いようです。水分補給を促してください。",
				Severity:          models.SeverityMedium,
				TriggerValue:      *lastStool.Excretion.StoolShape,
				RelatedRecordID:   lastStool.RecordID,
				RelatedRecordKind: models.KindExcretion,
			})
		}

		daysSinceLastStool := daysBetween(today, lastStool.RecordedAt)

		if len(stoolRecords) >= 2 {
			// 距上次排便已满 3 天，且新记录本身不是排便记录
			if daysSinceLastStool >= constipationDays && !latest.Excretion.HasStool() {
				insights = append(insights, models.Insight{
					Kind:              models.InsightConstipationRisk,
					Message:           "【要経過観察】3日以上排便がない状態が続いています。便秘に注意してください。",
					Severity:          models.SeverityHigh,
					TriggerValue:      daysSinceLastStool,
					RelatedRecordID:   latest.RecordID,
					RelatedRecordKind: models.KindExcretion,
				})
			}
		} else if daysSinceLastStool >= constipationDays {
			// 仅有一条便记录且已满 3 天（首条记录的消息变体）
			insights = append(insights, models.Insight{
				Kind:              models.InsightConstipationRisk,
				Message:           "【要経過観察】排便が記録されてから3日以上経過しています。",
				Severity:          models.SeverityHigh,
				TriggerValue:      daysSinceLastStool,
				RelatedRecordID:   latest.RecordID,
				RelatedRecordKind: models.KindExcretion,
			})
		}
	}

	// ---- 腹泻警报：当日水样便达到 2 次 ----
	wateryStoolCountToday := 0
	for _, r := range records {
		if r.Excretion == nil || !r.Excretion.HasStool() || r.Excretion.StoolShape == nil {
			continue
		}
		if sameDay(today, r.RecordedAt) && *r.Excretion.StoolShape == models.StoolShapeWatery {
			wateryStoolCountToday++
		}
	}
	if wateryStoolCountToday >= diarrheaDailyThreshold {
		insights = append(insights, models.Insight{
			Kind:              models.InsightDiarrheaAlert,
			Message:           "【緊急】本日、水様便が複数回記録されています。脱水症状にご注意ください。",
			Severity:          models.SeverityCritical,
			TriggerValue:      wateryStoolCountToday,
			RelatedRecordID:   latest.RecordID,
			RelatedRecordKind: models.KindExcretion,
		})
	}

	// ---- 排尿次数异常 ----
	urinationCountToday := 0
	nightUrinationCount := 0
	for _, r := range records {
		if r.Excretion == nil || !r.Excretion.HasUrine() {
			continue
		}
		if !sameDay(today, r.RecordedAt) {
			continue
		}
		urinationCountToday++
		if r.RecordedAt.Hour() >= nightUrinationStartHour {
			nightUrinationCount++
		}
	}

	if now.Hour() >= lowUrinationCheckHour && urinationCountToday < lowUrinationThreshold {
		insights = append(insights, models.Insight{
			Kind: models.InsightLowUrinationFrequency,
			Message: fmt.Sprintf(
				"【注意】今日の排尿記録イベントが少ないようです。(現在までに%d回)", urinationCountToday),
			Severity:          models.SeverityMedium,
			TriggerValue:      urinationCountToday,
			RelatedRecordID:   latest.RecordID,
			RelatedRecordKind: models.KindExcretion,
		})
	}

	if nightUrinationCount >= nightUrinationThreshold {
		insights = append(insights, models.Insight{
			Kind: models.InsightFrequentNightUrination,
			Message: fmt.Sprintf(
				"【注意】本日、夜間の排尿回数が多いようです。(夜間記録イベント: %d回)", nightUrinationCount),
			Severity:          models.SeverityMedium,
			TriggerValue:      nightUrinationCount,
			RelatedRecordID:   latest.RecordID,
			RelatedRecordKind: models.KindExcretion,
		})
	}

	// ---- 血尿警报 ----
	if latest.Excretion.HasUrine() && latest.Excretion.UrineColor != nil &&
		*latest.Excretion.UrineColor == models.UrineColorRed {
		insights = append(insights, models.Insight{
			Kind:              models.InsightBloodInUrineAlert,
			Message:           "【緊急】尿に血液が混じっている可能性があります（尿の色: 赤）。医療機関の受診を検討してください。",
			Severity:          models.SeverityCritical,
			TriggerValue:      *latest.Excretion.UrineColor,
			RelatedRecordID:   latest.RecordID,
			RelatedRecordKind: models.KindExcretion,
		})
	}

	// ---- 排便疼痛 ----
	if latest.Excretion.HasStool() && latest.Excretion.Pain != nil &&
		*latest.Excretion.Pain == models.PainPresent {
		insights = append(insights, models.Insight{
			Kind:              models.InsightExcretionPainAlert,
			Message:           "【注意】排便時に痛みがあったようです。原因を確認してください。",
			Severity:          models.SeverityMedium,
			TriggerValue:      *latest.Excretion.Pain,
			RelatedRecordID:   latest.RecordID,
			RelatedRecordKind: models.KindExcretion,
		})
	}

	return insights
}
