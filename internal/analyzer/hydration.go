package analyzer

import (
	"fmt"

	"carecircle-insight/internal/models"
)

// AnalyzeHydration 水分摄入规则
// history 是不含触发记录的饮食历史；当日合计 = 当日历史合计 + 新记录本次摄入
func AnalyzeHydration(history []models.HealthRecord, latest models.HealthRecord) []models.Insight {
	var insights []models.Insight

	if latest.Meal == nil || latest.Meal.FluidAmount == nil {
		return insights
	}
	fluidAmount := *latest.Meal.FluidAmount

	// 单次摄入量偏低：(0, 200) 开区间，0 不算低，≥200 不算低
	if fluidAmount > 0 && fluidAmount < lowSingleFluidIntakeML {
		insights = append(insights, models.Insight{
			Kind: models.InsightLowSingleFluidIntake,
			Message: fmt.Sprintf(
				"【注意】一度の水分摂取量が少ないようです。(今回: %gml)", fluidAmount),
			Severity:          models.SeverityMedium,
			TriggerValue:      fluidAmount,
			RelatedRecordID:   latest.RecordID,
			RelatedRecordKind: models.KindMeal,
		})
	}

	today := latest.RecordedAt
	totalFluidIntakeToday := fluidAmount
	for _, r := range history {
		if r.Meal == nil || r.Meal.FluidAmount == nil {
			continue
		}
		if sameDay(today, r.RecordedAt) {
			totalFluidIntakeToday += *r.Meal.FluidAmount
		}
	}

	// 当日合计不足目标一半：(0, 750) 开区间
	if totalFluidIntakeToday > 0 && totalFluidIntakeToday < dailyFluidIntakeGoalML/2 {
		insights = append(insights, models.Insight{
			Kind: models.InsightDehydrationRisk,
			Message: fmt.Sprintf(
				"【要経過観察】今日の水分摂取量が目標の半分以下です。(現在: %gml / 目標: %gml)",
				totalFluidIntakeToday, float64(dailyFluidIntakeGoalML)),
			Severity:          models.SeverityHigh,
			TriggerValue:      totalFluidIntakeToday,
			BaselineValue:     float64(dailyFluidIntakeGoalML),
			RelatedRecordID:   latest.RecordID,
			RelatedRecordKind: models.KindMeal,
		})
	}

	return insights
}
