package analyzer

import (
	"fmt"
	"math"

	"carecircle-insight/internal/models"
)

// AnalyzeBloodPressureTrend 血压趋势规则
// history 是不含触发记录的生命体征历史（recorded_at 升序）
// 历史中的收缩压读数不足 minSystolicSamples 条时不产生任何洞察
func AnalyzeBloodPressureTrend(history []models.HealthRecord, latest models.HealthRecord) []models.Insight {
	var insights []models.Insight

	if latest.VitalSign == nil || !latest.VitalSign.HasBloodPressure() {
		return insights
	}

	var systolics []int
	for _, r := range history {
		if r.VitalSign != nil && r.VitalSign.BloodPressure != nil {
			systolics = append(systolics, r.VitalSign.BloodPressure.Systolic)
		}
	}

	if len(systolics) < minSystolicSamples {
		return insights
	}

	latestSystolic := latest.VitalSign.BloodPressure.Systolic
	latestDiastolic := latest.VitalSign.BloodPressure.Diastolic

	sum := 0
	for _, v := range systolics {
		sum += v
	}
	averageRecentSystolic := float64(sum) / float64(len(systolics))

	latestSystolicF := float64(latestSystolic)
	if latestSystolicF > averageRecentSystolic &&
		(latestSystolicF/averageRecentSystolic-1 > systolicIncreaseRatio ||
			latestSystolicF-averageRecentSystolic > systolicIncreaseAbsolute) &&
		latestSystolic >= highSystolicThreshold {
		insights = append(insights, models.Insight{
			Kind: models.InsightBloodPressureTrend,
			Message: fmt.Sprintf(
				"【要経過観察】最新の収縮期血圧が上昇傾向にあり、高血圧の予兆があるかもしれません。(最新: %dmmHg, 過去平均: %.1fmmHg)",
				latestSystolic, averageRecentSystolic),
			Severity:          models.SeverityHigh,
			TriggerValue:      latestSystolic,
			BaselineValue:     math.Round(averageRecentSystolic*10) / 10,
			RelatedRecordID:   latest.RecordID,
			RelatedRecordKind: models.KindVitalSign,
		})
	}

	// 绝对高血压判断与趋势判断相互独立，可以同时触发
	if latestSystolic >= highSystolicThreshold || latestDiastolic >= highDiastolicThreshold {
		insights = append(insights, models.Insight{
			Kind: models.InsightHighBloodPressure,
			Message: fmt.Sprintf(
				"【注意】最新の血圧が国際的な高血圧の基準値を超えています。(収縮期: %dmmHg, 拡張期: %dmmHg)",
				latestSystolic, latestDiastolic),
			Severity:          models.SeverityMedium,
			TriggerValue:      latestSystolic,
			RelatedRecordID:   latest.RecordID,
			RelatedRecordKind: models.KindVitalSign,
		})
	}

	return insights
}

// AnalyzeTemperature 体温规则
// 发热与低体温各自独立判断；急升判断需要至少 minTemperatureSamples 条历史体温
func AnalyzeTemperature(history []models.HealthRecord, latest models.HealthRecord) []models.Insight {
	var insights []models.Insight

	if latest.VitalSign == nil || latest.VitalSign.Temperature == nil {
		return insights
	}
	latestTemp := *latest.VitalSign.Temperature

	if latestTemp >= feverThreshold {
		insights = append(insights, models.Insight{
			Kind: models.InsightFeverAlert,
			Message: fmt.Sprintf(
				"【緊急】発熱の可能性があります。体温を確認してください。(最新: %g℃)", latestTemp),
			Severity:          models.SeverityCritical,
			TriggerValue:      latestTemp,
			RelatedRecordID:   latest.RecordID,
			RelatedRecordKind: models.KindVitalSign,
		})
	}

	if latestTemp <= hypothermiaThreshold {
		insights = append(insights, models.Insight{
			Kind: models.InsightHypothermiaAlert,
			Message: fmt.Sprintf(
				"【緊急】低体温の可能性があります。体温を確認してください。(最新: %g℃)", latestTemp),
			Severity:          models.SeverityCritical,
			TriggerValue:      latestTemp,
			RelatedRecordID:   latest.RecordID,
			RelatedRecordKind: models.KindVitalSign,
		})
	}

	var pastTemps []float64
	for _, r := range history {
		if r.VitalSign != nil && r.VitalSign.Temperature != nil {
			pastTemps = append(pastTemps, *r.VitalSign.Temperature)
		}
	}

	if len(pastTemps) >= minTemperatureSamples {
		sum := 0.0
		for _, t := range pastTemps {
			sum += t
		}
		averagePastTemp := sum / float64(len(pastTemps))
		if latestTemp > averagePastTemp+temperatureSpikeDelta {
			insights = append(insights, models.Insight{
				Kind: models.InsightTemperatureSpike,
				Message: fmt.Sprintf(
					"【注意】体温が急激に上昇しています。(最新: %g℃, 過去平均: %.1f℃)",
					latestTemp, averagePastTemp),
				Severity:          models.SeverityHigh,
				TriggerValue:      latestTemp,
				BaselineValue:     math.Round(averagePastTemp*10) / 10,
				RelatedRecordID:   latest.RecordID,
				RelatedRecordKind: models.KindVitalSign,
			})
		}
	}

	return insights
}
