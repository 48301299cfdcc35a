package analyzer

import (
	"testing"
	"time"

	"carecircle-insight/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func timePtr(t time.Time) *time.Time {
	return &t
}

func TestAnalyzeMedication_MissedPastDue(t *testing.T) {
	// 预定 09:00、记录 09:05、当前 10:00 → 恰好一条漏服洞察
	scheduled := at(9, 0)
	latest := medicationRecord("r1", "降圧剤", at(9, 5), false, timePtr(scheduled))
	insights := AnalyzeMedication(nil, latest, at(10, 0))
	require.Len(t, insights, 1)
	assert.Equal(t, models.InsightMedicationMissed, insights[0].Kind)
	assert.Equal(t, models.SeverityHigh, insights[0].Severity)
	assert.Equal(t, "降圧剤", insights[0].TriggerValue)
	assert.Equal(t, "09:00", insights[0].BaselineValue)
	assert.Contains(t, insights[0].Message, "降圧剤")
}

func TestAnalyzeMedication_NotDueYet(t *testing.T) {
	// 预定时刻在 1 分钟后 → 不触发
	now := at(10, 0)
	latest := medicationRecord("r1", "降圧剤", at(9, 55), false, timePtr(at(10, 1)))
	insights := AnalyzeMedication(nil, latest, now)
	assert.Empty(t, insights)

	// 预定时刻在 1 分钟前 → 触发
	latest = medicationRecord("r2", "降圧剤", at(9, 55), false, timePtr(at(9, 59)))
	insights = AnalyzeMedication(nil, latest, now)
	require.Len(t, insights, 1)
	assert.Equal(t, models.InsightMedicationMissed, insights[0].Kind)
}

func TestAnalyzeMedication_TakenNotMissed(t *testing.T) {
	latest := medicationRecord("r1", "降圧剤", at(9, 5), true, timePtr(at(9, 0)))
	insights := AnalyzeMedication(nil, latest, at(10, 0))
	assert.Empty(t, insights)
}

func TestAnalyzeMedication_NoScheduledTime(t *testing.T) {
	latest := medicationRecord("r1", "降圧剤", at(9, 5), false, nil)
	insights := AnalyzeMedication(nil, latest, at(10, 0))
	assert.Empty(t, insights)
}

func TestAnalyzeMedication_ScheduledDifferentDay(t *testing.T) {
	// 预定时刻是昨天：已过但不在记录当天 → 不触发单条漏服
	latest := medicationRecord("r1", "降圧剤", at(9, 5), false, timePtr(daysAgo(1, 9)))
	insights := AnalyzeMedication(nil, latest, at(10, 0))
	assert.Empty(t, insights)
}

func TestAnalyzeMedication_SummaryAfter18(t *testing.T) {
	// 18:30：历史上有 2 条当日预定已过且未服用 → 汇总洞察，count=2
	history := []models.HealthRecord{
		medicationRecord("h1", "降圧剤", at(9, 5), false, timePtr(at(9, 0))),
		medicationRecord("h2", "整腸剤", at(13, 5), false, timePtr(at(13, 0))),
	}
	latest := medicationRecord("r1", "ビタミン剤", at(18, 30), true, timePtr(at(18, 0)))
	insights := AnalyzeMedication(history, latest, at(18, 30))
	require.Len(t, insights, 1)
	assert.Equal(t, models.InsightMedicationMissedSummary, insights[0].Kind)
	assert.Equal(t, models.SeverityHigh, insights[0].Severity)
	assert.Equal(t, 2, insights[0].TriggerValue)
}

func TestAnalyzeMedication_SummaryNotBefore18(t *testing.T) {
	history := []models.HealthRecord{
		medicationRecord("h1", "降圧剤", at(9, 5), false, timePtr(at(9, 0))),
	}
	latest := medicationRecord("r1", "ビタミン剤", at(14, 0), true, timePtr(at(13, 30)))
	insights := AnalyzeMedication(history, latest, at(17, 59))
	assert.Empty(t, insights)
}

func TestAnalyzeMedication_SummaryAtExactly18(t *testing.T) {
	// 18:00 整点即触发
	history := []models.HealthRecord{
		medicationRecord("h1", "降圧剤", at(9, 5), false, timePtr(at(9, 0))),
	}
	latest := medicationRecord("r1", "ビタミン剤", at(18, 0), true, timePtr(at(17, 0)))
	insights := AnalyzeMedication(history, latest, at(18, 0))
	require.Len(t, insights, 1)
	assert.Equal(t, models.InsightMedicationMissedSummary, insights[0].Kind)
	assert.Equal(t, 1, insights[0].TriggerValue)
}

func TestAnalyzeMedication_MissedAndSummaryTogether(t *testing.T) {
	// 新记录本身漏服且已 18 时后 → 单条 + 汇总各一
	latest := medicationRecord("r1", "降圧剤", at(19, 0), false, timePtr(at(18, 30)))
	insights := AnalyzeMedication(nil, latest, at(19, 0))
	require.Len(t, insights, 2)
	assert.Equal(t, models.InsightMedicationMissed, insights[0].Kind)
	assert.Equal(t, models.InsightMedicationMissedSummary, insights[1].Kind)
	assert.Equal(t, 1, insights[1].TriggerValue)
}

func TestAnalyzeMedication_Purity(t *testing.T) {
	history := []models.HealthRecord{
		medicationRecord("h1", "降圧剤", at(9, 5), false, timePtr(at(9, 0))),
	}
	latest := medicationRecord("r1", "整腸剤", at(19, 0), false, timePtr(at(18, 30)))

	first := AnalyzeMedication(history, latest, at(19, 0))
	second := AnalyzeMedication(history, latest, at(19, 0))
	assert.Equal(t, first, second)
}
