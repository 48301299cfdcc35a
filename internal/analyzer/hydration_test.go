package analyzer

import (
	"testing"

	"carecircle-insight/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeHydration_LowSingleIntakeBoundaries(t *testing.T) {
	// (0, 200) 开区间：199 触发
	latest := mealRecord("r1", at(12, 0), f64Ptr(199))
	insights := AnalyzeHydration(nil, latest)
	require.NotEmpty(t, insights)
	assert.Equal(t, models.InsightLowSingleFluidIntake, insights[0].Kind)
	assert.Equal(t, models.SeverityMedium, insights[0].Severity)

	// 0 不算摄入量低（当日合计也是 0，不报脱水）
	latest = mealRecord("r2", at(12, 0), f64Ptr(0))
	insights = AnalyzeHydration(nil, latest)
	assert.Empty(t, insights)

	// 200 不触发单次摄入洞察（但 200 < 750 会触发脱水风险）
	latest = mealRecord("r3", at(12, 0), f64Ptr(200))
	insights = AnalyzeHydration(nil, latest)
	require.Len(t, insights, 1)
	assert.Equal(t, models.InsightDehydrationRisk, insights[0].Kind)
}

func TestAnalyzeHydration_DehydrationBoundaries(t *testing.T) {
	// 当日合计 749 触发（单次 ≥200 不报单次洞察）
	history := []models.HealthRecord{
		mealRecord("h1", at(8, 0), f64Ptr(549)),
	}
	latest := mealRecord("r1", at(12, 0), f64Ptr(200))
	insights := AnalyzeHydration(history, latest)
	require.Len(t, insights, 1)
	assert.Equal(t, models.InsightDehydrationRisk, insights[0].Kind)
	assert.Equal(t, models.SeverityHigh, insights[0].Severity)
	assert.Equal(t, 749.0, insights[0].TriggerValue)
	assert.Equal(t, 1500.0, insights[0].BaselineValue)

	// 当日合计 750 恰好不触发
	history = []models.HealthRecord{
		mealRecord("h1", at(8, 0), f64Ptr(550)),
	}
	insights = AnalyzeHydration(history, latest)
	assert.Empty(t, insights)
}

func TestAnalyzeHydration_OnlySameDayCounted(t *testing.T) {
	// 昨天的大量摄入不计入今天的合计
	history := []models.HealthRecord{
		mealRecord("h1", daysAgo(1, 20), f64Ptr(1200)),
		mealRecord("h2", at(7, 30), f64Ptr(100)),
	}
	latest := mealRecord("r1", at(12, 0), f64Ptr(300))
	insights := AnalyzeHydration(history, latest)
	// 今日合计 400 → 脱水风险
	require.Len(t, insights, 1)
	assert.Equal(t, models.InsightDehydrationRisk, insights[0].Kind)
	assert.Equal(t, 400.0, insights[0].TriggerValue)
}

func TestAnalyzeHydration_MissingFluidTreatedAsZero(t *testing.T) {
	// 没有 fluid_amount 的饮食记录按 0 计
	history := []models.HealthRecord{
		mealRecord("h1", at(8, 0), nil),
		mealRecord("h2", at(9, 0), f64Ptr(500)),
	}
	latest := mealRecord("r1", at(12, 0), f64Ptr(200))
	insights := AnalyzeHydration(history, latest)
	require.Len(t, insights, 1)
	assert.Equal(t, 700.0, insights[0].TriggerValue)
}

func TestAnalyzeHydration_LowIntakeAndDehydrationOrder(t *testing.T) {
	// 100ml、今日无其他记录 → 两条洞察，先单次后脱水
	latest := mealRecord("r1", at(12, 0), f64Ptr(100))
	insights := AnalyzeHydration(nil, latest)
	require.Len(t, insights, 2)
	assert.Equal(t, models.InsightLowSingleFluidIntake, insights[0].Kind)
	assert.Equal(t, 100.0, insights[0].TriggerValue)
	assert.Equal(t, models.InsightDehydrationRisk, insights[1].Kind)
	assert.Equal(t, 100.0, insights[1].TriggerValue)
}

func TestAnalyzeHydration_Purity(t *testing.T) {
	history := []models.HealthRecord{
		mealRecord("h1", at(8, 0), f64Ptr(100)),
	}
	latest := mealRecord("r1", at(12, 0), f64Ptr(150))

	first := AnalyzeHydration(history, latest)
	second := AnalyzeHydration(history, latest)
	assert.Equal(t, first, second)
}
