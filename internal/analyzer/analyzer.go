package analyzer

import (
	"context"
	"fmt"
	"time"

	"carecircle-insight/internal/models"

	"go.uber.org/zap"
)

// 分析窗口与各规则的固定阈值（非配置项）
const (
	// 历史回溯窗口
	historyLookBackDays = 7

	// 体温规则
	feverThreshold        = 37.5
	hypothermiaThreshold  = 35.0
	temperatureSpikeDelta = 1.0
	minTemperatureSamples = 2

	// 血压规则
	highSystolicThreshold    = 140
	highDiastolicThreshold   = 90
	systolicIncreaseRatio    = 0.05
	systolicIncreaseAbsolute = 10.0
	minSystolicSamples       = 3

	// 水分规则
	dailyFluidIntakeGoalML   = 1500.0
	lowSingleFluidIntakeML   = 200.0

	// 排泄规则
	constipationDays        = 3
	diarrheaDailyThreshold  = 2
	lowUrinationCheckHour   = 17
	lowUrinationThreshold   = 2
	nightUrinationStartHour = 21
	nightUrinationThreshold = 3

	// 服药规则
	medicationSummaryHour = 18
)

// HistoryLoader 历史记录加载接口（由 repository.HealthRecordsRepository 实现）
type HistoryLoader interface {
	ListRecordsSince(ctx context.Context, groupID string, since time.Time) ([]models.HealthRecord, error)
}

// InsightSink 洞察写入接口（由 repository.InsightsRepository 实现）
// 一次调用的全部洞察作为一个批次写入
type InsightSink interface {
	AppendInsights(ctx context.Context, groupID string, insights []models.Insight) error
}

// Notifier 洞察通知接口（尽力而为，失败只记日志）
type Notifier interface {
	NotifyInsights(groupID string, insights []models.Insight)
}

// Analyzer 健康洞察分析器
// 按记录类型路由到各规则模块，聚合产生的洞察并批量写入 sink
type Analyzer struct {
	records  HistoryLoader
	insights InsightSink
	notifier Notifier // 可为 nil
	logger   *zap.Logger
}

// NewAnalyzer 创建分析器
func NewAnalyzer(records HistoryLoader, insights InsightSink, notifier Notifier, logger *zap.Logger) *Analyzer {
	return &Analyzer{
		records:  records,
		insights: insights,
		notifier: notifier,
		logger:   logger,
	}
}

// Analyze 分析一条新写入/更新的健康记录
// now 是本次调用的参考时刻，排泄/服药规则的时刻判断都以它为准
// 规则模块收到的历史记录不含触发记录本身（按 record_id 排除），
// 需要"今天全部记录"的规则在模块内部自行把新记录并进去
func (a *Analyzer) Analyze(ctx context.Context, record models.HealthRecord, now time.Time) ([]models.Insight, error) {
	if record.RecordedAt.IsZero() {
		a.logger.Warn("Record has no valid recorded_at, skipping analysis",
			zap.String("record_id", record.RecordID),
			zap.String("group_id", record.GroupID),
		)
		return nil, nil
	}

	since := record.RecordedAt.Add(-historyLookBackDays * 24 * time.Hour)
	history, err := a.records.ListRecordsSince(ctx, record.GroupID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	var insights []models.Insight

	switch record.Kind {
	case models.KindVitalSign:
		if record.VitalSign == nil {
			a.logger.Warn("VitalSign record without payload, skipping",
				zap.String("record_id", record.RecordID),
			)
			return nil, nil
		}
		vitals := filterKind(history, models.KindVitalSign, record.RecordID)
		if record.VitalSign.HasBloodPressure() {
			insights = append(insights, AnalyzeBloodPressureTrend(vitals, record)...)
		}
		if record.VitalSign.Temperature != nil {
			insights = append(insights, AnalyzeTemperature(vitals, record)...)
		}

	case models.KindMeal:
		if record.Meal == nil {
			a.logger.Warn("Meal record without payload, skipping",
				zap.String("record_id", record.RecordID),
			)
			return nil, nil
		}
		if record.Meal.FluidAmount != nil {
			meals := filterKind(history, models.KindMeal, record.RecordID)
			insights = append(insights, AnalyzeHydration(meals, record)...)
		}

	case models.KindExcretion:
		if record.Excretion == nil {
			a.logger.Warn("Excretion record without payload, skipping",
				zap.String("record_id", record.RecordID),
			)
			return nil, nil
		}
		excretions := filterKind(history, models.KindExcretion, record.RecordID)
		insights = append(insights, AnalyzeExcretion(excretions, record, now)...)

	case models.KindMedication:
		if record.Medication == nil {
			a.logger.Warn("Medication record without payload, skipping",
				zap.String("record_id", record.RecordID),
			)
			return nil, nil
		}
		medications := filterKind(history, models.KindMedication, record.RecordID)
		insights = append(insights, AnalyzeMedication(medications, record, now)...)

	default:
		// 未知类型：记录后忽略，不视为错误
		a.logger.Warn("Unknown record kind, skipping analysis",
			zap.String("record_id", record.RecordID),
			zap.String("kind", string(record.Kind)),
		)
		return nil, nil
	}

	if len(insights) == 0 {
		a.logger.Debug("No insights produced",
			zap.String("record_id", record.RecordID),
			zap.String("kind", string(record.Kind)),
		)
		return nil, nil
	}

	// 洞察统一打上组ID后一次性批量写入
	for i := range insights {
		insights[i].GroupID = record.GroupID
	}

	if err := a.insights.AppendInsights(ctx, record.GroupID, insights); err != nil {
		return nil, fmt.Errorf("failed to append insights: %w", err)
	}

	a.logger.Info("Insights created",
		zap.String("group_id", record.GroupID),
		zap.String("record_id", record.RecordID),
		zap.String("kind", string(record.Kind)),
		zap.Int("insight_count", len(insights)),
	)

	if a.notifier != nil {
		a.notifier.NotifyInsights(record.GroupID, insights)
	}

	return insights, nil
}

// filterKind 过滤出指定类型的历史记录，并按 record_id 排除触发记录本身
func filterKind(history []models.HealthRecord, kind models.RecordKind, excludeRecordID string) []models.HealthRecord {
	filtered := make([]models.HealthRecord, 0, len(history))
	for _, r := range history {
		if r.Kind != kind {
			continue
		}
		if excludeRecordID != "" && r.RecordID == excludeRecordID {
			continue
		}
		filtered = append(filtered, r)
	}
	return filtered
}

// sameDay 判断两个时刻是否属于同一个日历日（以 a 的时区为准）
func sameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// daysBetween 计算 a - b 的完整天数（不足 24 小时不计）
func daysBetween(a, b time.Time) int {
	return int(a.Sub(b) / (24 * time.Hour))
}
