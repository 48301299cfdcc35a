package models

import (
	"time"
)

// InsightKind 洞察类型（对应 health_insights.insight_type）
type InsightKind string

const (
	InsightBloodPressureTrend      InsightKind = "blood_pressure_trend"
	InsightHighBloodPressure       InsightKind = "high_blood_pressure"
	InsightFeverAlert              InsightKind = "fever_alert"
	InsightHypothermiaAlert        InsightKind = "hypothermia_alert"
	InsightTemperatureSpike        InsightKind = "temperature_spike"
	InsightLowSingleFluidIntake    InsightKind = "low_single_fluid_intake"
	InsightDehydrationRisk         InsightKind = "dehydration_risk"
	InsightConstipationRisk        InsightKind = "constipation_risk"
	InsightDiarrheaAlert           InsightKind = "diarrhea_alert"
	InsightLowUrinationFrequency   InsightKind = "low_urination_frequency"
	InsightFrequentNightUrination  InsightKind = "frequent_night_urination"
	InsightBloodInUrineAlert       InsightKind = "blood_in_urine_alert"
	InsightExcretionPainAlert      InsightKind = "excretion_pain_alert"
	InsightMedicationMissed        InsightKind = "medication_missed"
	InsightMedicationMissedSummary InsightKind = "medication_missed_summary"
	InsightGeneralAlert            InsightKind = "general_alert"
)

// Severity 严重等级，有序枚举：low < medium < high < critical
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank 返回严重等级的数值序，供下游排序/过滤使用
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 0
	case SeverityMedium:
		return 1
	case SeverityHigh:
		return 2
	case SeverityCritical:
		return 3
	}
	return -1
}

// Insight 洞察事件（对应 health_insights 表）
// 由规则模块生成，追加写入后不再修改
// Timestamp 由 sink 写入时用 NOW() 赋值，引擎侧保持零值
type Insight struct {
	InsightID         string      `json:"insight_id" db:"insight_id"`
	GroupID           string      `json:"group_id" db:"group_id"`
	Kind              InsightKind `json:"kind" db:"insight_type"`
	Message           string      `json:"message" db:"message"`
	Severity          Severity    `json:"severity" db:"severity"`
	TriggerValue      interface{} `json:"trigger_value,omitempty" db:"trigger_value"`
	BaselineValue     interface{} `json:"baseline_value,omitempty" db:"baseline_value"`
	RelatedRecordID   string      `json:"related_record_id" db:"related_record_id"`
	RelatedRecordKind RecordKind  `json:"related_record_kind" db:"related_record_kind"`
	Timestamp         time.Time   `json:"timestamp" db:"created_at"`
}
