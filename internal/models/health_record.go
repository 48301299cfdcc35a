package models

import (
	"time"
)

// RecordKind 健康记录类型判别标签
// 与上游 App 的 Firestore 文档保持同一套字符串值
type RecordKind string

const (
	KindVitalSign  RecordKind = "vitalSign"  // 生命体征记录
	KindMeal       RecordKind = "meal"       // 饮食记录
	KindExcretion  RecordKind = "excretion"  // 排泄记录
	KindMedication RecordKind = "medication" // 服药记录
)

// IsValid 判断记录类型是否已知
func (k RecordKind) IsValid() bool {
	switch k {
	case KindVitalSign, KindMeal, KindExcretion, KindMedication:
		return true
	}
	return false
}

// HealthRecord 健康记录（tagged union）
// Kind 决定哪一个 variant 指针非空，其余必须为 nil
type HealthRecord struct {
	RecordID   string     `json:"record_id" db:"record_id"`
	GroupID    string     `json:"group_id" db:"group_id"`
	Kind       RecordKind `json:"kind" db:"record_kind"`
	RecordedBy string     `json:"recorded_by" db:"recorded_by"`
	RecordedAt time.Time  `json:"recorded_at" db:"recorded_at"`

	VitalSign  *VitalSignData  `json:"vital_sign,omitempty"`
	Meal       *MealData       `json:"meal,omitempty"`
	Excretion  *ExcretionData  `json:"excretion,omitempty"`
	Medication *MedicationData `json:"medication,omitempty"`
}

// BloodPressure 血压（收缩压/舒张压，mmHg）
type BloodPressure struct {
	Systolic  int `json:"systolic"`
	Diastolic int `json:"diastolic"`
}

// VitalSignData 生命体征记录内容
type VitalSignData struct {
	Temperature   *float64       `json:"temperature,omitempty"` // 体温（℃）
	BloodPressure *BloodPressure `json:"blood_pressure,omitempty"`
	SpO2          *float64       `json:"spo2,omitempty"`
	Notes         string         `json:"notes,omitempty"`
}

// HasBloodPressure 收缩压和舒张压都存在时才能做血压分析
func (v *VitalSignData) HasBloodPressure() bool {
	return v.BloodPressure != nil && v.BloodPressure.Systolic > 0 && v.BloodPressure.Diastolic > 0
}

// 饮食记录的枚举值（上游 App 的日文词表，原样保留）
const (
	MealTimeBreakfast = "朝食"
	MealTimeLunch     = "昼食"
	MealTimeDinner    = "夕食"
	MealTimeSnack     = "間食"

	DishAmountFull    = "完食"
	DishAmountEighty  = "8割"
	DishAmountHalf    = "5割"
	DishAmountThirty  = "3割"
	DishAmountNone    = "なし"
)

// MealData 饮食记录内容
type MealData struct {
	MealTimes        []string `json:"meal_times,omitempty"`
	StapleFoodAmount *string  `json:"staple_food_amount,omitempty"`
	MainDishAmount   *string  `json:"main_dish_amount,omitempty"`
	SideDishAmount   *string  `json:"side_dish_amount,omitempty"`
	FluidTypes       []string `json:"fluid_types,omitempty"`
	FluidAmount      *float64 `json:"fluid_amount,omitempty"` // 饮水量（ml）
	Notes            string   `json:"notes,omitempty"`
}

// 排泄记录的枚举值（日文词表）
const (
	ExcretionTypeUrine = "尿"
	ExcretionTypeStool = "便"
	ExcretionTypeVomit = "嘔吐"

	StoolShapeNormal = "普通"
	StoolShapeHard   = "硬い"
	StoolShapeSoft   = "軟らかい"
	StoolShapeWatery = "水様"
	StoolShapeMuddy  = "泥状"

	UrineColorRed = "赤"

	PainPresent = "あり"
	PainNone    = "なし"
)

// ExcretionData 排泄记录内容
type ExcretionData struct {
	ExcretionTypes []string `json:"excretion_types"`
	UrineColor     *string  `json:"urine_color,omitempty"`
	UrineNotes     *string  `json:"urine_notes,omitempty"`
	StoolShape     *string  `json:"stool_shape,omitempty"`
	StoolColor     *string  `json:"stool_color,omitempty"`
	StoolCount     *int     `json:"stool_count,omitempty"`
	StoolAmount    *string  `json:"stool_amount,omitempty"`
	OverallNotes   *string  `json:"overall_notes,omitempty"`
	Pain           *string  `json:"pain,omitempty"`
}

// HasStool 记录是否包含排便
func (e *ExcretionData) HasStool() bool {
	return e.hasType(ExcretionTypeStool)
}

// HasUrine 记录是否包含排尿
func (e *ExcretionData) HasUrine() bool {
	return e.hasType(ExcretionTypeUrine)
}

func (e *ExcretionData) hasType(t string) bool {
	for _, v := range e.ExcretionTypes {
		if v == t {
			return true
		}
	}
	return false
}

// MedicationData 服药记录内容
type MedicationData struct {
	MedicationName string     `json:"medication_name"`
	Dose           *string    `json:"dose,omitempty"`
	IsTaken        bool       `json:"is_taken"`
	ScheduledTime  *time.Time `json:"scheduled_time,omitempty"`
	Notes          string     `json:"notes,omitempty"`
}
