package analyzer

import (
	"time"

	"carecircle-insight/internal/models"
)

// 测试用的记录构造辅助

func f64Ptr(v float64) *float64 {
	return &v
}

func strPtr(s string) *string {
	return &s
}

func vitalRecord(id string, at time.Time, temp *float64, bp *models.BloodPressure) models.HealthRecord {
	return models.HealthRecord{
		RecordID:   id,
		GroupID:    "group-1",
		Kind:       models.KindVitalSign,
		RecordedBy: "caregiver-1",
		RecordedAt: at,
		VitalSign: &models.VitalSignData{
			Temperature:   temp,
			BloodPressure: bp,
		},
	}
}

func mealRecord(id string, at time.Time, fluidAmount *float64) models.HealthRecord {
	return models.HealthRecord{
		RecordID:   id,
		GroupID:    "group-1",
		Kind:       models.KindMeal,
		RecordedBy: "caregiver-1",
		RecordedAt: at,
		Meal: &models.MealData{
			FluidAmount: fluidAmount,
		},
	}
}

func excretionRecord(id string, at time.Time, data models.ExcretionData) models.HealthRecord {
	return models.HealthRecord{
		RecordID:   id,
		GroupID:    "group-1",
		Kind:       models.KindExcretion,
		RecordedBy: "caregiver-1",
		RecordedAt: at,
		Excretion:  &data,
	}
}

func medicationRecord(id, name string, at time.Time, isTaken bool, scheduled *time.Time) models.HealthRecord {
	return models.HealthRecord{
		RecordID:   id,
		GroupID:    "group-1",
		Kind:       models.KindMedication,
		RecordedBy: "caregiver-1",
		RecordedAt: at,
		Medication: &models.MedicationData{
			MedicationName: name,
			IsTaken:        isTaken,
			ScheduledTime:  scheduled,
		},
	}
}

// 固定的基准日，避免测试受真实时钟影响
var testDay = time.Date(2025, 6, 10, 10, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return time.Date(2025, 6, 10, hour, minute, 0, 0, time.UTC)
}

func daysAgo(days int, hour int) time.Time {
	return time.Date(2025, 6, 10-days, hour, 0, 0, 0, time.UTC)
}
