package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"carecircle-insight/internal/models"

	"go.uber.org/zap"
)

// HealthRecordsRepository 健康记录仓库（对应 health_records 表）
// 引擎侧只读：实现 History Loader 契约
type HealthRecordsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewHealthRecordsRepository 创建健康记录仓库
func NewHealthRecordsRepository(db *sql.DB, logger *zap.Logger) *HealthRecordsRepository {
	return &HealthRecordsRepository{
		db:     db,
		logger: logger,
	}
}

// ListRecordsSince 按组拉取 recorded_at >= since 的全部记录，升序返回
// 不按类型过滤，类型过滤在分析器内完成
func (r *HealthRecordsRepository) ListRecordsSince(ctx context.Context, groupID string, since time.Time) ([]models.HealthRecord, error) {
	if groupID == "" {
		return nil, fmt.Errorf("group_id is required")
	}

	query := `
		SELECT
			record_id,
			group_id,
			record_kind,
			recorded_by,
			recorded_at,
			payload
		FROM health_records
		WHERE group_id = $1
		  AND recorded_at >= $2
		ORDER BY recorded_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, groupID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query health records: %w", err)
	}
	defer rows.Close()

	records := []models.HealthRecord{}
	for rows.Next() {
		var record models.HealthRecord
		var payload []byte

		err := rows.Scan(
			&record.RecordID,
			&record.GroupID,
			&record.Kind,
			&record.RecordedBy,
			&record.RecordedAt,
			&payload,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan health record: %w", err)
		}

		if err := unmarshalPayload(&record, payload); err != nil {
			// 未知类型或坏载荷的历史行跳过，不让单行数据毁掉整次分析
			r.logger.Warn("Skipping health record with bad payload",
				zap.String("record_id", record.RecordID),
				zap.String("kind", string(record.Kind)),
				zap.Error(err),
			)
			continue
		}

		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate health records: %w", err)
	}

	return records, nil
}

// unmarshalPayload 按记录类型把 JSONB 载荷解到对应 variant
func unmarshalPayload(record *models.HealthRecord, payload []byte) error {
	if len(payload) == 0 {
		return fmt.Errorf("empty payload")
	}

	switch record.Kind {
	case models.KindVitalSign:
		record.VitalSign = &models.VitalSignData{}
		return json.Unmarshal(payload, record.VitalSign)
	case models.KindMeal:
		record.Meal = &models.MealData{}
		return json.Unmarshal(payload, record.Meal)
	case models.KindExcretion:
		record.Excretion = &models.ExcretionData{}
		return json.Unmarshal(payload, record.Excretion)
	case models.KindMedication:
		record.Medication = &models.MedicationData{}
		return json.Unmarshal(payload, record.Medication)
	default:
		return fmt.Errorf("unknown record kind: %s", record.Kind)
	}
}
