package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"carecircle-insight/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InsightsRepository 洞察仓库（对应 health_insights 表）
// 追加写入（insight sink）+ 洞察日志查询
type InsightsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewInsightsRepository 创建洞察仓库
func NewInsightsRepository(db *sql.DB, logger *zap.Logger) *InsightsRepository {
	return &InsightsRepository{
		db:     db,
		logger: logger,
	}
}

// InsightFilters 洞察查询过滤条件
type InsightFilters struct {
	StartTime  *time.Time // created_at >= StartTime
	EndTime    *time.Time // created_at <= EndTime
	Kind       *models.InsightKind
	Severity   *models.Severity
	Severities []models.Severity // IN 查询
	RecordKind *models.RecordKind
}

// AppendInsights 批量追加一次分析调用产生的全部洞察
// 单事务写入；created_at 由数据库 NOW() 赋值（写入序即时间序）
func (r *InsightsRepository) AppendInsights(ctx context.Context, groupID string, insights []models.Insight) error {
	if groupID == "" {
		return fmt.Errorf("group_id is required")
	}
	if len(insights) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO health_insights (
			insight_id,
			group_id,
			insight_type,
			message,
			severity,
			trigger_value,
			baseline_value,
			related_record_id,
			related_record_kind,
			created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, NOW()
		)
	`

	for i := range insights {
		insight := &insights[i]
		if insight.InsightID == "" {
			insight.InsightID = uuid.New().String()
		}

		triggerValue, err := marshalScalar(insight.TriggerValue)
		if err != nil {
			return fmt.Errorf("failed to marshal trigger_value: %w", err)
		}
		baselineValue, err := marshalScalar(insight.BaselineValue)
		if err != nil {
			return fmt.Errorf("failed to marshal baseline_value: %w", err)
		}

		_, err = tx.ExecContext(ctx, query,
			insight.InsightID,
			groupID,
			insight.Kind,
			insight.Message,
			insight.Severity,
			triggerValue,
			baselineValue,
			insight.RelatedRecordID,
			insight.RelatedRecordKind,
		)
		if err != nil {
			return fmt.Errorf("failed to insert insight: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit insights: %w", err)
	}

	return nil
}

// ListInsights 列表查询（支持多条件过滤、分页，created_at 倒序）
func (r *InsightsRepository) ListInsights(ctx context.Context, groupID string, filters InsightFilters, page, size int) ([]*models.Insight, int, error) {
	if groupID == "" {
		return []*models.Insight{}, 0, nil
	}

	args := []interface{}{groupID}
	argN := 2
	where := []string{"group_id = $1"}

	if filters.StartTime != nil {
		where = append(where, fmt.Sprintf("created_at >= $%d", argN))
		args = append(args, *filters.StartTime)
		argN++
	}
	if filters.EndTime != nil {
		where = append(where, fmt.Sprintf("created_at <= $%d", argN))
		args = append(args, *filters.EndTime)
		argN++
	}
	if filters.Kind != nil {
		where = append(where, fmt.Sprintf("insight_type = $%d", argN))
		args = append(args, *filters.Kind)
		argN++
	}
	if filters.Severity != nil {
		where = append(where, fmt.Sprintf("severity = $%d", argN))
		args = append(args, *filters.Severity)
		argN++
	}
	if len(filters.Severities) > 0 {
		placeholders := make([]string, len(filters.Severities))
		for i := range filters.Severities {
			placeholders[i] = fmt.Sprintf("$%d", argN)
			args = append(args, filters.Severities[i])
			argN++
		}
		where = append(where, fmt.Sprintf("severity IN (%s)", strings.Join(placeholders, ", ")))
	}
	if filters.RecordKind != nil {
		where = append(where, fmt.Sprintf("related_record_kind = $%d", argN))
		args = append(args, *filters.RecordKind)
		argN++
	}

	whereClause := "WHERE " + strings.Join(where, " AND ")

	queryCount := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM health_insights
		%s
	`, whereClause)

	var total int
	if err := r.db.QueryRowContext(ctx, queryCount, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count insights: %w", err)
	}

	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`
		SELECT
			insight_id,
			group_id,
			insight_type,
			message,
			severity,
			trigger_value,
			baseline_value,
			related_record_id,
			related_record_kind,
			created_at
		FROM health_insights
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, whereClause, argN, argN+1)

	args = append(args, size, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query insights: %w", err)
	}
	defer rows.Close()

	insights := []*models.Insight{}
	for rows.Next() {
		var insight models.Insight
		var triggerValue, baselineValue []byte

		err := rows.Scan(
			&insight.InsightID,
			&insight.GroupID,
			&insight.Kind,
			&insight.Message,
			&insight.Severity,
			&triggerValue,
			&baselineValue,
			&insight.RelatedRecordID,
			&insight.RelatedRecordKind,
			&insight.Timestamp,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan insight: %w", err)
		}

		if insight.TriggerValue, err = unmarshalScalar(triggerValue); err != nil {
			return nil, 0, fmt.Errorf("failed to unmarshal trigger_value: %w", err)
		}
		if insight.BaselineValue, err = unmarshalScalar(baselineValue); err != nil {
			return nil, 0, fmt.Errorf("failed to unmarshal baseline_value: %w", err)
		}

		insights = append(insights, &insight)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate insights: %w", err)
	}

	return insights, total, nil
}

// CountInsights 统计洞察数量（按条件）
func (r *InsightsRepository) CountInsights(ctx context.Context, groupID string, filters InsightFilters) (int, error) {
	if groupID == "" {
		return 0, nil
	}

	args := []interface{}{groupID}
	argN := 2
	where := []string{"group_id = $1"}

	if filters.StartTime != nil {
		where = append(where, fmt.Sprintf("created_at >= $%d", argN))
		args = append(args, *filters.StartTime)
		argN++
	}
	if filters.EndTime != nil {
		where = append(where, fmt.Sprintf("created_at <= $%d", argN))
		args = append(args, *filters.EndTime)
		argN++
	}
	if filters.Kind != nil {
		where = append(where, fmt.Sprintf("insight_type = $%d", argN))
		args = append(args, *filters.Kind)
		argN++
	}
	if filters.Severity != nil {
		where = append(where, fmt.Sprintf("severity = $%d", argN))
		args = append(args, *filters.Severity)
		argN++
	}

	query := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM health_insights
		WHERE %s
	`, strings.Join(where, " AND "))

	var total int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count insights: %w", err)
	}

	return total, nil
}

// marshalScalar 把标量 trigger/baseline 值序列化为 JSONB，nil 保持 SQL NULL
func marshalScalar(v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// unmarshalScalar 反序列化 JSONB 标量，SQL NULL 返回 nil
func unmarshalScalar(data []byte) (interface{}, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}
