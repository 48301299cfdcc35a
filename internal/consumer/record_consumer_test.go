package consumer

import (
	"context"
	"testing"
	"time"

	"carecircle-insight/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	rediscommon "carecircle-insight/internal/redis"
)

const (
	testStream   = "health:records:events"
	testGroup    = "insight-analyzers"
	testConsumer = "insight-analyzer-test"
)

// stubAnalyzer 记录每次分析调用，便于断言
type stubAnalyzer struct {
	records []models.HealthRecord
	err     error
}

func (s *stubAnalyzer) Analyze(ctx context.Context, record models.HealthRecord, now time.Time) ([]models.Insight, error) {
	s.records = append(s.records, record)
	return nil, s.err
}

func setupConsumer(t *testing.T, analyzer Analyzer) (*RecordConsumer, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRecordConsumer(client, analyzer, zap.NewNop(),
		testStream, testGroup, testConsumer, 10), client
}

// publishEvent 发布记录事件并创建消费者组（组起点为 0，已有消息视为未投递）
func publishEvent(t *testing.T, client *redis.Client, event interface{}) {
	t.Helper()
	ctx := context.Background()

	_, err := rediscommon.PublishJSONToStream(ctx, client, testStream, event)
	require.NoError(t, err)
	require.NoError(t, rediscommon.CreateConsumerGroup(ctx, client, testStream, testGroup))
}

func pendingCount(t *testing.T, client *redis.Client) int64 {
	t.Helper()
	pending, err := client.XPending(context.Background(), testStream, testGroup).Result()
	require.NoError(t, err)
	return pending.Count
}

func TestConsumeEvents_AnalyzesAndAcks(t *testing.T) {
	analyzer := &stubAnalyzer{}
	consumer, client := setupConsumer(t, analyzer)

	recordedAt := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	temp := 38.0
	publishEvent(t, client, RecordEvent{
		GroupID:  "group-1",
		RecordID: "r1",
		Record: &models.HealthRecord{
			Kind:       models.KindVitalSign,
			RecordedAt: recordedAt,
			VitalSign:  &models.VitalSignData{Temperature: &temp},
		},
	})

	require.NoError(t, consumer.consumeEvents(context.Background()))

	// 分析器收到事件里补全了组ID/记录ID的记录
	require.Len(t, analyzer.records, 1)
	assert.Equal(t, "group-1", analyzer.records[0].GroupID)
	assert.Equal(t, "r1", analyzer.records[0].RecordID)
	assert.Equal(t, models.KindVitalSign, analyzer.records[0].Kind)
	assert.True(t, analyzer.records[0].RecordedAt.Equal(recordedAt))

	// 成功处理后消息已确认
	assert.Equal(t, int64(0), pendingCount(t, client))
}

func TestConsumeEvents_DeletionEventAckedWithoutAnalysis(t *testing.T) {
	analyzer := &stubAnalyzer{}
	consumer, client := setupConsumer(t, analyzer)

	publishEvent(t, client, RecordEvent{
		GroupID:  "group-1",
		RecordID: "r1",
		Record:   nil,
	})

	require.NoError(t, consumer.consumeEvents(context.Background()))

	assert.Empty(t, analyzer.records)
	assert.Equal(t, int64(0), pendingCount(t, client))
}

func TestConsumeEvents_MissingRecordedAtAckedWithoutAnalysis(t *testing.T) {
	analyzer := &stubAnalyzer{}
	consumer, client := setupConsumer(t, analyzer)

	publishEvent(t, client, RecordEvent{
		GroupID:  "group-1",
		RecordID: "r1",
		Record: &models.HealthRecord{
			Kind: models.KindVitalSign,
		},
	})

	require.NoError(t, consumer.consumeEvents(context.Background()))

	assert.Empty(t, analyzer.records)
	assert.Equal(t, int64(0), pendingCount(t, client))
}

func TestConsumeEvents_UnparsableEventAcked(t *testing.T) {
	analyzer := &stubAnalyzer{}
	consumer, client := setupConsumer(t, analyzer)

	ctx := context.Background()
	_, err := rediscommon.PublishToStream(ctx, client, testStream, map[string]interface{}{
		"data": "{not json",
	})
	require.NoError(t, err)
	require.NoError(t, rediscommon.CreateConsumerGroup(ctx, client, testStream, testGroup))

	require.NoError(t, consumer.consumeEvents(ctx))

	assert.Empty(t, analyzer.records)
	assert.Equal(t, int64(0), pendingCount(t, client))
}

func TestConsumeEvents_AnalyzerErrorLeavesMessagePending(t *testing.T) {
	analyzer := &stubAnalyzer{err: assert.AnError}
	consumer, client := setupConsumer(t, analyzer)

	temp := 38.0
	publishEvent(t, client, RecordEvent{
		GroupID:  "group-1",
		RecordID: "r1",
		Record: &models.HealthRecord{
			Kind:       models.KindVitalSign,
			RecordedAt: time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC),
			VitalSign:  &models.VitalSignData{Temperature: &temp},
		},
	})

	require.NoError(t, consumer.consumeEvents(context.Background()))

	// 分析被调用但失败：消息留在 pending 等待重投
	require.Len(t, analyzer.records, 1)
	assert.Equal(t, int64(1), pendingCount(t, client))
}

func TestParseEvent_MissingIdentifiers(t *testing.T) {
	consumer, _ := setupConsumer(t, &stubAnalyzer{})

	_, err := consumer.parseEvent(rediscommon.StreamMessage{
		ID:     "1-0",
		Values: map[string]interface{}{"data": `{"group_id":"","record_id":"r1"}`},
	})
	assert.Error(t, err)

	_, err = consumer.parseEvent(rediscommon.StreamMessage{
		ID:     "1-0",
		Values: map[string]interface{}{"other": "x"},
	})
	assert.Error(t, err)
}
