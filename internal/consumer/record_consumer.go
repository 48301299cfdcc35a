package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"carecircle-insight/internal/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	rediscommon "carecircle-insight/internal/redis"
)

// Analyzer 洞察分析器接口（由 analyzer.Analyzer 实现）
type Analyzer interface {
	Analyze(ctx context.Context, record models.HealthRecord, now time.Time) ([]models.Insight, error)
}

// RecordEvent 健康记录写入事件（trigger source 的 payload）
// Record 为 nil 表示删除事件，不做分析
type RecordEvent struct {
	GroupID  string               `json:"group_id"`
	RecordID string               `json:"record_id"`
	Record   *models.HealthRecord `json:"record"`
}

// RecordConsumer 记录写入事件消费者
// 每条记录的创建/更新触发一次分析调用
type RecordConsumer struct {
	redisClient  *redis.Client
	analyzer     Analyzer
	logger       *zap.Logger
	stream       string
	groupName    string
	consumerName string
	batchSize    int64
}

// NewRecordConsumer 创建记录事件消费者
func NewRecordConsumer(
	redisClient *redis.Client,
	analyzer Analyzer,
	logger *zap.Logger,
	stream string,
	groupName string,
	consumerName string,
	batchSize int64,
) *RecordConsumer {
	return &RecordConsumer{
		redisClient:  redisClient,
		analyzer:     analyzer,
		logger:       logger,
		stream:       stream,
		groupName:    groupName,
		consumerName: consumerName,
		batchSize:    batchSize,
	}
}

// Start 启动消费者
func (c *RecordConsumer) Start(ctx context.Context) error {
	// 创建消费者组
	if err := rediscommon.CreateConsumerGroup(ctx, c.redisClient, c.stream, c.groupName); err != nil {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	c.logger.Info("Record consumer started",
		zap.String("stream", c.stream),
		zap.String("consumer_group", c.groupName),
		zap.String("consumer_name", c.consumerName),
	)

	// 消费事件（带指数退避）
	backoffDuration := time.Second
	maxBackoff := 30 * time.Second

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Record consumer stopped")
			return nil
		default:
			if err := c.consumeEvents(ctx); err != nil {
				c.logger.Error("Failed to consume events",
					zap.Error(err),
					zap.Duration("backoff", backoffDuration),
				)

				// 指数退避
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(backoffDuration):
					backoffDuration *= 2
					if backoffDuration > maxBackoff {
						backoffDuration = maxBackoff
					}
				}
			} else {
				// 成功时重置退避时间
				backoffDuration = time.Second
			}
		}
	}
}

// consumeEvents 消费一批事件
func (c *RecordConsumer) consumeEvents(ctx context.Context) error {
	messages, err := rediscommon.ReadFromStream(
		ctx,
		c.redisClient,
		c.stream,
		c.groupName,
		c.consumerName,
		c.batchSize,
	)
	if err != nil {
		return fmt.Errorf("failed to read from stream: %w", err)
	}

	for _, msg := range messages {
		if err := c.processEvent(ctx, msg); err != nil {
			// 分析失败：不 ack，留给 stream 重投（本次调用原子失败，洞察未写入）
			c.logger.Error("Failed to process record event",
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
			continue
		}
		if err := c.ackMessage(ctx, msg.ID); err != nil {
			c.logger.Warn("Failed to ack message",
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
		}
	}

	return nil
}

// processEvent 处理单个记录写入事件
// 畸形输入（删除事件、缺失时间戳、未知类型）记日志后按成功处理，不重投
func (c *RecordConsumer) processEvent(ctx context.Context, msg rediscommon.StreamMessage) error {
	event, err := c.parseEvent(msg)
	if err != nil {
		c.logger.Warn("Skipping unparsable record event",
			zap.String("message_id", msg.ID),
			zap.Error(err),
		)
		return nil
	}

	// 删除事件不分析
	if event.Record == nil {
		c.logger.Debug("Record deleted, no analysis needed",
			zap.String("group_id", event.GroupID),
			zap.String("record_id", event.RecordID),
		)
		return nil
	}

	record := *event.Record
	record.GroupID = event.GroupID
	record.RecordID = event.RecordID

	if record.RecordedAt.IsZero() {
		c.logger.Warn("Record has invalid or missing recorded_at, skipping analysis",
			zap.String("group_id", event.GroupID),
			zap.String("record_id", event.RecordID),
		)
		return nil
	}

	c.logger.Info("Starting health analysis",
		zap.String("group_id", record.GroupID),
		zap.String("record_id", record.RecordID),
		zap.String("kind", string(record.Kind)),
		zap.Time("recorded_at", record.RecordedAt),
	)

	if _, err := c.analyzer.Analyze(ctx, record, time.Now()); err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	return nil
}

// parseEvent 解析事件消息（data 字段为 JSON 的 RecordEvent）
func (c *RecordConsumer) parseEvent(msg rediscommon.StreamMessage) (*RecordEvent, error) {
	dataStr, ok := msg.Values["data"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid event: missing data field")
	}

	var event RecordEvent
	if err := json.Unmarshal([]byte(dataStr), &event); err != nil {
		return nil, fmt.Errorf("failed to parse event: %w", err)
	}

	if event.GroupID == "" || event.RecordID == "" {
		return nil, fmt.Errorf("invalid event: missing group_id or record_id")
	}

	return &event, nil
}

// ackMessage 确认消息
func (c *RecordConsumer) ackMessage(ctx context.Context, messageID string) error {
	return c.redisClient.XAck(ctx, c.stream, c.groupName, messageID).Err()
}
