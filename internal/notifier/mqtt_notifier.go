package notifier

import (
	"encoding/json"

	"carecircle-insight/internal/models"
	"carecircle-insight/internal/mqtt"

	"go.uber.org/zap"
)

// MQTTNotifier 洞察 MQTT 外发器
// 把每条洞察发布到 {prefix}{group_id}/insights，供下游订阅方消费
// 发布失败只记日志：洞察此时已经落库，外发是尽力而为
type MQTTNotifier struct {
	client      *mqtt.Client
	qos         byte
	topicPrefix string
	logger      *zap.Logger
}

// NewMQTTNotifier 创建 MQTT 外发器
func NewMQTTNotifier(client *mqtt.Client, qos byte, topicPrefix string, logger *zap.Logger) *MQTTNotifier {
	return &MQTTNotifier{
		client:      client,
		qos:         qos,
		topicPrefix: topicPrefix,
		logger:      logger,
	}
}

// NotifyInsights 发布一批洞察
func (n *MQTTNotifier) NotifyInsights(groupID string, insights []models.Insight) {
	topic := n.topicPrefix + groupID + "/insights"

	for _, insight := range insights {
		payload, err := json.Marshal(insight)
		if err != nil {
			n.logger.Error("Failed to marshal insight for publish",
				zap.String("insight_id", insight.InsightID),
				zap.Error(err),
			)
			continue
		}

		if err := n.client.Publish(topic, n.qos, false, payload); err != nil {
			n.logger.Error("Failed to publish insight",
				zap.String("topic", topic),
				zap.String("insight_id", insight.InsightID),
				zap.Error(err),
			)
		}
	}
}
