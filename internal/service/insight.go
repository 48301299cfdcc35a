package service

import (
	"context"
	"database/sql"
	"fmt"

	"carecircle-insight/internal/analyzer"
	"carecircle-insight/internal/config"
	"carecircle-insight/internal/consumer"
	"carecircle-insight/internal/database"
	"carecircle-insight/internal/mqtt"
	"carecircle-insight/internal/notifier"
	"carecircle-insight/internal/repository"

	"go.uber.org/zap"

	rediscommon "carecircle-insight/internal/redis"
)

// InsightService 洞察分析服务（整合各层）
type InsightService struct {
	config      *config.Config
	db          *sql.DB
	redisClient *rediscommon.Client
	mqttClient  *mqtt.Client
	logger      *zap.Logger

	// 各层组件
	recordsRepo    *repository.HealthRecordsRepository
	insightsRepo   *repository.InsightsRepository
	analyzer       *analyzer.Analyzer
	recordConsumer *consumer.RecordConsumer
}

// NewInsightService 创建洞察分析服务
func NewInsightService(cfg *config.Config, logger *zap.Logger) (*InsightService, error) {
	// 1. 连接数据库
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// 2. 连接 Redis
	redisClient := rediscommon.NewRedisClient(&cfg.Redis)
	ctx := context.Background()
	if err := rediscommon.Ping(ctx, redisClient); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	// 3. MQTT 外发通道（可选）
	var mqttClient *mqtt.Client
	var insightNotifier analyzer.Notifier
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.NewClient(&cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to mqtt broker: %w", err)
		}
		insightNotifier = notifier.NewMQTTNotifier(mqttClient, cfg.MQTT.QoS, cfg.MQTT.TopicPrefix, logger)
	}

	// 4. 创建 Repository 层
	recordsRepo := repository.NewHealthRecordsRepository(db, logger)
	insightsRepo := repository.NewInsightsRepository(db, logger)

	// 5. 创建 Analyzer 层
	insightAnalyzer := analyzer.NewAnalyzer(recordsRepo, insightsRepo, insightNotifier, logger)

	// 6. 创建 Consumer 层
	recordConsumer := consumer.NewRecordConsumer(
		redisClient,
		insightAnalyzer,
		logger,
		cfg.Stream.Name,
		cfg.Stream.ConsumerGroup,
		cfg.Stream.ConsumerName,
		cfg.Stream.BatchSize,
	)

	return &InsightService{
		config:         cfg,
		db:             db,
		redisClient:    redisClient,
		mqttClient:     mqttClient,
		logger:         logger,
		recordsRepo:    recordsRepo,
		insightsRepo:   insightsRepo,
		analyzer:       insightAnalyzer,
		recordConsumer: recordConsumer,
	}, nil
}

// Start 启动服务
func (s *InsightService) Start(ctx context.Context) error {
	s.logger.Info("Starting insight service",
		zap.String("stream", s.config.Stream.Name),
		zap.Bool("mqtt_enabled", s.config.MQTT.Enabled),
	)

	if err := s.recordConsumer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start record consumer: %w", err)
	}

	return nil
}

// Stop 停止服务
func (s *InsightService) Stop() error {
	s.logger.Info("Stopping insight service")

	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close database",
			zap.Error(err),
		)
	}

	if err := s.redisClient.Close(); err != nil {
		s.logger.Error("Failed to close redis",
			zap.Error(err),
		)
	}

	if s.mqttClient != nil {
		s.mqttClient.Disconnect()
	}

	return nil
}
