/*
@Date: 2022/4/27 13:14
@Author: max.liu
@File : consume
@Desc:
*/

package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Shopify/sarama"
	"github.com/maxliu9403/common/kafka"
	"github.com/maxliu9403/common/logger"

	"github.com/maxliu9403/ProxyBoard/internal/producer"
	"github.com/maxliu9403/ProxyBoard/models"
)

const (
	group = "proxyboard-group"
)

// Applier is satisfied by *proxy.Service.
type Applier interface {
	ApplyResults(ctx context.Context, results []models.ValidationResult) (int, error)
}

// RunConsume 在后台消费其他实例发布的测试结果
func RunConsume(consumer *kafka.ConsumerClient, svc Applier) (err error) {
	hand := kafka.NewConsumerGroup(taskHandler(svc))
	err = consumer.RunConsumer(group, []string{producer.ResultTopic}, hand)
	if err != nil {
		logger.Errorf("failed to consume: %s", err.Error())
		return err
	}

	if consumer.IsRunning() {
		logger.Info("kafka consumer is ready")
	} else {
		return fmt.Errorf("consumer is not running")
	}

	return err
}

func taskHandler(svc Applier) func(message *sarama.ConsumerMessage) {
	return func(message *sarama.ConsumerMessage) {
		switch message.Topic {
		case producer.ResultTopic:
			if err := consumeResult(svc, message.Value); err != nil {
				logger.Errorf("consume result failed, message offset is %d with partition %d: %s", message.Offset, message.Partition, err.Error())
			}
		default:
			logger.Errorf("unknown topic: %s", message.Topic)
		}
	}
}

func consumeResult(svc Applier, value []byte) error {
	var msg producer.ResultMessage
	if err := json.Unmarshal(value, &msg); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	// 本实例发布的结果已经生效
	if msg.Source == producer.Source() {
		return nil
	}
	if msg.Result.Proxy.ID <= 0 {
		return fmt.Errorf("result without proxy id")
	}

	n, err := svc.ApplyResults(context.Background(), []models.ValidationResult{msg.Result})
	if err != nil {
		return err
	}
	if n == 0 {
		logger.Debugf("result of unknown proxy %d from %s ignored", msg.Result.Proxy.ID, msg.Source)
	}
	return nil
}
