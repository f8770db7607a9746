/*
@Date: 2022/4/27 13:09
@Author: max.liu
@File : produce
@Desc:
*/

package producer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/maxliu9403/common/kafka"
	"github.com/maxliu9403/common/logger"

	"github.com/maxliu9403/ProxyBoard/models"
)

const (
	ResultTopic = "proxyboard.results"
)

// ResultMessage 是发布到 ResultTopic 的单条测试结果
type ResultMessage struct {
	Source string                  `json:"Source"`
	Result models.ValidationResult `json:"Result"`
}

var (
	kafkaProducer *kafka.AsyncProducer
	source        = instanceName()
)

func instanceName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "proxyboard"
	}
	return host
}

// Source 标识本实例发出的消息，消费端据此跳过自己的结果
func Source() string {
	return source
}

// SendMessage 用于生产消息，可变参数 keys 表示让同一个 key 的消息发送到同一个 partition，
// 同一个代理的结果按 host:port 发往同一个 partition，保证消费时的先后顺序。
// 需要注意，keys 长度仅允许为 1
func SendMessage(msg interface{}, keys ...string) error {
	if kafkaProducer == nil {
		return fmt.Errorf("kakfa producer is not initialized yet")
	}

	producer := *kafkaProducer
	js, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	logger.Debugf("send message is %v", string(js))
	return producer.Produce(ResultTopic, js, keys...)
}

func messages(results []models.ValidationResult) []ResultMessage {
	msgs := make([]ResultMessage, 0, len(results))
	for _, r := range results {
		msgs = append(msgs, ResultMessage{Source: source, Result: r})
	}
	return msgs
}

// ResultSink publishes every applied batch; failures are logged and dropped.
func ResultSink(ctx context.Context, results []models.ValidationResult) {
	for _, msg := range messages(results) {
		if err := SendMessage(msg, msg.Result.Proxy.Key()); err != nil {
			logger.ErrorfWithTrace(ctx, "publish result of %s failed: %s", msg.Result.Proxy.Key(), err.Error())
		}
	}
}

// NewProducer 从 kafka client 新建一个生产者
func NewProducer(conf kafka.Config) {
	var err error

	if kafkaProducer != nil {
		return
	}

	cli := kafka.Default()
	if cli == nil {
		cli, err = conf.BuildKafka(context.TODO())
		if err != nil {
			logger.Fatal(err.Error())
			return
		}
	}

	p, err := cli.NewAsyncProducerClient()
	if err != nil {
		logger.Fatal(err.Error())
		return
	}

	p.RunAsyncProducer()
	go func() {
		for {
			e := <-p.ProducerErrors()
			logger.Errorf("message %v produce failed", e.Msg)
		}
	}()

	kafkaProducer = &p
}
