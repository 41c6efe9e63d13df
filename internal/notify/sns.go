package notify

import (
	"context"
	"fmt"

	"workflow-chat/internal/common/aws"
	"workflow-chat/internal/common/logger"
)

// TopicNotifier escalates by publishing to an SNS topic, which downstream
// subscriptions fan out to SMS or pagers.
type TopicNotifier struct {
	client   *aws.SNSClient
	topicARN string
	logger   logger.Logger
}

func NewTopicNotifier(client *aws.SNSClient, topicARN string, log logger.Logger) *TopicNotifier {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &TopicNotifier{
		client:   client,
		topicARN: topicARN,
		logger:   log.WithFields(map[string]interface{}{"component": "topic-notifier"}),
	}
}

func (n *TopicNotifier) Notify(ctx context.Context, subject, message string) error {
	messageID, err := n.client.PublishToTopic(ctx, n.topicARN, subject, message)
	if err != nil {
		return fmt.Errorf("%w: sns: %v", ErrNotificationSendFailed, err)
	}
	n.logger.Debug("escalation published", map[string]interface{}{
		"topicArn":  n.topicARN,
		"messageId": messageID,
	})
	return nil
}
