package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Publisher MQTT 发布接口（由 internal/mqtt.Client 实现）
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// Event 发布到 MQTT 的 toast 事件
type Event struct {
	ID           string `json:"id"`
	Level        string `json:"level"`
	Message      string `json:"message"`
	ActionLabel  string `json:"action_label,omitempty"`
	RedirectInMs int64  `json:"redirect_in_ms,omitempty"`
	Timestamp    int64  `json:"timestamp"`
}

// MQTTNotifier publishes each notification as a JSON Event. Publish failures are
// logged and never reach the form.
type MQTTNotifier struct {
	pub    Publisher
	topic  string
	qos    byte
	logger *zap.Logger
	now    func() time.Time
}

func NewMQTTNotifier(pub Publisher, topic string, logger *zap.Logger) *MQTTNotifier {
	return &MQTTNotifier{pub: pub, topic: topic, qos: 1, logger: logger, now: time.Now}
}

func (n *MQTTNotifier) Success(ctx context.Context, message string) {
	n.publish(Event{Level: "success", Message: message})
}

func (n *MQTTNotifier) Error(ctx context.Context, message string, action *Action) {
	ev := Event{Level: "error", Message: message}
	if action != nil {
		ev.ActionLabel = action.Label
		ev.RedirectInMs = action.Delay.Milliseconds()
	}
	n.publish(ev)
}

func (n *MQTTNotifier) publish(ev Event) {
	ev.ID = uuid.NewString()
	ev.Timestamp = n.now().Unix()
	payload, err := json.Marshal(ev)
	if err != nil {
		n.logger.Error("Failed to marshal notification", zap.Error(err))
		return
	}
	if err := n.pub.Publish(n.topic, n.qos, false, payload); err != nil {
		n.logger.Warn("Failed to publish notification",
			zap.String("topic", n.topic),
			zap.String("event_id", ev.ID),
			zap.Error(err),
		)
	}
}
