package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/TasksFlow/TasksFlowBackend/pkg/config"
	"github.com/TasksFlow/TasksFlowBackend/pkg/logger"
	"github.com/TasksFlow/TasksFlowBackend/pkg/store/mysql/model"
)

// FeishuNotifier pushes critical monitoring alerts to a Feishu (Lark) group
// via an incoming webhook. An unconfigured webhook disables delivery.
type FeishuNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewFeishuNotifier creates a new Feishu notifier.
// Priority: config file, then the FEISHU_WEBHOOK_URL environment variable.
func NewFeishuNotifier() *FeishuNotifier {
	var webhookURL string
	if config.GlobalConfig != nil && config.GlobalConfig.Notification.FeishuWebhookURL != "" {
		webhookURL = config.GlobalConfig.Notification.FeishuWebhookURL
	} else {
		webhookURL = os.Getenv("FEISHU_WEBHOOK_URL")
	}

	if webhookURL == "" {
		logger.Warn("Feishu webhook URL not configured, alert notifications disabled")
	}

	return &FeishuNotifier{
		webhookURL: webhookURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Enabled reports whether a webhook is configured
func (f *FeishuNotifier) Enabled() bool {
	return f.webhookURL != ""
}

// SendAlert delivers one alert as an interactive card. Delivery is
// best-effort; failures are returned for the caller to log, never retried.
func (f *FeishuNotifier) SendAlert(ctx context.Context, alert *model.MonitoringAlert) error {
	if f.webhookURL == "" {
		return nil
	}

	card := map[string]any{
		"msg_type": "interactive",
		"card": map[string]any{
			"header": map[string]any{
				"title": map[string]any{
					"tag":     "plain_text",
					"content": fmt.Sprintf("Monitoring alert: %s", alert.AlertType),
				},
				"template": cardColor(alert.AlertLevel),
			},
			"elements": []map[string]any{
				{
					"tag": "div",
					"text": map[string]any{
						"tag": "lark_md",
						"content": fmt.Sprintf(
							"**Level:** %s\n**Message:** %s\n**Value:** %.1f (threshold %.1f)\n**Time:** %s",
							alert.AlertLevel,
							alert.AlertMessage,
							alert.AlertValue,
							alert.ThresholdValue,
							alert.Timestamp.Format(time.RFC3339),
						),
					},
				},
			},
		},
	}

	payload, err := json.Marshal(card)
	if err != nil {
		return fmt.Errorf("failed to marshal alert card: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to deliver alert notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func cardColor(level model.AlertLevel) string {
	switch level {
	case model.AlertLevelCritical:
		return "red"
	case model.AlertLevelWarning:
		return "orange"
	default:
		return "blue"
	}
}
