package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// maxContentBytes is the flush threshold for long messages. WeChat
// Work rejects markdown content above 4096 bytes; flushing early
// leaves room for the trailing alarm line that tipped it over.
const maxContentBytes = 3089

// WeChatNotifier posts markdown messages to a WeChat Work group-robot
// webhook. Oversized messages are split into several posts, each
// repeating the subject/body header before its slice of the
// unresolved-alarm list.
type WeChatNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewWeChatNotifier creates a WeChat Work webhook notifier.
func NewWeChatNotifier(webhookURL string) *WeChatNotifier {
	return &WeChatNotifier{
		webhookURL: webhookURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (n *WeChatNotifier) Name() string { return "wechat" }

func (n *WeChatNotifier) Send(ctx context.Context, alert Alert) error {
	content := alert.Subject + "\n" + alert.Body + "\n"
	if len(alert.Unresolved) == 0 {
		return n.post(ctx, content)
	}

	base := content + "\n>未恢复告警列表：\n"
	var pending strings.Builder
	for _, line := range alert.Unresolved {
		pending.WriteString(line)
		if len(base)+pending.Len() > maxContentBytes {
			if err := n.post(ctx, base+pending.String()); err != nil {
				return err
			}
			pending.Reset()
		}
	}
	if pending.Len() > 0 {
		return n.post(ctx, base+pending.String())
	}
	return nil
}

func (n *WeChatNotifier) post(ctx context.Context, content string) error {
	payload := wechatPayload{MsgType: "markdown"}
	payload.Markdown.Content = content

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal wechat payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create wechat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send wechat message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("wechat webhook returned status %d", resp.StatusCode)
	}

	var result wechatResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil && result.ErrCode != 0 {
		return fmt.Errorf("wechat webhook error %d: %s", result.ErrCode, result.ErrMsg)
	}
	return nil
}

type wechatPayload struct {
	MsgType  string `json:"msgtype"`
	Markdown struct {
		Content string `json:"content"`
	} `json:"markdown"`
}

type wechatResult struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}
