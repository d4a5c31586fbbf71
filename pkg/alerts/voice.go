package alerts

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultVoiceEndpoint is the Aliyun voice-message (Dyvmsapi) gateway.
const DefaultVoiceEndpoint = "https://dyvmsapi.aliyuncs.com/"

// VoiceNotifier places text-to-speech calls through the Aliyun
// SingleCallByTts API. It only acts on alerts carrying a downed host;
// every configured number is called with the host name as the TTS
// template parameter.
type VoiceNotifier struct {
	endpoint        string
	accessKeyID     string
	accessKeySecret string
	ttsCode         string
	numbers         []string
	client          *http.Client
}

// NewVoiceNotifier creates an Aliyun voice-call notifier. An empty
// endpoint selects DefaultVoiceEndpoint.
func NewVoiceNotifier(endpoint, accessKeyID, accessKeySecret, ttsCode string, numbers []string) *VoiceNotifier {
	if endpoint == "" {
		endpoint = DefaultVoiceEndpoint
	}
	return &VoiceNotifier{
		endpoint:        endpoint,
		accessKeyID:     accessKeyID,
		accessKeySecret: accessKeySecret,
		ttsCode:         ttsCode,
		numbers:         numbers,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (n *VoiceNotifier) Name() string { return "alivoice" }

func (n *VoiceNotifier) Send(ctx context.Context, alert Alert) error {
	if alert.Host == "" {
		return nil
	}

	ttsParam, err := json.Marshal(map[string]string{"hostname": alert.Host, "msg": "宕机"})
	if err != nil {
		return fmt.Errorf("marshal tts param: %w", err)
	}

	for _, number := range n.numbers {
		if err := n.call(ctx, number, string(ttsParam)); err != nil {
			return fmt.Errorf("call %s: %w", number, err)
		}
	}
	return nil
}

func (n *VoiceNotifier) call(ctx context.Context, number, ttsParam string) error {
	params := url.Values{}
	params.Set("Action", "SingleCallByTts")
	params.Set("Version", "2017-05-25")
	params.Set("Format", "JSON")
	params.Set("AccessKeyId", n.accessKeyID)
	params.Set("SignatureMethod", "HMAC-SHA1")
	params.Set("SignatureVersion", "1.0")
	params.Set("SignatureNonce", uuid.New().String())
	params.Set("Timestamp", time.Now().UTC().Format("2006-01-02T15:04:05Z"))
	params.Set("CalledNumber", number)
	params.Set("TtsCode", n.ttsCode)
	params.Set("TtsParam", ttsParam)
	params.Set("Signature", signRPC(params, n.accessKeySecret, http.MethodPost))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint,
		strings.NewReader(params.Encode()))
	if err != nil {
		return fmt.Errorf("create voice request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send voice request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read voice response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("voice gateway returned status %d", resp.StatusCode)
	}

	var result voiceResult
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("decode voice response: %w", err)
	}
	if result.Code != "OK" {
		return fmt.Errorf("voice gateway error %s: %s", result.Code, result.Message)
	}
	return nil
}

type voiceResult struct {
	Code    string `json:"Code"`
	Message string `json:"Message"`
	CallID  string `json:"CallId"`
}

// signRPC computes the Aliyun RPC-style request signature: the
// canonicalized query string is signed with HMAC-SHA1 under the secret
// plus a trailing ampersand.
func signRPC(params url.Values, secret, method string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = percentEncode(k) + "=" + percentEncode(params.Get(k))
	}
	canonical := strings.Join(pairs, "&")
	stringToSign := method + "&" + percentEncode("/") + "&" + percentEncode(canonical)

	mac := hmac.New(sha1.New, []byte(secret+"&"))
	mac.Write([]byte(stringToSign))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// percentEncode follows the RFC 3986 variant Aliyun requires, which
// differs from url.QueryEscape on space, asterisk, and tilde.
func percentEncode(s string) string {
	e := url.QueryEscape(s)
	e = strings.ReplaceAll(e, "+", "%20")
	e = strings.ReplaceAll(e, "*", "%2A")
	e = strings.ReplaceAll(e, "%7E", "~")
	return e
}
