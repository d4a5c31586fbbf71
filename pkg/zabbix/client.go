// Package zabbix is a minimal JSON-RPC client for the Zabbix API,
// covering just the calls the alert bridge needs.
package zabbix

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Alarm is one unresolved problem reported by trigger.get.
type Alarm struct {
	Host        string
	Description string
}

// Client talks to a Zabbix server's api_jsonrpc.php endpoint.
type Client struct {
	url      string
	username string
	password string
	client   *http.Client
}

// New creates a Zabbix API client.
func New(url, username, password string) *Client {
	return &Client{
		url:      url,
		username: username,
		password: password,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// UnresolvedAlarms logs in, fetches triggers that are currently in
// problem state at average severity or above, and logs out. Results
// are sorted most recently changed first.
func (c *Client) UnresolvedAlarms(ctx context.Context) ([]Alarm, error) {
	auth, err := c.login(ctx)
	if err != nil {
		return nil, fmt.Errorf("zabbix login: %w", err)
	}
	defer c.logout(ctx, auth)

	params := map[string]any{
		"output":    []string{"description", "priority", "lastchange"},
		"monitored": true,
		"active":    true,
		"filter": map[string]any{
			"value":    1,
			"state":    0,
			"priority": []int{3, 4, 5},
		},
		"sortfield":         "lastchange",
		"sortorder":         "DESC",
		"expandDescription": true,
		"selectHosts":       []string{"host"},
	}

	raw, err := c.call(ctx, "trigger.get", params, auth)
	if err != nil {
		return nil, fmt.Errorf("zabbix trigger.get: %w", err)
	}

	var triggers []struct {
		Description string `json:"description"`
		Hosts       []struct {
			Host string `json:"host"`
		} `json:"hosts"`
	}
	if err := json.Unmarshal(raw, &triggers); err != nil {
		return nil, fmt.Errorf("decode triggers: %w", err)
	}

	alarms := make([]Alarm, 0, len(triggers))
	for _, t := range triggers {
		a := Alarm{Description: t.Description}
		if len(t.Hosts) > 0 {
			a.Host = t.Hosts[0].Host
		}
		alarms = append(alarms, a)
	}
	return alarms, nil
}

func (c *Client) login(ctx context.Context) (string, error) {
	raw, err := c.call(ctx, "user.login", map[string]string{
		"username": c.username,
		"password": c.password,
	}, "")
	if err != nil {
		return "", err
	}
	var token string
	if err := json.Unmarshal(raw, &token); err != nil {
		return "", fmt.Errorf("decode auth token: %w", err)
	}
	return token, nil
}

// logout is best effort; the session expires server side anyway.
func (c *Client) logout(ctx context.Context, auth string) {
	_, _ = c.call(ctx, "user.logout", []string{}, auth)
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
	ID      int    `json:"id"`
	Auth    string `json:"auth,omitempty"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("%s %s (code %d)", e.Message, e.Data, e.Code)
}

func (c *Client) call(ctx context.Context, method string, params any, auth string) (json.RawMessage, error) {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      1,
		Auth:    auth,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json-rpc")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send %s request: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d", method, resp.StatusCode)
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", method, err)
	}
	if rpcResp.Error != nil {
		return nil, rpcResp.Error
	}
	return rpcResp.Result, nil
}
