package zabbix_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yunwei-afs/datascreen/pkg/zabbix"
)

type rpcCall struct {
	Method string         `json:"method"`
	Params map[string]any `json:"params"`
	Auth   string         `json:"auth"`
}

func newAPIServer(t *testing.T, triggers string, methods *[]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var raw struct {
			Method string          `json:"method"`
			Params json.RawMessage `json:"params"`
			Auth   string          `json:"auth"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		*methods = append(*methods, raw.Method)

		switch raw.Method {
		case "user.login":
			w.Write([]byte(`{"jsonrpc":"2.0","result":"token-123","id":1}`))
		case "trigger.get":
			assert.Equal(t, "token-123", raw.Auth)
			w.Write([]byte(`{"jsonrpc":"2.0","result":` + triggers + `,"id":1}`))
		case "user.logout":
			assert.Equal(t, "token-123", raw.Auth)
			w.Write([]byte(`{"jsonrpc":"2.0","result":true,"id":1}`))
		default:
			t.Errorf("unexpected method %s", raw.Method)
		}
	}))
}

func TestClient_UnresolvedAlarms(t *testing.T) {
	var methods []string
	triggers := `[
		{"description":"Agent ping failed","hosts":[{"host":"web-01"}]},
		{"description":"Disk full","hosts":[{"host":"db-02"}]}
	]`
	server := newAPIServer(t, triggers, &methods)
	defer server.Close()

	c := zabbix.New(server.URL, "user", "pass")
	alarms, err := c.UnresolvedAlarms(context.Background())
	require.NoError(t, err)

	require.Len(t, alarms, 2)
	assert.Equal(t, zabbix.Alarm{Host: "web-01", Description: "Agent ping failed"}, alarms[0])
	assert.Equal(t, zabbix.Alarm{Host: "db-02", Description: "Disk full"}, alarms[1])
	assert.Equal(t, []string{"user.login", "trigger.get", "user.logout"}, methods)
}

func TestClient_UnresolvedAlarms_Empty(t *testing.T) {
	var methods []string
	server := newAPIServer(t, `[]`, &methods)
	defer server.Close()

	c := zabbix.New(server.URL, "user", "pass")
	alarms, err := c.UnresolvedAlarms(context.Background())
	require.NoError(t, err)
	assert.Empty(t, alarms)
}

func TestClient_LoginFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"jsonrpc":"2.0","error":{"code":-32602,"message":"Invalid params.","data":"Login name or password is incorrect."},"id":1}`))
	}))
	defer server.Close()

	c := zabbix.New(server.URL, "user", "wrong")
	_, err := c.UnresolvedAlarms(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "zabbix login")
	assert.Contains(t, err.Error(), "incorrect")
}

func TestClient_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	c := zabbix.New(server.URL, "user", "pass")
	_, err := c.UnresolvedAlarms(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}
