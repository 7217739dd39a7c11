package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seenRequest struct {
	method string
	uri    string
	user   string
}

func newAPI(t *testing.T, seen *[]seenRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _, _ := r.BasicAuth()
		*seen = append(*seen, seenRequest{r.Method, r.URL.RequestURI(), user})

		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("month") == "13" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"success":false,"error":"month out of range"}`))
			return
		}
		w.Write([]byte(`{"success":true,"data":{"month_name":"Dey"}}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func run(t *testing.T, s *MCPServer, lines ...string) []JSONRPCResponse {
	t.Helper()
	var out bytes.Buffer
	require.NoError(t, s.Run(strings.NewReader(strings.Join(lines, "\n")), &out))

	var responses []JSONRPCResponse
	dec := json.NewDecoder(&out)
	for dec.More() {
		var resp JSONRPCResponse
		require.NoError(t, dec.Decode(&resp))
		responses = append(responses, resp)
	}
	return responses
}

func TestInitializeAndList(t *testing.T) {
	s := NewMCPServer("http://unused", "", "")

	responses := run(t, s,
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
		`{"jsonrpc":"2.0","id":3,"method":"resources/list"}`,
	)
	require.Len(t, responses, 3)

	init := responses[0].Result.(map[string]interface{})
	assert.Equal(t, protocolVersion, init["protocolVersion"])

	listed := responses[1].Result.(map[string]interface{})["tools"].([]interface{})
	assert.Len(t, listed, len(routes))
	for _, tool := range tools {
		assert.Contains(t, routes, tool.Name)
	}

	require.NotNil(t, responses[2].Error)
	assert.Equal(t, -32601, responses[2].Error.Code)
}

func TestToolCallForwardsArguments(t *testing.T) {
	var seen []seenRequest
	api := newAPI(t, &seen)
	s := NewMCPServer(api.URL+"/", "admin", "secret")

	responses := run(t, s,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"taqvim_month","arguments":{"year":1403,"month":10,"lang":"en"}}}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"taqvim_insight","arguments":{"lat":35.7,"lng":51.4}}}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"taqvim_sync","arguments":{}}}`,
		`{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"taqvim_calendars","arguments":{"year":1403}}}`,
	)
	require.Len(t, responses, 4)
	require.Len(t, seen, 4)

	assert.Equal(t, seenRequest{http.MethodGet, "/api/month?lang=en&month=10&year=1403", "admin"}, seen[0])
	assert.Equal(t, "/api/insight?lat=35.7&lng=51.4", seen[1].uri)
	assert.Equal(t, http.MethodPost, seen[2].method)
	assert.Equal(t, "/api/sync", seen[2].uri)
	assert.Equal(t, seenRequest{http.MethodGet, "/api/calendars", "admin"}, seen[3])

	result := responses[0].Result.(map[string]interface{})
	assert.Nil(t, result["isError"])
	text := result["content"].([]interface{})[0].(map[string]interface{})["text"].(string)
	assert.Contains(t, text, `"month_name": "Dey"`)
}

func TestToolCallErrors(t *testing.T) {
	var seen []seenRequest
	api := newAPI(t, &seen)
	s := NewMCPServer(api.URL, "admin", "secret")

	responses := run(t, s,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"taqvim_month","arguments":{"year":1403,"month":13}}}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"taqvim_list_tasks"}}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":"bad"}`,
		`not json`,
	)
	require.Len(t, responses, 4)

	first := responses[0].Result.(map[string]interface{})
	assert.Equal(t, true, first["isError"])
	assert.Contains(t, first["content"].([]interface{})[0].(map[string]interface{})["text"], "month out of range")

	second := responses[1].Result.(map[string]interface{})
	assert.Equal(t, true, second["isError"])

	require.NotNil(t, responses[2].Error)
	assert.Equal(t, -32602, responses[2].Error.Code)
	require.NotNil(t, responses[3].Error)
	assert.Equal(t, -32700, responses[3].Error.Code)

	assert.Len(t, seen, 1)
}

func TestArgString(t *testing.T) {
	assert.Equal(t, "1403", argString(float64(1403)))
	assert.Equal(t, "35.6892", argString(35.6892))
	assert.Equal(t, "Tajrish", argString("Tajrish"))
	assert.Equal(t, "true", argString(true))
}
