package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const protocolVersion = "2024-11-05"

// JSON-RPC structures
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type JSONRPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type InitializeResult struct {
	ProtocolVersion string                 `json:"protocolVersion"`
	Capabilities    map[string]interface{} `json:"capabilities"`
	ServerInfo      ServerInfo             `json:"serverInfo"`
}

type Tool struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema InputSchema `json:"inputSchema"`
}

type InputSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

type Property struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Enum        []string `json:"enum,omitempty"`
}

type ToolCallParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

type ToolCallResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// toolRoute maps an MCP tool onto a REST endpoint of the bot
type toolRoute struct {
	method string
	path   string
	params []string
}

var langProperty = Property{Type: "string", Description: "Language of names and titles", Enum: []string{"fa", "en"}}

var tools = []Tool{
	{
		Name:        "taqvim_today",
		Description: "Today's Jalali date with season, events and the next few occasions.",
		InputSchema: InputSchema{Type: "object", Properties: map[string]Property{"lang": langProperty}},
	},
	{
		Name:        "taqvim_month",
		Description: "42-cell Saturday-first grid of a Jalali month with holidays and events.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"year":  {Type: "integer", Description: "Jalali year, e.g. 1403"},
				"month": {Type: "integer", Description: "Jalali month 1-12"},
				"lang":  langProperty,
			},
			Required: []string{"year", "month"},
		},
	},
	{
		Name:        "taqvim_events",
		Description: "Cultural events of the catalog with their next Gregorian date. Optionally one Jalali month only.",
		InputSchema: InputSchema{
			Type:       "object",
			Properties: map[string]Property{"month": {Type: "integer", Description: "Jalali month 1-12"}},
		},
	},
	{
		Name:        "taqvim_insight",
		Description: "Bilingual daily insight and prayer. With lat/lng a traffic note is added.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"year":        {Type: "integer", Description: "Jalali year"},
				"month":       {Type: "integer", Description: "Jalali month"},
				"day":         {Type: "integer", Description: "Jalali day"},
				"lat":         {Type: "number", Description: "Latitude of the user"},
				"lng":         {Type: "number", Description: "Longitude of the user"},
				"destination": {Type: "string", Description: "Where the user is heading"},
			},
		},
	},
	{
		Name:        "taqvim_sync",
		Description: "Push all events of a Jalali year to the configured CalDAV calendar.",
		InputSchema: InputSchema{
			Type:       "object",
			Properties: map[string]Property{"year": {Type: "integer", Description: "Jalali year, default current"}},
		},
	},
	{
		Name:        "taqvim_calendars",
		Description: "Calendars of the CalDAV account. Use a path as CALDAV_CALENDAR.",
		InputSchema: InputSchema{Type: "object", Properties: map[string]Property{}},
	},
}

var routes = map[string]toolRoute{
	"taqvim_today":     {http.MethodGet, "/api/today", []string{"lang"}},
	"taqvim_month":     {http.MethodGet, "/api/month", []string{"year", "month", "lang"}},
	"taqvim_events":    {http.MethodGet, "/api/events", []string{"month"}},
	"taqvim_insight":   {http.MethodGet, "/api/insight", []string{"year", "month", "day", "lat", "lng", "destination"}},
	"taqvim_sync":      {http.MethodPost, "/api/sync", []string{"year"}},
	"taqvim_calendars": {http.MethodGet, "/api/calendars", nil},
}

// MCPServer exposes the calendar REST API as MCP tools over stdio
type MCPServer struct {
	apiURL      string
	apiUsername string
	apiPassword string
	client      *http.Client
}

func NewMCPServer(apiURL, username, password string) *MCPServer {
	return &MCPServer{
		apiURL:      strings.TrimSuffix(apiURL, "/"),
		apiUsername: username,
		apiPassword: password,
		client:      &http.Client{Timeout: 2 * time.Minute},
	}
}

// Run reads one JSON-RPC message per line and answers on w until EOF
func (s *MCPServer) Run(r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	enc := json.NewEncoder(w)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var req JSONRPCRequest
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			if err := enc.Encode(JSONRPCResponse{
				JSONRPC: "2.0",
				Error:   &RPCError{Code: -32700, Message: "Parse error"},
			}); err != nil {
				return err
			}
			continue
		}

		// notifications get no reply
		if req.ID == nil {
			continue
		}

		if err := enc.Encode(s.handleRequest(req)); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func (s *MCPServer) handleRequest(req JSONRPCRequest) JSONRPCResponse {
	resp := JSONRPCResponse{JSONRPC: "2.0", ID: req.ID}

	switch req.Method {
	case "initialize":
		resp.Result = InitializeResult{
			ProtocolVersion: protocolVersion,
			Capabilities:    map[string]interface{}{"tools": map[string]interface{}{}},
			ServerInfo:      ServerInfo{Name: "taqvim-mcp", Version: "1.0.0"},
		}
	case "ping":
		resp.Result = map[string]interface{}{}
	case "tools/list":
		resp.Result = map[string]interface{}{"tools": tools}
	case "tools/call":
		var params ToolCallParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			resp.Error = &RPCError{Code: -32602, Message: "Invalid params"}
			return resp
		}
		text, isError := s.callTool(params)
		resp.Result = ToolCallResult{
			Content: []ContentBlock{{Type: "text", Text: text}},
			IsError: isError,
		}
	default:
		resp.Error = &RPCError{Code: -32601, Message: "Method not found"}
	}
	return resp
}

func (s *MCPServer) callTool(params ToolCallParams) (string, bool) {
	route, ok := routes[params.Name]
	if !ok {
		return "Unknown tool: " + params.Name, true
	}

	query := url.Values{}
	for _, name := range route.params {
		if v, ok := params.Arguments[name]; ok && v != nil {
			query.Set(name, argString(v))
		}
	}

	path := route.path
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return s.apiRequest(route.method, path)
}

// argString renders JSON numbers without exponent or trailing zeros
func argString(v interface{}) string {
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

func (s *MCPServer) apiRequest(method, path string) (string, bool) {
	req, err := http.NewRequest(method, s.apiURL+path, nil)
	if err != nil {
		return fmt.Sprintf("Error creating request: %v", err), true
	}
	req.SetBasicAuth(s.apiUsername, s.apiPassword)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Sprintf("Error making request: %v", err), true
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Sprintf("Error reading response: %v", err), true
	}

	// .ics downloads and plain errors are passed through
	var apiResp struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return strings.TrimSpace(string(body)), resp.StatusCode >= 400
	}
	if !apiResp.Success {
		return "API Error: " + apiResp.Error, true
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, apiResp.Data, "", "  "); err != nil {
		return string(apiResp.Data), false
	}
	return pretty.String(), false
}
