package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	fhttp "github.com/bogdanfinn/fhttp"

	apierrors "github.com/diogo/supportchat/internal/errors"
	"github.com/diogo/supportchat/internal/models"
)

// MockResponseBody is an io.ReadCloser over a fixed byte slice
type MockResponseBody struct {
	*bytes.Reader
	closed bool
}

func NewMockResponseBody(data []byte) *MockResponseBody {
	return &MockResponseBody{Reader: bytes.NewReader(data)}
}

func (b *MockResponseBody) Close() error {
	b.closed = true
	return nil
}

// MockHttpClient is a HTTPDoer returning a canned response
type MockHttpClient struct {
	mu       sync.Mutex
	Response *fhttp.Response
	Err      error
	Requests []*fhttp.Request
	Bodies   [][]byte
}

func (m *MockHttpClient) Do(req *fhttp.Request) (*fhttp.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests = append(m.Requests, req)
	if req.Body != nil {
		data, _ := io.ReadAll(req.Body)
		m.Bodies = append(m.Bodies, data)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Response, nil
}

func respond(status int, body string) *fhttp.Response {
	return &fhttp.Response{
		StatusCode: status,
		Body:       NewMockResponseBody([]byte(body)),
		Header:     make(fhttp.Header),
	}
}

// timeoutErr mimics a net.Error timeout from the transport
type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func newTestClient(t *testing.T, mock *MockHttpClient) *Client {
	t.Helper()
	client, err := NewClient(
		WithEndpoint("http://chat.test/api/chat"),
		WithHTTPClient(mock),
	)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

func TestNewClient_Defaults(t *testing.T) {
	client, err := NewClient(WithHTTPClient(&MockHttpClient{}))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	if client.Endpoint() != models.DefaultEndpoint {
		t.Errorf("Endpoint() = %s, want %s", client.Endpoint(), models.DefaultEndpoint)
	}
	if client.timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", client.timeout, DefaultTimeout)
	}
	if client.IsClosed() {
		t.Error("new client should not be closed")
	}
}

func TestNewClient_Options(t *testing.T) {
	client, err := NewClient(
		WithHTTPClient(&MockHttpClient{}),
		WithEndpoint("https://support.example.com/api/chat"),
		WithTimeout(5*time.Second),
		WithTimeout(0),
		WithHeaders(map[string]string{"X-Widget": "help-center"}),
		WithProxy("socks5://127.0.0.1:9050"),
	)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	if client.timeout != 5*time.Second {
		t.Errorf("timeout = %v, want 5s (zero must not override)", client.timeout)
	}
	if client.headers["X-Widget"] != "help-center" {
		t.Error("extra header not applied")
	}
	if client.headers["Content-Type"] != models.ContentTypeJSON {
		t.Error("default headers must survive WithHeaders")
	}
	if client.proxy != "socks5://127.0.0.1:9050" {
		t.Errorf("proxy = %q", client.proxy)
	}
}

func TestValidateEndpoint(t *testing.T) {
	tests := []struct {
		endpoint string
		wantErr  bool
	}{
		{"http://localhost:3000/api/chat", false},
		{"https://example.com/api/chat", false},
		{"/api/chat", true},
		{"ftp://example.com/chat", true},
		{"http://", true},
		{"::not a url", true},
	}

	for _, tt := range tests {
		t.Run(tt.endpoint, func(t *testing.T) {
			err := ValidateEndpoint(tt.endpoint)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEndpoint(%q) error = %v, wantErr %v", tt.endpoint, err, tt.wantErr)
			}
		})
	}

	if _, err := NewClient(WithEndpoint("/api/chat"), WithHTTPClient(&MockHttpClient{})); err == nil {
		t.Error("NewClient should reject a relative endpoint")
	}
}

func TestComplete_Success(t *testing.T) {
	mock := &MockHttpClient{Response: respond(200, `{"content":[{"text":"Hello!"},{"text":"ignored"}]}`)}
	client := newTestClient(t, mock)

	messages := []models.Message{
		models.NewSystemMessage("Be brief."),
		models.GreetingMessage(),
		models.NewUserMessage("Hi"),
	}
	reply, err := client.Complete(context.Background(), messages)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if reply != "Hello!" {
		t.Errorf("reply = %q, want %q", reply, "Hello!")
	}

	if len(mock.Requests) != 1 {
		t.Fatalf("requests = %d, want 1", len(mock.Requests))
	}
	req := mock.Requests[0]
	if req.Method != fhttp.MethodPost {
		t.Errorf("method = %s, want POST", req.Method)
	}
	if req.URL.String() != "http://chat.test/api/chat" {
		t.Errorf("url = %s", req.URL.String())
	}
	if got := req.Header.Get("Content-Type"); got != models.ContentTypeJSON {
		t.Errorf("Content-Type = %s", got)
	}

	var sent models.ChatRequest
	if err := json.Unmarshal(mock.Bodies[0], &sent); err != nil {
		t.Fatalf("request body is not JSON: %v", err)
	}
	if len(sent.Messages) != 3 || sent.Messages[0].Role != models.RoleSystem || sent.Messages[2].Content != "Hi" {
		t.Errorf("unexpected request body: %s", mock.Bodies[0])
	}
}

func TestComplete_Failures(t *testing.T) {
	tests := []struct {
		name       string
		mock       *MockHttpClient
		wantStatus int
		check      func(error) bool
	}{
		{
			name:  "network error",
			mock:  &MockHttpClient{Err: errors.New("connection refused")},
			check: apierrors.IsNetworkError,
		},
		{
			name:  "transport timeout",
			mock:  &MockHttpClient{Err: timeoutErr{}},
			check: apierrors.IsTimeoutError,
		},
		{
			name:       "server error",
			mock:       &MockHttpClient{Response: respond(502, `bad gateway`)},
			wantStatus: 502,
			check:      apierrors.IsAPIError,
		},
		{
			name:       "error status with valid content is still a failure",
			mock:       &MockHttpClient{Response: respond(400, `{"content":[{"text":"nope"}]}`)},
			wantStatus: 400,
			check:      apierrors.IsAPIError,
		},
		{
			name:  "html body",
			mock:  &MockHttpClient{Response: respond(200, `<html>oops</html>`)},
			check: apierrors.IsParseError,
		},
		{
			name:  "missing content",
			mock:  &MockHttpClient{Response: respond(200, `{"error":"overloaded"}`)},
			check: apierrors.IsParseError,
		},
		{
			name:  "empty content array",
			mock:  &MockHttpClient{Response: respond(200, `{"content":[]}`)},
			check: apierrors.IsParseError,
		},
		{
			name:  "non-string text",
			mock:  &MockHttpClient{Response: respond(200, `{"content":[{"text":42}]}`)},
			check: apierrors.IsParseError,
		},
		{
			name:  "empty text",
			mock:  &MockHttpClient{Response: respond(200, `{"content":[{"text":""}]}`)},
			check: apierrors.IsParseError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.mock)

			reply, err := client.Complete(context.Background(), []models.Message{models.NewUserMessage("Hi")})
			if err == nil {
				t.Fatalf("expected error, got reply %q", reply)
			}
			if !apierrors.IsRequestFailed(err) {
				t.Errorf("error %v should match ErrRequestFailed", err)
			}
			if !tt.check(err) {
				t.Errorf("unexpected error type: %T %v", err, err)
			}
			if got := apierrors.GetHTTPStatus(err); got != tt.wantStatus {
				t.Errorf("status = %d, want %d", got, tt.wantStatus)
			}
		})
	}
}

func TestComplete_ClosedClient(t *testing.T) {
	mock := &MockHttpClient{Response: respond(200, `{"content":[{"text":"hi"}]}`)}
	client := newTestClient(t, mock)
	client.Close()

	_, err := client.Complete(context.Background(), nil)
	if !apierrors.IsNetworkError(err) {
		t.Errorf("expected network error from closed client, got %v", err)
	}
	if len(mock.Requests) != 0 {
		t.Error("closed client must not issue requests")
	}
}

func TestComplete_ContextDeadline(t *testing.T) {
	mock := &MockHttpClient{Err: context.DeadlineExceeded}
	client := newTestClient(t, mock)

	_, err := client.Complete(context.Background(), nil)
	if !apierrors.IsTimeoutError(err) {
		t.Errorf("expected timeout error, got %v", err)
	}
}

func TestBuildRequestBody_NilMessages(t *testing.T) {
	body, err := buildRequestBody(nil)
	if err != nil {
		t.Fatalf("buildRequestBody() error = %v", err)
	}
	if string(body) != `{"messages":[]}` {
		t.Errorf("body = %s", body)
	}
}

func TestParseReply(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{"first element only", `{"content":[{"text":"a"},{"text":"b"}]}`, "a", false},
		{"extra fields", `{"id":"x","content":[{"type":"text","text":"ok"}],"usage":{}}`, "ok", false},
		{"multiline text", `{"content":[{"text":"line1\nline2"}]}`, "line1\nline2", false},
		{"content object", `{"content":{"text":"a"}}`, "", true},
		{"null", `null`, "", true},
		{"empty body", ``, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseReply([]byte(tt.body))
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseReply() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseReply() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMockChatClient(t *testing.T) {
	mock := &MockChatClient{Reply: "pong"}
	reply, err := mock.Complete(context.Background(), []models.Message{models.NewUserMessage("ping")})
	if err != nil || reply != "pong" {
		t.Fatalf("Complete() = %q, %v", reply, err)
	}
	if mock.Calls() != 1 || mock.LastMessages[0].Content != "ping" {
		t.Error("mock did not record the call")
	}
	if mock.Endpoint() != models.DefaultEndpoint {
		t.Error("mock endpoint should default")
	}
	mock.Close()
	if !mock.CloseCalled {
		t.Error("Close not recorded")
	}
}
