package sinks

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Devarsh-leo/news-feed-extractor-worker/internal/domain"
	"github.com/Devarsh-leo/news-feed-extractor-worker/internal/logger"
)

// stubSQS captures the send input instead of reaching AWS.
type stubSQS struct {
	lastInput *sqs.SendMessageInput
}

func (s *stubSQS) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	s.lastInput = params
	return &sqs.SendMessageOutput{}, nil
}

func writeSinksFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigsYAML(t *testing.T) {
	t.Setenv("REPORT_HOOK_URL", "https://hooks.example/report")

	path := writeSinksFile(t, "sinks.yaml", `
sinks:
  - id: webhook
    type: http
    http:
      url: ${REPORT_HOOK_URL}
      method: post
  - id: disabled-queue
    type: queue
    enabled: false
    queue:
      provider: aws-sqs
`)

	cfgs, err := LoadConfigs(path)
	require.NoError(t, err)
	require.Len(t, cfgs, 1)

	assert.Equal(t, "webhook", cfgs[0].ID)
	assert.Equal(t, TypeHTTP, cfgs[0].Type)
	assert.Equal(t, "https://hooks.example/report", cfgs[0].HTTP.URL)
	assert.Equal(t, "POST", cfgs[0].HTTP.Method)
	assert.Equal(t, 5, cfgs[0].HTTP.TimeoutSeconds)
}

func TestLoadConfigsJSON(t *testing.T) {
	path := writeSinksFile(t, "sinks.json", `{
		"sinks": [
			{"id": "q", "type": "queue", "queue": {"provider": "gcp-pubsub",
				"pubsub": {"project_id": "p", "topic": "t"}}}
		]
	}`)

	cfgs, err := LoadConfigs(path)
	require.NoError(t, err)
	require.Len(t, cfgs, 1)
	assert.Equal(t, ProviderGCPPubSub, cfgs[0].Queue.Provider)
}

func TestLoadConfigsRejectsBadEntries(t *testing.T) {
	cases := map[string]string{
		"missing id":       "sinks:\n  - type: http\n    http:\n      url: https://x\n",
		"unknown type":     "sinks:\n  - id: a\n    type: carrier-pigeon\n",
		"http without url": "sinks:\n  - id: a\n    type: http\n",
		"queue without cfg": "sinks:\n  - id: a\n    type: queue\n",
		"duplicate id":     "sinks:\n  - id: a\n    type: http\n    http: {url: https://x}\n  - id: a\n    type: http\n    http: {url: https://y}\n",
	}

	for name, content := range cases {
		path := writeSinksFile(t, "sinks.yaml", content)
		_, err := LoadConfigs(path)
		assert.Error(t, err, name)
	}
}

func TestHTTPSinkPublishesReportEvent(t *testing.T) {
	var received domain.ReportEvent
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "secret", r.Header.Get("X-Token"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
	}))
	defer srv.Close()

	sink, err := DefaultRegistry().SinkFor(context.Background(), Config{
		ID:   "webhook",
		Type: TypeHTTP,
		HTTP: &HTTPConfig{
			URL:            srv.URL,
			Method:         "POST",
			Headers:        map[string]string{"X-Token": "secret"},
			TimeoutSeconds: 2,
		},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "webhook", sink.ID())
	assert.Equal(t, TypeHTTP, sink.Type())

	evt := domain.ReportEvent{
		SessionID:   "sess-1",
		ReportPath:  "/out/Extracted-Data-sess-1.csv",
		Rows:        12,
		Sites:       []string{"https://www.ft.com/markets"},
		GeneratedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, sink.Publish(context.Background(), evt))

	assert.Equal(t, evt.SessionID, received.SessionID)
	assert.Equal(t, evt.Rows, received.Rows)
	assert.Equal(t, evt.Sites, received.Sites)
}

func TestHTTPSinkErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	sink, err := DefaultRegistry().SinkFor(context.Background(), Config{
		ID:   "webhook",
		Type: TypeHTTP,
		HTTP: &HTTPConfig{URL: srv.URL, Method: "POST", TimeoutSeconds: 2},
	}, nil)
	require.NoError(t, err)

	err = sink.Publish(context.Background(), domain.ReportEvent{SessionID: "s"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestRegistryUnknownType(t *testing.T) {
	_, err := DefaultRegistry().SinkFor(context.Background(), Config{ID: "x", Type: "smoke-signal"}, nil)
	assert.Error(t, err)
}

func TestBuildAll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	cfgs := []Config{
		{ID: "a", Type: TypeHTTP, HTTP: &HTTPConfig{URL: srv.URL, Method: "POST", TimeoutSeconds: 2}},
		{ID: "b", Type: TypeHTTP, HTTP: &HTTPConfig{URL: srv.URL, Method: "PUT", TimeoutSeconds: 2}},
	}
	built, err := BuildAll(context.Background(), DefaultRegistry(), cfgs, nil)
	require.NoError(t, err)
	require.Len(t, built, 2)
	assert.Equal(t, "a", built[0].ID())
	assert.Equal(t, "b", built[1].ID())

	built, err = BuildAll(context.Background(), nil, cfgs, nil)
	require.NoError(t, err)
	assert.Nil(t, built)
}

func TestQueueSinkUnsupportedProvider(t *testing.T) {
	_, err := DefaultRegistry().SinkFor(context.Background(), Config{
		ID:    "q",
		Type:  TypeQueue,
		Queue: &QueueConfig{Provider: "azure"},
	}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not supported")
}

func TestSQSSenderSerializesEvent(t *testing.T) {
	sender := &awsSQSSender{
		queueURL: "https://sqs.eu-west-1.amazonaws.com/1/reports",
		client:   &stubSQS{},
		log:      logger.Ensure(nil),
	}

	err := sender.Send(context.Background(), domain.ReportEvent{SessionID: "sess-42", Rows: 3})
	require.NoError(t, err)

	stub := sender.client.(*stubSQS)
	require.NotNil(t, stub.lastInput)
	assert.Equal(t, "https://sqs.eu-west-1.amazonaws.com/1/reports", *stub.lastInput.QueueUrl)
	assert.Contains(t, *stub.lastInput.MessageBody, `"session_id":"sess-42"`)
	assert.Equal(t, "sess-42", *stub.lastInput.MessageAttributes["session_id"].StringValue)
}

func TestErrorsWhenSinksFileMissing(t *testing.T) {
	_, err := LoadConfigs(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)

	_, err = LoadConfigs("  ")
	assert.Error(t, err)
}
