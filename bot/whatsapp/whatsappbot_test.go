package whatsapp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"WaReply/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMessage struct {
	to   string
	text string
}

type fakeSender struct {
	mu     sync.Mutex
	sent   []sentMessage
	result *entity.SendResult
	panics bool
}

func (f *fakeSender) SendMessage(_ context.Context, recipientPhone, text string) *entity.SendResult {
	if f.panics {
		panic("sender exploded")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{to: recipientPhone, text: text})
	return f.result
}

func (f *fakeSender) calls() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []entity.DispatchRecord
	ctxErrs []error
	err     error
}

func (f *fakeRecorder) SaveDispatch(ctx context.Context, record entity.DispatchRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, record)
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	return f.err
}

// blockingSender holds each send until release is closed or ctx ends.
type blockingSender struct {
	started chan struct{}
	release chan struct{}
	ctxErr  error
}

func (s *blockingSender) SendMessage(ctx context.Context, _, _ string) *entity.SendResult {
	close(s.started)
	select {
	case <-s.release:
		return sentResult("wamid.late")
	case <-ctx.Done():
		s.ctxErr = ctx.Err()
		return nil
	}
}

type fakeNotifier struct {
	mu      sync.Mutex
	records []entity.DispatchRecord
}

func (f *fakeNotifier) BroadcastDispatch(record entity.DispatchRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, record)
}

func sentResult(id string) *entity.SendResult {
	result := &entity.SendResult{MessagingProduct: "whatsapp"}
	result.Messages = append(result.Messages, struct {
		ID string `json:"id"`
	}{ID: id})
	return result
}

func textDelivery(from, body string) string {
	return fmt.Sprintf(`{"object":"whatsapp_business_account","entry":[{"id":"1","changes":[{"field":"messages","value":{"messaging_product":"whatsapp","messages":[{"from":%q,"id":"wamid.in","timestamp":"1749416383","type":"text","text":{"body":%q}}]}}]}]}`, from, body)
}

func postWebhook(bot *WhatsAppBot, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	bot.HandleWebhook(rec, req)
	bot.Wait()
	return rec
}

func TestHandleWebhookVerification(t *testing.T) {
	bot := NewWhatsAppBot(testConfig("http://127.0.0.1:0"), &fakeSender{}, testLogger(nil))

	tests := []struct {
		name       string
		query      url.Values
		wantStatus int
		wantBody   string
	}{
		{
			name:       "valid handshake",
			query:      url.Values{"hub.mode": {"subscribe"}, "hub.verify_token": {"123456"}, "hub.challenge": {"1158201444"}},
			wantStatus: http.StatusOK,
			wantBody:   "1158201444",
		},
		{
			name:       "challenge echoed verbatim",
			query:      url.Values{"hub.mode": {"subscribe"}, "hub.verify_token": {"123456"}, "hub.challenge": {"any string with spaces & symbols"}},
			wantStatus: http.StatusOK,
			wantBody:   "any string with spaces & symbols",
		},
		{
			name:       "empty challenge",
			query:      url.Values{"hub.mode": {"subscribe"}, "hub.verify_token": {"123456"}},
			wantStatus: http.StatusOK,
			wantBody:   "",
		},
		{
			name:       "wrong token",
			query:      url.Values{"hub.mode": {"subscribe"}, "hub.verify_token": {"654321"}, "hub.challenge": {"x"}},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "wrong mode",
			query:      url.Values{"hub.mode": {"unsubscribe"}, "hub.verify_token": {"123456"}, "hub.challenge": {"x"}},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "mode case differs",
			query:      url.Values{"hub.mode": {"Subscribe"}, "hub.verify_token": {"123456"}, "hub.challenge": {"x"}},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "all missing",
			query:      url.Values{},
			wantStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/?"+tt.query.Encode(), nil)
			rec := httptest.NewRecorder()

			bot.HandleWebhookVerification(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestHandleWebhook_GreetingSendsReply(t *testing.T) {
	conf := testConfig("http://127.0.0.1:0")
	sender := &fakeSender{result: sentResult("wamid.reply")}
	recorder := &fakeRecorder{}
	notifier := &fakeNotifier{}

	bot := NewWhatsAppBot(conf, sender, testLogger(nil))
	bot.SetRecorder(recorder)
	bot.SetNotifier(notifier)

	rec := postWebhook(bot, textDelivery("16505551234", "Buenas tardes, necesito ayuda"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, EventReceived, rec.Body.String())

	calls := sender.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "16505551234", calls[0].to)
	assert.Equal(t, conf.Greeting.Reply, calls[0].text)

	require.Len(t, recorder.records, 1)
	record := recorder.records[0]
	assert.NotEmpty(t, record.ID)
	assert.Equal(t, "wamid.in", record.MessageID)
	assert.Equal(t, "buenas tardes, necesito ayuda", record.Text)
	assert.True(t, record.Greeting)
	assert.True(t, record.Replied)
	assert.Equal(t, "wamid.reply", record.ReplyID)
	assert.Empty(t, record.Error)
	assert.False(t, record.CompletedAt.Before(record.ReceivedAt))

	require.Len(t, notifier.records, 1)
	assert.Equal(t, record.ID, notifier.records[0].ID)
}

func TestHandleWebhook_NoReply(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not a greeting", textDelivery("16505551234", "cuál es mi saldo")},
		{"non text message", `{"entry":[{"changes":[{"value":{"messages":[{"from":"1","type":"audio","audio":{"id":"a"}}]}}]}]}`},
		{"empty entry", `{"entry":[]}`},
		{"status update", `{"entry":[{"changes":[{"value":{"statuses":[{"id":"wamid.x","status":"delivered"}]}}]}]}`},
		{"malformed json", `{"entry":[{`},
		{"empty body", ``},
		{"text without body", `{"entry":[{"changes":[{"value":{"messages":[{"from":"1","type":"text"}]}}]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &fakeSender{result: sentResult("wamid.reply")}
			bot := NewWhatsAppBot(testConfig("http://127.0.0.1:0"), sender, testLogger(nil))

			rec := postWebhook(bot, tt.body)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, EventReceived, rec.Body.String())
			assert.Empty(t, sender.calls())
		})
	}
}

func TestHandleWebhook_NonGreetingIsRecorded(t *testing.T) {
	sender := &fakeSender{}
	recorder := &fakeRecorder{}
	bot := NewWhatsAppBot(testConfig("http://127.0.0.1:0"), sender, testLogger(nil))
	bot.SetRecorder(recorder)

	postWebhook(bot, textDelivery("16505551234", "  Cuál es mi SALDO "))

	require.Len(t, recorder.records, 1)
	assert.False(t, recorder.records[0].Greeting)
	assert.False(t, recorder.records[0].Replied)
	assert.Equal(t, "cuál es mi saldo", recorder.records[0].Text)
}

func TestHandleWebhook_MissingTokenDoesNotEscape(t *testing.T) {
	var buf bytes.Buffer
	conf := testConfig("http://127.0.0.1:0")
	conf.WhatsApp.AccessToken = ""
	log := testLogger(&buf)

	recorder := &fakeRecorder{}
	bot := NewWhatsAppBot(conf, NewClient(conf, log), log)
	bot.SetRecorder(recorder)

	rec := postWebhook(bot, textDelivery("16505551234", "hola"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, EventReceived, rec.Body.String())
	assert.Contains(t, buf.String(), ErrMissingCredentials.Error())

	require.Len(t, recorder.records, 1)
	assert.True(t, recorder.records[0].Greeting)
	assert.False(t, recorder.records[0].Replied)
	assert.Equal(t, "reply not sent", recorder.records[0].Error)
}

func TestHandleWebhook_EndToEndWithGraphAPI(t *testing.T) {
	var mu sync.Mutex
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		_, _ = fmt.Fprint(w, `{"messaging_product":"whatsapp","messages":[{"id":"wamid.out"}]}`)
	}))
	defer server.Close()

	conf := testConfig(server.URL)
	log := testLogger(nil)
	recorder := &fakeRecorder{}
	bot := NewWhatsAppBot(conf, NewClient(conf, log), log)
	bot.SetRecorder(recorder)

	postWebhook(bot, textDelivery("16505551234", "HOLA, buen día"))

	mu.Lock()
	assert.Equal(t, 1, hits)
	mu.Unlock()
	require.Len(t, recorder.records, 1)
	assert.Equal(t, "wamid.out", recorder.records[0].ReplyID)
}

func TestHandleWebhook_BackgroundFailuresAreContained(t *testing.T) {
	var buf bytes.Buffer
	recorder := &fakeRecorder{err: errors.New("mongo down")}
	bot := NewWhatsAppBot(testConfig("http://127.0.0.1:0"), &fakeSender{panics: true}, testLogger(&buf))
	bot.SetRecorder(recorder)

	rec := postWebhook(bot, textDelivery("16505551234", "hola"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, buf.String(), "sender exploded")

	buf.Reset()
	bot.sender = &fakeSender{}
	postWebhook(bot, textDelivery("16505551234", "hola"))
	assert.Contains(t, buf.String(), "mongo down")
}

func TestHandleWebhook_AckPrecedesReply(t *testing.T) {
	sender := &blockingSender{started: make(chan struct{}), release: make(chan struct{})}
	recorder := &fakeRecorder{}
	bot := NewWhatsAppBot(testConfig("http://127.0.0.1:0"), sender, testLogger(nil))
	bot.SetRecorder(recorder)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(textDelivery("16505551234", "hola")))
	rec := httptest.NewRecorder()
	bot.HandleWebhook(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, EventReceived, rec.Body.String())

	select {
	case <-sender.started:
	case <-time.After(2 * time.Second):
		t.Fatal("reply was never attempted")
	}
	recorder.mu.Lock()
	assert.Empty(t, recorder.records, "dispatch finished while the reply was still blocked")
	recorder.mu.Unlock()

	close(sender.release)
	bot.Wait()

	require.Len(t, recorder.records, 1)
	assert.Equal(t, "wamid.late", recorder.records[0].ReplyID)
}

func TestHandleWebhook_RecordsReplyTimeout(t *testing.T) {
	sender := &blockingSender{started: make(chan struct{}), release: make(chan struct{})}
	recorder := &fakeRecorder{}
	bot := NewWhatsAppBot(testConfig("http://127.0.0.1:0"), sender, testLogger(nil))
	bot.timeout = 50 * time.Millisecond
	bot.SetRecorder(recorder)

	postWebhook(bot, textDelivery("16505551234", "hola"))

	assert.ErrorIs(t, sender.ctxErr, context.DeadlineExceeded)
	require.Len(t, recorder.records, 1)
	assert.False(t, recorder.records[0].Replied)
	assert.Equal(t, "reply not sent", recorder.records[0].Error)
	assert.NoError(t, recorder.ctxErrs[0], "recorder must get a live context after the send timed out")
}
