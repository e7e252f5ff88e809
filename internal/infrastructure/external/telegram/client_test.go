package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := DefaultClientConfig("test-token")
	cfg.BaseURL = server.URL
	cfg.RetryAttempts = 2
	cfg.RetryDelay = time.Millisecond
	return NewClient(cfg)
}

func okResponse(result interface{}) string {
	data, _ := json.Marshal(result)
	return fmt.Sprintf(`{"ok":true,"result":%s}`, data)
}

func TestSendMessage(t *testing.T) {
	var gotPath string
	var gotBody map[string]interface{}

	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		fmt.Fprint(w, okResponse(Message{MessageID: 42}))
	})

	msg, err := client.SendText(context.Background(), 123, "Kehadiran direkodkan")
	require.NoError(t, err)
	assert.Equal(t, int64(42), msg.MessageID)
	assert.Equal(t, "/bottest-token/sendMessage", gotPath)
	assert.Equal(t, float64(123), gotBody["chat_id"])
	assert.Equal(t, "Kehadiran direkodkan", gotBody["text"])
}

func TestSendWithKeyboard(t *testing.T) {
	var gotBody map[string]interface{}
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		fmt.Fprint(w, okResponse(Message{MessageID: 1}))
	})

	keyboard := NewKeyboard().
		Row(Button("4 Amber", "rekod_kelas|4 Amber")).
		Build()

	_, err := client.SendMessage(context.Background(), SendMessageParams{
		ChatID:      5,
		Text:        "Pilih kelas:",
		ReplyMarkup: keyboard,
	})
	require.NoError(t, err)
	assert.Contains(t, gotBody, "reply_markup")
}

func TestClientErrorIsNotRetried(t *testing.T) {
	var calls int32
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		fmt.Fprint(w, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`)
	})

	_, err := client.SendText(context.Background(), 1, "hi")
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	assert.True(t, IsChatNotFound(err))
}

func TestServerErrorIsRetried(t *testing.T) {
	var calls int32
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n < 3 {
			fmt.Fprint(w, `{"ok":false,"error_code":502,"description":"Bad Gateway"}`)
			return
		}
		fmt.Fprint(w, okResponse(Message{MessageID: 7}))
	})

	msg, err := client.SendText(context.Background(), 1, "hi")
	require.NoError(t, err)
	assert.Equal(t, int64(7), msg.MessageID)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestSendDocument(t *testing.T) {
	var gotContentType, gotFileName, gotCaption, gotData string
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotCaption = r.FormValue("caption")

		file, header, err := r.FormFile("document")
		require.NoError(t, err)
		defer file.Close()
		gotFileName = header.Filename

		buf := make([]byte, header.Size)
		n, _ := file.Read(buf)
		gotData = string(buf[:n])

		fmt.Fprint(w, okResponse(Message{MessageID: 9}))
	})

	msg, err := client.SendDocument(context.Background(), SendDocumentParams{
		ChatID:   77,
		FileName: "laporan_minggu.xlsx",
		Caption:  "Laporan mingguan",
		Data:     strings.NewReader("workbook-bytes"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(9), msg.MessageID)
	assert.Contains(t, gotContentType, "multipart/form-data")
	assert.Equal(t, "laporan_minggu.xlsx", gotFileName)
	assert.Equal(t, "Laporan mingguan", gotCaption)
	assert.Equal(t, "workbook-bytes", gotData)
}

func TestGetMe(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, okResponse(User{ID: 100, IsBot: true, FirstName: "KehadiranBot"}))
	})

	user, err := client.GetMe(context.Background())
	require.NoError(t, err)
	assert.True(t, user.IsBot)
	assert.Equal(t, "KehadiranBot", user.FirstName)
}

func TestExtractCommand(t *testing.T) {
	msg := &Message{
		Text: "/rekod@KehadiranBot hari ini",
		Entities: []MessageEntity{
			{Type: "bot_command", Offset: 0, Length: 19},
		},
	}
	assert.Equal(t, "rekod", ExtractCommand(msg))
	assert.Equal(t, "hari ini", ExtractCommandArgs(msg))
}

func TestExtractCommandNoEntity(t *testing.T) {
	assert.Equal(t, "", ExtractCommand(&Message{Text: "hello"}))
	assert.Equal(t, "", ExtractCommand(nil))
}

func TestBroadcasterRetriesTransientFailure(t *testing.T) {
	var calls int32
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			fmt.Fprint(w, `{"ok":false,"error_code":500,"description":"Internal"}`)
			return
		}
		fmt.Fprint(w, okResponse(Message{MessageID: 3}))
	})

	b := NewBroadcaster(client, -100123, nil)
	err := b.Send(context.Background(), "Semua kelas telah direkodkan hari ini ✅")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(2))
}
