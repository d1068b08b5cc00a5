package ws

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/png"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Joint-Venture-AI/MIX-MASTER-API/internal/adapter/imaging"
	"github.com/Joint-Venture-AI/MIX-MASTER-API/internal/adapter/llm"
	"github.com/Joint-Venture-AI/MIX-MASTER-API/internal/config"
	"github.com/Joint-Venture-AI/MIX-MASTER-API/internal/observability"
	"github.com/Joint-Venture-AI/MIX-MASTER-API/internal/protocol"
	"github.com/Joint-Venture-AI/MIX-MASTER-API/internal/repository"
	"github.com/Joint-Venture-AI/MIX-MASTER-API/internal/service"
	"github.com/Joint-Venture-AI/MIX-MASTER-API/policy"
	"github.com/Joint-Venture-AI/MIX-MASTER-API/tests/helpers"
)

func newTestServer(t *testing.T) (string, store.Store) {
	t.Helper()
	ctx := context.Background()
	db := helpers.NewTestSQLiteStore(t)
	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	require.NoError(t, err)
	stager, err := imaging.NewStager(filepath.Join(t.TempDir(), "uploads"), 1<<20)
	require.NoError(t, err)

	cfg := &config.Config{Model: "gpt-4o", MaxUploadBytes: 1 << 20}
	svc := service.New(db, llm.NewMockClient(), stager, observability.NewMetrics(), cfg, policyEngine)

	e := echo.New()
	NewServer(svc, cfg).RegisterRoutes(e)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/ws", db
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var frame map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &frame))
	return frame
}

func TestWebSocketChatAndClear(t *testing.T) {
	url, db := newTestServer(t)
	conn := dial(t, url)

	require.NoError(t, conn.WriteJSON(protocol.ChatMessage{
		BaseMessage: protocol.BaseMessage{Type: protocol.TypeChat, RequestID: "r1", SessionID: "s1"},
		Text:        "Suggest a mezcal cocktail",
	}))
	reply := readFrame(t, conn)
	assert.Equal(t, protocol.TypeReply, reply["type"])
	assert.Equal(t, "r1", reply["request_id"])
	assert.Equal(t, "s1", reply["session_id"])
	assert.Equal(t, true, reply["success"])
	assert.Contains(t, reply["text_response"], "Suggest a mezcal cocktail")

	history, err := db.GetHistory(context.Background(), "s1", 10)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	require.NoError(t, conn.WriteJSON(protocol.ClearMessage{
		BaseMessage: protocol.BaseMessage{Type: protocol.TypeClear, RequestID: "r2", SessionID: "s1"},
	}))
	cleared := readFrame(t, conn)
	assert.Equal(t, protocol.TypeCleared, cleared["type"])
	assert.Equal(t, "r2", cleared["request_id"])

	history, err = db.GetHistory(context.Background(), "s1", 10)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestWebSocketImageChat(t *testing.T) {
	url, _ := newTestServer(t)
	conn := dial(t, url)

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 2, 2))))

	require.NoError(t, conn.WriteJSON(protocol.ChatMessage{
		BaseMessage: protocol.BaseMessage{Type: protocol.TypeChat, RequestID: "img"},
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
	}))
	reply := readFrame(t, conn)
	assert.Equal(t, true, reply["success"])
	assert.NotEmpty(t, reply["session_id"])
	assert.NotEmpty(t, reply["image_response"])
	assert.NotEmpty(t, reply["uploaded_image_ref"])
}

func TestWebSocketClearBroadcastsToBoundConnections(t *testing.T) {
	url, _ := newTestServer(t)
	first := dial(t, url)
	second := dial(t, url)

	require.NoError(t, first.WriteJSON(protocol.ChatMessage{
		BaseMessage: protocol.BaseMessage{Type: protocol.TypeChat, SessionID: "shared"},
		Text:        "hello",
	}))
	readFrame(t, first)

	require.NoError(t, second.WriteJSON(protocol.ClearMessage{
		BaseMessage: protocol.BaseMessage{Type: protocol.TypeClear, SessionID: "shared"},
	}))
	assert.Equal(t, protocol.TypeCleared, readFrame(t, second)["type"])
	assert.Equal(t, protocol.TypeCleared, readFrame(t, first)["type"])
}

func TestWebSocketErrors(t *testing.T) {
	url, _ := newTestServer(t)
	conn := dial(t, url)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	frame := readFrame(t, conn)
	assert.Equal(t, protocol.TypeError, frame["type"])
	assert.Equal(t, protocol.ErrorCodeInvalidMessage, frame["code"])

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "dance", "request_id": "r9"}))
	frame = readFrame(t, conn)
	assert.Equal(t, protocol.ErrorCodeInvalidMessage, frame["code"])
	assert.Equal(t, "r9", frame["request_id"])

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "clear"}))
	frame = readFrame(t, conn)
	assert.Equal(t, protocol.ErrorCodeMissingSession, frame["code"])

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "chat", "session_id": "s1"}))
	frame = readFrame(t, conn)
	assert.Equal(t, protocol.TypeReply, frame["type"])
	assert.Equal(t, false, frame["success"])
	assert.Equal(t, "no valid input provided", frame["error"])
}
