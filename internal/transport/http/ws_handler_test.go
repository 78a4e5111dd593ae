package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timed-quiz-service/internal/app"
	"timed-quiz-service/internal/domain"
	"timed-quiz-service/internal/infra/memory"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	quizRepo := memory.NewQuizRepository(memory.NewStaticQuizLoader(sampleQuiz()), time.Minute)
	service := app.NewQuizService(memory.NewAttemptStore(), quizRepo, memory.NewResultStore(),
		app.WithFeedbackDelay(0),
		app.WithLogger(logger),
	)

	mux := http.NewServeMux()
	Register(mux, NewAPIHandler(service, logger), NewWSHandler(service, logger))
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestWebSocketAnswerFlow(t *testing.T) {
	server := newTestServer(t)

	u := "ws" + server.URL[len("http"):] + "/ws?quizId=quiz-1&userId=u1&name=Alice"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	defer conn.Close()

	_, started := readNext(t, conn, "started")
	attemptID, _ := started["attemptId"].(string)
	require.NotEmpty(t, attemptID)
	snapshot := started["snapshot"].(map[string]any)
	assert.Equal(t, "answering", snapshot["phase"])

	// Stray input is absorbed: unknown option, then submit with nothing staged.
	writeMsg(t, conn, "select", map[string]any{"optionId": "nope"})
	writeMsg(t, conn, "submit", nil)

	writeMsg(t, conn, "answer", map[string]any{"optionId": "o2"})
	_, feedback := readNext(t, conn, "feedback")
	fb := feedback["feedback"].(map[string]any)
	assert.Equal(t, true, fb["correct"])

	writeMsg(t, conn, "submit", nil) // duplicate, ignored
	writeMsg(t, conn, "next", nil)
	_, completed := readNext(t, conn, "completed")
	summary := completed["summary"].(map[string]any)
	assert.EqualValues(t, 1, summary["correct"])
	assert.EqualValues(t, 1, summary["total"])
	assert.EqualValues(t, 100, summary["percentage"])

	require.Eventually(t, func() bool {
		var lb domain.Leaderboard
		if status := getJSON(server.URL+"/quizzes/quiz-1/leaderboard", &lb); status != http.StatusOK {
			return false
		}
		return len(lb.Entries) == 1 && lb.Entries[0].UserID == "u1"
	}, 2*time.Second, 20*time.Millisecond)

	writeMsg(t, conn, "restart", nil)
	readNext(t, conn, "restarted")
	_, question := readNext(t, conn, "question")
	assert.EqualValues(t, 2, question["attempt"])
}

func TestWebSocketUnknownQuiz(t *testing.T) {
	server := newTestServer(t)

	u := "ws" + server.URL[len("http"):] + "/ws?quizId=missing&userId=u1&name=Alice"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	defer conn.Close()

	_, payload := readNext(t, conn, "error")
	assert.Equal(t, domain.ErrQuizNotFound.Error(), payload["message"])
}

func TestWebSocketRequiresParams(t *testing.T) {
	server := newTestServer(t)
	resp, err := http.Get(server.URL + "/ws?quizId=quiz-1")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWebSocketHandlerExitsWhenClientStopsReading(t *testing.T) {
	server := newTestServer(t)

	u := "ws" + server.URL[len("http"):] + "/ws?quizId=quiz-1&userId=u1&name=Alice"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)

	_, started := readNext(t, conn, "started")
	attemptID, _ := started["attemptId"].(string)
	require.NotEmpty(t, attemptID)

	// Every unsupported message earns an error reply that is never read.
	for i := 0; i < 200; i++ {
		if err := conn.WriteJSON(map[string]any{"type": "bogus"}); err != nil {
			break
		}
	}
	conn.Close()

	// The handler closes the attempt on exit.
	require.Eventually(t, func() bool {
		return getJSON(server.URL+"/attempts/"+attemptID, &map[string]any{}) == http.StatusNotFound
	}, 5*time.Second, 20*time.Millisecond)
}

func writeMsg(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	msg := map[string]any{"type": typ}
	if payload != nil {
		msg["payload"] = payload
	}
	require.NoError(t, conn.WriteJSON(msg))
}

// readNext skips tick events and fails unless the next message has type expect.
func readNext(t *testing.T, conn *websocket.Conn, expect string) (string, map[string]any) {
	t.Helper()
	for {
		var msg struct {
			Type    string         `json:"type"`
			Payload map[string]any `json:"payload"`
		}
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == "tick" || msg.Type == "question" && expect != "question" {
			continue
		}
		require.Equal(t, expect, msg.Type)
		return msg.Type, msg.Payload
	}
}

// getJSON is safe to call from assert.Eventually conditions; failures are
// reported as a zero status.
func getJSON(url string, v any) int {
	resp, err := http.Get(url)
	if err != nil {
		return 0
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			return 0
		}
	}
	return resp.StatusCode
}

func sampleQuiz() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:    "quiz-1",
			Title: "Arithmetic",
			Questions: []domain.Question{
				{
					ID:     "q1",
					Prompt: "What is 2 + 2?",
					Options: []domain.Option{
						{ID: "o1", Text: "3", Correct: false},
						{ID: "o2", Text: "4", Correct: true},
						{ID: "o3", Text: "5", Correct: false},
					},
				},
			},
		},
	}
}
