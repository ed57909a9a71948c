package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/getcoachly/coachly/internal/services"
	"github.com/getcoachly/coachly/internal/utils"
)

type ChatHandler struct {
	svc      services.ChatService
	upgrader websocket.Upgrader
}

func NewChatHandler(svc services.ChatService) *ChatHandler {
	return &ChatHandler{
		svc: svc,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict origin in prod
		},
	}
}

type startChatRequest struct {
	RepID string `json:"rep_id"`
	Topic string `json:"topic"`
}

func (h *ChatHandler) StartSession(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req startChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ChatHandler.StartSession", "invalid request body", err))
		return
	}

	sess, err := h.svc.StartSession(c.Request.Context(), userID, req.RepID, req.Topic)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (h *ChatHandler) History(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	sess, err := h.svc.GetSession(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if sess.UserID != userID {
		writeError(c, utils.E(utils.CodeForbidden, "ChatHandler.History", "forbidden", nil))
		return
	}

	rows, err := h.svc.History(c.Request.Context(), sess.SessionID, 100)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

type chatClientMsg struct {
	Type    string `json:"type"` // user_message | end_session
	Content string `json:"content,omitempty"`
}

type chatServerMsg struct {
	Type    string `json:"type"` // chunk | done | error
	Content string `json:"content,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeJSON(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.c.WriteJSON(v)
}

// CoachWS streams coaching replies over one socket: every user_message gets
// a run of chunk frames followed by done.
func (h *ChatHandler) CoachWS(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	sess, err := h.svc.GetSession(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if sess.UserID != userID {
		writeError(c, utils.E(utils.CodeForbidden, "ChatHandler.CoachWS", "forbidden", nil))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote response in most cases
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	ctx := c.Request.Context()

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Minute))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Minute))
		return nil
	})

	for {
		_, data, rerr := conn.ReadMessage()
		if rerr != nil {
			return
		}

		var msg chatClientMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = wc.writeJSON(chatServerMsg{Type: "error", Code: string(utils.CodeInvalidArgument), Message: "invalid json"})
			continue
		}

		switch msg.Type {
		case "user_message":
			chunks, errs := h.svc.StreamReply(ctx, sess, msg.Content)
			for chunk := range chunks {
				if werr := wc.writeJSON(chatServerMsg{Type: "chunk", Content: chunk}); werr != nil {
					return
				}
			}
			if serr := <-errs; serr != nil {
				_ = wc.writeJSON(chatServerMsg{Type: "error", Code: string(utils.CodeUnavailable), Message: serr.Error()})
				continue
			}
			if werr := wc.writeJSON(chatServerMsg{Type: "done"}); werr != nil {
				return
			}

		case "end_session":
			_ = h.svc.EndSession(ctx, sess.SessionID)
			_ = wc.writeJSON(chatServerMsg{Type: "done", Message: "session ended"})
			return

		default:
			_ = wc.writeJSON(chatServerMsg{Type: "error", Code: string(utils.CodeInvalidArgument), Message: "unknown message type"})
		}
	}
}
