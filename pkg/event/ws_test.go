package event

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func TestWSHandler_StreamsEventsAndFrames(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub()
	h := NewWSHandler(hub)
	frames := make(chan ClientFrame, 4)

	r := gin.New()
	r.GET("/ws/:id", func(c *gin.Context) {
		h.Serve(c, Subscriber{SessionID: c.Param("id"), UserID: "alex", UserName: "Alex"}, func(sub Subscriber, f ClientFrame) {
			if sub.UserID == "alex" {
				frames <- f
			}
		})
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/s1"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	waitFor(t, "subscription", func() bool { return hub.SubscriberCount("s1") == 1 })
	if !hub.IsConnected("s1", "alex") {
		t.Fatalf("IsConnected() = false while connected")
	}

	hub.Publish("s1", TypingEvent{UserID: "sam", UserName: "Sam", IsTyping: true})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg WSMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if msg.Event != TypingStart || msg.Data["userName"] != "Sam" || msg.TS == 0 {
		t.Fatalf("message = %+v", msg)
	}

	if err := conn.WriteJSON(ClientFrame{Event: FrameHeartbeat}); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	select {
	case f := <-frames:
		if f.Event != FrameHeartbeat {
			t.Fatalf("frame = %+v, want heartbeat", f)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("frame not delivered")
	}

	conn.Close()
	waitFor(t, "cleanup", func() bool {
		return hub.SubscriberCount("s1") == 0 && !hub.IsConnected("s1", "alex")
	})
}
