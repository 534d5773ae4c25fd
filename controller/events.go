package controller

import (
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/atlantiplex/stage-api/config"
	"github.com/atlantiplex/stage-api/realtime"
	"github.com/atlantiplex/stage-api/session"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     checkOrigin,
}

// checkOrigin accepts any origin locally; deployed instances only take
// same-host browser connections.
func checkOrigin(r *http.Request) bool {
	if !config.GetIsProd() {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	return err == nil && u.Host == r.Host
}

// Events upgrades to a websocket and relays committed events to the
// client. An optional since query parameter requests catch-up; when the
// delta ring no longer reaches back that far the first frame is a full
// snapshot instead.
func (c *Controller) Events(w http.ResponseWriter, r *http.Request) {
	var since uint64
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			http.Error(w, "since must be a sequence number", http.StatusBadRequest)
			return
		}
		since = parsed
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade: %s", err)
		return
	}

	conn := realtime.NewConnection(ws)
	conn.Start()

	handle := c.Core.Subscribe(func(ev session.Event) {
		payload, err := json.Marshal(ev)
		if err != nil {
			return
		}
		_ = conn.Send(payload)
	}, since)

	// The read loop only watches for the client going away.
	go func() {
		defer func() {
			c.Core.Unsubscribe(handle)
			conn.Close(websocket.CloseNormalClosure, "")
		}()
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
