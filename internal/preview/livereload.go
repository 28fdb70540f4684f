package preview

import (
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

// reloadScript connects the page to the reload socket; any message from the
// server triggers a refresh.
const reloadScript = `<script>(function(){` +
	`var proto=location.protocol==="https:"?"wss://":"ws://";` +
	`var ws=new WebSocket(proto+location.host+"/ws/reload");` +
	`ws.onmessage=function(){location.reload();};` +
	`})();</script>`

// injectReloadScript places the reload script before </body>, or appends it
// when the rendered page has no body close tag.
func injectReloadScript(html string) string {
	if i := strings.LastIndex(html, "</body>"); i >= 0 {
		return html[:i] + reloadScript + html[i:]
	}
	return html + reloadScript
}

// reloadHub tracks connected preview browsers.
type reloadHub struct {
	mu       sync.Mutex
	upgrader websocket.Upgrader
	conns    map[*websocket.Conn]struct{}
}

func newReloadHub() *reloadHub {
	return &reloadHub{
		// Preview binds to localhost; cross-origin checks add nothing here.
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		conns:    map[*websocket.Conn]struct{}{},
	}
}

func (h *reloadHub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	h.mu.Lock()
	h.conns[conn] = struct{}{}
	h.mu.Unlock()

	// Drain reads until the browser goes away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.drop(conn)
				return
			}
		}
	}()
}

// broadcast tells every connected browser to reload.
func (h *reloadHub) broadcast() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		if err := conn.WriteMessage(websocket.TextMessage, []byte("reload")); err != nil {
			_ = conn.Close()
			delete(h.conns, conn)
		}
	}
}

func (h *reloadHub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[conn]; ok {
		_ = conn.Close()
		delete(h.conns, conn)
	}
}

func (h *reloadHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		_ = conn.Close()
	}
	h.conns = map[*websocket.Conn]struct{}{}
}
