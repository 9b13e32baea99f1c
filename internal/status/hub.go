// Package status implements the out-of-band status stream of spec.md §5:
// a line-oriented channel of progress strings, fanned out to zero or more
// subscribers, that the search/SA engines push to without blocking so
// they never stall on a slow consumer.
package status

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // local status dashboard only
	},
}

// Hub maintains the set of active websocket subscribers and fans status
// lines out to them. The broadcast channel is buffered and Push drops the
// new line when it is full, so a stalled subscriber never blocks the
// engine pushing status updates.
type Hub struct {
	clients   map[*websocket.Conn]bool
	broadcast chan string
	mutex     sync.Mutex
}

// NewHub creates a Hub with a bounded backlog of size buf.
func NewHub(buf int) *Hub {
	if buf <= 0 {
		buf = 256
	}
	return &Hub{
		broadcast: make(chan string, buf),
		clients:   make(map[*websocket.Conn]bool),
	}
}

// Run fans queued lines out to every connected client until the hub's
// broadcast channel is closed. It is meant to run on its own goroutine.
func (h *Hub) Run() {
	for line := range h.broadcast {
		h.mutex.Lock()
		for client := range h.clients {
			_ = client.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := client.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
				log.Printf("[status] websocket write error: %v", err)
				client.Close()
				delete(h.clients, client)
			}
		}
		h.mutex.Unlock()
	}
}

// Push enqueues a status line; if the backlog is full it drops the line
// and logs the drop rather than blocking the caller (spec.md §5: the engine must never
// stall on a slow status consumer).
func (h *Hub) Push(line string) {
	select {
	case h.broadcast <- line:
	default:
		log.Printf("[status] backlog full, dropping status line: %s", line)
	}
}

// Subscribe upgrades an HTTP request to a websocket connection and starts
// streaming status lines to it.
func (h *Hub) Subscribe(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[status] failed to upgrade websocket: %v", err)
		return
	}

	h.mutex.Lock()
	h.clients[conn] = true
	n := len(h.clients)
	h.mutex.Unlock()
	log.Printf("[status] client connected, total=%d", n)

	go func() {
		defer func() {
			h.mutex.Lock()
			delete(h.clients, conn)
			n := len(h.clients)
			h.mutex.Unlock()
			conn.Close()
			log.Printf("[status] client disconnected, total=%d", n)
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("[status] websocket error: %v", err)
				}
				return
			}
		}
	}()
}
