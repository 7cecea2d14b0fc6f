package relay

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// Downstream is the transcription-provider transport frames are relayed to.
type Downstream interface {
	Forward(data []byte, isBinary bool) bool
}

// Gate controls whether inbound audio is forwarded downstream. It is closed
// right after a question payload is produced and reopened by an explicit
// client reconnect, so the provider never transcribes audio meant for the
// next turn while a response is being prepared.
type Gate struct {
	mu      sync.Mutex
	enabled bool
}

func NewGate() *Gate { return &Gate{enabled: true} }

func (g *Gate) Set(enabled bool) {
	g.mu.Lock()
	g.enabled = enabled
	g.mu.Unlock()
}

func (g *Gate) Open() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.enabled
}

// Gateway relays inbound frames to the downstream transport under a gate.
type Gateway struct {
	downstream Downstream
	gate       *Gate
}

func NewGateway(downstream Downstream, gate *Gate) *Gateway {
	return &Gateway{downstream: downstream, gate: gate}
}

// Forward sends one frame downstream. While the gate is closed the frame is
// received but never forwarded; the call reports "not sent" either way a
// frame is dropped. Forward never panics into the caller's stream loop.
func (gw *Gateway) Forward(frame []byte, isBinary bool) bool {
	if !gw.gate.Open() {
		return false
	}
	return gw.downstream.Forward(frame, isBinary)
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  65536,
	WriteBufferSize: 65536,
	CheckOrigin: func(r *http.Request) bool {
		// Allow any origin for browser clients; restrict in production
		return true
	},
}

// ServeWebSocket upgrades the request and relays every inbound frame through
// the gateway until the client disconnects.
func (gw *Gateway) ServeWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("relay: ws upgrade error: %v", err)
		return
	}
	defer func() { _ = conn.Close() }()
	log.Printf("relay: client connected")

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			log.Printf("relay: client disconnected: %v", err)
			return
		}
		if !gw.Forward(data, mt == websocket.BinaryMessage) {
			// gate closed or downstream unavailable; frame intentionally dropped
			continue
		}
	}
}
