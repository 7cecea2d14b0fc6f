package transcript

import (
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// AssemblyAI streaming transcription service. It relays raw audio frames to
// the streaming endpoint and accumulates Turn transcript fragments into a
// running utterance buffer. Turn completion is client-driven: the buffer is
// consumed when the turn endpoint fires, not inferred from silence.
type AssemblyAIService struct {
	apiKey    string
	conn      *websocket.Conn
	audioData chan []byte
	stopCh    chan struct{}
	mu        sync.RWMutex
	connected bool

	// utterance accumulation
	accMu     sync.Mutex
	utterance string
	sessionID string
	expiresAt int64

	// final duration metrics from Termination
	audioDurationSeconds   float64
	sessionDurationSeconds float64
}

// AssemblyAI message types
type BeginMessage struct {
	Type      string `json:"type"`
	ID        string `json:"id"`
	ExpiresAt int64  `json:"expires_at"`
}

type TurnMessage struct {
	Type          string `json:"type"`
	Transcript    string `json:"transcript"`
	TurnFormatted bool   `json:"turn_is_formatted"`
}

type TerminationMessage struct {
	Type                   string  `json:"type"`
	AudioDurationSeconds   float64 `json:"audio_duration_seconds"`
	SessionDurationSeconds float64 `json:"session_duration_seconds"`
}

type ErrorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// NewAssemblyAIService creates a new transcription service
func NewAssemblyAIService(apiKey string) *AssemblyAIService {
	return &AssemblyAIService{
		apiKey:    apiKey,
		audioData: make(chan []byte, 1000),
		stopCh:    make(chan struct{}),
	}
}

// Connect establishes the WebSocket connection to AssemblyAI
func (s *AssemblyAIService) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connected {
		return nil
	}

	if s.apiKey == "" {
		return fmt.Errorf("AssemblyAI API key is empty")
	}

	params := url.Values{}
	params.Set("sample_rate", "16000")
	params.Set("format_turns", "true")

	wsURL := fmt.Sprintf("wss://streaming.assemblyai.com/v3/ws?%s", params.Encode())

	headers := map[string][]string{
		"Authorization": {s.apiKey},
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}

	log.Printf("Connecting to AssemblyAI at: %s", wsURL)
	conn, resp, err := dialer.Dial(wsURL, headers)
	if err != nil {
		if resp != nil {
			log.Printf("AssemblyAI connection failed with status: %d", resp.StatusCode)
		}
		return fmt.Errorf("failed to connect to AssemblyAI: %w", err)
	}

	s.conn = conn
	s.connected = true

	go s.handleMessages()
	go s.sendAudioData()

	log.Println("Successfully connected to AssemblyAI streaming service")
	return nil
}

// Connected reports whether the downstream transport is established.
func (s *AssemblyAIService) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// Forward sends a raw frame to AssemblyAI. Binary frames are audio; text
// frames are control JSON. Returns false when the frame was not sent (no
// connection, or the audio queue is full) - this is non-fatal by contract.
func (s *AssemblyAIService) Forward(data []byte, isBinary bool) bool {
	s.mu.RLock()
	connected := s.connected
	conn := s.conn
	s.mu.RUnlock()
	if !connected || conn == nil {
		return false
	}
	if isBinary {
		select {
		case s.audioData <- data:
			return true
		default:
			log.Println("Audio buffer full, dropping packet")
			return false
		}
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Printf("Error sending control message: %v", err)
		return false
	}
	return true
}

// ConsumeUtterance returns the accumulated transcript and clears the buffer.
func (s *AssemblyAIService) ConsumeUtterance() string {
	s.accMu.Lock()
	defer s.accMu.Unlock()
	text := s.utterance
	s.utterance = ""
	return text
}

// Utterance returns the current buffer without clearing it.
func (s *AssemblyAIService) Utterance() string {
	s.accMu.Lock()
	defer s.accMu.Unlock()
	return s.utterance
}

// Durations returns the final audio and session durations reported on
// Termination; zero until the session terminates.
func (s *AssemblyAIService) Durations() (audio, session float64) {
	s.accMu.Lock()
	defer s.accMu.Unlock()
	return s.audioDurationSeconds, s.sessionDurationSeconds
}

// Close requests graceful shutdown and closes the connection.
func (s *AssemblyAIService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return nil
	}
	close(s.stopCh)
	if s.conn != nil {
		terminateMsg := map[string]string{"type": "Terminate"}
		_ = s.conn.WriteJSON(terminateMsg)
		_ = s.conn.Close()
	}
	s.connected = false
	s.conn = nil
	close(s.audioData)
	log.Println("AssemblyAI connection closed")
	return nil
}

// handleMessages processes incoming WebSocket messages
func (s *AssemblyAIService) handleMessages() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic in handleMessages: %v", r)
		}
	}()
	for {
		select {
		case <-s.stopCh:
			return
		default:
			s.mu.RLock()
			conn := s.conn
			s.mu.RUnlock()
			if conn == nil {
				return
			}
			_, message, err := conn.ReadMessage()
			if err != nil {
				log.Printf("Error reading message: %v", err)
				return
			}
			s.processMessage(message)
		}
	}
}

// processMessage handles different message types from AssemblyAI. No event
// is fatal to the stream; malformed payloads are logged and skipped.
func (s *AssemblyAIService) processMessage(message []byte) {
	var baseMsg map[string]interface{}
	if err := json.Unmarshal(message, &baseMsg); err != nil {
		log.Printf("Error unmarshaling message: %v", err)
		return
	}
	msgType, ok := baseMsg["type"].(string)
	if !ok {
		log.Printf("Message missing type field")
		return
	}
	switch msgType {
	case "Begin":
		var msg BeginMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("Error unmarshaling Begin message: %v", err)
			return
		}
		s.accMu.Lock()
		s.sessionID = msg.ID
		s.expiresAt = msg.ExpiresAt
		s.accMu.Unlock()
		expires := time.Unix(msg.ExpiresAt, 0).Format(time.RFC3339)
		log.Printf("AssemblyAI session began: ID=%s, ExpiresAt=%s", msg.ID, expires)
	case "Turn":
		var msg TurnMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("Error unmarshaling Turn message: %v", err)
			return
		}
		if msg.Transcript != "" {
			// Both partial and formatted fragments are appended: the buffer
			// is a best-effort running transcript, not a corrected one.
			s.accMu.Lock()
			s.utterance += msg.Transcript
			s.accMu.Unlock()
		}
	case "Termination":
		var msg TerminationMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("Error unmarshaling Termination message: %v", err)
			return
		}
		s.accMu.Lock()
		s.audioDurationSeconds = msg.AudioDurationSeconds
		s.sessionDurationSeconds = msg.SessionDurationSeconds
		s.accMu.Unlock()
		log.Printf("AssemblyAI session terminated: AudioDuration=%.2fs, SessionDuration=%.2fs", msg.AudioDurationSeconds, msg.SessionDurationSeconds)
	case "Error":
		var msg ErrorMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("Error unmarshaling Error message: %v", err)
			return
		}
		log.Printf("AssemblyAI error: %s", msg.Error)
	default:
		log.Printf("Unknown message type: %s", msgType)
	}
}

// sendAudioData sends queued audio data to AssemblyAI
func (s *AssemblyAIService) sendAudioData() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic in sendAudioData: %v", r)
		}
	}()
	for {
		select {
		case <-s.stopCh:
			return
		case audioData, ok := <-s.audioData:
			if !ok {
				return
			}
			s.mu.RLock()
			conn := s.conn
			s.mu.RUnlock()
			if conn != nil {
				if err := conn.WriteMessage(websocket.BinaryMessage, audioData); err != nil {
					log.Printf("Error sending audio data: %v", err)
					return
				}
			}
		}
	}
}
