package websocket

import (
	"sync"

	"github.com/preetsinghmakkar/OpenConsult/internal/dtos"
)

// MessageBuffer holds signaling frames for a party that is not connected yet
type MessageBuffer struct {
	mu       sync.Mutex
	messages []dtos.SignalMessage
	maxSize  int
}

func NewMessageBuffer(maxSize int) *MessageBuffer {
	return &MessageBuffer{
		messages: make([]dtos.SignalMessage, 0, maxSize),
		maxSize:  maxSize,
	}
}

// Add appends msg, or returns ErrMessageBufferFull
func (mb *MessageBuffer) Add(msg dtos.SignalMessage) error {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	if len(mb.messages) >= mb.maxSize {
		return ErrMessageBufferFull
	}

	mb.messages = append(mb.messages, msg)
	return nil
}

// Flush returns all buffered messages and clears the buffer
func (mb *MessageBuffer) Flush() []dtos.SignalMessage {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	messages := mb.messages
	mb.messages = make([]dtos.SignalMessage, 0, mb.maxSize)
	return messages
}

func (mb *MessageBuffer) Size() int {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	return len(mb.messages)
}

// ConnectionState tracks per-connection signaling progress
type ConnectionState struct {
	mu               sync.RWMutex
	sessionReadySent bool
}

func NewConnectionState() *ConnectionState {
	return &ConnectionState{}
}

// MarkSessionReadySent records that session_ready went out and reports
// whether this call was the first to do so.
func (cs *ConnectionState) MarkSessionReadySent() bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.sessionReadySent {
		return false
	}
	cs.sessionReadySent = true
	return true
}

func (cs *ConnectionState) HasSessionReadySent() bool {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.sessionReadySent
}
