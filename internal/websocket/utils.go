package websocket

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/sayu/sayu-backend/internal/response"
)

const (
	writeWait = 10 * time.Second
	readWait  = 5 * time.Minute
)

// WriteJSON sends one event with its payload.
func WriteJSON(conn *websocket.Conn, event Event, data any) error {
	return WriteTyped(conn, Message{Event: event, Data: data})
}

// WriteTyped sends a strongly-typed response payload over the WebSocket.
func WriteTyped(conn *websocket.Conn, v any) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}

// WriteError sends an ErrorResponse with a plain message.
func WriteError(conn *websocket.Conn, code response.ErrCode, errMsg string) error {
	return WriteTyped(conn, ErrorResponse{
		Event: EventError,
		Code:  code,
		Error: errMsg,
	})
}

// WriteServiceError sends the error code a REST call would have returned, with the
// resync hint for sequence errors.
func WriteServiceError(conn *websocket.Conn, err error) error {
	_, code := response.Classify(err)
	return WriteTyped(conn, ErrorResponse{
		Event: EventError,
		Code:  code,
		Error: response.GetMessage(code),
		Hint:  response.HintFor(err),
	})
}

// ReadJSON reads and decodes a message into the provided structure.
// It sets a read deadline.
func ReadJSON(conn *websocket.Conn, v any) error {
	conn.SetReadDeadline(time.Now().Add(readWait))
	return conn.ReadJSON(v)
}
