package session

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/akeil/annotate"
	"github.com/akeil/annotate/internal/errors"
	"github.com/akeil/annotate/internal/logging"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMessage = 1 << 20
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// handleWebsocket answers every command with a state or error message.
//
// Reading and writing happen on separate goroutines; only the write loop
// touches the connection for writing.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an error
		logging.Warning("Websocket upgrade failed: %v", err)
		return
	}
	logging.Info("Websocket connected from %v", conn.RemoteAddr())

	ctx, cancel := context.WithCancel(r.Context())
	out := make(chan Message, 16)

	go s.writeLoop(ctx, conn, out)
	s.readLoop(ctx, conn, out)

	cancel()
	logging.Info("Websocket disconnected")
}

func (s *Server) readLoop(ctx context.Context, conn *websocket.Conn, out chan<- Message) {
	conn.SetReadLimit(maxMessage)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logging.Warning("Websocket read: %v", err)
			}
			return
		}

		var cmd Command
		err = json.Unmarshal(data, &cmd)
		var msg Message
		if err != nil {
			msg = errorMessage(errors.NewValidationError("invalid command: %v", err))
		} else {
			msg = s.execute(ctx, cmd)
		}

		select {
		case out <- msg:
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) writeLoop(ctx context.Context, conn *websocket.Conn, out <-chan Message) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer conn.Close()

	for {
		select {
		case <-ctx.Done():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case msg := <-out:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := conn.WriteJSON(msg)
			if err != nil {
				logging.Warning("Websocket write: %v", err)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			if err != nil {
				return
			}
		}
	}
}

// execute applies a command to the editor and returns the reply.
// Errors are reported to the client and leave the session usable.
func (s *Server) execute(ctx context.Context, cmd Command) Message {
	var state *State
	err := s.withEditor(ctx, func(e *annotate.Editor) error {
		created, err := apply(e, cmd)
		if err != nil {
			return err
		}
		state = stateOf(e)
		state.Created = created
		return nil
	})
	if err != nil {
		logging.Debug("Command %q failed: %v", cmd.Type, err)
		return errorMessage(err)
	}
	return Message{Type: MsgState, State: state}
}

// apply dispatches a single command.
// Returns the ID of a newly created object, if any.
func apply(e *annotate.Editor, cmd Command) (string, error) {
	switch cmd.Type {
	case CmdState:
		return "", nil
	case CmdTool:
		t, err := annotate.ParseTool(cmd.Tool)
		if err != nil {
			return "", err
		}
		err = e.SetTool(t)
		if err == nil && cmd.Shape != "" {
			err = e.SetShape(cmd.Shape)
		}
		return "", err
	case CmdStyle:
		if cmd.Style == nil {
			return "", errors.NewValidationError("missing style")
		}
		return "", e.SetStyle(*cmd.Style)
	case CmdViewport:
		return "", e.SetViewport(cmd.Width, cmd.Height)
	case CmdPage:
		return "", e.GoToPage(cmd.Page)
	case CmdPointer:
		switch cmd.Phase {
		case PointerDown:
			return e.PointerDown(cmd.X, cmd.Y)
		case PointerMove:
			e.PointerMove(cmd.X, cmd.Y)
			return "", nil
		case PointerUp:
			return e.PointerUp(cmd.X, cmd.Y)
		}
		return "", errors.NewValidationError("unknown pointer phase %q", cmd.Phase)
	case CmdAdd:
		if cmd.Object == nil {
			return "", errors.NewValidationError("missing object")
		}
		return e.AddObject(*cmd.Object)
	case CmdUpdate:
		if cmd.Object == nil {
			return "", errors.NewValidationError("missing object")
		}
		if cmd.Object.ID == "" {
			cmd.Object.ID = cmd.ID
		}
		return "", e.UpdateObject(*cmd.Object)
	case CmdSelect:
		if cmd.ID != "" {
			return "", e.Select(cmd.ID)
		}
		e.SelectAt(cmd.X, cmd.Y)
		return "", nil
	case CmdMove:
		return "", e.MoveSelection(cmd.DX, cmd.DY)
	case CmdDelete:
		if cmd.ID != "" {
			err := e.Select(cmd.ID)
			if err != nil {
				return "", err
			}
		}
		return "", e.DeleteSelection()
	case CmdUndo:
		_, err := e.Undo()
		return "", err
	case CmdRedo:
		_, err := e.Redo()
		return "", err
	case CmdClear:
		return "", e.Clear()
	case CmdEditText:
		if cmd.ID != "" {
			return "", e.SetText(cmd.ID, cmd.Text)
		}
		if cmd.Run == nil {
			return "", errors.NewValidationError("missing text run")
		}
		return "", e.EditText(*cmd.Run, cmd.Text)
	}
	return "", errors.NewValidationError("unknown command %q", cmd.Type)
}
