package session

import (
	"github.com/akeil/annotate"
	"github.com/akeil/annotate/pkg/render"
	"github.com/akeil/annotate/pkg/scene"
	"github.com/akeil/annotate/pkg/textrun"
)

// Command types sent by the client.
const (
	CmdTool     = "tool"
	CmdStyle    = "style"
	CmdViewport = "viewport"
	CmdPage     = "page"
	CmdPointer  = "pointer"
	CmdAdd      = "add"
	CmdUpdate   = "update"
	CmdSelect   = "select"
	CmdMove     = "move"
	CmdDelete   = "delete"
	CmdUndo     = "undo"
	CmdRedo     = "redo"
	CmdClear    = "clear"
	CmdEditText = "edit-text"
	CmdState    = "state"
)

// Pointer phases.
const (
	PointerDown = "down"
	PointerMove = "move"
	PointerUp   = "up"
)

// Message types sent to the client.
const (
	MsgState = "state"
	MsgError = "error"
)

// Command is a single request from the client.
//
// Only the fields relevant for the command type are set.
type Command struct {
	Type   string          `json:"type"`
	Tool   string          `json:"tool,omitempty"`
	Shape  scene.Kind      `json:"shape,omitempty"`
	Style  *annotate.Style `json:"style,omitempty"`
	Width  float64         `json:"width,omitempty"`
	Height float64         `json:"height,omitempty"`
	Page   int             `json:"page,omitempty"`
	Phase  string          `json:"phase,omitempty"`
	X      float64         `json:"x,omitempty"`
	Y      float64         `json:"y,omitempty"`
	DX     float64         `json:"dx,omitempty"`
	DY     float64         `json:"dy,omitempty"`
	ID     string          `json:"id,omitempty"`
	Object *scene.Object   `json:"object,omitempty"`
	Run    *textrun.Run    `json:"run,omitempty"`
	Text   string          `json:"text,omitempty"`
}

// Message is the reply to a command.
type Message struct {
	Type  string `json:"type"`
	Error string `json:"error,omitempty"`
	State *State `json:"state,omitempty"`
}

// State describes the annotation surface after a command.
type State struct {
	Page      int            `json:"page"`
	Pages     int            `json:"pages"`
	Tool      string         `json:"tool"`
	Style     annotate.Style `json:"style"`
	Viewport  render.Size    `json:"viewport"`
	Scene     *scene.Scene   `json:"scene,omitempty"`
	Selection string         `json:"selection,omitempty"`
	CanUndo   bool           `json:"canUndo"`
	CanRedo   bool           `json:"canRedo"`
	// Created is the ID of an object created by the command.
	Created string `json:"created,omitempty"`
}

// Info describes the loaded document.
type Info struct {
	Name       string        `json:"name"`
	Type       string        `json:"type"`
	ExportName string        `json:"exportName"`
	Pages      int           `json:"pages"`
	Sizes      []render.Size `json:"sizes,omitempty"`
}

func stateOf(e *annotate.Editor) *State {
	return &State{
		Page:      e.Page(),
		Pages:     e.Document().PageCount(),
		Tool:      e.Tool().String(),
		Style:     e.Style(),
		Viewport:  e.Viewport(),
		Scene:     e.Scene(),
		Selection: e.Selection(),
		CanUndo:   e.CanUndo(),
		CanRedo:   e.CanRedo(),
	}
}

func infoOf(d *annotate.Document) Info {
	info := Info{
		Name:       d.Name(),
		Type:       d.FileType().String(),
		ExportName: d.ExportName(),
		Pages:      d.PageCount(),
	}
	for i := 1; i <= d.PageCount(); i++ {
		size, err := d.PageSize(i)
		if err == nil {
			info.Sizes = append(info.Sizes, size)
		}
	}
	return info
}

func errorMessage(err error) Message {
	return Message{Type: MsgError, Error: err.Error()}
}
