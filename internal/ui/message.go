package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/daylist/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgProgressUpdate MsgKind = iota
	MsgRunComplete
	MsgPublishComplete
)

type runComplete struct {
	run *tasks.RunResult
	err error
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// runCompleteMsg is the constructor for [MsgRunComplete]
func runCompleteMsg(run *tasks.RunResult, err error) Msg {
	return Msg{kind: MsgRunComplete, data: runComplete{run, err}}
}

// publishCompleteMsg is the constructor for [MsgPublishComplete]
func publishCompleteMsg(run *tasks.RunResult, err error) Msg {
	return Msg{kind: MsgPublishComplete, data: runComplete{run, err}}
}
