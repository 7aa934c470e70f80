// Package ui implements the terminal interface: a rooms screen and a
// threaded chat screen over the vault.
package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/grove/internal/config"
	"github.com/vanderheijden86/grove/internal/vault"
	"github.com/vanderheijden86/grove/pkg/debug"
	"github.com/vanderheijden86/grove/pkg/watcher"
)

// screen identifies which top-level view has focus.
type screen int

const (
	screenRooms screen = iota
	screenChat
)

// configReloadedMsg carries a freshly re-read config after the watcher
// reported a change.
type configReloadedMsg struct {
	cfg config.Config
	err error
}

// gcDoneMsg reports a finished vault garbage collection.
type gcDoneMsg struct{ err error }

// App is the root bubbletea model.
type App struct {
	cfg     config.Config
	cfgPath string
	vault   *vault.Vault
	watch   *watcher.Watcher

	screen screen
	rooms  roomsModel
	chat   chatModel

	width  int
	height int
	notice string
}

// NewApp builds the root model. watch may be nil when config hot reload is
// disabled (ephemeral mode, missing config file).
func NewApp(cfg config.Config, cfgPath string, v *vault.Vault, watch *watcher.Watcher) App {
	return App{
		cfg:     cfg,
		cfgPath: cfgPath,
		vault:   v,
		watch:   watch,
		rooms:   newRoomsModel(v, cfg.RoomsSortOrder),
	}
}

func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{a.rooms.Init()}
	if a.watch != nil {
		cmds = append(cmds, a.waitForConfigChange())
	}
	return tea.Batch(cmds...)
}

// waitForConfigChange blocks on the watcher and re-reads the config when it
// fires. It re-arms itself after each reload.
func (a App) waitForConfigChange() tea.Cmd {
	ch := a.watch.Changed()
	path := a.cfgPath
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		cfg, err := config.LoadFrom(path)
		return configReloadedMsg{cfg: cfg, err: err}
	}
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		var cmds []tea.Cmd
		var cmd tea.Cmd
		a.rooms, cmd = a.rooms.Update(msg)
		cmds = append(cmds, cmd)
		if a.screen == screenChat {
			a.chat, cmd = a.chat.Update(msg)
			cmds = append(cmds, cmd)
		}
		return a, tea.Batch(cmds...)

	case configReloadedMsg:
		if msg.err != nil {
			debug.Log("app: config reload failed: %v", msg.err)
			a.notice = "config reload failed"
			return a, a.waitForConfigChange()
		}
		a.cfg = msg.cfg
		a.rooms.sortOrder = msg.cfg.RoomsSortOrder
		sortRooms(a.rooms.rooms, a.rooms.sortOrder)
		a.notice = "config reloaded"
		return a, a.waitForConfigChange()

	case gcDoneMsg:
		if msg.err != nil {
			a.notice = "gc failed: " + msg.err.Error()
		} else {
			a.notice = "vault compacted"
		}
		return a, nil

	case enterRoomMsg:
		room := a.vault.Room(msg.name)
		nick := a.cfg.Room(msg.name).Username
		if nick == "" {
			nick = "guest"
		}
		a.chat = newChatModel(room, nick, a.cfg.Room(msg.name).ForceUsername)
		a.screen = screenChat
		var cmds []tea.Cmd
		cmds = append(cmds, a.chat.Init())
		if a.width > 0 {
			var cmd tea.Cmd
			a.chat, cmd = a.chat.Update(tea.WindowSizeMsg{Width: a.width, Height: a.height})
			cmds = append(cmds, cmd)
		}
		return a, tea.Batch(cmds...)

	case tea.KeyMsg:
		a.notice = ""
		switch msg.String() {
		case "ctrl+c":
			return a, tea.Quit
		case "ctrl+g":
			v := a.vault
			return a, func() tea.Msg {
				return gcDoneMsg{err: v.Gc(context.Background())}
			}
		case "q":
			// q backs out of the chat screen; in compose it is just a letter.
			if a.screen == screenChat && !a.chat.composing {
				a.screen = screenRooms
				return a, a.rooms.loadCmd()
			}
			if a.screen == screenRooms && !a.rooms.joining {
				return a, tea.Quit
			}
		}
	}

	var cmd tea.Cmd
	switch a.screen {
	case screenChat:
		a.chat, cmd = a.chat.Update(msg)
	default:
		a.rooms, cmd = a.rooms.Update(msg)
	}
	return a, cmd
}

func (a App) View() string {
	var view string
	switch a.screen {
	case screenChat:
		view = a.chat.View()
	default:
		view = a.rooms.View()
	}
	if a.notice != "" {
		view += "\n" + StatusBarStyle.Render(a.notice)
	}
	return view
}
