package ui

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/grove/internal/config"
	"github.com/vanderheijden86/grove/internal/vault"
)

// roomEntry is one line of the rooms list.
type roomEntry struct {
	name   string
	unseen int
}

// roomsLoadedMsg carries the refreshed rooms list.
type roomsLoadedMsg struct {
	rooms []roomEntry
	err   error
}

// enterRoomMsg asks the app to switch to a room's chat screen.
type enterRoomMsg struct{ name string }

// roomsModel is the rooms selection screen.
type roomsModel struct {
	v         *vault.Vault
	sortOrder config.RoomsSortOrder

	rooms    []roomEntry
	selected int

	joining bool
	join    textinput.Model

	width  int
	height int
	errMsg string
}

func newRoomsModel(v *vault.Vault, sortOrder config.RoomsSortOrder) roomsModel {
	ti := textinput.New()
	ti.Placeholder = "room name"
	ti.CharLimit = 64
	return roomsModel{v: v, sortOrder: sortOrder, join: ti}
}

func (m roomsModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m roomsModel) loadCmd() tea.Cmd {
	v, order := m.v, m.sortOrder
	return func() tea.Msg {
		ctx := context.Background()
		names, err := v.Rooms(ctx)
		if err != nil {
			return roomsLoadedMsg{err: err}
		}
		rooms := make([]roomEntry, 0, len(names))
		for _, name := range names {
			unseen, err := v.Room(name).UnseenCount(ctx)
			if err != nil {
				return roomsLoadedMsg{err: err}
			}
			rooms = append(rooms, roomEntry{name: name, unseen: unseen})
		}
		sortRooms(rooms, order)
		return roomsLoadedMsg{rooms: rooms}
	}
}

// sortRooms orders the list: alphabet is plain lexicographic, importance
// puts rooms with unseen messages first, most unseen at the top.
func sortRooms(rooms []roomEntry, order config.RoomsSortOrder) {
	switch order {
	case config.SortImportance:
		sort.SliceStable(rooms, func(i, j int) bool {
			if rooms[i].unseen != rooms[j].unseen {
				return rooms[i].unseen > rooms[j].unseen
			}
			return rooms[i].name < rooms[j].name
		})
	default:
		sort.SliceStable(rooms, func(i, j int) bool {
			return rooms[i].name < rooms[j].name
		})
	}
}

func (m roomsModel) Update(msg tea.Msg) (roomsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case roomsLoadedMsg:
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return m, nil
		}
		m.rooms = msg.rooms
		if m.selected >= len(m.rooms) {
			m.selected = len(m.rooms) - 1
		}
		if m.selected < 0 {
			m.selected = 0
		}
		return m, nil

	case tea.KeyMsg:
		if m.joining {
			return m.updateJoin(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m roomsModel) updateList(msg tea.KeyMsg) (roomsModel, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		if m.selected < len(m.rooms)-1 {
			m.selected++
		}
	case "k", "up":
		if m.selected > 0 {
			m.selected--
		}
	case "enter":
		if m.selected < len(m.rooms) {
			name := m.rooms[m.selected].name
			return m, func() tea.Msg { return enterRoomMsg{name: name} }
		}
	case "c":
		m.joining = true
		m.join.Reset()
		m.join.Focus()
		return m, textinput.Blink
	case "x":
		if m.selected < len(m.rooms) {
			name := m.rooms[m.selected].name
			v := m.v
			return m, tea.Sequence(
				func() tea.Msg {
					if err := v.DeleteRoom(context.Background(), name); err != nil {
						return roomsLoadedMsg{err: err}
					}
					return nil
				},
				m.loadCmd(),
			)
		}
	case "o":
		if m.sortOrder == config.SortAlphabet {
			m.sortOrder = config.SortImportance
		} else {
			m.sortOrder = config.SortAlphabet
		}
		sortRooms(m.rooms, m.sortOrder)
	}
	return m, nil
}

func (m roomsModel) updateJoin(msg tea.KeyMsg) (roomsModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.joining = false
		m.join.Blur()
		return m, nil
	case "enter":
		name := strings.TrimSpace(m.join.Value())
		m.joining = false
		m.join.Blur()
		if name == "" {
			return m, nil
		}
		return m, func() tea.Msg { return enterRoomMsg{name: name} }
	}
	var cmd tea.Cmd
	m.join, cmd = m.join.Update(msg)
	return m, cmd
}

func (m roomsModel) View() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("grove · rooms") + "\n\n")

	if len(m.rooms) == 0 {
		b.WriteString(StatusBarStyle.Render("no rooms yet, press c to connect to one") + "\n")
	}
	for i, r := range m.rooms {
		line := "&" + r.name
		if r.unseen > 0 {
			line += " " + UnseenStyle.Render(fmt.Sprintf("(%d)", r.unseen))
		}
		if i == m.selected {
			b.WriteString(SelectedRoomStyle.Render("> "+line) + "\n")
		} else {
			b.WriteString(RoomStyle.Render("  "+line) + "\n")
		}
	}

	if m.joining {
		b.WriteString("\nConnect to: " + m.join.View() + "\n")
	}

	b.WriteString("\n")
	if m.errMsg != "" {
		b.WriteString(ErrStyle.Render(m.errMsg))
	} else {
		b.WriteString(StatusBarStyle.Render(
			fmt.Sprintf("enter open · c connect · x forget · o sort (%s) · q quit", m.sortOrder)))
	}
	return b.String()
}
