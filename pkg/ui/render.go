package ui

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/grove/pkg/model"
	"github.com/vanderheijden86/grove/pkg/store"
	"github.com/vanderheijden86/grove/pkg/ui/tree"
)

// rowKind distinguishes real message rows from virtual cursor rows.
type rowKind int

const (
	rowMsg rowKind = iota
	rowEditor
	rowPseudo
)

// row is a single rendered line of the chat view.
type row struct {
	kind   rowKind
	id     model.MessageID // valid for rowMsg only
	depth  int
	time   string
	nick   string
	body   string
	seen   bool
	folded int // hidden descendant count when the subtree is collapsed
}

// buildTreeRows flattens one root tree into rows in pre-order, honoring the
// fold set and splicing in the editor or pseudo row where the cursor's
// virtual position renders as the last child of its parent.
func buildTreeRows(t *store.Tree, vs *tree.ViewState, nick, draft string) []row {
	var rows []row
	var walk func(id model.MessageID, depth int)
	walk = func(id model.MessageID, depth int) {
		m, ok := t.Msg(id)
		if !ok {
			return
		}
		r := row{
			kind:  rowMsg,
			id:    id,
			depth: depth,
			time:  m.Time().Local().Format("15:04"),
			nick:  m.Nick(),
			body:  m.Content(),
		}
		if mm, ok := m.(model.Msg); ok {
			r.seen = mm.Seen
		}
		if vs.IsFolded(id) {
			r.folded = subtreeSize(t, id) - 1
			rows = append(rows, r)
			return
		}
		rows = append(rows, r)
		for _, child := range t.Children(id) {
			walk(child, depth+1)
		}
		if tree.RefersToLastChildOf(vs.Cursor(), id) {
			rows = append(rows, virtualRow(vs.Cursor(), depth+1, nick, draft))
		}
	}
	walk(t.Root(), 0)
	return rows
}

// virtualRow renders the cursor's editor or pseudo position as a row.
func virtualRow(c tree.Cursor, depth int, nick, draft string) row {
	r := row{depth: depth, nick: nick, body: draft, seen: true}
	switch c.(type) {
	case tree.Editor:
		r.kind = rowEditor
	case tree.Pseudo:
		r.kind = rowPseudo
	}
	return r
}

// topLevelVirtualRow returns the virtual row for a top-level reply cursor
// (Parent == nil), or false when the cursor is not such a position.
func topLevelVirtualRow(c tree.Cursor, nick, draft string) (row, bool) {
	switch c := c.(type) {
	case tree.Editor:
		if c.Parent == nil {
			return virtualRow(c, 0, nick, draft), true
		}
	case tree.Pseudo:
		if c.Parent == nil {
			return virtualRow(c, 0, nick, draft), true
		}
	}
	return row{}, false
}

func subtreeSize(t *store.Tree, id model.MessageID) int {
	n := 1
	for _, child := range t.Children(id) {
		n += subtreeSize(t, child)
	}
	return n
}

// renderRow renders one row to a fixed-width line. Width is the full
// terminal width; overlong content is truncated with an ellipsis.
func renderRow(r row, width int, underCursor bool) string {
	timeCol := r.time
	if timeCol == "" {
		timeCol = "     "
	}
	rail := strings.Repeat("| ", r.depth)

	var marker string
	switch {
	case r.kind == rowEditor:
		marker = "> "
	case r.kind == rowPseudo:
		marker = "* "
	case !r.seen:
		marker = UnseenStyle.Render("•") + " "
	default:
		marker = "  "
	}

	nick := fmt.Sprintf("[%s]", r.nick)
	body := r.body
	if r.folded > 0 {
		body = fmt.Sprintf("%s %s", body, FoldStyle.Render(fmt.Sprintf("[+%d]", r.folded)))
	}

	prefixWidth := runewidth.StringWidth(timeCol) + 1 + len(rail) + 2 + runewidth.StringWidth(nick) + 1
	avail := width - prefixWidth
	if avail < 1 {
		avail = 1
	}
	body = runewidth.Truncate(strings.ReplaceAll(body, "\n", " "), avail, "…")

	bodyStyle := ContentStyle
	if r.kind == rowPseudo {
		bodyStyle = PseudoStyle
	}

	line := fmt.Sprintf("%s %s%s%s %s",
		TimeStyle.Render(timeCol),
		RailStyle.Render(rail),
		marker,
		NickStyle(r.nick).Render(nick),
		bodyStyle.Render(body),
	)
	if underCursor {
		return CursorRowStyle.Render(line)
	}
	return line
}

// rowUnderCursor reports whether r is the row the cursor refers to.
func rowUnderCursor(r row, c tree.Cursor) bool {
	switch r.kind {
	case rowEditor, rowPseudo:
		return true
	default:
		return tree.RefersTo(c, r.id)
	}
}
