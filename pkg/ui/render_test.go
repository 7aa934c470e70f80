package ui

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/vanderheijden86/grove/internal/vault"
	"github.com/vanderheijden86/grove/pkg/model"
	"github.com/vanderheijden86/grove/pkg/ui/tree"
)

// seedRenderRoom stores 1[2[4], 3] plus root 5, with 4 and 5 unseen.
func seedRenderRoom(t *testing.T) *vault.RoomVault {
	t.Helper()
	v, err := vault.OpenInMemory()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(v.Close)

	r := v.Room("render")
	ctx := context.Background()
	for _, m := range []model.Msg{
		{MsgID: 1, At: time.UnixMilli(1), Author: "ann", Body: "root one", Seen: true},
		{MsgID: 2, Parent: model.ParentID(1), At: time.UnixMilli(2), Author: "ben", Body: "first reply", Seen: true},
		{MsgID: 3, Parent: model.ParentID(1), At: time.UnixMilli(3), Author: "cat", Body: "second reply", Seen: true},
		{MsgID: 4, Parent: model.ParentID(2), At: time.UnixMilli(4), Author: "dan", Body: "deep reply"},
		{MsgID: 5, At: time.UnixMilli(5), Author: "eve", Body: "root two"},
	} {
		if err := r.AddMessage(ctx, m, nil); err != nil {
			t.Fatal(err)
		}
	}
	return r
}

func rowIDs(rows []row) []model.MessageID {
	ids := make([]model.MessageID, len(rows))
	for i, r := range rows {
		ids[i] = r.id
	}
	return ids
}

func TestBuildTreeRows_PreOrderWithDepth(t *testing.T) {
	r := seedRenderRoom(t)
	vs := tree.NewViewState(r)

	tr, err := r.Tree(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	rows := buildTreeRows(tr, vs, "me", "")

	want := []model.MessageID{1, 2, 4, 3}
	got := rowIDs(rows)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected pre-order %v, got %v", want, got)
		}
	}
	wantDepth := []int{0, 1, 2, 1}
	for i, r := range rows {
		if r.depth != wantDepth[i] {
			t.Errorf("row %d depth %d, want %d", i, r.depth, wantDepth[i])
		}
	}
}

func TestBuildTreeRows_FoldHidesSubtree(t *testing.T) {
	r := seedRenderRoom(t)
	vs := tree.NewViewState(r)
	vs.SetCursorTo(2)
	vs.ToggleFold()

	tr, err := r.Tree(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	rows := buildTreeRows(tr, vs, "me", "")

	if got := rowIDs(rows); len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("expected folded rows [1 2 3], got %v", got)
	}
	if rows[1].folded != 1 {
		t.Errorf("expected fold marker counting 1 hidden message, got %d", rows[1].folded)
	}
}

func TestBuildTreeRows_EditorRendersAsLastChild(t *testing.T) {
	r := seedRenderRoom(t)
	vs := tree.NewViewState(r)
	ctx := context.Background()

	// Reply to 3 attaches under 1; the editor row renders below 3.
	vs.SetCursorTo(3)
	if _, err := vs.StartReply(ctx, false); err != nil {
		t.Fatal(err)
	}

	tr, err := r.Tree(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	rows := buildTreeRows(tr, vs, "me", "draft text")

	if len(rows) != 5 {
		t.Fatalf("expected 5 rows with editor, got %d", len(rows))
	}
	last := rows[len(rows)-1]
	if last.kind != rowEditor || last.depth != 1 || last.nick != "me" {
		t.Errorf("unexpected editor row %+v", last)
	}
}

func TestTopLevelVirtualRow(t *testing.T) {
	r := seedRenderRoom(t)
	vs := tree.NewViewState(r)
	ctx := context.Background()

	// No virtual row while the cursor is at the live edge.
	if _, ok := topLevelVirtualRow(vs.Cursor(), "me", ""); ok {
		t.Fatal("expected no virtual row for bottom cursor")
	}

	// A reply from the live edge is a new top-level thread.
	if _, err := vs.StartReply(ctx, false); err != nil {
		t.Fatal(err)
	}
	r2, ok := topLevelVirtualRow(vs.Cursor(), "me", "hi")
	if !ok || r2.kind != rowEditor || r2.depth != 0 {
		t.Fatalf("expected top-level editor row, got %+v ok=%v", r2, ok)
	}

	vs.ConfirmEditor()
	r2, ok = topLevelVirtualRow(vs.Cursor(), "me", "hi")
	if !ok || r2.kind != rowPseudo {
		t.Fatalf("expected top-level pseudo row, got %+v ok=%v", r2, ok)
	}
}

func TestRenderRow_TruncatesToWidth(t *testing.T) {
	r := row{
		kind: rowMsg,
		id:   1,
		time: "12:34",
		nick: "ann",
		body: strings.Repeat("long ", 100),
		seen: true,
	}
	line := renderRow(r, 40, false)
	if !strings.Contains(line, "…") {
		t.Error("expected overlong body to be truncated with an ellipsis")
	}
	if strings.Contains(line, "long long long long long long long long long") {
		t.Error("expected body to be cut down")
	}
}

func TestRenderRow_Markers(t *testing.T) {
	unseen := renderRow(row{kind: rowMsg, id: 1, time: "12:34", nick: "a", body: "x"}, 80, false)
	if !strings.Contains(unseen, "•") {
		t.Error("expected unseen marker")
	}

	folded := renderRow(row{kind: rowMsg, id: 1, time: "12:34", nick: "a", body: "x", seen: true, folded: 3}, 80, false)
	if !strings.Contains(folded, "[+3]") {
		t.Error("expected fold count marker")
	}

	editor := renderRow(row{kind: rowEditor, nick: "me", body: "draft", seen: true}, 80, false)
	if !strings.Contains(editor, "> ") {
		t.Error("expected editor marker")
	}

	pseudo := renderRow(row{kind: rowPseudo, nick: "me", body: "sending", seen: true}, 80, false)
	if !strings.Contains(pseudo, "* ") {
		t.Error("expected pseudo marker")
	}
}

func TestRenderRow_FlattensNewlines(t *testing.T) {
	line := renderRow(row{kind: rowMsg, id: 1, time: "12:34", nick: "a", body: "one\ntwo", seen: true}, 80, false)
	if strings.Contains(line, "\n") {
		t.Error("expected a single-line row")
	}
}
