package vault

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/grove/pkg/model"
	"github.com/vanderheijden86/grove/pkg/store"
)

// RoomVault is one room's view of the vault. It implements store.MsgStore
// and carries the write side fed by the remote protocol: message arrival,
// edit and delete events, and seen tracking. All operations go through the
// vault's serialized execution, so a write submitted before a read is
// guaranteed visible to it.
type RoomVault struct {
	v    *Vault
	room string
}

var _ store.MsgStore = (*RoomVault)(nil)

// Room returns the per-room view for name. The room row itself is created
// lazily by the first write.
func (v *Vault) Room(name string) *RoomVault {
	return &RoomVault{v: v, room: name}
}

// Name returns the room name this view is scoped to.
func (r *RoomVault) Name() string { return r.room }

// Vault returns the backing vault.
func (r *RoomVault) Vault() *Vault { return r.v }

const treeQuery = `
	WITH RECURSIVE subtree(id) AS (
		SELECT id FROM msgs WHERE room = ?1 AND id = ?2
		UNION ALL
		SELECT m.id FROM msgs m JOIN subtree s ON m.parent = s.id WHERE m.room = ?1
	)
	SELECT m.id, m.parent, m.time, m.nick, m.content, m.seen
	FROM msgs m JOIN subtree s ON m.id = s.id
	WHERE m.room = ?1
	ORDER BY m.id
`

const rootQuery = `
	WITH RECURSIVE chain(id, parent) AS (
		SELECT id, parent FROM msgs WHERE room = ?1 AND id = ?2
		UNION ALL
		SELECT m.id, m.parent FROM msgs m JOIN chain c ON m.id = c.parent WHERE m.room = ?1
	)
	SELECT id FROM chain WHERE parent IS NULL
`

// Tree materializes the full root tree containing id.
func (r *RoomVault) Tree(ctx context.Context, id model.MessageID) (*store.Tree, error) {
	return Execute(ctx, r.v, func(db *sql.DB) (*store.Tree, error) {
		root, err := rootIDOf(db, r.room, id)
		if err != nil {
			return nil, err
		}

		rows, err := db.Query(treeQuery, r.room, int64(root))
		if err != nil {
			return nil, fmt.Errorf("load tree %s: %w", root, err)
		}
		defer rows.Close()

		var nodes []store.Node
		for rows.Next() {
			node, err := scanNode(rows)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, node)
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("load tree %s: %w", root, err)
		}
		return store.NewTree(root, nodes), nil
	})
}

// RootID resolves the root of the tree containing id by walking the parent
// chain inside the database.
func (r *RoomVault) RootID(ctx context.Context, id model.MessageID) (model.MessageID, error) {
	return Execute(ctx, r.v, func(db *sql.DB) (model.MessageID, error) {
		return rootIDOf(db, r.room, id)
	})
}

func rootIDOf(db *sql.DB, room string, id model.MessageID) (model.MessageID, error) {
	var root int64
	err := db.QueryRow(rootQuery, room, int64(id)).Scan(&root)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("message %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("resolve root of %s: %w", id, err)
	}
	return model.MessageID(root), nil
}

func scanNode(rows *sql.Rows) (store.Node, error) {
	var (
		id      int64
		parent  sql.NullInt64
		at      int64
		nick    string
		content string
		seen    bool
	)
	if err := rows.Scan(&id, &parent, &at, &nick, &content, &seen); err != nil {
		return store.Node{}, err
	}
	msg := model.Msg{
		MsgID:  model.MessageID(id),
		At:     time.UnixMilli(at),
		Author: nick,
		Body:   content,
		Seen:   seen,
	}
	var p *model.MessageID
	if parent.Valid {
		msg.Parent = model.ParentID(model.MessageID(parent.Int64))
		p = msg.Parent
	}
	return store.Node{Msg: msg, Parent: p}, nil
}

// optionalID turns a LIMIT 1 id query into the (id, ok, error) shape used
// throughout the forest abstraction.
func optionalID(db *sql.DB, query string, args ...any) (model.MessageID, bool, error) {
	var id int64
	err := db.QueryRow(query, args...).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return model.MessageID(id), true, nil
}

// FirstRootID returns the first root in the root sequence.
func (r *RoomVault) FirstRootID(ctx context.Context) (model.MessageID, bool, error) {
	return rootNav(ctx, r, `SELECT id FROM msgs WHERE room = ? AND parent IS NULL ORDER BY id LIMIT 1`, r.room)
}

// LastRootID returns the last root in the root sequence.
func (r *RoomVault) LastRootID(ctx context.Context) (model.MessageID, bool, error) {
	return rootNav(ctx, r, `SELECT id FROM msgs WHERE room = ? AND parent IS NULL ORDER BY id DESC LIMIT 1`, r.room)
}

// PrevRootID returns the root before root in the root sequence.
func (r *RoomVault) PrevRootID(ctx context.Context, root model.MessageID) (model.MessageID, bool, error) {
	return rootNav(ctx, r, `SELECT id FROM msgs WHERE room = ? AND parent IS NULL AND id < ? ORDER BY id DESC LIMIT 1`, r.room, int64(root))
}

// NextRootID returns the root after root in the root sequence.
func (r *RoomVault) NextRootID(ctx context.Context, root model.MessageID) (model.MessageID, bool, error) {
	return rootNav(ctx, r, `SELECT id FROM msgs WHERE room = ? AND parent IS NULL AND id > ? ORDER BY id LIMIT 1`, r.room, int64(root))
}

func rootNav(ctx context.Context, r *RoomVault, query string, args ...any) (model.MessageID, bool, error) {
	type pair struct {
		id model.MessageID
		ok bool
	}
	p, err := Execute(ctx, r.v, func(db *sql.DB) (pair, error) {
		id, ok, err := optionalID(db, query, args...)
		return pair{id, ok}, err
	})
	return p.id, p.ok, err
}

// msgClock reads the (time, id) sort key of an existing message.
func msgClock(db *sql.DB, room string, id model.MessageID) (int64, error) {
	var at int64
	err := db.QueryRow(`SELECT time FROM msgs WHERE room = ? AND id = ?`, room, int64(id)).Scan(&at)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("message %s: %w", id, store.ErrNotFound)
	}
	return at, err
}

func (r *RoomVault) chronoNav(ctx context.Context, id model.MessageID, newer, unseenOnly bool) (model.MessageID, bool, error) {
	type pair struct {
		id model.MessageID
		ok bool
	}
	p, err := Execute(ctx, r.v, func(db *sql.DB) (pair, error) {
		at, err := msgClock(db, r.room, id)
		if err != nil {
			return pair{}, err
		}
		cmp, order := "<", "DESC"
		if newer {
			cmp, order = ">", "ASC"
		}
		seen := ""
		if unseenOnly {
			seen = "AND seen = 0"
		}
		query := fmt.Sprintf(`
			SELECT id FROM msgs
			WHERE room = ? %s AND (time %s ? OR (time = ? AND id %s ?))
			ORDER BY time %s, id %s LIMIT 1`,
			seen, cmp, cmp, order, order)
		mid, ok, err := optionalID(db, query, r.room, at, at, int64(id))
		return pair{mid, ok}, err
	})
	return p.id, p.ok, err
}

// OlderMsgID returns the chronologically previous message.
func (r *RoomVault) OlderMsgID(ctx context.Context, id model.MessageID) (model.MessageID, bool, error) {
	return r.chronoNav(ctx, id, false, false)
}

// NewerMsgID returns the chronologically next message.
func (r *RoomVault) NewerMsgID(ctx context.Context, id model.MessageID) (model.MessageID, bool, error) {
	return r.chronoNav(ctx, id, true, false)
}

// NewestMsgID returns the chronologically last message of the room.
func (r *RoomVault) NewestMsgID(ctx context.Context) (model.MessageID, bool, error) {
	return rootNav(ctx, r, `SELECT id FROM msgs WHERE room = ? ORDER BY time DESC, id DESC LIMIT 1`, r.room)
}

// OlderUnseenMsgID returns the chronologically previous unseen message.
func (r *RoomVault) OlderUnseenMsgID(ctx context.Context, id model.MessageID) (model.MessageID, bool, error) {
	return r.chronoNav(ctx, id, false, true)
}

// NewerUnseenMsgID returns the chronologically next unseen message.
func (r *RoomVault) NewerUnseenMsgID(ctx context.Context, id model.MessageID) (model.MessageID, bool, error) {
	return r.chronoNav(ctx, id, true, true)
}

// NewestUnseenMsgID returns the chronologically last unseen message.
func (r *RoomVault) NewestUnseenMsgID(ctx context.Context) (model.MessageID, bool, error) {
	return rootNav(ctx, r, `SELECT id FROM msgs WHERE room = ? AND seen = 0 ORDER BY time DESC, id DESC LIMIT 1`, r.room)
}

// Msg loads a single message.
func (r *RoomVault) Msg(ctx context.Context, id model.MessageID) (model.Msg, error) {
	return Execute(ctx, r.v, func(db *sql.DB) (model.Msg, error) {
		var (
			parent  sql.NullInt64
			at      int64
			nick    string
			content string
			seen    bool
		)
		err := db.QueryRow(
			`SELECT parent, time, nick, content, seen FROM msgs WHERE room = ? AND id = ?`,
			r.room, int64(id),
		).Scan(&parent, &at, &nick, &content, &seen)
		if err == sql.ErrNoRows {
			return model.Msg{}, fmt.Errorf("message %s: %w", id, store.ErrNotFound)
		}
		if err != nil {
			return model.Msg{}, fmt.Errorf("load message %s: %w", id, err)
		}
		m := model.Msg{
			MsgID:  id,
			At:     time.UnixMilli(at),
			Author: nick,
			Body:   content,
			Seen:   seen,
		}
		if parent.Valid {
			m.Parent = model.ParentID(model.MessageID(parent.Int64))
		}
		return m, nil
	})
}

// AddMessage absorbs a message arrival or edit event. New messages are
// inserted unseen unless m.Seen is set (own messages); edits update content
// in place and preserve the seen flag. payload, if non-nil, is the raw remote
// event kept alongside the decoded columns so future migrations can re-derive
// fields from it.
func (r *RoomVault) AddMessage(ctx context.Context, m model.Msg, payload any) error {
	_, err := Execute(ctx, r.v, func(db *sql.DB) (struct{}, error) {
		var data sql.NullString
		if payload != nil {
			b, err := json.Marshal(payload)
			if err != nil {
				return struct{}{}, fmt.Errorf("encode event payload: %w", err)
			}
			data = sql.NullString{String: string(b), Valid: true}
		}

		if _, err := db.Exec(
			`INSERT OR IGNORE INTO rooms (name, first_joined) VALUES (?, ?)`,
			r.room, time.Now().UnixMilli(),
		); err != nil {
			return struct{}{}, fmt.Errorf("ensure room %s: %w", r.room, err)
		}

		var parent sql.NullInt64
		if m.Parent != nil {
			parent = sql.NullInt64{Int64: int64(*m.Parent), Valid: true}
		}
		_, err := db.Exec(`
			INSERT INTO msgs (room, id, parent, time, nick, content, seen, data)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (room, id) DO UPDATE SET
				parent = excluded.parent,
				time = excluded.time,
				nick = excluded.nick,
				content = excluded.content,
				data = excluded.data`,
			r.room, int64(m.MsgID), parent, m.At.UnixMilli(), m.Author, m.Body, m.Seen, data,
		)
		if err != nil {
			return struct{}{}, fmt.Errorf("store message %s: %w", m.MsgID, err)
		}
		return struct{}{}, nil
	})
	return err
}

// DeleteMessage absorbs a deletion event. Children of the deleted message
// are promoted to roots so the forest invariant (every parent link points at
// an existing message) keeps holding.
func (r *RoomVault) DeleteMessage(ctx context.Context, id model.MessageID) error {
	_, err := Execute(ctx, r.v, func(db *sql.DB) (struct{}, error) {
		tx, err := db.Begin()
		if err != nil {
			return struct{}{}, err
		}
		defer tx.Rollback()

		if _, err := tx.Exec(
			`UPDATE msgs SET parent = NULL WHERE room = ? AND parent = ?`,
			r.room, int64(id),
		); err != nil {
			return struct{}{}, fmt.Errorf("orphan children of %s: %w", id, err)
		}
		if _, err := tx.Exec(
			`DELETE FROM msgs WHERE room = ? AND id = ?`,
			r.room, int64(id),
		); err != nil {
			return struct{}{}, fmt.Errorf("delete message %s: %w", id, err)
		}
		return struct{}{}, tx.Commit()
	})
	return err
}

// MarkSeen marks a single message as seen.
func (r *RoomVault) MarkSeen(ctx context.Context, id model.MessageID) error {
	_, err := Execute(ctx, r.v, func(db *sql.DB) (struct{}, error) {
		_, err := db.Exec(
			`UPDATE msgs SET seen = 1 WHERE room = ? AND id = ?`,
			r.room, int64(id),
		)
		return struct{}{}, err
	})
	return err
}

// MarkAllSeen marks every message of the room as seen.
func (r *RoomVault) MarkAllSeen(ctx context.Context) error {
	_, err := Execute(ctx, r.v, func(db *sql.DB) (struct{}, error) {
		_, err := db.Exec(`UPDATE msgs SET seen = 1 WHERE room = ?`, r.room)
		return struct{}{}, err
	})
	return err
}

// UnseenCount returns the number of messages not yet marked seen.
func (r *RoomVault) UnseenCount(ctx context.Context) (int, error) {
	return Execute(ctx, r.v, func(db *sql.DB) (int, error) {
		var n int
		err := db.QueryRow(
			`SELECT COUNT(*) FROM msgs WHERE room = ? AND seen = 0`,
			r.room,
		).Scan(&n)
		return n, err
	})
}

// Payload decodes the raw remote event stored for a message into out.
// Messages ingested without a payload yield store.ErrNotFound.
func (r *RoomVault) Payload(ctx context.Context, id model.MessageID, out any) error {
	_, err := Execute(ctx, r.v, func(db *sql.DB) (struct{}, error) {
		var data sql.NullString
		err := db.QueryRow(
			`SELECT data FROM msgs WHERE room = ? AND id = ?`,
			r.room, int64(id),
		).Scan(&data)
		if err == sql.ErrNoRows || (err == nil && !data.Valid) {
			return struct{}{}, fmt.Errorf("payload of %s: %w", id, store.ErrNotFound)
		}
		if err != nil {
			return struct{}{}, fmt.Errorf("load payload of %s: %w", id, err)
		}
		return struct{}{}, json.Unmarshal([]byte(data.String), out)
	})
	return err
}
