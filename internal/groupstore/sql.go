package groupstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelvari/groupsync/internal/group"
)

// Dialect selects the SQL flavor used for upserts and schema bootstrap.
type Dialect string

const (
	DialectMySQL  Dialect = "mysql"
	DialectSQLite Dialect = "sqlite"
)

// SQL is the relational implementation of group.Store. Timestamps are stored
// as unix microseconds so both dialects compare them the same way.
type SQL struct {
	db      *sql.DB
	dialect Dialect
}

// NewSQL wraps an open database handle.
func NewSQL(db *sql.DB, dialect Dialect) *SQL {
	return &SQL{db: db, dialect: dialect}
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS social_groups (
		id BIGINT NOT NULL AUTO_INCREMENT,
		kind TINYINT NOT NULL,
		name VARCHAR(64) NULL,
		created_at BIGINT NOT NULL,
		PRIMARY KEY (id),
		KEY idx_social_groups_kind_name (kind, name)
	)`,
	`CREATE TABLE IF NOT EXISTS group_members (
		kind TINYINT NOT NULL,
		character_id BIGINT NOT NULL,
		group_id BIGINT NOT NULL,
		member_rank TINYINT NOT NULL,
		location VARCHAR(128) NOT NULL DEFAULT '',
		health_pct DOUBLE NOT NULL DEFAULT 0,
		PRIMARY KEY (kind, character_id),
		KEY idx_group_members_group (kind, group_id)
	)`,
	`CREATE TABLE IF NOT EXISTS group_updates (
		kind TINYINT NOT NULL,
		group_id BIGINT NOT NULL,
		last_update BIGINT NOT NULL,
		PRIMARY KEY (kind, group_id)
	)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS social_groups (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		kind INTEGER NOT NULL,
		name TEXT NULL,
		created_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_social_groups_kind_name ON social_groups (kind, name)`,
	`CREATE TABLE IF NOT EXISTS group_members (
		kind INTEGER NOT NULL,
		character_id INTEGER NOT NULL,
		group_id INTEGER NOT NULL,
		member_rank INTEGER NOT NULL,
		location TEXT NOT NULL DEFAULT '',
		health_pct REAL NOT NULL DEFAULT 0,
		PRIMARY KEY (kind, character_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_group_members_group ON group_members (kind, group_id)`,
	`CREATE TABLE IF NOT EXISTS group_updates (
		kind INTEGER NOT NULL,
		group_id INTEGER NOT NULL,
		last_update INTEGER NOT NULL,
		PRIMARY KEY (kind, group_id)
	)`,
}

// Bootstrap creates the tables and indexes if they do not exist. Every scene
// process runs this at startup; the statements are idempotent.
func (s *SQL) Bootstrap(ctx context.Context) error {
	schema := mysqlSchema
	if s.dialect == DialectSQLite {
		schema = sqliteSchema
	}
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap schema: %w", err)
		}
	}
	return nil
}

// CreateGroup inserts a group row. Named groups are unique per kind ignoring
// case; a conflicting name returns group.ErrNameTaken.
func (s *SQL) CreateGroup(ctx context.Context, kind group.Kind, name string) (group.Group, error) {
	if name != "" {
		var existing int64
		err := s.db.QueryRowContext(ctx,
			`SELECT id FROM social_groups WHERE kind = ? AND UPPER(name) = UPPER(?)`,
			int(kind), name).Scan(&existing)
		switch {
		case err == nil:
			return group.Group{}, group.ErrNameTaken
		case !errors.Is(err, sql.ErrNoRows):
			return group.Group{}, fmt.Errorf("check group name: %w", err)
		}
	}

	var nameArg any
	if name != "" {
		nameArg = name
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO social_groups (kind, name, created_at) VALUES (?, ?, ?)`,
		int(kind), nameArg, time.Now().UnixMicro())
	if err != nil {
		return group.Group{}, fmt.Errorf("insert group: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return group.Group{}, fmt.Errorf("insert group: %w", err)
	}
	return group.Group{ID: id, Kind: kind, Name: name}, nil
}

// DeleteGroup removes a group row.
func (s *SQL) DeleteGroup(ctx context.Context, kind group.Kind, groupID int64) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM social_groups WHERE kind = ? AND id = ?`, int(kind), groupID)
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	return nil
}

// Members returns a group's member list ordered by character ID.
func (s *SQL) Members(ctx context.Context, kind group.Kind, groupID int64) ([]group.Membership, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT group_id, character_id, member_rank, location, health_pct
		 FROM group_members WHERE kind = ? AND group_id = ? ORDER BY character_id`,
		int(kind), groupID)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	members := make([]group.Membership, 0)
	for rows.Next() {
		var m group.Membership
		var rank int
		if err := rows.Scan(&m.GroupID, &m.CharacterID, &rank, &m.Location, &m.HealthPct); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		m.Rank = group.Rank(rank)
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	return members, nil
}

// MembershipOf returns a character's membership row for this kind, or nil.
func (s *SQL) MembershipOf(ctx context.Context, kind group.Kind, characterID int64) (*group.Membership, error) {
	var m group.Membership
	var rank int
	err := s.db.QueryRowContext(ctx,
		`SELECT group_id, character_id, member_rank, location, health_pct
		 FROM group_members WHERE kind = ? AND character_id = ?`,
		int(kind), characterID).Scan(&m.GroupID, &m.CharacterID, &rank, &m.Location, &m.HealthPct)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query membership: %w", err)
	}
	m.Rank = group.Rank(rank)
	return &m, nil
}

// ExistsNotFull reports whether the group has at least one and fewer than max
// members.
func (s *SQL) ExistsNotFull(ctx context.Context, kind group.Kind, groupID int64, max int) (bool, error) {
	if groupID == 0 {
		return false, nil
	}
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM group_members WHERE kind = ? AND group_id = ?`,
		int(kind), groupID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("count members: %w", err)
	}
	return count > 0 && count < max, nil
}

// SaveMembership inserts or replaces a character's membership row.
func (s *SQL) SaveMembership(ctx context.Context, kind group.Kind, m group.Membership) error {
	var stmt string
	switch s.dialect {
	case DialectSQLite:
		stmt = `INSERT INTO group_members (kind, character_id, group_id, member_rank, location, health_pct)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (kind, character_id) DO UPDATE SET
				group_id = excluded.group_id,
				member_rank = excluded.member_rank,
				location = excluded.location,
				health_pct = excluded.health_pct`
	default:
		stmt = `INSERT INTO group_members (kind, character_id, group_id, member_rank, location, health_pct)
			VALUES (?, ?, ?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE
				group_id = VALUES(group_id),
				member_rank = VALUES(member_rank),
				location = VALUES(location),
				health_pct = VALUES(health_pct)`
	}
	_, err := s.db.ExecContext(ctx, stmt,
		int(kind), m.CharacterID, m.GroupID, int(m.Rank), m.Location, m.HealthPct)
	if err != nil {
		return fmt.Errorf("save membership: %w", err)
	}
	return nil
}

// SaveRank updates a member's rank. It reports whether the rank actually
// changed.
func (s *SQL) SaveRank(ctx context.Context, kind group.Kind, characterID, groupID int64, rank group.Rank) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE group_members SET member_rank = ?
		 WHERE kind = ? AND character_id = ? AND group_id = ? AND member_rank <> ?`,
		int(rank), int(kind), characterID, groupID, int(rank))
	if err != nil {
		return false, fmt.Errorf("save rank: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("save rank: %w", err)
	}
	return n > 0, nil
}

// DeleteMembership removes a character's membership row.
func (s *SQL) DeleteMembership(ctx context.Context, kind group.Kind, characterID int64) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM group_members WHERE kind = ? AND character_id = ?`,
		int(kind), characterID)
	if err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}
	return nil
}

// DeleteMembershipRanked removes a member only if their stored rank is
// strictly below actorRank. The rank guard lives in the statement itself so a
// concurrent promotion on another process cannot be bypassed by a stale read.
func (s *SQL) DeleteMembershipRanked(ctx context.Context, kind group.Kind, actorRank group.Rank, groupID, targetID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM group_members
		 WHERE kind = ? AND group_id = ? AND character_id = ? AND member_rank < ?`,
		int(kind), groupID, targetID, int(actorRank))
	if err != nil {
		return false, fmt.Errorf("delete member: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete member: %w", err)
	}
	return n > 0, nil
}

// FetchUpdates returns update rows for the given groups stamped at or after
// since, oldest first.
func (s *SQL) FetchUpdates(ctx context.Context, kind group.Kind, groupIDs []int64, since time.Time) ([]group.UpdateEntry, error) {
	if len(groupIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?, ", len(groupIDs)-1) + "?"
	args := make([]any, 0, len(groupIDs)+2)
	args = append(args, int(kind), since.UnixMicro())
	for _, id := range groupIDs {
		args = append(args, id)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT group_id, last_update FROM group_updates
		 WHERE kind = ? AND last_update >= ? AND group_id IN (`+placeholders+`)
		 ORDER BY last_update, group_id`, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch updates: %w", err)
	}
	defer rows.Close()

	entries := make([]group.UpdateEntry, 0)
	for rows.Next() {
		var e group.UpdateEntry
		var micros int64
		if err := rows.Scan(&e.GroupID, &micros); err != nil {
			return nil, fmt.Errorf("scan update: %w", err)
		}
		e.LastUpdate = time.UnixMicro(micros)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fetch updates: %w", err)
	}
	return entries, nil
}

// EnqueueUpdate inserts or bumps the group's update row to now.
func (s *SQL) EnqueueUpdate(ctx context.Context, kind group.Kind, groupID int64) error {
	now := time.Now().UnixMicro()
	var stmt string
	switch s.dialect {
	case DialectSQLite:
		stmt = `INSERT INTO group_updates (kind, group_id, last_update) VALUES (?, ?, ?)
			ON CONFLICT (kind, group_id) DO UPDATE SET last_update = excluded.last_update`
	default:
		stmt = `INSERT INTO group_updates (kind, group_id, last_update) VALUES (?, ?, ?)
			ON DUPLICATE KEY UPDATE last_update = VALUES(last_update)`
	}
	if _, err := s.db.ExecContext(ctx, stmt, int(kind), groupID, now); err != nil {
		return fmt.Errorf("enqueue update: %w", err)
	}
	return nil
}

// DeleteUpdates removes the group's update row.
func (s *SQL) DeleteUpdates(ctx context.Context, kind group.Kind, groupID int64) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM group_updates WHERE kind = ? AND group_id = ?`,
		int(kind), groupID)
	if err != nil {
		return fmt.Errorf("delete updates: %w", err)
	}
	return nil
}
