package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jonathan/skill-recommender/internal/types"
)

const (
	skillsQuery = `SELECT skill_id, name FROM "Skills" ORDER BY skill_id`

	certificatesQuery = `SELECT certificate_id, certificate_name, COALESCE(certificate_desc, ''),
		provider, COALESCE(certificate_estimated_time, ''), COALESCE(certificate_level, '')
		FROM "Certificates" ORDER BY certificate_id`

	certificateSkillsQuery = `SELECT certificate_id, skill_id FROM "Certificate_Skills" ORDER BY certificate_id, skill_id`

	positionsQuery = `SELECT position_id, COALESCE(position_name, ''), COALESCE(position_desc, '')
		FROM "Project_Positions" ORDER BY position_id`

	positionSkillsQuery = `SELECT position_id, skill_id FROM "Project_Position_Skills" ORDER BY position_id, skill_id`
)

// ItemSkill links one catalog item to one skill.
type ItemSkill struct {
	ItemID  int64
	SkillID int64
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Skills returns the skill vocabulary.
func (db *DB) Skills(ctx context.Context) ([]types.Skill, error) {
	return querySkills(ctx, db.pool)
}

func querySkills(ctx context.Context, q querier) ([]types.Skill, error) {
	rows, err := q.Query(ctx, skillsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query skills: %w", err)
	}
	defer rows.Close()

	var skills []types.Skill
	for rows.Next() {
		var s types.Skill
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, fmt.Errorf("failed to scan skill: %w", err)
		}
		skills = append(skills, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating skills: %w", err)
	}
	return skills, nil
}

// LoadCatalog reads one item kind with its skill links and the skill
// vocabulary, all inside one read-only transaction so the three reads agree.
func (db *DB) LoadCatalog(ctx context.Context, kind types.ItemKind) (*types.Catalog, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown item kind %q", kind)
	}

	tx, err := db.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly, IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return nil, fmt.Errorf("failed to begin catalog transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var items []types.Item
	var links []ItemSkill
	switch kind {
	case types.KindCertificates:
		items, err = queryCertificates(ctx, tx)
		if err == nil {
			links, err = queryLinks(ctx, tx, certificateSkillsQuery)
		}
	case types.KindPositions:
		items, err = queryPositions(ctx, tx)
		if err == nil {
			links, err = queryLinks(ctx, tx, positionSkillsQuery)
		}
	}
	if err != nil {
		return nil, err
	}

	skills, err := querySkills(ctx, tx)
	if err != nil {
		return nil, err
	}

	return &types.Catalog{Kind: kind, Items: AttachSkills(items, links), Skills: skills}, nil
}

func queryCertificates(ctx context.Context, tx querier) ([]types.Item, error) {
	rows, err := tx.Query(ctx, certificatesQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query certificates: %w", err)
	}
	defer rows.Close()

	var items []types.Item
	for rows.Next() {
		var it types.Item
		if err := rows.Scan(&it.ID, &it.Name, &it.Description, &it.Provider, &it.EstimatedTime, &it.Level); err != nil {
			return nil, fmt.Errorf("failed to scan certificate: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating certificates: %w", err)
	}
	return items, nil
}

func queryPositions(ctx context.Context, tx querier) ([]types.Item, error) {
	rows, err := tx.Query(ctx, positionsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	var items []types.Item
	for rows.Next() {
		var it types.Item
		if err := rows.Scan(&it.ID, &it.Name, &it.Description); err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating positions: %w", err)
	}
	return items, nil
}

func queryLinks(ctx context.Context, tx querier, query string) ([]ItemSkill, error) {
	rows, err := tx.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query item skills: %w", err)
	}
	defer rows.Close()

	var links []ItemSkill
	for rows.Next() {
		var l ItemSkill
		if err := rows.Scan(&l.ItemID, &l.SkillID); err != nil {
			return nil, fmt.Errorf("failed to scan item skill: %w", err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating item skills: %w", err)
	}
	return links, nil
}

// AttachSkills sets the SkillIDs of every item from links, keeping link order
// and dropping duplicate links. Links to unknown items are ignored.
func AttachSkills(items []types.Item, links []ItemSkill) []types.Item {
	pos := make(map[int64]int, len(items))
	for i := range items {
		pos[items[i].ID] = i
		items[i].SkillIDs = nil
	}
	seen := make(map[ItemSkill]struct{}, len(links))
	for _, l := range links {
		i, ok := pos[l.ItemID]
		if !ok {
			continue
		}
		if _, dup := seen[l]; dup {
			continue
		}
		seen[l] = struct{}{}
		items[i].SkillIDs = append(items[i].SkillIDs, l.SkillID)
	}
	return items
}
