package postgres

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/remnanthub/platform/internal/app/domain/community"
	"github.com/remnanthub/platform/internal/app/domain/member"
)

type communityRow struct {
	community.Community
	TagsRaw []byte `db:"tags"`
}

func (r communityRow) toDomain() community.Community {
	c := r.Community
	unmarshalJSON(r.TagsRaw, &c.Tags)
	if c.Tags == nil {
		c.Tags = []string{}
	}
	return c
}

const communityColumns = `
	id, name, description, leader_id, address, city, region, country,
	latitude, longitude, meeting_day, meeting_time, max_members, is_public,
	tags, trust_level, COALESCE(parent_id, '') AS parent_id, created_at, updated_at`

// --- CommunityStore ---------------------------------------------------------

func (s *Store) CreateCommunity(ctx context.Context, c community.Community) (community.Community, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = now()
	c.UpdatedAt = c.CreatedAt

	tags, err := marshalJSON(c.Tags, "[]")
	if err != nil {
		return community.Community{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO communities (
			id, name, description, leader_id, address, city, region, country,
			latitude, longitude, meeting_day, meeting_time, max_members, is_public,
			tags, trust_level, parent_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`, c.ID, c.Name, c.Description, c.LeaderID, c.Address, c.City, c.Region, c.Country,
		c.Latitude, c.Longitude, c.MeetingDay, c.MeetingTime, c.MaxMembers, c.IsPublic,
		tags, string(c.TrustLevel), nullString(c.ParentID), c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return community.Community{}, mapErr("community", c.ID, err)
	}
	return c, nil
}

func (s *Store) UpdateCommunity(ctx context.Context, c community.Community) (community.Community, error) {
	existing, err := s.GetCommunity(ctx, c.ID)
	if err != nil {
		return community.Community{}, err
	}
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = now()

	tags, err := marshalJSON(c.Tags, "[]")
	if err != nil {
		return community.Community{}, err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE communities
		SET name = $2, description = $3, leader_id = $4, address = $5, city = $6,
			region = $7, country = $8, latitude = $9, longitude = $10, meeting_day = $11,
			meeting_time = $12, max_members = $13, is_public = $14, tags = $15,
			trust_level = $16, parent_id = $17, updated_at = $18
		WHERE id = $1
	`, c.ID, c.Name, c.Description, c.LeaderID, c.Address, c.City,
		c.Region, c.Country, c.Latitude, c.Longitude, c.MeetingDay,
		c.MeetingTime, c.MaxMembers, c.IsPublic, tags,
		string(c.TrustLevel), nullString(c.ParentID), c.UpdatedAt)
	if err != nil {
		return community.Community{}, err
	}
	if err := expectRow("community", c.ID, result); err != nil {
		return community.Community{}, err
	}
	return c, nil
}

func (s *Store) GetCommunity(ctx context.Context, id string) (community.Community, error) {
	var row communityRow
	err := s.db.GetContext(ctx, &row, `SELECT `+communityColumns+` FROM communities WHERE id = $1`, id)
	if err != nil {
		return community.Community{}, mapErr("community", id, err)
	}
	return row.toDomain(), nil
}

// ListCommunities narrows on the exact-match columns in SQL and applies the
// substring query over the fetched rows.
func (s *Store) ListCommunities(ctx context.Context, filter community.Filter) ([]community.Community, error) {
	var (
		clauses []string
		args    []any
	)
	add := func(clause string, arg any) {
		args = append(args, arg)
		clauses = append(clauses, strings.Replace(clause, "?", "$"+strconv.Itoa(len(args)), 1))
	}
	if filter.PublicOnly {
		clauses = append(clauses, "is_public")
	}
	if filter.City != "" {
		add("lower(city) = lower(?)", filter.City)
	}
	if filter.MeetingDay != "" {
		add("lower(meeting_day) = lower(?)", filter.MeetingDay)
	}
	if filter.TrustLevel != "" {
		add("trust_level = ?", string(filter.TrustLevel))
	}
	if filter.ParentID != "" {
		add("parent_id = ?", filter.ParentID)
	}

	query := `SELECT ` + communityColumns + ` FROM communities`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY lower(name), id"

	var rows []communityRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	result := make([]community.Community, 0, len(rows))
	for _, row := range rows {
		c := row.toDomain()
		if filter.Matches(c) {
			result = append(result, c)
		}
	}
	return result, nil
}

func (s *Store) DeleteCommunity(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM communities WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectRow("community", id, result)
}

// --- MemberStore ------------------------------------------------------------

const memberColumns = `id, community_id, user_id, role, status, joined_at, updated_at`

func (s *Store) CreateMember(ctx context.Context, m member.Member) (member.Member, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.JoinedAt = now()
	m.UpdatedAt = m.JoinedAt

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO members (id, community_id, user_id, role, status, joined_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, m.ID, m.CommunityID, m.UserID, string(m.Role), string(m.Status), m.JoinedAt, m.UpdatedAt)
	if err != nil {
		return member.Member{}, mapErr("membership", m.CommunityID+"/"+m.UserID, err)
	}
	return m, nil
}

func (s *Store) UpdateMember(ctx context.Context, m member.Member) (member.Member, error) {
	existing, err := s.GetMember(ctx, m.ID)
	if err != nil {
		return member.Member{}, err
	}
	m.CommunityID = existing.CommunityID
	m.UserID = existing.UserID
	if m.JoinedAt.IsZero() {
		m.JoinedAt = existing.JoinedAt
	}
	m.UpdatedAt = now()

	result, err := s.db.ExecContext(ctx, `
		UPDATE members
		SET role = $2, status = $3, joined_at = $4, updated_at = $5
		WHERE id = $1
	`, m.ID, string(m.Role), string(m.Status), m.JoinedAt, m.UpdatedAt)
	if err != nil {
		return member.Member{}, err
	}
	if err := expectRow("member", m.ID, result); err != nil {
		return member.Member{}, err
	}
	return m, nil
}

func (s *Store) GetMember(ctx context.Context, id string) (member.Member, error) {
	var m member.Member
	err := s.db.GetContext(ctx, &m, `SELECT `+memberColumns+` FROM members WHERE id = $1`, id)
	if err != nil {
		return member.Member{}, mapErr("member", id, err)
	}
	return m, nil
}

func (s *Store) GetMembership(ctx context.Context, communityID, userID string) (member.Member, error) {
	var m member.Member
	err := s.db.GetContext(ctx, &m, `
		SELECT `+memberColumns+` FROM members
		WHERE community_id = $1 AND user_id = $2
	`, communityID, userID)
	if err != nil {
		return member.Member{}, mapErr("membership", communityID+"/"+userID, err)
	}
	return m, nil
}

func (s *Store) ListMembers(ctx context.Context, communityID string) ([]member.Member, error) {
	var result []member.Member
	err := s.db.SelectContext(ctx, &result, `
		SELECT `+memberColumns+` FROM members
		WHERE community_id = $1
		ORDER BY joined_at, id
	`, communityID)
	return result, err
}

func (s *Store) ListMembershipsByUser(ctx context.Context, userID string) ([]member.Member, error) {
	var result []member.Member
	err := s.db.SelectContext(ctx, &result, `
		SELECT `+memberColumns+` FROM members
		WHERE user_id = $1
		ORDER BY joined_at, id
	`, userID)
	return result, err
}

func (s *Store) CountActiveMembers(ctx context.Context, communityID string) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM members WHERE community_id = $1 AND status = $2
	`, communityID, string(member.StatusActive))
	return count, err
}
