package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/remnanthub/platform/internal/app/domain/multiplication"
	"github.com/remnanthub/platform/internal/app/domain/partner"
)

const partnershipColumns = `id, community_id, requester_id, partner_id, status, frequency, created_at, updated_at`

// --- PartnerStore -----------------------------------------------------------

func (s *Store) CreatePartnership(ctx context.Context, p partner.Partnership) (partner.Partnership, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = now()
	p.UpdatedAt = p.CreatedAt

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO partnerships (id, community_id, requester_id, partner_id, status, frequency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, p.ID, p.CommunityID, p.RequesterID, p.PartnerID, string(p.Status), string(p.Frequency), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return partner.Partnership{}, mapErr("partnership", p.ID, err)
	}
	return p, nil
}

func (s *Store) UpdatePartnership(ctx context.Context, p partner.Partnership) (partner.Partnership, error) {
	existing, err := s.GetPartnership(ctx, p.ID)
	if err != nil {
		return partner.Partnership{}, err
	}
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = now()

	result, err := s.db.ExecContext(ctx, `
		UPDATE partnerships
		SET status = $2, frequency = $3, updated_at = $4
		WHERE id = $1
	`, p.ID, string(p.Status), string(p.Frequency), p.UpdatedAt)
	if err != nil {
		return partner.Partnership{}, err
	}
	if err := expectRow("partnership", p.ID, result); err != nil {
		return partner.Partnership{}, err
	}
	return p, nil
}

func (s *Store) GetPartnership(ctx context.Context, id string) (partner.Partnership, error) {
	var p partner.Partnership
	err := s.db.GetContext(ctx, &p, `SELECT `+partnershipColumns+` FROM partnerships WHERE id = $1`, id)
	if err != nil {
		return partner.Partnership{}, mapErr("partnership", id, err)
	}
	return p, nil
}

func (s *Store) ListPartnershipsForUser(ctx context.Context, userID string) ([]partner.Partnership, error) {
	var result []partner.Partnership
	err := s.db.SelectContext(ctx, &result, `
		SELECT `+partnershipColumns+` FROM partnerships
		WHERE requester_id = $1 OR partner_id = $1
		ORDER BY created_at DESC, id DESC
	`, userID)
	return result, err
}

func (s *Store) CreateCheckIn(ctx context.Context, c partner.CheckIn) (partner.CheckIn, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = now()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO partner_checkins (id, partnership_id, author_id, note, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, c.ID, c.PartnershipID, c.AuthorID, c.Note, c.CreatedAt)
	if err != nil {
		return partner.CheckIn{}, mapErr("check-in", c.ID, err)
	}
	return c, nil
}

func (s *Store) ListCheckIns(ctx context.Context, partnershipID string) ([]partner.CheckIn, error) {
	var result []partner.CheckIn
	err := s.db.SelectContext(ctx, &result, `
		SELECT id, partnership_id, author_id, note, created_at
		FROM partner_checkins
		WHERE partnership_id = $1
		ORDER BY created_at DESC, id DESC
	`, partnershipID)
	return result, err
}

// --- MultiplicationStore ----------------------------------------------------

const multiplicationColumns = `id, parent_community_id, COALESCE(child_community_id, '') AS child_community_id,
	apprentice_leader_id, stage, target_date, notes, created_at, updated_at`

func (s *Store) CreateMultiplication(ctx context.Context, m multiplication.Multiplication) (multiplication.Multiplication, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.CreatedAt = now()
	m.UpdatedAt = m.CreatedAt

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO multiplications (id, parent_community_id, child_community_id, apprentice_leader_id,
			stage, target_date, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, m.ID, m.ParentCommunityID, nullString(m.ChildCommunityID), m.ApprenticeLeaderID,
		string(m.Stage), m.TargetDate, m.Notes, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return multiplication.Multiplication{}, mapErr("multiplication", m.ID, err)
	}
	return m, nil
}

func (s *Store) UpdateMultiplication(ctx context.Context, m multiplication.Multiplication) (multiplication.Multiplication, error) {
	existing, err := s.GetMultiplication(ctx, m.ID)
	if err != nil {
		return multiplication.Multiplication{}, err
	}
	m.CreatedAt = existing.CreatedAt
	m.UpdatedAt = now()

	result, err := s.db.ExecContext(ctx, `
		UPDATE multiplications
		SET child_community_id = $2, apprentice_leader_id = $3, stage = $4,
			target_date = $5, notes = $6, updated_at = $7
		WHERE id = $1
	`, m.ID, nullString(m.ChildCommunityID), m.ApprenticeLeaderID, string(m.Stage), m.TargetDate, m.Notes, m.UpdatedAt)
	if err != nil {
		return multiplication.Multiplication{}, err
	}
	if err := expectRow("multiplication", m.ID, result); err != nil {
		return multiplication.Multiplication{}, err
	}
	return m, nil
}

func (s *Store) GetMultiplication(ctx context.Context, id string) (multiplication.Multiplication, error) {
	var m multiplication.Multiplication
	err := s.db.GetContext(ctx, &m, `SELECT `+multiplicationColumns+` FROM multiplications WHERE id = $1`, id)
	if err != nil {
		return multiplication.Multiplication{}, mapErr("multiplication", id, err)
	}
	return m, nil
}

func (s *Store) ListMultiplications(ctx context.Context, parentCommunityID string) ([]multiplication.Multiplication, error) {
	var result []multiplication.Multiplication
	err := s.db.SelectContext(ctx, &result, `
		SELECT `+multiplicationColumns+` FROM multiplications
		WHERE parent_community_id = $1
		ORDER BY created_at DESC, id DESC
	`, parentCommunityID)
	return result, err
}
