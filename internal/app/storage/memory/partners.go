package memory

import (
	"context"
	"time"

	"github.com/remnanthub/platform/internal/app/domain/multiplication"
	"github.com/remnanthub/platform/internal/app/domain/partner"
)

// PartnerStore implementation -------------------------------------------------

func (s *Store) CreatePartnership(_ context.Context, p partner.Partnership) (partner.Partnership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = s.nextIDLocked()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	s.partnerships[p.ID] = p
	return p, nil
}

func (s *Store) UpdatePartnership(_ context.Context, p partner.Partnership) (partner.Partnership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.partnerships[p.ID]
	if !ok {
		return partner.Partnership{}, notFound("partnership", p.ID)
	}
	p.CreatedAt = original.CreatedAt
	p.UpdatedAt = time.Now().UTC()

	s.partnerships[p.ID] = p
	return p, nil
}

func (s *Store) GetPartnership(_ context.Context, id string) (partner.Partnership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.partnerships[id]
	if !ok {
		return partner.Partnership{}, notFound("partnership", id)
	}
	return p, nil
}

func (s *Store) ListPartnershipsForUser(_ context.Context, userID string) ([]partner.Partnership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []partner.Partnership
	for _, p := range s.partnerships {
		if p.Involves(userID) {
			result = append(result, p)
		}
	}
	sortNewestFirst(result, func(p partner.Partnership) (int64, string) { return p.CreatedAt.UnixNano(), p.ID })
	return result, nil
}

func (s *Store) CreateCheckIn(_ context.Context, c partner.CheckIn) (partner.CheckIn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.partnerships[c.PartnershipID]; !ok {
		return partner.CheckIn{}, notFound("partnership", c.PartnershipID)
	}
	if c.ID == "" {
		c.ID = s.nextIDLocked()
	}
	c.CreatedAt = time.Now().UTC()

	s.checkIns[c.ID] = c
	return c, nil
}

func (s *Store) ListCheckIns(_ context.Context, partnershipID string) ([]partner.CheckIn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []partner.CheckIn
	for _, c := range s.checkIns {
		if c.PartnershipID == partnershipID {
			result = append(result, c)
		}
	}
	sortNewestFirst(result, func(c partner.CheckIn) (int64, string) { return c.CreatedAt.UnixNano(), c.ID })
	return result, nil
}

// MultiplicationStore implementation ------------------------------------------

func (s *Store) CreateMultiplication(_ context.Context, m multiplication.Multiplication) (multiplication.Multiplication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.ID == "" {
		m.ID = s.nextIDLocked()
	}
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now

	s.multiplications[m.ID] = m
	return m, nil
}

func (s *Store) UpdateMultiplication(_ context.Context, m multiplication.Multiplication) (multiplication.Multiplication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.multiplications[m.ID]
	if !ok {
		return multiplication.Multiplication{}, notFound("multiplication", m.ID)
	}
	m.CreatedAt = original.CreatedAt
	m.UpdatedAt = time.Now().UTC()

	s.multiplications[m.ID] = m
	return m, nil
}

func (s *Store) GetMultiplication(_ context.Context, id string) (multiplication.Multiplication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.multiplications[id]
	if !ok {
		return multiplication.Multiplication{}, notFound("multiplication", id)
	}
	return m, nil
}

func (s *Store) ListMultiplications(_ context.Context, parentCommunityID string) ([]multiplication.Multiplication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []multiplication.Multiplication
	for _, m := range s.multiplications {
		if m.ParentCommunityID == parentCommunityID {
			result = append(result, m)
		}
	}
	sortNewestFirst(result, func(m multiplication.Multiplication) (int64, string) { return m.CreatedAt.UnixNano(), m.ID })
	return result, nil
}
