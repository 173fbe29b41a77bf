package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/remnanthub/platform/internal/app/domain/community"
	"github.com/remnanthub/platform/internal/app/domain/member"
)

// CommunityStore implementation -----------------------------------------------

func (s *Store) CreateCommunity(_ context.Context, c community.Community) (community.Community, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		c.ID = s.nextIDLocked()
	} else if _, exists := s.communities[c.ID]; exists {
		return community.Community{}, duplicate("community", c.ID)
	}

	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	s.communities[c.ID] = cloneCommunity(c)
	return cloneCommunity(c), nil
}

func (s *Store) UpdateCommunity(_ context.Context, c community.Community) (community.Community, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.communities[c.ID]
	if !ok {
		return community.Community{}, notFound("community", c.ID)
	}

	c.CreatedAt = original.CreatedAt
	c.UpdatedAt = time.Now().UTC()

	s.communities[c.ID] = cloneCommunity(c)
	return cloneCommunity(c), nil
}

func (s *Store) GetCommunity(_ context.Context, id string) (community.Community, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.communities[id]
	if !ok {
		return community.Community{}, notFound("community", id)
	}
	return cloneCommunity(c), nil
}

func (s *Store) ListCommunities(_ context.Context, filter community.Filter) ([]community.Community, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]community.Community, 0, len(s.communities))
	for _, c := range s.communities {
		if filter.Matches(c) {
			result = append(result, cloneCommunity(c))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		ni, nj := strings.ToLower(result[i].Name), strings.ToLower(result[j].Name)
		if ni != nj {
			return ni < nj
		}
		return idLess(result[i].ID, result[j].ID)
	})
	return result, nil
}

// DeleteCommunity removes the community and everything scoped to it.
func (s *Store) DeleteCommunity(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.communities[id]; !ok {
		return notFound("community", id)
	}
	delete(s.communities, id)

	for key, m := range s.members {
		if m.CommunityID == id {
			delete(s.members, key)
		}
	}
	for key, p := range s.prayers {
		if p.CommunityID == id {
			delete(s.prayers, key)
		}
	}
	for key, a := range s.announcements {
		if a.CommunityID == id {
			delete(s.announcements, key)
		}
	}
	for key, msg := range s.messages {
		if msg.CommunityID == id {
			delete(s.messages, key)
		}
	}
	for key, plan := range s.plans {
		if plan.CommunityID != id {
			continue
		}
		delete(s.plans, key)
		for pk, prog := range s.progress {
			if prog.PlanID == key {
				delete(s.progress, pk)
			}
		}
	}
	for key, p := range s.partnerships {
		if p.CommunityID != id {
			continue
		}
		delete(s.partnerships, key)
		for ck, ci := range s.checkIns {
			if ci.PartnershipID == key {
				delete(s.checkIns, ck)
			}
		}
	}
	for key, r := range s.reports {
		if r.CommunityID == id {
			delete(s.reports, key)
		}
	}
	for key, m := range s.multiplications {
		switch {
		case m.ParentCommunityID == id:
			delete(s.multiplications, key)
		case m.ChildCommunityID == id:
			m.ChildCommunityID = ""
			s.multiplications[key] = m
		}
	}
	for key, c := range s.communities {
		if c.ParentID == id {
			c.ParentID = ""
			s.communities[key] = c
		}
	}
	return nil
}

// MemberStore implementation --------------------------------------------------

func (s *Store) CreateMember(_ context.Context, m member.Member) (member.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.members {
		if existing.CommunityID == m.CommunityID && existing.UserID == m.UserID {
			return member.Member{}, duplicate("membership", m.CommunityID+"/"+m.UserID)
		}
	}
	if m.ID == "" {
		m.ID = s.nextIDLocked()
	}

	now := time.Now().UTC()
	m.JoinedAt = now
	m.UpdatedAt = now

	s.members[m.ID] = m
	return m, nil
}

func (s *Store) UpdateMember(_ context.Context, m member.Member) (member.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.members[m.ID]
	if !ok {
		return member.Member{}, notFound("member", m.ID)
	}

	m.CommunityID = original.CommunityID
	m.UserID = original.UserID
	if m.JoinedAt.IsZero() {
		m.JoinedAt = original.JoinedAt
	}
	m.UpdatedAt = time.Now().UTC()

	s.members[m.ID] = m
	return m, nil
}

func (s *Store) GetMember(_ context.Context, id string) (member.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.members[id]
	if !ok {
		return member.Member{}, notFound("member", id)
	}
	return m, nil
}

func (s *Store) GetMembership(_ context.Context, communityID, userID string) (member.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.members {
		if m.CommunityID == communityID && m.UserID == userID {
			return m, nil
		}
	}
	return member.Member{}, notFound("membership", communityID+"/"+userID)
}

func (s *Store) ListMembers(_ context.Context, communityID string) ([]member.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []member.Member
	for _, m := range s.members {
		if m.CommunityID == communityID {
			result = append(result, m)
		}
	}
	sortOldestFirst(result, memberKey)
	return result, nil
}

func (s *Store) ListMembershipsByUser(_ context.Context, userID string) ([]member.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []member.Member
	for _, m := range s.members {
		if m.UserID == userID {
			result = append(result, m)
		}
	}
	sortOldestFirst(result, memberKey)
	return result, nil
}

func (s *Store) CountActiveMembers(_ context.Context, communityID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, m := range s.members {
		if m.CommunityID == communityID && m.Status == member.StatusActive {
			count++
		}
	}
	return count, nil
}

func memberKey(m member.Member) (int64, string) {
	return m.JoinedAt.UnixNano(), m.ID
}

func cloneCommunity(c community.Community) community.Community {
	c.Tags = cloneStrings(c.Tags)
	c.Latitude = cloneFloat(c.Latitude)
	c.Longitude = cloneFloat(c.Longitude)
	return c
}
