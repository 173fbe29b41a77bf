package communities

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/remnanthub/platform/internal/app/domain/community"
	"github.com/remnanthub/platform/internal/app/domain/member"
	"github.com/remnanthub/platform/internal/app/services/access"
	"github.com/remnanthub/platform/internal/app/storage"
	"github.com/remnanthub/platform/internal/cache"
	apperrors "github.com/remnanthub/platform/internal/errors"
	"github.com/remnanthub/platform/pkg/geo"
	"github.com/remnanthub/platform/pkg/logger"
)

const (
	maxNameLength        = 120
	maxDescriptionLength = 4000
	maxTags              = 12
)

var weekdays = map[string]string{
	"sunday": "Sunday", "monday": "Monday", "tuesday": "Tuesday", "wednesday": "Wednesday",
	"thursday": "Thursday", "friday": "Friday", "saturday": "Saturday",
}

// Draft is the input collected by the community creation wizard.
type Draft struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Address     string   `json:"address"`
	City        string   `json:"city"`
	Region      string   `json:"region"`
	Country     string   `json:"country"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	MeetingDay  string   `json:"meeting_day"`
	MeetingTime string   `json:"meeting_time"`
	MaxMembers  int      `json:"max_members"`
	IsPublic    bool     `json:"is_public"`
	Tags        []string `json:"tags"`
}

// Patch carries the fields a leader may edit. Nil fields are left unchanged.
type Patch struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Address     *string  `json:"address,omitempty"`
	City        *string  `json:"city,omitempty"`
	Region      *string  `json:"region,omitempty"`
	Country     *string  `json:"country,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	MeetingDay  *string  `json:"meeting_day,omitempty"`
	MeetingTime *string  `json:"meeting_time,omitempty"`
	MaxMembers  *int     `json:"max_members,omitempty"`
	IsPublic    *bool    `json:"is_public,omitempty"`
	Tags        []string `json:"tags"`
	ClearCoords bool     `json:"clear_coordinates,omitempty"`
}

// Service manages community listings.
type Service struct {
	store   storage.CommunityStore
	members storage.MemberStore
	access  *access.Checker
	cache   *cache.Namespace
	log     *logger.Logger
}

// New constructs a community service.
func New(store storage.CommunityStore, members storage.MemberStore, checker *access.Checker, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("communities")
	}
	return &Service{
		store:   store,
		members: members,
		access:  checker,
		log:     log,
	}
}

// WithCache enables caching of directory reads.
func (s *Service) WithCache(ns *cache.Namespace) {
	s.cache = ns
}

// Create registers a new community led by leaderID.
func (s *Service) Create(ctx context.Context, leaderID string, draft Draft) (community.Community, error) {
	leaderID = strings.TrimSpace(leaderID)
	if leaderID == "" {
		return community.Community{}, apperrors.Required("leader_id")
	}

	c := community.Community{
		LeaderID:   leaderID,
		TrustLevel: community.TrustNew,
		IsPublic:   draft.IsPublic,
	}
	if err := applyDraft(&c, draft); err != nil {
		return community.Community{}, err
	}

	c, err := s.store.CreateCommunity(ctx, c)
	if err != nil {
		return community.Community{}, err
	}

	if _, err := s.members.CreateMember(ctx, member.Member{
		CommunityID: c.ID,
		UserID:      leaderID,
		Role:        member.RoleLeader,
		Status:      member.StatusActive,
	}); err != nil {
		if delErr := s.store.DeleteCommunity(ctx, c.ID); delErr != nil {
			s.log.WithError(delErr).WithField("community_id", c.ID).Warn("rollback of community failed")
		}
		return community.Community{}, fmt.Errorf("create leader membership: %w", err)
	}

	s.invalidate(ctx)
	s.log.WithField("community_id", c.ID).
		WithField("leader_id", leaderID).
		WithField("name", c.Name).
		Info("community created")
	return c, nil
}

// Get returns a community by id. Private communities are reported as missing
// to viewers who are neither staff nor connected to them.
func (s *Service) Get(ctx context.Context, viewerID, id string) (community.Community, error) {
	var c community.Community
	if !s.cacheGet(ctx, "get:"+id, &c) {
		var err error
		if c, err = s.access.Community(ctx, id); err != nil {
			return community.Community{}, err
		}
		s.cacheSet(ctx, "get:"+id, c)
	}
	ok, err := s.access.CanView(ctx, c, viewerID)
	if err != nil {
		return community.Community{}, err
	}
	if !ok {
		return community.Community{}, apperrors.NotFound("community", id)
	}
	return c, nil
}

// Update applies a patch. Only the leader or a platform admin may edit.
func (s *Service) Update(ctx context.Context, actorID, id string, patch Patch) (community.Community, error) {
	c, err := s.access.RequireLeader(ctx, id, actorID)
	if err != nil {
		return community.Community{}, err
	}

	draft := draftFrom(c)
	if patch.Name != nil {
		draft.Name = *patch.Name
	}
	if patch.Description != nil {
		draft.Description = *patch.Description
	}
	if patch.Address != nil {
		draft.Address = *patch.Address
	}
	if patch.City != nil {
		draft.City = *patch.City
	}
	if patch.Region != nil {
		draft.Region = *patch.Region
	}
	if patch.Country != nil {
		draft.Country = *patch.Country
	}
	if patch.ClearCoords {
		draft.Latitude, draft.Longitude = nil, nil
	}
	if patch.Latitude != nil || patch.Longitude != nil {
		draft.Latitude, draft.Longitude = patch.Latitude, patch.Longitude
	}
	if patch.MeetingDay != nil {
		draft.MeetingDay = *patch.MeetingDay
	}
	if patch.MeetingTime != nil {
		draft.MeetingTime = *patch.MeetingTime
	}
	if patch.MaxMembers != nil {
		draft.MaxMembers = *patch.MaxMembers
	}
	if patch.Tags != nil {
		draft.Tags = patch.Tags
	}
	if patch.IsPublic != nil {
		c.IsPublic = *patch.IsPublic
	}

	if err := applyDraft(&c, draft); err != nil {
		return community.Community{}, err
	}
	c, err = s.store.UpdateCommunity(ctx, c)
	if err != nil {
		return community.Community{}, access.Translate(err, "community", id)
	}

	s.invalidate(ctx)
	s.log.WithField("community_id", c.ID).
		WithField("actor_id", actorID).
		Info("community updated")
	return c, nil
}

// Delete removes a community. Only the leader or a platform admin may delete.
func (s *Service) Delete(ctx context.Context, actorID, id string) error {
	if _, err := s.access.RequireLeader(ctx, id, actorID); err != nil {
		return err
	}
	if err := s.store.DeleteCommunity(ctx, id); err != nil {
		return access.Translate(err, "community", id)
	}
	s.invalidate(ctx)
	s.log.WithField("community_id", id).
		WithField("actor_id", actorID).
		Info("community deleted")
	return nil
}

// List returns communities matching the filter, ordered by name.
func (s *Service) List(ctx context.Context, filter community.Filter) ([]community.Community, error) {
	key := fmt.Sprintf("list:%s|%s|%s|%s|%s|%s|%t",
		strings.ToLower(strings.TrimSpace(filter.Query)), strings.ToLower(filter.City),
		strings.ToLower(filter.MeetingDay), filter.TrustLevel, strings.ToLower(filter.Tag),
		filter.ParentID, filter.PublicOnly)

	var cached []community.Community
	if s.cacheGet(ctx, key, &cached) {
		return cached, nil
	}
	list, err := s.store.ListCommunities(ctx, filter)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, key, list)
	return list, nil
}

// Search is the directory search used by the discovery screen.
func (s *Service) Search(ctx context.Context, filter community.Filter) ([]community.Community, error) {
	return s.List(ctx, filter)
}

// Nearby returns public communities within radiusKm, closest first.
func (s *Service) Nearby(ctx context.Context, lat, lng, radiusKm float64) ([]community.Nearby, error) {
	if !geo.ValidCoordinates(lat, lng) {
		return nil, apperrors.Validation("latitude/longitude out of range")
	}
	if radiusKm <= 0 {
		return nil, apperrors.Validation("radius_km must be positive")
	}

	all, err := s.List(ctx, community.Filter{PublicOnly: true})
	if err != nil {
		return nil, err
	}

	var result []community.Nearby
	for _, c := range all {
		if !c.HasLocation() {
			continue
		}
		d := geo.Haversine(lat, lng, *c.Latitude, *c.Longitude)
		if d <= radiusKm {
			result = append(result, community.Nearby{Community: c, DistanceKm: d})
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].DistanceKm < result[j].DistanceKm })
	return result, nil
}

// SetTrustLevel assigns a staff trust label.
func (s *Service) SetTrustLevel(ctx context.Context, actorID, id string, level community.TrustLevel) (community.Community, error) {
	if err := s.access.RequireAdmin(actorID); err != nil {
		return community.Community{}, err
	}
	if !level.Valid() {
		return community.Community{}, apperrors.Validation("unknown trust level %q", level)
	}
	c, err := s.access.Community(ctx, id)
	if err != nil {
		return community.Community{}, err
	}
	if c.TrustLevel == level {
		return c, nil
	}
	c.TrustLevel = level
	c, err = s.store.UpdateCommunity(ctx, c)
	if err != nil {
		return community.Community{}, access.Translate(err, "community", id)
	}

	s.invalidate(ctx)
	s.log.WithField("community_id", id).
		WithField("trust_level", level).
		WithField("actor_id", actorID).
		Info("community trust level changed")
	return c, nil
}

// SetParent links a community to the one it was multiplied from.
func (s *Service) SetParent(ctx context.Context, id, parentID string) (community.Community, error) {
	c, err := s.access.Community(ctx, id)
	if err != nil {
		return community.Community{}, err
	}
	if id == parentID {
		return community.Community{}, apperrors.Validation("a community cannot be its own parent")
	}
	c.ParentID = parentID
	c, err = s.store.UpdateCommunity(ctx, c)
	if err != nil {
		return community.Community{}, access.Translate(err, "community", id)
	}
	s.invalidate(ctx)
	return c, nil
}

func (s *Service) cacheGet(ctx context.Context, key string, dst any) bool {
	if s.cache == nil {
		return false
	}
	ok, err := s.cache.GetJSON(ctx, key, dst)
	if err != nil {
		s.log.WithError(err).WithField("key", key).Warn("community cache read failed")
		return false
	}
	return ok
}

func (s *Service) cacheSet(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetJSON(ctx, key, value); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("community cache write failed")
	}
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.WithError(err).Warn("community cache invalidation failed")
	}
}

func draftFrom(c community.Community) Draft {
	return Draft{
		Name:        c.Name,
		Description: c.Description,
		Address:     c.Address,
		City:        c.City,
		Region:      c.Region,
		Country:     c.Country,
		Latitude:    c.Latitude,
		Longitude:   c.Longitude,
		MeetingDay:  c.MeetingDay,
		MeetingTime: c.MeetingTime,
		MaxMembers:  c.MaxMembers,
		IsPublic:    c.IsPublic,
		Tags:        c.Tags,
	}
}

// applyDraft validates wizard input and copies it onto c.
func applyDraft(c *community.Community, d Draft) error {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return apperrors.Required("name")
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return apperrors.Validation("name must be at most %d characters", maxNameLength)
	}
	description := strings.TrimSpace(d.Description)
	if utf8.RuneCountInString(description) > maxDescriptionLength {
		return apperrors.Validation("description must be at most %d characters", maxDescriptionLength)
	}

	meetingDay := strings.TrimSpace(d.MeetingDay)
	if meetingDay != "" {
		canonical, ok := weekdays[strings.ToLower(meetingDay)]
		if !ok {
			return apperrors.Validation("meeting_day must be a day of the week")
		}
		meetingDay = canonical
	}
	meetingTime := strings.TrimSpace(d.MeetingTime)
	if meetingTime != "" {
		if _, err := time.Parse("15:04", meetingTime); err != nil {
			return apperrors.Validation("meeting_time must be HH:MM")
		}
	}

	if (d.Latitude == nil) != (d.Longitude == nil) {
		return apperrors.Validation("latitude and longitude must be provided together")
	}
	if d.Latitude != nil && !geo.ValidCoordinates(*d.Latitude, *d.Longitude) {
		return apperrors.Validation("latitude/longitude out of range")
	}
	if d.MaxMembers < 0 {
		return apperrors.Validation("max_members cannot be negative")
	}

	tags := normalizeTags(d.Tags)
	if len(tags) > maxTags {
		return apperrors.Validation("at most %d tags allowed", maxTags)
	}

	c.Name = name
	c.Description = description
	c.Address = strings.TrimSpace(d.Address)
	c.City = strings.TrimSpace(d.City)
	c.Region = strings.TrimSpace(d.Region)
	c.Country = strings.TrimSpace(d.Country)
	c.Latitude = d.Latitude
	c.Longitude = d.Longitude
	c.MeetingDay = meetingDay
	c.MeetingTime = meetingTime
	c.MaxMembers = d.MaxMembers
	c.Tags = tags
	return nil
}

func normalizeTags(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, tag := range in {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
