package service

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/yatube/internal/cache"
	"github.com/yatube/internal/db"
	"gorm.io/gorm"
)

const (
	groupTitleMaxLength = 200
	groupSlugMaxLength  = 25

	groupChoicesCacheKey = "groups:all"
)

var slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

// GroupService wraps group related operations. The full group list used by
// post forms is cached when a cache is configured.
type GroupService struct {
	db    *gorm.DB
	cache *cache.Cache
}

// GroupInput represents fields accepted when creating or updating a group.
type GroupInput struct {
	Title       string
	Slug        string
	Description string
}

// GroupFilter narrows the admin group list.
type GroupFilter struct {
	Search string
	Title  string
	Slug   string
}

// NewGroupService creates a GroupService; c may be nil.
func NewGroupService(gdb *gorm.DB, c *cache.Cache) *GroupService {
	return &GroupService{db: gdb, cache: c}
}

// All returns every group ordered by title, used as form choices.
func (s *GroupService) All(ctx context.Context) ([]db.Group, error) {
	var groups []db.Group
	err := s.cache.Remember(ctx, groupChoicesCacheKey, &groups, func() error {
		return s.db.WithContext(ctx).Order("title asc").Order("id asc").Find(&groups).Error
	})
	if err != nil {
		return nil, err
	}
	return groups, nil
}

// List returns groups matching the admin filters.
func (s *GroupService) List(filter GroupFilter) ([]db.Group, error) {
	query := s.db.Model(&db.Group{})

	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where("title LIKE ?", "%"+search+"%")
	}
	if title := strings.TrimSpace(filter.Title); title != "" {
		query = query.Where("title = ?", title)
	}
	if slug := strings.TrimSpace(filter.Slug); slug != "" {
		query = query.Where("slug = ?", slug)
	}

	var groups []db.Group
	if err := query.Order("title asc").Order("id asc").Find(&groups).Error; err != nil {
		return nil, err
	}
	return groups, nil
}

// Get fetches a group by id.
func (s *GroupService) Get(id uint) (*db.Group, error) {
	var group db.Group
	if err := s.db.First(&group, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	return &group, nil
}

// GetBySlug fetches a group by its unique slug.
func (s *GroupService) GetBySlug(slug string) (*db.Group, error) {
	var group db.Group
	if err := s.db.Where("slug = ?", strings.TrimSpace(slug)).First(&group).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	return &group, nil
}

// Create inserts a new group with a unique slug.
func (s *GroupService) Create(ctx context.Context, input GroupInput) (*db.Group, error) {
	group := db.Group{}
	if err := s.apply(&group, input, 0); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(&group).Error; err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return &group, nil
}

// Update changes a group while keeping its slug unique.
func (s *GroupService) Update(ctx context.Context, id uint, input GroupInput) (*db.Group, error) {
	group, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if err := s.apply(group, input, id); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Save(group).Error; err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return group, nil
}

// Delete removes a group. Posts of the group stay, with their group cleared.
func (s *GroupService) Delete(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&db.Post{}).Where("group_id = ?", id).Update("group_id", nil).Error; err != nil {
			return err
		}

		result := tx.Delete(&db.Group{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrGroupNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx)
	return nil
}

// PostCount returns the number of posts in the group.
func (s *GroupService) PostCount(id uint) (int64, error) {
	var count int64
	if err := s.db.Model(&db.Post{}).Where("group_id = ?", id).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (s *GroupService) apply(group *db.Group, input GroupInput, selfID uint) error {
	errs := FieldErrors{}

	title := strings.TrimSpace(input.Title)
	slug := strings.TrimSpace(input.Slug)
	description := strings.TrimSpace(input.Description)

	switch {
	case title == "":
		errs["title"] = MsgRequired
	case utf8.RuneCountInString(title) > groupTitleMaxLength:
		errs["title"] = MaxLengthMessage(groupTitleMaxLength)
	}

	switch {
	case slug == "":
		errs["slug"] = MsgRequired
	case utf8.RuneCountInString(slug) > groupSlugMaxLength:
		errs["slug"] = MaxLengthMessage(groupSlugMaxLength)
	case !slugPattern.MatchString(slug):
		errs["slug"] = MsgSlugInvalid
	default:
		var existing int64
		if err := s.db.Model(&db.Group{}).Where("slug = ? AND id <> ?", slug, selfID).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			errs["slug"] = MsgSlugTaken
		}
	}

	if description == "" {
		errs["description"] = MsgRequired
	}

	if err := errs.orNil(); err != nil {
		return err
	}

	group.Title = title
	group.Slug = slug
	group.Description = description
	return nil
}

func (s *GroupService) invalidate(ctx context.Context) {
	if err := s.cache.Delete(ctx, groupChoicesCacheKey); err != nil {
		slog.WarnContext(ctx, "failed to invalidate group cache", slog.String("error", err.Error()))
	}
}
