package service

import (
	"errors"
	"strings"
	"time"

	"github.com/yatube/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostService wraps post related database operations.
type PostService struct {
	db        *gorm.DB
	paginator Paginator
}

// PostFilter describes filters for listing posts.
type PostFilter struct {
	GroupID  uint
	AuthorID uint
	Search   string
	Since    *time.Time
}

// PostInput represents fields accepted when creating or updating a post.
type PostInput struct {
	Text     string
	GroupID  *uint
	AuthorID uint
}

// NewPostService creates a PostService with the given page size.
func NewPostService(gdb *gorm.DB, perPage int) *PostService {
	return &PostService{db: gdb, paginator: NewPaginator(perPage)}
}

// PerPage reports the configured page size.
func (s *PostService) PerPage() int {
	return s.paginator.PerPage
}

// List returns one page of posts, newest first, with author and group preloaded.
func (s *PostService) List(filter PostFilter, pageNumber int) (*Page[db.Post], error) {
	var total int64
	if err := s.applyFilters(s.db.Model(&db.Post{}), filter).Count(&total).Error; err != nil {
		return nil, err
	}

	number, numPages, offset := s.paginator.Resolve(pageNumber, total)

	posts := make([]db.Post, 0, s.paginator.PerPage)
	if total > 0 {
		query := s.applyFilters(s.db.Model(&db.Post{}), filter).
			Preload("Author").
			Preload("Group").
			Order(db.DefaultPostOrder).
			Limit(s.paginator.PerPage).
			Offset(offset)
		if err := query.Find(&posts).Error; err != nil {
			return nil, err
		}
	}

	return &Page[db.Post]{
		Items:    posts,
		Number:   number,
		NumPages: numPages,
		Count:    total,
		PerPage:  s.paginator.PerPage,
	}, nil
}

// Get fetches a post by id with author and group preloaded.
func (s *PostService) Get(id uint) (*db.Post, error) {
	var post db.Post
	if err := s.db.Preload("Author").Preload("Group").First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

// Create validates and persists a new post.
func (s *PostService) Create(input PostInput) (*db.Post, error) {
	text, err := s.validate(input)
	if err != nil {
		return nil, err
	}
	if input.AuthorID == 0 {
		return nil, errors.New("post author is required")
	}

	post := db.Post{
		Text:     text,
		AuthorID: input.AuthorID,
		GroupID:  normalizeGroupID(input.GroupID),
	}
	if err := s.db.Omit(clause.Associations).Create(&post).Error; err != nil {
		return nil, err
	}

	return s.Get(post.ID)
}

// Update changes the text and group of a post. Author and pub date are immutable.
func (s *PostService) Update(id uint, input PostInput) (*db.Post, error) {
	text, err := s.validate(input)
	if err != nil {
		return nil, err
	}

	result := s.db.Model(&db.Post{}).
		Where("id = ?", id).
		Select("text", "group_id").
		Updates(map[string]interface{}{
			"text":     text,
			"group_id": normalizeGroupID(input.GroupID),
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrPostNotFound
	}

	return s.Get(id)
}

// SetGroup reassigns the group of a single post; nil clears it.
func (s *PostService) SetGroup(id uint, groupID *uint) error {
	groupID = normalizeGroupID(groupID)
	if groupID != nil {
		if err := s.ensureGroup(*groupID); err != nil {
			return err
		}
	}

	result := s.db.Model(&db.Post{}).Where("id = ?", id).Update("group_id", groupID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}

// Delete removes a post by id.
func (s *PostService) Delete(id uint) error {
	result := s.db.Delete(&db.Post{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}

// Count returns the total number of posts.
func (s *PostService) Count() (int64, error) {
	var count int64
	if err := s.db.Model(&db.Post{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByAuthor returns how many posts the user has written.
func (s *PostService) CountByAuthor(authorID uint) (int64, error) {
	var count int64
	if err := s.db.Model(&db.Post{}).Where("author_id = ?", authorID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (s *PostService) validate(input PostInput) (string, error) {
	errs := FieldErrors{}

	text := strings.TrimSpace(input.Text)
	if text == "" {
		errs["text"] = MsgRequired
	}

	if groupID := normalizeGroupID(input.GroupID); groupID != nil {
		if err := s.ensureGroup(*groupID); err != nil {
			if !errors.Is(err, ErrGroupNotFound) {
				return "", err
			}
			errs["group"] = MsgInvalidChoice
		}
	}

	return text, errs.orNil()
}

func (s *PostService) ensureGroup(id uint) error {
	var count int64
	if err := s.db.Model(&db.Group{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrGroupNotFound
	}
	return nil
}

func (s *PostService) applyFilters(query *gorm.DB, filter PostFilter) *gorm.DB {
	if filter.GroupID != 0 {
		query = query.Where("posts.group_id = ?", filter.GroupID)
	}

	if filter.AuthorID != 0 {
		query = query.Where("posts.author_id = ?", filter.AuthorID)
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where("posts.text LIKE ?", "%"+search+"%")
	}

	if filter.Since != nil {
		query = query.Where("posts.pub_date >= ?", *filter.Since)
	}

	return query
}

func normalizeGroupID(id *uint) *uint {
	if id == nil || *id == 0 {
		return nil
	}
	value := *id
	return &value
}
