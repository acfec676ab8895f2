package service

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/yatube/internal/db"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	usernameMaxLength = 150
	passwordMinLength = 8
)

var (
	usernamePattern = regexp.MustCompile(`^[\p{L}\p{N}_.@+-]+$`)
	digitsPattern   = regexp.MustCompile(`^[0-9]+$`)
)

// UserService wraps account related operations.
type UserService struct {
	db *gorm.DB
}

// SignupInput represents the registration form.
type SignupInput struct {
	Username  string
	FirstName string
	LastName  string
	Email     string
	Password1 string
	Password2 string
}

// NewUserService creates a UserService instance.
func NewUserService(gdb *gorm.DB) *UserService {
	return &UserService{db: gdb}
}

// Register validates the signup form and creates a regular account.
func (s *UserService) Register(input SignupInput) (*db.User, error) {
	errs := FieldErrors{}

	username := strings.TrimSpace(input.Username)
	switch {
	case username == "":
		errs["username"] = MsgRequired
	case utf8.RuneCountInString(username) > usernameMaxLength:
		errs["username"] = MaxLengthMessage(usernameMaxLength)
	case !usernamePattern.MatchString(username):
		errs["username"] = MsgUsernameFormat
	default:
		var count int64
		if err := s.db.Model(&db.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			errs["username"] = MsgUsernameTaken
		}
	}

	if msg := checkNewPassword(input.Password1, input.Password2); msg != "" {
		errs["password2"] = msg
	}

	if err := errs.orNil(); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password1), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := db.User{
		Username:  username,
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		Email:     strings.TrimSpace(input.Email),
		Password:  string(hashed),
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Authenticate checks the credentials and returns the matching user.
func (s *UserService) Authenticate(username, password string) (*db.User, error) {
	var user db.User
	if err := s.db.Where("username = ?", strings.TrimSpace(username)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// Get fetches a user by id.
func (s *UserService) Get(id uint) (*db.User, error) {
	var user db.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetByUsername fetches a user by username.
func (s *UserService) GetByUsername(username string) (*db.User, error) {
	var user db.User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// List returns users ordered by username, optionally filtered by a
// username substring.
func (s *UserService) List(search string) ([]db.User, error) {
	query := s.db.Model(&db.User{})
	if search = strings.TrimSpace(search); search != "" {
		query = query.Where("username LIKE ?", "%"+search+"%")
	}

	var users []db.User
	if err := query.Order("username asc").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// ChangePassword replaces the password after checking the old one.
func (s *UserService) ChangePassword(id uint, oldPassword, newPassword1, newPassword2 string) error {
	user, err := s.Get(id)
	if err != nil {
		return err
	}

	errs := FieldErrors{}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)) != nil {
		errs["old_password"] = MsgPasswordWrong
	}
	if msg := checkNewPassword(newPassword1, newPassword2); msg != "" {
		errs["new_password2"] = msg
	}
	if err := errs.orNil(); err != nil {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword1), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.db.Model(&db.User{}).Where("id = ?", id).Update("password", string(hashed)).Error
}

// Delete removes a user together with every post they authored.
func (s *UserService) Delete(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("author_id = ?", id).Delete(&db.Post{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&db.User{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrUserNotFound
		}
		return nil
	})
}

func checkNewPassword(password1, password2 string) string {
	switch {
	case password1 == "" || password2 == "":
		return MsgRequired
	case password1 != password2:
		return MsgPasswordMatch
	case utf8.RuneCountInString(password1) < passwordMinLength:
		return MsgPasswordShort
	case digitsPattern.MatchString(password1):
		return MsgPasswordDigits
	}
	return ""
}
