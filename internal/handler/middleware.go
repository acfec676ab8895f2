package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yatube/internal/db"
	"github.com/yatube/internal/service"
)

const (
	sessionUserIDKey  = "user_id"
	currentUserKey    = "__current_user"
	requestIDKey      = "__request_id"
	requestIDHeader   = "X-Request-ID"
	maxRequestIDBytes = 64
)

// CurrentUser returns the logged-in user, or nil for anonymous requests.
func CurrentUser(c *gin.Context) *db.User {
	if value, exists := c.Get(currentUserKey); exists {
		if user, ok := value.(*db.User); ok {
			return user
		}
	}
	return nil
}

// LoadCurrentUser resolves the session's user id into a *db.User. Sessions
// pointing at deleted accounts are cleared.
func (a *API) LoadCurrentUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID, ok := session.Get(sessionUserIDKey).(uint)
		if !ok || userID == 0 {
			c.Next()
			return
		}

		user, err := a.users.Get(userID)
		switch {
		case err == nil:
			c.Set(currentUserKey, user)
		case errors.Is(err, service.ErrUserNotFound):
			session.Clear()
			if saveErr := session.Save(); saveErr != nil {
				c.Error(saveErr)
			}
		default:
			c.Error(err)
		}
		c.Next()
	}
}

// LoginRequired 是一个简单的认证中间件，未登录时跳转到登录页。
func LoginRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.Redirect(http.StatusFound, loginURL(c.Request.URL.RequestURI()))
			c.Abort()
			return
		}
		c.Next()
	}
}

// StaffRequired guards the admin screens.
func (a *API) StaffRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.Redirect(http.StatusFound, loginURL(c.Request.URL.RequestURI()))
			c.Abort()
			return
		}
		if !user.IsStaff {
			a.forbidden(c)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequestID tags every request with an id, reusing a sane incoming header.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" || len(id) > maxRequestIDBytes {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// RequestLogger logs one structured line per request.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []any{
			slog.Int("status", c.Writer.Status()),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.String("ip", c.ClientIP()),
			slog.Duration("latency", time.Since(start)),
		}
		if id := c.GetString(requestIDKey); id != "" {
			fields = append(fields, slog.String("request_id", id))
		}
		if user := CurrentUser(c); user != nil {
			fields = append(fields, slog.Uint64("user_id", uint64(user.ID)))
		}

		if len(c.Errors) > 0 {
			fields = append(fields, slog.String("error", c.Errors.String()))
			logger.Error("request failed", fields...)
			return
		}
		logger.Info("request processed", fields...)
	}
}

func login(c *gin.Context, user *db.User) error {
	session := sessions.Default(c)
	session.Clear()
	session.Set(sessionUserIDKey, user.ID)
	session.Set("username", user.Username)
	return session.Save()
}

func logout(c *gin.Context) error {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	return session.Save()
}
