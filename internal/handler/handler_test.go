package handler_test

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"github.com/yatube/internal/db"
	"github.com/yatube/internal/handler"
	"github.com/yatube/internal/router"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testPassword = "Str0ngPassw0rd"

var ginOnce sync.Once

type renderCall struct {
	name string
	data gin.H
}

// stubHTMLRender records the template name and context instead of rendering.
type stubHTMLRender struct {
	mu    sync.Mutex
	calls []renderCall
}

type stubHTMLInstance struct{}

func (r *stubHTMLRender) Instance(name string, data interface{}) render.Render {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, _ := data.(gin.H)
	r.calls = append(r.calls, renderCall{name: name, data: h})
	return stubHTMLInstance{}
}

func (r *stubHTMLRender) last(t *testing.T) renderCall {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) == 0 {
		t.Fatal("expected a template to be rendered")
	}
	return r.calls[len(r.calls)-1]
}

func (stubHTMLInstance) Render(http.ResponseWriter) error {
	return nil
}

func (stubHTMLInstance) WriteContentType(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
}

type testEnv struct {
	db     *gorm.DB
	router *gin.Engine
	render *stubHTMLRender
}

func setupHandlerTest(t *testing.T) *testEnv {
	t.Helper()

	ginOnce.Do(func() {
		gin.SetMode(gin.TestMode)
	})

	dsn := fmt.Sprintf("file:handler-%d?mode=memory&cache=shared&_foreign_keys=on", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.Init(gdb); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	api := handler.NewAPI(gdb, nil, 10)
	r := router.SetupRouter(api, router.Options{
		SessionSecret: "test-secret",
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	stub := &stubHTMLRender{}
	r.HTMLRender = stub

	return &testEnv{db: gdb, router: r, render: stub}
}

func (e *testEnv) createUser(t *testing.T, username string, staff bool) db.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := db.User{Username: username, FirstName: "Имя", LastName: username, Password: string(hash), IsStaff: staff}
	if err := e.db.Create(&user).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return user
}

func (e *testEnv) createGroup(t *testing.T, title, slug string) db.Group {
	t.Helper()
	group := db.Group{Title: title, Slug: slug, Description: "Тестовое описание"}
	if err := e.db.Create(&group).Error; err != nil {
		t.Fatalf("create group %s: %v", slug, err)
	}
	return group
}

func (e *testEnv) createPosts(t *testing.T, author db.User, group *db.Group, n int) []db.Post {
	t.Helper()
	base := time.Now().Add(-time.Hour)
	posts := make([]db.Post, 0, n)
	for i := 0; i < n; i++ {
		post := db.Post{
			Text:     fmt.Sprintf("Тестовый пост номер %d", i),
			AuthorID: author.ID,
			PubDate:  base.Add(time.Duration(i) * time.Second),
		}
		if group != nil {
			post.GroupID = &group.ID
		}
		posts = append(posts, post)
	}
	if err := e.db.Omit("Author", "Group").Create(&posts).Error; err != nil {
		t.Fatalf("create posts: %v", err)
	}
	return posts
}

func (e *testEnv) countPosts(t *testing.T) int64 {
	t.Helper()
	var count int64
	if err := e.db.Model(&db.Post{}).Count(&count).Error; err != nil {
		t.Fatalf("count posts: %v", err)
	}
	return count
}

// do sends one request through the router. A non-nil form turns it into a
// urlencoded POST.
func (e *testEnv) do(t *testing.T, method, path string, form url.Values, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// login signs username in and returns the session cookies.
func (e *testEnv) login(t *testing.T, username string) []*http.Cookie {
	t.Helper()
	w := e.do(t, http.MethodPost, "/auth/login/", url.Values{
		"username": {username},
		"password": {testPassword},
	}, nil)
	if w.Code != http.StatusFound {
		t.Fatalf("login %s: expected 302, got %d", username, w.Code)
	}
	cookies := w.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatalf("login %s: expected a session cookie", username)
	}
	return cookies
}

func assertRedirect(t *testing.T, w *httptest.ResponseRecorder, location string) {
	t.Helper()
	if w.Code != http.StatusFound {
		t.Fatalf("expected status 302, got %d", w.Code)
	}
	if got := w.Header().Get("Location"); got != location {
		t.Fatalf("expected redirect to %q, got %q", location, got)
	}
}
