package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yatube/internal/cache"
	"github.com/yatube/internal/db"
	"github.com/yatube/internal/service"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db     *gorm.DB
	posts  *service.PostService
	groups *service.GroupService
	users  *service.UserService
}

// NewAPI constructs a handler set with shared services. c may be nil.
func NewAPI(gdb *gorm.DB, c *cache.Cache, perPage int) *API {
	return &API{
		db:     gdb,
		posts:  service.NewPostService(gdb, perPage),
		groups: service.NewGroupService(gdb, c),
		users:  service.NewUserService(gdb),
	}
}

// DB exposes the underlying gorm instance.
func (a *API) DB() *gorm.DB {
	return a.db
}

// renderHTML 在向模板渲染时自动附加当前用户与页脚年份。
func (a *API) renderHTML(c *gin.Context, status int, template string, data gin.H) {
	payload := gin.H{}
	for key, value := range data {
		payload[key] = value
	}

	if _, exists := payload["user"]; !exists {
		payload["user"] = CurrentUser(c)
	}
	if _, exists := payload["year"]; !exists {
		payload["year"] = time.Now().Year()
	}
	if _, exists := payload["path"]; !exists {
		payload["path"] = c.Request.URL.Path
	}

	c.HTML(status, template, payload)
}

// NotFound renders the 404 page. It doubles as the NoRoute handler.
func (a *API) NotFound(c *gin.Context) {
	a.renderHTML(c, http.StatusNotFound, "core/404.html", gin.H{
		"title": "Страница не найдена",
	})
}

func (a *API) forbidden(c *gin.Context) {
	a.renderHTML(c, http.StatusForbidden, "core/403.html", gin.H{
		"title": "Доступ запрещён",
	})
}

func (a *API) serverError(c *gin.Context, err error) {
	c.Error(err)
	a.renderHTML(c, http.StatusInternalServerError, "core/500.html", gin.H{
		"title": "Ошибка сервера",
	})
}

// postsCount returns the number of posts by author, logging failures.
func (a *API) postsCount(c *gin.Context, author *db.User) int64 {
	count, err := a.posts.CountByAuthor(author.ID)
	if err != nil {
		c.Error(err)
		return 0
	}
	return count
}
