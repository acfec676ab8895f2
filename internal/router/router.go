package router

import (
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/yatube/internal/handler"
	"github.com/yatube/web"
)

const sessionName = "yatube_session"

// Options carries the router settings that come from configuration.
type Options struct {
	SessionSecret string
	Logger        *slog.Logger
}

var monthsGenitive = [...]string{
	"января", "февраля", "марта", "апреля", "мая", "июня",
	"июля", "августа", "сентября", "октября", "ноября", "декабря",
}

// TemplateFuncs returns the helpers available to every template.
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"add": func(a, b int) int {
			return a + b
		},
		"sub": func(a, b int) int {
			return a - b
		},
		"formatDate": formatDate,
		"excerpt":    excerpt,
		"linebreaks": linebreaks,
		"emptyValue": func(value string) string {
			if strings.TrimSpace(value) == "" {
				return handler.EmptyValueDisplay
			}
			return value
		},
	}
}

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), handler.RequestID(), handler.RequestLogger(opts.Logger))

	// 配置会话中间件
	store := cookie.NewStore([]byte(opts.SessionSecret))
	store.Options(sessions.Options{Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode})
	r.Use(sessions.Sessions(sessionName, store))
	r.Use(api.LoadCurrentUser())

	// 加载模板并添加自定义函数
	r.SetHTMLTemplate(template.Must(web.Templates(TemplateFuncs())))

	// 静态文件服务
	r.StaticFS("/static", web.Static())

	r.GET("/healthz", api.HealthCheck)

	r.GET("/", api.ShowIndex)
	r.GET("/group/:slug/", api.ShowGroupPosts)
	r.GET("/profile/:username/", api.ShowProfile)
	r.GET("/posts/:post_id/", api.ShowPostDetail)

	authorized := r.Group("")
	authorized.Use(handler.LoginRequired())
	{
		authorized.GET("/create/", api.ShowCreatePost)
		authorized.POST("/create/", api.CreatePost)
		authorized.GET("/posts/:post_id/edit/", api.ShowEditPost)
		authorized.POST("/posts/:post_id/edit/", api.EditPost)
	}

	auth := r.Group("/auth")
	{
		auth.GET("/signup/", api.ShowSignup)
		auth.POST("/signup/", api.Signup)
		auth.GET("/login/", api.ShowLogin)
		auth.POST("/login/", api.Login)
		auth.GET("/logout/", api.Logout)
		auth.POST("/logout/", api.Logout)

		password := auth.Group("")
		password.Use(handler.LoginRequired())
		password.GET("/password_change/", api.ShowPasswordChange)
		password.POST("/password_change/", api.PasswordChange)
		password.GET("/password_change/done/", api.ShowPasswordChangeDone)
	}

	// 后台管理路由
	admin := r.Group("/admin")
	admin.Use(api.StaffRequired())
	{
		admin.GET("/", api.ShowAdminDashboard)

		admin.GET("/groups/", api.ShowAdminGroups)
		admin.GET("/groups/add/", api.ShowAdminGroupAdd)
		admin.POST("/groups/add/", api.AdminGroupAdd)
		admin.GET("/groups/:id/change/", api.ShowAdminGroupChange)
		admin.POST("/groups/:id/change/", api.AdminGroupChange)
		admin.GET("/groups/:id/delete/", api.ShowAdminGroupDelete)
		admin.POST("/groups/:id/delete/", api.AdminGroupDelete)

		admin.GET("/posts/", api.ShowAdminPosts)
		admin.POST("/posts/", api.AdminPostsBulkGroup)
		admin.GET("/posts/:id/change/", api.ShowAdminPostChange)
		admin.POST("/posts/:id/change/", api.AdminPostChange)
		admin.GET("/posts/:id/delete/", api.ShowAdminPostDelete)
		admin.POST("/posts/:id/delete/", api.AdminPostDelete)

		admin.GET("/users/", api.ShowAdminUsers)
		admin.GET("/users/:id/delete/", api.ShowAdminUserDelete)
		admin.POST("/users/:id/delete/", api.AdminUserDelete)
	}

	r.NoRoute(api.NotFound)

	return r
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return fmt.Sprintf("%d %s %d", t.Day(), monthsGenitive[t.Month()-1], t.Year())
}

// excerpt keeps the first n words of text.
func excerpt(text string, n int) string {
	words := strings.Fields(text)
	if len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ") + " …"
}

// linebreaks escapes text and turns newlines into <br>.
func linebreaks(text string) template.HTML {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(template.HTMLEscapeString(text), "\n")
	return template.HTML(strings.Join(lines, "<br>"))
}
