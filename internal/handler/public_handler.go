package handler

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yatube/internal/service"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	sanitizer = bluemonday.UGCPolicy()
)

// ShowIndex renders the latest posts across all groups.
func (a *API) ShowIndex(c *gin.Context) {
	page, err := a.posts.List(service.PostFilter{}, service.ParsePageNumber(c.Query("page")))
	if err != nil {
		a.serverError(c, err)
		return
	}

	a.renderHTML(c, http.StatusOK, "posts/index.html", gin.H{
		"title":    "Последние обновления на сайте",
		"page_obj": page,
	})
}

// ShowGroupPosts renders the posts of a single group.
func (a *API) ShowGroupPosts(c *gin.Context) {
	group, err := a.groups.GetBySlug(c.Param("slug"))
	if err != nil {
		if errors.Is(err, service.ErrGroupNotFound) {
			a.NotFound(c)
			return
		}
		a.serverError(c, err)
		return
	}

	page, err := a.posts.List(service.PostFilter{GroupID: group.ID}, service.ParsePageNumber(c.Query("page")))
	if err != nil {
		a.serverError(c, err)
		return
	}

	a.renderHTML(c, http.StatusOK, "posts/group_list.html", gin.H{
		"title":    "Записи сообщества " + group.Title,
		"group":    group,
		"page_obj": page,
	})
}

// ShowProfile renders an author's posts.
func (a *API) ShowProfile(c *gin.Context) {
	author, err := a.users.GetByUsername(c.Param("username"))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			a.NotFound(c)
			return
		}
		a.serverError(c, err)
		return
	}

	page, err := a.posts.List(service.PostFilter{AuthorID: author.ID}, service.ParsePageNumber(c.Query("page")))
	if err != nil {
		a.serverError(c, err)
		return
	}

	a.renderHTML(c, http.StatusOK, "posts/profile.html", gin.H{
		"title":       "Профайл пользователя " + author.FullName(),
		"author":      author,
		"posts_count": page.Count,
		"page_obj":    page,
	})
}

// ShowPostDetail renders a single post with markdown content.
func (a *API) ShowPostDetail(c *gin.Context) {
	id, err := parseUintParam(c, "post_id")
	if err != nil {
		a.NotFound(c)
		return
	}

	post, err := a.posts.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			a.NotFound(c)
			return
		}
		a.serverError(c, err)
		return
	}

	content, err := renderMarkdown(post.Text)
	if err != nil {
		a.serverError(c, err)
		return
	}

	user := CurrentUser(c)
	a.renderHTML(c, http.StatusOK, "posts/post_detail.html", gin.H{
		"title":       "Пост " + post.String(),
		"post":        post,
		"content":     content,
		"posts_count": a.postsCount(c, &post.Author),
		"can_edit":    user != nil && user.ID == post.AuthorID,
	})
}

func renderMarkdown(content string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(content), &buf); err != nil {
		return "", err
	}
	safe := sanitizer.SanitizeBytes(buf.Bytes())
	return template.HTML(safe), nil
}
