package handler

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yatube/internal/db"
	"github.com/yatube/internal/service"
)

// EmptyValueDisplay 是后台列表中空值的占位文本。
const EmptyValueDisplay = "-пусто-"

type groupForm struct {
	Title       string `form:"title" binding:"required,max=200"`
	Slug        string `form:"slug" binding:"required,max=25"`
	Description string `form:"description" binding:"required"`
}

// pubDateFilter is one choice of the admin post list date filter.
type pubDateFilter struct {
	Key   string
	Label string
}

var pubDateFilters = []pubDateFilter{
	{Key: "", Label: "Любая дата"},
	{Key: "today", Label: "Сегодня"},
	{Key: "week", Label: "Последние 7 дней"},
	{Key: "month", Label: "Этот месяц"},
	{Key: "year", Label: "Этот год"},
}

// pubDateSince converts a date filter key into a lower bound on pub_date.
func pubDateSince(key string, now time.Time) *time.Time {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var since time.Time
	switch key {
	case "today":
		since = today
	case "week":
		since = today.AddDate(0, 0, -7)
	case "month":
		since = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	case "year":
		since = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	default:
		return nil
	}
	return &since
}

// ShowAdminDashboard 渲染后台主面板
func (a *API) ShowAdminDashboard(c *gin.Context) {
	var postCount, groupCount, userCount int64
	if err := a.db.Model(&db.Post{}).Count(&postCount).Error; err != nil {
		a.serverError(c, err)
		return
	}
	if err := a.db.Model(&db.Group{}).Count(&groupCount).Error; err != nil {
		a.serverError(c, err)
		return
	}
	if err := a.db.Model(&db.User{}).Count(&userCount).Error; err != nil {
		a.serverError(c, err)
		return
	}

	a.renderHTML(c, http.StatusOK, "admin/dashboard.html", gin.H{
		"title":      "Администрирование сайта",
		"postCount":  postCount,
		"groupCount": groupCount,
		"userCount":  userCount,
	})
}

// ShowAdminGroups lists groups with search and title/slug filters.
func (a *API) ShowAdminGroups(c *gin.Context) {
	filter := service.GroupFilter{
		Search: strings.TrimSpace(c.Query("q")),
		Title:  strings.TrimSpace(c.Query("title")),
		Slug:   strings.TrimSpace(c.Query("slug")),
	}

	groups, err := a.groups.List(filter)
	if err != nil {
		a.serverError(c, err)
		return
	}
	all, err := a.groups.List(service.GroupFilter{})
	if err != nil {
		a.serverError(c, err)
		return
	}

	a.renderHTML(c, http.StatusOK, "admin/group_changelist.html", gin.H{
		"title":  "Группы публикаций",
		"groups": groups,
		"all":    all,
		"filter": filter,
		"empty":  EmptyValueDisplay,
	})
}

// ShowAdminGroupAdd renders an empty group form.
func (a *API) ShowAdminGroupAdd(c *gin.Context) {
	a.renderGroupForm(c, groupForm{}, nil, nil)
}

// AdminGroupAdd creates a group.
func (a *API) AdminGroupAdd(c *gin.Context) {
	var form groupForm
	if errs := bindForm(c, &form); len(errs) > 0 {
		a.renderGroupForm(c, form, nil, errs)
		return
	}

	_, err := a.groups.Create(c.Request.Context(), service.GroupInput{
		Title:       form.Title,
		Slug:        form.Slug,
		Description: form.Description,
	})
	if err != nil {
		a.handleGroupFormError(c, form, nil, err)
		return
	}
	c.Redirect(http.StatusFound, "/admin/groups/")
}

// ShowAdminGroupChange renders the form for an existing group.
func (a *API) ShowAdminGroupChange(c *gin.Context) {
	group, ok := a.loadAdminGroup(c)
	if !ok {
		return
	}
	a.renderGroupForm(c, groupForm{Title: group.Title, Slug: group.Slug, Description: group.Description}, group, nil)
}

// AdminGroupChange updates an existing group.
func (a *API) AdminGroupChange(c *gin.Context) {
	group, ok := a.loadAdminGroup(c)
	if !ok {
		return
	}

	var form groupForm
	if errs := bindForm(c, &form); len(errs) > 0 {
		a.renderGroupForm(c, form, group, errs)
		return
	}

	_, err := a.groups.Update(c.Request.Context(), group.ID, service.GroupInput{
		Title:       form.Title,
		Slug:        form.Slug,
		Description: form.Description,
	})
	if err != nil {
		a.handleGroupFormError(c, form, group, err)
		return
	}
	c.Redirect(http.StatusFound, "/admin/groups/")
}

// ShowAdminGroupDelete asks for confirmation before deleting a group.
func (a *API) ShowAdminGroupDelete(c *gin.Context) {
	group, ok := a.loadAdminGroup(c)
	if !ok {
		return
	}

	count, err := a.groups.PostCount(group.ID)
	if err != nil {
		a.serverError(c, err)
		return
	}

	a.renderConfirmDelete(c, "группу", group.Title,
		fmt.Sprintf("Публикации группы (%d) останутся на сайте без группы.", count),
		"/admin/groups/")
}

// AdminGroupDelete deletes a group; its posts keep existing without a group.
func (a *API) AdminGroupDelete(c *gin.Context) {
	group, ok := a.loadAdminGroup(c)
	if !ok {
		return
	}
	if err := a.groups.Delete(c.Request.Context(), group.ID); err != nil {
		if errors.Is(err, service.ErrGroupNotFound) {
			a.NotFound(c)
			return
		}
		a.serverError(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/admin/groups/")
}

// ShowAdminPosts lists posts with search, a pub_date filter and an editable
// group column.
func (a *API) ShowAdminPosts(c *gin.Context) {
	search := strings.TrimSpace(c.Query("q"))
	dateKey := strings.TrimSpace(c.Query("pub_date"))

	page, err := a.posts.List(service.PostFilter{
		Search: search,
		Since:  pubDateSince(dateKey, time.Now()),
	}, service.ParsePageNumber(c.Query("page")))
	if err != nil {
		a.serverError(c, err)
		return
	}

	groups, err := a.groups.All(c.Request.Context())
	if err != nil {
		a.serverError(c, err)
		return
	}

	a.renderHTML(c, http.StatusOK, "admin/post_changelist.html", gin.H{
		"title":       "Публикации",
		"page_obj":    page,
		"groups":      groups,
		"search":      search,
		"pub_date":    dateKey,
		"dateFilters": pubDateFilters,
		"query":       adminPostQuery(search, dateKey),
		"empty":       EmptyValueDisplay,
	})
}

// AdminPostsBulkGroup saves the list-editable group column.
func (a *API) AdminPostsBulkGroup(c *gin.Context) {
	for _, raw := range c.PostFormArray("ids") {
		id, valid := parseOptionalID(raw)
		if !valid || id == nil {
			continue
		}

		groupID, valid := parseOptionalID(c.PostForm(fmt.Sprintf("group-%d", *id)))
		if !valid {
			continue
		}

		if err := a.posts.SetGroup(*id, groupID); err != nil {
			if errors.Is(err, service.ErrPostNotFound) || errors.Is(err, service.ErrGroupNotFound) {
				continue
			}
			a.serverError(c, err)
			return
		}
	}

	target := "/admin/posts/"
	if query := c.Request.URL.RawQuery; query != "" {
		target += "?" + query
	}
	c.Redirect(http.StatusFound, target)
}

// ShowAdminPostChange renders the admin form for a post.
func (a *API) ShowAdminPostChange(c *gin.Context) {
	post, ok := a.loadAdminPost(c)
	if !ok {
		return
	}
	form, err := a.newPostFormView(c.Request.Context(), post.Text, post.GroupIDValue(), nil)
	if err != nil {
		a.serverError(c, err)
		return
	}
	a.renderAdminPostForm(c, form, post)
}

// AdminPostChange updates a post from the admin.
func (a *API) AdminPostChange(c *gin.Context) {
	post, ok := a.loadAdminPost(c)
	if !ok {
		return
	}

	input, form, ok := a.readPostForm(c)
	if !ok {
		a.renderAdminPostForm(c, form, post)
		return
	}

	if _, err := a.posts.Update(post.ID, input); err != nil {
		var fields service.FieldErrors
		if errors.As(err, &fields) {
			form.Errors = mergeFieldErrors(form.Errors, fields)
			a.renderAdminPostForm(c, form, post)
			return
		}
		a.serverError(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/admin/posts/")
}

// ShowAdminPostDelete asks for confirmation before deleting a post.
func (a *API) ShowAdminPostDelete(c *gin.Context) {
	post, ok := a.loadAdminPost(c)
	if !ok {
		return
	}
	a.renderConfirmDelete(c, "публикацию", post.String(), "", "/admin/posts/")
}

// AdminPostDelete deletes a post.
func (a *API) AdminPostDelete(c *gin.Context) {
	post, ok := a.loadAdminPost(c)
	if !ok {
		return
	}
	if err := a.posts.Delete(post.ID); err != nil && !errors.Is(err, service.ErrPostNotFound) {
		a.serverError(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/admin/posts/")
}

// ShowAdminUsers lists accounts.
func (a *API) ShowAdminUsers(c *gin.Context) {
	search := strings.TrimSpace(c.Query("q"))
	users, err := a.users.List(search)
	if err != nil {
		a.serverError(c, err)
		return
	}

	a.renderHTML(c, http.StatusOK, "admin/user_changelist.html", gin.H{
		"title":  "Пользователи",
		"users":  users,
		"search": search,
		"empty":  EmptyValueDisplay,
	})
}

// ShowAdminUserDelete asks for confirmation before deleting an account.
func (a *API) ShowAdminUserDelete(c *gin.Context) {
	target, ok := a.loadAdminUser(c)
	if !ok {
		return
	}
	a.renderConfirmDelete(c, "пользователя", target.Username,
		fmt.Sprintf("Вместе с пользователем будут удалены все его публикации (%d).", a.postsCount(c, target)),
		"/admin/users/")
}

// AdminUserDelete deletes an account together with its posts.
func (a *API) AdminUserDelete(c *gin.Context) {
	target, ok := a.loadAdminUser(c)
	if !ok {
		return
	}
	if current := CurrentUser(c); current != nil && current.ID == target.ID {
		a.forbidden(c)
		return
	}
	if err := a.users.Delete(target.ID); err != nil && !errors.Is(err, service.ErrUserNotFound) {
		a.serverError(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/admin/users/")
}

func (a *API) loadAdminGroup(c *gin.Context) (*db.Group, bool) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		a.NotFound(c)
		return nil, false
	}
	group, err := a.groups.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrGroupNotFound) {
			a.NotFound(c)
			return nil, false
		}
		a.serverError(c, err)
		return nil, false
	}
	return group, true
}

func (a *API) loadAdminPost(c *gin.Context) (*db.Post, bool) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		a.NotFound(c)
		return nil, false
	}
	post, err := a.posts.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			a.NotFound(c)
			return nil, false
		}
		a.serverError(c, err)
		return nil, false
	}
	return post, true
}

func (a *API) loadAdminUser(c *gin.Context) (*db.User, bool) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		a.NotFound(c)
		return nil, false
	}
	user, err := a.users.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			a.NotFound(c)
			return nil, false
		}
		a.serverError(c, err)
		return nil, false
	}
	return user, true
}

func (a *API) handleGroupFormError(c *gin.Context, form groupForm, group *db.Group, err error) {
	var fields service.FieldErrors
	if errors.As(err, &fields) {
		a.renderGroupForm(c, form, group, fields)
		return
	}
	a.serverError(c, err)
}

func (a *API) renderGroupForm(c *gin.Context, form groupForm, group *db.Group, errs service.FieldErrors) {
	title := "Добавить группу"
	if group != nil {
		title = "Изменить группу"
	}
	if errs == nil {
		errs = service.FieldErrors{}
	}
	a.renderHTML(c, http.StatusOK, "admin/group_change_form.html", gin.H{
		"title":  title,
		"values": form,
		"group":  group,
		"errors": errs,
	})
}

func (a *API) renderAdminPostForm(c *gin.Context, form PostFormView, post *db.Post) {
	a.renderHTML(c, http.StatusOK, "admin/post_change_form.html", gin.H{
		"title": "Изменить публикацию",
		"form":  form,
		"post":  post,
	})
}

func (a *API) renderConfirmDelete(c *gin.Context, kind, object, note, cancelURL string) {
	a.renderHTML(c, http.StatusOK, "admin/confirm_delete.html", gin.H{
		"title":     "Вы уверены?",
		"kind":      kind,
		"object":    object,
		"note":      note,
		"cancelURL": cancelURL,
	})
}

// adminPostQuery keeps the list filters on paginator links.
func adminPostQuery(search, dateKey string) template.URL {
	values := url.Values{}
	if search != "" {
		values.Set("q", search)
	}
	if dateKey != "" {
		values.Set("pub_date", dateKey)
	}
	encoded := values.Encode()
	if encoded == "" {
		return ""
	}
	return template.URL("&" + encoded)
}
