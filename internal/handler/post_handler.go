package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yatube/internal/db"
	"github.com/yatube/internal/service"
)

// postForm is the create/edit form: a required text area and an optional
// group choice.
type postForm struct {
	Text  string `form:"text" binding:"required"`
	Group string `form:"group"`
}

// PostFormView is the "form" template context of posts/create_post.html.
type PostFormView struct {
	Text    string
	GroupID uint
	Groups  []db.Group
	Errors  service.FieldErrors
}

// Fields lists the form's field names in display order.
func (f PostFormView) Fields() []string {
	return []string{"text", "group"}
}

// Error returns the validation message for field, if any.
func (f PostFormView) Error(field string) string {
	return f.Errors[field]
}

func (a *API) newPostFormView(ctx context.Context, text string, groupID uint, errs service.FieldErrors) (PostFormView, error) {
	groups, err := a.groups.All(ctx)
	if err != nil {
		return PostFormView{}, err
	}
	return PostFormView{Text: text, GroupID: groupID, Groups: groups, Errors: errs}, nil
}

// ShowCreatePost renders an empty post form.
func (a *API) ShowCreatePost(c *gin.Context) {
	form, err := a.newPostFormView(c.Request.Context(), "", 0, nil)
	if err != nil {
		a.serverError(c, err)
		return
	}
	a.renderPostForm(c, form, nil)
}

// CreatePost saves a new post authored by the current user and redirects to
// their profile.
func (a *API) CreatePost(c *gin.Context) {
	user := CurrentUser(c)

	input, form, ok := a.readPostForm(c)
	if !ok {
		a.renderPostForm(c, form, nil)
		return
	}

	input.AuthorID = user.ID
	if _, err := a.posts.Create(input); err != nil {
		if a.handlePostFormError(c, form, nil, err) {
			return
		}
		a.serverError(c, err)
		return
	}

	c.Redirect(http.StatusFound, profileURL(user.Username))
}

// ShowEditPost renders the form prefilled with an existing post. Only the
// author may edit; everyone else is sent back to the post.
func (a *API) ShowEditPost(c *gin.Context) {
	post, ok := a.loadEditablePost(c)
	if !ok {
		return
	}

	form, err := a.newPostFormView(c.Request.Context(), post.Text, post.GroupIDValue(), nil)
	if err != nil {
		a.serverError(c, err)
		return
	}
	a.renderPostForm(c, form, post)
}

// EditPost applies the form to an existing post and redirects to its page.
func (a *API) EditPost(c *gin.Context) {
	post, ok := a.loadEditablePost(c)
	if !ok {
		return
	}

	input, form, ok := a.readPostForm(c)
	if !ok {
		a.renderPostForm(c, form, post)
		return
	}

	if _, err := a.posts.Update(post.ID, input); err != nil {
		if a.handlePostFormError(c, form, post, err) {
			return
		}
		a.serverError(c, err)
		return
	}

	c.Redirect(http.StatusFound, postURL(post.ID))
}

func (a *API) loadEditablePost(c *gin.Context) (*db.Post, bool) {
	id, err := parseUintParam(c, "post_id")
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

	if user := CurrentUser(c); user == nil || user.ID != post.AuthorID {
		c.Redirect(http.StatusFound, postURL(post.ID))
		return nil, false
	}
	return post, true
}

// readPostForm binds the submission. On failure the returned view carries
// the submitted values and messages.
func (a *API) readPostForm(c *gin.Context) (service.PostInput, PostFormView, bool) {
	var raw postForm
	errs := bindForm(c, &raw)

	groupID, valid := parseOptionalID(raw.Group)
	if !valid {
		errs = mergeFieldErrors(errs, service.FieldErrors{"group": service.MsgInvalidChoice})
	}

	var selected uint
	if groupID != nil {
		selected = *groupID
	}

	form, err := a.newPostFormView(c.Request.Context(), raw.Text, selected, errs)
	if err != nil {
		c.Error(err)
	}

	if len(errs) > 0 {
		return service.PostInput{}, form, false
	}
	return service.PostInput{Text: raw.Text, GroupID: groupID}, form, true
}

func (a *API) handlePostFormError(c *gin.Context, form PostFormView, post *db.Post, err error) bool {
	var fields service.FieldErrors
	if !errors.As(err, &fields) {
		return false
	}
	form.Errors = mergeFieldErrors(form.Errors, fields)
	a.renderPostForm(c, form, post)
	return true
}

func (a *API) renderPostForm(c *gin.Context, form PostFormView, post *db.Post) {
	data := gin.H{
		"title":   "Новый пост",
		"form":    form,
		"is_edit": post != nil,
	}
	if post != nil {
		data["title"] = "Редактировать пост"
		data["post"] = post
	}
	a.renderHTML(c, http.StatusOK, "posts/create_post.html", data)
}
