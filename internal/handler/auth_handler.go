package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yatube/internal/service"
)

type signupForm struct {
	FirstName string `form:"first_name" binding:"max=150"`
	LastName  string `form:"last_name" binding:"max=150"`
	Username  string `form:"username" binding:"required,max=150"`
	Email     string `form:"email" binding:"omitempty,email"`
	Password1 string `form:"password1" binding:"required"`
	Password2 string `form:"password2" binding:"required"`
}

type loginForm struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

type passwordChangeForm struct {
	OldPassword  string `form:"old_password" binding:"required"`
	NewPassword1 string `form:"new_password1" binding:"required"`
	NewPassword2 string `form:"new_password2" binding:"required"`
}

// ShowSignup 渲染注册页面
func (a *API) ShowSignup(c *gin.Context) {
	a.renderHTML(c, http.StatusOK, "users/signup.html", gin.H{
		"title":  "Зарегистрироваться",
		"values": signupForm{},
		"errors": service.FieldErrors{},
	})
}

// Signup creates the account, logs it in and sends the user to the index.
func (a *API) Signup(c *gin.Context) {
	var form signupForm
	errs := bindForm(c, &form)

	if len(errs) == 0 {
		user, err := a.users.Register(service.SignupInput{
			Username:  form.Username,
			FirstName: form.FirstName,
			LastName:  form.LastName,
			Email:     form.Email,
			Password1: form.Password1,
			Password2: form.Password2,
		})
		if err == nil {
			if err := login(c, user); err != nil {
				a.serverError(c, err)
				return
			}
			c.Redirect(http.StatusFound, "/")
			return
		}

		var fields service.FieldErrors
		if !errors.As(err, &fields) {
			a.serverError(c, err)
			return
		}
		errs = fields
	}

	form.Password1, form.Password2 = "", ""
	a.renderHTML(c, http.StatusOK, "users/signup.html", gin.H{
		"title":  "Зарегистрироваться",
		"values": form,
		"errors": errs,
	})
}

// ShowLogin 渲染登录页面
func (a *API) ShowLogin(c *gin.Context) {
	a.renderHTML(c, http.StatusOK, "users/login.html", gin.H{
		"title":  "Войти",
		"next":   safeNext(c.Query("next"), ""),
		"values": loginForm{},
		"errors": service.FieldErrors{},
	})
}

// Login 处理用户登录请求
func (a *API) Login(c *gin.Context) {
	var form loginForm
	errs := bindForm(c, &form)
	next := safeNext(c.PostForm("next"), safeNext(c.Query("next"), "/"))

	if len(errs) == 0 {
		user, err := a.users.Authenticate(form.Username, form.Password)
		switch {
		case err == nil:
			if err := login(c, user); err != nil {
				a.serverError(c, err)
				return
			}
			c.Redirect(http.StatusFound, next)
			return
		case errors.Is(err, service.ErrInvalidCredentials):
			errs = service.FieldErrors{"__all__": "Пожалуйста, введите правильные имя пользователя и пароль. Оба поля могут быть чувствительны к регистру."}
		default:
			a.serverError(c, err)
			return
		}
	}

	form.Password = ""
	a.renderHTML(c, http.StatusOK, "users/login.html", gin.H{
		"title":  "Войти",
		"next":   next,
		"values": form,
		"errors": errs,
	})
}

// Logout 处理用户登出
func (a *API) Logout(c *gin.Context) {
	if err := logout(c); err != nil {
		c.Error(err)
	}
	a.renderHTML(c, http.StatusOK, "users/logged_out.html", gin.H{
		"title": "Вы вышли из своей учётной записи",
		"user":  nil,
	})
}

// ShowPasswordChange renders the password change form.
func (a *API) ShowPasswordChange(c *gin.Context) {
	a.renderHTML(c, http.StatusOK, "users/password_change_form.html", gin.H{
		"title":  "Изменить пароль",
		"errors": service.FieldErrors{},
	})
}

// PasswordChange checks the old password and stores the new one.
func (a *API) PasswordChange(c *gin.Context) {
	user := CurrentUser(c)

	var form passwordChangeForm
	errs := bindForm(c, &form)
	if len(errs) == 0 {
		err := a.users.ChangePassword(user.ID, form.OldPassword, form.NewPassword1, form.NewPassword2)
		if err == nil {
			c.Redirect(http.StatusFound, "/auth/password_change/done/")
			return
		}
		var fields service.FieldErrors
		if !errors.As(err, &fields) {
			a.serverError(c, err)
			return
		}
		errs = fields
	}

	a.renderHTML(c, http.StatusOK, "users/password_change_form.html", gin.H{
		"title":  "Изменить пароль",
		"errors": errs,
	})
}

// ShowPasswordChangeDone confirms a successful password change.
func (a *API) ShowPasswordChangeDone(c *gin.Context) {
	a.renderHTML(c, http.StatusOK, "users/password_change_done.html", gin.H{
		"title": "Пароль изменён",
	})
}
