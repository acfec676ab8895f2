package handler

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/yatube/internal/service"
)

const msgInvalidEmail = "Введите правильный адрес электронной почты."

func parseUintParam(c *gin.Context, key string) (uint, error) {
	raw := c.Param(key)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return uint(id), nil
}

// parseOptionalID reads a select value; blank means no selection.
func parseOptionalID(raw string) (*uint, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return nil, false
	}
	value := uint(id)
	return &value, true
}

// bindForm binds the request form into dst. Binding rule violations are
// translated into field errors keyed by the struct field's form tag.
func bindForm(c *gin.Context, dst interface{}) service.FieldErrors {
	err := c.ShouldBind(dst)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return service.FieldErrors{"__all__": "Некорректные данные формы."}
	}

	fields := service.FieldErrors{}
	for _, fe := range verrs {
		name := formFieldName(dst, fe.StructField())
		if _, exists := fields[name]; exists {
			continue
		}
		switch fe.Tag() {
		case "required":
			fields[name] = service.MsgRequired
		case "max":
			limit, _ := strconv.Atoi(fe.Param())
			fields[name] = service.MaxLengthMessage(limit)
		case "email":
			fields[name] = msgInvalidEmail
		default:
			fields[name] = "Некорректное значение."
		}
	}
	return fields
}

func formFieldName(dst interface{}, structField string) string {
	t := reflect.TypeOf(dst)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if field, ok := t.FieldByName(structField); ok {
		if tag := strings.Split(field.Tag.Get("form"), ",")[0]; tag != "" {
			return tag
		}
	}
	return strings.ToLower(structField)
}

// mergeFieldErrors adds src into dst; src wins for duplicated fields.
func mergeFieldErrors(dst service.FieldErrors, src service.FieldErrors) service.FieldErrors {
	if dst == nil {
		dst = service.FieldErrors{}
	}
	for field, msg := range src {
		dst[field] = msg
	}
	return dst
}

// safeNext keeps redirects on this site: only absolute local paths pass.
func safeNext(raw, fallback string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return fallback
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host != "" || parsed.Scheme != "" {
		return fallback
	}
	return raw
}

func loginURL(next string) string {
	return "/auth/login/?next=" + url.QueryEscape(next)
}

func profileURL(username string) string {
	return "/profile/" + url.PathEscape(username) + "/"
}

func postURL(id uint) string {
	return fmt.Sprintf("/posts/%d/", id)
}
