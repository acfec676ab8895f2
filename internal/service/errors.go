package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrPostNotFound       = errors.New("post not found")
	ErrGroupNotFound      = errors.New("group not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrValidation         = errors.New("validation failed")
)

// Field level messages shown next to form inputs.
const (
	MsgRequired       = "Обязательное поле."
	MsgInvalidChoice  = "Выберите корректный вариант. Вашего варианта нет среди допустимых значений."
	MsgSlugTaken      = "Группа с таким URL уже существует."
	MsgSlugInvalid    = "Значение должно состоять только из латинских букв, цифр, знаков подчеркивания или дефиса."
	MsgUsernameTaken  = "Пользователь с таким именем уже существует."
	MsgUsernameFormat = "Введите правильное имя пользователя. Оно может содержать только буквы, цифры и знаки @/./+/-/_."
	MsgPasswordShort  = "Введённый пароль слишком короткий. Он должен содержать как минимум 8 символов."
	MsgPasswordDigits = "Введённый пароль состоит только из цифр."
	MsgPasswordMatch  = "Введенные пароли не совпадают."
	MsgPasswordWrong  = "Ваш старый пароль введен неправильно. Пожалуйста, введите его снова."
)

// FieldErrors maps a form field name to its validation message. It matches
// ErrValidation under errors.Is.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+e[field])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e FieldErrors) Is(target error) bool {
	return target == ErrValidation
}

func (e FieldErrors) orNil() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// MaxLengthMessage is the message for a value longer than limit runes.
func MaxLengthMessage(limit int) string {
	return fmt.Sprintf("Убедитесь, что это значение содержит не более %d символов.", limit)
}
