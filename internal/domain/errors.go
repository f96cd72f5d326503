package domain

import (
	"errors"
	"fmt"
)

// 错误分类：transport 层按 Kind 映射响应码
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrSelfRating      = errors.New("cannot rate your own store")
	ErrValidation      = errors.New("validation failed")
	ErrPersistence     = errors.New("persistence failure")
)

type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.Error()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func Unauthenticated(msg string) error { return &Error{Kind: ErrUnauthenticated, Msg: msg} }
func Forbidden(msg string) error       { return &Error{Kind: ErrForbidden, Msg: msg} }
func NotFound(msg string) error        { return &Error{Kind: ErrNotFound, Msg: msg} }
func Conflict(msg string) error        { return &Error{Kind: ErrConflict, Msg: msg} }
func Validation(msg string) error      { return &Error{Kind: ErrValidation, Msg: msg} }
func SelfRating() error                { return &Error{Kind: ErrSelfRating} }

// Persistence 包装存储层错误；op 仅用于日志定位
func Persistence(op string, err error) error {
	return &Error{Kind: ErrPersistence, Msg: op, Err: err}
}

// KindOf 返回错误所属分类，未知错误一律视为 ErrPersistence
func KindOf(err error) error {
	for _, k := range []error{
		ErrUnauthenticated, ErrForbidden, ErrNotFound, ErrConflict,
		ErrSelfRating, ErrValidation, ErrPersistence,
	} {
		if errors.Is(err, k) {
			return k
		}
	}
	return ErrPersistence
}

// PublicMessage 可直接返回给客户端的文案；存储错误不外泄细节
func PublicMessage(err error) string {
	var de *Error
	if !errors.As(err, &de) || de.Kind == ErrPersistence {
		return "internal server error"
	}
	if de.Msg != "" {
		return de.Msg
	}
	return de.Kind.Error()
}
