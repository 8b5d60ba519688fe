// Package apperror maps failures onto the fixed error taxonomy used by the API
// and renders them as Turkish user-facing messages.
package apperror

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type Kind string

const (
	KindAuth       Kind = "auth"
	KindDatabase   Kind = "database"
	KindNetwork    Kind = "network"
	KindValidation Kind = "validation"
	KindPermission Kind = "permission"
	KindNotFound   Kind = "not_found"
	KindServer     Kind = "server"
	KindTimeout    Kind = "timeout"
)

// Error is a classified application error. Msg overrides the generic message
// for the kind when set.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return e.Msg + ": " + e.Err.Error()
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func Wrap(kind Kind, err error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

var messages = map[Kind]string{
	KindAuth:       "Oturumunuz doğrulanamadı. Lütfen tekrar giriş yapın.",
	KindDatabase:   "Veritabanı işlemi sırasında bir hata oluştu. Lütfen daha sonra tekrar deneyin.",
	KindNetwork:    "Bağlantı hatası oluştu. İnternet bağlantınızı kontrol edip tekrar deneyin.",
	KindValidation: "Girdiğiniz bilgiler geçersiz. Lütfen kontrol edip tekrar deneyin.",
	KindPermission: "Bu işlem için yetkiniz bulunmuyor.",
	KindNotFound:   "Aradığınız kayıt bulunamadı.",
	KindServer:     "Beklenmeyen bir hata oluştu. Lütfen daha sonra tekrar deneyin.",
	KindTimeout:    "İstek zaman aşımına uğradı. Lütfen tekrar deneyin.",
}

var statuses = map[Kind]int{
	KindAuth:       http.StatusUnauthorized,
	KindDatabase:   http.StatusInternalServerError,
	KindNetwork:    http.StatusBadGateway,
	KindValidation: http.StatusBadRequest,
	KindPermission: http.StatusForbidden,
	KindNotFound:   http.StatusNotFound,
	KindServer:     http.StatusInternalServerError,
	KindTimeout:    http.StatusGatewayTimeout,
}

// Message returns the generic Turkish message for kind.
func Message(kind Kind) string {
	if m, ok := messages[kind]; ok {
		return m
	}
	return messages[KindServer]
}

// HTTPStatus returns the status code a kind is rendered with.
func HTTPStatus(kind Kind) int {
	if s, ok := statuses[kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// UserMessage returns the message shown to the caller. Typed errors with an
// explicit message keep it for validation, permission and not-found kinds;
// everything else gets the generic text so internals never leak.
func UserMessage(err error) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Msg != "" {
		switch ae.Kind {
		case KindValidation, KindPermission, KindNotFound, KindAuth:
			return ae.Msg
		}
	}
	return Message(Classify(err))
}

// Classify resolves the kind of err.
func Classify(err error) Kind {
	if err == nil {
		return ""
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return KindNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505", "23503", "23514", "22P02":
			return KindValidation
		case "42501":
			return KindPermission
		}
		return KindDatabase
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return classifyMessage(strings.ToLower(err.Error()))
}

// messageRules are tried in order; the first matching pattern wins.
var messageRules = []struct {
	kind     Kind
	patterns []string
}{
	{KindAuth, []string{"jwt", "token", "unauthorized", "credential"}},
	{KindPermission, []string{"permission", "forbidden", "not allowed"}},
	{KindNotFound, []string{"not found", "no rows"}},
	{KindTimeout, []string{"timeout", "timed out", "deadline"}},
	{KindNetwork, []string{"network", "connection refused", "connection reset", "dial", "eof", "no such host"}},
	{KindValidation, []string{"invalid", "required", "validation", "must be"}},
	{KindDatabase, []string{"sql", "database", "relation", "constraint", "duplicate key"}},
}

func classifyMessage(msg string) Kind {
	for _, rule := range messageRules {
		for _, p := range rule.patterns {
			if strings.Contains(msg, p) {
				return rule.kind
			}
		}
	}
	return KindServer
}
