// Package pkg, projede paylaşılan utility'leri barındırır.
// Bu dosya domain-level error tanımlarını içerir.
//
// Go'da error'lar basit değerlerdir. errors.New() ile sabit error
// değişkenleri tanımlanır ve karşılaştırma string yerine referans ile yapılır:
//
//	if errors.Is(err, pkg.ErrNotFound) { ... }
//
// Wrapping nedir?
// Repository ve middleware kodu hatayı fmt.Errorf("...: %w", err) ile sarar.
// %w sentinel'i zincirde korur: mesaj bağlam kazanır, errors.Is yine çalışır.
package pkg

import "errors"

// Domain-level errors.
//
// The sync pipeline never returns these to a caller of Chain.Process; they are
// logged by the middleware that hit them and the event is forwarded anyway.
// The status handler maps them to HTTP codes.
var (
	// ErrNotFound: a referenced channel/member/thread/message is not stored locally.
	ErrNotFound = errors.New("not found")
	// ErrMalformed: nested identifiers in an event payload cannot be parsed.
	ErrMalformed = errors.New("malformed payload")
	// ErrStoreWrite: the batch transaction could not commit.
	ErrStoreWrite = errors.New("store write failed")
	// ErrNoCurrentUser: the session has no current user configured yet.
	ErrNoCurrentUser = errors.New("no current user")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrBadRequest    = errors.New("bad request")
	ErrClosed        = errors.New("closed")
	ErrInternal      = errors.New("internal error")
)
