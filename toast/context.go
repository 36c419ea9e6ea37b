package toast

import (
	"context"
	"errors"
	"net/http"
)

// ErrNoPublisher 在未注入 Publisher 的 context 中获取发布能力
var ErrNoPublisher = errors.New("toast: must be used inside provider")

type publisherKey struct{}

// WithPublisher 将 Publisher 注入 context
func WithPublisher(ctx context.Context, p Publisher) context.Context {
	return context.WithValue(ctx, publisherKey{}, p)
}

// FromContext 从 context 获取 Publisher
func FromContext(ctx context.Context) (Publisher, error) {
	p, ok := ctx.Value(publisherKey{}).(Publisher)
	if !ok || p == nil {
		return nil, ErrNoPublisher
	}
	return p, nil
}

// MustFromContext 同 FromContext，未注入时 panic
func MustFromContext(ctx context.Context) Publisher {
	p, err := FromContext(ctx)
	if err != nil {
		panic(err)
	}
	return p
}

// Middleware 为每个请求注入 Publisher
func Middleware(p Publisher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithPublisher(r.Context(), p)))
		})
	}
}
