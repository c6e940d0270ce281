package di

import "fmt"

// Token is a typed service key.
type Token[T any] struct {
	name string
}

// NewToken creates a token for services of type T.
func NewToken[T any](name string) Token[T] {
	return Token[T]{name: name}
}

// Name returns the registration name.
func (t Token[T]) Name() string {
	return t.name
}

// RegisterToken registers a lazily built singleton for the token.
func RegisterToken[T any](c Container, tok Token[T], factory func(ServiceRegistry) T) {
	c.RegisterFactory(tok.name, func(sr ServiceRegistry) any {
		return factory(sr)
	})
}

// GetToken resolves the token's service.
func GetToken[T any](sr ServiceRegistry, tok Token[T]) T {
	v := sr.Get(tok.name)
	if v == nil {
		var zero T
		return zero
	}
	svc, ok := v.(T)
	if !ok {
		panic(fmt.Sprintf("di: service %q has type %T", tok.name, v))
	}
	return svc
}
