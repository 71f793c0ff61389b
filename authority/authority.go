// Package authority decides who may change the demurrage rate.
package authority

// Authority gates administrative operations.
type Authority interface {
	IsAuthorized(caller string) bool
}

// Owner is an Authority with a single designated principal.
type Owner string

// IsAuthorized reports whether caller is the owner. An empty owner
// authorizes nobody.
func (o Owner) IsAuthorized(caller string) bool {
	return o != "" && caller == string(o)
}

// Func adapts a predicate to the Authority interface.
type Func func(caller string) bool

// IsAuthorized calls f.
func (f Func) IsAuthorized(caller string) bool { return f(caller) }
