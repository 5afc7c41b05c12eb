package middleware

import "github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/ports"

// Middleware allows wrapping a UserStore to add behavior.
type Middleware func(ports.UserStore) ports.UserStore

// Chain applies middlewares so that the first one listed is the outermost.
func Chain(store ports.UserStore, mws ...Middleware) ports.UserStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
