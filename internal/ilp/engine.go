package ilp

import "context"

// Engine solves a prepared 0-1 model. Implementations must be deterministic:
// the same model, built in the same order, yields the same valuation. An
// error means no valuation exists or the search could not finish; callers
// treat both as terminal for the request.
type Engine interface {
	Solve(ctx context.Context, m *Model) (Valuation, error)
}
