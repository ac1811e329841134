package ilp

import (
	"context"
	"fmt"
	"math"

	"github.com/crillab/gophersat/solver"
	"go.uber.org/zap"
)

// Largest multiplier tried when lifting fractional objective coefficients to
// the integer weights pseudo-Boolean solving needs.
const maxObjectiveScale = 1000

const intTolerance = 1e-9

// GophersatEngine solves 0-1 models with the gophersat pseudo-Boolean
// solver. The search runs on a single goroutine with deterministic
// branching, so equal models always produce equal valuations.
type GophersatEngine struct {
	logger *zap.Logger
}

// NewGophersatEngine builds the production engine.
func NewGophersatEngine(logger *zap.Logger) *GophersatEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GophersatEngine{logger: logger}
}

// Solve translates the model into pseudo-Boolean constraints plus an integer
// cost function, runs the optimizer and maps the winning assignment back to
// a valuation. Variables that appear in no constraint cannot influence
// feasibility, so their optimal value follows from their own objective term
// alone and they are resolved without entering the search.
func (e *GophersatEngine) Solve(ctx context.Context, m *Model) (Valuation, error) {
	if m == nil {
		return nil, fmt.Errorf("nil model")
	}
	n := m.NumVars()
	if n == 0 {
		return nil, fmt.Errorf("model has no variables")
	}

	rows, constrained, err := translateConstraints(m)
	if err != nil {
		return nil, err
	}

	scale, err := objectiveScale(m.Objective())
	if err != nil {
		return nil, err
	}

	values := make(Valuation, n)
	order, coefs := aggregateObjective(m.Objective())
	var costLits []solver.Lit
	var costWeights []int
	for _, v := range order {
		minimized := coefs[v]
		if m.Objective().Sense == Maximize {
			minimized = -minimized
		}
		w := int(math.Round(math.Abs(minimized) * float64(scale)))
		if w == 0 {
			continue
		}
		if !constrained[v] {
			if minimized < 0 {
				values[v] = 1
			}
			continue
		}
		lit := int32(v) + 1
		if minimized < 0 {
			// Cost accrues when the variable is false.
			lit = -lit
		}
		costLits = append(costLits, solver.IntToLit(lit))
		costWeights = append(costWeights, w)
	}

	if len(rows) == 0 {
		return values, nil
	}

	pb := solver.ParsePBConstrs(rows)
	if len(costLits) > 0 {
		pb.SetCostFunc(costLits, costWeights)
	}
	s := solver.New(pb)

	stop := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			close(stop)
		case <-finished:
		}
	}()
	results := make(chan solver.Result)
	go func() {
		for range results {
		}
	}()
	res := s.Optimal(results, stop)
	close(finished)

	switch res.Status {
	case solver.Sat:
	case solver.Unsat:
		return nil, fmt.Errorf("model is unsatisfiable")
	default:
		if ctx.Err() != nil {
			return nil, fmt.Errorf("solve canceled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("solver stopped without reaching a conclusion")
	}

	bools := modelBools(res.Model)
	for v := 0; v < n; v++ {
		if constrained[v] && bools[v+1] {
			values[v] = 1
		}
	}

	e.logger.Debug("pseudo-boolean solve finished",
		zap.Int("vars", n),
		zap.Int("rows", len(rows)),
		zap.Int("cost_terms", len(costLits)),
		zap.Int("cost", res.Weight),
	)
	return values, nil
}

// translateConstraints rewrites every row into the all-positive-weights form
// pseudo-Boolean constraints use, reporting which variables occur in at
// least one row. Rows with no terms are decided on the spot.
func translateConstraints(m *Model) ([]solver.PBConstr, []bool, error) {
	constrained := make([]bool, m.NumVars())
	var rows []solver.PBConstr
	for _, c := range m.Constraints() {
		lits, weights, rhs, err := normalizeRow(m, c)
		if err != nil {
			return nil, nil, err
		}
		if len(lits) == 0 {
			satisfied := (c.Op == OpEq && rhs == 0) || (c.Op == OpLtEq && rhs >= 0)
			if !satisfied {
				return nil, nil, fmt.Errorf("constraint %q cannot be satisfied", c.Name)
			}
			continue
		}
		for _, l := range lits {
			idx := l
			if idx < 0 {
				idx = -idx
			}
			constrained[idx-1] = true
		}
		switch c.Op {
		case OpEq:
			rows = append(rows, solver.Eq(lits, weights, rhs)...)
		case OpLtEq:
			rows = append(rows, solver.LtEq(lits, weights, rhs))
		default:
			return nil, nil, fmt.Errorf("constraint %q: unsupported comparator %v", c.Name, c.Op)
		}
	}
	return rows, constrained, nil
}

// normalizeRow converts one constraint into integer lits/weights with every
// weight positive. A negative term w*x becomes |w|*(not x) with the constant
// folded into the right-hand side.
func normalizeRow(m *Model, c Constraint) ([]int, []int, int, error) {
	if !isIntegral(c.RHS) {
		return nil, nil, 0, fmt.Errorf("constraint %q: right-hand side %v is not integral", c.Name, c.RHS)
	}
	rhs := int(math.Round(c.RHS))
	lits := make([]int, 0, len(c.Expr))
	weights := make([]int, 0, len(c.Expr))
	for _, t := range c.Expr {
		if !isIntegral(t.Coef) {
			return nil, nil, 0, fmt.Errorf("constraint %q: coefficient %v on %s is not integral",
				c.Name, t.Coef, m.VarName(t.Var))
		}
		w := int(math.Round(t.Coef))
		if w == 0 {
			continue
		}
		lit := int(t.Var) + 1
		if w < 0 {
			lit = -lit
			w = -w
			rhs += w
		}
		lits = append(lits, lit)
		weights = append(weights, w)
	}
	return lits, weights, rhs, nil
}

// objectiveScale finds the smallest multiplier turning every objective
// coefficient into an integer. Scaling the objective by a positive constant
// never changes which assignment wins.
func objectiveScale(obj Objective) (int, error) {
	for d := 1; d <= maxObjectiveScale; d++ {
		ok := true
		for _, t := range obj.Expr {
			if !isIntegral(t.Coef * float64(d)) {
				ok = false
				break
			}
		}
		if ok {
			return d, nil
		}
	}
	return 0, fmt.Errorf("objective coefficients cannot be scaled to integer weights")
}

// aggregateObjective sums duplicate variable terms, preserving first
// appearance order.
func aggregateObjective(obj Objective) ([]VarID, map[VarID]float64) {
	order := make([]VarID, 0, len(obj.Expr))
	coefs := make(map[VarID]float64, len(obj.Expr))
	for _, t := range obj.Expr {
		if _, seen := coefs[t.Var]; !seen {
			order = append(order, t.Var)
		}
		coefs[t.Var] += t.Coef
	}
	return order, coefs
}

// modelBools flattens the solver's model map onto 1-based variable indices.
func modelBools(m solver.ModelMap) map[int]bool {
	out := make(map[int]bool, len(m))
	for k, val := range m {
		switch key := k.(type) {
		case int:
			out[key] = val
		case int32:
			out[int(key)] = val
		case int64:
			out[int(key)] = val
		case uint:
			out[int(key)] = val
		case uint32:
			out[int(key)] = val
		}
	}
	return out
}

func isIntegral(f float64) bool {
	return math.Abs(f-math.Round(f)) < intTolerance
}
