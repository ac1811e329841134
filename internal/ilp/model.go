// Package ilp models 0-1 integer linear programs: binary decision variables,
// linear constraints and a linear objective. A Model is built per request and
// discarded after the solve; nothing here is shared across requests.
package ilp

import "fmt"

// VarID indexes a binary decision variable within one Model. Ids are dense
// and allocated in call order.
type VarID int

// Sense fixes the optimization direction.
type Sense int

const (
	Minimize Sense = iota
	Maximize
)

// Op is a linear constraint comparator.
type Op int

const (
	OpEq Op = iota
	OpLtEq
)

func (o Op) String() string {
	switch o {
	case OpEq:
		return "=="
	case OpLtEq:
		return "<="
	default:
		return fmt.Sprintf("Op(%d)", int(o))
	}
}

// Term is one coefficient-variable pair.
type Term struct {
	Var  VarID
	Coef float64
}

// LinearExpr is an ordered sum of terms. Builders append in a fixed order so
// identical inputs produce identical models.
type LinearExpr []Term

// Constraint is a linear row: Expr Op RHS. Name is diagnostic only.
type Constraint struct {
	Name string
	Expr LinearExpr
	Op   Op
	RHS  float64
}

// Objective is the optimization target.
type Objective struct {
	Sense Sense
	Expr  LinearExpr
}

// Model is a 0-1 program under construction.
type Model struct {
	varNames    []string
	constraints []Constraint
	objective   Objective
}

// NewModel returns an empty model.
func NewModel() *Model {
	return &Model{}
}

// NewBinaryVar registers a fresh binary variable and returns its id.
func (m *Model) NewBinaryVar(name string) VarID {
	m.varNames = append(m.varNames, name)
	return VarID(len(m.varNames) - 1)
}

// NumVars returns the number of registered variables.
func (m *Model) NumVars() int { return len(m.varNames) }

// VarName returns the diagnostic name of a variable.
func (m *Model) VarName(v VarID) string {
	if int(v) < 0 || int(v) >= len(m.varNames) {
		return fmt.Sprintf("var#%d", int(v))
	}
	return m.varNames[v]
}

// AddConstraint appends a row.
func (m *Model) AddConstraint(c Constraint) {
	m.constraints = append(m.constraints, c)
}

// Constraints returns all rows in insertion order.
func (m *Model) Constraints() []Constraint { return m.constraints }

// SetObjective replaces the objective.
func (m *Model) SetObjective(o Objective) { m.objective = o }

// Objective returns the current objective.
func (m *Model) Objective() Objective { return m.objective }

// Valuation holds one solved value per variable, indexed by VarID.
type Valuation []float64

// Value returns the solved value for v, or 0 for out-of-range ids.
func (v Valuation) Value(id VarID) float64 {
	if int(id) < 0 || int(id) >= len(v) {
		return 0
	}
	return v[id]
}
