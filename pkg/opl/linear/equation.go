// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package linear

import (
	"fmt"
	"strings"

	"github.com/consensys/go-opaline/pkg/opl/ast"
)

// CoeffMap maps concrete decision-variable names to their coefficient
// expressions, preserving first-insertion order.  No entry ever holds a
// coefficient which folds to the exact constant zero (within the Epsilon
// tolerance): such entries are removed as soon as they are detected.
type CoeffMap struct {
	names  []string
	coeffs map[string]ast.Expr
}

// NewCoeffMap constructs an empty coefficient map.
func NewCoeffMap() *CoeffMap {
	return &CoeffMap{nil, make(map[string]ast.Expr)}
}

// Len returns the number of variables with a coefficient.
func (p *CoeffMap) Len() int {
	return len(p.names)
}

// Names returns the variable names in first-insertion order.
func (p *CoeffMap) Names() []string {
	return p.names
}

// Get returns the coefficient expression of a given variable.
func (p *CoeffMap) Get(name string) (ast.Expr, bool) {
	c, ok := p.coeffs[name]
	return c, ok
}

// Add accumulates a term onto the coefficient of a given variable.
func (p *CoeffMap) Add(name string, coeff ast.Expr) {
	if existing, ok := p.coeffs[name]; ok {
		p.coeffs[name] = &ast.Binary{Op: ast.ADD, Lhs: existing, Rhs: coeff}
		return
	}
	//
	p.names = append(p.names, name)
	p.coeffs[name] = coeff
}

// Set replaces the coefficient of a given variable.
func (p *CoeffMap) Set(name string, coeff ast.Expr) {
	if _, ok := p.coeffs[name]; !ok {
		p.names = append(p.names, name)
	}
	//
	p.coeffs[name] = coeff
}

// Remove deletes a variable's entry entirely.
func (p *CoeffMap) Remove(name string) {
	if _, ok := p.coeffs[name]; !ok {
		return
	}
	//
	delete(p.coeffs, name)
	//
	for i, n := range p.names {
		if n == name {
			p.names = append(p.names[:i], p.names[i+1:]...)
			break
		}
	}
}

// String renders the map as a sum of coefficient*variable terms.
func (p *CoeffMap) String() string {
	var builder strings.Builder
	//
	for i, name := range p.names {
		if i != 0 {
			builder.WriteString(" + ")
		}
		//
		fmt.Fprintf(&builder, "%s*%s", ast.Format(p.coeffs[name]), name)
	}
	//
	return builder.String()
}

// ============================================================================
// Equation
// ============================================================================

// Equation is one flat linear equation: an ordered coefficient map, a
// constant (kept on the right-hand side), and a relational operator.  The
// label and index fields trace the equation back to the statement and
// iteration which generated it.
type Equation struct {
	// Label of the generating constraint (may be empty).
	Label string
	// Base name of the generating forall statement (may be empty).
	BaseName string
	// Indices of the generating iteration, outermost first (at most two).
	Indices []ast.Value
	// Coefficients of the left-hand side.
	Coeffs *CoeffMap
	// Constant of the right-hand side.
	Constant ast.Expr
	// Relation between the two sides.
	Relation ast.Relation
}

// Name returns the traceable name of this equation, combining base name and
// indices where present.
func (p *Equation) Name() string {
	name := p.BaseName
	//
	if name == "" {
		name = p.Label
	}
	//
	for _, index := range p.Indices {
		name = fmt.Sprintf("%s[%s]", name, index.Key())
	}
	//
	return name
}

// String renders this equation in "terms <op> constant" form.
func (p *Equation) String() string {
	lhs := p.Coeffs.String()
	//
	if lhs == "" {
		lhs = "0"
	}
	//
	return fmt.Sprintf("%s %s %s", lhs, p.Relation, ast.Format(p.Constant))
}

// ============================================================================
// Objective
// ============================================================================

// Sense identifies the optimization direction.
type Sense uint

const (
	// MINIMIZE signals a minimization objective.
	MINIMIZE Sense = iota
	// MAXIMIZE signals a maximization objective.
	MAXIMIZE
)

// String returns the source-level spelling of this sense.
func (s Sense) String() string {
	if s == MINIMIZE {
		return "minimize"
	}
	//
	return "maximize"
}

// Objective is the linear objective of a model.  It obeys the same
// zero-coefficient invariant as Equation.
type Objective struct {
	// Sense of optimization.
	Sense Sense
	// Name of the objective (may be empty).
	Name string
	// Coefficients of the objective function.
	Coeffs *CoeffMap
	// Constant offset of the objective function.
	Constant ast.Expr
}

// String renders this objective in "sense terms + constant" form.
func (p *Objective) String() string {
	terms := p.Coeffs.String()
	//
	if terms == "" {
		terms = "0"
	}
	//
	return fmt.Sprintf("%s %s + %s", p.Sense, terms, ast.Format(p.Constant))
}
