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
package model

import (
	"math"
	"strings"

	"github.com/consensys/go-opaline/pkg/opl/ast"
	"github.com/consensys/go-opaline/pkg/opl/expand"
)

// Domain is any named, orderable collection the language can iterate over.
// Every domain produces its elements in a deterministic order: ascending
// integers for index sets and ranges, insertion order for primitive and tuple
// sets, enumeration order for computed sets.
type Domain interface {
	// Name returns the declared name of this domain.
	Name() string
	// Elements returns the ordered elements of this domain.  The environment
	// is required for lazily evaluated bounds and for comprehension
	// expansion.
	Elements(env ast.Environment) ([]ast.Value, error)
}

// ============================================================================
// IndexSet
// ============================================================================

// IndexSet is a contiguous integer range with fixed literal bounds.
type IndexSet struct {
	name string
	lo   int
	hi   int
}

// NewIndexSet constructs an index set covering lo..hi inclusive.
func NewIndexSet(name string, lo int, hi int) *IndexSet {
	return &IndexSet{name, lo, hi}
}

// Name returns the declared name of this domain.
func (p *IndexSet) Name() string {
	return p.name
}

// Elements returns the integers lo..hi in ascending order.
func (p *IndexSet) Elements(env ast.Environment) ([]ast.Value, error) {
	return rangeElements(p.lo, p.hi), nil
}

// ============================================================================
// BoundRange
// ============================================================================

// BoundRange is a contiguous integer range whose bounds are expressions,
// evaluated lazily on first resolution and cached for the remainder of the
// compilation run.  The cache must be invalidated if any parameter the
// bounds depend on changes before solving.
type BoundRange struct {
	name string
	lo   ast.Expr
	hi   ast.Expr
	// cached elements, nil until first resolution
	elements []ast.Value
	cached   bool
}

// NewBoundRange constructs a range with lazily evaluated bounds.
func NewBoundRange(name string, lo ast.Expr, hi ast.Expr) *BoundRange {
	return &BoundRange{name, lo, hi, nil, false}
}

// Name returns the declared name of this domain.
func (p *BoundRange) Name() string {
	return p.name
}

// Invalidate discards the cached bounds, forcing re-evaluation on the next
// resolution.
func (p *BoundRange) Invalidate() {
	p.elements = nil
	p.cached = false
}

// Elements evaluates both bound expressions (once) and returns the covered
// integers in ascending order.
func (p *BoundRange) Elements(env ast.Environment) ([]ast.Value, error) {
	if p.cached {
		return p.elements, nil
	}
	//
	lo, err := ast.EvalFloat(p.lo, env)
	if err != nil {
		return nil, err
	}
	//
	hi, err := ast.EvalFloat(p.hi, env)
	if err != nil {
		return nil, err
	}
	//
	p.elements = rangeElements(int(math.Round(lo)), int(math.Round(hi)))
	p.cached = true
	//
	return p.elements, nil
}

func rangeElements(lo int, hi int) []ast.Value {
	var elements []ast.Value
	//
	for i := lo; i <= hi; i++ {
		elements = append(elements, ast.IntValue(i))
	}
	//
	return elements
}

// ============================================================================
// PrimitiveSet
// ============================================================================

// PrimitiveSet is an explicit set of int / float / string values, enumerated
// in insertion order.
type PrimitiveSet struct {
	name     string
	elements []ast.Value
}

// NewPrimitiveSet constructs a primitive set from its literal elements.
func NewPrimitiveSet(name string, elements []ast.Value) *PrimitiveSet {
	return &PrimitiveSet{name, elements}
}

// Name returns the declared name of this domain.
func (p *PrimitiveSet) Name() string {
	return p.name
}

// Elements returns the literal elements in insertion order.
func (p *PrimitiveSet) Elements(env ast.Environment) ([]ast.Value, error) {
	return p.elements, nil
}

// ============================================================================
// ComputedSet
// ============================================================================

// ComputedSet is a set comprehension, optionally itself indexed by one outer
// domain (making it a family of sets).  Elements are produced by running the
// comprehension's iterator list through the shared expansion engine and
// evaluating the output expression at full depth; results are memoized per
// active binding combination, since the filter or output may reference an
// enclosing iterator as well as the outer index.
type ComputedSet struct {
	name string
	// Iterators of the comprehension, in declaration order.
	iterators []expand.Iterator
	// Global filter evaluated at full depth (may be nil).
	filter ast.Expr
	// Output is the emitted expression: a reference to a bound iterator for
	// a filter comprehension, or a field projection for a projection
	// comprehension.
	output ast.Expr
	// Outer index variable, making this a family of sets (empty otherwise).
	outerVar string
	// Domain of the outer index (empty otherwise).
	outerDomain string
	// Memoization cache, keyed by the active binding combination.
	cache map[string][]ast.Value
}

// NewComputedSet constructs a (non-indexed) set comprehension.
func NewComputedSet(name string, iterators []expand.Iterator, filter ast.Expr, output ast.Expr) *ComputedSet {
	return &ComputedSet{name, iterators, filter, output, "", "", make(map[string][]ast.Value)}
}

// NewComputedSetFamily constructs a comprehension indexed by one outer
// domain, producing a family of sets.
func NewComputedSetFamily(name string, outerVar string, outerDomain string,
	iterators []expand.Iterator, filter ast.Expr, output ast.Expr) *ComputedSet {
	return &ComputedSet{name, iterators, filter, output, outerVar, outerDomain, make(map[string][]ast.Value)}
}

// Name returns the declared name of this domain.
func (p *ComputedSet) Name() string {
	return p.name
}

// OuterVar returns the outer index variable of a set family (empty for a
// plain comprehension).
func (p *ComputedSet) OuterVar() string {
	return p.outerVar
}

// Invalidate discards all memoized results.
func (p *ComputedSet) Invalidate() {
	p.cache = make(map[string][]ast.Value)
}

// Elements runs the comprehension under the given environment.  Resolving an
// outer-indexed family requires the outer iterator to be bound already.
func (p *ComputedSet) Elements(env ast.Environment) ([]ast.Value, error) {
	// An indexed family resolves relative to its outer binding.
	if p.outerVar != "" {
		if _, ok := env.Bound(p.outerVar); !ok {
			return nil, ast.Errorf(ast.MissingOuterIndex,
				"set %s is indexed by %s, which is not bound", p.name, p.outerVar)
		}
	}
	// Key on every active binding, not just the outer index.  A filter such as
	// "j != i" under "forall(i in I, ...)" must re-expand for each value of i.
	key := strings.Join(env.Bindings(), ",")
	//
	if elements, ok := p.cache[key]; ok {
		return elements, nil
	}
	//
	var elements []ast.Value
	//
	err := expand.Enumerate(env, p.iterators, p.filter, func() error {
		v, err := ast.Eval(p.output, env)
		if err != nil {
			return err
		}
		//
		elements = append(elements, v)
		//
		return nil
	})
	//
	if err != nil {
		return nil, err
	}
	//
	p.cache[key] = elements
	//
	return elements, nil
}
