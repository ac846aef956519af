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
package expand

import (
	"github.com/consensys/go-opaline/pkg/opl/ast"
)

// MaxDepth bounds the number of nested iterators a single enumeration may
// declare, preventing unbounded recursion depth.
const MaxDepth = 64

// Iterator describes one position of an ordered iterator list: the variable
// being bound, the domain it ranges over, and an optional filter which is
// evaluated as soon as the variable is bound (i.e. before any deeper
// iterator binds).
type Iterator struct {
	// Var is the iterator variable name.
	Var string
	// Domain names the domain being iterated.
	Domain string
	// Filter is evaluated with Var bound; a false result skips the element.
	// May be nil.
	Filter ast.Expr
}

// Enumerate performs a backtracking cartesian-product enumeration over an
// ordered iterator list.  At full depth the optional global filter is
// evaluated and, when it holds, the emit callback is invoked with all
// iterator bindings in scope.  This single routine backs both quantified
// constraint expansion and set comprehension evaluation; the two differ only
// in what their callback does with the bound environment.
//
// Every binding pushed on the way in is released on every exit path,
// including when the callback or a filter fails.  Enumeration order is
// iterator-declaration order outer-to-inner, with each domain enumerated in
// its intrinsic order.  Any failure aborts the entire enumeration.
func Enumerate(env ast.Environment, iterators []Iterator, global ast.Expr, emit func() error) error {
	if len(iterators) > MaxDepth {
		return ast.Errorf(ast.DimensionMismatch,
			"too many nested iterators (%d exceeds limit of %d)", len(iterators), MaxDepth)
	}
	//
	return enumerate(env, iterators, global, emit)
}

func enumerate(env ast.Environment, iterators []Iterator, global ast.Expr, emit func() error) error {
	// Full depth reached?
	if len(iterators) == 0 {
		if global != nil {
			v, err := ast.Eval(global, env)
			//
			if err != nil {
				return withBindings(err, env)
			} else if !v.IsTrue() {
				return nil
			}
		}
		//
		if err := emit(); err != nil {
			return withBindings(err, env)
		}
		//
		return nil
	}
	//
	iterator := iterators[0]
	//
	elements, err := env.Elements(iterator.Domain)
	if err != nil {
		return withBindings(err, env)
	}
	//
	for _, element := range elements {
		if err := step(env, iterator, element, iterators[1:], global, emit); err != nil {
			return err
		}
	}
	//
	return nil
}

// step binds one element, applies the per-iterator filter, and recurses into
// the remaining iterators.  The deferred release guarantees the binding never
// survives this step, whether it completes, is filtered out, or fails.
func step(env ast.Environment, iterator Iterator, element ast.Value,
	rest []Iterator, global ast.Expr, emit func() error) error {
	release := env.Bind(iterator.Var, element)
	defer release()
	//
	if iterator.Filter != nil {
		v, err := ast.Eval(iterator.Filter, env)
		//
		if err != nil {
			return withBindings(err, env)
		} else if !v.IsTrue() {
			// Filtered out.
			return nil
		}
	}
	//
	return enumerate(env, rest, global, emit)
}

// withBindings attaches the active iterator bindings to a typed failure, so
// the originating iteration can be diagnosed.
func withBindings(err error, env ast.Environment) error {
	if e, ok := err.(*ast.Error); ok && len(e.Bindings) == 0 {
		return e.WithBindings(env.Bindings())
	}
	//
	return err
}
