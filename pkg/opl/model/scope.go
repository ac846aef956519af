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
	"fmt"

	"github.com/consensys/go-opaline/pkg/opl/ast"
	"github.com/consensys/go-opaline/pkg/util/collection/stack"
)

// Scope implements ast.Environment over a registry plus a stack of iterator
// bindings.  The stack is exclusively owned by the one active expansion call
// stack and never escapes it: every Bind is matched by invoking the returned
// release function, on all exit paths.
type Scope struct {
	registry *Registry
	bindings *stack.Stack[binding]
}

type binding struct {
	name  string
	value ast.Value
}

// NewScope constructs a scope with no active bindings.
func NewScope(registry *Registry) *Scope {
	return &Scope{registry, stack.NewStack[binding]()}
}

// Registry returns the underlying registry.
func (p *Scope) Registry() *Registry {
	return p.registry
}

// Depth returns the number of active bindings.  Primarily useful for
// asserting that an expansion restored the scope it was given.
func (p *Scope) Depth() uint {
	return p.bindings.Len()
}

// Bound returns the value bound to an iterator variable, innermost binding
// first (i.e. inner bindings shadow outer ones).
func (p *Scope) Bound(name string) (ast.Value, bool) {
	for i := uint(0); i < p.bindings.Len(); i++ {
		if b := p.bindings.Peek(i); b.name == name {
			return b.value, true
		}
	}
	//
	return ast.Value{}, false
}

// Bind pushes an iterator binding, returning its release function.
func (p *Scope) Bind(name string, value ast.Value) func() {
	p.bindings.Push(binding{name, value})
	//
	return func() {
		popped := p.bindings.Pop()
		// Releases must nest properly.
		if popped.name != name {
			panic(fmt.Sprintf("binding release out of order: got %s, expected %s", popped.name, name))
		}
	}
}

// Bindings returns the active bindings, outermost first, in "name=value"
// form.
func (p *Scope) Bindings() []string {
	n := p.bindings.Len()
	bindings := make([]string, n)
	//
	for i := uint(0); i < n; i++ {
		b := p.bindings.Peek(n - i - 1)
		bindings[i] = fmt.Sprintf("%s=%s", b.name, b.value.String())
	}
	//
	return bindings
}

// ParamValue returns the value of a named parameter at the given indices.
func (p *Scope) ParamValue(name string, indices []ast.Value) (ast.Value, error) {
	param, ok := p.registry.Parameter(name)
	if !ok {
		return ast.Value{}, ast.Errorf(ast.UnboundName, "unknown parameter %s", name)
	}
	//
	return param.Value(indices)
}

// IsParameter determines whether a name declares a parameter.
func (p *Scope) IsParameter(name string) bool {
	return p.registry.IsParameter(name)
}

// IsVariable determines whether a name declares a decision variable.
func (p *Scope) IsVariable(name string) bool {
	return p.registry.IsVariable(name)
}

// Dexpr returns the named decision expression, if declared.
func (p *Scope) Dexpr(name string) (*ast.Dexpr, bool) {
	d, ok := p.registry.Dexpr(name)
	if !ok {
		return nil, false
	}
	//
	return d.Decl(), true
}

// Elements resolves a named domain to its ordered elements.
func (p *Scope) Elements(domain string) ([]ast.Value, error) {
	return p.registry.Resolve(domain, p)
}

// ItemByKey resolves the tuple instance of a named tuple set whose key
// fields match the given values.
func (p *Scope) ItemByKey(set string, keys []ast.Value) (*ast.Tuple, error) {
	tupleSet, ok := p.registry.TupleSet(set)
	if !ok {
		return nil, ast.Errorf(ast.DomainNotFound, "unknown tuple set %s", set)
	}
	//
	return tupleSet.ItemByKey(keys)
}
