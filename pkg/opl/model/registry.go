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
)

// Registry exclusively owns every named entity of one compilation run:
// domains of all variants, tuple schemas, parameters, decision variables and
// decision expressions.
type Registry struct {
	indexSets  map[string]*IndexSet
	ranges     map[string]*BoundRange
	primitives map[string]*PrimitiveSet
	tupleSets  map[string]*TupleSet
	computed   map[string]*ComputedSet
	schemas    map[string]*TupleSchema
	params     map[string]*Parameter
	variables  map[string]*IndexedVariable
	dexprs     map[string]*DecisionExpression
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		indexSets:  make(map[string]*IndexSet),
		ranges:     make(map[string]*BoundRange),
		primitives: make(map[string]*PrimitiveSet),
		tupleSets:  make(map[string]*TupleSet),
		computed:   make(map[string]*ComputedSet),
		schemas:    make(map[string]*TupleSchema),
		params:     make(map[string]*Parameter),
		variables:  make(map[string]*IndexedVariable),
		dexprs:     make(map[string]*DecisionExpression),
	}
}

// Resolve a named domain to its ordered elements, trying the variants in
// fixed precedence order: tuple set, computed set, primitive set, index set,
// bound range.
func (p *Registry) Resolve(name string, env ast.Environment) ([]ast.Value, error) {
	if d, ok := p.tupleSets[name]; ok {
		return d.Elements(env)
	}
	//
	if d, ok := p.computed[name]; ok {
		return d.Elements(env)
	}
	//
	if d, ok := p.primitives[name]; ok {
		return d.Elements(env)
	}
	//
	if d, ok := p.indexSets[name]; ok {
		return d.Elements(env)
	}
	//
	if d, ok := p.ranges[name]; ok {
		return d.Elements(env)
	}
	//
	return nil, ast.Errorf(ast.DomainNotFound, "unknown domain %s", name)
}

// HasDomain determines whether a name resolves to some domain variant.
func (p *Registry) HasDomain(name string) bool {
	if _, ok := p.tupleSets[name]; ok {
		return true
	} else if _, ok := p.computed[name]; ok {
		return true
	} else if _, ok := p.primitives[name]; ok {
		return true
	} else if _, ok := p.indexSets[name]; ok {
		return true
	}
	//
	_, ok := p.ranges[name]
	//
	return ok
}

// DeclareIndexSet registers a literal integer range.
func (p *Registry) DeclareIndexSet(set *IndexSet) error {
	if err := p.checkFresh(set.Name()); err != nil {
		return err
	}
	//
	p.indexSets[set.Name()] = set
	//
	return nil
}

// DeclareRange registers a range with lazily evaluated bounds.
func (p *Registry) DeclareRange(r *BoundRange) error {
	if err := p.checkFresh(r.Name()); err != nil {
		return err
	}
	//
	p.ranges[r.Name()] = r
	//
	return nil
}

// DeclarePrimitiveSet registers an explicit value set.
func (p *Registry) DeclarePrimitiveSet(set *PrimitiveSet) error {
	if err := p.checkFresh(set.Name()); err != nil {
		return err
	}
	//
	p.primitives[set.Name()] = set
	//
	return nil
}

// DeclareTupleSet registers a tuple set.
func (p *Registry) DeclareTupleSet(set *TupleSet) error {
	if err := p.checkFresh(set.Name()); err != nil {
		return err
	}
	//
	p.tupleSets[set.Name()] = set
	//
	return nil
}

// DeclareComputedSet registers a set comprehension (or family thereof).
func (p *Registry) DeclareComputedSet(set *ComputedSet) error {
	if err := p.checkFresh(set.Name()); err != nil {
		return err
	}
	//
	p.computed[set.Name()] = set
	//
	return nil
}

// DeclareSchema registers a tuple schema.
func (p *Registry) DeclareSchema(schema *TupleSchema) error {
	if _, ok := p.schemas[schema.Name()]; ok {
		return fmt.Errorf("tuple %s already declared", schema.Name())
	}
	//
	p.schemas[schema.Name()] = schema
	//
	return nil
}

// DeclareParameter registers a parameter.
func (p *Registry) DeclareParameter(param *Parameter) error {
	if err := p.checkFresh(param.Name()); err != nil {
		return err
	}
	//
	p.params[param.Name()] = param
	//
	return nil
}

// DeclareVariable registers a decision variable.
func (p *Registry) DeclareVariable(v *IndexedVariable) error {
	if err := p.checkFresh(v.Name()); err != nil {
		return err
	}
	//
	p.variables[v.Name()] = v
	//
	return nil
}

// DeclareDexpr registers a decision expression.
func (p *Registry) DeclareDexpr(d *DecisionExpression) error {
	if err := p.checkFresh(d.Name()); err != nil {
		return err
	}
	//
	p.dexprs[d.Name()] = d
	//
	return nil
}

// Schema returns a declared tuple schema.
func (p *Registry) Schema(name string) (*TupleSchema, bool) {
	s, ok := p.schemas[name]
	return s, ok
}

// Parameter returns a declared parameter.
func (p *Registry) Parameter(name string) (*Parameter, bool) {
	param, ok := p.params[name]
	return param, ok
}

// Variable returns a declared decision variable.
func (p *Registry) Variable(name string) (*IndexedVariable, bool) {
	v, ok := p.variables[name]
	return v, ok
}

// TupleSet returns a declared tuple set.
func (p *Registry) TupleSet(name string) (*TupleSet, bool) {
	s, ok := p.tupleSets[name]
	return s, ok
}

// Dexpr returns a declared decision expression.
func (p *Registry) Dexpr(name string) (*DecisionExpression, bool) {
	d, ok := p.dexprs[name]
	return d, ok
}

// IsVariable determines whether a name declares a decision variable.
func (p *Registry) IsVariable(name string) bool {
	_, ok := p.variables[name]
	return ok
}

// IsParameter determines whether a name declares a parameter.
func (p *Registry) IsParameter(name string) bool {
	_, ok := p.params[name]
	return ok
}

// IsDexpr determines whether a name declares a decision expression.
func (p *Registry) IsDexpr(name string) bool {
	_, ok := p.dexprs[name]
	return ok
}

// Invalidate discards all cached range bounds and memoized comprehension
// results.  Must be called whenever externally supplied data changes after
// declaration.
func (p *Registry) Invalidate() {
	for _, r := range p.ranges {
		r.Invalidate()
	}
	//
	for _, c := range p.computed {
		c.Invalidate()
	}
}

// checkFresh rejects redeclaration of any iterable or value name.
func (p *Registry) checkFresh(name string) error {
	if p.HasDomain(name) || p.IsParameter(name) || p.IsVariable(name) || p.IsDexpr(name) {
		return fmt.Errorf("%s already declared", name)
	}
	//
	return nil
}
