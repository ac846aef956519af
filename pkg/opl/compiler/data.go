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
package compiler

import (
	"github.com/consensys/go-opaline/pkg/opl/ast"
)

// The external-data population interface: the data-loading collaborator calls
// these between declaration and the first statement referencing the data.
// Each mutation invalidates all cached range bounds and memoized
// comprehension results, since they may depend on the changed values.

// SetScalar supplies the value of an externally declared scalar parameter.
func (p *Compiler) SetScalar(name string, v ast.Value) error {
	param, ok := p.registry.Parameter(name)
	if !ok {
		return ast.Errorf(ast.UnboundName, "unknown parameter %s", name)
	}
	//
	if err := param.SetScalar(v); err != nil {
		return err
	}
	//
	p.registry.Invalidate()
	//
	return nil
}

// SetIndexed supplies one entry of an externally declared indexed parameter.
func (p *Compiler) SetIndexed(name string, indices []ast.Value, v ast.Value) error {
	param, ok := p.registry.Parameter(name)
	if !ok {
		return ast.Errorf(ast.UnboundName, "unknown parameter %s", name)
	}
	//
	if err := param.SetIndexed(indices, v); err != nil {
		return err
	}
	//
	p.registry.Invalidate()
	//
	return nil
}

// AddTuple appends one instance to an externally declared tuple set, with
// values in schema field order.
func (p *Compiler) AddTuple(set string, values []ast.Value) error {
	tupleSet, ok := p.registry.TupleSet(set)
	if !ok {
		return ast.Errorf(ast.DomainNotFound, "unknown tuple set %s", set)
	}
	//
	if err := tupleSet.Add(values); err != nil {
		return err
	}
	//
	p.registry.Invalidate()
	//
	return nil
}
