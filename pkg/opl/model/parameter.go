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
	"github.com/consensys/go-opaline/pkg/opl/ast"
	"github.com/consensys/go-opaline/pkg/util"
)

// ParamType identifies the scalar type of a parameter.
type ParamType uint

const (
	// INT_PARAM signals an integer parameter.
	INT_PARAM ParamType = iota
	// FLOAT_PARAM signals a floating-point parameter.
	FLOAT_PARAM
	// STRING_PARAM signals a string parameter.
	STRING_PARAM
	// BOOL_PARAM signals a boolean parameter (stored as 0.0 / 1.0).
	BOOL_PARAM
)

// Parameter is a named scalar or indexed quantity of the model.  Storage is
// either one scalar value, or a sparse map from a joined index key to a
// value.  A parameter marked external has its value(s) supplied by the
// data-loading collaborator after declaration.
type Parameter struct {
	name string
	typ  ParamType
	// Dims names the domains this parameter is indexed over (empty for a
	// scalar).
	dims []string
	// External marks a parameter whose data arrives after declaration.
	external bool
	// Scalar storage.
	scalar util.Option[ast.Value]
	// Sparse indexed storage, keyed by joined index key.
	indexed map[string]ast.Value
}

// NewParameter constructs a parameter over zero or more indexing domains.
func NewParameter(name string, typ ParamType, dims []string, external bool) *Parameter {
	return &Parameter{name, typ, dims, external, util.None[ast.Value](), make(map[string]ast.Value)}
}

// Name returns the declared name of this parameter.
func (p *Parameter) Name() string {
	return p.name
}

// Type returns the scalar type of this parameter.
func (p *Parameter) Type() ParamType {
	return p.typ
}

// Dims returns the names of the indexing domains (empty for a scalar).
func (p *Parameter) Dims() []string {
	return p.dims
}

// IsExternal determines whether this parameter's data arrives after
// declaration.
func (p *Parameter) IsExternal() bool {
	return p.external
}

// HasValue holds iff a scalar value is set (scalar case) or at least one
// indexed entry exists (indexed case).
func (p *Parameter) HasValue() bool {
	if len(p.dims) == 0 {
		return p.scalar.HasValue()
	}
	//
	return len(p.indexed) > 0
}

// SetScalar assigns the value of a scalar parameter.
func (p *Parameter) SetScalar(v ast.Value) error {
	if len(p.dims) != 0 {
		return ast.Errorf(ast.DimensionMismatch, "parameter %s is indexed", p.name)
	}
	//
	p.scalar = util.Some(v)
	//
	return nil
}

// SetIndexed assigns one entry of an indexed parameter.
func (p *Parameter) SetIndexed(indices []ast.Value, v ast.Value) error {
	if len(indices) != len(p.dims) {
		return ast.Errorf(ast.DimensionMismatch,
			"parameter %s has %d dimensions, got %d indices", p.name, len(p.dims), len(indices))
	}
	//
	p.indexed[ast.JoinKey(indices)] = v
	//
	return nil
}

// Value returns the value of this parameter at the given indices (none for a
// scalar access).
func (p *Parameter) Value(indices []ast.Value) (ast.Value, error) {
	// Scalar case.
	if len(p.dims) == 0 {
		if len(indices) != 0 {
			return ast.Value{}, ast.Errorf(ast.DimensionMismatch,
				"parameter %s is scalar, got %d indices", p.name, len(indices))
		}
		//
		if p.scalar.IsEmpty() {
			return ast.Value{}, ast.Errorf(ast.MissingIndexedValue, "parameter %s has no value", p.name)
		}
		//
		return p.scalar.Unwrap(), nil
	}
	// Indexed case.
	if len(indices) == 0 {
		return ast.Value{}, ast.Errorf(ast.NonScalarParameter,
			"parameter %s requires %d indices", p.name, len(p.dims))
	} else if len(indices) != len(p.dims) {
		return ast.Value{}, ast.Errorf(ast.DimensionMismatch,
			"parameter %s has %d dimensions, got %d indices", p.name, len(p.dims), len(indices))
	}
	//
	if v, ok := p.indexed[ast.JoinKey(indices)]; ok {
		return v, nil
	}
	//
	return ast.Value{}, ast.Errorf(ast.MissingIndexedValue,
		"parameter %s has no entry for [%s]", p.name, ast.JoinKey(indices))
}
