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
package ast

import "fmt"

// Substitute replaces every reference to a bound iterator variable with its
// concrete value, evaluates all index and key expressions to constants, and
// flattens summations into addition chains by enumerating their domain.  The
// result is suitable for term extraction: only decision-variable references,
// parameter references (with constant indices), decision-expression
// references and arithmetic nodes remain.
//
// Parameter references are deliberately kept symbolic, so that a model can be
// expanded before externally supplied parameter data arrives; they are
// evaluated when the final coefficients are resolved.  Tuple data, by
// contrast, must already be populated: item() lookups and field projections
// are resolved eagerly, and their failures abort the enclosing statement.
func Substitute(e Expr, env Environment) (Expr, error) {
	switch e := e.(type) {
	case *Constant:
		return e, nil
	case *ParamRef:
		if v, ok := env.Bound(e.Name); ok {
			return &Constant{v}, nil
		}
		//
		return e, nil
	case *IndexedParamRef:
		indices, err := substituteIndices(e.Indices, env)
		if err != nil {
			return nil, err
		}
		//
		return &IndexedParamRef{e.Name, indices}, nil
	case *VarRef:
		return e, nil
	case *IndexedVarRef:
		indices, err := substituteIndices(e.Indices, env)
		if err != nil {
			return nil, err
		}
		//
		return &IndexedVarRef{e.Name, indices}, nil
	case *FieldAccess:
		return substituteFieldAccess(e, env)
	case *Binary:
		return substituteBinary(e, env)
	case *Unary:
		arg, err := Substitute(e.Arg, env)
		if err != nil {
			return nil, err
		}
		//
		return &Unary{arg}, nil
	case *Summation:
		return substituteSummation(e, env)
	case *DexprRef:
		return substituteDexprRef(e, env)
	case *ItemLookup:
		return substituteItemLookup(e, env)
	}
	//
	panic("unknown expression kind")
}

// substituteIndices evaluates index expressions down to constants.  Index
// positions must be computable at expansion time, since they determine which
// concrete variable or parameter entry is being named.
func substituteIndices(indices []Expr, env Environment) ([]Expr, error) {
	substituted := make([]Expr, len(indices))
	//
	for i, index := range indices {
		v, err := Eval(index, env)
		if err != nil {
			return nil, err
		}
		//
		substituted[i] = &Constant{v}
	}
	//
	return substituted, nil
}

func substituteFieldAccess(e *FieldAccess, env Environment) (Expr, error) {
	base, err := Substitute(e.Base, env)
	if err != nil {
		return nil, err
	}
	// A tuple-valued base projects immediately.
	if c, ok := base.(*Constant); ok {
		if c.Value.Kind() != TUPLE_VALUE {
			return nil, Errorf(TypeCoercionFailed, "field access .%s requires a tuple", e.Field)
		}
		//
		if v, ok := c.Value.Tuple().Field(e.Field); ok {
			return &Constant{v}, nil
		}
		//
		return nil, Errorf(UnknownField, "tuple %s has no field %s", c.Value.Tuple().Schema(), e.Field)
	}
	//
	return &FieldAccess{base, e.Field}, nil
}

func substituteBinary(e *Binary, env Environment) (Expr, error) {
	lhs, err := Substitute(e.Lhs, env)
	if err != nil {
		return nil, err
	}
	//
	rhs, err := Substitute(e.Rhs, env)
	if err != nil {
		return nil, err
	}
	//
	return &Binary{e.Op, lhs, rhs}, nil
}

// substituteSummation flattens a symbolic summation into an addition chain,
// binding the iterator variable to each domain element in turn.  An empty
// domain flattens to the constant zero.
func substituteSummation(e *Summation, env Environment) (Expr, error) {
	elements, err := env.Elements(e.Domain)
	if err != nil {
		return nil, err
	}
	//
	var chain Expr
	//
	for _, element := range elements {
		term, err := substituteBound(e.Var, element, e.Body, env)
		if err != nil {
			return nil, err
		}
		//
		if chain == nil {
			chain = term
		} else {
			chain = &Binary{ADD, chain, term}
		}
	}
	//
	if chain == nil {
		return NewConstant(0), nil
	}
	//
	return chain, nil
}

// substituteBound substitutes an expression with one extra binding in scope,
// guaranteeing the binding is released on every exit path.
func substituteBound(name string, value Value, body Expr, env Environment) (Expr, error) {
	release := env.Bind(name, value)
	defer release()
	//
	return Substitute(body, env)
}

func substituteDexprRef(e *DexprRef, env Environment) (Expr, error) {
	if e.Index == nil {
		return e, nil
	}
	//
	index, err := Eval(e.Index, env)
	if err != nil {
		return nil, err
	}
	//
	return &DexprRef{e.Name, &Constant{index}}, nil
}

func substituteItemLookup(e *ItemLookup, env Environment) (Expr, error) {
	keys := make([]Value, len(e.Keys))
	//
	for i, key := range e.Keys {
		v, err := Eval(key, env)
		if err != nil {
			return nil, err
		}
		//
		keys[i] = v
	}
	//
	tuple, err := env.ItemByKey(e.Set, keys)
	if err != nil {
		return nil, err
	}
	//
	return &Constant{TupleValue(tuple)}, nil
}

// VarKey produces the canonical concrete name of a decision-variable
// instance, e.g. "x[1]" or "route[2][3]".  Indices must already be constant.
func VarKey(name string, indices []Expr) (string, error) {
	key := name
	//
	for _, index := range indices {
		c, ok := index.(*Constant)
		if !ok {
			return "", Errorf(DimensionMismatch, "variable %s has non-constant index", name)
		}
		//
		key = fmt.Sprintf("%s[%s]", key, c.Value.Key())
	}
	//
	return key, nil
}
