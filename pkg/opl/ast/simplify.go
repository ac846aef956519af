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

import "math"

// Simplify applies constant folding and neutral-element rules to an
// expression, children first.  The transform is pure and idempotent, and
// never changes the evaluated result under any environment valid for the
// original tree.
func Simplify(e Expr) Expr {
	switch e := e.(type) {
	case *Constant, *ParamRef, *VarRef:
		return e
	case *IndexedParamRef:
		return &IndexedParamRef{e.Name, simplifyAll(e.Indices)}
	case *IndexedVarRef:
		return &IndexedVarRef{e.Name, simplifyAll(e.Indices)}
	case *FieldAccess:
		return &FieldAccess{Simplify(e.Base), e.Field}
	case *Binary:
		return simplifyBinary(e)
	case *Unary:
		return simplifyUnary(e)
	case *Summation:
		return &Summation{e.Var, e.Domain, Simplify(e.Body)}
	case *DexprRef:
		if e.Index == nil {
			return e
		}
		//
		return &DexprRef{e.Name, Simplify(e.Index)}
	case *ItemLookup:
		return &ItemLookup{e.Set, simplifyAll(e.Keys)}
	}
	//
	panic("unknown expression kind")
}

func simplifyAll(es []Expr) []Expr {
	simplified := make([]Expr, len(es))
	//
	for i, e := range es {
		simplified[i] = Simplify(e)
	}
	//
	return simplified
}

func simplifyBinary(e *Binary) Expr {
	lhs := Simplify(e.Lhs)
	rhs := Simplify(e.Rhs)
	// Fold two constant children into one.
	if l, lok := lhs.(*Constant); lok {
		if r, rok := rhs.(*Constant); rok {
			if folded, ok := foldBinary(e.Op, l.Value, r.Value); ok {
				return folded
			}
		}
	}
	// Neutral-element rules.
	switch e.Op {
	case ADD:
		if isZero(lhs) {
			return rhs
		} else if isZero(rhs) {
			return lhs
		}
	case SUB:
		if isZero(rhs) {
			return lhs
		}
	case MUL:
		if isZero(lhs) || isZero(rhs) {
			return NewConstant(0)
		} else if isOne(lhs) {
			return rhs
		} else if isOne(rhs) {
			return lhs
		}
	case DIV:
		if isOne(rhs) {
			return lhs
		}
	}
	//
	return &Binary{e.Op, lhs, rhs}
}

func simplifyUnary(e *Unary) Expr {
	arg := Simplify(e.Arg)
	//
	if c, ok := arg.(*Constant); ok && c.Value.IsNumeric() {
		f, _ := c.Value.Float()
		return NewConstant(-f)
	}
	//
	return &Unary{arg}
}

// foldBinary folds an operator applied to two constant values, where
// defined.  String operands fold only under (dis)equality.
func foldBinary(op BinOp, lhs Value, rhs Value) (Expr, bool) {
	switch op {
	case EQ:
		return &Constant{BoolValue(lhs.Equals(rhs))}, true
	case NEQ:
		return &Constant{BoolValue(!lhs.Equals(rhs))}, true
	case AND:
		return &Constant{BoolValue(lhs.IsTrue() && rhs.IsTrue())}, true
	case OR:
		return &Constant{BoolValue(lhs.IsTrue() || rhs.IsTrue())}, true
	}
	//
	if !lhs.IsNumeric() || !rhs.IsNumeric() {
		return nil, false
	}
	//
	l, _ := lhs.Float()
	r, _ := rhs.Float()
	//
	switch op {
	case ADD:
		return NewConstant(l + r), true
	case SUB:
		return NewConstant(l - r), true
	case MUL:
		return NewConstant(l * r), true
	case DIV:
		return NewConstant(l / r), true
	case LT:
		return &Constant{BoolValue(l < r)}, true
	case LEQ:
		return &Constant{BoolValue(l <= r || lhs.Equals(rhs))}, true
	case GT:
		return &Constant{BoolValue(l > r)}, true
	case GEQ:
		return &Constant{BoolValue(l >= r || lhs.Equals(rhs))}, true
	}
	//
	panic("unknown binary operator")
}

func isZero(e Expr) bool {
	if c, ok := e.(*Constant); ok && c.Value.IsNumeric() {
		f, _ := c.Value.Float()
		return math.Abs(f) <= Epsilon
	}
	//
	return false
}

func isOne(e Expr) bool {
	if c, ok := e.(*Constant); ok && c.Value.IsNumeric() {
		f, _ := c.Value.Float()
		return math.Abs(f-1) <= Epsilon
	}
	//
	return false
}
