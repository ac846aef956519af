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

// Eval evaluates an expression against a given environment, producing its
// runtime value or a typed failure.  Division follows plain floating-point
// semantics: dividing by zero produces inf/nan which is surfaced to the
// caller, not masked.
func Eval(e Expr, env Environment) (Value, error) {
	ev := evaluator{env, nil}
	return ev.eval(e)
}

// EvalFloat evaluates an expression and coerces the result to a number.
func EvalFloat(e Expr, env Environment) (float64, error) {
	v, err := Eval(e, env)
	if err != nil {
		return 0, err
	}
	//
	return v.Float()
}

// evaluator carries the set of decision expressions currently being inlined,
// so that reference cycles fail rather than recurse forever.
type evaluator struct {
	env      Environment
	visiting []string
}

func (p *evaluator) eval(e Expr) (Value, error) {
	switch e := e.(type) {
	case *Constant:
		return e.Value, nil
	case *ParamRef:
		return p.evalParamRef(e)
	case *IndexedParamRef:
		return p.evalIndexedParamRef(e)
	case *VarRef:
		return Value{}, Errorf(UnboundName, "decision variable %s has no value during evaluation", e.Name)
	case *IndexedVarRef:
		return Value{}, Errorf(UnboundName, "decision variable %s has no value during evaluation", e.Name)
	case *FieldAccess:
		return p.evalFieldAccess(e)
	case *Binary:
		return p.evalBinary(e)
	case *Unary:
		f, err := p.evalFloat(e.Arg)
		return FloatValue(-f), err
	case *Summation:
		return p.evalSummation(e)
	case *DexprRef:
		return p.evalDexprRef(e)
	case *ItemLookup:
		return p.evalItemLookup(e)
	}
	//
	panic("unknown expression kind")
}

func (p *evaluator) evalFloat(e Expr) (float64, error) {
	v, err := p.eval(e)
	if err != nil {
		return 0, err
	}
	//
	return v.Float()
}

func (p *evaluator) evalParamRef(e *ParamRef) (Value, error) {
	// Iterator bindings shadow parameters.
	if v, ok := p.env.Bound(e.Name); ok {
		return v, nil
	}
	//
	if p.env.IsParameter(e.Name) {
		return p.env.ParamValue(e.Name, nil)
	}
	//
	return Value{}, Errorf(UnboundName, "unknown name %s", e.Name)
}

func (p *evaluator) evalIndexedParamRef(e *IndexedParamRef) (Value, error) {
	indices, err := p.evalAll(e.Indices)
	if err != nil {
		return Value{}, err
	}
	//
	return p.env.ParamValue(e.Name, indices)
}

func (p *evaluator) evalFieldAccess(e *FieldAccess) (Value, error) {
	base, err := p.eval(e.Base)
	//
	if err != nil {
		return Value{}, err
	} else if base.Kind() != TUPLE_VALUE {
		return Value{}, Errorf(TypeCoercionFailed, "field access .%s requires a tuple", e.Field)
	}
	//
	if v, ok := base.Tuple().Field(e.Field); ok {
		return v, nil
	}
	//
	return Value{}, Errorf(UnknownField, "tuple %s has no field %s", base.Tuple().Schema(), e.Field)
}

func (p *evaluator) evalBinary(e *Binary) (Value, error) {
	lhs, err := p.eval(e.Lhs)
	if err != nil {
		return Value{}, err
	}
	//
	rhs, err := p.eval(e.Rhs)
	if err != nil {
		return Value{}, err
	}
	// Equality is defined for all value kinds.
	switch e.Op {
	case EQ:
		return BoolValue(lhs.Equals(rhs)), nil
	case NEQ:
		return BoolValue(!lhs.Equals(rhs)), nil
	case AND:
		return BoolValue(lhs.IsTrue() && rhs.IsTrue()), nil
	case OR:
		return BoolValue(lhs.IsTrue() || rhs.IsTrue()), nil
	}
	// Remaining operators are numeric only.
	l, err := lhs.Float()
	if err != nil {
		return Value{}, err
	}
	//
	r, err := rhs.Float()
	if err != nil {
		return Value{}, err
	}
	//
	switch e.Op {
	case ADD:
		return FloatValue(l + r), nil
	case SUB:
		return FloatValue(l - r), nil
	case MUL:
		return FloatValue(l * r), nil
	case DIV:
		return FloatValue(l / r), nil
	case LT:
		return BoolValue(l < r), nil
	case LEQ:
		return BoolValue(l <= r || lhs.Equals(rhs)), nil
	case GT:
		return BoolValue(l > r), nil
	case GEQ:
		return BoolValue(l >= r || lhs.Equals(rhs)), nil
	}
	//
	panic("unknown binary operator")
}

func (p *evaluator) evalSummation(e *Summation) (Value, error) {
	elements, err := p.env.Elements(e.Domain)
	if err != nil {
		return Value{}, err
	}
	//
	sum := 0.0
	//
	for _, element := range elements {
		f, err := p.evalBound(e.Var, element, e.Body)
		if err != nil {
			return Value{}, err
		}
		//
		sum += f
	}
	//
	return FloatValue(sum), nil
}

// evalBound evaluates an expression with one extra binding in scope,
// guaranteeing the binding is released on every exit path.
func (p *evaluator) evalBound(name string, value Value, body Expr) (float64, error) {
	release := p.env.Bind(name, value)
	defer release()
	//
	return p.evalFloat(body)
}

func (p *evaluator) evalDexprRef(e *DexprRef) (Value, error) {
	dexpr, ok := p.env.Dexpr(e.Name)
	if !ok {
		return Value{}, Errorf(UnboundName, "unknown decision expression %s", e.Name)
	}
	// Reject reference cycles.
	for _, name := range p.visiting {
		if name == e.Name {
			return Value{}, Errorf(CyclicDecisionExpression, "decision expression %s references itself", e.Name)
		}
	}
	//
	p.visiting = append(p.visiting, e.Name)
	defer func() { p.visiting = p.visiting[:len(p.visiting)-1] }()
	//
	switch {
	case dexpr.IndexVar == "" && e.Index == nil:
		f, err := p.evalFloat(dexpr.Body)
		return FloatValue(f), err
	case dexpr.IndexVar == "":
		return Value{}, Errorf(DimensionMismatch, "decision expression %s is not indexed", e.Name)
	case e.Index == nil:
		return Value{}, Errorf(DimensionMismatch, "decision expression %s requires an index", e.Name)
	}
	//
	index, err := p.eval(e.Index)
	if err != nil {
		return Value{}, err
	}
	//
	f, err := p.evalBound(dexpr.IndexVar, index, dexpr.Body)
	//
	return FloatValue(f), err
}

func (p *evaluator) evalItemLookup(e *ItemLookup) (Value, error) {
	keys, err := p.evalAll(e.Keys)
	if err != nil {
		return Value{}, err
	}
	//
	tuple, err := p.env.ItemByKey(e.Set, keys)
	if err != nil {
		return Value{}, err
	}
	//
	return TupleValue(tuple), nil
}

func (p *evaluator) evalAll(es []Expr) ([]Value, error) {
	values := make([]Value, len(es))
	//
	for i, e := range es {
		v, err := p.eval(e)
		if err != nil {
			return nil, err
		}
		//
		values[i] = v
	}
	//
	return values, nil
}
