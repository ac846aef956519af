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

// Dexpr describes a named decision expression: its body and, when the
// declaration is indexed, the iterator variable the body is written over.
type Dexpr struct {
	// Name of the decision expression.
	Name string
	// IndexVar is the iterator variable of an indexed declaration (empty
	// otherwise).
	IndexVar string
	// Domain the index ranges over (empty when not indexed).
	IndexDomain string
	// Body is the underlying expression.
	Body Expr
}

// Environment supplies every named entity an expression may reference during
// evaluation: iterator bindings, parameters, decision variables, decision
// expressions, domains and tuple sets.  The registry together with the
// binding stack of the active expansion implements this interface.
type Environment interface {
	// Bound returns the value currently bound to an iterator variable, if
	// any.
	Bound(name string) (Value, bool)
	// Bind pushes an iterator binding, returning a release function which
	// must be invoked (typically via defer) when the binding goes out of
	// scope.  Bindings shadow parameters of the same name.
	Bind(name string, value Value) func()
	// Bindings returns the active bindings, outermost first, in "name=value"
	// form.  Used to attach iteration context to failures.
	Bindings() []string
	// ParamValue returns the value of a named parameter at the given indices
	// (empty for a scalar access).
	ParamValue(name string, indices []Value) (Value, error)
	// IsParameter determines whether a name declares a parameter.
	IsParameter(name string) bool
	// IsVariable determines whether a name declares a decision variable.
	IsVariable(name string) bool
	// Dexpr returns the named decision expression, if declared.
	Dexpr(name string) (*Dexpr, bool)
	// Elements resolves a named domain to its ordered elements.
	Elements(domain string) ([]Value, error)
	// ItemByKey resolves the tuple instance of a named tuple set whose key
	// fields match the given values.
	ItemByKey(set string, keys []Value) (*Tuple, error)
}
