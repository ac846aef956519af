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

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies the failures which can arise during evaluation,
// expansion or linearization.
type ErrorKind uint

const (
	// DomainNotFound signals a name which resolves to no known domain.
	DomainNotFound ErrorKind = iota
	// MissingOuterIndex signals resolution of an outer-indexed computed set
	// without the outer iterator bound.
	MissingOuterIndex
	// UnboundName signals a name which is neither bound nor declared.
	UnboundName
	// DimensionMismatch signals an indexed access with the wrong arity.
	DimensionMismatch
	// MissingIndexedValue signals a declared but unset indexed entry.
	MissingIndexedValue
	// NonScalarParameter signals an indexed parameter evaluated without
	// indices.
	NonScalarParameter
	// NonLinearTerm signals an expression outside the affine fragment.
	NonLinearTerm
	// CyclicDecisionExpression signals a reference cycle between decision
	// expressions.
	CyclicDecisionExpression
	// KeyLookupFailed signals an item() lookup matching no tuple.
	KeyLookupFailed
	// UnknownField signals access to a field absent from a tuple schema.
	UnknownField
	// TypeCoercionFailed signals a value used at the wrong type.
	TypeCoercionFailed
)

// String returns the symbolic name of this error kind.
func (k ErrorKind) String() string {
	switch k {
	case DomainNotFound:
		return "DomainNotFound"
	case MissingOuterIndex:
		return "MissingOuterIndex"
	case UnboundName:
		return "UnboundName"
	case DimensionMismatch:
		return "DimensionMismatch"
	case MissingIndexedValue:
		return "MissingIndexedValue"
	case NonScalarParameter:
		return "NonScalarParameter"
	case NonLinearTerm:
		return "NonLinearTerm"
	case CyclicDecisionExpression:
		return "CyclicDecisionExpression"
	case KeyLookupFailed:
		return "KeyLookupFailed"
	case UnknownField:
		return "UnknownField"
	case TypeCoercionFailed:
		return "TypeCoercionFailed"
	}
	//
	return "UnknownError"
}

// Error is a typed compilation failure.  It optionally carries the iterator
// bindings which were active when the failure arose, for diagnosability.
type Error struct {
	// Kind of this failure.
	Kind ErrorKind
	// Human-readable message.
	Msg string
	// Active iterator bindings (e.g. "i=1") at the point of failure.
	Bindings []string
}

// Errorf constructs a typed failure with a formatted message.
func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{kind, fmt.Sprintf(format, args...), nil}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.Bindings) == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	//
	return fmt.Sprintf("%s: %s [%s]", e.Kind, e.Msg, strings.Join(e.Bindings, ","))
}

// WithBindings attaches the active iterator bindings to this failure,
// returning the failure itself.
func (e *Error) WithBindings(bindings []string) *Error {
	e.Bindings = bindings
	return e
}

// IsKind determines whether a given error is a typed failure of the given
// kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	//
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	//
	return false
}
