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
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Epsilon is the tolerance used for all numeric equality tests.  Boolean
// values are represented as the doubles 0.0 / 1.0 under this tolerance.
const Epsilon = 1e-10

// ValueKind identifies the runtime kind of a value.
type ValueKind uint

const (
	// INT_VALUE signals an integer value.
	INT_VALUE ValueKind = iota
	// FLOAT_VALUE signals a floating-point value.
	FLOAT_VALUE
	// STRING_VALUE signals a string value.
	STRING_VALUE
	// TUPLE_VALUE signals a tuple instance bound to an iterator.
	TUPLE_VALUE
)

// Value is a runtime value produced by evaluating an expression, or bound to
// an iterator variable during expansion.  Values are immutable.
type Value struct {
	kind  ValueKind
	num   float64
	str   string
	tuple *Tuple
}

// IntValue constructs an integer value.
func IntValue(n int) Value {
	return Value{INT_VALUE, float64(n), "", nil}
}

// FloatValue constructs a floating-point value.
func FloatValue(f float64) Value {
	return Value{FLOAT_VALUE, f, "", nil}
}

// StringValue constructs a string value.
func StringValue(s string) Value {
	return Value{STRING_VALUE, 0, s, nil}
}

// TupleValue constructs a value holding a tuple instance.
func TupleValue(t *Tuple) Value {
	return Value{TUPLE_VALUE, 0, "", t}
}

// BoolValue constructs the double encoding (0.0 / 1.0) of a boolean.
func BoolValue(b bool) Value {
	if b {
		return FloatValue(1.0)
	}
	//
	return FloatValue(0.0)
}

// Kind returns the kind of this value.
func (v Value) Kind() ValueKind {
	return v.kind
}

// IsNumeric determines whether this value holds a number.
func (v Value) IsNumeric() bool {
	return v.kind == INT_VALUE || v.kind == FLOAT_VALUE
}

// Float returns the numeric payload of this value, failing for strings and
// tuples.
func (v Value) Float() (float64, error) {
	if v.IsNumeric() {
		return v.num, nil
	}
	//
	return 0, Errorf(TypeCoercionFailed, "cannot coerce %s to a number", v.String())
}

// Int returns the numeric payload rounded to the nearest integer, failing for
// non-numeric values.
func (v Value) Int() (int, error) {
	f, err := v.Float()
	if err != nil {
		return 0, err
	}
	//
	return int(math.Round(f)), nil
}

// Tuple returns the tuple instance held by this value (or nil).
func (v Value) Tuple() *Tuple {
	return v.tuple
}

// IsTrue determines whether this value encodes boolean truth (i.e. is a
// number further than Epsilon from zero).
func (v Value) IsTrue() bool {
	return v.IsNumeric() && math.Abs(v.num) > Epsilon
}

// Equals compares two values, applying the Epsilon tolerance for numbers.
func (v Value) Equals(o Value) bool {
	switch {
	case v.IsNumeric() && o.IsNumeric():
		return math.Abs(v.num-o.num) <= Epsilon
	case v.kind == STRING_VALUE && o.kind == STRING_VALUE:
		return v.str == o.str
	case v.kind == TUPLE_VALUE && o.kind == TUPLE_VALUE:
		return v.tuple == o.tuple
	}
	//
	return false
}

// Key returns the canonical form of this value for use within an index key
// (e.g. of a sparse parameter).  Integral floats render without a decimal
// point so that 1 and 1.0 address the same entry.
func (v Value) Key() string {
	switch v.kind {
	case INT_VALUE:
		return strconv.Itoa(int(v.num))
	case FLOAT_VALUE:
		if v.num == math.Trunc(v.num) && !math.IsInf(v.num, 0) {
			return strconv.Itoa(int(v.num))
		}
		//
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case STRING_VALUE:
		return v.str
	default:
		return v.tuple.Key()
	}
}

// String returns a printable form of this value.
func (v Value) String() string {
	switch v.kind {
	case STRING_VALUE:
		return fmt.Sprintf("%q", v.str)
	case TUPLE_VALUE:
		return v.tuple.String()
	default:
		return v.Key()
	}
}

// JoinKey produces the canonical joined index key for a sequence of values.
func JoinKey(values []Value) string {
	parts := make([]string, len(values))
	//
	for i, v := range values {
		parts[i] = v.Key()
	}
	//
	return strings.Join(parts, ",")
}

// ============================================================================
// Tuples
// ============================================================================

// Tuple is an immutable instance of tuple data conforming to a named schema.
// Field order follows the schema declaration.
type Tuple struct {
	schema string
	fields []string
	values map[string]Value
}

// NewTuple constructs a tuple instance from parallel field / value lists.
func NewTuple(schema string, fields []string, values []Value) *Tuple {
	if len(fields) != len(values) {
		panic("field / value arity mismatch")
	}
	//
	mapping := make(map[string]Value, len(fields))
	//
	for i, f := range fields {
		mapping[f] = values[i]
	}
	//
	return &Tuple{schema, fields, mapping}
}

// Schema returns the name of the schema this tuple conforms to.
func (t *Tuple) Schema() string {
	return t.schema
}

// Fields returns the ordered field names of this tuple.
func (t *Tuple) Fields() []string {
	return t.fields
}

// Field returns the value of a named field, if it exists.
func (t *Tuple) Field(name string) (Value, bool) {
	v, ok := t.values[name]
	return v, ok
}

// Key returns the canonical joined form of all field values.
func (t *Tuple) Key() string {
	parts := make([]string, len(t.fields))
	//
	for i, f := range t.fields {
		parts[i] = t.values[f].Key()
	}
	//
	return strings.Join(parts, ",")
}

// String returns the angle-bracketed printable form of this tuple.
func (t *Tuple) String() string {
	parts := make([]string, len(t.fields))
	//
	for i, f := range t.fields {
		parts[i] = t.values[f].String()
	}
	//
	return fmt.Sprintf("<%s>", strings.Join(parts, ","))
}
