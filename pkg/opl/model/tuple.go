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

// FieldType identifies the declared type of a tuple field.
type FieldType uint

const (
	// INT_FIELD signals an integer field.
	INT_FIELD FieldType = iota
	// FLOAT_FIELD signals a floating-point field.
	FLOAT_FIELD
	// STRING_FIELD signals a string field.
	STRING_FIELD
)

// Field is one (name, type) pair of a tuple schema, optionally marked as a
// key field.
type Field struct {
	// Name of this field.
	Name string
	// Type of this field.
	Type FieldType
	// Key marks this field as part of the schema key.
	Key bool
}

// TupleSchema describes the shape shared by all instances of a tuple set: an
// ordered field list, of which an ordered subset forms the key.
type TupleSchema struct {
	name   string
	fields []Field
}

// NewTupleSchema constructs a schema, rejecting duplicate field names.
func NewTupleSchema(name string, fields []Field) (*TupleSchema, error) {
	seen := make(map[string]bool, len(fields))
	//
	for _, f := range fields {
		if seen[f.Name] {
			return nil, fmt.Errorf("duplicate field %s in tuple %s", f.Name, name)
		}
		//
		seen[f.Name] = true
	}
	//
	return &TupleSchema{name, fields}, nil
}

// Name returns the declared name of this schema.
func (p *TupleSchema) Name() string {
	return p.name
}

// Fields returns the ordered fields of this schema.
func (p *TupleSchema) Fields() []Field {
	return p.fields
}

// FieldNames returns the ordered field names of this schema.
func (p *TupleSchema) FieldNames() []string {
	names := make([]string, len(p.fields))
	//
	for i, f := range p.fields {
		names[i] = f.Name
	}
	//
	return names
}

// KeyFields returns the names of the key fields, in declaration order.
func (p *TupleSchema) KeyFields() []string {
	var keys []string
	//
	for _, f := range p.fields {
		if f.Key {
			keys = append(keys, f.Name)
		}
	}
	//
	return keys
}

// ============================================================================
// TupleSet
// ============================================================================

// TupleSet is an ordered collection of tuple instances conforming to one
// schema.  Instances are enumerated in insertion order.
type TupleSet struct {
	name      string
	schema    *TupleSchema
	instances []*ast.Tuple
	// External marks a set whose instances are supplied by the data-loading
	// collaborator after declaration.
	external bool
}

// NewTupleSet constructs an (initially empty) tuple set over a given schema.
func NewTupleSet(name string, schema *TupleSchema, external bool) *TupleSet {
	return &TupleSet{name, schema, nil, external}
}

// IsExternal determines whether this set's instances are supplied externally.
func (p *TupleSet) IsExternal() bool {
	return p.external
}

// Name returns the declared name of this domain.
func (p *TupleSet) Name() string {
	return p.name
}

// Schema returns the schema of this tuple set.
func (p *TupleSet) Schema() *TupleSchema {
	return p.schema
}

// Add appends a tuple instance constructed from ordered field values.
func (p *TupleSet) Add(values []ast.Value) error {
	if len(values) != len(p.schema.fields) {
		return ast.Errorf(ast.DimensionMismatch,
			"tuple %s has %d fields, got %d values", p.schema.name, len(p.schema.fields), len(values))
	}
	//
	p.instances = append(p.instances, ast.NewTuple(p.schema.name, p.schema.FieldNames(), values))
	//
	return nil
}

// Elements returns the tuple instances, in insertion order.
func (p *TupleSet) Elements(env ast.Environment) ([]ast.Value, error) {
	elements := make([]ast.Value, len(p.instances))
	//
	for i, instance := range p.instances {
		elements[i] = ast.TupleValue(instance)
	}
	//
	return elements, nil
}

// ItemByKey resolves the tuple instance whose key-field values (in schema key
// order) equal the given key values.  When a composite key matches more than
// one instance the first match in set order wins.
func (p *TupleSet) ItemByKey(keys []ast.Value) (*ast.Tuple, error) {
	keyFields := p.schema.KeyFields()
	//
	if len(keys) != len(keyFields) {
		return nil, ast.Errorf(ast.DimensionMismatch,
			"set %s is keyed on %d fields, got %d keys", p.name, len(keyFields), len(keys))
	}
	//
	for _, instance := range p.instances {
		if tupleMatches(instance, keyFields, keys) {
			return instance, nil
		}
	}
	//
	return nil, ast.Errorf(ast.KeyLookupFailed,
		"no tuple in %s with key <%s>", p.name, ast.JoinKey(keys))
}

func tupleMatches(instance *ast.Tuple, keyFields []string, keys []ast.Value) bool {
	for i, field := range keyFields {
		v, ok := instance.Field(field)
		if !ok || !v.Equals(keys[i]) {
			return false
		}
	}
	//
	return true
}
