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
	"strings"
)

// Format renders an expression back into (approximately) its source-level
// form.  Binary nodes are fully parenthesised, so the output is unambiguous
// rather than minimal.
func Format(e Expr) string {
	switch e := e.(type) {
	case *Constant:
		return e.Value.String()
	case *ParamRef:
		return e.Name
	case *IndexedParamRef:
		return formatIndexed(e.Name, e.Indices)
	case *VarRef:
		return e.Name
	case *IndexedVarRef:
		return formatIndexed(e.Name, e.Indices)
	case *FieldAccess:
		return fmt.Sprintf("%s.%s", Format(e.Base), e.Field)
	case *Binary:
		return fmt.Sprintf("(%s %s %s)", Format(e.Lhs), e.Op, Format(e.Rhs))
	case *Unary:
		return fmt.Sprintf("-%s", Format(e.Arg))
	case *Summation:
		return fmt.Sprintf("sum(%s in %s) %s", e.Var, e.Domain, Format(e.Body))
	case *DexprRef:
		if e.Index == nil {
			return e.Name
		}
		//
		return fmt.Sprintf("%s[%s]", e.Name, Format(e.Index))
	case *ItemLookup:
		keys := make([]string, len(e.Keys))
		for i, k := range e.Keys {
			keys[i] = Format(k)
		}
		//
		return fmt.Sprintf("item(%s,<%s>)", e.Set, strings.Join(keys, ","))
	}
	//
	panic("unknown expression kind")
}

func formatIndexed(name string, indices []Expr) string {
	var builder strings.Builder
	//
	builder.WriteString(name)
	//
	for _, index := range indices {
		fmt.Fprintf(&builder, "[%s]", Format(index))
	}
	//
	return builder.String()
}
