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
package cmd

import (
	"testing"

	"github.com/consensys/go-opaline/pkg/opl/compiler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ModelLines_01(t *testing.T) {
	comp := compiler.New()
	require.NoError(t, comp.CompileModel(`
		range I = 1..2;
		dvar float x[I];
		minimize obj: x[1] + x[2];
		forall(i in I) cap: x[i] <= 1;`))
	//
	lines := modelLines(comp)
	require.Len(t, lines, 4)
	// objective first, then one line per equation, then the count
	assert.Contains(t, lines[0], "minimize")
	assert.Contains(t, lines[1], "cap[1]: ")
	assert.Contains(t, lines[2], "cap[2]: ")
	assert.Equal(t, "2 equations", lines[3])
}

func Test_Clip_01(t *testing.T) {
	assert.Equal(t, "abc", clip("abc", 10))
	assert.Equal(t, "abcdefg...", clip("abcdefghijkl", 10))
	assert.Equal(t, "ab...", clip("abcdefgh", 5))
	// too narrow to mark a cut
	assert.Equal(t, "abcdefgh", clip("abcdefgh", 3))
}
