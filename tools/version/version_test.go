/*
Copyright (c) 2019-2021 Andreas T Jonsson

This software is provided 'as-is', without any express or implied
warranty. In no event will the authors be held liable for any damages
arising from the use of this software.

Permission is granted to anyone to use this software for any purpose,
including commercial applications, and to alter it and redistribute it
freely, subject to the following restrictions:

1. The origin of this software must not be misrepresented; you must not
   claim that you wrote the original software. If you use this software
   in a product, an acknowledgment in the product documentation would be
   appreciated but is not required.
2. Altered source versions must be plainly marked as such, and must not be
   misrepresented as being the original software.
3. This notice may not be removed or altered from any source distribution.
*/

package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersion(t *testing.T) {
	parts, err := parseVersion("1.2.3.0")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3", ""}, parts)

	parts, err = parseVersion("1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, "4", parts[3])

	_, err = parseVersion("1.2")
	assert.Error(t, err)
}

func TestGenerate(t *testing.T) {
	assert.Equal(t, "Copyright (c) 2019 Andreas T Jonsson", copyright(2019))

	var buf bytes.Buffer
	require.NoError(t, generate(&buf, map[string]interface{}{
		"hash": "abc", "major": "0", "minor": "1", "patch": "2", "build": "",
		"copy": copyright(2021), "pkg": "version",
	}))
	assert.Contains(t, buf.String(), "Copyright (c) 2019-2021 Andreas T Jonsson")
	assert.Contains(t, buf.String(), `Current   = Version{0, 1, 2, ""}`)
	assert.Contains(t, buf.String(), `Hash      = "abc"`)
	assert.Contains(t, buf.String(), "package version")
}
