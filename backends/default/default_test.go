// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package _default

import (
	"testing"

	"github.com/gomlx/opset/backends"
	"github.com/gomlx/opset/backends/memgraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultEngine(t *testing.T) {
	assert.Contains(t, backends.List(), memgraph.EngineName)
	engine, err := backends.NewWithConfig("")
	require.NoError(t, err)
	assert.Equal(t, memgraph.EngineName, engine.Name())
}
