// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package xslices

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSliceWithValue(t *testing.T) {
	assert.Equal(t, []int{1, 1, 1}, SliceWithValue(3, 1))
	assert.Empty(t, SliceWithValue(0, "x"))
}

func TestMap(t *testing.T) {
	got := Map([]int{1, 2, 3}, func(v int) int64 { return int64(v * 2) })
	assert.Equal(t, []int64{2, 4, 6}, got)
}

func TestSliceFlag(t *testing.T) {
	f := &sliceFlag[int]{values: []int{7}, parserFn: strconv.Atoi}
	assert.Equal(t, "7", f.String())
	require.NoError(t, f.Set("1, 2,3"))
	assert.Equal(t, []int{1, 2, 3}, f.values)
	assert.Equal(t, "1,2,3", f.String())
	require.NoError(t, f.Set(""))
	assert.Empty(t, f.values)
	require.Error(t, f.Set("1,a"))
}
