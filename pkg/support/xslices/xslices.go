// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package xslices provide missing functionality to the slices package.
package xslices

import (
	"flag"
	"fmt"
	"strings"
)

// SliceWithValue creates a slice of given size filled with given value.
func SliceWithValue[T any](size int, value T) []T {
	s := make([]T, size)
	for ii := range s {
		s[ii] = value
	}
	return s
}

// Map executes the given function sequentially for every element on in, and returns a mapped slice.
func Map[In, Out any](in []In, fn func(e In) Out) (out []Out) {
	out = make([]Out, len(in))
	for ii, e := range in {
		out[ii] = fn(e)
	}
	return
}

// Flag creates a flag for []T with the given name, description and default value: the values are given
// separated by commas. It takes as input a parser for an individual T value.
func Flag[T any](name string, defaultValue []T, usage string, parserFn func(valueStr string) (T, error)) *[]T {
	f := &sliceFlag[T]{values: defaultValue, parserFn: parserFn}
	flag.Var(f, name, usage)
	return &f.values
}

// sliceFlag implements flag.Value for a list of T.
type sliceFlag[T any] struct {
	values   []T
	parserFn func(valueStr string) (T, error)
}

func (f *sliceFlag[T]) String() string {
	if f == nil || len(f.values) == 0 {
		return ""
	}
	return strings.Join(Map(f.values, func(v T) string { return fmt.Sprint(v) }), ",")
}

func (f *sliceFlag[T]) Set(listStr string) error {
	values := make([]T, 0)
	if listStr != "" {
		for _, part := range strings.Split(listStr, ",") {
			v, err := f.parserFn(strings.TrimSpace(part))
			if err != nil {
				return err
			}
			values = append(values, v)
		}
	}
	f.values = values
	return nil
}
