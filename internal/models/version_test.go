package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		segments    []int
		pre         string
		semantic    bool
		expectError bool
	}{
		{name: "standard semantic version", input: "2.1.0", segments: []int{2, 1, 0}, semantic: true},
		{name: "v prefix", input: "v2.1.0", segments: []int{2, 1, 0}, semantic: true},
		{name: "uppercase v prefix", input: "V2.1.0", segments: []int{2, 1, 0}, semantic: true},
		{name: "partial version", input: "2.1", segments: []int{2, 1, 0}, semantic: true},
		{name: "pre-release", input: "2.1.0-beta.1", segments: []int{2, 1, 0}, pre: "beta.1", semantic: true},
		{name: "uppercase pre-release", input: "2.1.0-RC1", segments: []int{2, 1, 0}, pre: "rc1", semantic: true},
		{name: "four segments", input: "2.1.0.4", segments: []int{2, 1, 0, 4}},
		{name: "four segments with pre-release", input: "2.1.0.4-beta", segments: []int{2, 1, 0, 4}, pre: "beta"},
		{name: "surrounding whitespace", input: "  2.1.0 ", segments: []int{2, 1, 0}, semantic: true},
		{name: "empty", input: "", expectError: true},
		{name: "blank", input: "   ", expectError: true},
		{name: "garbage", input: "latest", expectError: true},
		{name: "non-numeric segment", input: "2.x.0.1", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ParseVersion(tt.input)
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, v)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.segments, v.segments)
			assert.Equal(t, tt.pre, v.pre)
			assert.Equal(t, tt.semantic, v.sem != nil)
		})
	}
}

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		a, b     string
		expected int
	}{
		{"2.0.9", "2.1.0", -1},
		{"2.10.0", "2.1.0", 1},
		{"2.1.0", "2.1.0", 0},
		{"v2.1.0", "2.1.0", 0},
		{"V2.1.0", "v2.1.0", 0},
		{"2.1", "2.1.0", 0},
		{"2.1.0-beta", "2.1.0", -1},
		{"2.1.0-alpha", "2.1.0-beta", -1},
		{"2.1.0+build.9", "2.1.0", 0},
		{"2.1.0.1", "2.1.0", 1},
		{"2.1.0.0", "2.1.0", 0},
		{"2.0.9.99", "2.1.0", -1},
		{"10.0.0", "9.99.99", 1},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_vs_"+tt.b, func(t *testing.T) {
			got, err := CompareVersions(tt.a, tt.b)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)

			reverse, err := CompareVersions(tt.b, tt.a)
			require.NoError(t, err)
			assert.Equal(t, -tt.expected, reverse)
		})
	}
}

func TestCompareVersions_Invalid(t *testing.T) {
	_, err := CompareVersions("abc", "2.1.0")
	assert.Error(t, err)

	_, err = CompareVersions("2.1.0", "")
	assert.Error(t, err)
}

func TestVersion_LessThan(t *testing.T) {
	older, err := ParseVersion("2.0.9")
	require.NoError(t, err)
	minimum, err := ParseVersion("2.1.0")
	require.NoError(t, err)

	assert.True(t, older.LessThan(minimum))
	assert.False(t, minimum.LessThan(older))
	assert.False(t, minimum.LessThan(minimum))
	assert.True(t, minimum.Equal(minimum))
	assert.Equal(t, "2.0.9", older.String())
}
