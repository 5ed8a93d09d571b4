package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomCodeAlphabet(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := randomCode(8)
		require.NoError(t, err)
		assert.Len(t, code, 8)
		for _, r := range code {
			assert.True(t, strings.ContainsRune(codeAlphabet, r), "unexpected symbol %q", r)
		}
	}
}

func TestRandomCodeLengths(t *testing.T) {
	for _, length := range []int{6, 8, 12} {
		code, err := randomCode(length)
		require.NoError(t, err)
		assert.Len(t, code, length)
	}
}
