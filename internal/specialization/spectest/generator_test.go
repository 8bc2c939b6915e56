package spectest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/specnode/internal/typesystem"
)

// fallbackData generates s0(Int)[fragile] rewriteOn ErrGenerated, s1(Int)
// and an all-Any Generic.
var fallbackData = []byte{0, 0, 0, 0, 1, 0, 1, 2, 0, 0, 0, 0, 1}

func TestGeneratorDeclaresFallbackErrors(t *testing.T) {
	op := NewFromData(fallbackData).Operation()
	require.Len(t, op.Descriptors, 3)

	s0 := op.Descriptors[0]
	assert.Equal(t, []typesystem.TCon{typesystem.Int}, []typesystem.TCon(s0.Signature))
	require.Len(t, s0.Guards, 1)
	assert.Equal(t, "fragile", s0.Guards[0].Predicate.Name)
	assert.False(t, s0.Guards[0].Negated)
	assert.True(t, s0.RewritesOn(ErrGenerated))

	assert.Empty(t, op.Descriptors[1].Guards)
	assert.Empty(t, op.Descriptors[1].RewriteOn)
	assert.True(t, op.Descriptors[2].IsGeneric())
}

func TestFragile(t *testing.T) {
	tests := []struct {
		value any
		want  bool
		err   error
	}{
		{-3, false, ErrGenerated},
		{-0.5, false, ErrGenerated},
		{0, true, nil},
		{1, false, nil},
		{12, true, nil},
		{2.5, true, nil},
		{"a", true, nil},
	}
	for _, tt := range tests {
		got, err := fragile([]any{tt.value})
		if tt.err != nil {
			assert.ErrorIs(t, err, tt.err, "fragile(%v)", tt.value)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "fragile(%v)", tt.value)
	}
}
