package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/specnode/internal/grouping"
	"github.com/funvibe/specnode/internal/resolver"
	"github.com/funvibe/specnode/internal/specialization/spectest"
)

// FuzzNodeInvariants drives nodes of generated operations with generated
// calls and checks that the chain stays within its bound and that repeating
// a call never rewrites. Guard errors nobody declared as a fallback surface
// from Execute and are skipped.
func FuzzNodeInvariants(f *testing.F) {
	f.Add([]byte("seed"), uint8(0))
	f.Add([]byte{1, 0, 0, 3, 2, 1, 0, 5, 1, 7, 3, 2, 9, 4}, uint8(2))
	f.Add([]byte{0, 3, 0, 1, 2, 5, 3, 0, 1, 8, 6, 2, 3, 1, 7}, uint8(1))

	f.Fuzz(func(t *testing.T, data []byte, limit uint8) {
		if len(data) > 256 {
			return
		}
		ctx := context.Background()
		gen := spectest.NewFromData(data)
		op := gen.Operation()
		res, errs := resolver.Resolve(op, resolver.Options{PolymorphicLimit: int(limit % 4)})
		if len(errs) > 0 {
			return
		}
		tree, err := grouping.Build(res)
		if err != nil {
			t.Fatal(err)
		}
		node := NewNode(res, Options{Tree: tree})
		bound := max(res.DepthBound, 1)

		for i := 0; i < 12; i++ {
			args := gen.Args(op.Arity)
			if _, err := node.Execute(ctx, args...); err != nil {
				if errors.Is(err, spectest.ErrGenerated) {
					continue
				}
				var noMatch *NoMatchError
				if !errors.As(err, &noMatch) {
					t.Fatalf("Execute(%v): %v", args, err)
				}
				if res.Generic != nil && !res.Generic.Synthetic {
					t.Fatalf("Execute(%v) found no match despite a declared Generic", args)
				}
				continue
			}
			if n := node.Shape().Len(); n > bound {
				t.Fatalf("chain length %d exceeds bound %d: %s", n, bound, node.Shape())
			}

			before := node.Rewrites()
			if _, err := node.Execute(ctx, args...); err != nil {
				t.Fatalf("repeated Execute(%v): %v", args, err)
			}
			if after := node.Rewrites(); after != before {
				t.Fatalf("repeated Execute(%v) rewrote the node: %s", args, node.Shape())
			}
		}
	})
}

func TestGeneratedFallbackGuard(t *testing.T) {
	// s0(Int)[fragile] rewriteOn ErrGenerated, s1(Int), Generic(Any)
	data := []byte{0, 0, 0, 0, 1, 0, 1, 2, 0, 0, 0, 0, 1}

	bothSelectors(t, func(t *testing.T, tree bool) {
		ctx := context.Background()
		node := newNode(t, spectest.NewFromData(data).Operation(), nodeOptions{tree: tree})

		got, err := node.Execute(ctx, 12)
		require.NoError(t, err)
		assert.Equal(t, "s0[12]", got)

		got, err = node.Execute(ctx, -3)
		require.NoError(t, err)
		assert.Equal(t, "s1[-3]", got)
		s0, _ := node.Resolution().Lookup("S0")
		assert.True(t, node.Excluded(s0))
		assert.Equal(t, []string{"S1"}, node.Active())

		rewrites := node.Rewrites()
		_, err = node.Execute(ctx, -3)
		require.NoError(t, err)
		assert.Equal(t, rewrites, node.Rewrites())
	})
}
