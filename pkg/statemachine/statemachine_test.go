package statemachine_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/stockroom/pkg/statemachine"
)

type state string

type event string

const (
	draft     state = "draft"
	inReview  state = "in_review"
	approved  state = "approved"
	submit    event = "submit"
	approve   event = "approve"
	reject    event = "reject"
	unrelated event = "unrelated"
)

func reviewTable() []statemachine.Transition[state, event] {
	return []statemachine.Transition[state, event]{
		{From: draft, To: inReview, Event: submit},
		{From: inReview, To: approved, Event: approve},
		{From: inReview, To: draft, Event: reject},
	}
}

func TestMachine_Fire(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("follows table", func(t *testing.T) {
		t.Parallel()
		m := statemachine.MustNew[state, event](draft, statemachine.WithTable(reviewTable()))
		assert.Equal(t, draft, m.Current())

		next, err := m.Fire(ctx, submit)
		require.NoError(t, err)
		assert.Equal(t, inReview, next)

		next, err = m.Fire(ctx, approve)
		require.NoError(t, err)
		assert.Equal(t, approved, next)
		assert.True(t, m.Is(approved, draft))
		assert.False(t, m.Is(inReview))
	})

	t.Run("unknown event keeps state", func(t *testing.T) {
		t.Parallel()
		m := statemachine.MustNew[state, event](draft, statemachine.WithTable(reviewTable()))

		cur, err := m.Fire(ctx, unrelated)
		require.Error(t, err)
		assert.True(t, statemachine.IsNoTransition(err))
		assert.False(t, statemachine.IsRejected(err))
		assert.Equal(t, draft, cur)
		assert.Equal(t, draft, m.Current())
		assert.Contains(t, err.Error(), "draft")
		assert.Contains(t, err.Error(), "unrelated")
	})

	t.Run("reset and force", func(t *testing.T) {
		t.Parallel()
		m := statemachine.MustNew[state, event](draft, statemachine.WithTable(reviewTable()))
		m.Force(approved)
		assert.Equal(t, approved, m.Current())
		m.Reset()
		assert.Equal(t, draft, m.Current())
	})
}

func TestMachine_Guards(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	allow := false
	m := statemachine.MustNew[state, event](draft,
		statemachine.WithTransition[state, event](draft, inReview, submit,
			statemachine.WithGuard[state, event](func(context.Context, state, event) bool { return allow }),
		),
		statemachine.WithTransition[state, event](draft, approved, approve),
	)

	assert.False(t, m.CanFire(ctx, submit))
	_, err := m.Fire(ctx, submit)
	assert.True(t, statemachine.IsRejected(err))

	allow = true
	assert.True(t, m.CanFire(ctx, submit))
	next, err := m.Fire(ctx, submit)
	require.NoError(t, err)
	assert.Equal(t, inReview, next)
}

func TestMachine_GuardPriority(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	m := statemachine.MustNew[state, event](inReview,
		statemachine.WithTransition[state, event](inReview, approved, approve,
			statemachine.WithGuard[state, event](func(context.Context, state, event) bool { return false }),
		),
		statemachine.WithTransition[state, event](inReview, draft, approve),
	)

	next, err := m.Fire(ctx, approve)
	require.NoError(t, err)
	assert.Equal(t, draft, next)
}

func TestMachine_Actions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("runs in order", func(t *testing.T) {
		t.Parallel()
		var calls []string
		m := statemachine.MustNew[state, event](draft,
			statemachine.WithTransition[state, event](draft, inReview, submit,
				statemachine.WithAction[state, event](func(_ context.Context, from, to state, _ event) error {
					calls = append(calls, string(from)+"->"+string(to))
					return nil
				}),
				statemachine.WithAction[state, event](func(context.Context, state, state, event) error {
					calls = append(calls, "second")
					return nil
				}),
			),
		)

		_, err := m.Fire(ctx, submit)
		require.NoError(t, err)
		assert.Equal(t, []string{"draft->in_review", "second"}, calls)
	})

	t.Run("failure aborts", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("boom")
		m := statemachine.MustNew[state, event](draft,
			statemachine.WithTransition[state, event](draft, inReview, submit,
				statemachine.WithAction[state, event](func(context.Context, state, state, event) error { return boom }),
			),
		)

		_, err := m.Fire(ctx, submit)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, draft, m.Current())
	})
}

func TestNew_EmptyTable(t *testing.T) {
	t.Parallel()

	_, err := statemachine.New[state, event](draft, statemachine.WithTable[state, event](nil))
	assert.ErrorIs(t, err, statemachine.ErrEmptyTable)

	assert.Panics(t, func() {
		statemachine.MustNew[state, event](draft, statemachine.WithTable[state, event](nil))
	})
}

func TestMachine_Concurrent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	m := statemachine.MustNew[state, event](draft, statemachine.WithTable(reviewTable()))

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = m.Fire(ctx, submit)
			_, _ = m.Fire(ctx, reject)
		}()
		go func() {
			defer wg.Done()
			_ = m.Current()
			_ = m.CanFire(ctx, approve)
		}()
	}
	wg.Wait()

	assert.True(t, m.Is(draft, inReview))
}
