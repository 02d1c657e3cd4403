package scheduler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiihann/deferbench/deferred"
)

func deferShape(c *Context, x any) (any, error) {
	return c.Defer(x), nil
}

func TestDeferModes(t *testing.T) {
	c := NewContext()

	d := c.Defer(3)
	assert.True(t, d.Called(), "pre-resolved mode returns resolved units")
	assert.Zero(t, c.Pending())

	c.blocked = true
	d = c.Defer(3)
	assert.False(t, d.Called(), "blocked mode returns pending units")
	assert.Equal(t, 1, c.Pending())
}

func TestRunTrialCountsCallbacks(t *testing.T) {
	for _, blocked := range []bool{false, true} {
		c := NewContext()
		calls := 0

		fn := ShapeFunc(func(c *Context, x any) (any, error) {
			calls++
			return c.Defer(x), nil
		}).Bind(c)

		err := c.RunTrial(fn, 25, blocked, func(err error) {
			t.Fatalf("unexpected failure: %v", err)
		})
		require.NoError(t, err)
		assert.Equal(t, 25, calls, "blocked=%v", blocked)
		assert.Zero(t, c.Pending(), "blocked=%v", blocked)
		assert.False(t, c.Blocked())
	}
}

func TestRunTrialBlockedDrainsFIFO(t *testing.T) {
	c := NewContext()
	var order []int

	fn := ShapeFunc(func(c *Context, x any) (any, error) {
		for i := 0; i < 3; i++ {
			c.Defer(i).AddCallback(func(v any) (any, error) {
				order = append(order, v.(int))
				return v, nil
			})
		}
		return x, nil
	}).Bind(c)

	require.NoError(t, c.RunTrial(fn, 2, true, nil))
	assert.Equal(t, []int{0, 1, 2, 0, 1, 2}, order)
	assert.Zero(t, c.Pending())
}

func TestRunTrialZeroCallbacks(t *testing.T) {
	c := NewContext()
	fn := ShapeFunc(deferShape).Bind(c)

	for _, blocked := range []bool{true, false} {
		require.NoError(t, c.RunTrial(fn, 0, blocked, nil))
		assert.Zero(t, c.Pending())
	}
}

func TestRunTrialFailureReachesSink(t *testing.T) {
	c := NewContext()
	boom := errors.New("boom")

	fn := ShapeFunc(func(*Context, any) (any, error) { return nil, boom }).Bind(c)

	var got []error
	err := c.RunTrial(fn, 10, false, func(err error) { got = append(got, err) })
	require.NoError(t, err)
	require.Len(t, got, 1, "a failure short-circuits the rest of the chain")
	assert.ErrorIs(t, got[0], boom)
}

func TestRunTrialPanicReachesSink(t *testing.T) {
	c := NewContext()
	fn := ShapeFunc(func(*Context, any) (any, error) { panic("bad shape") }).Bind(c)

	var got error
	require.NoError(t, c.RunTrial(fn, 3, true, func(err error) { got = err }))

	var pe *deferred.PanicError
	require.ErrorAs(t, got, &pe)
	assert.Zero(t, c.Pending())
}

func TestRunTrialStalled(t *testing.T) {
	c := NewContext()
	never := deferred.New()

	fn := ShapeFunc(func(*Context, any) (any, error) { return never, nil }).Bind(c)

	err := c.RunTrial(fn, 2, false, nil)
	assert.ErrorIs(t, err, ErrStalled)
	assert.Zero(t, c.Pending())
}

func TestRunTrialNoLeakBetweenTrials(t *testing.T) {
	c := NewContext()
	fn := ShapeFunc(deferShape).Bind(c)

	require.NoError(t, c.RunTrial(fn, 5, true, nil))
	assert.Zero(t, c.Pending())

	calls := 0
	probe := ShapeFunc(func(c *Context, x any) (any, error) {
		calls++
		assert.Zero(t, c.Pending(), "no residue from the previous trial")
		return x, nil
	}).Bind(c)

	require.NoError(t, c.RunTrial(probe, 1, false, nil))
	assert.Equal(t, 1, calls)
}
