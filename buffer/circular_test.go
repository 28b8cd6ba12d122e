package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircular_PushWithinCapacity(t *testing.T) {
	c := NewCircular[int](4)
	c.Push(1)
	c.Push(2)
	c.Push(3)

	require.Equal(t, 3, c.Len())
	assert.Equal(t, []int{1, 2, 3}, c.All())
}

func TestCircular_OverflowOverwritesOldest(t *testing.T) {
	c := NewCircular[int](3)
	c.Push(1)
	c.Push(2)
	c.Push(3)
	c.Push(4) // overwrites 1
	c.Push(5) // overwrites 2

	assert.Equal(t, 3, c.Len())
	assert.Equal(t, []int{3, 4, 5}, c.All())
}

func TestCircular_NeverPanicsOnOverflow(t *testing.T) {
	c := NewCircular[string](2)
	assert.NotPanics(t, func() {
		for i := 0; i < 100; i++ {
			c.Push("x")
		}
	})
	assert.Equal(t, 2, c.Len())
}

func TestCircular_Recent(t *testing.T) {
	c := NewCircular[int](5)
	for i := 1; i <= 5; i++ {
		c.Push(i)
	}

	assert.Equal(t, []int{4, 5}, c.Recent(2))
	assert.Equal(t, []int{1, 2, 3, 4, 5}, c.Recent(10))
	assert.Equal(t, []int{}, c.Recent(0))
}

func TestCircular_ClearResetsWithoutChangingCapacity(t *testing.T) {
	c := NewCircular[int](3)
	c.Push(1)
	c.Push(2)
	c.Clear()

	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 3, c.Capacity())
	assert.Empty(t, c.All())

	c.Push(9)
	assert.Equal(t, []int{9}, c.All())
}

func TestCircular_ZeroOrNegativeCapacityNormalizedToOne(t *testing.T) {
	c := NewCircular[int](0)
	assert.Equal(t, 1, c.Capacity())

	c2 := NewCircular[int](-5)
	assert.Equal(t, 1, c2.Capacity())
}
