package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatrixSetAt(t *testing.T) {
	m := New(3, 2)
	m.Set(0, 0, 1)
	m.Set(1, 2, 5)
	assert.Equal(t, 1.0, m.At(0, 0))
	assert.Equal(t, 5.0, m.At(1, 2))
	assert.Equal(t, 0.0, m.At(0, 1))
}

func TestMatrixSwapRows(t *testing.T) {
	m := New(2, 2)
	m.Set(0, 0, 1)
	m.Set(0, 1, 2)
	m.Set(1, 0, 3)
	m.Set(1, 1, 4)

	m.SwapRows(0, 1)

	assert.Equal(t, 3.0, m.At(0, 0))
	assert.Equal(t, 4.0, m.At(0, 1))
	assert.Equal(t, 1.0, m.At(1, 0))
	assert.Equal(t, 2.0, m.At(1, 1))
}

func TestMatrixScaleRowNoopAtOne(t *testing.T) {
	m := New(2, 1)
	m.Set(0, 0, 3)
	m.Set(0, 1, 4)
	m.ScaleRow(0, 1)
	assert.Equal(t, 3.0, m.At(0, 0))
	assert.Equal(t, 4.0, m.At(0, 1))
}

func TestMatrixScaleRow(t *testing.T) {
	m := New(2, 1)
	m.Set(0, 0, 3)
	m.Set(0, 1, 4)
	m.ScaleRow(0, 2)
	assert.Equal(t, 6.0, m.At(0, 0))
	assert.Equal(t, 8.0, m.At(0, 1))
}

func TestMatrixInvScaleRow(t *testing.T) {
	m := New(2, 1)
	m.Set(0, 0, 6)
	m.Set(0, 1, 8)
	m.InvScaleRow(0, 2)
	assert.Equal(t, 3.0, m.At(0, 0))
	assert.Equal(t, 4.0, m.At(0, 1))
}

func TestMatrixReduce(t *testing.T) {
	m := New(2, 2)
	m.Set(0, 0, 1)
	m.Set(0, 1, 2)
	m.Set(1, 0, 10)
	m.Set(1, 1, 20)

	m.Reduce(0, 1, -1) // row0 -= row1

	assert.Equal(t, -9.0, m.At(0, 0))
	assert.Equal(t, -18.0, m.At(0, 1))
}

func TestMatrixScaleReduceEliminatesPivotColumn(t *testing.T) {
	m := New(3, 2)
	// row0: [2, 4, 6], row1 (pivot row, already normalized): [1, 0, 3]
	m.Set(0, 0, 2)
	m.Set(0, 1, 4)
	m.Set(0, 2, 6)
	m.Set(1, 0, 1)
	m.Set(1, 1, 0)
	m.Set(1, 2, 3)

	m.ScaleReduce(0, 1, 0)

	assert.Equal(t, 0.0, m.At(0, 0))
	assert.Equal(t, 4.0, m.At(0, 1))
	assert.Equal(t, 0.0, m.At(0, 2)) // 6 - 1*2*3 = 0
}

func TestMatrixScaleReduceCancellationTruncation(t *testing.T) {
	m := New(2, 2)
	// Eliminating column 0 computes 0.3 - 0.1*3 in column 1, which in
	// float64 leaves a round-off residual of about -5.6e-17.
	m.Set(0, 0, 3)
	m.Set(0, 1, 0.3)
	m.Set(1, 0, 1)
	m.Set(1, 1, 0.1)

	m.ScaleReduce(0, 1, 0)

	assert.Equal(t, 0.0, m.At(0, 1), "residual round-off must be truncated to exact zero")
}

func TestMatrixCloneIsIndependent(t *testing.T) {
	m := New(2, 1)
	m.Set(0, 0, 1)
	clone := m.Clone()
	clone.Set(0, 0, 99)
	assert.Equal(t, 1.0, m.At(0, 0))
	assert.Equal(t, 99.0, clone.At(0, 0))
}

func TestMatrixResetZeroesAndResizes(t *testing.T) {
	m := New(2, 2)
	m.Set(0, 0, 5)
	m.Reset(3, 3)
	require.Equal(t, 3, m.Width())
	require.Equal(t, 3, m.Height())
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			assert.Equal(t, 0.0, m.At(row, col))
		}
	}
}

func TestPoolAcquireReleaseRoundTrip(t *testing.T) {
	p := GetPool()
	m := p.Acquire(2, 2)
	m.Set(0, 0, 42)
	p.Release(m)

	m2 := p.Acquire(2, 2)
	// Reset must zero prior contents even if the same backing array is reused.
	assert.Equal(t, 0.0, m2.At(0, 0))
}

