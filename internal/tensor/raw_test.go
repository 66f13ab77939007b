package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRaw(t *testing.T) {
	raw, err := NewRaw(Shape{2, 3}, Float32, CPU)
	require.NoError(t, err)

	assert.Equal(t, Shape{2, 3}, raw.Shape())
	assert.Equal(t, []int64{3, 1}, raw.Strides())
	assert.Equal(t, 6, raw.NumElements())
	assert.Equal(t, 6, raw.DataSize())
	assert.Equal(t, 24, raw.ByteSize())
	assert.True(t, raw.IsContiguous())

	_, err = NewRaw(Shape{2, -1}, Float32, CPU)
	assert.Error(t, err)
}

func TestExpandSharesStorage(t *testing.T) {
	scalar, err := NewRaw(Shape{1}, Float32, CPU)
	require.NoError(t, err)
	scalar.AsFloat32()[0] = 42

	view, err := scalar.Expand(Shape{4, 8})
	require.NoError(t, err)

	assert.Equal(t, Shape{4, 8}, view.Shape())
	assert.Equal(t, []int64{0, 0}, view.Strides())
	assert.Equal(t, 32, view.NumElements())
	assert.Equal(t, 1, view.DataSize(), "broadcast views keep the storage element count")
	assert.False(t, view.IsContiguous())
	assert.Equal(t, float32(42), view.AsFloat32()[0])

	// The base cannot be the unique owner while the view is alive.
	assert.False(t, scalar.IsUnique())
	view.Release()
	assert.True(t, scalar.IsUnique())
}

func TestExpandRejectsMismatch(t *testing.T) {
	vec, err := NewRaw(Shape{8}, Float32, CPU)
	require.NoError(t, err)

	_, err = vec.Expand(Shape{4})
	assert.Error(t, err, "expanding cannot shrink a dimension")

	mat, err := NewRaw(Shape{2, 3}, Float32, CPU)
	require.NoError(t, err)
	_, err = mat.Expand(Shape{3})
	assert.Error(t, err, "expanding cannot lower the rank")
}

func TestAsStrided(t *testing.T) {
	base, err := NewRaw(Shape{4, 8}, Float32, CPU)
	require.NoError(t, err)

	// Every other row.
	view, err := base.AsStrided(Shape{2, 8}, []int64{16, 1})
	require.NoError(t, err)
	assert.Equal(t, 16, view.NumElements())
	assert.Equal(t, 32, view.DataSize(), "views inherit the backing storage size")
	assert.False(t, view.IsContiguous())

	// Same layout re-expressed is still contiguous.
	same, err := base.AsStrided(Shape{4, 8}, []int64{8, 1})
	require.NoError(t, err)
	assert.True(t, same.IsContiguous())

	_, err = base.AsStrided(Shape{2, 8}, []int64{16})
	assert.Error(t, err, "strides must match the shape's rank")
}

func TestContiguityIgnoresSizeOneDims(t *testing.T) {
	base, err := NewRaw(Shape{2, 4}, Float32, CPU)
	require.NoError(t, err)

	// A size-1 dim contributes no offsets, so its stride is irrelevant.
	view, err := base.AsStrided(Shape{2, 1, 4}, []int64{4, 999, 1})
	require.NoError(t, err)
	assert.True(t, view.IsContiguous())
}

func TestFloat16RoundTrip(t *testing.T) {
	raw, err := NewRaw(Shape{4}, Float16, CPU)
	require.NoError(t, err)
	assert.Equal(t, 8, raw.ByteSize())

	bits := raw.AsFloat16()
	bits[0] = Float16Bits(1.5)
	assert.Equal(t, float32(1.5), Float16Value(bits[0]))
}

func TestCloneSharesBuffer(t *testing.T) {
	raw, err := NewRaw(Shape{8}, Int32, CPU)
	require.NoError(t, err)
	raw.AsInt32()[3] = 7

	clone := raw.Clone()
	assert.Equal(t, int32(7), clone.AsInt32()[3])
	assert.False(t, raw.IsUnique())

	clone.Release()
	assert.True(t, raw.IsUnique())
}

func TestDataTypeTags(t *testing.T) {
	assert.Equal(t, 4, Float32.Size())
	assert.Equal(t, 2, Float16.Size())
	assert.Equal(t, 8, Int64.Size())
	assert.Equal(t, "float32", Float32.TypeName())
	assert.Equal(t, "float16", Float16.TypeName())
	assert.Equal(t, "bool_", Bool.TypeName())
}
