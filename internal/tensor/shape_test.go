package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShapeNumElements(t *testing.T) {
	tests := []struct {
		name  string
		shape Shape
		want  int
	}{
		{"scalar", Shape{}, 1},
		{"vector", Shape{5}, 5},
		{"matrix", Shape{3, 4}, 12},
		{"empty", Shape{0, 4}, 0},
		{"high rank", Shape{2, 3, 4, 5}, 120},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.shape.NumElements())
		})
	}
}

func TestShapeValidate(t *testing.T) {
	assert.NoError(t, Shape{2, 3}.Validate())
	assert.NoError(t, Shape{0}.Validate(), "zero-sized dimensions describe empty arrays")
	assert.Error(t, Shape{2, -1}.Validate())
}

func TestShapeComputeStrides(t *testing.T) {
	assert.Equal(t, []int64{12, 4, 1}, Shape{2, 3, 4}.ComputeStrides())
	assert.Equal(t, []int64{1}, Shape{7}.ComputeStrides())
	assert.Empty(t, Shape{}.ComputeStrides())
}

func TestBroadcastShapes(t *testing.T) {
	tests := []struct {
		name      string
		a, b      Shape
		want      Shape
		broadcast bool
		wantErr   bool
	}{
		{"equal", Shape{3, 5}, Shape{3, 5}, Shape{3, 5}, false, false},
		{"column against matrix", Shape{3, 1}, Shape{3, 5}, Shape{3, 5}, true, false},
		{"row against matrix", Shape{1, 5}, Shape{3, 5}, Shape{3, 5}, true, false},
		{"rank extension", Shape{5}, Shape{3, 5}, Shape{3, 5}, true, false},
		{"scalar", Shape{1}, Shape{4, 4}, Shape{4, 4}, true, false},
		{"incompatible", Shape{3, 4}, Shape{3, 5}, nil, false, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, broadcast, err := BroadcastShapes(tc.a, tc.b)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.broadcast, broadcast)
		})
	}
}
