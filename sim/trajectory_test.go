package sim

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrajectory_Rows(t *testing.T) {
	traj := TrajectoryFromRows([][]float64{{1, 0}, {0.75, 0.25}, {0.5, 0.5}})

	sub, err := traj.Rows([]int{2, 0})
	require.NoError(t, err)
	assert.Equal(t, 2, sub.Generations())
	assert.Equal(t, []float64{0.5, 0.5}, sub.Row(0))
	assert.Equal(t, []float64{1, 0}, sub.Row(1))

	// rows are copies
	sub.SetRow(0, []float64{0, 1})
	assert.Equal(t, []float64{0.5, 0.5}, traj.Row(2))

	empty, err := traj.Rows(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Generations())
	assert.Equal(t, 0, empty.Alleles())

	_, err = traj.Rows([]int{3})
	assert.True(t, errors.Is(err, ErrIndex))
	_, err = traj.Rows([]int{-1})
	assert.True(t, errors.Is(err, ErrIndex))
}

func TestTrajectory_Validate(t *testing.T) {
	assert.NoError(t, TrajectoryFromRows([][]float64{{0.3, 0.7}}).Validate())
	assert.Error(t, TrajectoryFromRows([][]float64{{0.3, 0.6}}).Validate())
	assert.Error(t, TrajectoryFromRows([][]float64{{1.3, -0.3}}).Validate())
}

func TestTrajectory_EmptyDims(t *testing.T) {
	traj := TrajectoryFromRows(nil)
	assert.Equal(t, 0, traj.Generations())
	assert.Equal(t, 0, traj.Alleles())
}
