package singularity_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/singularity"
)

func TestDetectAll_PreservesOrder(t *testing.T) {
	A := matrix(t, []string{"1", "0"}, []string{"0", "1"})
	systems := []singularity.System{
		{Name: "none", P: matrix(t, []string{"1", "h"}, []string{"0", "1"}), A: A},
		{Name: "tau", P: matrix(t, []string{"1/(tau - 1)", "0"}, []string{"0", "1"}), A: A},
		{Name: "pair", P: matrix(t, []string{"1/a", "0"}, []string{"0", "1/b"}), A: A},
	}

	d := singularity.New(singularity.WithConcurrency(2))
	reports, err := d.DetectAll(context.Background(), systems)
	require.NoError(t, err)
	require.Len(t, reports, 3)

	assert.Equal(t, "none", reports[0].Name)
	assert.Empty(t, reports[0].Valid)
	assert.Equal(t, "tau", reports[1].Name)
	assert.Len(t, reports[1].Valid, 2)
	assert.Equal(t, "pair", reports[2].Name)
	assert.Len(t, reports[2].Valid, 4)
}

func TestDetectAll_FirstErrorWins(t *testing.T) {
	A := matrix(t, []string{"1"})
	systems := []singularity.System{
		{Name: "ok", P: matrix(t, []string{"1/x"}), A: A},
		{Name: "broken", P: nil, A: A},
	}
	_, err := singularity.New().DetectAll(context.Background(), systems)
	require.Error(t, err)
	assert.ErrorIs(t, err, singularity.ErrNilMatrix)
	assert.Contains(t, err.Error(), "system 1 (broken)")
}

func TestDetectAll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	A := matrix(t, []string{"1"})
	_, err := singularity.New().DetectAll(ctx, []singularity.System{{P: matrix(t, []string{"1/x"}), A: A}})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestDetectAll_Empty(t *testing.T) {
	reports, err := singularity.New().DetectAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, reports)
}
