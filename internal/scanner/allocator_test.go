package scanner

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harakeishi/composeports/internal/errors"
	"github.com/harakeishi/composeports/internal/logger"
	"github.com/harakeishi/composeports/pkg/types"
)

// fakeDetector は used を待ち受け中、bound をバインド不可として扱います。
type fakeDetector struct {
	used    []int
	bound   map[int]bool
	scanErr error
	probed  []int
}

func (f *fakeDetector) DetectUsedPorts(ctx context.Context) ([]int, error) {
	return f.used, f.scanErr
}

func (f *fakeDetector) IsPortInUse(ctx context.Context, port int) (bool, error) {
	f.probed = append(f.probed, port)
	return f.bound[port], nil
}

func newTestAllocator(d PortDetector) *RandomPortAllocator {
	return NewRandomPortAllocator(d, rand.New(rand.NewSource(1)), &logger.NopLogger{})
}

func TestFindFreePort_InRangeAndNotBlocked(t *testing.T) {
	d := &fakeDetector{used: []int{9001, 9002}, bound: map[int]bool{9003: true}}
	a := newTestAllocator(d)
	r := types.PortRange{Start: 9000, End: 9010}
	exclude := map[int]struct{}{9004: {}}

	for i := 0; i < 50; i++ {
		port, err := a.FindFreePort(context.Background(), r, exclude)
		require.NoError(t, err)
		assert.True(t, r.Contains(port))
		assert.NotContains(t, []int{9001, 9002, 9003, 9004}, port)
	}
}

func TestFindFreePort_OnlyOneCandidate(t *testing.T) {
	d := &fakeDetector{}
	a := newTestAllocator(d)
	exclude := map[int]struct{}{}
	for p := 9000; p <= 9010; p++ {
		if p != 9007 {
			exclude[p] = struct{}{}
		}
	}

	port, err := a.FindFreePort(context.Background(), types.PortRange{Start: 9000, End: 9010}, exclude)
	require.NoError(t, err)
	assert.Equal(t, 9007, port)
}

func TestFindFreePort_SequentialFallback(t *testing.T) {
	d := &fakeDetector{bound: map[int]bool{9000: true}}
	a := newTestAllocator(d)
	a.attempts = 0

	port, err := a.FindFreePort(context.Background(), types.PortRange{Start: 9000, End: 9010}, nil)
	require.NoError(t, err)
	assert.Equal(t, 9001, port)
	assert.Equal(t, []int{9000, 9001}, d.probed)
}

func TestFindFreePort_NoFreePort(t *testing.T) {
	d := &fakeDetector{used: []int{9000, 9001}, bound: map[int]bool{9002: true}}
	a := newTestAllocator(d)

	_, err := a.FindFreePort(context.Background(), types.PortRange{Start: 9000, End: 9003}, map[int]struct{}{9003: {}})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrResolutionNoFreePort))
}

func TestFindFreePort_DrawnPortsAreNotProbedTwice(t *testing.T) {
	bound := map[int]bool{}
	for p := 9000; p <= 9010; p++ {
		bound[p] = true
	}
	d := &fakeDetector{bound: bound}
	a := newTestAllocator(d)

	_, err := a.FindFreePort(context.Background(), types.PortRange{Start: 9000, End: 9010}, nil)
	require.Error(t, err)

	seen := map[int]int{}
	for _, p := range d.probed {
		seen[p]++
	}
	for p, n := range seen {
		assert.Equal(t, 1, n, "port %d probed more than once", p)
	}
	assert.Len(t, seen, 11)
}

func TestFindFreePort_ScanFailureStillUsesBindTest(t *testing.T) {
	d := &fakeDetector{scanErr: fmt.Errorf("denied"), bound: map[int]bool{9000: true}}
	a := newTestAllocator(d)
	a.attempts = 0

	port, err := a.FindFreePort(context.Background(), types.PortRange{Start: 9000, End: 9001}, nil)
	require.NoError(t, err)
	assert.Equal(t, 9001, port)
}

func TestFindFreePort_AccumulatorGivesDistinctPorts(t *testing.T) {
	a := newTestAllocator(&fakeDetector{})
	r := types.PortRange{Start: 9000, End: 9004}
	allocated := map[int]struct{}{}

	for i := 0; i < 5; i++ {
		port, err := a.FindFreePort(context.Background(), r, allocated)
		require.NoError(t, err)
		_, dup := allocated[port]
		require.False(t, dup, "port %d allocated twice", port)
		allocated[port] = struct{}{}
	}

	_, err := a.FindFreePort(context.Background(), r, allocated)
	assert.True(t, errors.HasCode(err, errors.ErrResolutionNoFreePort))
}

func TestFindFreePort_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestAllocator(&fakeDetector{}).FindFreePort(ctx, types.PortRange{Start: 9000, End: 9010}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPortValidator(t *testing.T) {
	v := NewPortValidatorImpl(&logger.NopLogger{})
	ctx := context.Background()

	assert.NoError(t, v.ValidatePort(ctx, 1))
	assert.NoError(t, v.ValidatePort(ctx, 65535))
	assert.True(t, errors.HasCode(v.ValidatePort(ctx, 0), errors.ErrPortInvalid))
	assert.True(t, errors.HasCode(v.ValidatePort(ctx, 65536), errors.ErrPortInvalid))

	tests := []struct {
		r     types.PortRange
		valid bool
	}{
		{types.PortRange{Start: 8000, End: 65535}, true},
		{types.PortRange{Start: 1, End: 2}, true},
		{types.PortRange{Start: 0, End: 100}, false},
		{types.PortRange{Start: 100, End: 65536}, false},
		{types.PortRange{Start: 9000, End: 9000}, false},
		{types.PortRange{Start: 9000, End: 8000}, false},
	}
	for _, tt := range tests {
		err := v.ValidatePortRange(ctx, tt.r)
		if tt.valid {
			assert.NoError(t, err, tt.r.String())
			continue
		}
		assert.True(t, errors.HasCode(err, errors.ErrPortRangeInvalid), tt.r.String())
	}
}
