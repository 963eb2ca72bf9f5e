package state

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLazy_RunsOnce(t *testing.T) {
	calls := 0
	l := NewLazy(func() (string, error) {
		calls++
		return "parsed", nil
	})
	for i := 0; i < 3; i++ {
		v, err := l.Get()
		require.NoError(t, err)
		require.Equal(t, "parsed", v)
	}
	require.Equal(t, 1, calls)
}

func TestLazy_MemoizesError(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	l := NewLazy(func() (int, error) {
		calls++
		return 0, boom
	})
	_, err1 := l.Get()
	_, err2 := l.Get()
	require.ErrorIs(t, err1, boom)
	require.ErrorIs(t, err2, boom)
	require.Equal(t, 1, calls)
}

func TestExitStatus(t *testing.T) {
	var s ExitStatus
	require.False(t, s.Failed())
	require.Equal(t, ExitSuccess, s.Code())

	s.MarkFailed()
	s.MarkFailed()
	require.True(t, s.Failed())
	require.Equal(t, ExitFailure, s.Code())
}

func TestExitStatus_PerContext(t *testing.T) {
	var a, b ExitStatus
	a.MarkFailed()
	require.Equal(t, ExitFailure, a.Code())
	require.Equal(t, ExitSuccess, b.Code())
}
