package ratelimit_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zaviye/zaviye/internal/service/ratelimit"
)

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func TestAllowRejectsAfterMaxInWindow(t *testing.T) {
	l := ratelimit.New(60*time.Second, 4)

	for i := 0; i < 4; i++ {
		require.True(t, l.Allow("1.2.3.4", epoch.Add(time.Duration(i)*time.Second)), "request %d", i+1)
	}
	require.False(t, l.Allow("1.2.3.4", epoch.Add(59*time.Second)))
}

func TestAllowStartsNewWindowAtBoundary(t *testing.T) {
	l := ratelimit.New(60*time.Second, 4)

	for i := 0; i < 4; i++ {
		require.True(t, l.Allow("ip", epoch))
	}
	require.False(t, l.Allow("ip", epoch.Add(30*time.Second)))

	// exactly W after the window start opens a fresh window with count 1
	require.True(t, l.Allow("ip", epoch.Add(60*time.Second)))
	for i := 0; i < 3; i++ {
		require.True(t, l.Allow("ip", epoch.Add(61*time.Second)))
	}
	require.False(t, l.Allow("ip", epoch.Add(62*time.Second)))
}

func TestWindowDoesNotSlideWithRequests(t *testing.T) {
	l := ratelimit.New(10*time.Second, 2)

	require.True(t, l.Allow("ip", epoch))
	require.True(t, l.Allow("ip", epoch.Add(9*time.Second)))
	require.True(t, l.Allow("ip", epoch.Add(10*time.Second)))
}

func TestBurstAcrossBoundaryAccepted(t *testing.T) {
	l := ratelimit.New(60*time.Second, 4)

	allowed := 0
	for i := 0; i < 4; i++ {
		if l.Allow("ip", epoch.Add(59*time.Second)) {
			allowed++
		}
	}
	// first call opened the window at 59s
	for i := 0; i < 4; i++ {
		if l.Allow("ip", epoch.Add(119*time.Second)) {
			allowed++
		}
	}
	require.Equal(t, 8, allowed)
}

func TestIdentifiersAreIndependent(t *testing.T) {
	l := ratelimit.New(time.Minute, 1)

	require.True(t, l.Allow("a", epoch))
	require.False(t, l.Allow("a", epoch))
	require.True(t, l.Allow("b", epoch))
}

func TestSweepDropsExpiredRecords(t *testing.T) {
	l := ratelimit.New(time.Minute, 4)
	l.Allow("old", epoch)
	l.Allow("new", epoch.Add(50*time.Second))

	require.Equal(t, 1, l.Sweep(epoch.Add(70*time.Second)))
	require.Equal(t, 1, l.Len())
}

func TestNewDefaults(t *testing.T) {
	l := ratelimit.New(0, 0)
	require.Equal(t, ratelimit.DefaultWindow, l.Window())
	for i := 0; i < ratelimit.DefaultMaxRequests; i++ {
		require.True(t, l.Allow("ip", epoch))
	}
	require.False(t, l.Allow("ip", epoch))
}
