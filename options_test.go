package fairy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestQueueOptions_DefaultsMatchSpec(t *testing.T) {
	o := defaultQueueOptions()
	require.Equal(t, 5*time.Millisecond, o.pollingInterval)
	require.Equal(t, 100*time.Millisecond, o.retryDelay)
	require.Equal(t, 2, o.retryLimit)
	require.Equal(t, int64(10), o.recentSize)
	require.Equal(t, int64(10), o.slowestSize)
}

func TestQueueOptions_Setters(t *testing.T) {
	o := defaultQueueOptions()

	WithPollingInterval(1 * time.Millisecond)(&o)
	require.Equal(t, time.Millisecond, o.pollingInterval)

	WithRetryDelay(2 * time.Millisecond)(&o)
	require.Equal(t, 2*time.Millisecond, o.retryDelay)

	WithRetryLimit(0)(&o)
	require.Zero(t, o.retryLimit)

	WithRecentSize(5)(&o)
	require.Equal(t, int64(5), o.recentSize)

	WithSlowestSize(3)(&o)
	require.Equal(t, int64(3), o.slowestSize)
}

func TestEnqueueOptions_WithCompletion(t *testing.T) {
	var o enqueueOptions
	require.Nil(t, o.onComplete)

	called := false
	WithCompletion(func(error) { called = true })(&o)
	require.NotNil(t, o.onComplete)
	o.onComplete(nil)
	require.True(t, called)
}

func TestRegistOptions_WithAutoReschedule(t *testing.T) {
	o := defaultRegistOptions()
	require.Zero(t, o.rescheduleInterval)

	WithAutoReschedule(time.Minute)(&o)
	require.Equal(t, time.Minute, o.rescheduleInterval)
}
