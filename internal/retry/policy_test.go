package retry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNew_Clamps(t *testing.T) {
	p := New(ModeFixed, 5*time.Second, 2*time.Second, -1)
	require.Equal(t, 2*time.Second, p.Initial)
	require.Equal(t, 0, p.MaxRetries)
	require.Equal(t, 1, p.Attempts())

	require.Equal(t, ModeLinear, New("bogus", time.Second, 0, 1).Mode)
}

func TestDelay(t *testing.T) {
	ms := time.Millisecond
	tests := []struct {
		name   string
		policy Policy
		want   []time.Duration
	}{
		{"fixed", New(ModeFixed, 100*ms, 500*ms, 3), []time.Duration{100 * ms, 100 * ms, 100 * ms}},
		{"linear capped", Linear(100*ms, 250*ms, 4), []time.Duration{100 * ms, 200 * ms, 250 * ms, 250 * ms}},
		{"linear uncapped", Linear(50*ms, 0, 3), []time.Duration{50 * ms, 100 * ms, 150 * ms}},
		{"exponential", New(ModeExponential, 50*ms, 160*ms, 4), []time.Duration{50 * ms, 100 * ms, 160 * ms, 160 * ms}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for i, want := range tc.want {
				require.Equal(t, want, tc.policy.Delay(i+1), "retry %d", i+1)
			}
		})
	}

	require.Zero(t, Linear(ms, 0, 1).Delay(0))
	require.Zero(t, Linear(ms, 0, 1).Delay(-3))
}

func TestValidate(t *testing.T) {
	require.NoError(t, Linear(time.Millisecond, time.Second, 2).Validate())
	require.Error(t, Policy{Mode: ModeLinear}.Validate())
	require.Error(t, Policy{Mode: ModeLinear, Initial: time.Second, Max: -1}.Validate())
}
