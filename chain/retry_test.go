package chain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastNonceRetry() Retry {
	r := NonceRetry()
	r.Backoff = time.Millisecond
	return r
}

func TestRetrySucceedsAfterConflicts(t *testing.T) {
	t.Parallel()

	calls := 0
	err := fastNonceRetry().Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("rpc error: nonce too low")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryExhaustsAttempts(t *testing.T) {
	t.Parallel()

	calls := 0
	err := fastNonceRetry().Do(context.Background(), func() error {
		calls++
		return errors.New("invalid nonce")
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.True(t, IsNonceConflict(err))
}

func TestRetryNonRetryableAbortsImmediately(t *testing.T) {
	t.Parallel()

	boom := errors.New("execution reverted")
	calls := 0
	err := fastNonceRetry().Do(context.Background(), func() error {
		calls++
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestRetryRespectsContext(t *testing.T) {
	t.Parallel()

	r := NonceRetry()
	r.Backoff = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := r.Do(ctx, func() error {
		return errors.New("nonce too low")
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsNonceConflict(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"sentinel", ErrNonceConflict, true},
		{"wrapped sentinel", errors.Join(errors.New("ctx"), ErrNonceConflict), true},
		{"nonce too low", errors.New("Returned error: nonce too low"), true},
		{"invalid nonce", errors.New("INVALID NONCE"), true},
		{"replacement", errors.New("replacement transaction underpriced"), true},
		{"revert", errors.New("execution reverted: VVS: K"), false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsNonceConflict(tt.err))
		})
	}
}

func TestIsReceiptTimeout(t *testing.T) {
	t.Parallel()

	_, ok := IsReceiptTimeout(errors.New("plain"))
	assert.False(t, ok)

	rte := &ReceiptTimeoutError{}
	_, ok = IsReceiptTimeout(rte)
	assert.True(t, ok)
}
