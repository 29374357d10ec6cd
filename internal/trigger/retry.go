package trigger

import (
	"context"
	"errors"
	"net"
	"time"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	utilnet "k8s.io/apimachinery/pkg/util/net"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/client-go/util/retry"

	"github.com/climateengine/build-sensor/internal/core"
)

// DefaultBackoff bounds retries of template fetches and workflow
// submissions: 4 attempts, waiting roughly 0.5s, 1s and 2s in between.
var DefaultBackoff = wait.Backoff{
	Steps:    4,
	Duration: 500 * time.Millisecond,
	Factor:   2.0,
	Jitter:   0.1,
	Cap:      8 * time.Second,
}

// IsTransient reports whether err is worth retrying: API server timeouts,
// throttling, 5xx responses and connection level failures.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, core.ErrTemplateNotFound) {
		return false
	}

	var status apierrors.APIStatus
	if errors.As(err, &status) {
		code := status.Status().Code
		return code == 429 || code >= 500 ||
			apierrors.IsServerTimeout(err) || apierrors.IsTimeout(err) || apierrors.IsTooManyRequests(err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return utilnet.IsConnectionReset(err) || utilnet.IsConnectionRefused(err) || utilnet.IsProbableEOF(err)
}

// withRetry runs fn until it succeeds, fails with a non-transient error,
// the backoff is exhausted or ctx is done. It returns the number of calls.
func withRetry(ctx context.Context, backoff wait.Backoff, fn func() error) (int, error) {
	attempts := 0
	err := retry.OnError(backoff, IsTransient, func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		attempts++
		return fn()
	})
	return attempts, err
}
