// Package probe performs one-shot TCP reachability checks.
//
// A check makes a single connection attempt bounded by a timeout and never
// retries. Timeouts and refused connections are reported as Offline; any
// other failure (name resolution, unreachable network, invalid port) is
// reported as Error so configuration problems are not hidden behind Offline.
package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"time"

	"serverstatus/internal/models"
)

// DefaultTimeout bounds a check when the caller does not choose one.
const DefaultTimeout = 3 * time.Second

// Dialer opens network connections. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Prober checks endpoint reachability.
type Prober struct {
	dialer Dialer
	now    func() time.Time
}

// New returns a prober dialing through d. A nil dialer uses net.Dialer.
func New(d Dialer) *Prober {
	if d == nil {
		d = &net.Dialer{}
	}
	return &Prober{dialer: d, now: time.Now}
}

var defaultProber = New(nil)

// Check probes ep with the default dialer.
func Check(ctx context.Context, ep models.Endpoint, timeout time.Duration) models.CheckResult {
	return defaultProber.Check(ctx, ep, timeout)
}

// Check attempts one TCP connection to ep within timeout.
func (p *Prober) Check(ctx context.Context, ep models.Endpoint, timeout time.Duration) models.CheckResult {
	result := models.CheckResult{
		Name:     ep.String(),
		Endpoint: ep,
	}

	if timeout <= 0 {
		result.Kind = models.KindTimeout
		result.Status = result.Kind.Status()
		result.Error = fmt.Sprintf("dial tcp %s: non-positive timeout %v", ep.Address(), timeout)
		result.CheckedAt = p.now().UTC()
		return result
	}

	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	started := p.now()
	conn, err := p.dialer.DialContext(dialCtx, "tcp", ep.Address())
	result.CheckedAt = p.now().UTC()
	if err == nil && ctx.Err() == nil && errors.Is(dialCtx.Err(), context.DeadlineExceeded) {
		// Connected only after the budget ran out.
		_ = conn.Close()
		err = fmt.Errorf("dial tcp %s: %w", ep.Address(), context.DeadlineExceeded)
	}
	if err != nil {
		result.Kind = Classify(err)
		// Some dialers report the expired deadline as a plain error.
		if result.Kind == models.KindOther && ctx.Err() == nil && errors.Is(dialCtx.Err(), context.DeadlineExceeded) {
			result.Kind = models.KindTimeout
		}
		result.Status = result.Kind.Status()
		result.Error = err.Error()
		return result
	}
	defer conn.Close()

	latency := float64(p.now().Sub(started).Microseconds()) / 1000
	result.LatencyMS = &latency
	result.Kind = models.KindNone
	result.Status = models.StatusOnline
	return result
}

// Classify maps a dial error onto the failure taxonomy.
func Classify(err error) models.FailureKind {
	if err == nil {
		return models.KindNone
	}
	if errors.Is(err, context.Canceled) {
		return models.KindOther
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return models.KindRefused
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return models.KindTimeout
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return models.KindTimeout
		}
		return models.KindOther
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return models.KindTimeout
	}
	return models.KindOther
}
