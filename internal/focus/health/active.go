package health

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/sebas/focusbridge/internal/focus/bridge"
)

// ConnProvider resolves a bridge id to the gRPC connection used for its
// active health probe. Implementations own dial caching and reconnection;
// a ConnProvider that cannot reach a bridge returns an error, which the
// active prober treats as a transport loss (§7 TransportLost).
type ConnProvider interface {
	Conn(id bridge.Id) (*grpc.ClientConn, error)
}

// ActiveProber sends a standard gRPC health-check request and classifies
// the response per §4.5. It never blocks longer than PrimaryTimeout plus,
// on a first timeout, RetryDelay plus a second PrimaryTimeout.
type ActiveProber struct {
	Conns          ConnProvider
	PrimaryTimeout time.Duration
	RetryDelay     time.Duration
}

func (p *ActiveProber) primaryTimeout() time.Duration {
	if p.PrimaryTimeout > 0 {
		return p.PrimaryTimeout
	}
	return 5 * time.Second
}

func (p *ActiveProber) Probe(ctx context.Context, id bridge.Id) (Outcome, error) {
	conn, err := p.Conns.Conn(id)
	if err != nil {
		return OutcomeSkipped, fmt.Errorf("health: transport lost for bridge %s: %w", id, err)
	}

	outcome, err := p.attempt(ctx, conn)
	if outcome != OutcomeTimedOut {
		return outcome, err
	}

	if p.RetryDelay > 0 {
		select {
		case <-time.After(p.RetryDelay):
		case <-ctx.Done():
			return OutcomeSkipped, ctx.Err()
		}
	}
	return p.attempt(ctx, conn)
}

func (p *ActiveProber) attempt(ctx context.Context, conn *grpc.ClientConn) (Outcome, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.primaryTimeout())
	defer cancel()

	client := grpc_health_v1.NewHealthClient(conn)
	resp, err := client.Check(callCtx, &grpc_health_v1.HealthCheckRequest{})
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return OutcomeTimedOut, err
		}
		st, _ := status.FromError(err)
		switch st.Code() {
		case codes.Internal:
			return OutcomeFailed, err
		case codes.Unavailable:
			return OutcomeSkipped, err
		default:
			return OutcomeSkipped, err
		}
	}

	switch resp.Status {
	case grpc_health_v1.HealthCheckResponse_SERVING:
		return OutcomePassed, nil
	case grpc_health_v1.HealthCheckResponse_NOT_SERVING:
		return OutcomeFailed, nil
	default:
		return OutcomeSkipped, nil
	}
}
