package health

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"

	"github.com/sebas/focusbridge/internal/focus/bridge"
)

// fixedHealthServer always answers with a fixed status, after an optional
// delay — used to exercise the timeout/retry path.
type fixedHealthServer struct {
	grpc_health_v1.UnimplementedHealthServer
	status grpc_health_v1.HealthCheckResponse_ServingStatus
	delay  time.Duration
}

func (s *fixedHealthServer) Check(ctx context.Context, _ *grpc_health_v1.HealthCheckRequest) (*grpc_health_v1.HealthCheckResponse, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return &grpc_health_v1.HealthCheckResponse{Status: s.status}, nil
}

// slowThenFastHealthServer times out the first call and answers fast on
// every subsequent one, to exercise the single-retry-then-pass path.
type slowThenFastHealthServer struct {
	grpc_health_v1.UnimplementedHealthServer
	mu    sync.Mutex
	calls int
	delay time.Duration
}

func (s *slowThenFastHealthServer) Check(ctx context.Context, _ *grpc_health_v1.HealthCheckRequest) (*grpc_health_v1.HealthCheckResponse, error) {
	s.mu.Lock()
	s.calls++
	call := s.calls
	s.mu.Unlock()

	if call == 1 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return &grpc_health_v1.HealthCheckResponse{Status: grpc_health_v1.HealthCheckResponse_SERVING}, nil
}

// testConn spins up an in-process gRPC server over bufconn and returns a
// ConnProvider that always resolves to it, plus a teardown func.
func testConn(t *testing.T, svc grpc_health_v1.HealthServer) (ConnProvider, func()) {
	t.Helper()

	lis := bufconn.Listen(1024 * 1024)
	server := grpc.NewServer()
	grpc_health_v1.RegisterHealthServer(server, svc)
	go server.Serve(lis)

	dialer := func(context.Context, string) (net.Conn, error) { return lis.Dial() }
	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(dialer),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)

	return staticConn{conn: conn}, func() {
		conn.Close()
		server.Stop()
	}
}

type staticConn struct{ conn *grpc.ClientConn }

func (s staticConn) Conn(bridge.Id) (*grpc.ClientConn, error) { return s.conn, nil }

func TestActiveProberPassed(t *testing.T) {
	conns, teardown := testConn(t, &fixedHealthServer{status: grpc_health_v1.HealthCheckResponse_SERVING})
	defer teardown()

	p := &ActiveProber{Conns: conns, PrimaryTimeout: time.Second}
	outcome, err := p.Probe(context.Background(), "a")
	require.NoError(t, err)
	require.Equal(t, OutcomePassed, outcome)
}

func TestActiveProberFailed(t *testing.T) {
	conns, teardown := testConn(t, &fixedHealthServer{status: grpc_health_v1.HealthCheckResponse_NOT_SERVING})
	defer teardown()

	p := &ActiveProber{Conns: conns, PrimaryTimeout: time.Second}
	outcome, err := p.Probe(context.Background(), "a")
	require.NoError(t, err)
	require.Equal(t, OutcomeFailed, outcome)
}

func TestActiveProberRetryThenPass(t *testing.T) {
	svc := &slowThenFastHealthServer{delay: 200 * time.Millisecond}
	conns, teardown := testConn(t, svc)
	defer teardown()

	p := &ActiveProber{Conns: conns, PrimaryTimeout: 30 * time.Millisecond, RetryDelay: 10 * time.Millisecond}
	outcome, err := p.Probe(context.Background(), "a")
	require.NoError(t, err)
	require.Equal(t, OutcomePassed, outcome)

	svc.mu.Lock()
	defer svc.mu.Unlock()
	require.Equal(t, 2, svc.calls, "exactly one retry after the first timeout")
}

func TestActiveProberDoubleTimeout(t *testing.T) {
	svc := &fixedHealthServer{status: grpc_health_v1.HealthCheckResponse_SERVING, delay: time.Second}
	conns, teardown := testConn(t, svc)
	defer teardown()

	p := &ActiveProber{Conns: conns, PrimaryTimeout: 20 * time.Millisecond, RetryDelay: 10 * time.Millisecond}
	outcome, err := p.Probe(context.Background(), "a")
	require.Error(t, err)
	require.Equal(t, OutcomeTimedOut, outcome)
}

func TestActiveProberTransportLost(t *testing.T) {
	p := &ActiveProber{Conns: errConn{}, PrimaryTimeout: time.Second}
	outcome, err := p.Probe(context.Background(), "a")
	require.Error(t, err)
	require.Equal(t, OutcomeSkipped, outcome)
}

type errConn struct{}

func (errConn) Conn(bridge.Id) (*grpc.ClientConn, error) { return nil, context.DeadlineExceeded }
