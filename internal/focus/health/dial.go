package health

import (
	"fmt"
	"sync"

	"google.golang.org/grpc"

	"github.com/sebas/focusbridge/internal/focus/bridge"
)

// DialConnProvider resolves a bridge id to an address via a caller-supplied
// function and lazily dials + caches one gRPC connection per bridge,
// grounded on the teacher's per-node connection caching in its gRPC media
// transport (services/signaling/transport/grpc.go), adapted here to the
// standard health-check service instead of a bespoke RPC surface.
type DialConnProvider struct {
	mu       sync.Mutex
	conns    map[bridge.Id]*grpc.ClientConn
	resolve  func(bridge.Id) (addr string, ok bool)
	dialOpts []grpc.DialOption
}

// NewDialConnProvider creates a provider that dials addresses returned by
// resolve, using dialOpts for every connection (transport credentials,
// keepalive, etc. are the caller's responsibility to supply).
func NewDialConnProvider(resolve func(bridge.Id) (string, bool), dialOpts ...grpc.DialOption) *DialConnProvider {
	return &DialConnProvider{
		conns:    make(map[bridge.Id]*grpc.ClientConn),
		resolve:  resolve,
		dialOpts: dialOpts,
	}
}

func (d *DialConnProvider) Conn(id bridge.Id) (*grpc.ClientConn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if conn, ok := d.conns[id]; ok {
		return conn, nil
	}

	addr, ok := d.resolve(id)
	if !ok {
		return nil, fmt.Errorf("health: no address known for bridge %s", id)
	}

	conn, err := grpc.NewClient(addr, d.dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("health: dialing bridge %s at %s: %w", id, addr, err)
	}
	d.conns[id] = conn
	return conn, nil
}

// Close tears down every cached connection.
func (d *DialConnProvider) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for id, conn := range d.conns {
		conn.Close()
		delete(d.conns, id)
	}
}
