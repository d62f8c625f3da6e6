package connectivity

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/ibalodis/fieldsignal/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type fakeProber struct {
	mu  sync.Mutex
	err error
}

func (p *fakeProber) set(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

func (p *fakeProber) Probe(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))
}

func TestMonitor_InitialProbeRaisesNoEdge(t *testing.T) {
	m := NewMonitor(&fakeProber{}, time.Minute, testLogger())
	events := m.Subscribe()

	m.probeOnce(context.Background())

	assert.True(t, m.Reachable())
	select {
	case <-events:
		t.Fatal("initial state must not be delivered as an edge event")
	default:
	}
}

func TestMonitor_EdgeTriggeredFlips(t *testing.T) {
	p := &fakeProber{err: ErrNotServing}
	m := NewMonitor(p, time.Minute, testLogger())
	ctx := context.Background()

	m.probeOnce(ctx) // initial: unreachable
	events := m.Subscribe()

	m.probeOnce(ctx) // still unreachable, no flip
	select {
	case <-events:
		t.Fatal("no flip expected while state is stable")
	default:
	}

	p.set(nil)
	m.probeOnce(ctx)
	select {
	case up := <-events:
		assert.True(t, up)
	case <-time.After(time.Second):
		t.Fatal("expected reachable edge event")
	}
	assert.True(t, m.Reachable())

	p.set(ErrNotServing)
	m.probeOnce(ctx)
	select {
	case up := <-events:
		assert.False(t, up)
	case <-time.After(time.Second):
		t.Fatal("expected unreachable edge event")
	}
}

func TestMonitor_SlowSubscriberSeesLatestState(t *testing.T) {
	p := &fakeProber{}
	m := NewMonitor(p, time.Minute, testLogger())
	ctx := context.Background()

	m.probeOnce(ctx) // initial: reachable
	events := m.Subscribe()

	// Two flips without the subscriber draining in between.
	p.set(ErrNotServing)
	m.probeOnce(ctx)
	p.set(nil)
	m.probeOnce(ctx)

	select {
	case up := <-events:
		assert.True(t, up, "stale event must be replaced by the latest state")
	case <-time.After(time.Second):
		t.Fatal("expected an event")
	}
}

func TestMonitor_MultipleSubscribers(t *testing.T) {
	p := &fakeProber{err: ErrNotServing}
	m := NewMonitor(p, time.Minute, testLogger())
	ctx := context.Background()

	m.probeOnce(ctx)
	a := m.Subscribe()
	b := m.Subscribe()

	p.set(nil)
	m.probeOnce(ctx)

	for _, ch := range []<-chan bool{a, b} {
		select {
		case up := <-ch:
			assert.True(t, up)
		case <-time.After(time.Second):
			t.Fatal("every subscriber must be notified")
		}
	}
}

func TestHTTPProber(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/healthz" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	require.NoError(t, NewHTTPProber(srv.URL+"/healthz", nil).Probe(context.Background()))

	err := NewHTTPProber(srv.URL+"/broken", nil).Probe(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotServing)
}

type fakeHealthConn struct {
	status healthpb.HealthCheckResponse_ServingStatus
	err    error
}

func (c *fakeHealthConn) Invoke(ctx context.Context, method string, args, reply any, opts ...grpc.CallOption) error {
	if c.err != nil {
		return c.err
	}
	reply.(*healthpb.HealthCheckResponse).Status = c.status
	return nil
}

func (c *fakeHealthConn) NewStream(ctx context.Context, desc *grpc.StreamDesc, method string, opts ...grpc.CallOption) (grpc.ClientStream, error) {
	return nil, errors.New("streaming not supported")
}

func TestGRPCHealthProber(t *testing.T) {
	ctx := context.Background()

	p := NewGRPCHealthProber(&fakeHealthConn{status: healthpb.HealthCheckResponse_SERVING})
	require.NoError(t, p.Probe(ctx))

	p = NewGRPCHealthProber(&fakeHealthConn{status: healthpb.HealthCheckResponse_NOT_SERVING})
	assert.ErrorIs(t, p.Probe(ctx), ErrNotServing)

	p = NewGRPCHealthProber(&fakeHealthConn{err: errors.New("dial error")})
	assert.Error(t, p.Probe(ctx))
}
