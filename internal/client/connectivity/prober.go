package connectivity

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ErrNotServing is returned by probers when the backend answered but
// declared itself unhealthy.
var ErrNotServing = errors.New("backend not serving")

// HTTPProber probes an HTTP health endpoint (GET, expects 200).
type HTTPProber struct {
	url    string
	client *http.Client
}

func NewHTTPProber(url string, client *http.Client) *HTTPProber {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPProber{url: url, client: client}
}

func (p *HTTPProber) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s", ErrNotServing, resp.Status)
	}
	return nil
}

// GRPCHealthProber probes a gRPC backend through the standard health
// service, for deployments fronted by a gRPC gateway.
type GRPCHealthProber struct {
	client healthpb.HealthClient
}

func NewGRPCHealthProber(conn grpc.ClientConnInterface) *GRPCHealthProber {
	return &GRPCHealthProber{client: healthpb.NewHealthClient(conn)}
}

func (p *GRPCHealthProber) Probe(ctx context.Context) error {
	resp, err := p.client.Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		return err
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("%w: %s", ErrNotServing, resp.GetStatus())
	}
	return nil
}
