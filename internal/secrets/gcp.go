package secrets

import (
	"context"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type versionAccessor interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
	Close() error
}

// GCP reads the latest version of secrets from one Secret Manager project.
type GCP struct {
	client  versionAccessor
	project string
}

// NewGCP connects to Secret Manager using application default credentials.
func NewGCP(ctx context.Context, project string) (*GCP, error) {
	if project == "" {
		return nil, fmt.Errorf("gcp project is required")
	}
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create secret manager client: %w", err)
	}
	return &GCP{client: client, project: project}, nil
}

// Get implements Source. Payloads are trimmed of surrounding whitespace.
func (g *GCP) Get(ctx context.Context, name string) (string, error) {
	resp, err := g.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: fmt.Sprintf("projects/%s/secrets/%s/versions/latest", g.project, name),
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return "", fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return "", fmt.Errorf("failed to access secret %s: %w", name, err)
	}
	if resp.GetPayload() == nil {
		return "", fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	return strings.TrimSpace(string(resp.GetPayload().GetData())), nil
}

// Close releases the underlying client.
func (g *GCP) Close() error {
	return g.client.Close()
}
