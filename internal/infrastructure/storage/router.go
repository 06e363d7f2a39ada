package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/documind-ai/documind/internal/core/ports"
	"github.com/documind-ai/documind/internal/infrastructure/storage/s3"
)

// Router writes through the configured primary backend and dispatches reads
// on the location prefix, so documents saved remotely stay readable after a
// provider switch.
type Router struct {
	primary ports.ObjectStorage
	remote  ports.ObjectStorage
	local   ports.ObjectStorage
}

func NewRouter(primary, remote, local ports.ObjectStorage) *Router {
	return &Router{
		primary: primary,
		remote:  remote,
		local:   local,
	}
}

func (r *Router) Provider() string { return r.primary.Provider() }

func (r *Router) Save(ctx context.Context, key string, data io.Reader, contentType string) (string, error) {
	return r.primary.Save(ctx, key, data, contentType)
}

func (r *Router) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	if strings.HasPrefix(location, s3.LocationScheme) {
		if r.remote == nil {
			return nil, fmt.Errorf("remote location %q but no remote storage configured", location)
		}
		return r.remote.Open(ctx, location)
	}
	if r.local == nil {
		return nil, fmt.Errorf("local location %q but no local storage configured", location)
	}
	return r.local.Open(ctx, location)
}
