package remote

import (
	"context"
	"io"
)

// Service is the transport to a remote scoring service.
type Service interface {
	// Submit uploads a gzipped variant batch and returns the job handle.
	Submit(ctx context.Context, batch io.Reader, filename string) (Job, error)

	// Result retrieves the finished result for download. It returns
	// ErrNotReady while the service is still processing the job.
	Result(ctx context.Context, job Job) (io.ReadCloser, error)
}
