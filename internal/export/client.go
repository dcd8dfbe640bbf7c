// Package export streams captured blobs to a remote collector over gRPC.
package export

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/protobuf/types/known/structpb"

	"MiniDAQ/miniDAQ-Go-Capture/internal/blob"
	"MiniDAQ/miniDAQ-Go-Capture/internal/logger"
)

// publishMethod is the fully-qualified gRPC method path invoked directly
// against the connection. No generated service stub backs this call: the
// corpus this client is grounded on never shipped the collector's .proto,
// so the request is a generic structpb.Struct rather than a typed message.
const publishMethod = "/minidaq.Collector/PublishBlob"

// invoker is the subset of *grpc.ClientConn that Client depends on, narrowed
// so tests can substitute a fake without a live collector.
type invoker interface {
	Invoke(ctx context.Context, method string, args, reply interface{}, opts ...grpc.CallOption) error
	Close() error
}

// Client uploads DataBlobs to a remote collector, grounded on the teacher's
// LogUploader: same dial-option shape, same bounded fixed-delay retry loop.
type Client struct {
	conn       invoker
	apiKey     string
	retryCount int
	retryDelay time.Duration
	log        *logger.Logger
}

// New dials the collector at serverAddr. insecure selects a plaintext
// connection; otherwise TLS credentials without a client certificate are
// used, matching the teacher's server-auth-only posture.
func New(serverAddr, apiKey string, insecure bool) (*Client, error) {
	var opts []grpc.DialOption

	if insecure {
		opts = append(opts, grpc.WithInsecure())
	} else {
		creds := credentials.NewClientTLSFromCert(nil, "")
		opts = append(opts, grpc.WithTransportCredentials(creds))
	}
	opts = append(opts, grpc.WithDefaultServiceConfig(`{"loadBalancingConfig": [{"round_robin":{}}]}`))

	conn, err := grpc.Dial(serverAddr, opts...)
	if err != nil {
		return nil, fmt.Errorf("export: failed to connect to collector: %v", err)
	}

	return &Client{
		conn:       conn,
		apiKey:     apiKey,
		retryCount: 3,
		retryDelay: 5 * time.Second,
		log:        logger.GetLogger(),
	}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Publish uploads one blob, retrying a fixed number of times with a fixed
// delay between attempts. Failure is returned to the caller but is expected
// to be non-fatal to the capture loop: a failed export should be logged and
// the next blob still attempted.
func (c *Client) Publish(ctx context.Context, b blob.Blob) error {
	req, err := c.buildRequest(b)
	if err != nil {
		return fmt.Errorf("export: failed to build request: %v", err)
	}

	var lastErr error
	for i := 0; i < c.retryCount; i++ {
		if err := c.invoke(ctx, req); err != nil {
			lastErr = err
			c.log.Warn("export: publish attempt %d/%d failed: %v", i+1, c.retryCount, err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryDelay):
			}
			continue
		}
		return nil
	}

	return fmt.Errorf("export: failed to publish after %d attempts: %v", c.retryCount, lastErr)
}

// buildRequest encodes a blob as a generic structured value: packet count,
// warnings, and the raw word-packed data (base64, since protobuf's struct
// value type has no native bytes kind).
func (c *Client) buildRequest(b blob.Blob) (*structpb.Struct, error) {
	warnings := make([]interface{}, 0, len(b.Warnings()))
	for _, w := range b.Warnings() {
		warnings = append(warnings, w)
	}
	return structpb.NewStruct(map[string]interface{}{
		"api_key":      c.apiKey,
		"packet_count": float64(b.PacketCount()),
		"warnings":     warnings,
		"data":         base64.StdEncoding.EncodeToString(b.Data()),
	})
}

// invoke sends req directly through the connection, the same mechanism a
// generated stub's method body uses internally.
func (c *Client) invoke(ctx context.Context, req *structpb.Struct) error {
	resp := new(structpb.Struct)
	return c.conn.Invoke(ctx, publishMethod, req, resp)
}
