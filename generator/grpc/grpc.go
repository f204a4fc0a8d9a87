// Package grpc implements generator.Transport over a gRPC unary call,
// driven through a no-op codec so the generator can push raw cache blocks
// without marshalling them into any particular message schema.
package grpc

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/semaphore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/encoding"

	"github.com/lading-rig/lading/telemetry"
)

var errUnsupportedType = errors.New("grpc: rawCodec given a value it doesn't know how to handle")

const codecName = "raw"

func init() {
	encoding.RegisterCodec(rawCodec{})
}

// connectTimeout bounds how long Connect waits for the channel to become
// ready, per the generator adapter template's gRPC-specific 1s connect
// timeout.
const connectTimeout = 1 * time.Second

// method is the fixed RPC path every Transport calls; the rig's blackhole
// gRPC server answers any call on it without inspecting the service name.
const method = "/lading.rig/Send"

// Transport drives one gRPC channel, bounding in-flight calls to a
// configured concurrency limit via a weighted semaphore.
type Transport struct {
	target string
	limit  int64

	conn *grpc.ClientConn
	sem  *semaphore.Weighted

	requestOK     telemetry.Counter
	responseBytes telemetry.Counter
}

// New constructs a Transport dialing target, limiting in-flight unary calls
// to concurrencyLimit.
func New(target string, concurrencyLimit int64, sink telemetry.Sink, labels telemetry.Labels) *Transport {
	if concurrencyLimit <= 0 {
		concurrencyLimit = 1
	}
	return &Transport{
		target:        target,
		limit:         concurrencyLimit,
		sem:           semaphore.NewWeighted(concurrencyLimit),
		requestOK:     sink.Counter("request_ok", labels),
		responseBytes: sink.Counter("response_bytes", labels),
	}
}

func (t *Transport) Connect(ctx context.Context) error {
	dialCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	conn, err := grpc.DialContext(dialCtx, t.target,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithBlock(),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
	)
	if err != nil {
		return err
	}
	t.conn = conn
	return nil
}

func (t *Transport) Write(ctx context.Context, b []byte) (int, error) {
	if err := t.sem.Acquire(ctx, 1); err != nil {
		return 0, err
	}
	defer t.sem.Release(1)

	var respLen responseLen
	if err := t.conn.Invoke(ctx, method, b, &respLen); err != nil {
		return 0, err
	}

	t.requestOK.Add(1)
	t.responseBytes.Add(float64(respLen))
	return len(b), nil
}

func (t *Transport) Close() error {
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}
