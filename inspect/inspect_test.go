package inspect

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"bytemc/allocation"
	"bytemc/choice"
	"bytemc/classes"
	"bytemc/config"
	"bytemc/heap"
	"bytemc/kernel"
	"bytemc/serialize"
	"bytemc/state"
	"bytemc/statics"
	"bytemc/thread"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

func newKernel(t *testing.T) (*kernel.KernelState, *thread.ThreadInfo, *classes.ClassInfo) {
	t.Helper()
	pool := allocation.NewPool()
	pool.Init()
	t.Cleanup(pool.Reset)
	registry := classes.NewRegistry()
	object, err := registry.ResolveClass(classes.Object)
	require.NoError(t, err)

	main := thread.New(0, "main", -1)
	main.SetState(thread.Running)
	main.PushFrame(thread.NewFrame("main", 1, 0))
	threads := thread.NewList()
	threads.Add(main)
	loaders := statics.NewClassLoaderList()
	loaders.Add(statics.NewClassLoader(0, "system"))
	h := heap.New(pool, registry, config.New(nil), nil)
	return kernel.New(h, threads, loaders, nil), main, object
}

func startServer(t *testing.T, s *Server) *Client {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	go s.Serve(lis)
	t.Cleanup(s.Stop)

	c, err := Dial("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestNothingPublished(t *testing.T) {
	c := startServer(t, NewServer(serialize.New(config.New(nil)), nil))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := c.Snapshot(ctx)
	assert.Equal(t, codes.Unavailable, status.Code(err))
	_, err = c.Signature(ctx)
	assert.Equal(t, codes.Unavailable, status.Code(err))
}

func TestSnapshot(t *testing.T) {
	ks, main, object := newKernel(t)
	obj := ks.Heap().NewObject(object, main, 0)
	main.TopFrame().Refs[0] = obj.Ref()
	ss := state.New()
	require.NoError(t, ss.SetNextChoiceGenerator(choice.NewBoolean("flag", true)))
	ss.InitializeNextTransition()

	serializer := serialize.New(config.New(nil))
	s := NewServer(serializer, nil)
	require.NoError(t, s.Publish(ks, ss))
	assert.Equal(t, 1, s.Published())
	c := startServer(t, s)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	snapshot, err := c.Snapshot(ctx)
	require.NoError(t, err)
	fields := snapshot.AsMap()
	assert.Equal(t, 1.0, fields["depth"])
	assert.Len(t, fields["threads"], 1)
	assert.Len(t, fields["objects"], 1)
	assert.Len(t, fields["choices"], 1)

	signature, err := c.Signature(ctx)
	require.NoError(t, err)
	expected, err := serializer.Signature(ks, nil)
	require.NoError(t, err)
	assert.Equal(t, expected, signature)
	assert.Equal(t, strconv.FormatUint(expected, 16), fields["signature"])

	// the published dump does not follow the kernel state
	ks.Heap().NewObject(object, main, 1)
	again, err := c.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, again.AsMap()["objects"], 1)
}
