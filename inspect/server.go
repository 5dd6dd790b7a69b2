package inspect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	"bytemc/kernel"
	"bytemc/serialize"
	"bytemc/state"

	"github.com/golang/protobuf/ptypes/empty"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

var ErrNotPublished = errors.New("inspect: no state has been published")

// Serves the last state published by the search.
//
// Publish is called from the search goroutine and converts the state into an
// immutable dump. The handlers only read the dump, they never touch the
// kernel state.
type Server struct {
	sync.RWMutex

	srv        *grpc.Server
	serializer *serialize.Serializer
	log        *slog.Logger

	snapshot  *structpb.Struct
	signature uint64
	published int
}

func NewServer(serializer *serialize.Serializer, logger *slog.Logger, srvOpts ...grpc.ServerOption) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		serializer: serializer,
		log:        logger,
	}
	srvOpts = append(srvOpts, grpc.ChainUnaryInterceptor(s.logInterceptor))
	s.srv = grpc.NewServer(srvOpts...)
	RegisterInspectorServer(s.srv, s)
	return s
}

// Capture the current state of the search
func (s *Server) Publish(ks *kernel.KernelState, ss *state.SystemState) error {
	next := ss.NextChoiceGenerator()
	canonical := s.serializer.Canonicalize(ks, next)
	signature, err := canonical.Signature()
	if err != nil {
		return err
	}
	snapshot, err := structpb.NewStruct(dump(canonical, ss, signature))
	if err != nil {
		return fmt.Errorf("inspect: %w", err)
	}
	s.Lock()
	defer s.Unlock()
	s.snapshot = snapshot
	s.signature = signature
	s.published++
	return nil
}

// Number of states published so far
func (s *Server) Published() int {
	s.RLock()
	defer s.RUnlock()
	return s.published
}

func (s *Server) Snapshot(_ context.Context, _ *empty.Empty) (*structpb.Struct, error) {
	s.RLock()
	defer s.RUnlock()
	if s.snapshot == nil {
		return nil, status.Error(codes.Unavailable, ErrNotPublished.Error())
	}
	return s.snapshot, nil
}

func (s *Server) Signature(_ context.Context, _ *empty.Empty) (*wrapperspb.UInt64Value, error) {
	s.RLock()
	defer s.RUnlock()
	if s.snapshot == nil {
		return nil, status.Error(codes.Unavailable, ErrNotPublished.Error())
	}
	return wrapperspb.UInt64(s.signature), nil
}

func (s *Server) Serve(lis net.Listener) error {
	s.log.Info("Inspector listening", "addr", lis.Addr().String())
	return s.srv.Serve(lis)
}

func (s *Server) Stop() {
	s.srv.GracefulStop()
}

func (s *Server) logInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	s.log.Debug("Handled request",
		"method", info.FullMethod,
		"code", status.Code(err).String(),
		"duration", time.Since(start),
	)
	return resp, err
}

// Convert the canonical state into the generic values accepted by structpb
func dump(st *serialize.State, ss *state.SystemState, signature uint64) map[string]any {
	threads := []any{}
	for _, t := range st.Threads {
		frames := []any{}
		for _, f := range t.Frames {
			frames = append(frames, map[string]any{
				"method": f.Method,
				"pc":     f.PC,
				"refs":   ints(f.Refs),
			})
		}
		threads = append(threads, map[string]any{
			"id":     t.Id,
			"state":  t.State,
			"lock":   t.Lock,
			"locked": ints(t.Locked),
			"frames": frames,
		})
	}
	statics := []any{}
	for _, sei := range st.Statics {
		statics = append(statics, map[string]any{
			"class":  sei.Class,
			"values": int64s(sei.Values),
			"owner":  sei.Lock.Owner,
		})
	}
	objects := []any{}
	for _, o := range st.Objects {
		objects = append(objects, map[string]any{
			"class":  o.Class,
			"values": int64s(o.Values),
			"owner":  o.Lock.Owner,
		})
	}
	choices := []any{}
	for _, cg := range ss.ChoiceGenerators() {
		choices = append(choices, cg.String())
	}
	return map[string]any{
		// as string, the value does not fit into a double
		"signature": strconv.FormatUint(signature, 16),
		"depth":     ss.Depth(),
		"atomic":    ss.IsAtomic(),
		"choices":   choices,
		"threads":   threads,
		"statics":   statics,
		"objects":   objects,
	}
}

func ints(values []int) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func int64s(values []int64) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
