package inspect

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type Client struct {
	conn *grpc.ClientConn
}

// Connect to an inspector. Without options the connection is insecure
func Dial(addr string, dialOpts ...grpc.DialOption) (*Client, error) {
	if len(dialOpts) == 0 {
		dialOpts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}
	conn, err := grpc.NewClient(addr, dialOpts...)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn}, nil
}

func (c *Client) Snapshot(ctx context.Context) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, snapshotMethod, &emptypb.Empty{}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Signature(ctx context.Context) (uint64, error) {
	out := new(wrapperspb.UInt64Value)
	if err := c.conn.Invoke(ctx, signatureMethod, &emptypb.Empty{}, out); err != nil {
		return 0, err
	}
	return out.GetValue(), nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}
