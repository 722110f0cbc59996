package grpc

import (
	"context"
	"fmt"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/zoeyai/patternsearch/internal/logger"
	"github.com/zoeyai/patternsearch/pkg/vision/collector"
	"github.com/zoeyai/patternsearch/pkg/vision/ncc"
)

// Client patternsearch.Matcher 客户端
type Client struct {
	addr string
	conn *gogrpc.ClientConn
}

// Dial 创建客户端，默认使用明文连接；连接在首次调用时建立
func Dial(addr string, opts ...gogrpc.DialOption) (*Client, error) {
	opts = append([]gogrpc.DialOption{
		gogrpc.WithTransportCredentials(insecure.NewCredentials()),
	}, opts...)

	conn, err := gogrpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("创建 gRPC 客户端失败: %w", err)
	}
	return &Client{addr: addr, conn: conn}, nil
}

// Similarity 请求远端计算相似度图
func (c *Client) Similarity(ctx context.Context, req *MatchRequest) (*SimilarityResponse, error) {
	out, err := c.invoke(ctx, similarityMethod, req)
	if err != nil {
		return nil, err
	}
	resp, err := parseSimilarityResponse(out)
	if err != nil {
		return nil, fmt.Errorf("解析响应失败: %w", err)
	}
	logger.Debug("Similarity 完成: request_id=%s, %dx%d", resp.RequestID, resp.Map.Width(), resp.Map.Height())
	return resp, nil
}

// FindBest 请求远端返回最佳匹配位置
func (c *Client) FindBest(ctx context.Context, req *MatchRequest) (*FindBestResponse, error) {
	out, err := c.invoke(ctx, findBestMethod, req)
	if err != nil {
		return nil, err
	}
	resp, err := parseFindBestResponse(out)
	if err != nil {
		return nil, fmt.Errorf("解析响应失败: %w", err)
	}
	return resp, nil
}

// SimilarityMatrix 与 ncc.SimilarityMatrixContext 等价的远端计算
func (c *Client) SimilarityMatrix(ctx context.Context, pattern, scene *ncc.Grid, strategy ncc.Strategy) (*ncc.Grid, error) {
	resp, err := c.Similarity(ctx, &MatchRequest{Pattern: pattern, Scene: scene, Strategy: strategy})
	if err != nil {
		return nil, err
	}
	return resp.Map, nil
}

// Best 与 collector.FindBest 等价的远端计算
func (c *Client) Best(ctx context.Context, pattern, scene *ncc.Grid, strategy ncc.Strategy) (collector.Position, error) {
	resp, err := c.FindBest(ctx, &MatchRequest{Pattern: pattern, Scene: scene, Strategy: strategy})
	if err != nil {
		return collector.Position{}, err
	}
	return resp.Position, nil
}

func (c *Client) invoke(ctx context.Context, method string, req *MatchRequest) (*structpb.Struct, error) {
	in, err := req.ToStruct()
	if err != nil {
		return nil, fmt.Errorf("编码请求失败: %w", err)
	}

	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, method, in, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Status 返回当前连接状态
func (c *Client) Status() ClientStatus {
	switch c.conn.GetState() {
	case connectivity.Ready:
		return StatusConnected
	case connectivity.Connecting:
		return StatusConnecting
	case connectivity.TransientFailure:
		return StatusReconnecting
	default:
		return StatusDisconnected
	}
}

// Addr 返回服务端地址
func (c *Client) Addr() string {
	return c.addr
}

// Close 关闭连接
func (c *Client) Close() error {
	return c.conn.Close()
}
