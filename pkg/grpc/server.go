package grpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/google/uuid"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/zoeyai/patternsearch/internal/logger"
	"github.com/zoeyai/patternsearch/pkg/process"
	"github.com/zoeyai/patternsearch/pkg/vision/collector"
	"github.com/zoeyai/patternsearch/pkg/vision/ncc"
)

// MatcherServer patternsearch.Matcher 服务接口
type MatcherServer interface {
	Similarity(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	FindBest(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc patternsearch.Matcher 的服务描述
var ServiceDesc = gogrpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MatcherServer)(nil),
	Methods: []gogrpc.MethodDesc{
		{MethodName: "Similarity", Handler: similarityHandler},
		{MethodName: "FindBest", Handler: findBestHandler},
	},
	Streams:  []gogrpc.StreamDesc{},
	Metadata: "patternsearch/matcher",
}

// Register 将服务注册到 gRPC server
func Register(r gogrpc.ServiceRegistrar, srv MatcherServer) {
	r.RegisterService(&ServiceDesc, srv)
}

func similarityHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor gogrpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MatcherServer).Similarity(ctx, in)
	}
	info := &gogrpc.UnaryServerInfo{Server: srv, FullMethod: similarityMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(MatcherServer).Similarity(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func findBestHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor gogrpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MatcherServer).FindBest(ctx, in)
	}
	info := &gogrpc.UnaryServerInfo{Server: srv, FullMethod: findBestMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(MatcherServer).FindBest(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// Server patternsearch.Matcher 的实现
type Server struct {
	workers int
}

// NewServer 创建服务端，workers <= 0 时使用逻辑 CPU 数
func NewServer(workers int) *Server {
	if workers <= 0 {
		workers = process.DefaultWorkers()
	}
	return &Server{workers: workers}
}

// Similarity 计算完整的相似度图
func (s *Server) Similarity(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, log := s.requestLogger("Similarity")

	m, err := s.compute(ctx, log, req)
	if err != nil {
		return nil, err
	}

	resp := &SimilarityResponse{RequestID: id, Map: m}
	out, err := resp.toStruct()
	if err != nil {
		log.Error("编码响应失败", "error", err)
		return nil, status.Errorf(codes.Internal, "编码响应失败: %v", err)
	}
	return out, nil
}

// FindBest 计算相似度图并返回最佳位置
func (s *Server) FindBest(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, log := s.requestLogger("FindBest")

	m, err := s.compute(ctx, log, req)
	if err != nil {
		return nil, err
	}

	best := collector.FindBest(m, false)
	log.Info("最佳位置", "row", best.Row, "col", best.Col, "score", best.Score)

	resp := &FindBestResponse{RequestID: id, Position: best}
	out, err := resp.toStruct()
	if err != nil {
		return nil, status.Errorf(codes.Internal, "编码响应失败: %v", err)
	}
	return out, nil
}

func (s *Server) requestLogger(method string) (string, *slog.Logger) {
	id := uuid.NewString()
	return id, logger.Default().Slog().With("request_id", id, "method", method)
}

// compute 解码请求、校验尺寸并计算相似度图
func (s *Server) compute(ctx context.Context, log *slog.Logger, req *structpb.Struct) (*ncc.Grid, error) {
	in, err := parseMatchRequest(req)
	if err != nil {
		log.Warn("请求无效", "error", err)
		return nil, status.Errorf(codes.InvalidArgument, "请求无效: %v", err)
	}
	if err := ncc.Validate(in.Pattern, in.Scene); err != nil {
		log.Warn("尺寸无效", "error", err)
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	workers := in.Workers
	if workers <= 0 || workers > s.workers {
		workers = s.workers
	}

	start := time.Now()
	m, err := ncc.SimilarityMatrixContext(ctx, in.Pattern, in.Scene, in.Strategy, ncc.WithWorkers(workers))
	if err != nil {
		log.Warn("计算中断", "error", err)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, status.FromContextError(err).Err()
		}
		return nil, status.Error(codes.Internal, err.Error())
	}

	log.Info("相似度图完成",
		"strategy", in.Strategy.String(),
		"pattern", fmt.Sprintf("%dx%d", in.Pattern.Width(), in.Pattern.Height()),
		"scene", fmt.Sprintf("%dx%d", in.Scene.Width(), in.Scene.Height()),
		"workers", workers,
		"elapsed", time.Since(start),
	)
	return m, nil
}

// ListenAndServe 在 addr 上启动服务，ctx 取消时优雅退出
func ListenAndServe(ctx context.Context, addr string, srv MatcherServer, opts ...gogrpc.ServerOption) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("监听 %s 失败: %w", addr, err)
	}
	return Serve(ctx, lis, srv, opts...)
}

// Serve 在已有的 listener 上启动服务，ctx 取消时优雅退出
func Serve(ctx context.Context, lis net.Listener, srv MatcherServer, opts ...gogrpc.ServerOption) error {
	s := gogrpc.NewServer(opts...)
	Register(s, srv)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			s.GracefulStop()
		case <-done:
		}
	}()

	logger.Info("gRPC 服务已启动: %s", lis.Addr())
	if err := s.Serve(lis); err != nil && !errors.Is(err, gogrpc.ErrServerStopped) {
		return fmt.Errorf("gRPC 服务异常退出: %w", err)
	}
	logger.Info("gRPC 服务已停止")
	return nil
}
