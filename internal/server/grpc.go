package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/screenwiper/internal/common"
)

const (
	ScreenshotServiceName = "screenwiper.v1.ScreenshotService"
	analyzeImagesMethod   = "/" + ScreenshotServiceName + "/AnalyzeImages"
	requestIDHeader       = "x-request-id"
)

// ScreenshotServiceServer carries the HTTP request and response bodies as
// google.protobuf.Struct, so both transports share one wire shape.
type ScreenshotServiceServer interface {
	AnalyzeImages(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var ScreenshotServiceDesc = grpc.ServiceDesc{
	ServiceName: ScreenshotServiceName,
	HandlerType: (*ScreenshotServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "AnalyzeImages", Handler: analyzeImagesHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "screenwiper/v1/screenshot.proto",
}

func RegisterScreenshotServiceServer(s grpc.ServiceRegistrar, srv ScreenshotServiceServer) {
	s.RegisterService(&ScreenshotServiceDesc, srv)
}

func analyzeImagesHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ScreenshotServiceServer).AnalyzeImages(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: analyzeImagesMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ScreenshotServiceServer).AnalyzeImages(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// ScreenshotServiceClient is the client side of ScreenshotServiceDesc.
type ScreenshotServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewScreenshotServiceClient(cc grpc.ClientConnInterface) *ScreenshotServiceClient {
	return &ScreenshotServiceClient{cc: cc}
}

func (c *ScreenshotServiceClient) AnalyzeImages(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, analyzeImagesMethod, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

type ScreenshotService struct {
	svc    *AnalyzeService
	logger *slog.Logger
}

func NewScreenshotService(svc *AnalyzeService, logger *slog.Logger) *ScreenshotService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScreenshotService{svc: svc, logger: logger}
}

func (s *ScreenshotService) AnalyzeImages(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var urls []string
	if v, ok := req.GetFields()["imageUrls"]; ok {
		list := v.GetListValue()
		if list == nil {
			return nil, common.InvalidArgumentError("imageUrls must be a list of strings")
		}
		for i, item := range list.GetValues() {
			sv, ok := item.GetKind().(*structpb.Value_StringValue)
			if !ok {
				return nil, common.InvalidArgumentErrorf("imageUrls[%d] must be a string", i)
			}
			urls = append(urls, sv.StringValue)
		}
	}

	results, err := s.svc.AnalyzeURLs(ctx, urls)
	if err != nil {
		return nil, common.ToGRPCError(err)
	}
	out, err := toStruct(AnalyzeResponse{Data: results})
	if err != nil {
		s.logger.Error("grpc.response.encode_failed", "error", err)
		return nil, common.InternalErrorf("encode response: %v", err)
	}
	return out, nil
}

// toStruct converts any JSON-marshalable value into a Struct.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, err
	}
	return out, nil
}

// RequestIDInterceptor propagates x-request-id metadata, generating one when absent,
// and logs each unary call.
func RequestIDInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		id := ""
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if vals := md.Get(requestIDHeader); len(vals) > 0 {
				id = vals[0]
			}
		}
		if id == "" {
			id = common.NewRequestID()
		}
		ctx = common.WithRequestID(ctx, id)
		_ = grpc.SetHeader(ctx, metadata.Pairs(requestIDHeader, id))

		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		attrs := []any{"method", info.FullMethod, "code", code.String(), "req_id", id, "elapsed_ms", time.Since(start).Milliseconds()}
		if err != nil && code != codes.InvalidArgument {
			logger.Error("grpc.request", append(attrs, "error", err)...)
		} else {
			logger.Info("grpc.request", attrs...)
		}
		return resp, err
	}
}

// NewGRPCServer builds a server with the screenshot service, health and reflection registered.
func NewGRPCServer(svc *AnalyzeService, logger *slog.Logger) (*grpc.Server, *health.Server) {
	gs := grpc.NewServer(grpc.ChainUnaryInterceptor(RequestIDInterceptor(logger)))
	RegisterScreenshotServiceServer(gs, NewScreenshotService(svc, logger))

	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ScreenshotServiceName, healthpb.HealthCheckResponse_SERVING)

	reflection.Register(gs)
	return gs, hs
}
