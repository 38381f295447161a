package grpc

// proto.go defines the gRPC service surface for vulntriage/v1/triage.proto.
// Messages travel as JSON (see codec.go); this file stands in for generated code.

import (
	"context"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "vulntriage.v1.TriageService"

// Full method names, as seen by interceptors.
const (
	MethodScoreDescription = "/" + ServiceName + "/ScoreDescription"
	MethodScoreLatest      = "/" + ServiceName + "/ScoreLatest"
	MethodGetRecord        = "/" + ServiceName + "/GetRecord"
	MethodListRecords      = "/" + ServiceName + "/ListRecords"
	MethodGetMeta          = "/" + ServiceName + "/GetMeta"
)

// TriageServiceServer is the server API for TriageService.
type TriageServiceServer interface {
	ScoreDescription(context.Context, *ScoreDescriptionRequest) (*ScoreDescriptionResponse, error)
	ScoreLatest(context.Context, *ScoreLatestRequest) (*ScoreLatestResponse, error)
	GetRecord(context.Context, *GetRecordRequest) (*GetRecordResponse, error)
	ListRecords(context.Context, *ListRecordsRequest) (*ListRecordsResponse, error)
	GetMeta(context.Context, *GetMetaRequest) (*GetMetaResponse, error)
	mustEmbedUnimplementedTriageServiceServer()
}

// UnimplementedTriageServiceServer provides forward-compatible default implementations.
type UnimplementedTriageServiceServer struct{}

func (UnimplementedTriageServiceServer) ScoreDescription(context.Context, *ScoreDescriptionRequest) (*ScoreDescriptionResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ScoreDescription not implemented")
}
func (UnimplementedTriageServiceServer) ScoreLatest(context.Context, *ScoreLatestRequest) (*ScoreLatestResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ScoreLatest not implemented")
}
func (UnimplementedTriageServiceServer) GetRecord(context.Context, *GetRecordRequest) (*GetRecordResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetRecord not implemented")
}
func (UnimplementedTriageServiceServer) ListRecords(context.Context, *ListRecordsRequest) (*ListRecordsResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ListRecords not implemented")
}
func (UnimplementedTriageServiceServer) GetMeta(context.Context, *GetMetaRequest) (*GetMetaResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetMeta not implemented")
}
func (UnimplementedTriageServiceServer) mustEmbedUnimplementedTriageServiceServer() {}

// RegisterTriageServiceServer registers the TriageServiceServer with the gRPC server.
func RegisterTriageServiceServer(s grpclib.ServiceRegistrar, srv TriageServiceServer) {
	s.RegisterService(&_TriageService_serviceDesc, srv)
}

var _TriageService_serviceDesc = grpclib.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TriageServiceServer)(nil),
	Methods: []grpclib.MethodDesc{
		{MethodName: "ScoreDescription", Handler: _TriageService_ScoreDescription_Handler},
		{MethodName: "ScoreLatest", Handler: _TriageService_ScoreLatest_Handler},
		{MethodName: "GetRecord", Handler: _TriageService_GetRecord_Handler},
		{MethodName: "ListRecords", Handler: _TriageService_ListRecords_Handler},
		{MethodName: "GetMeta", Handler: _TriageService_GetMeta_Handler},
	},
	Streams:  []grpclib.StreamDesc{},
	Metadata: "vulntriage/v1/triage.proto",
}

// unary runs call through the server's interceptor chain, if any.
func unary[Req any](
	srv interface{},
	ctx context.Context,
	dec func(interface{}) error,
	interceptor grpclib.UnaryServerInterceptor,
	fullMethod string,
	call func(TriageServiceServer, context.Context, *Req) (interface{}, error),
) (interface{}, error) {
	req := new(Req)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return call(srv.(TriageServiceServer), ctx, req)
	}
	info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
	handler := func(ctx context.Context, r interface{}) (interface{}, error) {
		return call(srv.(TriageServiceServer), ctx, r.(*Req))
	}
	return interceptor(ctx, req, info, handler)
}

func _TriageService_ScoreDescription_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) {
	return unary(srv, ctx, dec, interceptor, MethodScoreDescription,
		func(s TriageServiceServer, ctx context.Context, req *ScoreDescriptionRequest) (interface{}, error) {
			return s.ScoreDescription(ctx, req)
		})
}

func _TriageService_ScoreLatest_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) {
	return unary(srv, ctx, dec, interceptor, MethodScoreLatest,
		func(s TriageServiceServer, ctx context.Context, req *ScoreLatestRequest) (interface{}, error) {
			return s.ScoreLatest(ctx, req)
		})
}

func _TriageService_GetRecord_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) {
	return unary(srv, ctx, dec, interceptor, MethodGetRecord,
		func(s TriageServiceServer, ctx context.Context, req *GetRecordRequest) (interface{}, error) {
			return s.GetRecord(ctx, req)
		})
}

func _TriageService_ListRecords_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) {
	return unary(srv, ctx, dec, interceptor, MethodListRecords,
		func(s TriageServiceServer, ctx context.Context, req *ListRecordsRequest) (interface{}, error) {
			return s.ListRecords(ctx, req)
		})
}

func _TriageService_GetMeta_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) {
	return unary(srv, ctx, dec, interceptor, MethodGetMeta,
		func(s TriageServiceServer, ctx context.Context, req *GetMetaRequest) (interface{}, error) {
			return s.GetMeta(ctx, req)
		})
}

// TriageServiceClient is the client API for TriageService.
type TriageServiceClient struct {
	cc grpclib.ClientConnInterface
}

// NewTriageServiceClient returns a client that speaks the JSON codec over cc.
func NewTriageServiceClient(cc grpclib.ClientConnInterface) *TriageServiceClient {
	return &TriageServiceClient{cc: cc}
}

func (c *TriageServiceClient) invoke(ctx context.Context, method string, in, out interface{}, opts []grpclib.CallOption) error {
	opts = append([]grpclib.CallOption{grpclib.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, method, in, out, opts...)
}

func (c *TriageServiceClient) ScoreDescription(ctx context.Context, in *ScoreDescriptionRequest, opts ...grpclib.CallOption) (*ScoreDescriptionResponse, error) {
	out := new(ScoreDescriptionResponse)
	if err := c.invoke(ctx, MethodScoreDescription, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *TriageServiceClient) ScoreLatest(ctx context.Context, in *ScoreLatestRequest, opts ...grpclib.CallOption) (*ScoreLatestResponse, error) {
	out := new(ScoreLatestResponse)
	if err := c.invoke(ctx, MethodScoreLatest, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *TriageServiceClient) GetRecord(ctx context.Context, in *GetRecordRequest, opts ...grpclib.CallOption) (*GetRecordResponse, error) {
	out := new(GetRecordResponse)
	if err := c.invoke(ctx, MethodGetRecord, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *TriageServiceClient) ListRecords(ctx context.Context, in *ListRecordsRequest, opts ...grpclib.CallOption) (*ListRecordsResponse, error) {
	out := new(ListRecordsResponse)
	if err := c.invoke(ctx, MethodListRecords, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *TriageServiceClient) GetMeta(ctx context.Context, in *GetMetaRequest, opts ...grpclib.CallOption) (*GetMetaResponse, error) {
	out := new(GetMetaResponse)
	if err := c.invoke(ctx, MethodGetMeta, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}
