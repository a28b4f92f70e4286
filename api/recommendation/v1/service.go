package recommendationv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "recommendation.PostDetailService"

const (
	PostDetailService_GetPostInfo_FullMethodName      = "/" + ServiceName + "/GetPostInfo"
	PostDetailService_GetBatchPostInfo_FullMethodName = "/" + ServiceName + "/GetBatchPostInfo"
	PostDetailService_GetUserProfile_FullMethodName   = "/" + ServiceName + "/GetUserProfile"
)

// PostDetailServiceServer is the server API for PostDetailService.
type PostDetailServiceServer interface {
	GetPostInfo(context.Context, *PostRequest) (*PostResponse, error)
	GetBatchPostInfo(context.Context, *BatchPostRequest) (*BatchPostResponse, error)
	GetUserProfile(context.Context, *UserProfileRequest) (*UserProfileResponse, error)
}

// UnimplementedPostDetailServiceServer can be embedded for forward
// compatibility.
type UnimplementedPostDetailServiceServer struct{}

func (UnimplementedPostDetailServiceServer) GetPostInfo(context.Context, *PostRequest) (*PostResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetPostInfo not implemented")
}

func (UnimplementedPostDetailServiceServer) GetBatchPostInfo(context.Context, *BatchPostRequest) (*BatchPostResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetBatchPostInfo not implemented")
}

func (UnimplementedPostDetailServiceServer) GetUserProfile(context.Context, *UserProfileRequest) (*UserProfileResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetUserProfile not implemented")
}

// RegisterPostDetailServiceServer registers srv on s. The server must be
// created with grpc.ForceServerCodec(Codec{}).
func RegisterPostDetailServiceServer(s grpc.ServiceRegistrar, srv PostDetailServiceServer) {
	s.RegisterService(&PostDetailService_ServiceDesc, srv)
}

func _PostDetailService_GetPostInfo_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(PostRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PostDetailServiceServer).GetPostInfo(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: PostDetailService_GetPostInfo_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(PostDetailServiceServer).GetPostInfo(ctx, req.(*PostRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _PostDetailService_GetBatchPostInfo_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(BatchPostRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PostDetailServiceServer).GetBatchPostInfo(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: PostDetailService_GetBatchPostInfo_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(PostDetailServiceServer).GetBatchPostInfo(ctx, req.(*BatchPostRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _PostDetailService_GetUserProfile_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(UserProfileRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PostDetailServiceServer).GetUserProfile(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: PostDetailService_GetUserProfile_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(PostDetailServiceServer).GetUserProfile(ctx, req.(*UserProfileRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// PostDetailService_ServiceDesc is the grpc.ServiceDesc for PostDetailService.
var PostDetailService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PostDetailServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetPostInfo", Handler: _PostDetailService_GetPostInfo_Handler},
		{MethodName: "GetBatchPostInfo", Handler: _PostDetailService_GetBatchPostInfo_Handler},
		{MethodName: "GetUserProfile", Handler: _PostDetailService_GetUserProfile_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "post_detail.proto",
}

// PostDetailServiceClient is the client API for PostDetailService.
type PostDetailServiceClient interface {
	GetPostInfo(ctx context.Context, in *PostRequest, opts ...grpc.CallOption) (*PostResponse, error)
	GetBatchPostInfo(ctx context.Context, in *BatchPostRequest, opts ...grpc.CallOption) (*BatchPostResponse, error)
	GetUserProfile(ctx context.Context, in *UserProfileRequest, opts ...grpc.CallOption) (*UserProfileResponse, error)
}

type postDetailServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewPostDetailServiceClient returns a client that forces Codec on every
// call.
func NewPostDetailServiceClient(cc grpc.ClientConnInterface) PostDetailServiceClient {
	return &postDetailServiceClient{cc: cc}
}

func callOpts(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.ForceCodec(Codec{})}, opts...)
}

func (c *postDetailServiceClient) GetPostInfo(ctx context.Context, in *PostRequest, opts ...grpc.CallOption) (*PostResponse, error) {
	out := new(PostResponse)
	if err := c.cc.Invoke(ctx, PostDetailService_GetPostInfo_FullMethodName, in, out, callOpts(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *postDetailServiceClient) GetBatchPostInfo(ctx context.Context, in *BatchPostRequest, opts ...grpc.CallOption) (*BatchPostResponse, error) {
	out := new(BatchPostResponse)
	if err := c.cc.Invoke(ctx, PostDetailService_GetBatchPostInfo_FullMethodName, in, out, callOpts(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *postDetailServiceClient) GetUserProfile(ctx context.Context, in *UserProfileRequest, opts ...grpc.CallOption) (*UserProfileResponse, error) {
	out := new(UserProfileResponse)
	if err := c.cc.Invoke(ctx, PostDetailService_GetUserProfile_FullMethodName, in, out, callOpts(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}
