package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service. Messages are google.protobuf.Struct
// so clients need no generated stubs: grpcurl -d '{"post_id": "..."}' works as is.
const ServiceName = "complexapp.post.v1.PostService"

// postAPI is the handler contract of the service descriptor below.
type postAPI interface {
	CreatePost(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdatePost(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeletePost(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetPost(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListPostsByAuthor(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SearchPosts(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CountPostsByAuthor(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetFeed(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*postAPI)(nil),
	Methods: []grpc.MethodDesc{
		unary("CreatePost", postAPI.CreatePost),
		unary("UpdatePost", postAPI.UpdatePost),
		unary("DeletePost", postAPI.DeletePost),
		unary("GetPost", postAPI.GetPost),
		unary("ListPostsByAuthor", postAPI.ListPostsByAuthor),
		unary("SearchPosts", postAPI.SearchPosts),
		unary("CountPostsByAuthor", postAPI.CountPostsByAuthor),
		unary("GetFeed", postAPI.GetFeed),
	},
	Streams: []grpc.StreamDesc{},
}

type unaryMethod func(postAPI, context.Context, *structpb.Struct) (*structpb.Struct, error)

// unary mirrors what protoc-gen-go-grpc emits for a unary method.
func unary(name string, call unaryMethod) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(postAPI), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + ServiceName + "/" + name,
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(postAPI), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}
