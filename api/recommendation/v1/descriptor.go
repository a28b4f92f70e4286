package recommendationv1

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
)

// File describes post_detail.proto. It is registered in the global file
// registry so server reflection can describe PostDetailService.
var File protoreflect.FileDescriptor

func init() {
	fd, err := protodesc.NewFile(fileDescriptorProto(), protoregistry.GlobalFiles)
	if err != nil {
		panic(fmt.Sprintf("recommendationv1: building descriptor: %v", err))
	}
	if err := protoregistry.GlobalFiles.RegisterFile(fd); err != nil {
		panic(fmt.Sprintf("recommendationv1: registering descriptor: %v", err))
	}
	File = fd
}

// fileDescriptorProto mirrors post_detail.proto field for field.
func fileDescriptorProto() *descriptorpb.FileDescriptorProto {
	const (
		i64     = descriptorpb.FieldDescriptorProto_TYPE_INT64
		str     = descriptorpb.FieldDescriptorProto_TYPE_STRING
		boolean = descriptorpb.FieldDescriptorProto_TYPE_BOOL
		msg     = descriptorpb.FieldDescriptorProto_TYPE_MESSAGE
	)
	field := func(name string, num int32, typ descriptorpb.FieldDescriptorProto_Type, repeated bool) *descriptorpb.FieldDescriptorProto {
		label := descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL
		if repeated {
			label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED
		}
		return &descriptorpb.FieldDescriptorProto{
			Name:   proto.String(name),
			Number: proto.Int32(num),
			Label:  label.Enum(),
			Type:   typ.Enum(),
		}
	}
	message := func(name string, fields ...*descriptorpb.FieldDescriptorProto) *descriptorpb.DescriptorProto {
		return &descriptorpb.DescriptorProto{Name: proto.String(name), Field: fields}
	}
	method := func(name, in, out string) *descriptorpb.MethodDescriptorProto {
		return &descriptorpb.MethodDescriptorProto{
			Name:       proto.String(name),
			InputType:  proto.String(".recommendation." + in),
			OutputType: proto.String(".recommendation." + out),
		}
	}

	posts := field("posts", 1, msg, true)
	posts.TypeName = proto.String(".recommendation.PostResponse")

	return &descriptorpb.FileDescriptorProto{
		Name:    proto.String(PostDetailService_ServiceDesc.Metadata.(string)),
		Package: proto.String("recommendation"),
		Syntax:  proto.String("proto3"),
		Options: &descriptorpb.FileOptions{
			GoPackage: proto.String("github.com/ayia-hosni/study-sync-backend/api/recommendation/v1;recommendationv1"),
		},
		MessageType: []*descriptorpb.DescriptorProto{
			message("PostRequest", field("post_id", 1, i64, false)),
			message("BatchPostRequest", field("post_ids", 1, i64, true)),
			message("PostResponse",
				field("id", 1, i64, false),
				field("title", 2, str, false),
				field("content", 3, str, false),
				field("category", 4, str, false),
				field("author_id", 5, i64, false),
				field("author_name", 6, str, false),
				field("created_at", 7, str, false),
				field("tags", 8, str, true),
				field("like_count", 9, i64, false),
				field("comment_count", 10, i64, false),
				field("view_count", 11, i64, false),
				field("is_published", 12, boolean, false),
			),
			message("BatchPostResponse", posts),
			message("UserProfileRequest", field("user_id", 1, i64, false)),
			message("UserProfileResponse",
				field("id", 1, i64, false),
				field("name", 2, str, false),
				field("email", 3, str, false),
				field("interests", 4, str, true),
				field("followed_categories", 5, str, true),
				field("followed_user_ids", 6, i64, true),
				field("preferred_language", 7, str, false),
				field("timezone", 8, str, false),
			),
		},
		Service: []*descriptorpb.ServiceDescriptorProto{{
			Name: proto.String("PostDetailService"),
			Method: []*descriptorpb.MethodDescriptorProto{
				method("GetPostInfo", "PostRequest", "PostResponse"),
				method("GetBatchPostInfo", "BatchPostRequest", "BatchPostResponse"),
				method("GetUserProfile", "UserProfileRequest", "UserProfileResponse"),
			},
		}},
	}
}
