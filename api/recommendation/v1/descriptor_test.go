package recommendationv1

import (
	"testing"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/dynamicpb"
)

func TestFileDescriptor_Registered(t *testing.T) {
	d, err := protoregistry.GlobalFiles.FindDescriptorByName(protoreflect.FullName(ServiceName))
	if err != nil {
		t.Fatalf("FindDescriptorByName(%s): %v", ServiceName, err)
	}
	svc, ok := d.(protoreflect.ServiceDescriptor)
	if !ok {
		t.Fatalf("descriptor is %T, want a service", d)
	}
	for _, m := range PostDetailService_ServiceDesc.Methods {
		if svc.Methods().ByName(protoreflect.Name(m.MethodName)) == nil {
			t.Errorf("method %s missing from descriptor", m.MethodName)
		}
	}
	if svc.ParentFile().Path() != PostDetailService_ServiceDesc.Metadata {
		t.Errorf("file path = %q, want %v", svc.ParentFile().Path(), PostDetailService_ServiceDesc.Metadata)
	}
}

// The descriptor must agree with the hand-written wire encoding: a message
// encoded by Codec decodes field for field through the descriptor.
func TestFileDescriptor_MatchesWireFormat(t *testing.T) {
	in := &PostResponse{
		Id: 1, Title: "Limits", AuthorId: 9, AuthorName: "Ada",
		Tags: []string{"calculus", "limits"}, ViewCount: 40, IsPublished: true,
	}
	b, err := Codec{}.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	msg := dynamicpb.NewMessage(File.Messages().ByName("PostResponse"))
	if err := proto.Unmarshal(b, msg); err != nil {
		t.Fatalf("decoding through descriptor: %v", err)
	}
	get := func(name string) protoreflect.Value {
		return msg.Get(msg.Descriptor().Fields().ByName(protoreflect.Name(name)))
	}
	if get("id").Int() != 1 || get("author_id").Int() != 9 || get("view_count").Int() != 40 {
		t.Errorf("int fields = %d/%d/%d", get("id").Int(), get("author_id").Int(), get("view_count").Int())
	}
	if get("title").String() != "Limits" || get("author_name").String() != "Ada" {
		t.Errorf("string fields = %q/%q", get("title").String(), get("author_name").String())
	}
	if tags := get("tags").List(); tags.Len() != 2 || tags.Get(1).String() != "limits" {
		t.Errorf("tags = %v", tags)
	}
	if !get("is_published").Bool() {
		t.Error("is_published = false")
	}

	batch := &BatchPostRequest{PostIds: []int64{3, 5}}
	b, err = Codec{}.Marshal(batch)
	if err != nil {
		t.Fatal(err)
	}
	req := dynamicpb.NewMessage(File.Messages().ByName("BatchPostRequest"))
	if err := proto.Unmarshal(b, req); err != nil {
		t.Fatalf("decoding batch request: %v", err)
	}
	ids := req.Get(req.Descriptor().Fields().ByName("post_ids")).List()
	if ids.Len() != 2 || ids.Get(0).Int() != 3 || ids.Get(1).Int() != 5 {
		t.Errorf("post_ids = %v", ids)
	}
}
