package recommendationv1

import (
	"bytes"
	"reflect"
	"testing"

	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/encoding/protowire"
)

func TestCodec_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   wireMessage
		out  wireMessage
	}{
		{"post request", &PostRequest{PostId: 42}, &PostRequest{}},
		{"batch request", &BatchPostRequest{PostIds: []int64{1, 2, 999}}, &BatchPostRequest{}},
		{"post response", &PostResponse{
			Id: 1, Title: "Limits", Content: "body", Category: "math", AuthorId: 9, AuthorName: "Ada",
			CreatedAt: "2025-11-03T19:18:59Z", Tags: []string{"calculus", ""}, LikeCount: 3, CommentCount: 2,
			ViewCount: 40, IsPublished: true,
		}, &PostResponse{}},
		{"batch response", &BatchPostResponse{Posts: []*PostResponse{{Id: 1, Title: "A"}, {Id: 2}}}, &BatchPostResponse{}},
		{"user request", &UserProfileRequest{UserId: 4}, &UserProfileRequest{}},
		{"user response", &UserProfileResponse{
			Id: 4, Name: "Grace", Email: "g@example.com", Interests: []string{"math"},
			FollowedCategories: []string{"science", "art"}, FollowedUserIds: []int64{7, 8},
			PreferredLanguage: "en", Timezone: "UTC",
		}, &UserProfileResponse{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Codec
			b, err := c.Marshal(tt.in)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			if err := c.Unmarshal(b, tt.out); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if !reflect.DeepEqual(tt.in, tt.out) {
				t.Errorf("round trip:\n got  %+v\n want %+v", tt.out, tt.in)
			}
		})
	}
}

func TestCodec_ZeroValuesEncodeEmpty(t *testing.T) {
	b, err := Codec{}.Marshal(&PostResponse{})
	if err != nil {
		t.Fatal(err)
	}
	if len(b) != 0 {
		t.Errorf("empty PostResponse encoded to %d bytes, want 0", len(b))
	}
}

func TestCodec_KnownEncoding(t *testing.T) {
	// post_id = 150 encodes as 08 96 01.
	b, err := Codec{}.Marshal(&PostRequest{PostId: 150})
	if err != nil {
		t.Fatal(err)
	}
	if want := []byte{0x08, 0x96, 0x01}; !bytes.Equal(b, want) {
		t.Errorf("encoding = % x, want % x", b, want)
	}

	// Packed post_ids [1,2,3] encode as 0a 03 01 02 03.
	b, _ = Codec{}.Marshal(&BatchPostRequest{PostIds: []int64{1, 2, 3}})
	if want := []byte{0x0a, 0x03, 0x01, 0x02, 0x03}; !bytes.Equal(b, want) {
		t.Errorf("packed encoding = % x, want % x", b, want)
	}
}

func TestUnmarshal_UnpackedAndUnknownFields(t *testing.T) {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, 5)
	b = protowire.AppendTag(b, 99, protowire.BytesType)
	b = protowire.AppendString(b, "future field")
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, 6)

	var req BatchPostRequest
	if err := (Codec{}).Unmarshal(b, &req); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !reflect.DeepEqual(req.PostIds, []int64{5, 6}) {
		t.Errorf("post ids = %v, want [5 6]", req.PostIds)
	}
}

func TestUnmarshal_Truncated(t *testing.T) {
	if err := (Codec{}).Unmarshal([]byte{0x12, 0x05, 'a'}, &PostResponse{}); err == nil {
		t.Error("expected error for truncated string field")
	}
}

func TestCodec_FallsBackToProto(t *testing.T) {
	in := &grpc_health_v1.HealthCheckRequest{Service: ServiceName}
	b, err := Codec{}.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	out := &grpc_health_v1.HealthCheckRequest{}
	if err := (Codec{}).Unmarshal(b, out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out.GetService() != ServiceName {
		t.Errorf("service = %q", out.GetService())
	}

	if _, err := (Codec{}).Marshal(struct{}{}); err == nil {
		t.Error("expected error for unsupported type")
	}
}
