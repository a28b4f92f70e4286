// Package recommendationv1 holds the gRPC contract served to the
// recommendation service: request/response messages encoded in protobuf
// wire format, the service descriptor and a client. See post_detail.proto.
package recommendationv1

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// wireMessage is implemented by every message in this package.
type wireMessage interface {
	appendWire(b []byte) []byte
	unmarshalWire(b []byte) error
}

type PostRequest struct {
	PostId int64
}

type BatchPostRequest struct {
	PostIds []int64
}

type PostResponse struct {
	Id           int64
	Title        string
	Content      string
	Category     string
	AuthorId     int64
	AuthorName   string
	CreatedAt    string
	Tags         []string
	LikeCount    int64
	CommentCount int64
	ViewCount    int64
	IsPublished  bool
}

type BatchPostResponse struct {
	Posts []*PostResponse
}

type UserProfileRequest struct {
	UserId int64
}

type UserProfileResponse struct {
	Id                 int64
	Name               string
	Email              string
	Interests          []string
	FollowedCategories []string
	FollowedUserIds    []int64
	PreferredLanguage  string
	Timezone           string
}

func (m *PostRequest) appendWire(b []byte) []byte {
	return appendInt64(b, 1, m.PostId)
}

func (m *PostRequest) unmarshalWire(b []byte) error {
	*m = PostRequest{}
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == 1 {
			return consumeInt64(typ, b, &m.PostId)
		}
		return 0, nil
	})
}

func (m *BatchPostRequest) appendWire(b []byte) []byte {
	return appendPackedInt64s(b, 1, m.PostIds)
}

func (m *BatchPostRequest) unmarshalWire(b []byte) error {
	*m = BatchPostRequest{}
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == 1 {
			return consumeInt64s(typ, b, &m.PostIds)
		}
		return 0, nil
	})
}

func (m *PostResponse) appendWire(b []byte) []byte {
	b = appendInt64(b, 1, m.Id)
	b = appendString(b, 2, m.Title)
	b = appendString(b, 3, m.Content)
	b = appendString(b, 4, m.Category)
	b = appendInt64(b, 5, m.AuthorId)
	b = appendString(b, 6, m.AuthorName)
	b = appendString(b, 7, m.CreatedAt)
	b = appendStrings(b, 8, m.Tags)
	b = appendInt64(b, 9, m.LikeCount)
	b = appendInt64(b, 10, m.CommentCount)
	b = appendInt64(b, 11, m.ViewCount)
	b = appendBool(b, 12, m.IsPublished)
	return b
}

func (m *PostResponse) unmarshalWire(b []byte) error {
	*m = PostResponse{}
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeInt64(typ, b, &m.Id)
		case 2:
			return consumeString(typ, b, &m.Title)
		case 3:
			return consumeString(typ, b, &m.Content)
		case 4:
			return consumeString(typ, b, &m.Category)
		case 5:
			return consumeInt64(typ, b, &m.AuthorId)
		case 6:
			return consumeString(typ, b, &m.AuthorName)
		case 7:
			return consumeString(typ, b, &m.CreatedAt)
		case 8:
			return consumeRepeatedString(typ, b, &m.Tags)
		case 9:
			return consumeInt64(typ, b, &m.LikeCount)
		case 10:
			return consumeInt64(typ, b, &m.CommentCount)
		case 11:
			return consumeInt64(typ, b, &m.ViewCount)
		case 12:
			return consumeBool(typ, b, &m.IsPublished)
		}
		return 0, nil
	})
}

func (m *BatchPostResponse) appendWire(b []byte) []byte {
	for _, p := range m.Posts {
		if p == nil {
			continue
		}
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendBytes(b, p.appendWire(nil))
	}
	return b
}

func (m *BatchPostResponse) unmarshalWire(b []byte) error {
	*m = BatchPostResponse{}
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 || typ != protowire.BytesType {
			return 0, nil
		}
		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return 0, protowire.ParseError(n)
		}
		p := &PostResponse{}
		if err := p.unmarshalWire(v); err != nil {
			return 0, fmt.Errorf("posts: %w", err)
		}
		m.Posts = append(m.Posts, p)
		return n, nil
	})
}

func (m *UserProfileRequest) appendWire(b []byte) []byte {
	return appendInt64(b, 1, m.UserId)
}

func (m *UserProfileRequest) unmarshalWire(b []byte) error {
	*m = UserProfileRequest{}
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == 1 {
			return consumeInt64(typ, b, &m.UserId)
		}
		return 0, nil
	})
}

func (m *UserProfileResponse) appendWire(b []byte) []byte {
	b = appendInt64(b, 1, m.Id)
	b = appendString(b, 2, m.Name)
	b = appendString(b, 3, m.Email)
	b = appendStrings(b, 4, m.Interests)
	b = appendStrings(b, 5, m.FollowedCategories)
	b = appendPackedInt64s(b, 6, m.FollowedUserIds)
	b = appendString(b, 7, m.PreferredLanguage)
	b = appendString(b, 8, m.Timezone)
	return b
}

func (m *UserProfileResponse) unmarshalWire(b []byte) error {
	*m = UserProfileResponse{}
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeInt64(typ, b, &m.Id)
		case 2:
			return consumeString(typ, b, &m.Name)
		case 3:
			return consumeString(typ, b, &m.Email)
		case 4:
			return consumeRepeatedString(typ, b, &m.Interests)
		case 5:
			return consumeRepeatedString(typ, b, &m.FollowedCategories)
		case 6:
			return consumeInt64s(typ, b, &m.FollowedUserIds)
		case 7:
			return consumeString(typ, b, &m.PreferredLanguage)
		case 8:
			return consumeString(typ, b, &m.Timezone)
		}
		return 0, nil
	})
}
