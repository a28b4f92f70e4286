// Package server exposes the query service over gRPC and the dispatch
// ingress, health and metrics over HTTP.
package server

import (
	"context"

	recommendationv1 "github.com/ayia-hosni/study-sync-backend/api/recommendation/v1"
	"github.com/ayia-hosni/study-sync-backend/internal/model"
	"github.com/ayia-hosni/study-sync-backend/internal/query"
)

// PostDetailServer implements recommendationv1.PostDetailServiceServer on
// top of a query.Service. Lookup misses and faults come back as empty
// responses with an OK status.
type PostDetailServer struct {
	recommendationv1.UnimplementedPostDetailServiceServer
	svc *query.Service
}

var _ recommendationv1.PostDetailServiceServer = (*PostDetailServer)(nil)

// NewPostDetailServer creates a PostDetailServer backed by svc.
func NewPostDetailServer(svc *query.Service) *PostDetailServer {
	return &PostDetailServer{svc: svc}
}

func (s *PostDetailServer) GetPostInfo(ctx context.Context, req *recommendationv1.PostRequest) (*recommendationv1.PostResponse, error) {
	return postResponse(s.svc.GetPostInfo(ctx, req.PostId)), nil
}

func (s *PostDetailServer) GetBatchPostInfo(ctx context.Context, req *recommendationv1.BatchPostRequest) (*recommendationv1.BatchPostResponse, error) {
	snaps := s.svc.GetBatchPostInfo(ctx, req.PostIds)
	resp := &recommendationv1.BatchPostResponse{Posts: make([]*recommendationv1.PostResponse, 0, len(snaps))}
	for _, snap := range snaps {
		resp.Posts = append(resp.Posts, postResponse(snap))
	}
	return resp, nil
}

func (s *PostDetailServer) GetUserProfile(ctx context.Context, req *recommendationv1.UserProfileRequest) (*recommendationv1.UserProfileResponse, error) {
	return userProfileResponse(s.svc.GetUserProfile(ctx, req.UserId)), nil
}

func postResponse(s model.PostSnapshot) *recommendationv1.PostResponse {
	return &recommendationv1.PostResponse{
		Id:           s.ID,
		Title:        s.Title,
		Content:      s.Content,
		Category:     s.Category,
		AuthorId:     s.AuthorID,
		AuthorName:   s.AuthorName,
		CreatedAt:    s.CreatedAt,
		Tags:         s.Tags,
		LikeCount:    s.LikeCount,
		CommentCount: s.CommentCount,
		ViewCount:    s.ViewCount,
		IsPublished:  s.IsPublished,
	}
}

func userProfileResponse(s model.UserProfileSnapshot) *recommendationv1.UserProfileResponse {
	return &recommendationv1.UserProfileResponse{
		Id:                 s.ID,
		Name:               s.Name,
		Email:              s.Email,
		Interests:          s.Interests,
		FollowedCategories: s.FollowedCategories,
		FollowedUserIds:    s.FollowedUserIDs,
		PreferredLanguage:  s.PreferredLanguage,
		Timezone:           s.Timezone,
	}
}

// emptyResponses are served by RecoveryInterceptor when a PostDetailService
// handler panics past the query boundary.
var emptyResponses = map[string]func() any{
	recommendationv1.PostDetailService_GetPostInfo_FullMethodName: func() any {
		return postResponse(model.EmptyPostSnapshot())
	},
	recommendationv1.PostDetailService_GetBatchPostInfo_FullMethodName: func() any {
		return &recommendationv1.BatchPostResponse{Posts: []*recommendationv1.PostResponse{}}
	},
	recommendationv1.PostDetailService_GetUserProfile_FullMethodName: func() any {
		return userProfileResponse(model.EmptyUserProfileSnapshot())
	},
}
