package client

import (
	"context"
	"crypto/tls"
	"fmt"

	recommendationv1 "github.com/ayia-hosni/study-sync-backend/api/recommendation/v1"
	"github.com/ayia-hosni/study-sync-backend/internal/model"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

// GRPCClient looks up snapshots through PostDetailService.
type GRPCClient struct {
	conn   *grpc.ClientConn
	client recommendationv1.PostDetailServiceClient
}

// NewGRPCClient connects to the given gRPC address and returns a client.
func NewGRPCClient(addr string, opts Options) (*GRPCClient, error) {
	creds := insecure.NewCredentials()
	if opts.TLS {
		creds = credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})
	}
	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(creds),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	}
	if opts.Token != "" {
		dialOpts = append(dialOpts, grpc.WithUnaryInterceptor(bearerTokenInterceptor(opts.Token)))
	}

	conn, err := grpc.NewClient(addr, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial: %w", err)
	}
	return &GRPCClient{
		conn:   conn,
		client: recommendationv1.NewPostDetailServiceClient(conn),
	}, nil
}

// bearerTokenInterceptor attaches a Bearer token to every outgoing call.
func bearerTokenInterceptor(token string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

// GetPost returns the post snapshot for id. A missing post comes back as
// the empty snapshot, not an error.
func (c *GRPCClient) GetPost(ctx context.Context, id int64) (model.PostSnapshot, error) {
	resp, err := c.client.GetPostInfo(ctx, &recommendationv1.PostRequest{PostId: id})
	if err != nil {
		return model.PostSnapshot{}, err
	}
	return postSnapshot(resp), nil
}

// GetPosts returns the snapshots of the posts found among ids.
func (c *GRPCClient) GetPosts(ctx context.Context, ids []int64) ([]model.PostSnapshot, error) {
	resp, err := c.client.GetBatchPostInfo(ctx, &recommendationv1.BatchPostRequest{PostIds: ids})
	if err != nil {
		return nil, err
	}
	out := make([]model.PostSnapshot, 0, len(resp.Posts))
	for _, p := range resp.Posts {
		out = append(out, postSnapshot(p))
	}
	return out, nil
}

// GetUser returns the profile snapshot for id.
func (c *GRPCClient) GetUser(ctx context.Context, id int64) (model.UserProfileSnapshot, error) {
	resp, err := c.client.GetUserProfile(ctx, &recommendationv1.UserProfileRequest{UserId: id})
	if err != nil {
		return model.UserProfileSnapshot{}, err
	}
	return userSnapshot(resp), nil
}

// postSnapshot restores the non-nil slices the wire format drops.
func postSnapshot(p *recommendationv1.PostResponse) model.PostSnapshot {
	s := model.PostSnapshot{
		ID:           p.Id,
		Title:        p.Title,
		Content:      p.Content,
		Category:     p.Category,
		AuthorID:     p.AuthorId,
		AuthorName:   p.AuthorName,
		CreatedAt:    p.CreatedAt,
		Tags:         p.Tags,
		LikeCount:    p.LikeCount,
		CommentCount: p.CommentCount,
		ViewCount:    p.ViewCount,
		IsPublished:  p.IsPublished,
	}
	if s.Tags == nil {
		s.Tags = []string{}
	}
	return s
}

func userSnapshot(u *recommendationv1.UserProfileResponse) model.UserProfileSnapshot {
	s := model.UserProfileSnapshot{
		ID:                 u.Id,
		Name:               u.Name,
		Email:              u.Email,
		Interests:          u.Interests,
		FollowedCategories: u.FollowedCategories,
		FollowedUserIDs:    u.FollowedUserIds,
		PreferredLanguage:  u.PreferredLanguage,
		Timezone:           u.Timezone,
	}
	if s.Interests == nil {
		s.Interests = []string{}
	}
	if s.FollowedCategories == nil {
		s.FollowedCategories = []string{}
	}
	if s.FollowedUserIDs == nil {
		s.FollowedUserIDs = []int64{}
	}
	return s
}
