package service

import (
	"context"

	"studentmedia/internal/apperr"
	"studentmedia/internal/models"
	"studentmedia/internal/repository"
)

const (
	DefaultFeedLimit = 20
	MaxFeedLimit     = 100
	commentPreview   = 3
)

type FeedService interface {
	GetFeed(ctx context.Context, viewerID string, skip, limit int) ([]models.FeedPost, error)
}

// viewBuilder joins posts with their authors and the viewer's engagement.
type viewBuilder struct {
	userRepo repository.UserRepository
	postRepo repository.PostRepository
}

func (b *viewBuilder) postViews(ctx context.Context, viewerID string, posts []*models.Post) ([]models.PostView, error) {
	views := make([]models.PostView, 0, len(posts))
	if len(posts) == 0 {
		return views, nil
	}

	postIDs := make([]string, 0, len(posts))
	authorIDs := make([]string, 0, len(posts))
	for _, p := range posts {
		postIDs = append(postIDs, p.ID)
		authorIDs = append(authorIDs, p.UserID)
	}

	authors, err := b.userRepo.GetUsersByIDs(ctx, authorIDs)
	if err != nil {
		return nil, apperr.Internal("failed to load authors", err)
	}

	liked, err := b.postRepo.LikedPostIDs(ctx, viewerID, postIDs)
	if err != nil {
		return nil, apperr.Internal("failed to load likes", err)
	}

	bookmarked, err := b.postRepo.BookmarkedPostIDs(ctx, viewerID, postIDs)
	if err != nil {
		return nil, apperr.Internal("failed to load bookmarks", err)
	}

	for _, p := range posts {
		author, ok := authors[p.UserID]
		if !ok {
			continue
		}
		view := models.NewPostView(p, author)
		view.IsLiked = liked[p.ID]
		view.IsBookmarked = bookmarked[p.ID]
		views = append(views, view)
	}

	return views, nil
}

// commentPreviews returns, per post, the latest comments in chronological order.
// Comments whose author no longer exists are left out.
func (b *viewBuilder) commentPreviews(ctx context.Context, postIDs []string) (map[string][]models.CommentView, error) {
	recent, err := b.postRepo.RecentComments(ctx, postIDs, commentPreview)
	if err != nil {
		return nil, apperr.Internal("failed to load comments", err)
	}

	var userIDs []string
	for _, comments := range recent {
		for _, c := range comments {
			userIDs = append(userIDs, c.UserID)
		}
	}

	users, err := b.userRepo.GetUsersByIDs(ctx, userIDs)
	if err != nil {
		return nil, apperr.Internal("failed to load commenters", err)
	}

	result := make(map[string][]models.CommentView, len(recent))
	for postID, comments := range recent {
		// comments arrive newest first
		previews := make([]models.CommentView, 0, len(comments))
		for i := len(comments) - 1; i >= 0; i-- {
			c := comments[i]
			u, ok := users[c.UserID]
			if !ok {
				continue
			}
			previews = append(previews, models.CommentView{
				ID:        c.ID,
				Content:   c.Content,
				CreatedAt: c.CreatedAt,
				User: models.CommenterSummary{
					ID:         u.ID,
					Name:       u.Name,
					Department: u.Department,
					Year:       u.Year,
				},
			})
		}
		result[postID] = previews
	}

	return result, nil
}

type feedService struct {
	postRepo repository.PostRepository
	views    *viewBuilder
}

func NewFeedService(postRepo repository.PostRepository, userRepo repository.UserRepository) FeedService {
	return &feedService{
		postRepo: postRepo,
		views:    &viewBuilder{userRepo: userRepo, postRepo: postRepo},
	}
}

func (s *feedService) GetFeed(ctx context.Context, viewerID string, skip, limit int) ([]models.FeedPost, error) {
	if skip < 0 {
		return nil, apperr.Validation("skip must not be negative")
	}
	if limit <= 0 {
		limit = DefaultFeedLimit
	}
	if limit > MaxFeedLimit {
		limit = MaxFeedLimit
	}

	posts, err := s.postRepo.ListFeed(ctx, skip, limit)
	if err != nil {
		return nil, apperr.Internal("failed to list feed", err)
	}

	views, err := s.views.postViews(ctx, viewerID, posts)
	if err != nil {
		return nil, err
	}

	postIDs := make([]string, 0, len(views))
	for _, v := range views {
		postIDs = append(postIDs, v.ID)
	}

	previews, err := s.views.commentPreviews(ctx, postIDs)
	if err != nil {
		return nil, err
	}

	feed := make([]models.FeedPost, 0, len(views))
	for _, v := range views {
		comments := previews[v.ID]
		if comments == nil {
			comments = []models.CommentView{}
		}
		feed = append(feed, models.FeedPost{PostView: v, Comments: comments})
	}

	return feed, nil
}
