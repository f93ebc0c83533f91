// Package memory provides in-process implementations of the repository interfaces.
// All state lives behind a single mutex, so every operation is atomic.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"studentmedia/internal/models"
	"studentmedia/internal/repository"
)

type Store struct {
	mu  sync.RWMutex
	seq int64

	users     map[string]*models.User
	emails    map[string]string
	passwords map[string]string
	codes     map[string]*models.VerificationCode

	posts     []*models.Post
	postIndex map[string]*models.Post
	likes     map[string]map[string]struct{}
	bookmarks map[string]map[string]struct{}
	comments  map[string][]*models.Comment

	images []*models.Image
}

func New() *Store {
	return &Store{
		users:     make(map[string]*models.User),
		emails:    make(map[string]string),
		passwords: make(map[string]string),
		codes:     make(map[string]*models.VerificationCode),
		postIndex: make(map[string]*models.Post),
		likes:     make(map[string]map[string]struct{}),
		bookmarks: make(map[string]map[string]struct{}),
		comments:  make(map[string][]*models.Comment),
	}
}

// Repository exposes the store through the repository interfaces.
func (s *Store) Repository() *repository.Repository {
	return &repository.Repository{
		User:         &userRepository{s},
		Verification: &verificationRepository{s},
		Post:         &postRepository{s},
		Image:        &imageRepository{s},
		Tables:       &tablesRepository{s},
	}
}

func (s *Store) nextSeq() int64 {
	s.seq++
	return s.seq
}

func cloneUser(u *models.User) *models.User {
	c := *u
	return &c
}

func clonePost(p *models.Post) *models.Post {
	c := *p
	c.Tags = append(pq.StringArray{}, p.Tags...)
	return &c
}

type userRepository struct{ s *Store }

func (r *userRepository) CreateUser(_ context.Context, user *models.User, passwordHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.emails[user.Email]; exists {
		return repository.ErrDuplicate
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	r.s.users[user.ID] = cloneUser(user)
	r.s.emails[user.Email] = user.ID
	r.s.passwords[user.ID] = passwordHash
	return nil
}

func (r *userRepository) GetUserByID(_ context.Context, userID string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *userRepository) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.emails[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneUser(r.s.users[id]), nil
}

func (r *userRepository) GetUsersByIDs(_ context.Context, userIDs []string) (map[string]*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make(map[string]*models.User, len(userIDs))
	for _, id := range userIDs {
		if u, ok := r.s.users[id]; ok {
			result[id] = cloneUser(u)
		}
	}
	return result, nil
}

func (r *userRepository) GetPasswordHash(_ context.Context, userID string) (string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	hash, ok := r.s.passwords[userID]
	if !ok {
		return "", repository.ErrNotFound
	}
	return hash, nil
}

func (r *userRepository) MarkVerified(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.IsVerified = true
	return nil
}

func (r *userRepository) UpdateProfile(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	u.Name = user.Name
	u.Bio = user.Bio
	u.ProfileImage = user.ProfileImage
	return nil
}

type verificationRepository struct{ s *Store }

func (r *verificationRepository) SaveCode(_ context.Context, code *models.VerificationCode) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c := *code
	r.s.codes[code.Email] = &c
	return nil
}

func (r *verificationRepository) GetCode(_ context.Context, email string) (*models.VerificationCode, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	code, ok := r.s.codes[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *code
	return &c, nil
}

func (r *verificationRepository) DeleteCode(_ context.Context, email string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.codes, email)
	return nil
}

type postRepository struct{ s *Store }

func (r *postRepository) CreatePost(_ context.Context, post *models.Post) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if post.ID == "" {
		post.ID = uuid.New().String()
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now()
	}
	if post.UpdatedAt.IsZero() {
		post.UpdatedAt = post.CreatedAt
	}
	if post.Tags == nil {
		post.Tags = pq.StringArray{}
	}
	post.Seq = r.s.nextSeq()

	stored := clonePost(post)
	r.s.posts = append(r.s.posts, stored)
	r.s.postIndex[stored.ID] = stored
	return nil
}

func (r *postRepository) GetPostByID(_ context.Context, postID string) (*models.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.postIndex[postID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clonePost(p), nil
}

// ordered returns the posts matching keep, newest first. The stable sort
// over the insertion-ordered slice keeps ties in insertion order.
func (r *postRepository) ordered(keep func(p *models.Post, author *models.User) bool) []*models.Post {
	var out []*models.Post
	for _, p := range r.s.posts {
		author, ok := r.s.users[p.UserID]
		if !ok || !keep(p, author) {
			continue
		}
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func page(posts []*models.Post, skip, limit int) []*models.Post {
	result := []*models.Post{}
	if skip >= len(posts) {
		return result
	}
	end := len(posts)
	if limit >= 0 && skip+limit < end {
		end = skip + limit
	}
	for _, p := range posts[skip:end] {
		result = append(result, clonePost(p))
	}
	return result
}

func (r *postRepository) ListFeed(_ context.Context, skip, limit int) ([]*models.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	all := r.ordered(func(*models.Post, *models.User) bool { return true })
	return page(all, skip, limit), nil
}

func (r *postRepository) SearchPosts(_ context.Context, filter repository.SearchFilter) ([]*models.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	matches := r.ordered(func(p *models.Post, author *models.User) bool {
		if filter.Department != nil && author.Department != *filter.Department {
			return false
		}
		if filter.Year != nil && author.Year != *filter.Year {
			return false
		}
		return p.MatchesQuery(filter.Query)
	})
	return page(matches, 0, filter.Limit), nil
}

func toggle(set map[string]map[string]struct{}, postID, userID string) bool {
	members, ok := set[postID]
	if !ok {
		members = make(map[string]struct{})
		set[postID] = members
	}
	if _, ok := members[userID]; ok {
		delete(members, userID)
		return false
	}
	members[userID] = struct{}{}
	return true
}

func (r *postRepository) ToggleLike(_ context.Context, postID, userID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.postIndex[postID]
	if !ok {
		return false, repository.ErrNotFound
	}

	liked := toggle(r.s.likes, postID, userID)
	if liked {
		p.LikesCount++
	} else {
		p.LikesCount--
	}
	return liked, nil
}

func (r *postRepository) ToggleBookmark(_ context.Context, postID, userID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.postIndex[postID]; !ok {
		return false, repository.ErrNotFound
	}
	return toggle(r.s.bookmarks, postID, userID), nil
}

func members(set map[string]map[string]struct{}, userID string, postIDs []string) map[string]bool {
	result := make(map[string]bool, len(postIDs))
	for _, id := range postIDs {
		if _, ok := set[id][userID]; ok {
			result[id] = true
		}
	}
	return result
}

func (r *postRepository) LikedPostIDs(_ context.Context, userID string, postIDs []string) (map[string]bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return members(r.s.likes, userID, postIDs), nil
}

func (r *postRepository) BookmarkedPostIDs(_ context.Context, userID string, postIDs []string) (map[string]bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return members(r.s.bookmarks, userID, postIDs), nil
}

func (r *postRepository) AddComment(_ context.Context, comment *models.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.postIndex[comment.PostID]
	if !ok {
		return repository.ErrNotFound
	}
	if comment.ID == "" {
		comment.ID = uuid.New().String()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now()
	}
	comment.Seq = r.s.nextSeq()

	c := *comment
	r.s.comments[comment.PostID] = append(r.s.comments[comment.PostID], &c)
	p.CommentsCount++
	return nil
}

func (r *postRepository) RecentComments(_ context.Context, postIDs []string, n int) (map[string][]*models.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make(map[string][]*models.Comment, len(postIDs))
	if n <= 0 {
		return result, nil
	}

	for _, id := range postIDs {
		all := append([]*models.Comment(nil), r.s.comments[id]...)
		sort.SliceStable(all, func(i, j int) bool {
			if all[i].CreatedAt.Equal(all[j].CreatedAt) {
				return all[i].Seq > all[j].Seq
			}
			return all[i].CreatedAt.After(all[j].CreatedAt)
		})
		if len(all) > n {
			all = all[:n]
		}
		for _, c := range all {
			cc := *c
			result[id] = append(result[id], &cc)
		}
	}
	return result, nil
}

type imageRepository struct{ s *Store }

func (r *imageRepository) Create(_ context.Context, image *models.Image) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if image.ID == "" {
		image.ID = uuid.New().String()
	}
	if image.CreatedAt.IsZero() {
		image.CreatedAt = time.Now()
	}
	img := *image
	r.s.images = append(r.s.images, &img)
	return nil
}

func (r *imageRepository) GetByUserID(_ context.Context, userID string) ([]*models.Image, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	images := []*models.Image{}
	for i := len(r.s.images) - 1; i >= 0; i-- {
		if r.s.images[i].UserID == userID {
			img := *r.s.images[i]
			images = append(images, &img)
		}
	}
	return images, nil
}

type tablesRepository struct{ s *Store }

// CountTables reports the number of collections the store keeps.
func (r *tablesRepository) CountTables(context.Context) (int, error) {
	return 8, nil
}
