package models

import (
	"strings"
	"time"

	"github.com/lib/pq"
)

// Departments - the fixed set of campus departments
var Departments = []string{"CSE", "ECE", "MECH", "CIVIL", "EEE", "AIDS", "AIML", "IT", "CHEMICAL"}

func IsDepartment(value string) bool {
	for _, d := range Departments {
		if d == value {
			return true
		}
	}
	return false
}

type User struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	Department   string    `json:"department" db:"department"`
	Year         int       `json:"year" db:"year"`
	RollNumber   string    `json:"roll_number" db:"roll_number"`
	ProfileImage *string   `json:"profile_image" db:"profile_image"`
	Bio          *string   `json:"bio" db:"bio"`
	IsVerified   bool      `json:"is_verified" db:"is_verified"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

type VerificationCode struct {
	Email     string    `json:"email" db:"email"`
	Code      string    `json:"code" db:"code"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
}

// Expired reports whether the code is no longer usable at the given instant.
// A code is valid strictly before ExpiresAt.
func (v *VerificationCode) Expired(now time.Time) bool {
	return !now.Before(v.ExpiresAt)
}

type Post struct {
	ID            string         `json:"id" db:"id"`
	Seq           int64          `json:"-" db:"seq"`
	UserID        string         `json:"user_id" db:"user_id"`
	Content       string         `json:"content" db:"content"`
	Image         *string        `json:"image" db:"image"`
	Tags          pq.StringArray `json:"tags" db:"tags"`
	LikesCount    int            `json:"likes_count" db:"likes_count"`
	CommentsCount int            `json:"comments_count" db:"comments_count"`
	SharesCount   int            `json:"shares_count" db:"shares_count"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at" db:"updated_at"`
}

// MatchesQuery reports a case-insensitive substring match against the content
// or any tag. An empty query matches every post.
func (p *Post) MatchesQuery(query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(p.Content), q) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

type Comment struct {
	ID        string    `json:"id" db:"id"`
	Seq       int64     `json:"-" db:"seq"`
	PostID    string    `json:"post_id" db:"post_id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Image struct {
	ID         string    `json:"id" db:"id"`
	UserID     string    `json:"user_id" db:"user_id"`
	ObjectName string    `json:"object_name" db:"object_name"`
	URL        string    `json:"url" db:"url"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// AuthorSummary is the public projection of a post author.
type AuthorSummary struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Department   string  `json:"department"`
	Year         int     `json:"year"`
	ProfileImage *string `json:"profile_image"`
}

type CommenterSummary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Department string `json:"department"`
	Year       int    `json:"year"`
}

type CommentView struct {
	ID        string           `json:"id"`
	Content   string           `json:"content"`
	CreatedAt time.Time        `json:"created_at"`
	User      CommenterSummary `json:"user"`
}

// PostView is a post joined with its author and the viewer's engagement flags.
type PostView struct {
	ID            string        `json:"id"`
	UserID        string        `json:"user_id"`
	Content       string        `json:"content"`
	Image         *string       `json:"image"`
	Tags          []string      `json:"tags"`
	LikesCount    int           `json:"likes_count"`
	CommentsCount int           `json:"comments_count"`
	SharesCount   int           `json:"shares_count"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
	User          AuthorSummary `json:"user"`
	IsLiked       bool          `json:"is_liked"`
	IsBookmarked  bool          `json:"is_bookmarked"`
}

// FeedPost extends PostView with a preview of the latest comments, oldest first.
type FeedPost struct {
	PostView
	Comments []CommentView `json:"comments"`
}

func NewAuthorSummary(u *User) AuthorSummary {
	return AuthorSummary{
		ID:           u.ID,
		Name:         u.Name,
		Department:   u.Department,
		Year:         u.Year,
		ProfileImage: u.ProfileImage,
	}
}

func NewPostView(p *Post, author *User) PostView {
	tags := []string(p.Tags)
	if tags == nil {
		tags = []string{}
	}
	return PostView{
		ID:            p.ID,
		UserID:        p.UserID,
		Content:       p.Content,
		Image:         p.Image,
		Tags:          tags,
		LikesCount:    p.LikesCount,
		CommentsCount: p.CommentsCount,
		SharesCount:   p.SharesCount,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
		User:          NewAuthorSummary(author),
	}
}
