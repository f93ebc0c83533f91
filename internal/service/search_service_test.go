package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studentmedia/internal/apperr"
	"studentmedia/internal/models"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestFilterFor(t *testing.T) {
	tests := []struct {
		name     string
		req      SearchRequest
		wantDept *string
		wantYear *int
	}{
		{"no filters", SearchRequest{Query: " go "}, nil, nil},
		{"year without department is ignored", SearchRequest{Year: intPtr(2)}, nil, nil},
		{"blank department is ignored", SearchRequest{Department: strPtr("  "), Year: intPtr(2)}, nil, nil},
		{"department is upper cased", SearchRequest{Department: strPtr("cse")}, strPtr("CSE"), nil},
		{"department and year", SearchRequest{Department: strPtr("ECE"), Year: intPtr(3)}, strPtr("ECE"), intPtr(3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter := filterFor(tt.req)
			assert.Equal(t, strings.TrimSpace(tt.req.Query), filter.Query)
			assert.Equal(t, SearchLimit, filter.Limit)
			assert.Equal(t, tt.wantDept, filter.Department)
			assert.Equal(t, tt.wantYear, filter.Year)
		})
	}
}

func contents(views []models.PostView) []string {
	out := make([]string, 0, len(views))
	for _, v := range views {
		out = append(out, v.Content)
	}
	return out
}

func TestSearchService_Search(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)

	cse2 := env.verifiedUser(t, "asha@ritrjpm.ac.in", "CSE", 2)
	cse3 := env.verifiedUser(t, "ravi@ritrjpm.ac.in", "CSE", 3)
	ece2 := env.verifiedUser(t, "meena@ritrjpm.ac.in", "ECE", 2)

	env.clock.Advance(time.Minute)
	env.post(t, cse2.ID, "Learning Golang today", "programming")
	env.clock.Advance(time.Minute)
	env.post(t, cse3.ID, "Placement drive", "Careers")
	env.clock.Advance(time.Minute)
	liked := env.post(t, ece2.ID, "Circuit lab notes", "electronics")

	_, err := env.svc.Post.ToggleLike(ctx, liked.ID, cse2.ID)
	require.NoError(t, err)

	tests := []struct {
		name string
		req  SearchRequest
		want []string
	}{
		{"empty query returns everything newest first", SearchRequest{}, []string{"Circuit lab notes", "Placement drive", "Learning Golang today"}},
		{"content is case insensitive", SearchRequest{Query: "GOLANG"}, []string{"Learning Golang today"}},
		{"tag substring", SearchRequest{Query: "career"}, []string{"Placement drive"}},
		{"department", SearchRequest{Department: strPtr("cse")}, []string{"Placement drive", "Learning Golang today"}},
		{"department and year", SearchRequest{Department: strPtr("CSE"), Year: intPtr(3)}, []string{"Placement drive"}},
		{"year alone does not filter", SearchRequest{Year: intPtr(3)}, []string{"Circuit lab notes", "Placement drive", "Learning Golang today"}},
		{"no match", SearchRequest{Query: "basketball"}, []string{}},
		{"like metacharacters are literal", SearchRequest{Query: "%"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			views, err := env.svc.Search.Search(ctx, cse2.ID, tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, contents(views))
		})
	}

	t.Run("viewer flags are included", func(t *testing.T) {
		views, err := env.svc.Search.Search(ctx, cse2.ID, SearchRequest{Query: "circuit"})
		require.NoError(t, err)
		require.Len(t, views, 1)
		assert.True(t, views[0].IsLiked)
		assert.Equal(t, "ECE", views[0].User.Department)
	})

	t.Run("invalid year", func(t *testing.T) {
		_, err := env.svc.Search.Search(ctx, cse2.ID, SearchRequest{Department: strPtr("CSE"), Year: intPtr(9)})
		assert.True(t, apperr.Is(err, apperr.KindValidation))
	})
}

func TestSearchService_CapsResults(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	user := env.verifiedUser(t, "asha@ritrjpm.ac.in", "CSE", 2)

	for i := 0; i < SearchLimit+10; i++ {
		env.post(t, user.ID, "repeat")
	}

	views, err := env.svc.Search.Search(ctx, user.ID, SearchRequest{Query: "repeat"})
	require.NoError(t, err)
	assert.Len(t, views, SearchLimit)
}
