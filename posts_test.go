package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postTitles(posts []Post) []string {
	titles := make([]string, 0, len(posts))
	for _, p := range posts {
		titles = append(titles, p.Title)
	}
	return titles
}

func TestListPosts_Empty(t *testing.T) {
	db := newTestDB(t)

	page, err := listVisiblePosts(context.Background(), db, testNow, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 0, page.Total)
	assert.Equal(t, 1, page.NumPages())
	assert.False(t, page.HasNext())
	assert.False(t, page.HasPrev())
}

func TestCreatePost(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	travel := createTestCategory(t, db, "travel", true)
	pubDate := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	p := createTestPost(t, db, alice, travel, "First", pubDate)

	assert.Equal(t, "First", p.Title)
	assert.Equal(t, "Text of First", p.Text)
	assert.True(t, p.PubDate.Equal(pubDate), "pub_date round trips, got %s", p.PubDate)
	assert.True(t, p.IsPublished, "new posts are published")
	assert.Equal(t, alice.ID, p.Author.ID)
	assert.Equal(t, "alice", p.Author.Username)
	assert.Equal(t, travel.ID, p.Category.ID)
	assert.Equal(t, "travel", p.Category.Slug)
	assert.Zero(t, p.CommentCount)
}

func TestCreatePost_UnknownCategory(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")

	_, err := createPost(context.Background(), db, alice.ID, PostInput{
		Title: "x", Text: "y", PubDate: testNow, CategoryID: 999,
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetPostByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := getPostByID(context.Background(), db, 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListVisiblePosts_OrderAndFilter(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	travel := createTestCategory(t, db, "travel", true)
	hiddenCat := createTestCategory(t, db, "secret", false)

	createTestPost(t, db, alice, travel, "Oldest", testNow.AddDate(0, 0, -3))
	createTestPost(t, db, alice, travel, "Newest", testNow.AddDate(0, 0, -1))
	createTestPost(t, db, alice, travel, "Middle", testNow.AddDate(0, 0, -2))
	createTestPost(t, db, alice, travel, "Future", testNow.AddDate(0, 0, 1))
	createTestPost(t, db, alice, hiddenCat, "In hidden category", testNow.AddDate(0, 0, -1))
	hidden := createTestPost(t, db, alice, travel, "Hidden", testNow.AddDate(0, 0, -1))
	hidePost(t, db, hidden.ID)

	page, err := listVisiblePosts(context.Background(), db, testNow, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"Newest", "Middle", "Oldest"}, postTitles(page.Items))
	assert.Equal(t, 3, page.Total)
}

func TestListVisiblePosts_SamePubDateOrdersByIDDesc(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	travel := createTestCategory(t, db, "travel", true)
	day := testNow.AddDate(0, 0, -1)

	createTestPost(t, db, alice, travel, "First", day)
	createTestPost(t, db, alice, travel, "Second", day)

	page, err := listVisiblePosts(context.Background(), db, testNow, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"Second", "First"}, postTitles(page.Items))
}

func TestListPosts_CommentCount(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	travel := createTestCategory(t, db, "travel", true)
	busy := createTestPost(t, db, alice, travel, "Busy", testNow.AddDate(0, 0, -1))
	createTestPost(t, db, alice, travel, "Quiet", testNow.AddDate(0, 0, -2))

	ctx := context.Background()
	for _, text := range []string{"one", "two", "three"} {
		_, err := createComment(ctx, db, busy.ID, bob.ID, text)
		require.NoError(t, err)
	}

	page, err := listVisiblePosts(ctx, db, testNow, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, 3, page.Items[0].CommentCount)
	assert.Equal(t, 0, page.Items[1].CommentCount)

	p, err := getPostByID(ctx, db, busy.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, p.CommentCount)
}

func TestListPosts_Filters(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	travel := createTestCategory(t, db, "travel", true)
	food := createTestCategory(t, db, "food", true)

	createTestPost(t, db, alice, travel, "Alice travel", testNow.AddDate(0, 0, -1))
	createTestPost(t, db, alice, food, "Alice food future", testNow.AddDate(0, 0, 2))
	createTestPost(t, db, bob, food, "Bob food", testNow.AddDate(0, 0, -2))

	ctx := context.Background()
	now := testNow

	tests := []struct {
		name   string
		filter postFilter
		want   []string
	}{
		{"everything", postFilter{}, []string{"Alice food future", "Alice travel", "Bob food"}},
		{"by author, all", postFilter{AuthorID: alice.ID}, []string{"Alice food future", "Alice travel"}},
		{"by author, visible", postFilter{AuthorID: alice.ID, VisibleAt: &now}, []string{"Alice travel"}},
		{"by category, visible", postFilter{CategoryID: food.ID, VisibleAt: &now}, []string{"Bob food"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := listPosts(ctx, db, tt.filter, 1, 10)
			require.NoError(t, err)
			assert.Equal(t, tt.want, postTitles(page.Items))
		})
	}
}

func TestListPosts_Pagination(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	travel := createTestCategory(t, db, "travel", true)
	for i := range 25 {
		createTestPost(t, db, alice, travel, "Post", testNow.Add(-time.Duration(i+1)*time.Hour))
	}
	ctx := context.Background()

	page, err := listVisiblePosts(ctx, db, testNow, 1, 10)
	require.NoError(t, err)
	assert.Len(t, page.Items, 10)
	assert.Equal(t, 25, page.Total)
	assert.Equal(t, 3, page.NumPages())
	assert.True(t, page.HasNext())
	assert.False(t, page.HasPrev())

	last, err := listVisiblePosts(ctx, db, testNow, 3, 10)
	require.NoError(t, err)
	assert.Len(t, last.Items, 5)
	assert.False(t, last.HasNext())
	assert.True(t, last.HasPrev())
	assert.Equal(t, 2, last.Prev())

	for _, n := range []int{0, -1, 4} {
		_, err := listVisiblePosts(ctx, db, testNow, n, 10)
		assert.ErrorIs(t, err, ErrNotFound, "page %d", n)
	}
}

func TestUpdatePost(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	travel := createTestCategory(t, db, "travel", true)
	food := createTestCategory(t, db, "food", true)
	p := createTestPost(t, db, alice, travel, "Before", testNow)
	hidePost(t, db, p.ID)
	ctx := context.Background()

	newDate := time.Date(2030, 1, 2, 0, 0, 0, 0, time.UTC)
	err := updatePost(ctx, db, p.ID, PostInput{Title: "After", Text: "New text", PubDate: newDate, CategoryID: food.ID})
	require.NoError(t, err)

	got, err := getPostByID(ctx, db, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "After", got.Title)
	assert.Equal(t, "New text", got.Text)
	assert.True(t, got.PubDate.Equal(newDate))
	assert.Equal(t, food.ID, got.Category.ID)
	assert.Equal(t, alice.ID, got.Author.ID, "author is unchanged")
	assert.False(t, got.IsPublished, "is_published is unchanged")
}

func TestUpdatePost_NotFound(t *testing.T) {
	db := newTestDB(t)
	travel := createTestCategory(t, db, "travel", true)

	err := updatePost(context.Background(), db, 99, PostInput{Title: "x", Text: "y", PubDate: testNow, CategoryID: travel.ID})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeletePost_RemovesComments(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	travel := createTestCategory(t, db, "travel", true)
	p := createTestPost(t, db, alice, travel, "Doomed", testNow)
	ctx := context.Background()
	_, err := createComment(ctx, db, p.ID, alice.ID, "bye")
	require.NoError(t, err)

	require.NoError(t, deletePost(ctx, db, p.ID))

	_, err = getPostByID(ctx, db, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM comments WHERE post_id = ?", p.ID).Scan(&count))
	assert.Zero(t, count)
}

func TestDeletePost_NonExistent(t *testing.T) {
	db := newTestDB(t)

	err := deletePost(context.Background(), db, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}
