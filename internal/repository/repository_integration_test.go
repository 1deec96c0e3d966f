package repository_test

import (
	"context"
	"testing"

	"github.com/3gr1v750v/api-yamdb-docker/internal/models"
	"github.com/3gr1v750v/api-yamdb-docker/internal/repository"
	"github.com/3gr1v750v/api-yamdb-docker/internal/testutil"
	"github.com/3gr1v750v/api-yamdb-docker/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type RepositoryIntegrationTestSuite struct {
	suite.Suite
	testDB   *testutil.TestDatabase
	users    *repository.UserRepository
	titles   *repository.TitleRepository
	reviews  *repository.ReviewRepository
	comments *repository.CommentRepository
	cats     *repository.CategoryRepository
	genres   *repository.GenreRepository
	ctx      context.Context
}

func (s *RepositoryIntegrationTestSuite) SetupSuite() {
	logger.Init(false)

	s.testDB = testutil.SetupTestDatabase(s.T())
	s.users = repository.NewUserRepository(s.testDB.DB)
	s.titles = repository.NewTitleRepository(s.testDB.DB)
	s.reviews = repository.NewReviewRepository(s.testDB.DB)
	s.comments = repository.NewCommentRepository(s.testDB.DB)
	s.cats = repository.NewCategoryRepository(s.testDB.DB)
	s.genres = repository.NewGenreRepository(s.testDB.DB)
	s.ctx = context.Background()
}

func (s *RepositoryIntegrationTestSuite) TearDownSuite() {
	s.testDB.Teardown(s.T())
}

func (s *RepositoryIntegrationTestSuite) SetupTest() {
	testutil.CleanDatabase(s.T(), s.testDB.DB)
}

func (s *RepositoryIntegrationTestSuite) TestRatingIsMeanOfScores() {
	db := s.testDB.DB
	title := testutil.CreateTestTitle(s.T(), db, "Solaris", 1961, nil)
	alice := testutil.CreateTestUser(s.T(), db, "alice", models.RoleUser)
	bob := testutil.CreateTestUser(s.T(), db, "bob", models.RoleUser)
	testutil.CreateTestReview(s.T(), db, title, alice, 7)
	testutil.CreateTestReview(s.T(), db, title, bob, 10)

	got, err := s.titles.GetTitleByID(s.ctx, title.ID)
	require.NoError(s.T(), err)
	require.NotNil(s.T(), got)
	require.NotNil(s.T(), got.Rating)
	assert.InDelta(s.T(), 8.5, *got.Rating, 1e-9)
}

func (s *RepositoryIntegrationTestSuite) TestRatingIsNilWithoutReviews() {
	title := testutil.CreateTestTitle(s.T(), s.testDB.DB, "Unread", 2000, nil)

	got, err := s.titles.GetTitleByID(s.ctx, title.ID)
	require.NoError(s.T(), err)
	require.NotNil(s.T(), got)
	assert.Nil(s.T(), got.Rating)
}

func (s *RepositoryIntegrationTestSuite) TestGetTitleByID_Missing() {
	got, err := s.titles.GetTitleByID(s.ctx, 9999)
	assert.NoError(s.T(), err)
	assert.Nil(s.T(), got)
}

func (s *RepositoryIntegrationTestSuite) TestListTitlesFilters() {
	db := s.testDB.DB
	book := testutil.CreateTestCategory(s.T(), db, "Books", "books")
	film := testutil.CreateTestCategory(s.T(), db, "Films", "films")
	drama := testutil.CreateTestGenre(s.T(), db, "Drama", "drama")
	scifi := testutil.CreateTestGenre(s.T(), db, "Sci-Fi", "sci-fi")

	testutil.CreateTestTitle(s.T(), db, "Solaris", 1961, book, scifi)
	testutil.CreateTestTitle(s.T(), db, "Solaris", 1972, film, scifi, drama)
	testutil.CreateTestTitle(s.T(), db, "Stalker", 1979, film, drama)

	cases := []struct {
		name   string
		filter repository.TitleFilter
		want   int
	}{
		{"no filter", repository.TitleFilter{}, 3},
		{"category", repository.TitleFilter{Category: "films"}, 2},
		{"genre", repository.TitleFilter{Genre: "sci-fi"}, 2},
		{"name substring", repository.TitleFilter{Name: "sol"}, 2},
		{"year", repository.TitleFilter{Year: intPtr(1979)}, 1},
		{"combined", repository.TitleFilter{Category: "films", Genre: "drama", Name: "sol"}, 1},
		{"unknown slug", repository.TitleFilter{Genre: "horror"}, 0},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			titles, total, err := s.titles.ListTitles(s.ctx, tc.filter, repository.ListOptions{Limit: 10})
			require.NoError(s.T(), err)
			assert.Equal(s.T(), int64(tc.want), total)
			assert.Len(s.T(), titles, tc.want)
		})
	}
}

func (s *RepositoryIntegrationTestSuite) TestCreateTitleWithGenres() {
	db := s.testDB.DB
	category := testutil.CreateTestCategory(s.T(), db, "Music", "music")
	rock := testutil.CreateTestGenre(s.T(), db, "Rock", "rock")
	jazz := testutil.CreateTestGenre(s.T(), db, "Jazz", "jazz")

	title := &models.Title{Name: "Kind of Blue", Year: 1959, CategoryID: &category.ID}
	err := s.titles.CreateTitle(s.ctx, title, []models.Genre{*rock, *jazz, *jazz})
	require.NoError(s.T(), err)

	got, err := s.titles.GetTitleByID(s.ctx, title.ID)
	require.NoError(s.T(), err)
	require.NotNil(s.T(), got.Category)
	assert.Equal(s.T(), "music", got.Category.Slug)
	require.Len(s.T(), got.Genres, 2)
	assert.Equal(s.T(), "jazz", got.Genres[0].Slug)
	assert.Equal(s.T(), "rock", got.Genres[1].Slug)

	err = s.titles.UpdateTitle(s.ctx, title.ID, map[string]interface{}{"year": 1960}, []models.Genre{*rock})
	require.NoError(s.T(), err)

	got, err = s.titles.GetTitleByID(s.ctx, title.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1960, got.Year)
	require.Len(s.T(), got.Genres, 1)
	assert.Equal(s.T(), "rock", got.Genres[0].Slug)
}

func (s *RepositoryIntegrationTestSuite) TestDeleteCategoryNullsTitle() {
	db := s.testDB.DB
	category := testutil.CreateTestCategory(s.T(), db, "Books", "books")
	title := testutil.CreateTestTitle(s.T(), db, "Dune", 1965, category)

	require.NoError(s.T(), s.cats.DeleteCategory(s.ctx, category.ID))

	got, err := s.titles.GetTitleByID(s.ctx, title.ID)
	require.NoError(s.T(), err)
	require.NotNil(s.T(), got, "title survives category deletion")
	assert.Nil(s.T(), got.Category)
}

func (s *RepositoryIntegrationTestSuite) TestDeleteTitleCascades() {
	db := s.testDB.DB
	genre := testutil.CreateTestGenre(s.T(), db, "Drama", "drama")
	title := testutil.CreateTestTitle(s.T(), db, "Hamlet", 1603, nil, genre)
	alice := testutil.CreateTestUser(s.T(), db, "alice", models.RoleUser)
	review := testutil.CreateTestReview(s.T(), db, title, alice, 9)
	testutil.CreateTestComment(s.T(), db, review, alice, "agreed")

	require.NoError(s.T(), s.titles.DeleteTitle(s.ctx, title.ID))

	var count int64
	db.Model(&models.Review{}).Count(&count)
	assert.Zero(s.T(), count)
	db.Model(&models.Comment{}).Count(&count)
	assert.Zero(s.T(), count)
	db.Model(&models.GenreTitle{}).Count(&count)
	assert.Zero(s.T(), count)
	db.Model(&models.Genre{}).Count(&count)
	assert.Equal(s.T(), int64(1), count, "genres are shared and survive")
}

func (s *RepositoryIntegrationTestSuite) TestDeleteUserCascades() {
	db := s.testDB.DB
	title := testutil.CreateTestTitle(s.T(), db, "Hamlet", 1603, nil)
	alice := testutil.CreateTestUser(s.T(), db, "alice", models.RoleUser)
	bob := testutil.CreateTestUser(s.T(), db, "bob", models.RoleUser)
	aliceReview := testutil.CreateTestReview(s.T(), db, title, alice, 9)
	bobReview := testutil.CreateTestReview(s.T(), db, title, bob, 4)
	testutil.CreateTestComment(s.T(), db, aliceReview, bob, "on alice's review")
	testutil.CreateTestComment(s.T(), db, bobReview, alice, "alice on bob's review")
	testutil.CreateTestComment(s.T(), db, bobReview, bob, "bob on own review")

	require.NoError(s.T(), s.users.DeleteUser(s.ctx, alice.ID))

	var reviews []models.Review
	db.Find(&reviews)
	require.Len(s.T(), reviews, 1)
	assert.Equal(s.T(), bob.ID, reviews[0].AuthorID)

	var comments []models.Comment
	db.Find(&comments)
	require.Len(s.T(), comments, 1)
	assert.Equal(s.T(), "bob on own review", comments[0].Text)
}

func (s *RepositoryIntegrationTestSuite) TestUniqueViolations() {
	db := s.testDB.DB
	title := testutil.CreateTestTitle(s.T(), db, "Hamlet", 1603, nil)
	alice := testutil.CreateTestUser(s.T(), db, "alice", models.RoleUser)
	testutil.CreateTestReview(s.T(), db, title, alice, 9)

	err := s.reviews.CreateReview(s.ctx, &models.Review{TitleID: title.ID, AuthorID: alice.ID, Text: "again", Score: 1})
	assert.True(s.T(), repository.IsUniqueViolation(err), "second review by same author: %v", err)

	err = s.users.CreateUser(s.ctx, &models.User{Username: "alice", Email: "other@example.com", Role: models.RoleUser})
	assert.True(s.T(), repository.IsUniqueViolation(err), "duplicate username: %v", err)

	err = s.cats.CreateCategory(s.ctx, &models.Category{Name: "Other", Slug: "x"})
	require.NoError(s.T(), err)
	err = s.cats.CreateCategory(s.ctx, &models.Category{Name: "Another", Slug: "x"})
	assert.True(s.T(), repository.IsUniqueViolation(err), "duplicate slug: %v", err)

	assert.False(s.T(), repository.IsUniqueViolation(nil))
}

func (s *RepositoryIntegrationTestSuite) TestListUsersExactSearch() {
	db := s.testDB.DB
	testutil.CreateTestUser(s.T(), db, "alice", models.RoleUser)
	testutil.CreateTestUser(s.T(), db, "alicia", models.RoleUser)
	testutil.CreateTestUser(s.T(), db, "bob", models.RoleAdmin)

	users, total, err := s.users.ListUsers(s.ctx, "alice", repository.ListOptions{Limit: 10})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(1), total)
	require.Len(s.T(), users, 1)
	assert.Equal(s.T(), "alice", users[0].Username)

	users, total, err = s.users.ListUsers(s.ctx, "", repository.ListOptions{Offset: 1, Limit: 1})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(3), total)
	require.Len(s.T(), users, 1)
	assert.Equal(s.T(), "alicia", users[0].Username)
}

func (s *RepositoryIntegrationTestSuite) TestCommentsScopedToReview() {
	db := s.testDB.DB
	title := testutil.CreateTestTitle(s.T(), db, "Hamlet", 1603, nil)
	alice := testutil.CreateTestUser(s.T(), db, "alice", models.RoleUser)
	bob := testutil.CreateTestUser(s.T(), db, "bob", models.RoleUser)
	first := testutil.CreateTestReview(s.T(), db, title, alice, 9)
	second := testutil.CreateTestReview(s.T(), db, title, bob, 3)
	comment := testutil.CreateTestComment(s.T(), db, first, bob, "hi")

	got, err := s.comments.GetComment(s.ctx, first.ID, comment.ID)
	require.NoError(s.T(), err)
	require.NotNil(s.T(), got)
	assert.Equal(s.T(), "bob", got.Author.Username)

	got, err = s.comments.GetComment(s.ctx, second.ID, comment.ID)
	require.NoError(s.T(), err)
	assert.Nil(s.T(), got, "comment is not reachable through another review")
}

func intPtr(v int) *int { return &v }

func TestRepositoryIntegration(t *testing.T) {
	suite.Run(t, new(RepositoryIntegrationTestSuite))
}
