package importer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/3gr1v750v/api-yamdb-docker/internal/models"
	"github.com/3gr1v750v/api-yamdb-docker/internal/repository"
	"github.com/3gr1v750v/api-yamdb-docker/internal/testutil"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

var fixtureFiles = map[string]string{
	"category.csv": "id,name,slug\n1,Фильм,movie\n2,Книга,book\n",
	"genre.csv":    "\ufeffid,name,slug\n1,Драма,drama\n2,Комедия,comedy\n",
	"titles.csv":   "id,name,year,category\n1,Побег из Шоушенка,1994,1\n2,Дживс и Вустер,1990,2\n",
	"genre_title.csv": "id,title_id,genre_id\n1,1,1\n2,2,2\n3,2,1\n",
	"users.csv": "id,username,email,role,bio,first_name,last_name\n" +
		"100,bingobongo,bingobongo@yamdb.fake,user,,,\n" +
		"101,capt_obvious,capt_obvious@yamdb.fake,admin,,Капитан,\n",
	"review.csv": "id,title_id,text,author,score,pub_date\n" +
		"1,1,Ну такое,100,6,2019-09-24T21:08:21.567Z\n" +
		"2,1,Шедевр,101,10,2019-09-24T21:08:21.567Z\n",
	"comments.csv": "id,review_id,text,author,pub_date\n1,1,Согласен,101,2019-09-24T21:08:21.567Z\n",
}

func writeFixtures(t *testing.T, override map[string]string) string {
	dir := t.TempDir()
	for name, content := range fixtureFiles {
		if replacement, ok := override[name]; ok {
			content = replacement
		}
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

type ImporterIntegrationTestSuite struct {
	suite.Suite
	testDB *testutil.TestDatabase
	ctx    context.Context
}

func (s *ImporterIntegrationTestSuite) SetupSuite() {
	s.testDB = testutil.SetupTestDatabase(s.T())
	s.ctx = context.Background()
}

func (s *ImporterIntegrationTestSuite) TearDownSuite() {
	s.testDB.Teardown(s.T())
}

func (s *ImporterIntegrationTestSuite) SetupTest() {
	testutil.CleanDatabase(s.T(), s.testDB.DB)
}

func (s *ImporterIntegrationTestSuite) count(model interface{}) int64 {
	var n int64
	require.NoError(s.T(), s.testDB.DB.Model(model).Count(&n).Error)
	return n
}

func (s *ImporterIntegrationTestSuite) TestLoadsAllFilesInOrder() {
	dir := writeFixtures(s.T(), nil)

	results, err := NewLoader(s.testDB.DB, DirSource{Dir: dir}).Load(s.ctx)
	require.NoError(s.T(), err)
	require.Len(s.T(), results, len(FileNames()))
	for i, name := range FileNames() {
		assert.Equal(s.T(), name, results[i].File)
	}
	assert.Equal(s.T(), 3, results[3].Rows, "genre_title.csv rows")

	assert.Equal(s.T(), int64(2), s.count(&models.Category{}))
	assert.Equal(s.T(), int64(3), s.count(&models.GenreTitle{}))
	assert.Equal(s.T(), int64(2), s.count(&models.User{}))
	assert.Equal(s.T(), int64(1), s.count(&models.Comment{}))

	title, err := repository.NewTitleRepository(s.testDB.DB).GetTitleByID(s.ctx, 1)
	require.NoError(s.T(), err)
	require.NotNil(s.T(), title)
	require.NotNil(s.T(), title.Rating)
	assert.InDelta(s.T(), 8.0, *title.Rating, 0.0001)
	require.NotNil(s.T(), title.Category)
	assert.Equal(s.T(), "movie", title.Category.Slug)

	admin, err := repository.NewUserRepository(s.testDB.DB).GetUserByUsername(s.ctx, "capt_obvious")
	require.NoError(s.T(), err)
	require.NotNil(s.T(), admin)
	assert.Equal(s.T(), uint(101), admin.ID)
	assert.Equal(s.T(), models.RoleAdmin, admin.Role)
	assert.Equal(s.T(), "Капитан", admin.FirstName)
}

func (s *ImporterIntegrationTestSuite) TestStopsAtFirstBadFile() {
	dir := writeFixtures(s.T(), map[string]string{
		"users.csv": "id,username,email,role\n100,bingobongo,b@yamdb.fake,superuser\n",
	})

	results, err := NewLoader(s.testDB.DB, DirSource{Dir: dir}).Load(s.ctx)
	require.Error(s.T(), err)

	var fe *FileError
	require.True(s.T(), errors.As(err, &fe))
	assert.Equal(s.T(), "users.csv", fe.File)
	assert.Equal(s.T(), 2, fe.Line)
	assert.Len(s.T(), results, 4, "files before users.csv stay loaded")

	assert.Equal(s.T(), int64(2), s.count(&models.Title{}))
	assert.Equal(s.T(), int64(0), s.count(&models.User{}))
	assert.Equal(s.T(), int64(0), s.count(&models.Review{}), "later files are not attempted")
}

func (s *ImporterIntegrationTestSuite) TestFailedFileIsRolledBack() {
	dir := writeFixtures(s.T(), map[string]string{
		"genre.csv": "id,name,slug\n1,Драма,drama\n2,Комедия,drama\n",
	})

	_, err := NewLoader(s.testDB.DB, DirSource{Dir: dir}).Load(s.ctx)
	require.Error(s.T(), err)
	assert.True(s.T(), repository.IsUniqueViolation(err))
	assert.Equal(s.T(), int64(0), s.count(&models.Genre{}), "no partial genre rows")
	assert.Equal(s.T(), int64(2), s.count(&models.Category{}))
}

func (s *ImporterIntegrationTestSuite) TestMissingFile() {
	dir := writeFixtures(s.T(), nil)
	require.NoError(s.T(), os.Remove(filepath.Join(dir, "titles.csv")))

	_, err := NewLoader(s.testDB.DB, DirSource{Dir: dir}).Load(s.ctx)
	require.Error(s.T(), err)
	assert.ErrorIs(s.T(), err, os.ErrNotExist)
}

func TestImporterIntegration(t *testing.T) {
	suite.Run(t, new(ImporterIntegrationTestSuite))
}

type fakeBucket struct {
	objects map[string]string
	keys    []string
}

func (f *fakeBucket) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.keys = append(f.keys, *in.Key)
	body, ok := f.objects[*in.Key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewBufferString(body))}, nil
}

func TestS3Source_OpenUsesPrefix(t *testing.T) {
	bucket := &fakeBucket{objects: map[string]string{"dumps/2024/genre.csv": "id,name,slug\n"}}
	src := &S3Source{client: bucket, bucket: "yamdb", prefix: "dumps/2024"}

	rc, err := src.Open(context.Background(), "genre.csv")
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "id,name,slug\n", string(data))
	assert.Equal(t, []string{"dumps/2024/genre.csv"}, bucket.keys)
	assert.Equal(t, "s3://yamdb/dumps/2024", src.String())

	_, err = src.Open(context.Background(), "titles.csv")
	assert.Error(t, err)
}

func TestReadCSV_HeaderOnlyAndShortRows(t *testing.T) {
	rows, err := readCSV(bytes.NewBufferString("id,name,slug\n"))
	require.NoError(t, err)
	assert.Empty(t, rows)

	rows, err = readCSV(bytes.NewBufferString(""))
	require.NoError(t, err)
	assert.Empty(t, rows)

	rows, err = readCSV(bytes.NewBufferString("id,name,slug\n1,Drama\n"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Drama", rows[0].str("name"))
	assert.Empty(t, rows[0].str("slug"))

	_, err = readCSV(bytes.NewBufferString("id,name\n1,\"unterminated\n"))
	assert.Error(t, err)
}
