package importer

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cinetheque/api/internal/cache"
	"github.com/cinetheque/api/internal/database/testutil"
	"github.com/cinetheque/api/internal/models"
	"github.com/cinetheque/api/internal/storage"
	"github.com/cinetheque/api/internal/tmdb"
)

// fakeTMDB serves a configurable slice of the TMDb API surface.
type fakeTMDB struct {
	popular     string
	credits     map[int64]string
	creditsFail map[int64]bool
	persons     map[int64]string
}

func (f *fakeTMDB) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/movie/popular", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, f.popular)
	})
	mux.HandleFunc("/movie/", func(w http.ResponseWriter, r *http.Request) {
		var movieID int64
		if _, err := fmt.Sscanf(r.URL.Path, "/movie/%d/credits", &movieID); err != nil {
			http.NotFound(w, r)
			return
		}
		if f.creditsFail[movieID] {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		body, ok := f.credits[movieID]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	})
	mux.HandleFunc("/person/", func(w http.ResponseWriter, r *http.Request) {
		var personID int64
		if _, err := fmt.Sscanf(r.URL.Path, "/person/%d", &personID); err != nil {
			http.NotFound(w, r)
			return
		}
		body, ok := f.persons[personID]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	})
	mux.HandleFunc("/img/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("image-bytes:" + r.URL.Path))
	})
	return mux
}

func newTestImporter(t *testing.T, fake *fakeTMDB) (*Importer, *gorm.DB, *storage.MediaStore, *cache.ListCache) {
	t.Helper()

	server := httptest.NewServer(fake.handler())
	t.Cleanup(server.Close)

	client, err := tmdb.New("test-key", server.URL, "en-US",
		tmdb.WithImageBaseURL(server.URL+"/img"))
	require.NoError(t, err)

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	media, err := storage.NewMediaStore(t.TempDir())
	require.NoError(t, err)

	lists := cache.NewListCache(cache.NewDatabaseStore(db))

	imp, err := New(db, client, media, lists)
	require.NoError(t, err)
	return imp, db, media, lists
}

func singleMovieFake() *fakeTMDB {
	return &fakeTMDB{
		popular: `{"page":1,"results":[
			{"id":603,"title":"The Matrix","overview":"A hacker learns the truth.","release_date":"1999-03-31","poster_path":"/matrix.jpg"}
		]}`,
		credits: map[int64]string{
			603: `{"id":603,"crew":[
				{"id":9339,"name":"Lana Wachowski","job":"Director","profile_path":"/lana.jpg"},
				{"id":1,"name":"Someone Else","job":"Producer"}
			]}`,
		},
		persons: map[int64]string{
			9339: `{"id":9339,"name":"Lana Wachowski","birthday":"1965-06-21","biography":"Filmmaker.","profile_path":"/lana.jpg"}`,
		},
	}
}

func TestImportSingleMovie(t *testing.T) {
	imp, db, media, _ := newTestImporter(t, singleMovieFake())

	report, err := imp.Run(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Imported)
	assert.Equal(t, 0, report.Skipped)

	var film models.Film
	require.NoError(t, db.Preload("Authors").Preload("Authors.User").Take(&film, "tmdb_id = ?", 603).Error)
	assert.Equal(t, "The Matrix", film.Title)
	assert.Equal(t, models.SourceTMDB, film.Source)
	assert.Equal(t, models.FilmStatusPublished, film.Status)
	assert.Equal(t, "poster_the_matrix.jpg", film.PosterPath)
	assert.True(t, media.Exists(film.PosterPath))

	require.Len(t, film.Authors, 1)
	author := film.Authors[0]
	require.NotNil(t, author.User)
	assert.Equal(t, "tmdb_9339", author.User.Username)
	assert.Equal(t, "Filmmaker.", author.Bio)

	var storedAuthor models.Author
	require.NoError(t, db.Take(&storedAuthor, "id = ?", author.ID).Error)
	assert.Equal(t, "author_lana_wachowski.jpg", storedAuthor.PhotoPath)
	assert.True(t, media.Exists(storedAuthor.PhotoPath))
}

func TestImportIsIdempotent(t *testing.T) {
	imp, db, media, _ := newTestImporter(t, singleMovieFake())
	ctx := context.Background()

	_, err := imp.Run(ctx, 10)
	require.NoError(t, err)
	report, err := imp.Run(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Imported, "re-import refreshes, not duplicates")

	var filmCount, authorCount, userCount int64
	require.NoError(t, db.Model(&models.Film{}).Count(&filmCount).Error)
	require.NoError(t, db.Model(&models.Author{}).Count(&authorCount).Error)
	require.NoError(t, db.Model(&models.User{}).Count(&userCount).Error)
	assert.EqualValues(t, 1, filmCount)
	assert.EqualValues(t, 1, authorCount)
	assert.EqualValues(t, 1, userCount)

	// The director link must not duplicate either.
	var film models.Film
	require.NoError(t, db.Preload("Authors").Take(&film, "tmdb_id = ?", 603).Error)
	assert.Len(t, film.Authors, 1)

	// Poster replacement leaves exactly one poster file.
	entries, err := os.ReadDir(media.Root())
	require.NoError(t, err)
	posters := 0
	for _, entry := range entries {
		if entry.Name() == "poster_the_matrix.jpg" {
			posters++
		}
	}
	assert.Equal(t, 1, posters)
}

func TestImportSkipsMovieWithoutReleaseDate(t *testing.T) {
	fake := singleMovieFake()
	fake.popular = `{"page":1,"results":[
		{"id":603,"title":"The Matrix","release_date":"","poster_path":"/matrix.jpg"}
	]}`
	imp, db, _, _ := newTestImporter(t, fake)

	report, err := imp.Run(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Imported)
	assert.Equal(t, 1, report.Skipped)

	var count int64
	require.NoError(t, db.Model(&models.Film{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestImportSkipsMovieWithoutDirector(t *testing.T) {
	fake := singleMovieFake()
	fake.credits[603] = `{"id":603,"crew":[{"id":7,"name":"Pat Writer","job":"Writer"}]}`
	imp, db, _, _ := newTestImporter(t, fake)

	report, err := imp.Run(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Imported)
	assert.Equal(t, 1, report.Skipped)

	var count int64
	require.NoError(t, db.Model(&models.Film{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestImportContinuesAfterFailingMovie(t *testing.T) {
	fake := &fakeTMDB{
		popular: `{"page":1,"results":[
			{"id":100,"title":"Broken Movie","release_date":"2020-01-01"},
			{"id":200,"title":"Good Movie","release_date":"2021-02-02"}
		]}`,
		credits: map[int64]string{
			200: `{"id":200,"crew":[{"id":77,"name":"Sam Helmer","job":"Director"}]}`,
		},
		creditsFail: map[int64]bool{100: true},
		persons:     map[int64]string{},
	}
	imp, db, _, _ := newTestImporter(t, fake)

	report, err := imp.Run(context.Background(), 10)
	require.NoError(t, err, "a failing movie must not abort the run")
	assert.Equal(t, 1, report.Imported)
	assert.Equal(t, 1, report.Skipped)

	var film models.Film
	require.NoError(t, db.Take(&film, "tmdb_id = ?", 200).Error)
	assert.Equal(t, "Good Movie", film.Title)
}

func TestImportSurvivesMissingPersonDetails(t *testing.T) {
	fake := singleMovieFake()
	fake.persons = map[int64]string{}
	imp, db, _, _ := newTestImporter(t, fake)

	report, err := imp.Run(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Imported)

	// The crew credit name is enough to build the author.
	var author models.Author
	require.NoError(t, db.Preload("User").Take(&author, "tmdb_id = ?", 9339).Error)
	assert.Equal(t, "Lana", author.User.FirstName)
	assert.Equal(t, "Wachowski", author.User.LastName)
}

func TestImportInvalidatesListCaches(t *testing.T) {
	imp, _, _, lists := newTestImporter(t, singleMovieFake())
	ctx := context.Background()

	filmKeyBefore, _, _ := lists.Fetch(ctx, cache.PrefixFilms, "", "")
	authorKeyBefore, _, _ := lists.Fetch(ctx, cache.PrefixAuthors, "", "")

	_, err := imp.Run(ctx, 10)
	require.NoError(t, err)

	filmKeyAfter, _, _ := lists.Fetch(ctx, cache.PrefixFilms, "", "")
	authorKeyAfter, _, _ := lists.Fetch(ctx, cache.PrefixAuthors, "", "")
	assert.NotEqual(t, filmKeyBefore, filmKeyAfter, "film lists invalidated")
	assert.NotEqual(t, authorKeyBefore, authorKeyAfter, "author lists invalidated")
}

func TestImportRunIsNoOpWhenPopularUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	client, err := tmdb.New("test-key", server.URL, "")
	require.NoError(t, err)

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	media, err := storage.NewMediaStore(t.TempDir())
	require.NoError(t, err)

	imp, err := New(db, client, media, nil)
	require.NoError(t, err)

	report, err := imp.Run(context.Background(), 5)
	require.NoError(t, err, "an unreachable catalogue ends the run cleanly")
	assert.Equal(t, Report{}, report)

	var films int64
	require.NoError(t, db.Model(&models.Film{}).Count(&films).Error)
	assert.Zero(t, films)
}
