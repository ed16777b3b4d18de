package handler_test

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/actuallystonmai/user-directory/internal/cache"
	"github.com/actuallystonmai/user-directory/internal/domain"
	"github.com/actuallystonmai/user-directory/internal/handler"
	"github.com/actuallystonmai/user-directory/internal/migrate"
	"github.com/actuallystonmai/user-directory/internal/repository"
	"github.com/actuallystonmai/user-directory/internal/router"
	"github.com/actuallystonmai/user-directory/internal/service"
	"github.com/actuallystonmai/user-directory/internal/view"
)

const (
	prevDisabled = `<li class="page-item disabled"><span class="page-link" aria-hidden="true">&laquo;</span></li>`
	nextDisabled = `<li class="page-item disabled"><span class="page-link" aria-hidden="true">&raquo;</span></li>`
	prevEnabled  = `aria-label="Previous"`
	nextEnabled  = `aria-label="Next"`
)

type testEnv struct {
	srv  http.Handler
	db   *sqlx.DB
	repo *repository.Repository
}

type envOption func(*envConfig)

type envConfig struct {
	exposeDBErrors bool
	cache          service.PageCache
}

func withoutErrorDetails() envOption {
	return func(c *envConfig) { c.exposeDBErrors = false }
}

func withRedisCache(t *testing.T) envOption {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return func(c *envConfig) { c.cache = cache.NewCache(client, time.Minute) }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	cfg := envConfig{exposeDBErrors: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx := context.Background()
	db, closeDB, err := repository.Open(ctx, "sqlite3", ":memory:", 1)
	require.NoError(t, err)
	t.Cleanup(closeDB)
	require.NoError(t, migrate.Up(ctx, db.DB, "sqlite3"))

	repo := repository.NewRepository(db, repository.SQLite)
	svc := service.NewService(repo, cfg.cache)
	views, err := view.NewRenderer("")
	require.NoError(t, err)

	h := handler.NewHandler(svc, views, cfg.exposeDBErrors)
	return &testEnv{srv: router.Setup(h, 5*time.Second), db: db, repo: repo}
}

func (e *testEnv) get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func (e *testEnv) post(t *testing.T, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) seed(t *testing.T, n int) {
	t.Helper()
	users := make([]domain.User, 0, n)
	for i := 1; i <= n; i++ {
		users = append(users, domain.User{Name: fmt.Sprintf("User%d", i), Age: i})
	}
	require.NoError(t, e.repo.InsertUsers(context.Background(), users))
}

func userForm(name, age string) url.Values {
	return url.Values{"Name": {name}, "Age": {age}}
}

func rowCount(body string) int {
	// One <tr> belongs to the header.
	return strings.Count(body, "<tr>") - 1
}

func assertRedirectHome(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, http.StatusFound, rec.Code, rec.Body.String())
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestCreateThenSearch(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, 3)

	assertRedirectHome(t, env.post(t, "/add", userForm("Zed Zulu", "77")))

	rec := env.get(t, "/?search=Zulu")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "<td>Zed Zulu</td><td>77</td>")
	assert.Equal(t, 1, rowCount(body))
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	env := newTestEnv(t)

	cases := map[string]url.Values{
		"blank name":      userForm("   ", "10"),
		"missing name":    {"Age": {"10"}},
		"missing age":     {"Name": {"Ann"}},
		"non-numeric age": userForm("Ann", "ten"),
		"decimal age":     userForm("Ann", "1.5"),
		"age overflow":    userForm("Ann", "99999999999"),
	}
	for name, form := range cases {
		t.Run(name, func(t *testing.T) {
			rec := env.post(t, "/add", form)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "Invalid data. Please fill in all fields correctly.", rec.Body.String())
		})
	}

	rec := env.get(t, "/")
	assert.Zero(t, rowCount(rec.Body.String()))
}

func TestCreateAcceptsPaddedAge(t *testing.T) {
	env := newTestEnv(t)

	assertRedirectHome(t, env.post(t, "/add", userForm("Ann", " 42 ")))
	assert.Contains(t, env.get(t, "/").Body.String(), "<td>Ann</td><td>42</td>")
}

func TestMissingUsersReturn404(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, 2)

	for _, id := range []string{"3", "999", "-1"} {
		rec := env.get(t, "/edit/"+id)
		assert.Equal(t, http.StatusNotFound, rec.Code, "GET /edit/%s", id)
		assert.Equal(t, "User not found.", rec.Body.String())

		rec = env.post(t, "/edit/"+id, userForm("Ann", "1"))
		assert.Equal(t, http.StatusNotFound, rec.Code, "POST /edit/%s", id)

		rec = env.post(t, "/delete/"+id, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, "POST /delete/%s", id)
	}
}

func TestMalformedIDsReturn400(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, 1)

	for _, id := range []string{"abc", "1.5", "1e3", "99999999999", "0x1", "", "1/extra", "1/"} {
		rec := env.get(t, "/edit/"+id)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "GET /edit/%s", id)
		assert.Equal(t, "Invalid user id.", rec.Body.String())

		rec = env.post(t, "/edit/"+id, userForm("Ann", "1"))
		assert.Equal(t, http.StatusBadRequest, rec.Code, "POST /edit/%s", id)

		rec = env.post(t, "/delete/"+id, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "POST /delete/%s", id)
	}
}

func TestCreateAcceptsMultipartForm(t *testing.T) {
	env := newTestEnv(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("Name", "Multi Part"))
	require.NoError(t, mw.WriteField("Age", "33"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/add", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	env.srv.ServeHTTP(rec, req)

	assertRedirectHome(t, rec)
	assert.Contains(t, env.get(t, "/").Body.String(), "<td>Multi Part</td><td>33</td>")
}

func TestEditValidatesIDBeforeForm(t *testing.T) {
	env := newTestEnv(t)

	rec := env.post(t, "/edit/abc", userForm("", "x"))
	assert.Equal(t, "Invalid user id.", rec.Body.String())

	rec = env.post(t, "/edit/999", userForm("", "x"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid data. Please fill in all fields correctly.", rec.Body.String())
}

func TestPaginationScenario(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, 12)

	rec := env.get(t, "/?page=2")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	assert.Equal(t, 2, rowCount(body))
	assert.Contains(t, body, "<td>User11</td><td>11</td>")
	assert.Contains(t, body, "<td>User12</td><td>12</td>")
	assert.NotContains(t, body, "<td>User10</td>")

	assert.Contains(t, body, `<a class="page-link" href="/?search=&amp;sort=&amp;page=1">1</a>`)
	assert.Contains(t, body, `<li class="page-item active" aria-current="page"><span class="page-link">2</span></li>`)
	assert.Contains(t, body, prevEnabled)
	// Page 2 is the last page.
	assert.Contains(t, body, nextDisabled)
}

func TestFirstPageDisablesPrevious(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, 12)

	for _, target := range []string{"/", "/?page=1", "/?page=0", "/?page=-3", "/?page=abc"} {
		body := env.get(t, target).Body.String()
		assert.Equal(t, 10, rowCount(body), target)
		assert.Contains(t, body, "<td>User1</td>", target)
		assert.Contains(t, body, prevDisabled, target)
		assert.Contains(t, body, nextEnabled, target)
	}
}

func TestPageBeyondRangeIsEmpty(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, 12)

	rec := env.get(t, "/?page=5")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	assert.Zero(t, rowCount(body))
	assert.Contains(t, body, nextDisabled)
	assert.NotContains(t, body, `aria-current="page"`)
}

func TestSinglePageHasNoPagination(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, 10)

	body := env.get(t, "/").Body.String()
	assert.Equal(t, 10, rowCount(body))
	assert.NotContains(t, body, `class="pagination`)
}

func TestSorting(t *testing.T) {
	env := newTestEnv(t)
	for _, f := range []url.Values{userForm("Cy", "30"), userForm("Ab", "10"), userForm("Bo", "20")} {
		assertRedirectHome(t, env.post(t, "/add", f))
	}

	order := func(body string) []string {
		type pos struct {
			name string
			at   int
		}
		var ps []pos
		for _, n := range []string{"Ab", "Bo", "Cy"} {
			ps = append(ps, pos{n, strings.Index(body, "<td>"+n+"</td>")})
		}
		for i := range ps {
			for j := i + 1; j < len(ps); j++ {
				if ps[j].at < ps[i].at {
					ps[i], ps[j] = ps[j], ps[i]
				}
			}
		}
		out := make([]string, 0, len(ps))
		for _, p := range ps {
			out = append(out, p.name)
		}
		return out
	}

	assert.Equal(t, []string{"Ab", "Bo", "Cy"}, order(env.get(t, "/?sort=Age").Body.String()))
	assert.Equal(t, []string{"Ab", "Bo", "Cy"}, order(env.get(t, "/?sort=Name").Body.String()))
	assert.Equal(t, []string{"Cy", "Ab", "Bo"}, order(env.get(t, "/").Body.String()))
	assert.Equal(t, []string{"Cy", "Ab", "Bo"}, order(env.get(t, "/?sort=Id").Body.String()))
	assert.Equal(t, []string{"Cy", "Ab", "Bo"}, order(env.get(t, "/?sort=age").Body.String()))

	body := env.get(t, "/?sort=Age").Body.String()
	assert.Contains(t, body, `<option value="Age" selected>`)
}

func TestEditRoundTrip(t *testing.T) {
	for name, opts := range map[string][]envOption{
		"no cache":    nil,
		"redis cache": {withRedisCache(t)},
	} {
		t.Run(name, func(t *testing.T) {
			env := newTestEnv(t, opts...)

			assertRedirectHome(t, env.post(t, "/add", userForm("Ann", "30")))
			// Prime the list cache, if any.
			require.Contains(t, env.get(t, "/").Body.String(), "<td>Ann</td>")

			rec := env.get(t, "/edit/1")
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), `value="Ann"`)
			assert.Contains(t, rec.Body.String(), `value="30"`)

			assertRedirectHome(t, env.post(t, "/edit/1", userForm("Anna", "31")))

			body := env.get(t, "/").Body.String()
			assert.Equal(t, 1, rowCount(body))
			assert.Contains(t, body, "<td>1</td><td>Anna</td><td>31</td>")
			assert.NotContains(t, body, "<td>Ann</td>")
		})
	}
}

func TestDelete(t *testing.T) {
	env := newTestEnv(t, withRedisCache(t))
	env.seed(t, 2)
	require.Equal(t, 2, rowCount(env.get(t, "/").Body.String()))

	assertRedirectHome(t, env.post(t, "/delete/1", nil))

	body := env.get(t, "/").Body.String()
	assert.Equal(t, 1, rowCount(body))
	assert.NotContains(t, body, "<td>User1</td>")
	assert.Equal(t, http.StatusNotFound, env.post(t, "/delete/1", nil).Code)
	assert.Equal(t, http.StatusNotFound, env.get(t, "/edit/1").Code)
}

func TestAddFormIsStatic(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get(t, "/add")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `<form action="/add" method="post">`)
}

func TestUnmatchedRoutes(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		method, target string
	}{
		{http.MethodGet, "/nope"},
		{http.MethodGet, "/delete/1"},
		{http.MethodPut, "/add"},
		{http.MethodDelete, "/edit/1"},
		{http.MethodPost, "/"},
		{http.MethodGet, "/edit"},
		{http.MethodPost, "/delete"},
	}
	for _, c := range cases {
		rec := httptest.NewRecorder()
		env.srv.ServeHTTP(rec, httptest.NewRequest(c.method, c.target, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, "%s %s", c.method, c.target)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.JSONEq(t, `"Page Not Found"`, rec.Body.String())
	}
}

func TestPathsAreCaseInsensitive(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusOK, env.get(t, "/ADD").Code)
	assertRedirectHome(t, env.post(t, "/Add", userForm("Ann", "3")))
	assert.Equal(t, http.StatusOK, env.get(t, "/Edit/1").Code)
}

func TestDatabaseErrors(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.db.Close())

	rec := env.get(t, "/")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "Database error: "), rec.Body.String())
	assert.Contains(t, rec.Body.String(), "database is closed")

	rec = env.post(t, "/add", userForm("Ann", "1"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Failed to add user: ")

	rec = env.get(t, "/edit/1")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = env.post(t, "/edit/1", userForm("Ann", "1"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = env.post(t, "/delete/1", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Failed to delete user: ")
}

func TestDatabaseErrorsRedacted(t *testing.T) {
	env := newTestEnv(t, withoutErrorDetails())
	require.NoError(t, env.db.Close())

	rec := env.get(t, "/")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Database error: internal error", rec.Body.String())
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get(t, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	require.NoError(t, env.db.Close())
	rec = env.get(t, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
