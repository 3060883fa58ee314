package chi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	dompost "github.com/kailas-cloud/blogdex/internal/domain/post"
	"github.com/kailas-cloud/blogdex/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/blogdex/internal/usecase/health"
	postuc "github.com/kailas-cloud/blogdex/internal/usecase/post"
	searchuc "github.com/kailas-cloud/blogdex/internal/usecase/search"
)

type stubSearch struct {
	page   result.Page
	err    error
	params searchuc.Params
	calls  int
}

func (s *stubSearch) Search(_ context.Context, p searchuc.Params) (result.Page, error) {
	s.calls++
	s.params = p
	return s.page, s.err
}

type stubPosts struct {
	post       dompost.Post
	list       postuc.ListPage
	ids        []int64
	sitemap    []dompost.SitemapEntry
	err        error
	lastInput  postuc.Input
	lastID     int64
	lastPage   [2]int
	panicOnGet bool
}

func (s *stubPosts) Create(_ context.Context, in postuc.Input) (dompost.Post, error) {
	s.lastInput = in
	return s.post, s.err
}

func (s *stubPosts) Update(_ context.Context, id int64, in postuc.Input) (dompost.Post, error) {
	s.lastID, s.lastInput = id, in
	return s.post, s.err
}

func (s *stubPosts) Get(_ context.Context, id int64) (dompost.Post, error) {
	if s.panicOnGet {
		panic("boom")
	}
	s.lastID = id
	return s.post, s.err
}

func (s *stubPosts) List(_ context.Context, page, size int) (postuc.ListPage, error) {
	s.lastPage = [2]int{page, size}
	return s.list, s.err
}

func (s *stubPosts) IDs(context.Context) ([]int64, error) { return s.ids, s.err }

func (s *stubPosts) Sitemap(context.Context) ([]dompost.SitemapEntry, error) {
	return s.sitemap, s.err
}

type stubHealth struct {
	report healthuc.Report
}

func (s *stubHealth) Check(context.Context) healthuc.Report { return s.report }

type fixture struct {
	search  *stubSearch
	posts   *stubPosts
	health  *stubHealth
	handler http.Handler
}

func newFixture(apiKeys ...string) *fixture {
	f := &fixture{
		search: &stubSearch{},
		posts:  &stubPosts{},
		health: &stubHealth{report: healthuc.Report{Status: healthuc.Healthy, Checks: map[string]healthuc.CheckResult{}}},
	}
	f.handler = NewServer(f.search, f.posts, f.health, zap.NewNop()).Router(apiKeys)
	return f
}

func (f *fixture) do(t *testing.T, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader = http.NoBody
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}
