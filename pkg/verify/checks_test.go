package verify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckURLPassesOnExpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	j := NewJob(JobTypeSitePage, srv.URL, CheckURL, nil)
	runCheck(context.Background(), srv.Client(), j)
	require.Equal(t, ResultPass, j.Result)
}

func TestCheckURLFailsOnUnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	j := NewJob(JobTypeSitePage, srv.URL, CheckURL, nil)
	runCheck(context.Background(), srv.Client(), j)
	require.Equal(t, ResultFail, j.Result)
}

func TestCheckURLChecksExpectedLength(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello world"))
	}))
	defer srv.Close()

	bad := int64(3)
	j := NewJob(JobTypeDistribution, srv.URL, CheckURL, nil)
	j.Method = http.MethodGet
	j.ExpectedLength = &bad
	runCheck(context.Background(), srv.Client(), j)
	require.Equal(t, ResultFail, j.Result)
}

func TestCheckURLRedirectFollowsToExpectedTarget(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "http://"+r.Host+"/new", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	j := NewJob(JobTypeAliasRedirect, srv.URL+"/old", CheckURLRedirect, nil)
	j.Target = srv.URL + "/new"
	runCheck(context.Background(), srv.Client(), j)
	require.Equal(t, ResultPass, j.Result)
}

func TestCheckURLRedirectFailsOnWrongTarget(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/somewhere-else", http.StatusMovedPermanently)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	j := NewJob(JobTypeAliasRedirect, srv.URL+"/old", CheckURLRedirect, nil)
	j.Target = srv.URL + "/new"
	runCheck(context.Background(), srv.Client(), j)
	require.Equal(t, ResultFail, j.Result)
}

func TestCheckURLArcGISFailsOnErrorKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": {"code": 400}}`))
	}))
	defer srv.Close()

	j := NewJob(JobTypeDistribution, srv.URL, CheckURLArcGIS, nil)
	runCheck(context.Background(), srv.Client(), j)
	require.Equal(t, ResultFail, j.Result)
}

func TestCheckURLArcGISPassesWithoutErrorKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": "abc"}`))
	}))
	defer srv.Close()

	j := NewJob(JobTypeDistribution, srv.URL, CheckURLArcGIS, nil)
	runCheck(context.Background(), srv.Client(), j)
	require.Equal(t, ResultPass, j.Result)
}

func TestCheckItemDownloadPassesWhenLinkPresent(t *testing.T) {
	distURL := "https://files.example.com/a&b.zip"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<a href="https://files.example.com/a&amp;b.zip">download</a>`))
	}))
	defer srv.Close()

	j := NewJob(JobTypeItemDownload, distURL, CheckItemDownload, nil)
	j.Context = map[string]string{"URL": srv.URL}
	runCheck(context.Background(), srv.Client(), j)
	require.Equal(t, ResultPass, j.Result)
}

func TestCheckItemDownloadFailsWhenLinkAbsent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`no links here`))
	}))
	defer srv.Close()

	j := NewJob(JobTypeItemDownload, "https://files.example.com/a.zip", CheckItemDownload, nil)
	j.Context = map[string]string{"URL": srv.URL}
	runCheck(context.Background(), srv.Client(), j)
	require.Equal(t, ResultFail, j.Result)
}
