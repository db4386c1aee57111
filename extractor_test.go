package tokenbridge

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ParameterTokenExtractor(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/auth?id_token=i-am-token", nil)

	token, err := ParameterTokenExtractor("id_token")(r)
	require.NoError(t, err)
	assert.Equal(t, "i-am-token", token)

	token, err = ParameterTokenExtractor("access_token")(r)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func Test_FormValueExtractor(t *testing.T) {
	testCases := []struct {
		name      string
		request   func() *http.Request
		wantToken string
	}{
		{
			name: "posted form",
			request: func() *http.Request {
				r := httptest.NewRequest(http.MethodPost, "/auth", strings.NewReader(url.Values{"code": {"c0de"}}.Encode()))
				r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
				return r
			},
			wantToken: "c0de",
		},
		{
			name: "query string is ignored",
			request: func() *http.Request {
				return httptest.NewRequest(http.MethodGet, "/auth?code=c0de", nil)
			},
		},
		{
			name: "json body is ignored",
			request: func() *http.Request {
				r := httptest.NewRequest(http.MethodPost, "/auth", strings.NewReader(`{"code":"c0de"}`))
				r.Header.Set("Content-Type", "application/json")
				return r
			},
		},
		{
			name: "no body",
			request: func() *http.Request {
				return &http.Request{Method: http.MethodPost, URL: &url.URL{Path: "/auth"}}
			},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			token, err := FormValueExtractor("code")(testCase.request())
			require.NoError(t, err)
			assert.Equal(t, testCase.wantToken, token)
		})
	}
}

func Test_MultiTokenExtractor(t *testing.T) {
	noopExtractor := func(r *http.Request) (string, error) {
		return "", nil
	}
	extractor := func(r *http.Request) (string, error) {
		return "i-am-token", nil
	}
	errExtractor := func(r *http.Request) (string, error) {
		return "", errors.New("extraction fail")
	}

	testCases := []struct {
		name       string
		extractors []TokenExtractor
		wantToken  string
		wantErr    string
	}{
		{
			name:       "no extractors",
			extractors: []TokenExtractor{},
		},
		{
			name:       "token from first extractor",
			extractors: []TokenExtractor{extractor, noopExtractor},
			wantToken:  "i-am-token",
		},
		{
			name:       "token from second extractor",
			extractors: []TokenExtractor{noopExtractor, extractor},
			wantToken:  "i-am-token",
		},
		{
			name:       "first extractor errors",
			extractors: []TokenExtractor{errExtractor, extractor},
			wantErr:    "extraction fail",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			token, err := MultiTokenExtractor(testCase.extractors...)(&http.Request{})
			if testCase.wantErr != "" {
				assert.EqualError(t, err, testCase.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testCase.wantToken, token)
		})
	}
}
