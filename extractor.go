package tokenbridge

import (
	"net/http"
)

// TokenExtractor is a function that takes a request as input and returns
// either a value or an error. A value that is simply not present is not an
// error; an empty string is returned in that case.
type TokenExtractor func(r *http.Request) (string, error)

// ParameterTokenExtractor returns a TokenExtractor that extracts
// the value from the specified query string parameter.
func ParameterTokenExtractor(param string) TokenExtractor {
	return func(r *http.Request) (string, error) {
		return r.URL.Query().Get(param), nil
	}
}

// FormValueExtractor returns a TokenExtractor that reads the named field of
// a POST, PUT or PATCH body. The identity provider posts the authorization
// code this way when response_mode is form_post.
func FormValueExtractor(field string) TokenExtractor {
	return func(r *http.Request) (string, error) {
		if r.Body == nil || r.Body == http.NoBody {
			return "", nil
		}
		if err := r.ParseForm(); err != nil {
			return "", err
		}
		return r.PostForm.Get(field), nil
	}
}

// MultiTokenExtractor returns a TokenExtractor that runs multiple TokenExtractors
// and takes the one that does not return an empty value. If a TokenExtractor
// returns an error that error is immediately returned.
func MultiTokenExtractor(extractors ...TokenExtractor) TokenExtractor {
	return func(r *http.Request) (string, error) {
		for _, ex := range extractors {
			token, err := ex(r)
			if err != nil {
				return "", err
			}

			if token != "" {
				return token, nil
			}
		}
		return "", nil
	}
}
