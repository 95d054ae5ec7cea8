package httputil

import (
	"fmt"
	"io/ioutil"
	"net/http"
	"strings"
	"time"
)

// Service is a shared HTTP client with a configurable per-request timeout.
type Service struct {
	client *http.Client
}

// NewService returns a Service whose requests time out after the given
// duration.
func NewService(requestTimeout time.Duration) *Service {
	return &Service{
		client: &http.Client{Timeout: requestTimeout},
	}
}

// NewHTTPRequest function builds http call
// @param method <string>: http method
// @param url <string>: URL http to call
// @return <string>, error
func (s *Service) NewHTTPRequest(
	method, url, bodyString string, header map[string]string,
) (int, string, error) {
	switch method {
	case "GET":
		return s.get(url, header)
	case "POST":
		return s.post(url, bodyString, header)
	default:
		return 0, "", fmt.Errorf("verb not supported %s", method)
	}
}

func (s *Service) get(url string, header map[string]string) (int, string, error) {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return 0, "", err
	}

	for key, value := range header {
		req.Header.Set(key, value)
	}

	rs, err := s.client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer rs.Body.Close()

	bodyBytes, err := ioutil.ReadAll(rs.Body)
	if err != nil {
		return 0, "", err
	}

	return rs.StatusCode, string(bodyBytes), nil
}

func (s *Service) post(
	url, bodyString string, header map[string]string,
) (int, string, error) {
	body := strings.NewReader(bodyString)
	req, err := http.NewRequest("POST", url, body)
	if err != nil {
		return 0, "", err
	}

	for key, value := range header {
		req.Header.Set(key, value)
	}

	rs, err := s.client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer rs.Body.Close()

	bodyBytes, err := ioutil.ReadAll(rs.Body)
	if err != nil {
		return 0, "", err
	}

	return rs.StatusCode, string(bodyBytes), nil
}
