package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/swifthaul/chat-service/internal/domain"
	"github.com/swifthaul/chat-service/internal/httpclient"
)

// HTTPSource resolves corporate client profiles from the accounts
// service. Calls run through the retrying client behind a circuit
// breaker so a down accounts service cannot stall conversation listing.
type HTTPSource struct {
	client  *httpclient.Client
	breaker *gobreaker.CircuitBreaker
	baseURL string
}

func NewHTTPSource(baseURL string) *HTTPSource {
	cli := httpclient.NewClient(httpclient.ClientConfig{
		Timeout:         5 * time.Second,
		RetryMaxElapsed: 10 * time.Second,
		MaxIdleConns:    10,
		IdleConnTimeout: 30 * time.Second,
	})
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "client-profiles",
		Timeout: 30 * time.Second,
	})
	return &HTTPSource{client: cli, breaker: cb, baseURL: baseURL}
}

type clientProfile struct {
	CompanyName string `json:"company_name"`
	LogoURL     string `json:"logo_url"`
}

func (s *HTTPSource) Lookup(ctx context.Context, id string) (*domain.Identity, error) {
	out, err := s.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequest(http.MethodGet, s.baseURL+"/profiles/"+id, nil)
		if err != nil {
			return nil, err
		}
		resp, err := s.client.DoWithRetry(ctx, req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		var p clientProfile
		if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
			return nil, fmt.Errorf("decode client profile: %w", err)
		}
		return &p, nil
	})
	if err != nil {
		return nil, err
	}
	p := out.(*clientProfile)
	return &domain.Identity{
		DisplayName: p.CompanyName,
		AvatarURL:   p.LogoURL,
		Role:        "client",
	}, nil
}
