package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ptcg-tracker/internal/config"
	"ptcg-tracker/internal/constants"

	"github.com/valyala/fasthttp"
	"golang.org/x/time/rate"
)

// ErrNotFound signals a 404 from the upstream API, which for species
// lookups means "not a real Pokémon" rather than a failure.
var ErrNotFound = errors.New("resource not found")

type PokeAPIClient struct {
	baseURL string
	client  *fasthttp.Client
	limiter *rate.Limiter
}

func NewPokeAPIClient(cfg *config.Config) *PokeAPIClient {
	return &PokeAPIClient{
		baseURL: cfg.PokeAPIBaseURL,
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         10 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		limiter: rate.NewLimiter(rate.Limit(constants.PokeAPIRequestsPerSec), constants.PokeAPIBurst),
	}
}

func (c *PokeAPIClient) GetSpecies(ctx context.Context, slug string) (*SpeciesResponse, error) {
	url := fmt.Sprintf("%s/pokemon-species/%s", c.baseURL, slug)
	return doRequest[SpeciesResponse](ctx, c, url)
}

func (c *PokeAPIClient) ListSpecies(ctx context.Context) (*SpeciesListResponse, error) {
	url := fmt.Sprintf("%s/pokemon-species?limit=%d&offset=0", c.baseURL, constants.SpeciesCatalogPageLimit)
	return doRequest[SpeciesListResponse](ctx, c, url)
}

func doRequest[T any](ctx context.Context, client *PokeAPIClient, url string) (*T, error) {
	if err := client.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)

	deadline, ok := ctx.Deadline()
	if ok {
		if err := client.client.DoDeadline(req, resp, deadline); err != nil {
			return nil, err
		}
	} else {
		if err := client.client.Do(req, resp); err != nil {
			return nil, err
		}
	}

	if resp.StatusCode() == fasthttp.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("API error: %d", resp.StatusCode())
	}

	var result T
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type SpeciesResponse struct {
	ID        int         `json:"id"`
	Name      string      `json:"name"`
	Order     int         `json:"order"`
	Names     []LocalName `json:"names"`
	Varieties []struct {
		IsDefault bool       `json:"is_default"`
		Pokemon   NamedEntry `json:"pokemon"`
	} `json:"varieties"`
}

type LocalName struct {
	Name     string     `json:"name"`
	Language NamedEntry `json:"language"`
}

type NamedEntry struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type SpeciesListResponse struct {
	Count   int          `json:"count"`
	Next    string       `json:"next"`
	Results []NamedEntry `json:"results"`
}
