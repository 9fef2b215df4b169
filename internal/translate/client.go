// Copyright (c) 2026 Kurso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package translate turns a course into a new course in another language.

The orchestrator reuses the publish pipeline's assembler and sanitizer, runs
the external builder's string export, sends every translation unit to an
external translation service, re-imports the translated strings and rebuilds
the whole course graph under a fresh identifier space.

The service speaks the Microsoft Translator v3 wire protocol; any endpoint
implementing it works.
*/
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/kurso/internal/platform/apperr"
	"github.com/taibuivan/kurso/internal/platform/constants"
	"github.com/taibuivan/kurso/pkg/uuid"
)

// # Translation Client

// Language describes one supported target language.
type Language struct {
	Name       string `json:"name"`
	NativeName string `json:"nativeName"`
	Dir        string `json:"dir"`
}

// Client is the external translation service behind a narrow interface.
type Client interface {
	// TranslateText translates one string into the target language.
	TranslateText(ctx context.Context, text, to string) (string, error)

	// Languages returns the supported target languages keyed by code.
	Languages(ctx context.Context) (map[string]Language, error)
}

// languagesCacheTTL bounds how long the language list is served from cache.
// The upstream list changes rarely.
const languagesCacheTTL = 24 * time.Hour

// HTTPClient implements [Client] against a Microsoft-Translator-compatible
// endpoint, with the language list cached in redis.
type HTTPClient struct {
	endpoint string
	key      string
	http     *http.Client
	cache    *redis.Client
}

// NewHTTPClient constructs an [HTTPClient]. cache may be nil; the language
// list is then fetched on every call.
func NewHTTPClient(endpoint, key string, cache *redis.Client) *HTTPClient {
	return &HTTPClient{
		endpoint: endpoint,
		key:      key,
		http:     &http.Client{Timeout: 30 * time.Second},
		cache:    cache,
	}
}

// translationResult is the wire shape of one translate response entry.
type translationResult struct {
	Translations []struct {
		Text string `json:"text"`
		To   string `json:"to"`
	} `json:"translations"`
}

/*
TranslateText translates one string into the target language.

Description: Issues a v3 translate call: the subscription key travels in the
Ocp-Apim-Subscription-Key header and every request carries a fresh client
trace identifier. The request body is a single-element text array; the first
translation of the first result is returned. Any transport failure, non-200
status or empty result maps to a TranslationService error so callers can
surface the upstream outage distinctly.

Parameters:
  - ctx: context.Context
  - text: string (the source string, any language)
  - to: string (target language code, e.g. "fr")

Returns:
  - string: The translated text
  - error: TranslationService on any upstream failure
*/
func (client *HTTPClient) TranslateText(ctx context.Context, text, to string) (string, error) {
	if client.endpoint == "" || client.key == "" {
		return "", apperr.Configuration("translation service endpoint and key are not configured")
	}

	body, err := json.Marshal([]map[string]string{{"Text": text}})
	if err != nil {
		return "", apperr.Internal(err)
	}

	endpoint := client.endpoint + "/translate?api-version=3.0&to=" + url.QueryEscape(to)
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", apperr.Internal(err)
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Ocp-Apim-Subscription-Key", client.key)
	request.Header.Set("X-ClientTraceId", uuid.New())

	response, err := client.http.Do(request)
	if err != nil {
		return "", apperr.TranslationService("translation request failed", err)
	}
	defer response.Body.Close()

	payload, err := io.ReadAll(response.Body)
	if err != nil {
		return "", apperr.TranslationService("could not read translation response", err)
	}
	if response.StatusCode != http.StatusOK {
		return "", apperr.TranslationService(
			fmt.Sprintf("translation service returned status %d", response.StatusCode), nil)
	}

	var results []translationResult
	if err := json.Unmarshal(payload, &results); err != nil {
		return "", apperr.TranslationService("unexpected translation response shape", err)
	}
	if len(results) == 0 || len(results[0].Translations) == 0 {
		return "", apperr.TranslationService("translation service returned no translations", nil)
	}
	return results[0].Translations[0].Text, nil
}

// languagesResponse is the wire shape of the languages listing.
type languagesResponse struct {
	Translation map[string]Language `json:"translation"`
}

/*
Languages returns the supported target languages keyed by code.

Description: Serves the list from the redis cache when present; otherwise
fetches the translation scope of the v3 languages endpoint and caches the
result. Cache failures degrade to a plain fetch.

Parameters:
  - ctx: context.Context

Returns:
  - map[string]Language: Language code → name, native name, text direction
  - error: TranslationService on upstream failure
*/
func (client *HTTPClient) Languages(ctx context.Context) (map[string]Language, error) {
	if cached, ok := client.cachedLanguages(ctx); ok {
		return cached, nil
	}

	if client.endpoint == "" {
		return nil, apperr.Configuration("translation service endpoint is not configured")
	}

	endpoint := client.endpoint + "/languages?api-version=3.0&scope=translation"
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	response, err := client.http.Do(request)
	if err != nil {
		return nil, apperr.TranslationService("language listing failed", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, apperr.TranslationService(
			fmt.Sprintf("language listing returned status %d", response.StatusCode), nil)
	}

	var listing languagesResponse
	if err := json.NewDecoder(response.Body).Decode(&listing); err != nil {
		return nil, apperr.TranslationService("unexpected language listing shape", err)
	}

	client.storeLanguages(ctx, listing.Translation)
	return listing.Translation, nil
}

func (client *HTTPClient) cachedLanguages(ctx context.Context) (map[string]Language, bool) {
	if client.cache == nil {
		return nil, false
	}
	data, err := client.cache.Get(ctx, constants.RedisPrefixLanguages).Bytes()
	if err != nil {
		// Cache miss or cache outage; fall through to a plain fetch.
		return nil, false
	}
	languages := map[string]Language{}
	if err := json.Unmarshal(data, &languages); err != nil {
		return nil, false
	}
	return languages, true
}

func (client *HTTPClient) storeLanguages(ctx context.Context, languages map[string]Language) {
	if client.cache == nil || len(languages) == 0 {
		return
	}
	data, err := json.Marshal(languages)
	if err != nil {
		return
	}
	client.cache.Set(ctx, constants.RedisPrefixLanguages, data, languagesCacheTTL)
}
