package fixtures

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lborres/coupons/core"
)

const apiFootballBody = `{
	"errors": [],
	"response": [{
		"fixture": {"id": 101, "date": "2025-04-05T15:00:00+00:00", "venue": {"name": "Stade du 4 Août"}, "status": {"short": "NS"}},
		"league": {"name": "Ligue 1", "country": "Burkina Faso"},
		"teams": {"home": {"name": "ASFA Yennenga"}, "away": {"name": "Rahimo FC"}},
		"goals": {"home": null, "away": null}
	}]
}`

const sportsDBBody = `{
	"events": [{
		"idEvent": "2001", "strHomeTeam": "Arsenal", "strAwayTeam": "Chelsea",
		"strLeague": "English Premier League", "strCountry": "England", "strVenue": "Emirates Stadium",
		"dateEvent": "2025-04-05", "strTime": "16:30:00", "strTimestamp": "2025-04-05T16:30:00",
		"intHomeScore": null, "intAwayScore": null, "strStatus": "Not Started"
	}]
}`

var testDay = time.Date(2025, time.April, 5, 12, 0, 0, 0, time.UTC)

type stubServer struct {
	*httptest.Server
	hits atomic.Int32
}

func newStub(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) *stubServer {
	t.Helper()
	s := &stubServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(s.Close)
	return s
}

func respond(status int, body string) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

// Requirement: API-Football fixtures are mapped for the requested day.
func TestProvider_APIFootball(t *testing.T) {
	// Arrange
	var gotDate, gotKey string
	api := newStub(t, func(w http.ResponseWriter, r *http.Request) {
		gotDate = r.URL.Query().Get("date")
		gotKey = r.Header.Get("x-rapidapi-key")
		respond(http.StatusOK, apiFootballBody)(w, r)
	})
	fallback := newStub(t, respond(http.StatusOK, sportsDBBody))
	p := New(Config{APIFootballURL: api.URL, APIFootballKey: "key-1", SportsDBURL: fallback.URL, RetryDelay: time.Millisecond})

	// Act
	matches, err := p.Fixtures(context.Background(), testDay)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "2025-04-05", gotDate)
	assert.Equal(t, "key-1", gotKey)
	require.Len(t, matches, 1)
	m := matches[0]
	assert.Equal(t, "api-football:101", m.ID)
	assert.Equal(t, "ASFA Yennenga", m.HomeTeam)
	assert.Equal(t, "Rahimo FC", m.AwayTeam)
	assert.Equal(t, "Stade du 4 Août", m.Stadium)
	assert.Equal(t, core.MatchScheduled, m.Status)
	assert.Equal(t, SourceAPIFootball, m.Source)
	assert.True(t, m.MatchDate.Equal(time.Date(2025, time.April, 5, 15, 0, 0, 0, time.UTC)))
	assert.Nil(t, m.HomeScore)
	assert.Zero(t, fallback.hits.Load())
}

// Requirement: API-Football gets one retry before the fallback answers.
func TestProvider_Fallback(t *testing.T) {
	tests := []struct {
		name        string
		key         string
		api         func(http.ResponseWriter, *http.Request)
		wantAPIHits int32
	}{
		{
			name:        "server errors are retried once",
			key:         "key-1",
			api:         respond(http.StatusBadGateway, `{}`),
			wantAPIHits: 2,
		},
		{
			name:        "client errors are not retried",
			key:         "key-1",
			api:         respond(http.StatusForbidden, `{}`),
			wantAPIHits: 1,
		},
		{
			name:        "error payloads are not retried",
			key:         "key-1",
			api:         respond(http.StatusOK, `{"errors": {"token": "Error/Missing application key."}, "response": []}`),
			wantAPIHits: 1,
		},
		{
			name:        "no key skips api-football",
			api:         respond(http.StatusOK, apiFootballBody),
			wantAPIHits: 0,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			// Arrange
			api := newStub(t, test.api)
			fallback := newStub(t, respond(http.StatusOK, sportsDBBody))
			p := New(Config{APIFootballURL: api.URL, APIFootballKey: test.key, SportsDBURL: fallback.URL, RetryDelay: time.Millisecond})

			// Act
			matches, err := p.Fixtures(context.Background(), testDay)

			// Assert
			require.NoError(t, err)
			assert.Equal(t, test.wantAPIHits, api.hits.Load())
			assert.Equal(t, int32(1), fallback.hits.Load())
			require.Len(t, matches, 1)
			assert.Equal(t, "thesportsdb:2001", matches[0].ID)
			assert.Equal(t, SourceSportsDB, matches[0].Source)
			assert.True(t, matches[0].MatchDate.Equal(time.Date(2025, time.April, 5, 16, 30, 0, 0, time.UTC)))
		})
	}
}

// Requirement: when both sources fail the caller gets an unavailable error.
func TestProvider_BothFail(t *testing.T) {
	// Arrange
	api := newStub(t, respond(http.StatusInternalServerError, `{}`))
	fallback := newStub(t, respond(http.StatusServiceUnavailable, `{}`))
	p := New(Config{APIFootballURL: api.URL, APIFootballKey: "key-1", SportsDBURL: fallback.URL, RetryDelay: time.Millisecond})

	// Act
	matches, err := p.Fixtures(context.Background(), testDay)

	// Assert
	require.ErrorIs(t, err, core.ErrUnavailable)
	assert.Nil(t, matches)
}

// Requirement: a null event list is an empty day, not an error.
func TestProvider_SportsDBEmpty(t *testing.T) {
	// Arrange
	fallback := newStub(t, respond(http.StatusOK, `{"events": null}`))
	p := New(Config{SportsDBURL: fallback.URL})

	// Act
	matches, err := p.Fixtures(context.Background(), testDay)

	// Assert
	require.NoError(t, err)
	assert.Empty(t, matches)
}
