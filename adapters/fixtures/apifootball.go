package fixtures

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gofiber/fiber/v3/client"

	"github.com/lborres/coupons/core"
)

type apiFootballResponse struct {
	// an empty list when fine, an object of messages otherwise
	Errors   json.RawMessage      `json:"errors"`
	Response []apiFootballFixture `json:"response"`
}

type apiFootballFixture struct {
	Fixture struct {
		ID     int                   `json:"id"`
		Date   time.Time             `json:"date"`
		Venue  struct{ Name string } `json:"venue"`
		Status struct {
			Short string `json:"short"`
		} `json:"status"`
	} `json:"fixture"`
	League struct {
		Name    string `json:"name"`
		Country string `json:"country"`
	} `json:"league"`
	Teams struct {
		Home struct{ Name string } `json:"home"`
		Away struct{ Name string } `json:"away"`
	} `json:"teams"`
	Goals struct {
		Home *int `json:"home"`
		Away *int `json:"away"`
	} `json:"goals"`
}

func (p *Provider) apiFootball(ctx context.Context, day time.Time) ([]*core.Match, error) {
	var payload apiFootballResponse
	err := p.get(ctx, p.config.APIFootballURL+"/fixtures", client.Config{
		Param: map[string]string{"date": core.DateOf(day).Format(time.DateOnly)},
		Header: map[string]string{
			"x-rapidapi-key":  p.config.APIFootballKey,
			"x-rapidapi-host": "v3.football.api-sports.io",
		},
	}, &payload)
	if err != nil {
		return nil, err
	}
	if len(payload.Errors) > 2 {
		return nil, backoff.Permanent(fmt.Errorf("api-football: %s", payload.Errors))
	}

	matches := make([]*core.Match, 0, len(payload.Response))
	for _, f := range payload.Response {
		matches = append(matches, &core.Match{
			ID:        SourceAPIFootball + ":" + strconv.Itoa(f.Fixture.ID),
			HomeTeam:  f.Teams.Home.Name,
			AwayTeam:  f.Teams.Away.Name,
			MatchDate: f.Fixture.Date.UTC(),
			League:    f.League.Name,
			Country:   f.League.Country,
			Stadium:   f.Fixture.Venue.Name,
			Status:    apiFootballStatus(f.Fixture.Status.Short),
			HomeScore: f.Goals.Home,
			AwayScore: f.Goals.Away,
			Source:    SourceAPIFootball,
		})
	}
	return matches, nil
}

func apiFootballStatus(short string) core.MatchStatus {
	switch short {
	case "1H", "HT", "2H", "ET", "BT", "P", "LIVE", "INT", "SUSP":
		return core.MatchLive
	case "FT", "AET", "PEN":
		return core.MatchFinished
	case "PST":
		return core.MatchPostponed
	case "CANC", "ABD", "AWD", "WO":
		return core.MatchCancelled
	default:
		return core.MatchScheduled
	}
}
