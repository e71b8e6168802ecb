package fixtures

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3/client"

	"github.com/lborres/coupons/core"
)

type sportsDBResponse struct {
	Events []sportsDBEvent `json:"events"`
}

type sportsDBEvent struct {
	ID        string `json:"idEvent"`
	HomeTeam  string `json:"strHomeTeam"`
	AwayTeam  string `json:"strAwayTeam"`
	League    string `json:"strLeague"`
	Country   string `json:"strCountry"`
	Venue     string `json:"strVenue"`
	Date      string `json:"dateEvent"`
	Time      string `json:"strTime"`
	Timestamp string `json:"strTimestamp"`
	HomeScore string `json:"intHomeScore"`
	AwayScore string `json:"intAwayScore"`
	Status    string `json:"strStatus"`
}

func (p *Provider) sportsDB(ctx context.Context) ([]*core.Match, error) {
	var payload sportsDBResponse
	if err := p.get(ctx, p.config.SportsDBURL, client.Config{}, &payload); err != nil {
		return nil, err
	}

	// events is null when the league has nothing scheduled
	matches := make([]*core.Match, 0, len(payload.Events))
	for _, e := range payload.Events {
		kickoff, ok := e.kickoff()
		if !ok {
			continue
		}
		matches = append(matches, &core.Match{
			ID:        SourceSportsDB + ":" + e.ID,
			HomeTeam:  e.HomeTeam,
			AwayTeam:  e.AwayTeam,
			MatchDate: kickoff,
			League:    e.League,
			Country:   e.Country,
			Stadium:   e.Venue,
			Status:    sportsDBStatus(e.Status),
			HomeScore: score(e.HomeScore),
			AwayScore: score(e.AwayScore),
			Source:    SourceSportsDB,
		})
	}
	return matches, nil
}

// kickoff reads strTimestamp, else dateEvent and strTime; all in UTC.
func (e sportsDBEvent) kickoff() (time.Time, bool) {
	if t, err := time.Parse("2006-01-02T15:04:05", strings.TrimSuffix(e.Timestamp, "+00:00")); err == nil {
		return t, true
	}
	clock := e.Time
	if clock == "" {
		clock = "00:00:00"
	}
	if t, err := time.Parse(time.DateTime, e.Date+" "+clock); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func sportsDBStatus(s string) core.MatchStatus {
	switch strings.ToLower(s) {
	case "match finished", "ft", "aet", "pen":
		return core.MatchFinished
	case "postponed":
		return core.MatchPostponed
	case "cancelled", "abandoned":
		return core.MatchCancelled
	case "1h", "ht", "2h", "live", "in progress":
		return core.MatchLive
	default:
		return core.MatchScheduled
	}
}

func score(s string) *int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}
