package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tazhate/taqvim/internal/clients/gemini"
	"github.com/tazhate/taqvim/internal/domain"
	"github.com/tazhate/taqvim/internal/jalali"
	"github.com/tazhate/taqvim/internal/logger"
)

type fakeGenerator struct {
	resp *gemini.GenerateResponse
	err  error
	got  *gemini.GenerateRequest
}

func (f *fakeGenerator) GenerateContent(_ context.Context, req *gemini.GenerateRequest) (*gemini.GenerateResponse, error) {
	f.got = req
	return f.resp, f.err
}

type countingRecorder map[string]int

func (c countingRecorder) InsightRequest(outcome string) { c[outcome]++ }

func textResponse(text string, links ...string) *gemini.GenerateResponse {
	resp := &gemini.GenerateResponse{
		Candidates: []gemini.Candidate{{Content: gemini.Content{Parts: []gemini.Part{{Text: text}}}}},
	}
	if len(links) > 0 {
		md := &gemini.GroundingMetadata{}
		for _, l := range links {
			md.GroundingChunks = append(md.GroundingChunks, gemini.GroundingChunk{Web: &gemini.GroundingSource{URI: l}})
		}
		resp.Candidates[0].GroundingMetadata = md
	}
	return resp
}

var dey1 = InsightRequest{
	Date:      jalali.CalendarDate{Year: 1403, Month: 10, Day: 1, MonthName: "دی", DayName: "شنبه"},
	Gregorian: time.Date(2024, time.December, 21, 12, 0, 0, 0, time.UTC),
}

func TestParseInsight(t *testing.T) {
	text := `[FA_INSIGHT]: بینش
روز
[EN_INSIGHT]: An insight
[FA_PRAYER]: دعا
[EN_PRAYER]: A prayer
[FA_TRAFFIC]:
[EN_TRAFFIC]: `

	got := ParseInsight(text, nil)
	assert.Equal(t, "بینش\nروز", got.Insight.FA)
	assert.Equal(t, "An insight", got.Insight.EN)
	assert.Equal(t, "دعا", got.Prayer.FA)
	assert.Equal(t, "A prayer", got.Prayer.EN)
	assert.Empty(t, got.Traffic.FA)
	assert.Empty(t, got.Traffic.EN)
	assert.NotNil(t, got.Traffic.Links)
}

func TestParseInsightFallbacks(t *testing.T) {
	got := ParseInsight("the model ignored the format", []string{"https://a"})
	assert.Equal(t, fallbackInsight, got.Insight)
	assert.Equal(t, fallbackPrayer, got.Prayer)
	assert.Equal(t, []string{"https://a"}, got.Traffic.Links)
}

func TestDailyInsight(t *testing.T) {
	gen := &fakeGenerator{resp: textResponse("[FA_INSIGHT]: الف [EN_INSIGHT]: a [FA_PRAYER]: ب [EN_PRAYER]: b", "https://maps/1")}
	rec := countingRecorder{}
	svc := NewInsightService(gen, rec, logger.Nop())

	got, err := svc.DailyInsight(context.Background(), dey1)
	require.NoError(t, err)
	assert.Equal(t, "a", got.Insight.EN)
	assert.Equal(t, "b", got.Prayer.EN)
	assert.Equal(t, []string{"https://maps/1"}, got.Traffic.Links)
	assert.Equal(t, 1, rec["ok"])

	prompt := gen.got.Contents[0].Parts[0].Text
	assert.Contains(t, prompt, "Today is Jalali: 1 دی 1403, Gregorian: Saturday, 21 December 2024.")
	assert.NotContains(t, prompt, "TRAVEL CONTEXT")
	assert.Empty(t, gen.got.Tools)
	assert.Nil(t, gen.got.ToolConfig)
	assert.InDelta(t, 0.75, gen.got.GenerationConfig.Temperature, 1e-9)
}

func TestDailyInsightWithLocation(t *testing.T) {
	gen := &fakeGenerator{resp: textResponse("")}
	rec := countingRecorder{}
	svc := NewInsightService(gen, rec, logger.Nop())

	req := dey1
	req.UserLocation = &domain.LatLng{Lat: 35.7, Lng: 51.4}
	req.Destination = "Saint Sarkis Cathedral"

	got, err := svc.DailyInsight(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, fallbackInsight, got.Insight)
	assert.Equal(t, 1, rec["fallback"])

	prompt := gen.got.Contents[0].Parts[0].Text
	assert.True(t, strings.Contains(prompt, "TRAVEL CONTEXT: The user is at [lat: 35.7, lng: 51.4] and going to Saint Sarkis Cathedral."))
	require.Len(t, gen.got.Tools, 1)
	require.NotNil(t, gen.got.ToolConfig)
	assert.InDelta(t, 51.4, gen.got.ToolConfig.RetrievalConfig.LatLng.Longitude, 1e-9)
}

func TestDailyInsightError(t *testing.T) {
	rec := countingRecorder{}
	svc := NewInsightService(&fakeGenerator{err: errors.New("boom")}, rec, logger.Nop())

	got, err := svc.DailyInsight(context.Background(), dey1)
	require.NoError(t, err)
	assert.Equal(t, errorInsight, got.Insight)
	assert.Equal(t, errorPrayer, got.Prayer)
	assert.Empty(t, got.Traffic.Links)
	assert.Equal(t, 1, rec["error"])
}

func TestDailyInsightDisabled(t *testing.T) {
	svc := NewInsightService(nil, nil, logger.Nop())
	assert.False(t, svc.IsConfigured())

	_, err := svc.DailyInsight(context.Background(), dey1)
	assert.ErrorIs(t, err, ErrInsightDisabled)
}
