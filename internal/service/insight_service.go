package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tazhate/taqvim/internal/clients/gemini"
	"github.com/tazhate/taqvim/internal/domain"
	"github.com/tazhate/taqvim/internal/jalali"
)

// ErrInsightDisabled is returned when no generator is configured
var ErrInsightDisabled = errors.New("daily insight is not configured")

const insightTemperature = 0.75

// ContentGenerator is the subset of the Gemini client used here
type ContentGenerator interface {
	GenerateContent(ctx context.Context, req *gemini.GenerateRequest) (*gemini.GenerateResponse, error)
}

// InsightRecorder receives the outcome of every insight request
type InsightRecorder interface {
	InsightRequest(outcome string)
}

// InsightRequest describes the selected day and optional travel context
type InsightRequest struct {
	Date         jalali.CalendarDate
	Gregorian    time.Time
	UserLocation *domain.LatLng
	Destination  string
}

var (
	fallbackInsight = domain.Bilingual{
		FA: "امروز روزی برای تامل در فیض خداوند و زیبایی خلقت است.",
		EN: "Today is a day to reflect on God's grace and the beauty of creation.",
	}
	fallbackPrayer = domain.Bilingual{
		FA: "خداوندا، ما را در نور خود نگاه دار و گام‌هایمان را استوار گردان.",
		EN: "Lord, keep us in Your light and make our steps firm.",
	}
	errorInsight = domain.Bilingual{
		FA: "پوزش می‌طلبیم، خطایی در دریافت اطلاعات رخ داد. لطفاً لحظاتی دیگر تلاش کنید.",
		EN: "We apologize, an error occurred while retrieving insights. Please try again in a moment.",
	}
	errorPrayer = domain.Bilingual{
		FA: "برکت و آرامش خداوند با شما باد.",
		EN: "May the blessings and peace of the Lord be with you.",
	}
)

type InsightService struct {
	gen      ContentGenerator
	recorder InsightRecorder
	log      *zap.SugaredLogger
}

// NewInsightService creates the service. gen may be nil when no API key is set.
func NewInsightService(gen ContentGenerator, recorder InsightRecorder, log *zap.SugaredLogger) *InsightService {
	return &InsightService{
		gen:      gen,
		recorder: recorder,
		log:      log,
	}
}

// IsConfigured returns true if insights can be requested
func (s *InsightService) IsConfigured() bool {
	return s.gen != nil
}

// DailyInsight asks the model for a bilingual reflection on the day.
// API failures are logged and answered with an apology insight.
func (s *InsightService) DailyInsight(ctx context.Context, req InsightRequest) (domain.Insight, error) {
	if s.gen == nil {
		return domain.Insight{}, ErrInsightDisabled
	}

	resp, err := s.gen.GenerateContent(ctx, BuildInsightRequest(req))
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return domain.Insight{}, err
		}
		s.log.Errorw("Gemini request failed", "date", req.Date.String(), "error", err)
		s.record("error")
		return domain.Insight{
			Insight: errorInsight,
			Prayer:  errorPrayer,
			Traffic: domain.Traffic{Links: []string{}},
		}, nil
	}

	insight := ParseInsight(resp.Text(), resp.GroundingLinks())
	if insight.Insight == fallbackInsight || insight.Prayer == fallbackPrayer {
		s.record("fallback")
	} else {
		s.record("ok")
	}
	return insight, nil
}

func (s *InsightService) record(outcome string) {
	if s.recorder != nil {
		s.recorder.InsightRequest(outcome)
	}
}

// BuildInsightRequest assembles the prompt and enables Maps grounding
// when the user's location is known.
func BuildInsightRequest(req InsightRequest) *gemini.GenerateRequest {
	out := &gemini.GenerateRequest{
		Contents:         []gemini.Content{{Role: "user", Parts: []gemini.Part{{Text: insightPrompt(req)}}}},
		GenerationConfig: &gemini.GenerationConfig{Temperature: insightTemperature},
	}
	if req.UserLocation != nil {
		out.Tools = []gemini.Tool{{GoogleMaps: &struct{}{}}}
		out.ToolConfig = &gemini.ToolConfig{
			RetrievalConfig: gemini.RetrievalConfig{
				LatLng: gemini.LatLng{
					Latitude:  req.UserLocation.Lat,
					Longitude: req.UserLocation.Lng,
				},
			},
		}
	}
	return out
}

func insightPrompt(req InsightRequest) string {
	var travel string
	if req.UserLocation != nil && req.Destination != "" {
		travel = fmt.Sprintf(`
  TRAVEL CONTEXT: The user is at [lat: %g, lng: %g] and going to %s.
  Provide a travel suggestion and traffic summary in both languages.
`, req.UserLocation.Lat, req.UserLocation.Lng, req.Destination)
	}

	return fmt.Sprintf(`You are a world-class bilingual cultural expert and theologian specializing in Persian Christian heritage and Ancient Persian traditions.
Today is Jalali: %d %s %d, Gregorian: %s.

STRICT BILINGUAL REQUIREMENTS:
1. Every single insight, prayer, and traffic update MUST be provided in both Persian (Farsi) and English.
2. NEVER use placeholders like "No information available" or "اطلاعاتی در دسترس نیست".
3. If specific historical events for this exact day are not found, provide a beautiful, poetic reflection on the theme of the month, the season, or a general spiritual message relevant to the Persian Christian community.
4. DO NOT use Finglish (Persian written in Latin/English alphabet). Use proper Persian script for Persian and professional English for English.
5. The English part must be a faithful and elegant translation of the Persian part.

CONTENT FOCUS:
- Historical Insight: Christian saints, Church history, or Ancient Persian festivals.
- Daily Prayer: Uplifting, poetic, and spiritual.
- Travel: Practical and concise if location is provided.%s

RESPONSE FORMAT (STRICT):
[FA_INSIGHT]: (Detailed Persian insight/reflection)
[EN_INSIGHT]: (Detailed English insight/reflection - same meaning)
[FA_PRAYER]: (Poetic Persian prayer)
[EN_PRAYER]: (Poetic English prayer - same meaning)
[FA_TRAFFIC]: (Persian travel advice or leave empty if no location)
[EN_TRAFFIC]: (English travel advice or leave empty if no location)
`, req.Date.Day, req.Date.MonthName, req.Date.Year, req.Gregorian.Format("Monday, 2 January 2006"), travel)
}

// ParseInsight extracts the tagged sections of a model answer, filling
// missing insight and prayer with the stock texts.
func ParseInsight(text string, links []string) domain.Insight {
	if links == nil {
		links = []string{}
	}

	insight := domain.Insight{
		Insight: domain.Bilingual{FA: tagValue(text, "FA_INSIGHT"), EN: tagValue(text, "EN_INSIGHT")},
		Prayer:  domain.Bilingual{FA: tagValue(text, "FA_PRAYER"), EN: tagValue(text, "EN_PRAYER")},
		Traffic: domain.Traffic{
			Bilingual: domain.Bilingual{FA: tagValue(text, "FA_TRAFFIC"), EN: tagValue(text, "EN_TRAFFIC")},
			Links:     links,
		},
	}

	if insight.Insight.FA == "" {
		insight.Insight.FA = fallbackInsight.FA
	}
	if insight.Insight.EN == "" {
		insight.Insight.EN = fallbackInsight.EN
	}
	if insight.Prayer.FA == "" {
		insight.Prayer.FA = fallbackPrayer.FA
	}
	if insight.Prayer.EN == "" {
		insight.Prayer.EN = fallbackPrayer.EN
	}
	return insight
}

// tagValue returns the text after "[TAG]:" up to the next '[' or the end
func tagValue(text, tag string) string {
	marker := "[" + tag + "]:"
	i := strings.Index(text, marker)
	if i < 0 {
		return ""
	}
	rest := text[i+len(marker):]
	if j := strings.IndexByte(rest, '['); j >= 0 {
		rest = rest[:j]
	}
	return strings.TrimSpace(rest)
}
