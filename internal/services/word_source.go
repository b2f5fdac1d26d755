package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"regexp"
	"strings"

	"github.com/BradenHooton/imposter/internal/models"
	"google.golang.org/genai"
)

// Categories a pair may be drawn from
var Categories = []string{
	"Fruit", "Animal", "Vehicle", "Tool", "Sport",
	"Country", "Profession", "Food", "Object", "Place",
}

const wordPairPrompt = `Return ONLY valid JSON (no markdown).
Schema: {"common":"<word>","odd":"<word>"}

Pick TWO single-word items from category: %s
- common and odd must be different
- not colors, not numbers

Example: {"common":"Mango","odd":"Apple"}`

// ContentGenerator is the subset of the genai models API used here
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiWordSource asks a Gemini model for a pair in a random category
type GeminiWordSource struct {
	models ContentGenerator
	model  string
	logger *slog.Logger
	intn   func(n int) int
}

func NewGeminiWordSource(ctx context.Context, apiKey, model string, log *slog.Logger) (*GeminiWordSource, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return NewGeminiWordSourceWithGenerator(client.Models, model, log), nil
}

func NewGeminiWordSourceWithGenerator(gen ContentGenerator, model string, log *slog.Logger) *GeminiWordSource {
	return &GeminiWordSource{models: gen, model: model, logger: log, intn: rand.IntN}
}

func (g *GeminiWordSource) WordPair(ctx context.Context) (models.WordPair, error) {
	category := Categories[g.intn(len(Categories))]

	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(fmt.Sprintf(wordPairPrompt, category)), nil)
	if err != nil {
		return models.WordPair{}, fmt.Errorf("gemini request failed: %w", err)
	}

	raw := resp.Text()
	g.logger.Debug("gemini word pair", slog.String("category", category), slog.String("raw", raw))

	pair, err := ParseWordPair(raw)
	if err != nil {
		return models.WordPair{}, err
	}
	pair.Category = category
	return pair, nil
}

var codeFence = regexp.MustCompile("(?i)```json\\s*|```")

// ParseWordPair reads {"common":..,"odd":..} from model output, tolerating markdown fences
func ParseWordPair(raw string) (models.WordPair, error) {
	cleaned := strings.TrimSpace(codeFence.ReplaceAllString(raw, ""))

	var pair struct {
		Common string `json:"common"`
		Odd    string `json:"odd"`
	}
	if err := json.Unmarshal([]byte(cleaned), &pair); err != nil {
		return models.WordPair{}, fmt.Errorf("invalid word pair %q: %w", raw, err)
	}

	return models.WordPair{
		Common: strings.TrimSpace(pair.Common),
		Odd:    strings.TrimSpace(pair.Odd),
	}, nil
}

var staticPairs = map[string][][2]string{
	"Fruit":      {{"Mango", "Apple"}, {"Banana", "Pear"}, {"Cherry", "Grape"}},
	"Animal":     {{"Lion", "Tiger"}, {"Dog", "Wolf"}, {"Horse", "Donkey"}},
	"Vehicle":    {{"Car", "Truck"}, {"Bicycle", "Scooter"}, {"Train", "Tram"}},
	"Tool":       {{"Hammer", "Mallet"}, {"Saw", "Axe"}, {"Wrench", "Pliers"}},
	"Sport":      {{"Football", "Rugby"}, {"Tennis", "Badminton"}, {"Skiing", "Snowboarding"}},
	"Country":    {{"Spain", "Portugal"}, {"Sweden", "Norway"}, {"Peru", "Chile"}},
	"Profession": {{"Doctor", "Nurse"}, {"Baker", "Chef"}, {"Pilot", "Sailor"}},
	"Food":       {{"Pizza", "Pasta"}, {"Burger", "Sandwich"}, {"Sushi", "Ramen"}},
	"Object":     {{"Chair", "Stool"}, {"Pen", "Pencil"}, {"Cup", "Mug"}},
	"Place":      {{"Beach", "Desert"}, {"Library", "Museum"}, {"Airport", "Station"}},
}

// StaticWordSource draws from a built-in catalogue. Used when no Gemini key is configured.
type StaticWordSource struct {
	intn func(n int) int
}

func NewStaticWordSource() *StaticWordSource {
	return &StaticWordSource{intn: rand.IntN}
}

func (s *StaticWordSource) WordPair(_ context.Context) (models.WordPair, error) {
	category := Categories[s.intn(len(Categories))]
	pairs := staticPairs[category]
	if len(pairs) == 0 {
		return models.WordPair{}, fmt.Errorf("no static pairs for category %s", category)
	}

	pair := pairs[s.intn(len(pairs))]
	return models.WordPair{Category: category, Common: pair[0], Odd: pair[1]}, nil
}
