package questions

import (
	"strings"

	"github.com/spigell/interviewer/internal/interview"
)

const (
	ScenarioFlashSale    = "flash-sale"
	ScenarioURLShortener = "url-shortener"
	ScenarioMessaging    = "messaging"
	ScenarioOrderSystem  = "order-system"
)

// DefaultScenarios returns the system design prompts keyed by scenario label.
func DefaultScenarios() map[string]string {
	return map[string]string{
		ScenarioFlashSale:    "Design a flash-sale system that sustains 100k QPS. How do you guarantee stock is never oversold?",
		ScenarioURLShortener: "Design a URL shortening service with high availability and storage for a massive number of links.",
		ScenarioMessaging:    "Design an instant messaging system with one-to-one and group chat where no message is ever lost.",
		ScenarioOrderSystem:  "Design an e-commerce order system that handles order creation and stock deduction under high concurrency.",
	}
}

var scenarioAliases = map[string]string{
	"flash sale":       ScenarioFlashSale,
	"flashsale":        ScenarioFlashSale,
	"seckill":          ScenarioFlashSale,
	"秒杀系统":             ScenarioFlashSale,
	"short link":       ScenarioURLShortener,
	"url shortener":    ScenarioURLShortener,
	"短链服务":             ScenarioURLShortener,
	"im":               ScenarioMessaging,
	"chat":             ScenarioMessaging,
	"messaging system": ScenarioMessaging,
	"im系统":             ScenarioMessaging,
	"order":            ScenarioOrderSystem,
	"orders":           ScenarioOrderSystem,
	"订单系统":             ScenarioOrderSystem,
}

var designFollowUps = []string{
	"How would you design the database schema?",
	"What is your caching strategy?",
	"If a service goes down, how do you keep the data consistent?",
}

// ScenarioKey resolves a free-form scenario label to a known scenario key.
// Unrecognized labels resolve to the flash-sale scenario.
func ScenarioKey(label string, scenarios map[string]string) string {
	key := strings.ToLower(strings.TrimSpace(label))
	if _, ok := scenarios[key]; ok {
		return key
	}
	if alias, ok := scenarioAliases[key]; ok {
		if _, ok := scenarios[alias]; ok {
			return alias
		}
	}
	if alias, ok := scenarioAliases[strings.ReplaceAll(key, "-", " ")]; ok {
		if _, ok := scenarios[alias]; ok {
			return alias
		}
	}
	return ScenarioFlashSale
}

func (s *Supplier) design(label string) interview.Question {
	key := ScenarioKey(label, s.cfg.Scenarios)
	text, ok := s.cfg.Scenarios[key]
	if !ok {
		text = DefaultScenarios()[ScenarioFlashSale]
	}

	return interview.Question{
		ID:         "design_" + key,
		Text:       text,
		Category:   "system-design",
		Difficulty: designDifficulty,
		FollowUps:  designFollowUps,
	}
}
