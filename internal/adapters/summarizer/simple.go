package summarizer

import (
	"regexp"
	"sort"
	"strings"

	"chatlog-digest/internal/adapters/textutil"
	"chatlog-digest/internal/domain"
)

const (
	titleCandidateMinLen   = 15
	summaryCandidateMinLen = 10
	titleClauseMin         = 8
	titleClauseMax         = 40
	summaryItemMax         = 60
	summaryMaxItems        = 4
	ellipsis               = "..."
	titleBoundaries        = " ，。！？、"
)

var clauseSplitRe = regexp.MustCompile(`[。！？!?\n，；：;]`)

// Config задаёт заглушки и лимиты эвристического описания.
type Config struct {
	TitlePlaceholder   string
	SummaryPlaceholder string
	FallbackKeywords   []string
	MaxKeywords        int
}

// DefaultConfig возвращает настройки по умолчанию.
func DefaultConfig() Config {
	return Config{
		TitlePlaceholder:   "群聊讨论",
		SummaryPlaceholder: "暂无详细摘要",
		FallbackKeywords:   []string{"讨论", "交流", "分享"},
		MaxKeywords:        5,
	}
}

// SimpleSummarizer реализует доменный интерфейс Summarizer эвристикой.
type SimpleSummarizer struct {
	cfg Config
}

// NewSimple создаёт Summarizer.
func NewSimple(cfg Config) *SimpleSummarizer {
	defaults := DefaultConfig()
	if cfg.TitlePlaceholder == "" {
		cfg.TitlePlaceholder = defaults.TitlePlaceholder
	}
	if cfg.SummaryPlaceholder == "" {
		cfg.SummaryPlaceholder = defaults.SummaryPlaceholder
	}
	if len(cfg.FallbackKeywords) == 0 {
		cfg.FallbackKeywords = defaults.FallbackKeywords
	}
	if cfg.MaxKeywords <= 0 {
		cfg.MaxKeywords = defaults.MaxKeywords
	}
	return &SimpleSummarizer{cfg: cfg}
}

// Summarize строит заголовок, краткое содержание и ключевые слова.
func (s *SimpleSummarizer) Summarize(messages []domain.Message) domain.TopicSummary {
	return domain.TopicSummary{
		Title:    s.Title(messages),
		Summary:  s.Summary(messages),
		Keywords: s.Keywords(messages),
	}
}

// Title выбирает содержательное сообщение из начала сессии и сокращает его до заголовка.
func (s *SimpleSummarizer) Title(messages []domain.Message) string {
	meaningful := meaningfulContents(messages)
	candidates := filterLonger(meaningful, titleCandidateMinLen)
	if len(candidates) == 0 {
		for _, content := range meaningful {
			if title := extractTitle(content); title != "" {
				return title
			}
		}
		return s.cfg.TitlePlaceholder
	}
	if title := extractTitle(pickTitleCandidate(candidates)); title != "" {
		return title
	}
	return s.cfg.TitlePlaceholder
}

// Summary собирает до четырёх представительных реплик: первую, среднюю,
// последнюю и самые длинные, в хронологическом порядке.
func (s *SimpleSummarizer) Summary(messages []domain.Message) string {
	candidates := filterLonger(meaningfulContents(messages), summaryCandidateMinLen)
	if len(candidates) == 0 {
		return s.cfg.SummaryPlaceholder
	}
	parts := make([]string, 0, summaryMaxItems)
	for _, idx := range representativeIndexes(candidates) {
		text := strings.TrimSpace(textutil.StripEmoji(candidates[idx]))
		if text == "" {
			continue
		}
		parts = append(parts, textutil.Truncate(text, summaryItemMax, ellipsis))
	}
	if len(parts) == 0 {
		return s.cfg.SummaryPlaceholder
	}
	return strings.Join(parts, " | ")
}

// Keywords извлекает ключевые слова сессии.
func (s *SimpleSummarizer) Keywords(messages []domain.Message) []string {
	return ExtractKeywords(messages, s.cfg.MaxKeywords, s.cfg.FallbackKeywords)
}

func meaningfulContents(messages []domain.Message) []string {
	out := make([]string, 0, len(messages))
	for _, m := range messages {
		content := strings.TrimSpace(m.Content)
		if content == "" || textutil.IsNoise(content) {
			continue
		}
		out = append(out, content)
	}
	return out
}

func filterLonger(contents []string, minLen int) []string {
	out := make([]string, 0, len(contents))
	for _, c := range contents {
		if textutil.RuneLen(c) > minLen {
			out = append(out, c)
		}
	}
	return out
}

// pickTitleCandidate предпочитает раннее сообщение, если оно не сильно
// короче самого длинного из первых пяти.
func pickTitleCandidate(candidates []string) string {
	window := candidates[:min(5, len(candidates))]
	longest := window[0]
	for _, c := range window[1:] {
		if textutil.RuneLen(c) > textutil.RuneLen(longest) {
			longest = c
		}
	}
	threshold := 0.7 * float64(textutil.RuneLen(longest))
	for _, c := range candidates[:min(3, len(candidates))] {
		if float64(textutil.RuneLen(c)) >= threshold {
			return c
		}
	}
	return longest
}

func extractTitle(content string) string {
	cleaned := strings.TrimSpace(textutil.StripMentions(textutil.StripEmoji(content)))
	if cleaned == "" {
		return ""
	}
	for _, clause := range clauseSplitRe.Split(cleaned, -1) {
		clause = strings.TrimSpace(clause)
		if n := textutil.RuneLen(clause); n >= titleClauseMin && n <= titleClauseMax {
			return clause
		}
	}
	runes := []rune(cleaned)
	if len(runes) <= titleClauseMax {
		return cleaned
	}
	truncated := runes[:titleClauseMax]
	for i := titleClauseMax - 1; i > titleClauseMax-10; i-- {
		if strings.ContainsRune(titleBoundaries, truncated[i]) {
			return strings.TrimSpace(string(truncated[:i])) + ellipsis
		}
	}
	return string(truncated) + ellipsis
}

func representativeIndexes(candidates []string) []int {
	n := len(candidates)
	if n <= 3 {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out
	}
	chosen := map[int]struct{}{0: {}, n / 2: {}, n - 1: {}}
	byLength := make([]int, n)
	for i := range byLength {
		byLength[i] = i
	}
	sort.SliceStable(byLength, func(a, b int) bool {
		return textutil.RuneLen(candidates[byLength[a]]) > textutil.RuneLen(candidates[byLength[b]])
	})
	for _, idx := range byLength[:2] {
		if len(chosen) >= summaryMaxItems {
			break
		}
		chosen[idx] = struct{}{}
	}
	out := make([]int, 0, len(chosen))
	for idx := range chosen {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

var _ domain.Summarizer = (*SimpleSummarizer)(nil)
