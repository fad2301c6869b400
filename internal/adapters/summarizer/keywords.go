package summarizer

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"chatlog-digest/internal/adapters/textutil"
	"chatlog-digest/internal/domain"
)

var (
	cjkTokenRe    = regexp.MustCompile(`[\x{4e00}-\x{9fff}]{2,6}`)
	latinTokenRe  = regexp.MustCompile(`[A-Za-z]{3,}`)
	numberTokenRe = regexp.MustCompile(`\d+[年月日万亿%]+`)
)

var cjkStopWords = toSet(
	"的", "了", "是", "在", "我", "有", "和", "就", "不", "人", "都", "一", "一个",
	"上", "也", "很", "到", "说", "要", "去", "你", "会", "着", "没有", "看", "好",
	"自己", "这", "那", "他", "她", "它", "们", "什么", "怎么", "可以", "这个", "那个",
	"吗", "呢", "啊", "吧", "哦", "嗯", "哈", "呵", "嘻", "哼", "唉", "喂",
	"如果", "因为", "所以", "但是", "而且", "或者", "还是", "虽然", "不过",
	"这样", "那样", "这么", "那么", "什么样", "怎么样",
	"我们", "你们", "他们", "她们", "它们", "这里", "那里", "为什么", "哪里",
	"图片", "链接", "动画", "表情", "系统消息", "撤回", "加入", "邀请", "群聊",
)

var latinStopWords = toSet(
	"the", "and", "for", "are", "but", "not", "you", "all",
	"this", "that", "with", "have", "has", "was", "were", "will", "can",
	"just", "what", "from", "they", "your", "our", "its",
	"http", "https", "www", "com",
)

// Candidate — слово-кандидат с частотой в порядке первого появления.
type Candidate struct {
	Term string
	Freq int
}

// ExtractKeywords собирает кандидатов из текста сессии и возвращает не более
// limit ключевых слов; если подходящих нет, возвращает fallback.
func ExtractKeywords(messages []domain.Message, limit int, fallback []string) []string {
	contents := make([]string, 0, len(messages))
	for _, m := range messages {
		contents = append(contents, m.Content)
	}
	text := textutil.Fold(strings.Join(contents, " "))

	counter := newCandidateCounter()
	for _, word := range cjkTokenRe.FindAllString(text, -1) {
		if _, stop := cjkStopWords[word]; stop {
			continue
		}
		counter.add(word, word)
	}
	for _, word := range latinTokenRe.FindAllString(text, -1) {
		lower := strings.ToLower(word)
		if _, stop := latinStopWords[lower]; stop {
			continue
		}
		counter.add(lower, word)
	}
	for _, word := range numberTokenRe.FindAllString(text, -1) {
		counter.add(word, word)
	}

	keywords := RankKeywords(counter.candidates(), limit)
	if len(keywords) == 0 {
		return append([]string(nil), fallback...)
	}
	return keywords
}

// RankKeywords оставляет повторяющиеся слова, сортирует их по
// min(длина/4, 1.5) * min(частота/3, 2) и убирает слова, вложенные друг в друга.
func RankKeywords(candidates []Candidate, limit int) []string {
	type scored struct {
		term  string
		score float64
	}
	items := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		if c.Freq < 2 {
			continue
		}
		length := float64(textutil.RuneLen(c.Term))
		score := math.Min(length/4, 1.5) * math.Min(float64(c.Freq)/3, 2.0)
		items = append(items, scored{term: c.Term, score: score})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].score > items[j].score })

	out := make([]string, 0, limit)
	for _, item := range items {
		if len(out) >= limit {
			break
		}
		if overlapsAny(item.term, out) {
			continue
		}
		out = append(out, item.term)
	}
	return out
}

func overlapsAny(term string, kept []string) bool {
	term = strings.ToLower(term)
	for _, k := range kept {
		k = strings.ToLower(k)
		if strings.Contains(k, term) || strings.Contains(term, k) {
			return true
		}
	}
	return false
}

type candidateCounter struct {
	order   []string
	display map[string]string
	freq    map[string]int
}

func newCandidateCounter() *candidateCounter {
	return &candidateCounter{display: make(map[string]string), freq: make(map[string]int)}
}

func (c *candidateCounter) add(key, display string) {
	if _, ok := c.freq[key]; !ok {
		c.order = append(c.order, key)
		c.display[key] = display
	}
	c.freq[key]++
}

func (c *candidateCounter) candidates() []Candidate {
	out := make([]Candidate, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, Candidate{Term: c.display[key], Freq: c.freq[key]})
	}
	return out
}

func toSet(values ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
