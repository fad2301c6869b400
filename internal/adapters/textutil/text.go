// Package textutil содержит общие функции очистки текста сообщений.
package textutil

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

var (
	bracketOnlyRe = regexp.MustCompile(`^\[.*\]$`)
	mentionOnlyRe = regexp.MustCompile(`^@[\p{L}\p{N}_.\-]+[\s\x{2005}]*$`)
	symbolsOnlyRe = regexp.MustCompile(`^[\p{P}\p{S}\p{M}\s\x{200D}]+$`)
	digitsOnlyRe  = regexp.MustCompile(`^\d+$`)
	ackOnlyRe     = regexp.MustCompile(`(?i)^(?:(?:嗯|哦|噢|啊|呵|哈|嘿|嘻|好的|好滴|好嘞|行|对|是的|收到|谢谢|感谢|多谢|ok|okay|thanks|thank you|thx|got it|noted|lol|haha|yes|yep)[\s\p{P}\p{S}]*)+$`)

	bracketRe = regexp.MustCompile(`\[.*?\]`)
	mentionRe = regexp.MustCompile(`@[\p{L}\p{N}_.\-]+`)
)

// noticeName — имя участника в кавычках, как его пишет клиент в уведомлениях.
const noticeName = `["“][^"“”]{1,32}["”]`

// systemNotices — служебные уведомления клиента. Сообщение считается
// уведомлением, только если совпадает с шаблоном целиком.
var systemNotices = []*regexp.Regexp{
	regexp.MustCompile(`^(?:` + noticeName + `|你) ?撤回了一条消息$`),
	regexp.MustCompile(`^(?:` + noticeName + `|你) ?邀请 ?(?:` + noticeName + `(?:[、,，]` + noticeName + `)*|你) ?加入了群聊$`),
	regexp.MustCompile(`^` + noticeName + ` ?通过扫描.{1,32}分享的二维码加入群聊$`),
	regexp.MustCompile(`^(?:` + noticeName + `|你) ?将 ?` + noticeName + ` ?移出了群聊$`),
	regexp.MustCompile(`^(?:` + noticeName + `|你) ?修改群名为 ?` + noticeName + `$`),
	regexp.MustCompile(`^(?:` + noticeName + `|我) ?拍了拍 ?(?:` + noticeName + `|我|自己)[^，,。！？!?]{0,16}$`),
	regexp.MustCompile(`(?i)^(?:` + noticeName + `|you) (?:recalled|revoked) a message\.?$`),
	regexp.MustCompile(`(?i)^` + noticeName + ` (?:joined|invited ` + noticeName + ` to) the group chat\.?$`),
}

// IsNoise сообщает, что сообщение не несёт содержания: эмодзи в скобках,
// одно упоминание, пунктуация, число, короткое подтверждение или служебное уведомление.
// Полноширинные формы перед проверкой приводятся к обычным.
func IsNoise(content string) bool {
	text := strings.TrimSpace(Fold(content))
	if text == "" {
		return true
	}
	switch {
	case bracketOnlyRe.MatchString(text),
		mentionOnlyRe.MatchString(text),
		symbolsOnlyRe.MatchString(text),
		digitsOnlyRe.MatchString(text),
		ackOnlyRe.MatchString(text):
		return true
	}
	for _, notice := range systemNotices {
		if notice.MatchString(text) {
			return true
		}
	}
	return false
}

// StripEmoji удаляет эмодзи вида [smile].
func StripEmoji(s string) string {
	return bracketRe.ReplaceAllString(s, "")
}

// StripMentions удаляет упоминания вида @name.
func StripMentions(s string) string {
	return mentionRe.ReplaceAllString(s, "")
}

// RuneLen возвращает длину строки в символах.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}

// Truncate обрезает строку до limit символов и добавляет suffix, если строка длиннее.
func Truncate(s string, limit int, suffix string) string {
	if limit < 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + suffix
}

// Fold приводит полноширинные формы к обычным (NFKC), чтобы токены из
// разных раскладок считались одинаково.
func Fold(s string) string {
	return norm.NFKC.String(s)
}
