package validate

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

// 问题文本的长度边界（按字符计）
const (
	MinQueryRunes = 3
	MaxQueryRunes = 2000
)

const maxSpecialChars = 10

type pattern struct {
	re  *regexp.Regexp
	msg string
}

// 注入特征与对外提示成对出现
var dangerousPatterns = []pattern{
	{regexp.MustCompile(`(?i);\s*(drop|delete|truncate|alter|create|insert|update)\s+`), "SQL injection attempt detected"},
	{regexp.MustCompile(`(?i)union\s+select`), "SQL injection attempt detected"},
	{regexp.MustCompile(`(?i)exec\s*\(`), "SQL injection attempt detected"},
	{regexp.MustCompile(`(?i)xp_\w+`), "SQL injection attempt detected"},
	{regexp.MustCompile(`(?i)sp_\w+`), "SQL injection attempt detected"},
	{regexp.MustCompile(`(?i)--\s*$`), "SQL comment injection attempt"},
	{regexp.MustCompile(`(?i)/\*.*\*/`), "SQL comment injection attempt"},
	{regexp.MustCompile(`(?i);\s*--`), "SQL injection attempt detected"},
	{regexp.MustCompile(`(?i)waitfor\s+delay`), "SQL injection attempt detected"},
	{regexp.MustCompile(`(?i)shutdown`), "Dangerous SQL command detected"},
}

var specialChars = regexp.MustCompile("[;\\\\'\"`]")

// ValidateQuestion 校验自然语言问题。合法返回 nil，
// 否则返回可直接回给调用方的提示错误。
func ValidateQuestion(input string) error {
	if input == "" {
		return errors.New("Input must be a non-empty string")
	}
	if utf8.RuneCountInString(input) > MaxQueryRunes {
		return errors.New("Query too long. Maximum 2000 characters allowed.")
	}
	if utf8.RuneCountInString(strings.TrimSpace(input)) < MinQueryRunes {
		return errors.New("Query too short. Please provide more details.")
	}

	for _, p := range dangerousPatterns {
		if p.re.MatchString(input) {
			return errors.New(p.msg)
		}
	}

	if len(specialChars.FindAllString(input, -1)) > maxSpecialChars {
		return errors.New("Input contains too many special characters. Please rephrase your query.")
	}
	return nil
}

// Sanitize 去掉空字节和控制字符（保留换行、回车、制表符），修剪首尾空白
func Sanitize(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if r == 0 || r == 0x7F {
			continue
		}
		if r < 0x20 && r != '\n' && r != '\r' && r != '\t' {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}
