package textproc

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/kljensen/snowball"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

// Features 查询文本的词频特征
type Features struct {
	Terms map[string]int `json:"terms"`
	Total int            `json:"total"`
}

// Processor 查询文本处理器：归一化、分词、停用词过滤、词干提取
type Processor struct {
	stopWords map[string]bool
	minLength int
	maxLength int
}

// NewProcessor 创建处理器
func NewProcessor() *Processor {
	return &Processor{
		stopWords: defaultStopWords(),
		minLength: 2,
		maxLength: 50,
	}
}

// Normalize 归一化文本：小写、去重音、标点转空格
func (p *Processor) Normalize(text string) string {
	text = strings.ToLower(text)
	text = stripAccents(text)
	text = strings.ReplaceAll(text, "-", " ")
	text = strings.ReplaceAll(text, "_", " ")

	var sb strings.Builder
	sb.Grow(len(text))
	lastSpace := false
	for _, r := range text {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			sb.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				sb.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(sb.String())
}

// Tokenize 分词并过滤停用词
func (p *Processor) Tokenize(text string) []string {
	normalized := p.Normalize(text)
	words := tokenPattern.FindAllString(normalized, -1)

	tokens := make([]string, 0, len(words))
	for _, word := range words {
		if p.stopWords[word] {
			continue
		}
		if len(word) < p.minLength || len(word) > p.maxLength {
			continue
		}
		if !isValidToken(word) {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}

// Stem 词干提取，失败时返回原词
func (p *Processor) Stem(word string) string {
	stemmed, err := snowball.Stem(word, "english", true)
	if err != nil {
		return word
	}
	return stemmed
}

// Process 分词 + 词干提取
func (p *Processor) Process(text string) []string {
	tokens := p.Tokenize(text)
	stemmed := make([]string, len(tokens))
	for i, token := range tokens {
		stemmed[i] = p.Stem(token)
	}
	return stemmed
}

// Extract 提取词频特征
func (p *Processor) Extract(text string) Features {
	terms := p.Process(text)

	freq := make(map[string]int, len(terms))
	for _, term := range terms {
		freq[term]++
	}
	return Features{Terms: freq, Total: len(terms)}
}

// Similarity 归一化词项重叠相似度，范围 [0,1]
// 相同的归一化文本得分恰好为 1.0
func Similarity(a, b Features) float64 {
	if a.Total == 0 || b.Total == 0 {
		return 0
	}

	overlap := 0
	for term, fa := range a.Terms {
		if fb, ok := b.Terms[term]; ok {
			overlap += min(fa, fb)
		}
	}
	return float64(overlap) / float64(max(a.Total, b.Total))
}

// stripAccents 去除重音符号（NFD 分解后剔除组合标记）
func stripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// isValidToken 纯数字或数字占比过高的词不作为特征
func isValidToken(word string) bool {
	alphaCount := 0
	digitCount := 0
	for _, r := range word {
		if unicode.IsLetter(r) {
			alphaCount++
		} else if unicode.IsDigit(r) {
			digitCount++
		}
	}
	if alphaCount == 0 {
		return false
	}
	return digitCount <= alphaCount
}

func defaultStopWords() map[string]bool {
	words := []string{
		"a", "an", "the",

		"i", "me", "my", "we", "our", "you", "your",
		"he", "him", "his", "she", "her", "it", "its",
		"they", "them", "their",

		"of", "at", "by", "for", "with", "about", "between",
		"into", "through", "during", "before", "after",
		"to", "from", "up", "down", "in", "out", "on", "off", "over", "under",

		"and", "or", "but", "if", "while", "because", "as", "until",
		"than", "so", "nor",

		"is", "am", "are", "was", "were", "be", "been", "being",
		"have", "has", "had", "having",
		"do", "does", "did", "doing",
		"will", "would", "should", "could", "can", "may", "might", "must",

		"this", "that", "these", "those",
		"what", "which", "who", "whom", "whose", "when", "where", "why", "how",
		"all", "each", "every", "both", "few", "more", "most", "other", "some", "such",
		"no", "not", "only", "own", "same", "then", "there", "too", "very", "please",
	}

	stopWords := make(map[string]bool, len(words))
	for _, word := range words {
		stopWords[word] = true
	}
	return stopWords
}
