package wordindex

import (
	"sort"
	"strings"
)

// Entry is the timing of one recognized word inside a normalized video.
type Entry struct {
	Word       string  `json:"-"`
	StartTime  float64 `json:"startTime"`
	EndTime    float64 `json:"endTime"`
	SourceFile string  `json:"filename"`
}

// Duration returns the length of the word in seconds.
func (e Entry) Duration() float64 {
	return e.EndTime - e.StartTime
}

// Index maps a word to the single timing kept for it.
type Index map[string]Entry

// Upsert records a word occurrence, replacing any earlier one. It reports
// false and leaves the index untouched when the word cannot be used as a clip
// file name or the timing is empty.
func (idx Index) Upsert(word string, start, end float64, source string) bool {
	if !ValidWord(word) || end <= start {
		return false
	}
	idx[word] = Entry{Word: word, StartTime: start, EndTime: end, SourceFile: source}
	return true
}

// Merge folds other into idx. Entries of other win on identical words.
func (idx Index) Merge(other Index) {
	for word, e := range other {
		e.Word = word
		idx[word] = e
	}
}

// Words returns the indexed words in sorted order.
func (idx Index) Words() []string {
	words := make([]string, 0, len(idx))
	for w := range idx {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}

// ValidWord reports whether word can name a clip file.
func ValidWord(word string) bool {
	if word == "" || strings.HasPrefix(word, ".") {
		return false
	}
	return !strings.ContainsAny(word, `/\`+"\x00")
}
