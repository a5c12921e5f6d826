package enrich

import (
	"strings"
	"testing"
	"unicode/utf8"
)

// TestReadingTime_Estimation は語数に応じた読了時間の推定を検証する。
func TestReadingTime_Estimation(t *testing.T) {
	svc := NewService()

	tests := []struct {
		name  string
		words int
		want  int
	}{
		{"空のテキストは最小値の1分", 0, 1},
		{"100語は1分", 100, 1},
		{"200語は1分", 200, 1},
		{"250語は切り捨てで1分", 250, 1},
		{"400語は2分", 400, 2},
		{"1000語は5分", 1000, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := strings.TrimSpace(strings.Repeat("word ", tt.words))
			got := svc.ReadingTime(text)
			if got != tt.want {
				t.Errorf("ReadingTime(%d words) = %d, want %d", tt.words, got, tt.want)
			}
		})
	}
}

// TestReadingTime_WhitespaceOnly は空白のみのテキストが1分になることを検証する。
func TestReadingTime_WhitespaceOnly(t *testing.T) {
	svc := NewService()

	if got := svc.ReadingTime("   \n\t  "); got != 1 {
		t.Errorf("ReadingTime(whitespace) = %d, want 1", got)
	}
}

// TestSummarize_FirstTwoSentences は先頭2文が要約になることを検証する。
func TestSummarize_FirstTwoSentences(t *testing.T) {
	svc := NewService()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "3文のテキストは先頭2文",
			input: "First sentence. Second sentence. Third sentence.",
			want:  "First sentence. Second sentence.",
		},
		{
			name:  "1文のテキストはそのまま",
			input: "Only one sentence.",
			want:  "Only one sentence.",
		},
		{
			name:  "文末記号なしのテキストはそのまま",
			input: "no terminal punctuation here",
			want:  "no terminal punctuation here",
		},
		{
			name:  "疑問符と感嘆符も文末として扱う",
			input: "Really? Yes! And more after that.",
			want:  "Really? Yes!",
		},
		{
			name:  "和文の句点にも対応する",
			input: "最初の文。次の文。三番目の文。",
			want:  "最初の文。次の文。三番目の文。",
		},
		{
			name:  "空のテキストは空文字列",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := svc.Summarize(tt.input)
			if got != tt.want {
				t.Errorf("Summarize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestSummarize_TruncatesLongText は300文字を超える要約が切り詰められることを検証する。
func TestSummarize_TruncatesLongText(t *testing.T) {
	svc := NewService()

	input := strings.Repeat("a", 500) + ". " + strings.Repeat("b", 100) + "."
	got := svc.Summarize(input)

	if utf8.RuneCountInString(got) != 300 {
		t.Errorf("summary length = %d, want 300", utf8.RuneCountInString(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("truncated summary should end with ellipsis, got %q", got[len(got)-10:])
	}
}

// TestSummarize_NormalizesWhitespaceAndEntities は空白の畳み込みとエンティティ復元を検証する。
func TestSummarize_NormalizesWhitespaceAndEntities(t *testing.T) {
	svc := NewService()

	input := "Tom &amp; Jerry   run\n\nfast. The   end."
	want := "Tom & Jerry run fast. The end."

	if got := svc.Summarize(input); got != want {
		t.Errorf("Summarize() = %q, want %q", got, want)
	}
}

// TestSummarize_Idempotent は同一入力に対して常に同一出力を返すことを検証する。
func TestSummarize_Idempotent(t *testing.T) {
	svc := NewService()

	input := "Stable output. Every time. No surprises."
	first := svc.Summarize(input)
	second := svc.Summarize(input)

	if first != second {
		t.Errorf("Summarize not deterministic: %q vs %q", first, second)
	}
}
