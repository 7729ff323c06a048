package prompt

import "github.com/pkoukk/tiktoken-go"

// Tokenizer estimates token counts for informational usage accounting only
// (spec §4.5 notes the hard budget is a character proxy, never tokens).
type Tokenizer interface {
	Estimate(text string) int
}

// TiktokenEstimator wraps pkoukk/tiktoken-go, grounded in
// ai/core/tokenizer/tiktoken.go.
type TiktokenEstimator struct {
	encoding *tiktoken.Tiktoken
}

func NewTiktokenEstimator(encodingType string) (*TiktokenEstimator, error) {
	enc, err := tiktoken.GetEncoding(encodingType)
	if err != nil {
		return nil, err
	}
	return &TiktokenEstimator{encoding: enc}, nil
}

func (t *TiktokenEstimator) Estimate(text string) int {
	return len(t.encoding.Encode(text, nil, nil))
}

// noopEstimator is used when no tiktoken encoding could be loaded; usage
// accounting degrades to a character/4 rule of thumb rather than failing
// the whole build.
type noopEstimator struct{}

func (noopEstimator) Estimate(text string) int { return len([]rune(text)) / 4 }
