package budget

import "github.com/pkoukk/tiktoken-go"

// Estimator estimates how many tokens a text will consume.
type Estimator interface {
	Estimate(text string) int
}

// HeuristicEstimator approximates tokens as one per four characters, the
// usual rule of thumb for English.
type HeuristicEstimator struct{}

// Estimate returns len(text)/4, minimum 1 for non-empty text.
func (HeuristicEstimator) Estimate(text string) int {
	if text == "" {
		return 0
	}
	n := len(text) / 4
	if n == 0 {
		n = 1
	}
	return n
}

// TiktokenEstimator counts tokens with the cl100k_base encoding used by the
// embedding and chat models this service defaults to.
type TiktokenEstimator struct {
	enc *tiktoken.Tiktoken
}

// NewTiktokenEstimator loads the cl100k_base encoding.
func NewTiktokenEstimator() (*TiktokenEstimator, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, err
	}
	return &TiktokenEstimator{enc: enc}, nil
}

// Estimate returns the exact token count for text.
func (e *TiktokenEstimator) Estimate(text string) int {
	return len(e.enc.Encode(text, nil, nil))
}

// NewEstimator returns a tiktoken-backed estimator, falling back to the
// heuristic when the encoding cannot be loaded (e.g. no cached BPE data).
func NewEstimator() Estimator {
	if e, err := NewTiktokenEstimator(); err == nil {
		return e
	}
	return HeuristicEstimator{}
}
