// Package prompt supplies the text a contributor reads aloud for one
// recording turn.
package prompt

import (
	"context"
	"math/rand"
)

// Source yields the next recording prompt.
type Source interface {
	Next(ctx context.Context) (string, error)
}

// sentences contributors are asked to read. Short, phonetically varied, and
// recordable in under ten seconds.
var sentences = []string{
	"The quick brown fox jumps over the lazy dog.",
	"Please record this sentence clearly in a quiet environment.",
	"Artificial intelligence is transforming the world.",
	"Good data collection requires consistent recording conditions.",
	"Librosa helps analyze audio signals in Python.",
	"This is a short sample to evaluate background noise levels.",
	"Speak at a natural pace and pronounce each word distinctly.",
	"Today is a great day to train a machine learning model.",
	"Clean audio leads to better recognition accuracy.",
	"Read this line as clearly as you can for the dataset.",
}

// Static picks a random prompt from the fixed sentence list. Never fails.
type Static struct{}

func (Static) Next(_ context.Context) (string, error) {
	return sentences[rand.Intn(len(sentences))], nil
}
