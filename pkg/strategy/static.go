package strategy

import "context"

type staticPredictor struct {
	prediction *Prediction
	err        error
}

// NewStatic returns a predictor answering every call with the given
// prediction. Intended for tests.
func NewStatic(p *Prediction) Predictor {
	return &staticPredictor{prediction: p}
}

// NewFailing returns a predictor failing every call with err.
// Intended for testing the fallback path.
func NewFailing(err error) Predictor {
	return &staticPredictor{err: err}
}

func (s *staticPredictor) Predict(_ context.Context, _ FeatureVector) (*Prediction, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.prediction, nil
}
