package recognizer

import (
	"context"
	"errors"

	"github.com/nguyentantai21042004/chart-flow/internal/capture"
)

var errDisabled = errors.New("speech recognition is disabled")

// None is the recognizer of a host without speech recognition.
type None struct{}

func (None) Available() error { return errDisabled }

func (None) Start(context.Context) (<-chan capture.Result, error) {
	return nil, errDisabled
}
