package cutengine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKind_String(t *testing.T) {
	assert.Equal(t, "InputOpenFailed", ErrInputOpenFailed.String())
	assert.Equal(t, "EncodeFailed", ErrEncodeFailed.String())
	assert.Equal(t, "Unknown", ErrorKind(999).String())
}

func TestWorkerError_ErrorAndUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	werr := NewWorkerError("muxer", ErrHeaderWriteFailed, cause)

	assert.Equal(t, "muxer: HeaderWriteFailed: disk full", werr.Error())
	assert.Same(t, cause, werr.Unwrap())
	assert.True(t, errors.Is(werr, cause))
}

func TestWorkerError_NilCause(t *testing.T) {
	werr := NewWorkerError("demuxer", ErrMissingStream, nil)
	assert.Equal(t, "demuxer: MissingStream", werr.Error())
}
