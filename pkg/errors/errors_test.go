package errors

import (
	stderrors "errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCarriesCodeAndStack(t *testing.T) {
	err := New(ErrCodeInsufficientData, "no comps survived")
	require.NotNil(t, err)
	assert.Equal(t, ErrCodeInsufficientData, err.Code)
	assert.Contains(t, err.Error(), "VAL_002")
	assert.Contains(t, err.Error(), "no comps survived")
	assert.NotEmpty(t, err.Stack)
}

func TestErrorFormatIncludesDetail(t *testing.T) {
	err := New(ErrCodeValidation, "validation failed").WithDetail("year=0")
	assert.True(t, strings.HasSuffix(err.Error(), "validation failed: year=0"))
}

func TestWrapNilReturnsNil(t *testing.T) {
	var got *AppError = Wrap(nil, ErrCodeInternal, "ignored")
	assert.Nil(t, got)
}

func TestWrapPreservesOriginalCode(t *testing.T) {
	inner := New(ErrCodeSearchUnavailable, "search down")
	outer := Wrap(inner, ErrCodeInternal, "appraisal failed")
	assert.Equal(t, ErrCodeSearchUnavailable, outer.Code)
	assert.True(t, stderrors.Is(outer, outer))
	assert.True(t, IsCode(outer, ErrCodeSearchUnavailable))
}

func TestWrapExplicitCodeWins(t *testing.T) {
	inner := stderrors.New("connection refused")
	outer := Wrap(inner, ErrCodeSearchUnavailable, "passage search failed")
	assert.Equal(t, ErrCodeSearchUnavailable, outer.Code)
	assert.Equal(t, inner, stderrors.Unwrap(outer))
}

func TestIsInsufficientDataTraversesChain(t *testing.T) {
	inner := InsufficientData("zero records after filtering")
	outer := Wrap(inner, ErrCodeInternal, "evaluate failed")
	assert.True(t, IsInsufficientData(outer))
	assert.False(t, IsInsufficientData(stderrors.New("plain")))
	assert.False(t, IsInsufficientData(nil))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, CodeOK, GetCode(nil))
	assert.Equal(t, ErrCodeInternal, GetCode(stderrors.New("plain")))
	assert.Equal(t, ErrCodeBadRequest, GetCode(InvalidParam("bad year")))
}

func TestWithDetailOnNilReceiver(t *testing.T) {
	var e *AppError
	assert.Nil(t, e.WithDetail("x"))
	assert.Nil(t, e.WithCause(stderrors.New("y")))
}

func TestHTTPStatusMapping(t *testing.T) {
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatusForCode(ErrCodeInsufficientData))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatusForCode(ErrCodeSearchUnavailable))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatusForCode(ErrorCode("NOPE_999")))
}

func TestClientServerClassification(t *testing.T) {
	assert.True(t, IsClientError(ErrCodeBadRequest))
	assert.True(t, IsClientError(ErrCodeInsufficientData))
	assert.False(t, IsClientError(ErrCodeValuationFailed))
	assert.True(t, IsServerError(ErrCodeValuationFailed))
}

func TestDefaultMessageForCode(t *testing.T) {
	assert.Equal(t, "insufficient market data for valuation", DefaultMessageForCode(ErrCodeInsufficientData))
	assert.Equal(t, "unknown error", DefaultMessageForCode(ErrorCode("NOPE_999")))
}
