// Package errors_test covers the AppError type, its factories and the
// error-chain helpers.
package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/rostertag/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// New / Newf
// ─────────────────────────────────────────────────────────────────────────────

func TestNew_FieldsAreSetCorrectly(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		code    errors.ErrorCode
		message string
	}{
		{"internal", errors.ErrCodeInternal, "unexpected failure"},
		{"config", errors.ErrCodeNumericBounds, "num_min_len 4 exceeds num_max_len 3"},
		{"glossary", errors.ErrCodeGlossaryTermType, "unknown term type"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ae := errors.New(tc.code, tc.message)
			require.NotNil(t, ae)
			assert.Equal(t, tc.code, ae.Code)
			assert.Equal(t, tc.message, ae.Message)
			assert.Empty(t, ae.Detail)
			assert.Nil(t, ae.Cause)
			assert.NotEmpty(t, ae.Stack)
		})
	}
}

func TestNewf_FormatsMessage(t *testing.T) {
	ae := errors.Newf(errors.ErrCodeGlossaryInvalid, "row %d: empty term", 7)
	assert.Equal(t, "row 7: empty term", ae.Message)
}

func TestError_Format(t *testing.T) {
	ae := errors.New(errors.ErrCodeMissingTextColumn, "text column not found")
	assert.Equal(t, "[CONFIG_002] text column not found", ae.Error())

	withDetail := ae.WithDetail("column=Name")
	assert.Equal(t, "[CONFIG_002] text column not found: column=Name", withDetail.Error())

	wrapped := errors.Wrap(stderrors.New("eof"), errors.ErrCodeGlossaryFormat, "read glossary")
	assert.Equal(t, "[GLOSSARY_003] read glossary: eof", wrapped.Error())
}

// ─────────────────────────────────────────────────────────────────────────────
// Wrap
// ─────────────────────────────────────────────────────────────────────────────

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, errors.Wrap(nil, errors.ErrCodeInternal, "nothing"))
	assert.Nil(t, errors.Wrapf(nil, errors.ErrCodeInternal, "nothing %d", 1))
}

func TestWrap_PreservesCause(t *testing.T) {
	base := stderrors.New("connection refused")
	ae := errors.Wrap(base, errors.ErrCodeCacheError, "redis get")

	require.NotNil(t, ae)
	assert.True(t, stderrors.Is(ae, base))
	assert.Equal(t, base, stderrors.Unwrap(ae))
}

func TestWrap_UnknownKeepsOriginalCode(t *testing.T) {
	inner := errors.New(errors.ErrCodeObjectNotFound, "glossary.csv missing")
	outer := errors.Wrap(inner, errors.CodeUnknown, "load glossary")
	assert.Equal(t, errors.ErrCodeObjectNotFound, outer.Code)
}

func TestWrapf_FormatsMessage(t *testing.T) {
	ae := errors.Wrapf(stderrors.New("boom"), errors.ErrCodeStorageError, "get %s/%s", "bucket", "key")
	assert.Equal(t, "get bucket/key", ae.Message)
}

// ─────────────────────────────────────────────────────────────────────────────
// Chain helpers
// ─────────────────────────────────────────────────────────────────────────────

func TestIsCode_ThroughFmtWrapping(t *testing.T) {
	ae := errors.New(errors.ErrCodeNumericBounds, "bad bounds")
	wrapped := fmt.Errorf("validate: %w", ae)

	assert.True(t, errors.IsCode(wrapped, errors.ErrCodeNumericBounds))
	assert.False(t, errors.IsCode(wrapped, errors.ErrCodeInternal))
	assert.False(t, errors.IsCode(nil, errors.ErrCodeInternal))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, errors.CodeOK, errors.GetCode(nil))
	assert.Equal(t, errors.CodeUnknown, errors.GetCode(stderrors.New("plain")))
	assert.Equal(t, errors.ErrCodeCacheMiss, errors.GetCode(errors.New(errors.ErrCodeCacheMiss, "miss")))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, errors.IsNotFound(errors.NotFound("x")))
	assert.True(t, errors.IsNotFound(errors.New(errors.ErrCodeObjectNotFound, "x")))
	assert.True(t, errors.IsNotFound(errors.New(errors.ErrCodeRunNotFound, "x")))
	assert.False(t, errors.IsNotFound(errors.Internal("x")))
}

func TestIsValidation(t *testing.T) {
	assert.True(t, errors.IsValidation(errors.InvalidConfig("x")))
	assert.True(t, errors.IsValidation(errors.InvalidParam("x")))
	assert.False(t, errors.IsValidation(errors.Internal("x")))
	assert.False(t, errors.IsValidation(stderrors.New("plain")))
	assert.False(t, errors.IsValidation(nil))
}

func TestWithDetail_DoesNotMutateReceiver(t *testing.T) {
	ae := errors.InvalidParam("bad")
	clone := ae.WithDetail("field=x")
	assert.Empty(t, ae.Detail)
	assert.Equal(t, "field=x", clone.Detail)

	var nilErr *errors.AppError
	assert.Nil(t, nilErr.WithDetail("x"))
	assert.Nil(t, nilErr.WithCause(stderrors.New("x")))
}

func TestWithCause(t *testing.T) {
	cause := stderrors.New("root")
	ae := errors.Unavailable("kafka down").WithCause(cause)
	assert.True(t, stderrors.Is(ae, cause))
	assert.Equal(t, errors.ErrCodeServiceUnavailable, ae.Code)
}

//Personal.AI order the ending
