package validator

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type addLineRequest struct {
	MerchandiseID string `json:"merchandise_id" validate:"required"`
	Quantity      int    `json:"quantity" validate:"gte=1,lte=99"`
}

func TestValidate_Success(t *testing.T) {
	err := Validate(addLineRequest{MerchandiseID: "gid://shopify/ProductVariant/1", Quantity: 1})
	assert.NoError(t, err)
}

func TestValidate_MissingRequired(t *testing.T) {
	err := Validate(addLineRequest{Quantity: 1})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	fields := valErr.Fields()
	assert.Equal(t, "is required", fields["MerchandiseID"])
}

func TestValidate_OutOfRange(t *testing.T) {
	err := Validate(addLineRequest{MerchandiseID: "v1", Quantity: 100})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Fields()["Quantity"], "99")
}

func TestValidate_MultipleErrors(t *testing.T) {
	err := Validate(addLineRequest{})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	fields := valErr.Fields()
	assert.Contains(t, fields, "MerchandiseID")
	assert.Contains(t, fields, "Quantity")
}

func TestValidationError_ErrorString(t *testing.T) {
	err := Validate(addLineRequest{Quantity: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field 'MerchandiseID'")
	assert.Contains(t, err.Error(), "is required")
}

type minMaxStruct struct {
	Short string `validate:"min=3"`
	Long  string `validate:"max=5"`
}

func TestValidate_MinMax(t *testing.T) {
	err := Validate(minMaxStruct{Short: "ab", Long: "toolongstring"})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	fields := valErr.Fields()
	assert.Contains(t, fields["Short"], "at least 3")
	assert.Contains(t, fields["Long"], "at most 5")
}

type handleStruct struct {
	Handle string `validate:"handle"`
}

func TestValidate_Handle(t *testing.T) {
	assert.NoError(t, Validate(handleStruct{Handle: "classic-tee"}))

	err := Validate(handleStruct{Handle: "Classic Tee"})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "must be a lowercase hyphenated product handle", valErr.Fields()["Handle"])
}

type oneofStruct struct {
	Kind string `validate:"oneof=keydown overlay_click"`
}

func TestValidate_OneOf(t *testing.T) {
	err := Validate(oneofStruct{Kind: "scroll"})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Fields()["Kind"], "one of")
}

func TestDecodeAndValidate_Success(t *testing.T) {
	body := `{"merchandise_id":"v1","quantity":2}`
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))

	var s addLineRequest
	err := DecodeAndValidate(req, &s)

	require.NoError(t, err)
	assert.Equal(t, "v1", s.MerchandiseID)
	assert.Equal(t, 2, s.Quantity)
}

func TestDecodeAndValidate_InvalidJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{invalid"))

	var s addLineRequest
	err := DecodeAndValidate(req, &s)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode request body")
}

func TestDecodeAndValidate_UnknownField(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"merchandise_id":"v1","quantity":1,"price":"0.01"}`))

	var s addLineRequest
	err := DecodeAndValidate(req, &s)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode request body")
}

func TestDecodeAndValidate_ValidationFails(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"merchandise_id":"","quantity":0}`))

	var s addLineRequest
	err := DecodeAndValidate(req, &s)

	require.Error(t, err)
	var valErr *ValidationError
	assert.ErrorAs(t, err, &valErr)
}
