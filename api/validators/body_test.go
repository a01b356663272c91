package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/crumbworks/bakery-backend/pkg/errors"
)

type deliveryRequest struct {
	ZipCode    string `json:"zip_code" validate:"required,postal_code"`
	Code       string `json:"code" validate:"omitempty,coupon_code"`
	AcceptFrom string `json:"order_accept_time" validate:"omitempty,time_of_day"`
	Status     string `json:"status" validate:"omitempty,oneof=publish draft"`
}

func decode(t *testing.T, body string) (deliveryRequest, error) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/summary", strings.NewReader(body))
	var dest deliveryRequest
	err := DecodeJSONBody(req, &dest)
	return dest, err
}

func detailsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, _ := typed.Details().(map[string]string)
	return details
}

func TestDecodeJSONBodyAcceptsBakeryFields(t *testing.T) {
	got, err := decode(t, `{"zip_code":"111 22","code":" FIKA-5 ","order_accept_time":"06:00","status":"draft"}`+"\n")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ZipCode != "111 22" || got.Code != " FIKA-5 " {
		t.Fatalf("unexpected decode %+v", got)
	}
}

func TestDecodeJSONBodyReportsFieldMessages(t *testing.T) {
	_, err := decode(t, `{"zip_code":"ABCDE","code":"10% off","order_accept_time":"24:00","status":"trash"}`)
	details := detailsOf(t, err)
	want := map[string]string{
		"zip_code":          "must be a valid zip code",
		"code":              "may only contain letters, digits, '-' and '_'",
		"order_accept_time": "must be a time of day as HH:MM",
		"status":            "must be one of: publish, draft",
	}
	for field, msg := range want {
		if details[field] != msg {
			t.Errorf("%s: expected %q, got %q", field, msg, details[field])
		}
	}
}

func TestDecodeJSONBodyRejectsMalformedBodies(t *testing.T) {
	cases := map[string]struct {
		body string
		msg  string
	}{
		"empty":          {body: "", msg: "request body is required"},
		"unknown field":  {body: `{"zip_code":"10001","tip":1}`, msg: "invalid request body"},
		"two objects":    {body: `{"zip_code":"10001"}{"zip_code":"10002"}`, msg: "request body must contain a single JSON object"},
		"oversized body": {body: `{"zip_code":"` + strings.Repeat("1", MaxBodyBytes) + `"}`, msg: "request body must not exceed 1048576 bytes"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := decode(t, tc.body)
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
			if typed.Message() != tc.msg {
				t.Fatalf("expected %q, got %q", tc.msg, typed.Message())
			}
		})
	}
}
