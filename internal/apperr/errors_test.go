package apperr

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
)

func TestInsufficientStockMessage(t *testing.T) {
	avail, _ := decimal.NewFromString("10")
	req, _ := decimal.NewFromString("20")
	err := InsufficientStock(avail, req)

	want := "Insufficient quantity. Available: 10, Requested: 20"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
	if !IsKind(err, KindInsufficientStock) {
		t.Error("wrong kind")
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	inner := NotFoundf("transfer abc not found")
	wrapped := fmt.Errorf("load transfer: %w", inner)

	if !IsKind(wrapped, KindNotFound) {
		t.Error("kind lost through wrapping")
	}
	if HTTPStatus(wrapped) != http.StatusNotFound {
		t.Errorf("expected 404, got %d", HTTPStatus(wrapped))
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{NotFoundf("x"), http.StatusNotFound},
		{Forbiddenf("x"), http.StatusForbidden},
		{InvalidStatef("x"), http.StatusConflict},
		{InsufficientStock(decimal.Zero, decimal.New(1, 0)), http.StatusUnprocessableEntity},
		{Validationf("x"), http.StatusBadRequest},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := HTTPStatus(tc.err); got != tc.status {
			t.Errorf("%v: got %d, want %d", tc.err, got, tc.status)
		}
	}
}
