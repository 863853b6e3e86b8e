package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-storefront/internal/shop"
)

func TestWriteErrStatusMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		code int
	}{
		{"empty cart", shop.ErrEmptyCart, http.StatusConflict},
		{"out of stock", shop.ErrOutOfStock, http.StatusConflict},
		{"insufficient stock", &shop.InsufficientStockError{ProductName: "A", Requested: 2, Available: 1}, http.StatusConflict},
		{"email taken", shop.ErrEmailTaken, http.StatusConflict},
		{"product referenced", shop.ErrProductReferenced, http.StatusConflict},
		{"invalid state for deletion", shop.ErrInvalidStateForDeletion, http.StatusConflict},
		{"invalid credential", shop.ErrInvalidCredential, http.StatusUnauthorized},
		{"not order owner", shop.ErrNotOrderOwner, http.StatusForbidden},
		{"unknown status", shop.ErrUnknownStatus, http.StatusBadRequest},
		{"not found", shop.ErrNotFound, http.StatusNotFound},
		{"anything else", errFake{}, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			writeErr(rec, tc.err)
			require.Equal(t, tc.code, rec.Code)
			require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

type errFake struct{}

func (errFake) Error() string { return "database exploded" }

func TestWriteErrInsufficientStockNamesProduct(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	writeErr(rec, &shop.InsufficientStockError{
		ProductID:   uuid.New(),
		ProductName: "Gramophone",
		Requested:   2,
		Available:   1,
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "Gramophone")
}

func TestWriteErrInvalidCredentialStaysGeneric(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	writeErr(rec, shop.ErrInvalidCredential)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "invalid credentials")
	require.NotContains(t, rec.Body.String(), "password")
}
