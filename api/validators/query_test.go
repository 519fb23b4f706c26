package validators

import (
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

func TestParseQueryInt(t *testing.T) {
	cases := []struct {
		name    string
		url     string
		want    int
		wantErr bool
	}{
		{name: "default", url: "/x", want: 1},
		{name: "value", url: "/x?page=3", want: 3},
		{name: "not numeric", url: "/x?page=abc", wantErr: true},
		{name: "out of range", url: "/x?page=0", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseQueryInt(httptest.NewRequest("GET", tc.url, nil), "page", 1, 1, 100)
			if tc.wantErr {
				if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil || got != tc.want {
				t.Fatalf("got %d, %v", got, err)
			}
		})
	}
}

func TestParseQueryEnum(t *testing.T) {
	got, err := ParseQueryEnum(httptest.NewRequest("GET", "/x?price_order=DESC", nil), "price_order", enums.ParseSortOrder)
	if err != nil || got != enums.SortOrderDesc {
		t.Fatalf("got %q, %v", got, err)
	}
	got, err = ParseQueryEnum(httptest.NewRequest("GET", "/x", nil), "price_order", enums.ParseSortOrder)
	if err != nil || got != enums.SortOrderNone {
		t.Fatalf("expected none default, got %q, %v", got, err)
	}
	if _, err := ParseQueryEnum(httptest.NewRequest("GET", "/x?price_order=up", nil), "price_order", enums.ParseSortOrder); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseQueryDecimal(t *testing.T) {
	missing, err := ParseQueryDecimal(httptest.NewRequest("GET", "/x", nil), "price_min")
	if err != nil || missing.Valid {
		t.Fatalf("expected invalid null decimal, got %+v, %v", missing, err)
	}
	value, err := ParseQueryDecimal(httptest.NewRequest("GET", "/x?price_min=12.5", nil), "price_min")
	if err != nil || !value.Valid || value.Decimal.String() != "12.5" {
		t.Fatalf("unexpected %+v, %v", value, err)
	}
	if _, err := ParseQueryDecimal(httptest.NewRequest("GET", "/x?price_min=cheap", nil), "price_min"); err == nil {
		t.Fatal("expected error for non-numeric price")
	}
}

func TestParseQueryUUID(t *testing.T) {
	id := uuid.New()
	got, err := ParseQueryUUID(httptest.NewRequest("GET", "/x?id="+id.String(), nil), "id")
	if err != nil || got != id {
		t.Fatalf("got %s, %v", got, err)
	}
	if _, err := ParseQueryUUID(httptest.NewRequest("GET", "/x", nil), "id"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for missing id, got %v", err)
	}
	if _, err := ParseQueryUUID(httptest.NewRequest("GET", "/x?id=nope", nil), "id"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for bad id, got %v", err)
	}
}

func TestParseQueryStringTrims(t *testing.T) {
	if got := ParseQueryString(httptest.NewRequest("GET", "/x?query=++boot++", nil), "query"); got != "boot" {
		t.Fatalf("unexpected %q", got)
	}
}
