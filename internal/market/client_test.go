package market

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bdo-market-etl/internal/catalog"
	"bdo-market-etl/internal/domain"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()

	path := filepath.Join(t.TempDir(), "item_list.json")
	data := `{
		"all": [11653, 11625, 12094],
		"accessory": [11653, 11625],
		"costume": [12094],
		"Ogre Ring": 11653
	}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cat, err := catalog.Load(path, nil)
	require.NoError(t, err)
	return cat
}

func fixedClock() time.Time {
	return time.Date(2026, 3, 1, 14, 37, 12, 0, time.UTC)
}

func errorKind(t *testing.T, err error) ErrorKind {
	t.Helper()

	var me *Error
	require.ErrorAs(t, err, &me)
	return me.Kind
}

func TestEndpoint_UnknownKey(t *testing.T) {
	_, err := Endpoint("nope")
	assert.Equal(t, KindConfiguration, errorKind(t, err))

	op, err := Endpoint("sub")
	require.NoError(t, err)
	assert.Equal(t, "GetWorldMarketSubList", op)
}

func TestFetch_UnknownEndpointKey(t *testing.T) {
	client := NewClient("http://localhost", "na", "en", nil)

	_, err := client.Fetch(context.Background(), "nope", Selector{IDs: []int{11653}})
	assert.Equal(t, KindConfiguration, errorKind(t, err))
}

func TestFetch_MissingIDAndName(t *testing.T) {
	client := NewClient("http://localhost", "na", "en", nil)

	_, err := client.Fetch(context.Background(), "sub", Selector{})
	assert.Equal(t, KindValidation, errorKind(t, err))
}

func TestFetch_TierOutOfRange(t *testing.T) {
	client := NewClient("http://localhost", "na", "en", nil)

	tier := 21
	_, err := client.Fetch(context.Background(), "sub", Selector{IDs: []int{11653}, Tier: &tier})
	assert.Equal(t, KindValidation, errorKind(t, err))

	tier = -1
	_, err = client.Fetch(context.Background(), "sub", Selector{IDs: []int{11653}, Tier: &tier})
	assert.Equal(t, KindValidation, errorKind(t, err))
}

func TestFetch_UnknownItemName(t *testing.T) {
	client := NewClient("http://localhost", "na", "en", testCatalog(t))

	_, err := client.Fetch(context.Background(), "sub", Selector{ItemName: "No Such Item"})
	assert.Equal(t, KindValidation, errorKind(t, err))
}

func TestFetch_UpstreamStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "na", "en", nil)

	_, err := client.Fetch(context.Background(), "sub", Selector{IDs: []int{11653}})
	assert.Equal(t, KindUpstream, errorKind(t, err))
}

func TestFetch_EmptyBodyIsUpstreamError(t *testing.T) {
	for _, body := range []string{"", "null", "[]", "[[]]"} {
		body := body
		t.Run("body_"+body, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(body))
			}))
			defer srv.Close()

			client := NewClient(srv.URL, "na", "en", nil)

			_, err := client.Fetch(context.Background(), "sub", Selector{IDs: []int{11653}})
			assert.Equal(t, KindUpstream, errorKind(t, err))
			assert.ErrorContains(t, err, "empty response")
		})
	}
}

func TestFetch_MalformedBodyIsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"not": "a list"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "na", "en", nil)

	_, err := client.Fetch(context.Background(), "sub", Selector{IDs: []int{11653}})
	assert.Equal(t, KindUpstream, errorKind(t, err))
}

func TestFetch_FlattensAndTagsRows(t *testing.T) {
	var gotPath string
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		w.Write([]byte(`[
			[
				{"name":"Ogre Ring","id":11653,"sid":0,"minEnhance":0,"maxEnhance":0,
				 "basePrice":100,"currentStock":20,"totalTrades":1000,
				 "priceMin":90,"priceMax":110,"lastSoldPrice":100,"lastSoldTime":1767276000},
				{"name":"Ogre Ring","id":11653,"sid":1,"minEnhance":1,"maxEnhance":1,
				 "basePrice":200,"currentStock":7,"totalTrades":400,
				 "priceMin":180,"priceMax":220,"lastSoldPrice":200,"lastSoldTime":1767276000}
			],
			[
				{"name":"Venecil Dress","id":12094,"sid":0,"minEnhance":0,"maxEnhance":0,
				 "basePrice":50,"currentStock":5,"totalTrades":60,
				 "priceMin":45,"priceMax":55,"lastSoldPrice":50,"lastSoldTime":1767276000}
			]
		]`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "na", "en", testCatalog(t), WithClock(fixedClock))

	rows, err := client.Fetch(context.Background(), "sub", Selector{ItemName: "all"})
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "/na/GetWorldMarketSubList", gotPath)
	assert.Equal(t, "en", gotQuery["lang"])
	assert.Equal(t, "11625,11653,12094", gotQuery["ids"])
	assert.NotContains(t, gotQuery, "sid")

	scrapeTime := time.Date(2026, 3, 1, 14, 0, 0, 0, time.UTC)
	for _, r := range rows {
		assert.Equal(t, scrapeTime, r.ScrapeTime)
	}

	assert.Equal(t, domain.CategoryAccessory, rows[0].Category)
	assert.Equal(t, "Ogre Ring", rows[0].Name)
	assert.Equal(t, 11653, rows[0].ItemID)
	assert.Equal(t, 0, rows[0].Tier)
	assert.Equal(t, int64(1000), rows[0].TotalTrades)
	assert.Equal(t, time.Unix(1767276000, 0), rows[0].LastSoldTime)

	assert.Equal(t, 1, rows[1].Tier)
	assert.Equal(t, domain.CategoryCostume, rows[2].Category)
}

func TestFetch_SingleIDAndTierParams(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		w.Write([]byte(`[[{"name":"Ogre Ring","id":11653,"sid":2,"lastSoldPrice":500,"lastSoldTime":1767276000}]]`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "na", "en", nil, WithClock(fixedClock))

	tier := 2
	rows, err := client.Fetch(context.Background(), "sub", Selector{IDs: []int{11653}, Tier: &tier})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, "11653", gotQuery["id"])
	assert.Equal(t, "2", gotQuery["sid"])
	assert.NotContains(t, gotQuery, "ids")

	// No catalog configured: category falls back to unknown.
	assert.Equal(t, domain.CategoryUnknown, rows[0].Category)
}
