package composite

import "testing"

func TestAddressQuery_Filters(t *testing.T) {
	city := "Seattle"
	empty := ""
	limit := 10
	geo := false

	q := AddressQuery{
		City:      &city,
		State:     &empty,
		Limit:     &limit,
		AsGeoJSON: &geo,
	}

	filters := q.Filters()
	if filters["city"] != "Seattle" {
		t.Errorf("city = %q, want Seattle", filters["city"])
	}
	if filters["limit"] != "10" {
		t.Errorf("limit = %q, want 10", filters["limit"])
	}
	if filters["as_geojson"] != "false" {
		t.Errorf("as_geojson = %q, want literal false", filters["as_geojson"])
	}
	if _, ok := filters["state"]; ok {
		t.Error("empty string filter should be dropped")
	}
	if _, ok := filters["offset"]; ok {
		t.Error("unset filter should be dropped")
	}
}

func TestAddressQuery_EmptyFilters(t *testing.T) {
	if got := (AddressQuery{}).Filters(); len(got) != 0 {
		t.Errorf("Filters() = %v, want empty", got)
	}
}
