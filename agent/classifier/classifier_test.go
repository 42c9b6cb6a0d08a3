package classifier

import (
	"testing"

	contractx "github.com/grubgather/grubgather/agent/contract"
)

func TestNormalizeCoercesUnknownLabels(t *testing.T) {
	cases := []struct {
		name string
		in   classifierLLMOutput
		want contractx.IntentType
	}{
		{"order", classifierLLMOutput{Intent: "ORDER"}, contractx.IntentOrder},
		{"lowercase", classifierLLMOutput{Intent: "query"}, contractx.IntentQuery},
		{"padded", classifierLLMOutput{Intent: " PLACE_ORDER "}, contractx.IntentPlaceOrder},
		{"invented label", classifierLLMOutput{Intent: "RESTAURANT"}, contractx.IntentUnknown},
		{"empty", classifierLLMOutput{}, contractx.IntentUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := normalize(tc.in)
			if got.Type != tc.want {
				t.Errorf("normalize(%q).Type = %q, want %q", tc.in.Intent, got.Type, tc.want)
			}
		})
	}
}

func TestNormalizeDropsItemsOutsideOrder(t *testing.T) {
	got := normalize(classifierLLMOutput{
		Intent: "QUERY",
		Items:  []string{"2 Tacos"},
	})
	if len(got.Items) != 0 {
		t.Errorf("items on QUERY = %v, want empty", got.Items)
	}
}

func TestNormalizeTrimsAndDropsEmptyItems(t *testing.T) {
	got := normalize(classifierLLMOutput{
		Intent: "ORDER",
		Items:  []string{" 2 Tacos ", "", "  ", "1 Coke"},
	})

	want := []string{"2 Tacos", "1 Coke"}
	if len(got.Items) != len(want) {
		t.Fatalf("items = %v, want %v", got.Items, want)
	}
	for i := range want {
		if got.Items[i] != want[i] {
			t.Errorf("items[%d] = %q, want %q", i, got.Items[i], want[i])
		}
	}
}

func TestNormalizeKeepsRestaurantOnAnyIntent(t *testing.T) {
	got := normalize(classifierLLMOutput{
		Intent:     "UNKNOWN",
		Restaurant: " Papa John's ",
		Location:   "Brooklyn",
	})
	if got.Restaurant != "Papa John's" {
		t.Errorf("restaurant = %q, want %q", got.Restaurant, "Papa John's")
	}
	if got.Location != "Brooklyn" {
		t.Errorf("location = %q, want %q", got.Location, "Brooklyn")
	}
}
