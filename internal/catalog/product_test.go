package catalog

import "testing"

func TestMatchVariant(t *testing.T) {
	price := int64(1_500)
	p := Product{
		Price: 1_000,
		Variants: []Variant{
			{ID: "v1", Attrs: map[string]string{"Size": "M", "Color": "Red"}},
			{ID: "v2", Attrs: map[string]string{"Size": "L", "Color": "Red"}, Price: &price},
		},
	}

	if v := p.MatchVariant(map[string]string{"Color": "Red", "Size": "M"}); v == nil || v.ID != "v1" {
		t.Fatalf("expected v1, got %+v", v)
	}
	if v := p.MatchVariant(map[string]string{"Size": "M"}); v != nil {
		t.Fatalf("partial selection must not match, got %+v", v)
	}
	if v := p.MatchVariant(nil); v != nil {
		t.Fatalf("empty selection must not match, got %+v", v)
	}
}

func TestUnitPriceVariantOverride(t *testing.T) {
	price := int64(1_500)
	p := Product{
		Price: 1_000,
		Variants: []Variant{
			{ID: "v1", Attrs: map[string]string{"Size": "M"}},
			{ID: "v2", Attrs: map[string]string{"Size": "L"}, Price: &price},
		},
	}

	if got := p.UnitPrice(map[string]string{"Size": "L"}); got != 1_500 {
		t.Fatalf("expected override 1500, got %d", got)
	}
	if got := p.UnitPrice(map[string]string{"Size": "M"}); got != 1_000 {
		t.Fatalf("expected base price 1000, got %d", got)
	}
	if got := p.UnitPrice(nil); got != 1_000 {
		t.Fatalf("expected base price 1000, got %d", got)
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Wool Scarf":          "wool-scarf",
		"  Édition Spéciale ": "édition-spéciale",
		"50% Off!! Bundle":    "50-off-bundle",
		"---":                 "",
	}
	for in, want := range cases {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}
