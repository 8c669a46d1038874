package pricing

import "testing"

func TestComputeBasics(t *testing.T) {
	items := []Item{{Qty: 2, UnitPrice: 1_000}, {Qty: 1, UnitPrice: 500}}
	s := Compute(items, 200, 900, false)
	if s.Subtotal != 2_500 {
		t.Fatalf("expected subtotal 2500, got %d", s.Subtotal)
	}
	if s.Total != 2_500-200+900 {
		t.Fatalf("unexpected total %d", s.Total)
	}
}

func TestComputeClampsDiscount(t *testing.T) {
	s := Compute([]Item{{Qty: 1, UnitPrice: 3_000}}, 5_000, 0, false)
	if s.Discount != 3_000 {
		t.Fatalf("expected discount clamped to 3000, got %d", s.Discount)
	}
	if s.Total != 0 {
		t.Fatalf("expected total 0, got %d", s.Total)
	}
}

func TestComputeFreeShippingWaivesFee(t *testing.T) {
	s := Compute([]Item{{Qty: 1, UnitPrice: 1_000}}, 0, 900, true)
	if s.Shipping != 0 {
		t.Fatalf("expected shipping waived, got %d", s.Shipping)
	}
	if s.Total != 1_000 {
		t.Fatalf("expected total 1000, got %d", s.Total)
	}
}

func TestComputeIgnoresNonPositiveQty(t *testing.T) {
	s := Compute([]Item{{Qty: 0, UnitPrice: 1_000}, {Qty: -2, UnitPrice: 500}}, 0, 0, false)
	if s.Subtotal != 0 {
		t.Fatalf("expected empty subtotal, got %d", s.Subtotal)
	}
}
