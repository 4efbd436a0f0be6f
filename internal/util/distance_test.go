package util

import "testing"

func TestGetDistanceFunc_RejectsUnknownMetric(t *testing.T) {
	if _, err := GetDistanceFunc(DistanceMetric(99)); err == nil {
		t.Fatal("expected an unsupported metric to error")
	}
}

func TestCosineDistance_IdenticalVectorsAreZero(t *testing.T) {
	fn, err := GetDistanceFunc(CosineDistance)
	if err != nil {
		t.Fatalf("GetDistanceFunc: unexpected error: %v", err)
	}
	v := []float32{1, 2, 3}
	if d := fn(v, v); d > 1e-6 {
		t.Errorf("cosine distance between identical vectors = %v, want ~0", d)
	}
}

func TestCosineDistance_ZeroVectorReturnsMaxDistance(t *testing.T) {
	fn, _ := GetDistanceFunc(CosineDistance)
	if d := fn([]float32{0, 0, 0}, []float32{1, 2, 3}); d != 1.0 {
		t.Errorf("cosine distance with a zero vector = %v, want 1.0", d)
	}
}

func TestL2Distance_MatchesKnownValue(t *testing.T) {
	fn, _ := GetDistanceFunc(L2Distance)
	if d := fn([]float32{0, 0}, []float32{3, 4}); d != 5 {
		t.Errorf("L2 distance = %v, want 5", d)
	}
}

func TestInnerProduct_IsNegatedDotProduct(t *testing.T) {
	fn, _ := GetDistanceFunc(InnerProduct)
	if d := fn([]float32{1, 2}, []float32{3, 4}); d != -11 {
		t.Errorf("inner product distance = %v, want -11", d)
	}
}

func TestCheckDimensions_RejectsMismatchedLengths(t *testing.T) {
	if err := CheckDimensions([]float32{1, 2}, []float32{1, 2, 3}, 0); err == nil {
		t.Fatal("expected mismatched vector lengths to error")
	}
}

func TestCheckDimensions_RejectsWrongConfiguredDimension(t *testing.T) {
	if err := CheckDimensions([]float32{1, 2}, []float32{1, 2}, 3); err == nil {
		t.Fatal("expected a vector shorter than the configured dimension to error")
	}
}

func TestCheckDimensions_AcceptsMatchingVectors(t *testing.T) {
	if err := CheckDimensions([]float32{1, 2, 3}, []float32{4, 5, 6}, 3); err != nil {
		t.Errorf("CheckDimensions: unexpected error: %v", err)
	}
}

func TestDistanceMetric_String(t *testing.T) {
	cases := map[DistanceMetric]string{
		L2Distance:         "l2",
		InnerProduct:       "inner_product",
		CosineDistance:     "cosine",
		DistanceMetric(99): "unknown",
	}
	for metric, want := range cases {
		if got := metric.String(); got != want {
			t.Errorf("DistanceMetric(%d).String() = %q, want %q", metric, got, want)
		}
	}
}
