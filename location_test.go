package glshim

import "testing"

func TestLegacyLocationRoundTrip(t *testing.T) {
	cases := []struct {
		stage ShaderType
		slot  int
	}{
		{VertexShader, 0},
		{VertexShader, 63},
		{FragmentShader, 0},
		{FragmentShader, 12},
	}
	for _, tc := range cases {
		loc := LegacyLocation(tc.stage, tc.slot)
		addr, ok := decodeLocation(loc)
		if !ok {
			t.Fatalf("decodeLocation(%#x) failed", uint32(loc))
		}
		la, isLegacy := addr.(legacyAddr)
		if !isLegacy {
			t.Fatalf("decoded %#x as %T, want legacyAddr", uint32(loc), addr)
		}
		if la.stage != stageIndex(tc.stage) || la.slot != tc.slot {
			t.Errorf("decoded = %+v, want stage %d slot %d", la, stageIndex(tc.stage), tc.slot)
		}
	}
}

func TestPackedLocationRoundTrip(t *testing.T) {
	cases := []struct {
		stage   ShaderType
		binding int
		offset  int
	}{
		{VertexShader, 0, 0},
		{VertexShader, 1, 64},
		{FragmentShader, 0, 4080},
		{FragmentShader, 1, 0xFFFF},
	}
	for _, tc := range cases {
		loc := PackedLocation(tc.stage, tc.binding, tc.offset)
		addr, ok := decodeLocation(loc)
		if !ok {
			t.Fatalf("decodeLocation(%#x) failed", uint32(loc))
		}
		pa, isPacked := addr.(packedAddr)
		if !isPacked {
			t.Fatalf("decoded %#x as %T, want packedAddr", uint32(loc), addr)
		}
		if pa.stage != stageIndex(tc.stage) || pa.binding != tc.binding || pa.offset != tc.offset {
			t.Errorf("decoded = %+v, want stage %d binding %d offset %d",
				pa, stageIndex(tc.stage), tc.binding, tc.offset)
		}
	}
}

func TestDecodeRejectsNoneAndNegative(t *testing.T) {
	if _, ok := decodeLocation(LocationNone); ok {
		t.Error("decoded LocationNone")
	}
	// Negative garbage other than the sentinel decodes to a stage index
	// past the last programmable stage and is rejected there.
	if _, ok := decodeLocation(Location(-17)); ok {
		t.Error("decoded a negative location")
	}
}

func TestPackedLocationsReadNegativeButDecode(t *testing.T) {
	loc := PackedLocation(VertexShader, 1, 16)
	if loc >= 0 {
		t.Fatalf("packed location %#x is non-negative; mode bit lost", uint32(loc))
	}
	addr, ok := decodeLocation(loc)
	if !ok {
		t.Fatalf("decodeLocation(%#x) failed", uint32(loc))
	}
	pa, isPacked := addr.(packedAddr)
	if !isPacked {
		t.Fatalf("decoded %#x as %T, want packedAddr", uint32(loc), addr)
	}
	if pa.stage != 0 || pa.binding != 1 || pa.offset != 16 {
		t.Errorf("decoded = %+v, want stage 0 binding 1 offset 16", pa)
	}
}

func TestLegacyAndPackedEncodingsAreDisjoint(t *testing.T) {
	legacy := LegacyLocation(FragmentShader, 5)
	packed := PackedLocation(FragmentShader, 0, 5)
	if legacy == packed {
		t.Fatal("legacy and packed encodings collide")
	}
	if _, ok := decodeMust(t, legacy).(legacyAddr); !ok {
		t.Error("legacy encoding decoded as packed")
	}
	if _, ok := decodeMust(t, packed).(packedAddr); !ok {
		t.Error("packed encoding decoded as legacy")
	}
}

func decodeMust(t *testing.T, loc Location) uniformAddr {
	t.Helper()
	addr, ok := decodeLocation(loc)
	if !ok {
		t.Fatalf("decodeLocation(%#x) failed", uint32(loc))
	}
	return addr
}
