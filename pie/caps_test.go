package pie

import "testing"

func TestParseCaps(t *testing.T) {
	c, err := ParseCaps("11010111")
	if err != nil {
		t.Fatal(err)
	}
	want := map[Directive]bool{
		DirNormalMap:   true,
		DirSpecularMap: true,
		DirEvent:       true,
		DirMaterials:   false,
		DirShaders:     true,
		DirNormals:     false,
		DirConnectors:  true,
		DirAnimObject:  true,
	}
	for d, v := range want {
		if c.Test(d) != v {
			t.Errorf("%v: got %v, want %v", d, c.Test(d), v)
		}
	}
	if c.String() != "11010111" {
		t.Error("String() should give back the parsed bits:", c.String())
	}
	if c.Size() != 8 {
		t.Error("Size() != 8")
	}

	short, err := ParseCaps("1")
	if err != nil || short.Directives()[0] != DirNormalMap || len(short.Directives()) != 1 {
		t.Error("short bit strings are zero-extended on the left", short, err)
	}

	for _, bad := range []string{"111111111", "1102"} {
		if _, err := ParseCaps(bad); err == nil {
			t.Errorf("ParseCaps(%q) should fail", bad)
		}
	}
}

func TestCapsOps(t *testing.T) {
	var c Caps
	c.Set(DirConnectors)
	c.Set(DirEvent)
	c.Set(DirEvent, false)
	if !c.Test(DirConnectors) || c.Test(DirEvent) {
		t.Error("Set()", c)
	}
	c.Flip(DirShaders).Flip(DirConnectors)
	if c.Test(DirConnectors) || !c.Test(DirShaders) {
		t.Error("Flip()", c)
	}
	c.ResetDirective(DirShaders)
	if c != 0 {
		t.Error("ResetDirective()", c)
	}
	c = Pie3Caps
	if c.Reset(); c != 0 {
		t.Error("Reset()", c)
	}
	if !Pie2Caps.SubsetOf(Pie3Caps) || Pie3Caps.SubsetOf(Pie2Caps) {
		t.Error("PIE 2 caps should be a strict subset of PIE 3 caps")
	}
	if Directive(42).Name() != "UNKNOWN" || DirAnimObject.Name() != "ANIMOBJECT" {
		t.Error("Name()")
	}
}

func TestConvertCaps(t *testing.T) {
	c := MustParseCaps("01000011")
	for _, v := range []int{2, 3} {
		got, err := ConvertCaps(c, v)
		if err != nil {
			t.Fatal(err)
		}
		if got != c {
			t.Errorf("PIE %d: subset caps changed %v -> %v", v, c, got)
		}
	}

	got, _ := ConvertCaps(Pie3Caps, 2)
	if got != Pie2Caps {
		t.Error("PIE 3 caps should reduce to the PIE 2 maximum:", got)
	}
	for _, d := range []Directive{DirEvent, DirMaterials, DirShaders} {
		if got.Test(d) {
			t.Errorf("%v should be cleared for PIE 2", d)
		}
	}
	if _, err := ConvertCaps(c, 4); err == nil {
		t.Error("unknown version should fail")
	}
}
