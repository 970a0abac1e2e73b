package pie

import (
	"bufio"
	"bytes"
	"io"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

const simplePie2 = "PIE 2\nTYPE 0\nTEXTURE 0 page-0.png\nLEVELS 1\nLEVEL 0\nPOINTS 3\n0 0 0\n10 0 0\n0 10 0\nPOLYGONS 1\n0 3 0 1 2\n"

const fullPie3 = `PIE 3
TYPE 10200
TEXTURE 0 page-7-barbarians.png 0 0
NORMALMAP 0 page-7_nm.png
SPECULARMAP 0 page-7_sm.png
EVENT 2 die.ani
EVENT 1 fire.ani
LEVELS 2
LEVEL 1
MATERIALS 0.5 0.5 0.5 1 1 1 0.25 0.25 0.25 14
SHADERS 2 tcmask.vert tcmask.frag
POINTS 4
	0 0 0
	10.5 0 0
	0 10 0
	0 0 -2.25
NORMALS 4
	0 0 1
	0 0 1
	0 0 1
	1 0 0
POLYGONS 2
	200 3 0 1 2 0 0 0.5 0 0 0.5
	10200 3 0 2 3 2 1 0.125 0 0 0 0.125 0 0 0.125 0.125 0 0.25 0 0.125 0.125
CONNECTORS 1
	1 2 3.5
ANIMOBJECT 100 0 2
	0 0 0 0 0 0 0 1 1 1
	1 0 10 0 0 90 0 1 1 0.5
LEVEL 2
POINTS 3
	0 0 0
	1 0 0
	0 1 0
POLYGONS 1
	0 3 0 1 2
`

func mustParse(t *testing.T, src string) Document {
	t.Helper()
	doc, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestReadSimplePie2(t *testing.T) {
	doc := mustParse(t, simplePie2)
	m, ok := doc.(*Pie2Model)
	if !ok {
		t.Fatalf("expected *Pie2Model, got %T", doc)
	}
	if m.Version() != 2 || m.NumLevels() != 1 || !m.IsValid() {
		t.Fatal("invalid model", m.Version(), m.NumLevels())
	}
	l := m.Level(0)
	if l.NumPoints() != 3 || l.NumPolygons() != 1 || l.NumNormals() != 0 || l.NumConnectors() != 0 {
		t.Error("level counts", l.NumPoints(), l.NumPolygons())
	}
	p := m.Levels[0].Polygons[0]
	if len(p.Indices) != 3 || p.IsTextured() || p.UVs != nil {
		t.Error("polygon", p)
	}
	if m.Levels[0].Points[1] != (Pie2Vertex{X: 10}) {
		t.Error("point", m.Levels[0].Points[1])
	}
	if m.Caps() != 0 {
		t.Error("no optional directive was present", m.Caps())
	}

	var buf bytes.Buffer
	if err := m.Write(&buf, nil); err != nil {
		t.Fatal(err)
	}
	want := "PIE 2\nTYPE 0\nTEXTURE 0 page-0.png 256 256\nLEVELS 1\nLEVEL 1\nPOINTS 3\n\t0 0 0\n\t10 0 0\n\t0 10 0\nPOLYGONS 1\n\t0 3 0 1 2\n"
	if buf.String() != want {
		t.Errorf("Write() =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestRoundTripPie3(t *testing.T) {
	m := mustParse(t, fullPie3).(*Pie3Model)
	if m.Caps() != Pie3Caps {
		t.Error("every optional directive is present:", m.Caps())
	}
	if m.TCMaskTexture() != "page-7-barbarians_tcmask.png" {
		t.Error("TCMaskTexture()", m.TCMaskTexture())
	}
	if len(m.Events) != 2 || m.Events[1] != "fire.ani" {
		t.Error("events", m.Events)
	}

	l := &m.Levels[0]
	if l.VertexShader != "tcmask.vert" || l.FragmentShader != "tcmask.frag" {
		t.Error("shaders", l.VertexShader, l.FragmentShader)
	}
	if l.Material.Shininess != 14 || l.Material.Specular[0] != 0.25 {
		t.Error("material", l.Material)
	}
	if l.Points[3].Z != -2.25 || l.Connectors[0].Pos.Z != 3.5 {
		t.Error("float values", l.Points[3], l.Connectors[0])
	}
	tc := l.Polygons[1]
	if !tc.HasTCMask() || tc.Frames() != 2 || tc.Anim.Rate != 1 || tc.UV(1, 1) != (Pie3UV{U: 0.25}) {
		t.Error("tcmask polygon", tc)
	}
	if !l.Anim.IsValid() || l.Anim.NumFrames() != 2 || l.Anim.Frames[1].Rot[1] != 90 || l.Anim.Frames[1].Scale[2] != 0.5 {
		t.Error("anim", l.Anim)
	}
	if m.Levels[1].Material != DefaultMaterial() {
		t.Error("level without MATERIALS should have the default material")
	}

	var buf bytes.Buffer
	if err := m.Write(&buf, nil); err != nil {
		t.Fatal(err)
	}
	var m2 Pie3Model
	if err := m2.Read(&buf); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(m, &m2) {
		t.Errorf("round trip mismatch:\n%#v\n%#v", m, &m2)
	}
}

func TestWriteCaps(t *testing.T) {
	m := mustParse(t, fullPie3).(*Pie3Model)

	caps := MustParseCaps("00000000")
	var buf bytes.Buffer
	if err := m.Write(&buf, &caps); err != nil {
		t.Fatal(err)
	}
	for _, d := range Directives() {
		if strings.Contains(buf.String(), d.Name()) {
			t.Errorf("%s written without capability", d.Name())
		}
	}
	reduced := mustParse(t, buf.String())
	if reduced.Caps() != 0 || reduced.NumLevels() != 2 {
		t.Error("reduced model", reduced.Caps())
	}

	p2 := mustParse(t, simplePie2)
	if err := p2.Write(io.Discard, &Pie3Caps); !errors.Is(err, ErrCapsMismatch) {
		t.Error("PIE 3 caps on a PIE 2 model should fail:", err)
	}
	if err := p2.(*Pie2Model).SetCaps(Pie3Caps); !errors.Is(err, ErrCapsMismatch) {
		t.Error("SetCaps() outside the maximum should fail:", err)
	}
}

func TestReadErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		src  string
		err  error
	}{
		{"no type", "PIE 2\nTEXTURE 0 a.png\nLEVELS 0\n", ErrMissingDirective},
		{"bad type", "PIE 2\nTYPE zz\nTEXTURE 0 a.png\nLEVELS 0\n", ErrSyntax},
		{"missing level", "PIE 2\nTYPE 0\nTEXTURE 0 a.png\nLEVELS 1\n", ErrMissingDirective},
		{"short points", "PIE 2\nTYPE 0\nTEXTURE 0 a.png\nLEVELS 1\nLEVEL 1\nPOINTS 3\n0 0 0\n1 0 0\nPOLYGONS 0\n", ErrSyntax},
		{"index out of range", strings.Replace(simplePie2, "0 3 0 1 2", "0 3 0 1 3", 1), ErrArity},
		{"quad in PIE 3", "PIE 3\nTYPE 0\nTEXTURE 0 a.png\nLEVELS 1\nLEVEL 1\nPOINTS 4\n0 0 0\n1 0 0\n1 1 0\n0 1 0\nPOLYGONS 1\n0 4 0 1 2 3\n", ErrArity},
		{"17-gon in PIE 2", strings.Replace(simplePie2, "0 3 0 1 2", "0 17 0 1 2 0 1 2 0 1 2 0 1 2 0 1 2 0 1", 1), ErrArity},
		{"missing uvs", strings.Replace(simplePie2, "0 3 0 1 2", "200 3 0 1 2 0 0", 1), ErrSyntax},
		{"trailing values", strings.Replace(simplePie2, "0 3 0 1 2", "0 3 0 1 2 7", 1), ErrSyntax},
		{"materials in PIE 2", strings.Replace(simplePie2, "LEVEL 0\n", "LEVEL 0\nMATERIALS 1 1 1 1 1 1 1 1 1 1\n", 1), ErrMissingDirective},
		{"normals count", strings.Replace(simplePie2, "POLYGONS", "NORMALS 2\n0 0 1\n0 0 1\nPOLYGONS", 1), ErrArity},
		{"trailing directive", simplePie2 + "LEVEL 2\n", ErrSyntax},
		{"anim frame count", strings.Replace(fullPie3, "ANIMOBJECT 100 0 2", "ANIMOBJECT 100 0 3", 1), ErrSyntax},
		{"anim extra frames", strings.Replace(fullPie3, "ANIMOBJECT 100 0 2", "ANIMOBJECT 100 0 1", 1), ErrSyntax},
		{"not pie", "PIX 2\n", ErrMissingDirective},
		{"unknown version", "PIE 9\n", ErrVersionMismatch},
	} {
		_, err := Parse(strings.NewReader(tc.src))
		if !errors.Is(err, tc.err) {
			t.Errorf("%s: got %v, want %v", tc.name, err, tc.err)
		}
	}

	var m Pie2Model
	if err := m.Read(strings.NewReader(fullPie3)); !errors.Is(err, ErrVersionMismatch) {
		t.Error("PIE 3 input into a PIE 2 model:", err)
	}
}

func TestWriteInvalid(t *testing.T) {
	m := mustParse(t, simplePie2).(*Pie2Model)
	m.Levels[0].Polygons[0].Indices[2] = 5
	if err := m.Write(io.Discard, nil); !errors.Is(err, ErrArity) {
		t.Error("out of range index should not be written:", err)
	}
	m.Texture = ""
	if err := m.Write(io.Discard, nil); !errors.Is(err, ErrMissingDirective) {
		t.Error("model without texture should not be written:", err)
	}
}

func TestPeekVersion(t *testing.T) {
	br := bufio.NewReader(strings.NewReader(fullPie3))
	v, err := PeekVersion(br)
	if err != nil || v != 3 {
		t.Fatal(v, err)
	}
	rest, _ := io.ReadAll(br)
	if string(rest) != fullPie3 {
		t.Error("PeekVersion() consumed input")
	}

	if _, err := PeekVersion(bufio.NewReader(strings.NewReader(""))); err == nil {
		t.Error("empty input should fail")
	}
}

func TestParseBOM(t *testing.T) {
	doc := mustParse(t, "\xef\xbb\xbf"+strings.ReplaceAll(simplePie2, "\n", "\r\n"))
	if doc.Version() != 2 || doc.NumLevels() != 1 {
		t.Error("BOM/CRLF input", doc.Version(), doc.NumLevels())
	}
}

func TestNewDocument(t *testing.T) {
	for _, v := range []int{2, 3} {
		doc, err := NewDocument(v)
		if err != nil || doc.Version() != v || doc.IsValid() {
			t.Error(v, doc, err)
		}
	}
	if _, err := NewDocument(1); !errors.Is(err, ErrVersionMismatch) {
		t.Error(err)
	}
}

func TestSaveLoad(t *testing.T) {
	doc, err := Parse(strings.NewReader(fullPie3))
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "model.pie")
	if err := Save(doc, path, nil); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(loaded, doc) {
		t.Errorf("loaded model differs:\n%#v\n%#v", loaded, doc)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.pie")); err == nil {
		t.Error("missing file should fail")
	}
}

const sharedMaterialPie3 = `PIE 3
TYPE 0
TEXTURE 0 page-0.png 0 0
MATERIALS 0.5 0.5 0.5 1 1 1 0 0 0 8
EVENT 1 fire.ani
SHADERS 2 tex.vert tex.frag
LEVELS 2
LEVEL 1
POINTS 3
	0 0 0
	1 0 0
	0 1 0
POLYGONS 1
	0 3 0 1 2
LEVEL 2
MATERIALS 1 0 0 1 0 0 1 0 0 20
SHADERS own.vert own.frag
POINTS 3
	0 0 0
	2 0 0
	0 2 0
POLYGONS 1
	0 3 0 1 2
`

func TestModelLevelMaterials(t *testing.T) {
	m := mustParse(t, sharedMaterialPie3).(*Pie3Model)
	shared := Material{
		Ambient:   [3]float32{0.5, 0.5, 0.5},
		Diffuse:   [3]float32{1, 1, 1},
		Shininess: 8,
	}
	if l := m.Levels[0]; l.Material != shared || l.VertexShader != "tex.vert" || l.FragmentShader != "tex.frag" {
		t.Error("level without MATERIALS/SHADERS should inherit the model ones", l.Material, l.VertexShader)
	}
	if l := m.Levels[1]; l.Material.Shininess != 20 || l.Material.Ambient[0] != 1 || l.VertexShader != "own.vert" {
		t.Error("level MATERIALS/SHADERS should win", l.Material, l.VertexShader)
	}
	for _, d := range []Directive{DirMaterials, DirShaders, DirEvent} {
		if !m.Caps().Test(d) {
			t.Errorf("%v should be set", d)
		}
	}

	var buf bytes.Buffer
	if err := m.Write(&buf, nil); err != nil {
		t.Fatal(err)
	}
	var m2 Pie3Model
	if err := m2.Read(&buf); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(m, &m2) {
		t.Errorf("round trip mismatch:\n%#v\n%#v", m, &m2)
	}

	pie2 := strings.Replace(strings.Replace(sharedMaterialPie3, "PIE 3", "PIE 2", 1), "EVENT 1 fire.ani\n", "", 1)
	if _, err := Parse(strings.NewReader(pie2)); !errors.Is(err, ErrMissingDirective) {
		t.Error("PIE 2 has no MATERIALS:", err)
	}
}

func TestEmptyLevel(t *testing.T) {
	m := mustParse(t, "PIE 2\nTYPE 0\nTEXTURE 0 page-0.png\nLEVELS 1\nLEVEL 1\nPOINTS 0\nPOLYGONS 0\n").(*Pie2Model)
	if !m.IsValid() {
		t.Error("empty level should be valid")
	}
	var buf bytes.Buffer
	if err := m.Write(&buf, nil); err != nil {
		t.Fatal(err)
	}
	var m2 Pie2Model
	if err := m2.Read(&buf); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(m, &m2) {
		t.Errorf("round trip mismatch:\n%#v\n%#v", m, &m2)
	}

	m.Levels[0].Polygons = []Pie2Polygon{{Indices: []uint16{0, 1, 2}}}
	if err := m.Write(io.Discard, nil); !errors.Is(err, ErrArity) {
		t.Error("polygon without points should not be written:", err)
	}
}

func TestHugeCounts(t *testing.T) {
	head := "PIE 2\nTYPE 0\nTEXTURE 0 page-0.png\nLEVELS 1\nLEVEL 1\n"
	if _, err := Parse(strings.NewReader(head + "POINTS 2000000000\n0 0 0\n")); !errors.Is(err, ErrArity) {
		t.Error("too many points:", err)
	}
	for _, src := range []string{
		"PIE 2\nTYPE 0\nTEXTURE 0 page-0.png\nLEVELS 2000000000\nLEVEL 1\nPOINTS 0\nPOLYGONS 0\n",
		head + "POINTS 65536\n0 0 0\n",
		head + "POINTS 1\n0 0 0\nPOLYGONS 2000000000\n0 3 0 0 0\n",
		head + "POINTS 1\n0 0 0\nPOLYGONS 0\nCONNECTORS 2000000000\n0 0 0\n",
		head + "POINTS 1\n0 0 0\nPOLYGONS 0\nANIMOBJECT 0 0 2000000000\n0 0 0 0 0 0 0 1 1 1\n",
	} {
		if _, err := Parse(strings.NewReader(src)); err == nil {
			t.Errorf("truncated input should fail: %q", src)
		}
	}
}

func TestParseLeadingBlankLines(t *testing.T) {
	src := "\n  \r\n\t\n" + simplePie2
	doc, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	if doc.Version() != 2 {
		t.Error("version", doc.Version())
	}

	// Blank lines longer than the first peek.
	br := bufio.NewReaderSize(strings.NewReader(strings.Repeat(" \n", 40)+fullPie3), 4096)
	if v, err := PeekVersion(br); err != nil || v != 3 {
		t.Error("PeekVersion()", v, err)
	}
	if _, err := PeekVersion(bufio.NewReader(strings.NewReader("\n\n"))); err == nil {
		t.Error("blank input should fail")
	}
}

func TestDuplicateEvent(t *testing.T) {
	src := strings.Replace(sharedMaterialPie3, "EVENT 1 fire.ani\n", "EVENT 1 fire.ani\nEVENT 1 smoke.ani\n", 1)
	if _, err := Parse(strings.NewReader(src)); !errors.Is(err, ErrSyntax) {
		t.Error("duplicate event id should fail:", err)
	}
}
