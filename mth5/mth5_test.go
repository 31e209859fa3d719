package mth5

import (
	"errors"
	"math/cmplx"
	"os"
	"path/filepath"
	"testing"

	"github.com/robert-malhotra/go-mth5/filter"
	"github.com/robert-malhotra/go-mth5/hdf5"
)

func tempFilePath(t *testing.T, name string) string {
	t.Helper()
	tmpDir, err := os.MkdirTemp("", "mth5-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tmpDir) })
	return filepath.Join(tmpDir, name)
}

func TestCreateAndReopen(t *testing.T) {
	path := tempFilePath(t, "empty.h5")

	f, err := Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	f2, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f2.Close()

	if f2.Version() != FileVersion {
		t.Errorf("Version = %q, want %q", f2.Version(), FileVersion)
	}

	dict, err := f2.FiltersGroup().FilterDict()
	if err != nil {
		t.Fatalf("FilterDict failed: %v", err)
	}
	if len(dict) != 0 {
		t.Errorf("Expected empty filter dict, got %v", dict)
	}
}

func TestOpenRejectsNonMTH5(t *testing.T) {
	path := tempFilePath(t, "plain.h5")

	h, err := hdf5.Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := h.Root().CreateGroup("data"); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, err := Open(path); !errors.Is(err, ErrNotMTH5) {
		t.Errorf("Open = %v, want ErrNotMTH5", err)
	}
}

func TestOpenRejectsIncompatibleVersion(t *testing.T) {
	path := tempFilePath(t, "future.h5")

	f, err := Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	f.Close()

	h, err := hdf5.OpenReadWrite(path)
	if err != nil {
		t.Fatalf("OpenReadWrite failed: %v", err)
	}
	if err := h.Root().SetAttr("file.version", "2.0.0"); err != nil {
		t.Fatalf("SetAttr failed: %v", err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, err := Open(path); !errors.Is(err, ErrIncompatibleVersion) {
		t.Errorf("Open = %v, want ErrIncompatibleVersion", err)
	}
}

func TestPoleZeroRoundTrip(t *testing.T) {
	path := tempFilePath(t, "zpk.h5")

	in := &filter.PoleZeroFilter{
		Common: filter.Common{
			Name:     "ftest",
			UnitsIn:  "counts",
			UnitsOut: "mv",
			Gain:     2,
		},
		NormalizationFactor: 1.5,
		Poles:               []complex128{complex(1, 2), complex(0, 0), complex(1, -2)},
		Zeros:               []complex128{complex(10, -1), complex(10, 1)},
	}

	f, err := Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := f.FiltersGroup().AddFilter(in); err != nil {
		t.Fatalf("AddFilter failed: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	f2, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f2.Close()

	got, err := f2.FiltersGroup().GetFilter("ftest")
	if err != nil {
		t.Fatalf("GetFilter failed: %v", err)
	}

	pz, ok := got.(*filter.PoleZeroFilter)
	if !ok {
		t.Fatalf("GetFilter returned %T, want *filter.PoleZeroFilter", got)
	}
	if pz.Name != "ftest" {
		t.Errorf("name = %q", pz.Name)
	}
	in2, out := pz.Units()
	if in2 != "counts" || out != "mv" {
		t.Errorf("units = %q -> %q, want counts -> mv", in2, out)
	}
	if pz.Gain != 2 || pz.NormalizationFactor != 1.5 {
		t.Errorf("gain = %v, normalization = %v", pz.Gain, pz.NormalizationFactor)
	}
	if len(pz.Poles) != 3 || len(pz.Zeros) != 2 {
		t.Fatalf("poles/zeros = %d/%d, want 3/2", len(pz.Poles), len(pz.Zeros))
	}
	for i, p := range in.Poles {
		if pz.Poles[i] != p {
			t.Errorf("pole %d = %v, want %v", i, pz.Poles[i], p)
		}
	}
	for i, z := range in.Zeros {
		if pz.Zeros[i] != z {
			t.Errorf("zero %d = %v, want %v", i, pz.Zeros[i], z)
		}
	}

	// The reconstituted filter must evaluate identically.
	freqs := []float64{0.01, 0.1, 1, 10, 100}
	want := in.ComplexResponse(freqs)
	have := pz.ComplexResponse(freqs)
	for i := range freqs {
		if cmplx.Abs(have[i]-want[i]) > 1e-9 {
			t.Errorf("response at %v Hz: %v, want %v", freqs[i], have[i], want[i])
		}
	}
}

func TestPoleZeroEmptyZeros(t *testing.T) {
	path := tempFilePath(t, "allpole.h5")

	in := &filter.PoleZeroFilter{
		Common:              filter.Common{Name: "allpole", Gain: 1},
		NormalizationFactor: 1,
		Poles:               []complex128{complex(-1, 0)},
	}

	f, err := Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := f.FiltersGroup().AddFilter(in); err != nil {
		t.Fatalf("AddFilter failed: %v", err)
	}
	f.Close()

	f2, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f2.Close()

	got, err := f2.FiltersGroup().GetFilter("allpole")
	if err != nil {
		t.Fatalf("GetFilter failed: %v", err)
	}
	pz := got.(*filter.PoleZeroFilter)
	if len(pz.Zeros) != 0 {
		t.Errorf("zeros = %v, want empty", pz.Zeros)
	}
	if len(pz.Poles) != 1 {
		t.Errorf("poles = %v, want one", pz.Poles)
	}
}

func TestAbsentDatasetsDecodeEmpty(t *testing.T) {
	path := tempFilePath(t, "bare.h5")

	// Filter child groups carrying only attributes, with the poles/zeros
	// and fap_table datasets never created.
	f, err := Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	fg := f.FiltersGroup()

	g, err := fg.ZPK.createFilterGroup("bare")
	if err != nil {
		t.Fatalf("createFilterGroup failed: %v", err)
	}
	if err := g.SetAttrs(commonAttrs(filter.KindPoleZero, filter.Common{Name: "bare", Gain: 1})); err != nil {
		t.Fatalf("SetAttrs failed: %v", err)
	}

	g, err = fg.FAP.createFilterGroup("barefap")
	if err != nil {
		t.Fatalf("createFilterGroup failed: %v", err)
	}
	if err := g.SetAttrs(commonAttrs(filter.KindFAP, filter.Common{Name: "barefap", Gain: 1})); err != nil {
		t.Fatalf("SetAttrs failed: %v", err)
	}
	f.Close()

	f2, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f2.Close()

	got, err := f2.FiltersGroup().GetFilter("bare")
	if err != nil {
		t.Fatalf("GetFilter(bare) failed: %v", err)
	}
	pz := got.(*filter.PoleZeroFilter)
	if len(pz.Poles) != 0 || len(pz.Zeros) != 0 {
		t.Errorf("poles = %v, zeros = %v, want both empty", pz.Poles, pz.Zeros)
	}

	got, err = f2.FiltersGroup().GetFilter("barefap")
	if err != nil {
		t.Fatalf("GetFilter(barefap) failed: %v", err)
	}
	ft := got.(*filter.FrequencyResponseTableFilter)
	if len(ft.Frequencies) != 0 || len(ft.Amplitudes) != 0 || len(ft.Phases) != 0 {
		t.Errorf("fap columns = %v/%v/%v, want all empty", ft.Frequencies, ft.Amplitudes, ft.Phases)
	}
}

func TestCoefficientRoundTrip(t *testing.T) {
	path := tempFilePath(t, "coef.h5")

	in := &filter.CoefficientFilter{
		Common: filter.Common{Name: "conversion", UnitsIn: "mv", UnitsOut: "v", Gain: 0.001},
		Extra:  map[string]interface{}{"comment": "unit change", "channel": int64(2)},
	}

	f, err := Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := f.FiltersGroup().AddFilter(in); err != nil {
		t.Fatalf("AddFilter failed: %v", err)
	}
	f.Close()

	f2, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f2.Close()

	got, err := f2.FiltersGroup().GetFilter("conversion")
	if err != nil {
		t.Fatalf("GetFilter failed: %v", err)
	}
	cf, ok := got.(*filter.CoefficientFilter)
	if !ok {
		t.Fatalf("GetFilter returned %T, want *filter.CoefficientFilter", got)
	}
	if cf.Gain != 0.001 || cf.UnitsIn != "mv" || cf.UnitsOut != "v" {
		t.Errorf("fields changed: %+v", cf)
	}
	if cf.Extra["comment"] != "unit change" {
		t.Errorf("Extra[comment] = %v", cf.Extra["comment"])
	}
	if cf.Extra["channel"] != int64(2) {
		t.Errorf("Extra[channel] = %v (%T)", cf.Extra["channel"], cf.Extra["channel"])
	}
}

func TestTimeDelayRoundTrip(t *testing.T) {
	path := tempFilePath(t, "delay.h5")

	in := &filter.TimeDelayFilter{
		Common: filter.Common{Name: "adc delay", Gain: 1, UnitsIn: "v", UnitsOut: "v"},
		Delay:  -0.25,
	}

	f, err := Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := f.FiltersGroup().AddFilter(in); err != nil {
		t.Fatalf("AddFilter failed: %v", err)
	}
	f.Close()

	f2, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f2.Close()

	got, err := f2.FiltersGroup().GetFilter("adc delay")
	if err != nil {
		t.Fatalf("GetFilter failed: %v", err)
	}
	td, ok := got.(*filter.TimeDelayFilter)
	if !ok {
		t.Fatalf("GetFilter returned %T, want *filter.TimeDelayFilter", got)
	}
	if td.Delay != -0.25 {
		t.Errorf("delay = %v, want -0.25", td.Delay)
	}
}

func TestFAPRoundTrip(t *testing.T) {
	path := tempFilePath(t, "fap.h5")

	in := &filter.FrequencyResponseTableFilter{
		Common:      filter.Common{Name: "coil response", UnitsIn: "nt", UnitsOut: "mv", Gain: 1},
		Frequencies: []float64{0.1, 1, 10, 100},
		Amplitudes:  []float64{0.25, 1, 4, 16},
		Phases:      []float64{0.2, 0.1, -0.1, -0.2},
	}

	f, err := Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := f.FiltersGroup().AddFilter(in); err != nil {
		t.Fatalf("AddFilter failed: %v", err)
	}
	f.Close()

	f2, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f2.Close()

	got, err := f2.FiltersGroup().GetFilter("coil response")
	if err != nil {
		t.Fatalf("GetFilter failed: %v", err)
	}
	ft, ok := got.(*filter.FrequencyResponseTableFilter)
	if !ok {
		t.Fatalf("GetFilter returned %T, want *filter.FrequencyResponseTableFilter", got)
	}
	if ft.Len() != 4 {
		t.Fatalf("table length = %d, want 4", ft.Len())
	}
	for i := range in.Frequencies {
		if ft.Frequencies[i] != in.Frequencies[i] ||
			ft.Amplitudes[i] != in.Amplitudes[i] ||
			ft.Phases[i] != in.Phases[i] {
			t.Errorf("row %d = (%v, %v, %v), want (%v, %v, %v)", i,
				ft.Frequencies[i], ft.Amplitudes[i], ft.Phases[i],
				in.Frequencies[i], in.Amplitudes[i], in.Phases[i])
		}
	}
}

func TestFilterNameSanitization(t *testing.T) {
	path := tempFilePath(t, "sanitize.h5")

	in := &filter.CoefficientFilter{
		Common: filter.Common{Name: "mv/counts", Gain: 1},
	}

	f, err := Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := f.FiltersGroup().AddFilter(in); err != nil {
		t.Fatalf("AddFilter failed: %v", err)
	}
	if in.Name != "mv per counts" {
		t.Errorf("AddFilter left name %q, want sanitized", in.Name)
	}
	f.Close()

	f2, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f2.Close()

	dict, err := f2.FiltersGroup().FilterDict()
	if err != nil {
		t.Fatalf("FilterDict failed: %v", err)
	}
	if _, ok := dict["mv per counts"]; !ok {
		t.Errorf("dict keys = %v, want sanitized name", dict)
	}

	// Lookup with the raw name sanitizes before searching.
	got, err := f2.FiltersGroup().GetFilter("mv/counts")
	if err != nil {
		t.Fatalf("GetFilter with raw name failed: %v", err)
	}
	if got.FilterName() != "mv per counts" {
		t.Errorf("name = %q", got.FilterName())
	}
}

func TestAddFilterIdempotent(t *testing.T) {
	path := tempFilePath(t, "idempotent.h5")

	f, err := Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	defer f.Close()

	in := &filter.TimeDelayFilter{Common: filter.Common{Name: "dup", Gain: 1}, Delay: 1}
	g1, err := f.FiltersGroup().AddFilter(in)
	if err != nil {
		t.Fatalf("First AddFilter failed: %v", err)
	}

	g2, err := f.FiltersGroup().AddFilter(in)
	if err != nil {
		t.Fatalf("Second AddFilter failed: %v", err)
	}
	if g2.Path() != g1.Path() {
		t.Errorf("Second add returned %q, want existing %q", g2.Path(), g1.Path())
	}
}

func TestAddFilterStrict(t *testing.T) {
	path := tempFilePath(t, "strict.h5")

	f, err := Create(path, WithStrictFilterAdds())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	defer f.Close()

	in := &filter.TimeDelayFilter{Common: filter.Common{Name: "dup", Gain: 1}, Delay: 1}
	if _, err := f.FiltersGroup().AddFilter(in); err != nil {
		t.Fatalf("First AddFilter failed: %v", err)
	}
	if _, err := f.FiltersGroup().AddFilter(in); !errors.Is(err, hdf5.ErrExists) {
		t.Errorf("Second AddFilter = %v, want ErrExists", err)
	}
}

func TestKindGroupRejectsWrongKind(t *testing.T) {
	path := tempFilePath(t, "mismatch.h5")

	f, err := Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	defer f.Close()

	cf := &filter.CoefficientFilter{Common: filter.Common{Name: "scale", Gain: 1}}
	if _, err := f.FiltersGroup().ZPK.FromFilterObject(cf); !errors.Is(err, ErrKindMismatch) {
		t.Errorf("FromFilterObject = %v, want ErrKindMismatch", err)
	}
}

func TestGetFilterNotFound(t *testing.T) {
	path := tempFilePath(t, "missing.h5")

	f, err := Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	defer f.Close()

	if _, err := f.FiltersGroup().GetFilter("no such filter"); !errors.Is(err, ErrFilterNotFound) {
		t.Errorf("GetFilter = %v, want ErrFilterNotFound", err)
	}
}

func TestRemoveFilterNotSupported(t *testing.T) {
	path := tempFilePath(t, "remove.h5")

	f, err := Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	defer f.Close()

	if err := f.FiltersGroup().RemoveFilter("anything"); !errors.Is(err, ErrRemoveNotSupported) {
		t.Errorf("RemoveFilter = %v, want ErrRemoveNotSupported", err)
	}
	if err := f.FiltersGroup().ZPK.RemoveFilter("anything"); !errors.Is(err, ErrRemoveNotSupported) {
		t.Errorf("ZPK.RemoveFilter = %v, want ErrRemoveNotSupported", err)
	}
}

func TestOpenReadWriteAddsFilters(t *testing.T) {
	path := tempFilePath(t, "append.h5")

	f, err := Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	first := &filter.CoefficientFilter{Common: filter.Common{Name: "first", Gain: 1}}
	if _, err := f.FiltersGroup().AddFilter(first); err != nil {
		t.Fatalf("AddFilter failed: %v", err)
	}
	f.Close()

	rw, err := OpenReadWrite(path)
	if err != nil {
		t.Fatalf("OpenReadWrite failed: %v", err)
	}
	second := &filter.TimeDelayFilter{Common: filter.Common{Name: "second", Gain: 1}, Delay: 0.5}
	if _, err := rw.FiltersGroup().AddFilter(second); err != nil {
		t.Fatalf("AddFilter in read-write session failed: %v", err)
	}
	if err := rw.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	f2, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f2.Close()

	dict, err := f2.FiltersGroup().FilterDict()
	if err != nil {
		t.Fatalf("FilterDict failed: %v", err)
	}
	if len(dict) != 2 {
		t.Fatalf("dict = %v, want 2 entries", dict)
	}
	if dict["first"].Type != "coefficient" {
		t.Errorf("first type = %q", dict["first"].Type)
	}
	if dict["second"].Type != "time_delay" {
		t.Errorf("second type = %q", dict["second"].Type)
	}
}

func TestFilterDictMergesKinds(t *testing.T) {
	path := tempFilePath(t, "merge.h5")

	f, err := Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	filters := []filter.Filter{
		&filter.PoleZeroFilter{Common: filter.Common{Name: "a", Gain: 1}, NormalizationFactor: 1},
		&filter.CoefficientFilter{Common: filter.Common{Name: "b", Gain: 1}},
		&filter.TimeDelayFilter{Common: filter.Common{Name: "c", Gain: 1}},
		&filter.FrequencyResponseTableFilter{
			Common:      filter.Common{Name: "d", Gain: 1},
			Frequencies: []float64{1, 2},
			Amplitudes:  []float64{1, 1},
			Phases:      []float64{0, 0},
		},
	}
	for _, in := range filters {
		if _, err := f.FiltersGroup().AddFilter(in); err != nil {
			t.Fatalf("AddFilter %q failed: %v", in.FilterName(), err)
		}
	}
	f.Close()

	f2, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f2.Close()

	dict, err := f2.FiltersGroup().FilterDict()
	if err != nil {
		t.Fatalf("FilterDict failed: %v", err)
	}
	want := map[string]string{"a": "zpk", "b": "coefficient", "c": "time_delay", "d": "fap"}
	if len(dict) != len(want) {
		t.Fatalf("dict has %d entries, want %d: %v", len(dict), len(want), dict)
	}
	for name, typeTag := range want {
		if dict[name].Type != typeTag {
			t.Errorf("%s type = %q, want %q", name, dict[name].Type, typeTag)
		}
	}

	for name := range want {
		got, err := f2.FiltersGroup().GetFilter(name)
		if err != nil {
			t.Errorf("GetFilter(%q) failed: %v", name, err)
			continue
		}
		if got.FilterName() != name {
			t.Errorf("GetFilter(%q).FilterName() = %q", name, got.FilterName())
		}
	}
}

func TestCrossKindDuplicateNames(t *testing.T) {
	path := tempFilePath(t, "crosskind.h5")

	f, err := Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	// Same name in two kinds is accepted per kind but ambiguous in the
	// merged view: the later-merged kind wins deterministically.
	zpk := &filter.PoleZeroFilter{Common: filter.Common{Name: "shared", Gain: 1}, NormalizationFactor: 1}
	td := &filter.TimeDelayFilter{Common: filter.Common{Name: "shared", Gain: 1}, Delay: 1}
	if _, err := f.FiltersGroup().AddFilter(zpk); err != nil {
		t.Fatalf("AddFilter zpk failed: %v", err)
	}
	if _, err := f.FiltersGroup().AddFilter(td); err != nil {
		t.Fatalf("AddFilter time_delay failed: %v", err)
	}
	f.Close()

	f2, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f2.Close()

	dict, err := f2.FiltersGroup().FilterDict()
	if err != nil {
		t.Fatalf("FilterDict failed: %v", err)
	}
	if len(dict) != 1 {
		t.Fatalf("dict = %v, want one merged entry", dict)
	}
	if dict["shared"].Type != "time_delay" {
		t.Errorf("merged type = %q, want time_delay (later kind wins)", dict["shared"].Type)
	}

	got, err := f2.FiltersGroup().GetFilter("shared")
	if err != nil {
		t.Fatalf("GetFilter failed: %v", err)
	}
	if _, ok := got.(*filter.TimeDelayFilter); !ok {
		t.Errorf("GetFilter returned %T, want the time-delay entry", got)
	}
}

func TestSanitizeName(t *testing.T) {
	cases := []struct{ in, want string }{
		{"plain", "plain"},
		{"mv/counts", "mv per counts"},
		{"a/b/c", "a per b per c"},
	}
	for _, c := range cases {
		if got := SanitizeName(c.in); got != c.want {
			t.Errorf("SanitizeName(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
