package source

import "testing"

type nopDriver struct{ name string }

func (d *nopDriver) Name() string           { return d.name }
func (d *nopDriver) Label() string          { return d.name }
func (d *nopDriver) Defaults() Settings     { return Settings{} }
func (d *nopDriver) Properties() []Property { return nil }
func (d *nopDriver) Create(Settings, Output) (Source, error) {
	return nil, nil
}

func TestRegisterLookup(t *testing.T) {
	Register(&nopDriver{name: "test_driver"})
	defer unregister("test_driver")

	d, ok := Lookup("test_driver")
	if !ok {
		t.Fatal("registered driver not found")
	}
	if d.Name() != "test_driver" {
		t.Errorf("Name() = %q, want %q", d.Name(), "test_driver")
	}

	if _, ok := Lookup("missing"); ok {
		t.Error("Lookup of unregistered name succeeded")
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	Register(&nopDriver{name: "dup_driver"})
	defer unregister("dup_driver")

	defer func() {
		if recover() == nil {
			t.Error("duplicate Register did not panic")
		}
	}()
	Register(&nopDriver{name: "dup_driver"})
}

func TestDriversSorted(t *testing.T) {
	Register(&nopDriver{name: "zz_driver"})
	Register(&nopDriver{name: "aa_driver"})
	defer unregister("zz_driver")
	defer unregister("aa_driver")

	names := Drivers()
	var aa, zz int = -1, -1
	for i, name := range names {
		switch name {
		case "aa_driver":
			aa = i
		case "zz_driver":
			zz = i
		}
	}
	if aa == -1 || zz == -1 {
		t.Fatalf("Drivers() = %v, missing test entries", names)
	}
	if aa > zz {
		t.Errorf("Drivers() = %v, want sorted order", names)
	}
}

func TestSampleFormatBytes(t *testing.T) {
	tests := []struct {
		format   SampleFormat
		expected int
	}{
		{FormatS16LE, 2},
		{FormatS32LE, 4},
		{FormatFloat, 4},
		{SampleFormat("bogus"), 0},
	}

	for _, tt := range tests {
		if got := tt.format.Bytes(); got != tt.expected {
			t.Errorf("%s.Bytes() = %d, want %d", tt.format, got, tt.expected)
		}
	}
}
