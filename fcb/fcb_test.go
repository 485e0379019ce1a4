package fcb

import (
	"testing"
)

// TestFromString performs simple name-conversion tests.
func TestFromString(t *testing.T) {
	tests := []struct {
		input string
		drive uint8
		name  string
		ext   string
	}{
		{"foo", 0, "FOO     ", "   "},
		{"foo.go", 0, "FOO     ", "GO "},
		{"b:foo.bar", 2, "FOO     ", "BAR"},
		{"abc*.*", 0, "ABC?????", "???"},
		{"*.txt", 0, "????????", "TXT"},
		{"longfilename.txt", 0, "LONGFILE", "TXT"},
		{"a:readme", 1, "README  ", "   "},
	}

	for _, tc := range tests {
		f := FromString(tc.input)

		if f.Drive != tc.drive {
			t.Errorf("%q: drive %d, want %d", tc.input, f.Drive, tc.drive)
		}
		if got := string(f.Name[:]); got != tc.name {
			t.Errorf("%q: name %q, want %q", tc.input, got, tc.name)
		}
		if got := string(f.Type[:]); got != tc.ext {
			t.Errorf("%q: type %q, want %q", tc.input, got, tc.ext)
		}
	}
}

// TestHostName reconstructs host filenames from FCB entries.
func TestHostName(t *testing.T) {
	f := FromString("foo.txt")
	if got := f.HostName(); got != "FOO.TXT" {
		t.Fatalf("host name %q, want FOO.TXT", got)
	}

	f = FromString("bare")
	if got := f.HostName(); got != "BARE" {
		t.Fatalf("host name %q, want BARE", got)
	}
}

// TestRoundTrip converts an FCB to bytes and back again.
func TestRoundTrip(t *testing.T) {
	f := FromString("a:test.com")
	f.Ex = 2
	f.Cr = 17
	f.R0 = 0x34
	f.R1 = 0x12

	b := f.AsBytes()
	if len(b) != Size {
		t.Fatalf("serialized size %d, want %d", len(b), Size)
	}

	g := FromBytes(b)
	if g.Drive != f.Drive || g.GetName() != "TEST" || g.GetType() != "COM" {
		t.Fatalf("round-trip lost the name: %+v", g)
	}
	if g.Ex != 2 || g.Cr != 17 || g.R0 != 0x34 || g.R1 != 0x12 {
		t.Fatalf("round-trip lost the record state: %+v", g)
	}
}

// TestRecords checks the sequential and random record helpers.
func TestRecords(t *testing.T) {
	var f FCB

	f.SetSequentialRecord(0)
	if f.Ex != 0 || f.Cr != 0 {
		t.Fatalf("record zero mapped badly")
	}

	f.SetSequentialRecord(129)
	if f.Ex != 1 || f.Cr != 1 {
		t.Fatalf("record 129 mapped badly: Ex=%d Cr=%d", f.Ex, f.Cr)
	}
	if f.SequentialRecord() != 129 {
		t.Fatalf("sequential record did not round-trip")
	}

	f.R0 = 0x01
	f.R1 = 0x02
	if f.RandomRecord() != 0x0201 {
		t.Fatalf("random record wrong: %d", f.RandomRecord())
	}
}

// TestMatches exercises wildcard matching against host names.
func TestMatches(t *testing.T) {
	tests := []struct {
		pattern string
		host    string
		want    bool
	}{
		{"*.txt", "README.TXT", true},
		{"*.txt", "README.MD", false},
		{"abc*.*", "ABCDEF.COM", true},
		{"abc*.*", "ABD.COM", false},
		{"foo.?", "FOO.C", true},
		{"foo.com", "FOO.COM", true},
		{"foo.com", "BAR.COM", false},
	}

	for _, tc := range tests {
		f := FromString(tc.pattern)
		if got := f.Matches(tc.host); got != tc.want {
			t.Errorf("%q vs %q: got %v, want %v",
				tc.pattern, tc.host, got, tc.want)
		}
	}
}
