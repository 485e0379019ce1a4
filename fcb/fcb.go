// Package fcb contains helpers for reading, writing, and working
// with the CP/M FCB structure, which is the fixed-layout record the
// operating system uses to describe a file.
package fcb

import (
	"strings"
)

// Size is the length of an FCB in guest memory, including the three
// random-record bytes.
const Size = 36

// FCB is the definition of the CP/M file control block.
type FCB struct {
	// Drive holds the drive number for this entry; zero means the
	// default drive, one means A:, and so on.
	Drive uint8

	// Name holds the name of the file, padded with spaces.
	Name [8]uint8

	// Type holds the suffix, padded with spaces.
	Type [3]uint8

	// Ex is the current extent number.
	Ex uint8

	// S1 and S2 are reserved.
	S1 uint8
	S2 uint8

	// RC is the record count for the current extent.
	RC uint8

	// Al is the allocation map, which we carry but never use.
	Al [16]uint8

	// Cr is the current record within the extent.
	Cr uint8

	// R0, R1 and R2 hold the random-access record number.
	R0 uint8
	R1 uint8
	R2 uint8
}

// GetName returns the name component of an FCB entry, with the
// padding removed.
func (f *FCB) GetName() string {
	t := ""

	for _, c := range f.Name {
		if c != 0x00 {
			t += string(rune(c))
		}
	}
	return strings.TrimSpace(t)
}

// GetType returns the type/extension component of an FCB entry, with
// the padding removed.
func (f *FCB) GetType() string {
	t := ""

	for _, c := range f.Type {
		if c != 0x00 {
			t += string(rune(c))
		}
	}
	return strings.TrimSpace(t)
}

// HostName returns the name of the host file this FCB refers to,
// i.e. "NAME.EXT", or just "NAME" when the type field is blank.
func (f *FCB) HostName() string {
	name := f.GetName()

	if ext := f.GetType(); ext != "" {
		name += "." + ext
	}
	return name
}

// SequentialRecord returns the 128-byte record the sequential I/O
// calls would operate upon, from the extent and current-record
// fields.
func (f *FCB) SequentialRecord() int64 {
	return int64(f.Ex)*128 + int64(f.Cr)
}

// SetSequentialRecord updates the extent and current-record fields to
// point at the given 128-byte record.
func (f *FCB) SetSequentialRecord(n int64) {
	f.Ex = uint8(n / 128)
	f.Cr = uint8(n % 128)
}

// RandomRecord returns the record number stored in the three
// random-access bytes.
func (f *FCB) RandomRecord() int64 {
	return int64(f.R0) | int64(f.R1)<<8 | int64(f.R2)<<16
}

// AsBytes returns the entry of the FCB in a format suitable for
// copying to RAM.
func (f *FCB) AsBytes() []uint8 {

	var r []uint8

	r = append(r, f.Drive)
	r = append(r, f.Name[:]...)
	r = append(r, f.Type[:]...)
	r = append(r, f.Ex)
	r = append(r, f.S1)
	r = append(r, f.S2)
	r = append(r, f.RC)
	r = append(r, f.Al[:]...)
	r = append(r, f.Cr)
	r = append(r, f.R0)
	r = append(r, f.R1)
	r = append(r, f.R2)

	return r
}

// expand pads a name fragment to the given width, and expands any
// "*" to question-marks through the end of the field, which is the
// CP/M wildcard convention.
func expand(in string, width int) string {
	out := ""

	for len(in) < width {
		in += " "
	}

	for _, c := range in {
		if c == '*' {
			out += strings.Repeat("?", width)
			break
		}
		out += string(c)
	}

	if len(out) > width {
		out = out[:width]
	}
	return out
}

// FromString returns an FCB entry from the given string, which may
// carry an optional drive-prefix, and wildcards.
//
// The filename is upper-cased, and "abc*.*" becomes the name
// "ABC?????" with the type "???".
func FromString(str string) FCB {

	// Return value
	tmp := FCB{}

	// Filenames are always upper-case.
	str = strings.ToUpper(str)

	// Does the string have a drive-prefix?
	if len(str) > 2 && str[1] == ':' {
		tmp.Drive = str[0] - 'A' + 1
		str = str[2:]
	}

	// Suffix defaults to blank.
	copy(tmp.Type[:], "   ")

	name, ext, found := strings.Cut(str, ".")
	copy(tmp.Name[:], expand(name, 8))
	if found {
		copy(tmp.Type[:], expand(ext, 3))
	}

	return tmp
}

// FromBytes returns an FCB entry from the given bytes.
func FromBytes(bytes []uint8) FCB {
	// Return value
	tmp := FCB{}

	tmp.Drive = bytes[0]
	copy(tmp.Name[:], bytes[1:])
	copy(tmp.Type[:], bytes[9:])
	tmp.Ex = bytes[12]
	tmp.S1 = bytes[13]
	tmp.S2 = bytes[14]
	tmp.RC = bytes[15]
	copy(tmp.Al[:], bytes[16:])
	tmp.Cr = bytes[32]
	tmp.R0 = bytes[33]
	tmp.R1 = bytes[34]
	tmp.R2 = bytes[35]

	return tmp
}

// Matches reports whether the given host filename matches this FCB's
// possibly-wildcarded name.
func (f *FCB) Matches(host string) bool {
	want := FromString(host)

	match := func(pattern, name []uint8) bool {
		for i, p := range pattern {
			if p == '?' {
				continue
			}
			if p != name[i] {
				return false
			}
		}
		return true
	}

	return match(f.Name[:], want.Name[:]) && match(f.Type[:], want.Type[:])
}
