package cpm

// The fixed memory layout of the system.
//
// Low memory holds the vectors and scratch areas every CP/M program
// expects, the transient program area starts at 0x0100, and our
// BDOS/BIOS entry-points live at the top of RAM where real systems
// would place theirs.
const (
	// WarmBootVector holds a JP to the warm-boot BIOS entry.
	WarmBootVector uint16 = 0x0000

	// IOByteAddr holds the IOBYTE.
	IOByteAddr uint16 = 0x0003

	// DriveAddr holds the currently selected drive.
	DriveAddr uint16 = 0x0004

	// BdosVector holds a JP to the BDOS entry-point; programs
	// invoke system calls via "CALL 0x0005".
	BdosVector uint16 = 0x0005

	// DefaultFCB1 and DefaultFCB2 are the two FCBs which are
	// populated from the command-line arguments.
	DefaultFCB1 uint16 = 0x005C
	DefaultFCB2 uint16 = 0x006C

	// DefaultDMA is the parameter buffer, and the default address
	// for block I/O.
	DefaultDMA uint16 = 0x0080

	// TPAStart is where transient programs are loaded.
	TPAStart uint16 = 0x0100

	// TransientStack is the initial stack pointer given to programs;
	// the stack grows downward from the base of the shell.
	TransientStack uint16 = 0xDE00

	// BdosEntry is the address programs jump to for system calls.
	BdosEntry uint16 = 0xE600

	// BiosBase is the base of the BIOS jump-vector table.
	BiosBase uint16 = 0xFF00

	// BiosEntries is the number of three-byte vectors in the table.
	BiosEntries = 17
)

// blkSize is the size of block-based I/O operations.
const blkSize = 128

// maxParamLen is the most characters the parameter buffer can hold;
// the count byte at 0x0080 is followed by at most this many bytes.
const maxParamLen = 126
