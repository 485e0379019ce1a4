// Package ccp contains the console command processor - the little
// shell which prompts for commands and launches transient programs.
//
// Rather than embedding a pre-built binary we embed the Z80 source,
// and assemble it at start-up.  This keeps the shell hackable; edit
// the source, rebuild, and the changes are live.
package ccp

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/paulhankin/z80asm"
)

//go:embed ccp.z80
var source string

// Base is the address at which the shell is assembled, and to which
// control is passed.  It must match the ORG in the source.
const Base uint16 = 0xDE00

// Bytes assembles the embedded shell and returns the binary.
//
// The assembler only reads from files, so the embedded source is
// written beneath a temporary directory first.
func Bytes() ([]uint8, error) {

	dir, err := os.MkdirTemp("", "ccp")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary directory: %s", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "ccp.z80")
	err = os.WriteFile(path, []byte(source), 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to write assembly source: %s", err)
	}

	asm, err := z80asm.NewAssembler()
	if err != nil {
		return nil, fmt.Errorf("failed to create assembler: %s", err)
	}

	err = asm.AssembleFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble shell: %s", err)
	}

	// The "end" label marks the first byte past the code.
	end, ok := asm.GetLabel("", "end")
	if !ok {
		return nil, fmt.Errorf("shell source has no end label")
	}

	return asm.RAM()[Base:end], nil
}
