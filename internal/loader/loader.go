// Package loader reads a program binary image into a slice of words,
// per spec §6: a stream of little-endian 16-bit words loaded starting
// at address 0, capped at 0x8000 words with silent truncation of any
// excess. Grounded on the teacher's main.go load loop (ioutil.ReadFile
// + binary.LittleEndian.Uint16 over consecutive pairs), adapted into
// its own package with the cap the teacher's version lacks.
package loader

import (
	"encoding/binary"
	"os"

	"github.com/bdwalton/synacor/internal/config"
	"github.com/pkg/errors"
)

// LoadProgram reads the binary at path and decodes it into a slice of
// little-endian words, truncated to config.MemWords words if the file
// is larger.
func LoadProgram(path string) ([]uint16, error) {
	bin, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "loading program %q", path)
	}

	n := len(bin) / 2
	if n > config.MemWords {
		n = config.MemWords
	}

	prog := make([]uint16, n)
	for i := 0; i < n; i++ {
		prog[i] = binary.LittleEndian.Uint16(bin[i*2 : i*2+2])
	}
	return prog, nil
}
