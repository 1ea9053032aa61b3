package report

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/support-totem125/vcc-totem/internal/util"
)

// ReadDNIs loads a DNI list, one per line. Non-digit characters are dropped
// and only lines left with exactly eight digits are kept, in file order. A
// missing file yields an empty list.
func ReadDNIs(path string) ([]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn().Str("path", path).Msg("DNI list not found")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open DNI list: %w", err)
	}
	defer f.Close()

	dnis, err := ParseDNIs(f)
	if err != nil {
		return nil, fmt.Errorf("read DNI list %s: %w", path, err)
	}

	log.Info().Str("path", path).Int("count", len(dnis)).Msg("DNI list loaded")
	return dnis, nil
}

func ParseDNIs(r io.Reader) ([]string, error) {
	var dnis []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if dni, ok := util.ExtractDNI(scanner.Text()); ok {
			dnis = append(dnis, dni)
		}
	}
	return dnis, scanner.Err()
}
