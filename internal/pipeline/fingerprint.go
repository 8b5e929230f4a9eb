package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Fingerprint returns the SHA-256 hex digest of the file's raw bytes. Equal
// fingerprints mean the batch content is unchanged and a prior successful
// outcome can be reused.
func Fingerprint(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", eris.Wrap(err, "pipeline: open batch file")
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", eris.Wrap(err, "pipeline: hash batch file")
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// BatchName derives the stable batch identity from the source path: the
// base name without its extension.
func BatchName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
