package storage

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// fallbackStem is used when nothing of the original name survives sanitising.
const fallbackStem = "document"

// timestampLayout renders as YYYYmmdd_HHMMSS.
const timestampLayout = "20060102_150405"

// SanitizeFilename reduces name to a safe base name made of ASCII letters,
// digits, '_', '.' and '-'. Directory components are dropped, whitespace
// becomes '_', and leading or trailing '.' and '_' are removed. The result
// may be empty.
func SanitizeFilename(name string) string {
	name = strings.NewReplacer("/", " ", "\\", " ").Replace(name)

	var ascii strings.Builder
	for _, r := range norm.NFKD.String(name) {
		if r < unicode.MaxASCII {
			ascii.WriteRune(r)
		}
	}

	joined := strings.Join(strings.Fields(ascii.String()), "_")

	var safe strings.Builder
	for _, r := range joined {
		if r == '_' || r == '.' || r == '-' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			safe.WriteRune(r)
		}
	}
	return strings.Trim(safe.String(), "._")
}

// UniqueName builds the stored name for an upload received at now.
// The extension is lower-cased so that format detection is stable.
func UniqueName(originalName string, now time.Time) string {
	base := filepath.Base(strings.ReplaceAll(originalName, "\\", "/"))
	ext := strings.ToLower(filepath.Ext(base))
	stem := SanitizeFilename(strings.TrimSuffix(base, filepath.Ext(base)))
	if stem == "" {
		stem = fallbackStem
	}
	if e := SanitizeFilename(ext); e != "" {
		ext = "." + e
	} else {
		ext = ""
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return fmt.Sprintf("%s_%s_%s%s", stem, now.Format(timestampLayout), suffix, ext)
}
