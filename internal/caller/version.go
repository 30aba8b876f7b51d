package caller

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/variantops/vcfsquare/internal/tools"
)

// MinFreebayesVersion is the oldest freebayes that honors --targets
// restriction correctly. Older releases silently call outside the target
// set, corrupting results instead of erroring, so the check is blocking.
const MinFreebayesVersion = "1.1.0"

// CheckFreebayesVersion fails when the installed freebayes is older than
// MinFreebayesVersion.
func CheckFreebayesVersion(ctx context.Context, r tools.Runner) error {
	out, err := r.Output(ctx, "freebayes", "--version")
	if err != nil {
		return fmt.Errorf("freebayes version check: %w", err)
	}
	version := ParseToolVersion(string(out))
	if version == "" {
		return fmt.Errorf("freebayes version check: cannot parse %q", strings.TrimSpace(string(out)))
	}
	if CompareVersions(version, MinFreebayesVersion) < 0 {
		return fmt.Errorf("freebayes %s is too old: need %s or newer", version, MinFreebayesVersion)
	}
	return nil
}

// ParseToolVersion extracts a dotted version from tool banner output such
// as "version:  v1.3.6" or "freebayes 1.1.0-dirty".
func ParseToolVersion(out string) string {
	for _, tok := range strings.Fields(out) {
		tok = strings.TrimPrefix(tok, "v")
		tok = strings.TrimRight(tok, ",;")
		if i := strings.IndexAny(tok, "-+"); i > 0 {
			tok = tok[:i]
		}
		if isDottedVersion(tok) {
			return tok
		}
	}
	return ""
}

func isDottedVersion(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) < 2 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
		if _, err := strconv.Atoi(p); err != nil {
			return false
		}
	}
	return true
}

// CompareVersions compares dotted numeric versions, returning -1, 0 or 1.
// Missing components count as zero.
func CompareVersions(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < len(as) || i < len(bs); i++ {
		av, bv := 0, 0
		if i < len(as) {
			av, _ = strconv.Atoi(as[i])
		}
		if i < len(bs) {
			bv, _ = strconv.Atoi(bs[i])
		}
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
	}
	return 0
}
