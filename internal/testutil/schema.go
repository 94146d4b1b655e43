package testutil

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var identSanitizer = regexp.MustCompile(`[^a-z0-9_]+`)

const maxPostgresIdentLen = 63

// newSchemaName derives a short-lived, collision-resistant Postgres schema
// name from prefix (usually a package or test name) plus a random suffix, so
// parallel test runs never collide on the same schema.
func newSchemaName(prefix string) string {
	base := strings.ToLower(prefix)
	base = strings.ReplaceAll(base, "-", "_")
	base = identSanitizer.ReplaceAllString(base, "_")
	base = strings.Trim(base, "_")
	if base == "" {
		base = "replane"
	}

	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")
	maxBaseLen := maxPostgresIdentLen - len("rp__") - len(suffix)
	if maxBaseLen < 1 {
		maxBaseLen = 1
	}
	if len(base) > maxBaseLen {
		base = base[:maxBaseLen]
	}
	return fmt.Sprintf("rp_%s_%s", base, suffix)
}

// dsnWithSearchPath rewrites dsn so a connection opened against it defaults
// to schema, handling both URL-form and keyword/value DSNs.
func dsnWithSearchPath(dsn, schema string) (string, error) {
	if strings.Contains(dsn, "://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", fmt.Errorf("parse DSN: %w", err)
		}
		q := u.Query()
		q.Set("search_path", schema)
		u.RawQuery = q.Encode()
		return u.String(), nil
	}

	if strings.Contains(dsn, "search_path=") {
		re := regexp.MustCompile(`search_path=\S+`)
		return re.ReplaceAllString(dsn, "search_path="+schema), nil
	}
	return dsn + " search_path=" + schema, nil
}
