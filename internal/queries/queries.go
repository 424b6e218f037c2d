// Package queries holds the embedded SQL assets for every job and schema version.
//
// Each asset starts with a header of "-- key: value" lines (name, job, version, columns)
// followed by a single SELECT that binds values through @name placeholders.
package queries

import (
	"bufio"
	"bytes"
	"embed"
	"fmt"
	"path"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/domain/model"
	apperrors "github.com/tm-acme-shop/acme-shop-analytics-etl/internal/errors"
)

//go:embed sql/*.sql
var sqlFS embed.FS

var rePlaceholder = regexp.MustCompile(`@([A-Za-z_][A-Za-z0-9_]*)`)

// Registry indexes query variants by name.
type Registry struct {
	variants map[string]model.QueryVariant
}

// Load parses every embedded asset and validates its header against the job catalog.
func Load() (*Registry, error) {
	entries, err := sqlFS.ReadDir("sql")
	if err != nil {
		return nil, fmt.Errorf("read query assets: %w", err)
	}

	reg := &Registry{variants: make(map[string]model.QueryVariant, len(entries))}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		src, readErr := sqlFS.ReadFile(path.Join("sql", e.Name()))
		if readErr != nil {
			return nil, fmt.Errorf("read %s: %w", e.Name(), readErr)
		}
		v, parseErr := Parse(strings.TrimSuffix(e.Name(), ".sql"), src)
		if parseErr != nil {
			return nil, parseErr
		}
		if _, dup := reg.variants[v.Name]; dup {
			return nil, apperrors.Configurationf("duplicate query variant %q", v.Name)
		}
		reg.variants[v.Name] = v
	}

	if err := reg.checkCatalog(); err != nil {
		return nil, err
	}
	return reg, nil
}

// MustLoad is Load for package-level initialisation; it panics on a malformed asset.
func MustLoad() *Registry {
	reg, err := Load()
	if err != nil {
		panic(err)
	}
	return reg
}

// checkCatalog ensures every job variant referenced by the catalog exists with the right version.
func (r *Registry) checkCatalog() error {
	for _, job := range model.Jobs() {
		for version, name := range job.Variants {
			v, ok := r.variants[name]
			if !ok {
				return apperrors.Configurationf("job %s references missing query %q", job.Name, name)
			}
			if v.Job != job.Name || v.Version != version {
				return apperrors.Configurationf(
					"query %q declares %s/%s, catalog expects %s/%s",
					name, v.Job, v.Version, job.Name, version,
				)
			}
		}
	}
	return nil
}

// Get returns the named variant or a ConfigurationError.
func (r *Registry) Get(name string) (model.QueryVariant, error) {
	v, ok := r.variants[name]
	if !ok {
		return model.QueryVariant{}, apperrors.ConfigurationField("query", fmt.Sprintf("unknown query variant %q", name))
	}
	return v, nil
}

// Variants returns every variant sorted by name.
func (r *Registry) Variants() []model.QueryVariant {
	out := make([]model.QueryVariant, 0, len(r.variants))
	for _, v := range r.variants {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Parse builds a QueryVariant from an asset. fallbackName is used when the header has no name.
func Parse(fallbackName string, src []byte) (model.QueryVariant, error) {
	header, body := splitHeader(src)

	v := model.QueryVariant{
		Name:    firstNonEmpty(header["name"], fallbackName),
		Job:     model.JobName(header["job"]),
		Version: model.SchemaVersion(header["version"]),
		SQL:     strings.TrimSpace(body),
		Columns: splitList(header["columns"]),
	}

	switch {
	case !v.Job.Valid():
		return model.QueryVariant{}, apperrors.Configurationf("query %q: unknown job %q", v.Name, header["job"])
	case !v.Version.Valid():
		return model.QueryVariant{}, apperrors.Configurationf("query %q: unknown version %q", v.Name, header["version"])
	case v.SQL == "":
		return model.QueryVariant{}, apperrors.Configurationf("query %q: empty body", v.Name)
	case len(v.Columns) == 0:
		return model.QueryVariant{}, apperrors.Configurationf("query %q: no columns declared", v.Name)
	}

	if err := model.CheckExposure(v.Version, v.Columns); err != nil {
		return model.QueryVariant{}, fmt.Errorf("query %q: %w", v.Name, err)
	}

	v.Params = PlaceholderNames(v.SQL)
	return v, nil
}

// PlaceholderNames returns the distinct @name placeholders in sql in order of first use.
// Line comments are ignored.
func PlaceholderNames(sql string) []string {
	var names []string
	for _, line := range strings.Split(sql, "\n") {
		if i := strings.Index(line, "--"); i >= 0 {
			line = line[:i]
		}
		for _, m := range rePlaceholder.FindAllStringSubmatch(line, -1) {
			if !slices.Contains(names, m[1]) {
				names = append(names, m[1])
			}
		}
	}
	return names
}

func splitHeader(src []byte) (map[string]string, string) {
	header := map[string]string{}
	var body strings.Builder

	inHeader := true
	sc := bufio.NewScanner(bytes.NewReader(src))
	for sc.Scan() {
		line := sc.Text()
		trimmed := strings.TrimSpace(line)
		if inHeader && strings.HasPrefix(trimmed, "--") {
			key, value, ok := strings.Cut(strings.TrimSpace(strings.TrimPrefix(trimmed, "--")), ":")
			if ok {
				header[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(value)
			}
			continue
		}
		if trimmed != "" {
			inHeader = false
		}
		body.WriteString(line)
		body.WriteByte('\n')
	}
	return header, body.String()
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
