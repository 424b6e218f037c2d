// Package dedup removes duplicate result rows by fingerprint.
package dedup

import (
	"crypto/md5" //nolint:gosec // legacy fingerprints must stay byte-compatible with existing runs
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash"
	"strings"

	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/domain/model"
)

// Algorithm selects the fingerprint hash.
type Algorithm string

const (
	// MD5 is the legacy fingerprint.
	MD5 Algorithm = "md5"
	// SHA256 is the current fingerprint.
	SHA256 Algorithm = "sha256"
)

// Options configures a Deduplicator.
type Options struct {
	Algorithm Algorithm
	// KeyColumns, when set, fingerprints only these columns instead of the whole row.
	KeyColumns []string
}

// OptionsFor derives dedup options from the run's flags and target natural key.
// Both ENABLE_LEGACY_ETL and ENABLE_EXPERIMENTAL_DEDUP must be present in flags.
func OptionsFor(flags model.FeatureFlagSet, keyColumns []string) (Options, error) {
	legacy, err := flags.Lookup(model.FlagLegacyETL)
	if err != nil {
		return Options{}, err
	}
	byKey, err := flags.Lookup(model.FlagExperimentalDedup)
	if err != nil {
		return Options{}, err
	}

	opts := Options{Algorithm: SHA256}
	if legacy {
		opts.Algorithm = MD5
	}
	if byKey {
		opts.KeyColumns = keyColumns
	}
	return opts, nil
}

// Deduplicator tracks fingerprints seen within one run.
type Deduplicator struct {
	opts Options
	seen map[string]struct{}
}

// New returns an empty Deduplicator.
func New(opts Options) *Deduplicator {
	if opts.Algorithm == "" {
		opts.Algorithm = SHA256
	}
	return &Deduplicator{opts: opts, seen: make(map[string]struct{})}
}

// Fingerprint returns the hex digest identifying row.
func (d *Deduplicator) Fingerprint(row model.ResultRow) (string, error) {
	var payload []byte
	if len(d.opts.KeyColumns) > 0 {
		parts := make([]string, len(d.opts.KeyColumns))
		for i, col := range d.opts.KeyColumns {
			parts[i] = row.String(col)
		}
		payload = []byte(strings.Join(parts, "|"))
	} else {
		// encoding/json sorts map keys, which makes the encoding canonical.
		b, err := json.Marshal(map[string]any(row))
		if err != nil {
			return "", fmt.Errorf("encode row for fingerprint: %w", err)
		}
		payload = b
	}

	var h hash.Hash
	if d.opts.Algorithm == MD5 {
		h = md5.New() //nolint:gosec // see import
	} else {
		h = sha256.New()
	}
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// IsDuplicate records row and reports whether an identical fingerprint was already seen.
func (d *Deduplicator) IsDuplicate(row model.ResultRow) (bool, error) {
	fp, err := d.Fingerprint(row)
	if err != nil {
		return false, err
	}
	if _, ok := d.seen[fp]; ok {
		return true, nil
	}
	d.seen[fp] = struct{}{}
	return false, nil
}

// Deduplicate returns rows with later duplicates removed and the number removed.
func (d *Deduplicator) Deduplicate(rows []model.ResultRow) ([]model.ResultRow, int, error) {
	out := make([]model.ResultRow, 0, len(rows))
	for _, row := range rows {
		dup, err := d.IsDuplicate(row)
		if err != nil {
			return nil, 0, err
		}
		if !dup {
			out = append(out, row)
		}
	}
	return out, len(rows) - len(out), nil
}

// Seen returns how many distinct fingerprints have been recorded.
func (d *Deduplicator) Seen() int {
	return len(d.seen)
}
