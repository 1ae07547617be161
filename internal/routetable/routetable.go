// Package routetable builds and serves the gateway's immutable virtual
// host routing table: host:port -> (upstream base URL, dangerous flag).
package routetable

import (
	"fmt"
	"net/url"

	"github.com/wolfpup-software/gateway/internal/gatewayerr"
	"github.com/wolfpup-software/gateway/internal/routingkey"
)

// Entry is the value stored at a routing key. Upstream's Path, RawPath,
// and RawQuery are never consulted by the rewriter; only Scheme and Host
// are used.
type Entry struct {
	Upstream  *url.URL
	Dangerous bool
}

// Pair is one (arrival URI, destination URI) row from the configuration,
// as a string pair exactly as it appears on disk.
type Pair struct {
	Arrival     string
	Destination string
}

// Table is a read-only host:port -> Entry map. It is built once by New
// and never mutated afterward; every connection shares the same *Table.
type Table struct {
	entries map[string]Entry
}

// New builds a Table from the safe and dangerous address lists, in that
// order. A key present in both lists resolves as dangerous, because
// dangerous entries are inserted second and a later insert overwrites an
// earlier one at the same key.
func New(safe, dangerous []Pair) (*Table, error) {
	t := &Table{entries: make(map[string]Entry, len(safe)+len(dangerous))}

	if err := t.insertAll(safe, false); err != nil {
		return nil, err
	}
	if err := t.insertAll(dangerous, true); err != nil {
		return nil, err
	}

	return t, nil
}

func (t *Table) insertAll(pairs []Pair, dangerous bool) error {
	for _, p := range pairs {
		arrival, err := url.Parse(p.Arrival)
		if err != nil {
			return fmt.Errorf("parse arrival URI %q: %w: %w", p.Arrival, gatewayerr.ErrConfigInvalid, err)
		}

		key, ok := routingkey.Of(arrival)
		if !ok {
			return fmt.Errorf("arrival URI %q has no host: %w", p.Arrival, gatewayerr.ErrConfigInvalid)
		}

		dest, err := url.Parse(p.Destination)
		if err != nil {
			return fmt.Errorf("parse destination URI %q: %w: %w", p.Destination, gatewayerr.ErrConfigInvalid, err)
		}

		t.entries[key] = Entry{Upstream: dest, Dangerous: dangerous}
	}

	return nil
}

// Lookup is a fallible, read-only lookup. A miss is not an error at this
// layer; callers map it to a 404 at the service level.
func (t *Table) Lookup(key string) (Entry, bool) {
	e, ok := t.entries[key]
	return e, ok
}

// Len reports how many distinct routing keys the table holds, mainly for
// diagnostics and tests.
func (t *Table) Len() int {
	return len(t.entries)
}
