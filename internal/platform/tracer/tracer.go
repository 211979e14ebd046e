// Package tracer is a small tracing seam for outbound registry and postal
// lookups. Tax IDs are never attached raw; use HashTaxID.
package tracer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Span is an active trace span. End must be called exactly once.
type Span interface {
	End(err error)
	SetAttributes(attrs ...Attribute)
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration records value in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// HashTaxID returns the first 8 bytes of the SHA-256 of the tax ID, hex encoded.
func HashTaxID(taxID string) string {
	if taxID == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(taxID))
	return hex.EncodeToString(hash[:8])
}

const (
	SpanIdentityVerify = "identity.verify"
	SpanRegistryCall   = "identity.registry.call"
	SpanPostalLookup   = "address.postal_lookup"
)

const (
	AttrTaxIDHash    = "tax_id_hash"
	AttrProfileID    = "profile_id"
	AttrOutcome      = "outcome"
	AttrJoined       = "singleflight.joined"
	AttrCacheHit     = "cache.hit"
	AttrPostalCode   = "postal_code"
	AttrCircuitState = "circuit.state"
)

const (
	EventLocalLimit  = "local_limit.exceeded"
	EventCircuitOpen = "circuit.open"
	EventDiscarded   = "result.discarded"
)
