package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/nextup/internal/recommendation/domain"
)

// Variant namespaces independent uses of the same cache key.
type Variant string

const (
	VariantBasic    Variant = "basic"
	VariantAdvanced Variant = "advanced"
)

// AllVariants lists every known variant.
var AllVariants = []Variant{VariantBasic, VariantAdvanced}

var (
	ErrNotFound           = errors.New("cache entry not found")
	ErrUnsupportedPayload = errors.New("unsupported cache payload")
)

// Entry is one cached payload for a (key, variant) pair.
type Entry struct {
	Key         string
	Variant     Variant
	Payload     any
	Fingerprint uint64
	CreatedAt   time.Time
	TTL         time.Duration

	// Size is the encoded payload size in bytes.
	Size int64
}

// IsExpired reports whether the entry is past its TTL at now.
func (e *Entry) IsExpired(now time.Time) bool {
	return now.Sub(e.CreatedAt) >= e.TTL
}

// Result returns the payload as a recommendation result.
func (e *Entry) Result() (*domain.Result, bool) {
	r, ok := e.Payload.(*domain.Result)
	return r, ok && r != nil
}

// Analysis returns the payload as an analysis.
func (e *Entry) Analysis() (*domain.Analysis, bool) {
	a, ok := e.Payload.(*domain.Analysis)
	return a, ok && a != nil
}

const (
	kindResult   = "result"
	kindAnalysis = "analysis"
)

func payloadKind(payload any) (string, error) {
	switch p := payload.(type) {
	case *domain.Result:
		if p != nil {
			return kindResult, nil
		}
	case *domain.Analysis:
		if p != nil {
			return kindAnalysis, nil
		}
	}
	return "", fmt.Errorf("%w: %T", ErrUnsupportedPayload, payload)
}

// envelope is the wire form of an entry.
type envelope struct {
	Key         string          `json:"key"`
	Variant     Variant         `json:"variant"`
	Fingerprint uint64          `json:"fingerprint"`
	CreatedAt   time.Time       `json:"created_at"`
	TTLMillis   int64           `json:"ttl_ms"`
	Kind        string          `json:"kind"`
	Payload     json.RawMessage `json:"payload"`
}

func encodeEntry(e *Entry) ([]byte, error) {
	kind, err := payloadKind(e.Payload)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return json.Marshal(envelope{
		Key:         e.Key,
		Variant:     e.Variant,
		Fingerprint: e.Fingerprint,
		CreatedAt:   e.CreatedAt,
		TTLMillis:   e.TTL.Milliseconds(),
		Kind:        kind,
		Payload:     payload,
	})
}

func decodeEntry(data []byte) (*Entry, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptEntry, err)
	}

	var payload any
	switch env.Kind {
	case kindResult:
		var r domain.Result
		if err := json.Unmarshal(env.Payload, &r); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrCorruptEntry, err)
		}
		payload = &r
	case kindAnalysis:
		var a domain.Analysis
		if err := json.Unmarshal(env.Payload, &a); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrCorruptEntry, err)
		}
		payload = &a
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", domain.ErrCorruptEntry, env.Kind)
	}

	return &Entry{
		Key:         env.Key,
		Variant:     env.Variant,
		Payload:     payload,
		Fingerprint: env.Fingerprint,
		CreatedAt:   env.CreatedAt,
		TTL:         time.Duration(env.TTLMillis) * time.Millisecond,
		Size:        int64(len(env.Payload)),
	}, nil
}
