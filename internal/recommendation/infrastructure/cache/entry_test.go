package cache

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/nextup/internal/recommendation/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryEncoding(t *testing.T) {
	created := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	in := &Entry{
		Key:         "user-1",
		Variant:     VariantBasic,
		Payload:     &domain.Analysis{TotalTasks: 5, EligibleTasks: 4},
		Fingerprint: 1234,
		CreatedAt:   created,
		TTL:         2 * time.Minute,
	}

	data, err := encodeEntry(in)
	require.NoError(t, err)

	out, err := decodeEntry(data)
	require.NoError(t, err)
	assert.Equal(t, in.Key, out.Key)
	assert.Equal(t, in.Fingerprint, out.Fingerprint)
	assert.Equal(t, in.TTL, out.TTL)
	assert.True(t, created.Equal(out.CreatedAt))

	a, ok := out.Analysis()
	require.True(t, ok)
	assert.Equal(t, 4, a.EligibleTasks)
	_, ok = out.Result()
	assert.False(t, ok)
}

func TestDecodeEntry_Corrupt(t *testing.T) {
	tests := map[string]string{
		"not json":      `{{{`,
		"unknown kind":  `{"kind":"pie","payload":{}}`,
		"wrong payload": `{"kind":"result","payload":[1,2,3]}`,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := decodeEntry([]byte(raw))
			assert.ErrorIs(t, err, domain.ErrCorruptEntry)
		})
	}
}

func TestEntry_IsExpired(t *testing.T) {
	created := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	e := &Entry{CreatedAt: created, TTL: time.Minute}

	assert.False(t, e.IsExpired(created.Add(59*time.Second)))
	assert.True(t, e.IsExpired(created.Add(time.Minute)))
}
