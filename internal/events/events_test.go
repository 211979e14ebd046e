package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "vitrine/pkg/domain"
)

func TestEventMarshal(t *testing.T) {
	profileID := id.NewProfileID()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	e := Event{
		Type:       TypeDocumentChanged,
		ProfileID:  profileID,
		OccurredAt: at,
		Data:       map[string]any{"category": "other"},
	}

	raw, err := e.Marshal()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "document.changed", decoded["type"])
	assert.Equal(t, profileID.String(), decoded["profile_id"])
	assert.Equal(t, "2026-03-01T12:00:00Z", decoded["occurred_at"])
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	ctx := context.Background()
	require.NoError(t, r.Publish(ctx, Event{Type: TypeSectionSaved}))
	require.NoError(t, r.Publish(ctx, Event{Type: TypeAccountSubmitted}))
	require.NoError(t, r.Publish(ctx, Event{Type: TypeSectionSaved}))

	assert.Len(t, r.Events(), 3)
	assert.Len(t, r.OfType(TypeSectionSaved), 2)
	assert.Empty(t, r.OfType(TypeIdentityVerified))
}

func TestNop(t *testing.T) {
	assert.NoError(t, Nop{}.Publish(context.Background(), Event{Type: TypeSectionSaved}))
}
