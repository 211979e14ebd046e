package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClaimNormalization(t *testing.T) {
	a := Claim{FullName: "  Maria   da Silva ", TaxID: "123.456.789-09", BirthDate: " 1990-01-02"}
	b := Claim{FullName: "Maria da Silva", TaxID: "12345678909", BirthDate: "1990-01-02"}

	assert.True(t, a.Equal(b))
	assert.Equal(t, b, a.Normalized())
	assert.False(t, a.Equal(Claim{FullName: "Maria da Silva", TaxID: "12345678900", BirthDate: "1990-01-02"}))
}

func TestClaimComplete(t *testing.T) {
	tests := []struct {
		name  string
		claim Claim
		want  bool
	}{
		{"all present", Claim{FullName: "A", TaxID: "1", BirthDate: "2000-01-01"}, true},
		{"blank name", Claim{FullName: "   ", TaxID: "1", BirthDate: "2000-01-01"}, false},
		{"punctuation-only tax id", Claim{FullName: "A", TaxID: ".-/", BirthDate: "2000-01-01"}, false},
		{"missing birth date", Claim{FullName: "A", TaxID: "1"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.claim.Complete())
		})
	}
}

func TestStateIsTerminal(t *testing.T) {
	assert.False(t, StateNotAttempted.IsTerminal())
	assert.False(t, StateValidating.IsTerminal())
	for _, s := range []State{StateValid, StateInvalid, StateRateLimited, StateError} {
		assert.True(t, s.IsTerminal(), s)
	}
}
