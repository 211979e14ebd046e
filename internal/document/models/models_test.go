package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "vitrine/pkg/domain-errors"
)

func TestCatalog(t *testing.T) {
	t.Run("each category maps to exactly one required flag", func(t *testing.T) {
		seen := map[Category]int{}
		for _, info := range Categories() {
			seen[info.Category]++
		}
		for c, n := range seen {
			assert.Equal(t, 1, n, "category %s listed %d times", c, n)
		}
		assert.Len(t, seen, 5)
	})

	t.Run("required set", func(t *testing.T) {
		assert.True(t, CategoryTaxRegistration.Required())
		assert.True(t, CategoryArticlesOfIncorporation.Required())
		assert.True(t, CategoryProofOfAddress.Required())
		assert.False(t, CategoryTradeReferences.Required())
		assert.False(t, CategoryOther.Required())
	})

	t.Run("parse rejects unknown", func(t *testing.T) {
		_, err := ParseCategory("passport")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnknownCategory))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

		c, err := ParseCategory(" Proof-Of-Address ")
		require.NoError(t, err)
		assert.Equal(t, CategoryProofOfAddress, c)
	})
}

func TestApplyReview(t *testing.T) {
	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

	t.Run("approve from under-review", func(t *testing.T) {
		r := &Record{Status: StatusUnderReview}
		require.NoError(t, r.ApplyReview(Decision{Action: ActionApprove, Reviewer: "ops@vitrine"}, now))
		assert.Equal(t, StatusApproved, r.Status)
		assert.Equal(t, "ops@vitrine", r.ReviewedBy)
		assert.Equal(t, now, *r.ReviewedAt)
	})

	t.Run("reject requires a reason", func(t *testing.T) {
		r := &Record{Status: StatusUnderReview}
		err := r.ApplyReview(Decision{Action: ActionReject}, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		assert.Equal(t, StatusUnderReview, r.Status)
	})

	t.Run("reject records the reason", func(t *testing.T) {
		r := &Record{Status: StatusUnderReview}
		require.NoError(t, r.ApplyReview(Decision{Action: ActionReject, Reason: " blurry scan "}, now))
		assert.Equal(t, StatusRejected, r.Status)
		assert.Equal(t, "blurry scan", r.RejectionReason)
	})

	for _, from := range []Status{StatusPending, StatusApproved, StatusRejected} {
		t.Run("cannot review from "+string(from), func(t *testing.T) {
			r := &Record{Status: from}
			err := r.ApplyReview(Decision{Action: ActionApprove}, now)
			assert.ErrorIs(t, err, ErrInvalidTransition)
			assert.Equal(t, from, r.Status)
		})
	}
}

func TestSlotsAndMissingRequired(t *testing.T) {
	records := []*Record{
		{Category: CategoryTaxRegistration, Status: StatusApproved},
		{Category: CategoryProofOfAddress, Status: StatusRejected},
		{Category: CategoryOther, Status: StatusUnderReview},
	}

	slots := Slots(records)
	require.Len(t, slots, 5)
	assert.Equal(t, CategoryTaxRegistration, slots[0].Category)
	assert.Equal(t, StatusApproved, slots[0].Status)
	assert.Equal(t, StatusPending, slots[1].Status)
	assert.Nil(t, slots[1].Record)

	assert.Equal(t, []Category{CategoryArticlesOfIncorporation, CategoryProofOfAddress}, MissingRequired(records))
	assert.Len(t, MissingRequired(nil), 3)
}

func TestSlotsSkipsNilRecords(t *testing.T) {
	records := []*Record{nil, {Category: CategoryTaxRegistration, Status: StatusApproved}, nil}

	slots := Slots(records)
	require.Len(t, slots, 5)
	assert.Equal(t, StatusApproved, slots[0].Status)
	assert.Equal(t, []Category{CategoryArticlesOfIncorporation, CategoryProofOfAddress}, MissingRequired(records))
	assert.Len(t, MissingRequired([]*Record{nil}), 3)
}
