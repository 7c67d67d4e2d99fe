package gateway

import (
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/entity"
)

func TestMetadata_RoundTripAcrossChunks(t *testing.T) {
	m := entity.SessionMetadata{UserID: "user-1", CouponCode: "GIFTQWERTY"}
	for i := 0; i < 40; i++ {
		m.Items = append(m.Items, entity.OrderItem{ProductID: fmt.Sprintf("8f2c6d1e-%04d", i), Quantity: i + 1, Price: entity.Money(1000 * (i + 1))})
	}

	notes, err := EncodeMetadata(m)
	require.NoError(t, err)
	n, err := strconv.Atoi(notes["items_n"])
	require.NoError(t, err)
	assert.Greater(t, n, 1)
	assert.LessOrEqual(t, len(notes), 15)
	for k, v := range notes {
		assert.LessOrEqual(t, len(v), maxNoteLen, k)
	}

	got, err := DecodeMetadata(notes)
	require.NoError(t, err)
	assert.Equal(t, m, got)
}

func TestEncodeMetadata_TooLarge(t *testing.T) {
	m := entity.SessionMetadata{UserID: "user-1"}
	for i := 0; i < 200; i++ {
		m.Items = append(m.Items, entity.OrderItem{ProductID: fmt.Sprintf("product-with-a-long-identifier-%04d", i), Quantity: 1, Price: 100})
	}
	_, err := EncodeMetadata(m)
	assert.ErrorIs(t, err, ErrInvalidMetadata)
}

func TestDecodeMetadata_Rejects(t *testing.T) {
	valid := func() Notes {
		notes, err := EncodeMetadata(entity.SessionMetadata{UserID: "user-1", Items: []entity.OrderItem{{ProductID: "p1", Quantity: 3, Price: 100000}}})
		require.NoError(t, err)
		return notes
	}

	tests := []struct {
		name   string
		mutate func(Notes)
	}{
		{name: "unknown version", mutate: func(n Notes) { n["v"] = "2" }},
		{name: "missing user", mutate: func(n Notes) { delete(n, "user_id") }},
		{name: "missing chunk", mutate: func(n Notes) { n["items_n"] = "2" }},
		{name: "bad chunk count", mutate: func(n Notes) { n["items_n"] = "x" }},
		{name: "bad json", mutate: func(n Notes) { n["items_0"] = `[{"p":"p1"` }},
		{name: "empty items", mutate: func(n Notes) { n["items_0"] = `[]` }},
		{name: "zero quantity", mutate: func(n Notes) { n["items_0"] = `[{"p":"p1","q":0,"a":1}]` }},
		{name: "negative amount", mutate: func(n Notes) { n["items_0"] = `[{"p":"p1","q":1,"a":-1}]` }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notes := valid()
			tt.mutate(notes)
			_, err := DecodeMetadata(notes)
			assert.ErrorIs(t, err, ErrInvalidMetadata)
		})
	}
}

func TestChunk_KeepsRunesWhole(t *testing.T) {
	s := "aéü"
	parts := chunk(s, 2)
	assert.Equal(t, []string{"a", "é", "ü"}, parts)
}
