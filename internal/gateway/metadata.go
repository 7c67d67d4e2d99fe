package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"

	"storefront-service/internal/entity"
)

// Note layout written on every gateway order:
//
//	v            format version, "1"
//	user_id      buyer
//	coupon_code  redeemed coupon, may be empty
//	items_n      number of item chunks
//	items_<i>    i-th chunk of [{"p":id,"q":qty,"a":unit}]
//
// The gateway caps a note value at 256 characters and an order at 15 notes,
// which leaves 11 notes for items.
const (
	MetadataVersion = "1"
	maxNoteLen      = 256
	maxItemChunks   = 11
)

var ErrInvalidMetadata = errors.New("invalid session metadata")

type metadataItem struct {
	ProductID string `json:"p"`
	Quantity  int    `json:"q"`
	Amount    int64  `json:"a"`
}

// EncodeMetadata lays the session out as gateway notes. Carts too large for
// the note budget are rejected with ErrInvalidMetadata.
func EncodeMetadata(m entity.SessionMetadata) (Notes, error) {
	if m.UserID == "" || len(m.UserID) > maxNoteLen || len(m.CouponCode) > maxNoteLen {
		return nil, fmt.Errorf("%w: bad user id or coupon code", ErrInvalidMetadata)
	}
	if len(m.Items) == 0 {
		return nil, fmt.Errorf("%w: no items", ErrInvalidMetadata)
	}

	items := make([]metadataItem, len(m.Items))
	for i, it := range m.Items {
		items[i] = metadataItem{ProductID: it.ProductID, Quantity: it.Quantity, Amount: int64(it.Price)}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}

	chunks := chunk(string(raw), maxNoteLen)
	if len(chunks) > maxItemChunks {
		return nil, fmt.Errorf("%w: cart too large for gateway notes", ErrInvalidMetadata)
	}

	notes := Notes{
		"v":           MetadataVersion,
		"user_id":     m.UserID,
		"coupon_code": m.CouponCode,
		"items_n":     strconv.Itoa(len(chunks)),
	}
	for i, c := range chunks {
		notes["items_"+strconv.Itoa(i)] = c
	}
	return notes, nil
}

// DecodeMetadata is the inverse of EncodeMetadata and rejects anything it
// would not have produced.
func DecodeMetadata(notes Notes) (entity.SessionMetadata, error) {
	var m entity.SessionMetadata
	if notes["v"] != MetadataVersion {
		return m, fmt.Errorf("%w: unsupported version %q", ErrInvalidMetadata, notes["v"])
	}
	m.UserID = notes["user_id"]
	m.CouponCode = notes["coupon_code"]
	if m.UserID == "" {
		return m, fmt.Errorf("%w: missing user id", ErrInvalidMetadata)
	}

	n, err := strconv.Atoi(notes["items_n"])
	if err != nil || n < 1 || n > maxItemChunks {
		return m, fmt.Errorf("%w: bad item chunk count", ErrInvalidMetadata)
	}
	var raw string
	for i := 0; i < n; i++ {
		c, ok := notes["items_"+strconv.Itoa(i)]
		if !ok || c == "" || len(c) > maxNoteLen {
			return m, fmt.Errorf("%w: bad item chunk %d", ErrInvalidMetadata, i)
		}
		raw += c
	}

	var items []metadataItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return m, fmt.Errorf("%w: %v", ErrInvalidMetadata, err)
	}
	if len(items) == 0 {
		return m, fmt.Errorf("%w: no items", ErrInvalidMetadata)
	}
	for _, it := range items {
		if it.ProductID == "" || it.Quantity <= 0 || it.Amount < 0 {
			return m, fmt.Errorf("%w: bad item %q", ErrInvalidMetadata, it.ProductID)
		}
		m.Items = append(m.Items, entity.OrderItem{ProductID: it.ProductID, Quantity: it.Quantity, Price: entity.Money(it.Amount)})
	}
	return m, nil
}

// chunk splits s into pieces of at most size bytes without cutting a rune.
func chunk(s string, size int) []string {
	var out []string
	for len(s) > size {
		cut := size
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		out = append(out, s[:cut])
		s = s[cut:]
	}
	if s != "" {
		out = append(out, s)
	}
	return out
}
