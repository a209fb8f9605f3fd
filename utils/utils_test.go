package utils

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
)

func TestTopN(t *testing.T) {
	items := []int{5, 1, 9, 3, 7, 2, 8}
	greater := func(a, b int) bool { return a > b }

	assert.Equal(t, TopN(items, 3, greater), []int{9, 8, 7})
	assert.Equal(t, TopN(items, 10, greater), []int{9, 8, 7, 5, 3, 2, 1})
	assert.Equal(t, len(TopN(items, 0, greater)), 0)
	assert.Equal(t, items, []int{5, 1, 9, 3, 7, 2, 8})
}

func TestBase58RoundTrip(t *testing.T) {
	addr := "0x02b4632d08485ff1df2db55b9dafd23347d1c47a457072a1e87be26896549a8737"

	encoded := EncodeToBase58(addr)
	assert.NotEqual(t, encoded, "")

	decoded, err := DecodeBase58(encoded)
	assert.Equal(t, err, nil)
	assert.Equal(t, decoded, addr)

	normalized, err := NormalizeAddress(encoded)
	assert.Equal(t, err, nil)
	assert.Equal(t, normalized, addr)

	normalized, err = NormalizeAddress(strings.Replace(addr, "b4", "B4", 1))
	assert.Equal(t, err, nil)
	assert.Equal(t, normalized, addr)
}

func TestInvalidAddresses(t *testing.T) {
	for _, addr := range []string{"0xzz", "not-base58-0OIl", ""} {
		_, err := NormalizeAddress(addr)
		assert.Equal(t, errors.Is(err, ErrInvalidAddress), true)
	}
	assert.Equal(t, EncodeToBase58("nope"), "")
}

func TestReporter(t *testing.T) {
	r := NewReporter(3, time.Hour, "mined [%d] blocks in [%.2fs], speed [%.2fblocks/sec]")

	ok, _ := r.Add(2)
	assert.Equal(t, ok, false)
	ok, report := r.Add(1)
	assert.Equal(t, ok, true)
	assert.Equal(t, strings.HasPrefix(report, "mined [3] blocks"), true)

	r.Add(1)
	assert.Equal(t, strings.HasPrefix(r.Report(), "mined [1] blocks"), true)
	assert.Equal(t, r.Count(), 4)
}
