package backing

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/fulldump/biff"
)

func TestCoerce(t *testing.T) {
	cases := []struct {
		t        Type
		in       any
		expected any
	}{
		{TypeInteger, 3, int64(3)},
		{TypeInteger, 3.0, int64(3)},
		{TypeInteger, json.Number("12"), int64(12)},
		{TypeFloat, 3, 3.0},
		{TypeString, []byte("hi"), "hi"},
		{TypeBool, int64(1), true},
		{TypeBytes, "raw", []byte("raw")},
		{TypeTime, "2024-05-01T10:00:00Z", time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{TypeAny, int32(5), int64(5)},
		{TypeString, nil, nil},
	}
	for _, c := range cases {
		v, err := Coerce(c.t, c.in)
		biff.AssertNil(err)
		biff.AssertEqual(v, c.expected)
	}

	_, err := Coerce(TypeInteger, 3.5)
	biff.AssertTrue(errors.Is(err, ErrTypeMismatch))
	_, err = Coerce(TypeBool, "yes")
	biff.AssertTrue(errors.Is(err, ErrTypeMismatch))
}

func TestCompare(t *testing.T) {
	c, err := Compare(int64(2), 2.5)
	biff.AssertNil(err)
	biff.AssertEqual(c, -1)

	c, _ = Compare(nil, "a")
	biff.AssertEqual(c, -1)

	_, err = Compare("a", int64(1))
	biff.AssertTrue(errors.Is(err, ErrTypeMismatch))

	c, _ = CompareTuples([]any{int64(1), "b"}, []any{int64(1), "a"})
	biff.AssertEqual(c, 1)

	biff.AssertTrue(Equal(int64(3), 3.0))
	biff.AssertFalse(Equal(nil, int64(0)))
	biff.AssertTrue(Equal([]byte("x"), []byte("x")))
}

func TestTypes(t *testing.T) {
	biff.AssertEqual(ParseDatabaseType("varchar(20)"), TypeString)
	biff.AssertEqual(ParseDatabaseType("INTEGER"), TypeInteger)
	biff.AssertEqual(ParseDatabaseType("geometry"), TypeAny)
	biff.AssertEqual(TypeFloat.Family(), TypeInteger.Family())
	biff.AssertFalse(TypeBytes.Sortable())
}
