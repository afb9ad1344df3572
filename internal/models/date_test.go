package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

func TestDate_JSON(t *testing.T) {
	d := NewDate(2019, time.July, 4)

	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `"2019-07-04"` {
		t.Fatalf("marshal = %s", b)
	}

	var got Date
	if err := json.Unmarshal([]byte(`"2019-07-04"`), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !got.Equal(d.Time) {
		t.Fatalf("got %v, want %v", got, d)
	}

	if err := json.Unmarshal([]byte(`"04/07/2019"`), &got); err == nil {
		t.Fatal("expected error for wrong layout")
	}

	var zero Date
	if err := json.Unmarshal([]byte(`null`), &zero); err != nil || !zero.IsZero() {
		t.Fatalf("null should decode to zero date, got %v, %v", zero, err)
	}
}

func TestDate_Msgpack(t *testing.T) {
	in := *sampleEmployee("Ada")

	b, err := msgpack.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var out Employee
	if err := msgpack.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out != in {
		t.Fatalf("got %+v, want %+v", out, in)
	}
}

func TestDate_Scan(t *testing.T) {
	var d Date
	if err := d.Scan(time.Date(2020, 2, 29, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("scan time: %v", err)
	}
	if d.String() != "2020-02-29" {
		t.Fatalf("got %s", d)
	}

	if err := d.Scan([]byte("2021-01-02T00:00:00Z")); err != nil || d.String() != "2021-01-02" {
		t.Fatalf("scan bytes: %v, %s", err, d)
	}

	if err := d.Scan(42); err == nil {
		t.Fatal("expected error for int")
	}

	v, err := NewDate(2020, 1, 1).Value()
	if err != nil || v != "2020-01-01" {
		t.Fatalf("Value = %v, %v", v, err)
	}
}
