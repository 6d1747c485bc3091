// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/recipesearch/core"
)

// Record layout version, written first in every record.
const recordVersion = 1

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, varint.Int64.Size(int64(id)))
	varint.Int64.Marshal(int64(id), buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	d := decoder{bs: data}
	id := d.int64()
	if err := d.finish(); err != nil {
		return 0, err
	}
	return core.ID(id), nil
}

// MarshalTicket serializes a Ticket to bytes.
func MarshalTicket(t *core.Ticket) []byte {
	var e encoder
	e.int(recordVersion)
	e.string(string(t.Id))
	e.string(t.CollectionId)
	e.string(t.Content)
	e.int(t.Position)
	e.time(t.CreatedAt)
	e.time(t.UpdatedAt)
	return e.bytes()
}

// UnmarshalTicket deserializes a Ticket from bytes.
func UnmarshalTicket(data []byte) (*core.Ticket, error) {
	d := decoder{bs: data}
	if err := d.version(); err != nil {
		return nil, err
	}
	t := &core.Ticket{
		Id:           core.TicketID(d.string()),
		CollectionId: d.string(),
		Content:      d.string(),
		Position:     d.int(),
		CreatedAt:    d.time(),
		UpdatedAt:    d.time(),
	}
	if err := d.finish(); err != nil {
		return nil, err
	}
	return t, nil
}

// MarshalRecipe serializes a Recipe to bytes.
func MarshalRecipe(r *core.Recipe) []byte {
	var e encoder
	e.int(recordVersion)
	e.int64(int64(r.Id))
	e.string(string(r.TicketId))
	e.string(r.Title)
	e.strings(r.Ingredients)
	e.strings(r.Instructions)
	e.string(r.Notes)
	e.time(r.CreatedAt)
	e.time(r.UpdatedAt)
	return e.bytes()
}

// UnmarshalRecipe deserializes a Recipe from bytes.
func UnmarshalRecipe(data []byte) (*core.Recipe, error) {
	d := decoder{bs: data}
	if err := d.version(); err != nil {
		return nil, err
	}
	r := &core.Recipe{
		Id:           core.ID(d.int64()),
		TicketId:     core.TicketID(d.string()),
		Title:        d.string(),
		Ingredients:  d.strings(),
		Instructions: d.strings(),
		Notes:        d.string(),
		CreatedAt:    d.time(),
		UpdatedAt:    d.time(),
	}
	if err := d.finish(); err != nil {
		return nil, err
	}
	return r, nil
}

// encoder appends mus-encoded fields. Each field is sized first so the
// buffer grows once per field.
type encoder struct {
	buf []byte
}

func (e *encoder) grow(n int) []byte {
	start := len(e.buf)
	e.buf = append(e.buf, make([]byte, n)...)
	return e.buf[start:]
}

func (e *encoder) string(v string) {
	ord.String.Marshal(v, e.grow(ord.String.Size(v)))
}

func (e *encoder) int(v int) {
	varint.Int.Marshal(v, e.grow(varint.Int.Size(v)))
}

func (e *encoder) int64(v int64) {
	varint.Int64.Marshal(v, e.grow(varint.Int64.Size(v)))
}

func (e *encoder) bool(v bool) {
	ord.Bool.Marshal(v, e.grow(ord.Bool.Size(v)))
}

// time stores a presence flag and Unix nanoseconds, so the zero time
// survives a round trip.
func (e *encoder) time(t time.Time) {
	e.bool(!t.IsZero())
	if !t.IsZero() {
		e.int64(t.UnixNano())
	}
}

func (e *encoder) strings(vs []string) {
	e.int(len(vs))
	for _, v := range vs {
		e.string(v)
	}
}

func (e *encoder) bytes() []byte {
	return e.buf
}

// decoder reads fields in order and remembers the first error; later reads
// return zero values.
type decoder struct {
	bs  []byte
	n   int
	err error
}

func (d *decoder) fail(err error) {
	if d.err == nil {
		d.err = fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
}

func (d *decoder) rest() []byte {
	if d.err != nil {
		return nil
	}
	if d.n >= len(d.bs) {
		d.err = fmt.Errorf("%w: %w", ErrSerializationFailed, ErrTruncatedData)
		return nil
	}
	return d.bs[d.n:]
}

func (d *decoder) string() string {
	bs := d.rest()
	if bs == nil {
		return ""
	}
	v, n, err := ord.String.Unmarshal(bs)
	if err != nil {
		d.fail(err)
		return ""
	}
	d.n += n
	return v
}

func (d *decoder) int() int {
	bs := d.rest()
	if bs == nil {
		return 0
	}
	v, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		d.fail(err)
		return 0
	}
	d.n += n
	return v
}

func (d *decoder) int64() int64 {
	bs := d.rest()
	if bs == nil {
		return 0
	}
	v, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		d.fail(err)
		return 0
	}
	d.n += n
	return v
}

func (d *decoder) bool() bool {
	bs := d.rest()
	if bs == nil {
		return false
	}
	v, n, err := ord.Bool.Unmarshal(bs)
	if err != nil {
		d.fail(err)
		return false
	}
	d.n += n
	return v
}

func (d *decoder) time() time.Time {
	if !d.bool() {
		return time.Time{}
	}
	return time.Unix(0, d.int64()).UTC()
}

func (d *decoder) strings() []string {
	n := d.int()
	if n < 0 || n > len(d.bs)-d.n {
		d.fail(fmt.Errorf("invalid list length %d", n))
		return nil
	}
	if n == 0 {
		return nil
	}
	out := make([]string, n)
	for i := range out {
		out[i] = d.string()
	}
	return out
}

func (d *decoder) version() error {
	v := d.int()
	if d.err != nil {
		return d.err
	}
	if v != recordVersion {
		return fmt.Errorf("%w: %w: %d", ErrSerializationFailed, ErrUnsupportedVersion, v)
	}
	return nil
}

// finish reports the first error, or trailing bytes left after the last field.
func (d *decoder) finish() error {
	if d.err != nil {
		return d.err
	}
	if d.n != len(d.bs) {
		return fmt.Errorf("%w: %d trailing bytes", ErrSerializationFailed, len(d.bs)-d.n)
	}
	return nil
}
