package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/ValentinKolb/recfs/lib/record"
)

func TestPutGet(t *testing.T) {
	c := New()

	if _, ok := c.Get("foo", "1"); ok {
		t.Errorf("Expected empty cache to miss")
	}

	c.Put("foo", "1", record.Record{"id": int64(1)})
	c.Put("bar", "1", record.Record{"id": int64(1), "bar": true})

	r, ok := c.Get("foo", "1")
	if !ok || !record.Equal(r, record.Record{"id": int64(1)}) {
		t.Errorf("Unexpected record %v (ok=%v)", r, ok)
	}
	if r, _ := c.Get("bar", "1"); r["bar"] != true {
		t.Errorf("Expected types to be separate, got %v", r)
	}

	c.Put("foo", "1", record.Record{"id": int64(1), "v": int64(2)})
	if r, _ := c.Get("foo", "1"); r["v"] != int64(2) {
		t.Errorf("Expected Put to overwrite, got %v", r)
	}
}

func TestPutIfAbsent(t *testing.T) {
	c := New()
	if !c.PutIfAbsent("foo", "1", record.Record{"id": "1"}) {
		t.Errorf("Expected first PutIfAbsent to store")
	}
	if c.PutIfAbsent("foo", "1", record.Record{"id": "1", "x": true}) {
		t.Errorf("Expected second PutIfAbsent to fail")
	}
	if r, _ := c.Get("foo", "1"); len(r) != 1 {
		t.Errorf("Expected the first record to be kept, got %v", r)
	}
}

func TestDeleteAndIDs(t *testing.T) {
	c := New()
	for _, id := range []string{"3", "1", "2"} {
		c.Put("foo", id, record.Record{"id": id})
	}

	if ids := c.IDs("foo"); fmt.Sprint(ids) != "[1 2 3]" {
		t.Errorf("Expected sorted ids, got %v", ids)
	}
	if !c.Delete("foo", "2") {
		t.Errorf("Expected delete of cached id to report true")
	}
	if c.Delete("foo", "2") || c.Delete("missing", "2") {
		t.Errorf("Expected delete of missing id to report false")
	}
	if c.Len("foo") != 2 {
		t.Errorf("Expected 2 records, got %d", c.Len("foo"))
	}

	c.Clear("foo")
	if c.Len("foo") != 0 || c.IDs("foo") != nil {
		t.Errorf("Expected Clear to drop the type")
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				id := fmt.Sprint(i % 50)
				c.Put("foo", id, record.Record{"id": id, "w": int64(w)})
				c.Get("foo", id)
				if i%7 == 0 {
					c.Delete("foo", id)
				}
			}
		}(w)
	}
	wg.Wait()

	if c.Len("foo") > 50 {
		t.Errorf("Expected at most 50 records, got %d", c.Len("foo"))
	}
}

func TestModify(t *testing.T) {
	c := New()
	if c.Modify("foo", "1", func(r record.Record) record.Record { return r }) {
		t.Errorf("Expected Modify of a missing id to report false")
	}
	if c.Len("foo") != 0 {
		t.Errorf("Expected Modify not to create records")
	}

	c.Put("foo", "1", record.Record{"id": "1", "n": int64(0)})
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Modify("foo", "1", func(r record.Record) record.Record {
				n := r.Clone()
				n["n"] = n["n"].(int64) + 1
				return n
			})
		}()
	}
	wg.Wait()

	if r, _ := c.Get("foo", "1"); r["n"] != int64(100) {
		t.Errorf("Expected 100 serialized modifications, got %v", r["n"])
	}
}
