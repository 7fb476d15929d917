package keys

import (
	"errors"
	"sync"
	"testing"
)

func TestNextRoundRobin(t *testing.T) {
	pool := []string{"sk-a", "sk-b", "sk-c"}
	r := NewRotator(pool)

	for round := 0; round < 2; round++ {
		for i, want := range pool {
			got, err := r.Next()
			if err != nil {
				t.Fatal(err)
			}
			if got != want {
				t.Fatalf("round %d pick %d: got %q, want %q", round, i, got, want)
			}
		}
	}
}

func TestNextSingleKey(t *testing.T) {
	r := NewRotator([]string{"only"})
	for i := 0; i < 3; i++ {
		if got, _ := r.Next(); got != "only" {
			t.Fatalf("got %q", got)
		}
	}
}

func TestEmptyPool(t *testing.T) {
	r := NewRotator(nil)
	if _, err := r.Next(); !errors.Is(err, ErrEmptyPool) {
		t.Errorf("Next: expected ErrEmptyPool, got %v", err)
	}
	if _, err := r.Random(); !errors.Is(err, ErrEmptyPool) {
		t.Errorf("Random: expected ErrEmptyPool, got %v", err)
	}
}

func TestRandomUsesIndependentPicks(t *testing.T) {
	r := NewRotator([]string{"a", "b", "c"})
	picks := []int{2, 0, 2, 1}
	r.intn = func(n int) int {
		if n != 3 {
			t.Fatalf("unexpected n %d", n)
		}
		p := picks[0]
		picks = picks[1:]
		return p
	}
	var got []string
	for i := 0; i < 4; i++ {
		k, err := r.Random()
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, k)
	}
	want := []string{"c", "a", "c", "b"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("pick %d: got %q, want %q", i, got[i], want[i])
		}
	}
	if k, _ := r.Next(); k != "a" {
		t.Errorf("Random must not advance the cursor, Next returned %q", k)
	}
}

func TestRandomStaysInPool(t *testing.T) {
	pool := map[string]bool{"x": true, "y": true}
	r := NewRotator([]string{"x", "y"})
	for i := 0; i < 100; i++ {
		k, _ := r.Random()
		if !pool[k] {
			t.Fatalf("random key %q not in pool", k)
		}
	}
}

func TestNextConcurrentDistributes(t *testing.T) {
	r := NewRotator([]string{"a", "b"})
	var mu sync.Mutex
	counts := map[string]int{}
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			k, _ := r.Next()
			mu.Lock()
			counts[k]++
			mu.Unlock()
		}()
	}
	wg.Wait()
	if counts["a"] != 50 || counts["b"] != 50 {
		t.Errorf("expected even split, got %v", counts)
	}
}

func TestPoolIsCopied(t *testing.T) {
	src := []string{"a", "b"}
	r := NewRotator(src)
	src[0] = "mutated"
	if k, _ := r.Next(); k != "a" {
		t.Errorf("rotator must not alias the caller's slice, got %q", k)
	}
}
