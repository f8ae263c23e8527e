package benchmark

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yndnr/minikv/internal/storage"
)

// BenchmarkStoreInsert benchmarks inserts into a prefilled store.
func BenchmarkStoreInsert(b *testing.B) {
	runWithKeyCounts(b, KeyCounts, func(b *testing.B, count int) {
		store := storage.New()
		prefillStore(store, count)

		b.ResetTimer()
		b.ReportAllocs()

		for i := 0; i < b.N; i++ {
			store.Insert(keyOf(i%count), "value", storage.NoExpiry)
		}

		b.StopTimer()
		reportMemory(b, "mem")
	})
}

// BenchmarkStoreGet benchmarks reads of present keys.
func BenchmarkStoreGet(b *testing.B) {
	runWithKeyCounts(b, KeyCounts, func(b *testing.B, count int) {
		store := storage.New()
		prefillStore(store, count)

		b.ResetTimer()
		b.ReportAllocs()

		for i := 0; i < b.N; i++ {
			if _, ok := store.Get(keyOf(i % count)); !ok {
				b.Fatal("Get missed a prefilled key")
			}
		}
	})
}

// BenchmarkStoreGetExpired benchmarks reads that trigger lazy expiry.
func BenchmarkStoreGetExpired(b *testing.B) {
	now := time.Now()
	clock := func() time.Time { return now }
	store := storage.New(storage.WithClock(clock))

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		now = time.Unix(0, 0)
		store.Insert("k", "v", time.Second)
		now = time.Unix(2, 0)
		b.StartTimer()

		if _, ok := store.Get("k"); ok {
			b.Fatal("expired key returned")
		}
	}
}

// BenchmarkStoreMixedParallel benchmarks a 90/10 read/write mix across
// goroutines sharing one store.
func BenchmarkStoreMixedParallel(b *testing.B) {
	for _, count := range []int{1000, 100000} {
		b.Run(fmt.Sprintf("keys_%d", count), func(b *testing.B) {
			store := storage.New()
			prefillStore(store, count)
			var seq atomic.Int64

			b.ResetTimer()
			b.ReportAllocs()

			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					i := int(seq.Add(1))
					key := keyOf(i % count)
					if i%10 == 0 {
						store.Insert(key, "value", storage.NoExpiry)
					} else {
						store.Get(key)
					}
				}
			})
		})
	}
}
