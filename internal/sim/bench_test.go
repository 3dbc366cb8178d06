package sim

import (
	"math/rand"
	"testing"

	"github.com/san-kum/lorenzsim/internal/dynamo"
)

func benchmarkStep(b *testing.B, trajectories, workers int) {
	e, err := NewEnsemble(1024, dynamo.DefaultParams(), WithSeed(1), WithWorkers(workers))
	if err != nil {
		b.Fatal(err)
	}
	r := rand.New(rand.NewSource(1))
	for i := 0; i < trajectories; i++ {
		if _, err := e.Add(Generate(r)); err != nil {
			b.Fatal(err)
		}
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Step()
	}
}

func BenchmarkStep32(b *testing.B)           { benchmarkStep(b, 32, 1) }
func BenchmarkStep1024(b *testing.B)         { benchmarkStep(b, 1024, 1) }
func BenchmarkStep1024Parallel(b *testing.B) { benchmarkStep(b, 1024, 0) }
