package tilefit_test

import (
	"context"
	"fmt"
	"log"

	"github.com/hupe1980/tilefit"
	"github.com/hupe1980/tilefit/sample"
)

func Example() {
	ctx := context.Background()

	// Samples on the plane z = 2x + 3y + 1.
	var coords [][]float64
	var values []float64
	for i := 0; i < 5; i++ {
		for j := 0; j < 5; j++ {
			x := float64(i) / 4
			y := float64(j) / 4
			coords = append(coords, []float64{x, y})
			values = append(values, 2*x+3*y+1)
		}
	}

	store, err := sample.NewStore(coords, values)
	if err != nil {
		log.Fatal(err)
	}

	model, err := tilefit.Build(ctx, store, tilefit.Config{
		ErrorThreshold: 1e-9,
		MaxDepth:       8,
		MinExtent:      1e-6,
	})
	if err != nil {
		log.Fatal(err)
	}

	z, err := model.Evaluate(ctx, []float64{0.5, 0.5})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("tiles: %d\n", model.Stats().Leaves)
	fmt.Printf("f(0.5, 0.5) = %.2f\n", z)
	// Output:
	// tiles: 1
	// f(0.5, 0.5) = 3.50
}
