// Package tilefit approximates a scalar field over scattered N-dimensional
// samples by piecewise-linear regression: the bounding domain is adaptively
// partitioned into axis-aligned tiles and an affine model (hyperplane) is
// fit to the samples of each tile.
//
// Tiles that cannot gather the N+1 points required for a well-posed affine
// fit borrow neighbors through a "virtual region": the tile's gather bounds
// grow outward until enough points are covered, and shrink back as far as
// the point floor allows once the fit succeeds. Tiles are fit independently;
// the fitted field may be discontinuous across tile boundaries.
//
// # Quick Start
//
//	store, _ := sample.NewStore(coords, values)
//	model, _ := tilefit.Build(ctx, store, tilefit.Config{
//	    ErrorThreshold: 1e-6,
//	    MaxDepth:       8,
//	    MinExtent:      0.01,
//	})
//
//	y, _ := model.Evaluate(ctx, []float64{0.3, 1.7})
//	t, _ := model.Locate(ctx, []float64{0.3, 1.7})
//
// # Persistence
//
// Models serialize to a compact binary snapshot that round-trips exactly:
//
//	_ = model.SaveToFile(ctx, "field.tile")
//	model, _ = tilefit.LoadFromFile(ctx, "field.tile")
//
// Snapshots can also live in a blobstore (local directory, MinIO, S3):
//
//	_ = model.SaveToBlob(ctx, blobstore.NewLocalStore("./models"), "field.tile")
//	model, _ = tilefit.LoadFromBlob(ctx, store, "field.tile")
package tilefit
