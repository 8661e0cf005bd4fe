// Package segmentation turns a grayscale pixel grid into measured blobs.
//
// The pipeline is a chain of pure transforms, each producing a fresh grid:
//
//  1. Binarize: global or locally adaptive threshold to a {0,255} mask
//  2. Open: erosion then dilation with a StructuringElement (removes specks)
//  3. Dilate (optional): extra growth to smooth edges
//  4. Close: dilation then erosion (fills pinholes)
//  5. Label: 8-connected component labeling with union-find
//  6. Aggregate: per-label area, bounding box and centroid
//  7. Filter: keep components whose area exceeds the minimum
//
// Segment runs the whole chain and returns only the accepted components. Run
// returns the intermediate masks as well, for callers that want to preview
// what the thresholding and cleanup produced.
//
// # Coordinate System
//
// Grids are row-major with (0,0) at the top-left corner. Bounding boxes are
// inclusive on both ends: a single pixel at (3,4) has BBox{3,4,3,4}.
//
// # Errors
//
// Configuration is validated before any pixel is touched. Problems with the
// configuration wrap ErrInvalidConfig, problems with the input grid wrap
// ErrInvalidImage. Use errors.Is to tell them apart.
//
// # Thread Safety
//
// No function in this package keeps state between calls. Stages split rows
// into bands processed by Config.Workers goroutines; results do not depend on
// the worker count.
package segmentation
