// Package imaging connects image files to the segmentation pipeline and
// renders its results.
//
// Inbound, it decodes files (honoring EXIF orientation), caches them, and
// converts them to the luminance grid segmentation works on, optionally
// blurred first. Outbound, it renders binary masks and label maps, draws
// annotation overlays (bounding box, centroid dot, coordinate label) and
// crops single blobs, returning PNGs either as files or base64 payloads.
//
// # Coordinate System
//
// Coordinates are 0-based with (0,0) at the top-left corner. Images whose
// bounds do not start at the origin (sub-images) are re-anchored: pixel
// (0,0) of a grid or overlay is img.Bounds().Min of the source.
// Bounding boxes are inclusive, as in package segmentation.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. All other functions are stateless
// and return newly allocated images; source images are never modified.
//
// # Error Handling
//
// Files that exist but cannot be decoded produce errors wrapping ErrDecode.
// Open and stat failures wrap the underlying *os.PathError, so
// errors.Is(err, fs.ErrNotExist) works for missing files.
package imaging
