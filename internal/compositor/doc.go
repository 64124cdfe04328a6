// Package compositor overlays a rendered code onto a base photo.
//
// The output always has the photo's exact dimensions. The code occupies a
// square of side floor(min(W, H) / 4) anchored Padding pixels from the
// bottom-right corner, sits on a translucent white backing that extends
// BackingInset pixels beyond it, and carries a right-aligned identifier
// label just above the backing. Given the same inputs Compose produces
// byte-identical pixels.
package compositor
