// Package coderender turns payload text into a square, two-tone raster code.
//
// The compositor depends only on the Renderer interface. QR is the production
// implementation backed by github.com/skip2/go-qrcode; it bakes a one-module
// quiet margin into the raster and never truncates: text beyond the symbol's
// capacity fails with services.ErrPayloadTooLarge.
//
// Scan and ScanRegion read a symbol back out of an image using
// github.com/makiuchi-d/gozxing.
package coderender
