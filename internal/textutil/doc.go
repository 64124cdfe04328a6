// Package textutil sanitizes names that end up on the filesystem.
package textutil
