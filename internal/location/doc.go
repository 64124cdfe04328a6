// Package location acquires an optional GPS fix for a cargo record.
//
// Acquisition is best effort. Every failure is a *Failure carrying one of
// four reasons and matching services.ErrLocationUnavailable; Resolve folds
// failures into a nil fix so the record is serialized with a null location.
package location
