// Package pinshape gives each placed pin its orientation and rectangular
// footprint. Every problem found here is reported as a warning; a pin shape
// never aborts a placement.
package pinshape
