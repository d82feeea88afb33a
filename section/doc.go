// Package section splits the slot grid into sections and distributes pins and
// pin groups over them, so that each section can be solved as an independent
// assignment problem.
package section
