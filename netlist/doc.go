// Package netlist models boundary pins, the instance pins they connect to,
// pin groups and mirrored pairs. Wirelength (HPWL) computed here is the only
// cost the placement engines optimise.
package netlist
