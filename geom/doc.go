// Package geom holds the integer geometry shared by every stage of the pin
// placer: points, axis-aligned rectangles, the four boundary edges, edge
// intervals, pin directions and pin orientations.
//
// All coordinates are database units (plain ints). Rectangles are closed:
// a point on the border is inside.
//
// Boundary walk:
//
//	           <---- Top ----
//	     *------------------------x upper
//	     |                        |
//	Left |                        | Right
//	  |  |                        |  ^
//	  v  |                        |  |
//	     x------------------------*
//	lower      ---- Bottom ---->
//
// Edges are enumerated in that walk order (Bottom, Right, Top, Left), which is
// also the order in which the slot grid is generated.
package geom
