package segmentation

// disjointSet is a union-find over provisional labels, indexed by label.
// Index 0 is the background and never unioned.
type disjointSet struct {
	parent []uint32
}

func newDisjointSet(capacity int) *disjointSet {
	ds := &disjointSet{parent: make([]uint32, 1, capacity+1)}
	return ds
}

// add creates a new singleton set and returns its label.
func (ds *disjointSet) add() uint32 {
	l := uint32(len(ds.parent))
	ds.parent = append(ds.parent, l)
	return l
}

// find returns the root of l, halving the path on the way.
func (ds *disjointSet) find(l uint32) uint32 {
	for ds.parent[l] != l {
		ds.parent[l] = ds.parent[ds.parent[l]]
		l = ds.parent[l]
	}
	return l
}

// union merges the sets of a and b. The smaller root wins, so every root is
// the smallest label of its class.
func (ds *disjointSet) union(a, b uint32) {
	ra, rb := ds.find(a), ds.find(b)
	switch {
	case ra < rb:
		ds.parent[rb] = ra
	case rb < ra:
		ds.parent[ra] = rb
	}
}

// Label assigns a positive label to every 8-connected foreground region of
// b and 0 to every background pixel. Labels are dense, 1..count, numbered in
// the order each region is first met in a row-major scan.
//
// The first pass hands out provisional labels and records equivalences from
// the already-visited neighbors (west, north-west, north, north-east); the
// second pass rewrites each provisional label to its dense final label.
func Label(b Gray) (Labels, uint32, error) {
	if err := b.validate(); err != nil {
		return Labels{}, 0, err
	}

	w, h := b.Width, b.Height
	labels := NewGrid[uint32](w, h)
	ds := newDisjointSet(64)

	for y := 0; y < h; y++ {
		row := y * w
		for x := 0; x < w; x++ {
			if b.Pix[row+x] == Background {
				continue
			}

			var neighbors [4]uint32
			n := 0
			if x > 0 && labels.Pix[row+x-1] != 0 {
				neighbors[n] = labels.Pix[row+x-1]
				n++
			}
			if y > 0 {
				up := row - w
				if x > 0 && labels.Pix[up+x-1] != 0 {
					neighbors[n] = labels.Pix[up+x-1]
					n++
				}
				if labels.Pix[up+x] != 0 {
					neighbors[n] = labels.Pix[up+x]
					n++
				}
				if x < w-1 && labels.Pix[up+x+1] != 0 {
					neighbors[n] = labels.Pix[up+x+1]
					n++
				}
			}

			if n == 0 {
				labels.Pix[row+x] = ds.add()
				continue
			}

			smallest := neighbors[0]
			for _, l := range neighbors[1:n] {
				if l < smallest {
					smallest = l
				}
			}
			labels.Pix[row+x] = smallest
			for _, l := range neighbors[:n] {
				if l != smallest {
					ds.union(smallest, l)
				}
			}
		}
	}

	// Roots are the smallest label of their class and classes are first
	// met in increasing label order, so one ascending sweep assigns dense
	// labels in scan order.
	final := make([]uint32, len(ds.parent))
	var count uint32
	for l := uint32(1); l < uint32(len(ds.parent)); l++ {
		root := ds.find(l)
		if root == l {
			count++
			final[l] = count
		} else {
			final[l] = final[root]
		}
	}

	for i, l := range labels.Pix {
		if l != 0 {
			labels.Pix[i] = final[l]
		}
	}
	return labels, count, nil
}
