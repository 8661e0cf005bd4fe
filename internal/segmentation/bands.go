package segmentation

import (
	"runtime"
	"sync"
)

// forEachBand splits rows [0, height) into at most workers contiguous bands
// and calls fn(band, y0, y1) for each one concurrently. fn must only write
// to rows inside its band.
func forEachBand(height, workers int, fn func(band, y0, y1 int)) {
	if workers > height {
		workers = height
	}
	if workers <= 1 {
		fn(0, 0, height)
		return
	}

	rowsPerBand := (height + workers - 1) / workers

	var wg sync.WaitGroup
	for b := 0; b < workers; b++ {
		y0 := b * rowsPerBand
		if y0 >= height {
			break
		}
		y1 := y0 + rowsPerBand
		if y1 > height {
			y1 = height
		}
		wg.Add(1)
		go func(band, y0, y1 int) {
			defer wg.Done()
			fn(band, y0, y1)
		}(b, y0, y1)
	}
	wg.Wait()
}

// bandCount returns how many bands forEachBand will use.
func bandCount(height, workers int) int {
	if workers > height {
		workers = height
	}
	if workers <= 1 {
		return 1
	}
	rowsPerBand := (height + workers - 1) / workers
	return (height + rowsPerBand - 1) / rowsPerBand
}

func defaultWorkers() int {
	return runtime.NumCPU()
}
