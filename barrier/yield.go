package barrier

import "runtime"

// politeYield is split into its own file so SpinPolite's cost model is easy
// to spot in isolation — one Gosched call per idle iteration.
func politeYield() {
	runtime.Gosched()
}
