package loops

func pairs(xs []int) int {
	n := 0
	for _, a := range xs {
		for _, b := range xs { // want `loop nested 2 deep in function 'pairs'`
			if a < b {
				n++
			}
		}
	}
	return n
}
