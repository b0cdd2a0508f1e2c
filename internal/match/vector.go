package match

import "math"

// sparse is a vector stored as parallel index/value slices sorted by index.
type sparse struct {
	idx []int
	val []float64
}

// dot computes the dot product of two sparse vectors.
func dot(a, b sparse) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(a.idx) && j < len(b.idx) {
		switch {
		case a.idx[i] == b.idx[j]:
			sum += a.val[i] * b.val[j]
			i++
			j++
		case a.idx[i] < b.idx[j]:
			i++
		default:
			j++
		}
	}
	return sum
}

func norm2(v sparse) float64 {
	var sum float64
	for _, x := range v.val {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// cosine computes cosine similarity. A zero vector on either side yields 0.
func cosine(a, b sparse) float64 {
	den := norm2(a) * norm2(b)
	if den == 0 {
		return 0
	}
	s := dot(a, b) / den
	if s > 1 {
		return 1
	}
	return s
}

// normalizeL2 returns a new vector scaled to unit L2 norm. Zero vectors are copied as-is.
func normalizeL2(v sparse) sparse {
	out := sparse{idx: append([]int(nil), v.idx...), val: make([]float64, len(v.val))}
	n := norm2(v)
	if n == 0 {
		copy(out.val, v.val)
		return out
	}
	for i, x := range v.val {
		out.val[i] = x / n
	}
	return out
}
