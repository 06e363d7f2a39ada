package httpembed

// MeanPool collapses token-level states into one vector: the sum of token
// vectors weighted by the validity mask, divided by the number of valid
// tokens. The denominator is floored at 1 so degenerate input cannot divide
// by zero. A nil mask counts every token as valid.
func MeanPool(tokens [][]float32, mask []float32) []float32 {
	if len(tokens) == 0 {
		return nil
	}

	dim := len(tokens[0])
	sum := make([]float64, dim)
	var count float64

	for i, token := range tokens {
		weight := 1.0
		if mask != nil {
			if i >= len(mask) {
				break
			}
			weight = float64(mask[i])
		}
		if weight == 0 {
			continue
		}
		count += weight
		for j := 0; j < dim && j < len(token); j++ {
			sum[j] += weight * float64(token[j])
		}
	}

	if count < 1 {
		count = 1
	}

	pooled := make([]float32, dim)
	for j := range sum {
		pooled[j] = float32(sum[j] / count)
	}
	return pooled
}
