package topics

// distanceFunc measures dissimilarity between two feature vectors.
type distanceFunc func(a, b featureVector) float64

const noiseLabel = -1

// dbscan assigns a cluster index to every vector. Noise points get
// noiseLabel. Points are visited in input order, so the labeling is
// deterministic for a fixed input.
func dbscan(vecs []featureVector, eps float64, minPoints int, dist distanceFunc) []int {
	labels := make([]int, len(vecs))
	for i := range labels {
		labels[i] = noiseLabel
	}
	visited := make([]bool, len(vecs))

	next := 0
	for i := range vecs {
		if visited[i] {
			continue
		}
		visited[i] = true

		neighbors := regionQuery(vecs, i, eps, dist)
		if len(neighbors) < minPoints {
			continue
		}

		labels[i] = next
		expand(vecs, neighbors, labels, visited, next, eps, minPoints, dist)
		next++
	}
	return labels
}

func expand(vecs []featureVector, seeds []int, labels []int, visited []bool, cluster int, eps float64, minPoints int, dist distanceFunc) {
	for q := 0; q < len(seeds); q++ {
		j := seeds[q]
		if !visited[j] {
			visited[j] = true
			neighbors := regionQuery(vecs, j, eps, dist)
			if len(neighbors) >= minPoints {
				seeds = append(seeds, neighbors...)
			}
		}
		if labels[j] == noiseLabel {
			labels[j] = cluster
		}
	}
}

func regionQuery(vecs []featureVector, i int, eps float64, dist distanceFunc) []int {
	var out []int
	for j := range vecs {
		if dist(vecs[i], vecs[j]) <= eps {
			out = append(out, j)
		}
	}
	return out
}
