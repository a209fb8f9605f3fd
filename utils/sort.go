package utils

import "sort"

func partition[T any](arr []T, low, high int, less func(a, b T) bool) int {
	pivot := arr[high]
	i := low
	for j := low; j < high; j++ {
		if less(arr[j], pivot) {
			arr[i], arr[j] = arr[j], arr[i]
			i++
		}
	}
	arr[i], arr[high] = arr[high], arr[i]
	return i
}

func quickSelect[T any](arr []T, low, high, k int, less func(a, b T) bool) {
	for low < high {
		p := partition(arr, low, high, less)
		switch {
		case p == k:
			return
		case p > k:
			high = p - 1
		default:
			low = p + 1
		}
	}
}

// TopN returns the n items ranked first by less, in rank order. items is not
// modified.
func TopN[T any](items []T, n int, less func(a, b T) bool) []T {
	if n <= 0 || len(items) == 0 {
		return nil
	}

	result := make([]T, len(items))
	copy(result, items)
	if len(result) > n {
		quickSelect(result, 0, len(result)-1, n-1, less)
		result = result[:n]
	}

	sort.SliceStable(result, func(i, j int) bool {
		return less(result[i], result[j])
	})
	return result
}
