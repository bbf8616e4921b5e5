package game

// Normalize normalizes value relative to otherValue to a score between -1 and 1
func Normalize(value float64, otherValue float64) float64 {
	total := value + otherValue
	if total == 0 {
		return 0
	}
	return (value - otherValue) / total
}
