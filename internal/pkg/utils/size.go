package utils

import "fmt"

var sizeUnits = []string{"KB", "MB", "GB"}

// FormatSize renders bytes in the largest unit (up to GB) whose value is at
// least 1, with one decimal place above bytes: 1536 -> "1.5 KB".
func FormatSize(bytes int64) string {
	if bytes < 1024 {
		return fmt.Sprintf("%d B", bytes)
	}
	value := float64(bytes)
	unit := ""
	for _, u := range sizeUnits {
		if value < 1024 {
			break
		}
		value /= 1024
		unit = u
	}
	return fmt.Sprintf("%.1f %s", value, unit)
}
