package redis

import "fmt"

const cacheNS = "curbline:v1"

func KeySpot(id string) string {
	return fmt.Sprintf("%s:spot:%s", cacheNS, id)
}

func KeySpotHistory(id string) string {
	return fmt.Sprintf("%s:spot:%s:history", cacheNS, id)
}

func KeyAvailableSpots() string {
	return cacheNS + ":spots:available"
}
