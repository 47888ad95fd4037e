package redisx

const ns = "curbline:v1"

func ChannelSpotsChanged() string {
	return ns + ":spots:changed"
}
